package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS history_entries (
    seq BIGSERIAL,
    id UUID PRIMARY KEY,
    user_id TEXT NOT NULL,
    report_name TEXT NOT NULL,
    uploaded_at TIMESTAMPTZ NOT NULL,
    name TEXT NOT NULL,
    url TEXT NOT NULL,
    total_issues INTEGER NOT NULL,
    critical_issues INTEGER NOT NULL,
    score DOUBLE PRECISION NOT NULL,
    aux JSONB
);

CREATE INDEX IF NOT EXISTS idx_history_user_date ON history_entries(user_id, uploaded_at DESC);
`

// PostgresStore is a Store backed by a pgx connection pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenPostgres connects to databaseURL and creates the schema if needed.
func OpenPostgres(ctx context.Context, databaseURL string, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pc, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "docremedy"

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("history: connected to postgres")
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Create implements Store.
func (s *PostgresStore) Create(ctx context.Context, entries ...Entry) ([]Entry, error) {
	prepared, err := prepare(entries)
	if err != nil {
		return nil, err
	}

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, e := range prepared {
			aux, err := marshalAux(e.Aux)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO history_entries
					(id, user_id, report_name, uploaded_at, name, url, total_issues, critical_issues, score, aux)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				e.ID, e.UserID, e.ReportName, e.Date,
				e.Name, e.URL, e.TotalIssues, e.CriticalIssues, e.Score, aux); err != nil {
				return fmt.Errorf("inserting entry %s: %w", e.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return prepared, nil
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context, userID string) ([]Entry, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, report_name, uploaded_at, name, url, total_issues, critical_issues, score, aux
		FROM history_entries WHERE user_id = $1
		ORDER BY uploaded_at DESC, seq ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e   Entry
			at  time.Time
			aux []byte
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.ReportName, &at,
			&e.Name, &e.URL, &e.TotalIssues, &e.CriticalIssues, &e.Score, &aux); err != nil {
			return nil, err
		}
		e.Date = at.UTC()
		if e.Aux, err = unmarshalAux(aux); err != nil {
			return nil, fmt.Errorf("entry %s aux: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete implements Store.
func (s *PostgresStore) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if userID == "" {
		return ErrNoUser
	}
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM history_entries WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
