package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/brunobiangulo/docremedy/report"
)

// sortableTime keeps text timestamps in chronological order.
const sortableTime = "2006-01-02T15:04:05.000000Z"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS history_entries (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    report_name TEXT NOT NULL,
    uploaded_at TEXT NOT NULL,
    name TEXT NOT NULL,
    url TEXT NOT NULL,
    total_issues INTEGER NOT NULL,
    critical_issues INTEGER NOT NULL,
    score REAL NOT NULL,
    aux JSON
);

CREATE INDEX IF NOT EXISTS idx_history_user ON history_entries(user_id);
`

// SQLiteStore is a Store backed by a SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (or creates) a SQLite database at path and applies
// pending migrations.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	logger.Debug("history: sqlite store ready", "path", path)
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Create implements Store.
func (s *SQLiteStore) Create(ctx context.Context, entries ...Entry) ([]Entry, error) {
	prepared, err := prepare(entries)
	if err != nil {
		return nil, err
	}
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO history_entries
				(id, user_id, report_name, uploaded_at, name, url, total_issues, critical_issues, score, aux)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range prepared {
			aux, err := marshalAux(e.Aux)
			if err != nil {
				return err
			}
			var auxArg any
			if aux != nil {
				auxArg = string(aux)
			}
			if _, err := stmt.ExecContext(ctx,
				e.ID.String(), e.UserID, e.ReportName, e.Date.Format(sortableTime),
				e.Name, e.URL, e.TotalIssues, e.CriticalIssues, e.Score, auxArg); err != nil {
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
func (s *SQLiteStore) List(ctx context.Context, userID string) ([]Entry, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, report_name, uploaded_at, name, url, total_issues, critical_issues, score, aux
		FROM history_entries WHERE user_id = ?
		ORDER BY uploaded_at DESC, rowid ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e        Entry
			id, date string
			aux      sql.NullString
		)
		if err := rows.Scan(&id, &e.UserID, &e.ReportName, &date,
			&e.Name, &e.URL, &e.TotalIssues, &e.CriticalIssues, &e.Score, &aux); err != nil {
			return nil, err
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("entry id %q: %w", id, err)
		}
		if e.Date, err = time.Parse(sortableTime, date); err != nil {
			return nil, fmt.Errorf("entry %s date: %w", id, err)
		}
		if e.Aux, err = unmarshalAux([]byte(aux.String)); err != nil {
			return nil, fmt.Errorf("entry %s aux: %w", id, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if userID == "" {
		return ErrNoUser
	}
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM history_entries WHERE id = ? AND user_id = ?", id.String(), userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func marshalAux(aux []report.Attribute) ([]byte, error) {
	if len(aux) == 0 {
		return nil, nil
	}
	return json.Marshal(aux)
}

func unmarshalAux(data []byte) ([]report.Attribute, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var aux []report.Attribute
	if err := json.Unmarshal(data, &aux); err != nil {
		return nil, err
	}
	return aux, nil
}
