// Package history keeps each user's uploaded report records.
//
// Two backends implement Store: SQLite for single-host deployments and
// Postgres (pgx pool) for shared ones. Open picks one from the DSN.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brunobiangulo/docremedy/report"
)

var (
	// ErrNotFound is returned when an entry does not exist for the user.
	ErrNotFound = errors.New("history: entry not found")

	// ErrNoUser is returned when an operation carries no user identifier.
	ErrNoUser = errors.New("history: user id is required")
)

// Entry is one stored record from an upload.
type Entry struct {
	ID         uuid.UUID `json:"id"`
	UserID     string    `json:"user_id"`
	ReportName string    `json:"report_name"`
	Date       time.Time `json:"date"`
	report.Record
}

// Store persists entries per user. User IDs are opaque.
type Store interface {
	// Create stores entries atomically and returns them with ID and Date
	// filled in where they were zero.
	Create(ctx context.Context, entries ...Entry) ([]Entry, error)
	// List returns a user's entries, newest upload first and in upload order
	// within one upload.
	List(ctx context.Context, userID string) ([]Entry, error)
	// Delete removes one of the user's entries.
	Delete(ctx context.Context, userID string, id uuid.UUID) error
	Close() error
}

// Open opens the store named by dsn: postgres:// or postgresql:// URLs use
// Postgres, anything else is a SQLite file path (an optional sqlite://
// prefix is stripped).
func Open(ctx context.Context, dsn string, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch {
	case dsn == "":
		return nil, fmt.Errorf("history: empty dsn")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return OpenPostgres(ctx, dsn, logger)
	default:
		return OpenSQLite(ctx, strings.TrimPrefix(dsn, "sqlite://"), logger)
	}
}

// FromRecords builds entries for one upload.
func FromRecords(userID, reportName string, recs []report.Record) []Entry {
	out := make([]Entry, len(recs))
	for i, r := range recs {
		out[i] = Entry{UserID: userID, ReportName: reportName, Record: r}
	}
	return out
}

// prepare assigns IDs and a shared upload time. Times are truncated to
// microseconds so they survive every backend unchanged.
func prepare(entries []Entry) ([]Entry, error) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	out := make([]Entry, len(entries))
	for i, e := range entries {
		if strings.TrimSpace(e.UserID) == "" {
			return nil, ErrNoUser
		}
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		if e.Date.IsZero() {
			e.Date = now
		} else {
			e.Date = e.Date.UTC().Truncate(time.Microsecond)
		}
		out[i] = e
	}
	return out, nil
}
