//go:build cgo

package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunobiangulo/docremedy/report"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "history.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecords() []report.Record {
	return []report.Record{
		{
			Name: "Syllabus.pdf", URL: "http://x/s.pdf",
			TotalIssues: 4, CriticalIssues: 4, Score: 85,
			Aux: []report.Attribute{{Key: "Author", Value: "Dr. Smith"}, {Key: "Created", Value: ""}},
		},
		{Name: "Notes.pdf", URL: "#", TotalIssues: 2, Score: 50.5},
	}
}

// storeSuite runs the same behavior checks against any backend.
func storeSuite(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		created, err := s.Create(ctx, FromRecords("alice", "march.csv", sampleRecords())...)
		require.NoError(t, err)
		require.Len(t, created, 2)
		assert.NotEqual(t, uuid.Nil, created[0].ID)
		assert.False(t, created[0].Date.IsZero())
		assert.True(t, created[0].Date.Equal(created[1].Date))

		got, err := s.List(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, got, 2)
		for i := range got {
			assert.Equal(t, created[i].ID, got[i].ID)
			assert.Equal(t, created[i].Record, got[i].Record)
			assert.Equal(t, "march.csv", got[i].ReportName)
			assert.True(t, created[i].Date.Equal(got[i].Date), "date %v != %v", created[i].Date, got[i].Date)
		}
	})

	t.Run("newest upload first", func(t *testing.T) {
		older := Entry{UserID: "bob", ReportName: "old.csv", Date: time.Date(2024, 1, 2, 3, 4, 5, 6000, time.UTC), Record: report.Record{Name: "old"}}
		newer := Entry{UserID: "bob", ReportName: "new.csv", Date: older.Date.Add(48 * time.Hour), Record: report.Record{Name: "new"}}
		_, err := s.Create(ctx, older)
		require.NoError(t, err)
		_, err = s.Create(ctx, newer)
		require.NoError(t, err)

		got, err := s.List(ctx, "bob")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "new", got[0].Name)
		assert.Equal(t, "old", got[1].Name)
		assert.True(t, older.Date.Equal(got[1].Date))
	})

	t.Run("users are isolated", func(t *testing.T) {
		got, err := s.List(ctx, "carol")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)

		alice, err := s.List(ctx, "alice")
		require.NoError(t, err)
		require.NotEmpty(t, alice)
		assert.ErrorIs(t, s.Delete(ctx, "carol", alice[0].ID), ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		alice, err := s.List(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, alice, 2)

		require.NoError(t, s.Delete(ctx, "alice", alice[0].ID))
		assert.ErrorIs(t, s.Delete(ctx, "alice", alice[0].ID), ErrNotFound)

		left, err := s.List(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, left, 1)
		assert.Equal(t, alice[1].ID, left[0].ID)
	})

	t.Run("user required", func(t *testing.T) {
		_, err := s.Create(ctx, Entry{Record: report.Record{Name: "x"}})
		assert.ErrorIs(t, err, ErrNoUser)
		_, err = s.List(ctx, "")
		assert.ErrorIs(t, err, ErrNoUser)
		assert.ErrorIs(t, s.Delete(ctx, "", uuid.New()), ErrNoUser)
	})
}

func TestSQLiteStore(t *testing.T) {
	storeSuite(t, newTestSQLite(t))
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("DOCREMEDY_TEST_POSTGRES_URL")
	if dsn == "" {
		t.Skip("DOCREMEDY_TEST_POSTGRES_URL not set")
	}
	s, err := Open(context.Background(), dsn, nil)
	require.NoError(t, err)
	defer s.Close()

	pg := s.(*PostgresStore)
	_, err = pg.pool.Exec(context.Background(), "TRUNCATE history_entries")
	require.NoError(t, err)

	storeSuite(t, s)
}

func TestSQLiteMigrations(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	v, err := s.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, migrations[len(migrations)-1].version, v)

	// Re-running is a no-op.
	require.NoError(t, s.Migrate(ctx))
	v2, err := s.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, v, v2)
}

func TestOpen_SQLitePaths(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "dir")
	s, err := Open(context.Background(), "sqlite://"+filepath.Join(dir, "h.db"), nil)
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &SQLiteStore{}, s)
	assert.FileExists(t, filepath.Join(dir, "h.db"))

	_, err = Open(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestCreateAtomic(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	id := uuid.New()
	_, err := s.Create(ctx, Entry{ID: id, UserID: "u", Record: report.Record{Name: "a"}})
	require.NoError(t, err)

	// Second batch collides on the primary key and must leave nothing behind.
	_, err = s.Create(ctx,
		Entry{UserID: "u", Record: report.Record{Name: "b"}},
		Entry{ID: id, UserID: "u", Record: report.Record{Name: "dup"}})
	require.Error(t, err)

	got, err := s.List(ctx, "u")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Name)
}
