package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/campus-planner/internal/persistence"
	"github.com/example/campus-planner/internal/persistence/sqlite"
)

// NewSQLiteHarness opens a migrated SQLite store in a temporary directory and
// closes it when the test ends.
func NewSQLiteHarness(tb testing.TB) persistence.Store {
	tb.Helper()

	ctx := context.Background()
	path := filepath.Join(tb.TempDir(), "campus.db")
	store, err := sqlite.Open(ctx, sqlite.DefaultConfig(path))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() { _ = store.Close() })

	if err := store.Migrate(ctx, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		tb.Fatalf("failed to migrate storage: %v", err)
	}
	return store
}
