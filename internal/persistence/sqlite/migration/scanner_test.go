package migration

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSScanner_ScanMigrations(t *testing.T) {
	t.Parallel()

	t.Run("orders by numeric version and ignores other files", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{
			"migrations/010_add_index.sql":      {Data: []byte("CREATE INDEX idx ON t(a);")},
			"migrations/002_second.sql":         {Data: []byte("CREATE TABLE u (id TEXT);")},
			"migrations/001_initial_schema.sql": {Data: []byte("CREATE TABLE t (a TEXT);")},
			"migrations/README.md":              {Data: []byte("notes")},
		}

		got, err := NewScanner(fsys, "migrations").ScanMigrations()
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "001", got[0].Version)
		assert.Equal(t, "initial schema", got[0].Description)
		assert.Equal(t, "migrations/001_initial_schema.sql", got[0].FilePath)
		assert.Len(t, got[0].Checksum, 64)
		assert.Equal(t, "002", got[1].Version)
		assert.Equal(t, "010", got[2].Version)
	})

	t.Run("rejects malformed names", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{"migrations/initial.sql": {Data: []byte("SELECT 1;")}}
		_, err := NewScanner(fsys, "migrations").ScanMigrations()
		assert.ErrorIs(t, err, ErrInvalidMigrationFile)
	})

	t.Run("rejects duplicate versions", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{
			"migrations/001_a.sql": {Data: []byte("SELECT 1;")},
			"migrations/1_b.sql":   {Data: []byte("SELECT 2;")},
		}
		_, err := NewScanner(fsys, "migrations").ScanMigrations()
		assert.ErrorIs(t, err, ErrDuplicateVersion)
	})

	t.Run("rejects empty files", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{"migrations/001_empty.sql": {Data: []byte("  \n")}}
		_, err := NewScanner(fsys, "migrations").ScanMigrations()
		assert.ErrorIs(t, err, ErrInvalidMigrationFile)
	})
}

func TestSplitStatements(t *testing.T) {
	t.Parallel()

	sql := `
-- owners
CREATE TABLE a (id TEXT);

-- comment only;
CREATE INDEX idx_a ON a(id);
`
	assert.Equal(t, []string{"CREATE TABLE a (id TEXT)", "CREATE INDEX idx_a ON a(id)"}, splitStatements(sql))
}
