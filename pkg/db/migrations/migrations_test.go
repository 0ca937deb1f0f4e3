package migrations

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSortsByVersion(t *testing.T) {
	source := fstest.MapFS{
		"002_add_notes.sql":   {Data: []byte("ALTER TABLE t ADD COLUMN notes TEXT;")},
		"001_initial.sql":     {Data: []byte("CREATE TABLE t (id INTEGER);")},
		"README.md":           {Data: []byte("ignored")},
		"003_index_on_id.sql": {Data: []byte("CREATE INDEX idx_t ON t(id);")},
	}

	migrations, err := Load(source)
	require.NoError(t, err)
	require.Len(t, migrations, 3)
	assert.Equal(t, "001", migrations[0].Version)
	assert.Equal(t, "initial", migrations[0].Description)
	assert.Equal(t, "index on id", migrations[2].Description)
}

func TestLoadRejectsBadName(t *testing.T) {
	_, err := Load(fstest.MapFS{"initial.sql": {Data: []byte("")}})
	assert.Error(t, err)
}

func TestMigrateUpAppliesEmbeddedOnce(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	m := NewMigrator(db, Files())
	require.NoError(t, m.MigrateUp())
	require.NoError(t, m.MigrateUp())

	applied, err := m.GetAppliedMigrations()
	require.NoError(t, err)
	assert.True(t, applied["001"])

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&count))
	assert.Equal(t, 1, count)

	_, err = db.Exec("INSERT INTO players (player_name, first_seen, last_seen) VALUES ('Hero', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)")
	assert.NoError(t, err)
}

func TestCreateMigration(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sql")

	first, err := CreateMigration(dir, "add table")
	require.NoError(t, err)
	assert.Equal(t, "001_add_table.sql", filepath.Base(first))

	second, err := CreateMigration(dir, "add index")
	require.NoError(t, err)
	assert.Equal(t, "002_add_index.sql", filepath.Base(second))

	content, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Contains(t, string(content), "-- Migration: add index")
}
