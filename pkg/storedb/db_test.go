package storedb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(OpenOptions{})
	require.ErrorIs(t, err, ErrDBPathRequired)
}

func TestOpen_AppliesMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(OpenOptions{
		Path: path,
		Migrations: []Migration{
			{Version: 1, Name: "create_t", SQL: `CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)`},
			{Version: 2, Name: "seed_t", SQL: `INSERT INTO t (id, v) VALUES (1, 'hello')`},
		},
	})
	require.NoError(t, err)
	defer db.Close()

	var v string
	require.NoError(t, db.QueryRow(`SELECT v FROM t WHERE id = 1`).Scan(&v))
	assert.Equal(t, "hello", v)
}

func TestOpen_MigrationsIdempotentAcrossReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	migrations := []Migration{
		{Version: 1, Name: "create_t", SQL: `CREATE TABLE t (id INTEGER PRIMARY KEY)`},
		{Version: 2, Name: "seed_t", SQL: `INSERT INTO t (id) VALUES (1)`},
	}

	db, err := Open(OpenOptions{Path: path, Migrations: migrations})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// reopening must not re-run the seed insert
	db, err = Open(OpenOptions{Path: path, Migrations: migrations})
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM t`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestOpen_NewMigrationsApplyOnReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	v1 := []Migration{
		{Version: 1, Name: "create_t", SQL: `CREATE TABLE t (id INTEGER PRIMARY KEY)`},
	}

	db, err := Open(OpenOptions{Path: path, Migrations: v1})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	v2 := append(v1, Migration{Version: 2, Name: "add_col", SQL: `ALTER TABLE t ADD COLUMN v TEXT`})
	db, err = Open(OpenOptions{Path: path, Migrations: v2})
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`INSERT INTO t (id, v) VALUES (1, 'x')`)
	require.NoError(t, err)
}

func TestOpen_DuplicateMigrationVersion(t *testing.T) {
	_, err := Open(OpenOptions{
		Path: filepath.Join(t.TempDir(), "test.db"),
		Migrations: []Migration{
			{Version: 1, Name: "a", SQL: `CREATE TABLE a (id INTEGER)`},
			{Version: 1, Name: "b", SQL: `CREATE TABLE b (id INTEGER)`},
		},
	})
	require.ErrorIs(t, err, ErrDuplicateMigration)
}

func TestOpen_BadMigrationSQL(t *testing.T) {
	_, err := Open(OpenOptions{
		Path: filepath.Join(t.TempDir(), "test.db"),
		Migrations: []Migration{
			{Version: 1, Name: "bad", SQL: `NOT VALID SQL`},
		},
	})
	require.ErrorIs(t, err, ErrApplyMigration)
}

func TestOpen_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "test.db")

	db, err := Open(OpenOptions{Path: path})
	require.NoError(t, err)
	defer db.Close()
}
