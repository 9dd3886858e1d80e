package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *sql.DB {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	database := openTemp(t)

	status, err := GetMigrationStatus(database)
	require.NoError(t, err)
	assert.Equal(t, uint(0), status.CurrentVersion)
	assert.True(t, status.Pending)

	require.NoError(t, RunMigrations(database))
	require.NoError(t, RunMigrations(database))

	status, err = GetMigrationStatus(database)
	require.NoError(t, err)
	assert.Equal(t, status.LatestVersion, status.CurrentVersion)
	assert.False(t, status.Pending)
	assert.False(t, status.Dirty)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	database := openTemp(t)
	require.NoError(t, RunMigrations(database))
	ctx := context.Background()

	boom := errors.New("boom")
	err := WithTx(ctx, database, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO companies (name, email) VALUES ('Acme', 'a@acme.test')"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM companies").Scan(&count))
	assert.Zero(t, count)
}

func TestWithTxCommits(t *testing.T) {
	database := openTemp(t)
	require.NoError(t, RunMigrations(database))
	ctx := context.Background()

	err := WithTx(ctx, database, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO companies (name, email) VALUES ('Acme', 'a@acme.test')")
		return err
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM companies").Scan(&count))
	assert.Equal(t, 1, count)
}
