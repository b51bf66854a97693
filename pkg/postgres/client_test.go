package postgres

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/atdesk-features/pkg/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClientNotConnected(t *testing.T) {
	cfg := config.NewConfig()
	c := NewClient(cfg, testLogger())
	ctx := context.Background()

	assert.ErrorIs(t, c.Migrate(ctx, "v1", "SELECT 1"), ErrNotConnected)
	assert.ErrorIs(t, c.Transaction(ctx, func(*sql.Tx) error { return nil }), ErrNotConnected)
	assert.NoError(t, c.Disconnect(), "disconnecting an unopened client is a no-op")

	status, err := c.HealthCheck(ctx)
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.Equal(t, cfg.PostgresDB, status.Database)
	assert.Equal(t, ErrNotConnected.Error(), status.Error)
	assert.Zero(t, status.OpenConnections)
}

// Requires a reachable database, e.g. ATDESK_TEST_POSTGRES=1 with the ATDESK_POSTGRES_* settings
func TestClientMigrateIsIdempotent(t *testing.T) {
	if os.Getenv("ATDESK_TEST_POSTGRES") == "" {
		t.Skip("ATDESK_TEST_POSTGRES not set")
	}

	cfg := config.NewConfig()
	cfg.LoadFromEnv()
	c := NewClient(cfg, testLogger())
	ctx := context.Background()

	require.NoError(t, c.Connect(ctx))
	defer c.Disconnect()

	ddl := "CREATE TABLE IF NOT EXISTS migrate_test (id INT); INSERT INTO migrate_test VALUES (1)"
	require.NoError(t, c.Migrate(ctx, "migrate_test_v1", ddl))
	require.NoError(t, c.Migrate(ctx, "migrate_test_v1", ddl))

	var rows int
	err := c.Transaction(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, "SELECT count(*) FROM migrate_test").Scan(&rows)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rows, "the script runs once")

	status, err := c.HealthCheck(ctx)
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.NotEmpty(t, status.ServerVersion)
	assert.GreaterOrEqual(t, status.OpenConnections, 1)

	err = c.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "DROP TABLE migrate_test; DELETE FROM schema_migrations WHERE name = 'migrate_test_v1'")
		return err
	})
	require.NoError(t, err)
}
