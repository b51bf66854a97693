package postgres

import (
	"context"
	"database/sql"
)

// Client is the Postgres surface used by the feature sink and health checks
type Client interface {
	// Connect opens the pool and verifies the server is reachable
	Connect(ctx context.Context) error

	// Disconnect closes the pool
	Disconnect() error

	// Migrate applies a named DDL script once; later calls with the same name are no-ops
	Migrate(ctx context.Context, name, ddl string) error

	// Transaction runs fn in a transaction, rolling back when fn fails
	Transaction(ctx context.Context, fn func(*sql.Tx) error) error

	// HealthCheck reports reachability, server version and pool usage
	HealthCheck(ctx context.Context) (*HealthStatus, error)
}
