package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
	"github.com/saaga0h/atdesk-features/pkg/config"
)

// ErrNotConnected is returned by every operation before Connect succeeds
var ErrNotConnected = errors.New("postgres client not connected")

const migrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	name       TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresClient wraps a Postgres connection pool
type PostgresClient struct {
	db     *sql.DB
	config *config.Config
	logger *slog.Logger
}

// NewClient creates a new Postgres client
func NewClient(cfg *config.Config, logger *slog.Logger) *PostgresClient {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresClient{
		config: cfg,
		logger: logger.With("component", "postgres"),
	}
}

// Connect establishes connection to the database
func (c *PostgresClient) Connect(ctx context.Context) error {
	c.logger.Info("Connecting to Postgres",
		"host", c.config.PostgresHost,
		"port", c.config.PostgresPort,
		"database", c.config.PostgresDB)

	db, err := sql.Open("postgres", c.config.PostgresConnectionString())
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	db.SetMaxOpenConns(c.config.PostgresMaxConnections)
	db.SetMaxIdleConns(c.config.PostgresMaxIdleConnections)
	db.SetConnMaxLifetime(c.config.PostgresConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	c.db = db
	c.logger.Info("Connected to Postgres successfully")

	return nil
}

// Disconnect closes the Postgres connection
func (c *PostgresClient) Disconnect() error {
	if c.db == nil {
		return nil
	}

	c.logger.Info("Disconnecting from Postgres")

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close postgres connection: %w", err)
	}
	c.db = nil
	return nil
}

// Migrate applies ddl under name unless schema_migrations already records it.
// The script and its record are committed together.
func (c *PostgresClient) Migrate(ctx context.Context, name, ddl string) error {
	if c.db == nil {
		return ErrNotConnected
	}
	if _, err := c.db.ExecContext(ctx, migrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied := false
	err := c.Transaction(ctx, func(tx *sql.Tx) error {
		// serialize concurrent migrators
		if _, err := tx.ExecContext(ctx, "LOCK TABLE schema_migrations IN EXCLUSIVE MODE"); err != nil {
			return err
		}
		var exists bool
		if err := tx.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)", name,
		).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return nil
		}
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (name) VALUES ($1)", name); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", name, err)
	}

	if applied {
		c.logger.Info("Applied migration", "name", name)
	} else {
		c.logger.Debug("Migration already applied", "name", name)
	}
	return nil
}

// Transaction executes a function within a database transaction
func (c *PostgresClient) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	if c.db == nil {
		return ErrNotConnected
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("failed to rollback transaction: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
