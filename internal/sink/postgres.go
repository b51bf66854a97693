package sink

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/saaga0h/atdesk-features/internal/sensor"
	"github.com/saaga0h/atdesk-features/pkg/postgres"
)

// PostgresSchema creates the tables used by PostgresSink
const PostgresSchema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS session_arrays (
    id            UUID PRIMARY KEY,
    run_id        UUID NOT NULL,
    user_id       TEXT NOT NULL,
    day           DATE NOT NULL,
    sensor        TEXT NOT NULL,
    channel_count INTEGER NOT NULL,
    timestamps    DOUBLE PRECISION[] NOT NULL,
    offsets       BIGINT[] NOT NULL,
    channels      DOUBLE PRECISION[] NOT NULL,
    labels        BIGINT[] NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (run_id, user_id, day, sensor)
);

CREATE TABLE IF NOT EXISTS feature_schemas (
    run_id     UUID NOT NULL,
    user_id    TEXT NOT NULL,
    columns    TEXT[] NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (run_id, user_id)
);

CREATE TABLE IF NOT EXISTS window_features (
    id           UUID PRIMARY KEY,
    run_id       UUID NOT NULL,
    user_id      TEXT NOT NULL,
    day          DATE NOT NULL,
    window_index INTEGER NOT NULL,
    label        SMALLINT NOT NULL,
    features     vector NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_window_features_user ON window_features (user_id, day, window_index);
`

// PostgresSink stores session arrays as Postgres arrays and feature rows as pgvector vectors
type PostgresSink struct {
	client postgres.Client
	logger *slog.Logger
}

// NewPostgresSink creates a Postgres sink on a connected client
func NewPostgresSink(client postgres.Client, logger *slog.Logger) *PostgresSink {
	return &PostgresSink{
		client: client,
		logger: logger.With("component", "postgres_sink"),
	}
}

// SchemaMigration names the PostgresSchema revision in schema_migrations
const SchemaMigration = "feature_sink_v1"

// EnsureSchema applies PostgresSchema once per database
func (p *PostgresSink) EnsureSchema(ctx context.Context) error {
	if err := p.client.Migrate(ctx, SchemaMigration, PostgresSchema); err != nil {
		return fmt.Errorf("failed to create sink schema: %w", err)
	}
	return nil
}

// SaveSession implements Sink
func (p *PostgresSink) SaveSession(ctx context.Context, s *SessionArrays) error {
	query := `
		INSERT INTO session_arrays (
			id, run_id, user_id, day, sensor, channel_count,
			timestamps, offsets, channels, labels
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (run_id, user_id, day, sensor) DO NOTHING
	`

	labels := toInt64(s.Labels)
	err := p.client.Transaction(ctx, func(tx *sql.Tx) error {
		for _, t := range sortedSensors(s) {
			cols := splitMatrix(s.Sensors[t])
			_, err := tx.ExecContext(ctx, query,
				uuid.New(),
				s.RunID,
				s.UserID,
				s.Day,
				string(t),
				cols.channelCount,
				pq.Float64Array(cols.timestamps),
				pq.Array(cols.offsets),
				pq.Float64Array(cols.channels),
				pq.Array(labels),
			)
			if err != nil {
				return fmt.Errorf("failed to insert %s arrays: %w", t, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session %s/%s: %w", s.UserID, s.Day, err)
	}

	p.logger.Debug("Session arrays stored", "user_id", s.UserID, "day", s.Day, "sensors", len(s.Sensors))
	return nil
}

// SaveUserFeatures implements Sink
func (p *PostgresSink) SaveUserFeatures(ctx context.Context, u *UserFeatures) error {
	if err := u.Validate(); err != nil {
		return err
	}

	err := p.client.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO feature_schemas (run_id, user_id, columns)
			VALUES ($1, $2, $3)
			ON CONFLICT (run_id, user_id) DO UPDATE SET columns = EXCLUDED.columns
		`, u.RunID, u.UserID, pq.StringArray(u.Schema))
		if err != nil {
			return fmt.Errorf("failed to insert feature schema: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO window_features (id, run_id, user_id, day, window_index, label, features)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare feature insert: %w", err)
		}
		defer stmt.Close()

		windowIndex := 0
		for i, row := range u.Features {
			if i > 0 && u.Days[i] != u.Days[i-1] {
				windowIndex = 0
			}
			_, err := stmt.ExecContext(ctx,
				uuid.New(),
				u.RunID,
				u.UserID,
				u.Days[i],
				windowIndex,
				u.Labels[i],
				pgvector.NewVector(toFloat32(row)),
			)
			if err != nil {
				return fmt.Errorf("failed to insert window %d: %w", i, err)
			}
			windowIndex++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save features for %s: %w", u.UserID, err)
	}

	p.logger.Info("User features stored",
		"user_id", u.UserID,
		"windows", len(u.Features),
		"columns", len(u.Schema))
	return nil
}

type matrixColumns struct {
	timestamps   []float64
	offsets      []int64
	channels     []float64 // row-major
	channelCount int
}

func splitMatrix(m sensor.Matrix) matrixColumns {
	cols := matrixColumns{
		timestamps: m.Timestamps(),
		offsets:    toInt64(m.Offsets()),
	}
	rows := m.ChannelRows()
	if len(rows) > 0 {
		cols.channelCount = len(rows[0])
	}
	cols.channels = make([]float64, 0, len(rows)*cols.channelCount)
	for _, r := range rows {
		cols.channels = append(cols.channels, r...)
	}
	return cols
}

func toInt64(v []int) []int64 {
	out := make([]int64, len(v))
	for i, x := range v {
		out[i] = int64(x)
	}
	return out
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
