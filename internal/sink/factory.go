package sink

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/saaga0h/atdesk-features/pkg/config"
	"github.com/saaga0h/atdesk-features/pkg/postgres"
)

// Sink names accepted in configuration
const (
	NameParquet  = "parquet"
	NamePostgres = "postgres"
)

// FromConfig builds the sinks enabled in cfg. pgClient must be connected when
// the postgres sink is enabled and is ignored otherwise.
func FromConfig(ctx context.Context, cfg *config.Config, pgClient postgres.Client, logger *slog.Logger) (Sink, error) {
	var sinks Multi

	for _, name := range cfg.Sinks {
		switch name {
		case NameParquet:
			ps, err := NewParquetSink(cfg.OutputDir, logger)
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, ps)
		case NamePostgres:
			if pgClient == nil {
				return nil, fmt.Errorf("postgres sink enabled without a postgres client")
			}
			pg := NewPostgresSink(pgClient, logger)
			if err := pg.EnsureSchema(ctx); err != nil {
				return nil, err
			}
			sinks = append(sinks, pg)
		default:
			return nil, fmt.Errorf("unknown sink %q", name)
		}
	}

	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return sinks, nil
}
