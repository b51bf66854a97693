package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/saaga0h/atdesk-features/internal/sensor"
)

type sessionParquetRow struct {
	UserID    string    `parquet:"name=user_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Day       string    `parquet:"name=day, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Sensor    string    `parquet:"name=sensor, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Index     int64     `parquet:"name=sample_index, type=INT64"`
	Timestamp float64   `parquet:"name=ts, type=DOUBLE"`
	Offset    int32     `parquet:"name=offset_s, type=INT32"`
	Values    []float64 `parquet:"name=values, type=DOUBLE, repetitiontype=REPEATED"`
	Label     int32     `parquet:"name=label, type=INT32"`
}

type featureParquetRow struct {
	RunID       string    `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	UserID      string    `parquet:"name=user_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Day         string    `parquet:"name=day, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	WindowIndex int64     `parquet:"name=window_index, type=INT64"`
	Label       int32     `parquet:"name=label, type=INT32"`
	Features    []float64 `parquet:"name=features, type=DOUBLE, repetitiontype=REPEATED"`
}

// featureSchemaFile lists the feature column names next to features.parquet
type featureSchemaFile struct {
	RunID   string   `json:"run_id"`
	UserID  string   `json:"user_id"`
	Columns []string `json:"columns"`
	Rows    int      `json:"rows"`
}

// ParquetSink writes one directory per user under a root directory:
// session_<day>.parquet for session arrays, features.parquet plus
// features_schema.json for the feature matrix
type ParquetSink struct {
	dir    string
	logger *slog.Logger
}

// NewParquetSink creates a Parquet sink rooted at dir
func NewParquetSink(dir string, logger *slog.Logger) (*ParquetSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &ParquetSink{
		dir:    dir,
		logger: logger.With("component", "parquet_sink"),
	}, nil
}

// SessionPath returns the file a session is written to
func (p *ParquetSink) SessionPath(userID, day string) string {
	return filepath.Join(p.dir, userID, "session_"+day+".parquet")
}

// FeaturesPath returns the feature matrix file of a user
func (p *ParquetSink) FeaturesPath(userID string) string {
	return filepath.Join(p.dir, userID, "features.parquet")
}

// SaveSession implements Sink
func (p *ParquetSink) SaveSession(ctx context.Context, s *SessionArrays) error {
	path := p.SessionPath(s.UserID, s.Day)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create user directory: %w", err)
	}

	var rows []sessionParquetRow
	for _, t := range sortedSensors(s) {
		m := s.Sensors[t]
		for i, r := range m {
			row := sessionParquetRow{
				UserID:    s.UserID,
				Day:       s.Day,
				Sensor:    string(t),
				Index:     int64(i),
				Timestamp: r[sensor.ColTimestamp],
				Offset:    int32(r[sensor.ColOffset]),
				Values:    r[sensor.ColFirstChannel:],
			}
			if i < len(s.Labels) {
				row.Label = int32(s.Labels[i])
			}
			rows = append(rows, row)
		}
	}

	if err := writeParquet(path, new(sessionParquetRow), rows); err != nil {
		return fmt.Errorf("write session parquet %s: %w", path, err)
	}

	p.logger.Debug("Session arrays written", "path", path, "rows", len(rows))
	return nil
}

// SaveUserFeatures implements Sink
func (p *ParquetSink) SaveUserFeatures(ctx context.Context, u *UserFeatures) error {
	if err := u.Validate(); err != nil {
		return err
	}

	path := p.FeaturesPath(u.UserID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create user directory: %w", err)
	}

	rows := make([]featureParquetRow, len(u.Features))
	windowIndex := int64(0)
	for i, f := range u.Features {
		if i > 0 && u.Days[i] != u.Days[i-1] {
			windowIndex = 0
		}
		rows[i] = featureParquetRow{
			RunID:       u.RunID.String(),
			UserID:      u.UserID,
			Day:         u.Days[i],
			WindowIndex: windowIndex,
			Label:       int32(u.Labels[i]),
			Features:    f,
		}
		windowIndex++
	}

	if err := writeParquet(path, new(featureParquetRow), rows); err != nil {
		return fmt.Errorf("write features parquet %s: %w", path, err)
	}

	schema, err := json.MarshalIndent(featureSchemaFile{
		RunID:   u.RunID.String(),
		UserID:  u.UserID,
		Columns: u.Schema,
		Rows:    len(rows),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode feature schema: %w", err)
	}
	schemaPath := filepath.Join(filepath.Dir(path), "features_schema.json")
	if err := os.WriteFile(schemaPath, schema, 0o644); err != nil {
		return fmt.Errorf("failed to write feature schema: %w", err)
	}

	p.logger.Info("User features written",
		"user_id", u.UserID,
		"path", path,
		"windows", len(rows),
		"columns", len(u.Schema))
	return nil
}

func writeParquet[T any](path string, schema *T, rows []T) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	pw, err := writer.NewParquetWriter(fw, schema, 4)
	if err != nil {
		_ = fw.Close()
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return err
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}
