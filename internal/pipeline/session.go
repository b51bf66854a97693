package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/saaga0h/atdesk-features/internal/align"
	"github.com/saaga0h/atdesk-features/internal/extraction"
	"github.com/saaga0h/atdesk-features/internal/features"
	"github.com/saaga0h/atdesk-features/internal/groundtruth"
	"github.com/saaga0h/atdesk-features/internal/sensor"
	"github.com/saaga0h/atdesk-features/internal/sink"
	"github.com/saaga0h/atdesk-features/internal/validation"
	"github.com/saaga0h/atdesk-features/pkg/config"
)

var (
	// ErrAlignment marks a session whose aligned arrays disagree in length; nothing is written
	ErrAlignment = errors.New("sensor arrays are not aligned")

	// ErrEmptySession marks a session with no usable data; it is skipped
	ErrEmptySession = errors.New("empty session")
)

// SessionLoader returns the raw datapoints of one (user, day) session
type SessionLoader interface {
	Load(ctx context.Context, userID, day string, types ...sensor.Type) (map[sensor.Type][]sensor.Datapoint, error)
}

// SessionOutput is the result of processing one session
type SessionOutput struct {
	Features *extraction.Result
	Samples  int
	Bounds   align.Bounds
	Rejected map[sensor.Type]int
	Faults   []features.Fault
	Clamped  int
}

// Processor runs one session through validation, alignment, labelling and feature extraction
type Processor struct {
	loader SessionLoader
	sink   sink.Sink
	cfg    *config.Config
	opts   extraction.Options
	logger *slog.Logger
}

// NewProcessor creates a session processor
func NewProcessor(loader SessionLoader, out sink.Sink, cfg *config.Config, logger *slog.Logger) *Processor {
	return &Processor{
		loader: loader,
		sink:   out,
		cfg:    cfg,
		opts:   extraction.OptionsFromConfig(cfg),
		logger: logger.With("component", "session_processor"),
	}
}

// Process aligns, labels and featurizes one session. Session arrays are saved
// only after every alignment check has passed.
func (p *Processor) Process(ctx context.Context, runID uuid.UUID, s groundtruth.Session, intervals []align.LabeledInterval) (*SessionOutput, error) {
	logger := p.logger.With("user_id", s.UserID, "day", s.Day)

	raw, err := p.loader.Load(ctx, s.UserID, s.Day, sensor.SessionSensors...)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	out := &SessionOutput{Rejected: make(map[sensor.Type]int)}

	matrices := make([]sensor.Matrix, len(sensor.SessionSensors))
	for i, t := range sensor.SessionSensors {
		valid, rejected := validation.Filter(t, raw[t])
		out.Rejected[t] = rejected
		if rejected > 0 {
			logger.Debug("Rejected invalid datapoints", "sensor", t, "rejected", rejected, "kept", len(valid))
		}
		if len(valid) < 2 {
			return nil, fmt.Errorf("%w: %s has %d valid datapoints: %w", ErrEmptySession, t, len(valid), align.ErrTooFewRows)
		}
		matrices[i] = sensor.ToMatrix(valid)
	}

	grid, bounds, err := align.DeriveGrid(p.cfg.InterpFreq, matrices...)
	if err != nil {
		if errors.Is(err, align.ErrNoOverlap) {
			return nil, fmt.Errorf("%w: %w", ErrEmptySession, err)
		}
		return nil, fmt.Errorf("derive grid: %w", err)
	}
	out.Bounds = bounds

	aligned := make([]sensor.Matrix, len(matrices))
	for i, m := range matrices {
		t := sensor.SessionSensors[i]
		resampled, err := align.Resample(m, grid)
		if err != nil {
			return nil, fmt.Errorf("%w: resample %s: %w", ErrAlignment, t, err)
		}
		filtered, err := align.FilterHours(resampled, p.cfg.DayStartHour, p.cfg.DayEndHour)
		if err != nil {
			if errors.Is(err, align.ErrEmptyResult) {
				return nil, fmt.Errorf("%w: no %s samples between %02d:00 and %02d:00: %w",
					ErrEmptySession, t, p.cfg.DayStartHour, p.cfg.DayEndHour, err)
			}
			return nil, fmt.Errorf("filter %s: %w", t, err)
		}
		aligned[i] = filtered
	}

	n := aligned[0].Len()
	for i, m := range aligned {
		if m.Len() != n {
			return nil, fmt.Errorf("%w: %s has %d samples, %s has %d",
				ErrAlignment, sensor.SessionSensors[i], m.Len(), sensor.SessionSensors[0], n)
		}
	}
	out.Samples = n

	labels := align.AssignLabels(aligned[0].Timestamps(), intervals)

	session := extraction.Session{
		Accel:     aligned[0],
		Gyro:      aligned[1],
		ActType:   aligned[2],
		StepCount: aligned[3],
		Labels:    labels,
	}

	rec := features.NewRecorder()
	res, err := extraction.Build(session, p.opts, rec)
	if err != nil {
		if errors.Is(err, extraction.ErrWindowMismatch) {
			return nil, fmt.Errorf("%w: %w", ErrAlignment, err)
		}
		return nil, fmt.Errorf("extract features: %w", err)
	}
	if len(res.Features) == 0 {
		return nil, fmt.Errorf("%w: %d samples is shorter than one window", ErrEmptySession, n)
	}
	rec.LogSummary(logger, "windows", len(res.Features))
	out.Features = res
	out.Faults = rec.Faults()
	out.Clamped = rec.Clamped()

	arrays := &sink.SessionArrays{
		RunID:   runID,
		UserID:  s.UserID,
		Day:     s.Day,
		Sensors: make(map[sensor.Type]sensor.Matrix, len(aligned)),
		Labels:  labels,
	}
	for i, t := range sensor.SessionSensors {
		arrays.Sensors[t] = aligned[i]
	}
	if err := p.sink.SaveSession(ctx, arrays); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	logger.Info("Session processed",
		"samples", n,
		"windows", len(res.Features),
		"grid_start", bounds.Start,
		"grid_end", bounds.End)

	return out, nil
}
