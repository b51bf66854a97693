package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/saaga0h/atdesk-features/internal/groundtruth"
	"github.com/saaga0h/atdesk-features/internal/sink"
	"github.com/saaga0h/atdesk-features/pkg/config"
	"github.com/saaga0h/atdesk-features/pkg/mqtt"
)

// Publisher sends batch events; mqtt.Client satisfies it
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// Runner processes every registered session and stores per-user feature matrices
type Runner struct {
	registry  *groundtruth.Registry
	processor *Processor
	sink      sink.Sink
	publisher Publisher
	cfg       *config.Config
	logger    *slog.Logger
}

// NewRunner creates a batch runner. publisher may be nil.
func NewRunner(
	registry *groundtruth.Registry,
	loader SessionLoader,
	out sink.Sink,
	publisher Publisher,
	cfg *config.Config,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		registry:  registry,
		processor: NewProcessor(loader, out, cfg, logger),
		sink:      out,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.With("component", "batch_runner"),
	}
}

type sessionOutcome struct {
	report SessionReport
	output *SessionOutput
}

// Run processes all registered sessions. users limits the run to the given
// user ids; an empty list runs everyone. A session failure never aborts the
// batch; only context cancellation does.
func (r *Runner) Run(ctx context.Context, users ...string) (*Summary, error) {
	summary := &Summary{
		RunID:     uuid.New(),
		StartedAt: time.Now().UTC(),
	}

	sessions := filterSessions(r.registry.Sessions(), users)

	r.logger.Info("Starting batch run",
		"run_id", summary.RunID,
		"sessions", len(sessions),
		"workers", r.cfg.Workers)

	outcomes := make([]sessionOutcome, len(sessions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, s := range sessions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = r.runSession(gctx, summary.RunID, s)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch run cancelled: %w", err)
	}

	for _, o := range outcomes {
		summary.add(o.report)
	}

	for _, user := range uniqueUsers(sessions) {
		summary.Users = append(summary.Users, r.saveUser(ctx, summary.RunID, user, sessions, outcomes))
	}

	summary.FinishedAt = time.Now().UTC()

	r.logger.Info("Batch run complete",
		"run_id", summary.RunID,
		"succeeded", summary.Succeeded,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"user_failures", summary.UserFailures(),
		"duration", summary.FinishedAt.Sub(summary.StartedAt))

	r.publish(mqtt.TopicSummary, summary)

	return summary, nil
}

func (r *Runner) runSession(ctx context.Context, runID uuid.UUID, s groundtruth.Session) sessionOutcome {
	start := time.Now()
	report := SessionReport{UserID: s.UserID, Day: s.Day}

	out, err := r.processor.Process(ctx, runID, s, r.registry.Intervals(s.UserID))
	report.Duration = time.Since(start).Seconds()

	switch {
	case err == nil:
		report.Status = StatusSucceeded
		report.Samples = out.Samples
		report.Windows = len(out.Features.Features)
		report.Faults = len(out.Faults)
		report.Clamped = out.Clamped
		report.Rejected = rejectedByName(out)
	case errors.Is(err, ErrEmptySession):
		report.Status = StatusSkipped
		report.Error = err.Error()
		r.logger.Info("Session skipped", "session", s.String(), "reason", err)
	default:
		report.Status = StatusFailed
		report.Error = err.Error()
		r.logger.Error("Session failed", "session", s.String(), "error", err)
	}

	r.publish(mqtt.SessionTopic(s.UserID, s.Day), report)

	return sessionOutcome{report: report, output: out}
}

// saveUser concatenates the successful sessions of a user in day order
func (r *Runner) saveUser(ctx context.Context, runID uuid.UUID, userID string, sessions []groundtruth.Session, outcomes []sessionOutcome) UserReport {
	report := UserReport{UserID: userID}
	uf := &sink.UserFeatures{RunID: runID, UserID: userID}

	for i, s := range sessions {
		if s.UserID != userID || outcomes[i].report.Status != StatusSucceeded {
			continue
		}
		res := outcomes[i].output.Features
		if uf.Schema == nil {
			uf.Schema = res.Schema
		}
		uf.Features = append(uf.Features, res.Features...)
		uf.Labels = append(uf.Labels, res.Labels...)
		for range res.Features {
			uf.Days = append(uf.Days, s.Day)
		}
		report.Days++
	}
	report.Windows = len(uf.Features)

	if report.Windows == 0 {
		r.logger.Warn("No features for user", "user_id", userID)
		return report
	}

	if err := r.sink.SaveUserFeatures(ctx, uf); err != nil {
		report.Error = err.Error()
		r.logger.Error("Failed to save user features", "user_id", userID, "error", err)
	}
	return report
}

func (r *Runner) publish(topic string, v any) {
	if r.publisher == nil || !r.cfg.PublishEvents {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		r.logger.Error("Failed to encode event", "topic", topic, "error", err)
		return
	}
	if err := r.publisher.Publish(topic, 0, false, payload); err != nil {
		r.logger.Warn("Failed to publish event", "topic", topic, "error", err)
	}
}

func filterSessions(sessions []groundtruth.Session, users []string) []groundtruth.Session {
	if len(users) == 0 {
		return sessions
	}
	keep := make(map[string]bool, len(users))
	for _, u := range users {
		keep[u] = true
	}
	var out []groundtruth.Session
	for _, s := range sessions {
		if keep[s.UserID] {
			out = append(out, s)
		}
	}
	return out
}

func uniqueUsers(sessions []groundtruth.Session) []string {
	var users []string
	seen := make(map[string]bool)
	for _, s := range sessions {
		if !seen[s.UserID] {
			seen[s.UserID] = true
			users = append(users, s.UserID)
		}
	}
	return users
}

func rejectedByName(out *SessionOutput) map[string]int {
	m := make(map[string]int)
	for t, n := range out.Rejected {
		if n > 0 {
			m[string(t)] = n
		}
	}
	return m
}
