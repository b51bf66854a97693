package sink

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/saaga0h/atdesk-features/internal/sensor"
)

// SessionArrays are the aligned, filtered and labelled arrays of one session
type SessionArrays struct {
	RunID   uuid.UUID
	UserID  string
	Day     string
	Sensors map[sensor.Type]sensor.Matrix
	Labels  []int
}

// UserFeatures is the concatenated feature and label matrix of one user, in day order
type UserFeatures struct {
	RunID    uuid.UUID
	UserID   string
	Schema   []string
	Days     []string // day of every row
	Features [][]float64
	Labels   []int
}

// Validate checks that rows, days and labels line up with the schema
func (u *UserFeatures) Validate() error {
	if len(u.Days) != len(u.Features) || len(u.Labels) != len(u.Features) {
		return fmt.Errorf("user %s: %d feature rows, %d days, %d labels",
			u.UserID, len(u.Features), len(u.Days), len(u.Labels))
	}
	for i, row := range u.Features {
		if len(row) != len(u.Schema) {
			return fmt.Errorf("user %s: row %d has %d values, schema has %d",
				u.UserID, i, len(row), len(u.Schema))
		}
	}
	return nil
}

// Sink persists pipeline output
type Sink interface {
	// SaveSession stores the aligned arrays of one session
	SaveSession(ctx context.Context, s *SessionArrays) error

	// SaveUserFeatures stores the feature matrix of one user
	SaveUserFeatures(ctx context.Context, u *UserFeatures) error
}

// Multi writes to every sink in order and joins their errors
type Multi []Sink

// SaveSession implements Sink
func (m Multi) SaveSession(ctx context.Context, s *SessionArrays) error {
	var errs []error
	for _, sk := range m {
		if err := sk.SaveSession(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SaveUserFeatures implements Sink
func (m Multi) SaveUserFeatures(ctx context.Context, u *UserFeatures) error {
	var errs []error
	for _, sk := range m {
		if err := sk.SaveUserFeatures(ctx, u); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// sortedSensors returns the session sensors in feature order followed by any others
func sortedSensors(s *SessionArrays) []sensor.Type {
	var out []sensor.Type
	seen := make(map[sensor.Type]bool)
	for _, t := range sensor.SessionSensors {
		if _, ok := s.Sensors[t]; ok {
			out = append(out, t)
			seen[t] = true
		}
	}
	var rest []sensor.Type
	for t := range s.Sensors {
		if !seen[t] {
			rest = append(rest, t)
		}
	}
	slices.Sort(rest)
	return append(out, rest...)
}
