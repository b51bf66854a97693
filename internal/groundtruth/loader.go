package groundtruth

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/saaga0h/atdesk-features/internal/align"
)

const dayLayout = "2006-01-02"

// Load reads a registry from a YAML file
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses a registry from YAML data (useful for testing)
func LoadFromBytes(data []byte) (*Registry, error) {
	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse registry YAML: %w", err)
	}

	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("registry validation failed: %w", err)
	}

	return &reg, nil
}

// Validate checks day formats and interval ordering
func (r *Registry) Validate() error {
	if len(r.Users) == 0 {
		return fmt.Errorf("registry has no users")
	}
	for user, days := range r.Users {
		for _, day := range days {
			if _, err := time.Parse(dayLayout, day); err != nil {
				return fmt.Errorf("user %s: invalid day %q", user, day)
			}
		}
	}
	for user, intervals := range r.GroundTruth {
		for i, iv := range intervals {
			if iv.Start.IsZero() || iv.End.IsZero() {
				return fmt.Errorf("user %s: interval %d is missing start or end", user, i)
			}
			if !iv.End.After(iv.Start) {
				return fmt.Errorf("user %s: interval %d ends before it starts", user, i)
			}
		}
	}
	return nil
}

// Sessions returns every registered (user, day) pair ordered by user then day
func (r *Registry) Sessions() []Session {
	users := r.UserIDs()
	var sessions []Session
	for _, user := range users {
		days := append([]string(nil), r.Users[user]...)
		sort.Strings(days)
		for _, day := range days {
			sessions = append(sessions, Session{UserID: user, Day: day})
		}
	}
	return sessions
}

// UserIDs returns the registered users, sorted
func (r *Registry) UserIDs() []string {
	users := make([]string, 0, len(r.Users))
	for user := range r.Users {
		users = append(users, user)
	}
	sort.Strings(users)
	return users
}

// Intervals returns a user's ground truth as absolute epoch-second intervals
func (r *Registry) Intervals(userID string) []align.LabeledInterval {
	src := r.GroundTruth[userID]
	out := make([]align.LabeledInterval, 0, len(src))
	for _, iv := range src {
		out = append(out, align.LabeledInterval{
			Start: toEpoch(iv.Start),
			End:   toEpoch(iv.End),
		})
	}
	return out
}

func toEpoch(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}
