package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the outcome of one session
type SessionStatus string

const (
	StatusSucceeded SessionStatus = "succeeded"
	StatusSkipped   SessionStatus = "skipped"
	StatusFailed    SessionStatus = "failed"
)

// SessionReport describes the outcome of one session in a batch
type SessionReport struct {
	UserID   string         `json:"user_id"`
	Day      string         `json:"day"`
	Status   SessionStatus  `json:"status"`
	Error    string         `json:"error,omitempty"`
	Samples  int            `json:"samples"`
	Windows  int            `json:"windows"`
	Rejected map[string]int `json:"rejected,omitempty"`
	Faults   int            `json:"faults"`
	Clamped  int            `json:"clamped"`
	Duration float64        `json:"duration_seconds"`
}

// UserReport describes the stored feature matrix of one user
type UserReport struct {
	UserID  string `json:"user_id"`
	Days    int    `json:"days"`
	Windows int    `json:"windows"`
	Error   string `json:"error,omitempty"`
}

// Summary is the outcome of a batch run
type Summary struct {
	RunID      uuid.UUID       `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Succeeded  int             `json:"succeeded"`
	Skipped    int             `json:"skipped"`
	Failed     int             `json:"failed"`
	Sessions   []SessionReport `json:"sessions"`
	Users      []UserReport    `json:"users"`
}

func (s *Summary) add(r SessionReport) {
	switch r.Status {
	case StatusSucceeded:
		s.Succeeded++
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
	}
	s.Sessions = append(s.Sessions, r)
}

// UserFailures counts users whose feature matrix could not be stored
func (s *Summary) UserFailures() int {
	n := 0
	for _, u := range s.Users {
		if u.Error != "" {
			n++
		}
	}
	return n
}
