package groundtruth

import "time"

// Registry lists the recorded session days of every user and their at-desk ground truth
type Registry struct {
	Users       map[string][]string   `yaml:"users"`
	GroundTruth map[string][]Interval `yaml:"ground_truth"`
}

// Interval is one annotated at-desk period
type Interval struct {
	Start time.Time `yaml:"start"`
	End   time.Time `yaml:"end"`
	Note  string    `yaml:"note,omitempty"`
}

// Session identifies one (user, day) unit of work
type Session struct {
	UserID string
	Day    string
}

func (s Session) String() string {
	return s.UserID + "/" + s.Day
}
