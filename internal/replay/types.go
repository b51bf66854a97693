package replay

import "time"

// Recording is a set of sensor streams captured for one user
type Recording struct {
	Name    string   `yaml:"name"`
	UserID  string   `yaml:"user_id"`
	Streams []Stream `yaml:"streams"`
}

// Stream holds evenly spaced samples for one stream label
type Stream struct {
	Label   string      `yaml:"label"`
	Sensor  string      `yaml:"sensor,omitempty"` // optional sensor type; samples are checked against its arity
	Start   time.Time   `yaml:"start"`
	Freq    float64     `yaml:"freq"`   // samples per second
	Offset  int         `yaml:"offset"` // UTC offset in seconds; derived from Start when omitted
	Samples [][]float64 `yaml:"samples"`
}

// Result counts what a replay published
type Result struct {
	Messages   int
	Datapoints int
	Streams    int
}
