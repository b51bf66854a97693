package datastream

import (
	"strings"

	"github.com/saaga0h/atdesk-features/internal/sensor"
)

// DefaultKeywords are the substrings a stream label must contain to be read
// as the given sensor type
var DefaultKeywords = map[sensor.Type][]string{
	sensor.Accelerometer: {"ACCELEROMETER", "PHONE"},
	sensor.Gyroscope:     {"GYROSCOPE", "PHONE"},
	sensor.ActivityType:  {"ACTIVITY_TYPE", "PHONE"},
	sensor.StepCount:     {"STEP_COUNT", "PHONE"},
	sensor.Location:      {"LOCATION", "PHONE"},
	sensor.AmbientLight:  {"AMBIENT_LIGHT", "PHONE"},
	sensor.Proximity:     {"PROXIMITY", "PHONE"},
	sensor.Battery:       {"BATTERY", "PHONE"},
	sensor.Beacon:        {"BEACON"},
}

// ExtractMatchedLabels returns the labels containing every keyword, in input order.
// An empty keyword list matches every label.
func ExtractMatchedLabels(labels, keywords []string) []string {
	var matched []string
	for _, label := range labels {
		ok := true
		for _, kw := range keywords {
			if !strings.Contains(label, kw) {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, label)
		}
	}
	return matched
}
