package sensor

import "fmt"

// Type identifies a sensor stream kind
type Type string

const (
	Accelerometer Type = "accelerometer"
	Gyroscope     Type = "gyroscope"
	ActivityType  Type = "activity_type"
	StepCount     Type = "step_count"
	Location      Type = "location"
	AmbientLight  Type = "ambient_light"
	Proximity     Type = "proximity"
	Battery       Type = "battery"
	Beacon        Type = "beacon"
)

// AllTypes lists every known sensor type
var AllTypes = []Type{Accelerometer, Gyroscope, ActivityType, StepCount, Location, AmbientLight, Proximity, Battery, Beacon}

// SessionSensors lists the streams aligned for every session, in feature order
var SessionSensors = []Type{Accelerometer, Gyroscope, ActivityType, StepCount}

// Column layout shared by every SensorMatrix row: [start_ts, end_ts, offset, channels...]
const (
	ColTimestamp    = 0
	ColEndTime      = 1
	ColOffset       = 2
	ColFirstChannel = 3
)

// Channels returns the sample arity of a sensor type
func Channels(t Type) int {
	switch t {
	case Accelerometer, Gyroscope, Battery, Beacon:
		return 3
	case ActivityType:
		return 2
	case Location:
		return 6
	case StepCount, AmbientLight, Proximity:
		return 1
	default:
		return 0
	}
}

// ParseType converts a string into a known sensor Type
func ParseType(s string) (Type, error) {
	t := Type(s)
	if Channels(t) == 0 {
		return "", fmt.Errorf("unknown sensor type: %s", s)
	}
	return t, nil
}
