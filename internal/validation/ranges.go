package validation

import "github.com/saaga0h/atdesk-features/internal/sensor"

// Field is the inclusive range accepted for one sample position
type Field struct {
	Name string
	Min  float64
	Max  float64
}

// Schema describes the exact sample arity and per-field ranges of a sensor type
type Schema struct {
	Type   sensor.Type
	Fields []Field
}

// Physical ranges accepted per sensor type
var schemas = map[sensor.Type]Schema{
	sensor.Accelerometer: {
		Type: sensor.Accelerometer,
		Fields: []Field{
			{Name: "x", Min: -5, Max: 5},
			{Name: "y", Min: -5, Max: 5},
			{Name: "z", Min: -5, Max: 5},
		},
	},
	sensor.Gyroscope: {
		Type: sensor.Gyroscope,
		Fields: []Field{
			{Name: "x", Min: -5, Max: 5},
			{Name: "y", Min: -5, Max: 5},
			{Name: "z", Min: -5, Max: 5},
		},
	},
	sensor.Location: {
		Type: sensor.Location,
		Fields: []Field{
			{Name: "latitude", Min: -90, Max: 90},
			{Name: "longitude", Min: -180, Max: 180},
			{Name: "altitude", Min: 0, Max: 1000},
			{Name: "speed", Min: 0, Max: 500},
			{Name: "bearing", Min: 0, Max: 360},
			{Name: "accuracy", Min: 0, Max: 100},
		},
	},
	sensor.ActivityType: {
		Type: sensor.ActivityType,
		Fields: []Field{
			{Name: "type", Min: 0, Max: 7},
			{Name: "confidence", Min: 0, Max: 100},
		},
	},
	sensor.AmbientLight: {
		Type:   sensor.AmbientLight,
		Fields: []Field{{Name: "intensity", Min: 0, Max: 250}},
	},
	sensor.Proximity: {
		Type:   sensor.Proximity,
		Fields: []Field{{Name: "proximity", Min: 0, Max: 10}},
	},
	sensor.Battery: {
		Type: sensor.Battery,
		Fields: []Field{
			{Name: "level", Min: 0, Max: 100},
			{Name: "voltage", Min: 0, Max: 5000},
			{Name: "temperature", Min: -50, Max: 100},
		},
	},
	sensor.Beacon: {
		Type: sensor.Beacon,
		Fields: []Field{
			{Name: "distance", Min: 0, Max: 100},
			{Name: "rssi", Min: -100, Max: 100},
			{Name: "tx_power", Min: -100, Max: 100},
		},
	},
	sensor.StepCount: {
		Type:   sensor.StepCount,
		Fields: []Field{{Name: "count", Min: 0, Max: 50}},
	},
}

// SchemaFor returns the validation schema of a sensor type
func SchemaFor(t sensor.Type) (Schema, bool) {
	s, ok := schemas[t]
	return s, ok
}
