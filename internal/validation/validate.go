package validation

import (
	"fmt"
	"math"

	"github.com/saaga0h/atdesk-features/internal/sensor"
)

// Predicate reports whether a datapoint passes validation
type Predicate func(dp sensor.Datapoint) bool

// Check validates one sample against the schema of its sensor type and
// returns a descriptive error for the first violation
func Check(t sensor.Type, sample []float64) error {
	schema, ok := schemas[t]
	if !ok {
		return fmt.Errorf("no validation schema for sensor type %s", t)
	}
	if len(sample) != len(schema.Fields) {
		return fmt.Errorf("%s sample has %d values, want %d", t, len(sample), len(schema.Fields))
	}
	for i, f := range schema.Fields {
		v := sample[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s %s is not a finite number", t, f.Name)
		}
		if v < f.Min || v > f.Max {
			return fmt.Errorf("%s %s=%g outside [%g, %g]", t, f.Name, v, f.Min, f.Max)
		}
	}
	return nil
}

// IsValid reports whether dp is a valid datapoint of sensor type t
func IsValid(t sensor.Type, dp sensor.Datapoint) bool {
	return Check(t, dp.Sample) == nil
}

// PredicateFor returns the validation predicate of a sensor type
func PredicateFor(t sensor.Type) Predicate {
	return func(dp sensor.Datapoint) bool {
		return IsValid(t, dp)
	}
}

// Filter keeps the datapoints that pass validation, preserving order, and
// returns how many were rejected
func Filter(t sensor.Type, dps []sensor.Datapoint) ([]sensor.Datapoint, int) {
	return FilterWith(PredicateFor(t), dps)
}

// FilterWith keeps the datapoints accepted by pred, preserving order
func FilterWith(pred Predicate, dps []sensor.Datapoint) ([]sensor.Datapoint, int) {
	valid := make([]sensor.Datapoint, 0, len(dps))
	for _, dp := range dps {
		if pred(dp) {
			valid = append(valid, dp)
		}
	}
	return valid, len(dps) - len(valid)
}
