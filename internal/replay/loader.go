package replay

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/saaga0h/atdesk-features/internal/sensor"
)

// Load reads a recording from a YAML file
func Load(path string) (*Recording, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recording file: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses and validates a recording
func LoadFromBytes(data []byte) (*Recording, error) {
	var rec Recording
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse recording YAML: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("recording validation failed: %w", err)
	}
	return &rec, nil
}

// Validate checks that every stream can be turned into datapoints
func (r *Recording) Validate() error {
	var errs []error
	if r.UserID == "" {
		errs = append(errs, errors.New("user_id is required"))
	}
	if len(r.Streams) == 0 {
		errs = append(errs, errors.New("at least one stream is required"))
	}
	for i, s := range r.Streams {
		if s.Label == "" {
			errs = append(errs, fmt.Errorf("stream %d: label is required", i))
		}
		if s.Start.IsZero() {
			errs = append(errs, fmt.Errorf("stream %d (%s): start is required", i, s.Label))
		}
		if s.Freq <= 0 {
			errs = append(errs, fmt.Errorf("stream %d (%s): freq must be positive", i, s.Label))
		}
		if len(s.Samples) == 0 {
			errs = append(errs, fmt.Errorf("stream %d (%s): no samples", i, s.Label))
		}
		arity := 0
		if s.Sensor != "" {
			t, err := sensor.ParseType(s.Sensor)
			if err != nil {
				errs = append(errs, fmt.Errorf("stream %d (%s): %w", i, s.Label, err))
			} else {
				arity = sensor.Channels(t)
			}
		}
		for j, sample := range s.Samples {
			if len(sample) == 0 {
				errs = append(errs, fmt.Errorf("stream %d (%s): sample %d is empty", i, s.Label, j))
				break
			}
			if arity > 0 && len(sample) != arity {
				errs = append(errs, fmt.Errorf("stream %d (%s): sample %d has %d values, %s has %d",
					i, s.Label, j, len(sample), s.Sensor, arity))
				break
			}
		}
	}
	return errors.Join(errs...)
}
