package datastream

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/saaga0h/atdesk-features/internal/sensor"
)

// DayLayout is the date format of registry session days
const DayLayout = "2006-01-02"

// UTC offsets span -12h..+14h, so a local day is always inside this margin
const offsetMargin = 14 * 60 * 60

// Loader assembles the raw streams of one (user, day) session
type Loader struct {
	store    Store
	keywords map[sensor.Type][]string
	fill     map[sensor.Type]float64
	logger   *slog.Logger
}

// NewLoader creates a session loader. A nil keyword map uses DefaultKeywords.
func NewLoader(store Store, keywords map[sensor.Type][]string, logger *slog.Logger) *Loader {
	if keywords == nil {
		keywords = DefaultKeywords
	}
	return &Loader{
		store:    store,
		keywords: keywords,
		fill:     make(map[sensor.Type]float64),
		logger:   logger.With("component", "session_loader"),
	}
}

// WithFill makes Load hold-fill the given sensors at freq Hz, for streams that
// only report on change. A non-positive freq leaves them as stored.
func (l *Loader) WithFill(freq float64, types ...sensor.Type) *Loader {
	for _, t := range types {
		if freq > 0 {
			l.fill[t] = freq
		} else {
			delete(l.fill, t)
		}
	}
	return l
}

// Load returns the datapoints of every requested sensor whose local date is day.
// Streams matching a sensor's keywords are merged and sorted; a sensor with no
// matching stream maps to an empty slice.
func (l *Loader) Load(ctx context.Context, userID, day string, types ...sensor.Type) (map[sensor.Type][]sensor.Datapoint, error) {
	date, err := time.Parse(DayLayout, day)
	if err != nil {
		return nil, fmt.Errorf("invalid session day %q: %w", day, err)
	}
	from := float64(date.Unix() - offsetMargin)
	to := float64(date.Unix() + 24*60*60 + offsetMargin)

	labels, err := l.store.ListStreams(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make(map[sensor.Type][]sensor.Datapoint, len(types))
	for _, t := range types {
		matched := ExtractMatchedLabels(labels, l.keywords[t])
		if len(matched) == 0 {
			l.logger.Debug("No stream for sensor", "user_id", userID, "sensor", t)
		}

		var dps []sensor.Datapoint
		for _, label := range matched {
			part, err := l.store.Datastream(ctx, userID, label, from, to)
			if err != nil {
				return nil, fmt.Errorf("failed to load %s for %s/%s: %w", t, userID, day, err)
			}
			for _, dp := range part {
				if localDay(dp) == day {
					dps = append(dps, dp)
				}
			}
		}
		sensor.SortDatapoints(dps)
		if freq, ok := l.fill[t]; ok && len(dps) > 0 {
			filled := sensor.FillMissing(dps, freq)
			l.logger.Debug("Filled sparse stream", "user_id", userID, "sensor", t, "stored", len(dps), "filled", len(filled))
			dps = filled
		}
		out[t] = dps
	}
	return out, nil
}

func localDay(dp sensor.Datapoint) string {
	sec := int64(dp.StartTime)
	return time.Unix(sec+int64(dp.Offset), 0).UTC().Format(DayLayout)
}
