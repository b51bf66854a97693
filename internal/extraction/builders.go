package extraction

import (
	"errors"
	"time"

	"github.com/sixdouglas/suncalc"

	"github.com/saaga0h/atdesk-features/internal/align"
	"github.com/saaga0h/atdesk-features/internal/features"
	"github.com/saaga0h/atdesk-features/internal/sensor"
	"github.com/saaga0h/atdesk-features/internal/window"
)

// channelWindows splits one channel of m into windows
func channelWindows(m sensor.Matrix, channel int, opts Options) ([][]float64, error) {
	return window.Windows(m.Channel(channel), opts.WinLen, opts.OverlapLen)
}

// TriaxialFeatures computes the per-axis feature sets plus SMA and SVM for
// every window of a 3-channel sensor matrix
func TriaxialFeatures(prefix string, m sensor.Matrix, opts Options, rec *features.Recorder) ([][]float64, error) {
	axisWins := make([][][]float64, len(axes))
	for i := range axes {
		wins, err := channelWindows(m, i, opts)
		if err != nil {
			return nil, err
		}
		axisWins[i] = wins
	}

	dt := opts.dt()
	n := len(axisWins[0])
	rows := make([][]float64, n)
	for wi := 0; wi < n; wi++ {
		x, y, z := axisWins[0][wi], axisWins[1][wi], axisWins[2][wi]
		if err := features.CheckAxes(x, y, z); err != nil {
			rec.Record(features.Fault{Sensor: prefix, Window: wi, Kind: features.FaultMalformed, Detail: err.Error()})
		}

		row := make([]float64, 0, len(axes)*len(axisSet)+2)
		for ai, axis := range axes {
			w := axisWins[ai][wi]
			for _, f := range axisSet {
				row = append(row, rec.Value(prefix, wi, axis+"_"+f.name, f.fn(w, dt)))
			}
		}
		row = append(row,
			rec.Value(prefix, wi, "sma", features.SignalMagnitudeArea(x, y, z)),
			rec.Value(prefix, wi, "svm", features.SignalVectorMagnitude(x, y, z)))
		rows[wi] = row
	}
	return rows, nil
}

// StepCountFeatures computes the time-domain feature set for every window of
// the step count channel
func StepCountFeatures(m sensor.Matrix, opts Options, rec *features.Recorder) ([][]float64, error) {
	wins, err := channelWindows(m, 0, opts)
	if err != nil {
		return nil, err
	}

	dt := opts.dt()
	rows := make([][]float64, len(wins))
	for wi, w := range wins {
		if err := features.CheckWindow(w); err != nil {
			rec.Record(features.Fault{Sensor: prefixStepCnt, Window: wi, Kind: features.FaultMalformed, Detail: err.Error()})
		}
		row := make([]float64, 0, len(timeDomain))
		for _, f := range timeDomain {
			row = append(row, rec.Value(prefixStepCnt, wi, f.name, f.fn(w, dt)))
		}
		rows[wi] = row
	}
	return rows, nil
}

// ActTypeFeatures one-hot encodes the mode activity code of every window.
// Windows whose mode cannot be encoded get an all-zero row and a recorded fault.
func ActTypeFeatures(m sensor.Matrix, opts Options, rec *features.Recorder) ([][]float64, error) {
	wins, err := channelWindows(m, 0, opts)
	if err != nil {
		return nil, err
	}

	rows := make([][]float64, len(wins))
	for wi, w := range wins {
		row, err := features.ActTypeOneHot(w, opts.NumActivityTypes)
		if err != nil {
			kind := features.FaultMalformed
			if errors.Is(err, features.ErrActTypeOutOfRange) {
				kind = features.FaultOutOfRange
			}
			rec.Record(features.Fault{Sensor: prefixActType, Feature: "one_hot", Window: wi, Kind: kind, Detail: err.Error()})
		}
		rows[wi] = row
	}
	return rows, nil
}

// TimeFeatures describes the local time at the first sample of every window:
// is_weekday and, when a site is configured, is_daylight
func TimeFeatures(m sensor.Matrix, opts Options) ([][]float64, error) {
	starts, err := window.Starts(m.Len(), opts.WinLen, opts.OverlapLen)
	if err != nil {
		return nil, err
	}

	rows := make([][]float64, len(starts))
	for wi, start := range starts {
		ts := m[start][sensor.ColTimestamp]
		offset := int(m[start][sensor.ColOffset])

		row := []float64{boolFeature(isWeekday(align.LocalTime(ts, offset)))}
		if opts.Site != nil {
			row = append(row, boolFeature(isDaylight(ts, *opts.Site)))
		}
		rows[wi] = row
	}
	return rows, nil
}

func isWeekday(local time.Time) bool {
	wd := local.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func isDaylight(ts float64, site Site) bool {
	sec := int64(ts)
	t := time.Unix(sec, int64((ts-float64(sec))*1e9)).UTC()
	return suncalc.GetPosition(t, site.Latitude, site.Longitude).Altitude > 0
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
