package sensor

import "sort"

// Datapoint is one raw sample as stored upstream. Times are epoch seconds and
// Offset is the wearer's UTC offset in seconds.
type Datapoint struct {
	StartTime float64   `json:"start_time"`
	EndTime   float64   `json:"end_time,omitempty"`
	Offset    int       `json:"offset"`
	Sample    []float64 `json:"sample"`
}

// SortDatapoints orders datapoints chronologically by start time, keeping the
// relative order of equal timestamps
func SortDatapoints(dps []Datapoint) {
	sort.SliceStable(dps, func(i, j int) bool {
		return dps[i].StartTime < dps[j].StartTime
	})
}

// ToMatrix converts datapoints into SensorMatrix rows [start, end, offset, sample...].
// A missing end time is stored as the start time.
func ToMatrix(dps []Datapoint) Matrix {
	m := make(Matrix, 0, len(dps))
	for _, dp := range dps {
		end := dp.EndTime
		if end == 0 {
			end = dp.StartTime
		}
		row := make([]float64, 0, ColFirstChannel+len(dp.Sample))
		row = append(row, dp.StartTime, end, float64(dp.Offset))
		row = append(row, dp.Sample...)
		m = append(m, row)
	}
	return m
}

// FillMissing expands a datapoint stream to one datapoint every 1/freq seconds
// between the first and last start time, holding the latest known sample.
// A non-positive freq returns the input unchanged.
func FillMissing(dps []Datapoint, freq float64) []Datapoint {
	if len(dps) == 0 || freq <= 0 {
		return dps
	}

	start := dps[0].StartTime
	end := dps[len(dps)-1].StartTime
	out := make([]Datapoint, 0, int((end-start)*freq)+1)

	src := 0
	for i := 0; ; i++ {
		t := start + float64(i)/freq
		if t > end {
			break
		}
		for src+1 < len(dps) && dps[src+1].StartTime <= t {
			src++
		}
		out = append(out, Datapoint{
			StartTime: t,
			Offset:    dps[src].Offset,
			Sample:    dps[src].Sample,
		})
	}
	return out
}
