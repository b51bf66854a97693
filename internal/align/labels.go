package align

import "sort"

// LabeledInterval is a ground-truth at-desk span [Start, End) in epoch seconds
type LabeledInterval struct {
	Start float64
	End   float64
}

// AssignLabels returns 1 for every grid timestamp inside any interval, else 0.
// The grid must be sorted ascending; intervals may overlap or miss the grid entirely.
func AssignLabels(grid []float64, intervals []LabeledInterval) []int {
	labels := make([]int, len(grid))
	for _, iv := range intervals {
		if iv.End <= iv.Start {
			continue
		}
		lo := sort.SearchFloat64s(grid, iv.Start)
		hi := sort.SearchFloat64s(grid, iv.End)
		for i := lo; i < hi; i++ {
			labels[i] = 1
		}
	}
	return labels
}
