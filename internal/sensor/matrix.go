package sensor

// Matrix is a row-major sensor table; see the Col* constants for the layout
type Matrix [][]float64

// Len returns the number of rows
func (m Matrix) Len() int {
	return len(m)
}

// Column copies column i into a new slice
func (m Matrix) Column(i int) []float64 {
	col := make([]float64, len(m))
	for r, row := range m {
		col[r] = row[i]
	}
	return col
}

// Timestamps returns column 0
func (m Matrix) Timestamps() []float64 {
	return m.Column(ColTimestamp)
}

// Offsets returns the UTC offset column as whole seconds
func (m Matrix) Offsets() []int {
	offsets := make([]int, len(m))
	for r, row := range m {
		offsets[r] = int(row[ColOffset])
	}
	return offsets
}

// Channel returns channel c (zero-based, after the metadata columns)
func (m Matrix) Channel(c int) []float64 {
	return m.Column(ColFirstChannel + c)
}

// ChannelRows returns only the channel part of every row
func (m Matrix) ChannelRows() [][]float64 {
	rows := make([][]float64, len(m))
	for r, row := range m {
		rows[r] = append([]float64(nil), row[ColFirstChannel:]...)
	}
	return rows
}

// First returns the first timestamp, or 0 for an empty matrix
func (m Matrix) First() float64 {
	if len(m) == 0 {
		return 0
	}
	return m[0][ColTimestamp]
}

// Last returns the last timestamp, or 0 for an empty matrix
func (m Matrix) Last() float64 {
	if len(m) == 0 {
		return 0
	}
	return m[len(m)-1][ColTimestamp]
}
