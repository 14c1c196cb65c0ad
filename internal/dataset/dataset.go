package dataset

import (
	"errors"
	"sort"
)

var ErrDataUnavailable = errors.New("data unavailable")

// Dataset is a numeric feature matrix with an integer target column.
type Dataset struct {
	FeatureNames []string
	Target       string
	X            [][]float64
	Y            []int
}

func (d *Dataset) Len() int { return len(d.Y) }

func (d *Dataset) NumFeatures() int { return len(d.FeatureNames) }

// Classes returns the distinct target values in ascending order.
func (d *Dataset) Classes() []int {
	seen := make(map[int]struct{})
	for _, y := range d.Y {
		seen[y] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}

// Select returns the rows at idx in that order. Rows are shared, not copied.
func (d *Dataset) Select(idx []int) ([][]float64, []int) {
	x := make([][]float64, len(idx))
	y := make([]int, len(idx))
	for i, j := range idx {
		x[i] = d.X[j]
		y[i] = d.Y[j]
	}
	return x, y
}
