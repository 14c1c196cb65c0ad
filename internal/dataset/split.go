package dataset

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Split holds disjoint row indices into a Dataset.
type Split struct {
	Train []int
	Test  []int
}

// StratifiedSplit assigns round(n_c*testSize) rows of every class c to the
// test side. Classes are visited in ascending order from one seeded source,
// so the result depends only on y, testSize and seed.
func StratifiedSplit(y []int, testSize float64, seed int64) (Split, error) {
	if testSize <= 0 || testSize >= 1 {
		return Split{}, fmt.Errorf("test size must be in (0, 1), got %v", testSize)
	}
	if len(y) == 0 {
		return Split{}, fmt.Errorf("cannot split an empty dataset")
	}

	byClass := make(map[int][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	rng := rand.New(rand.NewSource(seed))
	var s Split
	for _, c := range classes {
		idx := byClass[c]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		nTest := int(math.Round(float64(len(idx)) * testSize))
		s.Test = append(s.Test, idx[:nTest]...)
		s.Train = append(s.Train, idx[nTest:]...)
	}
	if len(s.Train) == 0 || len(s.Test) == 0 {
		return Split{}, fmt.Errorf("split of %d rows at test size %v leaves an empty side", len(y), testSize)
	}
	rng.Shuffle(len(s.Train), func(i, j int) { s.Train[i], s.Train[j] = s.Train[j], s.Train[i] })
	rng.Shuffle(len(s.Test), func(i, j int) { s.Test[i], s.Test[j] = s.Test[j], s.Test[i] })
	return s, nil
}
