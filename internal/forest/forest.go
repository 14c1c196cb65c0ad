package forest

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"slices"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

type Options struct {
	Estimators      int
	MaxDepth        int // 0 grows until leaves are pure
	MinSamplesSplit int
	MaxFeatures     int // 0 means sqrt(n_features)
	Seed            int64
	Workers         int // 0 means GOMAXPROCS
}

func DefaultOptions() Options {
	return Options{Estimators: 100, MinSamplesSplit: 2, Seed: 42}
}

// Forest is a fitted random forest. It is read-only after Fit and safe for
// concurrent use.
type Forest struct {
	classes []int
	trees   []*Tree
}

// Fit grows opts.Estimators trees on bootstrap samples of (x, y). Tree seeds
// are drawn from opts.Seed up front, so the result does not depend on
// scheduling.
func Fit(ctx context.Context, x [][]float64, y []int, opts Options) (*Forest, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("fit: no training rows")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("fit: %d rows but %d labels", len(x), len(y))
	}
	nFeatures := len(x[0])
	if nFeatures == 0 {
		return nil, fmt.Errorf("fit: rows have no features")
	}
	for i, row := range x {
		if len(row) != nFeatures {
			return nil, fmt.Errorf("fit: row %d has %d features, want %d", i, len(row), nFeatures)
		}
	}
	if opts.Estimators < 1 {
		return nil, fmt.Errorf("fit: estimators must be positive, got %d", opts.Estimators)
	}
	if opts.MinSamplesSplit < 2 {
		opts.MinSamplesSplit = 2
	}
	if opts.MaxFeatures <= 0 {
		opts.MaxFeatures = max(1, int(math.Sqrt(float64(nFeatures))))
	}
	opts.MaxFeatures = min(opts.MaxFeatures, nFeatures)
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	classes := distinct(y)
	index := make(map[int]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	encoded := make([]int, len(y))
	for i, label := range y {
		encoded[i] = index[label]
	}

	master := rand.New(rand.NewSource(opts.Seed))
	seeds := make([]int64, opts.Estimators)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	params := growParams{
		nClasses:    len(classes),
		maxDepth:    opts.MaxDepth,
		minSplit:    opts.MinSamplesSplit,
		maxFeatures: opts.MaxFeatures,
	}
	trees := make([]*Tree, opts.Estimators)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i := range trees {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seeds[i]))
			samples := make([]int, len(x))
			for j := range samples {
				samples[j] = rng.Intn(len(x))
			}
			trees[i] = growTree(x, encoded, samples, params, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}
	return &Forest{classes: classes, trees: trees}, nil
}

// Classes returns the labels in the column order of PredictProba.
func (f *Forest) Classes() []int {
	return slices.Clone(f.classes)
}

// PredictProba averages the leaf distributions of all trees.
func (f *Forest) PredictProba(row []float64) []float64 {
	out := make([]float64, len(f.classes))
	for _, t := range f.trees {
		floats.Add(out, t.distribution(row))
	}
	floats.Scale(1/float64(len(f.trees)), out)
	return out
}

// Predict returns the most probable label; ties go to the lowest label.
func (f *Forest) Predict(row []float64) int {
	return f.classes[floats.MaxIdx(f.PredictProba(row))]
}

func (f *Forest) PredictBatch(x [][]float64) []int {
	out := make([]int, len(x))
	for i, row := range x {
		out[i] = f.Predict(row)
	}
	return out
}

type Summary struct {
	Trees     int     `json:"trees"`
	MeanDepth float64 `json:"mean_depth"`
	MaxDepth  int     `json:"max_depth"`
	MeanLeafs float64 `json:"mean_leafs"`
}

func (f *Forest) Summary() Summary {
	depths := make([]float64, len(f.trees))
	leafs := make([]float64, len(f.trees))
	for i, t := range f.trees {
		depths[i] = float64(t.depth())
		leafs[i] = float64(t.leaves())
	}
	n := float64(len(f.trees))
	return Summary{
		Trees:     len(f.trees),
		MeanDepth: floats.Sum(depths) / n,
		MaxDepth:  int(floats.Max(depths)),
		MeanLeafs: floats.Sum(leafs) / n,
	}
}

func distinct(y []int) []int {
	seen := make(map[int]struct{})
	for _, v := range y {
		seen[v] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}
