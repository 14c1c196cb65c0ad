package forest

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// blobs returns rows whose first two features are centred on the label.
func blobs(n int, labels []int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	x := make([][]float64, 0, n)
	y := make([]int, 0, n)
	for i := 0; i < n; i++ {
		label := labels[i%len(labels)]
		x = append(x, []float64{
			float64(label)*3 + rng.NormFloat64()*0.5,
			float64(label)*-2 + rng.NormFloat64()*0.5,
			rng.Float64(),
			rng.Float64(),
		})
		y = append(y, label)
	}
	return x, y
}

func TestFitLearnsSeparableClasses(t *testing.T) {
	x, y := blobs(300, []int{5, 3, 8}, 1)
	f, err := Fit(context.Background(), x, y, Options{Estimators: 25, Seed: 42})
	require.NoError(t, err)

	assert.Equal(t, []int{3, 5, 8}, f.Classes())
	assert.Equal(t, 25, f.Summary().Trees)

	tx, ty := blobs(90, []int{5, 3, 8}, 2)
	pred := f.PredictBatch(tx)
	correct := 0
	for i := range pred {
		if pred[i] == ty[i] {
			correct++
		}
	}
	assert.Greater(t, float64(correct)/float64(len(ty)), 0.9)
}

func TestPredictProbaIsADistribution(t *testing.T) {
	x, y := blobs(120, []int{1, 2, 3, 4}, 3)
	f, err := Fit(context.Background(), x, y, Options{Estimators: 10, Seed: 42})
	require.NoError(t, err)

	for _, row := range x[:20] {
		p := f.PredictProba(row)
		require.Len(t, p, 4)
		sum := 0.0
		for _, v := range p {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
}

func TestFitDeterministicAcrossWorkerCounts(t *testing.T) {
	x, y := blobs(200, []int{3, 4, 5, 6}, 4)
	a, err := Fit(context.Background(), x, y, Options{Estimators: 30, Seed: 42, Workers: 1})
	require.NoError(t, err)
	b, err := Fit(context.Background(), x, y, Options{Estimators: 30, Seed: 42, Workers: 8})
	require.NoError(t, err)

	for _, row := range x {
		assert.Equal(t, a.PredictProba(row), b.PredictProba(row))
	}
}

func TestPredictClassesWithTiesPreferLowestLabel(t *testing.T) {
	f := &Forest{
		classes: []int{4, 7},
		trees:   []*Tree{{nodes: []node{{left: leaf, right: leaf, dist: []float64{0.5, 0.5}}}}},
	}
	assert.Equal(t, 4, f.Predict([]float64{0}))
}

func TestFitSingleClassGivesCertainty(t *testing.T) {
	x := [][]float64{{1, 2}, {3, 4}, {5, 6}}
	y := []int{6, 6, 6}
	f, err := Fit(context.Background(), x, y, Options{Estimators: 3, Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, f.PredictProba([]float64{9, 9}))
	assert.Equal(t, 0, f.Summary().MaxDepth)
}

func TestFitConstantFeaturesStopsAtRoot(t *testing.T) {
	x := [][]float64{{1, 1}, {1, 1}, {1, 1}, {1, 1}}
	y := []int{1, 2, 1, 2}
	f, err := Fit(context.Background(), x, y, Options{Estimators: 5, Seed: 3})
	require.NoError(t, err)

	s := f.Summary()
	assert.Equal(t, 0, s.MaxDepth)
	assert.Equal(t, 1.0, s.MeanLeafs)
	p := f.PredictProba([]float64{1, 1})
	assert.InDelta(t, 1.0, p[0]+p[1], 1e-9)
}

func TestFitMaxDepthLimitsTrees(t *testing.T) {
	x, y := blobs(200, []int{1, 2, 3, 4, 5}, 5)
	f, err := Fit(context.Background(), x, y, Options{Estimators: 5, Seed: 42, MaxDepth: 2})
	require.NoError(t, err)
	assert.LessOrEqual(t, f.Summary().MaxDepth, 2)
}

func TestFitValidation(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		x    [][]float64
		y    []int
		opts Options
		want string
	}{
		{"empty", nil, nil, DefaultOptions(), "no training rows"},
		{"length mismatch", [][]float64{{1}}, []int{1, 2}, DefaultOptions(), "labels"},
		{"no features", [][]float64{{}}, []int{1}, DefaultOptions(), "no features"},
		{"ragged", [][]float64{{1, 2}, {1}}, []int{1, 2}, DefaultOptions(), "row 1"},
		{"estimators", [][]float64{{1}}, []int{1}, Options{}, "estimators"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fit(ctx, tt.x, tt.y, tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFitCancelledContext(t *testing.T) {
	x, y := blobs(50, []int{1, 2}, 6)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Fit(ctx, x, y, Options{Estimators: 10, Seed: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassesReturnsCopy(t *testing.T) {
	x, y := blobs(20, []int{1, 2}, 7)
	f, err := Fit(context.Background(), x, y, Options{Estimators: 2, Seed: 1})
	require.NoError(t, err)
	c := f.Classes()
	c[0] = 99
	assert.Equal(t, []int{1, 2}, f.Classes())
}
