package forest

import (
	"cmp"
	"math/rand"
	"slices"
)

const leaf = -1

type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	dist      []float64
}

// Tree is a CART classification tree split on gini impurity. Leaves hold the
// class distribution of the training rows that reached them.
type Tree struct {
	nodes []node
}

type growParams struct {
	nClasses    int
	maxDepth    int
	minSplit    int
	maxFeatures int
}

type grower struct {
	x   [][]float64
	y   []int
	p   growParams
	rng *rand.Rand
	t   *Tree
}

func growTree(x [][]float64, y []int, samples []int, p growParams, rng *rand.Rand) *Tree {
	g := &grower{x: x, y: y, p: p, rng: rng, t: &Tree{}}
	g.grow(samples, 0)
	return g.t
}

func (g *grower) grow(samples []int, depth int) int {
	counts := make([]float64, g.p.nClasses)
	for _, s := range samples {
		counts[g.y[s]]++
	}
	id := len(g.t.nodes)
	g.t.nodes = append(g.t.nodes, node{left: leaf, right: leaf})

	if g.pure(counts) || len(samples) < g.p.minSplit || (g.p.maxDepth > 0 && depth >= g.p.maxDepth) {
		g.t.nodes[id].dist = normalize(counts, len(samples))
		return id
	}
	feature, threshold, ok := g.bestSplit(samples, counts)
	if !ok {
		g.t.nodes[id].dist = normalize(counts, len(samples))
		return id
	}

	var left, right []int
	for _, s := range samples {
		if g.x[s][feature] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	l := g.grow(left, depth+1)
	r := g.grow(right, depth+1)
	g.t.nodes[id].feature = feature
	g.t.nodes[id].threshold = threshold
	g.t.nodes[id].left = l
	g.t.nodes[id].right = r
	return id
}

func (g *grower) pure(counts []float64) bool {
	nonzero := 0
	for _, c := range counts {
		if c > 0 {
			nonzero++
		}
	}
	return nonzero <= 1
}

// bestSplit visits features in a random order until maxFeatures
// non-constant ones have been evaluated.
func (g *grower) bestSplit(samples []int, counts []float64) (int, float64, bool) {
	nFeatures := len(g.x[samples[0]])
	order := g.rng.Perm(nFeatures)

	bestScore := -1.0
	bestFeature, bestThreshold := -1, 0.0
	visited := 0
	sorted := make([]int, len(samples))
	left := make([]float64, len(counts))
	right := make([]float64, len(counts))

	for _, f := range order {
		if visited >= g.p.maxFeatures {
			break
		}
		copy(sorted, samples)
		slices.SortFunc(sorted, func(a, b int) int {
			if c := cmp.Compare(g.x[a][f], g.x[b][f]); c != 0 {
				return c
			}
			return cmp.Compare(a, b)
		})
		if g.x[sorted[0]][f] == g.x[sorted[len(sorted)-1]][f] {
			continue
		}
		visited++

		clear(left)
		copy(right, counts)
		n := float64(len(sorted))
		for i := 0; i < len(sorted)-1; i++ {
			c := g.y[sorted[i]]
			left[c]++
			right[c]--
			lo, hi := g.x[sorted[i]][f], g.x[sorted[i+1]][f]
			if lo == hi {
				continue
			}
			nl := float64(i + 1)
			score := sumSquares(left)/nl + sumSquares(right)/(n-nl)
			if score > bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
				if bestThreshold >= hi {
					bestThreshold = lo
				}
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

func (t *Tree) distribution(row []float64) []float64 {
	i := 0
	for {
		n := &t.nodes[i]
		if n.left == leaf {
			return n.dist
		}
		if row[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

func (t *Tree) depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.nodes[i]
		if n.left == leaf {
			return 0
		}
		return 1 + max(walk(n.left), walk(n.right))
	}
	return walk(0)
}

func (t *Tree) leaves() int {
	n := 0
	for _, nd := range t.nodes {
		if nd.left == leaf {
			n++
		}
	}
	return n
}

func sumSquares(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x * x
	}
	return s
}

func normalize(counts []float64, n int) []float64 {
	out := make([]float64, len(counts))
	if n == 0 {
		return out
	}
	for i, c := range counts {
		out[i] = c / float64(n)
	}
	return out
}
