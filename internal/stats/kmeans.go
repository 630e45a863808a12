package stats

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// ErrTooFewPoints is returned when the input holds fewer distinct points than clusters.
var ErrTooFewPoints = errors.New("fewer distinct points than clusters")

// KMeans partitions points into K clusters with k-means++ seeding followed
// by Lloyd iterations. A fixed Seed yields identical results across runs.
type KMeans struct {
	K       int
	Seed    uint64
	MaxIter int
	Tol     float64
}

// KMeansResult is the outcome of a clustering run
type KMeansResult struct {
	Assignments []int
	Centroids   [][]float64
	Sizes       []int
	Inertia     float64
	Iterations  int
	Converged   bool
}

// Fit clusters points. Every cluster in the result is non-empty and each
// point is assigned to its nearest centroid, ties going to the lowest index.
func (km KMeans) Fit(points [][]float64) (*KMeansResult, error) {
	if km.K < 1 {
		return nil, fmt.Errorf("k must be positive, got %d", km.K)
	}
	if DistinctCount(points, km.K) < km.K {
		return nil, fmt.Errorf("%w: k=%d", ErrTooFewPoints, km.K)
	}
	maxIter := km.MaxIter
	if maxIter <= 0 {
		maxIter = 300
	}

	rng := rand.New(rand.NewPCG(km.Seed, km.Seed))
	centroids := seedPlusPlus(points, km.K, rng)
	assign := make([]int, len(points))

	res := &KMeansResult{}
	for iter := 1; iter <= maxIter; iter++ {
		res.Iterations = iter
		assignNearest(points, centroids, assign)
		fillEmptyClusters(points, centroids, assign, km.K)

		next := computeCentroids(points, assign, km.K)
		shift := 0.0
		for j := range centroids {
			shift += sqDist(centroids[j], next[j])
		}
		centroids = next
		if shift <= km.Tol {
			res.Converged = true
			break
		}
	}

	assignNearest(points, centroids, assign)
	fillEmptyClusters(points, centroids, assign, km.K)
	centroids = computeCentroids(points, assign, km.K)

	res.Assignments = assign
	res.Centroids = centroids
	res.Sizes = make([]int, km.K)
	for i, c := range assign {
		res.Sizes[c]++
		res.Inertia += sqDist(points[i], centroids[c])
	}
	return res, nil
}

// seedPlusPlus picks initial centroids: the first uniformly, each next one
// with probability proportional to its squared distance from the nearest
// centroid chosen so far.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, slices.Clone(points[rng.IntN(len(points))]))

	d2 := make([]float64, len(points))
	for i, p := range points {
		d2[i] = sqDist(p, centroids[0])
	}

	for len(centroids) < k {
		total := floats.Sum(d2)
		idx := 0
		if total > 0 {
			target := rng.Float64() * total
			acc := 0.0
			idx = len(points) - 1
			for i, d := range d2 {
				acc += d
				if acc > target && d > 0 {
					idx = i
					break
				}
			}
		}
		c := slices.Clone(points[idx])
		centroids = append(centroids, c)
		for i, p := range points {
			d2[i] = math.Min(d2[i], sqDist(p, c))
		}
	}
	return centroids
}

func assignNearest(points, centroids [][]float64, assign []int) {
	for i, p := range points {
		best, bestDist := 0, math.Inf(1)
		for j, c := range centroids {
			if d := sqDist(p, c); d < bestDist {
				best, bestDist = j, d
			}
		}
		assign[i] = best
	}
}

// fillEmptyClusters moves, for each empty cluster, the point farthest from
// its centroid among clusters with more than one member.
func fillEmptyClusters(points, centroids [][]float64, assign []int, k int) {
	sizes := make([]int, k)
	for _, c := range assign {
		sizes[c]++
	}
	for j := 0; j < k; j++ {
		if sizes[j] > 0 {
			continue
		}
		far, farDist := -1, -1.0
		for i, p := range points {
			c := assign[i]
			if sizes[c] < 2 {
				continue
			}
			if d := sqDist(p, centroids[c]); d > farDist {
				far, farDist = i, d
			}
		}
		if far < 0 {
			return
		}
		sizes[assign[far]]--
		assign[far] = j
		sizes[j]++
		centroids[j] = slices.Clone(points[far])
	}
}

func computeCentroids(points [][]float64, assign []int, k int) [][]float64 {
	dims := len(points[0])
	sums := make([][]float64, k)
	for j := range sums {
		sums[j] = make([]float64, dims)
	}
	counts := make([]int, k)
	for i, p := range points {
		floats.Add(sums[assign[i]], p)
		counts[assign[i]]++
	}
	for j := range sums {
		if counts[j] > 0 {
			floats.Scale(1/float64(counts[j]), sums[j])
		}
	}
	return sums
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

// DistinctCount counts distinct points, stopping once limit is reached.
func DistinctCount(points [][]float64, limit int) int {
	seen := make([][]float64, 0, limit)
	for _, p := range points {
		dup := false
		for _, s := range seen {
			if floats.Equal(p, s) {
				dup = true
				break
			}
		}
		if !dup {
			seen = append(seen, p)
			if len(seen) >= limit {
				break
			}
		}
	}
	return len(seen)
}
