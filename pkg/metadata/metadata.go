// Package metadata computes per-point descriptive statistics from a point's
// k-nearest neighborhood.
//
// Five descriptors characterize how a concept sits in its local region of
// the semantic space:
//
//   - Complexity: mean histogram entropy of neighbor values per axis.
//     Higher = more heterogeneous neighborhood.
//   - Stability: inverse of mean per-axis neighbor variance.
//     Higher = more homogeneous/consistent neighborhood.
//   - Dimensionality: effective rank of the neighborhood covariance (inverse
//     participation ratio of its eigenvalues), from 1 (collinear) toward 4
//     (space-filling).
//   - Concreteness: fixed linear heuristic over the point's own coordinates,
//     weighting the first/third axes positively and the second/fourth
//     negatively. Assumes coordinates in [0,1]; values outside that range
//     degrade the heuristic but are not rejected.
//   - Richness: sqrt of the covariance determinant — the hyper-volume of the
//     neighborhood's spread.
//
// All descriptors are deterministic given the store and k; repeated calls
// return bit-identical results. The only error is an absent label. Asking
// for k ≥ store size silently caps the neighborhood at store size − 1.
//
// Example Usage:
//
//	est := metadata.NewEstimator(store, 7)
//	md, err := est.Describe("LOVE")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("complexity=%.3f stability=%.3f\n", md.Complexity, md.Stability)
package metadata

import (
	"math"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
	"gonum.org/v1/gonum/mat"

	"github.com/orneryd/vanir/pkg/geometry"
	"github.com/orneryd/vanir/pkg/space"
)

// DefaultK is the default neighborhood size.
const DefaultK = 7

// stabilityFloor keeps the variance inversion finite for perfectly
// homogeneous neighborhoods.
const stabilityFloor = 1e-6

// entropyBins is the number of equal-width histogram bins per axis used by
// Complexity.
const entropyBins = 3

// neighborCacheSize bounds the k-NN cache. Neighborhoods are the shared
// computation across all five descriptors, so one store-wide scan per label
// is amortized over every descriptor call.
const neighborCacheSize = 4096

// Metadata bundles the five descriptors for one point.
type Metadata struct {
	Label          string  `json:"label"`
	Complexity     float64 `json:"complexity"`
	Stability      float64 `json:"stability"`
	Dimensionality float64 `json:"dimensionality"`
	Concreteness   float64 `json:"concreteness"`
	Richness       float64 `json:"richness"`
}

// Estimator computes descriptors over one immutable store snapshot with a
// fixed k. Safe for concurrent use.
type Estimator struct {
	store *space.PointStore
	k     int
	cache *lru.Cache[string, []geometry.Vec4]
}

// NewEstimator creates an estimator with neighborhood size k (values < 1
// fall back to DefaultK).
func NewEstimator(store *space.PointStore, k int) *Estimator {
	if k < 1 {
		k = DefaultK
	}
	// Error only fires for size < 1.
	cache, _ := lru.New[string, []geometry.Vec4](neighborCacheSize)
	return &Estimator{store: store, k: k, cache: cache}
}

// K returns the configured neighborhood size (before store-size capping).
func (e *Estimator) K() int { return e.k }

// Neighborhood returns the coordinates of the k nearest neighbors of label,
// ordered by ascending distance with lexicographic label tie-break. The
// point itself is excluded. Capped at store size − 1.
func (e *Estimator) Neighborhood(label string) ([]geometry.Vec4, error) {
	if cached, ok := e.cache.Get(label); ok {
		return cached, nil
	}

	origin, err := e.store.Coordinates(label)
	if err != nil {
		return nil, err
	}

	type scored struct {
		label string
		dist  float64
		coord geometry.Vec4
	}
	all := make([]scored, 0, e.store.Len()-1)
	e.store.Each(func(p space.Point) {
		if p.Label == label {
			return
		}
		all = append(all, scored{
			label: p.Label,
			dist:  geometry.Distance(origin, p.Coordinates),
			coord: p.Coordinates,
		})
	})

	sort.Slice(all, func(i, j int) bool {
		if all[i].dist != all[j].dist {
			return all[i].dist < all[j].dist
		}
		return all[i].label < all[j].label
	})

	k := e.k
	if k > len(all) {
		k = len(all)
	}
	neighbors := make([]geometry.Vec4, k)
	for i := 0; i < k; i++ {
		neighbors[i] = all[i].coord
	}

	e.cache.Add(label, neighbors)
	return neighbors, nil
}

// Complexity returns the mean, across the four axes, of the histogram
// entropy of neighbor values on that axis (3 equal-width bins spanning the
// neighbor value range). An axis where all neighbors agree contributes zero
// entropy.
func (e *Estimator) Complexity(label string) (float64, error) {
	neighbors, err := e.Neighborhood(label)
	if err != nil {
		return 0, err
	}
	if len(neighbors) == 0 {
		return 0, nil
	}

	var total float64
	for axis := 0; axis < geometry.Dims; axis++ {
		total += axisEntropy(neighbors, axis)
	}
	return total / geometry.Dims, nil
}

// Stability returns 1 / (mean per-axis neighbor variance + floor). An empty
// neighborhood has zero variance and so maximal stability.
func (e *Estimator) Stability(label string) (float64, error) {
	neighbors, err := e.Neighborhood(label)
	if err != nil {
		return 0, err
	}
	return 1 / (meanVariance(neighbors) + stabilityFloor), nil
}

// Dimensionality returns the effective rank of the neighborhood covariance:
// the inverse participation ratio 1 / Σ(λᵢ/Σλ)² over the non-negative
// eigenvalues. 1 means the neighborhood is collinear; 4 means it fills the
// space evenly. A degenerate neighborhood (all points coincident, or empty)
// returns 0.
func (e *Estimator) Dimensionality(label string) (float64, error) {
	neighbors, err := e.Neighborhood(label)
	if err != nil {
		return 0, err
	}

	eigenvalues, ok := covarianceEigenvalues(neighbors)
	if !ok {
		return 0, nil
	}

	var total float64
	for _, ev := range eigenvalues {
		total += ev
	}
	if total <= 0 {
		return 0, nil
	}

	var ipr float64
	for _, ev := range eigenvalues {
		share := ev / total
		ipr += share * share
	}
	return 1 / ipr, nil
}

// Concreteness scores the point itself (not its neighborhood) with the
// fixed linear heuristic clip((D0 + D2 − D1 − D3 + 2) / 4, 0, 1): weight
// toward the first/third axes and away from the second/fourth.
func (e *Estimator) Concreteness(label string) (float64, error) {
	c, err := e.store.Coordinates(label)
	if err != nil {
		return 0, err
	}
	v := (c[0] + c[2] - c[1] - c[3] + 2) / 4
	return math.Min(1, math.Max(0, v)), nil
}

// Richness returns sqrt(max(det(covariance), 0)): the hyper-volume of the
// neighborhood's local spread.
func (e *Estimator) Richness(label string) (float64, error) {
	neighbors, err := e.Neighborhood(label)
	if err != nil {
		return 0, err
	}

	cov, ok := covariance(neighbors)
	if !ok {
		return 0, nil
	}
	det := mat.Det(cov)
	if det < 0 {
		det = 0
	}
	return math.Sqrt(det), nil
}

// Describe computes all five descriptors in one call.
func (e *Estimator) Describe(label string) (Metadata, error) {
	complexity, err := e.Complexity(label)
	if err != nil {
		return Metadata{}, err
	}
	stability, err := e.Stability(label)
	if err != nil {
		return Metadata{}, err
	}
	dimensionality, err := e.Dimensionality(label)
	if err != nil {
		return Metadata{}, err
	}
	concreteness, err := e.Concreteness(label)
	if err != nil {
		return Metadata{}, err
	}
	richness, err := e.Richness(label)
	if err != nil {
		return Metadata{}, err
	}

	return Metadata{
		Label:          label,
		Complexity:     complexity,
		Stability:      stability,
		Dimensionality: dimensionality,
		Concreteness:   concreteness,
		Richness:       richness,
	}, nil
}

// axisEntropy is the natural-log histogram entropy of neighbor values on one
// axis, binned into entropyBins equal-width bins over the value range.
func axisEntropy(neighbors []geometry.Vec4, axis int) float64 {
	min, max := neighbors[0][axis], neighbors[0][axis]
	for _, n := range neighbors[1:] {
		if n[axis] < min {
			min = n[axis]
		}
		if n[axis] > max {
			max = n[axis]
		}
	}
	if max == min {
		return 0
	}

	width := (max - min) / entropyBins
	var counts [entropyBins]int
	for _, n := range neighbors {
		bin := int((n[axis] - min) / width)
		if bin >= entropyBins {
			bin = entropyBins - 1
		}
		counts[bin]++
	}

	total := float64(len(neighbors))
	var entropy float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / total
		entropy -= p * math.Log(p)
	}
	return entropy
}

// meanVariance is the mean across axes of the population variance of
// neighbor values on that axis. Zero for fewer than two neighbors.
func meanVariance(neighbors []geometry.Vec4) float64 {
	if len(neighbors) < 2 {
		return 0
	}

	n := float64(len(neighbors))
	var total float64
	for axis := 0; axis < geometry.Dims; axis++ {
		var mean float64
		for _, p := range neighbors {
			mean += p[axis]
		}
		mean /= n

		var variance float64
		for _, p := range neighbors {
			d := p[axis] - mean
			variance += d * d
		}
		total += variance / n
	}
	return total / geometry.Dims
}

// covariance builds the 4×4 population covariance matrix of the
// neighborhood. Returns ok=false for fewer than two neighbors.
func covariance(neighbors []geometry.Vec4) (*mat.SymDense, bool) {
	if len(neighbors) < 2 {
		return nil, false
	}

	n := float64(len(neighbors))
	var mean geometry.Vec4
	for _, p := range neighbors {
		mean = mean.Add(p)
	}
	mean = mean.Scale(1 / n)

	cov := mat.NewSymDense(geometry.Dims, nil)
	for i := 0; i < geometry.Dims; i++ {
		for j := i; j < geometry.Dims; j++ {
			var sum float64
			for _, p := range neighbors {
				sum += (p[i] - mean[i]) * (p[j] - mean[j])
			}
			cov.SetSym(i, j, sum/n)
		}
	}
	return cov, true
}

// covarianceEigenvalues returns the covariance eigenvalues clipped to ≥ 0.
func covarianceEigenvalues(neighbors []geometry.Vec4) ([]float64, bool) {
	cov, ok := covariance(neighbors)
	if !ok {
		return nil, false
	}

	var eig mat.EigenSym
	if !eig.Factorize(cov, false) {
		return nil, false
	}
	values := eig.Values(nil)
	for i, v := range values {
		if v < 0 {
			values[i] = 0
		}
	}
	return values, true
}
