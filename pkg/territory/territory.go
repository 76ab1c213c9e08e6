// Package territory partitions the point cloud into dense regions and
// detects heuristic topological features.
//
// A clustering run walks the states Configured → Fit → Characterized: the
// caller configures a Strategy, Fit groups all coordinates, and every group
// is characterized into a Territory record (center, radius, per-axis ranges,
// harmony mean, density, stability). Feature scanning is an independent,
// optional pass that detects three feature kinds:
//
//   - Voids: regular grid points over the occupied range whose distance to
//     the nearest real point exceeds a threshold
//   - Boundary points: points with high neighborhood coordinate variance
//     and a distant 5th nearest neighbor
//   - Bridge points: points whose sorted distance-to-all-others sequence
//     jumps by more than a threshold, connecting a near and a far group
//
// Feature detection is a sampling heuristic, not a topological proof: grid
// resolution is deliberately coarse and the thresholds are tunable constants
// without a principled derivation. Treat the output as diagnostics.
//
// Clustering Strategies:
//
// Three interchangeable strategies are modeled as a tagged variant
// (StrategyKind plus one parameter bundle) so dispatch is exhaustive at
// compile time:
//
//   - KindHierarchical: agglomerative with average linkage, caller-supplied
//     cluster count
//   - KindDensity: DBSCAN-style region growing with a fixed radius and
//     minimum neighbor count; sparse points are noise and excluded
//   - KindCentroid: k-means with multiple seeded restarts, lowest-inertia
//     result kept
//
// Each strategy is deterministic given its parameters and seed.
//
// Example Usage:
//
//	mapper := territory.NewMapper(store, kernel, meta, cfg.Topology)
//
//	result, err := mapper.Fit(territory.Strategy{
//		Kind:     territory.KindCentroid,
//		Clusters: 3,
//		Restarts: 5,
//		Seed:     42,
//	})
//	for _, terr := range result.Territories {
//		fmt.Printf("territory %d: %d members, radius %.3f\n",
//			terr.ID, len(terr.Members), terr.Radius)
//	}
package territory

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/google/uuid"

	"github.com/orneryd/vanir/pkg/config"
	"github.com/orneryd/vanir/pkg/geometry"
	"github.com/orneryd/vanir/pkg/metadata"
	"github.com/orneryd/vanir/pkg/simd"
	"github.com/orneryd/vanir/pkg/space"
)

// ErrBadConfig is returned by Fit for an invalid strategy parameter
// combination (e.g. cluster count exceeding point count).
var ErrBadConfig = errors.New("territory: invalid strategy configuration")

// StrategyKind selects a clustering algorithm.
type StrategyKind int

const (
	// KindHierarchical is agglomerative clustering with average linkage.
	KindHierarchical StrategyKind = iota
	// KindDensity is DBSCAN-style density clustering.
	KindDensity
	// KindCentroid is k-means with random restarts.
	KindCentroid
)

// String returns the strategy name used in result records.
func (k StrategyKind) String() string {
	switch k {
	case KindHierarchical:
		return "hierarchical"
	case KindDensity:
		return "density"
	case KindCentroid:
		return "centroid"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Strategy is the tagged parameter bundle for one clustering run. Fields
// irrelevant to the chosen Kind are ignored.
type Strategy struct {
	Kind StrategyKind

	// Clusters is the target cluster count (hierarchical, centroid).
	Clusters int

	// Radius is the ε neighborhood radius (density).
	Radius float64

	// MinNeighbors is the minimum neighbor count, self excluded, for a
	// dense point (density).
	MinNeighbors int

	// Restarts is the number of independent initializations (centroid).
	// Values < 1 default to 1.
	Restarts int

	// MaxIterations bounds Lloyd iteration per restart (centroid).
	// Values < 1 default to 100.
	MaxIterations int

	// Seed drives centroid initialization. The same seed and parameters
	// always reproduce the same result.
	Seed int64
}

// Territory is one characterized cluster.
//
// IDs are dense small integers within a single run; they are not stable
// across runs or strategies, and two strategy runs over the same store may
// partition it differently. Compare runs by RunID, not by territory ID.
type Territory struct {
	ID          int                       `json:"id"`
	Center      geometry.Vec4             `json:"center"`
	Radius      float64                   `json:"radius"`
	Members     []string                  `json:"members"`
	Ranges      [geometry.Dims][2]float64 `json:"ranges"`
	HarmonyMean float64                   `json:"harmony_mean"`
	Density     float64                   `json:"density"`
	Stability   float64                   `json:"stability"`
}

// TerritoryMap is the result of one clustering run.
type TerritoryMap struct {
	// RunID distinguishes result sets; territory IDs are only meaningful
	// within one run.
	RunID string `json:"run_id"`

	// Strategy names the algorithm that produced the map.
	Strategy string `json:"strategy"`

	// Territories, ordered by ID.
	Territories []Territory `json:"territories"`

	// Noise lists points assigned to no territory (density strategy only),
	// sorted.
	Noise []string `json:"noise,omitempty"`
}

// FeatureKind classifies a topological feature.
type FeatureKind string

const (
	// FeatureVoid is an unoccupied grid region.
	FeatureVoid FeatureKind = "void"
	// FeatureBoundary is a point on the edge of a dense region.
	FeatureBoundary FeatureKind = "boundary"
	// FeatureBridge is a point connecting a near group and a far group.
	FeatureBridge FeatureKind = "bridge"
)

// maxAssociated bounds the labels attached to one feature.
const maxAssociated = 5

// TopologicalFeature is one detected feature. Voids carry a grid Location;
// boundary and bridge features carry the Label of the point itself.
// Derived report data only; never fed back into the store.
type TopologicalFeature struct {
	Kind FeatureKind `json:"kind"`

	// Location is the feature position: the grid sample for voids, the
	// point's own coordinates otherwise.
	Location geometry.Vec4 `json:"location"`

	// Label is the flagged point for boundary/bridge features, empty for
	// voids.
	Label string `json:"label,omitempty"`

	// Scale holds the kind-specific magnitudes: {nearest-point distance}
	// for voids, {neighborhood variance, 5th-NN distance} for boundaries,
	// {gap size, gap distance} for bridges.
	Scale []float64 `json:"scale"`

	// AssociatedLabels lists up to 5 related points, nearest first.
	AssociatedLabels []string `json:"associated_labels"`
}

// TopologyScan is the result of one feature scan.
type TopologyScan struct {
	RunID    string               `json:"run_id"`
	Features []TopologicalFeature `json:"features"`
}

// Mapper runs clustering and feature scans over one immutable store
// snapshot. Safe for concurrent use; every run is independent.
type Mapper struct {
	store  *space.PointStore
	kernel *geometry.Kernel
	meta   *metadata.Estimator
	topo   config.TopologyConfig

	labels []string        // lexicographic
	coords []geometry.Vec4 // parallel to labels
	f32    [][]float32     // parallel float32 view for the SIMD paths
}

// NewMapper creates a mapper. The metadata estimator supplies per-point
// stability for territory characterization; topo supplies the feature-scan
// thresholds.
func NewMapper(store *space.PointStore, kernel *geometry.Kernel, meta *metadata.Estimator, topo config.TopologyConfig) *Mapper {
	labels := store.Labels()
	coords := make([]geometry.Vec4, len(labels))
	f32 := make([][]float32, len(labels))
	for i, label := range labels {
		c, _ := store.Coordinates(label)
		coords[i] = c
		f32[i] = c.Slice32()
	}
	return &Mapper{
		store:  store,
		kernel: kernel,
		meta:   meta,
		topo:   topo,
		labels: labels,
		coords: coords,
		f32:    f32,
	}
}

// Fit runs one clustering strategy and characterizes the resulting groups.
//
// Returns ErrBadConfig (wrapped with the offending parameter) for an invalid
// combination; never mutates the store.
func (m *Mapper) Fit(s Strategy) (*TerritoryMap, error) {
	n := len(m.labels)

	var groups [][]int
	var noise []int
	var err error

	switch s.Kind {
	case KindHierarchical:
		groups, err = m.fitHierarchical(s, n)
	case KindDensity:
		groups, noise, err = m.fitDensity(s, n)
	case KindCentroid:
		groups, err = m.fitCentroid(s, n)
	default:
		err = fmt.Errorf("%w: unknown strategy kind %d", ErrBadConfig, int(s.Kind))
	}
	if err != nil {
		return nil, err
	}

	result := &TerritoryMap{
		RunID:    uuid.NewString(),
		Strategy: s.Kind.String(),
	}
	for id, group := range groups {
		result.Territories = append(result.Territories, m.characterize(id, group))
	}
	for _, idx := range noise {
		result.Noise = append(result.Noise, m.labels[idx])
	}
	sort.Strings(result.Noise)
	return result, nil
}

// fitHierarchical merges clusters bottom-up under average linkage until the
// requested count remains. Ties merge the lowest index pair, so results are
// deterministic.
func (m *Mapper) fitHierarchical(s Strategy, n int) ([][]int, error) {
	if s.Clusters < 1 {
		return nil, fmt.Errorf("%w: cluster count %d < 1", ErrBadConfig, s.Clusters)
	}
	if s.Clusters > n {
		return nil, fmt.Errorf("%w: cluster count %d exceeds point count %d", ErrBadConfig, s.Clusters, n)
	}

	clusters := make([][]int, n)
	for i := range clusters {
		clusters[i] = []int{i}
	}

	for len(clusters) > s.Clusters {
		bestA, bestB := -1, -1
		bestLink := math.Inf(1)
		for a := 0; a < len(clusters); a++ {
			for b := a + 1; b < len(clusters); b++ {
				if link := m.averageLinkage(clusters[a], clusters[b]); link < bestLink {
					bestA, bestB, bestLink = a, b, link
				}
			}
		}
		merged := append(append([]int{}, clusters[bestA]...), clusters[bestB]...)
		clusters[bestA] = merged
		clusters = append(clusters[:bestB], clusters[bestB+1:]...)
	}
	return clusters, nil
}

// averageLinkage is the mean pairwise distance between two clusters.
func (m *Mapper) averageLinkage(a, b []int) float64 {
	var sum float64
	for _, i := range a {
		for _, j := range b {
			sum += geometry.Distance(m.coords[i], m.coords[j])
		}
	}
	return sum / float64(len(a)*len(b))
}

// fitDensity grows clusters from dense points. A point is dense when at
// least MinNeighbors others lie within Radius; points reachable from no
// dense point are noise.
func (m *Mapper) fitDensity(s Strategy, n int) (groups [][]int, noise []int, err error) {
	if s.Radius <= 0 {
		return nil, nil, fmt.Errorf("%w: density radius %g must be positive", ErrBadConfig, s.Radius)
	}
	if s.MinNeighbors < 1 {
		return nil, nil, fmt.Errorf("%w: min neighbors %d < 1", ErrBadConfig, s.MinNeighbors)
	}

	neighbors := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j && geometry.Distance(m.coords[i], m.coords[j]) <= s.Radius {
				neighbors[i] = append(neighbors[i], j)
			}
		}
	}

	const (
		unvisited = 0
		inCluster = 1
		asNoise   = 2
	)
	state := make([]int, n)

	for i := 0; i < n; i++ {
		if state[i] != unvisited {
			continue
		}
		if len(neighbors[i]) < s.MinNeighbors {
			state[i] = asNoise
			continue
		}

		// Expand a new cluster from this core point.
		var cluster []int
		queue := []int{i}
		state[i] = inCluster
		for len(queue) > 0 {
			p := queue[0]
			queue = queue[1:]
			cluster = append(cluster, p)

			if len(neighbors[p]) < s.MinNeighbors {
				continue // border point: belongs, but does not expand
			}
			for _, q := range neighbors[p] {
				if state[q] == inCluster {
					continue
				}
				state[q] = inCluster
				queue = append(queue, q)
			}
		}
		sort.Ints(cluster)
		groups = append(groups, cluster)
	}

	for i := 0; i < n; i++ {
		if state[i] == asNoise {
			noise = append(noise, i)
		}
	}
	return groups, noise, nil
}

// fitCentroid runs seeded k-means with independent restarts and keeps the
// lowest-inertia assignment.
func (m *Mapper) fitCentroid(s Strategy, n int) ([][]int, error) {
	if s.Clusters < 1 {
		return nil, fmt.Errorf("%w: cluster count %d < 1", ErrBadConfig, s.Clusters)
	}
	if s.Clusters > n {
		return nil, fmt.Errorf("%w: cluster count %d exceeds point count %d", ErrBadConfig, s.Clusters, n)
	}

	restarts := s.Restarts
	if restarts < 1 {
		restarts = 1
	}
	maxIter := s.MaxIterations
	if maxIter < 1 {
		maxIter = 100
	}

	rng := rand.New(rand.NewSource(s.Seed))

	bestInertia := math.Inf(1)
	var bestAssign []int

	for restart := 0; restart < restarts; restart++ {
		assign, inertia := m.lloyd(rng, s.Clusters, maxIter, n)
		if inertia < bestInertia {
			bestInertia = inertia
			bestAssign = assign
		}
	}

	groups := make([][]int, s.Clusters)
	for i, c := range bestAssign {
		groups[c] = append(groups[c], i)
	}
	// Drop clusters that ended empty; IDs stay dense.
	out := groups[:0]
	for _, g := range groups {
		if len(g) > 0 {
			out = append(out, g)
		}
	}
	return out, nil
}

// lloyd runs one k-means initialization to convergence (or maxIter) and
// returns the assignment and its inertia.
func (m *Mapper) lloyd(rng *rand.Rand, k, maxIter, n int) ([]int, float64) {
	// Initialize centroids on k distinct points.
	perm := rng.Perm(n)
	centroids := make([]geometry.Vec4, k)
	for c := 0; c < k; c++ {
		centroids[c] = m.coords[perm[c]]
	}

	assign := make([]int, n)
	centroids32 := make([][]float32, k)

	for iter := 0; iter < maxIter; iter++ {
		for c := range centroids {
			centroids32[c] = centroids[c].Slice32()
		}

		changed := false
		for i := range m.coords {
			// float32 batch assignment; ordering ties resolve to the lowest
			// centroid index, keeping runs reproducible.
			nearest, _ := simd.NearestIndex(m.f32[i], centroids32)
			if nearest != assign[i] {
				assign[i] = nearest
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		// Recompute centroids in float64; empty clusters keep their previous
		// centroid.
		counts := make([]int, k)
		means := make([]geometry.Vec4, k)
		for i, c := range assign {
			means[c] = means[c].Add(m.coords[i])
			counts[c]++
		}
		for c := 0; c < k; c++ {
			if counts[c] > 0 {
				centroids[c] = means[c].Scale(1 / float64(counts[c]))
			}
		}
	}

	var inertia float64
	for i, c := range assign {
		d := geometry.Distance(m.coords[i], centroids[c])
		inertia += d * d
	}
	return assign, inertia
}

// characterize builds the Territory record for one member group.
func (m *Mapper) characterize(id int, group []int) Territory {
	n := float64(len(group))

	var center geometry.Vec4
	for _, idx := range group {
		center = center.Add(m.coords[idx])
	}
	center = center.Scale(1 / n)

	var radius, harmonySum, stabilitySum float64
	var ranges [geometry.Dims][2]float64
	first := m.coords[group[0]]
	for i := range ranges {
		ranges[i] = [2]float64{first[i], first[i]}
	}

	members := make([]string, 0, len(group))
	for _, idx := range group {
		c := m.coords[idx]
		if d := geometry.Distance(c, center); d > radius {
			radius = d
		}
		for i := range c {
			if c[i] < ranges[i][0] {
				ranges[i][0] = c[i]
			}
			if c[i] > ranges[i][1] {
				ranges[i][1] = c[i]
			}
		}
		harmonySum += m.kernel.Harmony(c)
		if st, err := m.meta.Stability(m.labels[idx]); err == nil {
			stabilitySum += st
		}
		members = append(members, m.labels[idx])
	}
	sort.Strings(members)

	return Territory{
		ID:          id,
		Center:      center,
		Radius:      radius,
		Members:     members,
		Ranges:      ranges,
		HarmonyMean: harmonySum / n,
		Density:     density(len(group), radius),
		Stability:   stabilitySum / n,
	}
}

// density is members per unit of occupied hyper-volume, using the 4-ball
// volume (π²/2)·r⁴. A zero-radius (singleton or coincident) territory is
// degenerate; its density is defined as the member count.
func density(members int, radius float64) float64 {
	if radius == 0 {
		return float64(members)
	}
	volume := math.Pi * math.Pi / 2 * math.Pow(radius, 4)
	return float64(members) / volume
}

// ScanFeatures runs all three feature detectors over the store. An empty or
// singleton store produces an empty (but valid) scan rather than an error.
//
// Features are reported voids first, then boundaries, then bridges, each
// group in deterministic order (grid order for voids, lexicographic label
// order otherwise).
func (m *Mapper) ScanFeatures() *TopologyScan {
	scan := &TopologyScan{RunID: uuid.NewString()}
	scan.Features = append(scan.Features, m.detectVoids()...)
	scan.Features = append(scan.Features, m.detectBoundaries()...)
	scan.Features = append(scan.Features, m.detectBridges()...)
	return scan
}

// detectVoids samples a regular grid over the occupied bounding box and
// flags samples whose nearest real point is further than the void threshold.
func (m *Mapper) detectVoids() []TopologicalFeature {
	if len(m.coords) == 0 {
		return nil
	}

	res := m.topo.GridResolution
	if res < 2 {
		res = 2
	}
	lo, hi := m.store.Bounds()

	var features []TopologicalFeature
	total := 1
	for i := 0; i < geometry.Dims; i++ {
		total *= res
	}

	sample := make([]float32, geometry.Dims)
	for cell := 0; cell < total; cell++ {
		var loc geometry.Vec4
		rem := cell
		for axis := 0; axis < geometry.Dims; axis++ {
			idx := rem % res
			rem /= res
			t := float64(idx) / float64(res-1)
			loc[axis] = lo[axis] + t*(hi[axis]-lo[axis])
		}

		for i, v := range loc {
			sample[i] = float32(v)
		}
		nearest := float64(simd.MinDistance(sample, m.f32))
		if nearest <= m.topo.VoidDistance {
			continue
		}
		features = append(features, TopologicalFeature{
			Kind:             FeatureVoid,
			Location:         loc,
			Scale:            []float64{nearest},
			AssociatedLabels: m.nearestLabels(loc, maxAssociated),
		})
	}
	return features
}

// detectBoundaries flags points whose neighborhood variance exceeds the
// boundary variance threshold while the 5th nearest neighbor sits beyond the
// neighbor distance threshold.
func (m *Mapper) detectBoundaries() []TopologicalFeature {
	var features []TopologicalFeature
	for i, label := range m.labels {
		dists := m.sortedDistances(i)
		if len(dists) < maxAssociated {
			continue
		}
		fifth := dists[maxAssociated-1].dist

		neighbors, err := m.meta.Neighborhood(label)
		if err != nil {
			continue
		}
		variance := neighborVariance(neighbors)

		if variance <= m.topo.BoundaryVariance || fifth <= m.topo.BoundaryNeighborDistance {
			continue
		}
		features = append(features, TopologicalFeature{
			Kind:             FeatureBoundary,
			Location:         m.coords[i],
			Label:            label,
			Scale:            []float64{variance, fifth},
			AssociatedLabels: labelsOf(dists[:maxAssociated]),
		})
	}
	return features
}

// detectBridges flags points whose sorted distance sequence to all other
// points jumps by more than the bridge gap threshold. The near side of the
// jump is the group the point belongs to; the far side is the group it
// bridges toward.
func (m *Mapper) detectBridges() []TopologicalFeature {
	var features []TopologicalFeature
	for i, label := range m.labels {
		dists := m.sortedDistances(i)
		if len(dists) < 2 {
			continue
		}

		for g := 0; g < len(dists)-1; g++ {
			gap := dists[g+1].dist - dists[g].dist
			if gap <= m.topo.BridgeGap {
				continue
			}
			near := g + 1
			if near > maxAssociated {
				near = maxAssociated
			}
			features = append(features, TopologicalFeature{
				Kind:             FeatureBridge,
				Location:         m.coords[i],
				Label:            label,
				Scale:            []float64{gap, dists[g].dist},
				AssociatedLabels: labelsOf(dists[:near]),
			})
			break // report the first (nearest) gap only
		}
	}
	return features
}

type labelDist struct {
	label string
	dist  float64
}

// sortedDistances returns every other point ordered by ascending distance
// from point i, lexicographic tie-break.
func (m *Mapper) sortedDistances(i int) []labelDist {
	out := make([]labelDist, 0, len(m.labels)-1)
	for j := range m.labels {
		if j == i {
			continue
		}
		out = append(out, labelDist{
			label: m.labels[j],
			dist:  geometry.Distance(m.coords[i], m.coords[j]),
		})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].dist != out[b].dist {
			return out[a].dist < out[b].dist
		}
		return out[a].label < out[b].label
	})
	return out
}

// nearestLabels returns up to limit labels nearest to loc, ascending.
func (m *Mapper) nearestLabels(loc geometry.Vec4, limit int) []string {
	out := make([]labelDist, len(m.labels))
	for j := range m.labels {
		out[j] = labelDist{
			label: m.labels[j],
			dist:  geometry.Distance(loc, m.coords[j]),
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].dist != out[b].dist {
			return out[a].dist < out[b].dist
		}
		return out[a].label < out[b].label
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return labelsOf(out)
}

func labelsOf(dists []labelDist) []string {
	labels := make([]string, len(dists))
	for i, d := range dists {
		labels[i] = d.label
	}
	return labels
}

// neighborVariance is the mean across axes of the population variance of
// neighbor coordinates.
func neighborVariance(neighbors []geometry.Vec4) float64 {
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
