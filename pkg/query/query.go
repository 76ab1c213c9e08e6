// Package query implements the geometric predicate surface over a point
// store.
//
// Every operator is pure, read-only, and total: it returns an empty result
// rather than failing when no points satisfy the predicate. The only errors
// are referencing a label that is not in the store (space.ErrUnknownLabel —
// never silently substituted) and supplying an inverted region interval
// (ErrInvalidRegion).
//
// Operators:
//   - Near: points within a radius of a reference, nearest first
//   - Far: points beyond a radius, farthest first
//   - Between: points lying on the segment between two references, within a
//     perpendicular tolerance
//   - Orthogonal: points whose direction from a is perpendicular to a→b
//   - Parallel: point pairs whose direction matches a→b
//   - InRegion: hyper-rectangle membership
//   - JoinNearest: every point paired with its single nearest neighbor
//
// Ordering is deterministic: the documented score order first, lexicographic
// label order as the tie-break.
//
// Example Usage:
//
//	eng := query.NewEngine(store)
//	matches, err := eng.Near("LOVE", 0.5)
//	for _, m := range matches {
//		fmt.Printf("%s at %.3f\n", m.Label, m.Score)
//	}
package query

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/orneryd/vanir/pkg/geometry"
	"github.com/orneryd/vanir/pkg/space"
)

// ErrInvalidRegion is returned by InRegion when an interval has min > max.
var ErrInvalidRegion = errors.New("query: inverted region interval")

// Match is one scored result row. The meaning of Score depends on the
// operator (distance for Near/Far, |cosine| for Orthogonal, perpendicular
// distance for Between).
type Match struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// PairMatch is one result row of Parallel: an unordered pair (C, D) with
// C < D lexicographically, scored by deviation from perfect parallelism.
type PairMatch struct {
	C     string  `json:"c"`
	D     string  `json:"d"`
	Score float64 `json:"score"`
}

// NearestPair is one result row of JoinNearest.
type NearestPair struct {
	Label    string  `json:"label"`
	Nearest  string  `json:"nearest"`
	Distance float64 `json:"distance"`
}

// Region is four closed axis-aligned intervals, [i][0] ≤ x[i] ≤ [i][1].
type Region [geometry.Dims][2]float64

// Contains reports whether p lies inside the region on all four axes.
func (r Region) Contains(p geometry.Vec4) bool {
	for i := range p {
		if p[i] < r[i][0] || p[i] > r[i][1] {
			return false
		}
	}
	return true
}

// validate returns ErrInvalidRegion for an interval with min > max.
func (r Region) validate() error {
	for i := range r {
		if r[i][0] > r[i][1] {
			return fmt.Errorf("%w: axis %d has [%g, %g]", ErrInvalidRegion, i, r[i][0], r[i][1])
		}
	}
	return nil
}

// Engine evaluates predicates against one immutable store snapshot.
// Safe for concurrent use.
type Engine struct {
	store *space.PointStore
}

// NewEngine creates a query engine over store.
func NewEngine(store *space.PointStore) *Engine {
	return &Engine{store: store}
}

// Near returns all labels within maxDist of ref (ref excluded), ascending by
// distance.
func (e *Engine) Near(ref string, maxDist float64) ([]Match, error) {
	origin, err := e.store.Coordinates(ref)
	if err != nil {
		return nil, err
	}

	var matches []Match
	e.store.Each(func(p space.Point) {
		if p.Label == ref {
			return
		}
		if d := geometry.Distance(origin, p.Coordinates); d <= maxDist {
			matches = append(matches, Match{Label: p.Label, Score: d})
		}
	})
	sortMatches(matches, true)
	return matches, nil
}

// Far returns all labels at least minDist from ref (ref excluded),
// descending by distance.
func (e *Engine) Far(ref string, minDist float64) ([]Match, error) {
	origin, err := e.store.Coordinates(ref)
	if err != nil {
		return nil, err
	}

	var matches []Match
	e.store.Each(func(p space.Point) {
		if p.Label == ref {
			return
		}
		if d := geometry.Distance(origin, p.Coordinates); d >= minDist {
			matches = append(matches, Match{Label: p.Label, Score: d})
		}
	})
	sortMatches(matches, false)
	return matches, nil
}

// Between returns labels whose orthogonal projection onto the segment a→b
// lies within the segment and whose perpendicular distance to the segment is
// at most tol, ascending by that perpendicular distance. a and b themselves
// are excluded.
//
// If a and b coincide, the segment degenerates to a point and the
// perpendicular distance is simply the distance to that point.
func (e *Engine) Between(a, b string, tol float64) ([]Match, error) {
	pa, err := e.store.Coordinates(a)
	if err != nil {
		return nil, err
	}
	pb, err := e.store.Coordinates(b)
	if err != nil {
		return nil, err
	}

	seg := pb.Sub(pa)
	segLenSq := seg.Dot(seg)

	var matches []Match
	e.store.Each(func(p space.Point) {
		if p.Label == a || p.Label == b {
			return
		}

		rel := p.Coordinates.Sub(pa)
		var perp float64
		if segLenSq == 0 {
			perp = rel.Norm()
		} else {
			t := rel.Dot(seg) / segLenSq
			if t < 0 || t > 1 {
				return
			}
			perp = rel.Sub(seg.Scale(t)).Norm()
		}
		if perp <= tol {
			matches = append(matches, Match{Label: p.Label, Score: perp})
		}
	})
	sortMatches(matches, true)
	return matches, nil
}

// Orthogonal returns labels c (≠ a, b) such that the direction a→c is
// perpendicular to a→b within tol: |cos(b−a, c−a)| ≤ tol, ascending by that
// absolute cosine.
//
// A point coinciding with a has a zero direction vector; its cosine is 0 by
// the kernel's zero-vector rule, so it always qualifies.
func (e *Engine) Orthogonal(a, b string, tol float64) ([]Match, error) {
	pa, err := e.store.Coordinates(a)
	if err != nil {
		return nil, err
	}
	pb, err := e.store.Coordinates(b)
	if err != nil {
		return nil, err
	}

	dir := pb.Sub(pa)

	var matches []Match
	e.store.Each(func(p space.Point) {
		if p.Label == a || p.Label == b {
			return
		}
		cos := math.Abs(geometry.CosineSimilarity(dir, p.Coordinates.Sub(pa)))
		if cos <= tol {
			matches = append(matches, Match{Label: p.Label, Score: cos})
		}
	})
	sortMatches(matches, true)
	return matches, nil
}

// Parallel returns unordered pairs (c, d), disjoint from {a, b}, whose
// direction c→d is parallel or anti-parallel to a→b within tol:
// ||cos(b−a, d−c)| − 1| ≤ tol, ascending by that deviation.
//
// Pairs are reported once with C < D lexicographically; |cosine| is
// unchanged by swapping the pair, so no orientation is lost.
func (e *Engine) Parallel(a, b string, tol float64) ([]PairMatch, error) {
	pa, err := e.store.Coordinates(a)
	if err != nil {
		return nil, err
	}
	pb, err := e.store.Coordinates(b)
	if err != nil {
		return nil, err
	}

	dir := pb.Sub(pa)

	labels := e.store.Labels()
	candidates := labels[:0]
	for _, l := range labels {
		if l != a && l != b {
			candidates = append(candidates, l)
		}
	}

	var matches []PairMatch
	for i := 0; i < len(candidates); i++ {
		pc, _ := e.store.Coordinates(candidates[i])
		for j := i + 1; j < len(candidates); j++ {
			pd, _ := e.store.Coordinates(candidates[j])
			cos := geometry.CosineSimilarity(dir, pd.Sub(pc))
			deviation := math.Abs(math.Abs(cos) - 1)
			if deviation <= tol {
				matches = append(matches, PairMatch{C: candidates[i], D: candidates[j], Score: deviation})
			}
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score < matches[j].Score
		}
		if matches[i].C != matches[j].C {
			return matches[i].C < matches[j].C
		}
		return matches[i].D < matches[j].D
	})
	return matches, nil
}

// InRegion returns all labels whose coordinates fall within every interval
// of the region simultaneously, in lexicographic order.
//
// Returns ErrInvalidRegion if any interval has min > max; an empty
// intersection is a valid (empty) result, not an error.
func (e *Engine) InRegion(region Region) ([]string, error) {
	if err := region.validate(); err != nil {
		return nil, err
	}

	var labels []string
	e.store.Each(func(p space.Point) {
		if region.Contains(p.Coordinates) {
			labels = append(labels, p.Label)
		}
	})
	return labels, nil
}

// JoinNearest returns, for every label, its single nearest other label and
// that distance, in label order. Distance ties resolve to the
// lexicographically smaller neighbor. Stores with fewer than two points
// yield an empty result.
func (e *Engine) JoinNearest() []NearestPair {
	points := e.store.Points()
	if len(points) < 2 {
		return nil
	}

	pairs := make([]NearestPair, 0, len(points))
	for i, p := range points {
		best := -1
		bestDist := math.Inf(1)
		for j, q := range points {
			if i == j {
				continue
			}
			d := geometry.Distance(p.Coordinates, q.Coordinates)
			// Strict < keeps the first (lexicographically smaller) label on ties.
			if d < bestDist {
				best, bestDist = j, d
			}
		}
		pairs = append(pairs, NearestPair{
			Label:    p.Label,
			Nearest:  points[best].Label,
			Distance: bestDist,
		})
	}
	return pairs
}

// sortMatches orders by score (ascending or descending) with lexicographic
// label tie-break.
func sortMatches(matches []Match, ascending bool) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			if ascending {
				return matches[i].Score < matches[j].Score
			}
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Label < matches[j].Label
	})
}
