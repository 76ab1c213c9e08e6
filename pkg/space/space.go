// Package space provides the immutable point store underlying every Vanir
// analysis.
//
// A PointStore maps a unique label to a point in the 4-dimensional semantic
// space, optionally tagged with a provenance string (typically the source
// domain or corpus language). Stores are built once via a Builder or one of
// the loader helpers and are immutable afterwards: every analysis component
// reads the same snapshot, so concurrent queries need no coordination.
//
// Example Usage:
//
//	b := space.NewBuilder()
//	b.Add("LOVE", geometry.Vec4{0.92, 0.45, 0.15, 0.70}, "core")
//	b.Add("HATE", geometry.Vec4{0.12, 0.35, 0.75, 0.25}, "core")
//
//	store, err := b.Build()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	p, _ := store.Get("LOVE")
//	fmt.Println(p.Coordinates)
//
// Determinism:
//
// Labels() returns labels in lexicographic order, and all iteration in the
// engine goes through that ordering. Downstream components use lexicographic
// order as the secondary sort key, so results are stable regardless of
// insertion order.
package space

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/orneryd/vanir/pkg/geometry"
)

// Errors returned by store construction and lookups.
var (
	// ErrUnknownLabel is returned when an operation references a label not
	// present in the store. Operations never silently substitute a default.
	ErrUnknownLabel = errors.New("space: unknown label")

	// ErrDuplicateLabel is returned by Builder.Build when two points share a
	// label.
	ErrDuplicateLabel = errors.New("space: duplicate label")

	// ErrNotFinite is returned by Builder.Build when a coordinate is NaN or
	// infinite. Coordinates outside [0,1] are accepted (they only degrade
	// range-dependent heuristics such as concreteness), but non-finite values
	// would poison every downstream computation.
	ErrNotFinite = errors.New("space: coordinate is not finite")

	// ErrEmptyLabel is returned by Builder.Build for a point with an empty
	// label.
	ErrEmptyLabel = errors.New("space: empty label")
)

// Point is a labeled position in the semantic space.
//
// Points are immutable once stored: Get returns a copy, and coordinates are
// a value type.
type Point struct {
	// Label uniquely identifies the point within its store.
	Label string `json:"label"`

	// Coordinates are the four bounded scalar attributes, conventionally
	// Love/Justice/Power/Wisdom, each expected in [0,1].
	Coordinates geometry.Vec4 `json:"coordinates"`

	// Provenance optionally records where the point came from (source
	// domain, corpus language). Informational only; never affects results.
	Provenance string `json:"provenance,omitempty"`
}

// Validate checks the label and coordinate finiteness. Returns
// ErrEmptyLabel or ErrNotFinite (wrapped with the label) on invalid input.
func (p Point) Validate() error {
	if p.Label == "" {
		return ErrEmptyLabel
	}
	for i, c := range p.Coordinates {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("%w: %q axis %d", ErrNotFinite, p.Label, i)
		}
	}
	return nil
}

// PointStore is an immutable collection of labeled points.
//
// The zero value is not usable; construct via Builder, FromMap, or
// LoadDomainJSON. Safe for unlimited concurrent readers.
type PointStore struct {
	points map[string]Point
	labels []string // lexicographically sorted
}

// Builder accumulates points for a PointStore.
//
// Not safe for concurrent use; build on one goroutine, share the result.
type Builder struct {
	points []Point
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends a point. Validation happens in Build, so Add never fails and
// calls can be chained.
func (b *Builder) Add(label string, coords geometry.Vec4, provenance string) *Builder {
	b.points = append(b.points, Point{Label: label, Coordinates: coords, Provenance: provenance})
	return b
}

// Build validates the accumulated points and returns an immutable store.
//
// Returns ErrDuplicateLabel, ErrEmptyLabel or ErrNotFinite (wrapped with the
// offending label) on invalid input.
func (b *Builder) Build() (*PointStore, error) {
	points := make(map[string]Point, len(b.points))
	labels := make([]string, 0, len(b.points))

	for _, p := range b.points {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, exists := points[p.Label]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateLabel, p.Label)
		}
		points[p.Label] = p
		labels = append(labels, p.Label)
	}

	sort.Strings(labels)
	return &PointStore{points: points, labels: labels}, nil
}

// FromMap builds a store from a plain label → coordinates mapping, the
// minimal exchange form produced by external collaborators.
func FromMap(m map[string]geometry.Vec4) (*PointStore, error) {
	b := NewBuilder()
	for label, coords := range m {
		b.Add(label, coords, "")
	}
	return b.Build()
}

// Len returns the number of points in the store.
func (s *PointStore) Len() int {
	return len(s.labels)
}

// Labels returns all labels in lexicographic order.
//
// The returned slice is a copy; callers may mutate it freely.
func (s *PointStore) Labels() []string {
	out := make([]string, len(s.labels))
	copy(out, s.labels)
	return out
}

// Get returns the point for label, or ErrUnknownLabel.
func (s *PointStore) Get(label string) (Point, error) {
	p, ok := s.points[label]
	if !ok {
		return Point{}, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	return p, nil
}

// Coordinates returns the coordinates for label, or ErrUnknownLabel.
func (s *PointStore) Coordinates(label string) (geometry.Vec4, error) {
	p, err := s.Get(label)
	if err != nil {
		return geometry.Vec4{}, err
	}
	return p.Coordinates, nil
}

// Has reports whether label is present.
func (s *PointStore) Has(label string) bool {
	_, ok := s.points[label]
	return ok
}

// Each calls fn for every point in lexicographic label order.
func (s *PointStore) Each(fn func(Point)) {
	for _, label := range s.labels {
		fn(s.points[label])
	}
}

// Points returns every point in lexicographic label order.
func (s *PointStore) Points() []Point {
	out := make([]Point, 0, len(s.labels))
	for _, label := range s.labels {
		out = append(out, s.points[label])
	}
	return out
}

// Bounds returns the per-axis (min, max) ranges actually occupied by the
// store's points. Used by the territory mapper to size its sampling grid.
// Returns zero vectors for an empty store.
func (s *PointStore) Bounds() (min, max geometry.Vec4) {
	if len(s.labels) == 0 {
		return geometry.Vec4{}, geometry.Vec4{}
	}
	first := s.points[s.labels[0]].Coordinates
	min, max = first, first
	for _, label := range s.labels[1:] {
		c := s.points[label].Coordinates
		for i := range c {
			if c[i] < min[i] {
				min[i] = c[i]
			}
			if c[i] > max[i] {
				max[i] = c[i]
			}
		}
	}
	return min, max
}

// domainCatalog mirrors the de facto JSON exchange format used by the
// upstream concept catalogs:
//
//	{"domains": {<domain>: {"concepts": {<label>: {"coordinates": [d0,d1,d2,d3],
//	 "definition": <string>}}}}}
//
// Definitions are collaborator-side report data and are dropped here; the
// domain name is preserved as provenance.
type domainCatalog struct {
	Domains map[string]struct {
		Concepts map[string]struct {
			Coordinates []float64 `json:"coordinates"`
			Definition  string    `json:"definition"`
		} `json:"concepts"`
	} `json:"domains"`
}

// LoadDomainJSON builds a store from the domain-catalog JSON exchange format.
//
// A concept appearing in multiple domains is a duplicate-label error, the
// same as in Builder.Build. Concepts with a coordinate count other than 4
// are rejected.
func LoadDomainJSON(data []byte) (*PointStore, error) {
	var catalog domainCatalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("space: parse domain catalog: %w", err)
	}

	b := NewBuilder()
	// Deterministic construction order so duplicate errors are stable.
	domains := make([]string, 0, len(catalog.Domains))
	for name := range catalog.Domains {
		domains = append(domains, name)
	}
	sort.Strings(domains)

	for _, domain := range domains {
		concepts := catalog.Domains[domain].Concepts
		labels := make([]string, 0, len(concepts))
		for label := range concepts {
			labels = append(labels, label)
		}
		sort.Strings(labels)

		for _, label := range labels {
			c := concepts[label]
			if len(c.Coordinates) != geometry.Dims {
				return nil, fmt.Errorf("space: concept %q has %d coordinates, want %d",
					label, len(c.Coordinates), geometry.Dims)
			}
			var v geometry.Vec4
			copy(v[:], c.Coordinates)
			b.Add(label, v, domain)
		}
	}

	return b.Build()
}
