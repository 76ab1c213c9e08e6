// Package vanir provides the main API for embedded Vanir usage.
//
// Vanir is a geometric analysis engine over a 4-dimensional semantic space.
// Every concept is a labeled point whose coordinates encode four bounded
// attributes, and all analysis reduces to geometry: distances, projections,
// differential operators over scalar and vector fields, neighborhood
// statistics, and clustering.
//
// The Engine bundles the full analysis surface over one immutable point
// snapshot:
//
//   - Predicate queries: near, far, between, orthogonal, parallel,
//     in-region, nearest-neighbor join
//   - Differential operators: gradient, divergence, curl, Laplacian over
//     named built-in fields
//   - Per-point metadata: complexity, stability, dimensionality,
//     concreteness, richness
//   - Resonance scores: harmonic resonance, entailment, antonymy
//   - Territory mapping: three clustering strategies plus topological
//     feature scanning
//
// Engines are cheap to construct and safe for concurrent use. An Engine
// opened with Open is additionally backed by a persistent catalog; writes go
// to the catalog and become visible to analysis after Reload.
//
// Example Usage:
//
//	store, err := space.LoadDomainJSON(data)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	eng := vanir.New(store, config.Default())
//
//	matches, err := eng.Near("LOVE", 0.5)
//	md, err := eng.Describe("LOVE")
//	grad, err := eng.Gradient(vanir.FieldHarmony, geometry.Vec4{0.5, 0.5, 0.5, 0.5})
package vanir

import (
	"errors"
	"fmt"

	"github.com/orneryd/vanir/pkg/catalog"
	"github.com/orneryd/vanir/pkg/config"
	"github.com/orneryd/vanir/pkg/field"
	"github.com/orneryd/vanir/pkg/geometry"
	"github.com/orneryd/vanir/pkg/metadata"
	"github.com/orneryd/vanir/pkg/query"
	"github.com/orneryd/vanir/pkg/resonance"
	"github.com/orneryd/vanir/pkg/space"
	"github.com/orneryd/vanir/pkg/territory"
)

// Named built-in fields accepted by the differential operator methods.
const (
	// FieldHarmony is the scalar harmony field 1 / (1 + distance-to-anchor).
	FieldHarmony = "harmony"
	// FieldAnchorDistance is the scalar distance-to-anchor field.
	FieldAnchorDistance = "anchor-distance"
	// FieldFlow is the vector field pointing from each location toward
	// equilibrium.
	FieldFlow = "flow"
)

var (
	// ErrUnknownField is returned for a field name outside the built-in set.
	ErrUnknownField = errors.New("vanir: unknown field")

	// ErrNoCatalog is returned by the persistence methods of an Engine built
	// with New rather than Open.
	ErrNoCatalog = errors.New("vanir: engine has no backing catalog")
)

// Engine bundles the full analysis surface over one point snapshot.
type Engine struct {
	cfg    *config.Config
	store  *space.PointStore
	kernel *geometry.Kernel

	fields  *field.Estimator
	queries *query.Engine
	meta    *metadata.Estimator
	res     *resonance.Estimator
	mapper  *territory.Mapper

	cat *catalog.Catalog
}

// New builds an in-memory engine over store. A nil cfg uses defaults.
func New(store *space.PointStore, cfg *config.Config) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	kernel := cfg.Kernel()
	meta := metadata.NewEstimator(store, cfg.Engine.NeighborhoodK)
	return &Engine{
		cfg:     cfg,
		store:   store,
		kernel:  kernel,
		fields:  field.NewEstimator(cfg.Engine.Epsilon),
		queries: query.NewEngine(store),
		meta:    meta,
		res:     resonance.NewEstimator(store, kernel),
		mapper:  territory.NewMapper(store, kernel, meta, cfg.Topology),
	}
}

// Open opens a catalog-backed engine at dataDir. The analysis snapshot is
// taken at open time; use Reload after writes.
func Open(dataDir string, cfg *config.Config) (*Engine, error) {
	cat, err := catalog.Open(catalog.Options{Dir: dataDir})
	if err != nil {
		return nil, err
	}
	store, err := cat.Snapshot()
	if err != nil {
		cat.Close()
		return nil, err
	}
	eng := New(store, cfg)
	eng.cat = cat
	return eng, nil
}

// Close releases the backing catalog, if any.
func (e *Engine) Close() error {
	if e.cat == nil {
		return nil
	}
	return e.cat.Close()
}

// Store returns the engine's immutable point snapshot.
func (e *Engine) Store() *space.PointStore { return e.store }

// Config returns the engine's configuration.
func (e *Engine) Config() *config.Config { return e.cfg }

// Kernel returns the engine's metric kernel.
func (e *Engine) Kernel() *geometry.Kernel { return e.kernel }

// Put writes a point to the backing catalog. Not visible to analysis until
// Reload.
func (e *Engine) Put(p space.Point) error {
	if e.cat == nil {
		return ErrNoCatalog
	}
	return e.cat.Put(p)
}

// Delete removes a point from the backing catalog. Not visible to analysis
// until Reload.
func (e *Engine) Delete(label string) error {
	if e.cat == nil {
		return ErrNoCatalog
	}
	return e.cat.Delete(label)
}

// ImportStore bulk-writes a store into the backing catalog and reloads.
func (e *Engine) ImportStore(store *space.PointStore) (int, error) {
	if e.cat == nil {
		return 0, ErrNoCatalog
	}
	n, err := e.cat.ImportStore(store)
	if err != nil {
		return n, err
	}
	return n, e.Reload()
}

// Reload replaces the analysis snapshot with the catalog's current contents.
// In-flight queries keep reading the old snapshot.
func (e *Engine) Reload() error {
	if e.cat == nil {
		return ErrNoCatalog
	}
	store, err := e.cat.Snapshot()
	if err != nil {
		return err
	}
	e.store = store
	e.queries = query.NewEngine(store)
	e.meta = metadata.NewEstimator(store, e.cfg.Engine.NeighborhoodK)
	e.res = resonance.NewEstimator(store, e.kernel)
	e.mapper = territory.NewMapper(store, e.kernel, e.meta, e.cfg.Topology)
	return nil
}

// Distance returns the Euclidean distance between two labeled points.
func (e *Engine) Distance(a, b string) (float64, error) {
	ca, cb, err := e.coordinatePair(a, b)
	if err != nil {
		return 0, err
	}
	return geometry.Distance(ca, cb), nil
}

// Cosine returns the cosine similarity of two labeled points' raw
// coordinates.
func (e *Engine) Cosine(a, b string) (float64, error) {
	ca, cb, err := e.coordinatePair(a, b)
	if err != nil {
		return 0, err
	}
	return geometry.CosineSimilarity(ca, cb), nil
}

// Harmony returns the harmony of a labeled point.
func (e *Engine) Harmony(label string) (float64, error) {
	c, err := e.store.Coordinates(label)
	if err != nil {
		return 0, err
	}
	return e.kernel.Harmony(c), nil
}

// Reflect returns the reflection of a labeled point through equilibrium.
func (e *Engine) Reflect(label string) (geometry.Vec4, error) {
	c, err := e.store.Coordinates(label)
	if err != nil {
		return geometry.Vec4{}, err
	}
	return e.kernel.Reflect(c), nil
}

// Near returns points within maxDist of the labeled point.
func (e *Engine) Near(label string, maxDist float64) ([]query.Match, error) {
	return e.queries.Near(label, maxDist)
}

// Far returns points at least minDist from the labeled point.
func (e *Engine) Far(label string, minDist float64) ([]query.Match, error) {
	return e.queries.Far(label, minDist)
}

// Between returns points lying on the segment from a to b within tol.
func (e *Engine) Between(a, b string, tol float64) ([]query.Match, error) {
	return e.queries.Between(a, b, tol)
}

// Orthogonal returns points c whose direction from a is orthogonal to the
// direction from a to b, within tol.
func (e *Engine) Orthogonal(a, b string, tol float64) ([]query.Match, error) {
	return e.queries.Orthogonal(a, b, tol)
}

// Parallel returns point pairs whose direction is parallel to the a→b
// direction, within tol.
func (e *Engine) Parallel(a, b string, tol float64) ([]query.PairMatch, error) {
	return e.queries.Parallel(a, b, tol)
}

// InRegion returns the labels inside an axis-aligned region.
func (e *Engine) InRegion(region query.Region) ([]string, error) {
	return e.queries.InRegion(region)
}

// JoinNearest returns each point's nearest neighbor.
func (e *Engine) JoinNearest() []query.NearestPair {
	return e.queries.JoinNearest()
}

// Describe computes the five metadata descriptors for a labeled point.
func (e *Engine) Describe(label string) (metadata.Metadata, error) {
	return e.meta.Describe(label)
}

// HarmonicResonance scores how strongly two points deviate from equilibrium
// in correlated directions.
func (e *Engine) HarmonicResonance(a, b string) (float64, error) {
	return e.res.HarmonicResonance(a, b)
}

// EntailmentStrength scores the directional implication from a to b.
func (e *Engine) EntailmentStrength(a, b string) (float64, error) {
	return e.res.EntailmentStrength(a, b)
}

// AntonymyScore scores how strongly two points oppose each other across
// equilibrium.
func (e *Engine) AntonymyScore(a, b string) (float64, error) {
	return e.res.AntonymyScore(a, b)
}

// FindHarmonics ranks the topK points by harmonic resonance with label.
func (e *Engine) FindHarmonics(label string, topK int) ([]resonance.Ranking, error) {
	return e.res.FindHarmonics(label, topK)
}

// FindEntailments ranks the topK points by entailment strength from label.
func (e *Engine) FindEntailments(label string, topK int) ([]resonance.Ranking, error) {
	return e.res.FindEntailments(label, topK)
}

// FindAntonyms ranks the topK points by antonymy score with label.
func (e *Engine) FindAntonyms(label string, topK int) ([]resonance.Ranking, error) {
	return e.res.FindAntonyms(label, topK)
}

// Territories runs one clustering strategy and returns the characterized
// map.
func (e *Engine) Territories(s territory.Strategy) (*territory.TerritoryMap, error) {
	return e.mapper.Fit(s)
}

// Topology runs the void/boundary/bridge feature scan.
func (e *Engine) Topology() *territory.TopologyScan {
	return e.mapper.ScanFeatures()
}

// Gradient evaluates the gradient of a named scalar field at a location.
func (e *Engine) Gradient(fieldName string, at geometry.Vec4) (geometry.Vec4, error) {
	f, err := e.scalarField(fieldName)
	if err != nil {
		return geometry.Vec4{}, err
	}
	return e.fields.Gradient(at, f)
}

// Laplacian evaluates the Laplacian of a named scalar field at a location.
func (e *Engine) Laplacian(fieldName string, at geometry.Vec4) (float64, error) {
	f, err := e.scalarField(fieldName)
	if err != nil {
		return 0, err
	}
	return e.fields.Laplacian(at, f)
}

// Divergence evaluates the divergence of a named vector field at a location.
func (e *Engine) Divergence(fieldName string, at geometry.Vec4) (float64, error) {
	f, err := e.vectorField(fieldName)
	if err != nil {
		return 0, err
	}
	return e.fields.Divergence(at, f)
}

// Curl evaluates the six bivector curl components of a named vector field at
// a location.
func (e *Engine) Curl(fieldName string, at geometry.Vec4) (field.Curl6, error) {
	f, err := e.vectorField(fieldName)
	if err != nil {
		return field.Curl6{}, err
	}
	return e.fields.Curl(at, f)
}

// ResolveLocation turns either a stored label or nothing into coordinates:
// label lookups go through the store, so unknown labels fail rather than
// defaulting.
func (e *Engine) ResolveLocation(label string) (geometry.Vec4, error) {
	return e.store.Coordinates(label)
}

func (e *Engine) scalarField(name string) (field.ScalarField, error) {
	switch name {
	case FieldHarmony:
		return field.Harmony(e.kernel), nil
	case FieldAnchorDistance:
		return field.DistanceToAnchor(e.kernel), nil
	default:
		return nil, fmt.Errorf("%w: %q (scalar fields: %s, %s)",
			ErrUnknownField, name, FieldHarmony, FieldAnchorDistance)
	}
}

func (e *Engine) vectorField(name string) (field.VectorField, error) {
	switch name {
	case FieldFlow:
		return field.FlowToEquilibrium(e.kernel), nil
	default:
		return nil, fmt.Errorf("%w: %q (vector fields: %s)", ErrUnknownField, name, FieldFlow)
	}
}

func (e *Engine) coordinatePair(a, b string) (geometry.Vec4, geometry.Vec4, error) {
	ca, err := e.store.Coordinates(a)
	if err != nil {
		return geometry.Vec4{}, geometry.Vec4{}, err
	}
	cb, err := e.store.Coordinates(b)
	if err != nil {
		return geometry.Vec4{}, geometry.Vec4{}, err
	}
	return ca, cb, nil
}
