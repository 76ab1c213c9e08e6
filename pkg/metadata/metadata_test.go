package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/vanir/pkg/geometry"
	"github.com/orneryd/vanir/pkg/space"
)

func buildStore(t *testing.T, points map[string]geometry.Vec4) *space.PointStore {
	t.Helper()
	store, err := space.FromMap(points)
	require.NoError(t, err)
	return store
}

// spreadStore has a target with a deliberately heterogeneous neighborhood
// and one with a tight, homogeneous one.
func spreadStore(t *testing.T) *space.PointStore {
	return buildStore(t, map[string]geometry.Vec4{
		"TIGHT":   {0.50, 0.50, 0.50, 0.50},
		"T1":      {0.51, 0.50, 0.50, 0.50},
		"T2":      {0.50, 0.51, 0.50, 0.50},
		"T3":      {0.49, 0.50, 0.50, 0.50},
		"LOOSE":   {0.10, 0.90, 0.10, 0.90},
		"L1":      {0.05, 0.60, 0.30, 0.95},
		"L2":      {0.30, 0.95, 0.05, 0.60},
		"L3":      {0.20, 0.70, 0.25, 0.80},
	})
}

func TestNeighborhoodOrderingAndCap(t *testing.T) {
	store := buildStore(t, map[string]geometry.Vec4{
		"REF": {0, 0, 0, 0},
		"N1":  {0.1, 0, 0, 0},
		"N2":  {0.2, 0, 0, 0},
		"N3":  {0.3, 0, 0, 0},
	})

	// k larger than the store caps at store size − 1, not an error.
	est := NewEstimator(store, 50)
	neighbors, err := est.Neighborhood("REF")
	require.NoError(t, err)
	require.Len(t, neighbors, 3)

	// Ascending distance.
	assert.Equal(t, geometry.Vec4{0.1, 0, 0, 0}, neighbors[0])
	assert.Equal(t, geometry.Vec4{0.3, 0, 0, 0}, neighbors[2])
}

func TestNeighborhoodUnknownLabel(t *testing.T) {
	est := NewEstimator(spreadStore(t), 3)
	_, err := est.Neighborhood("MISSING")
	assert.ErrorIs(t, err, space.ErrUnknownLabel)
}

func TestComplexityHeterogeneousVsHomogeneous(t *testing.T) {
	est := NewEstimator(spreadStore(t), 3)

	tight, err := est.Complexity("TIGHT")
	require.NoError(t, err)
	loose, err := est.Complexity("LOOSE")
	require.NoError(t, err)

	assert.Less(t, tight, loose)
}

func TestStabilityHomogeneousIsHigher(t *testing.T) {
	est := NewEstimator(spreadStore(t), 3)

	tight, err := est.Stability("TIGHT")
	require.NoError(t, err)
	loose, err := est.Stability("LOOSE")
	require.NoError(t, err)

	assert.Greater(t, tight, loose)
	assert.Positive(t, loose)
}

func TestDimensionalityCollinear(t *testing.T) {
	// Neighbors of REF lie on a single line: effective rank 1.
	store := buildStore(t, map[string]geometry.Vec4{
		"REF": {0, 0, 0, 0},
		"A":   {0.1, 0.1, 0, 0},
		"B":   {0.2, 0.2, 0, 0},
		"C":   {0.3, 0.3, 0, 0},
	})
	est := NewEstimator(store, 3)

	dim, err := est.Dimensionality("REF")
	require.NoError(t, err)
	assert.InDelta(t, 1, dim, 1e-9)
}

func TestDimensionalityPlanar(t *testing.T) {
	// Neighbors spread evenly over two axes: effective rank ≈ 2.
	store := buildStore(t, map[string]geometry.Vec4{
		"REF": {0.5, 0.5, 0, 0},
		"A":   {0.6, 0.5, 0, 0},
		"B":   {0.4, 0.5, 0, 0},
		"C":   {0.5, 0.6, 0, 0},
		"D":   {0.5, 0.4, 0, 0},
	})
	est := NewEstimator(store, 4)

	dim, err := est.Dimensionality("REF")
	require.NoError(t, err)
	assert.InDelta(t, 2, dim, 1e-9)
}

func TestDimensionalityDegenerate(t *testing.T) {
	// All neighbors coincide: no spread at all.
	store := buildStore(t, map[string]geometry.Vec4{
		"REF": {0, 0, 0, 0},
		"A":   {0.5, 0.5, 0.5, 0.5},
		"B":   {0.5, 0.5, 0.5, 0.5},
	})
	est := NewEstimator(store, 2)

	dim, dimErr := est.Dimensionality("REF")
	require.NoError(t, dimErr)
	assert.Equal(t, 0.0, dim)
}

func TestConcreteness(t *testing.T) {
	store := buildStore(t, map[string]geometry.Vec4{
		"CONCRETE": {1, 0, 1, 0}, // maximal on D0/D2, minimal on D1/D3
		"ABSTRACT": {0, 1, 0, 1},
		"NEUTRAL":  {0.5, 0.5, 0.5, 0.5},
	})
	est := NewEstimator(store, 2)

	c, err := est.Concreteness("CONCRETE")
	require.NoError(t, err)
	assert.Equal(t, 1.0, c)

	a, err := est.Concreteness("ABSTRACT")
	require.NoError(t, err)
	assert.Equal(t, 0.0, a)

	n, err := est.Concreteness("NEUTRAL")
	require.NoError(t, err)
	assert.Equal(t, 0.5, n)
}

func TestRichnessFlatNeighborhoodIsZero(t *testing.T) {
	// Neighbors vary on one axis only: the covariance is singular, so the
	// spread hyper-volume is zero.
	store := buildStore(t, map[string]geometry.Vec4{
		"REF": {0, 0, 0, 0},
		"A":   {0.1, 0, 0, 0},
		"B":   {0.2, 0, 0, 0},
		"C":   {0.3, 0, 0, 0},
	})
	est := NewEstimator(store, 3)

	r, err := est.Richness("REF")
	require.NoError(t, err)
	assert.InDelta(t, 0, r, 1e-12)
}

func TestRichnessSpreadIsPositive(t *testing.T) {
	// A full-rank spread needs at least five neighbors in four dimensions;
	// with fewer, the covariance is necessarily singular.
	store := buildStore(t, map[string]geometry.Vec4{
		"REF": {0.50, 0.50, 0.50, 0.50},
		"A":   {0.60, 0.52, 0.48, 0.50},
		"B":   {0.40, 0.60, 0.55, 0.45},
		"C":   {0.52, 0.38, 0.60, 0.58},
		"D":   {0.47, 0.55, 0.35, 0.62},
		"E":   {0.58, 0.42, 0.52, 0.38},
		"F":   {0.42, 0.48, 0.44, 0.54},
	})
	est := NewEstimator(store, 6)

	r, err := est.Richness("REF")
	require.NoError(t, err)
	assert.Greater(t, r, 0.0)
}

func TestDescribeDeterministic(t *testing.T) {
	est := NewEstimator(spreadStore(t), 3)

	first, err := est.Describe("LOOSE")
	require.NoError(t, err)
	second, err := est.Describe("LOOSE")
	require.NoError(t, err)

	// Bit-identical across calls with the same store and k.
	assert.Equal(t, first, second)

	// And across fresh estimators (the cache must not change results).
	fresh, err := NewEstimator(spreadStore(t), 3).Describe("LOOSE")
	require.NoError(t, err)
	assert.Equal(t, first, fresh)
}

func TestDescribeUnknownLabel(t *testing.T) {
	est := NewEstimator(spreadStore(t), 3)
	_, err := est.Describe("MISSING")
	assert.ErrorIs(t, err, space.ErrUnknownLabel)
}
