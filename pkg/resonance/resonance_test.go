package resonance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/vanir/pkg/geometry"
	"github.com/orneryd/vanir/pkg/space"
)

func testEstimator(t *testing.T, points map[string]geometry.Vec4) *Estimator {
	t.Helper()
	store, err := space.FromMap(points)
	require.NoError(t, err)
	kernel := geometry.NewKernel(geometry.DefaultAnchor, geometry.DefaultEquilibrium)
	return NewEstimator(store, kernel)
}

func canonicalPoints() map[string]geometry.Vec4 {
	return map[string]geometry.Vec4{
		"LOVE": {0.92, 0.45, 0.15, 0.70},
		"HATE": {0.12, 0.35, 0.75, 0.25},
	}
}

func TestAntonymyLoveHate(t *testing.T) {
	est := testEstimator(t, canonicalPoints())

	loveHate, err := est.AntonymyScore("LOVE", "HATE")
	require.NoError(t, err)
	assert.Greater(t, loveHate, 0.0)

	// A point is never its own antonym.
	loveLove, err := est.AntonymyScore("LOVE", "LOVE")
	require.NoError(t, err)
	assert.Equal(t, 0.0, loveLove)
	assert.Greater(t, loveHate, loveLove)
}

func TestResonanceAntonymyComplementary(t *testing.T) {
	est := testEstimator(t, map[string]geometry.Vec4{
		"A": {0.9, 0.8, 0.9, 0.85},
		"B": {0.95, 0.75, 0.85, 0.9},
		"C": {0.1, 0.1, 0.2, 0.15},
		"D": {0.62, 0.41, 0.72, 0.69},
	})

	labels := []string{"A", "B", "C", "D"}
	for _, a := range labels {
		for _, b := range labels {
			res, err := est.HarmonicResonance(a, b)
			require.NoError(t, err)
			ant, err := est.AntonymyScore(a, b)
			require.NoError(t, err)

			// Clamped opposite signs of the same cosine: never both positive.
			if res > 0 {
				assert.Equal(t, 0.0, ant, "pair (%s,%s)", a, b)
			}
			if ant > 0 {
				assert.LessOrEqual(t, res, 0.0, "pair (%s,%s)", a, b)
			}
			assert.InDelta(t, ant, -min(res, 0), 1e-12)
		}
	}
}

func TestHarmonicResonanceCorrelatedDeviations(t *testing.T) {
	eq := geometry.DefaultEquilibrium

	// Both deviate from equilibrium in the same direction.
	up := geometry.Vec4{0.1, 0.1, 0.1, 0.1}
	est := testEstimator(t, map[string]geometry.Vec4{
		"P": eq.Add(up),
		"Q": eq.Add(up.Scale(2)),
		"R": eq.Sub(up),
	})

	pq, err := est.HarmonicResonance("P", "Q")
	require.NoError(t, err)
	assert.InDelta(t, 1, pq, 1e-9)

	pr, err := est.HarmonicResonance("P", "R")
	require.NoError(t, err)
	assert.InDelta(t, -1, pr, 1e-9)
}

func TestEntailmentDirectional(t *testing.T) {
	eq := geometry.DefaultEquilibrium

	// B sits between A and equilibrium: moving A→B heads toward equilibrium,
	// so A entails B strongly; the reverse direction heads away.
	dir := geometry.Vec4{0.2, 0.2, 0.2, 0.2}
	est := testEstimator(t, map[string]geometry.Vec4{
		"A": eq.Add(dir),
		"B": eq.Add(dir.Scale(0.5)),
	})

	ab, err := est.EntailmentStrength("A", "B")
	require.NoError(t, err)
	assert.InDelta(t, 1, ab, 1e-9)

	ba, err := est.EntailmentStrength("B", "A")
	require.NoError(t, err)
	assert.Equal(t, 0.0, ba)
}

func TestEntailmentSelfIsZero(t *testing.T) {
	est := testEstimator(t, canonicalPoints())
	// b−a is the zero vector; the cosine edge case yields 0.
	v, err := est.EntailmentStrength("LOVE", "LOVE")
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

func TestFindAntonymsRanking(t *testing.T) {
	eq := geometry.DefaultEquilibrium
	dev := geometry.Vec4{0.15, 0.1, 0.12, 0.08}

	est := testEstimator(t, map[string]geometry.Vec4{
		"SELF":     eq.Add(dev),
		"OPPOSITE": eq.Sub(dev),
		"ALIGNED":  eq.Add(dev.Scale(0.5)),
		"SIDEWAYS": eq.Add(geometry.Vec4{-0.08, 0.12, 0.1, -0.15}),
	})

	top, err := est.FindAntonyms("SELF", 2)
	require.NoError(t, err)
	require.Len(t, top, 2)

	assert.Equal(t, "OPPOSITE", top[0].Label)
	assert.InDelta(t, 1, top[0].Score, 1e-9)
	// ALIGNED has antonymy 0, so it ranks below whatever SIDEWAYS scores.
	assert.NotEqual(t, "ALIGNED", top[1].Label)
}

func TestFindHarmonicsRanking(t *testing.T) {
	eq := geometry.DefaultEquilibrium
	dev := geometry.Vec4{0.15, 0.1, 0.12, 0.08}

	est := testEstimator(t, map[string]geometry.Vec4{
		"SELF":     eq.Add(dev),
		"TWIN":     eq.Add(dev.Scale(2)),
		"OPPOSITE": eq.Sub(dev),
	})

	top, err := est.FindHarmonics("SELF", 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "TWIN", top[0].Label)
	assert.Equal(t, "OPPOSITE", top[1].Label)
}

func TestUnknownLabel(t *testing.T) {
	est := testEstimator(t, canonicalPoints())

	_, err := est.HarmonicResonance("LOVE", "MISSING")
	assert.ErrorIs(t, err, space.ErrUnknownLabel)

	_, err = est.FindEntailments("MISSING", 3)
	assert.ErrorIs(t, err, space.ErrUnknownLabel)
}
