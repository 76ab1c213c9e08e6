package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        Vec4
		b        Vec4
		expected float64
	}{
		{
			name:     "identical points",
			a:        Vec4{0.5, 0.5, 0.5, 0.5},
			b:        Vec4{0.5, 0.5, 0.5, 0.5},
			expected: 0,
		},
		{
			name:     "3-4-5 triangle",
			a:        Vec4{0, 0, 0, 0},
			b:        Vec4{0, 0.3, 0.4, 0},
			expected: 0.5,
		},
		{
			name:     "unit hypercube diagonal",
			a:        Vec4{0, 0, 0, 0},
			b:        Vec4{1, 1, 1, 1},
			expected: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Distance(tt.a, tt.b), 1e-12)
		})
	}
}

func TestDistanceSymmetric(t *testing.T) {
	a := Vec4{0.92, 0.45, 0.15, 0.70}
	b := Vec4{0.12, 0.35, 0.75, 0.25}
	assert.Equal(t, Distance(a, b), Distance(b, a))
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        Vec4
		b        Vec4
		expected float64
	}{
		{
			name:     "same direction",
			a:        Vec4{1, 2, 3, 4},
			b:        Vec4{2, 4, 6, 8},
			expected: 1,
		},
		{
			name:     "perpendicular",
			a:        Vec4{1, 0, 0, 0},
			b:        Vec4{0, 1, 0, 0},
			expected: 0,
		},
		{
			name:     "opposite",
			a:        Vec4{1, 1, 1, 1},
			b:        Vec4{-1, -1, -1, -1},
			expected: -1,
		},
		{
			name:     "zero vector falls back to 0",
			a:        Vec4{0, 0, 0, 0},
			b:        Vec4{1, 2, 3, 4},
			expected: 0,
		},
		{
			name:     "both zero",
			a:        Vec4{},
			b:        Vec4{},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CosineSimilarity(tt.a, tt.b), 1e-12)
		})
	}
}

func TestCosineSimilaritySymmetric(t *testing.T) {
	a := Vec4{0.3, 0.9, 0.1, 0.5}
	b := Vec4{0.7, 0.2, 0.8, 0.4}
	assert.Equal(t, CosineSimilarity(a, b), CosineSimilarity(b, a))
}

func TestHarmony(t *testing.T) {
	k := NewKernel(DefaultAnchor, DefaultEquilibrium)

	// Harmony is exactly 1 at the anchor.
	assert.Equal(t, 1.0, k.Harmony(k.Anchor()))

	// Monotonically decreasing in distance from the anchor.
	near := Vec4{0.9, 0.9, 0.9, 0.9}
	far := Vec4{0.1, 0.1, 0.1, 0.1}
	require.Less(t, Distance(near, k.Anchor()), Distance(far, k.Anchor()))
	assert.Greater(t, k.Harmony(near), k.Harmony(far))

	// Always in (0, 1].
	assert.Greater(t, k.Harmony(far), 0.0)
	assert.LessOrEqual(t, k.Harmony(far), 1.0)
}

func TestReflectInvolution(t *testing.T) {
	k := NewKernel(DefaultAnchor, DefaultEquilibrium)

	points := []Vec4{
		{0.92, 0.45, 0.15, 0.70},
		{0, 0, 0, 0},
		{1, 1, 1, 1},
		DefaultEquilibrium,
	}

	for _, p := range points {
		twice := k.Reflect(k.Reflect(p))
		for i := range p {
			assert.InDelta(t, p[i], twice[i], 1e-12)
		}
	}
}

func TestReflectFixedPoint(t *testing.T) {
	k := NewKernel(DefaultAnchor, DefaultEquilibrium)
	r := k.Reflect(DefaultEquilibrium)
	assert.InDelta(t, 0, Distance(r, DefaultEquilibrium), 1e-12)
}

func TestCenter(t *testing.T) {
	k := NewKernel(DefaultAnchor, DefaultEquilibrium)
	c := k.Center(DefaultEquilibrium)
	assert.Equal(t, Vec4{}, c)

	p := Vec4{1, 1, 1, 1}
	back := k.Center(p).Add(DefaultEquilibrium)
	assert.Equal(t, p, back)
}

func TestVec4Ops(t *testing.T) {
	v := Vec4{1, 2, 3, 4}
	w := Vec4{4, 3, 2, 1}

	assert.Equal(t, Vec4{5, 5, 5, 5}, v.Add(w))
	assert.Equal(t, Vec4{-3, -1, 1, 3}, v.Sub(w))
	assert.Equal(t, Vec4{2, 4, 6, 8}, v.Scale(2))
	assert.Equal(t, 20.0, v.Dot(w))
	assert.InDelta(t, math.Sqrt(30), v.Norm(), 1e-12)
}
