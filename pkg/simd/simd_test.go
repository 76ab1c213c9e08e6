package simd

import (
	"math"
	"testing"
)

func approxEqual(a, b, eps float32) bool {
	return math.Abs(float64(a-b)) < float64(eps)
}

func TestSquaredDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float32
	}{
		{
			name:     "identical",
			a:        []float32{0.5, 0.5, 0.5, 0.5},
			b:        []float32{0.5, 0.5, 0.5, 0.5},
			expected: 0,
		},
		{
			name:     "3-4-5",
			a:        []float32{0, 0, 0, 0},
			b:        []float32{0, 3, 4, 0},
			expected: 25,
		},
		{
			name:     "empty",
			a:        []float32{},
			b:        []float32{},
			expected: 0,
		},
		{
			name:     "length mismatch",
			a:        []float32{1, 2},
			b:        []float32{1, 2, 3, 4},
			expected: 0,
		},
		{
			name:     "longer than one unroll pass",
			a:        []float32{1, 1, 1, 1, 1, 1},
			b:        []float32{0, 0, 0, 0, 0, 0},
			expected: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SquaredDistance(tt.a, tt.b)
			if !approxEqual(got, tt.expected, 1e-5) {
				t.Errorf("SquaredDistance() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestEuclideanDistance(t *testing.T) {
	a := []float32{0, 0, 0, 0}
	b := []float32{0, 3, 4, 0}
	if got := EuclideanDistance(a, b); !approxEqual(got, 5, 1e-5) {
		t.Errorf("EuclideanDistance() = %v, want 5", got)
	}
}

func TestNearestIndex(t *testing.T) {
	cloud := [][]float32{
		{0, 0, 0, 0},
		{1, 1, 1, 1},
		{0.5, 0.5, 0.5, 0.5},
	}

	idx, dist := NearestIndex([]float32{0.9, 0.9, 0.9, 0.9}, cloud)
	if idx != 1 {
		t.Fatalf("NearestIndex() index = %d, want 1", idx)
	}
	if !approxEqual(dist, 0.2, 1e-5) {
		t.Errorf("NearestIndex() dist = %v, want 0.2", dist)
	}
}

func TestNearestIndexTieBreaksLow(t *testing.T) {
	cloud := [][]float32{
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	}
	idx, _ := NearestIndex([]float32{1, 0, 0, 0}, cloud)
	if idx != 0 {
		t.Errorf("NearestIndex() index = %d, want 0 on tie", idx)
	}
}

func TestNearestIndexEmpty(t *testing.T) {
	idx, dist := NearestIndex([]float32{0, 0, 0, 0}, nil)
	if idx != -1 || dist != 0 {
		t.Errorf("NearestIndex() = (%d, %v), want (-1, 0)", idx, dist)
	}
}

func TestMinDistanceEmpty(t *testing.T) {
	if d := MinDistance([]float32{0, 0, 0, 0}, nil); !math.IsInf(float64(d), 1) {
		t.Errorf("MinDistance() = %v, want +Inf", d)
	}
}

func TestInfo(t *testing.T) {
	info := Info()
	if info.Implementation == "" {
		t.Error("Info() returned empty implementation")
	}
}
