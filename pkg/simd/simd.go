// Package simd provides SIMD-accelerated batch distance operations for Vanir.
//
// The analysis engine's precision-sensitive paths (predicates, metadata,
// resonance) run on float64 throughout. The bulk paths — k-means assignment
// and void grid scanning, which compute distances from one probe point to the
// whole cloud — go through this float32 layer instead:
//
//   - x86/amd64: unrolled loops the Go compiler auto-vectorizes with AVX2
//   - all other platforms: github.com/viterin/vek/vek32 (NEON assembly on
//     arm64, optimized pure Go elsewhere)
//
// The package detects CPU capabilities at runtime; no configuration is
// required.
//
// Usage:
//
//	probe := []float32{0.5, 0.5, 0.5, 0.5}
//	idx, dist := simd.NearestIndex(probe, cloud)
package simd

import "math"

// Implementation represents the active SIMD implementation.
type Implementation string

const (
	// ImplGeneric indicates the vek32 / pure Go path.
	ImplGeneric Implementation = "generic"
	// ImplAVX2 indicates x86 AVX2+FMA auto-vectorized loops.
	ImplAVX2 Implementation = "avx2"
)

// RuntimeInfo contains information about the active SIMD implementation.
type RuntimeInfo struct {
	// Implementation is the active backend.
	Implementation Implementation
	// Features lists specific CPU features being used.
	Features []string
	// Accelerated indicates whether SIMD acceleration is active.
	Accelerated bool
}

// Info returns information about the active implementation.
func Info() RuntimeInfo {
	return runtimeInfo()
}

// SquaredDistance computes the squared Euclidean distance between two
// float32 vectors. Returns 0 if the vectors are empty or differ in length.
//
// Prefer this over EuclideanDistance in comparison loops: ordering is
// preserved and the square root is skipped.
func SquaredDistance(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	return squaredDistance(a, b)
}

// EuclideanDistance computes the Euclidean distance between two float32
// vectors: sqrt(sum((a[i] - b[i])^2)).
// Returns 0 if the vectors are empty or differ in length.
func EuclideanDistance(a, b []float32) float32 {
	return float32(math.Sqrt(float64(SquaredDistance(a, b))))
}

// NearestIndex returns the index of the point in pts nearest to probe, and
// the Euclidean distance to it. Points whose length differs from probe's are
// skipped. Returns (-1, 0) when pts is empty or nothing matches.
//
// Ties resolve to the lowest index, so results are deterministic for a fixed
// pts ordering.
func NearestIndex(probe []float32, pts [][]float32) (int, float32) {
	best := -1
	bestSq := float32(math.MaxFloat32)
	for i, p := range pts {
		if len(p) != len(probe) {
			continue
		}
		if sq := squaredDistance(probe, p); sq < bestSq {
			best, bestSq = i, sq
		}
	}
	if best < 0 {
		return -1, 0
	}
	return best, float32(math.Sqrt(float64(bestSq)))
}

// MinDistance returns the Euclidean distance from probe to the nearest point
// in pts, or +Inf when pts is empty.
func MinDistance(probe []float32, pts [][]float32) float32 {
	idx, d := NearestIndex(probe, pts)
	if idx < 0 {
		return float32(math.Inf(1))
	}
	return d
}
