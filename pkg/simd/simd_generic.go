//go:build !amd64 || nosimd

package simd

import (
	"github.com/viterin/vek/vek32"
)

// Fallback implementation using the viterin/vek library. On arm64 vek32
// dispatches to NEON assembly; elsewhere it uses optimized pure Go that is
// still faster than naive loops due to better memory access patterns.

func squaredDistance(a, b []float32) float32 {
	d := vek32.Distance(a, b)
	return d * d
}

func runtimeInfo() RuntimeInfo {
	info := vek32.Info()
	return RuntimeInfo{
		Implementation: ImplGeneric,
		Features:       info.CPUFeatures,
		Accelerated:    info.Acceleration,
	}
}
