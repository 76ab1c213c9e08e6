// Package geometry provides the metric kernel for Vanir's 4-dimensional
// semantic coordinate space.
//
// Every concept in a Vanir space is a point in [0,1]^4. The four axes are
// conventionally named Love, Justice, Power, Wisdom, but nothing in this
// package depends on the naming; they are treated as opaque dimensions D0..D3.
//
// This package consolidates all vector math used throughout the codebase.
// Use these functions instead of implementing your own to ensure consistency
// and correctness.
//
// Main Functions:
//   - Distance: Euclidean distance between two points
//   - CosineSimilarity: Angle-based similarity with zero-vector fallback
//   - Kernel.Harmony: Closeness to the anchor point, in (0, 1]
//   - Kernel.Reflect: Point reflection through the equilibrium point
//
// Two process-wide reference points parameterize the kernel:
//
//   - Anchor: the point of maximal value on all four axes, (1,1,1,1).
//     Defines the harmony scalar field.
//   - Equilibrium: a fixed interior reference point. Defines reflection
//     ("antonym" geometry), resonance, and entailment.
//
// Both are injected via Kernel construction rather than read from package
// globals, so alternate reference choices can be tested without code changes.
package geometry

import "math"

// Dims is the dimensionality of the semantic space. Fixed at 4.
const Dims = 4

// Vec4 is a point or displacement in the 4-dimensional semantic space.
//
// A fixed-width array rather than a slice: the space never changes size,
// copies are cheap, and the zero value is usable.
type Vec4 [Dims]float64

// Add returns v + w.
func (v Vec4) Add(w Vec4) Vec4 {
	return Vec4{v[0] + w[0], v[1] + w[1], v[2] + w[2], v[3] + w[3]}
}

// Sub returns v − w.
func (v Vec4) Sub(w Vec4) Vec4 {
	return Vec4{v[0] - w[0], v[1] - w[1], v[2] - w[2], v[3] - w[3]}
}

// Scale returns s·v.
func (v Vec4) Scale(s float64) Vec4 {
	return Vec4{v[0] * s, v[1] * s, v[2] * s, v[3] * s}
}

// Dot returns the dot product of v and w.
func (v Vec4) Dot(w Vec4) float64 {
	return v[0]*w[0] + v[1]*w[1] + v[2]*w[2] + v[3]*w[3]
}

// Norm returns the Euclidean (L2) magnitude of v.
func (v Vec4) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Slice32 returns v as a freshly allocated float32 slice.
//
// Used at the boundary to the SIMD batch layer, which operates on float32
// slices. Precision-sensitive callers should stay on Vec4 throughout.
func (v Vec4) Slice32() []float32 {
	return []float32{float32(v[0]), float32(v[1]), float32(v[2]), float32(v[3])}
}

// Distance calculates the Euclidean distance between two points.
// Symmetric; zero iff a = b (up to floating tolerance). Never fails.
//
// Example:
//
//	a := geometry.Vec4{0, 0, 0, 0}
//	b := geometry.Vec4{0, 3, 4, 0}
//	d := geometry.Distance(a, b)  // Returns 5.0
func Distance(a, b Vec4) float64 {
	return a.Sub(b).Norm()
}

// CosineSimilarity calculates cosine similarity between two vectors.
// Returns value in range [-1, 1] where 1 = identical direction, 0 =
// orthogonal, -1 = opposite.
//
// Returns 0 if either vector has zero magnitude. This is a defined edge
// case, not an error: a zero vector has no direction to compare.
//
// Example:
//
//	a := geometry.Vec4{1, 0, 0, 0}
//	b := geometry.Vec4{0, 1, 0, 0}
//	sim := geometry.CosineSimilarity(a, b)  // Returns 0 (perpendicular)
func CosineSimilarity(a, b Vec4) float64 {
	var dotProd, normA, normB float64
	for i := range a {
		dotProd += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProd / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Kernel is the metric kernel: the distance/similarity primitives bound to a
// concrete anchor and equilibrium point.
//
// Kernels are immutable and safe for concurrent use.
//
// Example:
//
//	k := geometry.NewKernel(geometry.DefaultAnchor, geometry.DefaultEquilibrium)
//	h := k.Harmony(geometry.Vec4{0.9, 0.9, 0.9, 0.9})  // close to 1
type Kernel struct {
	anchor      Vec4
	equilibrium Vec4
}

// DefaultAnchor is the conventional anchor point: maximal value on all axes.
var DefaultAnchor = Vec4{1, 1, 1, 1}

// DefaultEquilibrium is the conventional equilibrium point.
//
// The coordinates were originally chosen from φ⁻¹, √2−1, e−2 and ln 2, but
// the engine treats them as an opaque configured constant; they are never
// derived at runtime.
var DefaultEquilibrium = Vec4{0.618034, 0.414214, 0.718282, 0.693147}

// NewKernel creates a metric kernel with the given reference points.
func NewKernel(anchor, equilibrium Vec4) *Kernel {
	return &Kernel{anchor: anchor, equilibrium: equilibrium}
}

// Anchor returns the kernel's anchor point.
func (k *Kernel) Anchor() Vec4 { return k.anchor }

// Equilibrium returns the kernel's equilibrium point.
func (k *Kernel) Equilibrium() Vec4 { return k.equilibrium }

// Harmony evaluates the harmony scalar field at p.
//
// Harmony is 1/(1+distance(p, anchor)): a value in (0, 1], monotonically
// decreasing in distance from the anchor, equal to 1 exactly at the anchor.
//
// Example:
//
//	h := k.Harmony(k.Anchor())  // Returns 1.0
func (k *Kernel) Harmony(p Vec4) float64 {
	return 1.0 / (1.0 + Distance(p, k.anchor))
}

// Reflect returns the point reflection of p through the equilibrium point:
// 2·equilibrium − p.
//
// This is the geometric model of an "antonym": the concept that deviates
// from equilibrium by the same amount in the exactly opposite direction.
// Reflect is an involution: Reflect(Reflect(p)) == p up to floating
// tolerance.
func (k *Kernel) Reflect(p Vec4) Vec4 {
	return k.equilibrium.Scale(2).Sub(p)
}

// Center returns p expressed in equilibrium-centered coordinates, p − equilibrium.
//
// Resonance and antonymy scores are cosines between centered coordinates.
func (k *Kernel) Center(p Vec4) Vec4 {
	return p.Sub(k.equilibrium)
}
