// Package field numerically estimates differential operators over the
// semantic space.
//
// Callers supply the field under analysis as a plain function — a scalar
// field f: Vec4 → float64 or a vector field F: Vec4 → Vec4 — and the
// Estimator samples it with symmetric central differences along each
// coordinate axis:
//
//   - Gradient: local direction of steepest increase of a scalar field
//   - Divergence: source/sink character of a vector field (trace of the
//     Jacobian; positive = flow emanates from the point)
//   - Curl: rotational structure as the 6 bivector components of the 4-D
//     exterior derivative (the generalization of 3-D curl)
//   - Laplacian: how much f departs from the average of its infinitesimal
//     neighbors
//
// Field Contract:
//
// Field functions must be pure and defined at every sampled point (p ± ε
// along each axis). If a field returns an error at any sample, the operator
// call fails and propagates that error verbatim; there is no retry and no
// partial result.
//
// Example Usage:
//
//	k := geometry.NewKernel(geometry.DefaultAnchor, geometry.DefaultEquilibrium)
//	est := field.NewEstimator(1e-5)
//
//	grad, err := est.Gradient(p, field.Harmony(k))
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("steepest ascent: %v\n", grad)
package field

import (
	"fmt"
	"math"

	"github.com/orneryd/vanir/pkg/geometry"
)

// ScalarField maps a point to a scalar. Must be pure and total over the
// sampled region; an error aborts the enclosing operator call.
type ScalarField func(geometry.Vec4) (float64, error)

// VectorField maps a point to a 4-vector under the same contract.
type VectorField func(geometry.Vec4) (geometry.Vec4, error)

// CurlComponents is the number of unordered axis pairs among 4 axes, and so
// the number of bivector components of the 4-D curl.
const CurlComponents = 6

// Curl6 holds the six bivector components of a 4-D curl, ordered by
// AxisPairs.
type Curl6 [CurlComponents]float64

// AxisPairs lists the unordered axis pairs (i, j), i < j, in the order used
// by Curl6.
var AxisPairs = [CurlComponents][2]int{
	{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3},
}

// Magnitude returns the Euclidean magnitude of the 6-vector, a scalar
// measure of rotational strength.
func (c Curl6) Magnitude() float64 {
	var sum float64
	for _, v := range c {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Estimator estimates differential operators with a fixed central-difference
// step. Immutable and safe for concurrent use.
type Estimator struct {
	eps float64
}

// DefaultEpsilon is the default central-difference step.
const DefaultEpsilon = 1e-5

// NewEstimator creates an estimator with the given step. Steps ≤ 0 fall
// back to DefaultEpsilon.
func NewEstimator(eps float64) *Estimator {
	if eps <= 0 {
		eps = DefaultEpsilon
	}
	return &Estimator{eps: eps}
}

// Epsilon returns the configured step.
func (e *Estimator) Epsilon() float64 { return e.eps }

// axisOffset returns p with p[axis] shifted by delta.
func axisOffset(p geometry.Vec4, axis int, delta float64) geometry.Vec4 {
	p[axis] += delta
	return p
}

// Gradient estimates ∇f at p: for each axis i,
// (f(p+ε·eᵢ) − f(p−ε·eᵢ)) / 2ε. Costs exactly 8 field evaluations.
func (e *Estimator) Gradient(p geometry.Vec4, f ScalarField) (geometry.Vec4, error) {
	var grad geometry.Vec4
	for i := 0; i < geometry.Dims; i++ {
		fwd, err := f(axisOffset(p, i, e.eps))
		if err != nil {
			return geometry.Vec4{}, fmt.Errorf("field: gradient sample +ε axis %d: %w", i, err)
		}
		bwd, err := f(axisOffset(p, i, -e.eps))
		if err != nil {
			return geometry.Vec4{}, fmt.Errorf("field: gradient sample -ε axis %d: %w", i, err)
		}
		grad[i] = (fwd - bwd) / (2 * e.eps)
	}
	return grad, nil
}

// Divergence estimates ∇·F at p, the trace of the Jacobian:
// Σᵢ (Fᵢ(p+ε·eᵢ) − Fᵢ(p−ε·eᵢ)) / 2ε.
//
// Positive divergence marks p as a local source of the field (flow emanates
// from it), negative as a sink.
func (e *Estimator) Divergence(p geometry.Vec4, F VectorField) (float64, error) {
	var div float64
	for i := 0; i < geometry.Dims; i++ {
		fwd, err := F(axisOffset(p, i, e.eps))
		if err != nil {
			return 0, fmt.Errorf("field: divergence sample +ε axis %d: %w", i, err)
		}
		bwd, err := F(axisOffset(p, i, -e.eps))
		if err != nil {
			return 0, fmt.Errorf("field: divergence sample -ε axis %d: %w", i, err)
		}
		div += (fwd[i] - bwd[i]) / (2 * e.eps)
	}
	return div, nil
}

// Curl estimates the 4-D curl of F at p as the 6 bivector components
// ∂Fⱼ/∂xᵢ − ∂Fᵢ/∂xⱼ for every unordered axis pair (i, j), in AxisPairs
// order.
//
// The magnitude of the result quantifies local rotational structure; in a
// 4-D space rotation happens in planes, so there is one component per
// coordinate plane rather than a single axis vector as in 3-D.
func (e *Estimator) Curl(p geometry.Vec4, F VectorField) (Curl6, error) {
	// One Jacobian estimate: 8 field evaluations, reused across all pairs.
	var jac [geometry.Dims][geometry.Dims]float64 // jac[i][j] = ∂Fⱼ/∂xᵢ
	for i := 0; i < geometry.Dims; i++ {
		fwd, err := F(axisOffset(p, i, e.eps))
		if err != nil {
			return Curl6{}, fmt.Errorf("field: curl sample +ε axis %d: %w", i, err)
		}
		bwd, err := F(axisOffset(p, i, -e.eps))
		if err != nil {
			return Curl6{}, fmt.Errorf("field: curl sample -ε axis %d: %w", i, err)
		}
		for j := 0; j < geometry.Dims; j++ {
			jac[i][j] = (fwd[j] - bwd[j]) / (2 * e.eps)
		}
	}

	var curl Curl6
	for c, pair := range AxisPairs {
		i, j := pair[0], pair[1]
		curl[c] = jac[i][j] - jac[j][i]
	}
	return curl, nil
}

// Laplacian estimates ∇²f at p, the sum of unmixed second partials:
// Σᵢ (f(p+ε·eᵢ) − 2f(p) + f(p−ε·eᵢ)) / ε².
func (e *Estimator) Laplacian(p geometry.Vec4, f ScalarField) (float64, error) {
	center, err := f(p)
	if err != nil {
		return 0, fmt.Errorf("field: laplacian sample at center: %w", err)
	}

	var lap float64
	for i := 0; i < geometry.Dims; i++ {
		fwd, err := f(axisOffset(p, i, e.eps))
		if err != nil {
			return 0, fmt.Errorf("field: laplacian sample +ε axis %d: %w", i, err)
		}
		bwd, err := f(axisOffset(p, i, -e.eps))
		if err != nil {
			return 0, fmt.Errorf("field: laplacian sample -ε axis %d: %w", i, err)
		}
		lap += (fwd - 2*center + bwd) / (e.eps * e.eps)
	}
	return lap, nil
}

// Harmony returns the kernel's harmony scalar field in ScalarField form.
func Harmony(k *geometry.Kernel) ScalarField {
	return func(p geometry.Vec4) (float64, error) {
		return k.Harmony(p), nil
	}
}

// DistanceToAnchor returns the scalar field f(x) = distance(x, anchor).
// The anchor is its global minimum and only critical point.
func DistanceToAnchor(k *geometry.Kernel) ScalarField {
	return func(p geometry.Vec4) (float64, error) {
		return geometry.Distance(p, k.Anchor()), nil
	}
}

// FlowToEquilibrium returns the vector field F(x) = equilibrium − x: at every
// point it points toward equilibrium, with magnitude equal to the remaining
// distance. Divergence is −4 everywhere (uniform sink), curl is zero.
func FlowToEquilibrium(k *geometry.Kernel) VectorField {
	return func(p geometry.Vec4) (geometry.Vec4, error) {
		return k.Equilibrium().Sub(p), nil
	}
}
