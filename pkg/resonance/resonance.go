// Package resonance computes pairwise directional scores between concepts,
// relative to the equilibrium point.
//
// All three scores are built from cosines of equilibrium-centered
// coordinates c(x) = x − equilibrium:
//
//   - Harmonic resonance: cos(c(a), c(b)), in [-1, 1]. High positive values
//     mean the two concepts deviate from equilibrium in correlated
//     directions — they "oscillate together".
//   - Entailment strength: max(0, cos(equilibrium−a, b−a)). Nonzero only
//     when moving from a toward b is in the same direction as moving from a
//     toward equilibrium; models one-directional semantic implication, so it
//     is not symmetric in (a, b).
//   - Antonymy score: max(0, −cos(c(a), c(b))). Nonzero only for points
//     whose centered deviations point in opposing directions.
//
// Resonance and antonymy are complementary by construction: they clamp
// opposite signs of the same cosine, so they are never simultaneously
// positive.
//
// Example Usage:
//
//	est := resonance.NewEstimator(store, kernel)
//	score, err := est.AntonymyScore("LOVE", "HATE")  // strictly positive
//
//	top, err := est.FindAntonyms("LOVE", 5)
//	for _, r := range top {
//		fmt.Printf("%s: %.3f\n", r.Label, r.Score)
//	}
package resonance

import (
	"sort"

	"github.com/orneryd/vanir/pkg/geometry"
	"github.com/orneryd/vanir/pkg/space"
)

// Ranking is one row of a top-K score listing, descending by score with
// lexicographic label tie-break.
type Ranking struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Estimator computes resonance scores over one immutable store snapshot.
// Safe for concurrent use.
type Estimator struct {
	store  *space.PointStore
	kernel *geometry.Kernel
}

// NewEstimator creates an estimator bound to store and kernel.
func NewEstimator(store *space.PointStore, kernel *geometry.Kernel) *Estimator {
	return &Estimator{store: store, kernel: kernel}
}

// HarmonicResonance returns cos(c(a), c(b)) for the labeled points.
func (e *Estimator) HarmonicResonance(a, b string) (float64, error) {
	pa, pb, err := e.pair(a, b)
	if err != nil {
		return 0, err
	}
	return e.harmonicResonance(pa, pb), nil
}

// EntailmentStrength returns max(0, cos(equilibrium−a, b−a)).
//
// Directional: EntailmentStrength(a, b) generally differs from
// EntailmentStrength(b, a).
func (e *Estimator) EntailmentStrength(a, b string) (float64, error) {
	pa, pb, err := e.pair(a, b)
	if err != nil {
		return 0, err
	}
	return e.entailmentStrength(pa, pb), nil
}

// AntonymyScore returns max(0, −cos(c(a), c(b))).
func (e *Estimator) AntonymyScore(a, b string) (float64, error) {
	pa, pb, err := e.pair(a, b)
	if err != nil {
		return 0, err
	}
	return e.antonymyScore(pa, pb), nil
}

// FindHarmonics returns the topK other points ranked by harmonic resonance
// with label, descending.
func (e *Estimator) FindHarmonics(label string, topK int) ([]Ranking, error) {
	return e.rank(label, topK, e.harmonicResonance)
}

// FindEntailments returns the topK other points b ranked by
// EntailmentStrength(label, b), descending.
func (e *Estimator) FindEntailments(label string, topK int) ([]Ranking, error) {
	return e.rank(label, topK, e.entailmentStrength)
}

// FindAntonyms returns the topK other points ranked by antonymy score with
// label, descending.
func (e *Estimator) FindAntonyms(label string, topK int) ([]Ranking, error) {
	return e.rank(label, topK, e.antonymyScore)
}

func (e *Estimator) pair(a, b string) (geometry.Vec4, geometry.Vec4, error) {
	pa, err := e.store.Coordinates(a)
	if err != nil {
		return geometry.Vec4{}, geometry.Vec4{}, err
	}
	pb, err := e.store.Coordinates(b)
	if err != nil {
		return geometry.Vec4{}, geometry.Vec4{}, err
	}
	return pa, pb, nil
}

func (e *Estimator) harmonicResonance(a, b geometry.Vec4) float64 {
	return geometry.CosineSimilarity(e.kernel.Center(a), e.kernel.Center(b))
}

func (e *Estimator) entailmentStrength(a, b geometry.Vec4) float64 {
	cos := geometry.CosineSimilarity(e.kernel.Equilibrium().Sub(a), b.Sub(a))
	if cos < 0 {
		return 0
	}
	return cos
}

func (e *Estimator) antonymyScore(a, b geometry.Vec4) float64 {
	neg := -geometry.CosineSimilarity(e.kernel.Center(a), e.kernel.Center(b))
	if neg < 0 {
		return 0
	}
	return neg
}

// rank scores every other point against label and returns the topK,
// descending by score with lexicographic tie-break.
func (e *Estimator) rank(label string, topK int, score func(a, b geometry.Vec4) float64) ([]Ranking, error) {
	origin, err := e.store.Coordinates(label)
	if err != nil {
		return nil, err
	}

	rankings := make([]Ranking, 0, e.store.Len()-1)
	e.store.Each(func(p space.Point) {
		if p.Label == label {
			return
		}
		rankings = append(rankings, Ranking{Label: p.Label, Score: score(origin, p.Coordinates)})
	})

	sort.Slice(rankings, func(i, j int) bool {
		if rankings[i].Score != rankings[j].Score {
			return rankings[i].Score > rankings[j].Score
		}
		return rankings[i].Label < rankings[j].Label
	})

	if topK > 0 && len(rankings) > topK {
		rankings = rankings[:topK]
	}
	return rankings, nil
}
