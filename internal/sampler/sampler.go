// Package sampler implements Thompson Sampling over per-arm Beta posteriors:
// a Jöhnk Beta generator, best-action selection with an early-exploration
// fallback, and the posterior update rule.
package sampler

import (
	"math"
	"math/rand"

	"github.com/focusadapt/recommender/internal/storage"
)

// Sampler draws Beta(alpha, beta) samples from a deterministic, seedable RNG
// so that scenario tests are reproducible.
type Sampler struct {
	rng            *rand.Rand
	alpha0, beta0  float64
	earlyThreshold int
}

// New creates a Sampler. seed fixes the RNG for deterministic tests; pass a
// time-derived seed in production for real exploration.
func New(seed int64, alpha0, beta0 float64, earlyThreshold int) *Sampler {
	return &Sampler{
		rng:            rand.New(rand.NewSource(seed)),
		alpha0:         alpha0,
		beta0:          beta0,
		earlyThreshold: earlyThreshold,
	}
}

// SampleBeta draws a Beta(alpha, beta) sample in [0, 1] via the Jöhnk
// generator: two independent uniforms u, v; x = u^(1/alpha), y = v^(1/beta);
// sample = x / (x + y). Adequate for the small-integer-ish alpha, beta <= ~20
// this system produces.
func (s *Sampler) SampleBeta(alpha, beta float64) float64 {
	for {
		u := s.rng.Float64()
		v := s.rng.Float64()
		x := math.Pow(u, 1/alpha)
		y := math.Pow(v, 1/beta)
		sum := x + y
		if sum > 0 {
			return x / sum
		}
		// x and y are both 0 (u and v drew 0, or underflow for very small
		// alpha, beta) — retry.
	}
}

// GetBestAction draws one Beta sample per arm from posteriors (materializing
// the prior for any arm missing a posterior) and returns the arm with the
// greatest sample. If the context's total observation count is below the
// early-exploration threshold, Thompson draws are ignored entirely and a
// uniformly random arm is returned instead — this prevents a tiny prior from
// locking a user into whichever arm was tried first.
func (s *Sampler) GetBestAction(posteriors storage.ContextPosteriors, arms []int) int {
	n := storage.TotalObservations(posteriors, s.alpha0, s.beta0)
	if n < float64(s.earlyThreshold) {
		return arms[s.rng.Intn(len(arms))]
	}

	best := arms[0]
	bestSample := -1.0
	for _, arm := range arms {
		p, ok := posteriors[arm]
		if !ok {
			p = storage.ArmPosterior{Alpha: s.alpha0, Beta: s.beta0}
		}
		sample := s.SampleBeta(p.Alpha, p.Beta)
		if sample > bestSample {
			bestSample = sample
			best = arm
		}
	}
	return best
}

// UpdateModel applies one observation to an arm's posterior and returns a
// copy of posteriors holding the updated posterior for that arm. Non-finite or exactly-zero rewards are no-ops (the
// caller's posteriors map is returned unchanged).
// alpha and beta never regress below the prior: the caller is responsible
// for persisting only the returned posterior, never a manually-constructed
// one with smaller values.
func (s *Sampler) UpdateModel(posteriors storage.ContextPosteriors, arm int, reward float64) storage.ContextPosteriors {
	if math.IsNaN(reward) || math.IsInf(reward, 0) || reward == 0 {
		return posteriors
	}

	clamped := reward
	if clamped > 1 {
		clamped = 1
	}
	if clamped < -1 {
		// Rejection penalty is the only negative path and is bounded at -0.30;
		// still guard against a pathological caller passing something wilder.
		clamped = -1
	}

	p, ok := posteriors[arm]
	if !ok {
		p = storage.ArmPosterior{Alpha: s.alpha0, Beta: s.beta0}
	}

	if clamped >= 0 {
		p.Alpha += clamped
		p.Beta += 1 - clamped
	} else {
		// Rejection penalty path: writes a pure beta increment, never touches alpha.
		p.Beta += -clamped
	}

	out := make(storage.ContextPosteriors, len(posteriors)+1)
	for k, v := range posteriors {
		out[k] = v
	}
	out[arm] = p
	return out
}

// EnsureContext returns a copy of posteriors with the prior materialized for
// every arm in arms that doesn't already have one. Used so a freshly-seen
// context flushes its priors to storage on first query.
func (s *Sampler) EnsureContext(posteriors storage.ContextPosteriors, arms []int) storage.ContextPosteriors {
	out := make(storage.ContextPosteriors, len(posteriors)+len(arms))
	for k, v := range posteriors {
		out[k] = v
	}
	for _, arm := range arms {
		if _, ok := out[arm]; !ok {
			out[arm] = storage.ArmPosterior{Alpha: s.alpha0, Beta: s.beta0}
		}
	}
	return out
}
