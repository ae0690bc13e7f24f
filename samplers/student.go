// Package samplers provides the latent-data-imputation extension point for a
// shared Gibbs-sampling driver. Different observation-noise models plug into
// the driver by implementing LatentDataImputer; the concrete implementation
// here serves a Student-t observation-noise model by routing the driver's RNG
// stream into the host model's own weight-imputation step.
package samplers

import (
	"errors"

	"golang.org/x/exp/rand"
)

// LatentDataImputer is the capability a Gibbs driver needs from a
// noise-model-specific sampler extension: impute the model's non-state latent
// data once per iteration, and reset the accumulated complete-data
// sufficient statistics when the underlying data changes structurally or a
// fresh sweep begins.
type LatentDataImputer interface {
	ImputeNonstateLatentData() error
	ClearCompleteDataSufficientStatistics()
}

// HostModel is the view StudentMvssPosteriorSampler needs of its host: the
// model-owned Student weight draw and the sufficient-statistics reset the
// next parameter draw depends on.
type HostModel interface {
	ImputeStudentWeights(rng *rand.Rand) error
	ClearCompleteDataSufficientStatistics()
}

// StudentMvssPosteriorSampler binds the latent-data-imputation step of a
// multivariate state-space regression model with Student-t errors to a shared
// Gibbs driver. It contributes no numerics of its own: the weight draw
// belongs to the host model, and the sampler's job is to satisfy the driver's
// contract and supply the RNG stream.
//
// A sampler is bound to exactly one host model and, like the model, is used
// from a single chain at a time. Parallel chains pair a cloned model with a
// sampler from CloneToNewHost.
type StudentMvssPosteriorSampler struct {
	model HostModel
	rng   *rand.Rand
}

// NewStudentMvssPosteriorSampler creates a sampler bound to model, with its
// own RNG stream seeded from seed.
func NewStudentMvssPosteriorSampler(model HostModel, seed uint64) (*StudentMvssPosteriorSampler, error) {
	if model == nil {
		return nil, errors.New("host model cannot be nil")
	}
	return &StudentMvssPosteriorSampler{
		model: model,
		rng:   rand.New(rand.NewSource(seed)),
	}, nil
}

// ImputeNonstateLatentData draws the per-observation Student scale weights
// by delegating to the host model. After a nil return every observed data
// point carries a freshly drawn weight and the driver's state-imputation
// step can proceed.
func (s *StudentMvssPosteriorSampler) ImputeNonstateLatentData() error {
	return s.model.ImputeStudentWeights(s.rng)
}

// ClearCompleteDataSufficientStatistics resets the host model's accumulated
// weighted-regression sufficient statistics. In the surrounding system this
// is wired to the data store's change notifications, so structural data
// changes never leave stale accumulations behind.
func (s *StudentMvssPosteriorSampler) ClearCompleteDataSufficientStatistics() {
	s.model.ClearCompleteDataSufficientStatistics()
}

// CloneToNewHost returns an independent sampler bound to newHost, seeded
// with its own RNG stream. Only configuration is copied; no accumulated
// state crosses over, so the clone is safe to run on a parallel chain.
func (s *StudentMvssPosteriorSampler) CloneToNewHost(newHost HostModel, seed uint64) (*StudentMvssPosteriorSampler, error) {
	return NewStudentMvssPosteriorSampler(newHost, seed)
}
