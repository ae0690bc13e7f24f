// Package gibbs provides the shared sweep skeleton for the model family:
// each iteration imputes the noise model's non-state latent data, then the
// latent state, then draws parameters, in that fixed order. The driver knows
// nothing about any concrete noise model; it works entirely through small
// capability interfaces.
package gibbs

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/statespacer/mvpanel/samplers"
)

// Model is the view the driver needs of the host model: the state-imputation
// and parameter-draw steps of the sweep. The latent-data step comes from the
// noise model's sampler extension instead, so swapping the observation-noise
// family never touches the driver.
type Model interface {
	ImputeState(rng *rand.Rand) error
	DrawParameters(rng *rand.Rand) error
}

// Driver runs fixed-iteration Gibbs sweeps over one model/sampler pair. It
// owns the RNG stream for the state and parameter steps; the sampler
// extension carries its own stream for the latent-data step.
//
// A Driver is single-threaded. Parallel chains each get their own Driver
// over a cloned model and sampler.
type Driver struct {
	latent samplers.LatentDataImputer
	model  Model
	rng    *rand.Rand
}

// NewDriver creates a driver over the given sampler extension and model,
// with the driver's RNG stream seeded from seed.
func NewDriver(latent samplers.LatentDataImputer, model Model, seed uint64) (*Driver, error) {
	if latent == nil {
		return nil, errors.New("latent-data imputer cannot be nil")
	}
	if model == nil {
		return nil, errors.New("model cannot be nil")
	}
	return &Driver{
		latent: latent,
		model:  model,
		rng:    rand.New(rand.NewSource(seed)),
	}, nil
}

// Sweep runs one Gibbs iteration: impute non-state latent data, impute
// state, draw parameters. The first failing step aborts the sweep.
func (d *Driver) Sweep() error {
	if err := d.latent.ImputeNonstateLatentData(); err != nil {
		return fmt.Errorf("imputing latent data: %w", err)
	}
	if err := d.model.ImputeState(d.rng); err != nil {
		return fmt.Errorf("imputing state: %w", err)
	}
	if err := d.model.DrawParameters(d.rng); err != nil {
		return fmt.Errorf("drawing parameters: %w", err)
	}
	return nil
}

// Run performs niter sweeps, starting from cleared sufficient statistics.
// After each successful sweep the record callback (if non-nil) is invoked
// with the zero-based iteration number, which is where callers store their
// posterior draws.
func (d *Driver) Run(niter int, record func(iter int)) error {
	if niter <= 0 {
		return fmt.Errorf("niter must be > 0, got %d", niter)
	}
	d.latent.ClearCompleteDataSufficientStatistics()
	for i := 0; i < niter; i++ {
		if err := d.Sweep(); err != nil {
			return fmt.Errorf("iteration %d: %w", i, err)
		}
		if record != nil {
			record(i)
		}
	}
	return nil
}
