package samplers

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// TDataImputer draws the latent per-observation scale weight of a Student-t
// observation-noise model, using the classic normal/inverse-gamma mixture
// representation: conditional on the residual, the weight is Gamma
// distributed with shape (nu+1)/2 and rate (nu + (residual/sd)^2)/2.
//
// The imputer is stateless; the same value works for any number of models
// and observations.
type TDataImputer struct{}

// ImputeWeight draws one scale weight for an observation with the given
// residual, conditional residual standard deviation sd, and tail thickness
// nu.
func (TDataImputer) ImputeWeight(rng *rand.Rand, residual, sd, nu float64) float64 {
	z := residual / sd
	g := distuv.Gamma{
		Alpha: (nu + 1) / 2,
		Beta:  (nu + z*z) / 2,
		Src:   rng,
	}
	return g.Rand()
}
