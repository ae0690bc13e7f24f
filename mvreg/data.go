package mvreg

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// RegressionDataPoint is one observation of one series at one time step: a
// scalar response paired with a predictor vector. Its coordinates and payload
// are immutable after construction, which is what lets cloned models share
// the same points across parallel chains. All mutable inference state (the
// latent scale weight in particular) lives on the model, not the point.
type RegressionDataPoint struct {
	series     int
	timestamp  int
	response   float64
	predictors *mat.VecDense
}

// NewRegressionDataPoint creates an observation of the given series at the
// given time step. series and timestamp must be non-negative and predictors
// must be non-empty.
func NewRegressionDataPoint(series, timestamp int, response float64, predictors []float64) (*RegressionDataPoint, error) {
	if series < 0 {
		return nil, fmt.Errorf("series must be >= 0, got %d", series)
	}
	if timestamp < 0 {
		return nil, fmt.Errorf("timestamp must be >= 0, got %d", timestamp)
	}
	if len(predictors) == 0 {
		return nil, fmt.Errorf("predictors must be non-empty")
	}
	x := make([]float64, len(predictors))
	copy(x, predictors)
	return &RegressionDataPoint{
		series:     series,
		timestamp:  timestamp,
		response:   response,
		predictors: mat.NewVecDense(len(x), x),
	}, nil
}

// Series returns the index of the series this observation belongs to.
func (p *RegressionDataPoint) Series() int { return p.series }

// Timestamp returns the integer time step of this observation.
func (p *RegressionDataPoint) Timestamp() int { return p.timestamp }

// Response returns the observed scalar response.
func (p *RegressionDataPoint) Response() float64 { return p.response }

// Predictors returns the predictor vector. Callers must treat it as
// read-only: the same vector is shared by every model clone holding this
// point.
func (p *RegressionDataPoint) Predictors() *mat.VecDense { return p.predictors }

// Xdim returns the length of the predictor vector.
func (p *RegressionDataPoint) Xdim() int { return p.predictors.Len() }
