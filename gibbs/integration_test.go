package gibbs

import (
	"math"
	"testing"

	"github.com/statespacer/mvpanel/mvreg"
	"github.com/statespacer/mvpanel/samplers"
)

// buildTestModel creates a 3-series panel with irregular observation gaps
// where each series follows y = 1 + 0.5*x with modest noise baked in
// deterministically.
func buildTestModel(t *testing.T) *mvreg.StudentMvssRegressionModel {
	t.Helper()
	model, err := mvreg.NewStudentMvssRegressionModel(3, 2)
	if err != nil {
		t.Fatalf("NewStudentMvssRegressionModel failed: %v", err)
	}
	for tm := 0; tm < 60; tm++ {
		for s := 0; s < 3; s++ {
			if (tm+s)%4 == 0 {
				continue // irregular missingness
			}
			x := []float64{1, float64((tm*7+s*3)%11) - 5}
			y := 1 + 0.5*x[1] + 0.05*float64((tm*13+s)%7-3)
			p, err := mvreg.NewRegressionDataPoint(s, tm, y, x)
			if err != nil {
				t.Fatalf("NewRegressionDataPoint failed: %v", err)
			}
			if err := model.AddData(p); err != nil {
				t.Fatalf("AddData failed: %v", err)
			}
		}
	}
	return model
}

func TestGibbsEndToEnd(t *testing.T) {
	model := buildTestModel(t)
	sampler, err := samplers.NewStudentMvssPosteriorSampler(model, 2024)
	if err != nil {
		t.Fatalf("NewStudentMvssPosteriorSampler failed: %v", err)
	}
	driver, err := NewDriver(sampler, model, 2025)
	if err != nil {
		t.Fatalf("NewDriver failed: %v", err)
	}

	const niter = 200
	finalSD := make([]float64, 0, niter)
	err = driver.Run(niter, func(iter int) {
		finalSD = append(finalSD, model.ResidualSD(0))
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(finalSD) != niter {
		t.Fatalf("recorded draws: got %d, want %d", len(finalSD), niter)
	}

	// After burn-in the chain should sit near the truth: intercept 1,
	// slope 0.5, small residual sd.
	for s := 0; s < 3; s++ {
		beta := model.Coefficients(s)
		if math.Abs(beta.AtVec(0)-1) > 0.5 {
			t.Errorf("series %d intercept: got %v, want near 1", s, beta.AtVec(0))
		}
		if math.Abs(beta.AtVec(1)-0.5) > 0.5 {
			t.Errorf("series %d slope: got %v, want near 0.5", s, beta.AtVec(1))
		}
		sd := model.ResidualSD(s)
		if !(sd > 0) || sd > 1 {
			t.Errorf("series %d residual sd: got %v, want small and positive", s, sd)
		}
	}

	// Every indexed observation carries an imputed weight.
	store := model.Store()
	for tm := 0; tm < store.TimeDimension(); tm++ {
		sel, err := store.Observed(tm)
		if err != nil {
			t.Fatalf("Observed(%d) failed: %v", tm, err)
		}
		for _, s := range sel.Included() {
			idx := store.DataIndex(s, tm)
			w, err := model.Weight(idx)
			if err != nil {
				t.Fatalf("Weight(%d) failed: %v", idx, err)
			}
			if w <= 0 {
				t.Errorf("weight at (%d, %d): got %v, want > 0", s, tm, w)
			}
		}
	}
}

func TestParallelChainsEndToEnd(t *testing.T) {
	model := buildTestModel(t)
	sampler, err := samplers.NewStudentMvssPosteriorSampler(model, 7)
	if err != nil {
		t.Fatalf("NewStudentMvssPosteriorSampler failed: %v", err)
	}

	const nchains, niter = 3, 50
	clones := make([]*mvreg.StudentMvssRegressionModel, nchains)

	factory := func(chain int, seed uint64) (*Driver, error) {
		clone := model.Clone()
		clones[chain] = clone
		chainSampler, err := sampler.CloneToNewHost(clone, seed)
		if err != nil {
			return nil, err
		}
		return NewDriver(chainSampler, clone, seed+1)
	}

	if err := RunChains(nchains, niter, 4242, factory, nil); err != nil {
		t.Fatalf("RunChains failed: %v", err)
	}

	// The shared prototype never ran; its state is untouched.
	if got := model.ResidualSD(0); got != 1.0 {
		t.Errorf("prototype residual sd after chains: got %v, want 1.0", got)
	}
	w, err := model.Weight(0)
	if err != nil {
		t.Fatalf("prototype Weight(0) failed: %v", err)
	}
	if w != 1.0 {
		t.Errorf("prototype weight after chains: got %v, want 1.0", w)
	}

	// Each chain produced its own draws on its own clone.
	for c, clone := range clones {
		if clone == nil {
			t.Fatalf("chain %d never built its clone", c)
		}
		if got := clone.ResidualSD(0); got == 1.0 {
			t.Errorf("chain %d residual sd still at its initial value", c)
		}
	}
}
