// Package mvreg implements a multivariate state-space regression model with
// Student-t observation noise over a sparse, irregularly-observed panel of
// series. The model owns a paneldata.Store for its observations, keeps all
// mutable inference state (latent scale weights, per-series regression
// parameters, sufficient statistics) on itself, and exposes the hooks a
// Gibbs-sampling driver needs for the impute-latent-data / impute-state /
// draw-parameters sweep.
package mvreg

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/statespacer/mvpanel/paneldata"
	"github.com/statespacer/mvpanel/samplers"
)

// defaultTailThickness is the Student-t degrees of freedom a series starts
// with until SetTailThickness overrides it.
const defaultTailThickness = 3.0

// StudentMvssRegressionModel regresses each of nseries response series on a
// shared predictor space of dimension xdim, with heavy-tailed errors
// expressed as a normal mixture: observation (s, t) has variance
// residualSD[s]^2 / weight, where weight is a latent Gamma draw refreshed by
// ImputeStudentWeights each sweep.
//
// Prior tunables are exported fields with defaults set by the constructor;
// callers can adjust them before sampling begins.
//
// The model is single-threaded. Parallel chains each run on a Clone, which
// shares the immutable data points but duplicates every piece of mutable
// state.
type StudentMvssRegressionModel struct {
	// PriorDF and PriorSS parameterize the inverse-gamma prior on each
	// series' residual variance (prior df and prior sum of squares).
	PriorDF float64
	PriorSS float64

	// PriorBetaPrecision is the ridge added to X'WX before the coefficient
	// draw, keeping the posterior proper when a series has fewer
	// observations than predictors.
	PriorBetaPrecision float64

	store *paneldata.Store
	xdim  int

	coefficients  []*mat.VecDense
	residualSD    []float64
	tailThickness []float64

	// weights[i] is the latent scale weight for the data point at flat
	// index i of the store. Kept in sync with the store through its change
	// notifications.
	weights []float64

	suf []*WeightedRegSuf

	imputer samplers.TDataImputer
}

// NewStudentMvssRegressionModel creates an empty model for nseries parallel
// series and predictor dimension xdim.
func NewStudentMvssRegressionModel(nseries, xdim int) (*StudentMvssRegressionModel, error) {
	if xdim <= 0 {
		return nil, fmt.Errorf("xdim must be >= 1, got %d", xdim)
	}
	store, err := paneldata.NewStore(nseries)
	if err != nil {
		return nil, err
	}
	m := &StudentMvssRegressionModel{
		PriorDF:            1.0,
		PriorSS:            1.0,
		PriorBetaPrecision: 1e-6,
		store:              store,
		xdim:               xdim,
		coefficients:       make([]*mat.VecDense, nseries),
		residualSD:         make([]float64, nseries),
		tailThickness:      make([]float64, nseries),
		suf:                make([]*WeightedRegSuf, nseries),
	}
	for i := 0; i < nseries; i++ {
		m.coefficients[i] = mat.NewVecDense(xdim, nil)
		m.residualSD[i] = 1.0
		m.tailThickness[i] = defaultTailThickness
		m.suf[i] = NewWeightedRegSuf(xdim)
	}
	m.store.AddObserver(m.onDataChange)
	return m, nil
}

// onDataChange keeps the weight slice aligned with the store's raw storage
// and discards stale sufficient statistics. Registered as a store observer,
// so it runs after every Add and Clear.
func (m *StudentMvssRegressionModel) onDataChange() {
	n := m.store.TotalSampleSize()
	if n < len(m.weights) {
		m.weights = m.weights[:n]
	}
	for len(m.weights) < n {
		m.weights = append(m.weights, 1.0)
	}
	m.ClearCompleteDataSufficientStatistics()
}

// Store returns the model's data store. Callers may read from it freely;
// structural mutations should go through AddData and ClearData so the
// model's own bookkeeping stays coherent.
func (m *StudentMvssRegressionModel) Store() *paneldata.Store { return m.store }

// Nseries returns the number of parallel response series.
func (m *StudentMvssRegressionModel) Nseries() int { return m.store.Nseries() }

// Xdim returns the predictor dimension.
func (m *StudentMvssRegressionModel) Xdim() int { return m.xdim }

// TimeDimension returns the store's current time dimension.
func (m *StudentMvssRegressionModel) TimeDimension() int { return m.store.TimeDimension() }

// AddData inserts one observation. The point's series must lie inside the
// model's panel and its predictor dimension must match the model's.
func (m *StudentMvssRegressionModel) AddData(p *RegressionDataPoint) error {
	if p.Series() >= m.Nseries() {
		return fmt.Errorf("series %d out of range for %d-series model", p.Series(), m.Nseries())
	}
	if p.Xdim() != m.xdim {
		return fmt.Errorf("predictor dimension mismatch: got %d, want %d", p.Xdim(), m.xdim)
	}
	m.store.Add(p)
	return nil
}

// ClearData drops all observations and resets the latent weights.
func (m *StudentMvssRegressionModel) ClearData() {
	m.store.Clear()
}

// Weight returns the latent scale weight of the data point at the given flat
// index.
func (m *StudentMvssRegressionModel) Weight(flatIndex int64) (float64, error) {
	if flatIndex < 0 || flatIndex >= int64(len(m.weights)) {
		return 0, fmt.Errorf("%w: %d not in [0, %d)",
			paneldata.ErrIndexOutOfRange, flatIndex, len(m.weights))
	}
	return m.weights[flatIndex], nil
}

// Coefficients returns the current regression coefficients for one series.
// The returned vector is a copy.
func (m *StudentMvssRegressionModel) Coefficients(series int) *mat.VecDense {
	return mat.VecDenseCopyOf(m.coefficients[series])
}

// SetCoefficients overwrites the regression coefficients for one series.
func (m *StudentMvssRegressionModel) SetCoefficients(series int, beta *mat.VecDense) error {
	if beta.Len() != m.xdim {
		return fmt.Errorf("coefficient dimension mismatch: got %d, want %d", beta.Len(), m.xdim)
	}
	m.coefficients[series].CopyVec(beta)
	return nil
}

// ResidualSD returns the current residual standard deviation for one series.
func (m *StudentMvssRegressionModel) ResidualSD(series int) float64 {
	return m.residualSD[series]
}

// SetResidualSD overwrites the residual standard deviation for one series.
func (m *StudentMvssRegressionModel) SetResidualSD(series int, sd float64) error {
	if sd <= 0 {
		return fmt.Errorf("residual sd must be > 0, got %v", sd)
	}
	m.residualSD[series] = sd
	return nil
}

// TailThickness returns the Student-t degrees of freedom for one series.
func (m *StudentMvssRegressionModel) TailThickness(series int) float64 {
	return m.tailThickness[series]
}

// SetTailThickness overwrites the Student-t degrees of freedom for one
// series.
func (m *StudentMvssRegressionModel) SetTailThickness(series int, nu float64) error {
	if nu <= 0 {
		return fmt.Errorf("tail thickness must be > 0, got %v", nu)
	}
	m.tailThickness[series] = nu
	return nil
}

// Suf returns the weighted-regression sufficient statistics for one series.
func (m *StudentMvssRegressionModel) Suf(series int) *WeightedRegSuf {
	return m.suf[series]
}

// ImputeStudentWeights draws a fresh latent scale weight for every currently
// indexed observation, conditional on that series' coefficients, residual
// standard deviation, and tail thickness. Observations shadowed by a
// duplicate-coordinate insert keep their previous weight; only the indexed
// entry at each populated (series, time) coordinate is refreshed.
func (m *StudentMvssRegressionModel) ImputeStudentWeights(rng *rand.Rand) error {
	for t := 0; t < m.store.TimeDimension(); t++ {
		sel, err := m.store.Observed(t)
		if err != nil {
			return err
		}
		for _, series := range sel.Included() {
			idx := m.store.DataIndex(series, t)
			if idx < 0 {
				return fmt.Errorf("observed mask lists series %d at time %d but no data point is indexed there", series, t)
			}
			dp, err := m.store.DataPoint(idx)
			if err != nil {
				return err
			}
			p, ok := dp.(*RegressionDataPoint)
			if !ok {
				return fmt.Errorf("data point at flat index %d is %T, want *RegressionDataPoint", idx, dp)
			}
			resid := p.Response() - mat.Dot(p.Predictors(), m.coefficients[series])
			m.weights[idx] = m.imputer.ImputeWeight(
				rng, resid, m.residualSD[series], m.tailThickness[series])
		}
	}
	return nil
}

// ImputeState is the state-imputation hook of the Gibbs sweep. The
// regression-only observation equation here has no latent state beyond the
// scale weights, so the draw is empty; models with a dynamic state vector
// supply the filtering recursions through their own implementation.
func (m *StudentMvssRegressionModel) ImputeState(rng *rand.Rand) error {
	return nil
}

// RefreshSuf rebuilds the per-series sufficient statistics from the current
// data and latent weights.
func (m *StudentMvssRegressionModel) RefreshSuf() error {
	m.ClearCompleteDataSufficientStatistics()
	for t := 0; t < m.store.TimeDimension(); t++ {
		sel, err := m.store.Observed(t)
		if err != nil {
			return err
		}
		for _, series := range sel.Included() {
			idx := m.store.DataIndex(series, t)
			if idx < 0 {
				return fmt.Errorf("observed mask lists series %d at time %d but no data point is indexed there", series, t)
			}
			dp, err := m.store.DataPoint(idx)
			if err != nil {
				return err
			}
			p, ok := dp.(*RegressionDataPoint)
			if !ok {
				return fmt.Errorf("data point at flat index %d is %T, want *RegressionDataPoint", idx, dp)
			}
			m.suf[series].AddData(p.Predictors(), p.Response(), m.weights[idx])
		}
	}
	return nil
}

// ClearCompleteDataSufficientStatistics empties every series' accumulated
// weighted-regression sufficient statistics.
func (m *StudentMvssRegressionModel) ClearCompleteDataSufficientStatistics() {
	for _, s := range m.suf {
		s.Clear()
	}
}

// DrawParameters refreshes the sufficient statistics and then draws each
// series' residual variance and regression coefficients from their conjugate
// conditional posteriors given the current latent weights. Series with no
// observations keep their current parameters.
func (m *StudentMvssRegressionModel) DrawParameters(rng *rand.Rand) error {
	if err := m.RefreshSuf(); err != nil {
		return err
	}
	for series := 0; series < m.Nseries(); series++ {
		suf := m.suf[series]
		if suf.N() == 0 {
			continue
		}
		if err := m.drawSeriesParameters(rng, series, suf); err != nil {
			return fmt.Errorf("series %d: %w", series, err)
		}
	}
	return nil
}

func (m *StudentMvssRegressionModel) drawSeriesParameters(rng *rand.Rand, series int, suf *WeightedRegSuf) error {
	// Posterior precision of the coefficients is X'WX plus the ridge prior.
	prec := mat.NewSymDense(m.xdim, nil)
	prec.CopySym(suf.Xtwx())
	for i := 0; i < m.xdim; i++ {
		prec.SetSym(i, i, prec.At(i, i)+m.PriorBetaPrecision)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(prec); !ok {
		return errors.New("weighted cross-product matrix is not positive definite")
	}

	betaHat := mat.NewVecDense(m.xdim, nil)
	if err := chol.SolveVecTo(betaHat, suf.Xtwy()); err != nil {
		return fmt.Errorf("solving for posterior mean: %w", err)
	}

	// Weighted residual sum of squares at the posterior mean; cancellation
	// can push it slightly negative, so clamp at zero.
	sse := suf.Ywty() - mat.Dot(betaHat, suf.Xtwy())
	if sse < 0 {
		sse = 0
	}

	ig := distuv.InverseGamma{
		Alpha: (m.PriorDF + float64(suf.N())) / 2,
		Beta:  (m.PriorSS + sse) / 2,
		Src:   rng,
	}
	sigsq := ig.Rand()
	m.residualSD[series] = math.Sqrt(sigsq)

	// beta ~ N(betaHat, sigsq * prec^{-1}): solve L' u = z for the
	// correlated part, with prec = L L'.
	var lower mat.TriDense
	chol.LTo(&lower)
	std := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	z := mat.NewVecDense(m.xdim, nil)
	for i := 0; i < m.xdim; i++ {
		z.SetVec(i, std.Rand())
	}
	u := mat.NewVecDense(m.xdim, nil)
	if err := u.SolveVec(lower.T(), z); err != nil {
		return fmt.Errorf("sampling coefficient draw: %w", err)
	}
	m.coefficients[series].AddScaledVec(betaHat, math.Sqrt(sigsq), u)
	return nil
}

// Clone returns an independent model sharing the same underlying data points
// but duplicating every piece of mutable inference state: index and mask
// bookkeeping, latent weights, parameters, priors, and sufficient
// statistics. The clone registers its own store observer, so post-clone
// mutations on either side never leak across.
func (m *StudentMvssRegressionModel) Clone() *StudentMvssRegressionModel {
	nseries := m.Nseries()
	cp := &StudentMvssRegressionModel{
		PriorDF:            m.PriorDF,
		PriorSS:            m.PriorSS,
		PriorBetaPrecision: m.PriorBetaPrecision,
		store:              m.store.Clone(),
		xdim:               m.xdim,
		coefficients:       make([]*mat.VecDense, nseries),
		residualSD:         make([]float64, nseries),
		tailThickness:      make([]float64, nseries),
		weights:            make([]float64, len(m.weights)),
		suf:                make([]*WeightedRegSuf, nseries),
	}
	for i := 0; i < nseries; i++ {
		cp.coefficients[i] = mat.VecDenseCopyOf(m.coefficients[i])
		cp.residualSD[i] = m.residualSD[i]
		cp.tailThickness[i] = m.tailThickness[i]
		cp.suf[i] = m.suf[i].Clone()
	}
	copy(cp.weights, m.weights)
	cp.store.AddObserver(cp.onDataChange)
	return cp
}
