package mvreg

import "gonum.org/v1/gonum/mat"

// WeightedRegSuf accumulates the weighted-regression sufficient statistics
// for one series: X'WX, X'Wy, the weighted response sum of squares, the sum
// of weights, and the observation count. These summaries are enough to drive
// a conjugate coefficient/variance posterior draw without revisiting the raw
// data.
type WeightedRegSuf struct {
	xtwx       *mat.SymDense
	xtwy       *mat.VecDense
	ywty       float64
	sumWeights float64
	n          int
}

// NewWeightedRegSuf creates empty sufficient statistics for predictor
// dimension xdim.
func NewWeightedRegSuf(xdim int) *WeightedRegSuf {
	return &WeightedRegSuf{
		xtwx: mat.NewSymDense(xdim, nil),
		xtwy: mat.NewVecDense(xdim, nil),
	}
}

// AddData accumulates one observation with predictor vector x, response y,
// and latent scale weight w.
func (s *WeightedRegSuf) AddData(x *mat.VecDense, y, w float64) {
	s.xtwx.SymRankOne(s.xtwx, w, x)
	s.xtwy.AddScaledVec(s.xtwy, w*y, x)
	s.ywty += w * y * y
	s.sumWeights += w
	s.n++
}

// Clear resets the accumulators to their empty state.
func (s *WeightedRegSuf) Clear() {
	xdim := s.xtwy.Len()
	s.xtwx = mat.NewSymDense(xdim, nil)
	s.xtwy = mat.NewVecDense(xdim, nil)
	s.ywty = 0
	s.sumWeights = 0
	s.n = 0
}

// Xtwx returns the accumulated X'WX cross-product matrix.
func (s *WeightedRegSuf) Xtwx() *mat.SymDense { return s.xtwx }

// Xtwy returns the accumulated X'Wy cross-product vector.
func (s *WeightedRegSuf) Xtwy() *mat.VecDense { return s.xtwy }

// Ywty returns the accumulated weighted sum of squared responses.
func (s *WeightedRegSuf) Ywty() float64 { return s.ywty }

// SumWeights returns the accumulated sum of latent scale weights.
func (s *WeightedRegSuf) SumWeights() float64 { return s.sumWeights }

// N returns the number of accumulated observations.
func (s *WeightedRegSuf) N() int { return s.n }

// Clone returns an independent copy of the accumulators.
func (s *WeightedRegSuf) Clone() *WeightedRegSuf {
	xdim := s.xtwy.Len()
	cp := NewWeightedRegSuf(xdim)
	cp.xtwx.CopySym(s.xtwx)
	cp.xtwy.CopyVec(s.xtwy)
	cp.ywty = s.ywty
	cp.sumWeights = s.sumWeights
	cp.n = s.n
	return cp
}
