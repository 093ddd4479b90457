package ukf

import (
	"fmt"
	"math"

	filter "github.com/ctrlworks/pose-estimate"
	"github.com/ctrlworks/pose-estimate/estimate"
	"github.com/ctrlworks/pose-estimate/matrix"
	"gonum.org/v1/gonum/mat"
)

const (
	// beta is the sigma point covariance weight parameter; 2 is the
	// optimal choice for Gaussian distributions
	beta = 2.0
	// covFloor is the diagonal floor used when repairing a degenerate
	// covariance before sigma point generation
	covFloor = 0.001
	// covSentinel caps infinite covariance entries after the update
	covSentinel = 1e10
)

// Config contains UKF [unitless] configuration parameters
type Config struct {
	// Alpha is alpha parameter (0,1]
	Alpha float64
	// Kappa is kappa parameter (must be non-negative)
	Kappa float64
}

// Weights are sigma point weights. They depend only on the state
// dimension and the config parameters, so they are computed once per
// settings change and reused across cycles.
type Weights struct {
	// Mean are sigma point mean weights
	Mean []float64
	// Cov are sigma point covariance weights
	Cov []float64
	// lambda is the sigma point spread parameter
	lambda float64
}

// NewWeights computes sigma point weights for state dimension n and config c.
// It returns error if n is not positive or if invalid config is supplied.
func NewWeights(n int, c *Config) (*Weights, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid state dimension: %d", n)
	}

	if c.Alpha <= 0 || c.Kappa < 0 {
		return nil, fmt.Errorf("invalid config supplied: %v", c)
	}

	nf := float64(n)
	lambda := c.Alpha*c.Alpha*(nf+c.Kappa) - nf

	wm := make([]float64, 2*n+1)
	wc := make([]float64, 2*n+1)

	w := 1 / (2 * (nf + lambda))
	for i := 1; i < 2*n+1; i++ {
		wm[i] = w
		wc[i] = w
	}
	wm[0] = lambda / (nf + lambda)
	wc[0] = wm[0] + (1 - c.Alpha*c.Alpha + beta)

	return &Weights{
		Mean:   wm,
		Cov:    wc,
		lambda: lambda,
	}, nil
}

// UKF is Unscented (aka Sigma Point) Kalman Filter
type UKF struct {
	// m is the motion model
	m filter.Propagator
	// w are cached sigma point weights
	w *Weights
	// q is process noise scale
	q float64
	// r is measurement noise scale
	r float64
	// n is state dimension
	n int
	// sp stores sigma points in columns: index 0 is the mean point,
	// 1..n the positive and n+1..2n the negative perturbations
	sp *mat.Dense
	// p is the UKF covariance matrix
	p *mat.SymDense
	// pPred is the UKF predicted covariance matrix
	pPred *mat.SymDense
	// inn is innovation vector
	inn *mat.VecDense
	// k is Kalman gain
	k *mat.Dense
}

// New creates new UKF and returns it.
// It accepts the following arguments:
//   - m:    rover motion model
//   - init: initial condition of the filter
//   - c:    filter configuration
//   - q:    process noise scale
//   - r:    measurement noise scale
//
// It returns error if invalid config or noise scales are supplied, or if
// the initial sigma points fail to be generated.
func New(m filter.Propagator, init filter.InitCond, c *Config, q, r float64) (*UKF, error) {
	n, _ := m.Dims()
	if n <= 0 {
		return nil, fmt.Errorf("invalid model dimension: %d", n)
	}

	if init.State().Len() != n {
		return nil, fmt.Errorf("invalid initial state length: %d", init.State().Len())
	}

	if q < 0 || r < 0 {
		return nil, fmt.Errorf("invalid noise scales: q %f, r %f", q, r)
	}

	w, err := NewWeights(n, c)
	if err != nil {
		return nil, err
	}

	f := &UKF{
		m:     m,
		w:     w,
		q:     q,
		r:     r,
		n:     n,
		p:     mat.NewSymDense(n, nil),
		pPred: mat.NewSymDense(n, nil),
		inn:   mat.NewVecDense(n, nil),
		k:     mat.NewDense(n, n, nil),
	}
	f.p.CopySym(init.Cov())
	f.pPred.CopySym(init.Cov())

	sp, err := f.GenSigmaPoints(init.State(), init.Cov())
	if err != nil {
		return nil, fmt.Errorf("failed to generate sigma points: %v", err)
	}
	f.sp = sp

	return f, nil
}

// GenSigmaPoints generates 2n+1 sigma points around mean x from cov and
// returns them stored in matrix columns. The scaled covariance square
// root is a general SVD root: a singular covariance collapses sigma
// points toward the mean instead of failing like Cholesky would. A
// covariance the SVD cannot factorize at all is repaired with a diagonal
// conditioning pass and retried once.
// It returns error if sigma points fail to be generated from the
// repaired covariance.
func (f *UKF) GenSigmaPoints(x mat.Vector, cov mat.Symmetric) (*mat.Dense, error) {
	if x.Len() != f.n || cov.SymmetricDim() != f.n {
		return nil, fmt.Errorf("invalid mean or covariance dimensions")
	}

	scaled := mat.NewSymDense(f.n, nil)
	scaled.CopySym(cov)
	scaled.ScaleSym(float64(f.n)+f.w.lambda, scaled)

	sqrt, err := matrix.Sqrt(scaled)
	if err != nil {
		fixed := matrix.Condition(cov, covFloor)
		fixed.ScaleSym(float64(f.n)+f.w.lambda, fixed)
		if sqrt, err = matrix.Sqrt(fixed); err != nil {
			return nil, fmt.Errorf("failed to generate sigma points: %v", err)
		}
	}

	sp := mat.NewDense(f.n, 2*f.n+1, nil)
	for j := 0; j < 2*f.n+1; j++ {
		for i := 0; i < f.n; i++ {
			sp.Set(i, j, x.AtVec(i))
		}
	}

	// positive sigma points
	sx := sp.Slice(0, f.n, 1, f.n+1).(*mat.Dense)
	sx.Add(sx, sqrt)
	// negative sigma points
	sx = sp.Slice(0, f.n, f.n+1, 2*f.n+1).(*mat.Dense)
	sx.Sub(sx, sqrt)

	return sp, nil
}

// Predict regenerates sigma points from the previous mean x and
// covariance, propagates every point through the motion model with
// control input u and recombines them into the predicted state estimate.
// The regenerated, unpropagated points are the ones carried into the
// following update; the propagated points only shape the predicted mean
// and covariance.
// It returns error if the sigma points fail to be generated or
// propagated.
func (f *UKF) Predict(x, u mat.Vector) (filter.Estimate, error) {
	sp, err := f.GenSigmaPoints(x, f.p)
	if err != nil {
		return nil, fmt.Errorf("failed to generate sigma points: %v", err)
	}
	f.sp = sp

	_, cols := f.sp.Dims()

	prop := mat.NewDense(f.n, cols, nil)
	xPred := mat.NewVecDense(f.n, nil)

	for c := 0; c < cols; c++ {
		next, err := f.m.Propagate(f.sp.ColView(c), u)
		if err != nil {
			return nil, fmt.Errorf("failed to propagate sigma point: %v", err)
		}
		prop.Slice(0, f.n, c, c+1).(*mat.Dense).Copy(next)
		xPred.AddScaledVec(xPred, f.w.Mean[c], next)
	}

	// predicted covariance: weighted outer products plus process noise
	cov := mat.NewDense(f.n, f.n, nil)
	outer := mat.NewDense(f.n, f.n, nil)
	diff := mat.NewVecDense(f.n, nil)
	for c := 0; c < cols; c++ {
		diff.CopyVec(prop.ColView(c))
		diff.SubVec(diff, xPred)
		outer.Mul(diff, diff.T())
		outer.Scale(f.w.Cov[c], outer)
		cov.Add(cov, outer)
	}

	qI, err := matrix.ScaledIdentity(f.n, f.q)
	if err != nil {
		return nil, err
	}
	cov.Add(cov, qI)

	pPred, err := matrix.SymFromDense(cov)
	if err != nil {
		return nil, err
	}
	f.pPred = pPred

	return estimate.NewBaseWithCov(xPred, f.pPred)
}

// Update fuses measurement z against the predicted mean x weighted by
// confidence in [0,1]. The filter treats sigma points directly as
// predicted measurements: the full state is observable. Higher
// confidence shrinks the injected measurement noise, biasing the fused
// estimate toward the raw measurement. A singular innovation covariance
// degrades the cycle to the predicted state with a repaired covariance
// rather than failing.
// It returns error if z has invalid dimensions.
func (f *UKF) Update(x, z mat.Vector, confidence float64) (filter.Estimate, error) {
	if z.Len() != f.n {
		return nil, fmt.Errorf("invalid measurement supplied: %v", z)
	}

	confidence = math.Min(1, math.Max(0, confidence))

	_, cols := f.sp.Dims()

	// measurement mean over sigma points
	yMean := mat.NewVecDense(f.n, nil)
	for c := 0; c < cols; c++ {
		yMean.AddScaledVec(yMean, f.w.Mean[c], f.sp.ColView(c))
	}

	// innovation covariance and state/measurement cross covariance
	pyy := mat.NewDense(f.n, f.n, nil)
	pxy := mat.NewDense(f.n, f.n, nil)
	outer := mat.NewDense(f.n, f.n, nil)
	yDiff := mat.NewVecDense(f.n, nil)
	xDiff := mat.NewVecDense(f.n, nil)
	for c := 0; c < cols; c++ {
		yDiff.CopyVec(f.sp.ColView(c))
		yDiff.SubVec(yDiff, yMean)

		xDiff.CopyVec(f.sp.ColView(c))
		xDiff.SubVec(xDiff, x)

		outer.Mul(yDiff, yDiff.T())
		outer.Scale(f.w.Cov[c], outer)
		pyy.Add(pyy, outer)

		outer.Mul(xDiff, yDiff.T())
		outer.Scale(f.w.Cov[c], outer)
		pxy.Add(pxy, outer)
	}

	rI, err := matrix.ScaledIdentity(f.n, (1-confidence)*f.r)
	if err != nil {
		return nil, err
	}
	pyy.Add(pyy, rI)

	pyyInv := &mat.Dense{}
	if err := pyyInv.Inverse(pyy); err != nil {
		// degraded cycle: keep the prediction, repair its covariance
		p := matrix.Condition(f.pPred, covFloor)
		matrix.Sanitize(p, covSentinel)
		f.p = p
		f.inn.Zero()
		f.k.Zero()
		return estimate.NewBaseWithCov(x, f.p)
	}

	gain := &mat.Dense{}
	gain.Mul(pxy, pyyInv)

	// innovation vector
	inn := mat.NewVecDense(f.n, nil)
	inn.SubVec(z, yMean)

	// fused state
	corr := &mat.Dense{}
	corr.Mul(gain, inn)
	fused := mat.NewVecDense(f.n, nil)
	fused.AddVec(x, corr.ColView(0))

	// fused covariance: pPred - K*S*K'
	ks := &mat.Dense{}
	ks.Mul(gain, pyy)
	ksk := &mat.Dense{}
	ksk.Mul(ks, gain.T())
	pCorr := &mat.Dense{}
	pCorr.Sub(f.pPred, ksk)

	p, err := matrix.SymFromDense(pCorr)
	if err != nil {
		return nil, err
	}
	matrix.Sanitize(p, covSentinel)

	f.inn.CopyVec(inn)
	f.k.Copy(gain)
	f.p = p

	return estimate.NewBaseWithCov(fused, f.p)
}

// Run runs one step of UKF for given state x, input u and measurement z
// weighted by confidence. It returns the fused estimate.
// It returns error if either the prediction or the update fails.
func (f *UKF) Run(x, u, z mat.Vector, confidence float64) (filter.Estimate, error) {
	pred, err := f.Predict(x, u)
	if err != nil {
		return nil, err
	}

	return f.Update(pred.Val(), z, confidence)
}

// Cov returns UKF covariance
func (f *UKF) Cov() mat.Symmetric {
	cov := mat.NewSymDense(f.p.SymmetricDim(), nil)
	cov.CopySym(f.p)

	return cov
}

// SetCov sets UKF covariance matrix to cov.
// It returns error if either cov is nil or its dimensions do not match
// the filter state dimension.
func (f *UKF) SetCov(cov mat.Symmetric) error {
	if cov == nil {
		return fmt.Errorf("invalid covariance matrix: %v", cov)
	}

	if cov.SymmetricDim() != f.p.SymmetricDim() {
		return fmt.Errorf("invalid covariance matrix dims: [%d x %d]", cov.SymmetricDim(), cov.SymmetricDim())
	}

	f.p.CopySym(cov)

	return nil
}

// Gain returns Kalman gain
func (f *UKF) Gain() mat.Matrix {
	gain := &mat.Dense{}
	gain.CloneFrom(f.k)

	return gain
}

// SigmaPoints returns the current sigma points stored in matrix columns
func (f *UKF) SigmaPoints() mat.Matrix {
	sp := &mat.Dense{}
	sp.CloneFrom(f.sp)

	return sp
}
