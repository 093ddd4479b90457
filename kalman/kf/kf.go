package kf

import (
	"fmt"

	filter "github.com/ctrlworks/pose-estimate"
	"github.com/ctrlworks/pose-estimate/estimate"
	"github.com/ctrlworks/pose-estimate/matrix"
	"gonum.org/v1/gonum/mat"
)

// KF is a linear Kalman filter smoothing a single telemetry channel,
// e.g. camera position or gyro rate, upstream of pose fusion. Channel
// dynamics are a random walk: the predicted value is the previous one
// with process noise q added, and measurements carry scalar noise r.
type KF struct {
	// d is channel dimension
	d int
	// q is process noise scale
	q float64
	// r is measurement noise scale
	r float64
	// p is the KF covariance matrix
	p *mat.SymDense
	// pPred is the KF predicted covariance matrix
	pPred *mat.SymDense
	// inn is innovation vector
	inn *mat.VecDense
	// k is Kalman gain
	k *mat.Dense
}

// New creates new channel KF and returns it.
// It accepts the channel dimension d, initial condition and scalar
// process/measurement noise.
// It returns error if invalid dimension or noise scales are supplied.
func New(d int, init filter.InitCond, q, r float64) (*KF, error) {
	if d <= 0 {
		return nil, fmt.Errorf("invalid channel dimension: %d", d)
	}

	if init.State().Len() != d {
		return nil, fmt.Errorf("invalid initial state length: %d", init.State().Len())
	}

	if q < 0 || r <= 0 {
		return nil, fmt.Errorf("invalid noise scales: q %f, r %f", q, r)
	}

	p := mat.NewSymDense(d, nil)
	p.CopySym(init.Cov())

	pPred := mat.NewSymDense(d, nil)
	pPred.CopySym(init.Cov())

	return &KF{
		d:     d,
		q:     q,
		r:     r,
		p:     p,
		pPred: pPred,
		inn:   mat.NewVecDense(d, nil),
		k:     mat.NewDense(d, d, nil),
	}, nil
}

// Predict propagates channel state x to the next step and returns its estimate.
// Random walk dynamics keep the value and inflate the covariance by q*I.
func (f *KF) Predict(x mat.Vector) (filter.Estimate, error) {
	if x.Len() != f.d {
		return nil, fmt.Errorf("invalid state vector length: %d", x.Len())
	}

	qI, err := matrix.ScaledIdentity(f.d, f.q)
	if err != nil {
		return nil, err
	}

	pPred := mat.NewSymDense(f.d, nil)
	pPred.AddSym(f.p, qI)
	f.pPred = pPred

	return estimate.NewBaseWithCov(x, f.pPred)
}

// Update corrects channel state x using measurement z and returns the
// smoothed estimate. A singular innovation covariance degrades the cycle
// to the predicted state rather than failing.
// It returns error if z has invalid dimensions.
func (f *KF) Update(x, z mat.Vector) (filter.Estimate, error) {
	if x.Len() != f.d || z.Len() != f.d {
		return nil, fmt.Errorf("invalid state or measurement supplied")
	}

	rI, err := matrix.ScaledIdentity(f.d, f.r)
	if err != nil {
		return nil, err
	}

	s := mat.NewDense(f.d, f.d, nil)
	s.Add(f.pPred, rI)

	sInv := &mat.Dense{}
	if err := sInv.Inverse(s); err != nil {
		return estimate.NewBaseWithCov(x, f.pPred)
	}

	gain := &mat.Dense{}
	gain.Mul(f.pPred, sInv)

	inn := mat.NewVecDense(f.d, nil)
	inn.SubVec(z, x)

	corr := &mat.Dense{}
	corr.Mul(gain, inn)
	smoothed := mat.NewVecDense(f.d, nil)
	smoothed.AddVec(x, corr.ColView(0))

	// p = (I - K)*pPred
	eye, err := matrix.ScaledIdentity(f.d, 1.0)
	if err != nil {
		return nil, err
	}
	ik := &mat.Dense{}
	ik.Sub(eye, gain)
	pCorr := &mat.Dense{}
	pCorr.Mul(ik, f.pPred)

	p, err := matrix.SymFromDense(pCorr)
	if err != nil {
		return nil, err
	}

	f.inn.CopyVec(inn)
	f.k.Copy(gain)
	f.p = p

	return estimate.NewBaseWithCov(smoothed, f.p)
}

// Run runs one predict and update step of the channel filter for state x
// and measurement z and returns the smoothed estimate.
// It returns error if either the prediction or the update fails.
func (f *KF) Run(x, z mat.Vector) (filter.Estimate, error) {
	pred, err := f.Predict(x)
	if err != nil {
		return nil, err
	}

	return f.Update(pred.Val(), z)
}

// Cov returns KF covariance
func (f *KF) Cov() mat.Symmetric {
	cov := mat.NewSymDense(f.p.SymmetricDim(), nil)
	cov.CopySym(f.p)

	return cov
}

// Gain returns Kalman gain
func (f *KF) Gain() mat.Matrix {
	gain := &mat.Dense{}
	gain.CloneFrom(f.k)

	return gain
}
