package filter

import "gonum.org/v1/gonum/mat"

// Filter is a pose estimation filter.
type Filter interface {
	// Predict estimates the next pose of the robot given control input
	Predict(mat.Vector, mat.Vector) (Estimate, error)
	// Update fuses a measurement weighted by its confidence score
	Update(mat.Vector, mat.Vector, float64) (Estimate, error)
}

// Propagator propagates robot pose to the next step
type Propagator interface {
	// Propagate propagates pose x to the next step given control input u
	Propagate(x, u mat.Vector) (mat.Vector, error)
	// Dims returns state and input dimensions of the model
	Dims() (state int, input int)
}

// InitCond is initial state condition of the filter
type InitCond interface {
	// State returns initial filter state
	State() mat.Vector
	// Cov returns initial state covariance
	Cov() mat.Symmetric
}

// Estimate is pose filter estimate
type Estimate interface {
	// Val returns estimate value
	Val() mat.Vector
	// Cov returns estimate covariance
	Cov() mat.Symmetric
}

// Noise is measurement or process noise
type Noise interface {
	// Mean returns noise mean
	Mean() []float64
	// Cov returns covariance matrix of the noise
	Cov() mat.Symmetric
	// Sample returns a sample of the noise
	Sample() mat.Vector
	// Reset resets the noise
	Reset()
}
