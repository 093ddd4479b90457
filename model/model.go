package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// State vector indices.
const (
	PosX = iota
	PosY
	PosZ
	Yaw
	Pitch
)

// Input vector indices.
const (
	RateX = iota
	RateY
	RateZ
	Speed
	DT
	Steer
)

const (
	// StateDim is the dimension of the pose state vector.
	// Roll is excluded: it does not affect horizontal motion.
	StateDim = 5
	// InputDim is the dimension of the control input vector
	InputDim = 6
	// SteerNeutral is the raw steering command for straight-ahead driving
	SteerNeutral = 120.0
)

const (
	// steerGain converts raw steering units to a wheel angle in radians
	steerGain = 0.003
	// steerBias corrects for steering linkage asymmetry
	steerBias = 0.02
	// wheelBase is the axle distance in meters
	wheelBase = 0.3
	// gyroBlend weighs the gyro yaw rate against the wheel/steering turn rate
	gyroBlend = 0.7
	// rateCouple folds residual body rate into the pitch channel
	rateCouple = 0.05
	// slipGain models lateral drift induced by steering
	slipGain = 0.1
)

// InitCond implements filter.InitCond
type InitCond struct {
	state *mat.VecDense
	cov   *mat.SymDense
}

// NewInitCond creates new InitCond and returns it
func NewInitCond(state mat.Vector, cov mat.Symmetric) *InitCond {
	s := &mat.VecDense{}
	s.CloneFromVec(state)

	c := mat.NewSymDense(cov.SymmetricDim(), nil)
	c.CopySym(cov)

	return &InitCond{
		state: s,
		cov:   c,
	}
}

// State returns initial state
func (c *InitCond) State() mat.Vector {
	state := mat.NewVecDense(c.state.Len(), nil)
	state.CopyVec(c.state)

	return state
}

// Cov returns initial covariance
func (c *InitCond) Cov() mat.Symmetric {
	cov := mat.NewSymDense(c.cov.SymmetricDim(), nil)
	cov.CopySym(c.cov)

	return cov
}

// Kinematic is the rover motion model. It advances pose
// [px, py, pz, yaw, pitch] given control input
// [wx, wy, wz, speed, dt, steer].
type Kinematic struct{}

// NewKinematic creates new Kinematic model and returns it
func NewKinematic() *Kinematic {
	return &Kinematic{}
}

// Propagate propagates pose x to the next step given control input u.
// It is deterministic and allocates a single output vector: it runs once
// per sigma point in every prediction cycle.
// It returns error if x or u have invalid dimensions.
func (k *Kinematic) Propagate(x, u mat.Vector) (mat.Vector, error) {
	if x.Len() != StateDim {
		return nil, fmt.Errorf("invalid state vector length: %d", x.Len())
	}

	if u.Len() != InputDim {
		return nil, fmt.Errorf("invalid input vector length: %d", u.Len())
	}

	wx, wy, wz := u.AtVec(RateX), u.AtVec(RateY), u.AtVec(RateZ)
	speed := u.AtVec(Speed)
	dt := u.AtVec(DT)
	steerRad := (u.AtVec(Steer) - SteerNeutral) * steerGain

	// turn rate blends the gyro yaw rate with the wheel/steering model
	wheelRate := speed / wheelBase * math.Tan(steerRad)
	yaw := x.AtVec(Yaw) + dt*(gyroBlend*wz+(1-gyroBlend)*wheelRate) + dt*steerBias*steerRad

	// pitch integrates the lateral body rate; residual rate magnitude
	// contributes a small mounting misalignment correction
	rate := math.Sqrt(wx*wx + wy*wy + wz*wz)
	pitch := x.AtVec(Pitch) + dt*wy + dt*rateCouple*(rate-math.Abs(wy))

	// decompose speed into a body frame vector using the new yaw/pitch;
	// steering drags the body sideways by a slip term
	slip := speed * slipGain * steerRad
	vx := speed*math.Cos(yaw)*math.Cos(pitch) - slip*math.Sin(yaw)
	vy := speed*math.Sin(yaw)*math.Cos(pitch) + slip*math.Cos(yaw)
	vz := speed * math.Sin(pitch)

	next := mat.NewVecDense(StateDim, nil)
	next.SetVec(PosX, x.AtVec(PosX)+dt*vx)
	next.SetVec(PosY, x.AtVec(PosY)+dt*vy)
	next.SetVec(PosZ, x.AtVec(PosZ)+dt*vz)
	next.SetVec(Yaw, yaw)
	next.SetVec(Pitch, pitch)

	return next, nil
}

// Dims returns state and input dimensions of the model
func (k *Kinematic) Dims() (int, int) {
	return StateDim, InputDim
}
