package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestNewInitCond(t *testing.T) {
	assert := assert.New(t)

	state := mat.NewVecDense(StateDim, []float64{1.0, 2.0, 3.0, 0.1, 0.2})
	cov := mat.NewSymDense(StateDim, nil)
	for i := 0; i < StateDim; i++ {
		cov.SetSym(i, i, 1.0)
	}

	ic := NewInitCond(state, cov)
	assert.NotNil(ic)

	s := ic.State()
	for i := 0; i < StateDim; i++ {
		assert.Equal(state.AtVec(i), s.AtVec(i))
	}

	c := ic.Cov()
	for i := 0; i < StateDim; i++ {
		assert.Equal(cov.At(i, i), c.At(i, i))
	}
}

func TestPropagateStationary(t *testing.T) {
	assert := assert.New(t)

	m := NewKinematic()
	x := mat.NewVecDense(StateDim, []float64{2.0, -1.0, 0.5, 0.3, 0.05})
	// zero rates, zero speed, neutral steering: pose must not move
	u := mat.NewVecDense(InputDim, []float64{0, 0, 0, 0, 0.1, SteerNeutral})

	next, err := m.Propagate(x, u)
	assert.NoError(err)
	for i := 0; i < StateDim; i++ {
		assert.InDelta(x.AtVec(i), next.AtVec(i), 1e-12)
	}
}

func TestPropagateStraightLine(t *testing.T) {
	assert := assert.New(t)

	m := NewKinematic()
	x := mat.NewVecDense(StateDim, nil)
	u := mat.NewVecDense(InputDim, []float64{0, 0, 0, 1.0, 0.5, SteerNeutral})

	next, err := m.Propagate(x, u)
	assert.NoError(err)
	// driving at 1 m/s for 0.5s with zero yaw moves along +X only
	assert.InDelta(0.5, next.AtVec(PosX), 1e-12)
	assert.InDelta(0.0, next.AtVec(PosY), 1e-12)
	assert.InDelta(0.0, next.AtVec(PosZ), 1e-12)
	assert.InDelta(0.0, next.AtVec(Yaw), 1e-12)
}

func TestPropagateGyroTurn(t *testing.T) {
	assert := assert.New(t)

	m := NewKinematic()
	x := mat.NewVecDense(StateDim, nil)
	// positive yaw rate turns the rover left
	u := mat.NewVecDense(InputDim, []float64{0, 0, 1.0, 0, 0.1, SteerNeutral})

	next, err := m.Propagate(x, u)
	assert.NoError(err)
	assert.True(next.AtVec(Yaw) > 0)

	// negative yaw rate mirrors the turn
	u.SetVec(RateZ, -1.0)
	mirror, err := m.Propagate(x, u)
	assert.NoError(err)
	assert.InDelta(next.AtVec(Yaw), -mirror.AtVec(Yaw), 1e-12)
}

func TestPropagateInvalidDims(t *testing.T) {
	assert := assert.New(t)

	m := NewKinematic()
	x := mat.NewVecDense(StateDim, nil)
	u := mat.NewVecDense(InputDim, nil)

	next, err := m.Propagate(mat.NewVecDense(3, nil), u)
	assert.Nil(next)
	assert.Error(err)

	next, err = m.Propagate(x, mat.NewVecDense(2, nil))
	assert.Nil(next)
	assert.Error(err)

	in, out := m.Dims()
	assert.Equal(StateDim, in)
	assert.Equal(InputDim, out)
}
