package sample

import (
	"fmt"
	"math"
	"testing"

	"github.com/ctrlworks/pose-estimate/model"
	"github.com/stretchr/testify/assert"
)

func record(conf float64) string {
	return fmt.Sprintf(
		"fwd,0.8,125,0,0.4,1.0,2.0,0.1,1,0,0,0,%f,0,0,9.81,0.01,0.02,0.03,12,-4,30,0.05",
		conf,
	)
}

func TestParseRecord(t *testing.T) {
	assert := assert.New(t)

	s, err := ParseRecord(record(0.9))
	assert.NotNil(s)
	assert.NoError(err)

	assert.Equal("fwd", s.Command)
	assert.Equal(0.8, s.MaxSpeed)
	assert.Equal(125.0, s.SteerAngle)
	assert.Equal(0.4, s.SensorSpeed)
	assert.Equal([3]float64{1.0, 2.0, 0.1}, s.CameraPos)
	assert.Equal(0.9, s.CameraConfidence)
	assert.Equal([3]float64{0.01, 0.02, 0.03}, s.Gyro)
	assert.Equal(0.05, s.DT)
	assert.Nil(s.GPS)

	// confidence clamped into [0,1]
	s, err = ParseRecord(record(1.7))
	assert.NoError(err)
	assert.Equal(1.0, s.CameraConfidence)

	s, err = ParseRecord(record(-0.2))
	assert.NoError(err)
	assert.Equal(0.0, s.CameraConfidence)
}

func TestParseRecordGPS(t *testing.T) {
	assert := assert.New(t)

	s, err := ParseRecord(record(0.5) + ",10.0,20.0,0.5")
	assert.NotNil(s)
	assert.NoError(err)
	assert.NotNil(s.GPS)
	assert.Equal([3]float64{10.0, 20.0, 0.5}, *s.GPS)
}

func TestParseRecordMalformed(t *testing.T) {
	assert := assert.New(t)

	// wrong field cardinality
	s, err := ParseRecord("fwd,1.0,120")
	assert.Nil(s)
	assert.Error(err)

	// extra field between the two valid cardinalities
	s, err = ParseRecord(record(0.5) + ",10.0")
	assert.Nil(s)
	assert.Error(err)

	// non numeric field
	s, err = ParseRecord("fwd,0.8,125,0,abc,1.0,2.0,0.1,1,0,0,0,0.9,0,0,9.81,0.01,0.02,0.03,12,-4,30,0.05")
	assert.Nil(s)
	assert.Error(err)
}

func TestYawPitchRoundTrip(t *testing.T) {
	assert := assert.New(t)

	for _, angles := range [][2]float64{
		{0, 0},
		{0.5, 0.1},
		{-1.2, -0.3},
		{2.5, 0.7},
	} {
		s := &Sample{CameraRot: Rotation(angles[0], angles[1])}
		yaw, pitch := s.YawPitch()
		assert.InDelta(angles[0], yaw, 1e-10)
		assert.InDelta(angles[1], pitch, 1e-10)
	}
}

func TestMeasurementInput(t *testing.T) {
	assert := assert.New(t)

	s := &Sample{
		SteerAngle:  130,
		SensorSpeed: 0.4,
		CameraPos:   [3]float64{1, 2, 3},
		CameraRot:   Rotation(0.3, -0.1),
		Gyro:        [3]float64{0.01, 0.02, 0.03},
		DT:          0.05,
	}

	z := s.Measurement()
	assert.Equal(model.StateDim, z.Len())
	assert.Equal(1.0, z.AtVec(model.PosX))
	assert.Equal(3.0, z.AtVec(model.PosZ))
	assert.InDelta(0.3, z.AtVec(model.Yaw), 1e-10)
	assert.InDelta(-0.1, z.AtVec(model.Pitch), 1e-10)

	u := s.Input()
	assert.Equal(model.InputDim, u.Len())
	assert.Equal(0.03, u.AtVec(model.RateZ))
	assert.Equal(0.4, u.AtVec(model.Speed))
	assert.Equal(0.05, u.AtVec(model.DT))
	assert.Equal(130.0, u.AtVec(model.Steer))

	// identity quaternion yields zero yaw and pitch
	id := &Sample{CameraRot: Rotation(0, 0)}
	yaw, pitch := id.YawPitch()
	assert.InDelta(0.0, yaw, 1e-12)
	assert.InDelta(0.0, pitch, 1e-12)
	assert.InDelta(1.0, id.CameraRot.Real, 1e-12)
	assert.InDelta(0.0, math.Abs(id.CameraRot.Imag), 1e-12)
}
