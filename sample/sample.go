package sample

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ctrlworks/pose-estimate/model"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

const (
	// NumFields is the field count of a telemetry record without GPS
	NumFields = 23
	// NumFieldsGPS is the field count of a telemetry record with GPS
	NumFieldsGPS = 26
)

// Sample is a single parsed telemetry sample from the rover.
type Sample struct {
	// Command is the raw command string echoed by the rover
	Command string
	// MaxSpeed is the commanded speed limit
	MaxSpeed float64
	// SteerAngle is the raw steering command
	SteerAngle float64
	// SensorAngle is the sensor turret angle
	SensorAngle float64
	// SensorSpeed is the wheel speed telemetry
	SensorSpeed float64
	// CameraPos is the visual odometry position
	CameraPos [3]float64
	// CameraRot is the camera orientation
	CameraRot quat.Number
	// CameraConfidence is the vision confidence score in [0,1]
	CameraConfidence float64
	// Accel is the 3-axis accelerometer reading
	Accel [3]float64
	// Gyro is the 3-axis gyroscope reading
	Gyro [3]float64
	// Mag is the 3-axis magnetometer reading
	Mag [3]float64
	// DT is elapsed time since the previous sample
	DT float64
	// GPS is the optional GPS position
	GPS *[3]float64
}

// ParseRecord parses a comma separated telemetry record into a Sample.
// Records carry either NumFields or NumFieldsGPS fields; any other
// cardinality is rejected here, before the estimator sees the sample.
// It returns error if the record is malformed.
func ParseRecord(record string) (*Sample, error) {
	fields := strings.Split(strings.TrimSpace(record), ",")
	if len(fields) != NumFields && len(fields) != NumFieldsGPS {
		return nil, fmt.Errorf("invalid record field count: %d", len(fields))
	}

	vals := make([]float64, len(fields)-1)
	for i := 1; i < len(fields); i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid record field %d: %v", i, err)
		}
		vals[i-1] = v
	}

	s := &Sample{
		Command:          strings.TrimSpace(fields[0]),
		MaxSpeed:         vals[0],
		SteerAngle:       vals[1],
		SensorAngle:      vals[2],
		SensorSpeed:      vals[3],
		CameraPos:        [3]float64{vals[4], vals[5], vals[6]},
		CameraRot:        quat.Number{Real: vals[7], Imag: vals[8], Jmag: vals[9], Kmag: vals[10]},
		CameraConfidence: math.Min(1, math.Max(0, vals[11])),
		Accel:            [3]float64{vals[12], vals[13], vals[14]},
		Gyro:             [3]float64{vals[15], vals[16], vals[17]},
		Mag:              [3]float64{vals[18], vals[19], vals[20]},
		DT:               vals[21],
	}

	if len(fields) == NumFieldsGPS {
		s.GPS = &[3]float64{vals[22], vals[23], vals[24]}
	}

	return s, nil
}

// YawPitch extracts yaw and pitch angles from the camera orientation.
// Roll is discarded: it does not enter the pose state.
func (s *Sample) YawPitch() (yaw, pitch float64) {
	q := s.CameraRot

	yaw = math.Atan2(2*(q.Real*q.Kmag+q.Imag*q.Jmag), 1-2*(q.Jmag*q.Jmag+q.Kmag*q.Kmag))

	sp := 2 * (q.Real*q.Jmag - q.Kmag*q.Imag)
	sp = math.Min(1, math.Max(-1, sp))
	pitch = math.Asin(sp)

	return yaw, pitch
}

// Rotation builds a camera orientation quaternion from yaw and pitch
// with zero roll. It is the inverse of YawPitch.
func Rotation(yaw, pitch float64) quat.Number {
	qz := quat.Number{Real: math.Cos(yaw / 2), Kmag: math.Sin(yaw / 2)}
	qy := quat.Number{Real: math.Cos(pitch / 2), Jmag: math.Sin(pitch / 2)}

	return quat.Mul(qz, qy)
}

// Measurement returns the pose measurement vector
// [px, py, pz, yaw, pitch] carried by the sample.
func (s *Sample) Measurement() *mat.VecDense {
	yaw, pitch := s.YawPitch()

	z := mat.NewVecDense(model.StateDim, nil)
	z.SetVec(model.PosX, s.CameraPos[0])
	z.SetVec(model.PosY, s.CameraPos[1])
	z.SetVec(model.PosZ, s.CameraPos[2])
	z.SetVec(model.Yaw, yaw)
	z.SetVec(model.Pitch, pitch)

	return z
}

// Input returns the control input vector
// [wx, wy, wz, speed, dt, steer] carried by the sample.
func (s *Sample) Input() *mat.VecDense {
	u := mat.NewVecDense(model.InputDim, nil)
	u.SetVec(model.RateX, s.Gyro[0])
	u.SetVec(model.RateY, s.Gyro[1])
	u.SetVec(model.RateZ, s.Gyro[2])
	u.SetVec(model.Speed, s.SensorSpeed)
	u.SetVec(model.DT, s.DT)
	u.SetVec(model.Steer, s.SteerAngle)

	return u
}
