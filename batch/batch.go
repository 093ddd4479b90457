package batch

import (
	"fmt"
	"math"

	"github.com/ctrlworks/pose-estimate/config"
	"github.com/ctrlworks/pose-estimate/kalman/kf"
	"github.com/ctrlworks/pose-estimate/kalman/ukf"
	"github.com/ctrlworks/pose-estimate/model"
	"github.com/ctrlworks/pose-estimate/sample"
	"gonum.org/v1/gonum/mat"
)

// PoseState is a single fused pose in the output trajectory.
type PoseState struct {
	// X, Y, Z is the fused position
	X, Y, Z float64
	// Yaw is the fused heading angle
	Yaw float64
	// Pitch is the fused pitch angle
	Pitch float64
	// Speed is the speed channel: wheel telemetry, or camera derived
	// when the camera channel filter is active
	Speed float64
}

// Trajectory is an ordered sequence of fused pose states, one per input
// sample past the seed. It is owned by the caller once returned.
type Trajectory []PoseState

// Run drives the configured estimator variant over a recorded sample
// sequence and returns the fused trajectory. The first sample seeds the
// initial mean with identity covariance; every following sample runs the
// enabled channel filters, then one UKF predict and update cycle, and
// appends the fused state.
// It returns error if fewer than two samples are supplied or if the
// filters fail to be constructed.
func Run(samples []*sample.Sample, settings *config.Settings) (Trajectory, error) {
	if len(samples) < 2 {
		return nil, fmt.Errorf("insufficient samples: %d", len(samples))
	}

	variant := settings.Variant()
	if variant == config.Passthrough {
		return passthrough(samples), nil
	}

	seed := samples[0]

	cov := mat.NewSymDense(model.StateDim, nil)
	for i := 0; i < model.StateDim; i++ {
		cov.SetSym(i, i, 1.0)
	}
	ic := model.NewInitCond(seed.Measurement(), cov)

	f, err := ukf.New(model.NewKinematic(), ic, &ukf.Config{Alpha: settings.Alpha, Kappa: settings.Kappa},
		settings.ProcessNoise, settings.MeasurementNoise)
	if err != nil {
		return nil, fmt.Errorf("failed to create UKF: %v", err)
	}

	var camKF, gyroKF *kf.KF
	if variant == config.CameraKalmanUKF || variant == config.FullKalmanUKF {
		camKF, err = newChannel(seed.CameraPos, settings)
		if err != nil {
			return nil, fmt.Errorf("failed to create camera channel filter: %v", err)
		}
	}
	if variant == config.GyroKalmanUKF || variant == config.FullKalmanUKF {
		gyroKF, err = newChannel(seed.Gyro, settings)
		if err != nil {
			return nil, fmt.Errorf("failed to create gyro channel filter: %v", err)
		}
	}

	x := mat.NewVecDense(model.StateDim, nil)
	x.CopyVec(seed.Measurement())

	var cam mat.Vector = vec3(seed.CameraPos)
	var gyro mat.Vector = vec3(seed.Gyro)

	traj := make(Trajectory, 0, len(samples)-1)

	for _, s := range samples[1:] {
		speed := s.SensorSpeed

		if gyroKF != nil {
			est, err := gyroKF.Run(gyro, vec3(s.Gyro))
			if err != nil {
				return nil, fmt.Errorf("gyro channel failed: %v", err)
			}
			gyro = est.Val()
		} else {
			gyro = vec3(s.Gyro)
		}

		if camKF != nil {
			prev := mat.NewVecDense(3, nil)
			prev.CopyVec(cam)
			est, err := camKF.Run(cam, vec3(s.CameraPos))
			if err != nil {
				return nil, fmt.Errorf("camera channel failed: %v", err)
			}
			cam = est.Val()
			if s.DT > 0 {
				speed = distance(cam, prev) / s.DT
			}
		} else {
			cam = vec3(s.CameraPos)
		}

		u := s.Input()
		u.SetVec(model.RateX, gyro.AtVec(0))
		u.SetVec(model.RateY, gyro.AtVec(1))
		u.SetVec(model.RateZ, gyro.AtVec(2))
		u.SetVec(model.Speed, speed)

		z := s.Measurement()
		z.SetVec(model.PosX, cam.AtVec(0))
		z.SetVec(model.PosY, cam.AtVec(1))
		z.SetVec(model.PosZ, cam.AtVec(2))

		pred, err := f.Predict(x, u)
		if err != nil {
			return nil, fmt.Errorf("prediction failed: %v", err)
		}

		est, err := f.Update(pred.Val(), z, s.CameraConfidence)
		if err != nil {
			return nil, fmt.Errorf("update failed: %v", err)
		}
		x.CopyVec(est.Val())

		traj = append(traj, PoseState{
			X:     x.AtVec(model.PosX),
			Y:     x.AtVec(model.PosY),
			Z:     x.AtVec(model.PosZ),
			Yaw:   x.AtVec(model.Yaw),
			Pitch: x.AtVec(model.Pitch),
			Speed: speed,
		})
	}

	return traj, nil
}

// passthrough maps raw measurements straight onto the trajectory.
func passthrough(samples []*sample.Sample) Trajectory {
	traj := make(Trajectory, 0, len(samples)-1)

	for _, s := range samples[1:] {
		yaw, pitch := s.YawPitch()
		traj = append(traj, PoseState{
			X:     s.CameraPos[0],
			Y:     s.CameraPos[1],
			Z:     s.CameraPos[2],
			Yaw:   yaw,
			Pitch: pitch,
			Speed: s.SensorSpeed,
		})
	}

	return traj
}

func newChannel(seed [3]float64, settings *config.Settings) (*kf.KF, error) {
	cov := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		cov.SetSym(i, i, 1.0)
	}
	ic := model.NewInitCond(vec3(seed), cov)

	return kf.New(3, ic, settings.ChannelProcessNoise, settings.ChannelMeasurementNoise)
}

func vec3(v [3]float64) *mat.VecDense {
	return mat.NewVecDense(3, []float64{v[0], v[1], v[2]})
}

func distance(a, b mat.Vector) float64 {
	var d float64
	for i := 0; i < a.Len(); i++ {
		diff := a.AtVec(i) - b.AtVec(i)
		d += diff * diff
	}

	return math.Sqrt(d)
}
