package sim

import (
	"fmt"

	filter "github.com/ctrlworks/pose-estimate"
	"github.com/ctrlworks/pose-estimate/batch"
	"github.com/ctrlworks/pose-estimate/model"
	"github.com/ctrlworks/pose-estimate/rnd"
	"github.com/ctrlworks/pose-estimate/sample"
	"gonum.org/v1/gonum/mat"
)

// Config describes a synthetic rover run.
type Config struct {
	// Steps is the number of generated samples past the seed
	Steps int
	// DT is the sampling period
	DT float64
	// Speed is the constant forward speed
	Speed float64
	// Steer is the constant raw steering command
	Steer float64
	// YawRate is the constant body yaw rate reported by the gyro
	YawRate float64
	// Confidence is the camera confidence attached to every sample
	Confidence float64
	// CamNoise corrupts the camera position channel; nil leaves it ideal
	CamNoise filter.Noise
	// CamCov corrupts the camera position channel with zero-mean
	// correlated noise of the given covariance; nil disables it
	CamCov mat.Symmetric
	// GyroNoise corrupts the gyro channel; nil leaves it ideal
	GyroNoise filter.Noise
}

// Telemetry generates a synthetic telemetry run through the kinematic
// model and returns the samples along with the ideal ground truth
// trajectory. The first sample seeds the estimator, so Steps+1 samples
// are returned for Steps trajectory points.
// It returns error if the config is invalid or propagation fails.
func Telemetry(c *Config) ([]*sample.Sample, batch.Trajectory, error) {
	if c.Steps < 1 || c.DT <= 0 {
		return nil, nil, fmt.Errorf("invalid simulation config: %+v", c)
	}

	m := model.NewKinematic()
	x := mat.NewVecDense(model.StateDim, nil)

	// correlated camera draws for the whole run, one column per sample
	var camDraws *mat.Dense
	if c.CamCov != nil {
		var err error
		camDraws, err = rnd.WithCovN(c.CamCov, c.Steps+1)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to draw correlated camera noise: %v", err)
		}
	}
	camDraw := func(i int) mat.Vector {
		if camDraws == nil {
			return nil
		}
		return camDraws.ColView(i)
	}

	samples := make([]*sample.Sample, 0, c.Steps+1)
	samples = append(samples, c.observe(x, camDraw(0)))

	truth := make(batch.Trajectory, 0, c.Steps)

	u := mat.NewVecDense(model.InputDim, nil)
	u.SetVec(model.RateZ, c.YawRate)
	u.SetVec(model.Speed, c.Speed)
	u.SetVec(model.DT, c.DT)
	u.SetVec(model.Steer, c.Steer)

	for i := 0; i < c.Steps; i++ {
		next, err := m.Propagate(x, u)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to propagate rover state: %v", err)
		}
		x.CopyVec(next)

		samples = append(samples, c.observe(x, camDraw(i+1)))
		truth = append(truth, batch.PoseState{
			X:     x.AtVec(model.PosX),
			Y:     x.AtVec(model.PosY),
			Z:     x.AtVec(model.PosZ),
			Yaw:   x.AtVec(model.Yaw),
			Pitch: x.AtVec(model.Pitch),
			Speed: c.Speed,
		})
	}

	return samples, truth, nil
}

// observe builds a telemetry sample for state x, corrupting the camera
// and gyro channels with the configured noise. camDraw is the correlated
// camera perturbation for this sample; nil when CamCov is unset.
func (c *Config) observe(x *mat.VecDense, camDraw mat.Vector) *sample.Sample {
	cam := [3]float64{x.AtVec(model.PosX), x.AtVec(model.PosY), x.AtVec(model.PosZ)}
	if c.CamNoise != nil {
		n := c.CamNoise.Sample()
		for i := 0; i < 3 && i < n.Len(); i++ {
			cam[i] += n.AtVec(i)
		}
	}
	if camDraw != nil {
		for i := 0; i < 3 && i < camDraw.Len(); i++ {
			cam[i] += camDraw.AtVec(i)
		}
	}

	gyro := [3]float64{0, 0, c.YawRate}
	if c.GyroNoise != nil {
		n := c.GyroNoise.Sample()
		for i := 0; i < 3 && i < n.Len(); i++ {
			gyro[i] += n.AtVec(i)
		}
	}

	return &sample.Sample{
		Command:          "run",
		MaxSpeed:         c.Speed,
		SteerAngle:       c.Steer,
		SensorSpeed:      c.Speed,
		CameraPos:        cam,
		CameraRot:        sample.Rotation(x.AtVec(model.Yaw), x.AtVec(model.Pitch)),
		CameraConfidence: c.Confidence,
		Gyro:             gyro,
		DT:               c.DT,
	}
}

// TrajectoryPoints returns the X/Y ground track of trajectory t stored
// in the columns of a two column matrix, one row per pose.
func TrajectoryPoints(t batch.Trajectory) *mat.Dense {
	if len(t) == 0 {
		return mat.NewDense(1, 2, nil)
	}

	points := mat.NewDense(len(t), 2, nil)
	for i, p := range t {
		points.Set(i, 0, p.X)
		points.Set(i, 1, p.Y)
	}

	return points
}

// SamplePoints returns the X/Y camera track of samples stored in the
// columns of a two column matrix, one row per sample.
func SamplePoints(samples []*sample.Sample) *mat.Dense {
	if len(samples) == 0 {
		return mat.NewDense(1, 2, nil)
	}

	points := mat.NewDense(len(samples), 2, nil)
	for i, s := range samples {
		points.Set(i, 0, s.CameraPos[0])
		points.Set(i, 1, s.CameraPos[1])
	}

	return points
}
