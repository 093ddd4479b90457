package batch

import (
	"math"
	"os"
	"testing"

	"github.com/ctrlworks/pose-estimate/config"
	"github.com/ctrlworks/pose-estimate/model"
	"github.com/ctrlworks/pose-estimate/sample"
	"github.com/stretchr/testify/assert"
)

var settings *config.Settings

func setup() {
	settings = config.Default()
}

func TestMain(m *testing.M) {
	setup()
	ret := m.Run()
	os.Exit(ret)
}

func stationarySample(confidence float64) *sample.Sample {
	return &sample.Sample{
		Command:          "stop",
		SteerAngle:       model.SteerNeutral,
		CameraPos:        [3]float64{1.0, 2.0, 0.5},
		CameraRot:        sample.Rotation(0.1, 0.05),
		CameraConfidence: confidence,
		DT:               0.1,
	}
}

func stationaryRun(n int) []*sample.Sample {
	samples := make([]*sample.Sample, n)
	for i := range samples {
		samples[i] = stationarySample(0.9)
	}

	return samples
}

func TestRunRequiresSamples(t *testing.T) {
	assert := assert.New(t)

	traj, err := Run(nil, settings)
	assert.Nil(traj)
	assert.Error(err)

	traj, err = Run(stationaryRun(1), settings)
	assert.Nil(traj)
	assert.Error(err)
}

func TestRunStationary(t *testing.T) {
	assert := assert.New(t)

	samples := stationaryRun(10)
	traj, err := Run(samples, settings)
	assert.NoError(err)
	assert.Equal(len(samples)-1, len(traj))

	// constant measurement equal to the seed keeps the fused pose there
	for _, p := range traj {
		assert.InDelta(1.0, p.X, 1e-6)
		assert.InDelta(2.0, p.Y, 1e-6)
		assert.InDelta(0.5, p.Z, 1e-6)
		assert.InDelta(0.1, p.Yaw, 1e-6)
		assert.InDelta(0.05, p.Pitch, 1e-6)
	}
}

func TestRunOutlierConfidence(t *testing.T) {
	assert := assert.New(t)

	spikeAt := 5

	run := func(confidence float64) Trajectory {
		samples := stationaryRun(10)
		spike := stationarySample(confidence)
		spike.CameraPos = [3]float64{6.0, 7.0, 0.5}
		samples[spikeAt] = spike

		traj, err := Run(samples, settings)
		assert.NoError(err)
		return traj
	}

	low := run(0.0)
	high := run(1.0)

	// a zero confidence spike perturbs the fused pose less than the
	// same spike at full confidence
	devLow := math.Hypot(low[spikeAt-1].X-1.0, low[spikeAt-1].Y-2.0)
	devHigh := math.Hypot(high[spikeAt-1].X-1.0, high[spikeAt-1].Y-2.0)
	assert.True(devLow < devHigh)
}

func TestRunPassthrough(t *testing.T) {
	assert := assert.New(t)

	s := config.Default()
	s.UseUKF = false

	samples := stationaryRun(5)
	traj, err := Run(samples, s)
	assert.NoError(err)
	assert.Equal(4, len(traj))

	for _, p := range traj {
		assert.Equal(1.0, p.X)
		assert.Equal(2.0, p.Y)
		assert.InDelta(0.1, p.Yaw, 1e-10)
	}
}

func TestRunChannelVariants(t *testing.T) {
	assert := assert.New(t)

	for _, flags := range [][2]bool{{true, false}, {false, true}, {true, true}} {
		s := config.Default()
		s.KalmanFilterCamera = flags[0]
		s.KalmanFilterGyro = flags[1]

		samples := stationaryRun(8)
		traj, err := Run(samples, s)
		assert.NoError(err)
		assert.Equal(7, len(traj))

		for _, p := range traj {
			assert.False(math.IsNaN(p.X) || math.IsNaN(p.Yaw) || math.IsNaN(p.Speed))
			// stationary camera yields near zero derived speed
			if flags[0] {
				assert.True(p.Speed >= 0)
				assert.True(p.Speed < 0.1)
			}
		}
	}
}
