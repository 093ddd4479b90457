package config

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	assert := assert.New(t)

	s := Default()
	assert.NotNil(s)
	assert.True(s.UseUKF)
	assert.True(s.Alpha > 0)
	assert.True(s.MeasurementNoise > 0)
	assert.Equal(UKFOnly, s.Variant())
}

func TestLoadPartial(t *testing.T) {
	assert := assert.New(t)

	s := Default()
	doc := `{"alpha": 0.5, "kalmanFilterCamera": true}`

	err := s.Load(strings.NewReader(doc))
	assert.NoError(err)

	// overridden fields
	assert.Equal(0.5, s.Alpha)
	assert.True(s.KalmanFilterCamera)

	// unset fields retain defaults
	assert.Equal(Default().Kappa, s.Kappa)
	assert.Equal(Default().ProcessNoise, s.ProcessNoise)
	assert.True(s.UseUKF)
}

func TestLoadInvalid(t *testing.T) {
	assert := assert.New(t)

	s := Default()
	err := s.Load(strings.NewReader(`{not json`))
	assert.Error(err)

	// settings left untouched on invalid document
	assert.Equal(*Default(), *s)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	assert := assert.New(t)

	s := Default()
	s.Alpha = 0.33
	s.KalmanFilterGyro = true
	s.SmoothLength = 9

	var buf bytes.Buffer
	assert.NoError(s.Save(&buf))

	loaded := Default()
	assert.NoError(loaded.Load(&buf))
	assert.Equal(*s, *loaded)
}

func TestVariant(t *testing.T) {
	assert := assert.New(t)

	s := Default()

	s.UseUKF = false
	assert.Equal(Passthrough, s.Variant())

	s.UseUKF = true
	s.KalmanFilterCamera = true
	assert.Equal(CameraKalmanUKF, s.Variant())

	s.KalmanFilterCamera = false
	s.KalmanFilterGyro = true
	assert.Equal(GyroKalmanUKF, s.Variant())

	s.KalmanFilterCamera = true
	assert.Equal(FullKalmanUKF, s.Variant())

	for _, v := range []Variant{Passthrough, UKFOnly, CameraKalmanUKF, GyroKalmanUKF, FullKalmanUKF} {
		assert.NotEqual("unknown", v.String())
	}
}
