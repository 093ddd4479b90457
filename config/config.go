package config

import (
	"encoding/json"
	"fmt"
	"io"
)

// Variant is an estimator variant. The auxiliary channel filters and the
// UKF are selected once from the settings flags instead of branching
// through the update path.
type Variant int

const (
	// Passthrough emits raw measurements without fusion
	Passthrough Variant = iota
	// UKFOnly runs the unscented filter with no channel smoothing
	UKFOnly
	// CameraKalmanUKF smooths the camera channel ahead of the UKF
	CameraKalmanUKF
	// GyroKalmanUKF smooths the gyro channel ahead of the UKF
	GyroKalmanUKF
	// FullKalmanUKF smooths both channels ahead of the UKF
	FullKalmanUKF
)

// String implements the Stringer interface.
func (v Variant) String() string {
	switch v {
	case Passthrough:
		return "passthrough"
	case UKFOnly:
		return "ukf"
	case CameraKalmanUKF:
		return "camera-kalman+ukf"
	case GyroKalmanUKF:
		return "gyro-kalman+ukf"
	case FullKalmanUKF:
		return "camera+gyro-kalman+ukf"
	}

	return "unknown"
}

// Settings is the estimator configuration bundle. It is read-only during
// a prediction cycle: build a new value on every configuration change.
type Settings struct {
	// Alpha is the UKF alpha parameter
	Alpha float64 `json:"alpha"`
	// Kappa is the UKF kappa parameter
	Kappa float64 `json:"kappa"`
	// ProcessNoise scales the injected process noise
	ProcessNoise float64 `json:"processNoise"`
	// MeasurementNoise scales the injected measurement noise
	MeasurementNoise float64 `json:"measurementNoise"`
	// UseUKF enables unscented fusion
	UseUKF bool `json:"useUKF"`
	// KalmanFilterCamera enables camera channel smoothing
	KalmanFilterCamera bool `json:"kalmanFilterCamera"`
	// KalmanFilterGyro enables gyro channel smoothing
	KalmanFilterGyro bool `json:"kalmanFilterGyro"`
	// ChannelProcessNoise is process noise of the channel filters
	ChannelProcessNoise float64 `json:"channelProcessNoise"`
	// ChannelMeasurementNoise is measurement noise of the channel filters
	ChannelMeasurementNoise float64 `json:"channelMeasurementNoise"`
	// SmoothSigma is the Gaussian trajectory smoothing kernel stddev
	SmoothSigma float64 `json:"smoothSigma"`
	// SmoothLength is the Gaussian trajectory smoothing window length
	SmoothLength int `json:"smoothLength"`
}

// Default returns settings with documented defaults.
func Default() *Settings {
	return &Settings{
		Alpha:                   0.75,
		Kappa:                   3.0,
		ProcessNoise:            0.01,
		MeasurementNoise:        1.0,
		UseUKF:                  true,
		KalmanFilterCamera:      false,
		KalmanFilterGyro:        false,
		ChannelProcessNoise:     0.01,
		ChannelMeasurementNoise: 0.5,
		SmoothSigma:             1.5,
		SmoothLength:            5,
	}
}

// Load merges a flat JSON settings document from r into s. Fields absent
// from the document retain their prior values. An unreadable or invalid
// document leaves s untouched: estimation never blocks on configuration.
// It returns error describing why the document was rejected.
func (s *Settings) Load(r io.Reader) error {
	prev := *s
	if err := json.NewDecoder(r).Decode(s); err != nil {
		*s = prev
		return fmt.Errorf("failed to load settings: %v", err)
	}

	return nil
}

// Save writes s to w as a flat JSON document.
// It returns error if the document fails to be written.
func (s *Settings) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(s)
}

// Variant maps the settings flags onto the estimator variant.
func (s *Settings) Variant() Variant {
	if !s.UseUKF {
		return Passthrough
	}

	switch {
	case s.KalmanFilterCamera && s.KalmanFilterGyro:
		return FullKalmanUKF
	case s.KalmanFilterCamera:
		return CameraKalmanUKF
	case s.KalmanFilterGyro:
		return GyroKalmanUKF
	}

	return UKFOnly
}
