package gaussian

import (
	"fmt"
	"math"

	"github.com/ctrlworks/pose-estimate/batch"
	"github.com/ctrlworks/pose-estimate/smooth"
)

var _ smooth.Smoother = (*Gaussian)(nil)

// Gaussian is a separable Gaussian kernel smoother over a fused pose
// trajectory. Every coordinate channel is rewritten with a weighted
// moving average of its neighbours; weights follow a Gaussian with
// standard deviation sigma over a window of the configured length.
// Smoothing again smooths further: the pass is not idempotent.
type Gaussian struct {
	// sigma is kernel standard deviation
	sigma float64
	// length is kernel window length
	length int
	// kernel holds precomputed symmetric kernel weights
	kernel []float64
}

// New creates new Gaussian trajectory smoother and returns it.
// It returns error if sigma is not positive or length is smaller than 1.
func New(sigma float64, length int) (*Gaussian, error) {
	if sigma <= 0 {
		return nil, fmt.Errorf("invalid kernel sigma: %f", sigma)
	}

	if length < 1 {
		return nil, fmt.Errorf("invalid kernel length: %d", length)
	}

	kernel := make([]float64, 2*length+1)
	for i := -length; i <= length; i++ {
		kernel[i+length] = math.Exp(-float64(i*i) / (2 * sigma * sigma))
	}

	return &Gaussian{
		sigma:  sigma,
		length: length,
		kernel: kernel,
	}, nil
}

// Smooth rewrites trajectory t in place with its kernel smoothed values.
// Windows truncated at the trajectory edges renormalize over the weights
// that remain inside.
func (g *Gaussian) Smooth(t batch.Trajectory) error {
	if len(t) == 0 {
		return nil
	}

	channels := [][]float64{
		make([]float64, len(t)),
		make([]float64, len(t)),
		make([]float64, len(t)),
		make([]float64, len(t)),
		make([]float64, len(t)),
		make([]float64, len(t)),
	}
	for i, p := range t {
		channels[0][i] = p.X
		channels[1][i] = p.Y
		channels[2][i] = p.Z
		channels[3][i] = p.Yaw
		channels[4][i] = p.Pitch
		channels[5][i] = p.Speed
	}

	for _, ch := range channels {
		g.smoothChannel(ch)
	}

	for i := range t {
		t[i] = batch.PoseState{
			X:     channels[0][i],
			Y:     channels[1][i],
			Z:     channels[2][i],
			Yaw:   channels[3][i],
			Pitch: channels[4][i],
			Speed: channels[5][i],
		}
	}

	return nil
}

func (g *Gaussian) smoothChannel(ch []float64) {
	src := make([]float64, len(ch))
	copy(src, ch)

	for i := range ch {
		var sum, wsum float64
		for k := -g.length; k <= g.length; k++ {
			j := i + k
			if j < 0 || j >= len(src) {
				continue
			}
			w := g.kernel[k+g.length]
			sum += w * src[j]
			wsum += w
		}
		ch[i] = sum / wsum
	}
}
