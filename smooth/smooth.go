package smooth

import "github.com/ctrlworks/pose-estimate/batch"

// Smoother is a post-hoc trajectory smoother
type Smoother interface {
	// Smooth rewrites the trajectory in place with its smoothed values
	Smooth(batch.Trajectory) error
}
