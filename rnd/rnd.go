package rnd

import (
	"fmt"
	"math/rand"

	"github.com/ctrlworks/pose-estimate/matrix"
	"gonum.org/v1/gonum/mat"
)

// WithCovN draws n random samples from a zero-mean Normal (aka Gaussian)
// distribution with covariance cov. It returns a matrix which contains
// the generated samples stored in its columns.
// The covariance square root uses SVD rather than Cholesky: an (almost)
// singular cov degrades instead of failing.
// It fails with error if n is not positive or the factorization fails.
func WithCovN(cov mat.Symmetric, n int) (*mat.Dense, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid number of samples requested: %d", n)
	}

	sqrt, err := matrix.Sqrt(cov)
	if err != nil {
		return nil, err
	}

	rows, _ := cov.Dims()
	data := make([]float64, rows*n)
	for i := range data {
		data[i] = rand.NormFloat64()
	}
	samples := mat.NewDense(rows, n, data)
	samples.Mul(sqrt, samples)

	return samples, nil
}
