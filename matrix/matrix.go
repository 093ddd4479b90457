package matrix

import (
	"fmt"
	"math"

	"github.com/milosgajdos/matrix"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// RowSums returns a slice containing m row sums.
// It panics if m is nil.
func RowSums(m *mat.Dense) []float64 {
	rows, _ := m.Dims()
	sum := make([]float64, rows)

	for i := 0; i < rows; i++ {
		sum[i] = floats.Sum(m.RawRowView(i))
	}

	return sum
}

// ColSums returns a slice containing m column sums.
// It panics if m is nil.
func ColSums(m *mat.Dense) []float64 {
	_, cols := m.Dims()
	sum := make([]float64, cols)

	for i := 0; i < cols; i++ {
		sum[i] = mat.Sum(m.ColView(i))
	}

	return sum
}

// Sqrt returns a square root factor S of m such that S*S' == m for
// symmetric positive definite m. It uses SVD rather than Cholesky: a
// covariance that has drifted from positive definiteness degrades into
// near-zero columns instead of failing outright.
// It returns error if the SVD factorization fails.
func Sqrt(m mat.Matrix) (*mat.Dense, error) {
	var svd mat.SVD
	ok := svd.Factorize(m, mat.SVDFull)
	if !ok {
		return nil, fmt.Errorf("SVD factorization failed")
	}

	sqrt := new(mat.Dense)
	svd.UTo(sqrt)

	vals := svd.Values(nil)
	for i := range vals {
		vals[i] = math.Sqrt(vals[i])
	}
	diag := mat.NewDiagDense(len(vals), vals)
	sqrt.Mul(sqrt, diag)

	return sqrt, nil
}

// Condition repairs a covariance matrix that has drifted from symmetric
// positive definite form: diagonal entries smaller than floor are raised
// to floor and all off-diagonal entries are zeroed. Cross-correlations
// are discarded to guarantee a usable matrix for the next square root.
// It panics if cov is nil.
func Condition(cov mat.Symmetric, floor float64) *mat.SymDense {
	n := cov.SymmetricDim()
	fixed := mat.NewSymDense(n, nil)

	for i := 0; i < n; i++ {
		d := cov.At(i, i)
		if d < floor || math.IsNaN(d) {
			d = floor
		}
		fixed.SetSym(i, i, d)
	}

	return fixed
}

// Sanitize replaces non-finite entries of m in place: NaN entries are
// zeroed and infinite entries are clamped to +/- sentinel. It keeps a
// diverging covariance from contaminating subsequent filter cycles.
// It panics if m is nil.
func Sanitize(m *mat.SymDense, sentinel float64) {
	n := m.SymmetricDim()

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := m.At(i, j)
			switch {
			case math.IsNaN(v):
				m.SetSym(i, j, 0)
			case math.IsInf(v, 1):
				m.SetSym(i, j, sentinel)
			case math.IsInf(v, -1):
				m.SetSym(i, j, -sentinel)
			}
		}
	}
}

// SymFromDense copies the upper triangle of m into a new symmetric matrix.
// It returns error if m is not square.
func SymFromDense(m mat.Matrix) (*mat.SymDense, error) {
	rows, cols := m.Dims()
	if rows != cols {
		return nil, fmt.Errorf("invalid matrix dimensions: [%d x %d]", rows, cols)
	}

	s := mat.NewSymDense(rows, nil)
	for i := 0; i < rows; i++ {
		for j := i; j < cols; j++ {
			s.SetSym(i, j, m.At(i, j))
		}
	}

	return s, nil
}

// ScaledIdentity returns val*I of size n.
// It returns error if n is not positive.
func ScaledIdentity(n int, val float64) (*mat.SymDense, error) {
	eye, err := matrix.NewDenseValIdentity(n, val)
	if err != nil {
		return nil, err
	}

	return SymFromDense(eye)
}
