// Package matrix provides dense matrix helpers used to grow and inspect filter state.
package matrix

import (
	"fmt"
	"math"

	mx "github.com/milosgajdos/matrix"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Identity returns n x n identity matrix.
// It returns error if n is not a positive integer.
func Identity(n int) (mat.Matrix, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid identity dimension: %d", n)
	}

	eye, err := mx.NewDenseValIdentity(n, 1.0)
	if err != nil {
		return nil, err
	}

	return eye, nil
}

// ScaledIdentity returns n x n symmetric matrix with s on its diagonal.
func ScaledIdentity(n int, s float64) *mat.SymDense {
	m := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		m.SetSym(i, i, s)
	}

	return m
}

// Augment returns symmetric matrix with block b appended to p along its diagonal.
// Off-diagonal blocks between p and b are set to zero.
func Augment(p, b mat.Symmetric) *mat.SymDense {
	n, m := p.SymmetricDim(), b.SymmetricDim()
	out := mat.NewSymDense(n+m, nil)

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out.SetSym(i, j, p.At(i, j))
		}
	}

	for i := 0; i < m; i++ {
		for j := i; j < m; j++ {
			out.SetSym(n+i, n+j, b.At(i, j))
		}
	}

	return out
}

// SetBlock copies src into dst starting at row i and column j.
// It returns error if src does not fit into dst.
func SetBlock(dst *mat.Dense, i, j int, src mat.Matrix) error {
	dr, dc := dst.Dims()
	sr, sc := src.Dims()
	if i < 0 || j < 0 || i+sr > dr || j+sc > dc {
		return fmt.Errorf("block [%d x %d] at (%d, %d) does not fit [%d x %d]", sr, sc, i, j, dr, dc)
	}

	dst.Slice(i, i+sr, j, j+sc).(*mat.Dense).Copy(src)

	return nil
}

// SymBlock returns a copy of the symmetric diagonal block of s which starts at i and has size n.
// It returns error if the block is out of bounds.
func SymBlock(s mat.Symmetric, i, n int) (*mat.SymDense, error) {
	dim := s.SymmetricDim()
	if i < 0 || n <= 0 || i+n > dim {
		return nil, fmt.Errorf("block %d at %d out of bounds: %d", n, i, dim)
	}

	out := mat.NewSymDense(n, nil)
	for r := 0; r < n; r++ {
		for c := r; c < n; c++ {
			out.SetSym(r, c, s.At(i+r, i+c))
		}
	}

	return out, nil
}

// Symmetrize returns symmetric matrix (m + m')/2.
// It returns error if m is not square.
func Symmetrize(m mat.Matrix) (*mat.SymDense, error) {
	r, c := m.Dims()
	if r != c {
		return nil, fmt.Errorf("matrix not square: [%d x %d]", r, c)
	}

	out := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			out.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}

	return out, nil
}

// MaxAsymmetry returns the largest absolute difference between m[i,j] and m[j,i].
// It panics if m is not square.
func MaxAsymmetry(m mat.Matrix) float64 {
	r, c := m.Dims()
	if r != c {
		panic(mat.ErrShape)
	}

	max := 0.0
	for i := 0; i < r; i++ {
		for j := i + 1; j < r; j++ {
			max = math.Max(max, math.Abs(m.At(i, j)-m.At(j, i)))
		}
	}

	return max
}

// IsPosDef returns true if s is positive definite.
func IsPosDef(s mat.Symmetric) bool {
	if s == nil || s.SymmetricDim() == 0 {
		return false
	}

	var chol mat.Cholesky
	return chol.Factorize(s)
}

// IsFinite returns true if none of the elements of m is NaN or Inf.
func IsFinite(m mat.Matrix) bool {
	r, c := m.Dims()
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, m)
		if floats.HasNaN(row) {
			return false
		}
		for _, v := range row {
			if math.IsInf(v, 0) {
				return false
			}
		}
	}

	return true
}

// Trace returns the trace of the diagonal block of s which starts at i and has size n.
func Trace(s mat.Symmetric, i, n int) float64 {
	t := 0.0
	for k := i; k < i+n; k++ {
		t += s.At(k, k)
	}

	return t
}
