package estimate

import (
	"fmt"

	slam "github.com/milosgajdos/go-slam"
	"gonum.org/v1/gonum/mat"
)

// State is SLAM estimate: agent pose followed by landmark positions and their joint covariance.
// State is never modified once created; filter operations return new State values.
type State struct {
	// val is estimated state vector
	val *mat.VecDense
	// cov is estimated covariance
	cov *mat.SymDense
}

// New returns new State given state vector val and covariance cov.
// It returns error if val is not 3 + 2*N long or if cov dimension does not match val length.
func New(val mat.Vector, cov mat.Symmetric) (*State, error) {
	if val == nil || cov == nil {
		return nil, fmt.Errorf("missing state or covariance: %w", slam.ErrInvariant)
	}

	n := val.Len()
	if n < slam.PoseDim || (n-slam.PoseDim)%slam.LandmarkDim != 0 {
		return nil, fmt.Errorf("invalid state length %d: %w", n, slam.ErrInvariant)
	}

	if c := cov.SymmetricDim(); c != n {
		return nil, fmt.Errorf("invalid dimensions. Val: %d, Cov: %d x %d: %w", n, c, c, slam.ErrInvariant)
	}

	v := &mat.VecDense{}
	v.CloneFromVec(val)

	c := mat.NewSymDense(n, nil)
	c.CopySym(cov)

	return &State{
		val: v,
		cov: c,
	}, nil
}

// Val returns estimated state vector
func (s *State) Val() mat.Vector {
	v := &mat.VecDense{}
	v.CloneFromVec(s.val)

	return v
}

// Cov returns covariance estimate
func (s *State) Cov() mat.Symmetric {
	cov := mat.NewSymDense(s.cov.SymmetricDim(), nil)
	cov.CopySym(s.cov)

	return cov
}

// Len returns state vector length
func (s *State) Len() int {
	return s.val.Len()
}

// NumLandmarks returns the number of estimated landmarks
func (s *State) NumLandmarks() int {
	return (s.val.Len() - slam.PoseDim) / slam.LandmarkDim
}

// Pose returns estimated agent pose: x, y, yaw
func (s *State) Pose() mat.Vector {
	pose := mat.NewVecDense(slam.PoseDim, nil)
	pose.CopyVec(s.val.SliceVec(0, slam.PoseDim))

	return pose
}

// Yaw returns estimated agent heading
func (s *State) Yaw() float64 {
	return s.val.AtVec(2)
}

// PoseCov returns covariance of the agent pose
func (s *State) PoseCov() mat.Symmetric {
	return s.block(0, slam.PoseDim)
}

// Landmark returns estimated position of landmark i.
// It returns error if there is no such landmark.
func (s *State) Landmark(i int) (mat.Vector, error) {
	if i < 0 || i >= s.NumLandmarks() {
		return nil, fmt.Errorf("invalid landmark index %d: %d landmarks", i, s.NumLandmarks())
	}

	off := slam.LandmarkOffset(i)
	lm := mat.NewVecDense(slam.LandmarkDim, nil)
	lm.CopyVec(s.val.SliceVec(off, off+slam.LandmarkDim))

	return lm, nil
}

// LandmarkCov returns covariance block of landmark i.
// It returns error if there is no such landmark.
func (s *State) LandmarkCov(i int) (mat.Symmetric, error) {
	if i < 0 || i >= s.NumLandmarks() {
		return nil, fmt.Errorf("invalid landmark index %d: %d landmarks", i, s.NumLandmarks())
	}

	return s.block(slam.LandmarkOffset(i), slam.LandmarkDim), nil
}

func (s *State) block(i, n int) *mat.SymDense {
	b := mat.NewSymDense(n, nil)
	for r := 0; r < n; r++ {
		for c := r; c < n; c++ {
			b.SetSym(r, c, s.cov.At(i+r, i+c))
		}
	}

	return b
}

// String implements the Stringer interface.
func (s *State) String() string {
	return fmt.Sprintf("State{\nVal=%v\nCov=%v\n}",
		mat.Formatted(s.val.T(), mat.Prefix("    "), mat.Squeeze()),
		mat.Formatted(s.cov, mat.Prefix("    "), mat.Squeeze()))
}
