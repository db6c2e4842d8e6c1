package sim

import (
	"fmt"

	slam "github.com/milosgajdos/go-slam"
	"gonum.org/v1/gonum/mat"
)

// History records agent trajectories of a simulation run.
type History struct {
	// Truth contains true poses
	Truth []mat.Vector
	// DeadReckoning contains dead reckoning poses
	DeadReckoning []mat.Vector
	// Estimate contains estimated poses
	Estimate []mat.Vector
	// PoseCov contains estimated pose covariances
	PoseCov []mat.Symmetric
}

// NewHistory creates new empty History
func NewHistory() *History {
	return &History{}
}

// Add records truth and dead reckoning poses of frame f along with pose estimate x.
// It returns error if either f or x is nil.
func (h *History) Add(f *Frame, x slam.Estimate) error {
	if f == nil || x == nil {
		return fmt.Errorf("missing frame or estimate: %w", slam.ErrInvalidInput)
	}

	h.Truth = append(h.Truth, mat.VecDenseCopyOf(f.Truth))
	h.DeadReckoning = append(h.DeadReckoning, mat.VecDenseCopyOf(f.DeadReckoning))
	h.Estimate = append(h.Estimate, x.Pose())
	h.PoseCov = append(h.PoseCov, x.PoseCov())

	return nil
}

// Len returns the number of recorded steps
func (h *History) Len() int {
	return len(h.Estimate)
}
