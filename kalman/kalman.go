package kalman

import (
	slam "github.com/milosgajdos/go-slam"
	"gonum.org/v1/gonum/mat"
)

// Kalman is Kalman SLAM filter
type Kalman interface {
	// slam.Filter is SLAM filter
	slam.Filter
	// Init returns initial filter estimate
	Init() slam.Estimate
	// Step predicts estimate x given control u and corrects it with observations z in their order
	Step(x slam.Estimate, u mat.Vector, z []mat.Vector) (slam.Estimate, *Report, error)
}

// Report summarizes a single filter step
type Report struct {
	// Landmarks stores landmark index each observation was associated with.
	// Observations which were skipped before association are set to slam.NoLandmark.
	Landmarks []int
	// Added is the number of landmarks added to the state
	Added int
	// Warnings contains errors of observations which were skipped
	Warnings []error
}
