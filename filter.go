package slam

import "gonum.org/v1/gonum/mat"

// Filter is a simultaneous localization and mapping filter.
type Filter interface {
	// Predict propagates estimate x to the next step given control input u
	Predict(x Estimate, u mat.Vector) (Estimate, error)
	// Update corrects estimate x using a single observation z.
	// It returns the corrected estimate and the index of the landmark z was associated with.
	Update(x Estimate, z mat.Vector) (Estimate, int, error)
}

// Propagator propagates agent pose to the next step
type Propagator interface {
	// Propagate propagates pose given control input u
	Propagate(pose, u mat.Vector) (mat.Vector, error)
}

// Observer observes a landmark relative to agent pose
type Observer interface {
	// Observe returns the measurement of landmark lm seen from pose
	Observe(lm, pose mat.Vector) (mat.Vector, error)
}

// Estimate is SLAM filter estimate
type Estimate interface {
	// Val returns the full state vector: pose followed by landmark positions
	Val() mat.Vector
	// Cov returns estimate covariance
	Cov() mat.Symmetric
	// Len returns state vector length
	Len() int
	// NumLandmarks returns the number of estimated landmarks
	NumLandmarks() int
	// Pose returns agent pose estimate
	Pose() mat.Vector
	// PoseCov returns agent pose covariance
	PoseCov() mat.Symmetric
	// Landmark returns position estimate of landmark i
	Landmark(i int) (mat.Vector, error)
	// LandmarkCov returns covariance of landmark i
	LandmarkCov(i int) (mat.Symmetric, error)
}

// Noise is dynamical system noise
type Noise interface {
	// Mean returns noise mean
	Mean() []float64
	// Cov returns covariance matrix of the noise
	Cov() mat.Symmetric
	// Sample returns a sample of the noise
	Sample() mat.Vector
	// Reset resets the noise
	Reset()
}

const (
	// PoseDim is the length of agent pose: x, y, yaw
	PoseDim = 3
	// LandmarkDim is the length of landmark position: x, y
	LandmarkDim = 2
	// ControlDim is the length of control input: linear and angular velocity
	ControlDim = 2
	// ObservationDim is the length of observation: range and bearing
	ObservationDim = 2
)

// StateDim returns the length of the state vector with n landmarks.
func StateDim(n int) int {
	return PoseDim + LandmarkDim*n
}

// LandmarkOffset returns the index of the first state element of landmark i.
func LandmarkOffset(i int) int {
	return PoseDim + LandmarkDim*i
}
