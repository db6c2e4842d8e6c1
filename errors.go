package slam

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig is returned when filter parameters are invalid.
	ErrConfig = errors.New("invalid configuration")
	// ErrNumerical is returned when innovation covariance is singular or ill-conditioned.
	ErrNumerical = errors.New("numerical error")
	// ErrInvariant is returned when state and covariance dimensions disagree.
	ErrInvariant = errors.New("internal invariant violated")
	// ErrInvalidInput is returned for non-finite or malformed control and observation values.
	ErrInvalidInput = errors.New("invalid input")
)

// NoLandmark is the landmark index reported for observations
// which were rejected before association happened.
const NoLandmark = -1

// ObservationError reports a degraded observation which was skipped.
type ObservationError struct {
	// Index is the position of the observation in the step input
	Index int
	// Landmark is the landmark index the observation was associated with
	// or NoLandmark if it was rejected before association
	Landmark int
	// Err is the underlying cause
	Err error
}

// Error implements error interface.
func (e *ObservationError) Error() string {
	if e.Landmark == NoLandmark {
		return fmt.Sprintf("observation %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("observation %d (landmark %d): %v", e.Index, e.Landmark, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ObservationError) Unwrap() error {
	return e.Err
}
