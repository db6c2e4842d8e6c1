package slam

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObservationError(t *testing.T) {
	assert := assert.New(t)

	cause := fmt.Errorf("singular innovation covariance: %w", ErrNumerical)
	err := &ObservationError{Index: 2, Landmark: 1, Err: cause}
	assert.True(errors.Is(err, ErrNumerical))
	assert.False(errors.Is(err, ErrInvalidInput))
	assert.Equal("observation 2 (landmark 1): singular innovation covariance: numerical error", err.Error())

	err = &ObservationError{Index: 0, Landmark: NoLandmark, Err: ErrInvalidInput}
	assert.Equal("observation 0: invalid input", err.Error())

	var oe *ObservationError
	assert.True(errors.As(fmt.Errorf("step: %w", err), &oe))
	assert.Equal(0, oe.Index)
}

func TestDims(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(3, StateDim(0))
	assert.Equal(7, StateDim(2))
	assert.Equal(3, LandmarkOffset(0))
	assert.Equal(5, LandmarkOffset(1))
}
