package sim

import (
	"errors"
	"math"
	"testing"

	slam "github.com/milosgajdos/go-slam"
	"github.com/milosgajdos/go-slam/estimate"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestNEES(t *testing.T) {
	assert := assert.New(t)

	truth := mat.NewVecDense(3, []float64{1, 2, math.Pi - 0.05})
	pose := mat.NewVecDense(3, []float64{1.2, 1.9, -math.Pi + 0.05})
	cov := mat.NewSymDense(3, []float64{
		0.04, 0, 0,
		0, 0.01, 0,
		0, 0, 0.01,
	})

	// yaw error wraps to 0.1
	e, err := NEES(truth, pose, cov)
	assert.NoError(err)
	assert.InDelta(0.04/0.04+0.01/0.01+0.01/0.01, e, 1e-9)

	e, err = NEES(truth, pose, mat.NewSymDense(3, nil))
	assert.Equal(0.0, e)
	assert.True(errors.Is(err, slam.ErrNumerical))

	_, err = NEES(truth, mat.NewVecDense(2, nil), cov)
	assert.True(errors.Is(err, slam.ErrInvalidInput))
}

func TestMeanNEES(t *testing.T) {
	assert := assert.New(t)

	h := NewHistory()
	assert.True(math.IsNaN(MeanNEES(h)))

	for i, d := range []float64{0.1, 0.2} {
		x, err := estimate.New(mat.NewVecDense(3, []float64{d, 0, 0}), mat.NewSymDense(3, []float64{
			0.01, 0, 0,
			0, 1, 0,
			0, 0, 1,
		}))
		assert.NoError(err)

		f := &Frame{
			Truth:         mat.NewVecDense(3, nil),
			DeadReckoning: mat.NewVecDense(3, nil),
		}
		assert.NoError(h.Add(f, x))
		assert.Equal(i+1, h.Len())
	}

	// (1 + 4) / 2
	assert.InDelta(2.5, MeanNEES(h), 1e-9)
}

func TestAssociations(t *testing.T) {
	assert := assert.New(t)

	a := NewAssociations()
	assert.True(math.IsNaN(a.Accuracy()))

	assert.NoError(a.Add([]int{5, 7}, []int{0, 1}))
	assert.NoError(a.Add([]int{5, 7}, []int{0, 1}))
	assert.Equal(1.0, a.Accuracy())

	// swapped association and a skipped observation
	assert.NoError(a.Add([]int{5, 7}, []int{1, slam.NoLandmark}))
	assert.InDelta(4.0/5.0, a.Accuracy(), 1e-12)

	// duplicate landmark
	assert.NoError(a.Add([]int{5}, []int{2}))
	assert.Equal(1, a.Duplicates())
	assert.InDelta(4.0/6.0, a.Accuracy(), 1e-12)

	err := a.Add([]int{5}, nil)
	assert.True(errors.Is(err, slam.ErrInvalidInput))
}
