package sim

import (
	"testing"

	"github.com/milosgajdos/go-slam/estimate"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestNewSLAMPlot(t *testing.T) {
	assert := assert.New(t)

	x, err := estimate.New(
		mat.NewVecDense(5, []float64{0, 0, 0, 10, 10}),
		mat.NewSymDense(5, []float64{
			1, 0, 0, 0, 0,
			0, 1, 0, 0, 0,
			0, 0, 1, 0, 0,
			0, 0, 0, 2, 0.5,
			0, 0, 0, 0.5, 1,
		}),
	)
	assert.NoError(err)

	h := NewHistory()
	for _, p := range [][]float64{{0, 0, 0}, {1, 0, 0}, {2, 1, 0}} {
		f := &Frame{
			Truth:         mat.NewVecDense(3, p),
			DeadReckoning: mat.NewVecDense(3, p),
		}
		assert.NoError(h.Add(f, x))
	}

	plt, err := NewSLAMPlot(h, x, landmarks)
	assert.NotNil(plt)
	assert.NoError(err)

	plt, err = NewSLAMPlot(nil, nil, nil)
	assert.Nil(plt)
	assert.Error(err)

	plt, err = NewSLAMPlot(NewHistory(), x, landmarks)
	assert.Nil(plt)
	assert.Error(err)
}

func TestEllipse(t *testing.T) {
	assert := assert.New(t)

	mu := mat.NewVecDense(2, []float64{1, -1})
	cov := mat.NewSymDense(2, []float64{4, 1, 1, 2})

	pts, err := ellipse(mu, cov, 2.0)
	assert.NoError(err)
	assert.Len(pts, ellipsePoints+1)

	var inv mat.Dense
	assert.NoError(inv.Inverse(cov))

	// every outline point lies at Mahalanobis distance k from the mean
	for _, p := range pts {
		d := mat.NewVecDense(2, []float64{p.X - 1, p.Y + 1})
		assert.InDelta(4.0, mat.Inner(d, &inv, d), 1e-9)
	}
	assert.InDelta(pts[0].X, pts[len(pts)-1].X, 1e-12)
	assert.InDelta(pts[0].Y, pts[len(pts)-1].Y, 1e-12)
}
