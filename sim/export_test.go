package sim

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/milosgajdos/go-slam/estimate"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestCSVExporter(t *testing.T) {
	assert := assert.New(t)

	h := NewHistory()
	x, err := estimate.New(mat.NewVecDense(3, []float64{1, 2, 0.5}), mat.NewSymDense(3, []float64{
		0.25, 0, 0,
		0, 1, 0,
		0, 0, 0.01,
	}))
	assert.NoError(err)
	f := &Frame{
		Truth:         mat.NewVecDense(3, []float64{1.1, 2.1, 0.4}),
		DeadReckoning: mat.NewVecDense(3, nil),
	}
	assert.NoError(h.Add(f, x))
	assert.NoError(h.Add(f, x))

	var buf bytes.Buffer
	e, err := NewCSVExporter(&buf)
	assert.NoError(err)
	assert.NoError(e.Write(h))

	rows, err := csv.NewReader(&buf).ReadAll()
	assert.NoError(err)
	assert.Len(rows, 3)
	assert.Equal([]string{"step", "x_true", "y_true", "yaw_true", "x", "y", "yaw",
		"x_lo", "x_hi", "y_lo", "y_hi", "yaw_lo", "yaw_hi"}, rows[0])
	assert.Equal([]string{"1", "1.100000", "2.100000", "0.400000", "1.000000", "2.000000", "0.500000",
		"0.000000", "2.000000", "0.000000", "4.000000", "0.300000", "0.700000"}, rows[2])
}
