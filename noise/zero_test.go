package noise

import (
	"errors"
	"testing"

	slam "github.com/milosgajdos/go-slam"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

var _ slam.Noise = (*Zero)(nil)

func TestNewZero(t *testing.T) {
	assert := assert.New(t)

	e, err := NewZero(2)
	assert.NotNil(e)
	assert.NoError(err)

	for _, size := range []int{0, -10} {
		e, err := NewZero(size)
		assert.Nil(e)
		assert.True(errors.Is(err, slam.ErrConfig))
	}
}

func TestZeroMeanCov(t *testing.T) {
	assert := assert.New(t)

	e, err := NewZero(2)
	assert.NoError(err)

	assert.True(mat.Equal(mat.NewSymDense(2, nil), e.Cov()))
	assert.EqualValues([]float64{0, 0}, e.Mean())
}

func TestZeroSample(t *testing.T) {
	assert := assert.New(t)

	e, err := NewZero(3)
	assert.NoError(err)

	sample1 := e.Sample()
	assert.Equal(3, sample1.Len())
	assert.Equal([]float64{0, 0, 0}, mat.Col(nil, 0, sample1))

	e.Reset()
	assert.Equal(sample1, e.Sample())
}

func TestZeroString(t *testing.T) {
	assert := assert.New(t)

	str := `Zero{
Mean=[0 0]
Cov=⎡0  0⎤
    ⎣0  0⎦
}`

	e, err := NewZero(2)
	assert.NotNil(e)
	assert.NoError(err)
	assert.Equal(str, e.String())
}
