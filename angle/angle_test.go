package angle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	assert := assert.New(t)
	delta := 1e-12

	for _, test := range []struct {
		in   float64
		want float64
	}{
		{in: 0, want: 0},
		{in: math.Pi, want: math.Pi},
		{in: -math.Pi, want: math.Pi},
		{in: 3 * math.Pi, want: math.Pi},
		{in: math.Pi / 2, want: math.Pi / 2},
		{in: -math.Pi / 2, want: -math.Pi / 2},
		{in: 2 * math.Pi, want: 0},
		{in: 5*math.Pi/2 + 4*math.Pi, want: math.Pi / 2},
		{in: -7 * math.Pi / 4, want: math.Pi / 4},
	} {
		assert.InDelta(test.want, Wrap(test.in), delta, "wrap(%v)", test.in)
	}
}

func TestWrapCrossesPi(t *testing.T) {
	assert := assert.New(t)

	for _, eps := range []float64{1e-6, 1e-3, 0.1, 1.0} {
		assert.InDelta(-math.Pi+eps, Wrap(math.Pi+eps), 1e-9)
		assert.InDelta(math.Pi-eps, Wrap(-math.Pi-eps), 1e-9)
	}
}

func TestWrapIdempotent(t *testing.T) {
	assert := assert.New(t)

	for a := -20.0; a <= 20.0; a += 0.37 {
		w := Wrap(a)
		assert.True(w > -math.Pi && w <= math.Pi, "wrap(%v) = %v out of range", a, w)
		assert.Equal(w, Wrap(w))
	}
	assert.Equal(math.Pi, Wrap(Wrap(math.Pi)))
}

func TestDiff(t *testing.T) {
	assert := assert.New(t)

	assert.InDelta(-0.2, Diff(math.Pi-0.1, -math.Pi+0.1), 1e-12)
	assert.InDelta(0.5, Diff(1.0, 0.5), 1e-12)
}

func TestRadians(t *testing.T) {
	assert := assert.New(t)

	assert.InDelta(math.Pi, Radians(180), 1e-15)
	assert.InDelta(math.Pi/6, Radians(30), 1e-15)
}

func TestDegrees(t *testing.T) {
	assert := assert.New(t)

	assert.InDelta(180.0, Degrees(math.Pi), 1e-12)
	assert.InDelta(0.5, Radians(Degrees(0.5)), 1e-15)
}
