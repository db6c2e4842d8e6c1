// Package angle provides angle normalization helpers.
package angle

import "math"

// Wrap maps angle a into (-Pi, Pi].
func Wrap(a float64) float64 {
	if a > -math.Pi && a <= math.Pi {
		return a
	}

	w := math.Mod(a+math.Pi, 2*math.Pi)
	if w < 0 {
		w += 2 * math.Pi
	}
	w -= math.Pi
	// Mod lands on -Pi for odd multiples of Pi; the interval is open at -Pi
	if w <= -math.Pi {
		w = math.Pi
	}

	return w
}

// Diff returns the wrapped difference a - b.
func Diff(a, b float64) float64 {
	return Wrap(a - b)
}

// Radians converts deg degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Degrees converts rad radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}
