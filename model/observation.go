package model

import (
	"fmt"
	"math"

	slam "github.com/milosgajdos/go-slam"
	"github.com/milosgajdos/go-slam/angle"
	"github.com/milosgajdos/go-slam/matrix"
	"gonum.org/v1/gonum/mat"
)

// RangeBearing observes landmarks as range and bearing relative to agent pose.
type RangeBearing struct {
	// r is measurement noise covariance
	r *mat.SymDense
}

// NewRangeBearing creates new range-bearing observation model with measurement noise covariance r.
// It returns error if r is not a 2x2 positive definite matrix.
func NewRangeBearing(r mat.Symmetric) (*RangeBearing, error) {
	if r == nil || r.SymmetricDim() != slam.ObservationDim {
		return nil, fmt.Errorf("invalid measurement noise dimension: %w", slam.ErrConfig)
	}

	if !matrix.IsPosDef(r) {
		return nil, fmt.Errorf("measurement noise not positive definite: %w", slam.ErrConfig)
	}

	cov := mat.NewSymDense(slam.ObservationDim, nil)
	cov.CopySym(r)

	return &RangeBearing{r: cov}, nil
}

// Cov returns measurement noise covariance
func (o *RangeBearing) Cov() mat.Symmetric {
	cov := mat.NewSymDense(slam.ObservationDim, nil)
	cov.CopySym(o.r)

	return cov
}

// Observe returns predicted range and bearing of landmark lm seen from pose.
// It returns error if either lm or pose have invalid dimensions.
func (o *RangeBearing) Observe(lm, pose mat.Vector) (mat.Vector, error) {
	return Measure(lm, pose)
}

// Measure returns noiseless range and bearing of landmark lm seen from pose.
// Bearing is measured relative to pose heading and wrapped into (-Pi, Pi].
func Measure(lm, pose mat.Vector) (mat.Vector, error) {
	dx, dy, err := delta(lm, pose)
	if err != nil {
		return nil, err
	}

	return mat.NewVecDense(slam.ObservationDim, []float64{
		math.Hypot(dx, dy),
		angle.Wrap(math.Atan2(dy, dx) - pose.AtVec(2)),
	}), nil
}

// Innovation returns the difference between observation z and the predicted observation of lm from pose.
// Bearing difference is wrapped into (-Pi, Pi].
func (o *RangeBearing) Innovation(lm, pose, z mat.Vector) (mat.Vector, error) {
	if z == nil || z.Len() != slam.ObservationDim {
		return nil, fmt.Errorf("invalid observation vector: %w", slam.ErrInvalidInput)
	}

	zp, err := o.Observe(lm, pose)
	if err != nil {
		return nil, err
	}

	return mat.NewVecDense(slam.ObservationDim, []float64{
		z.AtVec(0) - zp.AtVec(0),
		angle.Wrap(z.AtVec(1) - zp.AtVec(1)),
	}), nil
}

// Jacobian returns 2 x (3+2n) observation Jacobian of landmark i out of n landmarks.
// Pose partial derivatives occupy columns [0, 3) and landmark partials columns [3+2i, 3+2i+2).
// It returns error if i is out of range or if lm coincides with the pose position.
func (o *RangeBearing) Jacobian(lm, pose mat.Vector, i, n int) (*mat.Dense, error) {
	if i < 0 || i >= n {
		return nil, fmt.Errorf("invalid landmark index %d of %d: %w", i, n, slam.ErrInvariant)
	}

	dx, dy, err := delta(lm, pose)
	if err != nil {
		return nil, err
	}

	q := dx*dx + dy*dy
	if q == 0 {
		return nil, fmt.Errorf("landmark %d coincides with pose: %w", i, slam.ErrNumerical)
	}
	sq := math.Sqrt(q)

	gp := mat.NewDense(slam.ObservationDim, slam.PoseDim, []float64{
		-dx / sq, -dy / sq, 0.0,
		dy / q, -dx / q, -1.0,
	})
	gl := mat.NewDense(slam.ObservationDim, slam.LandmarkDim, []float64{
		dx / sq, dy / sq,
		-dy / q, dx / q,
	})

	h := mat.NewDense(slam.ObservationDim, slam.StateDim(n), nil)
	if err := matrix.SetBlock(h, 0, 0, gp); err != nil {
		return nil, fmt.Errorf("pose jacobian: %v: %w", err, slam.ErrInvariant)
	}
	if err := matrix.SetBlock(h, 0, slam.LandmarkOffset(i), gl); err != nil {
		return nil, fmt.Errorf("landmark jacobian: %v: %w", err, slam.ErrInvariant)
	}

	return h, nil
}

// InnovationCov returns innovation covariance S = H*P*H' + R.
// It returns error if h and p dimensions do not agree.
func (o *RangeBearing) InnovationCov(h mat.Matrix, p mat.Symmetric) (*mat.SymDense, error) {
	r, c := h.Dims()
	if r != slam.ObservationDim || c != p.SymmetricDim() {
		return nil, fmt.Errorf("dimensions must agree: H(%dx%d) P(%dx%d): %w",
			r, c, p.SymmetricDim(), p.SymmetricDim(), slam.ErrInvariant)
	}

	// P*H'
	ph := &mat.Dense{}
	ph.Mul(p, h.T())

	// H*P*H'
	s := &mat.Dense{}
	s.Mul(h, ph)
	s.Add(s, o.r)

	return matrix.Symmetrize(s)
}

// InverseObserve returns global position of the landmark observed as z from pose.
// It returns error if either pose or z have invalid dimensions.
func (o *RangeBearing) InverseObserve(pose, z mat.Vector) (mat.Vector, error) {
	if pose == nil || pose.Len() != slam.PoseDim {
		return nil, fmt.Errorf("invalid pose vector: %w", slam.ErrInvalidInput)
	}

	if z == nil || z.Len() != slam.ObservationDim {
		return nil, fmt.Errorf("invalid observation vector: %w", slam.ErrInvalidInput)
	}

	rng, phi := z.AtVec(0), pose.AtVec(2)+z.AtVec(1)

	return mat.NewVecDense(slam.LandmarkDim, []float64{
		pose.AtVec(0) + rng*math.Cos(phi),
		pose.AtVec(1) + rng*math.Sin(phi),
	}), nil
}

func delta(lm, pose mat.Vector) (float64, float64, error) {
	if lm == nil || lm.Len() != slam.LandmarkDim {
		return 0, 0, fmt.Errorf("invalid landmark vector: %w", slam.ErrInvalidInput)
	}

	if pose == nil || pose.Len() != slam.PoseDim {
		return 0, 0, fmt.Errorf("invalid pose vector: %w", slam.ErrInvalidInput)
	}

	return lm.AtVec(0) - pose.AtVec(0), lm.AtVec(1) - pose.AtVec(1), nil
}
