package model

import (
	"fmt"
	"math"

	slam "github.com/milosgajdos/go-slam"
	"github.com/milosgajdos/go-slam/angle"
	"gonum.org/v1/gonum/mat"
)

// Unicycle is a kinematic unicycle motion model advanced by a fixed time step.
//
//	x' = x + dt*v*cos(yaw)
//	y' = y + dt*v*sin(yaw)
//	yaw' = wrap(yaw + dt*w)
type Unicycle struct {
	// dt is time step
	dt float64
}

// NewUnicycle creates new unicycle model with time step dt and returns it.
// It returns error if dt is not a positive finite number.
func NewUnicycle(dt float64) (*Unicycle, error) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil, fmt.Errorf("invalid time step %v: %w", dt, slam.ErrConfig)
	}

	return &Unicycle{dt: dt}, nil
}

// DT returns model time step
func (m *Unicycle) DT() float64 {
	return m.dt
}

// Propagate propagates pose to the next step given control input u = [v, w].
// It returns error if either pose or u have invalid dimensions.
func (m *Unicycle) Propagate(pose, u mat.Vector) (mat.Vector, error) {
	if err := checkPoseCtl(pose, u); err != nil {
		return nil, err
	}

	x, y, yaw := pose.AtVec(0), pose.AtVec(1), pose.AtVec(2)
	v, w := u.AtVec(0), u.AtVec(1)

	return mat.NewVecDense(slam.PoseDim, []float64{
		x + m.dt*v*math.Cos(yaw),
		y + m.dt*v*math.Sin(yaw),
		angle.Wrap(yaw + m.dt*w),
	}), nil
}

// Jacobian returns 3x3 Jacobian of Propagate with respect to pose evaluated at pose and u.
// It returns error if either pose or u have invalid dimensions.
func (m *Unicycle) Jacobian(pose, u mat.Vector) (*mat.Dense, error) {
	if err := checkPoseCtl(pose, u); err != nil {
		return nil, err
	}

	yaw, v := pose.AtVec(2), u.AtVec(0)

	return mat.NewDense(slam.PoseDim, slam.PoseDim, []float64{
		1.0, 0.0, -m.dt * v * math.Sin(yaw),
		0.0, 1.0, m.dt * v * math.Cos(yaw),
		0.0, 0.0, 1.0,
	}), nil
}

// PoseProjection returns 3 x (3+2n) matrix which selects pose from the state of n landmarks.
func PoseProjection(n int) *mat.Dense {
	fx := mat.NewDense(slam.PoseDim, slam.StateDim(n), nil)
	for i := 0; i < slam.PoseDim; i++ {
		fx.Set(i, i, 1.0)
	}

	return fx
}

func checkPoseCtl(pose, u mat.Vector) error {
	if pose == nil || pose.Len() != slam.PoseDim {
		return fmt.Errorf("invalid pose vector: %w", slam.ErrInvalidInput)
	}

	if u == nil || u.Len() != slam.ControlDim {
		return fmt.Errorf("invalid input vector: %w", slam.ErrInvalidInput)
	}

	return nil
}
