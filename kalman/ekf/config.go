package ekf

import (
	"fmt"
	"math"

	slam "github.com/milosgajdos/go-slam"
	"github.com/milosgajdos/go-slam/angle"
	"github.com/milosgajdos/go-slam/matrix"
	"gonum.org/v1/gonum/mat"
)

// Config contains EKF SLAM parameters
type Config struct {
	// DT is filter time step [s]
	DT float64
	// Q is process noise covariance over x, y and yaw
	Q mat.Symmetric
	// R is measurement noise covariance over range and bearing
	R mat.Symmetric
	// LandmarkCov is covariance assigned to newly added landmarks
	LandmarkCov mat.Symmetric
	// Gate is Mahalanobis distance threshold for creating new landmarks
	Gate float64
	// InitCovScale scales identity initial pose covariance
	InitCovScale float64
	// MaxRange ignores observations further than MaxRange; 0 disables the check
	MaxRange float64
}

// DefaultConfig returns default EKF SLAM configuration
func DefaultConfig() *Config {
	return &Config{
		DT:           0.01,
		Q:            Diag(0.5, 0.5, angle.Radians(30.0)),
		R:            Diag(0.5, 0.5),
		LandmarkCov:  matrix.ScaledIdentity(slam.LandmarkDim, 1.0),
		Gate:         2.0,
		InitCovScale: 1.0,
		MaxRange:     20.0,
	}
}

// Diag returns diagonal covariance matrix from standard deviations std.
func Diag(std ...float64) *mat.SymDense {
	cov := mat.NewSymDense(len(std), nil)
	for i, s := range std {
		cov.SetSym(i, i, s*s)
	}

	return cov
}

// Validate checks that the configuration values are valid.
// Returned errors wrap slam.ErrConfig.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("missing config: %w", slam.ErrConfig)
	}

	if !finite(c.DT) || c.DT <= 0 {
		return fmt.Errorf("time step must be positive, got %v: %w", c.DT, slam.ErrConfig)
	}

	for _, cov := range []struct {
		name string
		m    mat.Symmetric
		dim  int
	}{
		{name: "process noise", m: c.Q, dim: slam.PoseDim},
		{name: "measurement noise", m: c.R, dim: slam.ObservationDim},
		{name: "landmark covariance", m: c.LandmarkCov, dim: slam.LandmarkDim},
	} {
		if cov.m == nil || cov.m.SymmetricDim() != cov.dim {
			return fmt.Errorf("%s must be %dx%d: %w", cov.name, cov.dim, cov.dim, slam.ErrConfig)
		}
		if !matrix.IsFinite(cov.m) || !matrix.IsPosDef(cov.m) {
			return fmt.Errorf("%s must be positive definite: %w", cov.name, slam.ErrConfig)
		}
	}

	if !finite(c.Gate) || c.Gate <= 0 {
		return fmt.Errorf("gate must be positive, got %v: %w", c.Gate, slam.ErrConfig)
	}

	if !finite(c.InitCovScale) || c.InitCovScale <= 0 {
		return fmt.Errorf("initial covariance scale must be positive, got %v: %w", c.InitCovScale, slam.ErrConfig)
	}

	if !finite(c.MaxRange) || c.MaxRange < 0 {
		return fmt.Errorf("max range must be non-negative, got %v: %w", c.MaxRange, slam.ErrConfig)
	}

	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
