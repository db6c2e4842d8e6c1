package ekf

import (
	"errors"
	"fmt"
	"math"

	slam "github.com/milosgajdos/go-slam"
	"github.com/milosgajdos/go-slam/angle"
	"github.com/milosgajdos/go-slam/estimate"
	"github.com/milosgajdos/go-slam/kalman"
	"github.com/milosgajdos/go-slam/matrix"
	"github.com/milosgajdos/go-slam/model"
	"gonum.org/v1/gonum/mat"
)

// Logf logs formatted filter diagnostics
type Logf func(format string, v ...interface{})

// Option configures EKF
type Option func(*EKF)

// WithLogger sets EKF logger. Passing nil mutes the logger.
func WithLogger(f Logf) Option {
	return func(k *EKF) {
		if f == nil {
			f = func(string, ...interface{}) {}
		}
		k.logf = f
	}
}

// EKF is Extended Kalman Filter for simultaneous localization and mapping.
// EKF holds no estimate: every operation takes an estimate and returns a new one.
// A single EKF may step independent estimates from multiple goroutines provided its logger is safe for concurrent use.
type EKF struct {
	// m is agent motion model
	m *model.Unicycle
	// o is landmark observation model
	o *model.RangeBearing
	// q is process noise covariance
	q *mat.SymDense
	// lmCov is initial landmark covariance
	lmCov *mat.SymDense
	// gate is Mahalanobis new landmark threshold
	gate float64
	// scale is initial pose covariance scale
	scale float64
	// maxRange is maximum observation range
	maxRange float64
	// logf logs skipped observations
	logf Logf
}

// New creates new EKF and returns it.
// It returns error wrapping slam.ErrConfig if c is not a valid configuration.
func New(c *Config, opts ...Option) (*EKF, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	m, err := model.NewUnicycle(c.DT)
	if err != nil {
		return nil, err
	}

	o, err := model.NewRangeBearing(c.R)
	if err != nil {
		return nil, err
	}

	q := mat.NewSymDense(slam.PoseDim, nil)
	q.CopySym(c.Q)

	lmCov := mat.NewSymDense(slam.LandmarkDim, nil)
	lmCov.CopySym(c.LandmarkCov)

	k := &EKF{
		m:        m,
		o:        o,
		q:        q,
		lmCov:    lmCov,
		gate:     c.Gate,
		scale:    c.InitCovScale,
		maxRange: c.MaxRange,
		logf:     func(string, ...interface{}) {},
	}

	for _, opt := range opts {
		opt(k)
	}

	return k, nil
}

// Init returns initial estimate: agent at the origin with scaled identity covariance and no landmarks.
func (k *EKF) Init() slam.Estimate {
	x := mat.NewVecDense(slam.PoseDim, nil)
	p := matrix.ScaledIdentity(slam.PoseDim, k.scale)

	est, err := estimate.New(x, p)
	if err != nil {
		panic(err)
	}

	return est
}

// Predict propagates pose of x given control input u = [v, w] and grows pose covariance.
// Landmark positions and all covariance blocks other than pose are left untouched.
// It returns error if either u is invalid or x violates state dimensions.
func (k *EKF) Predict(x slam.Estimate, u mat.Vector) (slam.Estimate, error) {
	if u == nil || u.Len() != slam.ControlDim || !matrix.IsFinite(u) {
		return nil, fmt.Errorf("invalid control input: %w", slam.ErrInvalidInput)
	}

	if err := checkDims(x); err != nil {
		return nil, err
	}

	pose := x.Pose()
	poseNext, err := k.m.Propagate(pose, u)
	if err != nil {
		return nil, fmt.Errorf("pose propagation failed: %w", err)
	}

	// motion jacobian evaluated at the propagated pose
	g, err := k.m.Jacobian(poseNext, u)
	if err != nil {
		return nil, fmt.Errorf("motion jacobian failed: %w", err)
	}

	n := x.NumLandmarks()
	fx := model.PoseProjection(n)

	// G'*Ppose*G
	gpg := &mat.Dense{}
	gpg.Product(g.T(), x.PoseCov(), g)

	// Fx'*Q*Fx
	fqf := &mat.Dense{}
	fqf.Product(fx.T(), k.q, fx)

	dim := slam.StateDim(n)
	cov := mat.DenseCopyOf(x.Cov())
	if err := matrix.SetBlock(cov, 0, 0, gpg); err != nil {
		return nil, fmt.Errorf("pose covariance: %v: %w", err, slam.ErrInvariant)
	}
	cov.Add(cov, fqf)

	p, err := matrix.Symmetrize(cov)
	if err != nil {
		return nil, fmt.Errorf("covariance [%d x %d]: %v: %w", dim, dim, err, slam.ErrInvariant)
	}

	val := mat.VecDenseCopyOf(x.Val())
	for i := 0; i < slam.PoseDim; i++ {
		val.SetVec(i, poseNext.AtVec(i))
	}

	return estimate.New(val, p)
}

// Associate returns the index of the landmark in x which observation z most likely belongs to.
// It returns x.NumLandmarks() if no landmark scores below the gate i.e. z is a new landmark.
// Ties are resolved in favour of the lowest landmark index.
func (k *EKF) Associate(x slam.Estimate, z mat.Vector) (int, error) {
	if err := checkObservation(z); err != nil {
		return slam.NoLandmark, err
	}

	if err := checkDims(x); err != nil {
		return slam.NoLandmark, err
	}

	scores, err := k.Scores(x, z)
	if err != nil {
		return slam.NoLandmark, err
	}

	n := x.NumLandmarks()
	best, min := n, math.Inf(1)
	for i, d := range scores {
		if d < min {
			best, min = i, d
		}
	}

	if k.gate < min {
		return n, nil
	}

	return best, nil
}

// Scores returns squared Mahalanobis distances of observation z to every landmark in x.
// Landmarks whose innovation covariance can not be factorized score +Inf.
func (k *EKF) Scores(x slam.Estimate, z mat.Vector) ([]float64, error) {
	pose, p := x.Pose(), x.Cov()
	n := x.NumLandmarks()

	scores := make([]float64, n)
	for i := 0; i < n; i++ {
		lm, err := x.Landmark(i)
		if err != nil {
			return nil, fmt.Errorf("landmark %d: %v: %w", i, err, slam.ErrInvariant)
		}

		y, s, _, err := k.innovation(lm, pose, p, z, i, n)
		if err != nil {
			if errors.Is(err, slam.ErrNumerical) {
				scores[i] = math.Inf(1)
				continue
			}
			return nil, err
		}

		var chol mat.Cholesky
		if ok := chol.Factorize(s); !ok {
			scores[i] = math.Inf(1)
			continue
		}

		sy := &mat.VecDense{}
		if err := chol.SolveVecTo(sy, y); err != nil {
			scores[i] = math.Inf(1)
			continue
		}

		scores[i] = mat.Dot(y, sy)
	}

	return scores, nil
}

// Augment appends landmark observed as z to estimate x.
// New landmark covariance is set to the configured landmark covariance
// and its cross-covariance with the rest of the state is zero.
func (k *EKF) Augment(x slam.Estimate, z mat.Vector) (slam.Estimate, error) {
	if err := checkObservation(z); err != nil {
		return nil, err
	}

	if err := checkDims(x); err != nil {
		return nil, err
	}

	lm, err := k.o.InverseObserve(x.Pose(), z)
	if err != nil {
		return nil, err
	}

	n := x.Len()
	val := mat.NewVecDense(n+slam.LandmarkDim, nil)
	val.SliceVec(0, n).(*mat.VecDense).CopyVec(x.Val())
	val.SliceVec(n, n+slam.LandmarkDim).(*mat.VecDense).CopyVec(lm)

	p := matrix.Augment(x.Cov(), k.lmCov)
	if p.SymmetricDim() != slam.StateDim(x.NumLandmarks()+1) {
		return nil, fmt.Errorf("augmented covariance dimension %d: %w", p.SymmetricDim(), slam.ErrInvariant)
	}

	return estimate.New(val, p)
}

// Correct corrects estimate x using observation z of landmark i.
// It returns error wrapping slam.ErrNumerical if the innovation covariance is singular
// or ill-conditioned; x is not modified in that case.
func (k *EKF) Correct(x slam.Estimate, z mat.Vector, i int) (slam.Estimate, error) {
	if err := checkObservation(z); err != nil {
		return nil, err
	}

	if err := checkDims(x); err != nil {
		return nil, err
	}

	lm, err := x.Landmark(i)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, slam.ErrInvariant)
	}

	pose, p := x.Pose(), x.Cov()
	y, s, h, err := k.innovation(lm, pose, p, z, i, x.NumLandmarks())
	if err != nil {
		return nil, err
	}

	sInv := &mat.Dense{}
	if err := sInv.Inverse(s); err != nil {
		return nil, fmt.Errorf("innovation covariance inverse: %v: %w", err, slam.ErrNumerical)
	}

	// K = P*H'*S^-1
	gain := &mat.Dense{}
	gain.Product(p, h.T(), sInv)

	// x + K*y
	val := &mat.VecDense{}
	val.MulVec(gain, y)
	val.AddVec(x.Val(), val)

	eye, err := matrix.Identity(x.Len())
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, slam.ErrInvariant)
	}

	// (I - K*H)*P
	a := &mat.Dense{}
	a.Mul(gain, h)
	a.Sub(eye, a)
	a.Mul(a, p)

	pCorr, err := matrix.Symmetrize(a)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, slam.ErrInvariant)
	}

	if !matrix.IsFinite(val) || !matrix.IsFinite(pCorr) {
		return nil, fmt.Errorf("non-finite correction: %w", slam.ErrNumerical)
	}

	return estimate.New(val, pCorr)
}

// Update associates observation z with a landmark of x, adds a new landmark if needed
// and corrects x. It returns corrected estimate and the index of the associated landmark.
// On numerical error it returns the estimate before correction together with the error.
// On invalid z it returns x and slam.NoLandmark.
func (k *EKF) Update(x slam.Estimate, z mat.Vector) (slam.Estimate, int, error) {
	i, err := k.Associate(x, z)
	if err != nil {
		return x, slam.NoLandmark, err
	}

	if i == x.NumLandmarks() {
		x, err = k.Augment(x, z)
		if err != nil {
			return nil, i, err
		}
	}

	est, err := k.Correct(x, z, i)
	if err != nil {
		if errors.Is(err, slam.ErrNumerical) {
			return x, i, err
		}
		return nil, i, err
	}

	return est, i, nil
}

// Step runs one EKF SLAM step: it predicts x given control u and then sequentially
// associates and corrects every observation in z in the order given.
// Observations which are invalid or cause numerical errors are skipped and reported in Report.Warnings.
// It returns error if u is invalid or if filter invariants are violated.
func (k *EKF) Step(x slam.Estimate, u mat.Vector, z []mat.Vector) (slam.Estimate, *kalman.Report, error) {
	est, err := k.Predict(x, u)
	if err != nil {
		return nil, nil, err
	}

	report := &kalman.Report{
		Landmarks: make([]int, len(z)),
	}

	for j, zj := range z {
		report.Landmarks[j] = slam.NoLandmark

		// invalid observations are rejected in Update and reported as warnings
		if k.maxRange > 0 && checkObservation(zj) == nil && zj.AtVec(0) > k.maxRange {
			continue
		}

		n := est.NumLandmarks()
		next, i, err := k.Update(est, zj)
		if err != nil {
			if next == nil || !(errors.Is(err, slam.ErrNumerical) || errors.Is(err, slam.ErrInvalidInput)) {
				return nil, nil, fmt.Errorf("observation %d: %w", j, err)
			}
			w := &slam.ObservationError{Index: j, Landmark: i, Err: err}
			k.logf("ekf: skipping %v", w)
			report.Warnings = append(report.Warnings, w)
		}

		// new landmarks persist even if their correction was skipped
		if next.NumLandmarks() > n {
			report.Added++
		}
		report.Landmarks[j] = i
		est = next
	}

	val := mat.VecDenseCopyOf(est.Val())
	val.SetVec(2, angle.Wrap(val.AtVec(2)))

	out, err := estimate.New(val, est.Cov())
	if err != nil {
		return nil, nil, err
	}

	return out, report, nil
}

// innovation returns innovation y, innovation covariance S and observation jacobian H of landmark i out of n.
func (k *EKF) innovation(lm, pose mat.Vector, p mat.Symmetric, z mat.Vector, i, n int) (mat.Vector, *mat.SymDense, *mat.Dense, error) {
	y, err := k.o.Innovation(lm, pose, z)
	if err != nil {
		return nil, nil, nil, err
	}

	h, err := k.o.Jacobian(lm, pose, i, n)
	if err != nil {
		return nil, nil, nil, err
	}

	s, err := k.o.InnovationCov(h, p)
	if err != nil {
		return nil, nil, nil, err
	}

	return y, s, h, nil
}

func checkObservation(z mat.Vector) error {
	if z == nil || z.Len() != slam.ObservationDim {
		return fmt.Errorf("invalid observation vector: %w", slam.ErrInvalidInput)
	}

	if !matrix.IsFinite(z) {
		return fmt.Errorf("non-finite observation [%v %v]: %w", z.AtVec(0), z.AtVec(1), slam.ErrInvalidInput)
	}

	if z.AtVec(0) < 0 {
		return fmt.Errorf("negative range %v: %w", z.AtVec(0), slam.ErrInvalidInput)
	}

	return nil
}

func checkDims(x slam.Estimate) error {
	if x == nil {
		return fmt.Errorf("missing estimate: %w", slam.ErrInvariant)
	}

	n := x.Len()
	if n != slam.StateDim(x.NumLandmarks()) {
		return fmt.Errorf("invalid state length %d: %w", n, slam.ErrInvariant)
	}

	if c := x.Cov().SymmetricDim(); c != n {
		return fmt.Errorf("state length %d does not match covariance dimension %d: %w", n, c, slam.ErrInvariant)
	}

	return nil
}
