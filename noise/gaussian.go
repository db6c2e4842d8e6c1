package noise

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"

	slam "github.com/milosgajdos/go-slam"
	"github.com/milosgajdos/go-slam/matrix"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Option configures Gaussian noise
type Option func(*Gaussian)

// WithSeed seeds Gaussian noise so that its samples are reproducible.
func WithSeed(seed uint64) Option {
	return func(g *Gaussian) {
		g.seed = seed
	}
}

// Gaussian is gaussian noise
type Gaussian struct {
	// dist is a multivariate normal distribution
	dist *distmv.Normal
	// mean is Gaussian mean
	mean []float64
	// cov is Gaussian covariance
	cov *mat.SymDense
	// seed seeds random source
	seed uint64
}

// NewGaussian creates new Gaussian noise with given mean and covariance.
// Unless seeded with WithSeed the noise is seeded from the current time.
// It returns error if cov is not positive definite or its dimension does not match mean length.
func NewGaussian(mean []float64, cov mat.Symmetric, opts ...Option) (*Gaussian, error) {
	if cov == nil || cov.SymmetricDim() != len(mean) {
		return nil, fmt.Errorf("invalid noise dimensions: %w", slam.ErrConfig)
	}

	m := make([]float64, len(mean))
	copy(m, mean)

	c := mat.NewSymDense(len(mean), nil)
	c.CopySym(cov)

	g := &Gaussian{
		mean: m,
		cov:  c,
		seed: uint64(time.Now().UnixNano()),
	}

	for _, opt := range opts {
		opt(g)
	}

	dist, ok := newGaussianDist(g.mean, g.cov, g.seed)
	if !ok {
		return nil, fmt.Errorf("failed to create new Gaussian noise: %w", slam.ErrConfig)
	}
	g.dist = dist

	return g, nil
}

// NewDiagGaussian creates zero mean Gaussian noise with independent components of standard deviations std.
func NewDiagGaussian(std []float64, opts ...Option) (*Gaussian, error) {
	cov := mat.NewSymDense(len(std), nil)
	for i, s := range std {
		cov.SetSym(i, i, s*s)
	}

	if !matrix.IsFinite(cov) {
		return nil, fmt.Errorf("non-finite standard deviation %v: %w", std, slam.ErrConfig)
	}

	return NewGaussian(make([]float64, len(std)), cov, opts...)
}

// Sample generates a sample from Gaussian noise and returns it.
func (g *Gaussian) Sample() mat.Vector {
	r := g.dist.Rand(nil)
	return mat.NewVecDense(len(r), r)
}

// Cov returns covariance matrix of Gaussian noise.
func (g *Gaussian) Cov() mat.Symmetric {
	cov := mat.NewSymDense(g.cov.SymmetricDim(), nil)
	cov.CopySym(g.cov)

	return cov
}

// Mean returns Gaussian mean.
func (g *Gaussian) Mean() []float64 {
	mean := make([]float64, len(g.mean))
	copy(mean, g.mean)

	return mean
}

// Reset resets Gaussian noise to its initial seed: samples drawn after Reset repeat the original sequence.
func (g *Gaussian) Reset() {
	// distribution parameters were validated in NewGaussian
	dist, _ := newGaussianDist(g.mean, g.cov, g.seed)
	g.dist = dist
}

func newGaussianDist(mean []float64, cov mat.Symmetric, seed uint64) (*distmv.Normal, bool) {
	src := rand.New(rand.NewSource(seed))
	return distmv.NewNormal(mean, cov, src)
}

// String implements the Stringer interface.
func (g *Gaussian) String() string {
	return fmt.Sprintf("Gaussian{\nMean=%v\nCov=%v\n}", g.mean, mat.Formatted(g.cov, mat.Prefix("    "), mat.Squeeze()))
}
