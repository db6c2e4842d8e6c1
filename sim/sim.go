package sim

import (
	"fmt"

	slam "github.com/milosgajdos/go-slam"
	"github.com/milosgajdos/go-slam/angle"
	"github.com/milosgajdos/go-slam/matrix"
	"github.com/milosgajdos/go-slam/model"
	"gonum.org/v1/gonum/mat"
)

// Observation is a simulated range-bearing observation tagged with the id of the observed landmark.
type Observation struct {
	// Z is noisy range and bearing
	Z mat.Vector
	// ID is the index of the observed landmark in the simulated world
	ID int
}

// Frame is a single simulation step
type Frame struct {
	// Truth is true agent pose
	Truth mat.Vector
	// DeadReckoning is agent pose integrated from noisy control
	DeadReckoning mat.Vector
	// Control is noisy control input
	Control mat.Vector
	// Observations are noisy observations of landmarks within range
	Observations []Observation
}

// Measurements returns frame observation vectors in observation order.
func (f *Frame) Measurements() []mat.Vector {
	z := make([]mat.Vector, len(f.Observations))
	for i, o := range f.Observations {
		z[i] = o.Z
	}

	return z
}

// IDs returns true landmark ids of frame observations in observation order.
func (f *Frame) IDs() []int {
	ids := make([]int, len(f.Observations))
	for i, o := range f.Observations {
		ids[i] = o.ID
	}

	return ids
}

// Simulator moves an agent among static landmarks and generates noisy control and observations.
type Simulator struct {
	// m is agent motion model
	m *model.Unicycle
	// landmarks are true landmark positions
	landmarks []*mat.VecDense
	// maxRange is sensor range
	maxRange float64
	// ctl is control noise
	ctl slam.Noise
	// obs is measurement noise
	obs slam.Noise
	// truth is true agent pose
	truth *mat.VecDense
	// dr is dead reckoning pose
	dr *mat.VecDense
}

// New creates new Simulator with agent at the origin.
// Landmarks further than maxRange from the agent are not observed.
// It returns error if dt or maxRange are invalid, if landmarks are empty or if noise dimensions are invalid.
func New(dt, maxRange float64, landmarks []mat.Vector, ctl, obs slam.Noise) (*Simulator, error) {
	m, err := model.NewUnicycle(dt)
	if err != nil {
		return nil, err
	}

	if !(maxRange > 0) {
		return nil, fmt.Errorf("invalid sensor range %v: %w", maxRange, slam.ErrConfig)
	}

	if len(landmarks) == 0 {
		return nil, fmt.Errorf("no landmarks: %w", slam.ErrConfig)
	}

	lms := make([]*mat.VecDense, len(landmarks))
	for i, l := range landmarks {
		if l == nil || l.Len() != slam.LandmarkDim || !matrix.IsFinite(l) {
			return nil, fmt.Errorf("invalid landmark %d: %w", i, slam.ErrConfig)
		}
		lms[i] = mat.VecDenseCopyOf(l)
	}

	if ctl == nil || len(ctl.Mean()) != slam.ControlDim {
		return nil, fmt.Errorf("invalid control noise: %w", slam.ErrConfig)
	}

	if obs == nil || len(obs.Mean()) != slam.ObservationDim {
		return nil, fmt.Errorf("invalid measurement noise: %w", slam.ErrConfig)
	}

	return &Simulator{
		m:         m,
		landmarks: lms,
		maxRange:  maxRange,
		ctl:       ctl,
		obs:       obs,
		truth:     mat.NewVecDense(slam.PoseDim, nil),
		dr:        mat.NewVecDense(slam.PoseDim, nil),
	}, nil
}

// Step moves the agent by applying control u to the true pose and noisy control to dead reckoning.
// Observations are generated from the new true pose.
// It returns error if u is invalid.
func (s *Simulator) Step(u mat.Vector) (*Frame, error) {
	truth, err := s.m.Propagate(s.truth, u)
	if err != nil {
		return nil, err
	}

	var obs []Observation
	for i, l := range s.landmarks {
		z, err := model.Measure(l, truth)
		if err != nil {
			return nil, err
		}

		if z.AtVec(0) > s.maxRange {
			continue
		}

		zn := &mat.VecDense{}
		zn.AddVec(z, s.obs.Sample())
		zn.SetVec(1, angle.Wrap(zn.AtVec(1)))
		obs = append(obs, Observation{Z: zn, ID: i})
	}

	ud := &mat.VecDense{}
	ud.AddVec(u, s.ctl.Sample())

	dr, err := s.m.Propagate(s.dr, ud)
	if err != nil {
		return nil, err
	}

	s.truth = mat.VecDenseCopyOf(truth)
	s.dr = mat.VecDenseCopyOf(dr)

	return &Frame{
		Truth:         s.Truth(),
		DeadReckoning: s.DeadReckoning(),
		Control:       ud,
		Observations:  obs,
	}, nil
}

// Truth returns true agent pose
func (s *Simulator) Truth() mat.Vector {
	return mat.VecDenseCopyOf(s.truth)
}

// DeadReckoning returns dead reckoning agent pose
func (s *Simulator) DeadReckoning() mat.Vector {
	return mat.VecDenseCopyOf(s.dr)
}

// Landmarks returns true landmark positions
func (s *Simulator) Landmarks() []mat.Vector {
	lms := make([]mat.Vector, len(s.landmarks))
	for i, l := range s.landmarks {
		lms[i] = mat.VecDenseCopyOf(l)
	}

	return lms
}

// Reset moves the agent back to the origin and resets noise sources.
func (s *Simulator) Reset() {
	s.truth = mat.NewVecDense(slam.PoseDim, nil)
	s.dr = mat.NewVecDense(slam.PoseDim, nil)
	s.ctl.Reset()
	s.obs.Reset()
}
