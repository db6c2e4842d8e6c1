// Package config loads EKF SLAM filter and simulation parameters from JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	slam "github.com/milosgajdos/go-slam"
	"github.com/milosgajdos/go-slam/angle"
	"github.com/milosgajdos/go-slam/kalman/ekf"
	"github.com/milosgajdos/go-slam/noise"
	"gonum.org/v1/gonum/mat"
)

// DefaultConfigPath is the path to the example defaults file.
const DefaultConfigPath = "config/ekfslam.defaults.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Filter contains filter parameters.
// Noise is given as standard deviations; angular values are in degrees.
type Filter struct {
	DT             float64    `json:"dt"`
	ProcessStd     [3]float64 `json:"process_noise_std"`
	MeasurementStd [2]float64 `json:"measurement_noise_std"`
	LandmarkStd    [2]float64 `json:"landmark_std"`
	Gate           float64    `json:"gate"`
	InitCovScale   float64    `json:"init_cov_scale"`
	MaxRange       float64    `json:"max_range"`
}

// Control is constant simulated control input
type Control struct {
	Velocity float64 `json:"velocity"` // [m/s]
	YawRate  float64 `json:"yaw_rate"` // [rad/s]
}

// Sim contains simulation parameters.
// Noise is given as standard deviations; angular values are in degrees.
type Sim struct {
	Steps          int          `json:"steps"`
	Seed           uint64       `json:"seed"` // 0 seeds from the current time
	Landmarks      [][2]float64 `json:"landmarks"`
	Control        Control      `json:"control"`
	ControlStd     [2]float64   `json:"control_noise_std"`
	MeasurementStd [2]float64   `json:"measurement_noise_std"`
	SensorRange    float64      `json:"sensor_range"`
}

// Config is the root configuration
type Config struct {
	Filter Filter `json:"filter"`
	Sim    Sim    `json:"sim"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Filter: Filter{
			DT:             0.01,
			ProcessStd:     [3]float64{0.5, 0.5, 30.0},
			MeasurementStd: [2]float64{0.5, angle.Degrees(0.5)},
			LandmarkStd:    [2]float64{1.0, 1.0},
			Gate:           2.0,
			InitCovScale:   1.0,
			MaxRange:       20.0,
		},
		Sim: Sim{
			Steps:          5000,
			Landmarks:      [][2]float64{{10.0, 10.0}, {11.0, 11.0}},
			Control:        Control{Velocity: 1.0, YawRate: 0.1},
			ControlStd:     [2]float64{1.0, 10.0},
			MeasurementStd: [2]float64{0.2, 1.0},
			SensorRange:    20.0,
		},
	}
}

// Load loads Config from a JSON file.
// The file must have a .json extension and be under 1MB.
// Fields omitted from the JSON file retain their default values.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q: %w", ext, slam.ErrConfig)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d): %w", fileInfo.Size(), maxFileSize, slam.ErrConfig)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %v: %w", err, slam.ErrConfig)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
// Returned errors wrap slam.ErrConfig.
func (c *Config) Validate() error {
	if _, err := c.FilterConfig(); err != nil {
		return err
	}

	s := c.Sim
	if s.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d: %w", s.Steps, slam.ErrConfig)
	}

	if len(s.Landmarks) == 0 {
		return fmt.Errorf("at least one landmark required: %w", slam.ErrConfig)
	}

	vals := []float64{s.Control.Velocity, s.Control.YawRate, s.SensorRange}
	vals = append(vals, s.ControlStd[:]...)
	vals = append(vals, s.MeasurementStd[:]...)
	for _, l := range s.Landmarks {
		vals = append(vals, l[:]...)
	}
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite simulation parameter %v: %w", v, slam.ErrConfig)
		}
	}

	for _, std := range [][2]float64{s.ControlStd, s.MeasurementStd} {
		if std[0] < 0 || std[1] < 0 {
			return fmt.Errorf("noise standard deviation must be non-negative, got %v: %w", std, slam.ErrConfig)
		}
		if (std[0] == 0) != (std[1] == 0) {
			return fmt.Errorf("noise standard deviations must be all zero or all positive, got %v: %w", std, slam.ErrConfig)
		}
	}

	if s.SensorRange <= 0 {
		return fmt.Errorf("sensor_range must be positive, got %v: %w", s.SensorRange, slam.ErrConfig)
	}

	return nil
}

// FilterConfig returns validated EKF configuration.
func (c *Config) FilterConfig() (*ekf.Config, error) {
	f := c.Filter

	cfg := &ekf.Config{
		DT:           f.DT,
		Q:            ekf.Diag(f.ProcessStd[0], f.ProcessStd[1], angle.Radians(f.ProcessStd[2])),
		R:            ekf.Diag(f.MeasurementStd[0], angle.Radians(f.MeasurementStd[1])),
		LandmarkCov:  ekf.Diag(f.LandmarkStd[0], f.LandmarkStd[1]),
		Gate:         f.Gate,
		InitCovScale: f.InitCovScale,
		MaxRange:     f.MaxRange,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Landmarks returns true simulated landmark positions
func (c *Config) Landmarks() []mat.Vector {
	lms := make([]mat.Vector, len(c.Sim.Landmarks))
	for i, l := range c.Sim.Landmarks {
		lms[i] = mat.NewVecDense(slam.LandmarkDim, []float64{l[0], l[1]})
	}

	return lms
}

// ControlInput returns simulated control input
func (c *Config) ControlInput() mat.Vector {
	return mat.NewVecDense(slam.ControlDim, []float64{c.Sim.Control.Velocity, c.Sim.Control.YawRate})
}

// ControlNoise returns simulated control noise.
// Zero standard deviations yield zero noise.
func (c *Config) ControlNoise() (slam.Noise, error) {
	std := c.Sim.ControlStd
	return newNoise([]float64{std[0], angle.Radians(std[1])}, c.Sim.Seed)
}

// MeasurementNoise returns simulated measurement noise.
// Zero standard deviations yield zero noise.
func (c *Config) MeasurementNoise() (slam.Noise, error) {
	std := c.Sim.MeasurementStd
	seed := c.Sim.Seed
	if seed != 0 {
		// decorrelate from control noise
		seed++
	}

	return newNoise([]float64{std[0], angle.Radians(std[1])}, seed)
}

func newNoise(std []float64, seed uint64) (slam.Noise, error) {
	if std[0] == 0 && std[1] == 0 {
		z, err := noise.NewZero(len(std))
		if err != nil {
			return nil, err
		}
		return z, nil
	}

	var opts []noise.Option
	if seed != 0 {
		opts = append(opts, noise.WithSeed(seed))
	}

	g, err := noise.NewDiagGaussian(std, opts...)
	if err != nil {
		return nil, err
	}

	return g, nil
}
