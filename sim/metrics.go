package sim

import (
	"fmt"
	"math"

	slam "github.com/milosgajdos/go-slam"
	"github.com/milosgajdos/go-slam/angle"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// NEES returns normalized estimation error squared of pose estimate pose with covariance cov given true pose truth.
// Yaw error is wrapped into (-Pi, Pi].
// It returns error if the dimensions are invalid or cov is not positive definite.
func NEES(truth, pose mat.Vector, cov mat.Symmetric) (float64, error) {
	if truth == nil || pose == nil || truth.Len() != slam.PoseDim || pose.Len() != slam.PoseDim {
		return 0, fmt.Errorf("invalid pose vector: %w", slam.ErrInvalidInput)
	}

	if cov == nil || cov.SymmetricDim() != slam.PoseDim {
		return 0, fmt.Errorf("invalid pose covariance: %w", slam.ErrInvalidInput)
	}

	e := mat.NewVecDense(slam.PoseDim, []float64{
		pose.AtVec(0) - truth.AtVec(0),
		pose.AtVec(1) - truth.AtVec(1),
		angle.Diff(pose.AtVec(2), truth.AtVec(2)),
	})

	var chol mat.Cholesky
	if ok := chol.Factorize(cov); !ok {
		return 0, fmt.Errorf("pose covariance not positive definite: %w", slam.ErrNumerical)
	}

	pe := &mat.VecDense{}
	if err := chol.SolveVecTo(pe, e); err != nil {
		return 0, fmt.Errorf("%v: %w", err, slam.ErrNumerical)
	}

	return mat.Dot(e, pe), nil
}

// MeanNEES returns the mean pose NEES over recorded history h.
// Steps whose covariance can not be factorized are skipped.
// It returns NaN if no step could be evaluated.
func MeanNEES(h *History) float64 {
	var nees []float64
	for i := 0; i < h.Len(); i++ {
		e, err := NEES(h.Truth[i], h.Estimate[i], h.PoseCov[i])
		if err != nil {
			continue
		}
		nees = append(nees, e)
	}

	if len(nees) == 0 {
		return math.NaN()
	}

	return stat.Mean(nees, nil)
}

// Associations scores filter data association against true landmark ids.
// Filter landmarks map to the true landmark they were created from.
type Associations struct {
	// filter landmark index to true landmark id
	origin map[int]int
	// true landmark id to filter landmark index
	lm      map[int]int
	correct int
	total   int
}

// NewAssociations returns new empty Associations
func NewAssociations() *Associations {
	return &Associations{
		origin: make(map[int]int),
		lm:     make(map[int]int),
	}
}

// Add records filter associations idx of observations of true landmarks ids.
// Observations skipped by the filter, marked as slam.NoLandmark, are not counted.
// An association is correct if it points to the filter landmark created from the same true landmark.
func (a *Associations) Add(ids, idx []int) error {
	if len(ids) != len(idx) {
		return fmt.Errorf("mismatched associations: %d ids, %d indices: %w", len(ids), len(idx), slam.ErrInvalidInput)
	}

	for j, i := range idx {
		if i == slam.NoLandmark {
			continue
		}
		a.total++

		id := ids[j]
		if o, ok := a.origin[i]; ok {
			if o == id {
				a.correct++
			}
			continue
		}

		a.origin[i] = id
		// a new filter landmark for an already mapped true landmark is a duplicate
		if _, ok := a.lm[id]; ok {
			continue
		}
		a.lm[id] = i
		a.correct++
	}

	return nil
}

// Duplicates returns the number of filter landmarks created for already mapped true landmarks.
func (a *Associations) Duplicates() int {
	return len(a.origin) - len(a.lm)
}

// Accuracy returns the fraction of correct associations.
// It returns NaN if no associations were recorded.
func (a *Associations) Accuracy() float64 {
	if a.total == 0 {
		return math.NaN()
	}

	return float64(a.correct) / float64(a.total)
}
