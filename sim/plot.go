package sim

import (
	"fmt"
	"image/color"
	"math"

	slam "github.com/milosgajdos/go-slam"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const ellipsePoints = 36

// NewSLAMPlot creates new plot of the simulation from the following data sources:
// h:         recorded true, dead reckoning and estimated trajectories
// x:         final estimate which provides estimated landmarks and their covariances
// landmarks: true landmark positions
// Every estimated landmark is drawn with its 2-sigma covariance ellipse.
// It returns error if the plot fails to be created. This can be due to either of the following conditions:
// * h or x is nil
// * h contains fewer than 2 steps
// * gonum plot fails to be created
func NewSLAMPlot(h *History, x slam.Estimate, landmarks []mat.Vector) (*plot.Plot, error) {
	if h == nil || x == nil {
		return nil, fmt.Errorf("invalid data supplied")
	}

	if h.Len() < 2 {
		return nil, fmt.Errorf("invalid history length: %d", h.Len())
	}

	p := plot.New()

	p.Title.Text = "EKF SLAM"
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"

	legend := plot.NewLegend()
	legend.Top = true
	p.Legend = legend

	for _, track := range []struct {
		name  string
		poses []mat.Vector
		color color.Color
	}{
		{name: "truth", poses: h.Truth, color: color.RGBA{B: 255, A: 255}},
		{name: "dead reckoning", poses: h.DeadReckoning, color: color.RGBA{A: 255}},
		{name: "estimate", poses: h.Estimate, color: color.RGBA{R: 255, A: 255}},
	} {
		l, err := plotter.NewLine(makePoints(track.poses))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s line: %v", track.name, err)
		}
		l.LineStyle.Color = track.color
		l.LineStyle.Width = vg.Points(1)

		p.Add(l)
		p.Legend.Add(track.name, l)
	}

	if len(landmarks) > 0 {
		lmScatter, err := plotter.NewScatter(makePoints(landmarks))
		if err != nil {
			return nil, fmt.Errorf("failed to create scatter: %v", err)
		}
		lmScatter.GlyphStyle.Color = color.RGBA{A: 255}
		lmScatter.Shape = draw.PyramidGlyph{}
		lmScatter.GlyphStyle.Radius = vg.Points(4)

		p.Add(lmScatter)
		p.Legend.Add("landmarks", lmScatter)
	}

	n := x.NumLandmarks()
	if n == 0 {
		return p, nil
	}

	est := make([]mat.Vector, n)
	for i := 0; i < n; i++ {
		lm, err := x.Landmark(i)
		if err != nil {
			return nil, err
		}
		est[i] = lm

		cov, err := x.LandmarkCov(i)
		if err != nil {
			return nil, err
		}

		pts, err := ellipse(lm, cov, 2.0)
		if err != nil {
			return nil, fmt.Errorf("landmark %d: %v", i, err)
		}

		l, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("failed to create ellipse: %v", err)
		}
		l.LineStyle.Color = color.RGBA{G: 160, A: 255}
		l.LineStyle.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
		p.Add(l)
	}

	estScatter, err := plotter.NewScatter(makePoints(est))
	if err != nil {
		return nil, fmt.Errorf("failed to create scatter: %v", err)
	}
	estScatter.GlyphStyle.Color = color.RGBA{G: 160, A: 255}
	estScatter.Shape = draw.CrossGlyph{}
	estScatter.GlyphStyle.Radius = vg.Points(4)

	p.Add(estScatter)
	p.Legend.Add("estimated landmarks", estScatter)

	return p, nil
}

// ellipse returns closed outline of the k-sigma ellipse of 2D Gaussian with mean mu and covariance cov.
func ellipse(mu mat.Vector, cov mat.Symmetric, k float64) (plotter.XYs, error) {
	var eig mat.EigenSym
	if ok := eig.Factorize(cov, true); !ok {
		return nil, fmt.Errorf("eigen decomposition failed")
	}

	vals := eig.Values(nil)
	vecs := &mat.Dense{}
	eig.VectorsTo(vecs)

	// clamp tiny negative eigenvalues
	a := k * math.Sqrt(math.Max(vals[0], 0))
	b := k * math.Sqrt(math.Max(vals[1], 0))

	pts := make(plotter.XYs, ellipsePoints+1)
	for i := range pts {
		t := 2 * math.Pi * float64(i) / float64(ellipsePoints)
		u, v := a*math.Cos(t), b*math.Sin(t)
		pts[i].X = mu.AtVec(0) + u*vecs.At(0, 0) + v*vecs.At(0, 1)
		pts[i].Y = mu.AtVec(1) + u*vecs.At(1, 0) + v*vecs.At(1, 1)
	}

	return pts, nil
}

func makePoints(vs []mat.Vector) plotter.XYs {
	pts := make(plotter.XYs, len(vs))
	for i, v := range vs {
		pts[i].X = v.AtVec(0)
		pts[i].Y = v.AtVec(1)
	}

	return pts
}
