package sim

import (
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// New2DPlot creates a ground track plot from the three data sources:
// truth:   ideal rover track
// measure: camera measurements
// fused:   fused estimator track
// Each matrix stores X in column 0 and Y in column 1, one row per point.
// It returns error if either of the supplied data matrices is nil, has
// fewer than 2 columns, or the plotters fail to be created.
func New2DPlot(truth, measure, fused *mat.Dense) (*plot.Plot, error) {
	if truth == nil || measure == nil || fused == nil {
		return nil, fmt.Errorf("invalid data supplied")
	}

	for _, m := range []*mat.Dense{truth, measure, fused} {
		if _, cols := m.Dims(); cols < 2 {
			return nil, fmt.Errorf("invalid data dimensions")
		}
	}

	p := plot.New()

	p.Title.Text = "Rover ground track"
	p.X.Label.Text = "X [m]"
	p.Y.Label.Text = "Y [m]"

	legend := plot.NewLegend()
	legend.Top = true
	p.Legend = legend

	truthScatter, err := plotter.NewScatter(makePoints(truth))
	if err != nil {
		return nil, err
	}
	truthScatter.GlyphStyle.Color = color.RGBA{R: 255, B: 128, A: 255}
	truthScatter.Shape = draw.PyramidGlyph{}
	truthScatter.GlyphStyle.Radius = vg.Points(3)

	p.Add(truthScatter)
	p.Legend.Add("truth", truthScatter)

	measScatter, err := plotter.NewScatter(makePoints(measure))
	if err != nil {
		return nil, err
	}
	measScatter.GlyphStyle.Color = color.RGBA{G: 255, A: 128}
	measScatter.GlyphStyle.Radius = vg.Points(3)

	p.Add(measScatter)
	p.Legend.Add("camera", measScatter)

	fusedScatter, err := plotter.NewScatter(makePoints(fused))
	if err != nil {
		return nil, fmt.Errorf("failed to create scatter: %v", err)
	}
	fusedScatter.GlyphStyle.Color = color.RGBA{R: 169, G: 169, B: 169}
	fusedScatter.Shape = draw.CrossGlyph{}
	fusedScatter.GlyphStyle.Radius = vg.Points(3)

	p.Add(fusedScatter)
	p.Legend.Add("fused", fusedScatter)

	return p, nil
}

// makePoints turns the first two columns of m into plotter coordinates.
func makePoints(m *mat.Dense) plotter.XYs {
	rows, _ := m.Dims()
	pts := make(plotter.XYs, rows)

	for i := 0; i < rows; i++ {
		pts[i].X = m.At(i, 0)
		pts[i].Y = m.At(i, 1)
	}

	return pts
}
