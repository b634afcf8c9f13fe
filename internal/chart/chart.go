// Package chart renders the dashboard figures as PNG files with gonum/plot.
package chart

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/mitelab-cli/internal/analysis"
	"github.com/KaramelBytes/mitelab-cli/internal/model"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("chart: no data to plot")

// Size is the output size of a chart.
type Size struct {
	Width, Height vg.Length
}

// DefaultSize is 8x5 inches.
func DefaultSize() Size { return Size{Width: 8 * vg.Inch, Height: 5 * vg.Inch} }

// SizeInches builds a Size, falling back to DefaultSize for non-positive values.
func SizeInches(w, h float64) Size {
	s := DefaultSize()
	if w > 0 {
		s.Width = vg.Length(w) * vg.Inch
	}
	if h > 0 {
		s.Height = vg.Length(h) * vg.Inch
	}
	return s
}

// TrendPNG draws Mite against SMW, one line per year.
func TrendPNG(series []analysis.TrendSeries, path string, size Size) error {
	p := plot.New()
	p.Title.Text = "Mite population by standard meteorological week"
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "SMW"
	p.Y.Label.Text = "Mite"
	p.Legend.Top = true

	var args []interface{}
	for _, s := range series {
		if len(s.Points) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(s.Points))
		for i, pt := range s.Points {
			pts[i].X = pt.SMW
			pts[i].Y = pt.Mite
		}
		args = append(args, s.Year, pts)
	}
	if len(args) == 0 {
		return ErrNoData
	}
	if err := plotutil.AddLinePoints(p, args...); err != nil {
		return fmt.Errorf("trend lines: %w", err)
	}
	p.Add(plotter.NewGrid())
	return save(p, size, path)
}

// HeatmapPNG draws a correlation matrix on a blue-red scale fixed to [-1, 1].
// Undefined coefficients are drawn as zero and labelled "nan".
func HeatmapPNG(m *analysis.CorrMatrix, path string, size Size) error {
	if m == nil || len(m.Columns) < 2 {
		return ErrNoData
	}
	cm := moreland.SmoothBlueRed()
	cm.SetMax(1)
	cm.SetMin(-1)
	g := corrGrid{m: m}
	hm := plotter.NewHeatMap(g, cm.Palette(255))
	hm.Min, hm.Max = -1, 1

	p := plot.New()
	p.Title.Text = "Correlation matrix"
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Add(hm)

	n := len(m.Columns)
	labels := plotter.XYLabels{XYs: make(plotter.XYs, 0, n*n)}
	for c := 0; c < n; c++ {
		for r := 0; r < n; r++ {
			v := g.value(c, r)
			labels.XYs = append(labels.XYs, plotter.XY{X: g.X(c), Y: g.Y(r)})
			if math.IsNaN(v) {
				labels.Labels = append(labels.Labels, "nan")
			} else {
				labels.Labels = append(labels.Labels, fmt.Sprintf("%.2f", v))
			}
		}
	}
	text, err := plotter.NewLabels(labels)
	if err != nil {
		return fmt.Errorf("heatmap labels: %w", err)
	}
	p.Add(text)

	p.NominalX(m.Columns...)
	rev := make([]string, n)
	for i, c := range m.Columns {
		rev[n-1-i] = c
	}
	p.NominalY(rev...)
	return save(p, size, path)
}

// corrGrid adapts a CorrMatrix to plotter.GridXYZ with the first column at
// the top row.
type corrGrid struct {
	m *analysis.CorrMatrix
}

func (g corrGrid) Dims() (c, r int) { n := len(g.m.Columns); return n, n }

func (g corrGrid) value(c, r int) float64 {
	n := len(g.m.Columns)
	return g.m.Values[n-1-r][c]
}

func (g corrGrid) Z(c, r int) float64 {
	v := g.value(c, r)
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func (g corrGrid) X(c int) float64 { return float64(c) }
func (g corrGrid) Y(r int) float64 { return float64(r) }

// ResidualsPNG draws residuals against fitted values for a model fit.
func ResidualsPNG(fit *model.Fit, path string, size Size) error {
	if fit == nil || len(fit.Fitted) == 0 {
		return ErrNoData
	}
	pts := make(plotter.XYs, len(fit.Fitted))
	for i := range fit.Fitted {
		pts[i].X = fit.Fitted[i]
		pts[i].Y = fit.Residuals[i]
	}
	p := plot.New()
	p.Title.Text = "Residuals vs fitted"
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Fitted " + fit.Formula.Target
	p.Y.Label.Text = "Residual"

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("residual points: %w", err)
	}
	sc.GlyphStyle.Radius = vg.Points(3)
	sc.GlyphStyle.Color = plotutil.Color(0)
	zero := plotter.NewFunction(func(float64) float64 { return 0 })
	zero.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	zero.Color = plotutil.Color(1)
	p.Add(plotter.NewGrid(), sc, zero)
	return save(p, size, path)
}

func save(p *plot.Plot, size Size, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("chart dir: %w", err)
		}
	}
	if err := p.Save(size.Width, size.Height, path); err != nil {
		return fmt.Errorf("save chart %s: %w", path, err)
	}
	return nil
}
