package evaluation

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/akhilimadabathuni/FraudDetectionModel/pkg/errors"
)

// SaveFoldChart writes a bar chart of per-fold accuracies to filename.
// The image format follows the file extension (png, svg, pdf).
func (r *Report) SaveFoldChart(filename string) error {
	if len(r.FoldAccuracies) == 0 {
		return errors.NewValueError("Report.SaveFoldChart", "no fold accuracies to plot")
	}

	p := plot.New()
	p.Title.Text = "Cross-Validation Accuracy by Fold"
	p.X.Label.Text = "Fold"
	p.Y.Label.Text = "Accuracy"
	p.Y.Min = 0
	p.Y.Max = 1

	values := make(plotter.Values, len(r.FoldAccuracies))
	labels := make([]string, len(r.FoldAccuracies))
	for i, a := range r.FoldAccuracies {
		values[i] = a
		labels[i] = fmt.Sprintf("%d", i+1)
	}

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return errors.Wrap(err, "failed to build bar chart")
	}
	bars.Color = color.RGBA{R: 50, G: 50, B: 255, A: 255}
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(labels...)

	mean := plotter.XYs{
		{X: -0.5, Y: r.MeanAccuracy()},
		{X: float64(len(r.FoldAccuracies)) - 0.5, Y: r.MeanAccuracy()},
	}
	line, err := plotter.NewLine(mean)
	if err != nil {
		return errors.Wrap(err, "failed to build mean line")
	}
	line.Color = color.RGBA{R: 255, A: 255}
	p.Add(line)
	p.Legend.Add("mean", line)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, filename); err != nil {
		return errors.Wrapf(err, "failed to save chart to %s", filename)
	}
	return nil
}
