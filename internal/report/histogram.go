package report

import (
	"errors"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const histogramBins = 50

// WriteHistogram saves a histogram of simulated terminal prices with a
// dashed strike marker. The file format follows the extension of path.
func WriteHistogram(terminal []float64, strike float64, path string) error {
	if len(terminal) == 0 {
		return errors.New("no terminal prices to plot")
	}
	values := make(plotter.Values, len(terminal))
	copy(values, terminal)

	plt := plot.New()
	plt.Title.Text = "Simulated Stock Prices at Expiration"
	plt.X.Label.Text = "Price"
	plt.Y.Label.Text = "Frequency"
	plt.Add(plotter.NewGrid())

	h, err := plotter.NewHist(values, histogramBins)
	if err != nil {
		return err
	}
	h.FillColor = color.RGBA{R: 135, G: 206, B: 235, A: 255}
	h.LineStyle.Color = color.Black
	plt.Add(h)

	peak := 0.0
	for _, b := range h.Bins {
		if b.Weight > peak {
			peak = b.Weight
		}
	}
	marker, err := plotter.NewLine(plotter.XYs{{X: strike, Y: 0}, {X: strike, Y: peak}})
	if err != nil {
		return err
	}
	marker.Color = color.RGBA{R: 255, A: 255}
	marker.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	plt.Add(marker)
	plt.Legend.Add("Strike Price", marker)
	plt.Legend.Top = true

	return plt.Save(8*vg.Inch, 5*vg.Inch, path)
}
