package plot

import (
	"fmt"
	"io"
	"math"
	"sort"

	"regsim/domain/simulation"
	"regsim/internal/errors"
	"regsim/ports"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	slopeColor     = drawing.ColorFromHex("1f77b4")
	interceptColor = drawing.ColorFromHex("ff7f0e")
	pointColor     = drawing.ColorFromHex("1f77b4")
)

// Config holds the canvas sizes of both plots
type Config struct {
	ScatterWidth    int
	ScatterHeight   int
	HistogramWidth  int
	HistogramHeight int
	Bins            int
}

// DefaultConfig returns the canvas sizes used by the web UI
func DefaultConfig() Config {
	return Config{
		ScatterWidth:    1000,
		ScatterHeight:   600,
		HistogramWidth:  1000,
		HistogramHeight: 500,
		Bins:            20,
	}
}

// Renderer implements ports.PlotRenderer with go-chart
type Renderer struct {
	config Config
}

var _ ports.PlotRenderer = (*Renderer)(nil)

// NewRenderer creates a new plot renderer
func NewRenderer(config Config) *Renderer {
	if config.Bins < 1 {
		config.Bins = DefaultConfig().Bins
	}
	return &Renderer{config: config}
}

// RenderScatter draws the observations and the fitted regression line
func (r *Renderer) RenderScatter(w io.Writer, dataset simulation.Dataset, fit simulation.Fit) error {
	if err := dataset.Validate(); err != nil {
		return err
	}
	if dataset.Len() == 0 {
		return errors.RenderFailed("scatter plot", fmt.Errorf("empty dataset"))
	}

	xMin, xMax := floats.Min(dataset.X), floats.Max(dataset.X)
	lineX := []float64{xMin, xMax}
	lineY := []float64{fit.Predict(xMin), fit.Predict(xMax)}

	yMin := math.Min(floats.Min(dataset.Y), math.Min(lineY[0], lineY[1]))
	yMax := math.Max(floats.Max(dataset.Y), math.Max(lineY[0], lineY[1]))
	xLo, xHi := paddedRange(xMin, xMax)
	yLo, yHi := paddedRange(yMin, yMax)

	graph := chart.Chart{
		Title:      fmt.Sprintf("Regression Line Equation: %s", fit.Equation()),
		Width:      r.config.ScatterWidth,
		Height:     r.config.ScatterHeight,
		Background: chart.Style{Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}},
		XAxis:      chart.XAxis{Name: "X", Range: &chart.ContinuousRange{Min: xLo, Max: xHi}},
		YAxis:      chart.YAxis{Name: "Y", Range: &chart.ContinuousRange{Min: yLo, Max: yHi}},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name: "Observations",
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    3,
					DotColor:    pointColor.WithAlpha(200),
				},
				XValues: dataset.X,
				YValues: dataset.Y,
			},
			chart.ContinuousSeries{
				Name: "Fitted line",
				Style: chart.Style{
					StrokeColor: drawing.ColorRed,
					StrokeWidth: 2,
				},
				XValues: lineX,
				YValues: lineY,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return errors.RenderFailed("scatter plot", err)
	}
	return nil
}

// RenderHistograms overlays the simulated slope and intercept histograms and
// marks the observed slope and intercept with dashed lines
func (r *Renderer) RenderHistograms(w io.Writer, result *simulation.Result) error {
	slopes := result.Slopes.Values
	intercepts := result.Intercepts.Values
	if len(slopes) == 0 || len(intercepts) == 0 {
		return errors.RenderFailed("histogram plot", fmt.Errorf("no simulated values"))
	}

	slopeX, slopeY, slopeMax := histogramSteps(slopes, r.config.Bins)
	interceptX, interceptY, interceptMax := histogramSteps(intercepts, r.config.Bins)

	xLo := math.Min(math.Min(floats.Min(slopeX), floats.Min(interceptX)), math.Min(result.Fit.Slope, result.Fit.Intercept))
	xHi := math.Max(math.Max(floats.Max(slopeX), floats.Max(interceptX)), math.Max(result.Fit.Slope, result.Fit.Intercept))
	xLo, xHi = paddedRange(xLo, xHi)
	yHi := math.Max(slopeMax, interceptMax) * 1.1
	markerTop := yHi / 1.1

	graph := chart.Chart{
		Title:      "Histogram of Slopes and Intercepts",
		Width:      r.config.HistogramWidth,
		Height:     r.config.HistogramHeight,
		Background: chart.Style{Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}},
		XAxis:      chart.XAxis{Name: "Value", Range: &chart.ContinuousRange{Min: xLo, Max: xHi}},
		YAxis:      chart.YAxis{Name: "Frequency", Range: &chart.ContinuousRange{Min: 0, Max: yHi}},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name: "Slopes",
				Style: chart.Style{
					StrokeColor: slopeColor,
					StrokeWidth: 1,
					FillColor:   slopeColor.WithAlpha(128),
				},
				XValues: slopeX,
				YValues: slopeY,
			},
			chart.ContinuousSeries{
				Name: "Intercepts",
				Style: chart.Style{
					StrokeColor: interceptColor,
					StrokeWidth: 1,
					FillColor:   interceptColor.WithAlpha(128),
				},
				XValues: interceptX,
				YValues: interceptY,
			},
			marker(fmt.Sprintf("Slope: %.2f", result.Fit.Slope), result.Fit.Slope, markerTop, slopeColor),
			marker(fmt.Sprintf("Intercept: %.2f", result.Fit.Intercept), result.Fit.Intercept, markerTop, interceptColor),
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return errors.RenderFailed("histogram plot", err)
	}
	return nil
}

// marker is a dashed vertical line at x
func marker(name string, x, top float64, color drawing.Color) chart.ContinuousSeries {
	return chart.ContinuousSeries{
		Name: name,
		Style: chart.Style{
			StrokeColor:     color,
			StrokeWidth:     1.5,
			StrokeDashArray: []float64{5, 5},
		},
		XValues: []float64{x, x},
		YValues: []float64{0, top},
	}
}

// histogramSteps bins values into equal-width bins and returns the outline of
// the histogram as a step polyline that starts and ends on the x axis
func histogramSteps(values []float64, bins int) (xs, ys []float64, maxCount float64) {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	dividers := floats.Span(make([]float64, bins+1), lo, hi)
	// the last divider is exclusive
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, sorted, nil)

	xs = make([]float64, 0, 2*bins+2)
	ys = make([]float64, 0, 2*bins+2)
	xs = append(xs, dividers[0])
	ys = append(ys, 0)
	for i, c := range counts {
		xs = append(xs, dividers[i], dividers[i+1])
		ys = append(ys, c, c)
		if c > maxCount {
			maxCount = c
		}
	}
	xs = append(xs, dividers[bins])
	ys = append(ys, 0)
	return xs, ys, maxCount
}

// paddedRange widens [lo, hi] by 5% on each side, or by one unit when the
// range is empty
func paddedRange(lo, hi float64) (float64, float64) {
	span := hi - lo
	if span <= 0 {
		return lo - 1, hi + 1
	}
	return lo - span*0.05, hi + span*0.05
}
