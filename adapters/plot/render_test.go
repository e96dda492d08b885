package plot

import (
	"bytes"
	"image/png"
	"testing"

	"regsim/domain/simulation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *simulation.Result {
	return &simulation.Result{
		Primary: simulation.Dataset{
			X: []float64{0.1, 0.4, 0.5, 0.8, 0.9},
			Y: []float64{0.3, -0.2, 0.7, 0.1, 1.2},
		},
		Fit:        simulation.Fit{Slope: 0.8, Intercept: -0.05},
		Slopes:     simulation.Distribution{Values: []float64{-1, -0.5, 0, 0.2, 0.3, 0.9, 1.4}},
		Intercepts: simulation.Distribution{Values: []float64{-0.6, -0.1, 0, 0.1, 0.4, 0.5, 0.7}},
	}
}

func TestRenderScatter_WritesPNG(t *testing.T) {
	r := NewRenderer(DefaultConfig())
	result := sampleResult()

	var buf bytes.Buffer
	require.NoError(t, r.RenderScatter(&buf, result.Primary, result.Fit))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 1000, img.Bounds().Dx())
	assert.Equal(t, 600, img.Bounds().Dy())
}

func TestRenderScatter_ConstantY(t *testing.T) {
	r := NewRenderer(DefaultConfig())
	ds := simulation.Dataset{X: []float64{0.1, 0.5, 0.9}, Y: []float64{2, 2, 2}}

	var buf bytes.Buffer
	require.NoError(t, r.RenderScatter(&buf, ds, simulation.Fit{Intercept: 2}))
	assert.NotZero(t, buf.Len())
}

func TestRenderScatter_RejectsBadDataset(t *testing.T) {
	r := NewRenderer(DefaultConfig())

	var buf bytes.Buffer
	assert.Error(t, r.RenderScatter(&buf, simulation.Dataset{X: []float64{1}, Y: nil}, simulation.Fit{}))
	assert.Error(t, r.RenderScatter(&buf, simulation.Dataset{}, simulation.Fit{}))
}

func TestRenderHistograms_WritesPNG(t *testing.T) {
	r := NewRenderer(DefaultConfig())

	var buf bytes.Buffer
	require.NoError(t, r.RenderHistograms(&buf, sampleResult()))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 1000, img.Bounds().Dx())
	assert.Equal(t, 500, img.Bounds().Dy())
}

func TestRenderHistograms_SingleSimulation(t *testing.T) {
	r := NewRenderer(DefaultConfig())
	result := sampleResult()
	result.Slopes.Values = []float64{0.3}
	result.Intercepts.Values = []float64{0.1}

	var buf bytes.Buffer
	require.NoError(t, r.RenderHistograms(&buf, result))
	assert.NotZero(t, buf.Len())
}

func TestRenderHistograms_NoValues(t *testing.T) {
	r := NewRenderer(DefaultConfig())
	result := sampleResult()
	result.Slopes.Values = nil

	var buf bytes.Buffer
	assert.Error(t, r.RenderHistograms(&buf, result))
}

func TestHistogramSteps(t *testing.T) {
	values := []float64{4, 0, 1, 1, 2, 3, 4}
	xs, ys, maxCount := histogramSteps(values, 4)

	require.Len(t, xs, 10)
	require.Len(t, ys, 10)
	assert.Equal(t, 0.0, xs[0])
	assert.Equal(t, 0.0, ys[0])
	assert.Equal(t, 0.0, ys[len(ys)-1])

	// bins [0,1) [1,2) [2,3) [3,4]
	assert.Equal(t, []float64{1, 1, 2, 2, 1, 1, 3, 3}, ys[1:9])
	assert.Equal(t, 3.0, maxCount)

	total := 0.0
	for i := 1; i < len(ys)-1; i += 2 {
		total += ys[i]
	}
	assert.Equal(t, float64(len(values)), total)
}

func TestHistogramSteps_ConstantValues(t *testing.T) {
	xs, _, maxCount := histogramSteps([]float64{2, 2, 2}, 20)
	assert.Equal(t, 3.0, maxCount)
	assert.InDelta(t, 1.5, xs[0], 1e-12)
}

func TestPaddedRange(t *testing.T) {
	lo, hi := paddedRange(0, 10)
	assert.InDelta(t, -0.5, lo, 1e-12)
	assert.InDelta(t, 10.5, hi, 1e-12)

	lo, hi = paddedRange(3, 3)
	assert.Equal(t, 2.0, lo)
	assert.Equal(t, 4.0, hi)
}
