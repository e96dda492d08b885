package simulation

import (
	"context"
	"testing"

	"regsim/adapters/rng"
	"regsim/domain/simulation"
	"regsim/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() simulation.Params {
	return simulation.Params{N: 50, Mu: 0, Sigma2: 1, S: 200, Seed: 42}
}

func TestEngine_DeterministicForSeed(t *testing.T) {
	engine := NewEngine(rng.NewRNGAdapter(), 4)
	ctx := context.Background()

	first, err := engine.Run(ctx, "run-a", testParams())
	require.NoError(t, err)
	second, err := engine.Run(ctx, "run-b", testParams())
	require.NoError(t, err)

	assert.Equal(t, first.Fit, second.Fit)
	assert.Equal(t, first.Slopes.Values, second.Slopes.Values)
	assert.Equal(t, first.Intercepts.Values, second.Intercepts.Values)
	assert.Equal(t, first.SlopeMoreExtreme, second.SlopeMoreExtreme)
	assert.Equal(t, first.InterceptMoreExtreme, second.InterceptMoreExtreme)
}

func TestEngine_ResultIndependentOfWorkerCount(t *testing.T) {
	ctx := context.Background()

	serial, err := NewEngine(rng.NewRNGAdapter(), 1).Run(ctx, "serial", testParams())
	require.NoError(t, err)
	parallel, err := NewEngine(rng.NewRNGAdapter(), 16).Run(ctx, "parallel", testParams())
	require.NoError(t, err)

	assert.Equal(t, serial.Slopes.Values, parallel.Slopes.Values)
	assert.Equal(t, serial.Intercepts.Values, parallel.Intercepts.Values)
}

func TestEngine_DifferentSeedsDiffer(t *testing.T) {
	engine := NewEngine(rng.NewRNGAdapter(), 2)
	ctx := context.Background()

	p := testParams()
	first, err := engine.Run(ctx, "a", p)
	require.NoError(t, err)
	p.Seed = 43
	second, err := engine.Run(ctx, "b", p)
	require.NoError(t, err)

	assert.NotEqual(t, first.Fit.Slope, second.Fit.Slope)
}

func TestEngine_ShapesAndProportions(t *testing.T) {
	engine := NewEngine(rng.NewRNGAdapter(), 4)
	p := testParams()

	result, err := engine.Run(context.Background(), "shape", p)
	require.NoError(t, err)

	assert.Equal(t, "shape", result.RunID)
	assert.Len(t, result.Primary.X, p.N)
	assert.Len(t, result.Primary.Y, p.N)
	assert.Len(t, result.Slopes.Values, p.S)
	assert.Len(t, result.Intercepts.Values, p.S)

	for _, x := range result.Primary.X {
		assert.GreaterOrEqual(t, x, 0.0)
		assert.Less(t, x, 1.0)
	}

	assert.GreaterOrEqual(t, result.SlopeMoreExtreme, 0.0)
	assert.LessOrEqual(t, result.SlopeMoreExtreme, 1.0)
	assert.GreaterOrEqual(t, result.InterceptMoreExtreme, 0.0)
	assert.LessOrEqual(t, result.InterceptMoreExtreme, 1.0)

	assert.LessOrEqual(t, result.Slopes.Min, result.Slopes.P025)
	assert.LessOrEqual(t, result.Slopes.P025, result.Slopes.P975)
	assert.LessOrEqual(t, result.Slopes.P975, result.Slopes.Max)
}

func TestEngine_RecoversSignal(t *testing.T) {
	engine := NewEngine(rng.NewRNGAdapter(), 4)
	p := simulation.Params{N: 2000, Mu: 0, Sigma2: 0.01, S: 20, Beta0: 1.5, Beta1: -3, Seed: 7}

	result, err := engine.Run(context.Background(), "signal", p)
	require.NoError(t, err)

	assert.InDelta(t, -3.0, result.Fit.Slope, 0.05)
	assert.InDelta(t, 1.5, result.Fit.Intercept, 0.05)
	assert.InDelta(t, -3.0, result.Slopes.Mean, 0.05)
	assert.Greater(t, result.Fit.RSquared, 0.9)
}

func TestEngine_ZeroVarianceGivesFlatLine(t *testing.T) {
	engine := NewEngine(rng.NewRNGAdapter(), 2)
	p := simulation.Params{N: 10, Mu: 2.5, Sigma2: 0, S: 5, Seed: 1}

	result, err := engine.Run(context.Background(), "flat", p)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, result.Fit.Slope, 1e-9)
	assert.InDelta(t, 2.5, result.Fit.Intercept, 1e-9)
	assert.Equal(t, 1.0, result.Fit.RSquared)
}

func TestEngine_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(rng.NewRNGAdapter(), 2).Run(ctx, "canceled", testParams())
	require.Error(t, err)
	assert.Equal(t, errors.CodeCanceled, errors.GetCode(err))
}

func TestFitOLS_ExactLine(t *testing.T) {
	ds := simulation.Dataset{
		X: []float64{0, 0.25, 0.5, 0.75, 1},
		Y: []float64{2, 2.75, 3.5, 4.25, 5},
	}

	fit, err := FitOLS(ds)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, fit.Slope, 1e-12)
	assert.InDelta(t, 2.0, fit.Intercept, 1e-12)
	assert.InDelta(t, 1.0, fit.RSquared, 1e-12)
	assert.InDelta(t, 3.5, fit.Predict(0.5), 1e-12)
	assert.Equal(t, "Y = 2.00 + 3.00X", fit.Equation())
}

func TestFitOLS_Errors(t *testing.T) {
	_, err := FitOLS(simulation.Dataset{X: []float64{1, 2}, Y: []float64{1}})
	assert.Error(t, err)

	_, err = FitOLS(simulation.Dataset{X: []float64{1}, Y: []float64{1}})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = FitOLS(simulation.Dataset{X: []float64{0.5, 0.5, 0.5}, Y: []float64{1, 2, 3}})
	assert.Error(t, err)
}

func TestExtremeProportions(t *testing.T) {
	observed := simulation.Fit{Slope: 1, Intercept: 0}
	slopes := []float64{0.5, 1, 1.5, 2}        // two strictly above
	intercepts := []float64{-1, 0, 1, -0.5, 2} // two strictly below

	slopeExtreme, interceptExtreme := ExtremeProportions(observed, slopes, intercepts)
	assert.Equal(t, 0.5, slopeExtreme)
	assert.Equal(t, 0.4, interceptExtreme)

	slopeExtreme, interceptExtreme = ExtremeProportions(observed, nil, nil)
	assert.Zero(t, slopeExtreme)
	assert.Zero(t, interceptExtreme)
}

func TestSummarize(t *testing.T) {
	dist, err := Summarize([]float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 2.5, dist.Mean)
	assert.Equal(t, 1.0, dist.Min)
	assert.Equal(t, 4.0, dist.Max)
	assert.InDelta(t, 1.2910, dist.StdDev, 1e-4)

	single, err := Summarize([]float64{3})
	require.NoError(t, err)
	assert.Equal(t, 3.0, single.Mean)
	assert.Zero(t, single.StdDev)
	assert.Equal(t, 3.0, single.P025)
	assert.Equal(t, 3.0, single.P975)

	_, err = Summarize(nil)
	assert.Error(t, err)
}
