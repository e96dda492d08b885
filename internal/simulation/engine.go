package simulation

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"regsim/domain/simulation"
	"regsim/internal/errors"
	"regsim/ports"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Engine draws datasets, fits them and builds the simulated distributions
type Engine struct {
	rng     ports.RNGPort
	workers *semaphore.Weighted
}

// NewEngine creates an engine that runs at most workers simulations at once
func NewEngine(rng ports.RNGPort, workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		rng:     rng,
		workers: semaphore.NewWeighted(int64(workers)),
	}
}

// Run executes one complete run: the primary dataset and fit, then params.S
// simulated datasets fitted independently. Params must already be validated
// and carry the seed to use.
func (e *Engine) Run(ctx context.Context, runID string, params simulation.Params) (*simulation.Result, error) {
	start := time.Now()

	src, err := e.rng.Stream(ctx, simulation.StagePrimary, 0, params.Seed)
	if err != nil {
		return nil, errors.Canceled(err)
	}
	primary := GenerateDataset(src, params)
	fit, err := FitOLS(primary)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fit primary dataset")
	}

	slopes, intercepts, err := e.simulate(ctx, params)
	if err != nil {
		return nil, err
	}

	slopeDist, err := Summarize(slopes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to summarize simulated slopes")
	}
	interceptDist, err := Summarize(intercepts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to summarize simulated intercepts")
	}

	slopeExtreme, interceptExtreme := ExtremeProportions(fit, slopes, intercepts)

	return &simulation.Result{
		RunID:                runID,
		Params:               params,
		Primary:              primary,
		Fit:                  fit,
		Slopes:               slopeDist,
		Intercepts:           interceptDist,
		SlopeMoreExtreme:     slopeExtreme,
		InterceptMoreExtreme: interceptExtreme,
		Elapsed:              time.Since(start),
	}, nil
}

// simulate fits params.S fresh datasets. Every simulation reads its own
// stream, so the output only depends on the seed and not on scheduling.
func (e *Engine) simulate(ctx context.Context, params simulation.Params) (slopes, intercepts []float64, err error) {
	slopes = make([]float64, params.S)
	intercepts = make([]float64, params.S)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < params.S; i++ {
		if err := e.workers.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer e.workers.Release(1)

			src, err := e.rng.Stream(gctx, simulation.StageSimulation, i, params.Seed)
			if err != nil {
				return err
			}
			fit, err := FitOLS(GenerateDataset(src, params))
			if err != nil {
				return errors.Wrapf(err, "failed to fit simulation %d", i)
			}
			slopes[i] = fit.Slope
			intercepts[i] = fit.Intercept
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, nil, errors.Canceled(ctx.Err())
		}
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, errors.Canceled(err)
	}
	return slopes, intercepts, nil
}

// GenerateDataset draws params.N observations with X ~ U[0,1] and
// Y = Beta0 + Beta1*X + e, e ~ N(Mu, Sigma2)
func GenerateDataset(src rand.Source, params simulation.Params) simulation.Dataset {
	uniform := distuv.Uniform{Min: 0, Max: 1, Src: src}
	noise := distuv.Normal{Mu: params.Mu, Sigma: math.Sqrt(params.Sigma2), Src: src}

	x := make([]float64, params.N)
	for i := range x {
		x[i] = uniform.Rand()
	}
	y := make([]float64, params.N)
	for i := range y {
		y[i] = params.Beta0 + params.Beta1*x[i] + noise.Rand()
	}
	return simulation.Dataset{X: x, Y: y}
}

// FitOLS fits Y = intercept + slope*X by ordinary least squares
func FitOLS(dataset simulation.Dataset) (simulation.Fit, error) {
	if err := dataset.Validate(); err != nil {
		return simulation.Fit{}, err
	}
	if dataset.Len() < 2 {
		return simulation.Fit{}, errors.InvalidInput("N", "at least two observations are required to fit a line")
	}

	intercept, slope := stat.LinearRegression(dataset.X, dataset.Y, nil, false)
	if math.IsNaN(slope) || math.IsNaN(intercept) {
		return simulation.Fit{}, errors.InternalError("degenerate dataset: X has no variance")
	}

	r2 := stat.RSquared(dataset.X, dataset.Y, nil, intercept, slope)
	if math.IsNaN(r2) {
		// Y is constant and the line passes through every point
		r2 = 1
	}

	return simulation.Fit{
		Slope:     slope,
		Intercept: intercept,
		RSquared:  r2,
	}, nil
}

// ExtremeProportions returns the share of simulated slopes greater than the
// observed slope and the share of simulated intercepts less than the observed
// intercept. Both are zero when there are no simulations.
func ExtremeProportions(observed simulation.Fit, slopes, intercepts []float64) (slopeMoreExtreme, interceptMoreExtreme float64) {
	if len(slopes) > 0 {
		above := 0
		for _, s := range slopes {
			if s > observed.Slope {
				above++
			}
		}
		slopeMoreExtreme = float64(above) / float64(len(slopes))
	}
	if len(intercepts) > 0 {
		below := 0
		for _, i := range intercepts {
			if i < observed.Intercept {
				below++
			}
		}
		interceptMoreExtreme = float64(below) / float64(len(intercepts))
	}
	return slopeMoreExtreme, interceptMoreExtreme
}

// Summarize computes the summary statistics shown next to the histograms
func Summarize(values []float64) (simulation.Distribution, error) {
	dist := simulation.Distribution{Values: values}

	var err error
	if dist.Mean, err = stats.Mean(values); err != nil {
		return dist, err
	}
	// a single simulation has no spread
	if len(values) > 1 {
		if dist.StdDev, err = stats.StandardDeviationSample(values); err != nil {
			return dist, err
		}
	}
	if dist.Min, err = stats.Min(values); err != nil {
		return dist, err
	}
	if dist.Max, err = stats.Max(values); err != nil {
		return dist, err
	}
	if dist.P025, err = stats.PercentileNearestRank(values, 2.5); err != nil {
		return dist, err
	}
	if dist.P975, err = stats.PercentileNearestRank(values, 97.5); err != nil {
		return dist, err
	}
	return dist, nil
}
