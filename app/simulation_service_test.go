package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"regsim/adapters/excel"
	"regsim/adapters/plot"
	"regsim/adapters/rng"
	"regsim/domain/simulation"
	"regsim/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTestService(t *testing.T, retention int) (*SimulationService, string) {
	t.Helper()
	dir := t.TempDir()
	service := NewSimulationService(SimulationServiceConfig{
		OutputDir: dir,
		Retention: retention,
		Limits:    simulation.DefaultLimits(),
		Workers:   4,
	}, rng.NewRNGAdapter(), plot.NewRenderer(plot.DefaultConfig()), excel.NewExporter())
	return service, dir
}

func smallParams() simulation.Params {
	return simulation.Params{N: 30, Mu: 0, Sigma2: 1, S: 50}
}

func requireNonEmptyFile(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err, "expected %s to exist", path)
	assert.Greater(t, info.Size(), int64(0), "expected %s to be non-empty", path)
}

func TestSimulationService_RunWritesArtifacts(t *testing.T) {
	service, dir := newTestService(t, 10)

	out, err := service.Run(context.Background(), smallParams())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, out.Result.RunID), out.RunDir)
	requireNonEmptyFile(t, out.ScatterPath)
	requireNonEmptyFile(t, out.HistogramPath)
	requireNonEmptyFile(t, out.WorkbookPath)
	assert.NotZero(t, out.Result.Params.Seed, "a seed should have been drawn")

	runDir, err := service.RunDir(out.Result.RunID)
	require.NoError(t, err)
	assert.Equal(t, out.RunDir, runDir)
}

func TestSimulationService_SeparateRunsDoNotShareFiles(t *testing.T) {
	service, _ := newTestService(t, 10)
	ctx := context.Background()

	first, err := service.Run(ctx, smallParams())
	require.NoError(t, err)
	second, err := service.Run(ctx, smallParams())
	require.NoError(t, err)

	assert.NotEqual(t, first.Result.RunID, second.Result.RunID)
	assert.NotEqual(t, first.ScatterPath, second.ScatterPath)
	requireNonEmptyFile(t, first.ScatterPath)
	requireNonEmptyFile(t, second.ScatterPath)
}

func TestSimulationService_SeedReproducesRun(t *testing.T) {
	service, _ := newTestService(t, 10)
	ctx := context.Background()

	params := smallParams()
	params.Seed = 99
	first, err := service.Run(ctx, params)
	require.NoError(t, err)
	second, err := service.Run(ctx, params)
	require.NoError(t, err)

	assert.Equal(t, uint64(99), first.Result.Params.Seed)
	assert.Equal(t, first.Result.Fit, second.Result.Fit)
	assert.Equal(t, first.Result.SlopeMoreExtreme, second.Result.SlopeMoreExtreme)
	assert.Equal(t, first.Result.InterceptMoreExtreme, second.Result.InterceptMoreExtreme)
}

func TestSimulationService_ConfiguredSeed(t *testing.T) {
	service := NewSimulationService(SimulationServiceConfig{
		OutputDir: t.TempDir(),
		Retention: 5,
		Limits:    simulation.DefaultLimits(),
		Workers:   2,
		Seed:      7,
	}, rng.NewRNGAdapter(), plot.NewRenderer(plot.DefaultConfig()), nil)

	out, err := service.Run(context.Background(), smallParams())
	require.NoError(t, err)
	assert.Equal(t, uint64(7), out.Result.Params.Seed)
	assert.Empty(t, out.WorkbookPath)
}

func TestSimulationService_InvalidParams(t *testing.T) {
	service, dir := newTestService(t, 10)

	params := smallParams()
	params.Sigma2 = -1
	_, err := service.Run(context.Background(), params)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.Equal(t, "sigma2", errors.GetField(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected runs must not write artifacts")
}

func TestSimulationService_LimitsEnforced(t *testing.T) {
	service := NewSimulationService(SimulationServiceConfig{
		OutputDir: t.TempDir(),
		Limits:    simulation.Limits{MaxSampleSize: 100, MaxSimulations: 10},
		Workers:   1,
	}, rng.NewRNGAdapter(), plot.NewRenderer(plot.DefaultConfig()), nil)

	_, err := service.Run(context.Background(), simulation.Params{N: 30, Sigma2: 1, S: 11})
	require.Error(t, err)
	assert.Equal(t, "S", errors.GetField(err))
}

func TestSimulationService_Retention(t *testing.T) {
	service, dir := newTestService(t, 2)
	ctx := context.Background()

	var last *RunOutput
	for i := 0; i < 4; i++ {
		out, err := service.Run(ctx, smallParams())
		require.NoError(t, err)
		last = out
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = service.RunDir(last.Result.RunID)
	assert.NoError(t, err)
}

func TestSimulationService_ConcurrentRunsSurviveRetention(t *testing.T) {
	service, dir := newTestService(t, 1)
	ctx := context.Background()

	params := smallParams()
	params.S = 500

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := service.Run(ctx, params)
			return err
		})
	}
	require.NoError(t, g.Wait(), "a run must not lose its directory to another run's pruning")

	last, err := service.Run(ctx, smallParams())
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, last.Result.RunID, entries[0].Name())
}

// failingHistograms renders scatter plots but fails every histogram
type failingHistograms struct {
	*plot.Renderer
}

func (f failingHistograms) RenderHistograms(w io.Writer, result *simulation.Result) error {
	return errors.RenderFailed("histogram plot", fmt.Errorf("canvas unavailable"))
}

func TestSimulationService_FailedWriteRemovesRunDir(t *testing.T) {
	dir := t.TempDir()
	service := NewSimulationService(SimulationServiceConfig{
		OutputDir: dir,
		Retention: 5,
		Limits:    simulation.DefaultLimits(),
		Workers:   2,
	}, rng.NewRNGAdapter(), failingHistograms{plot.NewRenderer(plot.DefaultConfig())}, excel.NewExporter())

	_, err := service.Run(context.Background(), smallParams())
	require.Error(t, err)
	assert.Equal(t, errors.CodeRenderFailed, errors.GetCode(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "a failed run must not leave a partial directory")
}

func TestSimulationService_RunDirNotFound(t *testing.T) {
	service, _ := newTestService(t, 2)

	_, err := service.RunDir("../../etc")
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	_, err = service.RunDir("0b9a5f4e-8f3c-4b4e-9a55-3f6f3c1d2e10")
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestNewRunID_SortsByCreation(t *testing.T) {
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = newRunID()
	}
	assert.IsIncreasing(t, ids)
}
