package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"regsim/domain/simulation"
	"regsim/internal"
	"regsim/internal/errors"
	engine "regsim/internal/simulation"
	"regsim/ports"

	"github.com/google/uuid"
)

// Artifact file names inside a run directory
const (
	ScatterFile   = "plot1.png"
	HistogramFile = "plot2.png"
	WorkbookFile  = "results.xlsx"
)

// SimulationServiceConfig holds the settings of the simulation service
type SimulationServiceConfig struct {
	OutputDir string
	Retention int
	Limits    simulation.Limits
	Workers   int
	Seed      uint64 // used when a request does not carry a seed; 0 draws one per run
	Logger    *internal.Logger
}

// SimulationService runs simulations and writes their artifacts, one directory per run
type SimulationService struct {
	engine   *engine.Engine
	rngPort  ports.RNGPort
	renderer ports.PlotRenderer
	exporter ports.ResultExporter
	config   SimulationServiceConfig
	logger   *internal.Logger

	// pruneMu guards active, the run IDs whose directories are still being
	// written or were just finished by a running Run call
	pruneMu sync.Mutex
	active  map[string]struct{}
}

// RunOutput is a finished run and the paths of its artifacts
type RunOutput struct {
	Result        *simulation.Result
	RunDir        string
	ScatterPath   string
	HistogramPath string
	WorkbookPath  string // empty when no exporter is configured
}

// NewSimulationService creates a simulation service. exporter may be nil.
func NewSimulationService(config SimulationServiceConfig, rngPort ports.RNGPort, renderer ports.PlotRenderer, exporter ports.ResultExporter) *SimulationService {
	if config.Retention < 1 {
		config.Retention = 1
	}
	logger := config.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &SimulationService{
		logger:   logger.WithComponent("SimulationService"),
		engine:   engine.NewEngine(rngPort, config.Workers),
		rngPort:  rngPort,
		renderer: renderer,
		exporter: exporter,
		config:   config,
		active:   make(map[string]struct{}),
	}
}

// Limits returns the per-run limits enforced by Run
func (s *SimulationService) Limits() simulation.Limits {
	return s.config.Limits
}

// Run validates params, computes the run and writes its artifacts
func (s *SimulationService) Run(ctx context.Context, params simulation.Params) (*RunOutput, error) {
	if err := params.Validate(s.config.Limits); err != nil {
		return nil, err
	}

	runID := newRunID()
	params.Seed = s.resolveSeed(params.Seed)
	s.logger.Info("Run %s started: N=%d mu=%g sigma2=%g S=%d seed=%d",
		runID, params.N, params.Mu, params.Sigma2, params.S, params.Seed)

	result, err := s.engine.Run(ctx, runID, params)
	if err != nil {
		s.logger.Warn("Run %s failed: %v", runID, err)
		return nil, err
	}

	s.markActive(runID)
	defer s.releaseActive(runID)

	out, err := s.writeRun(result)
	if err != nil {
		s.logger.Warn("Run %s failed to write artifacts: %v", runID, err)
		return nil, err
	}

	if err := s.prune(); err != nil {
		s.logger.Warn("Failed to prune old runs: %v", err)
	}

	s.logger.Info("Run %s finished in %.2fms: slope=%.4f intercept=%.4f slope_extreme=%.3f intercept_extreme=%.3f",
		runID, float64(result.Elapsed.Nanoseconds())/1e6, result.Fit.Slope, result.Fit.Intercept,
		result.SlopeMoreExtreme, result.InterceptMoreExtreme)
	return out, nil
}

// writeRun creates the run directory and writes every artifact into it.
// A run that fails midway leaves no directory behind.
func (s *SimulationService) writeRun(result *simulation.Result) (out *RunOutput, err error) {
	runDir := filepath.Join(s.config.OutputDir, result.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create run directory %s", runDir)
	}
	defer func() {
		if err != nil {
			os.RemoveAll(runDir)
		}
	}()

	out = &RunOutput{
		Result:        result,
		RunDir:        runDir,
		ScatterPath:   filepath.Join(runDir, ScatterFile),
		HistogramPath: filepath.Join(runDir, HistogramFile),
	}

	if err := writeArtifact(out.ScatterPath, func(w io.Writer) error {
		return s.renderer.RenderScatter(w, result.Primary, result.Fit)
	}); err != nil {
		return nil, err
	}
	if err := writeArtifact(out.HistogramPath, func(w io.Writer) error {
		return s.renderer.RenderHistograms(w, result)
	}); err != nil {
		return nil, err
	}
	if s.exporter != nil {
		out.WorkbookPath = filepath.Join(runDir, WorkbookFile)
		if err := writeArtifact(out.WorkbookPath, func(w io.Writer) error {
			return s.exporter.Export(w, result)
		}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SimulationService) markActive(runID string) {
	s.pruneMu.Lock()
	defer s.pruneMu.Unlock()
	s.active[runID] = struct{}{}
}

func (s *SimulationService) releaseActive(runID string) {
	s.pruneMu.Lock()
	defer s.pruneMu.Unlock()
	delete(s.active, runID)
}

// RunDir returns the artifact directory of an existing run
func (s *SimulationService) RunDir(runID string) (string, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return "", errors.NotFound(fmt.Sprintf("run %q", runID))
	}
	dir := filepath.Join(s.config.OutputDir, runID)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", errors.NotFound(fmt.Sprintf("run %q", runID))
	}
	return dir, nil
}

func (s *SimulationService) resolveSeed(requested uint64) uint64 {
	if requested != 0 {
		return requested
	}
	if s.config.Seed != 0 {
		return s.config.Seed
	}
	return s.rngPort.NewSeed()
}

// prune removes the oldest run directories beyond the retention limit.
// Run IDs are time-ordered, so sorting by name sorts by age. Active runs
// count toward the limit but are never removed, so the output directory may
// briefly hold more than Retention runs while requests overlap.
func (s *SimulationService) prune() error {
	s.pruneMu.Lock()
	defer s.pruneMu.Unlock()

	entries, err := os.ReadDir(s.config.OutputDir)
	if err != nil {
		return err
	}

	var runs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := uuid.Parse(entry.Name()); err != nil {
			continue
		}
		runs = append(runs, entry.Name())
	}
	if len(runs) <= s.config.Retention {
		return nil
	}

	sort.Sort(sort.Reverse(sort.StringSlice(runs)))
	for _, run := range runs[s.config.Retention:] {
		if _, ok := s.active[run]; ok {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.config.OutputDir, run)); err != nil {
			return err
		}
		s.logger.Debug("Pruned run %s", run)
	}
	return nil
}

// newRunID returns a UUID v7 so run directories sort by creation time
func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

// writeArtifact writes to a temporary file and renames it into place so
// readers never observe a partially written artifact
func writeArtifact(path string, write func(w io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "failed to move %s into place", path)
	}
	return nil
}
