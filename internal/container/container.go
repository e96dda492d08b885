package container

import (
	"fmt"
	"os"

	"regsim/adapters/excel"
	"regsim/adapters/plot"
	"regsim/adapters/rng"
	"regsim/app"
	"regsim/internal"
	"regsim/internal/config"
	"regsim/ports"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Adapters
	RNG      ports.RNGPort
	Renderer ports.PlotRenderer
	Exporter ports.ResultExporter

	// Services
	SimulationService *app.SimulationService
}

// New creates a new dependency injection container and wires every component
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", cfg.Output.Dir, err)
	}

	c := &Container{
		Config:   cfg,
		Logger:   internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel)),
		RNG:      rng.NewRNGAdapter(),
		Renderer: plot.NewRenderer(plot.DefaultConfig()),
		Exporter: excel.NewExporter(),
	}

	c.SimulationService = app.NewSimulationService(app.SimulationServiceConfig{
		OutputDir: cfg.Output.Dir,
		Retention: cfg.Output.Retention,
		Limits:    cfg.Simulation.Limits(),
		Workers:   cfg.Simulation.Workers,
		Seed:      cfg.Simulation.Seed,
		Logger:    c.Logger,
	}, c.RNG, c.Renderer, c.Exporter)

	c.Logger.WithComponent("Container").Info("Simulation service ready: output=%s retention=%d workers=%d",
		cfg.Output.Dir, cfg.Output.Retention, cfg.Simulation.Workers)
	return c, nil
}
