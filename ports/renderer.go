package ports

import (
	"io"

	"regsim/domain/simulation"
)

// PlotRenderer rasterizes run results to PNG
type PlotRenderer interface {
	// RenderScatter draws the primary dataset with its fitted line
	RenderScatter(w io.Writer, dataset simulation.Dataset, fit simulation.Fit) error

	// RenderHistograms draws the simulated slope and intercept distributions
	// with markers at the observed values
	RenderHistograms(w io.Writer, result *simulation.Result) error
}

// ResultExporter writes a run result in a downloadable format
type ResultExporter interface {
	Export(w io.Writer, result *simulation.Result) error
}
