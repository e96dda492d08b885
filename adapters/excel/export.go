package excel

import (
	"fmt"
	"io"
	"log"
	"time"

	"regsim/domain/simulation"
	"regsim/ports"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the exported workbook
const (
	SummarySheet     = "Summary"
	DatasetSheet     = "Dataset"
	SimulationsSheet = "Simulations"
)

// Exporter writes run results as an xlsx workbook
type Exporter struct{}

var _ ports.ResultExporter = (*Exporter)(nil)

// NewExporter creates a new workbook exporter
func NewExporter() *Exporter {
	return &Exporter{}
}

// Export writes a workbook with the run summary, the primary dataset and
// every simulated slope and intercept
func (e *Exporter) Export(w io.Writer, result *simulation.Result) error {
	startTime := time.Now()
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	if err := writeSummary(f, result); err != nil {
		return err
	}

	if _, err := f.NewSheet(DatasetSheet); err != nil {
		return fmt.Errorf("failed to create dataset sheet: %w", err)
	}
	if err := writeColumns(f, DatasetSheet, []string{"X", "Y"}, result.Primary.X, result.Primary.Y); err != nil {
		return err
	}

	if _, err := f.NewSheet(SimulationsSheet); err != nil {
		return fmt.Errorf("failed to create simulations sheet: %w", err)
	}
	if err := writeColumns(f, SimulationsSheet, []string{"Slope", "Intercept"}, result.Slopes.Values, result.Intercepts.Values); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	log.Printf("[Exporter] Workbook for run %s written in %.2fms", result.RunID, float64(time.Since(startTime).Nanoseconds())/1e6)
	return nil
}

func writeSummary(f *excelize.File, result *simulation.Result) error {
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Run ID", result.RunID},
		{"N", result.Params.N},
		{"mu", result.Params.Mu},
		{"sigma2", result.Params.Sigma2},
		{"S", result.Params.S},
		{"beta0", result.Params.Beta0},
		{"beta1", result.Params.Beta1},
		{"Seed", fmt.Sprintf("%d", result.Params.Seed)},
		{"Slope", result.Fit.Slope},
		{"Intercept", result.Fit.Intercept},
		{"R squared", result.Fit.RSquared},
		{"Slope more extreme", result.SlopeMoreExtreme},
		{"Intercept more extreme", result.InterceptMoreExtreme},
		{"Simulated slope mean", result.Slopes.Mean},
		{"Simulated slope std dev", result.Slopes.StdDev},
		{"Simulated slope 2.5%", result.Slopes.P025},
		{"Simulated slope 97.5%", result.Slopes.P975},
		{"Simulated intercept mean", result.Intercepts.Mean},
		{"Simulated intercept std dev", result.Intercepts.StdDev},
		{"Simulated intercept 2.5%", result.Intercepts.P025},
		{"Simulated intercept 97.5%", result.Intercepts.P975},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i+1, err)
		}
	}
	return nil
}

// writeColumns writes a header row followed by two equally long columns
func writeColumns(f *excelize.File, sheet string, headers []string, a, b []float64) error {
	if len(a) != len(b) {
		return fmt.Errorf("column length mismatch in %s: %d vs %d", sheet, len(a), len(b))
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	for i := range a {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []float64{a[i], b[i]}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
