package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"regsim/domain/simulation"
	"regsim/internal/config"
	"regsim/internal/container"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "regsim-cli",
		Short: "Run linear regression sampling simulations without the web UI",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
		},
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newRunCmd())
	return rootCmd
}

// loadConfig reads the environment like the web server does and applies the
// flags the user set on top of it
func loadConfig(cmd *cobra.Command, outDir string, workers, retention int) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.Output.Dir = outDir
	}
	if flags.Changed("workers") {
		cfg.Simulation.Workers = workers
	}
	if flags.Changed("keep") {
		cfg.Output.Retention = retention
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newRunCmd() *cobra.Command {
	params := simulation.DefaultParams()
	var outDir string
	var workers int
	var retention int
	var asJSON bool
	var quiet bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate a dataset, fit it, simulate S more datasets and write the plots",
		Long: `Generate a dataset of N points with X ~ U(0,1) and Y = beta0 + beta1*X + e,
e ~ N(mu, sigma2), fit it by ordinary least squares, fit S more simulated
datasets and write the scatter plot, the histogram plot and an xlsx workbook.

Example: regsim-cli run --n 100 --mu 0 --sigma2 1 --s 1000 --seed 42 --out ./out`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if quiet {
				log.SetOutput(io.Discard)
			}
			cfg, err := loadConfig(cmd, outDir, workers, retention)
			if err != nil {
				return err
			}
			c, err := container.New(cfg)
			if err != nil {
				return err
			}

			out, err := c.SimulationService.Run(cmd.Context(), params)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					*simulation.Result
					Scatter   string `json:"scatter"`
					Histogram string `json:"histogram"`
					Workbook  string `json:"workbook"`
				}{out.Result, out.ScatterPath, out.HistogramPath, out.WorkbookPath})
			}

			r := out.Result
			fmt.Fprintf(w, "Run:        %s (seed %d)\n", r.RunID, r.Params.Seed)
			fmt.Fprintf(w, "Fit:        %s  R^2=%.4f\n", r.Fit.Equation(), r.Fit.RSquared)
			fmt.Fprintf(w, "Slopes:     mean=%.4f sd=%.4f 95%%=[%.4f, %.4f]\n", r.Slopes.Mean, r.Slopes.StdDev, r.Slopes.P025, r.Slopes.P975)
			fmt.Fprintf(w, "Intercepts: mean=%.4f sd=%.4f 95%%=[%.4f, %.4f]\n", r.Intercepts.Mean, r.Intercepts.StdDev, r.Intercepts.P025, r.Intercepts.P975)
			fmt.Fprintf(w, "Proportion of slopes more extreme:     %.4f\n", r.SlopeMoreExtreme)
			fmt.Fprintf(w, "Proportion of intercepts more extreme: %.4f\n", r.InterceptMoreExtreme)
			fmt.Fprintf(w, "Scatter plot:   %s\n", out.ScatterPath)
			fmt.Fprintf(w, "Histogram plot: %s\n", out.HistogramPath)
			fmt.Fprintf(w, "Workbook:       %s\n", out.WorkbookPath)
			return nil
		},
	}

	cmd.Flags().IntVar(&params.N, "n", params.N, "Sample size N")
	cmd.Flags().Float64Var(&params.Mu, "mu", params.Mu, "Mean of the additive error")
	cmd.Flags().Float64Var(&params.Sigma2, "sigma2", params.Sigma2, "Variance of the additive error")
	cmd.Flags().IntVar(&params.S, "s", params.S, "Number of simulated datasets")
	cmd.Flags().Float64Var(&params.Beta0, "beta0", 0, "True intercept of the signal")
	cmd.Flags().Float64Var(&params.Beta1, "beta1", 0, "True slope of the signal")
	cmd.Flags().Uint64Var(&params.Seed, "seed", 0, "Random seed for deterministic runs (0 falls back to SEED, then draws one)")
	cmd.Flags().StringVar(&outDir, "out", "", "Directory the run directory is created in (default OUTPUT_DIR)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Simulations fitted concurrently (default WORKERS)")
	cmd.Flags().IntVar(&retention, "keep", 0, "Run directories kept in the output directory (default RUN_RETENTION)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress log output")

	return cmd
}
