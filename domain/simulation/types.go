package simulation

import (
	"fmt"
	"math"
	"time"

	"regsim/internal/errors"
)

// Params holds the user-supplied inputs of one run
type Params struct {
	N      int     `json:"n"`      // sample size
	Mu     float64 `json:"mu"`     // mean of the additive error
	Sigma2 float64 `json:"sigma2"` // variance of the additive error
	S      int     `json:"s"`      // number of simulated datasets

	// Beta0 and Beta1 define the signal Y = Beta0 + Beta1*X + e.
	// Both default to zero, in which case Y is pure noise.
	Beta0 float64 `json:"beta0"`
	Beta1 float64 `json:"beta1"`

	// Seed of zero asks the service to pick one
	Seed uint64 `json:"seed"`
}

// Limits bounds the amount of work a single run may request
type Limits struct {
	MaxSampleSize  int
	MaxSimulations int
}

// DefaultLimits returns the limits used when none are configured
func DefaultLimits() Limits {
	return Limits{
		MaxSampleSize:  100000,
		MaxSimulations: 10000,
	}
}

// DefaultParams returns the values the form is pre-filled with
func DefaultParams() Params {
	return Params{
		N:      100,
		Mu:     0,
		Sigma2: 1,
		S:      1000,
	}
}

// Validate checks the params against the limits
func (p Params) Validate(limits Limits) error {
	if p.N < 2 {
		return errors.InvalidInput("N", "sample size N must be at least 2")
	}
	if limits.MaxSampleSize > 0 && p.N > limits.MaxSampleSize {
		return errors.InvalidInput("N", fmt.Sprintf("sample size N must not exceed %d", limits.MaxSampleSize))
	}
	if math.IsNaN(p.Mu) || math.IsInf(p.Mu, 0) {
		return errors.InvalidInput("mu", "mean mu must be a finite number")
	}
	if math.IsNaN(p.Sigma2) || math.IsInf(p.Sigma2, 0) || p.Sigma2 < 0 {
		return errors.InvalidInput("sigma2", "variance sigma2 must be a finite, non-negative number")
	}
	if p.S < 1 {
		return errors.InvalidInput("S", "simulation count S must be at least 1")
	}
	if limits.MaxSimulations > 0 && p.S > limits.MaxSimulations {
		return errors.InvalidInput("S", fmt.Sprintf("simulation count S must not exceed %d", limits.MaxSimulations))
	}
	if math.IsNaN(p.Beta0) || math.IsInf(p.Beta0, 0) {
		return errors.InvalidInput("beta0", "intercept beta0 must be a finite number")
	}
	if math.IsNaN(p.Beta1) || math.IsInf(p.Beta1, 0) {
		return errors.InvalidInput("beta1", "slope beta1 must be a finite number")
	}
	return nil
}

// Dataset is a paired sample of the independent and dependent variable
type Dataset struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// Len returns the number of observations
func (d Dataset) Len() int {
	return len(d.X)
}

// Validate ensures both columns have the same length
func (d Dataset) Validate() error {
	if len(d.X) != len(d.Y) {
		return errors.InternalError(fmt.Sprintf("dataset column length mismatch: x=%d y=%d", len(d.X), len(d.Y)))
	}
	return nil
}

// Fit is the result of an ordinary least squares fit of Y on X
type Fit struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"r_squared"`
}

// Predict evaluates the fitted line at x
func (f Fit) Predict(x float64) float64 {
	return f.Intercept + f.Slope*x
}

// Equation formats the fitted line the way the scatter plot title shows it
func (f Fit) Equation() string {
	return fmt.Sprintf("Y = %.2f + %.2fX", f.Intercept, f.Slope)
}

// Distribution summarises the simulated values of one statistic
type Distribution struct {
	Values []float64 `json:"-"`
	Mean   float64   `json:"mean"`
	StdDev float64   `json:"std_dev"`
	Min    float64   `json:"min"`
	Max    float64   `json:"max"`
	P025   float64   `json:"p025"`
	P975   float64   `json:"p975"`
}

// Result is everything computed for one run
type Result struct {
	RunID   string  `json:"run_id"`
	Params  Params  `json:"params"`
	Primary Dataset `json:"-"`
	Fit     Fit     `json:"fit"`

	Slopes     Distribution `json:"slopes"`
	Intercepts Distribution `json:"intercepts"`

	// Share of simulated slopes above the observed slope
	SlopeMoreExtreme float64 `json:"slope_more_extreme"`
	// Share of simulated intercepts below the observed intercept
	InterceptMoreExtreme float64 `json:"intercept_more_extreme"`

	Elapsed time.Duration `json:"elapsed"`
}

// Stage names used to derive independent random streams within a run
const (
	StagePrimary    = "primary"
	StageSimulation = "simulation"
)
