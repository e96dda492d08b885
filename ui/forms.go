package ui

import (
	"fmt"
	"strconv"
	"strings"

	"regsim/domain/simulation"
	"regsim/internal/errors"
)

// formValues keeps the raw text the user submitted so the form can be
// re-rendered exactly as it was typed
type formValues struct {
	N      string
	Mu     string
	Sigma2 string
	S      string
	Beta0  string
	Beta1  string
	Seed   string
}

// defaultForm pre-fills the form from the default params
func defaultForm() formValues {
	p := simulation.DefaultParams()
	return formValues{
		N:      strconv.Itoa(p.N),
		Mu:     strconv.FormatFloat(p.Mu, 'g', -1, 64),
		Sigma2: strconv.FormatFloat(p.Sigma2, 'g', -1, 64),
		S:      strconv.Itoa(p.S),
	}
}

// readForm collects the form fields from a url-encoded or multipart body
func readForm(get func(key string) string) formValues {
	return formValues{
		N:      strings.TrimSpace(get("N")),
		Mu:     strings.TrimSpace(get("mu")),
		Sigma2: strings.TrimSpace(get("sigma2")),
		S:      strings.TrimSpace(get("S")),
		Beta0:  strings.TrimSpace(get("beta0")),
		Beta1:  strings.TrimSpace(get("beta1")),
		Seed:   strings.TrimSpace(get("seed")),
	}
}

// Params parses the submitted text. N, mu, sigma2 and S are required;
// beta0, beta1 and seed default to zero when left blank.
func (f formValues) Params() (simulation.Params, error) {
	var p simulation.Params
	var err error

	if p.N, err = requiredInt("N", f.N); err != nil {
		return p, err
	}
	if p.Mu, err = requiredFloat("mu", f.Mu); err != nil {
		return p, err
	}
	if p.Sigma2, err = requiredFloat("sigma2", f.Sigma2); err != nil {
		return p, err
	}
	if p.S, err = requiredInt("S", f.S); err != nil {
		return p, err
	}
	if p.Beta0, err = optionalFloat("beta0", f.Beta0); err != nil {
		return p, err
	}
	if p.Beta1, err = optionalFloat("beta1", f.Beta1); err != nil {
		return p, err
	}
	if f.Seed != "" {
		if p.Seed, err = strconv.ParseUint(f.Seed, 10, 64); err != nil {
			return p, errors.InvalidInput("seed", "seed must be a non-negative integer")
		}
	}
	return p, nil
}

func requiredInt(field, value string) (int, error) {
	if value == "" {
		return 0, errors.InvalidInput(field, fmt.Sprintf("%s is required", field))
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.InvalidInput(field, fmt.Sprintf("%s must be an integer, got %q", field, value))
	}
	return v, nil
}

func requiredFloat(field, value string) (float64, error) {
	if value == "" {
		return 0, errors.InvalidInput(field, fmt.Sprintf("%s is required", field))
	}
	return optionalFloat(field, value)
}

func optionalFloat(field, value string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.InvalidInput(field, fmt.Sprintf("%s must be a number, got %q", field, value))
	}
	return v, nil
}
