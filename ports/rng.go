package ports

import (
	"context"
	"math/rand/v2"
)

// RNGPort provides seeded random number generation for deterministic runs
type RNGPort interface {
	// Stream creates a deterministic source for one dataset of a run.
	// The same (baseSeed, stage, index) always yields the same sequence,
	// regardless of the order in which streams are requested.
	Stream(ctx context.Context, stage string, index int, baseSeed uint64) (rand.Source, error)

	// NewSeed draws a fresh base seed for runs that did not ask for one
	NewSeed() uint64
}
