package rng

import (
	"context"
	"math/rand/v2"

	"regsim/ports"
)

// RNGAdapter implements ports.RNGPort on top of PCG streams
type RNGAdapter struct{}

var _ ports.RNGPort = (*RNGAdapter)(nil)

// NewRNGAdapter creates a new RNG adapter
func NewRNGAdapter() *RNGAdapter {
	return &RNGAdapter{}
}

// Stream creates a deterministic PCG stream for a specific stage/index.
// The base seed selects the run, the stage and index select the stream within it.
func (r *RNGAdapter) Stream(ctx context.Context, stage string, index int, baseSeed uint64) (rand.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stream := uint64(hashString(stage))<<32 | uint64(uint32(index))
	return rand.NewPCG(baseSeed, stream), nil
}

// NewSeed draws a non-zero seed from the runtime's randomly seeded generator
func (r *RNGAdapter) NewSeed() uint64 {
	for {
		if seed := rand.Uint64(); seed != 0 {
			return seed
		}
	}
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2
	}
	return hash
}
