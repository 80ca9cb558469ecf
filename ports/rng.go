package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic simulation.
// Every trial draws from its own stream so repetitions stay reproducible and
// uncorrelated when trials run in parallel.
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a named operation
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// TrialStream creates a deterministic RNG stream for one (run, cell, repetition)
	// combination, derived from the base seed. Identical inputs produce identical
	// streams across runs and regardless of execution order.
	TrialStream(ctx context.Context, runID string, n int, sd float64, rep int, baseSeed int64) (*rand.Rand, error)
}
