package rng

import (
	"context"
	"fmt"
	"math/rand"
)

// Adapter implements ports.RNGPort with hash-derived stream seeds.
type Adapter struct{}

// NewAdapter creates a new RNG adapter
func NewAdapter() *Adapter {
	return &Adapter{}
}

// SeededStream creates a deterministic random number generator for a named operation
func (a *Adapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	return rand.New(rand.NewSource(seed)), nil
}

// TrialStream creates a deterministic RNG stream for one (run, cell, repetition)
// combination. The stream seed mixes the base seed with a hash of the cell key
// so adjacent trials never share a stream.
func (a *Adapter) TrialStream(ctx context.Context, runID string, n int, sd float64, rep int, baseSeed int64) (*rand.Rand, error) {
	key := fmt.Sprintf("%s|n=%d|sd=%g|rep=%d", runID, n, sd, rep)
	seed := baseSeed + int64(hashString(key))
	return rand.New(rand.NewSource(seed)), nil
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2 algorithm
	}
	return hash
}
