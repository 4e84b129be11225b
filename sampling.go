package embeddingbench

import (
	"math/rand/v2"
	"slices"
)

// newRand returns a PRNG seeded only from seed. Every sampling call builds
// its own so results do not depend on call order.
func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}

// sampleN draws n distinct elements without replacement. When n exceeds the
// slice the elements are returned unchanged, in order; n == len(elems) still
// yields a seeded permutation.
func sampleN[T any](elems []T, n int, seed int64) []T {
	if n > len(elems) {
		return slices.Clone(elems)
	}
	if n <= 0 {
		return nil
	}

	rng := newRand(seed)
	pool := slices.Clone(elems)
	for i := range n {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}
