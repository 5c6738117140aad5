// Package sample draws uniform samples without replacement from an
// injected random source.
package sample

import (
	"math/rand/v2"

	apperrors "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/errors"
)

// NewRand returns the generator every random step of a build shares. The
// same seed always yields the same sequence.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Indices returns k distinct indices from [0, n) in selection order, using a
// partial Fisher-Yates shuffle.
func Indices(rng *rand.Rand, n, k int) ([]int, error) {
	if k < 0 || n < 0 {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "negative sample bounds n=%d k=%d", n, k)
	}
	if k > n {
		return nil, apperrors.Newf(apperrors.ErrInsufficientPopulation,
			"cannot sample %d items from a population of %d (short by %d)", k, n, k-n)
	}
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + rng.IntN(n-i)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm[:k], nil
}

// Strings returns k distinct elements of population in selection order.
func Strings(rng *rand.Rand, population []string, k int) ([]string, error) {
	idx, err := Indices(rng, len(population), k)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = population[j]
	}
	return out, nil
}

// Choice returns one element of population uniformly. It panics on an empty
// population; callers check length first.
func Choice[T any](rng *rand.Rand, population []T) T {
	return population[rng.IntN(len(population))]
}
