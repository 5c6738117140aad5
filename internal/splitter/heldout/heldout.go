// Package heldout picks the adjective-noun pairs withheld from training.
package heldout

import (
	"math/rand/v2"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/splitter/freq"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/splitter/sample"
)

// Options sets the frequency band and the sampling divisor of Select.
type Options struct {
	LowPercentile  int
	HighPercentile int
	Divisor        int
}

// DefaultOptions samples a tenth of the distinct pairs from the band between
// the 25th and 75th percentiles.
func DefaultOptions() Options {
	return Options{LowPercentile: 25, HighPercentile: 75, Divisor: 10}
}

// Band returns the ranked slice bounds [lo, hi) of the mid-frequency band
// for n distinct pairs. hi is clamped to n.
func Band(n int, opts Options) (lo, hi int) {
	lo = n * opts.LowPercentile / 100
	hi = n*opts.HighPercentile/100 + 1
	if hi > n {
		hi = n
	}
	if lo > hi {
		lo = hi
	}
	return lo, hi
}

// Size returns how many pairs are held out for n distinct pairs.
func Size(n int, opts Options) int {
	if opts.Divisor <= 0 {
		return 0
	}
	return n / opts.Divisor
}

// Select samples Size(n) keys uniformly without replacement from the band
// of the frequency ranking. Keys come back in rank order. Corpora with
// fewer than Divisor distinct pairs yield no heldout pairs.
func Select(idx *freq.Index, rng *rand.Rand, opts Options) ([]string, error) {
	ranked := idx.Ranked()
	n := len(ranked)
	k := Size(n, opts)
	if k == 0 {
		return nil, nil
	}
	lo, hi := Band(n, opts)
	chosen, err := sample.Indices(rng, hi-lo, k)
	if err != nil {
		return nil, err
	}
	sort.Ints(chosen)
	out := make([]string, len(chosen))
	for i, c := range chosen {
		out[i] = ranked[lo+c].Key
	}
	return out, nil
}
