// Package dominant finds the most frequent color and shape pairs of a
// corpus and the subset of them that dominates the caption distribution.
package dominant

import (
	"container/heap"
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/splitter/freq"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/splitter/pairs"
)

// Entry is one slot of the top table. Placeholder slots have an empty Key
// and zero Freq.
type Entry struct {
	Key  string `json:"key"`
	Freq int    `json:"freq"`
	rank int
}

type Options struct {
	TopPairs   int
	Percentile float64
}

func DefaultOptions() Options {
	return Options{TopPairs: 100, Percentile: 25}
}

// Result is the outcome of Find.
type Result struct {
	Qualifying []string
	Table      []Entry
	Threshold  float64
	Dominant   map[string]struct{}
}

// IsDominant reports whether key is in the dominant set.
func (r *Result) IsDominant(key string) bool {
	_, ok := r.Dominant[key]
	return ok
}

// DominantKeys returns the dominant keys in table order.
func (r *Result) DominantKeys() []string {
	out := make([]string, 0, len(r.Dominant))
	for _, e := range r.Table {
		if r.IsDominant(e.Key) {
			out = append(out, e.Key)
		}
	}
	return out
}

// QualifyingAdjectives returns the corpus adjectives, most frequent first,
// that appear in any of the vocabularies.
func QualifyingAdjectives(idx *freq.Index, vocabs ...dataset.Vocabulary) []string {
	var out []string
	for _, a := range idx.RankedAdjectives() {
		for _, v := range vocabs {
			if v.Contains(a.Adj) {
				out = append(out, a.Adj)
				break
			}
		}
	}
	return out
}

// TopPairs keeps the k most frequent ranked keys whose adjective qualifies.
// The table starts with k zero placeholders and a key replaces the current
// minimum only when strictly more frequent. Among equal minima the
// later-ranked entry is evicted first. The result is ordered by frequency
// descending then rank, padded with placeholders to k.
func TopPairs(ranked []freq.Entry, qualifying []string, k int) []Entry {
	if k <= 0 {
		return nil
	}
	allowed := make(map[string]struct{}, len(qualifying))
	for _, a := range qualifying {
		allowed[a] = struct{}{}
	}

	h := make(entryHeap, k)
	for i := range h {
		h[i] = Entry{rank: math.MaxInt - i}
	}
	heap.Init(&h)
	for rank, e := range ranked {
		if _, ok := allowed[pairs.AdjectiveOf(e.Key)]; !ok {
			continue
		}
		if e.Count <= h[0].Freq {
			continue
		}
		h[0] = Entry{Key: e.Key, Freq: e.Count, rank: rank}
		heap.Fix(&h, 0)
	}

	out := []Entry(h)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Freq != out[j].Freq {
			return out[i].Freq > out[j].Freq
		}
		return out[i].rank < out[j].rank
	})
	return out
}

// Percentile returns the p-th percentile of values using linear
// interpolation between closest ranks.
func Percentile(values []int, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	pos := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if hi >= len(sorted) {
		hi = len(sorted) - 1
	}
	frac := pos - float64(lo)
	return float64(sorted[lo]) + frac*float64(sorted[hi]-sorted[lo])
}

// Find builds the top table over the qualifying adjectives and marks the
// entries strictly above the configured percentile of the table as dominant.
func Find(idx *freq.Index, opts Options, vocabs ...dataset.Vocabulary) *Result {
	qualifying := QualifyingAdjectives(idx, vocabs...)
	table := TopPairs(idx.Ranked(), qualifying, opts.TopPairs)

	freqs := make([]int, len(table))
	for i, e := range table {
		freqs[i] = e.Freq
	}
	threshold := Percentile(freqs, opts.Percentile)

	dominant := make(map[string]struct{})
	for _, e := range table {
		if e.Key != "" && float64(e.Freq) > threshold {
			dominant[e.Key] = struct{}{}
		}
	}
	return &Result{
		Qualifying: qualifying,
		Table:      table,
		Threshold:  threshold,
		Dominant:   dominant,
	}
}

// entryHeap is a min-heap on frequency; the later-ranked entry sorts first
// among equal frequencies.
type entryHeap []Entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].Freq != h[j].Freq {
		return h[i].Freq < h[j].Freq
	}
	return h[i].rank > h[j].rank
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x interface{}) {
	*h = append(*h, x.(Entry))
}

func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
