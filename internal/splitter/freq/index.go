// Package freq accumulates adjective-noun pair occurrences over a corpus.
package freq

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/splitter/pairs"
)

// Occurrence is one matched bigram in one caption.
type Occurrence struct {
	ItemID       string
	CaptionIndex int
	Adj          string
	Noun         string
}

// Entry is a pair key with its occurrence count.
type Entry struct {
	Key   string
	Count int
}

// AdjectiveEntry is a lowercase adjective with its occurrence count.
type AdjectiveEntry struct {
	Adj   string
	Count int
}

// Index maps pair keys to their occurrences and adjectives to counts. Keys
// and adjectives remember the order in which they were first added; that
// order breaks every frequency tie. The index is filled by one pass and
// read-only afterwards.
type Index struct {
	postings  map[string][]Occurrence
	keys      []string
	adjCounts map[string]int
	adjs      []string
	total     int
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		postings:  make(map[string][]Occurrence),
		adjCounts: make(map[string]int),
	}
}

// Add records every pair of one caption.
func (x *Index) Add(itemID string, captionIndex int, ps []pairs.Pair) {
	for _, p := range ps {
		if _, ok := x.postings[p.Key]; !ok {
			x.keys = append(x.keys, p.Key)
		}
		x.postings[p.Key] = append(x.postings[p.Key], Occurrence{
			ItemID:       itemID,
			CaptionIndex: captionIndex,
			Adj:          p.Adj,
			Noun:         p.Noun,
		})

		adj := pairs.AdjectiveOf(p.Key)
		if _, ok := x.adjCounts[adj]; !ok {
			x.adjs = append(x.adjs, adj)
		}
		x.adjCounts[adj]++
		x.total++
	}
}

// Ranked returns all keys by count descending, ties in first-insertion order.
func (x *Index) Ranked() []Entry {
	out := make([]Entry, len(x.keys))
	for i, k := range x.keys {
		out[i] = Entry{Key: k, Count: len(x.postings[k])}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// RankedAdjectives returns adjectives by count descending, ties in
// first-insertion order.
func (x *Index) RankedAdjectives() []AdjectiveEntry {
	out := make([]AdjectiveEntry, len(x.adjs))
	for i, a := range x.adjs {
		out[i] = AdjectiveEntry{Adj: a, Count: x.adjCounts[a]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// Occurrences returns the occurrences of key in processing order. The slice
// must not be modified.
func (x *Index) Occurrences(key string) []Occurrence {
	return x.postings[key]
}

// Count returns the number of occurrences of key.
func (x *Index) Count(key string) int {
	return len(x.postings[key])
}

func (x *Index) AdjectiveCount(adj string) int {
	return x.adjCounts[adj]
}

// Len returns the number of distinct pair keys.
func (x *Index) Len() int {
	return len(x.keys)
}

// Total returns the number of occurrences across all keys.
func (x *Index) Total() int {
	return x.total
}
