// Package pairs extracts adjacent adjective-noun bigrams from a tagged
// caption.
package pairs

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/tagger"
)

// Separator joins the adjective and the noun lemma in a pair key.
const Separator = "_"

// Pair is one adjective immediately followed by a noun. Adj and Noun keep
// the caption's casing; Key is normalized.
type Pair struct {
	Key       string
	Adj       string
	Noun      string
	NounLemma string
}

// Extract scans tokens left to right and returns every (ADJ, NOUN) bigram
// at positions (i, i+1). Only the immediate next token is checked.
func Extract(tokens []tagger.Token) []Pair {
	var out []Pair
	for i := 0; i+1 < len(tokens); i++ {
		adj, noun := tokens[i], tokens[i+1]
		if adj.POS != tagger.ADJ || noun.POS != tagger.NOUN {
			continue
		}
		lemma := noun.Lemma
		if lemma == "" {
			lemma = strings.ToLower(noun.Text)
		}
		out = append(out, Pair{
			Key:       MakeKey(adj.Text, lemma),
			Adj:       adj.Text,
			Noun:      noun.Text,
			NounLemma: lemma,
		})
	}
	return out
}

// MakeKey builds the normalized key lower(adj)_lemma.
func MakeKey(adj, nounLemma string) string {
	return strings.ToLower(adj) + Separator + nounLemma
}

// SplitKey returns the adjective and noun lemma of a key. Lemmas may contain
// the separator, the adjective never does.
func SplitKey(key string) (adj, nounLemma string) {
	adj, nounLemma, _ = strings.Cut(key, Separator)
	return adj, nounLemma
}

// AdjectiveOf returns the adjective half of a key.
func AdjectiveOf(key string) string {
	adj, _ := SplitKey(key)
	return adj
}
