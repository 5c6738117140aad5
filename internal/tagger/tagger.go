// Package tagger defines the part-of-speech tagging contract used by the
// split builder. Concrete taggers live in the sub-packages: a built-in
// lexicon tagger, a CoNLL-U reader for captions tagged offline, an HTTP
// client for a tagging service, an LLM-backed tagger and a Redis cache
// decorator.
package tagger

import (
	"context"
)

// Universal POS tags the builder cares about. Taggers may emit any other
// Universal Dependencies tag; only ADJ and NOUN drive pair extraction.
const (
	ADJ   = "ADJ"
	NOUN  = "NOUN"
	PROPN = "PROPN"
	VERB  = "VERB"
	AUX   = "AUX"
	ADV   = "ADV"
	ADP   = "ADP"
	DET   = "DET"
	PRON  = "PRON"
	CCONJ = "CCONJ"
	SCONJ = "SCONJ"
	PART  = "PART"
	NUM   = "NUM"
	PUNCT = "PUNCT"
	SYM   = "SYM"
	X     = "X"
)

// Token is one tagged word of a caption.
type Token struct {
	Text  string `json:"text"`
	POS   string `json:"pos"`
	Lemma string `json:"lemma"`
}

// Tagger turns a caption into an ordered token sequence.
type Tagger interface {
	Tag(ctx context.Context, caption string) ([]Token, error)
}

// Func adapts a plain function to the Tagger interface.
type Func func(ctx context.Context, caption string) ([]Token, error)

func (f Func) Tag(ctx context.Context, caption string) ([]Token, error) {
	return f(ctx, caption)
}
