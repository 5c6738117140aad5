// Package lexicon provides a dependency-free English part-of-speech tagger
// tuned for short object captions. It splits text into words and
// punctuation, looks words up in closed- and open-class lexicons, falls back
// to suffix heuristics for unknown words and resolves adjective/noun
// ambiguity with one token of lookahead.
package lexicon

import (
	"context"
	"strings"
	"unicode"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/tagger"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// class is the lexical category assigned before lookahead resolution.
type class int

const (
	classFixed class = iota
	classNoun
	classAdj
	classAmbiguous
	classParticiple
)

type candidate struct {
	text  string
	lower string
	class class
	pos   string
}

// Tagger is safe for concurrent use once constructed.
type Tagger struct {
	adjectives map[string]struct{}
}

// Option configures a Tagger.
type Option func(*Tagger)

// WithAdjectives registers extra adjectives, typically the color and shape
// vocabularies, so that they are never mistaken for nouns.
func WithAdjectives(words ...string) Option {
	return func(t *Tagger) {
		lower := cases.Lower(language.English)
		for _, w := range words {
			w = strings.TrimSpace(w)
			if w == "" {
				continue
			}
			t.adjectives[lower.String(w)] = struct{}{}
		}
	}
}

func New(opts ...Option) *Tagger {
	t := &Tagger{
		adjectives: make(map[string]struct{}, len(adjectives)),
	}
	for w := range adjectives {
		t.adjectives[w] = struct{}{}
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tag never fails; the error return satisfies tagger.Tagger.
func (t *Tagger) Tag(ctx context.Context, caption string) ([]tagger.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lower := cases.Lower(language.English)
	words := split(norm.NFC.String(caption))
	cands := make([]candidate, 0, len(words))
	for _, w := range words {
		cands = append(cands, t.classify(w, lower.String(w)))
	}

	tokens := make([]tagger.Token, 0, len(cands))
	for i, c := range cands {
		pos := c.pos
		switch c.class {
		case classNoun:
			pos = tagger.NOUN
		case classAdj:
			pos = tagger.ADJ
		case classAmbiguous:
			if i+1 < len(cands) && modifiable(cands[i+1]) {
				pos = tagger.ADJ
			} else {
				pos = tagger.NOUN
			}
		case classParticiple:
			if i+1 < len(cands) && modifiable(cands[i+1]) {
				pos = tagger.ADJ
			} else {
				pos = tagger.VERB
			}
		}
		tokens = append(tokens, tagger.Token{
			Text:  c.text,
			POS:   pos,
			Lemma: lemma(c.lower, pos),
		})
	}
	return tokens, nil
}

// modifiable reports whether a token can be the head an adjective attaches to,
// directly or through another adjective.
func modifiable(c candidate) bool {
	switch c.class {
	case classNoun, classAdj, classAmbiguous, classParticiple:
		return true
	}
	return false
}

func (t *Tagger) classify(text, lower string) candidate {
	c := candidate{text: text, lower: lower, class: classFixed}
	switch {
	case isPunct(text):
		c.pos = tagger.PUNCT
		return c
	case isNumber(text):
		c.pos = tagger.NUM
		return c
	}
	if pos, ok := closedClass[lower]; ok {
		c.pos = pos
		return c
	}
	if _, ok := ambiguousAdjNoun[lower]; ok {
		c.class = classAmbiguous
		return c
	}
	if _, ok := t.adjectives[lower]; ok {
		c.class = classAdj
		return c
	}
	if _, ok := nouns[lower]; ok {
		c.class = classNoun
		return c
	}
	if _, ok := verbs[lower]; ok {
		c.pos = tagger.VERB
		return c
	}
	if _, ok := nouns[lemmatizeNoun(lower)]; ok {
		c.class = classNoun
		return c
	}
	switch {
	case strings.HasSuffix(lower, "ly") && len(lower) > 4:
		c.pos = tagger.ADV
	case hasAdjectiveSuffix(lower):
		c.class = classAdj
	case strings.HasSuffix(lower, "ed") && len(lower) > 3:
		c.class = classParticiple
	case strings.HasSuffix(lower, "ing") && len(lower) > 4:
		c.pos = tagger.VERB
	default:
		c.class = classNoun
	}
	return c
}

func hasAdjectiveSuffix(word string) bool {
	for _, suffix := range adjectiveSuffixes {
		if strings.HasSuffix(word, suffix) && len(word) > len(suffix)+2 {
			return true
		}
	}
	return false
}

func lemma(lower, pos string) string {
	switch pos {
	case tagger.NOUN:
		return lemmatizeNoun(lower)
	case tagger.VERB, tagger.AUX:
		return lemmatizeVerb(lower)
	default:
		return lower
	}
}

// split breaks text on whitespace and peels punctuation and possessive
// suffixes into tokens of their own. Inner hyphens stay in the word.
func split(text string) []string {
	var out []string
	for _, field := range strings.Fields(text) {
		runes := []rune(field)
		start, end := 0, len(runes)
		var trailing []string
		for start < end && isPunctRune(runes[start]) {
			out = append(out, string(runes[start]))
			start++
		}
		for end > start && isPunctRune(runes[end-1]) {
			trailing = append(trailing, string(runes[end-1]))
			end--
		}
		if start < end {
			word := string(runes[start:end])
			if lw := strings.ToLower(word); strings.HasSuffix(lw, "'s") && len(word) > 2 {
				out = append(out, word[:len(word)-2], word[len(word)-2:])
			} else {
				out = append(out, word)
			}
		}
		for i := len(trailing) - 1; i >= 0; i-- {
			out = append(out, trailing[i])
		}
	}
	return out
}

func isPunctRune(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

func isPunct(s string) bool {
	for _, r := range s {
		if !isPunctRune(r) {
			return false
		}
	}
	return s != ""
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			return false
		}
	}
	return s != "" && unicode.IsDigit([]rune(s)[0])
}
