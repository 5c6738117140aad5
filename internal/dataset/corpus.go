// Package dataset holds the caption corpus, the adjective vocabularies and
// the per-caption records that the split build annotates in place.
package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	apperrors "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/errors"
)

// Corpus maps item identifiers to their captions. Items keep the order in
// which they appear in the source file; that order drives every
// order-sensitive step of the build (first-seen tie-breaks, sampling
// populations, output lists).
type Corpus struct {
	ids      []string
	captions map[string][]string
}

// NewCorpus builds a corpus in the given item order. Duplicate ids keep
// their first position and last captions.
func NewCorpus(ids []string, captions map[string][]string) *Corpus {
	c := &Corpus{captions: make(map[string][]string, len(ids))}
	for _, id := range ids {
		c.add(id, captions[id])
	}
	return c
}

func (c *Corpus) add(id string, captions []string) {
	if _, ok := c.captions[id]; !ok {
		c.ids = append(c.ids, id)
	}
	c.captions[id] = captions
}

// IDs returns item ids in corpus order. The slice must not be modified.
func (c *Corpus) IDs() []string {
	return c.ids
}

func (c *Corpus) Captions(id string) []string {
	return c.captions[id]
}

func (c *Corpus) Len() int {
	return len(c.ids)
}

// LoadCorpus reads a JSON object of item id to caption list from path.
func LoadCorpus(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "opening caption file %s: %v", path, err)
	}
	defer f.Close()
	corpus, err := DecodeCorpus(f)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return corpus, nil
}

// DecodeCorpus streams the top-level object so that key order survives,
// which a plain map unmarshal would lose.
func DecodeCorpus(r io.Reader) (*Corpus, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "reading caption json: %v", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "caption json must be an object, got %v", tok)
	}
	c := &Corpus{captions: make(map[string][]string)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, apperrors.Newf(apperrors.ErrInvalidInput, "reading item id: %v", err)
		}
		id, ok := tok.(string)
		if !ok {
			return nil, apperrors.Newf(apperrors.ErrInvalidInput, "item id must be a string, got %v", tok)
		}
		var captions []string
		if err := dec.Decode(&captions); err != nil {
			return nil, apperrors.Newf(apperrors.ErrInvalidInput, "item %q: captions must be a list of strings: %v", id, err)
		}
		c.add(id, captions)
	}
	if _, err := dec.Token(); err != nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "reading end of caption json: %v", err)
	}
	return c, nil
}
