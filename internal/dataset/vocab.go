package dataset

import (
	"bufio"
	"io"
	"os"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Vocabulary is a flat set of lowercase adjectives.
type Vocabulary map[string]struct{}

func (v Vocabulary) Contains(word string) bool {
	_, ok := v[word]
	return ok
}

// Words returns the members in no particular order.
func (v Vocabulary) Words() []string {
	out := make([]string, 0, len(v))
	for w := range v {
		out = append(out, w)
	}
	return out
}

// LoadVocabulary reads a newline-delimited word list. Blank lines are
// skipped and entries are lowercased.
func LoadVocabulary(path string) (Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "opening vocabulary %s: %v", path, err)
	}
	defer f.Close()
	return ReadVocabulary(f)
}

func ReadVocabulary(r io.Reader) (Vocabulary, error) {
	lower := cases.Lower(language.English)
	v := make(Vocabulary)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" {
			continue
		}
		v[lower.String(word)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "reading vocabulary: %v", err)
	}
	return v, nil
}

// Union merges vocabularies into a new set.
func Union(vs ...Vocabulary) Vocabulary {
	out := make(Vocabulary)
	for _, v := range vs {
		for w := range v {
			out[w] = struct{}{}
		}
	}
	return out
}
