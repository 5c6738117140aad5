// Package conllu serves tags from a CoNLL-U file produced offline, for
// example by running a statistical tagger over the caption corpus. Sentences
// are matched to captions through their "# text = " comment.
package conllu

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/tagger"
	apperrors "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/errors"
)

const columns = 10

// Store maps caption text to its tagged tokens.
type Store struct {
	sentences map[string][]tagger.Token
	fallback  tagger.Tagger
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithFallback tags captions missing from the file with another tagger
// instead of failing.
func WithFallback(t tagger.Tagger) Option {
	return func(s *Store) { s.fallback = t }
}

// Open parses the CoNLL-U file at path.
func Open(path string, opts ...Option) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "opening conllu file %s: %v", path, err)
	}
	defer f.Close()
	return Parse(f, opts...)
}

// Parse reads CoNLL-U sentences from r.
func Parse(r io.Reader, opts ...Option) (*Store, error) {
	s := &Store{
		sentences: make(map[string][]tagger.Token),
		logger:    slog.Default().With("component", "conllu-tagger"),
	}
	for _, opt := range opts {
		opt(s)
	}

	var (
		text   string
		tokens []tagger.Token
		lineNo int
	)
	flush := func() {
		if text != "" {
			s.sentences[normalize(text)] = tokens
		}
		text, tokens = "", nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "# text = "):
			text = strings.TrimPrefix(line, "# text = ")
		case strings.HasPrefix(line, "#"):
		case strings.TrimSpace(line) == "":
			flush()
		default:
			fields := strings.Split(line, "\t")
			if len(fields) != columns {
				return nil, apperrors.Newf(apperrors.ErrInvalidInput,
					"conllu line %d: expected %d columns, got %d", lineNo, columns, len(fields))
			}
			id := fields[0]
			// Multiword ranges (1-2) and empty nodes (3.1) carry no UPOS of their own.
			if strings.ContainsAny(id, "-.") {
				continue
			}
			tokens = append(tokens, tagger.Token{
				Text:  fields[1],
				Lemma: fields[2],
				POS:   fields[3],
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning conllu: %w", err)
	}
	flush()
	s.logger.Info("conllu sentences loaded", "sentences", len(s.sentences))
	return s, nil
}

func (s *Store) Tag(ctx context.Context, caption string) ([]tagger.Token, error) {
	if tokens, ok := s.sentences[normalize(caption)]; ok {
		return tokens, nil
	}
	if strings.TrimSpace(caption) == "" {
		return nil, nil
	}
	if s.fallback != nil {
		s.logger.Debug("caption not in conllu file, using fallback tagger", "caption", caption)
		return s.fallback.Tag(ctx, caption)
	}
	return nil, apperrors.Newf(apperrors.ErrTagger, "caption not found in conllu file: %q", caption)
}

// Len returns the number of sentences loaded.
func (s *Store) Len() int {
	return len(s.sentences)
}

func normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
