package tagger

import (
	"context"
	"sync"
)

// Memo caches tagging results in process memory. The frequency pass and the
// swap pass tag the same captions, so wrapping a slow tagger halves its calls.
type Memo struct {
	inner Tagger
	mu    sync.Mutex
	seen  map[string][]Token
	hits  int
}

func NewMemo(inner Tagger) *Memo {
	return &Memo{
		inner: inner,
		seen:  make(map[string][]Token),
	}
}

func (m *Memo) Tag(ctx context.Context, caption string) ([]Token, error) {
	m.mu.Lock()
	if tokens, ok := m.seen[caption]; ok {
		m.hits++
		m.mu.Unlock()
		return tokens, nil
	}
	m.mu.Unlock()

	tokens, err := m.inner.Tag(ctx, caption)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.seen[caption] = tokens
	m.mu.Unlock()
	return tokens, nil
}

// Hits returns how many calls were served from memory.
func (m *Memo) Hits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits
}
