package cache

import (
	"context"
	"os"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/tagger"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/redis"
	"github.com/redis/go-redis/v9"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, redis.Nil
	}
	return v, nil
}

func (s *memStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *memStore) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k := range s.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(s.data, k)
			n++
		}
	}
	return n, nil
}

func countingTagger(calls *int) tagger.Tagger {
	return tagger.Func(func(ctx context.Context, caption string) ([]tagger.Token, error) {
		*calls++
		return []tagger.Token{{Text: caption, POS: tagger.NOUN, Lemma: caption}}, nil
	})
}

func TestTagCacheHitAfterMiss(t *testing.T) {
	calls := 0
	m := metrics.New()
	c := New(countingTagger(&calls), newMemStore(), "lexicon", time.Hour, m)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tokens, err := c.Tag(ctx, "chair")
		if err != nil {
			t.Fatal(err)
		}
		if len(tokens) != 1 || tokens[0].Lemma != "chair" {
			t.Fatalf("tokens = %+v", tokens)
		}
	}
	if calls != 1 {
		t.Errorf("inner tagger called %d times, want 1", calls)
	}
	hits, misses := c.Stats()
	if hits != 2 || misses != 1 {
		t.Errorf("hits=%d misses=%d, want 2/1", hits, misses)
	}
}

func TestTagCacheNamespacesAndInvalidate(t *testing.T) {
	store := newMemStore()
	callsA, callsB := 0, 0
	a := New(countingTagger(&callsA), store, "lexicon", time.Hour, nil)
	b := New(countingTagger(&callsB), store, "remote", time.Hour, nil)
	ctx := context.Background()

	_, _ = a.Tag(ctx, "table")
	_, _ = b.Tag(ctx, "table")
	if callsA != 1 || callsB != 1 {
		t.Fatalf("namespaces shared entries: a=%d b=%d", callsA, callsB)
	}
	if err := a.Invalidate(ctx); err != nil {
		t.Fatal(err)
	}
	_, _ = a.Tag(ctx, "table")
	_, _ = b.Tag(ctx, "table")
	if callsA != 2 {
		t.Errorf("invalidated namespace still served from cache")
	}
	if callsB != 1 {
		t.Errorf("invalidate removed another namespace's entries")
	}
}

func TestTagCacheWithRedis(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client, err := pkgredis.NewClient(context.Background(), config.RedisConfig{Addr: addr, PoolSize: 2})
	if err != nil {
		t.Skipf("skipping redis test: redis unavailable: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	calls := 0
	c := New(countingTagger(&calls), client, "test-"+t.Name(), time.Minute, nil)
	ctx := context.Background()
	t.Cleanup(func() { _ = c.Invalidate(ctx) })

	if _, err := c.Tag(ctx, "a red chair"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Tag(ctx, "a red chair"); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("inner tagger called %d times, want 1", calls)
	}
}
