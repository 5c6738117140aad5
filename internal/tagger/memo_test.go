package tagger

import (
	"context"
	"errors"
	"testing"
)

func TestMemoCallsInnerOncePerCaption(t *testing.T) {
	calls := 0
	inner := Func(func(ctx context.Context, caption string) ([]Token, error) {
		calls++
		return []Token{{Text: caption, POS: NOUN, Lemma: caption}}, nil
	})
	m := NewMemo(inner)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tokens, err := m.Tag(ctx, "chair")
		if err != nil {
			t.Fatal(err)
		}
		if len(tokens) != 1 || tokens[0].Text != "chair" {
			t.Fatalf("unexpected tokens %+v", tokens)
		}
	}
	if _, err := m.Tag(ctx, "table"); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("inner called %d times, want 2", calls)
	}
	if m.Hits() != 2 {
		t.Errorf("hits = %d, want 2", m.Hits())
	}
}

func TestMemoDoesNotCacheErrors(t *testing.T) {
	calls := 0
	inner := Func(func(ctx context.Context, caption string) ([]Token, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("transient")
		}
		return nil, nil
	})
	m := NewMemo(inner)
	if _, err := m.Tag(context.Background(), "x"); err == nil {
		t.Fatal("expected first call to fail")
	}
	if _, err := m.Tag(context.Background(), "x"); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if calls != 2 {
		t.Errorf("inner called %d times, want 2", calls)
	}
}
