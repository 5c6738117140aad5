package pairs

import (
	"context"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/tagger"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/tagger/lexicon"
)

func tok(text, pos, lemma string) tagger.Token {
	return tagger.Token{Text: text, POS: pos, Lemma: lemma}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name   string
		tokens []tagger.Token
		want   []string
	}{
		{"empty", nil, nil},
		{"single token", []tagger.Token{tok("red", tagger.ADJ, "red")}, nil},
		{
			"adjective chain keeps only the last bigram",
			[]tagger.Token{
				tok("a", tagger.DET, "a"),
				tok("red", tagger.ADJ, "red"),
				tok("big", tagger.ADJ, "big"),
				tok("chair", tagger.NOUN, "chair"),
			},
			[]string{"big_chair"},
		},
		{
			"two pairs in order",
			[]tagger.Token{
				tok("Tall", tagger.ADJ, "tall"),
				tok("legs", tagger.NOUN, "leg"),
				tok("and", tagger.CCONJ, "and"),
				tok("wooden", tagger.ADJ, "wooden"),
				tok("seat", tagger.NOUN, "seat"),
			},
			[]string{"tall_leg", "wooden_seat"},
		},
		{
			"non adjacent is ignored",
			[]tagger.Token{
				tok("red", tagger.ADJ, "red"),
				tok("and", tagger.CCONJ, "and"),
				tok("chair", tagger.NOUN, "chair"),
			},
			nil,
		},
		{
			"trailing adjective",
			[]tagger.Token{
				tok("chair", tagger.NOUN, "chair"),
				tok("red", tagger.ADJ, "red"),
			},
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.tokens)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d pairs (%+v), want %v", len(got), got, tt.want)
			}
			for i, p := range got {
				if p.Key != tt.want[i] {
					t.Errorf("pair %d key = %q, want %q", i, p.Key, tt.want[i])
				}
			}
		})
	}
}

func TestExtractKeepsSurfaceCasing(t *testing.T) {
	got := Extract([]tagger.Token{tok("Tall", tagger.ADJ, "tall"), tok("Legs", tagger.NOUN, "leg")})
	if len(got) != 1 {
		t.Fatalf("got %+v", got)
	}
	p := got[0]
	if p.Key != "tall_leg" || p.Adj != "Tall" || p.Noun != "Legs" || p.NounLemma != "leg" {
		t.Errorf("pair = %+v", p)
	}
}

func TestExtractWithLexiconTagger(t *testing.T) {
	tg := lexicon.New()
	cases := map[string]string{
		"a red big chair":     "big_chair",
		"a small round table": "round_table",
	}
	for caption, want := range cases {
		tokens, err := tg.Tag(context.Background(), caption)
		if err != nil {
			t.Fatalf("Tag(%q): %v", caption, err)
		}
		got := Extract(tokens)
		if len(got) != 1 || got[0].Key != want {
			t.Errorf("Extract(%q) = %+v, want single %s", caption, got, want)
		}
	}
}

func TestSplitKey(t *testing.T) {
	adj, noun := SplitKey("dark_arm_rest")
	if adj != "dark" || noun != "arm_rest" {
		t.Errorf("SplitKey = %q, %q", adj, noun)
	}
	if AdjectiveOf(MakeKey("Red", "chair")) != "red" {
		t.Error("MakeKey should lowercase the adjective")
	}
}
