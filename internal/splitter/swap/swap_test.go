package swap

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/splitter/sample"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/tagger"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/tagger/lexicon"
	apperrors "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var adjectives = map[string]bool{
	"red": true, "blue": true, "green": true, "tall": true,
	"wooden": true, "round": true, "small": true, "Red": true,
}

var function = map[string]bool{"a": true, "the": true, "with": true, "and": true}

func fakeTagger() tagger.Tagger {
	return tagger.Func(func(ctx context.Context, caption string) ([]tagger.Token, error) {
		var out []tagger.Token
		for _, w := range strings.Fields(caption) {
			switch {
			case adjectives[w]:
				out = append(out, tagger.Token{Text: w, POS: tagger.ADJ, Lemma: strings.ToLower(w)})
			case function[w]:
				out = append(out, tagger.Token{Text: w, POS: tagger.DET, Lemma: w})
			default:
				out = append(out, tagger.Token{Text: w, POS: tagger.NOUN, Lemma: strings.TrimSuffix(w, "s")})
			}
		}
		return out, nil
	})
}

type keySet map[string]bool

func (k keySet) IsDominant(key string) bool { return k[key] }

func newSwapper(heldout []string, dominant keySet) *Swapper {
	return New(fakeTagger(), sample.NewRand(4), heldout, dominant, nil)
}

func TestSwapZeroPairs(t *testing.T) {
	s := newSwapper([]string{"green_lamp"}, keySet{})
	for _, text := range []string{"", "a chair", "chair red"} {
		rec := &dataset.CaptionRecord{Text: text}
		c, err := s.SwapCaption(context.Background(), rec)
		if err != nil {
			t.Fatal(err)
		}
		if c != CaseZero || *rec.SwappedText != text || *rec.ChangesMade != dataset.NoChanges {
			t.Errorf("%q: case=%s rec=%+v", text, c, rec)
		}
	}
}

func TestSwapSinglePair(t *testing.T) {
	s := newSwapper([]string{"red_lamp", "blue_lamp", "green_sofa"}, keySet{})
	for i := 0; i < 50; i++ {
		rec := &dataset.CaptionRecord{Text: "a red chair"}
		c, err := s.SwapCaption(context.Background(), rec)
		if err != nil {
			t.Fatal(err)
		}
		ch := rec.ChangesMade
		if c != CaseSingle || ch.OriginalAdj != "red" || ch.Noun != "chair" {
			t.Fatalf("case=%s changes=%+v", c, ch)
		}
		if ch.NewAdj == ch.OriginalAdj || (ch.NewAdj != "blue" && ch.NewAdj != "green") {
			t.Fatalf("new adjective %q", ch.NewAdj)
		}
		if *rec.SwappedText != "a "+ch.NewAdj+" chair" {
			t.Fatalf("swapped = %q", *rec.SwappedText)
		}
	}
}

func TestSwapReplacesSurfaceCasing(t *testing.T) {
	s := newSwapper([]string{"blue_lamp"}, keySet{})
	rec := &dataset.CaptionRecord{Text: "Red chair"}
	if _, err := s.SwapCaption(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
	if *rec.SwappedText != "blue chair" || rec.ChangesMade.OriginalAdj != "red" {
		t.Errorf("rec = %q %+v", *rec.SwappedText, rec.ChangesMade)
	}
}

func TestSwapAllDominantUsesHeldoutAdjective(t *testing.T) {
	s := newSwapper([]string{"green_lamp"}, keySet{"red_chair": true, "wooden_leg": true})
	rec := &dataset.CaptionRecord{Text: "a red chair with wooden legs"}
	c, err := s.SwapCaption(context.Background(), rec)
	if err != nil {
		t.Fatal(err)
	}
	if c != CaseAllDominant || *rec.SwappedText != "a green chair with wooden legs" {
		t.Errorf("case=%s swapped=%q", c, *rec.SwappedText)
	}
	want := dataset.Changes{Noun: "chair", OriginalAdj: "red", NewAdj: "green"}
	if *rec.ChangesMade != want {
		t.Errorf("changes = %+v", rec.ChangesMade)
	}
}

func TestSwapNonDominantCandidate(t *testing.T) {
	s := newSwapper([]string{"green_lamp"}, keySet{"red_chair": true})
	rec := &dataset.CaptionRecord{Text: "a red chair with wooden legs"}
	c, err := s.SwapCaption(context.Background(), rec)
	if err != nil {
		t.Fatal(err)
	}
	if c != CaseNonDominant || *rec.SwappedText != "a wooden chair with wooden legs" {
		t.Errorf("case=%s swapped=%q", c, *rec.SwappedText)
	}
	want := dataset.Changes{Noun: "leg", OriginalAdj: "red", NewAdj: "wooden"}
	if *rec.ChangesMade != want {
		t.Errorf("changes = %+v", rec.ChangesMade)
	}
}

func TestSwapEmptyCandidatesFallsBack(t *testing.T) {
	s := newSwapper([]string{"blue_lamp"}, keySet{})
	rec := &dataset.CaptionRecord{Text: "a red chair with red legs"}
	c, err := s.SwapCaption(context.Background(), rec)
	if err != nil {
		t.Fatal(err)
	}
	if c != CaseFallback || *rec.SwappedText != "a blue chair with blue legs" {
		t.Errorf("case=%s swapped=%q", c, *rec.SwappedText)
	}
	if rec.ChangesMade.NewAdj != "blue" || rec.ChangesMade.Noun != "chair" {
		t.Errorf("changes = %+v", rec.ChangesMade)
	}
}

func TestSwapUnswappableWhenOnlyOriginalIsHeldout(t *testing.T) {
	m := metrics.New()
	s := New(fakeTagger(), sample.NewRand(1), []string{"red_lamp", "red_sofa"}, keySet{}, m)
	rec := &dataset.CaptionRecord{Text: "a red chair"}
	c, err := s.SwapCaption(context.Background(), rec)
	if err != nil {
		t.Fatal(err)
	}
	if c != CaseUnswappable || *rec.SwappedText != "a red chair" || *rec.ChangesMade != dataset.NoChanges {
		t.Errorf("case=%s rec=%+v", c, rec)
	}
	if got := testutil.ToFloat64(m.SwapsTotal.WithLabelValues(string(CaseUnswappable))); got != 1 {
		t.Errorf("unswappable counter = %v", got)
	}
	if len(s.HeldoutAdjectives()) != 1 {
		t.Errorf("heldout adjectives = %v", s.HeldoutAdjectives())
	}
}

func TestSwapDecomposedCaption(t *testing.T) {
	tg := lexicon.New(lexicon.WithAdjectives("ros\u00e9", "blue"))
	s := New(tg, sample.NewRand(1), []string{"blue_table"}, keySet{}, nil)
	for _, text := range []string{"a ros\u00e9 chair", "a rose\u0301 chair"} {
		rec := &dataset.CaptionRecord{Text: text}
		c, err := s.SwapCaption(context.Background(), rec)
		if err != nil {
			t.Fatal(err)
		}
		if c != CaseSingle || *rec.SwappedText != "a blue chair" {
			t.Errorf("%q: case=%s swapped=%q", text, c, *rec.SwappedText)
		}
		if *rec.ChangesMade != (dataset.Changes{Noun: "chair", OriginalAdj: "ros\u00e9", NewAdj: "blue"}) {
			t.Errorf("%q: changes=%+v", text, *rec.ChangesMade)
		}
	}
}

func TestSwapNoopReplacementIsUnswappable(t *testing.T) {
	// Token text that does not occur in the caption.
	tg := tagger.Func(func(ctx context.Context, caption string) ([]tagger.Token, error) {
		return []tagger.Token{
			{Text: "crimson", POS: tagger.ADJ, Lemma: "crimson"},
			{Text: "chair", POS: tagger.NOUN, Lemma: "chair"},
		}, nil
	})
	m := metrics.New()
	s := New(tg, sample.NewRand(1), []string{"blue_lamp"}, keySet{}, m)
	rec := &dataset.CaptionRecord{Text: "a red chair"}
	c, err := s.SwapCaption(context.Background(), rec)
	if err != nil {
		t.Fatal(err)
	}
	if c != CaseUnswappable || *rec.SwappedText != rec.Text || *rec.ChangesMade != dataset.NoChanges {
		t.Errorf("case=%s rec=%+v", c, rec)
	}
	if got := testutil.ToFloat64(m.SwapsTotal.WithLabelValues(string(CaseUnswappable))); got != 1 {
		t.Errorf("unswappable counter = %v", got)
	}
}

func TestSwapItemCoversAllRecords(t *testing.T) {
	records := dataset.NewRecords()
	records.Put("item", 0, "a red chair")
	records.Put("item", 1, "a chair")
	s := newSwapper([]string{"blue_lamp"}, keySet{})
	counts, err := s.SwapItem(context.Background(), records, "item")
	if err != nil {
		t.Fatal(err)
	}
	if counts[CaseSingle] != 1 || counts[CaseZero] != 1 {
		t.Errorf("counts = %v", counts)
	}
	for _, ir := range records.Item("item") {
		if ir.Record.SwappedText == nil || ir.Record.ChangesMade == nil {
			t.Errorf("caption %d not swapped", ir.Index)
		}
	}
}

func TestSwapTaggerError(t *testing.T) {
	failing := tagger.Func(func(ctx context.Context, caption string) ([]tagger.Token, error) {
		return nil, errors.New("boom")
	})
	s := New(failing, sample.NewRand(1), nil, keySet{}, nil)
	_, err := s.SwapCaption(context.Background(), &dataset.CaptionRecord{Text: "x"})
	if !apperrors.Is(err, apperrors.ErrTagger) {
		t.Errorf("expected ErrTagger, got %v", err)
	}
}
