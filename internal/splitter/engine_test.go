package splitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/tagger"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/tagger/lexicon"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var (
	testAdjs  = []string{"red", "blue", "green", "round", "square", "tall", "short"}
	testNouns = []string{"chair", "table", "sofa", "lamp", "stool"}
)

func wordTagger() tagger.Tagger {
	adj := make(map[string]bool)
	for _, a := range append(testAdjs, "wooden", "metal") {
		adj[a] = true
	}
	return tagger.Func(func(ctx context.Context, caption string) ([]tagger.Token, error) {
		var out []tagger.Token
		for _, w := range strings.Fields(caption) {
			switch {
			case adj[w]:
				out = append(out, tagger.Token{Text: w, POS: tagger.ADJ, Lemma: w})
			case w == "a" || w == "with":
				out = append(out, tagger.Token{Text: w, POS: tagger.DET, Lemma: w})
			default:
				out = append(out, tagger.Token{Text: w, POS: tagger.NOUN, Lemma: strings.TrimSuffix(w, "s")})
			}
		}
		return out, nil
	})
}

func testInput(items int) Input {
	ids := make([]string, 0, items)
	captions := make(map[string][]string, items)
	for i := 0; i < items; i++ {
		id := fmt.Sprintf("uid%04d", i)
		text := fmt.Sprintf("a %s %s", testAdjs[i%len(testAdjs)], testNouns[(i/len(testAdjs))%len(testNouns)])
		switch i % 4 {
		case 1:
			text += " with wooden legs"
		case 2:
			text += " with metal legs"
		}
		if i%13 == 0 {
			text = "a plain object"
		}
		ids = append(ids, id)
		captions[id] = []string{text, "a second caption"}
	}
	return Input{
		Corpus: dataset.NewCorpus(ids, captions),
		Colors: dataset.Vocabulary{"red": {}, "blue": {}, "green": {}, "wooden": {}},
		Shapes: dataset.Vocabulary{"round": {}, "square": {}},
	}
}

func TestBuildSplitProperties(t *testing.T) {
	m := metrics.New()
	res, err := NewEngine(wordTagger(), DefaultOptions(), m).Build(context.Background(), testInput(210))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	s := res.Split
	if err := s.Validate(res.Records); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if want := res.Summary.DistinctPairs / 10; len(s.HeldoutPairs) != want {
		t.Errorf("heldout = %d, want %d", len(s.HeldoutPairs), want)
	}
	if len(s.TestUnseen) == 0 {
		t.Fatal("expected a non-empty test_unseen")
	}
	if total := len(s.Train) + len(s.TestSeen) + len(s.TestUnseen); total != 210 {
		t.Errorf("split covers %d items", total)
	}
	if res.Summary.Captions != 210 {
		t.Errorf("only first captions should be tagged, got %d", res.Summary.Captions)
	}
	if got := testutil.ToFloat64(m.SplitItems.WithLabelValues("test_unseen")); int(got) != len(s.TestUnseen) {
		t.Errorf("test_unseen gauge = %v", got)
	}

	seen := make(map[string]bool)
	for _, id := range s.TestSeen {
		seen[id] = true
		for _, ir := range res.Records.Item(id) {
			rec := ir.Record
			if rec.SwappedText == nil || rec.ChangesMade == nil {
				t.Fatalf("%s not swapped", id)
			}
			ch := *rec.ChangesMade
			if ch == dataset.NoChanges {
				if *rec.SwappedText != rec.Text {
					t.Errorf("%s: unchanged record has different text", id)
				}
				continue
			}
			if ch.NewAdj == ch.OriginalAdj {
				t.Errorf("%s: new adjective equals original %q", id, ch.NewAdj)
			}
			if *rec.SwappedText == rec.Text {
				t.Errorf("%s: changes %+v recorded but text unchanged", id, ch)
			}
		}
	}
	for _, id := range res.Records.ItemIDs() {
		if seen[id] {
			continue
		}
		for _, ir := range res.Records.Item(id) {
			if ir.Record.SwappedText != nil {
				t.Errorf("%s outside test_seen was swapped", id)
			}
		}
	}
}

func TestBuildDeterministic(t *testing.T) {
	encode := func() string {
		res, err := NewEngine(wordTagger(), DefaultOptions(), nil).Build(context.Background(), testInput(150))
		if err != nil {
			t.Fatal(err)
		}
		split, _ := json.Marshal(res.Split)
		data, _ := json.Marshal(res.Records.Export())
		return string(split) + string(data)
	}
	if a, b := encode(), encode(); a != b {
		t.Error("two builds with the same seed differ")
	}
}

func TestBuildSeedChangesSplit(t *testing.T) {
	opts := DefaultOptions()
	a, err := NewEngine(wordTagger(), opts, nil).Build(context.Background(), testInput(150))
	if err != nil {
		t.Fatal(err)
	}
	opts.Seed = 99
	b, err := NewEngine(wordTagger(), opts, nil).Build(context.Background(), testInput(150))
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(a.Split.TestSeen) == fmt.Sprint(b.Split.TestSeen) && fmt.Sprint(a.Split.HeldoutPairs) == fmt.Sprint(b.Split.HeldoutPairs) {
		t.Error("different seeds produced identical samples")
	}
}

func TestBuildTinyCorpus(t *testing.T) {
	in := Input{Corpus: dataset.NewCorpus(
		[]string{"a", "b"},
		map[string][]string{"a": {"a red big chair"}, "b": {"a small round table"}},
	)}
	res, err := NewEngine(lexicon.New(), DefaultOptions(), nil).Build(context.Background(), in)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.Summary.DistinctPairs != 2 {
		t.Errorf("distinct pairs = %d", res.Summary.DistinctPairs)
	}
	if len(res.Split.Train) != 2 || len(res.Split.TestSeen) != 0 || len(res.Split.TestUnseen) != 0 {
		t.Errorf("split = %+v", res.Split)
	}
}

func TestBuildAllCaptions(t *testing.T) {
	opts := DefaultOptions()
	opts.AllCaptions = true
	res, err := NewEngine(wordTagger(), opts, nil).Build(context.Background(), testInput(40))
	if err != nil {
		t.Fatal(err)
	}
	if res.Summary.Captions != 80 {
		t.Errorf("captions = %d, want 80", res.Summary.Captions)
	}
	if len(res.Records.Item("uid0001")) != 2 {
		t.Errorf("records = %+v", res.Records.Item("uid0001"))
	}
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewEngine(wordTagger(), DefaultOptions(), nil).Build(ctx, testInput(20)); err == nil {
		t.Error("expected context error")
	}
}

func BenchmarkBuild(b *testing.B) {
	in := testInput(2000)
	e := NewEngine(wordTagger(), DefaultOptions(), nil)
	for i := 0; i < b.N; i++ {
		if _, err := e.Build(context.Background(), in); err != nil {
			b.Fatal(err)
		}
	}
}

func TestBuildLogsWithRunID(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	var buf bytes.Buffer
	logger.SetupWriter(&buf, "debug", "json")

	base := testInput(210)
	ids := append(append([]string{}, base.Corpus.IDs()...), "uncaptioned")
	captions := make(map[string][]string, len(ids))
	for _, id := range base.Corpus.IDs() {
		captions[id] = base.Corpus.Captions(id)
	}
	in := base
	in.Corpus = dataset.NewCorpus(ids, captions)

	ctx := logger.WithRunID(context.Background(), "run-7")
	if _, err := NewEngine(wordTagger(), DefaultOptions(), nil).Build(ctx, in); err != nil {
		t.Fatalf("Build: %v", err)
	}
	found := false
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("log line is not JSON: %v (%q)", err, line)
		}
		if entry["msg"] != "item has no captions" {
			continue
		}
		if entry["item_id"] != "uncaptioned" || entry["run_id"] != "run-7" {
			t.Errorf("entry = %v", entry)
		}
		found = true
	}
	if !found {
		t.Error("missing debug line for uncaptioned item")
	}
}
