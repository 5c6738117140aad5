// Package splitter runs the compositional split build: the frequency pass
// over the corpus, heldout selection, partitioning, dominant pair discovery
// and caption swapping.
package splitter

import (
	"context"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/splitter/dominant"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/splitter/freq"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/splitter/heldout"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/splitter/pairs"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/splitter/partition"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/splitter/sample"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/splitter/swap"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/tagger"
	apperrors "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/tracing"
)

const summaryTopPairs = 10

type Options struct {
	Seed        uint64
	Heldout     heldout.Options
	Dominant    dominant.Options
	AllCaptions bool
}

func DefaultOptions() Options {
	return Options{
		Seed:     1,
		Heldout:  heldout.DefaultOptions(),
		Dominant: dominant.DefaultOptions(),
	}
}

// Input bundles what a build reads.
type Input struct {
	Corpus *dataset.Corpus
	Colors dataset.Vocabulary
	Shapes dataset.Vocabulary
}

// Result is everything a build produces.
type Result struct {
	Split    *partition.Descriptor
	Records  *dataset.Records
	Dominant *dominant.Result
	Summary  Summary
}

// Summary holds the headline numbers of a build.
type Summary struct {
	Items         int            `json:"items"`
	Captions      int            `json:"captions"`
	Occurrences   int            `json:"occurrences"`
	DistinctPairs int            `json:"distinct_pairs"`
	Heldout       int            `json:"heldout"`
	Qualifying    int            `json:"qualifying_adjectives"`
	Dominant      int            `json:"dominant"`
	Train         int            `json:"train"`
	TestSeen      int            `json:"test_seen"`
	TestUnseen    int            `json:"test_unseen"`
	Swaps         map[string]int `json:"swaps"`
	TopPairs      []string       `json:"top_pairs"`
}

type Engine struct {
	tagger  tagger.Tagger
	opts    Options
	metrics *metrics.Metrics
}

// NewEngine builds an engine. m may be nil.
func NewEngine(t tagger.Tagger, opts Options, m *metrics.Metrics) *Engine {
	return &Engine{tagger: t, opts: opts, metrics: m}
}

// Build runs every stage in order. A fresh random source seeded from
// Options.Seed is shared by all sampling steps, so equal inputs and seed
// give equal results.
func (e *Engine) Build(ctx context.Context, in Input) (*Result, error) {
	log := logger.FromContext(ctx).With("component", "splitter")
	if in.Corpus == nil {
		return nil, apperrors.New(apperrors.ErrInvalidInput, "no caption corpus")
	}
	rng := sample.NewRand(e.opts.Seed)
	records := dataset.NewRecords()

	var idx *freq.Index
	captions := 0
	err := e.stage(ctx, "frequency", func() error {
		var err error
		idx, captions, err = e.frequencyPass(ctx, in.Corpus, records)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info("frequency pass complete",
		"items", in.Corpus.Len(),
		"captions", captions,
		"occurrences", idx.Total(),
		"distinct_pairs", idx.Len(),
	)

	var heldoutKeys []string
	err = e.stage(ctx, "heldout", func() error {
		var err error
		heldoutKeys, err = heldout.Select(idx, rng, e.opts.Heldout)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("selecting heldout pairs: %w", err)
	}
	if len(heldoutKeys) == 0 {
		log.Warn("corpus too small for heldout pairs, test sets will be empty", "distinct_pairs", idx.Len())
	}

	var split *partition.Descriptor
	err = e.stage(ctx, "partition", func() error {
		var err error
		split, err = partition.Partition(idx, records, heldoutKeys, in.Corpus.IDs(), rng)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("partitioning items: %w", err)
	}

	var dom *dominant.Result
	err = e.stage(ctx, "dominant", func() error {
		dom = dominant.Find(idx, e.opts.Dominant, in.Colors, in.Shapes)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("finding dominant pairs: %w", err)
	}
	log.Info("dominant pairs found",
		"qualifying_adjectives", len(dom.Qualifying),
		"threshold", dom.Threshold,
		"dominant", len(dom.Dominant),
	)

	swaps := make(map[string]int)
	err = e.stage(ctx, "swap", func() error {
		s := swap.New(e.tagger, rng, split.HeldoutPairs, dom, e.metrics)
		for _, id := range split.TestSeen {
			if err := ctx.Err(); err != nil {
				return err
			}
			counts, err := s.SwapItem(ctx, records, id)
			if err != nil {
				return err
			}
			for c, n := range counts {
				swaps[string(c)] += n
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("swapping captions: %w", err)
	}

	res := &Result{
		Split:    split,
		Records:  records,
		Dominant: dom,
		Summary: Summary{
			Items:         in.Corpus.Len(),
			Captions:      captions,
			Occurrences:   idx.Total(),
			DistinctPairs: idx.Len(),
			Heldout:       len(split.HeldoutPairs),
			Qualifying:    len(dom.Qualifying),
			Dominant:      len(dom.Dominant),
			Train:         len(split.Train),
			TestSeen:      len(split.TestSeen),
			TestUnseen:    len(split.TestUnseen),
			Swaps:         swaps,
			TopPairs:      topKeys(dom.Table, summaryTopPairs),
		},
	}
	e.record(res)
	log.Info("split built",
		"train", res.Summary.Train,
		"test_seen", res.Summary.TestSeen,
		"test_unseen", res.Summary.TestUnseen,
		"heldout", res.Summary.Heldout,
		"swaps", swaps,
		"top_pairs", res.Summary.TopPairs,
	)
	return res, nil
}

// frequencyPass tags the first caption of every item (every caption with
// AllCaptions) and indexes its pairs. Items without captions get no record.
func (e *Engine) frequencyPass(ctx context.Context, corpus *dataset.Corpus, records *dataset.Records) (*freq.Index, int, error) {
	log := logger.FromContext(ctx)
	idx := freq.NewIndex()
	captions := 0
	for _, id := range corpus.IDs() {
		texts := corpus.Captions(id)
		if len(texts) == 0 {
			log.Debug("item has no captions", "item_id", id)
			continue
		}
		if !e.opts.AllCaptions {
			texts = texts[:1]
		}
		for i, text := range texts {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}
			records.Put(id, i, text)
			tokens, err := e.tagger.Tag(ctx, text)
			if err != nil {
				return nil, 0, apperrors.Newf(apperrors.ErrTagger, "item %q caption %d: %v", id, i, err)
			}
			ps := pairs.Extract(tokens)
			idx.Add(id, i, ps)
			if e.metrics != nil {
				e.metrics.PairsExtracted.Add(float64(len(ps)))
			}
			captions++
		}
	}
	return idx, captions, nil
}

func (e *Engine) stage(ctx context.Context, name string, fn func() error) error {
	start := time.Now()
	_, span := tracing.Start(ctx, name, logger.RunID(ctx))
	err := fn()
	span.End(err)
	if e.metrics != nil {
		e.metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
	logger.FromContext(ctx).Debug("stage finished", "stage", name, "duration", time.Since(start), "error", err)
	return err
}

func (e *Engine) record(res *Result) {
	if e.metrics == nil {
		return
	}
	e.metrics.DistinctPairs.Set(float64(res.Summary.DistinctPairs))
	e.metrics.HeldoutPairs.Set(float64(res.Summary.Heldout))
	e.metrics.DominantPairs.Set(float64(res.Summary.Dominant))
	e.metrics.SplitItems.WithLabelValues("train").Set(float64(res.Summary.Train))
	e.metrics.SplitItems.WithLabelValues("test_seen").Set(float64(res.Summary.TestSeen))
	e.metrics.SplitItems.WithLabelValues("test_unseen").Set(float64(res.Summary.TestUnseen))
}

func topKeys(table []dominant.Entry, n int) []string {
	var out []string
	for _, e := range table {
		if e.Key == "" || len(out) == n {
			break
		}
		out = append(out, e.Key)
	}
	return out
}
