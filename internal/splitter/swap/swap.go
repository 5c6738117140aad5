// Package swap synthesizes adjective-swapped captions for test_seen items.
package swap

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/splitter/pairs"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/splitter/sample"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/tagger"
	apperrors "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/metrics"
	"golang.org/x/text/unicode/norm"
)

// Case labels the branch a caption went through.
type Case string

const (
	CaseZero        Case = "zero"
	CaseSingle      Case = "single"
	CaseAllDominant Case = "all_dominant"
	CaseNonDominant Case = "non_dominant"
	CaseFallback    Case = "fallback"
	CaseUnswappable Case = "unswappable"
)

// DominantSet answers whether a pair key is dominant.
type DominantSet interface {
	IsDominant(key string) bool
}

type Swapper struct {
	tagger      tagger.Tagger
	rng         *rand.Rand
	heldoutAdjs []string
	dominant    DominantSet
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// New builds a swapper. The heldout adjectives are the distinct adjectives
// of heldoutKeys in first-seen order. m may be nil.
func New(t tagger.Tagger, rng *rand.Rand, heldoutKeys []string, dominant DominantSet, m *metrics.Metrics) *Swapper {
	seen := make(map[string]struct{})
	var adjs []string
	for _, k := range heldoutKeys {
		adj := pairs.AdjectiveOf(k)
		if _, ok := seen[adj]; ok {
			continue
		}
		seen[adj] = struct{}{}
		adjs = append(adjs, adj)
	}
	return &Swapper{
		tagger:      t,
		rng:         rng,
		heldoutAdjs: adjs,
		dominant:    dominant,
		metrics:     m,
		logger:      slog.Default().With("component", "swapper"),
	}
}

// HeldoutAdjectives returns the replacement pool of the heldout policy.
func (s *Swapper) HeldoutAdjectives() []string {
	return s.heldoutAdjs
}

// SwapItem swaps every caption record of an item in caption order.
func (s *Swapper) SwapItem(ctx context.Context, records *dataset.Records, itemID string) (map[Case]int, error) {
	counts := make(map[Case]int)
	for _, ir := range records.Item(itemID) {
		c, err := s.SwapCaption(ctx, ir.Record)
		if err != nil {
			return counts, fmt.Errorf("item %q caption %d: %w", itemID, ir.Index, err)
		}
		if c == CaseUnswappable {
			s.logger.Warn("no alternative adjective for caption",
				"item_id", itemID, "caption_index", ir.Index, "text", ir.Record.Text)
		}
		counts[c]++
	}
	return counts, nil
}

// SwapCaption re-extracts the pairs of rec.Text and records the swap.
func (s *Swapper) SwapCaption(ctx context.Context, rec *dataset.CaptionRecord) (Case, error) {
	tokens, err := s.tagger.Tag(ctx, rec.Text)
	if err != nil {
		return "", apperrors.Newf(apperrors.ErrTagger, "tagging %q: %v", rec.Text, err)
	}
	ps := pairs.Extract(tokens)

	var c Case
	switch {
	case len(ps) == 0:
		rec.SetSwap(rec.Text, dataset.NoChanges)
		c = CaseZero
	case len(ps) == 1:
		c = s.heldoutPolicy(rec, ps[0], CaseSingle)
	case s.allDominant(ps):
		c = s.heldoutPolicy(rec, ps[0], CaseAllDominant)
	default:
		c = s.nonDominantPolicy(rec, ps)
	}
	if s.metrics != nil {
		s.metrics.SwapsTotal.WithLabelValues(string(c)).Inc()
	}
	return c, nil
}

func (s *Swapper) allDominant(ps []pairs.Pair) bool {
	for _, p := range ps {
		if !s.dominant.IsDominant(p.Key) {
			return false
		}
	}
	return true
}

// heldoutPolicy replaces the first pair's adjective with a heldout
// adjective other than the original.
func (s *Swapper) heldoutPolicy(rec *dataset.CaptionRecord, first pairs.Pair, c Case) Case {
	original := strings.ToLower(first.Adj)
	options := make([]string, 0, len(s.heldoutAdjs))
	for _, a := range s.heldoutAdjs {
		if a != original {
			options = append(options, a)
		}
	}
	if len(options) == 0 {
		rec.SetSwap(rec.Text, dataset.NoChanges)
		return CaseUnswappable
	}
	newAdj := sample.Choice(s.rng, options)
	return apply(rec, first.Adj, dataset.Changes{
		Noun:        first.NounLemma,
		OriginalAdj: original,
		NewAdj:      newAdj,
	}, c)
}

// nonDominantPolicy moves the adjective of a random non-dominant pair onto
// the first pair's adjective position.
func (s *Swapper) nonDominantPolicy(rec *dataset.CaptionRecord, ps []pairs.Pair) Case {
	first := ps[0]
	original := strings.ToLower(first.Adj)
	var candidates []pairs.Pair
	for _, p := range ps {
		if s.dominant.IsDominant(p.Key) {
			continue
		}
		if pairs.AdjectiveOf(p.Key) != original {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return s.heldoutPolicy(rec, first, CaseFallback)
	}
	pick := sample.Choice(s.rng, candidates)
	newAdj := pairs.AdjectiveOf(pick.Key)
	return apply(rec, first.Adj, dataset.Changes{
		Noun:        pick.NounLemma,
		OriginalAdj: original,
		NewAdj:      newAdj,
	}, CaseNonDominant)
}

// apply substitutes surface with ch.NewAdj in the NFC form of the caption,
// matching the form taggers see. A replacement that leaves the caption
// unchanged records no changes.
func apply(rec *dataset.CaptionRecord, surface string, ch dataset.Changes, c Case) Case {
	text := norm.NFC.String(rec.Text)
	swapped := strings.ReplaceAll(text, surface, ch.NewAdj)
	if surface == "" || swapped == text {
		rec.SetSwap(rec.Text, dataset.NoChanges)
		return CaseUnswappable
	}
	rec.SetSwap(swapped, ch)
	return c
}
