// Package partition splits item ids into train, test_seen and test_unseen
// around a set of heldout pairs.
package partition

import (
	"math/rand/v2"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/splitter/freq"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/splitter/sample"
	apperrors "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/errors"
)

// Descriptor is the persisted split. Item lists follow corpus order and
// heldout pairs are sorted.
type Descriptor struct {
	Train        []string `json:"train"`
	TestSeen     []string `json:"test_seen"`
	TestUnseen   []string `json:"test_unseen"`
	HeldoutPairs []string `json:"heldout_pairs"`
}

// Partition moves every item with a heldout occurrence into test_unseen and
// appends the pair key to the matching caption record. test_seen is an
// equally sized uniform sample of the remaining items; train is the rest.
// Heldout keys are visited in the given order, occurrences in processing
// order.
func Partition(idx *freq.Index, records *dataset.Records, heldout []string, itemIDs []string, rng *rand.Rand) (*Descriptor, error) {
	unseen := make(map[string]struct{})
	for _, key := range heldout {
		for _, occ := range idx.Occurrences(key) {
			rec := records.Get(occ.ItemID, occ.CaptionIndex)
			if rec == nil {
				return nil, apperrors.Newf(apperrors.ErrInternal,
					"no caption record for item %q caption %d", occ.ItemID, occ.CaptionIndex)
			}
			rec.HeldoutPairs = append(rec.HeldoutPairs, key)
			unseen[occ.ItemID] = struct{}{}
		}
	}

	remaining := make([]string, 0, len(itemIDs))
	for _, id := range itemIDs {
		if _, ok := unseen[id]; !ok {
			remaining = append(remaining, id)
		}
	}
	if len(unseen) > len(remaining) {
		return nil, apperrors.Newf(apperrors.ErrInsufficientPopulation,
			"test_unseen has %d items but only %d items remain for test_seen (short by %d)",
			len(unseen), len(remaining), len(unseen)-len(remaining))
	}
	picked, err := sample.Strings(rng, remaining, len(unseen))
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(picked))
	for _, id := range picked {
		seen[id] = struct{}{}
	}

	d := &Descriptor{
		Train:        []string{},
		TestSeen:     []string{},
		TestUnseen:   []string{},
		HeldoutPairs: append([]string{}, heldout...),
	}
	for _, id := range itemIDs {
		switch {
		case has(unseen, id):
			d.TestUnseen = append(d.TestUnseen, id)
		case has(seen, id):
			d.TestSeen = append(d.TestSeen, id)
		default:
			d.Train = append(d.Train, id)
		}
	}
	sort.Strings(d.HeldoutPairs)
	return d, nil
}

func has(set map[string]struct{}, id string) bool {
	_, ok := set[id]
	return ok
}

// Validate checks the split invariants against the annotated records: equal
// test sizes, disjoint sets and heldout annotations exactly on test_unseen.
func (d *Descriptor) Validate(records *dataset.Records) error {
	if len(d.TestSeen) != len(d.TestUnseen) {
		return apperrors.Newf(apperrors.ErrInternal, "test_seen has %d items, test_unseen %d", len(d.TestSeen), len(d.TestUnseen))
	}
	owner := make(map[string]string)
	for name, ids := range map[string][]string{"train": d.Train, "test_seen": d.TestSeen, "test_unseen": d.TestUnseen} {
		for _, id := range ids {
			if prev, ok := owner[id]; ok {
				return apperrors.Newf(apperrors.ErrInternal, "item %q is in both %s and %s", id, prev, name)
			}
			owner[id] = name
		}
	}
	if records == nil {
		return nil
	}
	for _, id := range records.ItemIDs() {
		annotated := false
		for _, ir := range records.Item(id) {
			if len(ir.Record.HeldoutPairs) > 0 {
				annotated = true
				break
			}
		}
		if inUnseen := owner[id] == "test_unseen"; annotated != inUnseen {
			return apperrors.Newf(apperrors.ErrInternal, "item %q: heldout annotation=%v but split=%q", id, annotated, owner[id])
		}
	}
	return nil
}
