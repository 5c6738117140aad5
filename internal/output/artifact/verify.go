package artifact

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/splitter/partition"
	apperrors "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/errors"
)

// Report summarises a verified artifact directory.
type Report struct {
	Dir          string         `json:"dir"`
	Items        int            `json:"items"`
	Captions     int            `json:"captions"`
	Train        int            `json:"train"`
	TestSeen     int            `json:"test_seen"`
	TestUnseen   int            `json:"test_unseen"`
	HeldoutPairs []string       `json:"heldout_pairs"`
	Swaps        map[string]int `json:"swaps"`
}

// Verify loads both artifacts from dir, checks their checksums and the split
// invariants, and reports what they hold. Swaps are counted by original
// adjective; unchanged test_seen captions count under "none".
func Verify(dir string) (*Report, error) {
	split, err := LoadSplit(dir)
	if err != nil {
		return nil, err
	}
	data, err := LoadData(dir)
	if err != nil {
		return nil, err
	}

	ids := itemOrder(split, data)
	records, err := dataset.Import(ids, data)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "caption data: %v", err)
	}
	if err := split.Validate(records); err != nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "split does not match caption data: %v", err)
	}

	r := &Report{
		Dir:          dir,
		Items:        records.Len(),
		Train:        len(split.Train),
		TestSeen:     len(split.TestSeen),
		TestUnseen:   len(split.TestUnseen),
		HeldoutPairs: split.HeldoutPairs,
		Swaps:        make(map[string]int),
	}
	for _, id := range records.ItemIDs() {
		for _, ir := range records.Item(id) {
			r.Captions++
			if c := ir.Record.ChangesMade; c != nil {
				r.Swaps[c.OriginalAdj]++
			}
		}
	}
	return r, nil
}

// itemOrder lists split members first, in split order, then any item that
// only appears in the caption data.
func itemOrder(split *partition.Descriptor, data map[string]map[string]*dataset.CaptionRecord) []string {
	seen := make(map[string]bool, len(data))
	var ids []string
	for _, list := range [][]string{split.Train, split.TestSeen, split.TestUnseen} {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	var extra []string
	for id := range data {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	return append(ids, extra...)
}
