package dataset

import (
	"sort"
	"strconv"

	apperrors "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/errors"
)

// None marks the fields of Changes when no swap happened.
const None = "none"

// Changes describes an adjective substitution.
type Changes struct {
	Noun        string `json:"noun"`
	OriginalAdj string `json:"original_adj"`
	NewAdj      string `json:"new_adj"`
}

// NoChanges is recorded for captions that were not swapped.
var NoChanges = Changes{Noun: None, OriginalAdj: None, NewAdj: None}

// CaptionRecord is one caption of one item. Optional fields stay nil until
// the stage that owns them runs.
type CaptionRecord struct {
	Text         string   `json:"text"`
	SwappedText  *string  `json:"swapped_text,omitempty"`
	ChangesMade  *Changes `json:"changes_made,omitempty"`
	HeldoutPairs []string `json:"heldout_pairs,omitempty"`
}

// SetSwap records the outcome of the swap stage.
func (r *CaptionRecord) SetSwap(swapped string, changes Changes) {
	r.SwappedText = &swapped
	r.ChangesMade = &changes
}

// IndexedRecord pairs a record with its caption index.
type IndexedRecord struct {
	Index  int
	Record *CaptionRecord
}

// Records holds every caption record of a build, keyed by item id and
// caption index. Records are mutated in place and never removed.
type Records struct {
	items map[string]map[int]*CaptionRecord
	order []string
}

func NewRecords() *Records {
	return &Records{items: make(map[string]map[int]*CaptionRecord)}
}

// Put creates the record for (itemID, index) or returns the existing one.
func (r *Records) Put(itemID string, index int, text string) *CaptionRecord {
	captions, ok := r.items[itemID]
	if !ok {
		captions = make(map[int]*CaptionRecord)
		r.items[itemID] = captions
		r.order = append(r.order, itemID)
	}
	if rec, ok := captions[index]; ok {
		return rec
	}
	rec := &CaptionRecord{Text: text}
	captions[index] = rec
	return rec
}

// Get returns the record or nil.
func (r *Records) Get(itemID string, index int) *CaptionRecord {
	return r.items[itemID][index]
}

// Item returns an item's records ordered by caption index.
func (r *Records) Item(itemID string) []IndexedRecord {
	captions := r.items[itemID]
	out := make([]IndexedRecord, 0, len(captions))
	for idx, rec := range captions {
		out = append(out, IndexedRecord{Index: idx, Record: rec})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// ItemIDs returns ids in insertion order.
func (r *Records) ItemIDs() []string {
	return r.order
}

func (r *Records) Len() int {
	return len(r.order)
}

// Export converts to the persisted shape: item id to stringified caption
// index to record.
func (r *Records) Export() map[string]map[string]*CaptionRecord {
	out := make(map[string]map[string]*CaptionRecord, len(r.items))
	for id, captions := range r.items {
		m := make(map[string]*CaptionRecord, len(captions))
		for idx, rec := range captions {
			m[strconv.Itoa(idx)] = rec
		}
		out[id] = m
	}
	return out
}

// Import rebuilds Records from the persisted shape. Item order follows the
// given ids; ids missing from data are skipped.
func Import(ids []string, data map[string]map[string]*CaptionRecord) (*Records, error) {
	r := NewRecords()
	for _, id := range ids {
		captions, ok := data[id]
		if !ok {
			continue
		}
		for key, rec := range captions {
			idx, err := strconv.Atoi(key)
			if err != nil {
				return nil, apperrors.Newf(apperrors.ErrInvalidInput, "item %q: caption key %q is not an index", id, key)
			}
			if rec == nil {
				return nil, apperrors.Newf(apperrors.ErrInvalidInput, "item %q: caption %d is null", id, idx)
			}
			stored := r.Put(id, idx, rec.Text)
			*stored = *rec
		}
	}
	return r, nil
}
