package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/output"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/splitter"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/splitter/partition"
	apperrors "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/errors"
	pkgkafka "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/kafka"
)

type recorder struct {
	events []pkgkafka.Event
	err    error
	closed bool
}

func (r *recorder) PublishBatch(ctx context.Context, events []pkgkafka.Event) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, events...)
	return nil
}

func (r *recorder) Close() error {
	r.closed = true
	return nil
}

func result() *output.Result {
	records := dataset.NewRecords()
	records.Put("a", 0, "a red chair").HeldoutPairs = []string{"red_chair"}
	records.Put("b", 0, "a blue chair").SetSwap("a green chair", dataset.Changes{Noun: "chair", OriginalAdj: "blue", NewAdj: "green"})
	return &output.Result{
		Run: output.Run{ID: "run-7"},
		Result: &splitter.Result{
			Split:   &partition.Descriptor{TestSeen: []string{"b"}, TestUnseen: []string{"a"}, HeldoutPairs: []string{"red_chair"}},
			Records: records,
			Summary: splitter.Summary{Items: 2, TestSeen: 1, TestUnseen: 1},
		},
	}
}

func TestSinkPublishesCaptionsThenRun(t *testing.T) {
	captions, runs := &recorder{}, &recorder{}
	s := New(captions, runs)
	if err := s.Save(context.Background(), result()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(captions.events) != 2 || len(runs.events) != 1 {
		t.Fatalf("captions=%d runs=%d", len(captions.events), len(runs.events))
	}
	first := captions.events[0].Value.(CaptionEvent)
	if captions.events[0].Key != "a" || first.Split != "test_unseen" || first.RunID != "run-7" {
		t.Errorf("first caption event = %+v", first)
	}
	if ev := runs.events[0].Value.(RunEvent); ev.Summary.Items != 2 || ev.ID != "run-7" {
		t.Errorf("run event = %+v", ev)
	}
	if err := s.Close(); err != nil || !captions.closed || !runs.closed {
		t.Errorf("close: %v", err)
	}
}

func TestSinkWrapsPublishError(t *testing.T) {
	s := New(&recorder{err: errors.New("broker down")}, &recorder{})
	if err := s.Save(context.Background(), result()); !apperrors.Is(err, apperrors.ErrStorage) {
		t.Errorf("expected ErrStorage, got %v", err)
	}
}
