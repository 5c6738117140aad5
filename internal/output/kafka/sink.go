// Package kafka streams build results as events: one message per caption
// record keyed by item id, then one run summary.
package kafka

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/output"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/splitter"
	apperrors "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/errors"
	pkgkafka "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/kafka"
)

// Publisher is the part of pkg/kafka.Producer the sink uses.
type Publisher interface {
	PublishBatch(ctx context.Context, events []pkgkafka.Event) error
	Close() error
}

// CaptionEvent is published for every caption record.
type CaptionEvent struct {
	RunID        string                 `json:"run_id"`
	ItemID       string                 `json:"item_id"`
	CaptionIndex int                    `json:"caption_index"`
	Split        string                 `json:"split"`
	Record       *dataset.CaptionRecord `json:"record"`
}

// RunEvent closes a run's event stream.
type RunEvent struct {
	output.Run
	Summary      splitter.Summary `json:"summary"`
	HeldoutPairs []string         `json:"heldout_pairs"`
}

type Sink struct {
	captions Publisher
	runs     Publisher
	logger   *slog.Logger
}

func New(captions, runs Publisher) *Sink {
	return &Sink{
		captions: captions,
		runs:     runs,
		logger:   slog.Default().With("component", "kafka-sink"),
	}
}

func (s *Sink) Name() string { return "kafka" }

func (s *Sink) Save(ctx context.Context, res *output.Result) error {
	splitOf := make(map[string]string)
	for name, ids := range map[string][]string{
		"train":       res.Split.Train,
		"test_seen":   res.Split.TestSeen,
		"test_unseen": res.Split.TestUnseen,
	} {
		for _, id := range ids {
			splitOf[id] = name
		}
	}

	var events []pkgkafka.Event
	for _, id := range res.Records.ItemIDs() {
		for _, ir := range res.Records.Item(id) {
			events = append(events, pkgkafka.Event{
				Key: id,
				Value: CaptionEvent{
					RunID:        res.Run.ID,
					ItemID:       id,
					CaptionIndex: ir.Index,
					Split:        splitOf[id],
					Record:       ir.Record,
				},
			})
		}
	}
	if err := s.captions.PublishBatch(ctx, events); err != nil {
		return apperrors.Newf(apperrors.ErrStorage, "publishing caption events: %v", err)
	}

	run := pkgkafka.Event{
		Key: res.Run.ID,
		Value: RunEvent{
			Run:          res.Run,
			Summary:      res.Summary,
			HeldoutPairs: res.Split.HeldoutPairs,
		},
	}
	if err := s.runs.PublishBatch(ctx, []pkgkafka.Event{run}); err != nil {
		return apperrors.Newf(apperrors.ErrStorage, "publishing run event: %v", err)
	}
	s.logger.Info("events published", "run_id", res.Run.ID, "captions", len(events))
	return nil
}

func (s *Sink) Close() error {
	err := s.captions.Close()
	if rerr := s.runs.Close(); err == nil {
		err = rerr
	}
	return err
}
