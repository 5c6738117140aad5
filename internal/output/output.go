// Package output persists build results. Every destination implements Sink;
// Multi fans a result out to all configured sinks in order.
package output

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/splitter"
	apperrors "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/metrics"
)

// Run identifies one build.
type Run struct {
	ID          string `json:"run_id"`
	Dataset     string `json:"dataset"`
	Category    string `json:"category"`
	CaptionType string `json:"caption_type"`
	Seed        uint64 `json:"seed"`
}

// Result is a finished build together with its run metadata.
type Result struct {
	Run Run
	*splitter.Result
}

type Sink interface {
	Name() string
	Save(ctx context.Context, res *Result) error
	Close() error
}

// Multi writes to each sink in order and stops at the first failure.
type Multi struct {
	sinks   []Sink
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewMulti(m *metrics.Metrics, sinks ...Sink) *Multi {
	return &Multi{
		sinks:   sinks,
		metrics: m,
		logger:  slog.Default().With("component", "output"),
	}
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Save(ctx context.Context, res *Result) error {
	for _, s := range m.sinks {
		err := s.Save(ctx, res)
		m.count(s.Name(), err)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrStorage) {
				return err
			}
			return apperrors.Newf(apperrors.ErrStorage, "sink %s: %v", s.Name(), err)
		}
		m.logger.Info("result saved", "sink", s.Name(), "run_id", res.Run.ID)
	}
	return nil
}

func (m *Multi) count(sink string, err error) {
	if m.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.metrics.SinkWritesTotal.WithLabelValues(sink, status).Inc()
}

// Close closes every sink and returns the first error.
func (m *Multi) Close() error {
	var first error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			m.logger.Error("closing sink", "sink", s.Name(), "error", err)
			if first == nil {
				first = fmt.Errorf("closing %s: %w", s.Name(), err)
			}
		}
	}
	return first
}

// Names lists the sinks in write order.
func (m *Multi) Names() []string {
	out := make([]string, len(m.sinks))
	for i, s := range m.sinks {
		out[i] = s.Name()
	}
	return out
}
