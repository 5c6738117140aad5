package tagger

import (
	"context"
	"time"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/metrics"
)

type instrumented struct {
	inner   Tagger
	kind    string
	metrics *metrics.Metrics
}

// Instrument records call counts, errors and latency of t under kind.
func Instrument(t Tagger, kind string, m *metrics.Metrics) Tagger {
	if m == nil {
		return t
	}
	return &instrumented{inner: t, kind: kind, metrics: m}
}

func (i *instrumented) Tag(ctx context.Context, caption string) ([]Token, error) {
	start := time.Now()
	tokens, err := i.inner.Tag(ctx, caption)
	i.metrics.TaggerLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		i.metrics.TaggerErrors.WithLabelValues(i.kind).Inc()
		return nil, err
	}
	i.metrics.CaptionsTagged.Inc()
	return tokens, nil
}
