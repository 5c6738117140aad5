package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/output"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/splitter"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/splitter/dominant"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/splitter/heldout"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/notify"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/tracing"
)

// LoadInput reads the corpus and both vocabularies concurrently.
func LoadInput(ctx context.Context, cfg config.InputConfig) (splitter.Input, error) {
	var in splitter.Input
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := dataset.LoadCorpus(cfg.CaptionPath)
		in.Corpus = c
		return err
	})
	g.Go(func() error {
		v, err := dataset.LoadVocabulary(cfg.ColorsPath)
		in.Colors = v
		return err
	})
	g.Go(func() error {
		v, err := dataset.LoadVocabulary(cfg.ShapesPath)
		in.Shapes = v
		return err
	})
	if err := g.Wait(); err != nil {
		return splitter.Input{}, err
	}
	return in, nil
}

// Options maps the split section of the config onto engine options.
func Options(cfg config.SplitConfig) splitter.Options {
	return splitter.Options{
		Seed: cfg.Seed,
		Heldout: heldout.Options{
			LowPercentile:  cfg.BandLowPercentile,
			HighPercentile: cfg.BandHighPercentile,
			Divisor:        cfg.HeldoutDivisor,
		},
		Dominant: dominant.Options{
			TopPairs:   cfg.TopPairs,
			Percentile: cfg.DominantPercentile,
		},
		AllCaptions: cfg.AllCaptions,
	}
}

// RunOnce performs one full build: preflight checks, input loading, the
// split itself and every sink. The outcome is counted, posted to Slack and
// dumped to the metrics textfile when configured.
func (a *App) RunOnce(ctx context.Context) (res *output.Result, err error) {
	runID := newRunID()
	ctx = logger.WithRunID(ctx, runID)
	ctx, span := tracing.Start(ctx, "run", runID)
	log := logger.FromContext(ctx).With("component", "app")

	defer func() {
		span.End(err)
		span.Log(log)
		a.finish(ctx, runID, res, err)
		log.Info("run finished", "duration", span.Duration, "error", err)
	}()

	if err := a.checker.Preflight(ctx); err != nil {
		return nil, err
	}
	in, err := LoadInput(ctx, a.cfg.Input)
	if err != nil {
		return nil, err
	}
	log.Info("input loaded",
		"items", in.Corpus.Len(),
		"colors", len(in.Colors),
		"shapes", len(in.Shapes),
	)

	t, err := a.buildTagger(in)
	if err != nil {
		return nil, err
	}
	built, err := splitter.NewEngine(t, Options(a.cfg.Split), a.metrics).Build(ctx, in)
	if err != nil {
		return nil, err
	}

	res = &output.Result{
		Run: output.Run{
			ID:          runID,
			Dataset:     a.cfg.Output.Dataset,
			Category:    a.cfg.Output.Category,
			CaptionType: a.cfg.Output.CaptionType,
			Seed:        a.cfg.Split.Seed,
		},
		Result: built,
	}
	_, saveSpan := tracing.Start(ctx, "save", runID)
	err = a.sinks.Save(ctx, res)
	saveSpan.End(err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (a *App) finish(ctx context.Context, runID string, res *output.Result, err error) {
	log := logger.FromContext(ctx)
	status := "success"
	if err != nil {
		status = "failure"
	}
	if a.metrics != nil {
		a.metrics.RunsTotal.WithLabelValues(status).Inc()
		if path := a.cfg.Metrics.TextfilePath; path != "" {
			if werr := a.metrics.WriteTextfile(path); werr != nil {
				log.Warn("writing metrics textfile failed", "path", path, "error", werr)
			}
		}
	}

	sum := notify.Summary{RunID: runID, Category: a.cfg.Output.Category, Status: status}
	if err != nil {
		sum.Error = err.Error()
	} else {
		s := res.Summary
		sum.Items, sum.Heldout = s.Items, s.Heldout
		sum.Train, sum.TestSeen, sum.TestUnseen = s.Train, s.TestSeen, s.TestUnseen
		sum.Swaps = s.Swaps
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if nerr := a.notifier.Notify(nctx, sum); nerr != nil {
		log.Warn("run notification failed", "error", nerr)
	}
}

func newRunID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return time.Now().UTC().Format("20060102T150405") + "-" + hex.EncodeToString(b)
}
