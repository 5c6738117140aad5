package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/app"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/metrics"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to config file")
	captionPath := flag.String("caption_path", "", "caption corpus JSON (overrides input.captionPath)")
	savePath := flag.String("save_path", "", "artifact root directory (overrides output.savePath)")
	datasetName := flag.String("dataset", "", "dataset name (overrides output.dataset)")
	category := flag.String("category", "", "object category (overrides output.category)")
	captionType := flag.String("caption_type", "", "caption type (overrides output.captionType)")
	seed := flag.Uint64("seed", 0, "sampling seed (overrides split.seed)")
	purge := flag.Bool("purge-tag-cache", false, "delete every cached tag from Redis and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return apperrors.ExitCode(err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "caption_path":
			cfg.Input.CaptionPath = *captionPath
		case "save_path":
			cfg.Output.SavePath = *savePath
		case "dataset":
			cfg.Output.Dataset = *datasetName
		case "category":
			cfg.Output.Category = *category
		case "caption_type":
			cfg.Output.CaptionType = *captionType
		case "seed":
			cfg.Split.Seed = *seed
		}
	})

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	a, err := app.New(ctx, cfg, m)
	if err != nil {
		slog.Error("startup failed", "error", err)
		return apperrors.ExitCode(err)
	}
	defer a.Close()

	if *purge {
		if _, err := a.PurgeTagCache(ctx); err != nil {
			slog.Error("purging tag cache failed", "error", err)
			return apperrors.ExitCode(err)
		}
		return apperrors.ExitOK
	}

	if cfg.Schedule.Cron != "" {
		slog.Info("starting scheduled builds", "cron", cfg.Schedule.Cron, "timezone", cfg.Schedule.Timezone)
		if err := a.RunScheduled(ctx); err != nil {
			slog.Error("scheduler failed", "error", err)
			return apperrors.ExitCode(err)
		}
		return apperrors.ExitOK
	}

	if cfg.Metrics.Enabled {
		shutdown, err := m.StartServer(cfg.Metrics.Port,
			metrics.Route{Path: "/health", Handler: a.Checker().LiveHandler()},
			metrics.Route{Path: "/ready", Handler: a.Checker().ReadyHandler()},
		)
		if err != nil {
			slog.Error("metrics server failed", "error", err)
			return apperrors.ExitCode(err)
		}
		defer shutdown(context.Background())
	}

	slog.Info("building split",
		"dataset", cfg.Output.Dataset,
		"category", cfg.Output.Category,
		"caption_type", cfg.Output.CaptionType,
		"seed", cfg.Split.Seed,
		"tagger", cfg.Tagger.Kind,
	)
	res, err := a.RunOnce(ctx)
	if err != nil {
		slog.Error("split build failed", "error", err)
		return apperrors.ExitCode(err)
	}
	slog.Info("split build complete",
		"run_id", res.Run.ID,
		"train", res.Summary.Train,
		"test_seen", res.Summary.TestSeen,
		"test_unseen", res.Summary.TestUnseen,
	)
	return apperrors.ExitOK
}
