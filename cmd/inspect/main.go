package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/output/artifact"
	kafkasink "github.com/Adithya-Monish-Kumar-K/compositional-split/internal/output/kafka"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to config file")
	dir := flag.String("dir", "", "artifact directory (default savePath/captionType/category from config)")
	watch := flag.Bool("watch", false, "follow the runs topic and verify each run's artifacts as it lands")
	fromStart := flag.Bool("from-start", false, "with -watch, replay the runs topic from the beginning")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return apperrors.ExitCode(err)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if !*watch {
		target := *dir
		if target == "" {
			target = artifact.Dir(cfg.Output.SavePath, cfg.Output.CaptionType, cfg.Output.Category)
		}
		report, err := artifact.Verify(target)
		if err != nil {
			slog.Error("verification failed", "dir", target, "error", err)
			return apperrors.ExitCode(err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return apperrors.ExitInternal
		}
		return apperrors.ExitOK
	}

	if !cfg.Kafka.Enabled {
		slog.Error("-watch needs kafka.enabled in the config")
		return apperrors.ExitInvalid
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.Runs, *fromStart, func(ctx context.Context, key, value []byte) error {
		ev, err := kafka.DecodeJSON[kafkasink.RunEvent](value)
		if err != nil {
			return err
		}
		target := artifact.Dir(cfg.Output.SavePath, ev.CaptionType, ev.Category)
		log := logger.WithComponent("inspect").With("run_id", ev.ID, "dir", target)
		report, err := artifact.Verify(target)
		if err != nil {
			// The artifacts may already belong to a newer run; the event is
			// still consumed.
			log.Warn("run artifacts failed verification", "error", err)
			return nil
		}
		log.Info("run verified",
			"items", report.Items,
			"train", report.Train,
			"test_seen", report.TestSeen,
			"test_unseen", report.TestUnseen,
			"heldout", len(report.HeldoutPairs),
			"summary_matches", report.TestSeen == ev.Summary.TestSeen && report.TestUnseen == ev.Summary.TestUnseen,
		)
		return nil
	})
	slog.Info("watching run events", "topic", cfg.Kafka.Topics.Runs, "group", cfg.Kafka.ConsumerGroup, "save_path", filepath.Clean(cfg.Output.SavePath))
	if err := consumer.Start(ctx); err != nil {
		slog.Error("consumer error", "error", err)
		return apperrors.ExitUnavailable
	}
	return apperrors.ExitOK
}
