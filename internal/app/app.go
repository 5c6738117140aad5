// Package app wires configuration, taggers, sinks and notifications into a
// runnable split build, either once or on a cron schedule.
package app

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/output"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/output/artifact"
	kafkasink "github.com/Adithya-Monish-Kumar-K/compositional-split/internal/output/kafka"
	pgsink "github.com/Adithya-Monish-Kumar-K/compositional-split/internal/output/postgres"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/output/sqlite"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/splitter"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/tagger"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/tagger/cache"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/tagger/conllu"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/tagger/lexicon"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/tagger/llm"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/tagger/remote"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/health"
	pkgkafka "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/notify"
	pkgpg "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/resilience"
)

type App struct {
	cfg      *config.Config
	metrics  *metrics.Metrics
	sinks    *output.Multi
	checker  *health.Checker
	notifier *notify.Slack
	redis    *pkgredis.Client
	conllu   *conllu.Store
	closers  []func() error
	logger   *slog.Logger
}

// New connects every configured backend. Backends that fail to connect
// make New fail; nothing is left open on error.
func New(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (_ *App, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{
		cfg:      cfg,
		metrics:  m,
		checker:  health.NewChecker(),
		notifier: notify.NewSlack(cfg.Notify.SlackWebhookURL),
		logger:   slog.Default().With("component", "app"),
	}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if cfg.Redis.Enabled {
		a.redis, err = pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, a.redis.Close)
		a.checker.Register("redis", health.PingCheck(a.redis.Ping))
	}
	if cfg.Tagger.Kind == config.TaggerCoNLLU {
		a.conllu, err = conllu.Open(cfg.Tagger.CoNLLUPath)
		if err != nil {
			return nil, err
		}
		a.logger.Info("conllu tags loaded", "sentences", a.conllu.Len())
	}

	sinks, err := a.openSinks(ctx)
	if err != nil {
		return nil, err
	}
	a.sinks = output.NewMulti(m, sinks...)
	a.closers = append(a.closers, a.sinks.Close)
	a.logger.Info("sinks ready", "sinks", a.sinks.Names())
	return a, nil
}

func (a *App) openSinks(ctx context.Context) ([]output.Sink, error) {
	cfg := a.cfg
	dir := artifact.Dir(cfg.Output.SavePath, cfg.Output.CaptionType, cfg.Output.Category)
	w, err := artifact.NewWriter(dir, cfg.Output.WriteJSON)
	if err != nil {
		return nil, err
	}
	sinks := []output.Sink{w}

	if cfg.SQLite.Enabled {
		s, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return sinks, closeAll(sinks, err)
		}
		sinks = append(sinks, s)
	}
	if cfg.Postgres.Enabled {
		client, err := pkgpg.New(ctx, cfg.Postgres)
		if err != nil {
			return sinks, closeAll(sinks, err)
		}
		a.closers = append(a.closers, client.Close)
		a.checker.Register("postgres", health.PingCheck(client.Ping))
		s, err := pgsink.New(ctx, client)
		if err != nil {
			return sinks, closeAll(sinks, err)
		}
		sinks = append(sinks, s)
	}
	if cfg.Kafka.Enabled {
		brokers := cfg.Kafka.Brokers
		a.checker.Register("kafka", health.PingCheck(func(ctx context.Context) error {
			return pkgkafka.Ping(ctx, brokers)
		}))
		sinks = append(sinks, kafkasink.New(
			pkgkafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.Captions),
			pkgkafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.Runs),
		))
	}
	return sinks, nil
}

func closeAll(sinks []output.Sink, cause error) error {
	for _, s := range sinks {
		s.Close()
	}
	return cause
}

// buildTagger assembles the configured tagger for one run. Decorators are
// applied innermost first: the concrete tagger, the Redis cache, the
// in-process memo, then instrumentation.
func (a *App) buildTagger(in splitter.Input) (tagger.Tagger, error) {
	tc := a.cfg.Tagger
	vocab := dataset.Union(in.Colors, in.Shapes).Words()
	sort.Strings(vocab)
	lex := lexicon.New(lexicon.WithAdjectives(vocab...))

	var t tagger.Tagger
	namespace := tc.Kind
	switch tc.Kind {
	case config.TaggerLexicon:
		t = lex
		namespace = "lexicon-" + fingerprint(vocab)
	case config.TaggerCoNLLU:
		if a.conllu == nil {
			return nil, apperrors.New(apperrors.ErrInternal, "conllu tagger not loaded")
		}
		t = a.conllu
	case config.TaggerRemote:
		m := a.metrics
		t = remote.New(remote.Config{
			Endpoint:    tc.Endpoint,
			Timeout:     tc.Timeout,
			MaxAttempts: tc.MaxAttempts,
			Breaker: resilience.CircuitBreakerConfig{
				OnStateChange: func(name string, s resilience.State) {
					if m != nil {
						m.CircuitBreakerState.WithLabelValues(name).Set(float64(s))
					}
				},
			},
		})
	case config.TaggerLLM:
		t = llm.New(llm.NewAnthropicCompleter(tc.LLM.APIKey, tc.LLM.Model, tc.LLM.MaxTokens), tc.MaxAttempts)
		namespace = "llm-" + tc.LLM.Model
	default:
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "unknown tagger kind %q", tc.Kind)
	}

	if a.redis != nil {
		t = cache.New(t, a.redis, namespace, a.cfg.Redis.CacheTTL, a.metrics)
	}
	if tc.Memoize {
		t = tagger.NewMemo(t)
	}
	return tagger.Instrument(t, tc.Kind, a.metrics), nil
}

func fingerprint(words []string) string {
	sum := sha256.Sum256([]byte(strings.Join(words, "\n")))
	return fmt.Sprintf("%x", sum[:4])
}

// PurgeTagCache removes every cached tag from Redis.
func (a *App) PurgeTagCache(ctx context.Context) (int64, error) {
	if a.redis == nil {
		return 0, apperrors.New(apperrors.ErrInvalidInput, "redis is not enabled")
	}
	deleted, err := cache.PurgeAll(ctx, a.redis)
	if err != nil {
		return deleted, apperrors.Newf(apperrors.ErrStorage, "%v", err)
	}
	a.logger.Info("tag cache purged", "keys_deleted", deleted)
	return deleted, nil
}

// Checker exposes the dependency checks for the scheduler's HTTP endpoint.
func (a *App) Checker() *health.Checker {
	return a.checker
}

// Close releases backends in reverse order of opening.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
