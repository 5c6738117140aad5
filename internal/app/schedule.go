package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/metrics"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule validates a five-field cron expression (or a descriptor such as
// @daily) in the given IANA timezone. An empty timezone means UTC.
func ParseSchedule(expr, timezone string) (cron.Schedule, error) {
	loc := time.UTC
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, apperrors.Newf(apperrors.ErrInvalidInput, "schedule timezone %q: %v", timezone, err)
		}
		loc = l
	}
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "schedule %q: %v", expr, err)
	}
	return &inLocation{Schedule: sched, loc: loc}, nil
}

type inLocation struct {
	cron.Schedule
	loc *time.Location
}

func (s *inLocation) Next(t time.Time) time.Time {
	return s.Schedule.Next(t.In(s.loc))
}

// RunScheduled rebuilds the split on every tick of the configured schedule
// until ctx is cancelled. A failed run is logged and the next tick still
// fires. Runs never overlap.
func (a *App) RunScheduled(ctx context.Context) error {
	sched, err := ParseSchedule(a.cfg.Schedule.Cron, a.cfg.Schedule.Timezone)
	if err != nil {
		return err
	}
	if a.metrics != nil && a.cfg.Metrics.Enabled {
		shutdown, err := a.metrics.StartServer(a.cfg.Metrics.Port,
			metrics.Route{Path: "/health", Handler: a.checker.LiveHandler()},
			metrics.Route{Path: "/ready", Handler: a.checker.ReadyHandler()},
		)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(sctx)
		}()
	}

	for {
		next := sched.Next(time.Now())
		a.logger.Info("next run scheduled", "at", next, "schedule", a.cfg.Schedule.Cron)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			a.logger.Info("scheduler stopped")
			return nil
		case <-timer.C:
		}
		if _, err := a.RunOnce(ctx); err != nil {
			a.logger.Error("scheduled run failed", "error", err)
		}
	}
}
