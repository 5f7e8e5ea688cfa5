package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/WagnerMushayija/momo-summative/internal/scheduler"
)

// Watch polls the inbox until interrupted.
func (a *App) Watch(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Watch.Interval,
		StartupDelay: a.Config.Watch.StartupDelay,
		Immediate:    true,
	}, a.Logger)

	svc, closeSvc, err := a.newService(ctx, 0, true, sched)
	if err != nil {
		return err
	}
	defer closeSvc()

	a.Logger.Info().
		Str("inbox", a.Config.Watch.Inbox).
		Str("archive", a.Config.Watch.Archive).
		Dur("interval", a.Config.Watch.Interval).
		Msg("watching inbox")

	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("watcher terminated with error")
		return err
	}

	a.Logger.Info().Msg("watcher stopped")
	return nil
}
