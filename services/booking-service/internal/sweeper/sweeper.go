// Package sweeper periodically completes confirmed appointments that have ended.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const DefaultSpec = "@every 5m"

type Completer interface {
	CompleteElapsed(ctx context.Context) (int, error)
}

type Config struct {
	Spec    string
	Timeout time.Duration
}

type Sweeper struct {
	completer Completer
	logger    *slog.Logger
	spec      string
	timeout   time.Duration
}

func New(completer Completer, logger *slog.Logger, cfg Config) *Sweeper {
	if cfg.Spec == "" {
		cfg.Spec = DefaultSpec
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Sweeper{completer: completer, logger: logger, spec: cfg.Spec, timeout: cfg.Timeout}
}

// Run schedules the sweep and blocks until ctx is done. It returns an error
// only when the cron spec cannot be parsed.
func (s *Sweeper) Run(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.spec, func() { s.Sweep(ctx) }); err != nil {
		return err
	}
	c.Start()
	s.logger.Info("completion sweeper started", "spec", s.spec)

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func (s *Sweeper) Sweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.completer.CompleteElapsed(ctx)
	if err != nil {
		s.logger.Error("completion sweep failed", "err", err)
		return
	}
	if n > 0 {
		s.logger.Info("appointments completed", "count", n)
	}
}
