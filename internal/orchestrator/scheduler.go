package orchestrator

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/polyai/polytrader/internal/logger"
)

// Scheduler fires trading cycles on a cron schedule. A cycle's terminal
// failure (or panic) is contained to that run so future scheduled runs
// still occur.
type Scheduler struct {
	cron    *cron.Cron
	trader  *Trader
	logger  *logger.Logger
	baseCtx context.Context
}

func NewScheduler(baseCtx context.Context, trader *Trader, log *logger.Logger) *Scheduler {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Scheduler{
		cron:    cron.New(),
		trader:  trader,
		logger:  log,
		baseCtx: baseCtx,
	}
}

// Add registers the trading cycle under the given cron spec, e.g.
// "0 9 * * 1" for Mondays at 09:00.
func (s *Scheduler) Add(spec string) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic in trading cycle", "panic", fmt.Sprint(r))
			}
		}()

		s.logger.Info("scheduled trading cycle starting")
		if err := s.trader.RunCycle(s.baseCtx); err != nil {
			s.logger.Error("trading cycle terminal failure", "error", err)
			return
		}
		s.logger.Info("scheduled trading cycle completed")
	})
}

func (s *Scheduler) Start() {
	s.logger.Info("scheduler started")
	s.cron.Start()
}

// Stop halts scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
