package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
)

type SchedulerConfig struct {
	// EvictEvery is the cron expression for idle session eviction.
	EvictEvery string
	// PlanRefresh is the cron expression for the monthly plan regeneration.
	PlanRefresh string
	// JobTimeout bounds a single plan refresh run.
	JobTimeout time.Duration
}

type Scheduler struct {
	log      *logger.Logger
	cron     *cron.Cron
	sessions SessionManager
	finance  FinanceService
	timeout  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// cronLogger routes cron's own logging through ours.
type cronLogger struct{ log *logger.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}

func NewScheduler(log *logger.Logger, cfg SchedulerConfig, sessions SessionManager, finance FinanceService) (*Scheduler, error) {
	slog := log.With("service", "Scheduler")
	cl := cronLogger{log: slog}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = time.Hour
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		log:      slog,
		cron:     c,
		sessions: sessions,
		finance:  finance,
		timeout:  cfg.JobTimeout,
		ctx:      ctx,
		cancel:   cancel,
	}

	if cfg.EvictEvery != "" {
		if _, err := c.AddFunc(cfg.EvictEvery, s.evictIdle); err != nil {
			cancel()
			return nil, fmt.Errorf("schedule session eviction %q: %w", cfg.EvictEvery, err)
		}
	}
	if cfg.PlanRefresh != "" {
		if _, err := c.AddFunc(cfg.PlanRefresh, s.refreshPlans); err != nil {
			cancel()
			return nil, fmt.Errorf("schedule plan refresh %q: %w", cfg.PlanRefresh, err)
		}
	}
	return s, nil
}

func (s *Scheduler) evictIdle() {
	s.sessions.EvictIdle(time.Now())
}

func (s *Scheduler) refreshPlans() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	start := time.Now()
	n, err := s.finance.RefreshPlans(ctx)
	if err != nil {
		s.log.Warn("Plan refresh stopped early", "refreshed", n, "error", err)
		return
	}
	s.log.Info("Plans refreshed", "refreshed", n, "took", time.Since(start).String())
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.log.Info("Scheduler stopped")
}
