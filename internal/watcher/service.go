package watcher

import (
	"context"
	"sync"
	"time"

	"farebot/internal/runtime/supervisor"
	logx "farebot/pkg/logx"
)

// Service runs the watcher on its schedule under a supervised loop.
type Service struct {
	w   *Watcher
	log logx.Logger

	mu    sync.Mutex
	cfg   Config
	sched Schedule
	sup   *supervisor.Supervisor
}

func NewService(cfg Config, w *Watcher, log logx.Logger) (*Service, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{w: w, log: log}
	if err := s.setConfig(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) setConfig(cfg Config) error {
	sched, err := ParseSchedule(scheduleOrDefault(cfg.Schedule))
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg
	s.sched = sched
	s.mu.Unlock()
	s.w.Apply(cfg)
	return nil
}

func scheduleOrDefault(raw string) string {
	if raw == "" {
		return "1h"
	}
	return raw
}

// Apply hot-reloads the watcher configuration. A schedule change takes
// effect at the next trigger computation.
func (s *Service) Apply(cfg Config) error { return s.setConfig(cfg) }

func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.sup != nil {
		s.mu.Unlock()
		return nil
	}
	if !s.cfg.Enabled {
		s.mu.Unlock()
		s.log.Info("watcher disabled")
		return nil
	}
	sup := supervisor.New(ctx, supervisor.WithLogger(s.log))
	s.sup = sup
	s.mu.Unlock()

	sup.GoRestart("watcher.loop", s.loop,
		supervisor.WithRestartBackoff(time.Second, time.Minute))
	s.log.Info("watcher started", logx.String("schedule", s.schedule().String()))
	return nil
}

func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	sup := s.sup
	s.sup = nil
	s.mu.Unlock()
	if sup == nil {
		return nil
	}
	return sup.Stop(ctx)
}

func (s *Service) schedule() Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched
}

func (s *Service) loop(ctx context.Context) error {
	for first := true; ; first = false {
		sched := s.schedule()

		// Interval schedules check prices right away on start and then sleep
		// between cycles; cron specs wait for their boundary.
		_, interval := sched.Interval()
		if !first || !interval {
			now := s.w.clock.Now()
			if err := s.w.clock.Sleep(ctx, sched.Next(now).Sub(now)); err != nil {
				return err
			}
		}

		stats, err := s.w.RunCycle(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Warn("price-check cycle failed", logx.Err(err))
			continue
		}
		s.log.Info("price-check cycle done",
			logx.Int("chats_checked", stats.ChatsChecked),
			logx.Int("chats_skipped", stats.ChatsSkipped),
			logx.Int("chats_failed", stats.ChatsFailed),
			logx.Int("days_queried", stats.DaysQueried),
			logx.Int("alerts_sent", stats.AlertsSent),
			logx.Duration("took", stats.Duration))
	}
}
