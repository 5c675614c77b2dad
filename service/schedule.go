package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the periodic purge of expired reset tokens and session revocations.
type Scheduler struct {
	cron     *cron.Cron
	resets   *PasswordResetService
	sessions *SessionService
}

func NewScheduler(resets *PasswordResetService, sessions *SessionService) *Scheduler {
	return &Scheduler{cron: cron.New(), resets: resets, sessions: sessions}
}

// Start registers the purge task under spec and starts the cron loop.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.PurgeExpiredTask); err != nil {
		return fmt.Errorf("schedule token purge %q: %w", spec, err)
	}
	s.cron.Start()
	return nil
}

// Stop waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) PurgeExpiredTask() {
	logger.Infof("[%s] Start scheduled task PurgeExpiredTask", "scheduled task")
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	tokens, err := s.resets.PurgeExpired(ctx)
	if err != nil {
		logger.Warnf("[%s] purge reset tokens error, %s", "scheduled task", err)
	}
	revocations, err := s.sessions.PurgeExpired(ctx)
	if err != nil {
		logger.Warnf("[%s] purge session revocations error, %s", "scheduled task", err)
	}

	logger.Infof("[%s] Finished scheduled task PurgeExpiredTask, %d reset tokens, %d revocations, cost %v",
		"scheduled task", tokens, revocations, time.Since(startTime))
}
