// Package scheduler runs the periodic circulation sweep: persisting overdue
// status on late borrowings and cancelling expired reservations.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

// OverdueSweeper persists overdue status on late borrowings.
type OverdueSweeper interface {
	SweepOverdue() (int64, error)
}

// ReservationExpirer cancels pending reservations past expiry.
type ReservationExpirer interface {
	ExpireStale() (int64, error)
}

// SweepScheduler manages the periodic circulation sweep.
type SweepScheduler struct {
	sweeper  OverdueSweeper
	expirer  ReservationExpirer
	schedule string

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.Mutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

func NewSweepScheduler(sweeper OverdueSweeper, expirer ReservationExpirer, schedule string) *SweepScheduler {
	return &SweepScheduler{
		sweeper:  sweeper,
		expirer:  expirer,
		schedule: schedule,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler and runs one sweep immediately so a restart
// never leaves stale state waiting for the next tick.
func (s *SweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, s.RunSweep)
	if err != nil {
		return fmt.Errorf("failed to schedule sweep job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true
	log.Printf("Circulation sweep scheduler: started with schedule '%s'", s.schedule)

	go s.RunSweep()

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running sweep.
func (s *SweepScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	log.Printf("Circulation sweep scheduler: stopped")
}

// RunSweep executes one sweep pass.
func (s *SweepScheduler) RunSweep() {
	overdue, err := s.sweeper.SweepOverdue()
	if err != nil {
		log.Printf("Circulation sweep: overdue pass failed: %v", err)
	}

	expired, err := s.expirer.ExpireStale()
	if err != nil {
		log.Printf("Circulation sweep: reservation expiry pass failed: %v", err)
	}

	if overdue > 0 || expired > 0 {
		log.Printf("Circulation sweep: %d overdue, %d reservations expired", overdue, expired)
	}
}
