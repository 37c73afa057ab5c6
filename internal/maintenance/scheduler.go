package maintenance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// runTimeout bounds a single maintenance pass.
const runTimeout = 30 * time.Minute

// Optimizer is the store operation the scheduler runs.
type Optimizer interface {
	Optimize(ctx context.Context) error
}

// Scheduler runs store maintenance on a cron schedule
type Scheduler struct {
	store       Optimizer
	schedule    string
	cron        *cron.Cron
	cronEntryID cron.EntryID
	mu          sync.Mutex
	running     bool
	busy        sync.Mutex
	lastRun     time.Time
	lastErr     error
}

// New validates schedule and returns a stopped scheduler. An empty schedule
// yields a scheduler whose Start does nothing.
func New(store Optimizer, schedule string) (*Scheduler, error) {
	if schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return nil, fmt.Errorf("invalid maintenance schedule %q: %w", schedule, err)
		}
	}
	return &Scheduler{
		store:    store,
		schedule: schedule,
		cron:     cron.New(),
	}, nil
}

// Start starts the cron scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running || s.schedule == "" {
		if s.schedule == "" {
			log.Info().Msg("Scheduled maintenance disabled")
		}
		return nil
	}

	id, err := s.cron.AddFunc(s.schedule, s.scheduledRun)
	if err != nil {
		return fmt.Errorf("failed to schedule maintenance: %w", err)
	}
	s.cronEntryID = id
	s.cron.Start()
	s.running = true

	log.Info().
		Str("schedule", s.schedule).
		Time("next_run", s.cron.Entry(id).Next).
		Msg("Maintenance scheduler started")
	return nil
}

// Stop stops the scheduler and waits for a running pass to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.cron.Remove(s.cronEntryID)
	s.cronEntryID = 0
	s.running = false
	log.Info().Msg("Maintenance scheduler stopped")
}

// NextRun returns when the next pass is due, or the zero time when stopped
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return time.Time{}
	}
	return s.cron.Entry(s.cronEntryID).Next
}

// LastRun returns when the last pass finished and its error
func (s *Scheduler) LastRun() (time.Time, error) {
	s.busy.Lock()
	defer s.busy.Unlock()
	return s.lastRun, s.lastErr
}

// RunNow runs one maintenance pass immediately. Passes never overlap.
func (s *Scheduler) RunNow(ctx context.Context) error {
	s.busy.Lock()
	defer s.busy.Unlock()

	start := time.Now()
	err := s.store.Optimize(ctx)
	s.lastRun = time.Now()
	s.lastErr = err

	if err != nil {
		return err
	}
	log.Info().Dur("duration", time.Since(start)).Msg("Database maintenance completed")
	return nil
}

// scheduledRun is called by cron to run a scheduled pass
func (s *Scheduler) scheduledRun() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if err := s.RunNow(ctx); err != nil {
		log.Error().Err(err).Msg("Scheduled database maintenance failed")
	}
}
