// Package scheduler runs periodic reloads of the dataset, schedule and news stores.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/pitwall/internal/logger"
)

// Reloader is a named store load, satisfied by *cache.Loader
type Reloader interface {
	Name() string
	Load(ctx context.Context) error
}

// ReloadHook is called after every scheduled reload
type ReloadHook func(name string, err error)

// Scheduler manages scheduled reload jobs
type Scheduler struct {
	cron            *cron.Cron
	logger          *logrus.Entry
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          map[string]cron.EntryID
	jobTimeout      time.Duration
	gracefulTimeout time.Duration
	hooks           []ReloadHook
}

// NewScheduler creates a new scheduler
func NewScheduler(log *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:            cron.New(cron.WithLocation(time.UTC)),
		logger:          logger.OrDiscard(log).WithField("component", "scheduler"),
		jobIDs:          make(map[string]cron.EntryID),
		jobTimeout:      5 * time.Minute,
		gracefulTimeout: 30 * time.Second,
	}
}

// OnReload registers a hook run after each scheduled reload
func (s *Scheduler) OnReload(hook ReloadHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

// ScheduleReload schedules job to run on the standard cron expression.
// An empty expression leaves the job unscheduled.
func (s *Scheduler) ScheduleReload(cronExpression string, job Reloader) error {
	if cronExpression == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if _, exists := s.jobIDs[job.Name()]; exists {
		return fmt.Errorf("job %q already scheduled", job.Name())
	}

	entryID, err := s.cron.AddFunc(cronExpression, func() { s.run(job) })
	if err != nil {
		return fmt.Errorf("failed to add job %s: %w", job.Name(), err)
	}

	s.jobIDs[job.Name()] = entryID
	s.logger.WithFields(logrus.Fields{
		"job":  job.Name(),
		"cron": cronExpression,
	}).Info("Scheduled reload job")

	return nil
}

// RunNow triggers a scheduled job immediately, outside its cron timing
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	entryID, ok := s.jobIDs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job %q not scheduled", name)
	}

	entry := s.cron.Entry(entryID)
	if !entry.Valid() {
		return fmt.Errorf("job %q has no valid entry", name)
	}
	entry.Job.Run()
	return nil
}

func (s *Scheduler) run(job Reloader) {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	start := time.Now()
	err := job.Load(ctx)
	fields := logrus.Fields{
		"job":         job.Name(),
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		s.logger.WithFields(fields).WithError(err).Error("Scheduled reload failed")
	} else {
		s.logger.WithFields(fields).Info("Scheduled reload completed")
	}

	s.mu.RLock()
	hooks := append([]ReloadHook(nil), s.hooks...)
	s.mu.RUnlock()
	for _, hook := range hooks {
		hook(job.Name(), err)
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop stops the scheduler, waiting up to the graceful timeout for running jobs
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.isRunning = false
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-time.After(s.gracefulTimeout):
		return fmt.Errorf("scheduler stop timed out after %s", s.gracefulTimeout)
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() && (nextRun.IsZero() || entry.Next.Before(nextRun)) {
			nextRun = entry.Next
		}
	}
	return nextRun
}

// Jobs returns the names of scheduled jobs
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobIDs))
	for name := range s.jobIDs {
		names = append(names, name)
	}
	return names
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot remove job while scheduler is running")
	}
	entryID, ok := s.jobIDs[name]
	if !ok {
		return fmt.Errorf("job %q not scheduled", name)
	}

	s.cron.Remove(entryID)
	delete(s.jobIDs, name)
	s.logger.WithField("job", name).Info("Removed job")

	return nil
}
