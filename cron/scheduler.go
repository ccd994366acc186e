// surodeals/cron/scheduler.go
package cron

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Hokky66/Surodeals/models"
	"github.com/Hokky66/Surodeals/utils"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the maintenance jobs on their calendar schedules. Jobs are
// fire-and-forget: a failing or panicking job is logged and does not affect
// the process or the other jobs. Single-instance, no distributed coordination.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	mu   sync.Mutex
	jobs map[string]*jobEntry
}

type jobEntry struct {
	status models.JobStatus
	run    func() error
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
		jobs:   make(map[string]*jobEntry),
	}
}

// AddJob registers a named job on a cron schedule.
func (s *Scheduler) AddJob(name, schedule string, run func() error) error {
	s.mu.Lock()
	if _, exists := s.jobs[name]; exists {
		s.mu.Unlock()
		return fmt.Errorf("job %q already registered", name)
	}
	s.jobs[name] = &jobEntry{
		status: models.JobStatus{Name: name, Schedule: schedule},
		run:    run,
	}
	s.mu.Unlock()

	_, err := s.cron.AddFunc(schedule, func() { s.runJob(name) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %q: %w", schedule, name, err)
	}
	return nil
}

// Start begins firing jobs on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Cron scheduler started", "jobs", len(s.jobs))
}

// Stop stops the timers. Jobs already in progress run to completion; none of
// them are cancellable mid-run.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Trigger runs a job by name immediately, outside its schedule. Used by the
// manual /api/cron endpoints.
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	_, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	s.runJob(name)
	return nil
}

// runJob executes one job with panic recovery and status bookkeeping.
// Errors are recorded and logged, never propagated.
func (s *Scheduler) runJob(name string) {
	s.mu.Lock()
	entry := s.jobs[name]
	if entry.status.Running {
		s.mu.Unlock()
		s.logger.Warn("Skipping job run, previous run still in progress", "job", name)
		return
	}
	entry.status.Running = true
	s.mu.Unlock()

	s.logger.Info("Cron job starting", "job", name)

	var runErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				runErr = fmt.Errorf("job panicked: %v", r)
			}
		}()
		runErr = entry.run()
	}()

	now := utils.GetTime()

	s.mu.Lock()
	entry.status.Running = false
	entry.status.Runs++
	entry.status.LastRun = &now
	if runErr != nil {
		entry.status.LastError = runErr.Error()
	} else {
		entry.status.LastError = ""
	}
	s.mu.Unlock()

	if runErr != nil {
		s.logger.Error("Cron job failed", "job", name, "error", runErr)
	} else {
		s.logger.Info("Cron job finished", "job", name)
	}
}

// Status returns a snapshot of every job's bookkeeping.
func (s *Scheduler) Status() []models.JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	statuses := make([]models.JobStatus, 0, len(s.jobs))
	for _, entry := range s.jobs {
		statuses = append(statuses, entry.status)
	}
	return statuses
}
