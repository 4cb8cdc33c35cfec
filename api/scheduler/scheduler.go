// Package scheduler runs named background jobs on cron schedules, with a
// distributed lock so that only one instance runs each tick.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/patient-tracker/adherence-api/databases"
)

const (
	defaultJobTimeout = 5 * time.Minute
	defaultLockTTL    = 10 * time.Minute
)

// Job is a task run at every tick of its cron spec
type Job struct {
	Name string
	Spec string
	// Timeout bounds a single run. Zero means five minutes.
	Timeout time.Duration
	// LockTTL is how long a tick holds the job lock. It should be shorter
	// than the interval between ticks.
	LockTTL time.Duration
	Run     func(ctx context.Context) error
}

// Scheduler handles periodic background jobs
type Scheduler struct {
	cron       *cron.Cron
	LockDB     databases.SchedulerLockDatabase
	instanceID string
	timers     []*time.Timer
	mu         sync.Mutex
	wg         sync.WaitGroup
}

// NewScheduler creates a scheduler evaluating specs in the server's local time
func NewScheduler(lockDB databases.SchedulerLockDatabase) *Scheduler {
	// Heroku sets DYNO to "web.1", "web.2", etc.
	instanceID := os.Getenv("DYNO")
	if instanceID == "" {
		instanceID = "instance-" + uuid.New().String()
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.Local)),
		LockDB:     lockDB,
		instanceID: instanceID,
	}
}

// Register adds jobs to the cron loop
func (s *Scheduler) Register(jobs ...Job) error {
	for _, job := range jobs {
		job := job
		if job.Run == nil {
			return fmt.Errorf("job %s has no run function", job.Name)
		}
		if _, err := s.cron.AddFunc(job.Spec, func() { s.RunJob(job) }); err != nil {
			return fmt.Errorf("register job %s: %w", job.Name, err)
		}
		zap.S().Debugw("registered job", "job", job.Name, "spec", job.Spec)
	}
	return nil
}

// After runs job once, d after the call, outside the cron loop
func (s *Scheduler) After(d time.Duration, job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wg.Add(1)
	s.timers = append(s.timers, time.AfterFunc(d, func() {
		defer s.wg.Done()
		s.RunJob(job)
	}))
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	s.cron.Start()
	zap.S().Infow("scheduler started",
		"instance", s.instanceID,
		"jobs", len(s.cron.Entries()))
}

// Stop gracefully stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for _, t := range s.timers {
		if t.Stop() {
			s.wg.Done()
		}
	}
	s.timers = nil
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.wg.Wait()
	zap.S().Info("scheduler stopped")
}

// RunJob runs one tick of job if this instance wins the job lock. The lock
// is kept until it expires so that other instances firing the same tick
// skip it. It is released early only when the run fails.
func (s *Scheduler) RunJob(job Job) {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}
	ttl := job.LockTTL
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if s.LockDB != nil {
		acquired, err := s.LockDB.TryAcquireLock(ctx, job.Name, s.instanceID, ttl)
		if err != nil {
			zap.S().Errorw("failed to acquire lock for job", "job", job.Name, "error", err)
			return
		}
		if !acquired {
			zap.S().Debugw("job already running on another instance, skipping", "job", job.Name)
			return
		}
	}

	start := time.Now()
	err := job.Run(ctx)
	if err != nil {
		zap.S().Errorw("job failed",
			"job", job.Name,
			"instance", s.instanceID,
			"duration", time.Since(start),
			"error", err)
		if s.LockDB != nil {
			if rerr := s.LockDB.ReleaseLock(context.Background(), job.Name, s.instanceID); rerr != nil {
				zap.S().Warnw("failed to release job lock", "job", job.Name, "error", rerr)
			}
		}
		return
	}
	zap.S().Debugw("job complete",
		"job", job.Name,
		"duration", time.Since(start))
}
