// Package scheduler runs the periodic maintenance jobs: the overdue-loan
// delay sweep and audit trail pruning.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/tasks"
)

// Enqueuer hands a task to the background queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
}

// Jobs are the inline implementations used when no queue is configured.
type Jobs struct {
	Delays tasks.DelayRecorder
	Audit  tasks.AuditEventCleaner
}

// MaintenanceScheduler fires the maintenance jobs on their cron schedules.
// With a queue the jobs are enqueued and retried by the task workers;
// without one they run inline on the cron goroutine.
type MaintenanceScheduler struct {
	jobs  Jobs
	queue Enqueuer

	sweepSchedule   string
	cleanupSchedule string
	retentionDays   int

	cron      *cron.Cron
	mu        sync.RWMutex
	isRunning bool

	runMu      sync.Mutex
	isSweeping bool
}

// NewMaintenanceScheduler creates a scheduler. queue may be nil.
func NewMaintenanceScheduler(sweep config.DelaySweep, auditCfg config.Audit, jobs Jobs, queue Enqueuer) *MaintenanceScheduler {
	s := &MaintenanceScheduler{
		jobs:            jobs,
		queue:           queue,
		cleanupSchedule: auditCfg.CleanupSchedule,
		retentionDays:   auditCfg.RetentionDays,
		cron:            cron.New(cron.WithParser(parser)),
	}
	if sweep.Enabled {
		s.sweepSchedule = sweep.Schedule
	}
	return s
}

// Start registers the enabled jobs and starts cron. It stops when ctx is
// cancelled.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	scheduled := 0
	if s.sweepSchedule != "" {
		if err := s.add(s.sweepSchedule, "delay sweep", s.runSweep); err != nil {
			return err
		}
		scheduled++
	}
	if s.retentionDays > 0 && s.cleanupSchedule != "" {
		if err := s.add(s.cleanupSchedule, "audit cleanup", s.runAuditCleanup); err != nil {
			return err
		}
		scheduled++
	}

	if scheduled == 0 {
		log.Printf("[SCHEDULER] No maintenance jobs enabled")
		return nil
	}

	s.cron.Start()
	s.isRunning = true

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *MaintenanceScheduler) add(schedule, name string, job func()) error {
	if err := ValidateCronSchedule(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s' for %s: %w", schedule, name, err)
	}
	if _, err := s.cron.AddFunc(schedule, job); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	next, _ := NextRunTime(schedule, time.Now())
	log.Printf("[SCHEDULER] %s scheduled '%s' (%s). Next run: %v", name, schedule, CronDescription(schedule), next)
	return nil
}

// Stop stops cron and waits for running jobs to complete.
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.isRunning = false

	log.Printf("[SCHEDULER] Stopped")
}

// IsRunning returns whether the scheduler is active.
func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsSweeping returns whether an inline delay sweep is in progress.
func (s *MaintenanceScheduler) IsSweeping() bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.isSweeping
}

func (s *MaintenanceScheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if s.queue != nil {
		id, err := s.queue.Enqueue(ctx, tasks.RecordDelaysTask{RequestedAt: time.Now().UTC()})
		if err != nil {
			log.Printf("[SCHEDULER] Failed to enqueue delay sweep: %v", err)
			return
		}
		log.Printf("[SCHEDULER] Delay sweep queued as %s", id)
		return
	}

	s.runMu.Lock()
	if s.isSweeping {
		s.runMu.Unlock()
		log.Printf("[SCHEDULER] Delay sweep already in progress, skipping")
		return
	}
	s.isSweeping = true
	s.runMu.Unlock()

	defer func() {
		s.runMu.Lock()
		s.isSweeping = false
		s.runMu.Unlock()
	}()

	if s.jobs.Delays == nil {
		log.Printf("[SCHEDULER] Delay sweep has no recorder configured")
		return
	}
	recorded, err := s.jobs.Delays.RecordDelays(ctx)
	if err != nil {
		log.Printf("[SCHEDULER] Delay sweep finished with errors (%d recorded): %v", recorded, err)
		return
	}
	log.Printf("[SCHEDULER] Delay sweep recorded %d delay(s)", recorded)
}

func (s *MaintenanceScheduler) runAuditCleanup() {
	task := tasks.CleanupAuditEventsTask{RetentionDays: s.retentionDays}

	if s.queue != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.queue.Enqueue(ctx, task); err != nil {
			log.Printf("[SCHEDULER] Failed to enqueue audit cleanup: %v", err)
		}
		return
	}

	if err := tasks.CleanupAuditEventsProcessor(s.jobs.Audit)(context.Background(), task); err != nil {
		log.Printf("[SCHEDULER] Audit cleanup failed: %v", err)
	}
}
