// Package scheduler enqueues execution requests for workflows on cron
// schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/weftlabs/weft/pkg/queue"
)

// Enqueuer is the queue surface the scheduler needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, request queue.ExecutionRequest) error
}

// Scheduler runs cron jobs that push execution requests for registered
// workflows. Safe for concurrent Add/Remove.
type Scheduler struct {
	enqueuer Enqueuer
	logger   *slog.Logger
	cron     *cron.Cron
	jobs     map[string]cron.EntryID
	mutex    sync.RWMutex
}

func New(enqueuer Enqueuer, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		enqueuer: enqueuer,
		logger:   logger.With("module", "scheduler"),
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DefaultLogger),
			cron.Recover(cron.DefaultLogger),
		)),
		jobs: make(map[string]cron.EntryID),
	}
}

// Add registers a cron schedule for the workflow, replacing any existing one.
func (s *Scheduler) Add(workflowID, cronExpr string) error {
	if _, err := cron.ParseStandard(cronExpr); err != nil {
		return fmt.Errorf("invalid cron expression %q for workflow %s: %w", cronExpr, workflowID, err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if entryID, exists := s.jobs[workflowID]; exists {
		s.cron.Remove(entryID)
	}

	entryID, err := s.cron.AddFunc(cronExpr, func() {
		s.trigger(workflowID, cronExpr)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job for workflow %s: %w", workflowID, err)
	}

	s.jobs[workflowID] = entryID

	s.logger.Info("Scheduled workflow", "workflow_id", workflowID, "cron", cronExpr, "entry_id", entryID)

	return nil
}

// Remove drops the schedule for the workflow, if any.
func (s *Scheduler) Remove(workflowID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if entryID, exists := s.jobs[workflowID]; exists {
		s.cron.Remove(entryID)
		delete(s.jobs, workflowID)

		s.logger.Info("Unscheduled workflow", "workflow_id", workflowID)
	}
}

func (s *Scheduler) trigger(workflowID, cronExpr string) {
	logger := s.logger.With("workflow_id", workflowID)
	logger.Debug("Enqueueing scheduled execution")

	now := time.Now().UTC()

	request := queue.ExecutionRequest{
		WorkflowID: workflowID,
		Variables: map[string]any{
			"scheduled_at": now.Format(time.RFC3339),
			"cron":         cronExpr,
		},
		RequestedAt: now,
	}

	if err := s.enqueuer.Enqueue(context.Background(), request); err != nil {
		logger.Error("Failed to enqueue scheduled execution", "error", err)
	}
}

// Start begins firing registered schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started")
}

// Stop halts the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.logger.Info("Scheduler stopped")
}
