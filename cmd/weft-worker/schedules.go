package main

import (
	"context"
	"log/slog"

	"github.com/weftlabs/weft/pkg/persistence"
	"github.com/weftlabs/weft/pkg/scheduler"
)

// registerSchedules scans active workflows for a "schedule" metadata entry
// holding a cron expression and registers each with the scheduler.
func registerSchedules(ctx context.Context, store persistence.Persistence, cronScheduler *scheduler.Scheduler, logger *slog.Logger) error {
	workflows, err := store.WorkflowRepository().GetAll(ctx)
	if err != nil {
		return err
	}

	for _, workflow := range workflows {
		cronExpr, ok := workflow.Metadata["schedule"].(string)
		if !ok || cronExpr == "" {
			continue
		}

		if err := cronScheduler.Add(workflow.ID, cronExpr); err != nil {
			logger.WarnContext(ctx, "Skipping invalid workflow schedule",
				"workflow_id", workflow.ID, "error", err)

			continue
		}
	}

	return nil
}
