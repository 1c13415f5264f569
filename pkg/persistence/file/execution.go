package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/weftlabs/weft/pkg/models"
	"github.com/weftlabs/weft/pkg/persistence"
)

// ExecutionRepository handles execution-related file operations.
type ExecutionRepository struct {
	root string
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{root: root}
}

func (er *ExecutionRepository) executionsDir() string {
	return filepath.Join(er.root, "executions")
}

// GetByID loads one execution, returning ErrExecutionNotFound when absent.
func (er *ExecutionRepository) GetByID(_ context.Context, id string) (*models.Execution, error) {
	if err := validateID(id); err != nil {
		return nil, persistence.NewExecutionError("GetByID", id, err)
	}

	data, err := os.ReadFile(filepath.Join(er.executionsDir(), id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewExecutionError("GetByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("GetByID", id, err)
	}

	var execution models.Execution
	if err := json.Unmarshal(data, &execution); err != nil {
		return nil, persistence.NewExecutionError("GetByID", id, err)
	}

	return &execution, nil
}

// Save writes the execution record, filling state defaults so stored records
// always round-trip with non-nil maps.
func (er *ExecutionRepository) Save(_ context.Context, execution *models.Execution) error {
	if err := validateID(execution.ID); err != nil {
		return persistence.NewExecutionError("Save", execution.ID, err)
	}

	toSave := *execution
	if toSave.State == nil {
		toSave.State = &models.ExecutionState{}
	}

	if toSave.State.Variables == nil {
		toSave.State.Variables = make(map[string]any)
	}

	if err := os.MkdirAll(er.executionsDir(), 0750); err != nil {
		return persistence.NewExecutionError("Save", execution.ID, err)
	}

	data, err := json.Marshal(toSave)
	if err != nil {
		return persistence.NewExecutionError("Save", execution.ID, err)
	}

	path := filepath.Join(er.executionsDir(), execution.ID+".json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return persistence.NewExecutionError("Save", execution.ID, err)
	}

	return nil
}

// ListByWorkflow loads every execution belonging to the given workflow,
// ordered ascending by start time.
func (er *ExecutionRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	root := os.DirFS(er.executionsDir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list execution files: %w", err)
	}

	executions := make([]*models.Execution, 0)

	for _, file := range jsonFiles {
		execution, err := er.GetByID(ctx, file[:len(file)-5])
		if err != nil {
			return nil, err
		}

		if execution.WorkflowID == workflowID {
			executions = append(executions, execution)
		}
	}

	sort.Slice(executions, func(i, j int) bool {
		return executions[i].StartedAt.Before(executions[j].StartedAt)
	})

	return executions, nil
}
