package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/weftlabs/weft/pkg/models"
	"github.com/weftlabs/weft/pkg/persistence"
)

// WorkflowRepository handles workflow-related file operations.
type WorkflowRepository struct {
	root string
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{root: root}
}

// validateID guards against path traversal through crafted identifiers.
func validateID(id string) error {
	if id == "" {
		return errors.New("identifier cannot be empty")
	}

	if strings.Contains(id, "..") || strings.Contains(id, "/") || strings.Contains(id, "\\") {
		return errors.New("identifier contains invalid characters")
	}

	return nil
}

func (wr *WorkflowRepository) workflowsDir() string {
	return filepath.Join(wr.root, "workflows")
}

func (wr *WorkflowRepository) versionsDir(workflowID string) string {
	return filepath.Join(wr.root, "workflow_versions", workflowID)
}

// GetAll loads every stored workflow.
func (wr *WorkflowRepository) GetAll(ctx context.Context) ([]*models.Workflow, error) {
	root := os.DirFS(wr.workflowsDir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		workflowID := file[:len(file)-5] // Remove .json extension

		workflow, err := wr.GetByID(ctx, workflowID)
		if err != nil {
			return nil, fmt.Errorf("failed to load workflow %s: %w", workflowID, err)
		}

		workflows = append(workflows, workflow)
	}

	return workflows, nil
}

// GetByID loads one workflow, returning ErrWorkflowNotFound when absent.
func (wr *WorkflowRepository) GetByID(_ context.Context, id string) (*models.Workflow, error) {
	if err := validateID(id); err != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	data, err := os.ReadFile(filepath.Join(wr.workflowsDir(), id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	var workflow models.Workflow
	if err := json.Unmarshal(data, &workflow); err != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	return &workflow, nil
}

// Save writes the workflow to disk, creating the directory on first use.
func (wr *WorkflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	if err := validateID(workflow.ID); err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	if err := os.MkdirAll(wr.workflowsDir(), 0750); err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	data, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	path := filepath.Join(wr.workflowsDir(), workflow.ID+".json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	return nil
}

// Delete removes a stored workflow.
func (wr *WorkflowRepository) Delete(_ context.Context, id string) error {
	if err := validateID(id); err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	err := os.Remove(filepath.Join(wr.workflowsDir(), id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
		}

		return persistence.NewWorkflowError("Delete", id, err)
	}

	return nil
}

// SaveVersion stores an immutable snapshot under the workflow's version directory.
func (wr *WorkflowRepository) SaveVersion(_ context.Context, version *models.WorkflowVersion) error {
	if err := validateID(version.WorkflowID); err != nil {
		return persistence.NewWorkflowError("SaveVersion", version.WorkflowID, err)
	}

	dir := wr.versionsDir(version.WorkflowID)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return persistence.NewWorkflowError("SaveVersion", version.WorkflowID, err)
	}

	data, err := json.MarshalIndent(version, "", "  ")
	if err != nil {
		return persistence.NewWorkflowError("SaveVersion", version.WorkflowID, err)
	}

	path := filepath.Join(dir, strconv.Itoa(version.Version)+".json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return persistence.NewWorkflowError("SaveVersion", version.WorkflowID, err)
	}

	return nil
}

// Versions loads every snapshot for a workflow, ordered ascending by version.
func (wr *WorkflowRepository) Versions(_ context.Context, workflowID string) ([]*models.WorkflowVersion, error) {
	if err := validateID(workflowID); err != nil {
		return nil, persistence.NewWorkflowError("Versions", workflowID, err)
	}

	root := os.DirFS(wr.versionsDir(workflowID))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, persistence.NewWorkflowError("Versions", workflowID, err)
	}

	versions := make([]*models.WorkflowVersion, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		data, err := os.ReadFile(filepath.Join(wr.versionsDir(workflowID), file))
		if err != nil {
			return nil, persistence.NewWorkflowError("Versions", workflowID, err)
		}

		var version models.WorkflowVersion
		if err := json.Unmarshal(data, &version); err != nil {
			return nil, persistence.NewWorkflowError("Versions", workflowID, err)
		}

		versions = append(versions, &version)
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Version < versions[j].Version
	})

	return versions, nil
}
