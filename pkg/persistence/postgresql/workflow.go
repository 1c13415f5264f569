package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/weftlabs/weft/pkg/models"
	"github.com/weftlabs/weft/pkg/persistence"
)

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

const workflowColumns = `
	id
  , name
  , description
  , status
  , version
  , nodes
  , transitions
  , subworkflows
  , variables
  , metadata
  , owner
  , created_at
  , updated_at
`

// GetAll returns all workflows from the database.
func (r *WorkflowRepository) GetAll(ctx context.Context) ([]*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

// GetByID returns one workflow, or ErrWorkflowNotFound.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE id = $1`

	workflow, err := scanWorkflow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	return workflow, nil
}

// Save upserts a workflow.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	nodes, err := json.Marshal(workflow.Nodes)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	transitions, err := json.Marshal(workflow.Transitions)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	subworkflows, err := json.Marshal(workflow.Subworkflows)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	variables, err := json.Marshal(workflow.Variables)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	metadata, err := json.Marshal(workflow.Metadata)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	query := `
		INSERT INTO workflows (id, name, description, status, version, nodes, transitions, subworkflows, variables, metadata, owner, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			version = EXCLUDED.version,
			nodes = EXCLUDED.nodes,
			transitions = EXCLUDED.transitions,
			subworkflows = EXCLUDED.subworkflows,
			variables = EXCLUDED.variables,
			metadata = EXCLUDED.metadata,
			owner = EXCLUDED.owner,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		workflow.ID,
		workflow.Name,
		workflow.Description,
		workflow.Status,
		workflow.Version,
		nodes,
		transitions,
		subworkflows,
		variables,
		metadata,
		workflow.Owner,
		workflow.CreatedAt,
		workflow.UpdatedAt,
	)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	return nil
}

// Delete removes a workflow and, through cascading, its version snapshots.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

// SaveVersion stores an immutable snapshot row.
func (r *WorkflowRepository) SaveVersion(ctx context.Context, version *models.WorkflowVersion) error {
	definition, err := json.Marshal(version.Definition)
	if err != nil {
		return persistence.NewWorkflowError("SaveVersion", version.WorkflowID, err)
	}

	query := `
		INSERT INTO workflow_versions (id, workflow_id, version, definition, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = r.db.ExecContext(ctx, query,
		version.ID,
		version.WorkflowID,
		version.Version,
		definition,
		version.CreatedAt,
	)
	if err != nil {
		return persistence.NewWorkflowError("SaveVersion", version.WorkflowID, err)
	}

	return nil
}

// Versions returns all snapshots for a workflow, ascending by version.
func (r *WorkflowRepository) Versions(ctx context.Context, workflowID string) ([]*models.WorkflowVersion, error) {
	query := `
		SELECT id, workflow_id, version, definition, created_at
		FROM workflow_versions
		WHERE workflow_id = $1
		ORDER BY version ASC
	`

	rows, err := r.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, persistence.NewWorkflowError("Versions", workflowID, err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	versions := make([]*models.WorkflowVersion, 0)

	for rows.Next() {
		var (
			version    models.WorkflowVersion
			definition []byte
		)

		err := rows.Scan(&version.ID, &version.WorkflowID, &version.Version, &definition, &version.CreatedAt)
		if err != nil {
			return nil, persistence.NewWorkflowError("Versions", workflowID, err)
		}

		if err := json.Unmarshal(definition, &version.Definition); err != nil {
			return nil, persistence.NewWorkflowError("Versions", workflowID, err)
		}

		versions = append(versions, &version)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewWorkflowError("Versions", workflowID, err)
	}

	return versions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*models.Workflow, error) {
	var (
		workflow     models.Workflow
		nodes        []byte
		transitions  []byte
		subworkflows []byte
		variables    []byte
		metadata     []byte
		owner        sql.NullString
	)

	err := row.Scan(
		&workflow.ID,
		&workflow.Name,
		&workflow.Description,
		&workflow.Status,
		&workflow.Version,
		&nodes,
		&transitions,
		&subworkflows,
		&variables,
		&metadata,
		&owner,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	workflow.Owner = owner.String

	if err := unmarshalColumn(nodes, &workflow.Nodes); err != nil {
		return nil, err
	}

	if err := unmarshalColumn(transitions, &workflow.Transitions); err != nil {
		return nil, err
	}

	if err := unmarshalColumn(subworkflows, &workflow.Subworkflows); err != nil {
		return nil, err
	}

	if err := unmarshalColumn(variables, &workflow.Variables); err != nil {
		return nil, err
	}

	if err := unmarshalColumn(metadata, &workflow.Metadata); err != nil {
		return nil, err
	}

	return &workflow, nil
}

func unmarshalColumn(raw []byte, target any) error {
	if len(raw) == 0 {
		return nil
	}

	return json.Unmarshal(raw, target)
}
