package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftlabs/weft/pkg/connectors"
	"github.com/weftlabs/weft/pkg/models"
	"github.com/weftlabs/weft/pkg/persistence/file"
	"github.com/weftlabs/weft/pkg/queue"
)

type recordingEnqueuer struct {
	mu       sync.Mutex
	requests []queue.ExecutionRequest
}

func (r *recordingEnqueuer) Enqueue(_ context.Context, request queue.ExecutionRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.requests = append(r.requests, request)

	return nil
}

func setupTestApp(tempDir string) (*fiber.App, *recordingEnqueuer) {
	persistence := file.NewPersistence(tempDir)
	registry := connectors.NewRegistry(slog.Default())
	factory := connectors.NewFactory(registry, slog.Default())
	enqueuer := &recordingEnqueuer{}

	api := NewAPI(slog.Default(), persistence, registry, factory, enqueuer)

	return api.App(), enqueuer
}

func testWorkflowBody(name string) []byte {
	body, _ := json.Marshal(map[string]any{
		"name": name,
		"nodes": []map[string]any{
			{"id": "start", "type": "START"},
			{"id": "end", "type": "END"},
		},
		"transitions": []map[string]any{
			{"from": "start", "to": "end"},
		},
	})

	return body
}

func createTestWorkflow(t *testing.T, app *fiber.App, name string) models.Workflow {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/workflows", bytes.NewReader(testWorkflowBody(name)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var workflow models.Workflow

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&workflow))

	return workflow
}

func TestAPI_RootEndpoint(t *testing.T) {
	app, _ := setupTestApp(t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Weft API", string(body))
}

func TestAPI_Liveness(t *testing.T) {
	app, _ := setupTestApp(t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_GetWorkflows_Empty(t *testing.T) {
	app, _ := setupTestApp(t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/workflows", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Workflows  []models.Workflow `json:"workflows"`
		TotalCount int               `json:"total_count"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	assert.Empty(t, listing.Workflows)
	assert.Zero(t, listing.TotalCount)
}

func TestAPI_CreateAndGetWorkflow(t *testing.T) {
	app, _ := setupTestApp(t.TempDir())

	created := createTestWorkflow(t, app, "Api Test Workflow")
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 1, created.Version)
	assert.Equal(t, models.WorkflowStatusDraft, created.Status)

	req := httptest.NewRequest(http.MethodGet, "/workflows/"+created.ID, nil)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched models.Workflow

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "Api Test Workflow", fetched.Name)
	assert.Len(t, fetched.Nodes, 2)
}

func TestAPI_CreateWorkflow_Invalid(t *testing.T) {
	app, _ := setupTestApp(t.TempDir())

	// Name is too short and the node list is missing.
	body, _ := json.Marshal(map[string]any{"name": "ab"})

	req := httptest.NewRequest(http.MethodPost, "/workflows", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var problem map[string]any

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&problem))
	assert.Equal(t, "validation_error", problem["type"])
}

func TestAPI_GetWorkflow_NotFound(t *testing.T) {
	app, _ := setupTestApp(t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/workflows/non-existent-workflow", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_UpdateWorkflow_BumpsVersion(t *testing.T) {
	app, _ := setupTestApp(t.TempDir())

	created := createTestWorkflow(t, app, "Versioned Workflow")

	req := httptest.NewRequest(http.MethodPut, "/workflows/"+created.ID,
		bytes.NewReader(testWorkflowBody("Versioned Workflow Renamed")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Workflow

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	assert.Equal(t, 2, updated.Version)

	req = httptest.NewRequest(http.MethodGet, "/workflows/"+created.ID+"/versions", nil)
	req.Header.Set("Accept", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var versionListing struct {
		WorkflowID string                   `json:"workflow_id"`
		Versions   []models.WorkflowVersion `json:"versions"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&versionListing))
	assert.Equal(t, created.ID, versionListing.WorkflowID)
	require.Len(t, versionListing.Versions, 1)
	assert.Equal(t, 1, versionListing.Versions[0].Version)
}

func TestAPI_DeleteWorkflow(t *testing.T) {
	app, _ := setupTestApp(t.TempDir())

	created := createTestWorkflow(t, app, "Disposable Workflow")

	req := httptest.NewRequest(http.MethodDelete, "/workflows/"+created.ID, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/workflows/"+created.ID, nil)
	resp, err = app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_ExecuteWorkflow_Enqueues(t *testing.T) {
	app, enqueuer := setupTestApp(t.TempDir())

	created := createTestWorkflow(t, app, "Queued Workflow")

	body, _ := json.Marshal(map[string]any{
		"variables": map[string]any{"region": "eu"},
	})

	req := httptest.NewRequest(http.MethodPost, "/workflows/"+created.ID+"/execute", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var response map[string]any

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	assert.Equal(t, created.ID, response["workflow_id"])
	assert.Equal(t, "queued", response["status"])

	enqueuer.mu.Lock()
	defer enqueuer.mu.Unlock()

	require.Len(t, enqueuer.requests, 1)
	assert.Equal(t, created.ID, enqueuer.requests[0].WorkflowID)
	assert.Equal(t, "eu", enqueuer.requests[0].Variables["region"])
}

func TestAPI_ExecuteWorkflow_NotFound(t *testing.T) {
	app, enqueuer := setupTestApp(t.TempDir())

	req := httptest.NewRequest(http.MethodPost, "/workflows/ghost/execute", bytes.NewReader([]byte("{}")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, enqueuer.requests)
}

func TestAPI_Connectors_Lifecycle(t *testing.T) {
	app, _ := setupTestApp(t.TempDir())

	body, _ := json.Marshal(map[string]any{
		"protocol": "rest",
		"config": map[string]any{
			"id":       "crm",
			"name":     "CRM API",
			"protocol": "REST",
			"base_url": "https://crm.example.com",
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/connectors", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/connectors", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var listed struct {
		Connectors []map[string]any `json:"connectors"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	require.Len(t, listed.Connectors, 1)
	assert.Equal(t, "REST", listed.Connectors[0]["protocol"])

	req = httptest.NewRequest(http.MethodDelete, "/connectors/REST", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAPI_RegisterConnector_InvalidConfig(t *testing.T) {
	app, _ := setupTestApp(t.TempDir())

	// REST connectors require a base_url.
	body, _ := json.Marshal(map[string]any{
		"protocol": "rest",
		"config": map[string]any{
			"id":       "crm",
			"name":     "CRM API",
			"protocol": "REST",
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/connectors", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_CORS_Headers(t *testing.T) {
	app, _ := setupTestApp(t.TempDir())

	req := httptest.NewRequest(http.MethodOptions, "/workflows", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestAPI_HealthEndpoint(t *testing.T) {
	app, _ := setupTestApp(t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]any

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "healthy", health["status"])
}
