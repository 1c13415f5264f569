package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/weftlabs/weft/pkg/connectors"
	"github.com/weftlabs/weft/pkg/models"
	"github.com/weftlabs/weft/pkg/queue"
	"github.com/weftlabs/weft/pkg/services"
)

// Enqueuer pushes execution requests for asynchronous processing.
type Enqueuer interface {
	Enqueue(ctx context.Context, request queue.ExecutionRequest) error
}

type APIHandlers struct {
	workflowService *services.Workflow
	enqueuer        Enqueuer
	factory         *connectors.Factory
	registry        *connectors.Registry
	validator       *validator.Validate
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	enqueuer Enqueuer,
	factory *connectors.Factory,
	registry *connectors.Registry,
	validate *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		enqueuer:        enqueuer,
		factory:         factory,
		registry:        registry,
		validator:       validate,
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows":   workflows,
		"total_count": len(workflows),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflowService.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow := &models.Workflow{
		Name:        req.Name,
		Description: req.Description,
		Status:      models.WorkflowStatus(req.Status),
		Nodes:       req.Nodes,
		Transitions: req.Transitions,
		Variables:   req.Variables,
		Metadata:    req.Metadata,
		Owner:       req.Owner,
	}

	created, err := h.workflowService.Create(c.Context(), workflow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow := &models.Workflow{
		Name:        req.Name,
		Description: req.Description,
		Status:      models.WorkflowStatus(req.Status),
		Nodes:       req.Nodes,
		Transitions: req.Transitions,
		Variables:   req.Variables,
		Metadata:    req.Metadata,
	}

	updated, err := h.workflowService.Update(c.Context(), id, workflow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	if err := h.workflowService.Delete(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetWorkflowVersions(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	versions, err := h.workflowService.Versions(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflow_id": id,
		"versions":    versions,
	})
}

// ExecuteWorkflow enqueues an asynchronous run of the workflow. The response
// acknowledges acceptance; execution status is queried separately.
func (h *APIHandlers) ExecuteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req ExecuteWorkflowRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	if _, err := h.workflowService.Get(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	request := queue.ExecutionRequest{
		WorkflowID:  id,
		Variables:   req.Variables,
		RequestedAt: time.Now().UTC(),
	}

	if err := h.enqueuer.Enqueue(c.Context(), request); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"workflow_id":  id,
		"status":       "queued",
		"requested_at": request.RequestedAt,
	})
}

func (h *APIHandlers) GetWorkflowExecutions(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	executions, err := h.workflowService.Executions(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflow_id": id,
		"executions":  executions,
	})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	execution, err := h.workflowService.Execution(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) RegisterConnector(c fiber.Ctx) error {
	var req RegisterConnectorRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	protocol := connectors.Protocol(strings.ToUpper(req.Protocol))

	connector, err := h.factory.CreateConnector(protocol, req.Config)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(ConnectorResponse{
		ID:       connector.ID(),
		Name:     connector.Name(),
		Protocol: string(connector.Protocol()),
	})
}

func (h *APIHandlers) GetConnectors(c fiber.Ctx) error {
	registered := h.registry.List()

	response := make([]ConnectorResponse, 0, len(registered))
	for _, connector := range registered {
		response = append(response, ConnectorResponse{
			ID:       connector.ID(),
			Name:     connector.Name(),
			Protocol: string(connector.Protocol()),
		})
	}

	return c.JSON(fiber.Map{"connectors": response})
}

func (h *APIHandlers) RemoveConnector(c fiber.Ctx) error {
	protocol := connectors.Protocol(strings.ToUpper(c.Params("protocol")))

	if err := h.registry.Remove(protocol); err != nil {
		return notFound(c, "connector not registered for protocol")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Weft API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Weft API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
