package task

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/worklens/server/internal/module/project"
	"github.com/worklens/server/internal/module/user"
	sharederrors "github.com/worklens/server/internal/shared/errors"
)

// Handler handles HTTP requests for tasks.
type Handler struct {
	service *Service
}

// NewHandler creates a new task handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers task routes.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	tasks := protected.Group("/tasks")
	{
		tasks.POST("", h.Create)
		tasks.GET("/mine", h.ListMine)
		tasks.GET("/:id", h.Get)
		tasks.PATCH("/:id", h.Update)
		tasks.PUT("/:id/assignees", h.Assign)
		tasks.DELETE("/:id", h.Delete)
	}

	protected.GET("/projects/:id/tasks", h.ListByProject)
}

// Create godoc
// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateRequest true "Task details"
// @Success 201 {object} Task
// @Router /tasks [post]
func (h *Handler) Create(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	task, err := h.service.Create(c.Request.Context(), &identity, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

// Get godoc
// @Summary Get a task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} Task
// @Router /tasks/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid task id"})
		return
	}

	task, err := h.service.Get(c.Request.Context(), &identity, taskID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// ListByProject godoc
// @Summary List a project's tasks
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param status query string false "Filter by status"
// @Success 200 {array} Task
// @Router /projects/{id}/tasks [get]
func (h *Handler) ListByProject(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid project id"})
		return
	}

	var status *Status
	if raw := c.Query("status"); raw != "" {
		s := Status(raw)
		status = &s
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	tasks, err := h.service.ListByProject(c.Request.Context(), &identity, projectID, status, limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, tasks)
}

// ListMine godoc
// @Summary List tasks assigned to the caller
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Success 200 {array} Task
// @Router /tasks/mine [get]
func (h *Handler) ListMine(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	tasks, err := h.service.ListMine(c.Request.Context(), &identity, limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, tasks)
}

// Update godoc
// @Summary Update a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param request body UpdateRequest true "Fields"
// @Success 200 {object} Task
// @Router /tasks/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid task id"})
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	task, err := h.service.Update(c.Request.Context(), &identity, taskID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// Assign godoc
// @Summary Replace a task's assignees
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param request body AssignRequest true "Assignees"
// @Success 200 {object} Task
// @Router /tasks/{id}/assignees [put]
func (h *Handler) Assign(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid task id"})
		return
	}

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	task, err := h.service.Assign(c.Request.Context(), &identity, taskID, req.Assignees)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// Delete godoc
// @Summary Delete a task
// @Tags tasks
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 204
// @Router /tasks/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid task id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), &identity, taskID); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrTaskNotFound),
		errors.Is(err, project.ErrProjectNotFound),
		errors.Is(err, sharederrors.ErrCrossTenant):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, sharederrors.ErrInsufficientPrivilege):
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient_privilege"})
	case errors.Is(err, ErrInvalidStatus):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid_status"})
	case errors.Is(err, ErrInvalidPriority):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid_priority"})
	case errors.Is(err, ErrNotAssignable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "assignee_not_in_project"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
