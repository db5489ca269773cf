package tracking

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/worklens/server/internal/module/user"
	sharederrors "github.com/worklens/server/internal/shared/errors"
)

// Handler handles HTTP requests for time tracking.
type Handler struct {
	entries *EntryService
	breaks  *BreakService
}

// NewHandler creates a new tracking handler.
func NewHandler(entries *EntryService, breaks *BreakService) *Handler {
	return &Handler{entries: entries, breaks: breaks}
}

// RegisterRoutes registers tracking routes.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	entries := protected.Group("/time-entries")
	{
		entries.POST("", h.Start)
		entries.GET("", h.List)
		entries.GET("/running", h.Running)
		entries.GET("/:id", h.Get)
		entries.PATCH("/:id", h.Edit)
		entries.DELETE("/:id", h.Delete)
		entries.POST("/:id/stop", h.Stop)

		entries.GET("/:id/breaks", h.ListBreaks)
		entries.POST("/:id/breaks", h.StartBreak)
	}

	breaks := protected.Group("/breaks")
	{
		breaks.POST("/:id/end", h.EndBreak)
		breaks.DELETE("/:id", h.DeleteBreak)
	}
}

// Start godoc
// @Summary Start a time entry
// @Tags tracking
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body StartRequest true "Entry details"
// @Success 201 {object} EntryResponse
// @Failure 409 {object} map[string]string
// @Router /time-entries [post]
func (h *Handler) Start(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.entries.Start(c.Request.Context(), &identity, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewEntryResponse(entry, time.Now()))
}

// Stop godoc
// @Summary Stop a running time entry
// @Tags tracking
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Success 200 {object} EntryResponse
// @Failure 409 {object} map[string]string
// @Router /time-entries/{id}/stop [post]
func (h *Handler) Stop(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	entryID, ok := h.entryID(c)
	if !ok {
		return
	}

	entry, err := h.entries.Stop(c.Request.Context(), &identity, entryID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewEntryResponse(entry, time.Now()))
}

// Running godoc
// @Summary Get the caller's running entry
// @Tags tracking
// @Produce json
// @Security BearerAuth
// @Success 200 {object} EntryResponse
// @Failure 404 {object} map[string]string
// @Router /time-entries/running [get]
func (h *Handler) Running(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	entry, err := h.entries.Running(c.Request.Context(), &identity)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewEntryResponse(entry, time.Now()))
}

// Get godoc
// @Summary Get a time entry
// @Tags tracking
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Success 200 {object} EntryResponse
// @Failure 404 {object} map[string]string
// @Router /time-entries/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	entryID, ok := h.entryID(c)
	if !ok {
		return
	}

	entry, err := h.entries.Get(c.Request.Context(), &identity, entryID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewEntryResponse(entry, time.Now()))
}

// List godoc
// @Summary List time entries visible to the caller
// @Tags tracking
// @Produce json
// @Security BearerAuth
// @Param project_id query string false "Filter by project"
// @Param user_id query string false "Filter by user"
// @Param from query string false "RFC 3339 lower bound on start time"
// @Param to query string false "RFC 3339 upper bound on start time"
// @Success 200 {array} EntryResponse
// @Router /time-entries [get]
func (h *Handler) List(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	filter, err := parseEntryFilter(c)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := h.entries.List(c.Request.Context(), &identity, filter, limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewEntryResponses(list, time.Now()))
}

// Edit godoc
// @Summary Edit a time entry
// @Tags tracking
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Param request body UpdateEntryRequest true "Fields"
// @Success 200 {object} EntryResponse
// @Router /time-entries/{id} [patch]
func (h *Handler) Edit(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	entryID, ok := h.entryID(c)
	if !ok {
		return
	}

	var req UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.entries.Edit(c.Request.Context(), &identity, entryID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewEntryResponse(entry, time.Now()))
}

// Delete godoc
// @Summary Delete a time entry
// @Tags tracking
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Success 204
// @Router /time-entries/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	entryID, ok := h.entryID(c)
	if !ok {
		return
	}

	if err := h.entries.Delete(c.Request.Context(), &identity, entryID); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListBreaks godoc
// @Summary List an entry's breaks
// @Tags tracking
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Success 200 {array} Break
// @Router /time-entries/{id}/breaks [get]
func (h *Handler) ListBreaks(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	entryID, ok := h.entryID(c)
	if !ok {
		return
	}

	breaks, err := h.entries.ListBreaks(c.Request.Context(), &identity, entryID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, breaks)
}

// StartBreak godoc
// @Summary Start a break on a running entry
// @Tags tracking
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Param request body StartBreakRequest true "Break details"
// @Success 201 {object} Break
// @Failure 409 {object} map[string]string
// @Router /time-entries/{id}/breaks [post]
func (h *Handler) StartBreak(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	entryID, ok := h.entryID(c)
	if !ok {
		return
	}

	var req StartBreakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	brk, err := h.breaks.StartBreak(c.Request.Context(), &identity, entryID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, brk)
}

// EndBreak godoc
// @Summary End an active break
// @Tags tracking
// @Produce json
// @Security BearerAuth
// @Param id path string true "Break ID"
// @Success 200 {object} Break
// @Failure 409 {object} map[string]string
// @Router /breaks/{id}/end [post]
func (h *Handler) EndBreak(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	breakID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid break id"})
		return
	}

	brk, err := h.breaks.EndBreak(c.Request.Context(), &identity, breakID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, brk)
}

// DeleteBreak godoc
// @Summary Delete a break
// @Tags tracking
// @Security BearerAuth
// @Param id path string true "Break ID"
// @Success 204
// @Router /breaks/{id} [delete]
func (h *Handler) DeleteBreak(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	breakID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid break id"})
		return
	}

	if err := h.breaks.DeleteBreak(c.Request.Context(), &identity, breakID); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) entryID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid entry id"})
		return uuid.Nil, false
	}
	return id, true
}

func parseEntryFilter(c *gin.Context) (EntryFilter, error) {
	var filter EntryFilter
	if v := c.Query("project_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, errors.New("invalid project_id")
		}
		filter.ProjectID = &id
	}
	if v := c.Query("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, errors.New("invalid user_id")
		}
		filter.UserID = &id
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errors.New("invalid from timestamp")
		}
		filter.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errors.New("invalid to timestamp")
		}
		filter.To = &t
	}
	return filter, nil
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEntryNotFound), errors.Is(err, sharederrors.ErrCrossTenant):
		c.JSON(http.StatusNotFound, gin.H{"error": "entry_not_found"})
	case errors.Is(err, ErrBreakNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "break_not_found"})
	case errors.Is(err, sharederrors.ErrInsufficientPrivilege):
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient_privilege"})
	case errors.Is(err, ErrEntryAlreadyRunning):
		c.JSON(http.StatusConflict, gin.H{"error": "entry_already_running"})
	case errors.Is(err, ErrBreakAlreadyActive):
		c.JSON(http.StatusConflict, gin.H{"error": "break_already_active"})
	case errors.Is(err, ErrEntryNotRunning):
		c.JSON(http.StatusConflict, gin.H{"error": "entry_not_running"})
	case errors.Is(err, ErrEntryOnBreak):
		c.JSON(http.StatusConflict, gin.H{"error": "entry_on_break"})
	case errors.Is(err, ErrBreakNotActive):
		c.JSON(http.StatusConflict, gin.H{"error": "break_not_active"})
	case errors.Is(err, ErrInvalidTimeRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_time_range"})
	case errors.Is(err, ErrInvalidBreakType):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_break_type"})
	case errors.Is(err, ErrProjectNotTrackable):
		c.JSON(http.StatusForbidden, gin.H{"error": "project_not_trackable"})
	case errors.Is(err, ErrTaskNotInProject):
		c.JSON(http.StatusBadRequest, gin.H{"error": "task_not_in_project"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
