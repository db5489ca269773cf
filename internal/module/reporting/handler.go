package reporting

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/worklens/server/internal/module/user"
	sharederrors "github.com/worklens/server/internal/shared/errors"
)

// Handler handles HTTP requests for reports.
type Handler struct {
	service *Service
}

// NewHandler creates a new reporting handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers reporting routes.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	reports := protected.Group("/reports")
	{
		reports.GET("/overview", h.Overview)
		reports.GET("/projects/:id", h.ProjectSummary)
		reports.GET("/users/:id", h.UserSummary)
	}
}

// Overview godoc
// @Summary Totals per accessible project over a range
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param from query string true "RFC 3339 range start"
// @Param to query string true "RFC 3339 range end"
// @Success 200 {object} Overview
// @Router /reports/overview [get]
func (h *Handler) Overview(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	from, to, ok := h.parseRange(c)
	if !ok {
		return
	}

	overview, err := h.service.Overview(c.Request.Context(), &identity, from, to)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}

// ProjectSummary godoc
// @Summary One project's totals over a range
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param from query string true "RFC 3339 range start"
// @Param to query string true "RFC 3339 range end"
// @Success 200 {object} ProjectSummary
// @Failure 404 {object} map[string]string
// @Router /reports/projects/{id} [get]
func (h *Handler) ProjectSummary(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid project id"})
		return
	}

	from, to, ok := h.parseRange(c)
	if !ok {
		return
	}

	summary, err := h.service.ProjectSummary(c.Request.Context(), &identity, projectID, from, to)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// UserSummary godoc
// @Summary One user's totals over a range
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param from query string true "RFC 3339 range start"
// @Param to query string true "RFC 3339 range end"
// @Success 200 {object} UserSummary
// @Failure 403 {object} map[string]string
// @Router /reports/users/{id} [get]
func (h *Handler) UserSummary(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid user id"})
		return
	}

	from, to, ok := h.parseRange(c)
	if !ok {
		return
	}

	summary, err := h.service.UserSummary(c.Request.Context(), &identity, userID, from, to)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *Handler) parseRange(c *gin.Context) (time.Time, time.Time, bool) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid from timestamp"})
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid to timestamp"})
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sharederrors.ErrNotFound), errors.Is(err, sharederrors.ErrCrossTenant):
		c.JSON(http.StatusNotFound, gin.H{"error": "project_not_found"})
	case errors.Is(err, sharederrors.ErrInsufficientPrivilege):
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient_privilege"})
	case errors.Is(err, ErrInvalidRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_range"})
	case errors.Is(err, ErrRangeTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"error": "range_too_large"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
