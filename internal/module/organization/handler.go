package organization

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/worklens/server/internal/module/user"
)

// Handler handles HTTP requests for organizations.
type Handler struct {
	service *Service
}

// NewHandler creates a new organization handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers organization routes.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	org := protected.Group("/organization")
	{
		org.GET("", h.Get)
		org.PATCH("", h.Update)
	}
}

// Get godoc
// @Summary Get the caller's organization
// @Tags organization
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Organization
// @Router /organization [get]
func (h *Handler) Get(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	org, err := h.service.Get(c.Request.Context(), identity.OrganizationID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, org)
}

// Update godoc
// @Summary Update organization settings
// @Tags organization
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateRequest true "Settings"
// @Success 200 {object} Organization
// @Failure 403 {object} map[string]string
// @Router /organization [patch]
func (h *Handler) Update(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	if !identity.Permissions.CanManageOrganization {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient_privilege"})
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	org, err := h.service.UpdateSettings(c.Request.Context(), identity.OrganizationID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, org)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrOrganizationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "organization_not_found"})
	case errors.Is(err, ErrInvalidSettings):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid_settings"})
	case errors.Is(err, ErrUserQuotaExceeded):
		c.JSON(http.StatusConflict, gin.H{"error": "user_quota_exceeded"})
	case errors.Is(err, ErrProjectQuotaExceeded):
		c.JSON(http.StatusConflict, gin.H{"error": "project_quota_exceeded"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
