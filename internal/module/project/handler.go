package project

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/worklens/server/internal/module/organization"
	"github.com/worklens/server/internal/module/user"
	sharederrors "github.com/worklens/server/internal/shared/errors"
)

// Handler handles HTTP requests for projects.
type Handler struct {
	service *Service
}

// NewHandler creates a new project handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers project routes.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	projects := protected.Group("/projects")
	{
		projects.POST("", h.Create)
		projects.GET("", h.List)
		projects.GET("/:id", h.Get)
		projects.PATCH("/:id", h.Update)
		projects.DELETE("/:id", h.Delete)
		projects.POST("/:id/archive", h.Archive)
		projects.POST("/:id/restore", h.Restore)
		projects.PUT("/:id/team", h.TransferTeam)

		projects.GET("/:id/members", h.ListMembers)
		projects.POST("/:id/members", h.AddMember)
		projects.DELETE("/:id/members/:userId", h.RemoveMember)
	}
}

// Create godoc
// @Summary Create a project
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateRequest true "Project details"
// @Success 201 {object} Project
// @Failure 403 {object} map[string]string
// @Router /projects [post]
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

	project, err := h.service.Create(c.Request.Context(), &identity, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, project)
}

// List godoc
// @Summary List projects visible to the caller
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param include_archived query bool false "Include archived projects"
// @Success 200 {array} Project
// @Router /projects [get]
func (h *Handler) List(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	includeArchived := c.Query("include_archived") == "true"
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	projects, err := h.service.List(c.Request.Context(), &identity, includeArchived, limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, projects)
}

// Get godoc
// @Summary Get a project
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} Project
// @Failure 404 {object} map[string]string
// @Router /projects/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid project id"})
		return
	}

	project, err := h.service.Get(c.Request.Context(), &identity, projectID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// Update godoc
// @Summary Update a project
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param request body UpdateRequest true "Fields"
// @Success 200 {object} Project
// @Router /projects/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid project id"})
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	project, err := h.service.Update(c.Request.Context(), &identity, projectID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// Delete godoc
// @Summary Delete a project
// @Tags projects
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 204
// @Router /projects/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid project id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), &identity, projectID); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Archive godoc
// @Summary Archive a project
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} Project
// @Router /projects/{id}/archive [post]
func (h *Handler) Archive(c *gin.Context) {
	h.setActive(c, false)
}

// Restore godoc
// @Summary Restore an archived project
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} Project
// @Router /projects/{id}/restore [post]
func (h *Handler) Restore(c *gin.Context) {
	h.setActive(c, true)
}

func (h *Handler) setActive(c *gin.Context, active bool) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid project id"})
		return
	}

	var project *Project
	if active {
		project, err = h.service.Restore(c.Request.Context(), &identity, projectID)
	} else {
		project, err = h.service.Archive(c.Request.Context(), &identity, projectID)
	}
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// TransferTeam godoc
// @Summary Change a project's originating team
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param request body TransferTeamRequest true "Team"
// @Success 200 {object} Project
// @Router /projects/{id}/team [put]
func (h *Handler) TransferTeam(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid project id"})
		return
	}

	var req TransferTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	project, err := h.service.TransferTeam(c.Request.Context(), &identity, projectID, req.TeamID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// ListMembers godoc
// @Summary List project members
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {array} Member
// @Router /projects/{id}/members [get]
func (h *Handler) ListMembers(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid project id"})
		return
	}

	members, err := h.service.ListMembers(c.Request.Context(), &identity, projectID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, members)
}

// AddMember godoc
// @Summary Add a project member
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param request body AddMemberRequest true "User"
// @Success 201 {object} Member
// @Failure 409 {object} map[string]string
// @Router /projects/{id}/members [post]
func (h *Handler) AddMember(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid project id"})
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	member, err := h.service.AddMember(c.Request.Context(), &identity, projectID, req.UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, member)
}

// RemoveMember godoc
// @Summary Remove a project member
// @Tags projects
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param userId path string true "User ID"
// @Success 204
// @Failure 409 {object} map[string]string
// @Router /projects/{id}/members/{userId} [delete]
func (h *Handler) RemoveMember(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid project id"})
		return
	}

	targetID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.service.RemoveMember(c.Request.Context(), &identity, projectID, targetID); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	// Cross-tenant access is deliberately indistinguishable from a
	// missing project.
	case errors.Is(err, ErrProjectNotFound), errors.Is(err, sharederrors.ErrCrossTenant):
		c.JSON(http.StatusNotFound, gin.H{"error": "project_not_found"})
	case errors.Is(err, ErrMemberNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "member_not_found"})
	case errors.Is(err, sharederrors.ErrInsufficientPrivilege):
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient_privilege"})
	case errors.Is(err, ErrAlreadyMember):
		c.JSON(http.StatusConflict, gin.H{"error": "already_member"})
	case errors.Is(err, ErrCannotRemoveOwner):
		c.JSON(http.StatusConflict, gin.H{"error": "cannot_remove_owner"})
	case errors.Is(err, ErrProjectArchived):
		c.JSON(http.StatusConflict, gin.H{"error": "project_archived"})
	case errors.Is(err, ErrNoTeamMembership):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no_team_membership"})
	case errors.Is(err, ErrTeamNotInOrg):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "team_not_in_organization"})
	case errors.Is(err, organization.ErrProjectQuotaExceeded):
		c.JSON(http.StatusConflict, gin.H{"error": "project_quota_exceeded"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
