package team

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/worklens/server/internal/module/organization"
	"github.com/worklens/server/internal/module/user"
	"github.com/worklens/server/internal/shared/middleware"
)

// Handler handles HTTP requests for teams.
type Handler struct {
	service *Service
}

// NewHandler creates a new team handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers team routes.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	teams := protected.Group("/teams")
	{
		teams.POST("", h.Create)
		teams.GET("", h.List)
		teams.GET("/:id", h.Get)
		teams.PATCH("/:id", h.Update)
		teams.DELETE("/:id", h.Delete)

		teams.GET("/:id/members", h.ListMembers)
		teams.PUT("/:id/members/:userId/role", h.UpdateMemberRole)
		teams.DELETE("/:id/members/:userId", h.RemoveMember)
		teams.POST("/:id/leave", h.Leave)

		teams.POST("/:id/invitations", h.Invite)
		teams.GET("/:id/invitations", h.ListInvitations)
	}

	invitations := protected.Group("/invitations")
	{
		invitations.GET("", h.ListMyInvitations)
		invitations.POST("/accept", h.Accept)
		invitations.POST("/decline", h.Decline)
		invitations.DELETE("/:id", h.Revoke)
	}
}

// Create godoc
// @Summary Create a team
// @Tags teams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTeamRequest true "Team details"
// @Success 201 {object} Team
// @Failure 403 {object} map[string]string
// @Router /teams [post]
func (h *Handler) Create(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	team, err := h.service.Create(c.Request.Context(), &identity, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, team)
}

// List godoc
// @Summary List teams visible to the caller
// @Tags teams
// @Produce json
// @Security BearerAuth
// @Success 200 {array} Team
// @Router /teams [get]
func (h *Handler) List(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	teams, err := h.service.List(c.Request.Context(), &identity, limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, teams)
}

// Get godoc
// @Summary Get a team
// @Tags teams
// @Produce json
// @Security BearerAuth
// @Param id path string true "Team ID"
// @Success 200 {object} Team
// @Failure 404 {object} map[string]string
// @Router /teams/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid team id"})
		return
	}

	team, err := h.service.Get(c.Request.Context(), &identity, teamID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, team)
}

// Update godoc
// @Summary Update a team
// @Tags teams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Team ID"
// @Param request body UpdateTeamRequest true "Fields"
// @Success 200 {object} Team
// @Router /teams/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid team id"})
		return
	}

	var req UpdateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	team, err := h.service.Update(c.Request.Context(), &identity, teamID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, team)
}

// Delete godoc
// @Summary Delete a team
// @Tags teams
// @Security BearerAuth
// @Param id path string true "Team ID"
// @Success 204
// @Router /teams/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid team id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), &identity, teamID); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListMembers godoc
// @Summary List team members
// @Tags teams
// @Produce json
// @Security BearerAuth
// @Param id path string true "Team ID"
// @Success 200 {array} Member
// @Router /teams/{id}/members [get]
func (h *Handler) ListMembers(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid team id"})
		return
	}

	members, err := h.service.ListMembers(c.Request.Context(), &identity, teamID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, members)
}

// UpdateMemberRole godoc
// @Summary Change a team member's role
// @Tags teams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Team ID"
// @Param userId path string true "User ID"
// @Param request body UpdateMemberRoleRequest true "New role"
// @Success 200 {object} Member
// @Failure 409 {object} map[string]string
// @Router /teams/{id}/members/{userId}/role [put]
func (h *Handler) UpdateMemberRole(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid team id"})
		return
	}

	targetID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid user id"})
		return
	}

	var req UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	member, err := h.service.UpdateMemberRole(c.Request.Context(), &identity, teamID, targetID, req.Role)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, member)
}

// RemoveMember godoc
// @Summary Remove a team member
// @Tags teams
// @Security BearerAuth
// @Param id path string true "Team ID"
// @Param userId path string true "User ID"
// @Success 204
// @Failure 409 {object} map[string]string
// @Router /teams/{id}/members/{userId} [delete]
func (h *Handler) RemoveMember(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid team id"})
		return
	}

	targetID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.service.RemoveMember(c.Request.Context(), &identity, teamID, targetID); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Leave godoc
// @Summary Leave a team
// @Tags teams
// @Security BearerAuth
// @Param id path string true "Team ID"
// @Success 204
// @Router /teams/{id}/leave [post]
func (h *Handler) Leave(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid team id"})
		return
	}

	if err := h.service.Leave(c.Request.Context(), &identity, teamID); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Invite godoc
// @Summary Invite a user to a team
// @Tags teams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Team ID"
// @Param request body InviteRequest true "Invitation"
// @Success 201 {object} Invitation
// @Failure 429 {object} map[string]string
// @Router /teams/{id}/invitations [post]
func (h *Handler) Invite(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid team id"})
		return
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	inv, err := h.service.Invite(c.Request.Context(), &identity, teamID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, inv)
}

// ListInvitations godoc
// @Summary List a team's invitations
// @Tags teams
// @Produce json
// @Security BearerAuth
// @Param id path string true "Team ID"
// @Param status query string false "Filter by status"
// @Success 200 {array} Invitation
// @Router /teams/{id}/invitations [get]
func (h *Handler) ListInvitations(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid team id"})
		return
	}

	var status *InvitationStatus
	if raw := c.Query("status"); raw != "" {
		s := InvitationStatus(raw)
		status = &s
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	invs, err := h.service.ListInvitations(c.Request.Context(), &identity, teamID, status, limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, invs)
}

// ListMyInvitations godoc
// @Summary List pending invitations addressed to the caller
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Success 200 {array} Invitation
// @Router /invitations [get]
func (h *Handler) ListMyInvitations(c *gin.Context) {
	email := middleware.GetEmail(c)
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	invs, err := h.service.ListMyInvitations(c.Request.Context(), email, limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, invs)
}

// Accept godoc
// @Summary Accept an invitation
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AcceptRequest true "Token"
// @Success 200 {object} Team
// @Failure 409 {object} map[string]string
// @Router /invitations/accept [post]
func (h *Handler) Accept(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}
	email := middleware.GetEmail(c)

	var req AcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	team, err := h.service.Accept(c.Request.Context(), &identity, email, req.Token)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, team)
}

// Decline godoc
// @Summary Decline an invitation
// @Tags invitations
// @Accept json
// @Security BearerAuth
// @Param request body AcceptRequest true "Token"
// @Success 204
// @Router /invitations/decline [post]
func (h *Handler) Decline(c *gin.Context) {
	email := middleware.GetEmail(c)
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req AcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Decline(c.Request.Context(), email, req.Token); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Revoke godoc
// @Summary Revoke a pending invitation
// @Tags invitations
// @Security BearerAuth
// @Param id path string true "Invitation ID"
// @Success 204
// @Router /invitations/{id} [delete]
func (h *Handler) Revoke(c *gin.Context) {
	identity, ok := user.IdentityFromContext(c)
	if !ok {
		return
	}

	invID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid invitation id"})
		return
	}

	if err := h.service.Revoke(c.Request.Context(), &identity, invID); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrTeamNotFound), errors.Is(err, ErrInvitationNotFound), errors.Is(err, ErrMemberNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, ErrInsufficientPermission):
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient_permission"})
	case errors.Is(err, ErrAlreadyMember):
		c.JSON(http.StatusConflict, gin.H{"error": "already_member"})
	case errors.Is(err, ErrCannotRemoveOwner):
		c.JSON(http.StatusConflict, gin.H{"error": "cannot_remove_owner"})
	case errors.Is(err, ErrCannotChangeOwnerRole):
		c.JSON(http.StatusConflict, gin.H{"error": "cannot_change_owner_role"})
	case errors.Is(err, ErrInvitationAlreadyPending):
		c.JSON(http.StatusConflict, gin.H{"error": "invitation_already_pending"})
	case errors.Is(err, ErrInvitationAlreadyProcessed):
		c.JSON(http.StatusConflict, gin.H{"error": "invitation_already_processed"})
	case errors.Is(err, ErrInvitationExpired):
		c.JSON(http.StatusGone, gin.H{"error": "invitation_expired"})
	case errors.Is(err, ErrInvitationNotForYou):
		c.JSON(http.StatusForbidden, gin.H{"error": "invitation_not_for_you"})
	case errors.Is(err, ErrInvalidRole):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid_role"})
	case errors.Is(err, ErrInviteRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate_limited"})
	case errors.Is(err, organization.ErrUserQuotaExceeded):
		c.JSON(http.StatusConflict, gin.H{"error": "user_quota_exceeded"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
