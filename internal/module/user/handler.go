package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/worklens/server/internal/shared/middleware"
)

// Handler handles HTTP requests for users.
type Handler struct {
	service *Service
}

// NewHandler creates a new user handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers user routes.
func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/auth/register", h.Register)
	public.POST("/auth/login", h.Login)

	users := protected.Group("/users")
	{
		users.GET("/me", h.Me)
		users.PATCH("/me", h.UpdateProfile)
		users.GET("", h.List)
		users.GET("/:id", h.Get)
		users.PUT("/:id/role", h.ChangeRole)
		users.DELETE("/:id", h.Deactivate)
	}
}

// Register godoc
// @Summary Register a new account
// @Description Creates a user with a fresh organization, or joins the inviting organization when an invitation token is supplied
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration details"
// @Success 201 {object} LoginResponse
// @Failure 409 {object} map[string]string
// @Router /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login godoc
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Me godoc
// @Summary Get the current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Router /users/me [get]
func (h *Handler) Me(c *gin.Context) {
	identity, ok := IdentityFromContext(c)
	if !ok {
		return
	}

	u, err := h.service.Get(c.Request.Context(), identity.OrganizationID, identity.UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, u.ToResponse())
}

// UpdateProfile godoc
// @Summary Update the current user's profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} UserResponse
// @Router /users/me [patch]
func (h *Handler) UpdateProfile(c *gin.Context) {
	identity, ok := IdentityFromContext(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	u, err := h.service.UpdateProfile(c.Request.Context(), identity.UserID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, u.ToResponse())
}

// List godoc
// @Summary List users in the caller's organization
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} UserResponse
// @Router /users [get]
func (h *Handler) List(c *gin.Context) {
	identity, ok := IdentityFromContext(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	users, err := h.service.List(c.Request.Context(), identity.OrganizationID, limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, u.ToResponse())
	}

	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Get a user by ID
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} UserResponse
// @Failure 404 {object} map[string]string
// @Router /users/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	identity, ok := IdentityFromContext(c)
	if !ok {
		return
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid user id"})
		return
	}

	u, err := h.service.Get(c.Request.Context(), identity.OrganizationID, targetID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, u.ToResponse())
}

// ChangeRole godoc
// @Summary Change a user's role
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body ChangeRoleRequest true "New role"
// @Success 200 {object} UserResponse
// @Failure 403 {object} map[string]string
// @Router /users/{id}/role [put]
func (h *Handler) ChangeRole(c *gin.Context) {
	identity, ok := IdentityFromContext(c)
	if !ok {
		return
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid user id"})
		return
	}

	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	u, err := h.service.ChangeRole(c.Request.Context(), &identity, targetID, req.Role)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, u.ToResponse())
}

// Deactivate godoc
// @Summary Deactivate a user
// @Tags users
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Router /users/{id} [delete]
func (h *Handler) Deactivate(c *gin.Context) {
	identity, ok := IdentityFromContext(c)
	if !ok {
		return
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), &identity, targetID); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// IdentityFromContext resolves the acting identity from the auth middleware
// values. Writes a 401 and returns ok=false if the context is unauthenticated.
func IdentityFromContext(c *gin.Context) (Identity, bool) {
	userID := middleware.GetUserID(c)
	orgID := middleware.GetOrgID(c)
	if userID == uuid.Nil || orgID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return Identity{}, false
	}
	return NewIdentity(userID, orgID, Role(middleware.GetRole(c))), true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
	case errors.Is(err, ErrEmailAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "email_already_exists"})
	case errors.Is(err, ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
	case errors.Is(err, ErrUserInactive):
		c.JSON(http.StatusForbidden, gin.H{"error": "user_inactive"})
	case errors.Is(err, ErrInvalidRole):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid_role"})
	case errors.Is(err, ErrCannotDemoteSelf):
		c.JSON(http.StatusConflict, gin.H{"error": "cannot_change_own_role"})
	case errors.Is(err, ErrInsufficientPrivilege):
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient_privilege"})
	case errors.Is(err, ErrNoOrganization):
		c.JSON(http.StatusConflict, gin.H{"error": "no_organization"})
	case errors.Is(err, ErrInvitationInvalid):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invitation_invalid"})
	case errors.Is(err, ErrInvitationExpired):
		c.JSON(http.StatusGone, gin.H{"error": "invitation_expired"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
