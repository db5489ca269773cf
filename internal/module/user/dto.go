package user

import (
	"time"

	"github.com/google/uuid"
)

// RegisterRequest is the payload for user registration. Without a
// token the account gets a fresh organization named OrganizationName;
// with one it joins the organization behind the invitation instead.
type RegisterRequest struct {
	Email            string `json:"email" binding:"required,email"`
	Name             string `json:"name" binding:"required,min=1,max=100"`
	Password         string `json:"password" binding:"required,min=8,max=72"`
	OrganizationName string `json:"organization_name" binding:"required_without=InvitationToken,omitempty,min=1,max=100"`
	InvitationToken  string `json:"invitation_token" binding:"omitempty,min=16"`
}

// LoginRequest is the payload for login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest is the payload for profile updates.
type UpdateProfileRequest struct {
	Name *string `json:"name" binding:"omitempty,min=1,max=100"`
}

// ChangeRoleRequest is the payload for role changes.
type ChangeRoleRequest struct {
	Role Role `json:"role" binding:"required"`
}

// UserResponse is the API representation of a user.
type UserResponse struct {
	ID             uuid.UUID     `json:"id"`
	OrganizationID *uuid.UUID    `json:"organization_id,omitempty"`
	Email          string        `json:"email"`
	Name           string        `json:"name"`
	Role           Role          `json:"role"`
	Permissions    PermissionSet `json:"permissions"`
	Active         bool          `json:"active"`
	CreatedAt      time.Time     `json:"created_at"`
}

// LoginResponse carries the issued token alongside the user.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

// ToResponse converts a User to its API representation.
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:             u.ID,
		OrganizationID: u.OrganizationID,
		Email:          u.Email,
		Name:           u.Name,
		Role:           u.Role,
		Permissions:    u.Permissions(),
		Active:         u.Active,
		CreatedAt:      u.CreatedAt,
	}
}
