package team

import "github.com/worklens/server/internal/module/user"

// CreateTeamRequest is the payload for creating a team.
type CreateTeamRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"omitempty,max=500"`
}

// UpdateTeamRequest is the payload for updating a team.
type UpdateTeamRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
}

// UpdateMemberRoleRequest is the payload for changing a member's role.
type UpdateMemberRoleRequest struct {
	Role user.Role `json:"role" binding:"required"`
}

// InviteRequest is the payload for sending an invitation.
type InviteRequest struct {
	Email string    `json:"email" binding:"required,email"`
	Role  user.Role `json:"role" binding:"required"`
}

// AcceptRequest carries the invitation token.
type AcceptRequest struct {
	Token string `json:"token" binding:"required"`
}
