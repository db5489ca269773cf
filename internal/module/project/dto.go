package project

import "github.com/google/uuid"

// CreateRequest is the payload for creating a project.
type CreateRequest struct {
	Name        string     `json:"name" binding:"required,min=1,max=100"`
	Description string     `json:"description" binding:"omitempty,max=500"`
	Color       string     `json:"color" binding:"omitempty,hexcolor"`
	TeamID      *uuid.UUID `json:"team_id"`
}

// UpdateRequest is the payload for updating a project.
type UpdateRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	Color       *string `json:"color" binding:"omitempty,hexcolor"`
}

// TransferTeamRequest changes the originating team. A null team detaches
// the project.
type TransferTeamRequest struct {
	TeamID *uuid.UUID `json:"team_id"`
}

// AddMemberRequest is the payload for adding a project member.
type AddMemberRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}
