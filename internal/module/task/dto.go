package task

import (
	"time"

	"github.com/google/uuid"
)

// CreateRequest is the payload for creating a task.
type CreateRequest struct {
	ProjectID   uuid.UUID  `json:"project_id" binding:"required"`
	Title       string     `json:"title" binding:"required,min=1,max=200"`
	Description string     `json:"description" binding:"omitempty,max=2000"`
	Status      *Status    `json:"status"`
	Priority    *Priority  `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

// UpdateRequest is the payload for updating a task.
type UpdateRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	Status      *Status    `json:"status"`
	Priority    *Priority  `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

// AssignRequest replaces the assignee set.
type AssignRequest struct {
	Assignees []uuid.UUID `json:"assignees" binding:"required"`
}
