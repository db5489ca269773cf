package task

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Status represents a task's workflow state.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusOnHold     Status = "on-hold"
)

// IsValid reports whether the status is one of the known states.
func (s Status) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted, StatusOnHold:
		return true
	}
	return false
}

// Priority represents a task's priority.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// IsValid reports whether the priority is one of the known levels.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Task is a unit of work inside a project. The task always belongs to
// the same organization as its project.
type Task struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID      `json:"organization_id" gorm:"type:uuid;not null;index"`
	ProjectID      uuid.UUID      `json:"project_id" gorm:"type:uuid;not null;index"`
	CreatedBy      uuid.UUID      `json:"created_by" gorm:"type:uuid;not null"`
	Title          string         `json:"title" gorm:"not null"`
	Description    string         `json:"description,omitempty"`
	Status         Status         `json:"status" gorm:"not null;default:todo"`
	Priority       Priority       `json:"priority" gorm:"not null;default:medium"`
	Assignees      pq.StringArray `json:"assignees" gorm:"type:text[]"`
	DueDate        *time.Time     `json:"due_date,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// TableName returns the database table name.
func (Task) TableName() string {
	return "tasks"
}

// IsAssigned reports whether the user is among the task's assignees.
func (t *Task) IsAssigned(userID uuid.UUID) bool {
	id := userID.String()
	for _, a := range t.Assignees {
		if a == id {
			return true
		}
	}
	return false
}
