package task

import "errors"

// Task module errors.
var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrInvalidStatus   = errors.New("invalid task status")
	ErrInvalidPriority = errors.New("invalid task priority")
	ErrNotAssignable   = errors.New("assignee is not a member of the project")
)
