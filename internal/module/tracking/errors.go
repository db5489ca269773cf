package tracking

import "errors"

// Tracking module errors. The exclusivity conflicts are user-correctable:
// the server never silently stops or coerces an existing entry or break.
var (
	ErrEntryNotFound       = errors.New("time entry not found")
	ErrEntryAlreadyRunning = errors.New("user already has a running entry")
	ErrEntryNotRunning     = errors.New("time entry is not running")
	ErrEntryOnBreak        = errors.New("time entry has an active break")
	ErrBreakNotFound       = errors.New("break not found")
	ErrBreakAlreadyActive  = errors.New("user already has an active break")
	ErrBreakNotActive      = errors.New("break is not active")
	ErrInvalidTimeRange    = errors.New("end time must be after start time")
	ErrInvalidBreakType    = errors.New("invalid break type")
	ErrProjectNotTrackable = errors.New("project is not accessible for tracking")
	ErrTaskNotInProject    = errors.New("task does not belong to the project")
)
