package tracking

import (
	"time"

	"github.com/google/uuid"
)

// BreakType categorizes a break.
type BreakType string

const (
	BreakTypeShort   BreakType = "short"
	BreakTypeLunch   BreakType = "lunch"
	BreakTypeMeeting BreakType = "meeting"
	BreakTypeOther   BreakType = "other"
)

// IsValid reports whether the break type is known.
func (b BreakType) IsValid() bool {
	switch b {
	case BreakTypeShort, BreakTypeLunch, BreakTypeMeeting, BreakTypeOther:
		return true
	}
	return false
}

// Partial unique index names. The database enforces the one-running-entry
// and one-active-break invariants; violations are mapped to conflicts.
const (
	ConstraintOneRunningEntry = "idx_time_entries_one_running"
	ConstraintOneActiveBreak  = "idx_breaks_one_active"
)

// TimeEntry is a recorded span of work. IsRunning mirrors "EndTime is
// unset"; duration is always recomputed from the stored timestamps,
// never accumulated incrementally.
type TimeEntry struct {
	ID              uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID  uuid.UUID  `json:"organization_id" gorm:"type:uuid;not null;index"`
	UserID          uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_time_entries_one_running,where:is_running"`
	ProjectID       uuid.UUID  `json:"project_id" gorm:"type:uuid;not null;index"`
	TaskID          *uuid.UUID `json:"task_id,omitempty" gorm:"type:uuid;index"`
	Description     string     `json:"description,omitempty"`
	StartTime       time.Time  `json:"start_time" gorm:"not null;index"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationSeconds int64      `json:"duration_seconds"`
	IsRunning       bool       `json:"is_running" gorm:"not null;default:false"`
	IsOnBreak       bool       `json:"is_on_break" gorm:"not null;default:false"`
	TotalBreakSecs  int64      `json:"total_break_seconds" gorm:"column:total_break_seconds"`
	Billable        bool       `json:"billable" gorm:"not null;default:false"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName returns the database table name.
func (TimeEntry) TableName() string {
	return "time_entries"
}

// ElapsedSeconds returns the entry's duration: the stored value for
// finished entries, elapsed-so-far for running ones. Nothing ticks in
// the background; callers compute this at read time.
func (e *TimeEntry) ElapsedSeconds(now time.Time) int64 {
	if !e.IsRunning {
		return e.DurationSeconds
	}
	return durationSeconds(e.StartTime, now)
}

// Break is a pause within a running entry. Project is copied from the
// owning entry so break reports never need a join.
type Break struct {
	ID              uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID  uuid.UUID  `json:"organization_id" gorm:"type:uuid;not null;index"`
	UserID          uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_breaks_one_active,where:active"`
	TimeEntryID     uuid.UUID  `json:"time_entry_id" gorm:"type:uuid;not null;index"`
	ProjectID       uuid.UUID  `json:"project_id" gorm:"type:uuid;not null"`
	Type            BreakType  `json:"type" gorm:"not null;default:short"`
	StartTime       time.Time  `json:"start_time" gorm:"not null"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationSeconds int64      `json:"duration_seconds"`
	Active          bool       `json:"active" gorm:"not null;default:false"`
	Paid            bool       `json:"paid" gorm:"not null;default:true"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName returns the database table name.
func (Break) TableName() string {
	return "breaks"
}

// durationSeconds computes whole seconds between two instants, floored,
// via the millisecond timestamps the API exchanges.
func durationSeconds(start, end time.Time) int64 {
	ms := end.UnixMilli() - start.UnixMilli()
	if ms < 0 {
		return 0
	}
	return ms / 1000
}
