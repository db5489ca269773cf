package tracking

import (
	"time"

	"github.com/google/uuid"
)

// StartRequest opens a running entry. The server picks the start time.
type StartRequest struct {
	ProjectID   uuid.UUID  `json:"project_id" binding:"required"`
	TaskID      *uuid.UUID `json:"task_id,omitempty"`
	Description string     `json:"description,omitempty" binding:"max=500"`
	Billable    bool       `json:"billable"`
}

// UpdateEntryRequest edits an entry. Supplying an end time stops a
// running entry; there is no way to restart one.
type UpdateEntryRequest struct {
	Description *string    `json:"description,omitempty" binding:"omitempty,max=500"`
	Billable    *bool      `json:"billable,omitempty"`
	TaskID      *uuid.UUID `json:"task_id,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
}

// StartBreakRequest opens a break on a running entry.
type StartBreakRequest struct {
	Type BreakType `json:"type,omitempty"`
	Paid *bool     `json:"paid,omitempty"`
}

// EntryResponse decorates an entry with its read-time elapsed duration.
type EntryResponse struct {
	*TimeEntry
	ElapsedSeconds int64 `json:"elapsed_seconds"`
}

// NewEntryResponse computes the elapsed duration at response time.
// Running entries never tick in storage; this is the only place a
// client-visible "current" duration is produced.
func NewEntryResponse(entry *TimeEntry, now time.Time) *EntryResponse {
	return &EntryResponse{
		TimeEntry:      entry,
		ElapsedSeconds: entry.ElapsedSeconds(now),
	}
}

// NewEntryResponses maps a list of entries at a single instant.
func NewEntryResponses(entries []*TimeEntry, now time.Time) []*EntryResponse {
	out := make([]*EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, NewEntryResponse(e, now))
	}
	return out
}
