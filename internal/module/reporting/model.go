package reporting

import (
	"time"

	"github.com/google/uuid"
)

// Totals aggregates tracked seconds over a range. Worked time is the
// tracked span minus break time; billable counts only billable entries.
type Totals struct {
	TrackedSeconds  int64 `json:"tracked_seconds"`
	BreakSeconds    int64 `json:"break_seconds"`
	WorkedSeconds   int64 `json:"worked_seconds"`
	BillableSeconds int64 `json:"billable_seconds"`
	EntryCount      int   `json:"entry_count"`
}

// DailyTotals is the per-day slice of a summary, keyed by the UTC date
// the entry started on.
type DailyTotals struct {
	Date   string `json:"date"`
	Totals Totals `json:"totals"`
}

// ProjectSummary is a single project's totals over a range, with an
// optional per-user split.
type ProjectSummary struct {
	ProjectID uuid.UUID            `json:"project_id"`
	From      time.Time            `json:"from"`
	To        time.Time            `json:"to"`
	Totals    Totals               `json:"totals"`
	ByUser    map[uuid.UUID]Totals `json:"by_user"`
	ByType    map[string]int64     `json:"break_seconds_by_type"`
	Daily     []DailyTotals        `json:"daily"`
}

// UserSummary is a single user's totals over a range, split by project.
type UserSummary struct {
	UserID    uuid.UUID            `json:"user_id"`
	From      time.Time            `json:"from"`
	To        time.Time            `json:"to"`
	Totals    Totals               `json:"totals"`
	ByProject map[uuid.UUID]Totals `json:"by_project"`
	Daily     []DailyTotals        `json:"daily"`
}

// Overview is the actor-wide report: totals per accessible project.
type Overview struct {
	From      time.Time            `json:"from"`
	To        time.Time            `json:"to"`
	Totals    Totals               `json:"totals"`
	ByProject map[uuid.UUID]Totals `json:"by_project"`
}
