package reporting

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/worklens/server/internal/module/authz"
	"github.com/worklens/server/internal/module/tracking"
	"github.com/worklens/server/internal/module/user"
	sharederrors "github.com/worklens/server/internal/shared/errors"
)

const maxRange = 366 * 24 * time.Hour

// TimeSource supplies the date-ranged entry and break rows a report
// aggregates. The tracking repository implements it.
type TimeSource interface {
	ListEntriesForRange(ctx context.Context, orgID uuid.UUID, projectIDs []uuid.UUID, userID *uuid.UUID, from, to time.Time) ([]*tracking.TimeEntry, error)
	ListBreaksForRange(ctx context.Context, orgID uuid.UUID, projectIDs []uuid.UUID, userID *uuid.UUID, from, to time.Time) ([]*tracking.Break, error)
}

// Service aggregates tracked time into reports. It holds no tables of
// its own; visibility comes from the resolver and rows from the
// tracking store. Running entries contribute their elapsed-so-far
// seconds at read time.
type Service struct {
	source   TimeSource
	resolver *authz.Resolver
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a new reporting service.
func NewService(source TimeSource, resolver *authz.Resolver, logger *zap.Logger) *Service {
	return &Service{
		source:   source,
		resolver: resolver,
		logger:   logger,
		now:      time.Now,
	}
}

// ProjectSummary reports one project's totals over [from, to). The
// project must be in the actor's accessible set; a project the actor
// cannot see reports as missing, never as forbidden.
func (s *Service) ProjectSummary(ctx context.Context, actor *user.Identity, projectID uuid.UUID, from, to time.Time) (*ProjectSummary, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}

	ok, err := s.resolver.CanAccessProject(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, sharederrors.ErrNotFound
	}

	scope := []uuid.UUID{projectID}
	entries, err := s.source.ListEntriesForRange(ctx, actor.OrganizationID, scope, nil, from, to)
	if err != nil {
		return nil, err
	}
	breaks, err := s.source.ListBreaksForRange(ctx, actor.OrganizationID, scope, nil, from, to)
	if err != nil {
		return nil, err
	}

	now := s.now()
	summary := &ProjectSummary{
		ProjectID: projectID,
		From:      from,
		To:        to,
		ByUser:    make(map[uuid.UUID]Totals),
		ByType:    make(map[string]int64),
	}
	daily := make(map[string]*Totals)
	for _, e := range entries {
		summary.Totals = accumulate(summary.Totals, e, now)
		summary.ByUser[e.UserID] = accumulate(summary.ByUser[e.UserID], e, now)
		addDaily(daily, e, now)
	}
	for _, b := range breaks {
		if !b.Active {
			summary.ByType[string(b.Type)] += b.DurationSeconds
		}
	}
	summary.Daily = sortDaily(daily)

	return summary, nil
}

// UserSummary reports one user's totals over [from, to), confined to
// the projects the actor may see. Reporting on anyone but yourself
// requires blanket report visibility.
func (s *Service) UserSummary(ctx context.Context, actor *user.Identity, userID uuid.UUID, from, to time.Time) (*UserSummary, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	if userID != actor.UserID && !actor.Permissions.CanViewAllReports {
		return nil, sharederrors.ErrInsufficientPrivilege
	}

	scope, err := s.resolver.AccessibleProjects(ctx, actor)
	if err != nil {
		return nil, err
	}
	if len(scope) == 0 {
		return &UserSummary{UserID: userID, From: from, To: to, ByProject: map[uuid.UUID]Totals{}}, nil
	}

	entries, err := s.source.ListEntriesForRange(ctx, actor.OrganizationID, scope, &userID, from, to)
	if err != nil {
		return nil, err
	}

	now := s.now()
	summary := &UserSummary{
		UserID:    userID,
		From:      from,
		To:        to,
		ByProject: make(map[uuid.UUID]Totals),
	}
	daily := make(map[string]*Totals)
	for _, e := range entries {
		summary.Totals = accumulate(summary.Totals, e, now)
		summary.ByProject[e.ProjectID] = accumulate(summary.ByProject[e.ProjectID], e, now)
		addDaily(daily, e, now)
	}
	summary.Daily = sortDaily(daily)

	return summary, nil
}

// Overview reports totals per accessible project for the actor's whole
// visible slice of the organization.
func (s *Service) Overview(ctx context.Context, actor *user.Identity, from, to time.Time) (*Overview, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}

	scope, err := s.resolver.AccessibleProjects(ctx, actor)
	if err != nil {
		return nil, err
	}
	overview := &Overview{From: from, To: to, ByProject: make(map[uuid.UUID]Totals)}
	if len(scope) == 0 {
		return overview, nil
	}

	entries, err := s.source.ListEntriesForRange(ctx, actor.OrganizationID, scope, nil, from, to)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for _, e := range entries {
		overview.Totals = accumulate(overview.Totals, e, now)
		overview.ByProject[e.ProjectID] = accumulate(overview.ByProject[e.ProjectID], e, now)
	}

	return overview, nil
}

func validateRange(from, to time.Time) error {
	if !to.After(from) {
		return ErrInvalidRange
	}
	if to.Sub(from) > maxRange {
		return ErrRangeTooLarge
	}
	return nil
}

// accumulate folds one entry into a totals bucket. Worked time never
// goes negative even if breaks outgrew the span through edits.
func accumulate(t Totals, e *tracking.TimeEntry, now time.Time) Totals {
	tracked := e.ElapsedSeconds(now)
	worked := tracked - e.TotalBreakSecs
	if worked < 0 {
		worked = 0
	}

	t.TrackedSeconds += tracked
	t.BreakSeconds += e.TotalBreakSecs
	t.WorkedSeconds += worked
	if e.Billable {
		t.BillableSeconds += worked
	}
	t.EntryCount++
	return t
}

func addDaily(daily map[string]*Totals, e *tracking.TimeEntry, now time.Time) {
	day := e.StartTime.UTC().Format("2006-01-02")
	bucket, ok := daily[day]
	if !ok {
		bucket = &Totals{}
		daily[day] = bucket
	}
	*bucket = accumulate(*bucket, e, now)
}

func sortDaily(daily map[string]*Totals) []DailyTotals {
	out := make([]DailyTotals, 0, len(daily))
	for day, totals := range daily {
		out = append(out, DailyTotals{Date: day, Totals: *totals})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
