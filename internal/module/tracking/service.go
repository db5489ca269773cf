package tracking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/worklens/server/internal/module/authz"
	"github.com/worklens/server/internal/module/user"
	sharederrors "github.com/worklens/server/internal/shared/errors"
	"github.com/worklens/server/internal/shared/metrics"
)

// TaskDirectory resolves which project a task belongs to, so entries
// started against a task cannot point it at a foreign project.
type TaskDirectory interface {
	ProjectIDForTask(ctx context.Context, taskID uuid.UUID) (uuid.UUID, error)
}

// EntryService manages the time entry lifecycle.
type EntryService struct {
	repo     Repository
	resolver *authz.Resolver
	tasks    TaskDirectory
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewEntryService creates a new time entry service.
func NewEntryService(repo Repository, resolver *authz.Resolver, tasks TaskDirectory, m *metrics.Metrics, logger *zap.Logger) *EntryService {
	return &EntryService{
		repo:     repo,
		resolver: resolver,
		tasks:    tasks,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Start begins a running entry for the actor. The one-running-entry
// invariant is enforced by the storage layer, not by a prior read.
func (s *EntryService) Start(ctx context.Context, actor *user.Identity, req *StartRequest) (*TimeEntry, error) {
	if !actor.Permissions.CanTrackTime {
		return nil, sharederrors.ErrInsufficientPrivilege
	}

	ok, err := s.resolver.CanAccessProject(ctx, actor, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrProjectNotTrackable
	}

	if req.TaskID != nil {
		projectID, err := s.tasks.ProjectIDForTask(ctx, *req.TaskID)
		if err != nil {
			return nil, err
		}
		if projectID != req.ProjectID {
			return nil, ErrTaskNotInProject
		}
	}

	entry := &TimeEntry{
		OrganizationID: actor.OrganizationID,
		UserID:         actor.UserID,
		ProjectID:      req.ProjectID,
		TaskID:         req.TaskID,
		Description:    req.Description,
		StartTime:      s.now(),
		IsRunning:      true,
		Billable:       req.Billable,
	}

	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		if errors.Is(err, ErrEntryAlreadyRunning) {
			s.countConflict("running_entry")
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.EntriesStartedTotal.WithLabelValues(actor.OrganizationID.String()).Inc()
	}
	s.logger.Info("time entry started",
		zap.String("entry_id", entry.ID.String()),
		zap.String("project_id", entry.ProjectID.String()),
	)

	return entry, nil
}

// Stop finishes the actor's running entry. An entry on break cannot be
// stopped; the break must be ended first.
func (s *EntryService) Stop(ctx context.Context, actor *user.Identity, entryID uuid.UUID) (*TimeEntry, error) {
	entry, err := s.ownedEntry(ctx, actor, entryID)
	if err != nil {
		return nil, err
	}
	if !entry.IsRunning {
		return nil, ErrEntryNotRunning
	}
	if entry.IsOnBreak {
		return nil, ErrEntryOnBreak
	}

	end := s.now()
	entry.EndTime = &end
	entry.DurationSeconds = durationSeconds(entry.StartTime, end)
	entry.IsRunning = false

	if err := s.repo.UpdateEntry(ctx, entry); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.EntriesStoppedTotal.WithLabelValues(actor.OrganizationID.String()).Inc()
	}

	return entry, nil
}

// Edit updates an entry's fields. Setting an end time on a running
// entry stops it; editing a stopped entry never restarts it.
func (s *EntryService) Edit(ctx context.Context, actor *user.Identity, entryID uuid.UUID, req *UpdateEntryRequest) (*TimeEntry, error) {
	if !actor.Permissions.CanEditOwnTimeEntries {
		return nil, sharederrors.ErrInsufficientPrivilege
	}

	entry, err := s.ownedEntry(ctx, actor, entryID)
	if err != nil {
		return nil, err
	}

	if req.Description != nil {
		entry.Description = *req.Description
	}
	if req.Billable != nil {
		entry.Billable = *req.Billable
	}
	if req.TaskID != nil {
		projectID, err := s.tasks.ProjectIDForTask(ctx, *req.TaskID)
		if err != nil {
			return nil, err
		}
		if projectID != entry.ProjectID {
			return nil, ErrTaskNotInProject
		}
		entry.TaskID = req.TaskID
	}
	if req.StartTime != nil {
		entry.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		if entry.IsOnBreak {
			return nil, ErrEntryOnBreak
		}
		entry.EndTime = req.EndTime
	}

	if entry.EndTime != nil {
		if !entry.EndTime.After(entry.StartTime) {
			return nil, ErrInvalidTimeRange
		}
		entry.DurationSeconds = durationSeconds(entry.StartTime, *entry.EndTime)
		entry.IsRunning = false
	}

	if err := s.repo.UpdateEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Delete removes an entry in any state, along with its breaks.
func (s *EntryService) Delete(ctx context.Context, actor *user.Identity, entryID uuid.UUID) error {
	entry, err := s.ownedEntry(ctx, actor, entryID)
	if err != nil {
		return err
	}

	err = s.repo.Transaction(ctx, func(txRepo Repository) error {
		if err := txRepo.DeleteBreaksByEntry(ctx, entry.ID); err != nil {
			return err
		}
		return txRepo.DeleteEntry(ctx, entry.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("time entry deleted", zap.String("entry_id", entry.ID.String()))
	return nil
}

// Get retrieves an entry the actor owns, or any entry in their
// organization when they hold blanket time visibility.
func (s *EntryService) Get(ctx context.Context, actor *user.Identity, entryID uuid.UUID) (*TimeEntry, error) {
	entry, err := s.repo.GetEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.OrganizationID != actor.OrganizationID {
		return nil, ErrEntryNotFound
	}
	if entry.UserID != actor.UserID && !actor.Permissions.CanViewAllTimeEntries {
		return nil, sharederrors.ErrInsufficientPrivilege
	}
	return entry, nil
}

// Running returns the actor's running entry, if any.
func (s *EntryService) Running(ctx context.Context, actor *user.Identity) (*TimeEntry, error) {
	return s.repo.GetRunningEntryByUser(ctx, actor.UserID)
}

// List returns entries under the actor's visibility scope.
func (s *EntryService) List(ctx context.Context, actor *user.Identity, filter EntryFilter, limit, offset int) ([]*TimeEntry, error) {
	return s.repo.ListEntries(ctx, actor, filter, limit, offset)
}

// ListBreaks returns an entry's breaks under the same access rule as Get.
func (s *EntryService) ListBreaks(ctx context.Context, actor *user.Identity, entryID uuid.UUID) ([]*Break, error) {
	if _, err := s.Get(ctx, actor, entryID); err != nil {
		return nil, err
	}
	return s.repo.ListBreaksByEntry(ctx, entryID)
}

// ownedEntry loads an entry for mutation. Entries in other tenants are
// reported missing; same-tenant entries owned by someone else are a
// privilege failure, since mutations are owner-only without exception.
func (s *EntryService) ownedEntry(ctx context.Context, actor *user.Identity, entryID uuid.UUID) (*TimeEntry, error) {
	entry, err := s.repo.GetEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.OrganizationID != actor.OrganizationID {
		return nil, ErrEntryNotFound
	}
	if entry.UserID != actor.UserID {
		return nil, sharederrors.ErrInsufficientPrivilege
	}
	return entry, nil
}

func (s *EntryService) countConflict(kind string) {
	if s.metrics != nil {
		s.metrics.ExclusivityConflicts.WithLabelValues(kind).Inc()
	}
}
