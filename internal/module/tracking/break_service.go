package tracking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/worklens/server/internal/module/user"
	sharederrors "github.com/worklens/server/internal/shared/errors"
	"github.com/worklens/server/internal/shared/metrics"
)

// BreakService manages the break lifecycle. totalBreakSeconds on the
// owning entry is always recomputed from the finalized breaks in the
// database, so a crashed or retried request can never drift the total.
type BreakService struct {
	repo    Repository
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewBreakService creates a new break service.
func NewBreakService(repo Repository, m *metrics.Metrics, logger *zap.Logger) *BreakService {
	return &BreakService{
		repo:    repo,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// StartBreak opens a break on the actor's running entry. The
// one-active-break invariant spans all of the user's entries and is
// enforced by the storage layer.
func (s *BreakService) StartBreak(ctx context.Context, actor *user.Identity, entryID uuid.UUID, req *StartBreakRequest) (*Break, error) {
	breakType := BreakTypeShort
	if req.Type != "" {
		if !req.Type.IsValid() {
			return nil, ErrInvalidBreakType
		}
		breakType = req.Type
	}
	paid := true
	if req.Paid != nil {
		paid = *req.Paid
	}

	entry, err := s.ownedEntry(ctx, actor, entryID)
	if err != nil {
		return nil, err
	}
	if !entry.IsRunning {
		return nil, ErrEntryNotRunning
	}

	brk := &Break{
		OrganizationID: entry.OrganizationID,
		UserID:         actor.UserID,
		TimeEntryID:    entry.ID,
		ProjectID:      entry.ProjectID,
		Type:           breakType,
		StartTime:      s.now(),
		Active:         true,
		Paid:           paid,
	}

	err = s.repo.Transaction(ctx, func(txRepo Repository) error {
		if err := txRepo.CreateBreak(ctx, brk); err != nil {
			return err
		}
		entry.IsOnBreak = true
		return txRepo.UpdateEntry(ctx, entry)
	})
	if err != nil {
		if errors.Is(err, ErrBreakAlreadyActive) {
			s.countConflict("active_break")
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.BreaksStartedTotal.WithLabelValues(actor.OrganizationID.String(), string(breakType)).Inc()
	}
	s.logger.Info("break started",
		zap.String("break_id", brk.ID.String()),
		zap.String("entry_id", entry.ID.String()),
	)

	return brk, nil
}

// EndBreak finalizes an active break and refreshes the owning entry's
// break total.
func (s *BreakService) EndBreak(ctx context.Context, actor *user.Identity, breakID uuid.UUID) (*Break, error) {
	brk, err := s.ownedBreak(ctx, actor, breakID)
	if err != nil {
		return nil, err
	}
	if !brk.Active {
		return nil, ErrBreakNotActive
	}

	end := s.now()
	brk.EndTime = &end
	brk.DurationSeconds = durationSeconds(brk.StartTime, end)
	brk.Active = false

	err = s.repo.Transaction(ctx, func(txRepo Repository) error {
		if err := txRepo.UpdateBreak(ctx, brk); err != nil {
			return err
		}
		return s.refreshEntryBreaks(ctx, txRepo, brk.TimeEntryID)
	})
	if err != nil {
		return nil, err
	}

	return brk, nil
}

// DeleteBreak removes a break. Deleting the active break frees the
// owning entry's on-break state before the row goes away.
func (s *BreakService) DeleteBreak(ctx context.Context, actor *user.Identity, breakID uuid.UUID) error {
	brk, err := s.ownedBreak(ctx, actor, breakID)
	if err != nil {
		return err
	}

	err = s.repo.Transaction(ctx, func(txRepo Repository) error {
		if err := txRepo.DeleteBreak(ctx, brk.ID); err != nil {
			return err
		}
		return s.refreshEntryBreaks(ctx, txRepo, brk.TimeEntryID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("break deleted", zap.String("break_id", brk.ID.String()))
	return nil
}

// refreshEntryBreaks recomputes the entry's break total from the
// finalized breaks and sets isOnBreak from whether any break is still
// active. Skips silently if the entry is already gone.
func (s *BreakService) refreshEntryBreaks(ctx context.Context, repo Repository, entryID uuid.UUID) error {
	entry, err := repo.GetEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return nil
		}
		return err
	}

	total, err := repo.SumFinalizedBreakSeconds(ctx, entryID)
	if err != nil {
		return err
	}

	breaks, err := repo.ListBreaksByEntry(ctx, entryID)
	if err != nil {
		return err
	}
	onBreak := false
	for _, b := range breaks {
		if b.Active {
			onBreak = true
			break
		}
	}

	entry.TotalBreakSecs = total
	entry.IsOnBreak = onBreak
	return repo.UpdateEntry(ctx, entry)
}

func (s *BreakService) ownedEntry(ctx context.Context, actor *user.Identity, entryID uuid.UUID) (*TimeEntry, error) {
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

func (s *BreakService) ownedBreak(ctx context.Context, actor *user.Identity, breakID uuid.UUID) (*Break, error) {
	brk, err := s.repo.GetBreakByID(ctx, breakID)
	if err != nil {
		return nil, err
	}
	if brk.OrganizationID != actor.OrganizationID {
		return nil, ErrBreakNotFound
	}
	if brk.UserID != actor.UserID {
		return nil, sharederrors.ErrInsufficientPrivilege
	}
	return brk, nil
}

func (s *BreakService) countConflict(kind string) {
	if s.metrics != nil {
		s.metrics.ExclusivityConflicts.WithLabelValues(kind).Inc()
	}
}
