package tracking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/worklens/server/internal/module/authz"
	"github.com/worklens/server/internal/module/user"
	"github.com/worklens/server/internal/shared/database"
)

// EntryFilter narrows entry listings. Zero values mean "no filter".
type EntryFilter struct {
	ProjectID *uuid.UUID
	UserID    *uuid.UUID
	From      *time.Time
	To        *time.Time
	Running   *bool
}

// Repository defines the interface for tracking data access. The
// exclusivity invariants live in the database as partial unique indexes;
// Create calls surface violations as the module's conflict errors so the
// check-then-create race cannot occur.
type Repository interface {
	// Transaction runs fn against a transactional view of the repository,
	// committing on nil and rolling back on error.
	Transaction(ctx context.Context, fn func(Repository) error) error

	CreateEntry(ctx context.Context, entry *TimeEntry) error
	GetEntryByID(ctx context.Context, id uuid.UUID) (*TimeEntry, error)
	GetRunningEntryByUser(ctx context.Context, userID uuid.UUID) (*TimeEntry, error)
	ListEntries(ctx context.Context, actor *user.Identity, filter EntryFilter, limit, offset int) ([]*TimeEntry, error)
	ListEntriesForRange(ctx context.Context, orgID uuid.UUID, projectIDs []uuid.UUID, userID *uuid.UUID, from, to time.Time) ([]*TimeEntry, error)
	UpdateEntry(ctx context.Context, entry *TimeEntry) error
	DeleteEntry(ctx context.Context, id uuid.UUID) error

	CreateBreak(ctx context.Context, brk *Break) error
	GetBreakByID(ctx context.Context, id uuid.UUID) (*Break, error)
	ListBreaksByEntry(ctx context.Context, entryID uuid.UUID) ([]*Break, error)
	ListBreaksForRange(ctx context.Context, orgID uuid.UUID, projectIDs []uuid.UUID, userID *uuid.UUID, from, to time.Time) ([]*Break, error)
	UpdateBreak(ctx context.Context, brk *Break) error
	DeleteBreak(ctx context.Context, id uuid.UUID) error
	DeleteBreaksByEntry(ctx context.Context, entryID uuid.UUID) error
	SumFinalizedBreakSeconds(ctx context.Context, entryID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new tracking repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: tx})
	})
}

// ========== Entries ==========

// CreateEntry inserts the entry. If the user already has a running
// entry the partial unique index rejects the insert atomically.
func (r *repository) CreateEntry(ctx context.Context, entry *TimeEntry) error {
	err := r.db.WithContext(ctx).Create(entry).Error
	if database.IsUniqueViolation(err, ConstraintOneRunningEntry) {
		return ErrEntryAlreadyRunning
	}
	return err
}

func (r *repository) GetEntryByID(ctx context.Context, id uuid.UUID) (*TimeEntry, error) {
	var entry TimeEntry
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repository) GetRunningEntryByUser(ctx context.Context, userID uuid.UUID) (*TimeEntry, error) {
	var entry TimeEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_running = ?", userID, true).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// ListEntries filters in the database under the visibility scope so
// pagination stays correct.
func (r *repository) ListEntries(ctx context.Context, actor *user.Identity, filter EntryFilter, limit, offset int) ([]*TimeEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := r.db.WithContext(ctx).
		Scopes(authz.EntryVisibility(actor))
	query = applyEntryFilter(query, filter)

	var entries []*TimeEntry
	err := query.
		Order("time_entries.start_time DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListEntriesForRange(ctx context.Context, orgID uuid.UUID, projectIDs []uuid.UUID, userID *uuid.UUID, from, to time.Time) ([]*TimeEntry, error) {
	query := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Where("project_id IN ?", projectIDs).
		Where("start_time >= ? AND start_time < ?", from, to)
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}

	var entries []*TimeEntry
	err := query.Order("start_time ASC").Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) UpdateEntry(ctx context.Context, entry *TimeEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *repository) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&TimeEntry{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// ========== Breaks ==========

// CreateBreak inserts the break. A second active break for the same
// user anywhere is rejected atomically by the partial unique index.
func (r *repository) CreateBreak(ctx context.Context, brk *Break) error {
	err := r.db.WithContext(ctx).Create(brk).Error
	if database.IsUniqueViolation(err, ConstraintOneActiveBreak) {
		return ErrBreakAlreadyActive
	}
	return err
}

func (r *repository) GetBreakByID(ctx context.Context, id uuid.UUID) (*Break, error) {
	var brk Break
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&brk).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBreakNotFound
		}
		return nil, err
	}
	return &brk, nil
}

func (r *repository) ListBreaksByEntry(ctx context.Context, entryID uuid.UUID) ([]*Break, error) {
	var breaks []*Break
	err := r.db.WithContext(ctx).
		Where("time_entry_id = ?", entryID).
		Order("start_time ASC").
		Find(&breaks).Error
	if err != nil {
		return nil, err
	}
	return breaks, nil
}

func (r *repository) ListBreaksForRange(ctx context.Context, orgID uuid.UUID, projectIDs []uuid.UUID, userID *uuid.UUID, from, to time.Time) ([]*Break, error) {
	query := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Where("project_id IN ?", projectIDs).
		Where("start_time >= ? AND start_time < ?", from, to)
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}

	var breaks []*Break
	err := query.Order("start_time ASC").Find(&breaks).Error
	if err != nil {
		return nil, err
	}
	return breaks, nil
}

func (r *repository) UpdateBreak(ctx context.Context, brk *Break) error {
	return r.db.WithContext(ctx).Save(brk).Error
}

func (r *repository) DeleteBreak(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&Break{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBreakNotFound
	}
	return nil
}

func (r *repository) DeleteBreaksByEntry(ctx context.Context, entryID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&Break{}, "time_entry_id = ?", entryID).Error
}

// SumFinalizedBreakSeconds totals the finalized break durations for an
// entry. The owning entry's total_break_seconds is always recomputed
// from this, never adjusted incrementally.
func (r *repository) SumFinalizedBreakSeconds(ctx context.Context, entryID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&Break{}).
		Where("time_entry_id = ? AND active = ?", entryID, false).
		Select("COALESCE(SUM(duration_seconds), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func applyEntryFilter(query *gorm.DB, filter EntryFilter) *gorm.DB {
	if filter.ProjectID != nil {
		query = query.Where("time_entries.project_id = ?", *filter.ProjectID)
	}
	if filter.UserID != nil {
		query = query.Where("time_entries.user_id = ?", *filter.UserID)
	}
	if filter.From != nil {
		query = query.Where("time_entries.start_time >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("time_entries.start_time < ?", *filter.To)
	}
	if filter.Running != nil {
		query = query.Where("time_entries.is_running = ?", *filter.Running)
	}
	return query
}
