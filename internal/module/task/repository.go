package task

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for task data access.
type Repository interface {
	Create(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	ListByProject(ctx context.Context, projectID uuid.UUID, status *Status, limit, offset int) ([]*Task, error)
	ListAssignedTo(ctx context.Context, orgID, userID uuid.UUID, limit, offset int) ([]*Task, error)
	Update(ctx context.Context, task *Task) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new task repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, task *Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	var task Task
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (r *repository) ListByProject(ctx context.Context, projectID uuid.UUID, status *Status, limit, offset int) ([]*Task, error) {
	if limit <= 0 {
		limit = 50
	}

	query := r.db.WithContext(ctx).Where("project_id = ?", projectID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var tasks []*Task
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *repository) ListAssignedTo(ctx context.Context, orgID, userID uuid.UUID, limit, offset int) ([]*Task, error) {
	if limit <= 0 {
		limit = 50
	}

	var tasks []*Task
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND ? = ANY(assignees)", orgID, userID.String()).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *repository) Update(ctx context.Context, task *Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&Task{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}
