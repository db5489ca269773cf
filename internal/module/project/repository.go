package project

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/worklens/server/internal/module/authz"
	"github.com/worklens/server/internal/module/user"
	"github.com/worklens/server/internal/shared/database"
)

// Repository defines the interface for project data access. It also
// backs the authorization engine's membership checks and the resolver's
// ID sets.
type Repository interface {
	Create(ctx context.Context, project *Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*Project, error)
	List(ctx context.Context, actor *user.Identity, includeArchived bool, limit, offset int) ([]*Project, error)
	Update(ctx context.Context, project *Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByOrganization(ctx context.Context, orgID uuid.UUID) (int, error)

	AddMember(ctx context.Context, member *Member) error
	GetMember(ctx context.Context, projectID, userID uuid.UUID) (*Member, error)
	ListMembers(ctx context.Context, projectID uuid.UUID) ([]*Member, error)
	RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error

	// authz.MembershipChecker
	IsProjectMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error)

	// authz.ProjectSource
	ListActiveIDsByOrganization(ctx context.Context, orgID uuid.UUID) ([]uuid.UUID, error)
	ListAccessibleIDs(ctx context.Context, orgID, userID uuid.UUID) ([]uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new project repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, project *Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	var project Project
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

// List filters in the database with the visibility scope so pagination
// is correct; pages are never post-filtered in memory.
func (r *repository) List(ctx context.Context, actor *user.Identity, includeArchived bool, limit, offset int) ([]*Project, error) {
	if limit <= 0 {
		limit = 20
	}

	query := r.db.WithContext(ctx).
		Scopes(authz.ProjectVisibility(actor))
	if !includeArchived {
		query = query.Where("projects.active = ?", true)
	}

	var projects []*Project
	err := query.
		Order("projects.created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *repository) Update(ctx context.Context, project *Project) error {
	return r.db.WithContext(ctx).Save(project).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&Project{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func (r *repository) CountByOrganization(ctx context.Context, orgID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Project{}).
		Where("organization_id = ? AND active = ?", orgID, true).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *repository) AddMember(ctx context.Context, member *Member) error {
	err := r.db.WithContext(ctx).Create(member).Error
	if database.IsUniqueViolation(err, "") {
		return ErrAlreadyMember
	}
	return err
}

func (r *repository) GetMember(ctx context.Context, projectID, userID uuid.UUID) (*Member, error) {
	var member Member
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *repository) ListMembers(ctx context.Context, projectID uuid.UUID) ([]*Member, error) {
	var members []*Member
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("joined_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repository) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Delete(&Member{}, "project_id = ? AND user_id = ?", projectID, userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (r *repository) IsProjectMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Member{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListActiveIDsByOrganization(ctx context.Context, orgID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&Project{}).
		Where("organization_id = ? AND active = ?", orgID, true).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) ListAccessibleIDs(ctx context.Context, orgID, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&Project{}).
		Where("organization_id = ? AND active = ?", orgID, true).
		Where("owner_id = ? OR id IN (SELECT project_id FROM project_members WHERE user_id = ?)", userID, userID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
