package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for user data access.
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*User, error)
	CountByOrganization(ctx context.Context, orgID uuid.UUID) (int, error)
	Update(ctx context.Context, user *User) error
	UpdateRole(ctx context.Context, id uuid.UUID, role Role) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// repository implements Repository using GORM.
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new user repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Create creates a new user.
func (r *repository) Create(ctx context.Context, user *User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID retrieves a user by ID.
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by email.
func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ListByOrganization lists users in an organization.
func (r *repository) ListByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*User, error) {
	if limit <= 0 {
		limit = 20
	}

	var users []*User
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND active = ?", orgID, true).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// CountByOrganization counts active users in an organization.
func (r *repository) CountByOrganization(ctx context.Context, orgID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&User{}).
		Where("organization_id = ? AND active = ?", orgID, true).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// Update updates a user.
func (r *repository) Update(ctx context.Context, user *User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// UpdateRole updates a user's role. Permissions are derived at read time,
// so nothing else changes here.
func (r *repository) UpdateRole(ctx context.Context, id uuid.UUID, role Role) error {
	result := r.db.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", id).
		Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Deactivate soft-deletes a user by flipping the active flag.
func (r *repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", id).
		Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
