package team

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/worklens/server/internal/module/user"
	"github.com/worklens/server/internal/shared/database"
)

// Repository defines the interface for team data access.
type Repository interface {
	// Transactions
	BeginTx(ctx context.Context) (*gorm.DB, error)
	WithTx(tx *gorm.DB) Repository

	// Teams
	CreateTeam(ctx context.Context, team *Team) error
	GetTeamByID(ctx context.Context, id uuid.UUID) (*Team, error)
	ListTeamsByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*Team, error)
	ListTeamsByUser(ctx context.Context, orgID, userID uuid.UUID) ([]*Team, error)
	UpdateTeam(ctx context.Context, team *Team) error
	DeleteTeam(ctx context.Context, id uuid.UUID) error

	// Members
	AddMember(ctx context.Context, member *Member) error
	GetMember(ctx context.Context, teamID, userID uuid.UUID) (*Member, error)
	GetMembershipForUser(ctx context.Context, orgID, userID uuid.UUID) (*Member, error)
	ListMembers(ctx context.Context, teamID uuid.UUID) ([]*Member, error)
	UpdateMemberRole(ctx context.Context, teamID, userID uuid.UUID, role user.Role) error
	RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error
	CountMembers(ctx context.Context, teamID uuid.UUID) (int, error)

	// Invitations
	CreateInvitation(ctx context.Context, inv *Invitation) error
	GetInvitationByID(ctx context.Context, id uuid.UUID) (*Invitation, error)
	GetInvitationByToken(ctx context.Context, token string) (*Invitation, error)
	GetPendingInvitationByEmail(ctx context.Context, teamID uuid.UUID, email string) (*Invitation, error)
	ListInvitationsByTeam(ctx context.Context, teamID uuid.UUID, status *InvitationStatus, limit, offset int) ([]*Invitation, error)
	ListInvitationsByEmail(ctx context.Context, email string, status *InvitationStatus, limit, offset int) ([]*Invitation, error)
	UpdateInvitationStatus(ctx context.Context, id uuid.UUID, status InvitationStatus) error
	CancelPendingInvitations(ctx context.Context, teamID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new team repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

// ========== Teams ==========

func (r *repository) CreateTeam(ctx context.Context, team *Team) error {
	return r.db.WithContext(ctx).Create(team).Error
}

func (r *repository) GetTeamByID(ctx context.Context, id uuid.UUID) (*Team, error) {
	var team Team
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&team).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return &team, nil
}

func (r *repository) ListTeamsByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*Team, error) {
	if limit <= 0 {
		limit = 20
	}

	var teams []*Team
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&teams).Error
	if err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *repository) ListTeamsByUser(ctx context.Context, orgID, userID uuid.UUID) ([]*Team, error) {
	var teams []*Team
	err := r.db.WithContext(ctx).
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("teams.organization_id = ? AND team_members.user_id = ?", orgID, userID).
		Order("teams.created_at ASC").
		Find(&teams).Error
	if err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *repository) UpdateTeam(ctx context.Context, team *Team) error {
	return r.db.WithContext(ctx).Save(team).Error
}

func (r *repository) DeleteTeam(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&Team{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTeamNotFound
	}
	return nil
}

// ========== Members ==========

func (r *repository) AddMember(ctx context.Context, member *Member) error {
	err := r.db.WithContext(ctx).Create(member).Error
	if database.IsUniqueViolation(err, "") {
		return ErrAlreadyMember
	}
	return err
}

func (r *repository) GetMember(ctx context.Context, teamID, userID uuid.UUID) (*Member, error) {
	var member Member
	err := r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

// GetMembershipForUser returns the user's most recent team membership
// within the organization. Project member addition snapshots the role
// from here.
func (r *repository) GetMembershipForUser(ctx context.Context, orgID, userID uuid.UUID) (*Member, error) {
	var member Member
	err := r.db.WithContext(ctx).
		Joins("JOIN teams ON teams.id = team_members.team_id").
		Where("teams.organization_id = ? AND team_members.user_id = ? AND teams.deleted_at IS NULL", orgID, userID).
		Order("team_members.joined_at DESC").
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *repository) ListMembers(ctx context.Context, teamID uuid.UUID) ([]*Member, error) {
	var members []*Member
	err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("joined_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repository) UpdateMemberRole(ctx context.Context, teamID, userID uuid.UUID, role user.Role) error {
	result := r.db.WithContext(ctx).
		Model(&Member{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Updates(map[string]interface{}{"role": role, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (r *repository) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Delete(&Member{}, "team_id = ? AND user_id = ?", teamID, userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (r *repository) CountMembers(ctx context.Context, teamID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Member{}).
		Where("team_id = ?", teamID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// ========== Invitations ==========

func (r *repository) CreateInvitation(ctx context.Context, inv *Invitation) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *repository) GetInvitationByID(ctx context.Context, id uuid.UUID) (*Invitation, error) {
	var inv Invitation
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *repository) GetInvitationByToken(ctx context.Context, token string) (*Invitation, error) {
	var inv Invitation
	err := r.db.WithContext(ctx).
		Where("token = ?", token).
		First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *repository) GetPendingInvitationByEmail(ctx context.Context, teamID uuid.UUID, email string) (*Invitation, error) {
	var inv Invitation
	err := r.db.WithContext(ctx).
		Where("team_id = ? AND invitee_email = ? AND status = ?", teamID, email, InvitationStatusPending).
		First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

func (r *repository) ListInvitationsByTeam(ctx context.Context, teamID uuid.UUID, status *InvitationStatus, limit, offset int) ([]*Invitation, error) {
	if limit <= 0 {
		limit = 20
	}

	query := r.db.WithContext(ctx).Where("team_id = ?", teamID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var invs []*Invitation
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&invs).Error
	if err != nil {
		return nil, err
	}
	return invs, nil
}

func (r *repository) ListInvitationsByEmail(ctx context.Context, email string, status *InvitationStatus, limit, offset int) ([]*Invitation, error) {
	if limit <= 0 {
		limit = 20
	}

	query := r.db.WithContext(ctx).Where("invitee_email = ?", email)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var invs []*Invitation
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&invs).Error
	if err != nil {
		return nil, err
	}
	return invs, nil
}

func (r *repository) UpdateInvitationStatus(ctx context.Context, id uuid.UUID, status InvitationStatus) error {
	updates := map[string]interface{}{"status": status}
	if status == InvitationStatusAccepted {
		updates["accepted_at"] = time.Now()
	}

	result := r.db.WithContext(ctx).
		Model(&Invitation{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInvitationNotFound
	}
	return nil
}

func (r *repository) CancelPendingInvitations(ctx context.Context, teamID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&Invitation{}).
		Where("team_id = ? AND status = ?", teamID, InvitationStatusPending).
		Update("status", InvitationStatusRevoked).Error
}
