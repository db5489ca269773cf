package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/worklens/server/internal/module/auth"
)

// OrgProvisioner creates the organization a new account belongs to.
// Registration without an invitation provisions a fresh organization
// with the caller as its first admin.
type OrgProvisioner interface {
	Provision(ctx context.Context, name string, ownerID uuid.UUID) (uuid.UUID, error)
}

// InvitationRedeemer lets registration land an invited account in the
// inviting organization instead of provisioning a fresh one. Preview
// runs before the account exists; Complete finalizes the invitation
// and team membership once it does.
type InvitationRedeemer interface {
	PreviewInvitation(ctx context.Context, email, token string) (orgID uuid.UUID, role Role, err error)
	CompleteInvitation(ctx context.Context, actor *Identity, email, token string) error
}

// Service handles user business logic.
type Service struct {
	repo    Repository
	orgs    OrgProvisioner
	invites InvitationRedeemer
	tokens  *auth.JWTManager
	logger  *zap.Logger
}

// NewService creates a new user service.
func NewService(repo Repository, orgs OrgProvisioner, invites InvitationRedeemer, tokens *auth.JWTManager, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		orgs:    orgs,
		invites: invites,
		tokens:  tokens,
		logger:  logger,
	}
}

// Register creates a new account. With an invitation token the account
// is created inside the inviting organization and the invitation is
// accepted in the same call; otherwise the registering user becomes the
// first admin of a fresh organization.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*LoginResponse, error) {
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailAlreadyExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	if req.InvitationToken != "" {
		return s.registerInvited(ctx, req, hash)
	}

	u := &User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         RoleAdmin,
		Active:       true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	orgID, err := s.orgs.Provision(ctx, req.OrganizationName, u.ID)
	if err != nil {
		return nil, err
	}

	u.OrganizationID = &orgID
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		zap.String("user_id", u.ID.String()),
		zap.String("org_id", orgID.String()))

	return s.issueSession(u)
}

// registerInvited creates the account inside the inviting organization
// with the invited role, then finalizes the invitation so the first
// login already carries a team membership.
func (s *Service) registerInvited(ctx context.Context, req *RegisterRequest, hash string) (*LoginResponse, error) {
	orgID, role, err := s.invites.PreviewInvitation(ctx, req.Email, req.InvitationToken)
	if err != nil {
		return nil, err
	}

	u := &User{
		Email:          req.Email,
		Name:           req.Name,
		PasswordHash:   hash,
		OrganizationID: &orgID,
		Role:           role,
		Active:         true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	identity := NewIdentity(u.ID, orgID, role)
	if err := s.invites.CompleteInvitation(ctx, &identity, u.Email, req.InvitationToken); err != nil {
		return nil, err
	}

	s.logger.Info("invited user registered",
		zap.String("user_id", u.ID.String()),
		zap.String("org_id", orgID.String()))

	return s.issueSession(u)
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	u, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !u.Active {
		return nil, ErrUserInactive
	}

	if err := auth.CheckPassword(req.Password, u.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueSession(u)
}

func (s *Service) issueSession(u *User) (*LoginResponse, error) {
	if u.OrganizationID == nil {
		return nil, ErrNoOrganization
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(u.ID, *u.OrganizationID, u.Email, string(u.Role))
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        u.ToResponse(),
	}, nil
}

// Get retrieves a user scoped to the caller's organization.
func (s *Service) Get(ctx context.Context, orgID, userID uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.InOrganization(orgID) {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// List lists active users in the caller's organization.
func (s *Service) List(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*User, error) {
	return s.repo.ListByOrganization(ctx, orgID, limit, offset)
}

// UpdateProfile updates the caller's own profile fields.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		u.Name = *req.Name
	}
	u.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ChangeRole changes another user's organization role. The effective
// permission set is derived from the role on every read, so the change
// takes effect immediately without touching any stored permissions.
func (s *Service) ChangeRole(ctx context.Context, actor *Identity, targetID uuid.UUID, role Role) (*User, error) {
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}
	if !actor.Permissions.CanChangeMemberRoles {
		return nil, ErrInsufficientPrivilege
	}
	if actor.UserID == targetID && role != RoleAdmin {
		return nil, ErrCannotDemoteSelf
	}

	target, err := s.Get(ctx, actor.OrganizationID, targetID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateRole(ctx, target.ID, role); err != nil {
		return nil, err
	}
	target.Role = role

	s.logger.Info("role changed",
		zap.String("actor_id", actor.UserID.String()),
		zap.String("target_id", targetID.String()),
		zap.String("role", string(role)))

	return target, nil
}

// Deactivate deactivates another user's account.
func (s *Service) Deactivate(ctx context.Context, actor *Identity, targetID uuid.UUID) error {
	if !actor.Permissions.CanRemoveMembers {
		return ErrInsufficientPrivilege
	}
	if actor.UserID == targetID {
		return ErrCannotDemoteSelf
	}

	target, err := s.Get(ctx, actor.OrganizationID, targetID)
	if err != nil {
		return err
	}

	return s.repo.Deactivate(ctx, target.ID)
}
