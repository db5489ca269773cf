package team

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/worklens/server/internal/module/user"
	"github.com/worklens/server/internal/shared/events"
	"github.com/worklens/server/internal/shared/metrics"
	"github.com/worklens/server/internal/shared/ratelimit"
)

const inviteAction = "team_invite"

// UserDirectory resolves users for invitation flows.
type UserDirectory interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// QuotaChecker gates member growth against the organization's user quota.
type QuotaChecker interface {
	EnsureUserCapacity(ctx context.Context, orgID uuid.UUID) error
}

// Publisher dispatches domain events.
type Publisher interface {
	Publish(event events.Event)
}

// Config holds team service tunables.
type Config struct {
	InvitationExpiry time.Duration
	InviteRateLimit  int // invitations per inviter per hour
}

// Service provides team business logic.
type Service struct {
	repo    Repository
	users   UserDirectory
	quotas  QuotaChecker
	limiter ratelimit.Store
	bus     Publisher
	cfg     Config
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewService creates a new team service.
func NewService(repo Repository, users UserDirectory, quotas QuotaChecker, limiter ratelimit.Store, bus Publisher, cfg Config, m *metrics.Metrics, logger *zap.Logger) *Service {
	if cfg.InvitationExpiry <= 0 {
		cfg.InvitationExpiry = 7 * 24 * time.Hour
	}
	if cfg.InviteRateLimit <= 0 {
		cfg.InviteRateLimit = 20
	}
	return &Service{
		repo:    repo,
		users:   users,
		quotas:  quotas,
		limiter: limiter,
		bus:     bus,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
	}
}

// ========== Team Operations ==========

// Create creates a team. The creator becomes its owner and first member.
func (s *Service) Create(ctx context.Context, actor *user.Identity, req *CreateTeamRequest) (*Team, error) {
	if !actor.Permissions.CanCreateTeams {
		return nil, ErrInsufficientPermission
	}

	team := &Team{
		OrganizationID: actor.OrganizationID,
		OwnerID:        actor.UserID,
		Name:           req.Name,
		Description:    req.Description,
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	txRepo := s.repo.WithTx(tx)

	if err := txRepo.CreateTeam(ctx, team); err != nil {
		return nil, err
	}

	member := &Member{
		TeamID:   team.ID,
		UserID:   actor.UserID,
		Role:     actor.Role,
		JoinedAt: time.Now(),
	}
	if err := txRepo.AddMember(ctx, member); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.logger.Info("team created",
		zap.String("team_id", team.ID.String()),
		zap.String("org_id", team.OrganizationID.String()),
	)

	return team, nil
}

// Get retrieves a team scoped to the actor's organization. Teams from
// other organizations read as not found.
func (s *Service) Get(ctx context.Context, actor *user.Identity, teamID uuid.UUID) (*Team, error) {
	team, err := s.repo.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.OrganizationID != actor.OrganizationID {
		return nil, ErrTeamNotFound
	}
	return team, nil
}

// List lists teams in the actor's organization.
func (s *Service) List(ctx context.Context, actor *user.Identity, limit, offset int) ([]*Team, error) {
	if actor.Permissions.CanManageTeams {
		return s.repo.ListTeamsByOrganization(ctx, actor.OrganizationID, limit, offset)
	}
	return s.repo.ListTeamsByUser(ctx, actor.OrganizationID, actor.UserID)
}

// Update updates team metadata. Owner or a manage-teams role required.
func (s *Service) Update(ctx context.Context, actor *user.Identity, teamID uuid.UUID, req *UpdateTeamRequest) (*Team, error) {
	team, err := s.Get(ctx, actor, teamID)
	if err != nil {
		return nil, err
	}

	if team.OwnerID != actor.UserID && !actor.Permissions.CanManageTeams {
		return nil, ErrInsufficientPermission
	}

	if req.Name != nil {
		team.Name = *req.Name
	}
	if req.Description != nil {
		team.Description = *req.Description
	}
	team.UpdatedAt = time.Now()

	if err := s.repo.UpdateTeam(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

// Delete soft-deletes a team and revokes its pending invitations.
func (s *Service) Delete(ctx context.Context, actor *user.Identity, teamID uuid.UUID) error {
	team, err := s.Get(ctx, actor, teamID)
	if err != nil {
		return err
	}

	if team.OwnerID != actor.UserID && !actor.Permissions.CanManageTeams {
		return ErrInsufficientPermission
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	txRepo := s.repo.WithTx(tx)

	if err := txRepo.CancelPendingInvitations(ctx, teamID); err != nil {
		return err
	}
	if err := txRepo.DeleteTeam(ctx, teamID); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	s.logger.Info("team deleted",
		zap.String("team_id", teamID.String()),
		zap.String("deleted_by", actor.UserID.String()),
	)

	return nil
}

// ========== Member Operations ==========

// ListMembers lists the members of a team. The caller must be a member
// themselves or hold a manage-teams role.
func (s *Service) ListMembers(ctx context.Context, actor *user.Identity, teamID uuid.UUID) ([]*Member, error) {
	if _, err := s.Get(ctx, actor, teamID); err != nil {
		return nil, err
	}

	if !actor.Permissions.CanManageTeams {
		if _, err := s.repo.GetMember(ctx, teamID, actor.UserID); err != nil {
			if errors.Is(err, ErrMemberNotFound) {
				return nil, ErrInsufficientPermission
			}
			return nil, err
		}
	}

	return s.repo.ListMembers(ctx, teamID)
}

// RemoveMember removes a member. The owner is never removable. Members
// may remove themselves; removing others requires the permission.
func (s *Service) RemoveMember(ctx context.Context, actor *user.Identity, teamID, targetUserID uuid.UUID) error {
	team, err := s.Get(ctx, actor, teamID)
	if err != nil {
		return err
	}

	if team.OwnerID == targetUserID {
		return ErrCannotRemoveOwner
	}

	if targetUserID != actor.UserID && !actor.Permissions.CanRemoveMembers {
		return ErrInsufficientPermission
	}

	return s.repo.RemoveMember(ctx, teamID, targetUserID)
}

// Leave removes the caller from a team. Owners cannot leave their own team.
func (s *Service) Leave(ctx context.Context, actor *user.Identity, teamID uuid.UUID) error {
	return s.RemoveMember(ctx, actor, teamID, actor.UserID)
}

// UpdateMemberRole changes a member's team role. The owner's role is
// fixed. Effective permissions recompute from the new role on the next
// read, as does the snapshot taken when the member joins a project.
func (s *Service) UpdateMemberRole(ctx context.Context, actor *user.Identity, teamID, targetUserID uuid.UUID, newRole user.Role) (*Member, error) {
	if !newRole.IsValid() {
		return nil, ErrInvalidRole
	}
	if !actor.Permissions.CanChangeMemberRoles {
		return nil, ErrInsufficientPermission
	}

	team, err := s.Get(ctx, actor, teamID)
	if err != nil {
		return nil, err
	}
	if team.OwnerID == targetUserID {
		return nil, ErrCannotChangeOwnerRole
	}

	member, err := s.repo.GetMember(ctx, teamID, targetUserID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateMemberRole(ctx, teamID, targetUserID, newRole); err != nil {
		return nil, err
	}
	member.Role = newRole
	member.UpdatedAt = time.Now()

	s.logger.Info("team member role changed",
		zap.String("team_id", teamID.String()),
		zap.String("target_id", targetUserID.String()),
		zap.String("role", string(newRole)),
	)

	return member, nil
}

// MembershipForUser returns the user's current team membership within
// the organization, which carries the role that project member addition
// snapshots.
func (s *Service) MembershipForUser(ctx context.Context, orgID, userID uuid.UUID) (*Member, error) {
	return s.repo.GetMembershipForUser(ctx, orgID, userID)
}

// TeamRoleForUser resolves the team role project membership snapshots.
// found is false when the user has no team membership in the org.
func (s *Service) TeamRoleForUser(ctx context.Context, orgID, userID uuid.UUID) (user.Role, bool, error) {
	member, err := s.repo.GetMembershipForUser(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return member.Role, true, nil
}

// TeamExists reports whether a team exists inside the organization.
func (s *Service) TeamExists(ctx context.Context, orgID, teamID uuid.UUID) (bool, error) {
	team, err := s.repo.GetTeamByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, ErrTeamNotFound) {
			return false, nil
		}
		return false, err
	}
	return team.OrganizationID == orgID, nil
}

// ========== Invitation Operations ==========

// Invite sends an invitation to join a team. The send is rate limited
// per inviter; the organization's user quota is checked up front so the
// invitee is not turned away at accept time.
func (s *Service) Invite(ctx context.Context, actor *user.Identity, teamID uuid.UUID, req *InviteRequest) (*Invitation, error) {
	if !actor.Permissions.CanInviteMembers {
		return nil, ErrInsufficientPermission
	}
	if !req.Role.IsValid() {
		return nil, ErrInvalidRole
	}

	team, err := s.Get(ctx, actor, teamID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.limiter.Allow(ctx, actor.UserID.String(), inviteAction, s.cfg.InviteRateLimit, time.Hour)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrInviteRateLimited
	}

	if err := s.quotas.EnsureUserCapacity(ctx, actor.OrganizationID); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	invitee, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, user.ErrUserNotFound) {
		return nil, err
	}
	if invitee != nil {
		if _, err := s.repo.GetMember(ctx, teamID, invitee.ID); err == nil {
			return nil, ErrAlreadyMember
		} else if !errors.Is(err, ErrMemberNotFound) {
			return nil, err
		}
	}

	existing, err := s.repo.GetPendingInvitationByEmail(ctx, teamID, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrInvitationAlreadyPending
	}

	token, err := generateSecureToken(32)
	if err != nil {
		return nil, err
	}

	inv := &Invitation{
		ID:             uuid.New(),
		OrganizationID: actor.OrganizationID,
		TeamID:         teamID,
		InviterID:      actor.UserID,
		InviteeEmail:   email,
		Role:           req.Role,
		Token:          token,
		Status:         InvitationStatusPending,
		ExpiresAt:      time.Now().Add(s.cfg.InvitationExpiry),
	}

	if err := s.repo.CreateInvitation(ctx, inv); err != nil {
		return nil, err
	}

	s.bus.Publish(events.NewInvitationCreatedEvent(
		inv.ID, teamID, actor.UserID, team.Name, email, string(req.Role), token))
	s.countInvitation("sent")

	s.logger.Info("invitation sent",
		zap.String("invitation_id", inv.ID.String()),
		zap.String("team_id", teamID.String()),
		zap.String("invitee_email", email),
	)

	return inv, nil
}

// ListInvitations lists invitations for a team.
func (s *Service) ListInvitations(ctx context.Context, actor *user.Identity, teamID uuid.UUID, status *InvitationStatus, limit, offset int) ([]*Invitation, error) {
	if !actor.Permissions.CanInviteMembers {
		return nil, ErrInsufficientPermission
	}
	if _, err := s.Get(ctx, actor, teamID); err != nil {
		return nil, err
	}

	invs, err := s.repo.ListInvitationsByTeam(ctx, teamID, status, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.sweepExpired(ctx, invs), nil
}

// ListMyInvitations lists pending invitations addressed to the caller.
func (s *Service) ListMyInvitations(ctx context.Context, email string, limit, offset int) ([]*Invitation, error) {
	status := InvitationStatusPending
	invs, err := s.repo.ListInvitationsByEmail(ctx, strings.ToLower(email), &status, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.sweepExpired(ctx, invs), nil
}

// pendingInvitationFor resolves a token to a live pending invitation
// addressed to email. Lapsed invitations are marked expired on the way.
func (s *Service) pendingInvitationFor(ctx context.Context, email, token string) (*Invitation, error) {
	inv, err := s.repo.GetInvitationByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(inv.InviteeEmail, email) {
		return nil, ErrInvitationNotForYou
	}
	if !inv.IsPending() {
		return nil, ErrInvitationAlreadyProcessed
	}
	if inv.IsExpired() {
		if err := s.repo.UpdateInvitationStatus(ctx, inv.ID, InvitationStatusExpired); err == nil {
			s.countInvitation("expired")
		}
		return nil, ErrInvitationExpired
	}
	return inv, nil
}

// PreviewInvitation reports the organization and role a pending
// invitation would grant. Registration calls this before the invited
// account exists, so there is no actor identity yet.
func (s *Service) PreviewInvitation(ctx context.Context, email, token string) (uuid.UUID, user.Role, error) {
	inv, err := s.pendingInvitationFor(ctx, strings.ToLower(strings.TrimSpace(email)), token)
	if err != nil {
		return uuid.Nil, "", err
	}
	return inv.OrganizationID, inv.Role, nil
}

// Accept accepts an invitation by token and joins the caller to the
// team with the invited role.
func (s *Service) Accept(ctx context.Context, actor *user.Identity, actorEmail, token string) (*Team, error) {
	inv, err := s.pendingInvitationFor(ctx, actorEmail, token)
	if err != nil {
		return nil, err
	}

	// Cross-organization accepts read as not-for-you, not as a hint that
	// the team exists elsewhere.
	if inv.OrganizationID != actor.OrganizationID {
		return nil, ErrInvitationNotForYou
	}

	team, err := s.repo.GetTeamByID(ctx, inv.TeamID)
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	txRepo := s.repo.WithTx(tx)

	member := &Member{
		TeamID:   team.ID,
		UserID:   actor.UserID,
		Role:     inv.Role,
		JoinedAt: time.Now(),
	}
	if err := txRepo.AddMember(ctx, member); err != nil {
		return nil, err
	}
	if err := txRepo.UpdateInvitationStatus(ctx, inv.ID, InvitationStatusAccepted); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.bus.Publish(events.NewInvitationAcceptedEvent(
		inv.ID, team.ID, actor.UserID, team.Name, inv.InviteeEmail, string(inv.Role)))
	s.countInvitation("accepted")

	s.logger.Info("invitation accepted",
		zap.String("invitation_id", inv.ID.String()),
		zap.String("team_id", team.ID.String()),
		zap.String("user_id", actor.UserID.String()),
	)

	return team, nil
}

// Decline declines an invitation addressed to the caller.
func (s *Service) Decline(ctx context.Context, actorEmail, token string) error {
	inv, err := s.repo.GetInvitationByToken(ctx, token)
	if err != nil {
		return err
	}

	if !strings.EqualFold(inv.InviteeEmail, actorEmail) {
		return ErrInvitationNotForYou
	}
	if !inv.IsPending() {
		return ErrInvitationAlreadyProcessed
	}

	if err := s.repo.UpdateInvitationStatus(ctx, inv.ID, InvitationStatusDeclined); err != nil {
		return err
	}
	s.countInvitation("declined")
	return nil
}

// Revoke revokes a pending invitation.
func (s *Service) Revoke(ctx context.Context, actor *user.Identity, invitationID uuid.UUID) error {
	if !actor.Permissions.CanInviteMembers {
		return ErrInsufficientPermission
	}

	inv, err := s.repo.GetInvitationByID(ctx, invitationID)
	if err != nil {
		return err
	}
	if inv.OrganizationID != actor.OrganizationID {
		return ErrInvitationNotFound
	}
	if !inv.IsPending() {
		return ErrInvitationAlreadyProcessed
	}

	if err := s.repo.UpdateInvitationStatus(ctx, invitationID, InvitationStatusRevoked); err != nil {
		return err
	}
	s.countInvitation("revoked")
	return nil
}

// sweepExpired marks lapsed pending invitations expired as they are read.
func (s *Service) sweepExpired(ctx context.Context, invs []*Invitation) []*Invitation {
	for _, inv := range invs {
		if inv.IsPending() && inv.IsExpired() {
			if err := s.repo.UpdateInvitationStatus(ctx, inv.ID, InvitationStatusExpired); err == nil {
				inv.Status = InvitationStatusExpired
				s.countInvitation("expired")
			}
		}
	}
	return invs
}

func (s *Service) countInvitation(event string) {
	if s.metrics != nil {
		s.metrics.InvitationsTotal.WithLabelValues(event).Inc()
	}
}

// generateSecureToken generates a cryptographically secure random token.
func generateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes)[:length+10], nil
}
