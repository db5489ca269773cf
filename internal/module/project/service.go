package project

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/worklens/server/internal/module/authz"
	"github.com/worklens/server/internal/module/user"
)

// TeamDirectory resolves team facts the service needs: whether a team
// exists in an organization, and what team role a user currently holds.
// The team service implements it.
type TeamDirectory interface {
	TeamRoleForUser(ctx context.Context, orgID, userID uuid.UUID) (user.Role, bool, error)
	TeamExists(ctx context.Context, orgID, teamID uuid.UUID) (bool, error)
}

// QuotaChecker gates project growth against the organization's quota.
type QuotaChecker interface {
	EnsureProjectCapacity(ctx context.Context, orgID uuid.UUID) error
}

// Service provides project business logic.
type Service struct {
	repo   Repository
	engine *authz.Engine
	teams  TeamDirectory
	quotas QuotaChecker
	logger *zap.Logger
}

// NewService creates a new project service.
func NewService(repo Repository, engine *authz.Engine, teams TeamDirectory, quotas QuotaChecker, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		engine: engine,
		teams:  teams,
		quotas: quotas,
		logger: logger,
	}
}

// Create creates a project owned by the actor.
func (s *Service) Create(ctx context.Context, actor *user.Identity, req *CreateRequest) (*Project, error) {
	if !actor.Permissions.CanCreateProjects {
		return nil, authz.Decision{Reason: authz.DenyInsufficientPrivilege}.Err()
	}

	if err := s.quotas.EnsureProjectCapacity(ctx, actor.OrganizationID); err != nil {
		return nil, err
	}

	if req.TeamID != nil {
		ok, err := s.teams.TeamExists(ctx, actor.OrganizationID, *req.TeamID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrTeamNotInOrg
		}
	}

	project := &Project{
		OrganizationID: actor.OrganizationID,
		OwnerID:        actor.UserID,
		TeamID:         req.TeamID,
		Name:           req.Name,
		Description:    req.Description,
		Color:          req.Color,
		Active:         true,
	}

	if err := s.repo.Create(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("project created",
		zap.String("project_id", project.ID.String()),
		zap.String("org_id", project.OrganizationID.String()),
	)

	return project, nil
}

// Get retrieves a project the actor may view. Cross-tenant and
// non-visible projects both read as not found at the handler.
func (s *Service) Get(ctx context.Context, actor *user.Identity, projectID uuid.UUID) (*Project, error) {
	project, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if err := s.check(ctx, actor, project, authz.ActionView); err != nil {
		return nil, err
	}
	return project, nil
}

// List lists projects visible to the actor.
func (s *Service) List(ctx context.Context, actor *user.Identity, includeArchived bool, limit, offset int) ([]*Project, error) {
	return s.repo.List(ctx, actor, includeArchived, limit, offset)
}

// Update updates project metadata.
func (s *Service) Update(ctx context.Context, actor *user.Identity, projectID uuid.UUID, req *UpdateRequest) (*Project, error) {
	project, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.check(ctx, actor, project, authz.ActionEdit); err != nil {
		return nil, err
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Color != nil {
		project.Color = *req.Color
	}
	project.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// TransferTeam changes the project's originating team.
func (s *Service) TransferTeam(ctx context.Context, actor *user.Identity, projectID uuid.UUID, teamID *uuid.UUID) (*Project, error) {
	project, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.check(ctx, actor, project, authz.ActionEdit); err != nil {
		return nil, err
	}

	if teamID != nil {
		ok, err := s.teams.TeamExists(ctx, actor.OrganizationID, *teamID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrTeamNotInOrg
		}
	}

	project.TeamID = teamID
	project.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Archive deactivates a project. Archived projects drop out of every
// accessible-projects set but keep their history.
func (s *Service) Archive(ctx context.Context, actor *user.Identity, projectID uuid.UUID) (*Project, error) {
	return s.setActive(ctx, actor, projectID, false)
}

// Restore reactivates an archived project.
func (s *Service) Restore(ctx context.Context, actor *user.Identity, projectID uuid.UUID) (*Project, error) {
	return s.setActive(ctx, actor, projectID, true)
}

func (s *Service) setActive(ctx context.Context, actor *user.Identity, projectID uuid.UUID, active bool) (*Project, error) {
	project, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.check(ctx, actor, project, authz.ActionArchive); err != nil {
		return nil, err
	}

	project.Active = active
	project.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Delete hard-deletes a project.
func (s *Service) Delete(ctx context.Context, actor *user.Identity, projectID uuid.UUID) error {
	project, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if err := s.check(ctx, actor, project, authz.ActionDelete); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, projectID); err != nil {
		return err
	}

	s.logger.Info("project deleted",
		zap.String("project_id", projectID.String()),
		zap.String("deleted_by", actor.UserID.String()),
	)
	return nil
}

// ListMembers lists the members of a project the actor may view.
func (s *Service) ListMembers(ctx context.Context, actor *user.Identity, projectID uuid.UUID) ([]*Member, error) {
	project, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.check(ctx, actor, project, authz.ActionView); err != nil {
		return nil, err
	}

	return s.repo.ListMembers(ctx, projectID)
}

// AddMember adds a user to the project, snapshotting their current team
// role. A user with no team membership in the organization is rejected
// explicitly rather than silently skipped.
func (s *Service) AddMember(ctx context.Context, actor *user.Identity, projectID, targetUserID uuid.UUID) (*Member, error) {
	project, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.check(ctx, actor, project, authz.ActionManageMembers); err != nil {
		return nil, err
	}
	if !project.Active {
		return nil, ErrProjectArchived
	}

	role, found, err := s.teams.TeamRoleForUser(ctx, project.OrganizationID, targetUserID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoTeamMembership
	}

	member := &Member{
		ProjectID: projectID,
		UserID:    targetUserID,
		TeamRole:  role,
		JoinedAt:  time.Now(),
	}
	if err := s.repo.AddMember(ctx, member); err != nil {
		return nil, err
	}

	s.logger.Info("project member added",
		zap.String("project_id", projectID.String()),
		zap.String("user_id", targetUserID.String()),
		zap.String("team_role", string(role)),
	)

	return member, nil
}

// RemoveMember removes a member from the project. The owner's implicit
// membership can never be removed, not even by the owner themselves.
func (s *Service) RemoveMember(ctx context.Context, actor *user.Identity, projectID, targetUserID uuid.UUID) error {
	project, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if err := s.check(ctx, actor, project, authz.ActionManageMembers); err != nil {
		return err
	}

	if project.OwnerID == targetUserID {
		return ErrCannotRemoveOwner
	}

	return s.repo.RemoveMember(ctx, projectID, targetUserID)
}

func (s *Service) check(ctx context.Context, actor *user.Identity, project *Project, action authz.Action) error {
	return s.engine.Check(ctx, actor, project.ID, authz.Resource{
		OrganizationID: project.OrganizationID,
		OwnerID:        project.OwnerID,
	}, action)
}
