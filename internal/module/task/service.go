package task

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/worklens/server/internal/module/authz"
	"github.com/worklens/server/internal/module/project"
	"github.com/worklens/server/internal/module/user"
	sharederrors "github.com/worklens/server/internal/shared/errors"
)

// ProjectDirectory loads the project a task hangs off; the engine needs
// its tenant and owner.
type ProjectDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*project.Project, error)
	IsProjectMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
}

// Service provides task business logic.
type Service struct {
	repo     Repository
	projects ProjectDirectory
	engine   *authz.Engine
	logger   *zap.Logger
}

// NewService creates a new task service.
func NewService(repo Repository, projects ProjectDirectory, engine *authz.Engine, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		projects: projects,
		engine:   engine,
		logger:   logger,
	}
}

// Create creates a task in a project the actor can view.
func (s *Service) Create(ctx context.Context, actor *user.Identity, req *CreateRequest) (*Task, error) {
	if !actor.Permissions.CanCreateTasks {
		return nil, sharederrors.ErrInsufficientPrivilege
	}

	proj, err := s.viewableProject(ctx, actor, req.ProjectID)
	if err != nil {
		return nil, err
	}

	status := StatusTodo
	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, ErrInvalidStatus
		}
		status = *req.Status
	}
	priority := PriorityMedium
	if req.Priority != nil {
		if !req.Priority.IsValid() {
			return nil, ErrInvalidPriority
		}
		priority = *req.Priority
	}

	task := &Task{
		OrganizationID: proj.OrganizationID,
		ProjectID:      proj.ID,
		CreatedBy:      actor.UserID,
		Title:          req.Title,
		Description:    req.Description,
		Status:         status,
		Priority:       priority,
		DueDate:        req.DueDate,
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Info("task created",
		zap.String("task_id", task.ID.String()),
		zap.String("project_id", proj.ID.String()),
	)

	return task, nil
}

// Get retrieves a task in a project the actor can view.
func (s *Service) Get(ctx context.Context, actor *user.Identity, taskID uuid.UUID) (*Task, error) {
	task, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.viewableProject(ctx, actor, task.ProjectID); err != nil {
		return nil, err
	}
	return task, nil
}

// ListByProject lists a project's tasks.
func (s *Service) ListByProject(ctx context.Context, actor *user.Identity, projectID uuid.UUID, status *Status, limit, offset int) ([]*Task, error) {
	if status != nil && !status.IsValid() {
		return nil, ErrInvalidStatus
	}
	if _, err := s.viewableProject(ctx, actor, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListByProject(ctx, projectID, status, limit, offset)
}

// ListMine lists tasks assigned to the actor across the organization.
func (s *Service) ListMine(ctx context.Context, actor *user.Identity, limit, offset int) ([]*Task, error) {
	return s.repo.ListAssignedTo(ctx, actor.OrganizationID, actor.UserID, limit, offset)
}

// Update updates task fields, including status transitions.
func (s *Service) Update(ctx context.Context, actor *user.Identity, taskID uuid.UUID, req *UpdateRequest) (*Task, error) {
	if !actor.Permissions.CanEditTasks {
		return nil, sharederrors.ErrInsufficientPrivilege
	}

	task, err := s.Get(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, ErrInvalidStatus
		}
		task.Status = *req.Status
	}
	if req.Priority != nil {
		if !req.Priority.IsValid() {
			return nil, ErrInvalidPriority
		}
		task.Priority = *req.Priority
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	task.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Assign replaces the task's assignee set. Every assignee must have
// access to the task's project.
func (s *Service) Assign(ctx context.Context, actor *user.Identity, taskID uuid.UUID, assignees []uuid.UUID) (*Task, error) {
	if !actor.Permissions.CanAssignTasks {
		return nil, sharederrors.ErrInsufficientPrivilege
	}

	task, err := s.Get(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	proj, err := s.projects.GetByID(ctx, task.ProjectID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(assignees))
	for _, id := range assignees {
		if id != proj.OwnerID {
			isMember, err := s.projects.IsProjectMember(ctx, task.ProjectID, id)
			if err != nil {
				return nil, err
			}
			if !isMember {
				return nil, ErrNotAssignable
			}
		}
		ids = append(ids, id.String())
	}

	task.Assignees = ids
	task.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Delete deletes a task. Deletion stays with the delete permission or
// the task's creator.
func (s *Service) Delete(ctx context.Context, actor *user.Identity, taskID uuid.UUID) error {
	task, err := s.Get(ctx, actor, taskID)
	if err != nil {
		return err
	}

	if task.CreatedBy != actor.UserID && !actor.Permissions.CanDeleteTasks {
		return sharederrors.ErrInsufficientPrivilege
	}

	return s.repo.Delete(ctx, taskID)
}

// viewableProject loads the project and runs the view check. A project
// in another tenant surfaces as cross-tenant, which handlers render as
// not found.
func (s *Service) viewableProject(ctx context.Context, actor *user.Identity, projectID uuid.UUID) (*project.Project, error) {
	proj, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	err = s.engine.Check(ctx, actor, proj.ID, authz.Resource{
		OrganizationID: proj.OrganizationID,
		OwnerID:        proj.OwnerID,
	}, authz.ActionView)
	if err != nil {
		return nil, err
	}
	return proj, nil
}
