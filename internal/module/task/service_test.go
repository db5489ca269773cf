package task

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/worklens/server/internal/module/authz"
	"github.com/worklens/server/internal/module/project"
	"github.com/worklens/server/internal/module/user"
	sharederrors "github.com/worklens/server/internal/shared/errors"
)

// Mock implementations

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Create(ctx context.Context, task *Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *mockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Task), args.Error(1)
}

func (m *mockRepository) ListByProject(ctx context.Context, projectID uuid.UUID, status *Status, limit, offset int) ([]*Task, error) {
	args := m.Called(ctx, projectID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Task), args.Error(1)
}

func (m *mockRepository) ListAssignedTo(ctx context.Context, orgID, userID uuid.UUID, limit, offset int) ([]*Task, error) {
	args := m.Called(ctx, orgID, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Task), args.Error(1)
}

func (m *mockRepository) Update(ctx context.Context, task *Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *mockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockProjectDirectory struct {
	mock.Mock
}

func (m *mockProjectDirectory) GetByID(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.Project), args.Error(1)
}

func (m *mockProjectDirectory) IsProjectMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, projectID, userID)
	return args.Bool(0), args.Error(1)
}

func setupService(t *testing.T) (*Service, *mockRepository, *mockProjectDirectory) {
	t.Helper()
	repo := new(mockRepository)
	projects := new(mockProjectDirectory)
	engine := authz.NewEngine(projects, nil)
	svc := NewService(repo, projects, engine, zap.NewNop())
	return svc, repo, projects
}

func TestService_Create(t *testing.T) {
	orgID := uuid.New()
	ownerID := uuid.New()
	proj := &project.Project{ID: uuid.New(), OrganizationID: orgID, OwnerID: ownerID, Active: true}

	t.Run("member creates task in accessible project", func(t *testing.T) {
		svc, repo, projects := setupService(t)
		ctx := context.Background()
		actor := user.NewIdentity(uuid.New(), orgID, user.RoleMember)

		projects.On("GetByID", ctx, proj.ID).Return(proj, nil)
		projects.On("IsProjectMember", ctx, proj.ID, actor.UserID).Return(true, nil)
		repo.On("Create", ctx, mock.AnythingOfType("*task.Task")).Return(nil)

		task, err := svc.Create(ctx, &actor, &CreateRequest{ProjectID: proj.ID, Title: "Fix the flake"})

		require.NoError(t, err)
		assert.Equal(t, StatusTodo, task.Status)
		assert.Equal(t, PriorityMedium, task.Priority)
		assert.Equal(t, orgID, task.OrganizationID)
		assert.Equal(t, actor.UserID, task.CreatedBy)
	})

	t.Run("project in another tenant reads as missing", func(t *testing.T) {
		svc, _, projects := setupService(t)
		ctx := context.Background()
		actor := user.NewIdentity(uuid.New(), uuid.New(), user.RoleAdmin)

		projects.On("GetByID", ctx, proj.ID).Return(proj, nil)

		_, err := svc.Create(ctx, &actor, &CreateRequest{ProjectID: proj.ID, Title: "X"})

		assert.ErrorIs(t, err, sharederrors.ErrCrossTenant)
	})

	t.Run("invalid status rejected", func(t *testing.T) {
		svc, _, projects := setupService(t)
		ctx := context.Background()
		actor := user.NewIdentity(ownerID, orgID, user.RoleMember)
		bad := Status("someday")

		projects.On("GetByID", ctx, proj.ID).Return(proj, nil)

		_, err := svc.Create(ctx, &actor, &CreateRequest{ProjectID: proj.ID, Title: "X", Status: &bad})

		assert.ErrorIs(t, err, ErrInvalidStatus)
	})
}

func TestService_Assign(t *testing.T) {
	orgID := uuid.New()
	ownerID := uuid.New()
	proj := &project.Project{ID: uuid.New(), OrganizationID: orgID, OwnerID: ownerID, Active: true}
	existing := &Task{ID: uuid.New(), OrganizationID: orgID, ProjectID: proj.ID, Title: "T"}

	t.Run("assigns project members", func(t *testing.T) {
		svc, repo, projects := setupService(t)
		ctx := context.Background()
		actor := user.NewIdentity(uuid.New(), orgID, user.RoleManager)
		memberID := uuid.New()

		repo.On("GetByID", ctx, existing.ID).Return(existing, nil)
		projects.On("GetByID", ctx, proj.ID).Return(proj, nil)
		projects.On("IsProjectMember", ctx, proj.ID, memberID).Return(true, nil)
		repo.On("Update", ctx, mock.AnythingOfType("*task.Task")).Return(nil)

		task, err := svc.Assign(ctx, &actor, existing.ID, []uuid.UUID{memberID})

		require.NoError(t, err)
		assert.True(t, task.IsAssigned(memberID))
	})

	t.Run("non-member assignee rejected", func(t *testing.T) {
		svc, repo, projects := setupService(t)
		ctx := context.Background()
		actor := user.NewIdentity(uuid.New(), orgID, user.RoleManager)
		strangerID := uuid.New()

		repo.On("GetByID", ctx, existing.ID).Return(existing, nil)
		projects.On("GetByID", ctx, proj.ID).Return(proj, nil)
		projects.On("IsProjectMember", ctx, proj.ID, strangerID).Return(false, nil)

		_, err := svc.Assign(ctx, &actor, existing.ID, []uuid.UUID{strangerID})

		assert.ErrorIs(t, err, ErrNotAssignable)
	})

	t.Run("owner is assignable without a member row", func(t *testing.T) {
		svc, repo, projects := setupService(t)
		ctx := context.Background()
		actor := user.NewIdentity(uuid.New(), orgID, user.RoleManager)

		repo.On("GetByID", ctx, existing.ID).Return(existing, nil)
		projects.On("GetByID", ctx, proj.ID).Return(proj, nil)
		repo.On("Update", ctx, mock.AnythingOfType("*task.Task")).Return(nil)

		task, err := svc.Assign(ctx, &actor, existing.ID, []uuid.UUID{ownerID})

		require.NoError(t, err)
		assert.True(t, task.IsAssigned(ownerID))
	})

	t.Run("member role cannot assign", func(t *testing.T) {
		svc, _, _ := setupService(t)
		actor := user.NewIdentity(uuid.New(), orgID, user.RoleMember)

		_, err := svc.Assign(context.Background(), &actor, existing.ID, nil)

		assert.ErrorIs(t, err, sharederrors.ErrInsufficientPrivilege)
	})
}

func TestService_Delete(t *testing.T) {
	orgID := uuid.New()
	ownerID := uuid.New()
	proj := &project.Project{ID: uuid.New(), OrganizationID: orgID, OwnerID: ownerID, Active: true}

	t.Run("creator may delete own task", func(t *testing.T) {
		svc, repo, projects := setupService(t)
		ctx := context.Background()
		actor := user.NewIdentity(uuid.New(), orgID, user.RoleMember)
		task := &Task{ID: uuid.New(), OrganizationID: orgID, ProjectID: proj.ID, CreatedBy: actor.UserID}

		repo.On("GetByID", ctx, task.ID).Return(task, nil)
		projects.On("GetByID", ctx, proj.ID).Return(proj, nil)
		projects.On("IsProjectMember", ctx, proj.ID, actor.UserID).Return(true, nil)
		repo.On("Delete", ctx, task.ID).Return(nil)

		require.NoError(t, svc.Delete(ctx, &actor, task.ID))
	})

	t.Run("member cannot delete someone else's task", func(t *testing.T) {
		svc, repo, projects := setupService(t)
		ctx := context.Background()
		actor := user.NewIdentity(uuid.New(), orgID, user.RoleMember)
		task := &Task{ID: uuid.New(), OrganizationID: orgID, ProjectID: proj.ID, CreatedBy: uuid.New()}

		repo.On("GetByID", ctx, task.ID).Return(task, nil)
		projects.On("GetByID", ctx, proj.ID).Return(proj, nil)
		projects.On("IsProjectMember", ctx, proj.ID, actor.UserID).Return(true, nil)

		assert.ErrorIs(t, svc.Delete(ctx, &actor, task.ID), sharederrors.ErrInsufficientPrivilege)
	})
}
