package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/worklens/server/internal/module/auth"
)

// Mock implementations

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Create(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*User, error) {
	args := m.Called(ctx, orgID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*User), args.Error(1)
}

func (m *mockRepository) CountByOrganization(ctx context.Context, orgID uuid.UUID) (int, error) {
	args := m.Called(ctx, orgID)
	return args.Int(0), args.Error(1)
}

func (m *mockRepository) Update(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockRepository) UpdateRole(ctx context.Context, id uuid.UUID, role Role) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

func (m *mockRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockOrgProvisioner struct {
	mock.Mock
}

func (m *mockOrgProvisioner) Provision(ctx context.Context, name string, ownerID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, name, ownerID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

type mockInvitationRedeemer struct {
	mock.Mock
}

func (m *mockInvitationRedeemer) PreviewInvitation(ctx context.Context, email, token string) (uuid.UUID, Role, error) {
	args := m.Called(ctx, email, token)
	return args.Get(0).(uuid.UUID), args.Get(1).(Role), args.Error(2)
}

func (m *mockInvitationRedeemer) CompleteInvitation(ctx context.Context, actor *Identity, email, token string) error {
	args := m.Called(ctx, actor, email, token)
	return args.Error(0)
}

func setupService(t *testing.T) (*Service, *mockRepository, *mockOrgProvisioner) {
	svc, repo, orgs, _ := setupServiceWithInvites(t)
	return svc, repo, orgs
}

func setupServiceWithInvites(t *testing.T) (*Service, *mockRepository, *mockOrgProvisioner, *mockInvitationRedeemer) {
	t.Helper()
	repo := new(mockRepository)
	orgs := new(mockOrgProvisioner)
	invites := new(mockInvitationRedeemer)
	tokens := auth.NewJWTManager(&auth.JWTConfig{
		Secret:            "test-secret",
		AccessTokenExpiry: time.Hour,
	})
	svc := NewService(repo, orgs, invites, tokens, zap.NewNop())
	return svc, repo, orgs, invites
}

func activeUser(orgID uuid.UUID, role Role) *User {
	id := uuid.New()
	hash, _ := auth.HashPassword("correct horse")
	return &User{
		ID:             id,
		OrganizationID: &orgID,
		Email:          "user@example.com",
		Name:           "Test User",
		PasswordHash:   hash,
		Role:           role,
		Active:         true,
	}
}

func TestService_Register(t *testing.T) {
	t.Run("creates user and provisions organization", func(t *testing.T) {
		svc, repo, orgs := setupService(t)
		ctx := context.Background()
		orgID := uuid.New()

		repo.On("GetByEmail", ctx, "new@example.com").Return(nil, ErrUserNotFound)
		repo.On("Create", ctx, mock.AnythingOfType("*user.User")).Return(nil).Run(func(args mock.Arguments) {
			u := args.Get(1).(*User)
			u.ID = uuid.New()
		})
		orgs.On("Provision", ctx, "Acme", mock.AnythingOfType("uuid.UUID")).Return(orgID, nil)
		repo.On("Update", ctx, mock.AnythingOfType("*user.User")).Return(nil)

		resp, err := svc.Register(ctx, &RegisterRequest{
			Email:            "new@example.com",
			Name:             "New User",
			Password:         "super secret",
			OrganizationName: "Acme",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.Equal(t, RoleAdmin, resp.User.Role)
		require.NotNil(t, resp.User.OrganizationID)
		assert.Equal(t, orgID, *resp.User.OrganizationID)
		assert.True(t, resp.User.Permissions.CanManageOrganization)
		repo.AssertExpectations(t)
		orgs.AssertExpectations(t)
	})

	t.Run("invitation token joins the inviting organization", func(t *testing.T) {
		svc, repo, orgs, invites := setupServiceWithInvites(t)
		ctx := context.Background()
		orgID := uuid.New()
		token := "tok-0123456789abcdef"

		repo.On("GetByEmail", ctx, "invited@example.com").Return(nil, ErrUserNotFound)
		invites.On("PreviewInvitation", ctx, "invited@example.com", token).Return(orgID, RoleMember, nil)
		repo.On("Create", ctx, mock.AnythingOfType("*user.User")).Return(nil).Run(func(args mock.Arguments) {
			u := args.Get(1).(*User)
			u.ID = uuid.New()
			assert.Equal(t, orgID, *u.OrganizationID)
			assert.Equal(t, RoleMember, u.Role)
		})
		invites.On("CompleteInvitation", ctx, mock.AnythingOfType("*user.Identity"), "invited@example.com", token).Return(nil)

		resp, err := svc.Register(ctx, &RegisterRequest{
			Email:           "invited@example.com",
			Name:            "Invited User",
			Password:        "correct horse",
			InvitationToken: token,
		})

		require.NoError(t, err)
		assert.Equal(t, orgID, *resp.User.OrganizationID)
		assert.Equal(t, RoleMember, resp.User.Role)
		assert.False(t, resp.User.Permissions.CanManageOrganization)
		orgs.AssertNotCalled(t, "Provision", mock.Anything, mock.Anything, mock.Anything)
		invites.AssertExpectations(t)
	})

	t.Run("invited registration carries the invited role", func(t *testing.T) {
		svc, repo, _, invites := setupServiceWithInvites(t)
		ctx := context.Background()
		orgID := uuid.New()
		token := "tok-0123456789abcdef"

		repo.On("GetByEmail", ctx, "lead@example.com").Return(nil, ErrUserNotFound)
		invites.On("PreviewInvitation", ctx, "lead@example.com", token).Return(orgID, RoleManager, nil)
		repo.On("Create", ctx, mock.AnythingOfType("*user.User")).Return(nil).Run(func(args mock.Arguments) {
			args.Get(1).(*User).ID = uuid.New()
		})
		invites.On("CompleteInvitation", ctx, mock.AnythingOfType("*user.Identity"), "lead@example.com", token).
			Return(nil).Run(func(args mock.Arguments) {
			identity := args.Get(1).(*Identity)
			assert.Equal(t, orgID, identity.OrganizationID)
			assert.Equal(t, RoleManager, identity.Role)
		})

		resp, err := svc.Register(ctx, &RegisterRequest{
			Email:           "lead@example.com",
			Name:            "Team Lead",
			Password:        "correct horse",
			InvitationToken: token,
		})

		require.NoError(t, err)
		assert.Equal(t, RoleManager, resp.User.Role)
	})

	t.Run("invalid invitation token rejects registration", func(t *testing.T) {
		svc, repo, _, invites := setupServiceWithInvites(t)
		ctx := context.Background()

		repo.On("GetByEmail", ctx, "invited@example.com").Return(nil, ErrUserNotFound)
		invites.On("PreviewInvitation", ctx, "invited@example.com", "tok-0123456789abcdef").
			Return(uuid.Nil, Role(""), ErrInvitationInvalid)

		_, err := svc.Register(ctx, &RegisterRequest{
			Email:           "invited@example.com",
			Name:            "Invited User",
			Password:        "correct horse",
			InvitationToken: "tok-0123456789abcdef",
		})

		assert.ErrorIs(t, err, ErrInvitationInvalid)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		svc, repo, _ := setupService(t)
		ctx := context.Background()

		repo.On("GetByEmail", ctx, "taken@example.com").Return(activeUser(uuid.New(), RoleMember), nil)

		_, err := svc.Register(ctx, &RegisterRequest{
			Email:    "taken@example.com",
			Name:     "X",
			Password: "super secret",
		})

		assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	})
}

func TestService_Login(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, repo, _ := setupService(t)
		ctx := context.Background()
		u := activeUser(uuid.New(), RoleMember)

		repo.On("GetByEmail", ctx, u.Email).Return(u, nil)

		resp, err := svc.Login(ctx, &LoginRequest{Email: u.Email, Password: "correct horse"})

		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.Equal(t, u.ID, resp.User.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, repo, _ := setupService(t)
		ctx := context.Background()
		u := activeUser(uuid.New(), RoleMember)

		repo.On("GetByEmail", ctx, u.Email).Return(u, nil)

		_, err := svc.Login(ctx, &LoginRequest{Email: u.Email, Password: "wrong"})

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email reports invalid credentials", func(t *testing.T) {
		svc, repo, _ := setupService(t)
		ctx := context.Background()

		repo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, ErrUserNotFound)

		_, err := svc.Login(ctx, &LoginRequest{Email: "ghost@example.com", Password: "whatever"})

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("deactivated user cannot log in", func(t *testing.T) {
		svc, repo, _ := setupService(t)
		ctx := context.Background()
		u := activeUser(uuid.New(), RoleMember)
		u.Active = false

		repo.On("GetByEmail", ctx, u.Email).Return(u, nil)

		_, err := svc.Login(ctx, &LoginRequest{Email: u.Email, Password: "correct horse"})

		assert.ErrorIs(t, err, ErrUserInactive)
	})
}

func TestService_Get(t *testing.T) {
	t.Run("cross tenant lookup reads as not found", func(t *testing.T) {
		svc, repo, _ := setupService(t)
		ctx := context.Background()
		theirOrg := uuid.New()
		u := activeUser(theirOrg, RoleMember)

		repo.On("GetByID", ctx, u.ID).Return(u, nil)

		_, err := svc.Get(ctx, uuid.New(), u.ID)

		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("same tenant succeeds", func(t *testing.T) {
		svc, repo, _ := setupService(t)
		ctx := context.Background()
		orgID := uuid.New()
		u := activeUser(orgID, RoleMember)

		repo.On("GetByID", ctx, u.ID).Return(u, nil)

		got, err := svc.Get(ctx, orgID, u.ID)

		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
	})
}

func TestService_ChangeRole(t *testing.T) {
	orgID := uuid.New()

	t.Run("admin promotes member to manager", func(t *testing.T) {
		svc, repo, _ := setupService(t)
		ctx := context.Background()
		actor := NewIdentity(uuid.New(), orgID, RoleAdmin)
		target := activeUser(orgID, RoleMember)

		repo.On("GetByID", ctx, target.ID).Return(target, nil)
		repo.On("UpdateRole", ctx, target.ID, RoleManager).Return(nil)

		updated, err := svc.ChangeRole(ctx, &actor, target.ID, RoleManager)

		require.NoError(t, err)
		assert.Equal(t, RoleManager, updated.Role)
		assert.True(t, updated.Permissions().CanInviteMembers)
		repo.AssertExpectations(t)
	})

	t.Run("manager cannot change roles", func(t *testing.T) {
		svc, _, _ := setupService(t)
		actor := NewIdentity(uuid.New(), orgID, RoleManager)

		_, err := svc.ChangeRole(context.Background(), &actor, uuid.New(), RoleMember)

		assert.ErrorIs(t, err, ErrInsufficientPrivilege)
	})

	t.Run("admin cannot demote self", func(t *testing.T) {
		svc, _, _ := setupService(t)
		actorID := uuid.New()
		actor := NewIdentity(actorID, orgID, RoleAdmin)

		_, err := svc.ChangeRole(context.Background(), &actor, actorID, RoleMember)

		assert.ErrorIs(t, err, ErrCannotDemoteSelf)
	})

	t.Run("invalid role rejected", func(t *testing.T) {
		svc, _, _ := setupService(t)
		actor := NewIdentity(uuid.New(), orgID, RoleAdmin)

		_, err := svc.ChangeRole(context.Background(), &actor, uuid.New(), Role("superuser"))

		assert.ErrorIs(t, err, ErrInvalidRole)
	})

	t.Run("cross tenant target reads as not found", func(t *testing.T) {
		svc, repo, _ := setupService(t)
		ctx := context.Background()
		actor := NewIdentity(uuid.New(), orgID, RoleAdmin)
		target := activeUser(uuid.New(), RoleMember)

		repo.On("GetByID", ctx, target.ID).Return(target, nil)

		_, err := svc.ChangeRole(ctx, &actor, target.ID, RoleManager)

		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestService_Deactivate(t *testing.T) {
	orgID := uuid.New()

	t.Run("admin deactivates member", func(t *testing.T) {
		svc, repo, _ := setupService(t)
		ctx := context.Background()
		actor := NewIdentity(uuid.New(), orgID, RoleAdmin)
		target := activeUser(orgID, RoleMember)

		repo.On("GetByID", ctx, target.ID).Return(target, nil)
		repo.On("Deactivate", ctx, target.ID).Return(nil)

		err := svc.Deactivate(ctx, &actor, target.ID)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("member cannot deactivate anyone", func(t *testing.T) {
		svc, _, _ := setupService(t)
		actor := NewIdentity(uuid.New(), orgID, RoleMember)

		err := svc.Deactivate(context.Background(), &actor, uuid.New())

		assert.ErrorIs(t, err, ErrInsufficientPrivilege)
	})
}
