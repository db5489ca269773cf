package authz

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/worklens/server/internal/module/user"
	sharederrors "github.com/worklens/server/internal/shared/errors"
)

type mockMembership struct {
	mock.Mock
}

func (m *mockMembership) IsProjectMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, projectID, userID)
	return args.Bool(0), args.Error(1)
}

func TestEngine_Authorize(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	projectID := uuid.New()
	ownerID := uuid.New()

	resource := Resource{OrganizationID: orgID, OwnerID: ownerID}

	t.Run("cross tenant denied before everything else", func(t *testing.T) {
		members := new(mockMembership)
		engine := NewEngine(members, nil)
		// Even the resource owner is denied when acting from another org.
		actor := user.NewIdentity(ownerID, uuid.New(), user.RoleAdmin)

		d, err := engine.Authorize(ctx, &actor, projectID, resource, ActionView)

		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, DenyCrossTenant, d.Reason)
		// The membership store must never be consulted for a cross-tenant actor.
		members.AssertNotCalled(t, "IsProjectMember", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cross tenant deny maps to the not-found error", func(t *testing.T) {
		members := new(mockMembership)
		engine := NewEngine(members, nil)
		actor := user.NewIdentity(uuid.New(), uuid.New(), user.RoleAdmin)

		err := engine.Check(ctx, &actor, projectID, resource, ActionView)

		assert.ErrorIs(t, err, sharederrors.ErrCrossTenant)
	})

	t.Run("owner allowed without membership lookup", func(t *testing.T) {
		members := new(mockMembership)
		engine := NewEngine(members, nil)
		actor := user.NewIdentity(ownerID, orgID, user.RoleMember)

		d, err := engine.Authorize(ctx, &actor, projectID, resource, ActionDelete)

		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, AllowedOwner, d.Reason)
		members.AssertNotCalled(t, "IsProjectMember", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("blanket permission short-circuits membership", func(t *testing.T) {
		members := new(mockMembership)
		engine := NewEngine(members, nil)
		actor := user.NewIdentity(uuid.New(), orgID, user.RoleAdmin)

		d, err := engine.Authorize(ctx, &actor, projectID, resource, ActionView)

		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, AllowedBlanket, d.Reason)
		members.AssertNotCalled(t, "IsProjectMember", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("member allowed to view", func(t *testing.T) {
		members := new(mockMembership)
		engine := NewEngine(members, nil)
		actor := user.NewIdentity(uuid.New(), orgID, user.RoleMember)

		members.On("IsProjectMember", ctx, projectID, actor.UserID).Return(true, nil)

		d, err := engine.Authorize(ctx, &actor, projectID, resource, ActionView)

		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, AllowedMember, d.Reason)
	})

	t.Run("member denied destructive action", func(t *testing.T) {
		members := new(mockMembership)
		engine := NewEngine(members, nil)
		actor := user.NewIdentity(uuid.New(), orgID, user.RoleMember)

		d, err := engine.Authorize(ctx, &actor, projectID, resource, ActionDelete)

		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, DenyInsufficientPrivilege, d.Reason)
		// Membership cannot grant delete, so the store is not consulted.
		members.AssertNotCalled(t, "IsProjectMember", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("non-member denied view", func(t *testing.T) {
		members := new(mockMembership)
		engine := NewEngine(members, nil)
		actor := user.NewIdentity(uuid.New(), orgID, user.RoleMember)

		members.On("IsProjectMember", ctx, projectID, actor.UserID).Return(false, nil)

		err := engine.Check(ctx, &actor, projectID, resource, ActionView)

		assert.ErrorIs(t, err, sharederrors.ErrInsufficientPrivilege)
	})

	t.Run("tracking has no blanket grant", func(t *testing.T) {
		members := new(mockMembership)
		engine := NewEngine(members, nil)
		// Admin holds every permission yet still needs project access to track.
		actor := user.NewIdentity(uuid.New(), orgID, user.RoleAdmin)

		members.On("IsProjectMember", ctx, projectID, actor.UserID).Return(false, nil)

		d, err := engine.Authorize(ctx, &actor, projectID, resource, ActionTrack)

		require.NoError(t, err)
		assert.False(t, d.Allowed)
	})
}

func TestDecision_Err(t *testing.T) {
	assert.NoError(t, Decision{Allowed: true, Reason: AllowedOwner}.Err())
	assert.ErrorIs(t, Decision{Reason: DenyCrossTenant}.Err(), sharederrors.ErrCrossTenant)
	assert.ErrorIs(t, Decision{Reason: DenyInsufficientPrivilege}.Err(), sharederrors.ErrInsufficientPrivilege)
}
