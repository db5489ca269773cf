package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/worklens/server/internal/module/authz"
	"github.com/worklens/server/internal/module/user"
	sharederrors "github.com/worklens/server/internal/shared/errors"
)

// Mock implementations

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return fn(m)
}

func (m *mockRepository) CreateEntry(ctx context.Context, entry *TimeEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockRepository) GetEntryByID(ctx context.Context, id uuid.UUID) (*TimeEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TimeEntry), args.Error(1)
}

func (m *mockRepository) GetRunningEntryByUser(ctx context.Context, userID uuid.UUID) (*TimeEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TimeEntry), args.Error(1)
}

func (m *mockRepository) ListEntries(ctx context.Context, actor *user.Identity, filter EntryFilter, limit, offset int) ([]*TimeEntry, error) {
	args := m.Called(ctx, actor, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*TimeEntry), args.Error(1)
}

func (m *mockRepository) ListEntriesForRange(ctx context.Context, orgID uuid.UUID, projectIDs []uuid.UUID, userID *uuid.UUID, from, to time.Time) ([]*TimeEntry, error) {
	args := m.Called(ctx, orgID, projectIDs, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*TimeEntry), args.Error(1)
}

func (m *mockRepository) UpdateEntry(ctx context.Context, entry *TimeEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockRepository) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRepository) CreateBreak(ctx context.Context, brk *Break) error {
	args := m.Called(ctx, brk)
	return args.Error(0)
}

func (m *mockRepository) GetBreakByID(ctx context.Context, id uuid.UUID) (*Break, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Break), args.Error(1)
}

func (m *mockRepository) ListBreaksByEntry(ctx context.Context, entryID uuid.UUID) ([]*Break, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Break), args.Error(1)
}

func (m *mockRepository) ListBreaksForRange(ctx context.Context, orgID uuid.UUID, projectIDs []uuid.UUID, userID *uuid.UUID, from, to time.Time) ([]*Break, error) {
	args := m.Called(ctx, orgID, projectIDs, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Break), args.Error(1)
}

func (m *mockRepository) UpdateBreak(ctx context.Context, brk *Break) error {
	args := m.Called(ctx, brk)
	return args.Error(0)
}

func (m *mockRepository) DeleteBreak(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRepository) DeleteBreaksByEntry(ctx context.Context, entryID uuid.UUID) error {
	args := m.Called(ctx, entryID)
	return args.Error(0)
}

func (m *mockRepository) SumFinalizedBreakSeconds(ctx context.Context, entryID uuid.UUID) (int64, error) {
	args := m.Called(ctx, entryID)
	return args.Get(0).(int64), args.Error(1)
}

type mockProjectSource struct {
	mock.Mock
}

func (m *mockProjectSource) ListActiveIDsByOrganization(ctx context.Context, orgID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *mockProjectSource) ListAccessibleIDs(ctx context.Context, orgID, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, orgID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type mockTaskDirectory struct {
	mock.Mock
}

func (m *mockTaskDirectory) ProjectIDForTask(ctx context.Context, taskID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, taskID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 9, hour, minute, 0, 0, time.UTC)
}

func memberIdentity(orgID uuid.UUID) user.Identity {
	return user.NewIdentity(uuid.New(), orgID, user.RoleMember)
}

func setupEntryService(repo *mockRepository, projects *mockProjectSource, tasks *mockTaskDirectory) *EntryService {
	resolver := authz.NewResolver(projects)
	return NewEntryService(repo, resolver, tasks, nil, zap.NewNop())
}

func TestEntryService_Start(t *testing.T) {
	orgID := uuid.New()
	projectID := uuid.New()

	t.Run("starts running entry in accessible project", func(t *testing.T) {
		repo := new(mockRepository)
		projects := new(mockProjectSource)
		svc := setupEntryService(repo, projects, new(mockTaskDirectory))
		svc.now = func() time.Time { return at(9, 0) }

		actor := memberIdentity(orgID)
		projects.On("ListAccessibleIDs", mock.Anything, orgID, actor.UserID).
			Return([]uuid.UUID{projectID}, nil)
		repo.On("CreateEntry", mock.Anything, mock.AnythingOfType("*tracking.TimeEntry")).
			Return(nil)

		entry, err := svc.Start(context.Background(), &actor, &StartRequest{
			ProjectID: projectID,
			Billable:  true,
		})
		require.NoError(t, err)
		assert.True(t, entry.IsRunning)
		assert.Nil(t, entry.EndTime)
		assert.Equal(t, at(9, 0), entry.StartTime)
		assert.Equal(t, orgID, entry.OrganizationID)
		assert.True(t, entry.Billable)
	})

	t.Run("denies project outside accessible set", func(t *testing.T) {
		repo := new(mockRepository)
		projects := new(mockProjectSource)
		svc := setupEntryService(repo, projects, new(mockTaskDirectory))

		actor := memberIdentity(orgID)
		projects.On("ListAccessibleIDs", mock.Anything, orgID, actor.UserID).
			Return([]uuid.UUID{}, nil)

		_, err := svc.Start(context.Background(), &actor, &StartRequest{ProjectID: projectID})
		assert.ErrorIs(t, err, ErrProjectNotTrackable)
		repo.AssertNotCalled(t, "CreateEntry", mock.Anything, mock.Anything)
	})

	t.Run("admin without project access cannot track", func(t *testing.T) {
		// Blanket permissions never grant tracking; the admin must own or
		// belong to the project.
		repo := new(mockRepository)
		projects := new(mockProjectSource)
		svc := setupEntryService(repo, projects, new(mockTaskDirectory))

		admin := user.NewIdentity(uuid.New(), orgID, user.RoleAdmin)
		projects.On("ListActiveIDsByOrganization", mock.Anything, orgID).
			Return([]uuid.UUID{}, nil)

		_, err := svc.Start(context.Background(), &admin, &StartRequest{ProjectID: projectID})
		assert.ErrorIs(t, err, ErrProjectNotTrackable)
	})

	t.Run("second running entry surfaces as conflict", func(t *testing.T) {
		repo := new(mockRepository)
		projects := new(mockProjectSource)
		svc := setupEntryService(repo, projects, new(mockTaskDirectory))

		actor := memberIdentity(orgID)
		projects.On("ListAccessibleIDs", mock.Anything, orgID, actor.UserID).
			Return([]uuid.UUID{projectID}, nil)
		repo.On("CreateEntry", mock.Anything, mock.Anything).Return(ErrEntryAlreadyRunning)

		_, err := svc.Start(context.Background(), &actor, &StartRequest{ProjectID: projectID})
		assert.ErrorIs(t, err, ErrEntryAlreadyRunning)
	})

	t.Run("rejects task from another project", func(t *testing.T) {
		repo := new(mockRepository)
		projects := new(mockProjectSource)
		tasks := new(mockTaskDirectory)
		svc := setupEntryService(repo, projects, tasks)

		actor := memberIdentity(orgID)
		taskID := uuid.New()
		projects.On("ListAccessibleIDs", mock.Anything, orgID, actor.UserID).
			Return([]uuid.UUID{projectID}, nil)
		tasks.On("ProjectIDForTask", mock.Anything, taskID).Return(uuid.New(), nil)

		_, err := svc.Start(context.Background(), &actor, &StartRequest{
			ProjectID: projectID,
			TaskID:    &taskID,
		})
		assert.ErrorIs(t, err, ErrTaskNotInProject)
	})
}

func TestEntryService_Stop(t *testing.T) {
	orgID := uuid.New()

	t.Run("stops running entry and computes duration", func(t *testing.T) {
		repo := new(mockRepository)
		svc := setupEntryService(repo, new(mockProjectSource), new(mockTaskDirectory))
		svc.now = func() time.Time { return at(11, 0) }

		actor := memberIdentity(orgID)
		entry := &TimeEntry{
			ID:             uuid.New(),
			OrganizationID: orgID,
			UserID:         actor.UserID,
			StartTime:      at(9, 0),
			IsRunning:      true,
		}
		repo.On("GetEntryByID", mock.Anything, entry.ID).Return(entry, nil)
		repo.On("UpdateEntry", mock.Anything, entry).Return(nil)

		stopped, err := svc.Stop(context.Background(), &actor, entry.ID)
		require.NoError(t, err)
		assert.False(t, stopped.IsRunning)
		assert.Equal(t, int64(7200), stopped.DurationSeconds)
		require.NotNil(t, stopped.EndTime)
		assert.Equal(t, at(11, 0), *stopped.EndTime)
	})

	t.Run("stopped entry cannot be stopped again", func(t *testing.T) {
		repo := new(mockRepository)
		svc := setupEntryService(repo, new(mockProjectSource), new(mockTaskDirectory))

		actor := memberIdentity(orgID)
		end := at(10, 0)
		entry := &TimeEntry{
			ID:             uuid.New(),
			OrganizationID: orgID,
			UserID:         actor.UserID,
			StartTime:      at(9, 0),
			EndTime:        &end,
		}
		repo.On("GetEntryByID", mock.Anything, entry.ID).Return(entry, nil)

		_, err := svc.Stop(context.Background(), &actor, entry.ID)
		assert.ErrorIs(t, err, ErrEntryNotRunning)
	})

	t.Run("entry on break must end the break first", func(t *testing.T) {
		repo := new(mockRepository)
		svc := setupEntryService(repo, new(mockProjectSource), new(mockTaskDirectory))

		actor := memberIdentity(orgID)
		entry := &TimeEntry{
			ID:             uuid.New(),
			OrganizationID: orgID,
			UserID:         actor.UserID,
			StartTime:      at(9, 0),
			IsRunning:      true,
			IsOnBreak:      true,
		}
		repo.On("GetEntryByID", mock.Anything, entry.ID).Return(entry, nil)

		_, err := svc.Stop(context.Background(), &actor, entry.ID)
		assert.ErrorIs(t, err, ErrEntryOnBreak)
		repo.AssertNotCalled(t, "UpdateEntry", mock.Anything, mock.Anything)
	})

	t.Run("cross-tenant entry reads as missing", func(t *testing.T) {
		repo := new(mockRepository)
		svc := setupEntryService(repo, new(mockProjectSource), new(mockTaskDirectory))

		actor := memberIdentity(orgID)
		entry := &TimeEntry{
			ID:             uuid.New(),
			OrganizationID: uuid.New(),
			UserID:         actor.UserID,
			IsRunning:      true,
		}
		repo.On("GetEntryByID", mock.Anything, entry.ID).Return(entry, nil)

		_, err := svc.Stop(context.Background(), &actor, entry.ID)
		assert.ErrorIs(t, err, ErrEntryNotFound)
	})

	t.Run("admin cannot stop someone else's entry", func(t *testing.T) {
		repo := new(mockRepository)
		svc := setupEntryService(repo, new(mockProjectSource), new(mockTaskDirectory))

		admin := user.NewIdentity(uuid.New(), orgID, user.RoleAdmin)
		entry := &TimeEntry{
			ID:             uuid.New(),
			OrganizationID: orgID,
			UserID:         uuid.New(),
			IsRunning:      true,
		}
		repo.On("GetEntryByID", mock.Anything, entry.ID).Return(entry, nil)

		_, err := svc.Stop(context.Background(), &admin, entry.ID)
		assert.ErrorIs(t, err, sharederrors.ErrInsufficientPrivilege)
	})
}

func TestEntryService_Edit(t *testing.T) {
	orgID := uuid.New()

	t.Run("setting end time implicitly stops a running entry", func(t *testing.T) {
		repo := new(mockRepository)
		svc := setupEntryService(repo, new(mockProjectSource), new(mockTaskDirectory))

		actor := memberIdentity(orgID)
		entry := &TimeEntry{
			ID:             uuid.New(),
			OrganizationID: orgID,
			UserID:         actor.UserID,
			StartTime:      at(9, 0),
			IsRunning:      true,
		}
		repo.On("GetEntryByID", mock.Anything, entry.ID).Return(entry, nil)
		repo.On("UpdateEntry", mock.Anything, entry).Return(nil)

		end := at(10, 30)
		edited, err := svc.Edit(context.Background(), &actor, entry.ID, &UpdateEntryRequest{
			EndTime: &end,
		})
		require.NoError(t, err)
		assert.False(t, edited.IsRunning)
		assert.Equal(t, int64(5400), edited.DurationSeconds)
	})

	t.Run("editing a stopped entry never restarts it", func(t *testing.T) {
		repo := new(mockRepository)
		svc := setupEntryService(repo, new(mockProjectSource), new(mockTaskDirectory))

		actor := memberIdentity(orgID)
		end := at(11, 0)
		entry := &TimeEntry{
			ID:              uuid.New(),
			OrganizationID:  orgID,
			UserID:          actor.UserID,
			StartTime:       at(9, 0),
			EndTime:         &end,
			DurationSeconds: 7200,
		}
		repo.On("GetEntryByID", mock.Anything, entry.ID).Return(entry, nil)
		repo.On("UpdateEntry", mock.Anything, entry).Return(nil)

		desc := "code review"
		edited, err := svc.Edit(context.Background(), &actor, entry.ID, &UpdateEntryRequest{
			Description: &desc,
		})
		require.NoError(t, err)
		assert.False(t, edited.IsRunning)
		assert.Equal(t, int64(7200), edited.DurationSeconds)
	})

	t.Run("recomputed duration is idempotent", func(t *testing.T) {
		repo := new(mockRepository)
		svc := setupEntryService(repo, new(mockProjectSource), new(mockTaskDirectory))

		actor := memberIdentity(orgID)
		end := at(11, 0)
		entry := &TimeEntry{
			ID:              uuid.New(),
			OrganizationID:  orgID,
			UserID:          actor.UserID,
			StartTime:       at(9, 0),
			EndTime:         &end,
			DurationSeconds: 7200,
		}
		repo.On("GetEntryByID", mock.Anything, entry.ID).Return(entry, nil)
		repo.On("UpdateEntry", mock.Anything, entry).Return(nil)

		for i := 0; i < 3; i++ {
			desc := "same edit"
			edited, err := svc.Edit(context.Background(), &actor, entry.ID, &UpdateEntryRequest{
				Description: &desc,
			})
			require.NoError(t, err)
			assert.Equal(t, int64(7200), edited.DurationSeconds)
		}
	})

	t.Run("end before start is rejected", func(t *testing.T) {
		repo := new(mockRepository)
		svc := setupEntryService(repo, new(mockProjectSource), new(mockTaskDirectory))

		actor := memberIdentity(orgID)
		entry := &TimeEntry{
			ID:             uuid.New(),
			OrganizationID: orgID,
			UserID:         actor.UserID,
			StartTime:      at(9, 0),
			IsRunning:      true,
		}
		repo.On("GetEntryByID", mock.Anything, entry.ID).Return(entry, nil)

		end := at(8, 0)
		_, err := svc.Edit(context.Background(), &actor, entry.ID, &UpdateEntryRequest{
			EndTime: &end,
		})
		assert.ErrorIs(t, err, ErrInvalidTimeRange)
	})
}

func TestEntryService_Get(t *testing.T) {
	orgID := uuid.New()

	t.Run("blanket viewer sees another user's entry", func(t *testing.T) {
		repo := new(mockRepository)
		svc := setupEntryService(repo, new(mockProjectSource), new(mockTaskDirectory))

		manager := user.NewIdentity(uuid.New(), orgID, user.RoleManager)
		entry := &TimeEntry{ID: uuid.New(), OrganizationID: orgID, UserID: uuid.New()}
		repo.On("GetEntryByID", mock.Anything, entry.ID).Return(entry, nil)

		got, err := svc.Get(context.Background(), &manager, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, entry.ID, got.ID)
	})

	t.Run("member cannot see another user's entry", func(t *testing.T) {
		repo := new(mockRepository)
		svc := setupEntryService(repo, new(mockProjectSource), new(mockTaskDirectory))

		actor := memberIdentity(orgID)
		entry := &TimeEntry{ID: uuid.New(), OrganizationID: orgID, UserID: uuid.New()}
		repo.On("GetEntryByID", mock.Anything, entry.ID).Return(entry, nil)

		_, err := svc.Get(context.Background(), &actor, entry.ID)
		assert.ErrorIs(t, err, sharederrors.ErrInsufficientPrivilege)
	})

	t.Run("cross-tenant entry is missing even for blanket viewer", func(t *testing.T) {
		repo := new(mockRepository)
		svc := setupEntryService(repo, new(mockProjectSource), new(mockTaskDirectory))

		admin := user.NewIdentity(uuid.New(), orgID, user.RoleAdmin)
		entry := &TimeEntry{ID: uuid.New(), OrganizationID: uuid.New(), UserID: uuid.New()}
		repo.On("GetEntryByID", mock.Anything, entry.ID).Return(entry, nil)

		_, err := svc.Get(context.Background(), &admin, entry.ID)
		assert.ErrorIs(t, err, ErrEntryNotFound)
	})
}

func TestBreakService_StartBreak(t *testing.T) {
	orgID := uuid.New()

	t.Run("opens break and flags the entry", func(t *testing.T) {
		repo := new(mockRepository)
		svc := NewBreakService(repo, nil, zap.NewNop())
		svc.now = func() time.Time { return at(9, 30) }

		actor := memberIdentity(orgID)
		entry := &TimeEntry{
			ID:             uuid.New(),
			OrganizationID: orgID,
			UserID:         actor.UserID,
			ProjectID:      uuid.New(),
			StartTime:      at(9, 0),
			IsRunning:      true,
		}
		repo.On("GetEntryByID", mock.Anything, entry.ID).Return(entry, nil)
		repo.On("CreateBreak", mock.Anything, mock.AnythingOfType("*tracking.Break")).Return(nil)
		repo.On("UpdateEntry", mock.Anything, entry).Return(nil)

		brk, err := svc.StartBreak(context.Background(), &actor, entry.ID, &StartBreakRequest{
			Type: BreakTypeLunch,
		})
		require.NoError(t, err)
		assert.True(t, brk.Active)
		assert.Equal(t, BreakTypeLunch, brk.Type)
		assert.Equal(t, entry.ProjectID, brk.ProjectID)
		assert.True(t, brk.Paid)
		assert.True(t, entry.IsOnBreak)
	})

	t.Run("entry must be running", func(t *testing.T) {
		repo := new(mockRepository)
		svc := NewBreakService(repo, nil, zap.NewNop())

		actor := memberIdentity(orgID)
		entry := &TimeEntry{
			ID:             uuid.New(),
			OrganizationID: orgID,
			UserID:         actor.UserID,
		}
		repo.On("GetEntryByID", mock.Anything, entry.ID).Return(entry, nil)

		_, err := svc.StartBreak(context.Background(), &actor, entry.ID, &StartBreakRequest{})
		assert.ErrorIs(t, err, ErrEntryNotRunning)
	})

	t.Run("second active break surfaces as conflict", func(t *testing.T) {
		repo := new(mockRepository)
		svc := NewBreakService(repo, nil, zap.NewNop())

		actor := memberIdentity(orgID)
		entry := &TimeEntry{
			ID:             uuid.New(),
			OrganizationID: orgID,
			UserID:         actor.UserID,
			IsRunning:      true,
		}
		repo.On("GetEntryByID", mock.Anything, entry.ID).Return(entry, nil)
		repo.On("CreateBreak", mock.Anything, mock.Anything).Return(ErrBreakAlreadyActive)

		_, err := svc.StartBreak(context.Background(), &actor, entry.ID, &StartBreakRequest{})
		assert.ErrorIs(t, err, ErrBreakAlreadyActive)
	})

	t.Run("unknown break type is rejected", func(t *testing.T) {
		repo := new(mockRepository)
		svc := NewBreakService(repo, nil, zap.NewNop())

		actor := memberIdentity(orgID)
		_, err := svc.StartBreak(context.Background(), &actor, uuid.New(), &StartBreakRequest{
			Type: BreakType("siesta"),
		})
		assert.ErrorIs(t, err, ErrInvalidBreakType)
	})
}

func TestBreakService_EndBreak(t *testing.T) {
	orgID := uuid.New()

	t.Run("finalizes break and refreshes the entry", func(t *testing.T) {
		repo := new(mockRepository)
		svc := NewBreakService(repo, nil, zap.NewNop())
		svc.now = func() time.Time { return at(9, 45) }

		actor := memberIdentity(orgID)
		entry := &TimeEntry{
			ID:             uuid.New(),
			OrganizationID: orgID,
			UserID:         actor.UserID,
			IsRunning:      true,
			IsOnBreak:      true,
		}
		brk := &Break{
			ID:             uuid.New(),
			OrganizationID: orgID,
			UserID:         actor.UserID,
			TimeEntryID:    entry.ID,
			StartTime:      at(9, 30),
			Active:         true,
		}
		repo.On("GetBreakByID", mock.Anything, brk.ID).Return(brk, nil)
		repo.On("UpdateBreak", mock.Anything, brk).Return(nil)
		repo.On("GetEntryByID", mock.Anything, entry.ID).Return(entry, nil)
		repo.On("SumFinalizedBreakSeconds", mock.Anything, entry.ID).Return(int64(900), nil)
		repo.On("ListBreaksByEntry", mock.Anything, entry.ID).Return([]*Break{brk}, nil)
		repo.On("UpdateEntry", mock.Anything, entry).Return(nil)

		ended, err := svc.EndBreak(context.Background(), &actor, brk.ID)
		require.NoError(t, err)
		assert.False(t, ended.Active)
		assert.Equal(t, int64(900), ended.DurationSeconds)
		assert.Equal(t, int64(900), entry.TotalBreakSecs)
		assert.False(t, entry.IsOnBreak)
	})

	t.Run("inactive break cannot be ended", func(t *testing.T) {
		repo := new(mockRepository)
		svc := NewBreakService(repo, nil, zap.NewNop())

		actor := memberIdentity(orgID)
		brk := &Break{ID: uuid.New(), OrganizationID: orgID, UserID: actor.UserID}
		repo.On("GetBreakByID", mock.Anything, brk.ID).Return(brk, nil)

		_, err := svc.EndBreak(context.Background(), &actor, brk.ID)
		assert.ErrorIs(t, err, ErrBreakNotActive)
	})

	t.Run("only the owner may end a break", func(t *testing.T) {
		repo := new(mockRepository)
		svc := NewBreakService(repo, nil, zap.NewNop())

		admin := user.NewIdentity(uuid.New(), orgID, user.RoleAdmin)
		brk := &Break{ID: uuid.New(), OrganizationID: orgID, UserID: uuid.New(), Active: true}
		repo.On("GetBreakByID", mock.Anything, brk.ID).Return(brk, nil)

		_, err := svc.EndBreak(context.Background(), &admin, brk.ID)
		assert.ErrorIs(t, err, sharederrors.ErrInsufficientPrivilege)
	})
}

func TestBreakService_DeleteBreak(t *testing.T) {
	orgID := uuid.New()

	t.Run("deleting the active break frees the entry", func(t *testing.T) {
		repo := new(mockRepository)
		svc := NewBreakService(repo, nil, zap.NewNop())

		actor := memberIdentity(orgID)
		entry := &TimeEntry{
			ID:             uuid.New(),
			OrganizationID: orgID,
			UserID:         actor.UserID,
			IsRunning:      true,
			IsOnBreak:      true,
			TotalBreakSecs: 300,
		}
		brk := &Break{
			ID:             uuid.New(),
			OrganizationID: orgID,
			UserID:         actor.UserID,
			TimeEntryID:    entry.ID,
			Active:         true,
		}
		repo.On("GetBreakByID", mock.Anything, brk.ID).Return(brk, nil)
		repo.On("DeleteBreak", mock.Anything, brk.ID).Return(nil)
		repo.On("GetEntryByID", mock.Anything, entry.ID).Return(entry, nil)
		repo.On("SumFinalizedBreakSeconds", mock.Anything, entry.ID).Return(int64(0), nil)
		repo.On("ListBreaksByEntry", mock.Anything, entry.ID).Return([]*Break{}, nil)
		repo.On("UpdateEntry", mock.Anything, entry).Return(nil)

		err := svc.DeleteBreak(context.Background(), &actor, brk.ID)
		require.NoError(t, err)
		assert.False(t, entry.IsOnBreak)
		assert.Equal(t, int64(0), entry.TotalBreakSecs)
	})
}

// TestTrackingScenario_MorningWithLunchBreak drives a full morning through
// the lifecycle: start at 09:00, break 09:30 to 09:45, stop at 11:00. The
// entry ends with a 7200 second span and 900 seconds of break.
func TestTrackingScenario_MorningWithLunchBreak(t *testing.T) {
	orgID := uuid.New()
	projectID := uuid.New()
	actor := memberIdentity(orgID)

	repo := new(mockRepository)
	projects := new(mockProjectSource)
	entrySvc := setupEntryService(repo, projects, new(mockTaskDirectory))
	breakSvc := NewBreakService(repo, nil, zap.NewNop())

	projects.On("ListAccessibleIDs", mock.Anything, orgID, actor.UserID).
		Return([]uuid.UUID{projectID}, nil)
	repo.On("CreateEntry", mock.Anything, mock.AnythingOfType("*tracking.TimeEntry")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*TimeEntry).ID = uuid.New()
		}).Return(nil)
	repo.On("CreateBreak", mock.Anything, mock.AnythingOfType("*tracking.Break")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*Break).ID = uuid.New()
		}).Return(nil)
	repo.On("UpdateEntry", mock.Anything, mock.Anything).Return(nil)
	repo.On("UpdateBreak", mock.Anything, mock.Anything).Return(nil)

	// 09:00 start
	entrySvc.now = func() time.Time { return at(9, 0) }
	entry, err := entrySvc.Start(context.Background(), &actor, &StartRequest{ProjectID: projectID})
	require.NoError(t, err)
	repo.On("GetEntryByID", mock.Anything, entry.ID).Return(entry, nil)

	// 09:30 break
	breakSvc.now = func() time.Time { return at(9, 30) }
	brk, err := breakSvc.StartBreak(context.Background(), &actor, entry.ID, &StartBreakRequest{
		Type: BreakTypeLunch,
	})
	require.NoError(t, err)
	require.True(t, entry.IsOnBreak)
	repo.On("GetBreakByID", mock.Anything, brk.ID).Return(brk, nil)

	// 09:45 back to work
	breakSvc.now = func() time.Time { return at(9, 45) }
	repo.On("SumFinalizedBreakSeconds", mock.Anything, entry.ID).Return(int64(900), nil)
	repo.On("ListBreaksByEntry", mock.Anything, entry.ID).Return([]*Break{brk}, nil)
	ended, err := breakSvc.EndBreak(context.Background(), &actor, brk.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(900), ended.DurationSeconds)
	assert.False(t, entry.IsOnBreak)

	// 11:00 stop
	entrySvc.now = func() time.Time { return at(11, 0) }
	stopped, err := entrySvc.Stop(context.Background(), &actor, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7200), stopped.DurationSeconds)
	assert.Equal(t, int64(900), stopped.TotalBreakSecs)
	assert.False(t, stopped.IsRunning)

	// read-time elapsed matches the stored duration once stopped
	assert.Equal(t, int64(7200), stopped.ElapsedSeconds(at(12, 0)))
}

func TestDurationSeconds(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int64
	}{
		{"two hours", at(9, 0), at(11, 0), 7200},
		{"floors sub-second remainder", at(9, 0), at(9, 0).Add(1500 * time.Millisecond), 1},
		{"zero span", at(9, 0), at(9, 0), 0},
		{"negative span clamps to zero", at(11, 0), at(9, 0), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, durationSeconds(tt.start, tt.end))
		})
	}
}
