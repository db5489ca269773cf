package organization

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Mock implementations

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Create(ctx context.Context, org *Organization) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}

func (m *mockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Organization), args.Error(1)
}

func (m *mockRepository) GetBySlug(ctx context.Context, slug string) (*Organization, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Organization), args.Error(1)
}

func (m *mockRepository) Update(ctx context.Context, org *Organization) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}

func (m *mockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockCounter struct {
	mock.Mock
}

func (m *mockCounter) CountByOrganization(ctx context.Context, orgID uuid.UUID) (int, error) {
	args := m.Called(ctx, orgID)
	return args.Int(0), args.Error(1)
}

var testDefaults = Settings{
	MaxUsers:            50,
	MaxProjects:         100,
	DefaultWorkingHours: 8,
	WeekStartsOn:        1,
}

func setupService(t *testing.T) (*Service, *mockRepository, *mockCounter, *mockCounter) {
	t.Helper()
	repo := new(mockRepository)
	members := new(mockCounter)
	projects := new(mockCounter)
	svc := NewService(repo, testDefaults, zap.NewNop())
	svc.SetCounters(members, projects)
	return svc, repo, members, projects
}

func TestService_Provision(t *testing.T) {
	t.Run("creates organization with derived slug", func(t *testing.T) {
		svc, repo, _, _ := setupService(t)
		ctx := context.Background()
		ownerID := uuid.New()

		repo.On("Create", ctx, mock.AnythingOfType("*organization.Organization")).Return(nil).Run(func(args mock.Arguments) {
			org := args.Get(1).(*Organization)
			org.ID = uuid.New()
			assert.Equal(t, "acme-corp", org.Slug)
			assert.Equal(t, ownerID, org.OwnerID)
			assert.Equal(t, testDefaults, org.Settings)
		})

		id, err := svc.Provision(ctx, "Acme Corp!", ownerID)

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, id)
		repo.AssertExpectations(t)
	})

	t.Run("retries with suffix on slug collision", func(t *testing.T) {
		svc, repo, _, _ := setupService(t)
		ctx := context.Background()

		repo.On("Create", ctx, mock.AnythingOfType("*organization.Organization")).
			Return(ErrSlugAlreadyExists).Once()
		repo.On("Create", ctx, mock.AnythingOfType("*organization.Organization")).
			Return(nil).Once().Run(func(args mock.Arguments) {
			org := args.Get(1).(*Organization)
			org.ID = uuid.New()
			assert.Contains(t, org.Slug, "acme-")
			assert.Greater(t, len(org.Slug), len("acme"))
		})

		_, err := svc.Provision(ctx, "Acme", uuid.New())

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestService_UpdateSettings(t *testing.T) {
	orgID := uuid.New()

	existing := func() *Organization {
		return &Organization{ID: orgID, Name: "Acme", Slug: "acme", Settings: testDefaults}
	}

	t.Run("applies partial update", func(t *testing.T) {
		svc, repo, _, _ := setupService(t)
		ctx := context.Background()
		maxUsers := 10
		hours := 7.5

		repo.On("GetByID", ctx, orgID).Return(existing(), nil)
		repo.On("Update", ctx, mock.AnythingOfType("*organization.Organization")).Return(nil)

		org, err := svc.UpdateSettings(ctx, orgID, &UpdateRequest{
			MaxUsers:            &maxUsers,
			DefaultWorkingHours: &hours,
		})

		require.NoError(t, err)
		assert.Equal(t, 10, org.Settings.MaxUsers)
		assert.Equal(t, 7.5, org.Settings.DefaultWorkingHours)
		assert.Equal(t, 100, org.Settings.MaxProjects)
	})

	t.Run("accepts sunday week start", func(t *testing.T) {
		svc, repo, _, _ := setupService(t)
		ctx := context.Background()
		sunday := 7

		repo.On("GetByID", ctx, orgID).Return(existing(), nil)
		repo.On("Update", ctx, mock.AnythingOfType("*organization.Organization")).Return(nil)

		org, err := svc.UpdateSettings(ctx, orgID, &UpdateRequest{WeekStartsOn: &sunday})

		require.NoError(t, err)
		assert.Equal(t, 7, org.Settings.WeekStartsOn)
	})

	t.Run("rejects out of range week start", func(t *testing.T) {
		svc, repo, _, _ := setupService(t)
		ctx := context.Background()

		for _, day := range []int{0, 8} {
			repo.On("GetByID", ctx, orgID).Return(existing(), nil)

			_, err := svc.UpdateSettings(ctx, orgID, &UpdateRequest{WeekStartsOn: &day})

			assert.ErrorIs(t, err, ErrInvalidSettings)
		}
	})

	t.Run("normalizes feature toggles", func(t *testing.T) {
		svc, repo, _, _ := setupService(t)
		ctx := context.Background()

		repo.On("GetByID", ctx, orgID).Return(existing(), nil)
		repo.On("Update", ctx, mock.AnythingOfType("*organization.Organization")).Return(nil)

		features := []string{" Time-Tracking ", "REPORTING"}
		org, err := svc.UpdateSettings(ctx, orgID, &UpdateRequest{EnabledFeatures: &features})

		require.NoError(t, err)
		assert.Equal(t, []string{"time-tracking", "reporting"}, []string(org.Settings.EnabledFeatures))
		assert.True(t, org.FeatureEnabled("reporting"))
		assert.False(t, org.FeatureEnabled("billing"))
	})

	t.Run("rejects blank feature toggle", func(t *testing.T) {
		svc, repo, _, _ := setupService(t)
		ctx := context.Background()

		repo.On("GetByID", ctx, orgID).Return(existing(), nil)

		features := []string{"reporting", "  "}
		_, err := svc.UpdateSettings(ctx, orgID, &UpdateRequest{EnabledFeatures: &features})

		assert.ErrorIs(t, err, ErrInvalidSettings)
	})

	t.Run("rejects zero quota", func(t *testing.T) {
		svc, repo, _, _ := setupService(t)
		ctx := context.Background()
		zero := 0

		repo.On("GetByID", ctx, orgID).Return(existing(), nil)

		_, err := svc.UpdateSettings(ctx, orgID, &UpdateRequest{MaxUsers: &zero})

		assert.ErrorIs(t, err, ErrInvalidSettings)
	})
}

func TestService_Quotas(t *testing.T) {
	orgID := uuid.New()
	org := &Organization{ID: orgID, Settings: Settings{MaxUsers: 2, MaxProjects: 1}}

	t.Run("user quota available", func(t *testing.T) {
		svc, repo, members, _ := setupService(t)
		ctx := context.Background()

		repo.On("GetByID", ctx, orgID).Return(org, nil)
		members.On("CountByOrganization", ctx, orgID).Return(1, nil)

		assert.NoError(t, svc.EnsureUserCapacity(ctx, orgID))
	})

	t.Run("user quota exhausted", func(t *testing.T) {
		svc, repo, members, _ := setupService(t)
		ctx := context.Background()

		repo.On("GetByID", ctx, orgID).Return(org, nil)
		members.On("CountByOrganization", ctx, orgID).Return(2, nil)

		assert.ErrorIs(t, svc.EnsureUserCapacity(ctx, orgID), ErrUserQuotaExceeded)
	})

	t.Run("project quota exhausted", func(t *testing.T) {
		svc, repo, _, projects := setupService(t)
		ctx := context.Background()

		repo.On("GetByID", ctx, orgID).Return(org, nil)
		projects.On("CountByOrganization", ctx, orgID).Return(1, nil)

		assert.ErrorIs(t, svc.EnsureProjectCapacity(ctx, orgID), ErrProjectQuotaExceeded)
	})
}

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "Acme", "acme"},
		{"spaces and punctuation", "Acme Corp, Inc.", "acme-corp-inc"},
		{"leading and trailing separators", "  --Acme--  ", "acme"},
		{"empty falls back", "!!!", "org"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, generateSlug(tt.input))
		})
	}
}
