package organization

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// MemberCounter reports how many active users an organization has.
type MemberCounter interface {
	CountByOrganization(ctx context.Context, orgID uuid.UUID) (int, error)
}

// ProjectCounter reports how many live projects an organization has.
type ProjectCounter interface {
	CountByOrganization(ctx context.Context, orgID uuid.UUID) (int, error)
}

// Service handles organization business logic.
type Service struct {
	repo     Repository
	members  MemberCounter
	projects ProjectCounter
	defaults Settings
	logger   *zap.Logger
}

// NewService creates a new organization service. The counters may be set
// later via SetCounters to break the construction-order dependency on the
// user and project modules.
func NewService(repo Repository, defaults Settings, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		defaults: defaults,
		logger:   logger,
	}
}

// SetCounters wires the quota counters.
func (s *Service) SetCounters(members MemberCounter, projects ProjectCounter) {
	s.members = members
	s.projects = projects
}

// Provision creates a new organization for a freshly registered account.
// The slug is derived from the name; on collision a short random suffix
// is appended rather than failing the registration.
func (s *Service) Provision(ctx context.Context, name string, ownerID uuid.UUID) (uuid.UUID, error) {
	org := &Organization{
		Name:     name,
		Slug:     generateSlug(name),
		OwnerID:  ownerID,
		Settings: s.defaults,
	}

	err := s.repo.Create(ctx, org)
	if errors.Is(err, ErrSlugAlreadyExists) {
		org.ID = uuid.Nil
		org.Slug = fmt.Sprintf("%s-%s", org.Slug, uuid.NewString()[:8])
		err = s.repo.Create(ctx, org)
	}
	if err != nil {
		return uuid.Nil, err
	}

	s.logger.Info("organization provisioned",
		zap.String("org_id", org.ID.String()),
		zap.String("slug", org.Slug))

	return org.ID, nil
}

// Get retrieves the caller's organization.
func (s *Service) Get(ctx context.Context, orgID uuid.UUID) (*Organization, error) {
	return s.repo.GetByID(ctx, orgID)
}

// UpdateSettings updates tenant-wide settings and the display name.
func (s *Service) UpdateSettings(ctx context.Context, orgID uuid.UUID, req *UpdateRequest) (*Organization, error) {
	org, err := s.repo.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		org.Name = *req.Name
	}
	if req.MaxUsers != nil {
		if *req.MaxUsers < 1 {
			return nil, ErrInvalidSettings
		}
		org.Settings.MaxUsers = *req.MaxUsers
	}
	if req.MaxProjects != nil {
		if *req.MaxProjects < 1 {
			return nil, ErrInvalidSettings
		}
		org.Settings.MaxProjects = *req.MaxProjects
	}
	if req.DefaultWorkingHours != nil {
		if *req.DefaultWorkingHours <= 0 || *req.DefaultWorkingHours > 24 {
			return nil, ErrInvalidSettings
		}
		org.Settings.DefaultWorkingHours = *req.DefaultWorkingHours
	}
	if req.WeekStartsOn != nil {
		// ISO weekday numbering, 1 = Monday through 7 = Sunday.
		if *req.WeekStartsOn < 1 || *req.WeekStartsOn > 7 {
			return nil, ErrInvalidSettings
		}
		org.Settings.WeekStartsOn = *req.WeekStartsOn
	}
	if req.EnabledFeatures != nil {
		features := make([]string, 0, len(*req.EnabledFeatures))
		for _, f := range *req.EnabledFeatures {
			f = strings.ToLower(strings.TrimSpace(f))
			if f == "" {
				return nil, ErrInvalidSettings
			}
			features = append(features, f)
		}
		org.Settings.EnabledFeatures = pq.StringArray(features)
	}
	org.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

// EnsureUserCapacity returns ErrUserQuotaExceeded when adding one more
// user would exceed the organization's MaxUsers setting.
func (s *Service) EnsureUserCapacity(ctx context.Context, orgID uuid.UUID) error {
	org, err := s.repo.GetByID(ctx, orgID)
	if err != nil {
		return err
	}

	count, err := s.members.CountByOrganization(ctx, orgID)
	if err != nil {
		return err
	}
	if count >= org.Settings.MaxUsers {
		return ErrUserQuotaExceeded
	}
	return nil
}

// EnsureProjectCapacity returns ErrProjectQuotaExceeded when adding one
// more project would exceed the organization's MaxProjects setting.
func (s *Service) EnsureProjectCapacity(ctx context.Context, orgID uuid.UUID) error {
	org, err := s.repo.GetByID(ctx, orgID)
	if err != nil {
		return err
	}

	count, err := s.projects.CountByOrganization(ctx, orgID)
	if err != nil {
		return err
	}
	if count >= org.Settings.MaxProjects {
		return ErrProjectQuotaExceeded
	}
	return nil
}

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)

// generateSlug generates a URL-friendly slug from a name.
func generateSlug(name string) string {
	slug := strings.ToLower(name)
	slug = slugInvalidChars.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 50 {
		slug = slug[:50]
	}
	if slug == "" {
		slug = "org"
	}
	return slug
}
