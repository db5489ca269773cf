package authz

import (
	"context"

	"github.com/google/uuid"

	"github.com/worklens/server/internal/module/user"
)

// ProjectSource supplies the project ID sets the resolver unions.
// The project repository implements it.
type ProjectSource interface {
	// ListActiveIDsByOrganization returns the IDs of all active projects
	// in the organization.
	ListActiveIDsByOrganization(ctx context.Context, orgID uuid.UUID) ([]uuid.UUID, error)

	// ListAccessibleIDs returns the IDs of active projects in the
	// organization the user owns or is a member of.
	ListAccessibleIDs(ctx context.Context, orgID, userID uuid.UUID) ([]uuid.UUID, error)
}

// Resolver computes the set of projects an actor may see. It is the
// single source of truth for project visibility: tracking and reporting
// consume it and never re-derive access on their own.
type Resolver struct {
	projects ProjectSource
}

// NewResolver creates a new membership resolver.
func NewResolver(projects ProjectSource) *Resolver {
	return &Resolver{projects: projects}
}

// AccessibleProjects returns the IDs of active projects visible to the
// actor: every active project in the organization for blanket viewers,
// otherwise the union of owned and member projects.
func (r *Resolver) AccessibleProjects(ctx context.Context, actor *user.Identity) ([]uuid.UUID, error) {
	if actor.Permissions.CanViewAllProjects {
		return r.projects.ListActiveIDsByOrganization(ctx, actor.OrganizationID)
	}
	return r.projects.ListAccessibleIDs(ctx, actor.OrganizationID, actor.UserID)
}

// CanAccessProject reports whether a single project is in the actor's
// accessible set.
func (r *Resolver) CanAccessProject(ctx context.Context, actor *user.Identity, projectID uuid.UUID) (bool, error) {
	ids, err := r.AccessibleProjects(ctx, actor)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == projectID {
			return true, nil
		}
	}
	return false, nil
}
