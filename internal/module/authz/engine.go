package authz

import (
	"context"

	"github.com/google/uuid"

	"github.com/worklens/server/internal/module/user"
	sharederrors "github.com/worklens/server/internal/shared/errors"
	"github.com/worklens/server/internal/shared/metrics"
)

// Action names a guarded operation on a scoped resource.
type Action string

const (
	ActionView          Action = "view"
	ActionEdit          Action = "edit"
	ActionDelete        Action = "delete"
	ActionArchive       Action = "archive"
	ActionManageMembers Action = "manage_members"
	ActionTrack         Action = "track"
	ActionViewTime      Action = "view_time"
	ActionViewReports   Action = "view_reports"
)

// Reason explains a Decision.
type Reason string

const (
	AllowedOwner   Reason = "owner"
	AllowedMember  Reason = "member"
	AllowedBlanket Reason = "blanket_permission"

	// DenyCrossTenant must surface to clients exactly like a missing
	// resource. A 403 here would confirm the resource exists in another
	// organization.
	DenyCrossTenant           Reason = "cross_tenant"
	DenyInsufficientPrivilege Reason = "insufficient_privilege"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Err maps a deny decision to its sentinel error. Allowed decisions
// return nil.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case DenyCrossTenant:
		return sharederrors.ErrCrossTenant
	default:
		return sharederrors.ErrInsufficientPrivilege
	}
}

// Resource is the scoped-resource tuple the engine evaluates: which
// tenant it belongs to and who owns it.
type Resource struct {
	OrganizationID uuid.UUID
	OwnerID        uuid.UUID
}

// MembershipChecker answers whether a user is a direct member of a
// project. The engine consults it only when ownership and blanket
// permission have not already settled the decision.
type MembershipChecker interface {
	IsProjectMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
}

// Engine evaluates every scoped-resource access in one place. Checks
// run in a fixed order: tenant first (a cross-tenant actor is denied
// before anything else is even considered), then ownership, then the
// actor's blanket permission for the action, then direct membership.
type Engine struct {
	members MembershipChecker
	metrics *metrics.Metrics
}

// NewEngine creates a new authorization engine.
func NewEngine(members MembershipChecker, m *metrics.Metrics) *Engine {
	return &Engine{members: members, metrics: m}
}

// Authorize decides whether the actor may perform action on the
// resource. projectID is consulted only for the membership check and
// may be uuid.Nil for non-project resources.
func (e *Engine) Authorize(ctx context.Context, actor *user.Identity, projectID uuid.UUID, res Resource, action Action) (Decision, error) {
	d, err := e.authorize(ctx, actor, projectID, res, action)
	if err == nil {
		e.record(action, d)
	}
	return d, err
}

func (e *Engine) authorize(ctx context.Context, actor *user.Identity, projectID uuid.UUID, res Resource, action Action) (Decision, error) {
	if res.OrganizationID != actor.OrganizationID {
		return Decision{Allowed: false, Reason: DenyCrossTenant}, nil
	}

	if res.OwnerID == actor.UserID {
		return Decision{Allowed: true, Reason: AllowedOwner}, nil
	}

	if blanketAllows(actor.Permissions, action) {
		return Decision{Allowed: true, Reason: AllowedBlanket}, nil
	}

	if projectID != uuid.Nil && membershipAllows(action) {
		isMember, err := e.members.IsProjectMember(ctx, projectID, actor.UserID)
		if err != nil {
			return Decision{}, err
		}
		if isMember {
			return Decision{Allowed: true, Reason: AllowedMember}, nil
		}
	}

	return Decision{Allowed: false, Reason: DenyInsufficientPrivilege}, nil
}

// Check is Authorize collapsed to an error for call sites that do not
// inspect the decision.
func (e *Engine) Check(ctx context.Context, actor *user.Identity, projectID uuid.UUID, res Resource, action Action) error {
	d, err := e.Authorize(ctx, actor, projectID, res, action)
	if err != nil {
		return err
	}
	return d.Err()
}

func (e *Engine) record(action Action, d Decision) {
	if e.metrics == nil {
		return
	}
	outcome := "deny"
	if d.Allowed {
		outcome = "allow"
	}
	e.metrics.AuthzDecisionsTotal.WithLabelValues(string(action), outcome).Inc()
}

// blanketAllows reports whether the actor's role-derived permission set
// grants the action organization-wide, independent of membership.
func blanketAllows(p user.PermissionSet, action Action) bool {
	switch action {
	case ActionView:
		return p.CanViewAllProjects
	case ActionEdit:
		return p.CanManageAllProjects
	case ActionDelete:
		return p.CanDeleteProjects
	case ActionArchive:
		return p.CanArchiveProjects
	case ActionManageMembers:
		return p.CanManageAllProjects
	case ActionTrack:
		return false // tracking always requires access to the specific project
	case ActionViewTime:
		return p.CanViewAllTimeEntries
	case ActionViewReports:
		return p.CanViewAllReports
	default:
		return false
	}
}

// membershipAllows reports whether direct project membership grants the
// action. Destructive actions stay with owners and blanket roles.
func membershipAllows(action Action) bool {
	switch action {
	case ActionView, ActionTrack, ActionViewTime, ActionViewReports:
		return true
	default:
		return false
	}
}
