package user

import (
	"github.com/google/uuid"
)

// Identity is the resolved acting-user tuple every core operation receives:
// who is calling, which tenant they belong to, and what their role grants.
// Token verification happens upstream; the core only consumes this.
type Identity struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	Role           Role
	Permissions    PermissionSet
}

// NewIdentity builds an Identity, deriving permissions from role.
func NewIdentity(userID, orgID uuid.UUID, role Role) Identity {
	return Identity{
		UserID:         userID,
		OrganizationID: orgID,
		Role:           role,
		Permissions:    PermissionsForRole(role),
	}
}
