package user

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user's role inside their organization.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

// IsValid checks if the role is valid.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleMember:
		return true
	default:
		return false
	}
}

// User represents a registered user.
//
// OrganizationID is nullable only transiently: a user mid-registration has
// not joined an organization yet. Every authorized operation requires it to
// be set.
type User struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty" gorm:"type:uuid;index"`
	Email          string     `json:"email" gorm:"uniqueIndex;not null"`
	Name           string     `json:"name" gorm:"not null"`
	PasswordHash   string     `json:"-" gorm:"column:password_hash;not null"`
	Role           Role       `json:"role" gorm:"not null;default:member"`
	Active         bool       `json:"active" gorm:"not null;default:true"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName returns the database table name.
func (User) TableName() string {
	return "users"
}

// InOrganization reports whether the user belongs to the given organization.
func (u *User) InOrganization(orgID uuid.UUID) bool {
	return u.OrganizationID != nil && *u.OrganizationID == orgID
}

// Permissions returns the user's permission set, derived from role.
// Permissions are never stored; role is the only persisted truth.
func (u *User) Permissions() PermissionSet {
	return PermissionsForRole(u.Role)
}
