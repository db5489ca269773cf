package project

import (
	"time"

	"github.com/google/uuid"

	"github.com/worklens/server/internal/module/user"
)

// Project is the unit time is tracked against. The owner is implicitly
// a full member and can never be removed from the member list.
type Project struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID  `json:"organization_id" gorm:"type:uuid;not null;index"`
	OwnerID        uuid.UUID  `json:"owner_id" gorm:"type:uuid;not null;index"`
	TeamID         *uuid.UUID `json:"team_id,omitempty" gorm:"type:uuid;index"`
	Name           string     `json:"name" gorm:"not null"`
	Description    string     `json:"description,omitempty"`
	Color          string     `json:"color,omitempty"`
	Active         bool       `json:"active" gorm:"not null;default:true;index"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Relations (not loaded by default)
	Members []Member `json:"members,omitempty" gorm:"foreignKey:ProjectID"`
}

// TableName returns the database table name.
func (Project) TableName() string {
	return "projects"
}

// Member represents project membership. TeamRole is a snapshot of the
// user's team role taken when they were added; it is deliberately not
// re-derived when the underlying team role later changes. Effective
// permissions are computed from the snapshot on read.
type Member struct {
	ProjectID uuid.UUID `json:"project_id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	TeamRole  user.Role `json:"team_role" gorm:"not null"`
	JoinedAt  time.Time `json:"joined_at"`
}

// TableName returns the database table name.
func (Member) TableName() string {
	return "project_members"
}

// Permissions derives the member's permission set from the snapshotted
// team role.
func (m *Member) Permissions() user.PermissionSet {
	return user.PermissionsForRole(m.TeamRole)
}
