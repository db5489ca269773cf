package team

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/worklens/server/internal/module/user"
)

// InvitationStatus represents the status of an invitation. Transitions
// are monotonic: pending moves to exactly one of the terminal states and
// never back.
type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
	InvitationStatusDeclined InvitationStatus = "declined"
	InvitationStatusExpired  InvitationStatus = "expired"
	InvitationStatusRevoked  InvitationStatus = "revoked"
)

// Team groups users inside an organization. Team membership is what
// makes a user eligible for project membership.
type Team struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID      `json:"organization_id" gorm:"type:uuid;not null;index"`
	OwnerID        uuid.UUID      `json:"owner_id" gorm:"type:uuid;not null"`
	Name           string         `json:"name" gorm:"not null"`
	Description    string         `json:"description,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations (not loaded by default)
	Members []Member `json:"members,omitempty" gorm:"foreignKey:TeamID"`
}

// TableName returns the database table name.
func (Team) TableName() string {
	return "teams"
}

// Member represents a team member. The role is an organization-level
// role name; the member's effective permissions are always derived from
// it on read, never stored.
type Member struct {
	TeamID    uuid.UUID `json:"team_id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	Role      user.Role `json:"role" gorm:"not null;default:member"`
	JoinedAt  time.Time `json:"joined_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (Member) TableName() string {
	return "team_members"
}

// Permissions derives the member's permission set from their role.
func (m *Member) Permissions() user.PermissionSet {
	return user.PermissionsForRole(m.Role)
}

// Invitation represents a pending or processed team invitation. The
// token is single-use and unique across all invitations.
type Invitation struct {
	ID             uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID        `json:"organization_id" gorm:"type:uuid;not null;index"`
	TeamID         uuid.UUID        `json:"team_id" gorm:"type:uuid;not null;index"`
	InviterID      uuid.UUID        `json:"inviter_id" gorm:"type:uuid;not null"`
	InviteeEmail   string           `json:"invitee_email" gorm:"not null;index"`
	Role           user.Role        `json:"role" gorm:"not null;default:member"`
	Token          string           `json:"-" gorm:"uniqueIndex;not null"`
	Status         InvitationStatus `json:"status" gorm:"not null;default:pending"`
	ExpiresAt      time.Time        `json:"expires_at" gorm:"not null"`
	CreatedAt      time.Time        `json:"created_at"`
	AcceptedAt     *time.Time       `json:"accepted_at,omitempty"`
}

// TableName returns the database table name.
func (Invitation) TableName() string {
	return "team_invitations"
}

// IsExpired returns true if the invitation has passed its expiry.
func (i *Invitation) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

// IsPending returns true if the invitation is still pending.
func (i *Invitation) IsPending() bool {
	return i.Status == InvitationStatusPending
}
