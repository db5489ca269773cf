package events

import "github.com/google/uuid"

// Team invitation event type constants.
const (
	InvitationCreatedType  = "InvitationCreated"
	InvitationAcceptedType = "InvitationAccepted"
)

// InvitationCreatedEvent is emitted when a team invitation is created.
// The email collaborator subscribes to it; delivery mechanics stay outside
// the core.
type InvitationCreatedEvent struct {
	BaseEvent

	// InvitationID is the unique identifier of the invitation.
	InvitationID uuid.UUID `json:"invitation_id"`

	// TeamID is the team the invitee is asked to join.
	TeamID uuid.UUID `json:"team_id"`

	// TeamName is the display name of the team, for the email body.
	TeamName string `json:"team_name"`

	// InviteeEmail is the address the invitation was sent to.
	InviteeEmail string `json:"invitee_email"`

	// Role is the team role the invitee will receive on acceptance.
	Role string `json:"role"`

	// InvitedBy is the inviting user.
	InvitedBy uuid.UUID `json:"invited_by"`

	// Token is the single-use acceptance token.
	Token string `json:"token"`
}

// NewInvitationCreatedEvent creates a new InvitationCreatedEvent.
func NewInvitationCreatedEvent(invitationID, teamID, invitedBy uuid.UUID, teamName, inviteeEmail, role, token string) *InvitationCreatedEvent {
	return &InvitationCreatedEvent{
		BaseEvent:    NewBaseEvent(InvitationCreatedType, invitationID, "Invitation"),
		InvitationID: invitationID,
		TeamID:       teamID,
		TeamName:     teamName,
		InviteeEmail: inviteeEmail,
		Role:         role,
		InvitedBy:    invitedBy,
		Token:        token,
	}
}

// InvitationAcceptedEvent is emitted when an invitation is accepted.
type InvitationAcceptedEvent struct {
	BaseEvent

	// InvitationID is the unique identifier of the invitation.
	InvitationID uuid.UUID `json:"invitation_id"`

	// TeamID is the team that was joined.
	TeamID uuid.UUID `json:"team_id"`

	// TeamName is the display name of the team.
	TeamName string `json:"team_name"`

	// UserID is the user who accepted.
	UserID uuid.UUID `json:"user_id"`

	// InviteeEmail is the address the invitation was issued to.
	InviteeEmail string `json:"invitee_email"`

	// Role is the team role granted.
	Role string `json:"role"`
}

// NewInvitationAcceptedEvent creates a new InvitationAcceptedEvent.
func NewInvitationAcceptedEvent(invitationID, teamID, userID uuid.UUID, teamName, inviteeEmail, role string) *InvitationAcceptedEvent {
	return &InvitationAcceptedEvent{
		BaseEvent:    NewBaseEvent(InvitationAcceptedType, invitationID, "Invitation"),
		InvitationID: invitationID,
		TeamID:       teamID,
		TeamName:     teamName,
		UserID:       userID,
		InviteeEmail: inviteeEmail,
		Role:         role,
	}
}
