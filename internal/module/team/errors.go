package team

import "errors"

// Team module errors.
var (
	ErrTeamNotFound               = errors.New("team not found")
	ErrMemberNotFound             = errors.New("team member not found")
	ErrAlreadyMember              = errors.New("user is already a team member")
	ErrCannotRemoveOwner          = errors.New("team owner cannot be removed")
	ErrCannotChangeOwnerRole      = errors.New("team owner role cannot be changed")
	ErrInsufficientPermission     = errors.New("insufficient permission")
	ErrInvalidRole                = errors.New("invalid role")
	ErrInvitationNotFound         = errors.New("invitation not found")
	ErrInvitationNotForYou        = errors.New("invitation addressed to another user")
	ErrInvitationAlreadyProcessed = errors.New("invitation already processed")
	ErrInvitationAlreadyPending   = errors.New("invitation already pending for this email")
	ErrInvitationExpired          = errors.New("invitation expired")
	ErrInviteRateLimited          = errors.New("invitation rate limit exceeded")
)
