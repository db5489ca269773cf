package project

import "errors"

// Project module errors.
var (
	ErrProjectNotFound   = errors.New("project not found")
	ErrMemberNotFound    = errors.New("project member not found")
	ErrAlreadyMember     = errors.New("user is already a project member")
	ErrCannotRemoveOwner = errors.New("project owner cannot be removed")
	ErrProjectArchived   = errors.New("project is archived")
	ErrNoTeamMembership  = errors.New("user has no team membership in this organization")
	ErrTeamNotInOrg      = errors.New("team belongs to another organization")
)
