package user

import "errors"

// User module errors.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user inactive")
	ErrInvalidRole        = errors.New("invalid role")
	ErrNoOrganization     = errors.New("user has no organization")
	ErrInvitationInvalid  = errors.New("invitation invalid")
	ErrInvitationExpired  = errors.New("invitation expired")
	ErrCannotDemoteSelf   = errors.New("cannot change own role")

	// ErrInsufficientPrivilege is returned when the caller's role lacks
	// the permission an operation requires.
	ErrInsufficientPrivilege = errors.New("insufficient privilege")
)
