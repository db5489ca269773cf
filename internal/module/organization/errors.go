package organization

import "errors"

// Organization module errors.
var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrSlugAlreadyExists    = errors.New("organization slug already exists")
	ErrUserQuotaExceeded    = errors.New("organization user quota exceeded")
	ErrProjectQuotaExceeded = errors.New("organization project quota exceeded")
	ErrInsufficientRole     = errors.New("insufficient role for organization management")
	ErrInvalidSettings      = errors.New("invalid organization settings")
)
