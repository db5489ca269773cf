package reporting

import "errors"

// Reporting module errors.
var (
	ErrInvalidRange  = errors.New("invalid report range")
	ErrRangeTooLarge = errors.New("report range exceeds one year")
)
