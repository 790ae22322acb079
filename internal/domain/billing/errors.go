package billing

import "errors"

var (
	ErrInvalidInterval  = errors.New("invalid billing interval")
	ErrNoBillableAmount = errors.New("No billable amount since last invoice")
)
