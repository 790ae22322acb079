package subscription

import (
	"errors"
	"fmt"
)

var (
	ErrSubscriptionNotFound    = errors.New("subscription not found")
	ErrItemNotFound            = errors.New("subscription item not found")
	ErrPlanNotFound            = errors.New("service plan not found")
	ErrPlanInactive            = errors.New("service plan inactive")
	ErrServiceTypeNotFound     = errors.New("service type not found")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrInvalidConfig           = errors.New("invalid configuration")
	ErrInvalidPrice            = errors.New("invalid price")
	ErrNotOwner                = errors.New("subscription does not belong to user")
	ErrCancellationDenied      = errors.New("cancellation denied")
	ErrVersionConflict         = errors.New("subscription was modified concurrently")
)

func ErrInvalidTransition(from, to string) error {
	return fmt.Errorf("%w: from %s to %s", ErrInvalidStatusTransition, from, to)
}
