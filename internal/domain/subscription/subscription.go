package subscription

import (
	"fmt"
	"time"

	"github.com/orris-inc/cloudbilling/internal/domain/billing"
	vo "github.com/orris-inc/cloudbilling/internal/domain/subscription/valueobjects"
)

// Subscription represents the subscription aggregate root
type Subscription struct {
	id                 uint
	userID             uint
	planID             uint
	status             vo.SubscriptionStatus
	currentPeriodStart time.Time
	currentPeriodEnd   time.Time
	nextBillingAt      time.Time
	cancelRequestedAt  *time.Time
	cancelEffectiveAt  *time.Time
	resumedAt          *time.Time
	version            int
	createdAt          time.Time
	updatedAt          time.Time
}

// NewSubscription creates an ACTIVE subscription for the first period.
func NewSubscription(userID, planID uint, schedule billing.Schedule, now time.Time) (*Subscription, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if planID == 0 {
		return nil, fmt.Errorf("plan ID is required")
	}
	if !schedule.CurrentPeriodEnd.After(schedule.CurrentPeriodStart) {
		return nil, fmt.Errorf("period end must be after period start")
	}

	return &Subscription{
		userID:             userID,
		planID:             planID,
		status:             vo.StatusActive,
		currentPeriodStart: schedule.CurrentPeriodStart,
		currentPeriodEnd:   schedule.CurrentPeriodEnd,
		nextBillingAt:      schedule.NextBillingAt,
		version:            1,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

// ReconstructSubscription reconstructs a subscription from persistence
func ReconstructSubscription(
	id, userID, planID uint,
	status vo.SubscriptionStatus,
	currentPeriodStart, currentPeriodEnd, nextBillingAt time.Time,
	cancelRequestedAt, cancelEffectiveAt, resumedAt *time.Time,
	version int,
	createdAt, updatedAt time.Time,
) (*Subscription, error) {
	if id == 0 {
		return nil, fmt.Errorf("subscription ID cannot be zero")
	}
	if !vo.ValidStatuses[status] {
		return nil, fmt.Errorf("invalid subscription status: %s", status)
	}

	return &Subscription{
		id:                 id,
		userID:             userID,
		planID:             planID,
		status:             status,
		currentPeriodStart: currentPeriodStart,
		currentPeriodEnd:   currentPeriodEnd,
		nextBillingAt:      nextBillingAt,
		cancelRequestedAt:  cancelRequestedAt,
		cancelEffectiveAt:  cancelEffectiveAt,
		resumedAt:          resumedAt,
		version:            version,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}, nil
}

func (s *Subscription) ID() uint {
	return s.id
}

func (s *Subscription) UserID() uint {
	return s.userID
}

func (s *Subscription) PlanID() uint {
	return s.planID
}

func (s *Subscription) Status() vo.SubscriptionStatus {
	return s.status
}

func (s *Subscription) CurrentPeriodStart() time.Time {
	return s.currentPeriodStart
}

func (s *Subscription) CurrentPeriodEnd() time.Time {
	return s.currentPeriodEnd
}

func (s *Subscription) NextBillingAt() time.Time {
	return s.nextBillingAt
}

func (s *Subscription) CancelRequestedAt() *time.Time {
	return s.cancelRequestedAt
}

func (s *Subscription) CancelEffectiveAt() *time.Time {
	return s.cancelEffectiveAt
}

func (s *Subscription) ResumedAt() *time.Time {
	return s.resumedAt
}

func (s *Subscription) Version() int {
	return s.version
}

func (s *Subscription) CreatedAt() time.Time {
	return s.createdAt
}

func (s *Subscription) UpdatedAt() time.Time {
	return s.updatedAt
}

func (s *Subscription) IsOwnedBy(userID uint) bool {
	return s.userID == userID
}

func (s *Subscription) HasStatus(st vo.SubscriptionStatus) bool {
	return s.status == st
}

// SetID sets the subscription ID (only for persistence layer use)
func (s *Subscription) SetID(id uint) error {
	if s.id != 0 {
		return fmt.Errorf("subscription ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("subscription ID cannot be zero")
	}
	s.id = id
	return nil
}

// RequestCancellation moves an active subscription to PENDING_CANCEL.
func (s *Subscription) RequestCancellation(requestedAt, effectiveAt time.Time) error {
	if err := s.transitionTo(vo.StatusPendingCancel, requestedAt); err != nil {
		return err
	}
	s.cancelRequestedAt = &requestedAt
	s.cancelEffectiveAt = &effectiveAt
	return nil
}

// Resume withdraws a pending cancellation.
func (s *Subscription) Resume(now time.Time) error {
	if err := s.transitionTo(vo.StatusActive, now); err != nil {
		return err
	}
	s.cancelRequestedAt = nil
	s.cancelEffectiveAt = nil
	s.resumedAt = &now
	return nil
}

// MarkCanceled ends a pending cancellation. It is the only way into CANCELED.
func (s *Subscription) MarkCanceled(now time.Time) error {
	return s.transitionTo(vo.StatusCanceled, now)
}

// AdvanceSchedule replaces the billing period after a billing run.
func (s *Subscription) AdvanceSchedule(schedule billing.Schedule, now time.Time) error {
	if s.status != vo.StatusActive {
		return fmt.Errorf("cannot advance schedule of %s subscription", s.status)
	}
	s.currentPeriodStart = schedule.CurrentPeriodStart
	s.currentPeriodEnd = schedule.CurrentPeriodEnd
	s.nextBillingAt = schedule.NextBillingAt
	s.touch(now)
	return nil
}

// DeferBilling rolls the due date forward after a failed billing run but
// keeps currentPeriodStart, so the next invoice still starts at the oldest
// unbilled time.
func (s *Subscription) DeferBilling(schedule billing.Schedule, now time.Time) error {
	if s.status != vo.StatusActive {
		return fmt.Errorf("cannot defer billing of %s subscription", s.status)
	}
	if !schedule.CurrentPeriodEnd.After(s.currentPeriodStart) {
		return fmt.Errorf("period end must be after period start")
	}
	s.currentPeriodEnd = schedule.CurrentPeriodEnd
	s.nextBillingAt = schedule.NextBillingAt
	s.touch(now)
	return nil
}

func (s *Subscription) transitionTo(target vo.SubscriptionStatus, now time.Time) error {
	if !s.status.CanTransitionTo(target) {
		return ErrInvalidTransition(s.status.String(), target.String())
	}
	s.status = target
	s.touch(now)
	return nil
}

func (s *Subscription) touch(now time.Time) {
	s.updatedAt = now
	s.version++
}
