package backorder

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// Backorder is a subscription request parked until capacity is available.
type Backorder struct {
	id                    uint
	userID                uint
	serviceTypeID         uint
	planID                uint
	requestedConfig       map[string]any
	status                Status
	failureReason         string
	preferredAlternatives []string
	retryCount            int
	lastRetriedAt         *time.Time
	subscriptionID        *uint
	createdAt             time.Time
	updatedAt             time.Time
}

// NewBackorder creates a PENDING backorder.
func NewBackorder(
	userID, serviceTypeID, planID uint,
	requestedConfig map[string]any,
	reason string,
	alternatives []string,
	now time.Time,
) (*Backorder, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if planID == 0 {
		return nil, fmt.Errorf("plan ID is required")
	}
	if requestedConfig == nil {
		requestedConfig = make(map[string]any)
	}

	return &Backorder{
		userID:                userID,
		serviceTypeID:         serviceTypeID,
		planID:                planID,
		requestedConfig:       maps.Clone(requestedConfig),
		status:                StatusPending,
		failureReason:         reason,
		preferredAlternatives: slices.Clone(alternatives),
		createdAt:             now,
		updatedAt:             now,
	}, nil
}

// ReconstructParams carries persisted backorder state.
type ReconstructParams struct {
	ID                    uint
	UserID                uint
	ServiceTypeID         uint
	PlanID                uint
	RequestedConfig       map[string]any
	Status                Status
	FailureReason         string
	PreferredAlternatives []string
	RetryCount            int
	LastRetriedAt         *time.Time
	SubscriptionID        *uint
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func Reconstruct(p ReconstructParams) (*Backorder, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("backorder ID cannot be zero")
	}
	if !ValidStatuses[p.Status] {
		return nil, fmt.Errorf("invalid backorder status: %s", p.Status)
	}
	if p.RequestedConfig == nil {
		p.RequestedConfig = make(map[string]any)
	}

	return &Backorder{
		id:                    p.ID,
		userID:                p.UserID,
		serviceTypeID:         p.ServiceTypeID,
		planID:                p.PlanID,
		requestedConfig:       p.RequestedConfig,
		status:                p.Status,
		failureReason:         p.FailureReason,
		preferredAlternatives: p.PreferredAlternatives,
		retryCount:            p.RetryCount,
		lastRetriedAt:         p.LastRetriedAt,
		subscriptionID:        p.SubscriptionID,
		createdAt:             p.CreatedAt,
		updatedAt:             p.UpdatedAt,
	}, nil
}

func (b *Backorder) ID() uint {
	return b.id
}

func (b *Backorder) UserID() uint {
	return b.userID
}

func (b *Backorder) ServiceTypeID() uint {
	return b.serviceTypeID
}

func (b *Backorder) PlanID() uint {
	return b.planID
}

func (b *Backorder) Status() Status {
	return b.status
}

func (b *Backorder) FailureReason() string {
	return b.failureReason
}

func (b *Backorder) RetryCount() int {
	return b.retryCount
}

func (b *Backorder) LastRetriedAt() *time.Time {
	return b.lastRetriedAt
}

func (b *Backorder) SubscriptionID() *uint {
	return b.subscriptionID
}

func (b *Backorder) CreatedAt() time.Time {
	return b.createdAt
}

func (b *Backorder) UpdatedAt() time.Time {
	return b.updatedAt
}

func (b *Backorder) RequestedConfig() map[string]any {
	return maps.Clone(b.requestedConfig)
}

func (b *Backorder) PreferredAlternatives() []string {
	return slices.Clone(b.preferredAlternatives)
}

func (b *Backorder) SetID(id uint) error {
	if b.id != 0 {
		return fmt.Errorf("backorder ID is already set")
	}
	b.id = id
	return nil
}

// RecordUnavailable notes a retry that still found no capacity.
func (b *Backorder) RecordUnavailable(reason string, alternatives []string, now time.Time) error {
	if b.status.IsTerminal() {
		return fmt.Errorf("%w: status %s", ErrBackorderNotRetryable, b.status)
	}
	b.status = StatusRetrying
	b.failureReason = reason
	b.preferredAlternatives = slices.Clone(alternatives)
	b.recordAttempt(now)
	return nil
}

// RecordAttempt counts a retry that got past the availability check.
func (b *Backorder) RecordAttempt(now time.Time) error {
	if b.status.IsTerminal() {
		return fmt.Errorf("%w: status %s", ErrBackorderNotRetryable, b.status)
	}
	b.recordAttempt(now)
	return nil
}

func (b *Backorder) Fulfill(subscriptionID uint, now time.Time) error {
	if b.status.IsTerminal() {
		return fmt.Errorf("%w: status %s", ErrBackorderNotRetryable, b.status)
	}
	b.status = StatusFulfilled
	b.subscriptionID = &subscriptionID
	b.failureReason = ""
	b.updatedAt = now
	return nil
}

// MarkFailed gives up on the backorder permanently.
func (b *Backorder) MarkFailed(reason string, now time.Time) error {
	if b.status.IsTerminal() {
		return fmt.Errorf("%w: status %s", ErrBackorderNotRetryable, b.status)
	}
	b.status = StatusFailed
	b.failureReason = reason
	b.updatedAt = now
	return nil
}

// Cancel moves the backorder to CANCELLED from any state.
func (b *Backorder) Cancel(now time.Time) {
	b.status = StatusCancelled
	b.updatedAt = now
}

func (b *Backorder) recordAttempt(now time.Time) {
	b.retryCount++
	b.lastRetriedAt = &now
	b.updatedAt = now
}
