package valueobjects

// SubscriptionStatus is the lifecycle state of a subscription. A request
// waiting for capacity is represented by a backorder, not by a status.
type SubscriptionStatus string

const (
	StatusActive        SubscriptionStatus = "ACTIVE"
	StatusPendingCancel SubscriptionStatus = "PENDING_CANCEL"
	StatusCanceled      SubscriptionStatus = "CANCELED"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) IsTerminal() bool {
	return s == StatusCanceled
}

func (s SubscriptionStatus) CanTransitionTo(target SubscriptionStatus) bool {
	transitions := map[SubscriptionStatus][]SubscriptionStatus{
		StatusActive:        {StatusPendingCancel},
		StatusPendingCancel: {StatusActive, StatusCanceled},
		StatusCanceled:      {},
	}

	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

var ValidStatuses = map[SubscriptionStatus]bool{
	StatusActive:        true,
	StatusPendingCancel: true,
	StatusCanceled:      true,
}

// ProvisioningStatus tracks a subscription item's resource at the provider.
type ProvisioningStatus string

const (
	ProvisioningPending ProvisioningStatus = "pending"
	ProvisioningActive  ProvisioningStatus = "active"
	ProvisioningFailed  ProvisioningStatus = "failed"
)

func (s ProvisioningStatus) String() string {
	return string(s)
}

var ValidProvisioningStatuses = map[ProvisioningStatus]bool{
	ProvisioningPending: true,
	ProvisioningActive:  true,
	ProvisioningFailed:  true,
}
