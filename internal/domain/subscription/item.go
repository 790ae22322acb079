package subscription

import (
	"fmt"
	"maps"
	"time"

	vo "github.com/orris-inc/cloudbilling/internal/domain/subscription/valueobjects"
)

// Item is one provisioned resource of a subscription.
type Item struct {
	id                 uint
	subscriptionID     uint
	serviceTypeID      uint
	provider           string
	region             string
	serverType         string
	configSnapshot     map[string]any
	provisioningStatus vo.ProvisioningStatus
	providerReference  string
	hostname           string
	failureReason      string
	createdAt          time.Time
	updatedAt          time.Time
}

// ItemPlacement is where an item gets provisioned.
type ItemPlacement struct {
	Provider   string
	Region     string
	ServerType string
}

// NewItem creates a pending item. The subscription ID is attached once the
// subscription has been persisted.
func NewItem(serviceTypeID uint, placement ItemPlacement, config map[string]any, now time.Time) (*Item, error) {
	if serviceTypeID == 0 {
		return nil, fmt.Errorf("service type ID is required")
	}
	if placement.Provider == "" {
		return nil, fmt.Errorf("provider is required")
	}

	return &Item{
		serviceTypeID:      serviceTypeID,
		provider:           placement.Provider,
		region:             placement.Region,
		serverType:         placement.ServerType,
		configSnapshot:     maps.Clone(config),
		provisioningStatus: vo.ProvisioningPending,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

// ReconstructItem reconstructs an item from persistence
func ReconstructItem(
	id, subscriptionID, serviceTypeID uint,
	placement ItemPlacement,
	config map[string]any,
	status vo.ProvisioningStatus,
	providerReference, hostname, failureReason string,
	createdAt, updatedAt time.Time,
) (*Item, error) {
	if id == 0 {
		return nil, fmt.Errorf("subscription item ID cannot be zero")
	}
	if !vo.ValidProvisioningStatuses[status] {
		return nil, fmt.Errorf("invalid provisioning status: %s", status)
	}
	if config == nil {
		config = make(map[string]any)
	}

	return &Item{
		id:                 id,
		subscriptionID:     subscriptionID,
		serviceTypeID:      serviceTypeID,
		provider:           placement.Provider,
		region:             placement.Region,
		serverType:         placement.ServerType,
		configSnapshot:     config,
		provisioningStatus: status,
		providerReference:  providerReference,
		hostname:           hostname,
		failureReason:      failureReason,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}, nil
}

func (i *Item) ID() uint {
	return i.id
}

func (i *Item) SubscriptionID() uint {
	return i.subscriptionID
}

func (i *Item) ServiceTypeID() uint {
	return i.serviceTypeID
}

func (i *Item) Placement() ItemPlacement {
	return ItemPlacement{Provider: i.provider, Region: i.region, ServerType: i.serverType}
}

func (i *Item) Provider() string {
	return i.provider
}

// ConfigSnapshot returns a copy of the merged configuration.
func (i *Item) ConfigSnapshot() map[string]any {
	return maps.Clone(i.configSnapshot)
}

func (i *Item) ProvisioningStatus() vo.ProvisioningStatus {
	return i.provisioningStatus
}

func (i *Item) ProviderReference() string {
	return i.providerReference
}

func (i *Item) HasProviderReference() bool {
	return i.providerReference != ""
}

func (i *Item) Hostname() string {
	return i.hostname
}

func (i *Item) FailureReason() string {
	return i.failureReason
}

func (i *Item) CreatedAt() time.Time {
	return i.createdAt
}

func (i *Item) UpdatedAt() time.Time {
	return i.updatedAt
}

// SetID sets the item ID (only for persistence layer use)
func (i *Item) SetID(id uint) error {
	if i.id != 0 {
		return fmt.Errorf("subscription item ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("subscription item ID cannot be zero")
	}
	i.id = id
	return nil
}

func (i *Item) AttachToSubscription(subscriptionID uint) error {
	if i.subscriptionID != 0 && i.subscriptionID != subscriptionID {
		return fmt.Errorf("item already belongs to subscription %d", i.subscriptionID)
	}
	i.subscriptionID = subscriptionID
	return nil
}

func (i *Item) MarkActive(providerReference string, now time.Time) error {
	if providerReference == "" {
		return fmt.Errorf("provider reference is required")
	}
	i.provisioningStatus = vo.ProvisioningActive
	i.providerReference = providerReference
	i.failureReason = ""
	i.updatedAt = now
	return nil
}

func (i *Item) MarkFailed(reason string, now time.Time) {
	i.provisioningStatus = vo.ProvisioningFailed
	i.failureReason = reason
	i.updatedAt = now
}

func (i *Item) AssignHostname(hostname string, now time.Time) {
	i.hostname = hostname
	i.updatedAt = now
}

func (i *Item) ClearHostname(now time.Time) {
	i.hostname = ""
	i.updatedAt = now
}

// HasBillableItems is false only when every item failed to provision.
func HasBillableItems(items []*Item) bool {
	if len(items) == 0 {
		return true
	}
	for _, item := range items {
		if item.ProvisioningStatus() != vo.ProvisioningFailed {
			return true
		}
	}
	return false
}
