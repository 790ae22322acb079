// Package provider declares the ports to external systems: compute
// providers, capacity checks, invoicing, DNS and email.
package provider

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownProvider     = errors.New("unknown provisioning provider")
	ErrCapacityUnavailable = errors.New("capacity unavailable")
)

// Defaults are a provider's fallback placement values.
type Defaults struct {
	Region     string
	ServerType string
}

// ProvisionRequest describes one server to create.
type ProvisionRequest struct {
	SubscriptionItemID uint
	Region             string
	ServerType         string
	// Hostname is empty when the provider does not require network identity
	Hostname string
	Config   map[string]any
}

type ServerInfo struct {
	Reference string
	Name      string
	Status    string
	PublicIP  string
	Region    string
}

// ProvisioningProvider creates and operates servers at one provider.
type ProvisioningProvider interface {
	Name() string
	// RequiresNetworkIdentity reports whether servers need a reserved
	// hostname and DNS record.
	RequiresNetworkIdentity() bool
	Defaults() Defaults

	Provision(ctx context.Context, req ProvisionRequest) (reference string, err error)
	Deprovision(ctx context.Context, reference string) error
	GetServerInfo(ctx context.Context, reference string) (*ServerInfo, error)
	Start(ctx context.Context, reference string) error
	Stop(ctx context.Context, reference string) error
	Restart(ctx context.Context, reference string) error
}

type Availability struct {
	IsAvailable  bool
	Reason       string
	Alternatives []string
}

type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, provider, region, resourceType string) (*Availability, error)
}

type CustomerProfile struct {
	UserID           uint
	Email            string
	Name             string
	ExternalClientID string
}

type LineItem struct {
	SubscriptionID uint
	Description    string
	Amount         decimal.Decimal
	Currency       string
}

type CreatedInvoice struct {
	ExternalID    string
	ClientLinkURL string
	Status        string
	Number        string
}

type InvoiceDetails struct {
	Status        string
	Number        string
	Balance       decimal.Decimal
	ClientLinkURL string
}

// InvoicingProvider issues invoices at the external billing system.
type InvoicingProvider interface {
	// SyncCustomerProfile creates or updates the customer and returns its ID.
	SyncCustomerProfile(ctx context.Context, profile CustomerProfile) (clientID string, err error)
	CreateInvoice(ctx context.Context, clientID string, items []LineItem) (*CreatedInvoice, error)
	GetInvoiceDetails(ctx context.Context, externalID string) (*InvoiceDetails, error)
}

type DNSProvider interface {
	CreateARecord(ctx context.Context, hostname, ip string) error
	DeleteRecord(ctx context.Context, hostname string) error
}

type EmailMessage struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

type EmailNotifier interface {
	// Send reports sent=false without error when the notifier is disabled.
	Send(ctx context.Context, msg EmailMessage) (sent bool, err error)
}
