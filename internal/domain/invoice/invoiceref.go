// Package invoice holds references to invoices issued by the external
// invoicing provider and the open positions waiting to be billed.
package invoice

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvoiceRefNotFound   = errors.New("invoice reference not found")
	ErrOpenPositionNotFound = errors.New("open position not found")
)

// Ref links a subscription to an external invoice and the window it billed.
// The newest Ref of a subscription is its billing cursor.
type Ref struct {
	id                uint
	subscriptionID    uint
	externalInvoiceID string
	number            string
	status            string
	balance           decimal.Decimal
	amount            decimal.Decimal
	currency          string
	clientLinkURL     string
	billedFrom        time.Time
	billedUntil       time.Time
	createdAt         time.Time
	updatedAt         time.Time
}

// RefParams describes a Ref, new or persisted.
type RefParams struct {
	ID                uint
	SubscriptionID    uint
	ExternalInvoiceID string
	Number            string
	Status            string
	Balance           decimal.Decimal
	Amount            decimal.Decimal
	Currency          string
	ClientLinkURL     string
	BilledFrom        time.Time
	BilledUntil       time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewRef records a freshly created external invoice.
func NewRef(p RefParams, now time.Time) (*Ref, error) {
	p.ID = 0
	p.CreatedAt = now
	p.UpdatedAt = now
	return buildRef(p)
}

// ReconstructRef reconstructs a Ref from persistence
func ReconstructRef(p RefParams) (*Ref, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("invoice reference ID cannot be zero")
	}
	return buildRef(p)
}

func buildRef(p RefParams) (*Ref, error) {
	if p.SubscriptionID == 0 {
		return nil, fmt.Errorf("subscription ID is required")
	}
	if p.ExternalInvoiceID == "" {
		return nil, fmt.Errorf("external invoice ID is required")
	}
	if p.BilledUntil.Before(p.BilledFrom) {
		return nil, fmt.Errorf("billed until must not precede billed from")
	}

	return &Ref{
		id:                p.ID,
		subscriptionID:    p.SubscriptionID,
		externalInvoiceID: p.ExternalInvoiceID,
		number:            p.Number,
		status:            p.Status,
		balance:           p.Balance,
		amount:            p.Amount,
		currency:          p.Currency,
		clientLinkURL:     p.ClientLinkURL,
		billedFrom:        p.BilledFrom,
		billedUntil:       p.BilledUntil,
		createdAt:         p.CreatedAt,
		updatedAt:         p.UpdatedAt,
	}, nil
}

func (r *Ref) ID() uint {
	return r.id
}

func (r *Ref) SubscriptionID() uint {
	return r.subscriptionID
}

func (r *Ref) ExternalInvoiceID() string {
	return r.externalInvoiceID
}

func (r *Ref) Number() string {
	return r.number
}

func (r *Ref) Status() string {
	return r.status
}

func (r *Ref) Balance() decimal.Decimal {
	return r.balance
}

func (r *Ref) Amount() decimal.Decimal {
	return r.amount
}

func (r *Ref) Currency() string {
	return r.currency
}

func (r *Ref) ClientLinkURL() string {
	return r.clientLinkURL
}

func (r *Ref) BilledFrom() time.Time {
	return r.billedFrom
}

func (r *Ref) BilledUntil() time.Time {
	return r.billedUntil
}

func (r *Ref) CreatedAt() time.Time {
	return r.createdAt
}

func (r *Ref) UpdatedAt() time.Time {
	return r.updatedAt
}

func (r *Ref) SetID(id uint) error {
	if r.id != 0 {
		return fmt.Errorf("invoice reference ID is already set")
	}
	r.id = id
	return nil
}

// Cursor returns the billing cursor this Ref establishes. Older rows without a
// billed window fall back to their creation time.
func (r *Ref) Cursor() time.Time {
	if !r.billedUntil.IsZero() {
		return r.billedUntil
	}
	return r.createdAt
}

// Details is the provider-side view of an invoice.
type Details struct {
	Status        string
	Number        string
	Balance       decimal.Decimal
	ClientLinkURL string
}

// Changes lists the fields a status sync must write.
type Changes struct {
	Status        *string
	Number        *string
	Balance       *decimal.Decimal
	ClientLinkURL *string
}

func (c Changes) IsEmpty() bool {
	return c.Status == nil && c.Number == nil && c.Balance == nil && c.ClientLinkURL == nil
}

// ApplyDetails copies provider details into the Ref and reports which fields
// changed. Empty strings from the provider never overwrite known values.
func (r *Ref) ApplyDetails(d Details, now time.Time) Changes {
	var c Changes
	if d.Status != "" && d.Status != r.status {
		r.status = d.Status
		c.Status = &r.status
	}
	if d.Number != "" && d.Number != r.number {
		r.number = d.Number
		c.Number = &r.number
	}
	if !d.Balance.Equal(r.balance) {
		r.balance = d.Balance
		c.Balance = &r.balance
	}
	if d.ClientLinkURL != "" && d.ClientLinkURL != r.clientLinkURL {
		r.clientLinkURL = d.ClientLinkURL
		c.ClientLinkURL = &r.clientLinkURL
	}
	if !c.IsEmpty() {
		r.updatedAt = now
	}
	return c
}
