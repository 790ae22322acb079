package invoice

import (
	"fmt"
	"time"
)

// OpenPosition is a pending charge collected into the user's next
// periodic invoice.
type OpenPosition struct {
	id             uint
	subscriptionID uint
	userID         uint
	description    string
	billUntil      time.Time
	invoiceRefID   *uint
	createdAt      time.Time
}

func NewOpenPosition(subscriptionID, userID uint, description string, billUntil, now time.Time) (*OpenPosition, error) {
	if subscriptionID == 0 || userID == 0 {
		return nil, fmt.Errorf("subscription ID and user ID are required")
	}
	if billUntil.IsZero() {
		return nil, fmt.Errorf("bill until is required")
	}
	return &OpenPosition{
		subscriptionID: subscriptionID,
		userID:         userID,
		description:    description,
		billUntil:      billUntil,
		createdAt:      now,
	}, nil
}

// ReconstructOpenPosition reconstructs an open position from persistence
func ReconstructOpenPosition(id, subscriptionID, userID uint, description string, billUntil time.Time, invoiceRefID *uint, createdAt time.Time) (*OpenPosition, error) {
	if id == 0 {
		return nil, fmt.Errorf("open position ID cannot be zero")
	}
	return &OpenPosition{
		id:             id,
		subscriptionID: subscriptionID,
		userID:         userID,
		description:    description,
		billUntil:      billUntil,
		invoiceRefID:   invoiceRefID,
		createdAt:      createdAt,
	}, nil
}

func (p *OpenPosition) ID() uint {
	return p.id
}

func (p *OpenPosition) SubscriptionID() uint {
	return p.subscriptionID
}

func (p *OpenPosition) UserID() uint {
	return p.userID
}

func (p *OpenPosition) Description() string {
	return p.description
}

func (p *OpenPosition) BillUntil() time.Time {
	return p.billUntil
}

func (p *OpenPosition) InvoiceRefID() *uint {
	return p.invoiceRefID
}

func (p *OpenPosition) CreatedAt() time.Time {
	return p.createdAt
}

func (p *OpenPosition) IsBilled() bool {
	return p.invoiceRefID != nil
}

func (p *OpenPosition) SetID(id uint) error {
	if p.id != 0 {
		return fmt.Errorf("open position ID is already set")
	}
	p.id = id
	return nil
}

func (p *OpenPosition) LinkInvoice(refID uint) error {
	if p.invoiceRefID != nil {
		return fmt.Errorf("open position %d already billed by invoice ref %d", p.id, *p.invoiceRefID)
	}
	p.invoiceRefID = &refID
	return nil
}
