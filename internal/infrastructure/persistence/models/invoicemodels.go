package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/orris-inc/cloudbilling/internal/shared/constants"
)

// InvoiceRefModel links a subscription to an invoice at the external
// billing system. The latest row per subscription is its billing cursor.
type InvoiceRefModel struct {
	ID                uint            `gorm:"primarykey"`
	SubscriptionID    uint            `gorm:"not null;index:idx_invoice_ref_subscription,priority:1"`
	ExternalInvoiceID string          `gorm:"not null;size:255;uniqueIndex"`
	Number            string          `gorm:"size:100"`
	Status            string          `gorm:"size:30"`
	Balance           decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0"`
	Amount            decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0"`
	Currency          string          `gorm:"not null;size:3"`
	ClientLinkURL     string          `gorm:"size:1000"`
	BilledFrom        time.Time       `gorm:"not null"`
	BilledUntil       time.Time       `gorm:"not null;index:idx_invoice_ref_subscription,priority:2"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (InvoiceRefModel) TableName() string {
	return constants.TableInvoiceRefs
}

// OpenPositionModel is a billable position waiting for the next invoice
type OpenPositionModel struct {
	ID             uint      `gorm:"primarykey"`
	SubscriptionID uint      `gorm:"not null"`
	UserID         uint      `gorm:"not null;index:idx_open_position_user"`
	Description    string    `gorm:"size:500"`
	BillUntil      time.Time `gorm:"not null"`
	InvoiceRefID   *uint     `gorm:"index:idx_open_position_invoice"`
	CreatedAt      time.Time
}

func (OpenPositionModel) TableName() string {
	return constants.TableOpenPositions
}
