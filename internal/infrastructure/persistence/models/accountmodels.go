package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/orris-inc/cloudbilling/internal/shared/constants"
)

// BillingAccountModel is keyed by the user ID of the identity system
type BillingAccountModel struct {
	UserID              uint   `gorm:"primarykey;autoIncrement:false"`
	Email               string `gorm:"not null;size:255"`
	Name                string `gorm:"size:255"`
	SignedUpAt          time.Time
	BillingDayOverride  *int
	EffectiveBillingDay int    `gorm:"not null;index:idx_account_billing_day"`
	ExternalClientID    string `gorm:"size:255"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (BillingAccountModel) TableName() string {
	return constants.TableBillingAccounts
}

type UsageRecordModel struct {
	ID             uint `gorm:"primarykey"`
	SubscriptionID uint `gorm:"not null;index:idx_usage_subscription,priority:1"`
	Payload        datatypes.JSON
	RecordedAt     time.Time `gorm:"not null;index:idx_usage_subscription,priority:2"`
}

func (UsageRecordModel) TableName() string {
	return constants.TableUsageRecords
}

// ReservedHostnameModel guards hostname uniqueness across all items
type ReservedHostnameModel struct {
	ID                 uint   `gorm:"primarykey"`
	Hostname           string `gorm:"not null;size:63;uniqueIndex"`
	SubscriptionItemID uint   `gorm:"not null;uniqueIndex"`
	CreatedAt          time.Time
}

func (ReservedHostnameModel) TableName() string {
	return constants.TableReservedHostnames
}
