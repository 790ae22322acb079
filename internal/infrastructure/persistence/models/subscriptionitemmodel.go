package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/orris-inc/cloudbilling/internal/shared/constants"
)

// SubscriptionItemModel stores one provisioned server of a subscription
type SubscriptionItemModel struct {
	ID                 uint   `gorm:"primarykey"`
	SubscriptionID     uint   `gorm:"not null;index:idx_item_subscription"`
	ServiceTypeID      uint   `gorm:"not null"`
	Provider           string `gorm:"not null;size:50"`
	Region             string `gorm:"size:50"`
	ServerType         string `gorm:"size:100"`
	ConfigSnapshot     datatypes.JSON
	ProvisioningStatus string `gorm:"not null;size:20"`
	ProviderReference  string `gorm:"size:255"`
	Hostname           string `gorm:"size:63"`
	FailureReason      string `gorm:"size:1000"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (SubscriptionItemModel) TableName() string {
	return constants.TableSubscriptionItems
}
