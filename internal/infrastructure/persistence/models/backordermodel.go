package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/orris-inc/cloudbilling/internal/shared/constants"
)

// BackorderModel represents the database persistence model for backorders
type BackorderModel struct {
	ID                    uint `gorm:"primarykey"`
	UserID                uint `gorm:"not null;index:idx_backorder_user"`
	ServiceTypeID         uint `gorm:"not null"`
	PlanID                uint `gorm:"not null"`
	RequestedConfig       datatypes.JSON
	Status                string `gorm:"not null;size:20;index:idx_backorder_status"`
	FailureReason         string `gorm:"size:1000"`
	PreferredAlternatives datatypes.JSON
	RetryCount            int `gorm:"not null;default:0"`
	LastRetriedAt         *time.Time
	SubscriptionID        *uint
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (BackorderModel) TableName() string {
	return constants.TableBackorders
}
