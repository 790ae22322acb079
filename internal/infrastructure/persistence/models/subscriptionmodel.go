package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/orris-inc/cloudbilling/internal/shared/constants"
)

// SubscriptionModel represents the database persistence model for subscriptions
type SubscriptionModel struct {
	ID                 uint      `gorm:"primarykey"`
	UserID             uint      `gorm:"not null;index:idx_subscription_user"`
	PlanID             uint      `gorm:"not null;index:idx_subscription_plan"`
	Status             string    `gorm:"not null;size:20;index:idx_subscription_status_billing,priority:1;index:idx_subscription_status_cancel,priority:1"`
	CurrentPeriodStart time.Time `gorm:"not null"`
	CurrentPeriodEnd   time.Time `gorm:"not null"`
	NextBillingAt      time.Time `gorm:"not null;index:idx_subscription_status_billing,priority:2"`
	CancelRequestedAt  *time.Time
	CancelEffectiveAt  *time.Time `gorm:"index:idx_subscription_status_cancel,priority:2"`
	ResumedAt          *time.Time
	Version            int `gorm:"not null;default:1"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName specifies the table name for GORM
func (SubscriptionModel) TableName() string {
	return constants.TableSubscriptions
}

// BeforeCreate hook for GORM
func (s *SubscriptionModel) BeforeCreate(tx *gorm.DB) error {
	if s.Version == 0 {
		s.Version = 1
	}
	return nil
}
