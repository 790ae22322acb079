package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/orris-inc/cloudbilling/internal/shared/constants"
)

// ServiceTypeModel is a sellable kind of server with its config schema
type ServiceTypeModel struct {
	ID            uint   `gorm:"primarykey"`
	Name          string `gorm:"not null;size:100"`
	Provider      string `gorm:"size:50"`
	ConfigSchema  datatypes.JSON
	DefaultConfig datatypes.JSON
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (ServiceTypeModel) TableName() string {
	return constants.TableServiceTypes
}

// ServicePlanModel represents the database persistence model for service plans
type ServicePlanModel struct {
	ID                uint            `gorm:"primarykey"`
	ServiceTypeID     uint            `gorm:"not null;index:idx_plan_service_type"`
	Name              string          `gorm:"not null;size:100"`
	IntervalType      string          `gorm:"not null;size:10"`
	IntervalValue     int             `gorm:"not null;default:1"`
	DayOfMonth        *int            `gorm:"comment:anchor day for month cycles"`
	CancelAtPeriodEnd bool            `gorm:"not null;default:false"`
	MinCommitmentDays int             `gorm:"not null;default:0"`
	NoticeDays        int             `gorm:"not null;default:0"`
	BasePrice         decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	MarginPercent     decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0"`
	MarginFixed       decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0"`
	Currency          string          `gorm:"not null;size:3"`
	DefaultConfig     datatypes.JSON
	IsActive          bool `gorm:"not null;default:true"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (ServicePlanModel) TableName() string {
	return constants.TableServicePlans
}
