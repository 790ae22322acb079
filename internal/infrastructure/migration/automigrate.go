package migration

import (
	"github.com/orris-inc/cloudbilling/internal/infrastructure/persistence/models"
)

func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.ServiceTypeModel{},
		&models.ServicePlanModel{},
		&models.SubscriptionModel{},
		&models.SubscriptionItemModel{},
		&models.ReservedHostnameModel{},
		&models.BackorderModel{},
		&models.InvoiceRefModel{},
		&models.OpenPositionModel{},
		&models.UsageRecordModel{},
		&models.BillingAccountModel{},
	}
}
