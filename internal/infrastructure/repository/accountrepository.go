package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orris-inc/cloudbilling/internal/domain/customer"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/persistence/models"
	"github.com/orris-inc/cloudbilling/internal/shared/db"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
	"github.com/orris-inc/cloudbilling/internal/shared/query"
)

type BillingAccountRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewBillingAccountRepository(db *gorm.DB, logger logger.Interface) customer.Repository {
	return &BillingAccountRepositoryImpl{db: db, logger: logger}
}

func (r *BillingAccountRepositoryImpl) GetByUserID(ctx context.Context, userID uint) (*customer.Account, error) {
	var model models.BillingAccountModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("user_id = ?", userID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get billing account", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get billing account: %w", err)
	}

	return mappers.AccountToEntity(&model), nil
}

func (r *BillingAccountRepositoryImpl) Save(ctx context.Context, account *customer.Account) error {
	model := mappers.AccountToModel(account)

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email",
			"name",
			"signed_up_at",
			"billing_day_override",
			"effective_billing_day",
			"external_client_id",
			"updated_at",
		}),
	}).Create(model).Error
	if err != nil {
		r.logger.Errorw("failed to save billing account", "user_id", model.UserID, "error", err)
		return fmt.Errorf("failed to save billing account: %w", err)
	}

	return nil
}

func (r *BillingAccountRepositoryImpl) ListByBillingDay(ctx context.Context, day int, cursor query.Cursor) ([]*customer.Account, error) {
	var rows []*models.BillingAccountModel

	tx := db.GetTxFromContext(ctx, r.db).Where("effective_billing_day = ?", day)
	if cursor.AfterID > 0 {
		tx = tx.Where("user_id > ?", cursor.AfterID)
	}
	if err := tx.Order("user_id ASC").Limit(cursor.Size()).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list billing accounts: %w", err)
	}

	accounts := make([]*customer.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, mappers.AccountToEntity(row))
	}
	return accounts, nil
}
