package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/orris-inc/cloudbilling/internal/domain/usage"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/persistence/models"
	"github.com/orris-inc/cloudbilling/internal/shared/db"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
)

type UsageRecordRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewUsageRecordRepository(db *gorm.DB, logger logger.Interface) usage.Repository {
	return &UsageRecordRepositoryImpl{db: db, logger: logger}
}

func (r *UsageRecordRepositoryImpl) Create(ctx context.Context, record *usage.Record) error {
	model, err := mappers.UsageRecordToModel(record)
	if err != nil {
		return err
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create usage record", "subscription_id", model.SubscriptionID, "error", err)
		return fmt.Errorf("failed to create usage record: %w", err)
	}

	record.SetID(model.ID)
	return nil
}

func (r *UsageRecordRepositoryImpl) GetLatest(ctx context.Context, subscriptionID uint) (*usage.Record, error) {
	var model models.UsageRecordModel

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.Where("subscription_id = ?", subscriptionID).
		Order("recorded_at DESC").
		Order("id DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest usage record: %w", err)
	}

	return mappers.UsageRecordToEntity(&model)
}
