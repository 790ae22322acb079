package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/orris-inc/cloudbilling/internal/domain/backorder"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/persistence/models"
	"github.com/orris-inc/cloudbilling/internal/shared/db"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
	"github.com/orris-inc/cloudbilling/internal/shared/query"
)

type BackorderRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.BackorderMapper
	logger logger.Interface
}

func NewBackorderRepository(db *gorm.DB, logger logger.Interface) backorder.Repository {
	return &BackorderRepositoryImpl{
		db:     db,
		mapper: mappers.NewBackorderMapper(),
		logger: logger,
	}
}

func (r *BackorderRepositoryImpl) Create(ctx context.Context, entity *backorder.Backorder) error {
	model, err := r.mapper.ToModel(entity)
	if err != nil {
		return fmt.Errorf("failed to map backorder entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create backorder", "user_id", model.UserID, "plan_id", model.PlanID, "error", err)
		return fmt.Errorf("failed to create backorder: %w", err)
	}

	if err := entity.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set backorder ID: %w", err)
	}

	r.logger.Infow("backorder created", "id", model.ID, "user_id", model.UserID, "plan_id", model.PlanID)
	return nil
}

func (r *BackorderRepositoryImpl) GetByID(ctx context.Context, id uint) (*backorder.Backorder, error) {
	var model models.BackorderModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get backorder by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get backorder: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *BackorderRepositoryImpl) Update(ctx context.Context, entity *backorder.Backorder) error {
	model, err := r.mapper.ToModel(entity)
	if err != nil {
		return fmt.Errorf("failed to map backorder entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	err = tx.Model(&models.BackorderModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"status":                 model.Status,
			"failure_reason":         model.FailureReason,
			"preferred_alternatives": model.PreferredAlternatives,
			"retry_count":            model.RetryCount,
			"last_retried_at":        model.LastRetriedAt,
			"subscription_id":        model.SubscriptionID,
			"updated_at":             model.UpdatedAt,
		}).Error
	if err != nil {
		r.logger.Errorw("failed to update backorder", "id", model.ID, "error", err)
		return fmt.Errorf("failed to update backorder: %w", err)
	}

	return nil
}

func (r *BackorderRepositoryImpl) ListOpen(ctx context.Context, cursor query.Cursor) ([]*backorder.Backorder, error) {
	var rows []*models.BackorderModel

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.Where("status IN ?", []string{backorder.StatusPending.String(), backorder.StatusRetrying.String()}).
		Scopes(db.IDAfter(cursor)).
		Find(&rows).Error
	if err != nil {
		r.logger.Errorw("failed to list open backorders", "after_id", cursor.AfterID, "error", err)
		return nil, fmt.Errorf("failed to list open backorders: %w", err)
	}

	return r.mapper.ToEntities(rows)
}
