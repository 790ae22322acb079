package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orris-inc/cloudbilling/internal/domain/subscription"
	vo "github.com/orris-inc/cloudbilling/internal/domain/subscription/valueobjects"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/persistence/models"
	"github.com/orris-inc/cloudbilling/internal/shared/db"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
	"github.com/orris-inc/cloudbilling/internal/shared/query"
)

type SubscriptionRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.SubscriptionMapper
	logger logger.Interface
}

func NewSubscriptionRepository(db *gorm.DB, logger logger.Interface) subscription.SubscriptionRepository {
	return &SubscriptionRepositoryImpl{
		db:     db,
		mapper: mappers.NewSubscriptionMapper(),
		logger: logger,
	}
}

func (r *SubscriptionRepositoryImpl) Create(ctx context.Context, subscriptionEntity *subscription.Subscription) error {
	model, err := r.mapper.ToModel(subscriptionEntity)
	if err != nil {
		return fmt.Errorf("failed to map subscription entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create subscription in database", "error", err)
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	if err := subscriptionEntity.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set subscription ID: %w", err)
	}

	r.logger.Infow("subscription created successfully", "id", model.ID, "user_id", model.UserID, "plan_id", model.PlanID)
	return nil
}

func (r *SubscriptionRepositoryImpl) GetByID(ctx context.Context, id uint) (*subscription.Subscription, error) {
	return r.get(db.GetTxFromContext(ctx, r.db), id)
}

func (r *SubscriptionRepositoryImpl) GetByIDForUpdate(ctx context.Context, id uint) (*subscription.Subscription, error) {
	tx := db.GetTxFromContext(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"})
	return r.get(tx, id)
}

func (r *SubscriptionRepositoryImpl) get(tx *gorm.DB, id uint) (*subscription.Subscription, error) {
	var model models.SubscriptionModel
	if err := tx.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get subscription by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		r.logger.Errorw("failed to map subscription model to entity", "id", id, "error", err)
		return nil, fmt.Errorf("failed to map subscription: %w", err)
	}
	return entity, nil
}

func (r *SubscriptionRepositoryImpl) Update(ctx context.Context, subscriptionEntity *subscription.Subscription) error {
	model, err := r.mapper.ToModel(subscriptionEntity)
	if err != nil {
		return fmt.Errorf("failed to map subscription entity: %w", err)
	}

	// Optimistic locking: every aggregate change bumps the version once
	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(&models.SubscriptionModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version-1).
		Updates(map[string]interface{}{
			"status":               model.Status,
			"current_period_start": model.CurrentPeriodStart,
			"current_period_end":   model.CurrentPeriodEnd,
			"next_billing_at":      model.NextBillingAt,
			"cancel_requested_at":  model.CancelRequestedAt,
			"cancel_effective_at":  model.CancelEffectiveAt,
			"resumed_at":           model.ResumedAt,
			"version":              model.Version,
			"updated_at":           model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update subscription", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update subscription: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return subscription.ErrVersionConflict
	}

	r.logger.Debugw("subscription updated", "id", model.ID, "status", model.Status)
	return nil
}

func (r *SubscriptionRepositoryImpl) ListDueForBilling(ctx context.Context, now time.Time, cursor query.Cursor) ([]*subscription.Subscription, error) {
	return r.list(ctx, "next_billing_at", cursor, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status = ? AND next_billing_at <= ?", vo.StatusActive.String(), now)
	})
}

func (r *SubscriptionRepositoryImpl) ListDueForExpiration(ctx context.Context, now time.Time, cursor query.Cursor) ([]*subscription.Subscription, error) {
	return r.list(ctx, "cancel_effective_at", cursor, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status = ? AND cancel_effective_at IS NOT NULL AND cancel_effective_at <= ?", vo.StatusPendingCancel.String(), now)
	})
}

func (r *SubscriptionRepositoryImpl) ListRenewingBetween(ctx context.Context, from, to time.Time, cursor query.Cursor) ([]*subscription.Subscription, error) {
	return r.list(ctx, "next_billing_at", cursor, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status = ? AND next_billing_at > ? AND next_billing_at <= ?", vo.StatusActive.String(), from, to)
	})
}

func (r *SubscriptionRepositoryImpl) list(ctx context.Context, column string, cursor query.Cursor, filter func(*gorm.DB) *gorm.DB) ([]*subscription.Subscription, error) {
	var rows []*models.SubscriptionModel

	tx := db.GetTxFromContext(ctx, r.db).Model(&models.SubscriptionModel{})
	if err := tx.Scopes(filter, db.KeysetAfter(column, cursor)).Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list subscriptions", "order_by", column, "error", err)
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	entities, err := r.mapper.ToEntities(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to map subscriptions: %w", err)
	}
	return entities, nil
}

type SubscriptionItemRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.ItemMapper
	logger logger.Interface
}

func NewSubscriptionItemRepository(db *gorm.DB, logger logger.Interface) subscription.ItemRepository {
	return &SubscriptionItemRepositoryImpl{
		db:     db,
		mapper: mappers.NewItemMapper(),
		logger: logger,
	}
}

func (r *SubscriptionItemRepositoryImpl) Create(ctx context.Context, item *subscription.Item) error {
	model, err := r.mapper.ToModel(item)
	if err != nil {
		return fmt.Errorf("failed to map subscription item entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create subscription item", "subscription_id", model.SubscriptionID, "error", err)
		return fmt.Errorf("failed to create subscription item: %w", err)
	}

	return item.SetID(model.ID)
}

func (r *SubscriptionItemRepositoryImpl) GetByID(ctx context.Context, id uint) (*subscription.Item, error) {
	var model models.SubscriptionItemModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subscription item: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *SubscriptionItemRepositoryImpl) ListBySubscriptionID(ctx context.Context, subscriptionID uint) ([]*subscription.Item, error) {
	var rows []*models.SubscriptionItemModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("subscription_id = ?", subscriptionID).Order("id ASC").Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list subscription items", "subscription_id", subscriptionID, "error", err)
		return nil, fmt.Errorf("failed to list subscription items: %w", err)
	}

	return r.mapper.ToEntities(rows)
}

func (r *SubscriptionItemRepositoryImpl) Update(ctx context.Context, item *subscription.Item) error {
	model, err := r.mapper.ToModel(item)
	if err != nil {
		return fmt.Errorf("failed to map subscription item entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(&models.SubscriptionItemModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"subscription_id":     model.SubscriptionID,
			"config_snapshot":     model.ConfigSnapshot,
			"provisioning_status": model.ProvisioningStatus,
			"provider_reference":  model.ProviderReference,
			"hostname":            model.Hostname,
			"failure_reason":      model.FailureReason,
			"updated_at":          model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update subscription item", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update subscription item: %w", result.Error)
	}

	return nil
}
