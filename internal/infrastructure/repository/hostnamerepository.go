package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/orris-inc/cloudbilling/internal/domain/hostname"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/persistence/models"
	"github.com/orris-inc/cloudbilling/internal/shared/db"
	apperrors "github.com/orris-inc/cloudbilling/internal/shared/errors"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
)

type HostnameRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewHostnameRepository(db *gorm.DB, logger logger.Interface) hostname.Repository {
	return &HostnameRepositoryImpl{db: db, logger: logger}
}

func (r *HostnameRepositoryImpl) Exists(ctx context.Context, name string) (bool, error) {
	var count int64

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Model(&models.ReservedHostnameModel{}).Where("hostname = ?", name).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check hostname: %w", err)
	}
	return count > 0, nil
}

func (r *HostnameRepositoryImpl) Create(ctx context.Context, reservation *hostname.Reservation) error {
	model := mappers.ReservationToModel(reservation)

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", hostname.ErrHostnameTaken, model.Hostname)
		}
		r.logger.Errorw("failed to reserve hostname", "hostname", model.Hostname, "error", err)
		return fmt.Errorf("failed to reserve hostname: %w", err)
	}

	reservation.SetID(model.ID)
	return nil
}

func (r *HostnameRepositoryImpl) GetBySubscriptionItemID(ctx context.Context, subscriptionItemID uint) (*hostname.Reservation, error) {
	var model models.ReservedHostnameModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("subscription_item_id = ?", subscriptionItemID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get hostname reservation: %w", err)
	}

	return mappers.ReservationToEntity(&model), nil
}

func (r *HostnameRepositoryImpl) DeleteBySubscriptionItemID(ctx context.Context, subscriptionItemID uint) error {
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("subscription_item_id = ?", subscriptionItemID).Delete(&models.ReservedHostnameModel{}).Error; err != nil {
		r.logger.Errorw("failed to release hostname", "subscription_item_id", subscriptionItemID, "error", err)
		return fmt.Errorf("failed to release hostname: %w", err)
	}
	return nil
}
