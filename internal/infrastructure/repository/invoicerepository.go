package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/orris-inc/cloudbilling/internal/domain/invoice"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/persistence/models"
	"github.com/orris-inc/cloudbilling/internal/shared/biztime"
	"github.com/orris-inc/cloudbilling/internal/shared/db"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
	"github.com/orris-inc/cloudbilling/internal/shared/mapper"
	"github.com/orris-inc/cloudbilling/internal/shared/query"
)

type InvoiceRefRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.InvoiceRefMapper
	logger logger.Interface
}

func NewInvoiceRefRepository(db *gorm.DB, logger logger.Interface) invoice.RefRepository {
	return &InvoiceRefRepositoryImpl{
		db:     db,
		mapper: mappers.NewInvoiceRefMapper(),
		logger: logger,
	}
}

func (r *InvoiceRefRepositoryImpl) Create(ctx context.Context, ref *invoice.Ref) error {
	model := r.mapper.ToModel(ref)

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create invoice reference",
			"subscription_id", model.SubscriptionID,
			"external_invoice_id", model.ExternalInvoiceID,
			"error", err)
		return fmt.Errorf("failed to create invoice reference: %w", err)
	}

	return ref.SetID(model.ID)
}

func (r *InvoiceRefRepositoryImpl) GetLatestBySubscriptionID(ctx context.Context, subscriptionID uint) (*invoice.Ref, error) {
	var model models.InvoiceRefModel

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.Where("subscription_id = ?", subscriptionID).
		Order("billed_until DESC").
		Order("id DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get latest invoice reference", "subscription_id", subscriptionID, "error", err)
		return nil, fmt.Errorf("failed to get latest invoice reference: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *InvoiceRefRepositoryImpl) UpdateChanges(ctx context.Context, id uint, changes invoice.Changes) error {
	if changes.IsEmpty() {
		return nil
	}

	updates := map[string]interface{}{
		"updated_at": biztime.NowUTC(),
	}
	if changes.Status != nil {
		updates["status"] = *changes.Status
	}
	if changes.Number != nil {
		updates["number"] = *changes.Number
	}
	if changes.Balance != nil {
		updates["balance"] = *changes.Balance
	}
	if changes.ClientLinkURL != nil {
		updates["client_link_url"] = *changes.ClientLinkURL
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Model(&models.InvoiceRefModel{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		r.logger.Errorw("failed to update invoice reference", "id", id, "error", err)
		return fmt.Errorf("failed to update invoice reference: %w", err)
	}

	return nil
}

func (r *InvoiceRefRepositoryImpl) ListAfterID(ctx context.Context, cursor query.Cursor) ([]*invoice.Ref, error) {
	var rows []*models.InvoiceRefModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Scopes(db.IDAfter(cursor)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list invoice references: %w", err)
	}

	return r.mapper.ToEntities(rows)
}

type OpenPositionRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewOpenPositionRepository(db *gorm.DB, logger logger.Interface) invoice.OpenPositionRepository {
	return &OpenPositionRepositoryImpl{db: db, logger: logger}
}

func (r *OpenPositionRepositoryImpl) Create(ctx context.Context, position *invoice.OpenPosition) error {
	model := mappers.OpenPositionToModel(position)

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create open position", "subscription_id", model.SubscriptionID, "error", err)
		return fmt.Errorf("failed to create open position: %w", err)
	}

	return position.SetID(model.ID)
}

func (r *OpenPositionRepositoryImpl) ListUnbilledByUserID(ctx context.Context, userID uint) ([]*invoice.OpenPosition, error) {
	var rows []*models.OpenPositionModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("user_id = ? AND invoice_ref_id IS NULL", userID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list open positions: %w", err)
	}

	return mapper.MapSlicePtrWithID(rows, mappers.OpenPositionToEntity, func(model *models.OpenPositionModel) uint { return model.ID })
}

// LinkInvoice only links a position that is still unbilled.
func (r *OpenPositionRepositoryImpl) LinkInvoice(ctx context.Context, positionID, invoiceRefID uint) error {
	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(&models.OpenPositionModel{}).
		Where("id = ? AND invoice_ref_id IS NULL", positionID).
		Update("invoice_ref_id", invoiceRefID)
	if result.Error != nil {
		r.logger.Errorw("failed to link open position", "id", positionID, "invoice_ref_id", invoiceRefID, "error", result.Error)
		return fmt.Errorf("failed to link open position: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("open position %d is unknown or already billed", positionID)
	}

	return nil
}
