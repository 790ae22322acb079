package mappers

import (
	"fmt"

	"github.com/orris-inc/cloudbilling/internal/domain/invoice"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/persistence/models"
	"github.com/orris-inc/cloudbilling/internal/shared/mapper"
)

type InvoiceRefMapper interface {
	ToEntity(model *models.InvoiceRefModel) (*invoice.Ref, error)
	ToModel(entity *invoice.Ref) *models.InvoiceRefModel
	ToEntities(models []*models.InvoiceRefModel) ([]*invoice.Ref, error)
}

type InvoiceRefMapperImpl struct{}

func NewInvoiceRefMapper() InvoiceRefMapper {
	return &InvoiceRefMapperImpl{}
}

func (m *InvoiceRefMapperImpl) ToEntity(model *models.InvoiceRefModel) (*invoice.Ref, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := invoice.ReconstructRef(invoice.RefParams{
		ID:                model.ID,
		SubscriptionID:    model.SubscriptionID,
		ExternalInvoiceID: model.ExternalInvoiceID,
		Number:            model.Number,
		Status:            model.Status,
		Balance:           model.Balance,
		Amount:            model.Amount,
		Currency:          model.Currency,
		ClientLinkURL:     model.ClientLinkURL,
		BilledFrom:        model.BilledFrom.UTC(),
		BilledUntil:       model.BilledUntil.UTC(),
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct invoice reference entity: %w", err)
	}

	return entity, nil
}

func (m *InvoiceRefMapperImpl) ToModel(entity *invoice.Ref) *models.InvoiceRefModel {
	if entity == nil {
		return nil
	}

	return &models.InvoiceRefModel{
		ID:                entity.ID(),
		SubscriptionID:    entity.SubscriptionID(),
		ExternalInvoiceID: entity.ExternalInvoiceID(),
		Number:            entity.Number(),
		Status:            entity.Status(),
		Balance:           entity.Balance(),
		Amount:            entity.Amount(),
		Currency:          entity.Currency(),
		ClientLinkURL:     entity.ClientLinkURL(),
		BilledFrom:        entity.BilledFrom(),
		BilledUntil:       entity.BilledUntil(),
		CreatedAt:         entity.CreatedAt(),
		UpdatedAt:         entity.UpdatedAt(),
	}
}

func (m *InvoiceRefMapperImpl) ToEntities(modelList []*models.InvoiceRefModel) ([]*invoice.Ref, error) {
	return mapper.MapSlicePtrWithID(modelList, m.ToEntity, func(model *models.InvoiceRefModel) uint { return model.ID })
}

// OpenPositionToEntity maps an open position row.
func OpenPositionToEntity(model *models.OpenPositionModel) (*invoice.OpenPosition, error) {
	return invoice.ReconstructOpenPosition(
		model.ID,
		model.SubscriptionID,
		model.UserID,
		model.Description,
		model.BillUntil.UTC(),
		model.InvoiceRefID,
		model.CreatedAt,
	)
}

func OpenPositionToModel(entity *invoice.OpenPosition) *models.OpenPositionModel {
	return &models.OpenPositionModel{
		ID:             entity.ID(),
		SubscriptionID: entity.SubscriptionID(),
		UserID:         entity.UserID(),
		Description:    entity.Description(),
		BillUntil:      entity.BillUntil(),
		InvoiceRefID:   entity.InvoiceRefID(),
		CreatedAt:      entity.CreatedAt(),
	}
}
