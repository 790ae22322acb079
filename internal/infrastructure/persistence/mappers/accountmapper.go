package mappers

import (
	"fmt"

	"github.com/orris-inc/cloudbilling/internal/domain/customer"
	"github.com/orris-inc/cloudbilling/internal/domain/hostname"
	"github.com/orris-inc/cloudbilling/internal/domain/usage"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/persistence/models"
)

func AccountToEntity(model *models.BillingAccountModel) *customer.Account {
	if model == nil {
		return nil
	}
	return customer.ReconstructAccount(
		model.UserID,
		model.Email,
		model.Name,
		model.SignedUpAt.UTC(),
		model.BillingDayOverride,
		model.ExternalClientID,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

func AccountToModel(entity *customer.Account) *models.BillingAccountModel {
	return &models.BillingAccountModel{
		UserID:              entity.UserID(),
		Email:               entity.Email(),
		Name:                entity.Name(),
		SignedUpAt:          entity.SignedUpAt(),
		BillingDayOverride:  entity.BillingDayOverride(),
		EffectiveBillingDay: entity.EffectiveBillingDay(),
		ExternalClientID:    entity.ExternalClientID(),
		CreatedAt:           entity.CreatedAt(),
		UpdatedAt:           entity.UpdatedAt(),
	}
}

func UsageRecordToEntity(model *models.UsageRecordModel) (*usage.Record, error) {
	payload, err := unmarshalMap(model.Payload, "usage payload")
	if err != nil {
		return nil, fmt.Errorf("usage record %d: %w", model.ID, err)
	}
	return usage.ReconstructRecord(model.ID, model.SubscriptionID, payload, model.RecordedAt.UTC()), nil
}

func UsageRecordToModel(entity *usage.Record) (*models.UsageRecordModel, error) {
	payload, err := marshalJSON(entity.Payload(), "usage payload")
	if err != nil {
		return nil, err
	}
	return &models.UsageRecordModel{
		ID:             entity.ID(),
		SubscriptionID: entity.SubscriptionID(),
		Payload:        payload,
		RecordedAt:     entity.RecordedAt(),
	}, nil
}

func ReservationToEntity(model *models.ReservedHostnameModel) *hostname.Reservation {
	return hostname.ReconstructReservation(model.ID, model.Hostname, model.SubscriptionItemID, model.CreatedAt)
}

func ReservationToModel(entity *hostname.Reservation) *models.ReservedHostnameModel {
	return &models.ReservedHostnameModel{
		ID:                 entity.ID(),
		Hostname:           entity.Hostname(),
		SubscriptionItemID: entity.SubscriptionItemID(),
		CreatedAt:          entity.CreatedAt(),
	}
}
