package mappers

import (
	"encoding/json"
	"fmt"

	"github.com/orris-inc/cloudbilling/internal/domain/backorder"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/persistence/models"
	"github.com/orris-inc/cloudbilling/internal/shared/mapper"
)

type BackorderMapper interface {
	ToEntity(model *models.BackorderModel) (*backorder.Backorder, error)
	ToModel(entity *backorder.Backorder) (*models.BackorderModel, error)
	ToEntities(models []*models.BackorderModel) ([]*backorder.Backorder, error)
}

type BackorderMapperImpl struct{}

func NewBackorderMapper() BackorderMapper {
	return &BackorderMapperImpl{}
}

func (m *BackorderMapperImpl) ToEntity(model *models.BackorderModel) (*backorder.Backorder, error) {
	if model == nil {
		return nil, nil
	}

	config, err := unmarshalMap(model.RequestedConfig, "requested config")
	if err != nil {
		return nil, err
	}

	var alternatives []string
	if len(model.PreferredAlternatives) > 0 {
		if err := json.Unmarshal(model.PreferredAlternatives, &alternatives); err != nil {
			return nil, fmt.Errorf("failed to unmarshal preferred alternatives: %w", err)
		}
	}

	entity, err := backorder.Reconstruct(backorder.ReconstructParams{
		ID:                    model.ID,
		UserID:                model.UserID,
		ServiceTypeID:         model.ServiceTypeID,
		PlanID:                model.PlanID,
		RequestedConfig:       config,
		Status:                backorder.Status(model.Status),
		FailureReason:         model.FailureReason,
		PreferredAlternatives: alternatives,
		RetryCount:            model.RetryCount,
		LastRetriedAt:         utcPtr(model.LastRetriedAt),
		SubscriptionID:        model.SubscriptionID,
		CreatedAt:             model.CreatedAt,
		UpdatedAt:             model.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct backorder entity: %w", err)
	}

	return entity, nil
}

func (m *BackorderMapperImpl) ToModel(entity *backorder.Backorder) (*models.BackorderModel, error) {
	if entity == nil {
		return nil, nil
	}

	config, err := marshalJSON(entity.RequestedConfig(), "requested config")
	if err != nil {
		return nil, err
	}

	alternatives := entity.PreferredAlternatives()
	if alternatives == nil {
		alternatives = []string{}
	}
	alternativesJSON, err := marshalJSON(alternatives, "preferred alternatives")
	if err != nil {
		return nil, err
	}

	return &models.BackorderModel{
		ID:                    entity.ID(),
		UserID:                entity.UserID(),
		ServiceTypeID:         entity.ServiceTypeID(),
		PlanID:                entity.PlanID(),
		RequestedConfig:       config,
		Status:                entity.Status().String(),
		FailureReason:         entity.FailureReason(),
		PreferredAlternatives: alternativesJSON,
		RetryCount:            entity.RetryCount(),
		LastRetriedAt:         entity.LastRetriedAt(),
		SubscriptionID:        entity.SubscriptionID(),
		CreatedAt:             entity.CreatedAt(),
		UpdatedAt:             entity.UpdatedAt(),
	}, nil
}

func (m *BackorderMapperImpl) ToEntities(modelList []*models.BackorderModel) ([]*backorder.Backorder, error) {
	return mapper.MapSlicePtrWithID(modelList, m.ToEntity, func(model *models.BackorderModel) uint { return model.ID })
}
