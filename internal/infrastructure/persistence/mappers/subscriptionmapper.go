package mappers

import (
	"fmt"

	"github.com/orris-inc/cloudbilling/internal/domain/subscription"
	vo "github.com/orris-inc/cloudbilling/internal/domain/subscription/valueobjects"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/persistence/models"
	"github.com/orris-inc/cloudbilling/internal/shared/mapper"
)

type SubscriptionMapper interface {
	ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error)
	ToModel(entity *subscription.Subscription) (*models.SubscriptionModel, error)
	ToEntities(models []*models.SubscriptionModel) ([]*subscription.Subscription, error)
}

type SubscriptionMapperImpl struct{}

func NewSubscriptionMapper() SubscriptionMapper {
	return &SubscriptionMapperImpl{}
}

func (m *SubscriptionMapperImpl) ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error) {
	if model == nil {
		return nil, nil
	}

	status := vo.SubscriptionStatus(model.Status)
	if !vo.ValidStatuses[status] {
		return nil, fmt.Errorf("invalid subscription status: %s", model.Status)
	}

	entity, err := subscription.ReconstructSubscription(
		model.ID,
		model.UserID,
		model.PlanID,
		status,
		model.CurrentPeriodStart.UTC(),
		model.CurrentPeriodEnd.UTC(),
		model.NextBillingAt.UTC(),
		utcPtr(model.CancelRequestedAt),
		utcPtr(model.CancelEffectiveAt),
		utcPtr(model.ResumedAt),
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct subscription entity: %w", err)
	}

	return entity, nil
}

func (m *SubscriptionMapperImpl) ToModel(entity *subscription.Subscription) (*models.SubscriptionModel, error) {
	if entity == nil {
		return nil, nil
	}

	return &models.SubscriptionModel{
		ID:                 entity.ID(),
		UserID:             entity.UserID(),
		PlanID:             entity.PlanID(),
		Status:             entity.Status().String(),
		CurrentPeriodStart: entity.CurrentPeriodStart(),
		CurrentPeriodEnd:   entity.CurrentPeriodEnd(),
		NextBillingAt:      entity.NextBillingAt(),
		CancelRequestedAt:  entity.CancelRequestedAt(),
		CancelEffectiveAt:  entity.CancelEffectiveAt(),
		ResumedAt:          entity.ResumedAt(),
		Version:            entity.Version(),
		CreatedAt:          entity.CreatedAt(),
		UpdatedAt:          entity.UpdatedAt(),
	}, nil
}

func (m *SubscriptionMapperImpl) ToEntities(modelList []*models.SubscriptionModel) ([]*subscription.Subscription, error) {
	return mapper.MapSlicePtrWithID(modelList, m.ToEntity, func(model *models.SubscriptionModel) uint { return model.ID })
}

type ItemMapper interface {
	ToEntity(model *models.SubscriptionItemModel) (*subscription.Item, error)
	ToModel(entity *subscription.Item) (*models.SubscriptionItemModel, error)
	ToEntities(models []*models.SubscriptionItemModel) ([]*subscription.Item, error)
}

type ItemMapperImpl struct{}

func NewItemMapper() ItemMapper {
	return &ItemMapperImpl{}
}

func (m *ItemMapperImpl) ToEntity(model *models.SubscriptionItemModel) (*subscription.Item, error) {
	if model == nil {
		return nil, nil
	}

	config, err := unmarshalMap(model.ConfigSnapshot, "config snapshot")
	if err != nil {
		return nil, err
	}

	entity, err := subscription.ReconstructItem(
		model.ID,
		model.SubscriptionID,
		model.ServiceTypeID,
		subscription.ItemPlacement{
			Provider:   model.Provider,
			Region:     model.Region,
			ServerType: model.ServerType,
		},
		config,
		vo.ProvisioningStatus(model.ProvisioningStatus),
		model.ProviderReference,
		model.Hostname,
		model.FailureReason,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct subscription item entity: %w", err)
	}

	return entity, nil
}

func (m *ItemMapperImpl) ToModel(entity *subscription.Item) (*models.SubscriptionItemModel, error) {
	if entity == nil {
		return nil, nil
	}

	config, err := marshalJSON(entity.ConfigSnapshot(), "config snapshot")
	if err != nil {
		return nil, err
	}

	placement := entity.Placement()
	return &models.SubscriptionItemModel{
		ID:                 entity.ID(),
		SubscriptionID:     entity.SubscriptionID(),
		ServiceTypeID:      entity.ServiceTypeID(),
		Provider:           placement.Provider,
		Region:             placement.Region,
		ServerType:         placement.ServerType,
		ConfigSnapshot:     config,
		ProvisioningStatus: entity.ProvisioningStatus().String(),
		ProviderReference:  entity.ProviderReference(),
		Hostname:           entity.Hostname(),
		FailureReason:      entity.FailureReason(),
		CreatedAt:          entity.CreatedAt(),
		UpdatedAt:          entity.UpdatedAt(),
	}, nil
}

func (m *ItemMapperImpl) ToEntities(modelList []*models.SubscriptionItemModel) ([]*subscription.Item, error) {
	return mapper.MapSlicePtrWithID(modelList, m.ToEntity, func(model *models.SubscriptionItemModel) uint { return model.ID })
}
