package mappers

import (
	"encoding/json"
	"fmt"

	"github.com/orris-inc/cloudbilling/internal/domain/billing"
	"github.com/orris-inc/cloudbilling/internal/domain/subscription"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/persistence/models"
)

type PlanMapper interface {
	ToEntity(model *models.ServicePlanModel) (*subscription.Plan, error)
	ToModel(entity *subscription.Plan) (*models.ServicePlanModel, error)
}

type PlanMapperImpl struct{}

func NewPlanMapper() PlanMapper {
	return &PlanMapperImpl{}
}

func (m *PlanMapperImpl) ToEntity(model *models.ServicePlanModel) (*subscription.Plan, error) {
	if model == nil {
		return nil, nil
	}

	intervalType, err := billing.ParseIntervalType(model.IntervalType)
	if err != nil {
		return nil, err
	}

	defaults, err := unmarshalMap(model.DefaultConfig, "default config")
	if err != nil {
		return nil, err
	}

	entity, err := subscription.ReconstructPlan(
		model.ID,
		model.ServiceTypeID,
		model.Name,
		billing.Interval{
			Type:       intervalType,
			Value:      model.IntervalValue,
			DayOfMonth: model.DayOfMonth,
		},
		billing.CancellationPolicy{
			CancelAtPeriodEnd: model.CancelAtPeriodEnd,
			MinCommitmentDays: model.MinCommitmentDays,
			NoticeDays:        model.NoticeDays,
		},
		subscription.PlanPricing{
			BasePrice:     model.BasePrice,
			MarginPercent: model.MarginPercent,
			MarginFixed:   model.MarginFixed,
			Currency:      model.Currency,
		},
		defaults,
		model.IsActive,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct plan entity: %w", err)
	}

	return entity, nil
}

func (m *PlanMapperImpl) ToModel(entity *subscription.Plan) (*models.ServicePlanModel, error) {
	if entity == nil {
		return nil, nil
	}

	defaults, err := marshalJSON(entity.DefaultConfig(), "default config")
	if err != nil {
		return nil, err
	}

	interval := entity.Interval()
	policy := entity.CancellationPolicy()
	pricing := entity.Pricing()

	return &models.ServicePlanModel{
		ID:                entity.ID(),
		ServiceTypeID:     entity.ServiceTypeID(),
		Name:              entity.Name(),
		IntervalType:      interval.Type.String(),
		IntervalValue:     interval.Value,
		DayOfMonth:        interval.DayOfMonth,
		CancelAtPeriodEnd: policy.CancelAtPeriodEnd,
		MinCommitmentDays: policy.MinCommitmentDays,
		NoticeDays:        policy.NoticeDays,
		BasePrice:         pricing.BasePrice,
		MarginPercent:     pricing.MarginPercent,
		MarginFixed:       pricing.MarginFixed,
		Currency:          pricing.Currency,
		DefaultConfig:     defaults,
		IsActive:          entity.IsActive(),
		CreatedAt:         entity.CreatedAt(),
		UpdatedAt:         entity.UpdatedAt(),
	}, nil
}

type ServiceTypeMapper interface {
	ToEntity(model *models.ServiceTypeModel) (*subscription.ServiceType, error)
	ToModel(entity *subscription.ServiceType) (*models.ServiceTypeModel, error)
}

type ServiceTypeMapperImpl struct{}

func NewServiceTypeMapper() ServiceTypeMapper {
	return &ServiceTypeMapperImpl{}
}

func (m *ServiceTypeMapperImpl) ToEntity(model *models.ServiceTypeModel) (*subscription.ServiceType, error) {
	if model == nil {
		return nil, nil
	}

	schema := subscription.ConfigSchema{}
	if len(model.ConfigSchema) > 0 {
		if err := json.Unmarshal(model.ConfigSchema, &schema); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config schema: %w", err)
		}
	}

	defaults, err := unmarshalMap(model.DefaultConfig, "default config")
	if err != nil {
		return nil, err
	}

	entity, err := subscription.ReconstructServiceType(
		model.ID,
		model.Name,
		model.Provider,
		schema,
		defaults,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct service type entity: %w", err)
	}

	return entity, nil
}

func (m *ServiceTypeMapperImpl) ToModel(entity *subscription.ServiceType) (*models.ServiceTypeModel, error) {
	if entity == nil {
		return nil, nil
	}

	schema, err := marshalJSON(entity.ConfigSchema(), "config schema")
	if err != nil {
		return nil, err
	}
	defaults, err := marshalJSON(entity.DefaultConfig(), "default config")
	if err != nil {
		return nil, err
	}

	return &models.ServiceTypeModel{
		ID:            entity.ID(),
		Name:          entity.Name(),
		Provider:      entity.Provider(),
		ConfigSchema:  schema,
		DefaultConfig: defaults,
		CreatedAt:     entity.CreatedAt(),
		UpdatedAt:     entity.UpdatedAt(),
	}, nil
}
