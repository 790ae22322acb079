package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/orris-inc/cloudbilling/internal/domain/subscription"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/persistence/models"
	"github.com/orris-inc/cloudbilling/internal/shared/db"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
)

type PlanRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.PlanMapper
	logger logger.Interface
}

func NewPlanRepository(db *gorm.DB, logger logger.Interface) subscription.PlanRepository {
	return &PlanRepositoryImpl{
		db:     db,
		mapper: mappers.NewPlanMapper(),
		logger: logger,
	}
}

func (r *PlanRepositoryImpl) Create(ctx context.Context, plan *subscription.Plan) error {
	model, err := r.mapper.ToModel(plan)
	if err != nil {
		return fmt.Errorf("failed to map plan entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create plan", "name", model.Name, "error", err)
		return fmt.Errorf("failed to create plan: %w", err)
	}

	return plan.SetID(model.ID)
}

func (r *PlanRepositoryImpl) GetByID(ctx context.Context, id uint) (*subscription.Plan, error) {
	var model models.ServicePlanModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get plan by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		r.logger.Errorw("failed to map plan model to entity", "id", id, "error", err)
		return nil, fmt.Errorf("failed to map plan: %w", err)
	}
	return entity, nil
}

type ServiceTypeRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.ServiceTypeMapper
	logger logger.Interface
}

func NewServiceTypeRepository(db *gorm.DB, logger logger.Interface) subscription.ServiceTypeRepository {
	return &ServiceTypeRepositoryImpl{
		db:     db,
		mapper: mappers.NewServiceTypeMapper(),
		logger: logger,
	}
}

func (r *ServiceTypeRepositoryImpl) Create(ctx context.Context, serviceType *subscription.ServiceType) error {
	model, err := r.mapper.ToModel(serviceType)
	if err != nil {
		return fmt.Errorf("failed to map service type entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create service type", "name", model.Name, "error", err)
		return fmt.Errorf("failed to create service type: %w", err)
	}

	return serviceType.SetID(model.ID)
}

func (r *ServiceTypeRepositoryImpl) GetByID(ctx context.Context, id uint) (*subscription.ServiceType, error) {
	var model models.ServiceTypeModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get service type: %w", err)
	}

	return r.mapper.ToEntity(&model)
}
