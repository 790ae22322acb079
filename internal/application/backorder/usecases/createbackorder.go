package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/orris-inc/cloudbilling/internal/domain/backorder"
	"github.com/orris-inc/cloudbilling/internal/domain/subscription"
	"github.com/orris-inc/cloudbilling/internal/shared/biztime"
	apperrors "github.com/orris-inc/cloudbilling/internal/shared/errors"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
	"github.com/orris-inc/cloudbilling/internal/shared/validation"
)

type CreateBackorderCommand struct {
	UserID          uint           `json:"user_id" validate:"required"`
	PlanID          uint           `json:"plan_id" validate:"required"`
	RequestedConfig map[string]any `json:"requested_config"`
	Reason          string         `json:"reason" validate:"max=1000"`
	Alternatives    []string       `json:"alternatives" validate:"omitempty,dive,required"`
}

type CreateBackorderUseCase struct {
	backorderRepo backorder.Repository
	planRepo      subscription.PlanRepository
	now           func() time.Time
	logger        logger.Interface
}

func NewCreateBackorderUseCase(
	backorderRepo backorder.Repository,
	planRepo subscription.PlanRepository,
	logger logger.Interface,
) *CreateBackorderUseCase {
	return &CreateBackorderUseCase{
		backorderRepo: backorderRepo,
		planRepo:      planRepo,
		now:           biztime.NowUTC,
		logger:        logger,
	}
}

func (uc *CreateBackorderUseCase) Execute(ctx context.Context, cmd CreateBackorderCommand) (*backorder.Backorder, error) {
	if err := validation.Struct(cmd); err != nil {
		return nil, err
	}

	plan, err := uc.planRepo.GetByID(ctx, cmd.PlanID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, apperrors.NewNotFoundError("Plan not found").WithCause(subscription.ErrPlanNotFound)
	}

	bo, err := backorder.NewBackorder(cmd.UserID, plan.ServiceTypeID(), plan.ID(),
		cmd.RequestedConfig, cmd.Reason, cmd.Alternatives, uc.now())
	if err != nil {
		return nil, err
	}
	if err := uc.backorderRepo.Create(ctx, bo); err != nil {
		uc.logger.Errorw("failed to create backorder", "error", err, "user_id", cmd.UserID)
		return nil, fmt.Errorf("failed to create backorder: %w", err)
	}

	uc.logger.Infow("backorder created",
		"backorder_id", bo.ID(),
		"user_id", cmd.UserID,
		"plan_id", cmd.PlanID,
	)
	return bo, nil
}
