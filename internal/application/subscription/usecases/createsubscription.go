package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orris-inc/cloudbilling/internal/application/provider"
	"github.com/orris-inc/cloudbilling/internal/domain/backorder"
	"github.com/orris-inc/cloudbilling/internal/domain/subscription"
	"github.com/orris-inc/cloudbilling/internal/shared/biztime"
	apperrors "github.com/orris-inc/cloudbilling/internal/shared/errors"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
	"github.com/orris-inc/cloudbilling/internal/shared/validation"
)

type CreateSubscriptionCommand struct {
	UserID          uint           `json:"user_id" validate:"required"`
	PlanID          uint           `json:"plan_id" validate:"required"`
	RequestedConfig map[string]any `json:"requested_config"`
	// AutoBackorder parks the request as a backorder when capacity is
	// missing or provisioning fails.
	AutoBackorder bool `json:"auto_backorder"`
}

type CreateSubscriptionResult struct {
	Subscription *subscription.Subscription
	Item         *subscription.Item
}

type CreateSubscriptionUseCase struct {
	backorderRepo backorder.Repository
	availability  provider.AvailabilityChecker
	provisioner   *Provisioner
	now           func() time.Time
	logger        logger.Interface
}

func NewCreateSubscriptionUseCase(
	backorderRepo backorder.Repository,
	availability provider.AvailabilityChecker,
	provisioner *Provisioner,
	logger logger.Interface,
) *CreateSubscriptionUseCase {
	return &CreateSubscriptionUseCase{
		backorderRepo: backorderRepo,
		availability:  availability,
		provisioner:   provisioner,
		now:           biztime.NowUTC,
		logger:        logger,
	}
}

func (uc *CreateSubscriptionUseCase) Execute(ctx context.Context, cmd CreateSubscriptionCommand) (*CreateSubscriptionResult, error) {
	if err := validation.Struct(cmd); err != nil {
		return nil, err
	}

	input, err := uc.provisioner.Prepare(ctx, cmd.UserID, cmd.PlanID, cmd.RequestedConfig)
	if err != nil {
		return nil, err
	}

	availability, err := uc.availability.CheckAvailability(ctx,
		input.Placement.Provider, input.Placement.Region, input.Placement.ServerType)
	if err != nil {
		uc.logger.Errorw("failed to check availability",
			"user_id", cmd.UserID,
			"provider", input.Placement.Provider,
			"region", input.Placement.Region,
			"error", err,
		)
		return nil, fmt.Errorf("failed to check availability: %w", err)
	}

	if !availability.IsAvailable {
		uc.logger.Infow("capacity unavailable",
			"user_id", cmd.UserID,
			"plan_id", cmd.PlanID,
			"provider", input.Placement.Provider,
			"region", input.Placement.Region,
			"server_type", input.Placement.ServerType,
			"reason", availability.Reason,
		)
		if !cmd.AutoBackorder {
			return nil, apperrors.NewCapacityError(availability.Reason).WithCause(provider.ErrCapacityUnavailable)
		}
		bo, err := uc.createBackorder(ctx, cmd, input, availability.Reason, availability.Alternatives)
		if err != nil {
			return nil, err
		}
		return nil, apperrors.NewCapacityError(availability.Reason, fmt.Sprintf("backorder_id=%d", bo.ID())).
			WithCause(provider.ErrCapacityUnavailable)
	}

	sub, item, err := uc.provisioner.Create(ctx, input)
	if err != nil {
		if sub == nil || !cmd.AutoBackorder {
			return nil, err
		}
		bo, boErr := uc.createBackorder(ctx, cmd, input, err.Error(), nil)
		if boErr != nil {
			return nil, errors.Join(err, boErr)
		}
		return nil, fmt.Errorf("provisioning failed, backorder %d created: %w", bo.ID(), err)
	}

	return &CreateSubscriptionResult{Subscription: sub, Item: item}, nil
}

func (uc *CreateSubscriptionUseCase) createBackorder(
	ctx context.Context,
	cmd CreateSubscriptionCommand,
	input ProvisionInput,
	reason string,
	alternatives []string,
) (*backorder.Backorder, error) {
	bo, err := backorder.NewBackorder(cmd.UserID, input.ServiceType.ID(), cmd.PlanID,
		cmd.RequestedConfig, reason, alternatives, uc.now())
	if err != nil {
		return nil, err
	}
	if err := uc.backorderRepo.Create(ctx, bo); err != nil {
		return nil, fmt.Errorf("failed to create backorder: %w", err)
	}

	uc.logger.Infow("backorder created",
		"backorder_id", bo.ID(),
		"user_id", cmd.UserID,
		"plan_id", cmd.PlanID,
		"reason", reason,
	)
	return bo, nil
}
