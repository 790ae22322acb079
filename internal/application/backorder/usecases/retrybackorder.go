package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/orris-inc/cloudbilling/internal/application/provider"
	subusecases "github.com/orris-inc/cloudbilling/internal/application/subscription/usecases"
	"github.com/orris-inc/cloudbilling/internal/domain/backorder"
	"github.com/orris-inc/cloudbilling/internal/shared/biztime"
	apperrors "github.com/orris-inc/cloudbilling/internal/shared/errors"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
)

// BackorderRetrier is the retry port used by the retry driver.
type BackorderRetrier interface {
	Execute(ctx context.Context, backorderID uint) (*subusecases.CreateSubscriptionResult, error)
}

// RetryBackorderUseCase re-checks capacity for a parked request and, when it
// is available, creates and provisions the subscription.
type RetryBackorderUseCase struct {
	backorderRepo backorder.Repository
	availability  provider.AvailabilityChecker
	provisioner   *subusecases.Provisioner
	now           func() time.Time
	logger        logger.Interface
}

func NewRetryBackorderUseCase(
	backorderRepo backorder.Repository,
	availability provider.AvailabilityChecker,
	provisioner *subusecases.Provisioner,
	logger logger.Interface,
) *RetryBackorderUseCase {
	return &RetryBackorderUseCase{
		backorderRepo: backorderRepo,
		availability:  availability,
		provisioner:   provisioner,
		now:           biztime.NowUTC,
		logger:        logger,
	}
}

// Execute returns (nil, nil) when capacity is still missing.
func (uc *RetryBackorderUseCase) Execute(ctx context.Context, backorderID uint) (*subusecases.CreateSubscriptionResult, error) {
	bo, err := uc.backorderRepo.GetByID(ctx, backorderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get backorder: %w", err)
	}
	if bo == nil {
		return nil, apperrors.NewNotFoundError("Backorder not found").WithCause(backorder.ErrBackorderNotFound)
	}
	if bo.Status().IsTerminal() {
		return nil, fmt.Errorf("%w: status %s", backorder.ErrBackorderNotRetryable, bo.Status())
	}

	input, err := uc.provisioner.Prepare(ctx, bo.UserID(), bo.PlanID(), bo.RequestedConfig())
	if err != nil {
		if apperrors.IsAppError(err) {
			// the plan or the request itself is no longer valid
			uc.fail(ctx, bo, err)
		}
		return nil, err
	}

	availability, err := uc.availability.CheckAvailability(ctx,
		input.Placement.Provider, input.Placement.Region, input.Placement.ServerType)
	if err != nil {
		return nil, fmt.Errorf("failed to check availability: %w", err)
	}

	now := uc.now()
	if !availability.IsAvailable {
		if err := bo.RecordUnavailable(availability.Reason, availability.Alternatives, now); err != nil {
			return nil, err
		}
		if err := uc.backorderRepo.Update(ctx, bo); err != nil {
			return nil, fmt.Errorf("failed to update backorder: %w", err)
		}
		uc.logger.Debugw("backorder still waiting for capacity",
			"backorder_id", bo.ID(),
			"retry_count", bo.RetryCount(),
			"reason", availability.Reason,
		)
		return nil, nil
	}

	if err := bo.RecordAttempt(now); err != nil {
		return nil, err
	}
	if err := uc.backorderRepo.Update(ctx, bo); err != nil {
		return nil, fmt.Errorf("failed to update backorder: %w", err)
	}

	sub, item, err := uc.provisioner.Create(ctx, input)
	if err != nil {
		uc.logger.Warnw("backorder fulfilment failed",
			"backorder_id", bo.ID(),
			"retry_count", bo.RetryCount(),
			"error", err,
		)
		return nil, err
	}

	if err := bo.Fulfill(sub.ID(), uc.now()); err != nil {
		return nil, err
	}
	if err := uc.backorderRepo.Update(ctx, bo); err != nil {
		return nil, fmt.Errorf("failed to mark backorder fulfilled: %w", err)
	}

	uc.logger.Infow("backorder fulfilled",
		"backorder_id", bo.ID(),
		"subscription_id", sub.ID(),
		"retry_count", bo.RetryCount(),
	)
	return &subusecases.CreateSubscriptionResult{Subscription: sub, Item: item}, nil
}

func (uc *RetryBackorderUseCase) fail(ctx context.Context, bo *backorder.Backorder, cause error) {
	if err := bo.MarkFailed(cause.Error(), uc.now()); err != nil {
		return
	}
	if err := uc.backorderRepo.Update(ctx, bo); err != nil {
		uc.logger.Errorw("failed to mark backorder failed", "backorder_id", bo.ID(), "error", err)
		return
	}
	uc.logger.Warnw("backorder failed permanently", "backorder_id", bo.ID(), "reason", cause.Error())
}
