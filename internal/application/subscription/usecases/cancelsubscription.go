package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orris-inc/cloudbilling/internal/domain/billing"
	"github.com/orris-inc/cloudbilling/internal/domain/subscription"
	"github.com/orris-inc/cloudbilling/internal/shared/biztime"
	apperrors "github.com/orris-inc/cloudbilling/internal/shared/errors"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
	"github.com/orris-inc/cloudbilling/internal/shared/validation"
)

type CancelSubscriptionCommand struct {
	SubscriptionID uint `json:"subscription_id" validate:"required"`
	UserID         uint `json:"user_id" validate:"required"`
}

type CancelSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	planRepo         subscription.PlanRepository
	now              func() time.Time
	logger           logger.Interface
}

func NewCancelSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	logger logger.Interface,
) *CancelSubscriptionUseCase {
	return &CancelSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		now:              biztime.NowUTC,
		logger:           logger,
	}
}

// Execute schedules the cancellation allowed by the plan's policy. The
// subscription stays usable until the effective time passes and the
// expiration driver picks it up.
func (uc *CancelSubscriptionUseCase) Execute(ctx context.Context, cmd CancelSubscriptionCommand) (*subscription.Subscription, error) {
	if err := validation.Struct(cmd); err != nil {
		return nil, err
	}

	sub, err := loadOwned(ctx, uc.subscriptionRepo, cmd.SubscriptionID, cmd.UserID)
	if err != nil {
		return nil, err
	}

	plan, err := uc.planRepo.GetByID(ctx, sub.PlanID())
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, subscription.ErrPlanNotFound
	}

	now := uc.now()
	periodEnd := sub.CurrentPeriodEnd()
	decision := billing.EvaluateCancellation(sub.CreatedAt(), &periodEnd, plan.CancellationPolicy(), now)
	if !decision.CanCancel {
		uc.logger.Infow("cancellation denied",
			"subscription_id", sub.ID(),
			"user_id", cmd.UserID,
			"reason", decision.Reason,
		)
		return nil, apperrors.NewConflictError(decision.Reason).WithCause(subscription.ErrCancellationDenied)
	}

	if err := sub.RequestCancellation(now, *decision.EffectiveAt); err != nil {
		return nil, apperrors.NewConflictError("Subscription cannot be cancelled", err.Error()).WithCause(err)
	}
	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		if errors.Is(err, subscription.ErrVersionConflict) {
			return nil, apperrors.NewConflictError("Subscription changed, retry the cancellation").WithCause(err)
		}
		uc.logger.Errorw("failed to update subscription", "error", err, "subscription_id", sub.ID())
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}

	uc.logger.Infow("subscription cancellation scheduled",
		"subscription_id", sub.ID(),
		"user_id", cmd.UserID,
		"cancel_effective_at", *decision.EffectiveAt,
	)
	return sub, nil
}

// loadOwned returns the subscription when it exists and belongs to userID.
func loadOwned(ctx context.Context, repo subscription.SubscriptionRepository, subscriptionID, userID uint) (*subscription.Subscription, error) {
	sub, err := repo.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return nil, apperrors.NewNotFoundError("Subscription not found").WithCause(subscription.ErrSubscriptionNotFound)
	}
	if !sub.IsOwnedBy(userID) {
		return nil, apperrors.NewForbiddenError("Subscription does not belong to user").WithCause(subscription.ErrNotOwner)
	}
	return sub, nil
}
