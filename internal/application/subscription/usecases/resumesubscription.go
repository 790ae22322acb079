package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orris-inc/cloudbilling/internal/domain/subscription"
	"github.com/orris-inc/cloudbilling/internal/shared/biztime"
	apperrors "github.com/orris-inc/cloudbilling/internal/shared/errors"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
	"github.com/orris-inc/cloudbilling/internal/shared/validation"
)

type ResumeSubscriptionCommand struct {
	SubscriptionID uint `json:"subscription_id" validate:"required"`
	UserID         uint `json:"user_id" validate:"required"`
}

type ResumeSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	now              func() time.Time
	logger           logger.Interface
}

func NewResumeSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	logger logger.Interface,
) *ResumeSubscriptionUseCase {
	return &ResumeSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		now:              biztime.NowUTC,
		logger:           logger,
	}
}

func (uc *ResumeSubscriptionUseCase) Execute(ctx context.Context, cmd ResumeSubscriptionCommand) (*subscription.Subscription, error) {
	if err := validation.Struct(cmd); err != nil {
		return nil, err
	}

	sub, err := loadOwned(ctx, uc.subscriptionRepo, cmd.SubscriptionID, cmd.UserID)
	if err != nil {
		return nil, err
	}

	if err := sub.Resume(uc.now()); err != nil {
		return nil, apperrors.NewConflictError("Only subscriptions pending cancellation can be resumed", err.Error()).WithCause(err)
	}
	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		if errors.Is(err, subscription.ErrVersionConflict) {
			return nil, apperrors.NewConflictError("Subscription changed, retry the resume").WithCause(err)
		}
		uc.logger.Errorw("failed to update subscription", "error", err, "subscription_id", sub.ID())
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}

	uc.logger.Infow("subscription resumed",
		"subscription_id", sub.ID(),
		"user_id", cmd.UserID,
	)
	return sub, nil
}
