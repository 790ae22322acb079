package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/orris-inc/cloudbilling/internal/domain/invoice"
	"github.com/orris-inc/cloudbilling/internal/domain/subscription"
	"github.com/orris-inc/cloudbilling/internal/shared/biztime"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
	"github.com/orris-inc/cloudbilling/internal/shared/validation"
)

type RecordOpenPositionCommand struct {
	SubscriptionID uint      `json:"subscription_id" validate:"required"`
	Description    string    `json:"description" validate:"required,max=255"`
	BillUntil      time.Time `json:"bill_until" validate:"required"`
}

// RecordOpenPositionUseCase queues a charge for the owner's next
// consolidated invoice.
type RecordOpenPositionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	positionRepo     invoice.OpenPositionRepository
	logger           logger.Interface
}

func NewRecordOpenPositionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	positionRepo invoice.OpenPositionRepository,
	logger logger.Interface,
) *RecordOpenPositionUseCase {
	return &RecordOpenPositionUseCase{
		subscriptionRepo: subscriptionRepo,
		positionRepo:     positionRepo,
		logger:           logger,
	}
}

func (uc *RecordOpenPositionUseCase) Execute(ctx context.Context, cmd RecordOpenPositionCommand) (*invoice.OpenPosition, error) {
	if err := validation.Struct(cmd); err != nil {
		return nil, err
	}

	sub, err := uc.subscriptionRepo.GetByID(ctx, cmd.SubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return nil, subscription.ErrSubscriptionNotFound
	}

	position, err := invoice.NewOpenPosition(sub.ID(), sub.UserID(), cmd.Description, cmd.BillUntil, biztime.NowUTC())
	if err != nil {
		return nil, err
	}
	if err := uc.positionRepo.Create(ctx, position); err != nil {
		return nil, fmt.Errorf("failed to save open position: %w", err)
	}

	uc.logger.Infow("open position recorded",
		"open_position_id", position.ID(),
		"subscription_id", sub.ID(),
		"user_id", sub.UserID(),
	)
	return position, nil
}
