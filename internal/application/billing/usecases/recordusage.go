package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/cloudbilling/internal/domain/subscription"
	"github.com/orris-inc/cloudbilling/internal/domain/usage"
	"github.com/orris-inc/cloudbilling/internal/shared/biztime"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
	"github.com/orris-inc/cloudbilling/internal/shared/validation"
)

type RecordUsageCommand struct {
	SubscriptionID uint           `json:"subscription_id" validate:"required"`
	Payload        map[string]any `json:"payload" validate:"required"`
}

// RecordUsageUseCase stores a usage report. The newest report is what the
// next invoice charges for.
type RecordUsageUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	usageRepo        usage.Repository
	logger           logger.Interface
}

func NewRecordUsageUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	usageRepo usage.Repository,
	logger logger.Interface,
) *RecordUsageUseCase {
	return &RecordUsageUseCase{
		subscriptionRepo: subscriptionRepo,
		usageRepo:        usageRepo,
		logger:           logger,
	}
}

func (uc *RecordUsageUseCase) Execute(ctx context.Context, cmd RecordUsageCommand) error {
	if err := validation.Struct(cmd); err != nil {
		return err
	}

	sub, err := uc.subscriptionRepo.GetByID(ctx, cmd.SubscriptionID)
	if err != nil {
		return fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return subscription.ErrSubscriptionNotFound
	}

	record, err := usage.NewRecord(sub.ID(), cmd.Payload, biztime.NowUTC())
	if err != nil {
		return err
	}
	if err := uc.usageRepo.Create(ctx, record); err != nil {
		return fmt.Errorf("failed to save usage record: %w", err)
	}

	uc.logger.Debugw("usage recorded", "subscription_id", sub.ID(), "usage_record_id", record.ID())
	return nil
}
