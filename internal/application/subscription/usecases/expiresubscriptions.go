package usecases

import (
	"context"
	"fmt"
	"time"

	billingusecases "github.com/orris-inc/cloudbilling/internal/application/billing/usecases"
	"github.com/orris-inc/cloudbilling/internal/domain/subscription"
	"github.com/orris-inc/cloudbilling/internal/shared/biztime"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
	"github.com/orris-inc/cloudbilling/internal/shared/query"
	"github.com/orris-inc/cloudbilling/internal/shared/recovery"
)

// ExpireSubscriptionsUseCase finishes cancellations whose effective time has
// passed. Teardown and the final invoice are best effort; the subscription
// always ends up CANCELED.
type ExpireSubscriptionsUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	itemRepo         subscription.ItemRepository
	provisioner      *Provisioner
	invoices         billingusecases.InvoiceCreator
	batchSize        int
	now              func() time.Time
	logger           logger.Interface
}

func NewExpireSubscriptionsUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	itemRepo subscription.ItemRepository,
	provisioner *Provisioner,
	invoices billingusecases.InvoiceCreator,
	batchSize int,
	logger logger.Interface,
) *ExpireSubscriptionsUseCase {
	return &ExpireSubscriptionsUseCase{
		subscriptionRepo: subscriptionRepo,
		itemRepo:         itemRepo,
		provisioner:      provisioner,
		invoices:         invoices,
		batchSize:        batchSize,
		now:              biztime.NowUTC,
		logger:           logger,
	}
}

// Execute returns the number of subscriptions moved to CANCELED.
func (uc *ExpireSubscriptionsUseCase) Execute(ctx context.Context) (int, error) {
	now := uc.now()
	cursor := query.First(uc.batchSize)
	expired := 0

	for {
		if err := ctx.Err(); err != nil {
			return expired, err
		}

		subs, err := uc.subscriptionRepo.ListDueForExpiration(ctx, now, cursor)
		if err != nil {
			return expired, fmt.Errorf("failed to list subscriptions due for expiration: %w", err)
		}
		if len(subs) == 0 {
			return expired, nil
		}

		last := subs[len(subs)-1]
		next := cursor.Next(effectiveAt(last), last.ID())

		for _, sub := range subs {
			err := recovery.Run(uc.logger, "expiration", func() error {
				return uc.expireOne(ctx, sub)
			})
			if err != nil {
				uc.logger.Errorw("failed to expire subscription",
					"subscription_id", sub.ID(),
					"error", err,
				)
				continue
			}
			expired++
		}

		if len(subs) < cursor.Size() {
			return expired, nil
		}
		cursor = next
	}
}

func (uc *ExpireSubscriptionsUseCase) expireOne(ctx context.Context, sub *subscription.Subscription) error {
	items, err := uc.itemRepo.ListBySubscriptionID(ctx, sub.ID())
	if err != nil {
		uc.logger.Errorw("failed to list subscription items",
			"subscription_id", sub.ID(),
			"error", err,
		)
	}
	for _, item := range items {
		if err := uc.provisioner.Teardown(ctx, item); err != nil {
			uc.logger.Warnw("teardown incomplete",
				"subscription_id", sub.ID(),
				"subscription_item_id", item.ID(),
				"error", err,
			)
		}
	}

	billUntil := effectiveAt(sub)
	if _, err := uc.invoices.Execute(ctx, billingusecases.CreateInvoiceCommand{
		SubscriptionID: sub.ID(),
		BillUntil:      billUntil,
		SkipIfNone:     true,
	}); err != nil {
		uc.logger.Warnw("final invoice failed",
			"subscription_id", sub.ID(),
			"bill_until", billUntil,
			"error", err,
		)
	}

	if err := sub.MarkCanceled(uc.now()); err != nil {
		return err
	}
	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	uc.logger.Infow("subscription canceled",
		"subscription_id", sub.ID(),
		"user_id", sub.UserID(),
		"cancel_effective_at", billUntil,
	)
	return nil
}

func effectiveAt(sub *subscription.Subscription) time.Time {
	if at := sub.CancelEffectiveAt(); at != nil {
		return *at
	}
	return sub.CurrentPeriodEnd()
}
