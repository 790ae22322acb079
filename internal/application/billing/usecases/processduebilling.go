package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/orris-inc/cloudbilling/internal/domain/subscription"
	vo "github.com/orris-inc/cloudbilling/internal/domain/subscription/valueobjects"
	"github.com/orris-inc/cloudbilling/internal/shared/biztime"
	"github.com/orris-inc/cloudbilling/internal/shared/db"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
	"github.com/orris-inc/cloudbilling/internal/shared/query"
	"github.com/orris-inc/cloudbilling/internal/shared/recovery"
)

// ProcessDueBillingUseCase invoices ACTIVE subscriptions whose next billing
// time has passed and rolls their schedule forward.
type ProcessDueBillingUseCase struct {
	txMgr            db.Transactor
	subscriptionRepo subscription.SubscriptionRepository
	itemRepo         subscription.ItemRepository
	planRepo         subscription.PlanRepository
	invoices         InvoiceCreator
	batchSize        int
	now              func() time.Time
	logger           logger.Interface
}

func NewProcessDueBillingUseCase(
	txMgr db.Transactor,
	subscriptionRepo subscription.SubscriptionRepository,
	itemRepo subscription.ItemRepository,
	planRepo subscription.PlanRepository,
	invoices InvoiceCreator,
	batchSize int,
	logger logger.Interface,
) *ProcessDueBillingUseCase {
	return &ProcessDueBillingUseCase{
		txMgr:            txMgr,
		subscriptionRepo: subscriptionRepo,
		itemRepo:         itemRepo,
		planRepo:         planRepo,
		invoices:         invoices,
		batchSize:        batchSize,
		now:              biztime.NowUTC,
		logger:           logger,
	}
}

// Execute returns the number of subscriptions whose schedule was advanced.
func (uc *ProcessDueBillingUseCase) Execute(ctx context.Context) (int, error) {
	now := uc.now()
	cursor := query.First(uc.batchSize)
	processed := 0

	for {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		subs, err := uc.subscriptionRepo.ListDueForBilling(ctx, now, cursor)
		if err != nil {
			return processed, fmt.Errorf("failed to list subscriptions due for billing: %w", err)
		}
		if len(subs) == 0 {
			return processed, nil
		}

		// processing advances NextBillingAt, so the cursor is taken first
		last := subs[len(subs)-1]
		next := cursor.Next(last.NextBillingAt(), last.ID())

		for _, sub := range subs {
			advanced := false
			err := recovery.Run(uc.logger, "billing-due", func() error {
				var err error
				advanced, err = uc.processOne(ctx, sub, now)
				return err
			})
			if err != nil {
				uc.logger.Errorw("failed to process due billing",
					"subscription_id", sub.ID(),
					"next_billing_at", sub.NextBillingAt(),
					"error", err,
				)
				continue
			}
			if advanced {
				processed++
			}
		}

		if len(subs) < cursor.Size() {
			return processed, nil
		}
		cursor = next
	}
}

// processOne reports whether the schedule was advanced. A subscription that
// changed since it was listed is left alone.
func (uc *ProcessDueBillingUseCase) processOne(ctx context.Context, sub *subscription.Subscription, now time.Time) (bool, error) {
	dueAt := sub.NextBillingAt()

	plan, err := uc.planRepo.GetByID(ctx, sub.PlanID())
	if err != nil {
		return false, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return false, subscription.ErrPlanNotFound
	}

	items, err := uc.itemRepo.ListBySubscriptionID(ctx, sub.ID())
	if err != nil {
		return false, fmt.Errorf("failed to list subscription items: %w", err)
	}

	billed := true
	if !subscription.HasBillableItems(items) {
		uc.logger.Infow("no provisioned items, period not invoiced",
			"subscription_id", sub.ID(),
			"bill_until", dueAt,
		)
	} else if _, err := uc.invoices.Execute(ctx, CreateInvoiceCommand{
		SubscriptionID: sub.ID(),
		BillUntil:      dueAt,
		SkipIfNone:     true,
	}); err != nil {
		// the period start is kept so the next run bills the whole unbilled window
		billed = false
		uc.logger.Warnw("scheduled invoice failed",
			"subscription_id", sub.ID(),
			"bill_until", dueAt,
			"error", err,
		)
	}

	schedule := plan.Schedule(dueAt)
	advanced := false
	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		locked, err := uc.subscriptionRepo.GetByIDForUpdate(txCtx, sub.ID())
		if err != nil {
			return fmt.Errorf("failed to lock subscription: %w", err)
		}
		if locked == nil || !locked.HasStatus(vo.StatusActive) || !locked.NextBillingAt().Equal(dueAt) {
			uc.logger.Infow("subscription changed during billing run, schedule left as is",
				"subscription_id", sub.ID(),
				"bill_until", dueAt,
			)
			return nil
		}

		if billed {
			err = locked.AdvanceSchedule(schedule, now)
		} else {
			err = locked.DeferBilling(schedule, now)
		}
		if err != nil {
			return err
		}
		if err := uc.subscriptionRepo.Update(txCtx, locked); err != nil {
			return fmt.Errorf("failed to update subscription schedule: %w", err)
		}

		advanced = true
		uc.logger.Debugw("subscription schedule advanced",
			"subscription_id", locked.ID(),
			"next_billing_at", locked.NextBillingAt(),
			"period_start", locked.CurrentPeriodStart(),
		)
		return nil
	})
	return advanced, err
}
