package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/orris-inc/cloudbilling/internal/application/provider"
	"github.com/orris-inc/cloudbilling/internal/domain/billing"
	"github.com/orris-inc/cloudbilling/internal/domain/customer"
	"github.com/orris-inc/cloudbilling/internal/domain/invoice"
	"github.com/orris-inc/cloudbilling/internal/domain/subscription"
	"github.com/orris-inc/cloudbilling/internal/domain/usage"
	"github.com/orris-inc/cloudbilling/internal/shared/biztime"
	"github.com/orris-inc/cloudbilling/internal/shared/db"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
	"github.com/orris-inc/cloudbilling/internal/shared/validation"
)

type CreateInvoiceCommand struct {
	SubscriptionID uint      `json:"subscription_id" validate:"required"`
	BillUntil      time.Time `json:"bill_until" validate:"required"`
	// SkipIfNone returns (nil, nil) instead of ErrNoBillableAmount
	SkipIfNone bool `json:"skip_if_none"`
}

// InvoiceCreator is the invoice creation port used by the billing and
// expiration drivers.
type InvoiceCreator interface {
	Execute(ctx context.Context, cmd CreateInvoiceCommand) (*invoice.Ref, error)
}

// CreateInvoiceUseCase bills a subscription from its cursor up to BillUntil.
// The whole read-compute-create-persist sequence runs under the subscription
// row lock so concurrent callers cannot bill the same window twice.
type CreateInvoiceUseCase struct {
	txMgr            db.Transactor
	subscriptionRepo subscription.SubscriptionRepository
	refRepo          invoice.RefRepository
	invoicing        provider.InvoicingProvider
	calculator       *windowCalculator
	customers        *customerSync
	currency         string
	now              func() time.Time
	logger           logger.Interface
}

func NewCreateInvoiceUseCase(
	txMgr db.Transactor,
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	refRepo invoice.RefRepository,
	usageRepo usage.Repository,
	accountRepo customer.Repository,
	invoicing provider.InvoicingProvider,
	currency string,
	logger logger.Interface,
) *CreateInvoiceUseCase {
	return &CreateInvoiceUseCase{
		txMgr:            txMgr,
		subscriptionRepo: subscriptionRepo,
		refRepo:          refRepo,
		invoicing:        invoicing,
		calculator:       &windowCalculator{planRepo: planRepo, refRepo: refRepo, usageRepo: usageRepo},
		customers:        &customerSync{accountRepo: accountRepo, invoicing: invoicing},
		currency:         currency,
		now:              biztime.NowUTC,
		logger:           logger,
	}
}

func (uc *CreateInvoiceUseCase) Execute(ctx context.Context, cmd CreateInvoiceCommand) (*invoice.Ref, error) {
	if err := validation.Struct(cmd); err != nil {
		return nil, err
	}

	var ref *invoice.Ref
	err := uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		var err error
		ref, err = uc.createLocked(txCtx, cmd)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ref, nil
}

func (uc *CreateInvoiceUseCase) createLocked(ctx context.Context, cmd CreateInvoiceCommand) (*invoice.Ref, error) {
	sub, err := uc.subscriptionRepo.GetByIDForUpdate(ctx, cmd.SubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock subscription: %w", err)
	}
	if sub == nil {
		return nil, subscription.ErrSubscriptionNotFound
	}

	now := uc.now()
	window, err := uc.calculator.calculate(ctx, sub, cmd.BillUntil, now)
	if err != nil {
		return nil, err
	}
	p := window.proration

	if !p.Billable() {
		if cmd.SkipIfNone {
			uc.logger.Debugw("nothing to bill",
				"subscription_id", sub.ID(),
				"bill_until", cmd.BillUntil,
				"total", p.Total.String(),
			)
			return nil, nil
		}
		return nil, billing.ErrNoBillableAmount
	}

	if p.CapReached {
		uc.logger.Warnw("proration cycle cap reached, billed one extra period",
			"subscription_id", sub.ID(),
			"from", p.From,
			"until", p.Until,
		)
	}

	clientID, err := uc.customers.sync(ctx, sub.UserID(), now)
	if err != nil {
		return nil, err
	}

	currency := currencyOf(window.plan, uc.currency)
	created, err := uc.invoicing.CreateInvoice(ctx, clientID, []provider.LineItem{{
		SubscriptionID: sub.ID(),
		Description:    lineDescription(window.plan, p),
		Amount:         p.Total,
		Currency:       currency,
	}})
	if err != nil {
		uc.logger.Errorw("failed to create invoice",
			"subscription_id", sub.ID(),
			"amount", p.Total.String(),
			"error", err,
		)
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	ref, err := invoice.NewRef(invoice.RefParams{
		SubscriptionID:    sub.ID(),
		ExternalInvoiceID: created.ExternalID,
		Number:            created.Number,
		Status:            created.Status,
		Balance:           p.Total,
		Amount:            p.Total,
		Currency:          currency,
		ClientLinkURL:     created.ClientLinkURL,
		BilledFrom:        p.From,
		BilledUntil:       p.Until,
	}, now)
	if err != nil {
		return nil, err
	}
	if err := uc.refRepo.Create(ctx, ref); err != nil {
		return nil, fmt.Errorf("failed to save invoice reference: %w", err)
	}

	uc.logger.Infow("invoice created",
		"subscription_id", sub.ID(),
		"external_invoice_id", created.ExternalID,
		"amount", p.Total.String(),
		"billed_from", p.From,
		"billed_until", p.Until,
	)
	return ref, nil
}
