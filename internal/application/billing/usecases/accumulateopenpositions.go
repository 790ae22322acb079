package usecases

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/orris-inc/cloudbilling/internal/application/provider"
	"github.com/orris-inc/cloudbilling/internal/domain/customer"
	"github.com/orris-inc/cloudbilling/internal/domain/invoice"
	"github.com/orris-inc/cloudbilling/internal/domain/subscription"
	"github.com/orris-inc/cloudbilling/internal/domain/usage"
	"github.com/orris-inc/cloudbilling/internal/shared/biztime"
	"github.com/orris-inc/cloudbilling/internal/shared/db"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
	"github.com/orris-inc/cloudbilling/internal/shared/query"
	"github.com/orris-inc/cloudbilling/internal/shared/recovery"
)

// AccumulateOpenPositionsUseCase creates one consolidated invoice per user
// whose effective billing day is today, covering all their open positions.
type AccumulateOpenPositionsUseCase struct {
	txMgr            db.Transactor
	accountRepo      customer.Repository
	positionRepo     invoice.OpenPositionRepository
	subscriptionRepo subscription.SubscriptionRepository
	refRepo          invoice.RefRepository
	invoicing        provider.InvoicingProvider
	calculator       *windowCalculator
	customers        *customerSync
	currency         string
	batchSize        int
	now              func() time.Time
	logger           logger.Interface
}

func NewAccumulateOpenPositionsUseCase(
	txMgr db.Transactor,
	accountRepo customer.Repository,
	positionRepo invoice.OpenPositionRepository,
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	refRepo invoice.RefRepository,
	usageRepo usage.Repository,
	invoicing provider.InvoicingProvider,
	currency string,
	batchSize int,
	logger logger.Interface,
) *AccumulateOpenPositionsUseCase {
	return &AccumulateOpenPositionsUseCase{
		txMgr:            txMgr,
		accountRepo:      accountRepo,
		positionRepo:     positionRepo,
		subscriptionRepo: subscriptionRepo,
		refRepo:          refRepo,
		invoicing:        invoicing,
		calculator:       &windowCalculator{planRepo: planRepo, refRepo: refRepo, usageRepo: usageRepo},
		customers:        &customerSync{accountRepo: accountRepo, invoicing: invoicing},
		currency:         currency,
		batchSize:        batchSize,
		now:              biztime.NowUTC,
		logger:           logger,
	}
}

// Execute returns the number of consolidated invoices created.
func (uc *AccumulateOpenPositionsUseCase) Execute(ctx context.Context) (int, error) {
	now := uc.now()
	day := customer.EffectiveDay(biztime.DayOfMonth(now))
	cursor := query.First(uc.batchSize)
	invoiced := 0

	for {
		if err := ctx.Err(); err != nil {
			return invoiced, err
		}

		accounts, err := uc.accountRepo.ListByBillingDay(ctx, day, cursor)
		if err != nil {
			return invoiced, fmt.Errorf("failed to list billing accounts: %w", err)
		}
		if len(accounts) == 0 {
			return invoiced, nil
		}

		for _, account := range accounts {
			var created bool
			err := recovery.Run(uc.logger, "open-position-accumulation", func() error {
				return uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
					var err error
					created, err = uc.invoiceUser(txCtx, account.UserID(), now)
					return err
				})
			})
			if err != nil {
				uc.logger.Errorw("failed to invoice open positions",
					"user_id", account.UserID(),
					"billing_day", day,
					"error", err,
				)
				continue
			}
			if created {
				invoiced++
			}
		}

		cursor = cursor.NextID(accounts[len(accounts)-1].UserID())
		if len(accounts) < cursor.Size() {
			return invoiced, nil
		}
	}
}

type subscriptionPositions struct {
	sub       *subscription.Subscription
	positions []*invoice.OpenPosition
	window    *billingWindow
}

func (uc *AccumulateOpenPositionsUseCase) invoiceUser(ctx context.Context, userID uint, now time.Time) (bool, error) {
	positions, err := uc.positionRepo.ListUnbilledByUserID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to list open positions: %w", err)
	}
	if len(positions) == 0 {
		return false, nil
	}

	groups, err := uc.groupBySubscription(ctx, positions, now)
	if err != nil {
		return false, err
	}

	var lines []provider.LineItem
	var billable []*subscriptionPositions
	for _, g := range groups {
		p := g.window.proration
		if !p.Billable() {
			if err := uc.linkCovered(ctx, g); err != nil {
				return false, err
			}
			continue
		}
		lines = append(lines, provider.LineItem{
			SubscriptionID: g.sub.ID(),
			Description:    positionsDescription(g),
			Amount:         p.Total,
			Currency:       currencyOf(g.window.plan, uc.currency),
		})
		billable = append(billable, g)
	}
	if len(lines) == 0 {
		uc.logger.Debugw("no billable open positions", "user_id", userID)
		return false, nil
	}

	clientID, err := uc.customers.sync(ctx, userID, now)
	if err != nil {
		return false, err
	}

	created, err := uc.invoicing.CreateInvoice(ctx, clientID, lines)
	if err != nil {
		return false, fmt.Errorf("failed to create consolidated invoice: %w", err)
	}

	for i, g := range billable {
		p := g.window.proration
		ref, err := invoice.NewRef(invoice.RefParams{
			SubscriptionID:    g.sub.ID(),
			ExternalInvoiceID: created.ExternalID,
			Number:            created.Number,
			Status:            created.Status,
			Balance:           p.Total,
			Amount:            p.Total,
			Currency:          lines[i].Currency,
			ClientLinkURL:     created.ClientLinkURL,
			BilledFrom:        p.From,
			BilledUntil:       p.Until,
		}, now)
		if err != nil {
			return false, err
		}
		if err := uc.refRepo.Create(ctx, ref); err != nil {
			return false, fmt.Errorf("failed to save invoice reference: %w", err)
		}
		for _, pos := range g.positions {
			if err := uc.positionRepo.LinkInvoice(ctx, pos.ID(), ref.ID()); err != nil {
				return false, fmt.Errorf("failed to link open position: %w", err)
			}
		}
	}

	uc.logger.Infow("consolidated invoice created",
		"user_id", userID,
		"external_invoice_id", created.ExternalID,
		"lines", len(lines),
		"positions", len(positions),
	)
	return true, nil
}

// groupBySubscription locks each subscription and prorates it up to the
// latest billUntil among its positions. Groups are ordered by subscription ID.
func (uc *AccumulateOpenPositionsUseCase) groupBySubscription(ctx context.Context, positions []*invoice.OpenPosition, now time.Time) ([]*subscriptionPositions, error) {
	bySub := make(map[uint][]*invoice.OpenPosition)
	for _, pos := range positions {
		bySub[pos.SubscriptionID()] = append(bySub[pos.SubscriptionID()], pos)
	}

	ids := make([]uint, 0, len(bySub))
	for id := range bySub {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	groups := make([]*subscriptionPositions, 0, len(ids))
	for _, id := range ids {
		sub, err := uc.subscriptionRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to lock subscription %d: %w", id, err)
		}
		if sub == nil {
			return nil, fmt.Errorf("%w: %d", subscription.ErrSubscriptionNotFound, id)
		}

		billUntil := bySub[id][0].BillUntil()
		for _, pos := range bySub[id][1:] {
			billUntil = biztime.MaxTime(billUntil, pos.BillUntil())
		}

		window, err := uc.calculator.calculate(ctx, sub, billUntil, now)
		if err != nil {
			return nil, err
		}
		groups = append(groups, &subscriptionPositions{sub: sub, positions: bySub[id], window: window})
	}
	return groups, nil
}

// linkCovered attaches positions whose window an earlier invoice already
// billed to that invoice. Others stay open for a later run.
func (uc *AccumulateOpenPositionsUseCase) linkCovered(ctx context.Context, g *subscriptionPositions) error {
	latest := g.window.latest
	if latest == nil {
		return nil
	}
	for _, pos := range g.positions {
		if pos.BillUntil().After(latest.Cursor()) {
			continue
		}
		if err := uc.positionRepo.LinkInvoice(ctx, pos.ID(), latest.ID()); err != nil {
			return fmt.Errorf("failed to link open position: %w", err)
		}
	}
	return nil
}

func positionsDescription(g *subscriptionPositions) string {
	parts := make([]string, 0, len(g.positions)+1)
	parts = append(parts, lineDescription(g.window.plan, g.window.proration))
	for _, pos := range g.positions {
		if pos.Description() != "" {
			parts = append(parts, pos.Description())
		}
	}
	return strings.Join(parts, "; ")
}
