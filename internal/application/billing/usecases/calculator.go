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
)

// billingWindow is a computed proration together with the rows it was
// derived from.
type billingWindow struct {
	plan      *subscription.Plan
	latest    *invoice.Ref
	proration billing.Proration
}

// windowCalculator reads the billing cursor and latest usage and prorates a
// subscription up to billUntil. Callers that persist the result must hold the
// subscription row lock.
type windowCalculator struct {
	planRepo  subscription.PlanRepository
	refRepo   invoice.RefRepository
	usageRepo usage.Repository
}

func (c *windowCalculator) calculate(ctx context.Context, sub *subscription.Subscription, billUntil, now time.Time) (*billingWindow, error) {
	plan, err := c.planRepo.GetByID(ctx, sub.PlanID())
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, subscription.ErrPlanNotFound
	}

	latest, err := c.refRepo.GetLatestBySubscriptionID(ctx, sub.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to get latest invoice: %w", err)
	}

	var lastBilledAt *time.Time
	if latest != nil {
		cursor := latest.Cursor()
		lastBilledAt = &cursor
	}

	record, err := c.usageRepo.GetLatest(ctx, sub.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to get latest usage: %w", err)
	}
	var payload map[string]any
	if record != nil {
		payload = record.Payload()
	}

	periodStart := sub.CurrentPeriodStart()
	proration := billing.Prorate(billing.ProrationInput{
		CreatedAt:          sub.CreatedAt(),
		CurrentPeriodStart: &periodStart,
		CancelEffectiveAt:  sub.CancelEffectiveAt(),
		Interval:           plan.Interval(),
		FullPeriodPrice:    plan.FullPeriodPrice(),
		BillUntil:          billUntil,
		LastBilledAt:       lastBilledAt,
		UsagePayload:       payload,
		Now:                now,
	})

	return &billingWindow{plan: plan, latest: latest, proration: proration}, nil
}

// customerSync pushes the billing account to the invoicing provider and
// remembers the returned client ID.
type customerSync struct {
	accountRepo customer.Repository
	invoicing   provider.InvoicingProvider
}

func (s *customerSync) sync(ctx context.Context, userID uint, now time.Time) (string, error) {
	account, err := s.accountRepo.GetByUserID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to get billing account: %w", err)
	}
	if account == nil {
		return "", fmt.Errorf("%w: user %d", customer.ErrAccountNotFound, userID)
	}

	clientID, err := s.invoicing.SyncCustomerProfile(ctx, provider.CustomerProfile{
		UserID:           account.UserID(),
		Email:            account.Email(),
		Name:             account.Name(),
		ExternalClientID: account.ExternalClientID(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sync customer profile: %w", err)
	}

	if clientID != account.ExternalClientID() {
		account.LinkExternalClient(clientID, now)
		if err := s.accountRepo.Save(ctx, account); err != nil {
			return "", fmt.Errorf("failed to save billing account: %w", err)
		}
	}
	return clientID, nil
}

func lineDescription(plan *subscription.Plan, p billing.Proration) string {
	return fmt.Sprintf("%s %s - %s", plan.Name(),
		p.From.Format(time.DateTime), p.Until.Format(time.DateTime))
}

func currencyOf(plan *subscription.Plan, fallback string) string {
	if plan.Currency() != "" {
		return plan.Currency()
	}
	return fallback
}
