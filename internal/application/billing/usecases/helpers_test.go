package usecases

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/cloudbilling/internal/domain/billing"
	"github.com/orris-inc/cloudbilling/internal/domain/customer"
	"github.com/orris-inc/cloudbilling/internal/domain/invoice"
	"github.com/orris-inc/cloudbilling/internal/domain/subscription"
	vo "github.com/orris-inc/cloudbilling/internal/domain/subscription/valueobjects"
)

var t0 = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// newDailyPlan returns a 1-day plan priced 10.00 per period.
func newDailyPlan(t *testing.T) *subscription.Plan {
	t.Helper()
	plan, err := subscription.ReconstructPlan(1, 1, "vps-small",
		billing.Interval{Type: billing.IntervalDay, Value: 1},
		billing.CancellationPolicy{},
		subscription.PlanPricing{BasePrice: decimal.NewFromInt(10), Currency: "EUR"},
		nil, true, t0, t0)
	require.NoError(t, err)
	return plan
}

func newSubscriptionAt(t *testing.T, id, userID uint, start time.Time) *subscription.Subscription {
	t.Helper()
	return newSubscriptionWithPlan(t, id, userID, 1, start)
}

func newSubscriptionWithPlan(t *testing.T, id, userID, planID uint, start time.Time) *subscription.Subscription {
	t.Helper()
	end := start.AddDate(0, 0, 1)
	sub, err := subscription.ReconstructSubscription(id, userID, planID, vo.StatusActive,
		start, end, end, nil, nil, nil, 1, start, start)
	require.NoError(t, err)
	return sub
}

func newItemWithStatus(t *testing.T, id, subscriptionID uint, status vo.ProvisioningStatus) *subscription.Item {
	t.Helper()
	item, err := subscription.ReconstructItem(id, subscriptionID, 1,
		subscription.ItemPlacement{Provider: "digitalocean", Region: "fra1", ServerType: "s-1vcpu-1gb"},
		nil, status, "", "", "", t0, t0)
	require.NoError(t, err)
	return item
}

func newAccount(t *testing.T, userID uint, clientID string) *customer.Account {
	t.Helper()
	return customer.ReconstructAccount(userID, "user@example.com", "User", t0, nil, clientID, t0, t0)
}

func newRef(t *testing.T, id, subscriptionID uint, from, until time.Time) *invoice.Ref {
	t.Helper()
	ref, err := invoice.ReconstructRef(invoice.RefParams{
		ID:                id,
		SubscriptionID:    subscriptionID,
		ExternalInvoiceID: "in_prev",
		Status:            "open",
		Balance:           decimal.NewFromInt(10),
		Amount:            decimal.NewFromInt(10),
		BilledFrom:        from,
		BilledUntil:       until,
		CreatedAt:         until,
		UpdatedAt:         until,
	})
	require.NoError(t, err)
	return ref
}
