package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/cloudbilling/internal/domain/billing"
	"github.com/orris-inc/cloudbilling/internal/domain/customer"
	"github.com/orris-inc/cloudbilling/internal/domain/subscription"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
	"github.com/orris-inc/cloudbilling/internal/shared/query"
	"github.com/orris-inc/cloudbilling/internal/shared/services/markdown"
)

type reminderFixture struct {
	subs      *mockSubscriptionRepository
	accounts  *mockAccountRepository
	reminders *mockReminderStore
	notifier  *mockEmailNotifier
	uc        *SendRenewalRemindersUseCase
}

func newReminderFixture(t *testing.T, now time.Time, subs ...*subscription.Subscription) *reminderFixture {
	t.Helper()
	plan := newMonthlyPlan(t, billing.CancellationPolicy{})

	f := &reminderFixture{
		subs: &mockSubscriptionRepository{
			ListRenewingBetweenFunc: func(ctx context.Context, from, to time.Time, cursor query.Cursor) ([]*subscription.Subscription, error) {
				assert.Equal(t, now, from)
				assert.Equal(t, now.Add(72*time.Hour), to)
				return subs, nil
			},
		},
		accounts: &mockAccountRepository{accounts: map[uint]*customer.Account{
			42: customer.ReconstructAccount(42, "ada@example.com", "Ada", t0, nil, "", t0, t0),
		}},
		reminders: &mockReminderStore{},
		notifier:  &mockEmailNotifier{},
	}
	plans := &mockPlanRepository{GetByIDFunc: func(ctx context.Context, id uint) (*subscription.Plan, error) {
		return plan, nil
	}}

	f.uc = NewSendRenewalRemindersUseCase(f.subs, plans, f.accounts, f.reminders, f.notifier,
		markdown.NewRenderer(), 72*time.Hour, 50, logger.NewNop())
	f.uc.now = fixedClock(now)
	return f
}

func TestSendRenewalReminders_SendsOncePerPeriod(t *testing.T) {
	sub := newActiveSubscription(t, 1, 42, t0)
	now := sub.NextBillingAt().Add(-48 * time.Hour)
	f := newReminderFixture(t, now, sub)

	n, err := f.uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, f.notifier.messages, 1)
	msg := f.notifier.messages[0]
	assert.Equal(t, "ada@example.com", msg.To)
	assert.Equal(t, "Your vps-small subscription renews soon", msg.Subject)
	assert.Contains(t, msg.TextBody, "Hi Ada")
	assert.Contains(t, msg.TextBody, "10.00")
	assert.Contains(t, msg.HTMLBody, "<strong>vps-small</strong>")
	assert.Contains(t, msg.HTMLBody, "<table>")

	n, err = f.uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, f.notifier.messages, 1)
}

func TestSendRenewalReminders_NotMarkedWhenNotSent(t *testing.T) {
	sub := newActiveSubscription(t, 1, 42, t0)
	f := newReminderFixture(t, sub.NextBillingAt().Add(-time.Hour), sub)
	f.notifier.disabled = true

	n, err := f.uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, n)
	assert.Empty(t, f.reminders.sent)
}

func TestSendRenewalReminders_SkipsAccountsWithoutEmail(t *testing.T) {
	sub := newActiveSubscription(t, 1, 99, t0)
	f := newReminderFixture(t, sub.NextBillingAt().Add(-time.Hour), sub)

	n, err := f.uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, n)
	assert.Empty(t, f.notifier.messages)
}

func TestDescribeInterval(t *testing.T) {
	plan := newMonthlyPlan(t, billing.CancellationPolicy{})
	assert.Equal(t, "every month", describeInterval(plan))

	quarterly, err := subscription.ReconstructPlan(2, 7, "quarterly",
		billing.Interval{Type: billing.IntervalMonth, Value: 3},
		billing.CancellationPolicy{}, plan.Pricing(), nil, true, t0, t0)
	require.NoError(t, err)
	assert.Equal(t, "every 3 months", describeInterval(quarterly))
}
