package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/cloudbilling/internal/application/provider"
	"github.com/orris-inc/cloudbilling/internal/domain/billing"
	"github.com/orris-inc/cloudbilling/internal/domain/subscription"
	vo "github.com/orris-inc/cloudbilling/internal/domain/subscription/valueobjects"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
)

var t0 = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newMonthlyPlan(t *testing.T, policy billing.CancellationPolicy) *subscription.Plan {
	t.Helper()
	plan, err := subscription.ReconstructPlan(1, 7, "vps-small",
		billing.Interval{Type: billing.IntervalMonth, Value: 1},
		policy,
		subscription.PlanPricing{BasePrice: decimal.NewFromInt(10), Currency: "EUR"},
		map[string]any{"backups": false}, true, t0, t0)
	require.NoError(t, err)
	return plan
}

func newServiceType(t *testing.T) *subscription.ServiceType {
	t.Helper()
	st, err := subscription.ReconstructServiceType(7, "vps", "digitalocean",
		subscription.ConfigSchema{
			"image":   {Type: subscription.FieldString, Required: true},
			"backups": {Type: subscription.FieldBoolean},
			"region":  {Type: subscription.FieldString},
		},
		map[string]any{"image": "ubuntu-24-04-x64"}, t0, t0)
	require.NoError(t, err)
	return st
}

func newActiveSubscription(t *testing.T, id, userID uint, createdAt time.Time) *subscription.Subscription {
	t.Helper()
	end := createdAt.AddDate(0, 1, 0)
	sub, err := subscription.ReconstructSubscription(id, userID, 1, vo.StatusActive,
		createdAt, end, end, nil, nil, nil, 1, createdAt, createdAt)
	require.NoError(t, err)
	return sub
}

func newPendingCancelSubscription(t *testing.T, id uint, effectiveAt time.Time) *subscription.Subscription {
	t.Helper()
	requested := effectiveAt.AddDate(0, 0, -3)
	eff := effectiveAt
	sub, err := subscription.ReconstructSubscription(id, 42, 1, vo.StatusPendingCancel,
		effectiveAt.AddDate(0, -1, 0), effectiveAt, effectiveAt, &requested, &eff, nil, 2, t0, t0)
	require.NoError(t, err)
	return sub
}

func newActiveItem(t *testing.T, id, subscriptionID uint, reference, hostname string) *subscription.Item {
	t.Helper()
	item, err := subscription.ReconstructItem(id, subscriptionID, 7,
		subscription.ItemPlacement{Provider: "digitalocean", Region: "fra1", ServerType: "s-1vcpu-1gb"},
		map[string]any{"image": "ubuntu-24-04-x64"},
		vo.ProvisioningActive, reference, hostname, "", t0, t0)
	require.NoError(t, err)
	return item
}

type provisionFixture struct {
	tx           *mockTransactor
	subs         *mockSubscriptionRepository
	items        *mockItemRepository
	plans        *mockPlanRepository
	types        *mockServiceTypeRepository
	backorders   *mockBackorderRepository
	availability *mockAvailabilityChecker
	prov         *mockProvisioningProvider
	dns          *mockDNSProvider
	hostnames    *mockHostnameReserver
	registry     *provider.Registry
	provisioner  *Provisioner
}

func newProvisionFixture(t *testing.T) *provisionFixture {
	t.Helper()
	plan := newMonthlyPlan(t, billing.CancellationPolicy{})
	st := newServiceType(t)

	f := &provisionFixture{
		tx:    &mockTransactor{},
		subs:  &mockSubscriptionRepository{},
		items: &mockItemRepository{},
		plans: &mockPlanRepository{GetByIDFunc: func(ctx context.Context, id uint) (*subscription.Plan, error) {
			return plan, nil
		}},
		types: &mockServiceTypeRepository{GetByIDFunc: func(ctx context.Context, id uint) (*subscription.ServiceType, error) {
			return st, nil
		}},
		backorders:   &mockBackorderRepository{},
		availability: &mockAvailabilityChecker{},
		prov:         &mockProvisioningProvider{name: "digitalocean", networkIdentity: true},
		dns:          &mockDNSProvider{},
		hostnames:    &mockHostnameReserver{},
		registry:     provider.NewRegistry("digitalocean"),
	}
	require.NoError(t, f.registry.Register(f.prov))

	f.provisioner = NewProvisioner(f.tx, f.subs, f.items, f.plans, f.types,
		f.registry, f.hostnames, f.dns, logger.NewNop())
	f.provisioner.now = fixedClock(t0)
	return f
}

func (f *provisionFixture) createUseCase() *CreateSubscriptionUseCase {
	uc := NewCreateSubscriptionUseCase(f.backorders, f.availability, f.provisioner, logger.NewNop())
	uc.now = fixedClock(t0)
	return uc
}
