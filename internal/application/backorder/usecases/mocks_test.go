package usecases

import (
	"context"
	"time"

	"github.com/orris-inc/cloudbilling/internal/application/provider"
	subusecases "github.com/orris-inc/cloudbilling/internal/application/subscription/usecases"
	"github.com/orris-inc/cloudbilling/internal/domain/backorder"
	"github.com/orris-inc/cloudbilling/internal/domain/subscription"
	"github.com/orris-inc/cloudbilling/internal/shared/query"
)

type mockBackorderRepository struct {
	ListOpenFunc func(ctx context.Context, cursor query.Cursor) ([]*backorder.Backorder, error)

	byID    map[uint]*backorder.Backorder
	updates int
}

func newMockBackorderRepository(bos ...*backorder.Backorder) *mockBackorderRepository {
	m := &mockBackorderRepository{byID: make(map[uint]*backorder.Backorder)}
	for _, bo := range bos {
		m.byID[bo.ID()] = bo
	}
	return m
}

func (m *mockBackorderRepository) Create(ctx context.Context, bo *backorder.Backorder) error {
	if err := bo.SetID(uint(len(m.byID)) + 1); err != nil {
		return err
	}
	m.byID[bo.ID()] = bo
	return nil
}

func (m *mockBackorderRepository) GetByID(ctx context.Context, id uint) (*backorder.Backorder, error) {
	return m.byID[id], nil
}

func (m *mockBackorderRepository) Update(ctx context.Context, bo *backorder.Backorder) error {
	m.updates++
	return nil
}

func (m *mockBackorderRepository) ListOpen(ctx context.Context, cursor query.Cursor) ([]*backorder.Backorder, error) {
	if m.ListOpenFunc != nil {
		return m.ListOpenFunc(ctx, cursor)
	}
	return nil, nil
}

type mockPlanRepository struct {
	plan *subscription.Plan
}

func (m *mockPlanRepository) Create(ctx context.Context, plan *subscription.Plan) error {
	return nil
}

func (m *mockPlanRepository) GetByID(ctx context.Context, id uint) (*subscription.Plan, error) {
	if m.plan != nil && m.plan.ID() == id {
		return m.plan, nil
	}
	return nil, nil
}

type mockServiceTypeRepository struct {
	serviceType *subscription.ServiceType
}

func (m *mockServiceTypeRepository) Create(ctx context.Context, st *subscription.ServiceType) error {
	return nil
}

func (m *mockServiceTypeRepository) GetByID(ctx context.Context, id uint) (*subscription.ServiceType, error) {
	return m.serviceType, nil
}

type mockTransactor struct{}

func (mockTransactor) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockSubscriptionRepository struct {
	created []*subscription.Subscription
}

func (m *mockSubscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	m.created = append(m.created, sub)
	return sub.SetID(uint(len(m.created)) + 900)
}

func (m *mockSubscriptionRepository) GetByID(ctx context.Context, id uint) (*subscription.Subscription, error) {
	return nil, nil
}

func (m *mockSubscriptionRepository) GetByIDForUpdate(ctx context.Context, id uint) (*subscription.Subscription, error) {
	return nil, nil
}

func (m *mockSubscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	return nil
}

func (m *mockSubscriptionRepository) ListDueForBilling(ctx context.Context, now time.Time, cursor query.Cursor) ([]*subscription.Subscription, error) {
	return nil, nil
}

func (m *mockSubscriptionRepository) ListDueForExpiration(ctx context.Context, now time.Time, cursor query.Cursor) ([]*subscription.Subscription, error) {
	return nil, nil
}

func (m *mockSubscriptionRepository) ListRenewingBetween(ctx context.Context, from, to time.Time, cursor query.Cursor) ([]*subscription.Subscription, error) {
	return nil, nil
}

type mockItemRepository struct {
	created []*subscription.Item
}

func (m *mockItemRepository) Create(ctx context.Context, item *subscription.Item) error {
	m.created = append(m.created, item)
	return item.SetID(uint(len(m.created)))
}

func (m *mockItemRepository) GetByID(ctx context.Context, id uint) (*subscription.Item, error) {
	return nil, nil
}

func (m *mockItemRepository) ListBySubscriptionID(ctx context.Context, subscriptionID uint) ([]*subscription.Item, error) {
	return nil, nil
}

func (m *mockItemRepository) Update(ctx context.Context, item *subscription.Item) error {
	return nil
}

type mockAvailabilityChecker struct {
	availability *provider.Availability
	calls        int
}

func (m *mockAvailabilityChecker) CheckAvailability(ctx context.Context, prov, region, resourceType string) (*provider.Availability, error) {
	m.calls++
	return m.availability, nil
}

// stubProvider provisions without network identity.
type stubProvider struct {
	provisionErr error
}

func (p *stubProvider) Name() string { return "digitalocean" }
func (p *stubProvider) RequiresNetworkIdentity() bool { return false }
func (p *stubProvider) Defaults() provider.Defaults {
	return provider.Defaults{Region: "fra1", ServerType: "s-1vcpu-1gb"}
}

func (p *stubProvider) Provision(ctx context.Context, req provider.ProvisionRequest) (string, error) {
	if p.provisionErr != nil {
		return "", p.provisionErr
	}
	return "srv-1", nil
}

func (p *stubProvider) Deprovision(ctx context.Context, reference string) error { return nil }
func (p *stubProvider) GetServerInfo(ctx context.Context, reference string) (*provider.ServerInfo, error) {
	return &provider.ServerInfo{Reference: reference}, nil
}
func (p *stubProvider) Start(ctx context.Context, reference string) error { return nil }
func (p *stubProvider) Stop(ctx context.Context, reference string) error { return nil }
func (p *stubProvider) Restart(ctx context.Context, reference string) error { return nil }

type noopHostnames struct{}

func (noopHostnames) Reserve(ctx context.Context, itemID uint) (string, error) { return "", nil }
func (noopHostnames) Release(ctx context.Context, itemID uint) error { return nil }

type mockRetrier struct {
	ExecuteFunc func(ctx context.Context, backorderID uint) (*subusecases.CreateSubscriptionResult, error)

	ids []uint
}

func (m *mockRetrier) Execute(ctx context.Context, backorderID uint) (*subusecases.CreateSubscriptionResult, error) {
	m.ids = append(m.ids, backorderID)
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, backorderID)
	}
	return nil, nil
}
