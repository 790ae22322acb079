package usecases

import (
	"context"
	"time"

	billingusecases "github.com/orris-inc/cloudbilling/internal/application/billing/usecases"
	"github.com/orris-inc/cloudbilling/internal/application/provider"
	"github.com/orris-inc/cloudbilling/internal/domain/backorder"
	"github.com/orris-inc/cloudbilling/internal/domain/customer"
	"github.com/orris-inc/cloudbilling/internal/domain/invoice"
	"github.com/orris-inc/cloudbilling/internal/domain/subscription"
	"github.com/orris-inc/cloudbilling/internal/shared/query"
)

type mockTransactor struct {
	calls int
}

func (m *mockTransactor) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type mockSubscriptionRepository struct {
	GetByIDFunc              func(ctx context.Context, id uint) (*subscription.Subscription, error)
	UpdateFunc               func(ctx context.Context, sub *subscription.Subscription) error
	ListDueForExpirationFunc func(ctx context.Context, now time.Time, cursor query.Cursor) ([]*subscription.Subscription, error)
	ListRenewingBetweenFunc  func(ctx context.Context, from, to time.Time, cursor query.Cursor) ([]*subscription.Subscription, error)

	created []*subscription.Subscription
	updated []*subscription.Subscription
}

func (m *mockSubscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	m.created = append(m.created, sub)
	return sub.SetID(uint(len(m.created)))
}

func (m *mockSubscriptionRepository) GetByID(ctx context.Context, id uint) (*subscription.Subscription, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockSubscriptionRepository) GetByIDForUpdate(ctx context.Context, id uint) (*subscription.Subscription, error) {
	return m.GetByID(ctx, id)
}

func (m *mockSubscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	if m.UpdateFunc != nil {
		if err := m.UpdateFunc(ctx, sub); err != nil {
			return err
		}
	}
	m.updated = append(m.updated, sub)
	return nil
}

func (m *mockSubscriptionRepository) ListDueForBilling(ctx context.Context, now time.Time, cursor query.Cursor) ([]*subscription.Subscription, error) {
	return nil, nil
}

func (m *mockSubscriptionRepository) ListDueForExpiration(ctx context.Context, now time.Time, cursor query.Cursor) ([]*subscription.Subscription, error) {
	if m.ListDueForExpirationFunc != nil {
		return m.ListDueForExpirationFunc(ctx, now, cursor)
	}
	return nil, nil
}

func (m *mockSubscriptionRepository) ListRenewingBetween(ctx context.Context, from, to time.Time, cursor query.Cursor) ([]*subscription.Subscription, error) {
	if m.ListRenewingBetweenFunc != nil {
		return m.ListRenewingBetweenFunc(ctx, from, to, cursor)
	}
	return nil, nil
}

type mockItemRepository struct {
	ListBySubscriptionIDFunc func(ctx context.Context, subscriptionID uint) ([]*subscription.Item, error)

	created []*subscription.Item
	updates int
}

func (m *mockItemRepository) Create(ctx context.Context, item *subscription.Item) error {
	m.created = append(m.created, item)
	return item.SetID(uint(len(m.created)) + 10)
}

func (m *mockItemRepository) GetByID(ctx context.Context, id uint) (*subscription.Item, error) {
	for _, item := range m.created {
		if item.ID() == id {
			return item, nil
		}
	}
	return nil, nil
}

func (m *mockItemRepository) ListBySubscriptionID(ctx context.Context, subscriptionID uint) ([]*subscription.Item, error) {
	if m.ListBySubscriptionIDFunc != nil {
		return m.ListBySubscriptionIDFunc(ctx, subscriptionID)
	}
	return nil, nil
}

func (m *mockItemRepository) Update(ctx context.Context, item *subscription.Item) error {
	m.updates++
	return nil
}

type mockPlanRepository struct {
	GetByIDFunc func(ctx context.Context, id uint) (*subscription.Plan, error)
}

func (m *mockPlanRepository) Create(ctx context.Context, plan *subscription.Plan) error {
	return nil
}

func (m *mockPlanRepository) GetByID(ctx context.Context, id uint) (*subscription.Plan, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

type mockServiceTypeRepository struct {
	GetByIDFunc func(ctx context.Context, id uint) (*subscription.ServiceType, error)
}

func (m *mockServiceTypeRepository) Create(ctx context.Context, st *subscription.ServiceType) error {
	return nil
}

func (m *mockServiceTypeRepository) GetByID(ctx context.Context, id uint) (*subscription.ServiceType, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

type mockBackorderRepository struct {
	created []*backorder.Backorder
}

func (m *mockBackorderRepository) Create(ctx context.Context, bo *backorder.Backorder) error {
	m.created = append(m.created, bo)
	return bo.SetID(uint(len(m.created)) + 500)
}

func (m *mockBackorderRepository) GetByID(ctx context.Context, id uint) (*backorder.Backorder, error) {
	return nil, nil
}

func (m *mockBackorderRepository) Update(ctx context.Context, bo *backorder.Backorder) error {
	return nil
}

func (m *mockBackorderRepository) ListOpen(ctx context.Context, cursor query.Cursor) ([]*backorder.Backorder, error) {
	return nil, nil
}

type mockAvailabilityChecker struct {
	CheckAvailabilityFunc func(ctx context.Context, provider, region, resourceType string) (*provider.Availability, error)

	lastRegion     string
	lastServerType string
}

func (m *mockAvailabilityChecker) CheckAvailability(ctx context.Context, prov, region, resourceType string) (*provider.Availability, error) {
	m.lastRegion = region
	m.lastServerType = resourceType
	if m.CheckAvailabilityFunc != nil {
		return m.CheckAvailabilityFunc(ctx, prov, region, resourceType)
	}
	return &provider.Availability{IsAvailable: true}, nil
}

type mockProvisioningProvider struct {
	name            string
	networkIdentity bool

	ProvisionFunc     func(ctx context.Context, req provider.ProvisionRequest) (string, error)
	DeprovisionFunc   func(ctx context.Context, reference string) error
	GetServerInfoFunc func(ctx context.Context, reference string) (*provider.ServerInfo, error)
	ActionFunc        func(action, reference string) error

	requests      []provider.ProvisionRequest
	deprovisioned []string
	actions       []string
}

func (m *mockProvisioningProvider) Name() string {
	return m.name
}

func (m *mockProvisioningProvider) RequiresNetworkIdentity() bool {
	return m.networkIdentity
}

func (m *mockProvisioningProvider) Defaults() provider.Defaults {
	return provider.Defaults{Region: "fra1", ServerType: "s-1vcpu-1gb"}
}

func (m *mockProvisioningProvider) Provision(ctx context.Context, req provider.ProvisionRequest) (string, error) {
	m.requests = append(m.requests, req)
	if m.ProvisionFunc != nil {
		return m.ProvisionFunc(ctx, req)
	}
	return "srv-1", nil
}

func (m *mockProvisioningProvider) Deprovision(ctx context.Context, reference string) error {
	m.deprovisioned = append(m.deprovisioned, reference)
	if m.DeprovisionFunc != nil {
		return m.DeprovisionFunc(ctx, reference)
	}
	return nil
}

func (m *mockProvisioningProvider) GetServerInfo(ctx context.Context, reference string) (*provider.ServerInfo, error) {
	if m.GetServerInfoFunc != nil {
		return m.GetServerInfoFunc(ctx, reference)
	}
	return &provider.ServerInfo{Reference: reference, Status: "active", PublicIP: "203.0.113.10"}, nil
}

func (m *mockProvisioningProvider) Start(ctx context.Context, reference string) error {
	return m.act("start", reference)
}

func (m *mockProvisioningProvider) Stop(ctx context.Context, reference string) error {
	return m.act("stop", reference)
}

func (m *mockProvisioningProvider) Restart(ctx context.Context, reference string) error {
	return m.act("restart", reference)
}

func (m *mockProvisioningProvider) act(action, reference string) error {
	m.actions = append(m.actions, action+":"+reference)
	if m.ActionFunc != nil {
		return m.ActionFunc(action, reference)
	}
	return nil
}

type mockDNSProvider struct {
	CreateARecordFunc func(ctx context.Context, hostname, ip string) error

	records map[string]string
	deleted []string
}

func (m *mockDNSProvider) CreateARecord(ctx context.Context, hostname, ip string) error {
	if m.CreateARecordFunc != nil {
		if err := m.CreateARecordFunc(ctx, hostname, ip); err != nil {
			return err
		}
	}
	if m.records == nil {
		m.records = make(map[string]string)
	}
	m.records[hostname] = ip
	return nil
}

func (m *mockDNSProvider) DeleteRecord(ctx context.Context, hostname string) error {
	m.deleted = append(m.deleted, hostname)
	return nil
}

type mockHostnameReserver struct {
	ReserveFunc func(ctx context.Context, itemID uint) (string, error)

	released []uint
}

func (m *mockHostnameReserver) Reserve(ctx context.Context, itemID uint) (string, error) {
	if m.ReserveFunc != nil {
		return m.ReserveFunc(ctx, itemID)
	}
	return "quiet-river-a1b2c3", nil
}

func (m *mockHostnameReserver) Release(ctx context.Context, itemID uint) error {
	m.released = append(m.released, itemID)
	return nil
}

type mockInvoiceCreator struct {
	ExecuteFunc func(ctx context.Context, cmd billingusecases.CreateInvoiceCommand) (*invoice.Ref, error)

	commands []billingusecases.CreateInvoiceCommand
}

func (m *mockInvoiceCreator) Execute(ctx context.Context, cmd billingusecases.CreateInvoiceCommand) (*invoice.Ref, error) {
	m.commands = append(m.commands, cmd)
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, cmd)
	}
	return nil, nil
}

type mockAccountRepository struct {
	accounts map[uint]*customer.Account
}

func (m *mockAccountRepository) GetByUserID(ctx context.Context, userID uint) (*customer.Account, error) {
	return m.accounts[userID], nil
}

func (m *mockAccountRepository) Save(ctx context.Context, account *customer.Account) error {
	return nil
}

func (m *mockAccountRepository) ListByBillingDay(ctx context.Context, day int, cursor query.Cursor) ([]*customer.Account, error) {
	return nil, nil
}

type reminderKey struct {
	subscriptionID uint
	periodEnd      time.Time
}

type mockReminderStore struct {
	sent map[reminderKey]bool
}

func (m *mockReminderStore) WasSent(ctx context.Context, subscriptionID uint, periodEnd time.Time) (bool, error) {
	return m.sent[reminderKey{subscriptionID, periodEnd}], nil
}

func (m *mockReminderStore) MarkSent(ctx context.Context, subscriptionID uint, periodEnd time.Time) error {
	if m.sent == nil {
		m.sent = make(map[reminderKey]bool)
	}
	m.sent[reminderKey{subscriptionID, periodEnd}] = true
	return nil
}

type mockEmailNotifier struct {
	disabled bool
	messages []provider.EmailMessage
}

func (m *mockEmailNotifier) Send(ctx context.Context, msg provider.EmailMessage) (bool, error) {
	if m.disabled {
		return false, nil
	}
	m.messages = append(m.messages, msg)
	return true, nil
}
