package usecases

import (
	"context"
	"time"

	"github.com/orris-inc/cloudbilling/internal/application/provider"
	"github.com/orris-inc/cloudbilling/internal/domain/customer"
	"github.com/orris-inc/cloudbilling/internal/domain/invoice"
	"github.com/orris-inc/cloudbilling/internal/domain/subscription"
	"github.com/orris-inc/cloudbilling/internal/domain/usage"
	"github.com/orris-inc/cloudbilling/internal/shared/query"
)

type mockTransactor struct {
	calls int
	inTx  bool
}

func (m *mockTransactor) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	m.inTx = true
	defer func() { m.inTx = false }()
	return fn(ctx)
}

type mockSubscriptionRepository struct {
	CreateFunc               func(ctx context.Context, sub *subscription.Subscription) error
	GetByIDFunc              func(ctx context.Context, id uint) (*subscription.Subscription, error)
	GetByIDForUpdateFunc     func(ctx context.Context, id uint) (*subscription.Subscription, error)
	UpdateFunc               func(ctx context.Context, sub *subscription.Subscription) error
	ListDueForBillingFunc    func(ctx context.Context, now time.Time, cursor query.Cursor) ([]*subscription.Subscription, error)
	ListDueForExpirationFunc func(ctx context.Context, now time.Time, cursor query.Cursor) ([]*subscription.Subscription, error)
	ListRenewingBetweenFunc  func(ctx context.Context, from, to time.Time, cursor query.Cursor) ([]*subscription.Subscription, error)
}

func (m *mockSubscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, sub)
	}
	return nil
}

func (m *mockSubscriptionRepository) GetByID(ctx context.Context, id uint) (*subscription.Subscription, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockSubscriptionRepository) GetByIDForUpdate(ctx context.Context, id uint) (*subscription.Subscription, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *mockSubscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, sub)
	}
	return nil
}

func (m *mockSubscriptionRepository) ListDueForBilling(ctx context.Context, now time.Time, cursor query.Cursor) ([]*subscription.Subscription, error) {
	if m.ListDueForBillingFunc != nil {
		return m.ListDueForBillingFunc(ctx, now, cursor)
	}
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
}

func (m *mockItemRepository) Create(ctx context.Context, item *subscription.Item) error {
	return nil
}

func (m *mockItemRepository) GetByID(ctx context.Context, id uint) (*subscription.Item, error) {
	return nil, nil
}

func (m *mockItemRepository) ListBySubscriptionID(ctx context.Context, subscriptionID uint) ([]*subscription.Item, error) {
	if m.ListBySubscriptionIDFunc != nil {
		return m.ListBySubscriptionIDFunc(ctx, subscriptionID)
	}
	return nil, nil
}

func (m *mockItemRepository) Update(ctx context.Context, item *subscription.Item) error {
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

type mockRefRepository struct {
	CreateFunc                    func(ctx context.Context, ref *invoice.Ref) error
	GetLatestBySubscriptionIDFunc func(ctx context.Context, subscriptionID uint) (*invoice.Ref, error)
	UpdateChangesFunc             func(ctx context.Context, id uint, changes invoice.Changes) error
	ListAfterIDFunc               func(ctx context.Context, cursor query.Cursor) ([]*invoice.Ref, error)

	created []*invoice.Ref
}

func (m *mockRefRepository) Create(ctx context.Context, ref *invoice.Ref) error {
	if m.CreateFunc != nil {
		if err := m.CreateFunc(ctx, ref); err != nil {
			return err
		}
	}
	m.created = append(m.created, ref)
	if ref.ID() == 0 {
		_ = ref.SetID(uint(len(m.created)) + 100)
	}
	return nil
}

func (m *mockRefRepository) GetLatestBySubscriptionID(ctx context.Context, subscriptionID uint) (*invoice.Ref, error) {
	if m.GetLatestBySubscriptionIDFunc != nil {
		return m.GetLatestBySubscriptionIDFunc(ctx, subscriptionID)
	}
	return nil, nil
}

func (m *mockRefRepository) UpdateChanges(ctx context.Context, id uint, changes invoice.Changes) error {
	if m.UpdateChangesFunc != nil {
		return m.UpdateChangesFunc(ctx, id, changes)
	}
	return nil
}

func (m *mockRefRepository) ListAfterID(ctx context.Context, cursor query.Cursor) ([]*invoice.Ref, error) {
	if m.ListAfterIDFunc != nil {
		return m.ListAfterIDFunc(ctx, cursor)
	}
	return nil, nil
}

type mockUsageRepository struct {
	GetLatestFunc func(ctx context.Context, subscriptionID uint) (*usage.Record, error)
	created       []*usage.Record
}

func (m *mockUsageRepository) Create(ctx context.Context, record *usage.Record) error {
	m.created = append(m.created, record)
	return nil
}

func (m *mockUsageRepository) GetLatest(ctx context.Context, subscriptionID uint) (*usage.Record, error) {
	if m.GetLatestFunc != nil {
		return m.GetLatestFunc(ctx, subscriptionID)
	}
	return nil, nil
}

type mockAccountRepository struct {
	accounts map[uint]*customer.Account
	saved    int

	ListByBillingDayFunc func(ctx context.Context, day int, cursor query.Cursor) ([]*customer.Account, error)
}

func newMockAccountRepository(accounts ...*customer.Account) *mockAccountRepository {
	m := &mockAccountRepository{accounts: make(map[uint]*customer.Account)}
	for _, a := range accounts {
		m.accounts[a.UserID()] = a
	}
	return m
}

func (m *mockAccountRepository) GetByUserID(ctx context.Context, userID uint) (*customer.Account, error) {
	return m.accounts[userID], nil
}

func (m *mockAccountRepository) Save(ctx context.Context, account *customer.Account) error {
	m.saved++
	m.accounts[account.UserID()] = account
	return nil
}

func (m *mockAccountRepository) ListByBillingDay(ctx context.Context, day int, cursor query.Cursor) ([]*customer.Account, error) {
	if m.ListByBillingDayFunc != nil {
		return m.ListByBillingDayFunc(ctx, day, cursor)
	}
	return nil, nil
}

type mockPositionRepository struct {
	ListUnbilledByUserIDFunc func(ctx context.Context, userID uint) ([]*invoice.OpenPosition, error)

	created []*invoice.OpenPosition
	links   map[uint]uint
}

func (m *mockPositionRepository) Create(ctx context.Context, position *invoice.OpenPosition) error {
	m.created = append(m.created, position)
	return position.SetID(uint(len(m.created)))
}

func (m *mockPositionRepository) ListUnbilledByUserID(ctx context.Context, userID uint) ([]*invoice.OpenPosition, error) {
	if m.ListUnbilledByUserIDFunc != nil {
		return m.ListUnbilledByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockPositionRepository) LinkInvoice(ctx context.Context, positionID, invoiceRefID uint) error {
	if m.links == nil {
		m.links = make(map[uint]uint)
	}
	m.links[positionID] = invoiceRefID
	return nil
}

type mockInvoicingProvider struct {
	SyncCustomerProfileFunc func(ctx context.Context, profile provider.CustomerProfile) (string, error)
	CreateInvoiceFunc       func(ctx context.Context, clientID string, items []provider.LineItem) (*provider.CreatedInvoice, error)
	GetInvoiceDetailsFunc   func(ctx context.Context, externalID string) (*provider.InvoiceDetails, error)

	invoices [][]provider.LineItem
}

func (m *mockInvoicingProvider) SyncCustomerProfile(ctx context.Context, profile provider.CustomerProfile) (string, error) {
	if m.SyncCustomerProfileFunc != nil {
		return m.SyncCustomerProfileFunc(ctx, profile)
	}
	return "cus_test", nil
}

func (m *mockInvoicingProvider) CreateInvoice(ctx context.Context, clientID string, items []provider.LineItem) (*provider.CreatedInvoice, error) {
	if m.CreateInvoiceFunc != nil {
		return m.CreateInvoiceFunc(ctx, clientID, items)
	}
	m.invoices = append(m.invoices, items)
	return &provider.CreatedInvoice{ExternalID: "in_test", Status: "open", Number: "INV-0001", ClientLinkURL: "https://invoice.example/in_test"}, nil
}

func (m *mockInvoicingProvider) GetInvoiceDetails(ctx context.Context, externalID string) (*provider.InvoiceDetails, error) {
	if m.GetInvoiceDetailsFunc != nil {
		return m.GetInvoiceDetailsFunc(ctx, externalID)
	}
	return &provider.InvoiceDetails{}, nil
}

type mockInvoiceCreator struct {
	ExecuteFunc func(ctx context.Context, cmd CreateInvoiceCommand) (*invoice.Ref, error)
	commands    []CreateInvoiceCommand
}

func (m *mockInvoiceCreator) Execute(ctx context.Context, cmd CreateInvoiceCommand) (*invoice.Ref, error) {
	m.commands = append(m.commands, cmd)
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, cmd)
	}
	return nil, nil
}
