package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/cloudbilling/internal/application/provider"
	subusecases "github.com/orris-inc/cloudbilling/internal/application/subscription/usecases"
	"github.com/orris-inc/cloudbilling/internal/domain/backorder"
	"github.com/orris-inc/cloudbilling/internal/domain/billing"
	"github.com/orris-inc/cloudbilling/internal/domain/subscription"
	apperrors "github.com/orris-inc/cloudbilling/internal/shared/errors"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
	"github.com/orris-inc/cloudbilling/internal/shared/query"
)

var t0 = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

func newPlan(t *testing.T, active bool) *subscription.Plan {
	t.Helper()
	plan, err := subscription.ReconstructPlan(1, 7, "vps-small",
		billing.Interval{Type: billing.IntervalMonth, Value: 1},
		billing.CancellationPolicy{},
		subscription.PlanPricing{BasePrice: decimal.NewFromInt(10), Currency: "EUR"},
		nil, active, t0, t0)
	require.NoError(t, err)
	return plan
}

func newOpenBackorder(t *testing.T, id uint, status backorder.Status) *backorder.Backorder {
	t.Helper()
	bo, err := backorder.Reconstruct(backorder.ReconstructParams{
		ID:              id,
		UserID:          42,
		ServiceTypeID:   7,
		PlanID:          1,
		RequestedConfig: map[string]any{"image": "debian-12-x64"},
		Status:          status,
		FailureReason:   "no capacity",
		CreatedAt:       t0,
		UpdatedAt:       t0,
	})
	require.NoError(t, err)
	return bo
}

type retryFixture struct {
	backorders   *mockBackorderRepository
	availability *mockAvailabilityChecker
	subs         *mockSubscriptionRepository
	prov         *stubProvider
	uc           *RetryBackorderUseCase
}

func newRetryFixture(t *testing.T, plan *subscription.Plan, bos ...*backorder.Backorder) *retryFixture {
	t.Helper()
	st, err := subscription.ReconstructServiceType(7, "vps", "digitalocean",
		subscription.ConfigSchema{"image": {Type: subscription.FieldString, Required: true}},
		nil, t0, t0)
	require.NoError(t, err)

	f := &retryFixture{
		backorders:   newMockBackorderRepository(bos...),
		availability: &mockAvailabilityChecker{availability: &provider.Availability{IsAvailable: true}},
		subs:         &mockSubscriptionRepository{},
		prov:         &stubProvider{},
	}
	registry := provider.NewRegistry("digitalocean")
	require.NoError(t, registry.Register(f.prov))

	provisioner := subusecases.NewProvisioner(mockTransactor{}, f.subs, &mockItemRepository{},
		&mockPlanRepository{plan: plan}, &mockServiceTypeRepository{serviceType: st},
		registry, noopHostnames{}, nil, logger.NewNop())
	f.uc = NewRetryBackorderUseCase(f.backorders, f.availability, provisioner, logger.NewNop())
	f.uc.now = func() time.Time { return t0.Add(time.Hour) }
	return f
}

func TestCreateBackorder(t *testing.T) {
	repo := newMockBackorderRepository()
	uc := NewCreateBackorderUseCase(repo, &mockPlanRepository{plan: newPlan(t, true)}, logger.NewNop())

	bo, err := uc.Execute(context.Background(), CreateBackorderCommand{
		UserID:          42,
		PlanID:          1,
		RequestedConfig: map[string]any{"image": "debian-12-x64"},
		Reason:          "size unavailable",
		Alternatives:    []string{"ams3"},
	})
	require.NoError(t, err)

	assert.Equal(t, backorder.StatusPending, bo.Status())
	assert.Equal(t, uint(7), bo.ServiceTypeID())
	assert.Equal(t, "size unavailable", bo.FailureReason())
	assert.Equal(t, []string{"ams3"}, bo.PreferredAlternatives())
	assert.Same(t, bo, repo.byID[bo.ID()])

	_, err = uc.Execute(context.Background(), CreateBackorderCommand{UserID: 42, PlanID: 9})
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestRetryBackorder_StillUnavailable(t *testing.T) {
	bo := newOpenBackorder(t, 1, backorder.StatusPending)
	f := newRetryFixture(t, newPlan(t, true), bo)
	f.availability.availability = &provider.Availability{
		IsAvailable:  false,
		Reason:       "sold out",
		Alternatives: []string{"lon1"},
	}

	result, err := f.uc.Execute(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, result)

	assert.Equal(t, backorder.StatusRetrying, bo.Status())
	assert.Equal(t, 1, bo.RetryCount())
	assert.Equal(t, "sold out", bo.FailureReason())
	assert.Equal(t, []string{"lon1"}, bo.PreferredAlternatives())
	require.NotNil(t, bo.LastRetriedAt())
	assert.Equal(t, 1, f.backorders.updates)
	assert.Empty(t, f.subs.created)
}

func TestRetryBackorder_Fulfilled(t *testing.T) {
	bo := newOpenBackorder(t, 1, backorder.StatusRetrying)
	f := newRetryFixture(t, newPlan(t, true), bo)

	result, err := f.uc.Execute(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, backorder.StatusFulfilled, bo.Status())
	require.NotNil(t, bo.SubscriptionID())
	assert.Equal(t, result.Subscription.ID(), *bo.SubscriptionID())
	assert.Equal(t, "debian-12-x64", result.Item.ConfigSnapshot()["image"])
	assert.Equal(t, 1, bo.RetryCount())
}

func TestRetryBackorder_ProvisioningFailureKeepsBackorderOpen(t *testing.T) {
	bo := newOpenBackorder(t, 1, backorder.StatusPending)
	f := newRetryFixture(t, newPlan(t, true), bo)
	f.prov.provisionErr = errors.New("api timeout")

	result, err := f.uc.Execute(context.Background(), 1)
	require.Error(t, err)
	assert.Nil(t, result)

	assert.Equal(t, backorder.StatusPending, bo.Status())
	assert.Equal(t, 1, bo.RetryCount())
	assert.Nil(t, bo.SubscriptionID())
}

func TestRetryBackorder_Terminal(t *testing.T) {
	for _, status := range []backorder.Status{backorder.StatusFulfilled, backorder.StatusCancelled, backorder.StatusFailed} {
		t.Run(status.String(), func(t *testing.T) {
			bo := newOpenBackorder(t, 1, status)
			f := newRetryFixture(t, newPlan(t, true), bo)

			_, err := f.uc.Execute(context.Background(), 1)
			assert.True(t, errors.Is(err, backorder.ErrBackorderNotRetryable))
			assert.Equal(t, 0, f.availability.calls)
			assert.Equal(t, 0, f.backorders.updates)
		})
	}
}

func TestRetryBackorder_InactivePlanFailsBackorder(t *testing.T) {
	bo := newOpenBackorder(t, 1, backorder.StatusPending)
	f := newRetryFixture(t, newPlan(t, false), bo)

	_, err := f.uc.Execute(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, subscription.ErrPlanInactive))
	assert.Equal(t, backorder.StatusFailed, bo.Status())
}

func TestRetryBackorder_NotFound(t *testing.T) {
	f := newRetryFixture(t, newPlan(t, true))

	_, err := f.uc.Execute(context.Background(), 99)
	assert.True(t, errors.Is(err, backorder.ErrBackorderNotFound))
}

func TestCancelBackorder(t *testing.T) {
	for _, status := range []backorder.Status{backorder.StatusPending, backorder.StatusFulfilled} {
		t.Run(status.String(), func(t *testing.T) {
			bo := newOpenBackorder(t, 1, status)
			repo := newMockBackorderRepository(bo)
			uc := NewCancelBackorderUseCase(repo, logger.NewNop())

			got, err := uc.Execute(context.Background(), 1)
			require.NoError(t, err)
			assert.Equal(t, backorder.StatusCancelled, got.Status())
			assert.Equal(t, 1, repo.updates)
		})
	}
}

func TestRetryPendingBackorders(t *testing.T) {
	open := []*backorder.Backorder{
		newOpenBackorder(t, 1, backorder.StatusPending),
		newOpenBackorder(t, 2, backorder.StatusRetrying),
		newOpenBackorder(t, 3, backorder.StatusPending),
	}
	repo := newMockBackorderRepository(open...)

	var cursors []query.Cursor
	repo.ListOpenFunc = func(ctx context.Context, cursor query.Cursor) ([]*backorder.Backorder, error) {
		cursors = append(cursors, cursor)
		if cursor.AfterID == 0 {
			return open[:2], nil
		}
		return open[2:], nil
	}

	retrier := &mockRetrier{ExecuteFunc: func(ctx context.Context, id uint) (*subusecases.CreateSubscriptionResult, error) {
		switch id {
		case 1:
			return &subusecases.CreateSubscriptionResult{}, nil
		case 2:
			panic("provider client nil")
		default:
			return nil, errors.New("still failing")
		}
	}}

	uc := NewRetryPendingBackordersUseCase(repo, retrier, 2, logger.NewNop())
	n, err := uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, []uint{1, 2, 3}, retrier.ids)
	require.Len(t, cursors, 2)
	assert.Equal(t, uint(2), cursors[1].AfterID)
}
