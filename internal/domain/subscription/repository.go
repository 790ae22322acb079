package subscription

import (
	"context"
	"time"

	"github.com/orris-inc/cloudbilling/internal/shared/query"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *Subscription) error
	GetByID(ctx context.Context, id uint) (*Subscription, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id uint) (*Subscription, error)
	Update(ctx context.Context, subscription *Subscription) error

	// ListDueForBilling returns ACTIVE subscriptions with next_billing_at <= now
	// ordered by (next_billing_at, id) after the cursor.
	ListDueForBilling(ctx context.Context, now time.Time, cursor query.Cursor) ([]*Subscription, error)
	// ListDueForExpiration returns PENDING_CANCEL subscriptions with
	// cancel_effective_at <= now ordered by (cancel_effective_at, id).
	ListDueForExpiration(ctx context.Context, now time.Time, cursor query.Cursor) ([]*Subscription, error)
	// ListRenewingBetween returns ACTIVE subscriptions with next_billing_at in
	// (from, to] ordered by (next_billing_at, id).
	ListRenewingBetween(ctx context.Context, from, to time.Time, cursor query.Cursor) ([]*Subscription, error)
}

type ItemRepository interface {
	Create(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, id uint) (*Item, error)
	ListBySubscriptionID(ctx context.Context, subscriptionID uint) ([]*Item, error)
	Update(ctx context.Context, item *Item) error
}

type PlanRepository interface {
	Create(ctx context.Context, plan *Plan) error
	GetByID(ctx context.Context, id uint) (*Plan, error)
}

type ServiceTypeRepository interface {
	Create(ctx context.Context, serviceType *ServiceType) error
	GetByID(ctx context.Context, id uint) (*ServiceType, error)
}
