package invoice

import (
	"context"

	"github.com/orris-inc/cloudbilling/internal/shared/query"
)

type RefRepository interface {
	Create(ctx context.Context, ref *Ref) error
	// GetLatestBySubscriptionID returns the billing cursor row, nil when the
	// subscription was never invoiced.
	GetLatestBySubscriptionID(ctx context.Context, subscriptionID uint) (*Ref, error)
	// UpdateChanges writes only the fields set in changes.
	UpdateChanges(ctx context.Context, id uint, changes Changes) error
	ListAfterID(ctx context.Context, cursor query.Cursor) ([]*Ref, error)
}

type OpenPositionRepository interface {
	Create(ctx context.Context, position *OpenPosition) error
	ListUnbilledByUserID(ctx context.Context, userID uint) ([]*OpenPosition, error)
	LinkInvoice(ctx context.Context, positionID, invoiceRefID uint) error
}
