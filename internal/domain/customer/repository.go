package customer

import (
	"context"

	"github.com/orris-inc/cloudbilling/internal/shared/query"
)

type Repository interface {
	GetByUserID(ctx context.Context, userID uint) (*Account, error)
	// Save inserts or updates the account keyed by user ID.
	Save(ctx context.Context, account *Account) error
	// ListByBillingDay pages accounts by ascending user ID.
	ListByBillingDay(ctx context.Context, day int, cursor query.Cursor) ([]*Account, error)
}
