package backorder

import (
	"context"

	"github.com/orris-inc/cloudbilling/internal/shared/query"
)

type Repository interface {
	Create(ctx context.Context, backorder *Backorder) error
	GetByID(ctx context.Context, id uint) (*Backorder, error)
	Update(ctx context.Context, backorder *Backorder) error
	// ListOpen returns PENDING and RETRYING backorders by ascending id.
	ListOpen(ctx context.Context, cursor query.Cursor) ([]*Backorder, error)
}
