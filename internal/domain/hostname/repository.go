package hostname

import "context"

type Repository interface {
	Exists(ctx context.Context, hostname string) (bool, error)
	// Create returns ErrHostnameTaken when hostname or item is already reserved.
	Create(ctx context.Context, reservation *Reservation) error
	GetBySubscriptionItemID(ctx context.Context, subscriptionItemID uint) (*Reservation, error)
	DeleteBySubscriptionItemID(ctx context.Context, subscriptionItemID uint) error
}
