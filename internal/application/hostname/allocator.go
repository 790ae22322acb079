// Package hostname allocates globally unique, human readable hostnames for
// subscription items.
package hostname

import (
	"context"
	"errors"
	"fmt"

	"github.com/orris-inc/cloudbilling/internal/domain/hostname"
	"github.com/orris-inc/cloudbilling/internal/domain/subscription"
	"github.com/orris-inc/cloudbilling/internal/shared/biztime"
	"github.com/orris-inc/cloudbilling/internal/shared/id"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
)

const (
	MaxAttempts  = 50
	suffixLength = 6
)

var ErrHostnameAllocationExhausted = errors.New("could not allocate a unique hostname")

var adjectives = []string{
	"amber", "ancient", "autumn", "billowing", "bold", "brave", "bright", "calm",
	"cool", "crimson", "dawn", "falling", "fragrant", "gentle", "golden", "green",
	"hidden", "icy", "lively", "misty", "morning", "nameless", "patient", "polished",
	"proud", "quiet", "rapid", "red", "restless", "silent", "snowy", "solitary",
	"sparkling", "still", "swift", "twilight", "wandering", "wild", "winter", "young",
}

var nouns = []string{
	"bird", "breeze", "brook", "cloud", "dew", "dream", "field", "fire",
	"flower", "forest", "frog", "glade", "grass", "haze", "heron", "hill",
	"lake", "leaf", "meadow", "moon", "morning", "mountain", "night", "otter",
	"paper", "pine", "pond", "rain", "resonance", "river", "sea", "shadow",
	"sky", "smoke", "snow", "sound", "star", "sun", "sunset", "thunder",
	"tree", "violet", "water", "wave", "wildflower", "wind", "wood",
}

// Generator produces candidate hostnames.
type Generator func() (string, error)

// RandomName builds adjective-noun-suffix candidates.
func RandomName() (string, error) {
	adj, err := id.Pick(adjectives)
	if err != nil {
		return "", err
	}
	noun, err := id.Pick(nouns)
	if err != nil {
		return "", err
	}
	suffix, err := id.GenerateLower(suffixLength)
	if err != nil {
		return "", err
	}
	return adj + "-" + noun + "-" + suffix, nil
}

type Allocator struct {
	reservations hostname.Repository
	items        subscription.ItemRepository
	generate     Generator
	logger       logger.Interface
}

func NewAllocator(
	reservations hostname.Repository,
	items subscription.ItemRepository,
	logger logger.Interface,
) *Allocator {
	return &Allocator{
		reservations: reservations,
		items:        items,
		generate:     RandomName,
		logger:       logger,
	}
}

// WithGenerator replaces the candidate generator.
func (a *Allocator) WithGenerator(g Generator) *Allocator {
	a.generate = g
	return a
}

// Reserve allocates a hostname for the item, persists the reservation and
// records it on the item.
func (a *Allocator) Reserve(ctx context.Context, subscriptionItemID uint) (string, error) {
	item, err := a.items.GetByID(ctx, subscriptionItemID)
	if err != nil {
		return "", fmt.Errorf("failed to get subscription item: %w", err)
	}
	if item == nil {
		return "", subscription.ErrItemNotFound
	}

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		candidate, err := a.generate()
		if err != nil {
			return "", fmt.Errorf("failed to generate hostname: %w", err)
		}

		exists, err := a.reservations.Exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check hostname: %w", err)
		}
		if exists {
			continue
		}

		reservation, err := hostname.NewReservation(candidate, subscriptionItemID, biztime.NowUTC())
		if err != nil {
			return "", err
		}
		if err := a.reservations.Create(ctx, reservation); err != nil {
			if errors.Is(err, hostname.ErrHostnameTaken) {
				// lost a race against a concurrent reservation
				continue
			}
			return "", fmt.Errorf("failed to reserve hostname: %w", err)
		}

		item.AssignHostname(candidate, biztime.NowUTC())
		if err := a.items.Update(ctx, item); err != nil {
			return "", fmt.Errorf("failed to record hostname on item: %w", err)
		}

		a.logger.Infow("hostname reserved",
			"subscription_item_id", subscriptionItemID,
			"hostname", candidate,
			"attempts", attempt,
		)
		return candidate, nil
	}

	a.logger.Errorw("hostname allocation exhausted",
		"subscription_item_id", subscriptionItemID,
		"attempts", MaxAttempts,
	)
	return "", ErrHostnameAllocationExhausted
}

// Release drops the item's reservation. Items without one are left alone.
func (a *Allocator) Release(ctx context.Context, subscriptionItemID uint) error {
	reservation, err := a.reservations.GetBySubscriptionItemID(ctx, subscriptionItemID)
	if err != nil {
		return fmt.Errorf("failed to get hostname reservation: %w", err)
	}
	if reservation == nil {
		return nil
	}

	if err := a.reservations.DeleteBySubscriptionItemID(ctx, subscriptionItemID); err != nil {
		return fmt.Errorf("failed to delete hostname reservation: %w", err)
	}

	item, err := a.items.GetByID(ctx, subscriptionItemID)
	if err != nil {
		return fmt.Errorf("failed to get subscription item: %w", err)
	}
	if item != nil && item.Hostname() != "" {
		item.ClearHostname(biztime.NowUTC())
		if err := a.items.Update(ctx, item); err != nil {
			return fmt.Errorf("failed to clear item hostname: %w", err)
		}
	}

	a.logger.Infow("hostname released",
		"subscription_item_id", subscriptionItemID,
		"hostname", reservation.Hostname(),
	)
	return nil
}
