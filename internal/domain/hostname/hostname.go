// Package hostname models globally unique hostnames reserved for
// subscription items.
package hostname

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

const MaxLength = 128

var (
	ErrInvalidHostname = errors.New("invalid hostname")
	ErrHostnameTaken   = errors.New("hostname already reserved")
)

// dns_rfc1035_label caps a label at 63 characters, below MaxLength.
var rules = fmt.Sprintf("required,max=%d,excludes=.,dns_rfc1035_label", MaxLength)

var validate = validator.New()

// Validate checks that name is a single lowercase DNS label: a leading
// letter, then letters, digits and inner hyphens, no dots.
func Validate(name string) error {
	err := validate.Var(name, rules)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return fmt.Errorf("%w: %q fails %s", ErrInvalidHostname, name, fieldErrs[0].Tag())
	}
	return fmt.Errorf("%w: %v", ErrInvalidHostname, err)
}

// Reservation binds a hostname to exactly one subscription item.
type Reservation struct {
	id                 uint
	hostname           string
	subscriptionItemID uint
	createdAt          time.Time
}

func NewReservation(name string, subscriptionItemID uint, now time.Time) (*Reservation, error) {
	if err := Validate(name); err != nil {
		return nil, err
	}
	if subscriptionItemID == 0 {
		return nil, fmt.Errorf("subscription item ID is required")
	}
	return &Reservation{hostname: name, subscriptionItemID: subscriptionItemID, createdAt: now}, nil
}

// ReconstructReservation reconstructs a reservation from persistence
func ReconstructReservation(id uint, name string, subscriptionItemID uint, createdAt time.Time) *Reservation {
	return &Reservation{id: id, hostname: name, subscriptionItemID: subscriptionItemID, createdAt: createdAt}
}

func (r *Reservation) ID() uint {
	return r.id
}

func (r *Reservation) Hostname() string {
	return r.hostname
}

func (r *Reservation) SubscriptionItemID() uint {
	return r.subscriptionItemID
}

func (r *Reservation) CreatedAt() time.Time {
	return r.createdAt
}

func (r *Reservation) SetID(id uint) {
	r.id = id
}
