// Package customer holds the billing identity of a user.
package customer

import (
	"errors"
	"fmt"
	"time"
)

// MaxBillingDay keeps every billing day present in every month.
const MaxBillingDay = 28

var ErrAccountNotFound = errors.New("billing account not found")

// Account is the billing profile of a user. The effective billing day is
// derived on every change and stored so the accumulation job can query it.
type Account struct {
	userID              uint
	email               string
	name                string
	signedUpAt          time.Time
	billingDayOverride  *int
	effectiveBillingDay int
	externalClientID    string
	createdAt           time.Time
	updatedAt           time.Time
}

func NewAccount(userID uint, email, name string, signedUpAt time.Time, billingDayOverride *int, now time.Time) (*Account, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	a := &Account{
		userID:     userID,
		email:      email,
		name:       name,
		signedUpAt: signedUpAt.UTC(),
		createdAt:  now,
		updatedAt:  now,
	}
	if err := a.SetBillingDayOverride(billingDayOverride, now); err != nil {
		return nil, err
	}
	return a, nil
}

// ReconstructAccount reconstructs an account from persistence
func ReconstructAccount(
	userID uint,
	email, name string,
	signedUpAt time.Time,
	billingDayOverride *int,
	externalClientID string,
	createdAt, updatedAt time.Time,
) *Account {
	a := &Account{
		userID:             userID,
		email:              email,
		name:               name,
		signedUpAt:         signedUpAt,
		billingDayOverride: billingDayOverride,
		externalClientID:   externalClientID,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
	a.effectiveBillingDay = a.computeBillingDay()
	return a
}

func (a *Account) UserID() uint {
	return a.userID
}

func (a *Account) Email() string {
	return a.email
}

func (a *Account) Name() string {
	return a.name
}

func (a *Account) SignedUpAt() time.Time {
	return a.signedUpAt
}

func (a *Account) BillingDayOverride() *int {
	return a.billingDayOverride
}

func (a *Account) EffectiveBillingDay() int {
	return a.effectiveBillingDay
}

func (a *Account) ExternalClientID() string {
	return a.externalClientID
}

func (a *Account) CreatedAt() time.Time {
	return a.createdAt
}

func (a *Account) UpdatedAt() time.Time {
	return a.updatedAt
}

func (a *Account) SetBillingDayOverride(day *int, now time.Time) error {
	if day != nil && (*day < 1 || *day > 31) {
		return fmt.Errorf("billing day override must be within 1-31, got %d", *day)
	}
	a.billingDayOverride = day
	a.effectiveBillingDay = a.computeBillingDay()
	a.updatedAt = now
	return nil
}

// LinkExternalClient stores the invoicing provider's customer ID.
func (a *Account) LinkExternalClient(clientID string, now time.Time) {
	if clientID == a.externalClientID {
		return
	}
	a.externalClientID = clientID
	a.updatedAt = now
}

func (a *Account) computeBillingDay() int {
	day := a.signedUpAt.Day()
	if a.billingDayOverride != nil {
		day = *a.billingDayOverride
	}
	return EffectiveDay(day)
}

// EffectiveDay clamps a day of month to MaxBillingDay.
func EffectiveDay(day int) int {
	return min(day, MaxBillingDay)
}
