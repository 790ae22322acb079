package subscription

import (
	"fmt"
	"maps"
	"time"

	"github.com/shopspring/decimal"

	"github.com/orris-inc/cloudbilling/internal/domain/billing"
)

var hundred = decimal.NewFromInt(100)

// Plan is a purchasable configuration of a service type with its billing
// cycle, cancellation policy and pricing.
type Plan struct {
	id            uint
	serviceTypeID uint
	name          string
	interval      billing.Interval
	policy        billing.CancellationPolicy
	basePrice     decimal.Decimal
	marginPercent decimal.Decimal
	marginFixed   decimal.Decimal
	currency      string
	defaultConfig map[string]any
	active        bool
	createdAt     time.Time
	updatedAt     time.Time
}

// PlanPricing groups the price components of a plan.
type PlanPricing struct {
	BasePrice     decimal.Decimal
	MarginPercent decimal.Decimal
	MarginFixed   decimal.Decimal
	Currency      string
}

func NewPlan(
	serviceTypeID uint,
	name string,
	interval billing.Interval,
	policy billing.CancellationPolicy,
	pricing PlanPricing,
	defaultConfig map[string]any,
	now time.Time,
) (*Plan, error) {
	p := &Plan{
		serviceTypeID: serviceTypeID,
		name:          name,
		interval:      interval,
		policy:        policy,
		basePrice:     pricing.BasePrice,
		marginPercent: pricing.MarginPercent,
		marginFixed:   pricing.MarginFixed,
		currency:      pricing.Currency,
		defaultConfig: maps.Clone(defaultConfig),
		active:        true,
		createdAt:     now,
		updatedAt:     now,
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ReconstructPlan reconstructs a plan from persistence
func ReconstructPlan(
	id, serviceTypeID uint,
	name string,
	interval billing.Interval,
	policy billing.CancellationPolicy,
	pricing PlanPricing,
	defaultConfig map[string]any,
	active bool,
	createdAt, updatedAt time.Time,
) (*Plan, error) {
	if id == 0 {
		return nil, fmt.Errorf("plan ID cannot be zero")
	}
	p := &Plan{
		id:            id,
		serviceTypeID: serviceTypeID,
		name:          name,
		interval:      interval,
		policy:        policy,
		basePrice:     pricing.BasePrice,
		marginPercent: pricing.MarginPercent,
		marginFixed:   pricing.MarginFixed,
		currency:      pricing.Currency,
		defaultConfig: defaultConfig,
		active:        active,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Plan) validate() error {
	if p.serviceTypeID == 0 {
		return fmt.Errorf("service type ID is required")
	}
	if p.name == "" {
		return fmt.Errorf("plan name is required")
	}
	if !p.interval.Type.IsValid() {
		return fmt.Errorf("%w: %q", billing.ErrInvalidInterval, p.interval.Type)
	}
	if p.interval.Value < 1 {
		return fmt.Errorf("%w: interval value must be positive", billing.ErrInvalidInterval)
	}
	if d := p.interval.DayOfMonth; d != nil && (*d < 1 || *d > 31) {
		return fmt.Errorf("%w: billing day of month must be within 1-31", billing.ErrInvalidInterval)
	}
	if p.policy.MinCommitmentDays < 0 || p.policy.NoticeDays < 0 {
		return fmt.Errorf("commitment and notice days cannot be negative")
	}
	if p.basePrice.IsNegative() {
		return fmt.Errorf("%w: base price cannot be negative", ErrInvalidPrice)
	}
	if p.defaultConfig == nil {
		p.defaultConfig = make(map[string]any)
	}
	return nil
}

func (p *Plan) ID() uint {
	return p.id
}

func (p *Plan) ServiceTypeID() uint {
	return p.serviceTypeID
}

func (p *Plan) Name() string {
	return p.name
}

func (p *Plan) Interval() billing.Interval {
	return p.interval
}

func (p *Plan) CancellationPolicy() billing.CancellationPolicy {
	return p.policy
}

func (p *Plan) Pricing() PlanPricing {
	return PlanPricing{
		BasePrice:     p.basePrice,
		MarginPercent: p.marginPercent,
		MarginFixed:   p.marginFixed,
		Currency:      p.currency,
	}
}

func (p *Plan) Currency() string {
	return p.currency
}

func (p *Plan) DefaultConfig() map[string]any {
	return maps.Clone(p.defaultConfig)
}

func (p *Plan) IsActive() bool {
	return p.active
}

func (p *Plan) CreatedAt() time.Time {
	return p.createdAt
}

func (p *Plan) UpdatedAt() time.Time {
	return p.updatedAt
}

func (p *Plan) SetID(id uint) error {
	if p.id != 0 {
		return fmt.Errorf("plan ID is already set")
	}
	p.id = id
	return nil
}

// FullPeriodPrice is base*(1+marginPercent/100)+marginFixed, rounded to cents.
func (p *Plan) FullPeriodPrice() decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(p.marginPercent.Div(hundred))
	return p.basePrice.Mul(factor).Add(p.marginFixed).Round(2)
}

// Schedule computes the billing period starting at from.
func (p *Plan) Schedule(from time.Time) billing.Schedule {
	return billing.ScheduleFor(p.interval, from)
}
