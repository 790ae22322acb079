package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxProrationCycles bounds the cycle walk. Hitting it bills one extra full
// period and stops.
const MaxProrationCycles = 1000

// MinimumBillableAmount is the smallest total worth invoicing.
var MinimumBillableAmount = decimal.RequireFromString("0.01")

// ProrationInput carries everything the calculation reads. It holds no
// references to aggregates so the calculation stays pure.
type ProrationInput struct {
	CreatedAt          time.Time
	CurrentPeriodStart *time.Time
	CancelEffectiveAt  *time.Time
	Interval           Interval
	FullPeriodPrice    decimal.Decimal
	BillUntil          time.Time
	// LastBilledAt is the billing cursor, nil when nothing was invoiced yet
	LastBilledAt *time.Time
	UsagePayload map[string]any
	Now          time.Time
}

// Segment is the billed share of one cycle.
type Segment struct {
	Start    time.Time
	End      time.Time
	Fraction decimal.Decimal
	Amount   decimal.Decimal
}

// Proration is the result of Prorate. From/Until is the billed window, Until
// becomes the next cursor.
type Proration struct {
	From        time.Time
	Until       time.Time
	Segments    []Segment
	CapReached  bool
	BaseAmount  decimal.Decimal
	UsageAmount decimal.Decimal
	Total       decimal.Decimal
}

// Billable reports whether Total reaches MinimumBillableAmount.
func (p Proration) Billable() bool {
	return p.Total.GreaterThanOrEqual(MinimumBillableAmount)
}

// Prorate computes the amount owed since the billing cursor by walking
// consecutive cycles of the plan interval. A partial final cycle is charged
// by elapsed share of that cycle's length.
func Prorate(in ProrationInput) Proration {
	start := in.CreatedAt
	if in.CurrentPeriodStart != nil {
		start = *in.CurrentPeriodStart
	}

	endOrToday := in.Now
	if in.CancelEffectiveAt != nil && in.CancelEffectiveAt.Before(in.Now) {
		endOrToday = *in.CancelEffectiveAt
	}

	result := Proration{
		BaseAmount:  decimal.Zero,
		UsageAmount: decimal.Zero,
		Total:       decimal.Zero,
	}

	until := in.BillUntil
	if endOrToday.Before(until) {
		until = endOrToday
	}
	if !until.After(start) {
		return result
	}

	cursor := start
	if in.LastBilledAt != nil && in.LastBilledAt.After(start) {
		cursor = *in.LastBilledAt
	}
	if !until.After(cursor) {
		return result
	}

	result.From = cursor
	result.Until = until

	base := decimal.Zero
	remaining := until.Sub(cursor)
	for i := 0; remaining > 0; i++ {
		if i >= MaxProrationCycles {
			base = base.Add(in.FullPeriodPrice)
			result.CapReached = true
			break
		}

		cycleEnd := ScheduleFor(in.Interval, cursor).CurrentPeriodEnd
		length := cycleEnd.Sub(cursor)
		consumed := min(remaining, length)

		fraction := decimal.NewFromInt(int64(consumed)).Div(decimal.NewFromInt(int64(length)))
		amount := in.FullPeriodPrice.Mul(fraction)
		result.Segments = append(result.Segments, Segment{
			Start:    cursor,
			End:      cursor.Add(consumed),
			Fraction: fraction,
			Amount:   amount,
		})

		base = base.Add(amount)
		cursor = cycleEnd
		remaining -= consumed
	}

	result.BaseAmount = base.Round(2)
	result.UsageAmount = UsageCost(in.UsagePayload).Round(2)
	result.Total = base.Add(UsageCost(in.UsagePayload)).Round(2)
	return result
}
