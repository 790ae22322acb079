package billing

import (
	"time"

	"github.com/orris-inc/cloudbilling/internal/shared/biztime"
)

// Schedule is one billing period. NextBillingAt always equals CurrentPeriodEnd.
type Schedule struct {
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	NextBillingAt      time.Time
}

// CalculateSchedule returns the period that starts at now for the given
// interval. All arithmetic happens in UTC.
//
// Month cycles end on the anchor day of the month intervalValue months after
// now's month, clamped to that month's length, at now's wall clock time.
// An intervalValue below 1 is treated as 1 and an unknown type as day.
func CalculateSchedule(intervalType IntervalType, intervalValue int, billingDayOfMonth *int, now time.Time) Schedule {
	now = now.UTC()
	if intervalValue < 1 {
		intervalValue = 1
	}

	var end time.Time
	switch intervalType {
	case IntervalHour:
		end = now.Add(time.Duration(intervalValue) * time.Hour)
	case IntervalMonth:
		end = monthEnd(now, intervalValue, billingDayOfMonth)
	default:
		end = now.AddDate(0, 0, intervalValue)
	}

	return Schedule{
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   end,
		NextBillingAt:      end,
	}
}

// ScheduleFor is CalculateSchedule over an Interval.
func ScheduleFor(interval Interval, now time.Time) Schedule {
	return CalculateSchedule(interval.Type, interval.Value, interval.DayOfMonth, now)
}

func monthEnd(now time.Time, months int, billingDayOfMonth *int) time.Time {
	target := 1
	if billingDayOfMonth != nil {
		target = *billingDayOfMonth
	}
	if target < 1 {
		target = 1
	}

	// time.Date normalises the month overflow into the following years
	first := time.Date(now.Year(), now.Month()+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	day := min(target, biztime.DaysIn(first.Year(), first.Month()))

	return time.Date(first.Year(), first.Month(), day,
		now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), time.UTC)
}
