package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestCalculateSchedule(t *testing.T) {
	now := time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		typ     IntervalType
		value   int
		day     *int
		now     time.Time
		wantEnd time.Time
	}{
		{
			name:    "hourly",
			typ:     IntervalHour,
			value:   6,
			now:     now,
			wantEnd: now.Add(6 * time.Hour),
		},
		{
			name:    "daily",
			typ:     IntervalDay,
			value:   1,
			now:     now,
			wantEnd: time.Date(2024, time.January, 16, 10, 30, 0, 0, time.UTC),
		},
		{
			name:    "daily across month end",
			typ:     IntervalDay,
			value:   3,
			now:     time.Date(2024, time.January, 30, 8, 0, 0, 0, time.UTC),
			wantEnd: time.Date(2024, time.February, 2, 8, 0, 0, 0, time.UTC),
		},
		{
			name:    "monthly defaults to the first",
			typ:     IntervalMonth,
			value:   1,
			now:     now,
			wantEnd: time.Date(2024, time.February, 1, 10, 30, 0, 0, time.UTC),
		},
		{
			name:    "monthly anchored day",
			typ:     IntervalMonth,
			value:   1,
			day:     intPtr(20),
			now:     now,
			wantEnd: time.Date(2024, time.February, 20, 10, 30, 0, 0, time.UTC),
		},
		{
			name:    "day 31 clamps to leap february",
			typ:     IntervalMonth,
			value:   1,
			day:     intPtr(31),
			now:     now,
			wantEnd: time.Date(2024, time.February, 29, 10, 30, 0, 0, time.UTC),
		},
		{
			name:    "day 31 clamps to 30 day month",
			typ:     IntervalMonth,
			value:   1,
			day:     intPtr(31),
			now:     time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
			wantEnd: time.Date(2024, time.April, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "december rolls into next year",
			typ:     IntervalMonth,
			value:   1,
			now:     time.Date(2024, time.December, 10, 12, 0, 0, 0, time.UTC),
			wantEnd: time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			name:    "quarterly",
			typ:     IntervalMonth,
			value:   3,
			day:     intPtr(5),
			now:     now,
			wantEnd: time.Date(2024, time.April, 5, 10, 30, 0, 0, time.UTC),
		},
		{
			name:    "zero value treated as one",
			typ:     IntervalDay,
			value:   0,
			now:     now,
			wantEnd: now.AddDate(0, 0, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := CalculateSchedule(tt.typ, tt.value, tt.day, tt.now)

			assert.Equal(t, tt.now, s.CurrentPeriodStart)
			assert.Equal(t, tt.wantEnd, s.CurrentPeriodEnd)
			assert.Equal(t, s.CurrentPeriodEnd, s.NextBillingAt)
		})
	}
}

func TestCalculateSchedule_EndAfterStart(t *testing.T) {
	start := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	for _, typ := range []IntervalType{IntervalHour, IntervalDay, IntervalMonth} {
		for _, value := range []int{-2, 0, 1, 2, 12} {
			for _, day := range []*int{nil, intPtr(1), intPtr(15), intPtr(28), intPtr(31)} {
				for offset := 0; offset < 400; offset += 17 {
					now := start.AddDate(0, 0, offset).Add(time.Duration(offset) * time.Minute)
					s := CalculateSchedule(typ, value, day, now)
					assert.True(t, s.CurrentPeriodEnd.After(s.CurrentPeriodStart),
						"type=%s value=%d now=%s", typ, value, now)
				}
			}
		}
	}
}

func TestCalculateSchedule_NormalisesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	now := time.Date(2024, time.May, 1, 1, 0, 0, 0, loc)

	s := CalculateSchedule(IntervalMonth, 1, nil, now)

	assert.Equal(t, time.UTC, s.CurrentPeriodStart.Location())
	// 01:00+02 is April 30 23:00 UTC, so the next month is May
	assert.Equal(t, time.Date(2024, time.May, 1, 23, 0, 0, 0, time.UTC), s.CurrentPeriodEnd)
}

func TestParseIntervalType(t *testing.T) {
	typ, err := ParseIntervalType("month")
	assert.NoError(t, err)
	assert.Equal(t, IntervalMonth, typ)

	_, err = ParseIntervalType("week")
	assert.ErrorIs(t, err, ErrInvalidInterval)
}
