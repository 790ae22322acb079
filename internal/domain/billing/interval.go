package billing

import "fmt"

// IntervalType is the unit of a billing cycle.
type IntervalType string

const (
	IntervalHour  IntervalType = "hour"
	IntervalDay   IntervalType = "day"
	IntervalMonth IntervalType = "month"
)

var ValidIntervalTypes = map[IntervalType]bool{
	IntervalHour:  true,
	IntervalDay:   true,
	IntervalMonth: true,
}

func (t IntervalType) String() string {
	return string(t)
}

func (t IntervalType) IsValid() bool {
	return ValidIntervalTypes[t]
}

// ParseIntervalType validates a persisted or user supplied interval type.
func ParseIntervalType(s string) (IntervalType, error) {
	t := IntervalType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidInterval, s)
	}
	return t, nil
}

// Interval fully describes a plan's billing cycle.
type Interval struct {
	Type  IntervalType
	Value int
	// DayOfMonth anchors month cycles, nil means the 1st
	DayOfMonth *int
}
