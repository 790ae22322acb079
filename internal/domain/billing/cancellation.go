package billing

import "time"

const (
	ReasonMinimumCommitment = "Minimum commitment not yet reached"
	ReasonNoticePeriod      = "Notice period not satisfied"
)

// CancellationPolicy is the part of a plan that governs cancellation.
type CancellationPolicy struct {
	CancelAtPeriodEnd bool
	MinCommitmentDays int
	NoticeDays        int
}

// CancellationDecision is the outcome of EvaluateCancellation. EffectiveAt is
// set only when CanCancel is true.
type CancellationDecision struct {
	CanCancel   bool
	EffectiveAt *time.Time
	Reason      string
}

// EvaluateCancellation decides whether a subscription created at createdAt may
// be cancelled at now, and when the cancellation takes effect.
//
// The notice check rejects requests that arrive before the notice window
// opens, i.e. earlier than effectiveAt minus NoticeDays.
func EvaluateCancellation(createdAt time.Time, currentPeriodEnd *time.Time, policy CancellationPolicy, now time.Time) CancellationDecision {
	commitmentEnd := createdAt.AddDate(0, 0, policy.MinCommitmentDays)
	if now.Before(commitmentEnd) {
		return CancellationDecision{Reason: ReasonMinimumCommitment}
	}

	effectiveAt := now
	if policy.CancelAtPeriodEnd && currentPeriodEnd != nil {
		effectiveAt = *currentPeriodEnd
	}

	noticeStart := effectiveAt.AddDate(0, 0, -policy.NoticeDays)
	if now.Before(noticeStart) {
		return CancellationDecision{Reason: ReasonNoticePeriod}
	}

	return CancellationDecision{CanCancel: true, EffectiveAt: &effectiveAt}
}
