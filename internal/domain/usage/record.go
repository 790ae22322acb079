// Package usage stores metered usage reported for subscriptions.
package usage

import (
	"context"
	"fmt"
	"maps"
	"time"
)

// Record is one usage report. Only the newest record of a subscription is
// billed.
type Record struct {
	id             uint
	subscriptionID uint
	payload        map[string]any
	recordedAt     time.Time
}

func NewRecord(subscriptionID uint, payload map[string]any, recordedAt time.Time) (*Record, error) {
	if subscriptionID == 0 {
		return nil, fmt.Errorf("subscription ID is required")
	}
	if payload == nil {
		payload = make(map[string]any)
	}
	return &Record{subscriptionID: subscriptionID, payload: maps.Clone(payload), recordedAt: recordedAt}, nil
}

// ReconstructRecord reconstructs a usage record from persistence
func ReconstructRecord(id, subscriptionID uint, payload map[string]any, recordedAt time.Time) *Record {
	return &Record{id: id, subscriptionID: subscriptionID, payload: payload, recordedAt: recordedAt}
}

func (r *Record) ID() uint {
	return r.id
}

func (r *Record) SubscriptionID() uint {
	return r.subscriptionID
}

func (r *Record) Payload() map[string]any {
	return maps.Clone(r.payload)
}

func (r *Record) RecordedAt() time.Time {
	return r.recordedAt
}

func (r *Record) SetID(id uint) {
	r.id = id
}

type Repository interface {
	Create(ctx context.Context, record *Record) error
	// GetLatest returns nil when the subscription reported no usage.
	GetLatest(ctx context.Context, subscriptionID uint) (*Record, error)
}
