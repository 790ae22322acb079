// Package query holds paging primitives shared by repositories and drivers.
package query

import "time"

const (
	DefaultBatchSize = 50
	MaxBatchSize     = 500
)

// Cursor is a keyset position over rows ordered by (due time, id). The zero
// value starts from the beginning.
type Cursor struct {
	AfterTime *time.Time
	AfterID   uint
	Limit     int
}

// First returns the starting cursor for a batch size.
func First(limit int) Cursor {
	return Cursor{Limit: limit}
}

// Size returns the effective batch size.
func (c Cursor) Size() int {
	if c.Limit <= 0 {
		return DefaultBatchSize
	}
	if c.Limit > MaxBatchSize {
		return MaxBatchSize
	}
	return c.Limit
}

// Next positions the cursor after the given row.
func (c Cursor) Next(dueAt time.Time, id uint) Cursor {
	t := dueAt
	return Cursor{AfterTime: &t, AfterID: id, Limit: c.Limit}
}

// NextID positions an id-only cursor after id.
func (c Cursor) NextID(id uint) Cursor {
	return Cursor{AfterID: id, Limit: c.Limit}
}
