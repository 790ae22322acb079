package backorder

// Status is the lifecycle state of a backorder.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRetrying  Status = "RETRYING"
	StatusFulfilled Status = "FULFILLED"
	StatusCancelled Status = "CANCELLED"
	StatusFailed    Status = "FAILED"
)

var ValidStatuses = map[Status]bool{
	StatusPending:   true,
	StatusRetrying:  true,
	StatusFulfilled: true,
	StatusCancelled: true,
	StatusFailed:    true,
}

func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further retries happen.
func (s Status) IsTerminal() bool {
	return s == StatusFulfilled || s == StatusCancelled || s == StatusFailed
}

// IsOpen reports whether the retry driver should pick the backorder up.
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusRetrying
}
