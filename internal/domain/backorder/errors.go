package backorder

import "errors"

var (
	ErrBackorderNotFound     = errors.New("backorder not found")
	ErrBackorderNotRetryable = errors.New("backorder is not retryable")
)
