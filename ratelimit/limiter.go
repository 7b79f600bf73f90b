// Package ratelimit implements the sliding-window quota checked before every write.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

const (
	DefaultRequests = 10
	DefaultWindow   = 10 * time.Second
)

// Result describes the state of a caller's window after a Limit call.
type Result struct {
	Success   bool
	Limit     int
	Remaining int
	// Reset is when the oldest hit leaves the window.
	Reset time.Time
}

// Limiter checks and consumes one request of a caller's quota. A denied
// call consumes nothing.
type Limiter interface {
	Limit(ctx context.Context, key string) (Result, error)
}

func validate(requests int, window time.Duration) error {
	if requests <= 0 {
		return errors.New("requests must be positive")
	}
	if window <= 0 {
		return errors.New("window must be positive")
	}
	return nil
}
