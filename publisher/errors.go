package publisher

import (
	"fmt"
	"time"
)

// PublishError is a failed publish after any applicable retry.
type PublishError struct {
	StatusCode int
	Body       string
	// Detail is the provider's human readable reason, when the body carries one.
	Detail string
}

func (e *PublishError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("publish failed: status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("publish failed: status %d: %s", e.StatusCode, e.Body)
}

// RateLimitedError means the caller should back off instead of retrying now.
type RateLimitedError struct {
	Body string
	// ResetAt is when the provider says the window reopens; zero if unknown.
	ResetAt time.Time
}

func (e *RateLimitedError) Error() string {
	if !e.ResetAt.IsZero() {
		return fmt.Sprintf("rate limited until %s", e.ResetAt.UTC().Format(time.RFC3339))
	}
	return "rate limited"
}
