package graphclient

import (
	"math/rand"
	"time"
)

// RetryPolicy bounds the retry behavior for transient upstream failures
// (429 and 5xx). Terminal errors are never retried.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Backoff returns the wait before the given attempt (1-based), doubling
// the base delay per attempt with up to 25% jitter.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			delay = p.MaxDelay
			break
		}
	}

	jitter := time.Duration(rand.Int63n(int64(delay)/4 + 1))
	delay += jitter

	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	return delay
}
