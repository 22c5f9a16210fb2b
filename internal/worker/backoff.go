package worker

import (
	"math"
	"math/rand"
	"time"
)

// backoffBase, backoffCap, and backoffJitterMax implement §5/§6's transient
// oracle error retry schedule: exponential backoff with base 60s, capped at
// 600s, plus uniform jitter up to 15s. Adapted from the teacher's
// RetryExecutor.calculateDelay, with the constants replaced to match this
// schedule instead of the teacher's 1s/30s defaults.
const (
	backoffBase       = 60 * time.Second
	backoffCap        = 600 * time.Second
	backoffJitterMax  = 15 * time.Second
	backoffMultiplier = 2.0
)

// nextBackoff returns the delay before re-enqueuing a job after its
// attempt'th transient failure (attempt is 1 for the first failure).
func nextBackoff(attempt int) time.Duration {
	delay := float64(backoffBase) * math.Pow(backoffMultiplier, float64(attempt-1))
	if delay > float64(backoffCap) {
		delay = float64(backoffCap)
	}
	jitter := time.Duration(rand.Int63n(int64(backoffJitterMax) + 1))
	return time.Duration(delay) + jitter
}
