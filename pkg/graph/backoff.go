package graph

import "time"

// backoffDelay computes the retry delay for the given 1-based attempt:
// exponential growth from base, capped at max, plus the caller-supplied jitter
// in [0s, 1s). The result never exceeds max + 1s.
func backoffDelay(attempt int, base, max time.Duration, jitter float64) time.Duration {
	exp := base
	for i := 1; i < attempt; i++ {
		exp *= 2
		if exp >= max {
			exp = max
			break
		}
	}
	return exp + time.Duration(jitter*float64(time.Second))
}
