package graph

import (
	"testing"
	"time"
)

func TestBackoffDelayMonotonic(t *testing.T) {
	prev := time.Duration(0)
	for attempt := 1; attempt <= 12; attempt++ {
		d := backoffDelay(attempt, backoffBase, backoffCap, 0)
		if d < prev {
			t.Errorf("backoffDelay(%d) = %v, less than previous %v", attempt, d, prev)
		}
		prev = d
	}
}

func TestBackoffDelayBounds(t *testing.T) {
	tests := []struct {
		name    string
		attempt int
		jitter  float64
		want    time.Duration
	}{
		{"first attempt no jitter", 1, 0, 2 * time.Second},
		{"second attempt no jitter", 2, 0, 4 * time.Second},
		{"fifth attempt no jitter", 5, 0, 32 * time.Second},
		{"seventh attempt hits cap", 7, 0, 120 * time.Second},
		{"far attempt stays at cap", 20, 0, 120 * time.Second},
		{"first attempt with jitter", 1, 0.5, 2*time.Second + 500*time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := backoffDelay(tt.attempt, backoffBase, backoffCap, tt.jitter)
			if got != tt.want {
				t.Errorf("backoffDelay(%d, jitter=%v) = %v, want %v", tt.attempt, tt.jitter, got, tt.want)
			}
		})
	}
}

func TestBackoffDelayNeverExceedsCapPlusJitter(t *testing.T) {
	limit := backoffCap + time.Second
	for attempt := 1; attempt <= 30; attempt++ {
		d := backoffDelay(attempt, backoffBase, backoffCap, 0.999999)
		if d > limit {
			t.Errorf("backoffDelay(%d) = %v exceeds cap+1s (%v)", attempt, d, limit)
		}
	}
}
