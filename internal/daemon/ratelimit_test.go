package daemon

import (
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	tests := []struct {
		name     string
		rate     int
		burst    int
		window   time.Duration
		requests int
		delay    time.Duration
		wantPass int
	}{
		{
			name:     "burst allows multiple requests",
			rate:     10,
			burst:    5,
			window:   time.Second,
			requests: 5,
			wantPass: 5,
		},
		{
			name:     "exceeding burst fails",
			rate:     10,
			burst:    3,
			window:   time.Second,
			requests: 5,
			wantPass: 3,
		},
		{
			name:     "tokens refill over time",
			rate:     10,
			burst:    2,
			window:   100 * time.Millisecond,
			requests: 4,
			delay:    150 * time.Millisecond,
			wantPass: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := newRateLimiter(tt.rate, tt.burst, tt.window)
			defer rl.Close()

			pass := 0
			for i := 0; i < tt.requests; i++ {
				if i > 0 && tt.delay > 0 {
					time.Sleep(tt.delay)
				}
				if rl.allow("192.168.1.1") {
					pass++
				}
			}
			if pass != tt.wantPass {
				t.Errorf("got %d passing requests, want %d", pass, tt.wantPass)
			}
		})
	}
}

func TestRateLimiterPerClientIsolation(t *testing.T) {
	rl := newRateLimiter(10, 1, time.Second)
	defer rl.Close()

	if !rl.allow("10.0.0.1") {
		t.Fatalf("first request from 10.0.0.1 should pass")
	}
	if rl.allow("10.0.0.1") {
		t.Fatalf("second immediate request from 10.0.0.1 should be throttled")
	}
	if !rl.allow("10.0.0.2") {
		t.Fatalf("first request from a distinct client should pass regardless of 10.0.0.1's bucket")
	}
}
