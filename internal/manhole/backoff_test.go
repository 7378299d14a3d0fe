package manhole

import (
	"math/rand"
	"testing"
	"time"

	"github.com/danmuck/manholectl/internal/testutil/testlog"
)

func TestNextBackoffDelayGrowsAndCaps(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{
		InitialDelay: 100 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     500 * time.Millisecond,
	}

	if d := NextBackoffDelay(cfg, 1, nil); d != 100*time.Millisecond {
		t.Fatalf("attempt 1: %v", d)
	}
	if d := NextBackoffDelay(cfg, 2, nil); d != 200*time.Millisecond {
		t.Fatalf("attempt 2: %v", d)
	}
	if d := NextBackoffDelay(cfg, 3, nil); d != 400*time.Millisecond {
		t.Fatalf("attempt 3: %v", d)
	}
	if d := NextBackoffDelay(cfg, 10, nil); d != 500*time.Millisecond {
		t.Fatalf("attempt 10 not capped: %v", d)
	}
}

func TestNextBackoffDelayJitterStaysBounded(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultBackoffConfig()
	rng := rand.New(rand.NewSource(1))

	for attempt := 2; attempt <= 8; attempt++ {
		d := NextBackoffDelay(cfg, attempt, rng)
		if d <= 0 {
			t.Fatalf("attempt %d: non-positive delay %v", attempt, d)
		}
		if d > cfg.MaxDelay+cfg.MaxDelay/2 {
			t.Fatalf("attempt %d: jitter exceeded bound: %v", attempt, d)
		}
	}
}
