package engine

import (
	"sync/atomic"
	"testing"
	"time"
)

func newTestClock(interval time.Duration, onTick func(int), onExpire func()) *Clock {
	c := NewClock(onTick, onExpire)
	c.interval = interval
	return c
}

func TestClockCountsDownAndExpiresOnce(t *testing.T) {
	ticks := make(chan int, 16)
	var expiries int32
	expired := make(chan struct{})

	c := newTestClock(5*time.Millisecond, func(r int) { ticks <- r }, func() {
		atomic.AddInt32(&expiries, 1)
		close(expired)
	})
	defer c.Stop()

	c.Start(3)

	select {
	case <-expired:
	case <-time.After(2 * time.Second):
		t.Fatal("clock never expired")
	}

	// Remaining values are monotonically non-increasing, never negative,
	// and reach exactly zero exactly once.
	close(ticks)
	prev := 3
	zeros := 0
	for r := range ticks {
		if r > prev {
			t.Fatalf("remaining increased: %d -> %d", prev, r)
		}
		if r < 0 {
			t.Fatalf("remaining went negative: %d", r)
		}
		if r == 0 {
			zeros++
		}
		prev = r
	}
	if zeros != 1 {
		t.Fatalf("remaining hit zero %d times, want 1", zeros)
	}

	// No further ticking after expiry.
	time.Sleep(30 * time.Millisecond)
	if n := atomic.LoadInt32(&expiries); n != 1 {
		t.Fatalf("expiry fired %d times, want 1", n)
	}
}

func TestClockStopPreventsExpiry(t *testing.T) {
	var expiries int32
	c := newTestClock(5*time.Millisecond, nil, func() { atomic.AddInt32(&expiries, 1) })

	c.Start(2)
	c.Stop()

	time.Sleep(50 * time.Millisecond)
	if n := atomic.LoadInt32(&expiries); n != 0 {
		t.Fatalf("expiry fired %d times after Stop, want 0", n)
	}
}

func TestClockStopIsIdempotent(t *testing.T) {
	c := newTestClock(5*time.Millisecond, nil, nil)
	c.Start(1)
	c.Stop()
	c.Stop() // must not panic on double close
}

func TestClockZeroRemainingExpiresImmediately(t *testing.T) {
	expired := make(chan struct{})
	c := newTestClock(time.Hour, nil, func() { close(expired) })
	defer c.Stop()

	c.Start(0)

	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatal("zero-remaining clock did not expire")
	}
}

func TestClockStartAfterStopIsNoop(t *testing.T) {
	var expiries int32
	c := newTestClock(time.Millisecond, nil, func() { atomic.AddInt32(&expiries, 1) })
	c.Stop()
	c.Start(0)

	time.Sleep(20 * time.Millisecond)
	if n := atomic.LoadInt32(&expiries); n != 0 {
		t.Fatalf("stopped clock expired %d times", n)
	}
}
