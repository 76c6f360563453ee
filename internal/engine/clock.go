package engine

import (
	"sync"
	"time"
)

// Clock is a monotonic one-tick-per-second countdown. It is an owned
// resource: the controller that starts it must stop it on every exit path.
// The expiry callback fires exactly once, the instant remaining time reaches
// zero, and the clock performs no further ticking after that.
//
// The Clock holds no state across process restarts. A reload recomputes
// remaining time from the session start timestamp and the fixed budget,
// never from a saved countdown value.
type Clock struct {
	onTick   func(remaining int)
	onExpire func()

	// interval is one second in production; tests compress it.
	interval time.Duration

	mu      sync.Mutex
	stopCh  chan struct{}
	started bool
	stopped bool
}

// NewClock creates a countdown clock. onTick receives the remaining seconds
// after each tick; onExpire fires once when the countdown hits zero. Either
// callback may be nil.
func NewClock(onTick func(remaining int), onExpire func()) *Clock {
	return &Clock{
		onTick:   onTick,
		onExpire: onExpire,
		interval: time.Second,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the countdown from remainingSeconds. Starting an already
// started or stopped clock is a no-op. If remainingSeconds is zero or
// negative the expiry fires immediately.
func (c *Clock) Start(remainingSeconds int) {
	c.mu.Lock()
	if c.started || c.stopped {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	go c.run(remainingSeconds)
}

// Stop halts ticking immediately and permanently. Safe to call multiple
// times and from any goroutine, including after expiry.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	close(c.stopCh)
}

func (c *Clock) run(remaining int) {
	if remaining <= 0 {
		c.expire()
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			remaining--
			if remaining > 0 {
				if c.onTick != nil {
					c.onTick(remaining)
				}
				continue
			}
			if c.onTick != nil {
				c.onTick(0)
			}
			c.expire()
			return
		}
	}
}

// expire fires the expiry callback unless Stop won the race. The stopped
// check and the callback run outside any lock held by the listener, so a
// controller may call Stop from within onExpire without deadlocking.
func (c *Clock) expire() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if c.onExpire != nil {
		c.onExpire()
	}
}
