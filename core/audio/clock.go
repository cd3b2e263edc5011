package audio

import (
	"sync"
	"time"
)

// Clock tracks a playback position in seconds for outputs that cannot
// report their own position. It only advances while running.
type Clock struct {
	mu        sync.Mutex
	now       func() time.Time
	base      float64
	startedAt time.Time
	running   bool
}

// NewClock creates a stopped clock at position 0. A nil now uses time.Now.
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Start resumes counting from the current position.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.running = true
	c.startedAt = c.now()
}

// Pause freezes the position.
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.base += c.now().Sub(c.startedAt).Seconds()
	c.running = false
}

// Reset stops the clock and moves it to position.
func (c *Clock) Reset(position float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if position < 0 {
		position = 0
	}
	c.base = position
	c.running = false
}

// Position returns the current position in seconds.
func (c *Clock) Position() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return c.base
	}
	return c.base + c.now().Sub(c.startedAt).Seconds()
}

func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
