package client

import "time"

// countdown is a cancellable delayed action checked from Tick. It never
// fires on its own.
type countdown struct {
	deadline time.Time
	armed    bool
}

func (c *countdown) Start(now time.Time, delay time.Duration) {
	c.deadline = now.Add(delay)
	c.armed = true
}

func (c *countdown) Cancel() {
	c.armed = false
}

// Due reports whether the deadline has passed. It disarms the countdown
// when it does, so each Start fires at most once.
func (c *countdown) Due(now time.Time) bool {
	if !c.armed || now.Before(c.deadline) {
		return false
	}
	c.armed = false
	return true
}

func (c *countdown) Remaining(now time.Time) time.Duration {
	if !c.armed {
		return 0
	}
	return max(0, c.deadline.Sub(now))
}
