package transition

import (
	"sync"
	"time"
)

// Clock drives dwell timers and headless animations.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// ScaledClock runs real time multiplied by a factor: 0.5 plays twice as fast.
type ScaledClock struct {
	scale  float64
	once   sync.Once
	origin time.Time
}

// NewScaledClock returns a clock with the given time scale. Non-positive
// scales mean real time.
func NewScaledClock(scale float64) *ScaledClock {
	if scale <= 0 {
		scale = 1
	}
	return &ScaledClock{scale: scale}
}

// RealClock is the unscaled clock.
func RealClock() *ScaledClock { return NewScaledClock(1) }

func (c *ScaledClock) start() time.Time {
	c.once.Do(func() { c.origin = time.Now() })
	return c.origin
}

// Now returns virtual time: real elapsed time divided by the scale.
func (c *ScaledClock) Now() time.Time {
	origin := c.start()
	elapsed := time.Since(origin)
	return origin.Add(time.Duration(float64(elapsed) / c.scale))
}

func (c *ScaledClock) After(d time.Duration) <-chan time.Time {
	c.start()
	if d <= 0 {
		ch := make(chan time.Time, 1)
		ch <- c.Now()
		return ch
	}
	return time.After(time.Duration(float64(d) * c.scale))
}
