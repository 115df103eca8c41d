package sim

import "time"

// Clock produces the timestamps handed to the controller. Simulated time
// advances by the wall-clock delta times a rate, so it never runs backwards
// even when the rate changes.
type Clock struct {
	wall time.Time
	now  time.Time
}

// NewClock starts both wall and simulated time at start.
func NewClock(start time.Time) *Clock {
	return &Clock{wall: start, now: start}
}

// Advance moves the clock to wall, crediting the elapsed wall time at rate.
// A wall time earlier than the previous one counts as no time passing.
// Returns the new simulated time and the wall delta that was credited.
func (c *Clock) Advance(wall time.Time, rate float64) (time.Time, time.Duration) {
	dt := wall.Sub(c.wall)
	if dt < 0 {
		return c.now, 0
	}
	c.wall = wall

	if rate <= 0 {
		rate = 1
	}
	c.now = c.now.Add(time.Duration(float64(dt) * rate))
	return c.now, dt
}

// Now returns the current simulated time.
func (c *Clock) Now() time.Time {
	return c.now
}
