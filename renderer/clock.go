package renderer

// Clock measures shader time in seconds. It can be paused and reset to zero.
type Clock struct {
	now    func() float64
	start  float64
	last   float64
	frozen float64
	paused bool
}

// NewClock starts a clock reading seconds from now.
func NewClock(now func() float64) *Clock {
	return &Clock{now: now, start: now()}
}

// Tick returns the current shader time and the time elapsed since the
// previous Tick. While paused the time stands still and the delta is zero.
func (c *Clock) Tick() (t, dt float64) {
	if c.paused {
		return c.frozen, 0
	}
	t = c.now() - c.start
	dt = t - c.last
	if dt < 0 {
		dt = 0
	}
	c.last = t
	return t, dt
}

// Reset sets the shader time back to zero.
func (c *Clock) Reset() {
	c.start = c.now()
	c.last = 0
	c.frozen = 0
}

// TogglePause pauses a running clock or resumes a paused one and reports
// whether it is now paused.
func (c *Clock) TogglePause() bool {
	if c.paused {
		c.start = c.now() - c.frozen
		c.last = c.frozen
		c.paused = false
	} else {
		c.frozen = c.now() - c.start
		c.paused = true
	}
	return c.paused
}

func (c *Clock) Paused() bool { return c.paused }
