package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepClock advances by the queued step on every reading.
type stepClock struct {
	t     time.Time
	steps []time.Duration
}

func (c *stepClock) now() time.Time {
	if len(c.steps) > 0 {
		c.t = c.t.Add(c.steps[0])
		c.steps = c.steps[1:]
	}
	return c.t
}

func newTestCollector(window int, steps ...time.Duration) *PerfCollector {
	c := &stepClock{t: time.Unix(0, 0), steps: steps}
	p := NewPerfCollector(window)
	p.now = c.now
	return p
}

func TestPerfCollectorPhases(t *testing.T) {
	ms := time.Millisecond
	// per frame: StartTick, StartPhase(a), StartPhase(b), EndTick
	p := newTestCollector(4,
		0, 1*ms, 3*ms, 6*ms,
		0, 1*ms, 3*ms, 6*ms,
	)
	for i := 0; i < 2; i++ {
		p.StartTick()
		p.StartPhase("a")
		p.StartPhase("b")
		p.EndTick()
	}

	s := p.Stats()
	assert.Equal(t, 2, s.Frames)
	assert.Equal(t, 10*ms, s.AvgFrameDuration)
	assert.Equal(t, 10*ms, s.MinFrameDuration)
	assert.Equal(t, 10*ms, s.MaxFrameDuration)
	assert.Zero(t, s.StdFrameDuration)
	assert.InDelta(t, 100, s.FPS, 1e-9)
	assert.Equal(t, 3*ms, s.PhaseAvg["a"])
	assert.Equal(t, 6*ms, s.PhaseAvg["b"])
	assert.InDelta(t, 30, s.PhasePct["a"], 1e-9)
	assert.InDelta(t, 60, s.PhasePct["b"], 1e-9)
	assert.Equal(t, []string{"a", "b"}, s.Phases())
}

func TestPerfCollectorWindow(t *testing.T) {
	ms := time.Millisecond
	p := newTestCollector(2,
		0, 10*ms,
		0, 20*ms,
		0, 30*ms,
	)
	for i := 0; i < 3; i++ {
		p.StartTick()
		p.EndTick()
	}

	s := p.Stats()
	require.Equal(t, 2, s.Frames)
	// the first frame fell out of the window
	assert.Equal(t, 20*ms, s.MinFrameDuration)
	assert.Equal(t, 30*ms, s.MaxFrameDuration)
	assert.Equal(t, 25*ms, s.AvgFrameDuration)
	assert.Greater(t, s.StdFrameDuration, time.Duration(0))
}

func TestPerfCollectorReset(t *testing.T) {
	p := newTestCollector(3, 0, time.Millisecond)
	p.StartTick()
	p.EndTick()
	p.Reset()

	s := p.Stats()
	assert.Zero(t, s.Frames)
	assert.Zero(t, s.FPS)
	assert.Empty(t, s.PhaseAvg)
}

func TestNewPerfCollectorDefaultWindow(t *testing.T) {
	assert.Equal(t, 60, NewPerfCollector(0).WindowSize())
	assert.Equal(t, 5, NewPerfCollector(5).WindowSize())
}
