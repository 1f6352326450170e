// Package telemetry collects per-stage frame timings and writes them as CSV.
package telemetry

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// PhasePresent is the phase covering the blit of the head stage to the window.
const PhasePresent = "present"

// PerfSample holds timing data for a single frame.
type PerfSample struct {
	FrameDuration time.Duration
	Phases        map[string]time.Duration
}

// PerfCollector tracks frame and phase timings over a rolling window.
// Times are measured on the CPU around draw submission.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	frameStart    time.Time
	phaseStart    time.Time
	lastPhase     string
	now           func() time.Time
}

// NewPerfCollector creates a collector averaging over windowSize frames.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
		now:           time.Now,
	}
}

// WindowSize returns the number of frames a full window holds.
func (p *PerfCollector) WindowSize() int { return p.windowSize }

// StartTick begins timing a new frame.
func (p *PerfCollector) StartTick() {
	p.frameStart = p.now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase ends the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := p.now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndTick finishes timing the current frame and records the sample.
func (p *PerfCollector) EndTick() {
	now := p.now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.samples[p.writeIndex] = PerfSample{
		FrameDuration: now.Sub(p.frameStart),
		Phases:        p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
	p.lastPhase = ""
}

// PerfStats holds aggregated statistics over the window.
type PerfStats struct {
	Frames           int
	AvgFrameDuration time.Duration
	StdFrameDuration time.Duration
	MinFrameDuration time.Duration
	MaxFrameDuration time.Duration
	FPS              float64

	// Phase breakdown (average per frame) and share of the frame time.
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64
}

// Phases returns the phase names in a stable order.
func (s PerfStats) Phases() []string {
	names := make([]string, 0, len(s.PhaseAvg))
	for name := range s.PhaseAvg {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	stats := PerfStats{
		Frames:   p.sampleCount,
		PhaseAvg: make(map[string]time.Duration),
		PhasePct: make(map[string]float64),
	}
	if p.sampleCount == 0 {
		return stats
	}

	durations := make([]float64, 0, p.sampleCount)
	totals := make(map[string]time.Duration)
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		d := s.FrameDuration
		durations = append(durations, float64(d))
		if i == 0 || d < stats.MinFrameDuration {
			stats.MinFrameDuration = d
		}
		if d > stats.MaxFrameDuration {
			stats.MaxFrameDuration = d
		}
		for phase, pd := range s.Phases {
			totals[phase] += pd
		}
	}

	mean, std := stat.MeanStdDev(durations, nil)
	if p.sampleCount < 2 {
		std = 0
	}
	stats.AvgFrameDuration = time.Duration(mean)
	stats.StdFrameDuration = time.Duration(std)
	if mean > 0 {
		stats.FPS = float64(time.Second) / mean
	}

	for phase, total := range totals {
		avg := total / time.Duration(p.sampleCount)
		stats.PhaseAvg[phase] = avg
		if mean > 0 {
			stats.PhasePct[phase] = 100 * float64(avg) / mean
		}
	}
	return stats
}

// Reset discards every sample.
func (p *PerfCollector) Reset() {
	p.writeIndex = 0
	p.sampleCount = 0
	p.lastPhase = ""
	for i := range p.samples {
		p.samples[i] = PerfSample{}
	}
}
