package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// PhaseFrame is the phase name of the row summarizing whole frames.
const PhaseFrame = "frame"

// PerfRecord is one CSV row: a phase's timing over a window ending at Frame.
type PerfRecord struct {
	Frame     int32   `csv:"frame"`
	Phase     string  `csv:"phase"`
	AvgMicros float64 `csv:"avg_us"`
	StdMicros float64 `csv:"std_us"`
	MinMicros float64 `csv:"min_us"`
	MaxMicros float64 `csv:"max_us"`
	Pct       float64 `csv:"pct"`
	FPS       float64 `csv:"fps"`
}

// Records flattens stats into one frame row followed by one row per phase.
func (s PerfStats) Records(windowEnd int32) []PerfRecord {
	records := []PerfRecord{{
		Frame:     windowEnd,
		Phase:     PhaseFrame,
		AvgMicros: micros(s.AvgFrameDuration.Seconds()),
		StdMicros: micros(s.StdFrameDuration.Seconds()),
		MinMicros: micros(s.MinFrameDuration.Seconds()),
		MaxMicros: micros(s.MaxFrameDuration.Seconds()),
		Pct:       100,
		FPS:       s.FPS,
	}}
	for _, phase := range s.Phases() {
		records = append(records, PerfRecord{
			Frame:     windowEnd,
			Phase:     phase,
			AvgMicros: micros(s.PhaseAvg[phase].Seconds()),
			Pct:       s.PhasePct[phase],
		})
	}
	return records
}

func micros(seconds float64) float64 {
	return seconds * 1e6
}

// OutputManager appends timing records to a CSV file.
type OutputManager struct {
	out           io.WriteCloser
	headerWritten bool
}

// NewOutputManager creates path and its directory. Returns nil if path is
// empty (output disabled); a nil manager ignores writes.
func NewOutputManager(path string) (*OutputManager, error) {
	if path == "" {
		return nil, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return &OutputManager{out: f}, nil
}

// NewWriterOutput writes records to w.
func NewWriterOutput(w io.WriteCloser) *OutputManager {
	return &OutputManager{out: w}
}

// WritePerf writes the stats of a window ending at windowEnd.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}
	records := stats.Records(windowEnd)
	if !om.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, om.out); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
		om.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.out); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	return om.out.Close()
}
