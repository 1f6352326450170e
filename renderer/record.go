package renderer

import (
	"fmt"
	"log"
	"time"
)

// FrameSink consumes frames read back from the head stage.
type FrameSink interface {
	WriteFrame(pixels []byte) error
}

// RunOffscreen renders duration*fps frames at a fixed time step and hands each
// head frame to sink. Time starts at zero regardless of the wall clock.
func (r *Renderer) RunOffscreen(sink FrameSink) error {
	fps := r.options.Record.FPS
	if fps <= 0 {
		return fmt.Errorf("invalid frame rate %d", fps)
	}
	totalFrames := int(r.options.Record.Duration * float64(fps))
	timeStep := 1.0 / float64(fps)
	log.Printf("Starting in record mode: %d frames", totalFrames)

	start := r.now()
	r.frameCount = 0
	for i := 0; i < totalFrames; i++ {
		currentTime := float64(i) * timeStep
		if r.perf != nil {
			r.perf.StartTick()
		}
		target := r.pipeline.RenderFrame(FrameState{
			Frame:     int32(i),
			Time:      currentTime,
			TimeDelta: timeStep,
			Date:      start.Add(time.Duration(currentTime * float64(time.Second))),
		})
		pixels, err := r.device.ReadPixels(target)
		if err != nil {
			return fmt.Errorf("reading frame %d: %w", i, err)
		}
		if err := sink.WriteFrame(pixels); err != nil {
			return fmt.Errorf("writing frame %d: %w", i, err)
		}
		r.endFrame()
	}
	return nil
}
