package renderer

import (
	"fmt"
	"log"
	"time"

	"github.com/richinsley/glook/graphics"
	options "github.com/richinsley/glook/options"
	"github.com/richinsley/glook/telemetry"
)

// FileWatcher reports changed source files by the path they were added with.
type FileWatcher interface {
	Add(path string) error
	Changes() <-chan string
}

// Renderer is the application context: it owns the pipeline and drives it
// from the window's frame loop. Input callbacks only queue actions; queued
// actions and file changes are applied between frames.
type Renderer struct {
	context  graphics.Context
	device   graphics.Device
	pipeline *Pipeline
	clock    *Clock
	options  *options.ShaderOptions

	pending []func()
	watcher FileWatcher

	perf   *telemetry.PerfCollector
	output *telemetry.OutputManager

	frameCount int32
	// dirty requests one frame while paused so edits stay visible.
	dirty bool
	now   func() time.Time
}

// NewRenderer builds the renderer and its empty pipeline. Targets follow the
// window framebuffer in interactive mode and the configured size when recording.
func NewRenderer(ctx graphics.Context, device graphics.Device, opts *options.ShaderOptions) (*Renderer, error) {
	width, height := opts.Width, opts.Height
	if opts.Mode != options.ModeRecord {
		width, height = ctx.GetFramebufferSize()
	}
	pipeline, err := NewPipeline(device, PipelineConfig{
		Width:      width,
		Height:     height,
		Chain:      opts.Chain,
		CommonPath: opts.Common,
		MaxStages:  opts.MaxStages,
		MaxInputs:  opts.MaxInputs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	r := &Renderer{
		context:  ctx,
		device:   device,
		pipeline: pipeline,
		clock:    NewClock(ctx.Time),
		options:  opts,
		now:      time.Now,
	}
	r.registerControls()
	return r, nil
}

func (r *Renderer) Pipeline() *Pipeline { return r.pipeline }

func (r *Renderer) Clock() *Clock { return r.clock }

// Frame returns the index of the next frame to render.
func (r *Renderer) Frame() int32 { return r.frameCount }

// Load pushes every stage argument in order. Stages that fail are logged and
// skipped; ErrNoStages is returned when none could be loaded.
func (r *Renderer) Load(args []string) error {
	for _, arg := range args {
		if _, err := r.pipeline.Push(arg); err != nil {
			log.Printf("Failed to load stage %s: %v", arg, err)
		}
	}
	if r.pipeline.Len() == 0 {
		return ErrNoStages
	}
	return nil
}

// SetStats enables timing collection; out may be nil to only collect.
func (r *Renderer) SetStats(perf *telemetry.PerfCollector, out *telemetry.OutputManager) {
	r.perf = perf
	r.output = out
	if perf == nil {
		r.pipeline.SetPhaseTimer(nil)
		return
	}
	r.pipeline.SetPhaseTimer(perf)
}

// SetWatcher registers every current source with w and reloads stages when
// w reports changes.
func (r *Renderer) SetWatcher(w FileWatcher) {
	r.watcher = w
	if r.options.Common != "" {
		r.watch(r.options.Common)
	}
	for i := 0; i < r.pipeline.Len(); i++ {
		r.watch(r.pipeline.Stage(i).Path)
	}
}

func (r *Renderer) watch(path string) {
	if r.watcher == nil {
		return
	}
	if err := r.watcher.Add(path); err != nil {
		log.Printf("Warning: not watching %s: %v", path, err)
	}
}

func (r *Renderer) registerControls() {
	r.context.OnKey(graphics.KeyEscape, func() { r.context.SetShouldClose(true) })
	r.context.OnKey(graphics.KeyR, func() { r.enqueue(r.ReloadAll) })
	r.context.OnKey(graphics.KeyT, func() { r.enqueue(r.ResetTime) })
	r.context.OnKey(graphics.KeySpace, func() { r.enqueue(r.TogglePause) })
	r.context.OnKey(graphics.KeyBackspace, func() { r.enqueue(r.PopStage) })
	for k := graphics.Key1; k <= graphics.Key9; k++ {
		index := k.Digit()
		r.context.OnKey(k, func() { r.enqueue(func() { r.SelectHead(index) }) })
	}
	r.context.OnDrop(func(paths []string) {
		for _, path := range paths {
			path := path
			r.enqueue(func() { r.AppendStage(path) })
		}
	})
}

func (r *Renderer) enqueue(f func()) {
	r.pending = append(r.pending, f)
}

// ReloadAll recompiles every stage and restarts the clock if all succeeded.
func (r *Renderer) ReloadAll() {
	r.dirty = true
	if err := r.pipeline.ReloadAll(); err != nil {
		log.Printf("Reload failed, keeping previous programs:\n%v", err)
		return
	}
	r.ResetTime()
}

// ResetTime sets iTime and iFrame back to zero.
func (r *Renderer) ResetTime() {
	r.clock.Reset()
	r.frameCount = 0
	r.dirty = true
	log.Println("Time reset")
}

func (r *Renderer) TogglePause() {
	if r.clock.TogglePause() {
		log.Println("Paused")
	} else {
		log.Println("Resumed")
	}
}

// SelectHead presents the stage at index.
func (r *Renderer) SelectHead(index int) {
	if err := r.pipeline.SetHead(index); err != nil {
		log.Printf("Cannot select stage: %v", err)
		return
	}
	r.dirty = true
	log.Printf("Presenting stage %d: %s", index, r.pipeline.Stage(index).Path)
}

// PopStage removes the last stage.
func (r *Renderer) PopStage() {
	if err := r.pipeline.Pop(); err != nil {
		log.Printf("Cannot remove stage: %v", err)
		return
	}
	r.dirty = true
}

// AppendStage adds path as a new last stage using the default wiring.
func (r *Renderer) AppendStage(path string) {
	if _, err := r.pipeline.PushStage(path, nil, false); err != nil {
		log.Printf("Failed to load stage %s: %v", path, err)
		return
	}
	r.watch(path)
	r.dirty = true
}

// fileChanged reloads whatever depends on path.
func (r *Renderer) fileChanged(path string) {
	r.dirty = true
	if r.pipeline.IsCommonPath(path) {
		log.Printf("Common file %s changed, reloading all stages", path)
		if err := r.pipeline.ReloadAll(); err != nil {
			log.Printf("Reload failed, keeping previous programs:\n%v", err)
		}
		return
	}
	if _, err := r.pipeline.ReloadPath(path); err != nil {
		log.Printf("Reload of %s failed, keeping previous program:\n%v", path, err)
	}
}

// applyPending runs queued actions and coalesced file changes.
func (r *Renderer) applyPending() {
	actions := r.pending
	r.pending = nil
	for _, f := range actions {
		f()
	}

	if r.watcher == nil {
		return
	}
	for _, path := range drainChanges(r.watcher.Changes()) {
		r.fileChanged(path)
	}
}

// drainChanges empties ch without blocking, dropping repeated paths.
func drainChanges(ch <-chan string) []string {
	seen := make(map[string]bool)
	var paths []string
	for {
		select {
		case path := <-ch:
			if !seen[path] {
				seen[path] = true
				paths = append(paths, path)
			}
		default:
			return paths
		}
	}
}

// Step applies pending changes, renders one frame and presents it.
func (r *Renderer) Step() {
	r.applyPending()

	t, dt := r.clock.Tick()
	if r.clock.Paused() && !r.dirty {
		r.present(false)
		return
	}
	r.dirty = false

	if r.perf != nil {
		r.perf.StartTick()
	}
	r.pipeline.RenderFrame(FrameState{
		Frame:     r.frameCount,
		Time:      t,
		TimeDelta: dt,
		Mouse:     r.context.GetMouseInput(),
		Date:      r.now(),
	})
	r.present(true)
	r.endFrame()
}

func (r *Renderer) present(timed bool) {
	if timed && r.perf != nil {
		r.perf.StartPhase(telemetry.PhasePresent)
	}
	width, height := r.context.GetFramebufferSize()
	r.device.Present(r.pipeline.Output(), width, height)
}

// endFrame records timings and advances the frame counter.
func (r *Renderer) endFrame() {
	r.frameCount++
	if r.perf == nil {
		return
	}
	r.perf.EndTick()
	if r.output != nil && r.frameCount%int32(r.perf.WindowSize()) == 0 {
		if err := r.output.WritePerf(r.perf.Stats(), r.frameCount); err != nil {
			log.Printf("Warning: %v", err)
		}
	}
}

// Run is the interactive loop; it returns when the window is closed.
func (r *Renderer) Run() {
	for !r.context.ShouldClose() {
		r.Step()
		r.context.EndFrame()
	}
}

// Shutdown releases the pipeline and flushes telemetry.
func (r *Renderer) Shutdown() {
	r.pipeline.Destroy()
	if err := r.output.Close(); err != nil {
		log.Printf("Warning: closing stats output: %v", err)
	}
	r.output = nil
}
