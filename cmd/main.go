package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"runtime"

	encoder "github.com/richinsley/glook/encoder"
	gldevice "github.com/richinsley/glook/gldevice"
	glfwcontext "github.com/richinsley/glook/glfwcontext"
	graphics "github.com/richinsley/glook/graphics"
	headless "github.com/richinsley/glook/headless"
	options "github.com/richinsley/glook/options"
	renderer "github.com/richinsley/glook/renderer"
	shader "github.com/richinsley/glook/shader"
	telemetry "github.com/richinsley/glook/telemetry"
	watcher "github.com/richinsley/glook/watcher"
)

func runPipeline(opts *options.ShaderOptions, stages []string) error {
	record := opts.Mode == options.ModeRecord

	ctx, closeContext, err := newContext(opts, record)
	if err != nil {
		return err
	}
	defer closeContext()

	device, err := gldevice.New(ctx)
	if err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}
	defer device.Destroy()

	r, err := renderer.NewRenderer(ctx, device, opts)
	if err != nil {
		return err
	}
	defer r.Shutdown()

	if err := r.Load(stages); err != nil {
		return err
	}

	if opts.Stats.File != "" {
		out, err := telemetry.NewOutputManager(opts.Stats.File)
		if err != nil {
			return err
		}
		r.SetStats(telemetry.NewPerfCollector(opts.Stats.Window), out)
	}

	if record {
		width, height := r.Pipeline().Size()
		enc, err := encoder.New(encoder.Options{
			Output:     opts.Record.Output,
			FFMPEGPath: opts.Record.FFMPEG,
			Width:      width,
			Height:     height,
			FPS:        opts.Record.FPS,
		})
		if err != nil {
			return err
		}
		runErr := r.RunOffscreen(enc)
		closeErr := enc.Close()
		if err := errors.Join(runErr, closeErr); err != nil {
			return fmt.Errorf("offscreen rendering failed: %w", err)
		}
		log.Printf("Successfully rendered to %s", opts.Record.Output)
		return nil
	}

	if opts.Watch {
		w, err := watcher.New()
		if err != nil {
			log.Printf("Warning: hot reload disabled: %v", err)
		} else {
			defer w.Close()
			r.SetWatcher(w)
		}
	}
	log.Println("Starting interactive render loop...")
	r.Run()
	return nil
}

// newContext opens the GL context: an EGL pbuffer for headless recording, a
// GLFW window otherwise. The returned func releases it.
func newContext(opts *options.ShaderOptions, record bool) (graphics.Context, func(), error) {
	if record && opts.Record.Headless {
		ctx, err := headless.New(opts.Width, opts.Height)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create headless context: %w", err)
		}
		return ctx, ctx.Shutdown, nil
	}

	if err := glfwcontext.InitGraphics(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}
	// If recording, the window will be hidden
	ctx, err := glfwcontext.New(opts, !record)
	if err != nil {
		glfwcontext.TerminateGraphics()
		return nil, nil, fmt.Errorf("failed to create window: %w", err)
	}
	return ctx, func() {
		ctx.Shutdown()
		glfwcontext.TerminateGraphics()
	}, nil
}

func init() {
	runtime.LockOSThread()
}

func main() {
	opts, flags, err := options.Parse(os.Args[1:])
	if err != nil {
		log.Fatalf("Error parsing options: %v", err)
	}

	if flags.Help {
		fmt.Println("glook: live GLSL fragment shader pipeline previewer")
		fmt.Println("Usage: glook [flags] stage.glsl[:i,j] ...")
		options.Usage()
		return
	}

	if flags.Template {
		path := "template.glsl"
		if len(flags.Stages) > 0 {
			path = flags.Stages[0]
		}
		if err := shader.WriteTemplate(path); err != nil {
			log.Fatalf("Error writing template: %v", err)
		}
		log.Printf("Wrote %s", path)
		return
	}

	if err := opts.Validate(); err != nil {
		log.Fatalf("Invalid options: %v", err)
	}
	if len(flags.Stages) == 0 {
		log.Fatalf("No shader stages given; run with -help for usage")
	}

	if err := runPipeline(opts, flags.Stages); err != nil {
		if errors.Is(err, renderer.ErrNoStages) {
			log.Fatalf("No stage could be loaded")
		}
		log.Fatalf("%v", err)
	}
}
