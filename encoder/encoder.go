// Package encoder pipes rendered frames into an ffmpeg process.
package encoder

import (
	"errors"
	"fmt"
	"io"
	"log"
	"runtime"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Options describes the video to produce.
type Options struct {
	Output string
	// FFMPEGPath overrides the ffmpeg executable found on PATH.
	FFMPEGPath string
	Width      int
	Height     int
	FPS        int
}

// Encoder streams raw RGBA frames to ffmpeg over stdin.
type Encoder struct {
	writer    *io.PipeWriter
	done      chan error
	frameSize int
	frames    int64
}

// New starts ffmpeg. Frames are expected as RGBA8 rows, bottom row first, as
// OpenGL reads them back.
func New(opts Options) (*Encoder, error) {
	if opts.Width <= 0 || opts.Height <= 0 || opts.FPS <= 0 {
		return nil, fmt.Errorf("invalid encoder geometry %dx%d@%d", opts.Width, opts.Height, opts.FPS)
	}
	if opts.Output == "" {
		return nil, errors.New("encoder output file is required")
	}

	pipeReader, pipeWriter := io.Pipe()
	cmd := ffmpeg.Input("pipe:", inputArgs(opts)).
		Output(opts.Output, outputArgs(runtime.GOOS)).
		OverWriteOutput().WithInput(pipeReader).ErrorToStdOut()
	if opts.FFMPEGPath != "" {
		cmd = cmd.SetFfmpegPath(opts.FFMPEGPath)
	}

	e := &Encoder{
		writer:    pipeWriter,
		done:      make(chan error, 1),
		frameSize: opts.Width * opts.Height * 4,
	}
	go func() {
		err := cmd.Run()
		// unblock WriteFrame if ffmpeg went away early
		if err != nil {
			pipeReader.CloseWithError(err)
		} else {
			pipeReader.CloseWithError(io.ErrClosedPipe)
		}
		e.done <- err
	}()
	log.Printf("Recording %dx%d at %d fps to %s", opts.Width, opts.Height, opts.FPS, opts.Output)
	return e, nil
}

func inputArgs(opts Options) ffmpeg.KwArgs {
	return ffmpeg.KwArgs{
		"f":         "rawvideo",
		"pix_fmt":   "rgba",
		"s":         fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"framerate": opts.FPS,
	}
}

// outputArgs picks the platform's hardware encoder where one is commonly
// available, falling back to libx264.
func outputArgs(goos string) ffmpeg.KwArgs {
	args := ffmpeg.KwArgs{
		"vf":      "vflip",
		"pix_fmt": "yuv420p",
		"b:v":     "25M",
	}
	switch goos {
	case "darwin":
		args["c:v"] = "h264_videotoolbox"
	default:
		args["c:v"] = "libx264"
		args["preset"] = "fast"
	}
	return args
}

// WriteFrame sends one frame to ffmpeg.
func (e *Encoder) WriteFrame(pixels []byte) error {
	if len(pixels) != e.frameSize {
		return fmt.Errorf("frame has %d bytes, want %d", len(pixels), e.frameSize)
	}
	if _, err := e.writer.Write(pixels); err != nil {
		return fmt.Errorf("writing frame %d to ffmpeg: %w", e.frames, err)
	}
	e.frames++
	return nil
}

// Close ends the stream and waits for ffmpeg to finish.
func (e *Encoder) Close() error {
	e.writer.Close()
	if err := <-e.done; err != nil {
		return fmt.Errorf("ffmpeg failed: %w", err)
	}
	log.Printf("Encoded %d frames", e.frames)
	return nil
}
