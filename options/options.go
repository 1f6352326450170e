// Package options holds the previewer configuration: embedded defaults, an
// optional YAML file and command-line flags, applied in that order.
package options

import (
	_ "embed"
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

const (
	ModeInteractive = "interactive"
	ModeRecord      = "record"

	// MaxInputsLimit is the number of iChannel samplers.
	MaxInputsLimit = 4
)

type ShaderOptions struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	X          int    `yaml:"x"`
	Y          int    `yaml:"y"`
	Title      string `yaml:"title"`
	Fullscreen bool   `yaml:"fullscreen"`
	Mode       string `yaml:"mode"`

	Chain     bool   `yaml:"chain"`
	Common    string `yaml:"common"`
	MaxStages int    `yaml:"max_stages"`
	MaxInputs int    `yaml:"max_inputs"`
	Watch     bool   `yaml:"watch"`

	Record RecordOptions `yaml:"record"`
	Stats  StatsOptions  `yaml:"stats"`
}

type RecordOptions struct {
	Output   string  `yaml:"output"`
	Duration float64 `yaml:"duration"`
	FPS      int     `yaml:"fps"`
	FFMPEG   string  `yaml:"ffmpeg"`
	// Headless renders through EGL without opening a window (Linux only).
	Headless bool `yaml:"headless"`
}

type StatsOptions struct {
	File   string `yaml:"file"`
	Window int    `yaml:"window"`
}

// Defaults returns the embedded default configuration.
func Defaults() (*ShaderOptions, error) {
	o := &ShaderOptions{}
	if err := yaml.Unmarshal(defaultsYAML, o); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	return o, nil
}

// Load reads a YAML configuration file on top of the defaults.
func Load(path string) (*ShaderOptions, error) {
	o, err := Defaults()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return o, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, o); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return o, nil
}

// Flags carries the command-line switches that are not configuration.
type Flags struct {
	Config string
	// Template asks for a starter shader to be written; the first stage
	// argument, if any, names the file.
	Template bool
	Help     bool
	// Stages are the positional stage arguments, each "path[:i,j...]".
	Stages []string
}

// Parse builds the options from args (without the program name). Flags set
// explicitly on the command line win over the config file.
func Parse(args []string) (*ShaderOptions, *Flags, error) {
	o, err := Defaults()
	if err != nil {
		return nil, nil, err
	}
	f := &Flags{}
	fs := flag.NewFlagSet("glook", flag.ContinueOnError)
	bind(fs, o)
	fs.StringVar(&f.Config, "config", "", "YAML configuration file")
	fs.BoolVar(&f.Template, "template", false, "Write a starter shader (template.glsl or the given path) and exit")
	fs.BoolVar(&f.Help, "help", false, "Show help message")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	f.Stages = fs.Args()

	if f.Config != "" {
		fromFile, err := Load(f.Config)
		if err != nil {
			return nil, nil, err
		}
		overlay := flag.NewFlagSet("glook", flag.ContinueOnError)
		bind(overlay, fromFile)
		var setErr error
		fs.Visit(func(fl *flag.Flag) {
			if overlay.Lookup(fl.Name) == nil || setErr != nil {
				return
			}
			setErr = overlay.Set(fl.Name, fl.Value.String())
		})
		if setErr != nil {
			return nil, nil, setErr
		}
		o = fromFile
	}
	return o, f, nil
}

// Usage prints the flag defaults to stderr.
func Usage() {
	o, _ := Defaults()
	fs := flag.NewFlagSet("glook", flag.ContinueOnError)
	bind(fs, o)
	fs.String("config", "", "YAML configuration file")
	fs.Bool("template", false, "Write a starter shader (template.glsl or the given path) and exit")
	fs.Bool("help", false, "Show help message")
	fs.PrintDefaults()
}

func bind(fs *flag.FlagSet, o *ShaderOptions) {
	fs.IntVar(&o.Width, "width", o.Width, "Width of the window and render targets")
	fs.IntVar(&o.Height, "height", o.Height, "Height of the window and render targets")
	fs.IntVar(&o.X, "x", o.X, "Window x position")
	fs.IntVar(&o.Y, "y", o.Y, "Window y position")
	fs.StringVar(&o.Title, "title", o.Title, "Window title")
	fs.BoolVar(&o.Fullscreen, "fullscreen", o.Fullscreen, "Open the window fullscreen on the primary monitor")
	fs.StringVar(&o.Mode, "mode", o.Mode, "interactive or record")
	fs.BoolVar(&o.Chain, "chain", o.Chain, "Stages without explicit inputs read only the previous stage")
	fs.StringVar(&o.Common, "common", o.Common, "GLSL file included in the header of every stage")
	fs.IntVar(&o.MaxStages, "max-stages", o.MaxStages, "Maximum number of pipeline stages")
	fs.IntVar(&o.MaxInputs, "max-inputs", o.MaxInputs, "Maximum number of inputs per stage (at most 4)")
	fs.BoolVar(&o.Watch, "watch", o.Watch, "Reload stages when their files change")
	fs.StringVar(&o.Record.Output, "output", o.Record.Output, "Output file name for recording")
	fs.Float64Var(&o.Record.Duration, "duration", o.Record.Duration, "Duration to record in seconds")
	fs.IntVar(&o.Record.FPS, "fps", o.Record.FPS, "Frames per second for recording")
	fs.StringVar(&o.Record.FFMPEG, "ffmpeg", o.Record.FFMPEG, "Path to ffmpeg executable")
	fs.BoolVar(&o.Record.Headless, "headless", o.Record.Headless, "Record without a display using EGL (Linux only)")
	fs.StringVar(&o.Stats.File, "stats", o.Stats.File, "Write per-stage frame timings to this CSV file")
	fs.IntVar(&o.Stats.Window, "stats-window", o.Stats.Window, "Frames per timing sample")
}

// Validate checks the options for values the renderer cannot work with.
func (o *ShaderOptions) Validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("invalid size %dx%d", o.Width, o.Height)
	}
	if o.Mode != ModeInteractive && o.Mode != ModeRecord {
		return fmt.Errorf("unknown mode %q", o.Mode)
	}
	if o.MaxStages < 1 {
		return fmt.Errorf("max_stages must be at least 1, got %d", o.MaxStages)
	}
	if o.MaxInputs < 0 || o.MaxInputs > MaxInputsLimit {
		return fmt.Errorf("max_inputs must be within [0,%d], got %d", MaxInputsLimit, o.MaxInputs)
	}
	if o.Mode == ModeRecord {
		if o.Record.FPS <= 0 {
			return fmt.Errorf("record fps must be positive, got %d", o.Record.FPS)
		}
		if o.Record.Duration <= 0 {
			return fmt.Errorf("record duration must be positive, got %g", o.Record.Duration)
		}
		if o.Record.Output == "" {
			return fmt.Errorf("record output file is required")
		}
	}
	if o.Stats.File != "" && o.Stats.Window < 1 {
		return fmt.Errorf("stats window must be at least 1, got %d", o.Stats.Window)
	}
	return nil
}
