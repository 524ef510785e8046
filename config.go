package yupee

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pthm/yupee/lib/store"
	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"
)

// DefaultExtension is appended to load locations without an extension.
const DefaultExtension = ".yup"

// TraceMode selects where debug trace output goes.
type TraceMode int

const (
	// TraceConsole logs to Config.TraceOutput, stderr by default.
	TraceConsole TraceMode = iota
	// TraceBody appends each trace line to the document body.
	TraceBody
)

// Config holds registry settings. Build it with options passed to New.
type Config struct {
	Debug       bool
	Trace       TraceMode
	TraceOutput io.Writer
	// Logger overrides Debug, Trace and TraceOutput.
	Logger *slog.Logger

	Driver   Driver
	Factory  Factory
	Renderer Renderer
	Dialogs  Dialogs

	Templates map[string]string
	// PathResolver maps a declarative element to its load path. An empty
	// result falls back to the built-in resolution.
	PathResolver func(n *html.Node) string
	Extension    string
	// Page names the current page when the document does not.
	Page string

	SealKey       []byte
	SealSensitive bool
}

// Option configures a registry.
type Option func(*Config)

// WithDebug enables trace output to the given destination.
func WithDebug(mode TraceMode) Option {
	return func(c *Config) {
		c.Debug = true
		c.Trace = mode
	}
}

// WithTraceOutput sets the writer used by console tracing.
func WithTraceOutput(w io.Writer) Option {
	return func(c *Config) {
		c.TraceOutput = w
	}
}

// WithLogger sets the logger used for all trace output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithDriver sets the resource driver.
func WithDriver(d Driver) Option {
	return func(c *Config) {
		c.Driver = d
	}
}

// WithFactory sets the component and model factory.
func WithFactory(f Factory) Option {
	return func(c *Config) {
		c.Factory = f
	}
}

// WithRenderer sets the renderer used by components without their own.
func WithRenderer(r Renderer) Option {
	return func(c *Config) {
		c.Renderer = r
	}
}

// WithDialogs sets the dialog implementation.
func WithDialogs(d Dialogs) Option {
	return func(c *Config) {
		c.Dialogs = d
	}
}

// WithTemplates adds named templates.
func WithTemplates(templates map[string]string) Option {
	return func(c *Config) {
		if c.Templates == nil {
			c.Templates = make(map[string]string, len(templates))
		}
		for k, v := range templates {
			c.Templates[k] = v
		}
	}
}

// WithTemplate adds one named template.
func WithTemplate(name, markup string) Option {
	return WithTemplates(map[string]string{name: markup})
}

// WithPathResolver sets the declarative path resolver used by Boot.
func WithPathResolver(fn func(n *html.Node) string) Option {
	return func(c *Config) {
		c.PathResolver = fn
	}
}

// WithExtension sets the extension appended to bare load locations.
func WithExtension(ext string) Option {
	return func(c *Config) {
		c.Extension = ext
	}
}

// WithPage sets the fallback page name.
func WithPage(page string) Option {
	return func(c *Config) {
		c.Page = page
	}
}

// WithSealKey seals page snapshots with key instead of storing plain JSON.
// Sensitive snapshots are encrypted rather than only signed.
func WithSealKey(key []byte, sensitive bool) Option {
	return func(c *Config) {
		c.SealKey = key
		c.SealSensitive = sensitive
	}
}

// FileConfig is the on-disk YAML configuration.
//
//	debug: true
//	trace: console
//	components: ./web
//	store: ./pages.db
//	templates:
//	  note: "<li>{text}</li>"
type FileConfig struct {
	Debug      bool              `yaml:"debug"`
	Trace      string            `yaml:"trace"`
	Extension  string            `yaml:"extension"`
	Components string            `yaml:"components"`
	Store      string            `yaml:"store"`
	Page       string            `yaml:"page"`
	SealKey    string            `yaml:"seal_key"`
	Sensitive  bool              `yaml:"sensitive"`
	Templates  map[string]string `yaml:"templates"`

	dir string
}

// LoadConfig reads a YAML configuration file. Relative paths in it are
// resolved against the file's directory.
func LoadConfig(path string) (*FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("yupee: read config: %w", err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return nil, fmt.Errorf("yupee: parse config %s: %w", path, err)
	}
	switch fc.Trace {
	case "", "console", "body":
	default:
		return nil, fmt.Errorf("yupee: config %s: unknown trace mode %q", path, fc.Trace)
	}
	fc.dir = filepath.Dir(path)
	return &fc, nil
}

// Options converts the file configuration into registry options. The
// returned closer releases the snapshot store and must be closed once the
// registry is no longer used.
func (fc *FileConfig) Options() ([]Option, io.Closer, error) {
	var opts []Option
	if fc.Debug {
		mode := TraceConsole
		if fc.Trace == "body" {
			mode = TraceBody
		}
		opts = append(opts, WithDebug(mode))
	}
	if fc.Extension != "" {
		opts = append(opts, WithExtension(fc.Extension))
	}
	if fc.Page != "" {
		opts = append(opts, WithPage(fc.Page))
	}
	if fc.SealKey != "" {
		opts = append(opts, WithSealKey([]byte(fc.SealKey), fc.Sensitive))
	}
	if len(fc.Templates) > 0 {
		opts = append(opts, WithTemplates(fc.Templates))
	}

	var st store.Store = store.NewMemory()
	if fc.Store != "" {
		bolt, err := store.OpenBolt(fc.resolve(fc.Store))
		if err != nil {
			return nil, nil, fmt.Errorf("yupee: open store: %w", err)
		}
		st = bolt
	}
	components := fc.Components
	if components == "" {
		components = "."
	}
	opts = append(opts, WithDriver(NewFSDriver(os.DirFS(fc.resolve(components)), st)))
	return opts, st, nil
}

func (fc *FileConfig) resolve(p string) string {
	if filepath.IsAbs(p) || fc.dir == "" {
		return p
	}
	return filepath.Join(fc.dir, p)
}
