package yupee

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/pthm/yupee/lib/dom"
	"github.com/pthm/yupee/lib/store"
)

// Registry loads component definitions one at a time and owns everything
// they share: the document, the event bus, the application model and a
// scratch data map.
//
// Loads are processed strictly in FIFO order. Loads requested while a
// definition is running are appended to the queue and run after it, so a
// definition can load its own dependencies. When the queue runs dry,
// EventReady is fired once.
type Registry struct {
	cfg     Config
	logger  *slog.Logger
	factory Factory
	driver  Driver
	dialogs Dialogs
	pages   *Pages

	mu        sync.Mutex
	doc       *dom.Document
	location  string
	bus       *Bus
	queue     []loadEntry
	pending   []loadEntry
	loading   bool
	booted    bool
	currentID string
	params    LoadParams
	exitCode  int
	exited    bool
	autoID    int
	appModel  *Model
	data      map[string]any
}

type loadEntry struct {
	location string
	params   LoadParams
}

// New creates a registry over doc.
//
// Without WithDriver, components are read from the working directory and
// page snapshots are kept in memory.
func New(doc *dom.Document, opts ...Option) *Registry {
	if doc == nil {
		panic("yupee: New called with a nil document")
	}
	cfg := Config{Extension: DefaultExtension}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Extension == "" {
		cfg.Extension = DefaultExtension
	}

	r := &Registry{
		cfg:  cfg,
		doc:  doc,
		data: make(map[string]any),
	}
	r.logger = newLogger(&r.cfg, r.Document)
	doc.SetLogger(r.logger)
	r.bus = NewBus(r.logger)

	r.factory = cfg.Factory
	if r.factory == nil {
		r.factory = DefaultFactory{}
	}
	r.driver = cfg.Driver
	if r.driver == nil {
		r.driver = NewFSDriver(os.DirFS("."), store.NewMemory())
	}
	r.dialogs = cfg.Dialogs
	if r.dialogs == nil {
		r.dialogs = LogDialogs{Logger: r.logger}
	}
	r.pages = &Pages{r: r}
	return r
}

// Load queues the component definition at location.
//
// Before Boot, loads are held back and released by Boot. Otherwise, when
// no load is running, the queue is drained in the calling goroutine and
// Load returns once it is empty. When a load is already running (Load was
// called from a definition, a handler or another goroutine), the request
// is only appended.
//
// A failing load is critical: it is traced, shown through Dialogs.Alert,
// the registry exits with code 1, and the returned error wraps
// ErrLoadFailed.
func (r *Registry) Load(ctx context.Context, location string, params LoadParams) error {
	return r.enqueue(ctx, loadEntry{location: location, params: params})
}

// LoadAll queues every location before draining, so EventReady fires once
// after all of them.
func (r *Registry) LoadAll(ctx context.Context, locations ...string) error {
	entries := make([]loadEntry, 0, len(locations))
	for _, loc := range locations {
		entries = append(entries, loadEntry{location: loc})
	}
	return r.enqueue(ctx, entries...)
}

func (r *Registry) enqueue(ctx context.Context, entries ...loadEntry) error {
	r.mu.Lock()
	if !r.booted {
		r.pending = append(r.pending, entries...)
		r.mu.Unlock()
		for _, e := range entries {
			r.logger.Debug("load held until boot", "location", e.location)
		}
		return nil
	}
	r.queue = append(r.queue, entries...)
	if r.loading || len(r.queue) == 0 {
		r.mu.Unlock()
		return nil
	}
	r.loading = true
	r.exited = false
	r.mu.Unlock()
	return r.drain(ctx)
}

func (r *Registry) drain(ctx context.Context) error {
	returned := false
	defer func() {
		if returned {
			return
		}
		// A definition panicked. Drop the queue so later loads drain again.
		r.mu.Lock()
		r.loading = false
		r.queue = nil
		r.mu.Unlock()
	}()
	err := r.drainQueue(ctx)
	returned = true
	return err
}

func (r *Registry) drainQueue(ctx context.Context) error {
	for {
		r.mu.Lock()
		if !r.loading {
			// Exit was called by a definition.
			r.mu.Unlock()
			return nil
		}
		if len(r.queue) == 0 {
			r.loading = false
			r.mu.Unlock()
			r.logger.Debug("load queue empty")
			return r.Fire(EventReady)
		}
		e := r.queue[0]
		r.queue = r.queue[1:]
		r.currentID = idFromLocation(e.location, r.cfg.Extension)
		r.params = e.params
		r.mu.Unlock()

		loc := r.normalize(e.location)
		if err := ctx.Err(); err != nil {
			r.Exit(1)
			return fmt.Errorf("%w: %s: %w", ErrLoadFailed, loc, err)
		}
		r.logger.Debug("load", "location", loc, "id", r.CurrentID())
		if err := r.driver.LoadComponent(ctx, r, loc); err != nil {
			r.logger.Error("load failed", "location", loc, "error", err)
			if aerr := r.dialogs.Alert(ctx, "critical error (load yup): "+loc); aerr != nil {
				r.logger.Error("alert failed", "error", aerr)
			}
			r.Exit(1)
			return fmt.Errorf("%w: %s: %w", ErrLoadFailed, loc, err)
		}
	}
}

// normalize appends the configured extension when the last path segment
// has none.
func (r *Registry) normalize(location string) string {
	if path.Ext(path.Base(location)) == "" {
		return location + r.cfg.Extension
	}
	return location
}

// idFromLocation returns the last path segment without ext.
func idFromLocation(location, ext string) string {
	id := location
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	return strings.TrimSuffix(id, ext)
}

// Start creates the component for the definition being loaded. The id and
// load parameters of the current load replace those in cfg.
func (r *Registry) Start(cfg ComponentConfig) *Component {
	r.mu.Lock()
	cfg.ID = r.currentID
	cfg.Params = r.params
	r.mu.Unlock()
	return r.factory.NewComponent(r, cfg)
}

// NewComponent creates a component through the registry factory.
func (r *Registry) NewComponent(cfg ComponentConfig) *Component {
	return r.factory.NewComponent(r, cfg)
}

// CurrentID returns the id derived for the load in progress.
func (r *Registry) CurrentID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentID
}

// CurrentParams returns the parameters of the load in progress.
func (r *Registry) CurrentParams() LoadParams {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.params
}

// Exit stops loading: queued loads are dropped and EventReady is not
// fired for the interrupted drain.
func (r *Registry) Exit(code int) {
	r.mu.Lock()
	r.queue = nil
	r.loading = false
	r.exited = true
	r.exitCode = code
	r.mu.Unlock()
	r.logger.Debug("exit", "code", code)
}

// ExitCode returns the code of the last Exit, and whether Exit was called
// since loading last started.
func (r *Registry) ExitCode() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exitCode, r.exited
}

// Loading reports whether a drain is in progress.
func (r *Registry) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading
}

// Listen subscribes h to a bus event.
func (r *Registry) Listen(event string, h Handler) {
	r.Bus().Listen(event, h)
}

// Fire publishes a bus event.
func (r *Registry) Fire(event string, args ...any) error {
	return r.Bus().Fire(event, args...)
}

// Ready subscribes handlers to EventReady.
func (r *Registry) Ready(handlers ...Handler) {
	for _, h := range handlers {
		r.Listen(EventReady, h)
	}
}

// Bus returns the event bus.
func (r *Registry) Bus() *Bus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bus
}

// Data returns a shared scratch value.
func (r *Registry) Data(key string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.data[key]
	return v, ok
}

// SetData stores a shared scratch value.
func (r *Registry) SetData(key string, value any) {
	r.mu.Lock()
	r.data[key] = value
	r.mu.Unlock()
}

// Model returns the application model, creating it on first use.
func (r *Registry) Model() *Model {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appModel == nil {
		r.appModel = r.factory.NewModel(nil)
	}
	return r.appModel
}

// HasModel reports whether the application model exists. Components
// created while it exists observe it unless given their own model.
func (r *Registry) HasModel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.appModel != nil
}

// InitModel sets the application model content, creating the model when
// needed. Existing observers are kept.
func (r *Registry) InitModel(content map[string]any) *Model {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appModel == nil {
		r.appModel = r.factory.NewModel(content)
	} else {
		r.appModel.Replace(content)
	}
	return r.appModel
}

// Update repaints the application model observers, if there is a model.
func (r *Registry) Update(ctx context.Context, flags any) error {
	if !r.HasModel() {
		return nil
	}
	return r.Model().Update(ctx, flags, true)
}

// Template returns a named template.
func (r *Registry) Template(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.cfg.Templates[name]
	return t, ok
}

// SetTemplate adds or replaces a named template.
func (r *Registry) SetTemplate(name, markup string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cfg.Templates == nil {
		r.cfg.Templates = make(map[string]string)
	}
	r.cfg.Templates[name] = markup
}

// Document returns the current document.
func (r *Registry) Document() *dom.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc
}

// Location returns the location of the current document, if known.
func (r *Registry) Location() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.location
}

// Reset replaces the document as a page navigation does: the queue, bus
// handlers, application model and data are dropped and loads are held
// until the next Boot.
func (r *Registry) Reset(doc *dom.Document, location string) {
	if doc == nil {
		panic("yupee: Reset called with a nil document")
	}
	doc.SetLogger(r.logger)
	r.mu.Lock()
	r.doc = doc
	r.location = location
	r.bus = NewBus(r.logger)
	r.queue = nil
	r.pending = nil
	r.loading = false
	r.booted = false
	r.appModel = nil
	r.data = make(map[string]any)
	r.autoID = 0
	r.mu.Unlock()
	r.logger.Debug("document reset", "location", location)
}

// Logger returns the trace logger.
func (r *Registry) Logger() *slog.Logger {
	return r.logger
}

// Config returns a copy of the configuration.
func (r *Registry) Config() Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

// Factory returns the component and model factory.
func (r *Registry) Factory() Factory {
	return r.factory
}

// Driver returns the resource driver.
func (r *Registry) Driver() Driver {
	return r.driver
}

// Dialogs returns the dialog implementation.
func (r *Registry) Dialogs() Dialogs {
	return r.dialogs
}

// Pages returns the page persistence helper.
func (r *Registry) Pages() *Pages {
	return r.pages
}

var (
	defaultMu  sync.Mutex
	defaultReg *Registry
)

// Default returns the process-wide registry, creating one over an empty
// document on first use.
func Default() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultReg == nil {
		defaultReg = New(dom.NewDocument())
	}
	return defaultReg
}

// SetDefault replaces the process-wide registry.
func SetDefault(r *Registry) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultReg = r
}
