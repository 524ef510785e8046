package yupee

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/pthm/yupee/lib/dom"
	"github.com/pthm/yupee/lib/store"
	"github.com/pthm/yupee/lib/yupfile"
)

// DefinitionFunc is an in-process component definition. It typically
// calls r.Start and configures the returned component.
type DefinitionFunc func(ctx context.Context, r *Registry) error

// Catalog is a Driver whose component definitions are Go functions.
//
//	cat := yupee.NewCatalog(store.NewMemory()).
//	    Define("yups/counter", counter.Define).
//	    Define("yups/total", total.Define)
type Catalog struct {
	mu    sync.RWMutex
	defs  map[string]DefinitionFunc
	store store.Store

	// OnNavigate is called by Navigate. Without it navigation only records
	// the location.
	OnNavigate func(ctx context.Context, r *Registry, location string) error

	loaded  []string
	visited []string
}

// NewCatalog returns an empty catalog keeping snapshots in st. A nil st
// uses an in-memory store.
func NewCatalog(st store.Store) *Catalog {
	if st == nil {
		st = store.NewMemory()
	}
	return &Catalog{defs: make(map[string]DefinitionFunc), store: st}
}

// Define registers fn for location. The extension of location, if any, is
// ignored when matching loads.
func (c *Catalog) Define(location string, fn DefinitionFunc) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defs[catalogKey(location)] = fn
	return c
}

func catalogKey(location string) string {
	return strings.TrimSuffix(location, path.Ext(path.Base(location)))
}

// LoadComponent runs the definition registered for location.
func (c *Catalog) LoadComponent(ctx context.Context, r *Registry, location string) error {
	c.mu.Lock()
	fn, ok := c.defs[catalogKey(location)]
	c.loaded = append(c.loaded, location)
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, location)
	}
	return fn(ctx, r)
}

// Navigate records location and calls OnNavigate.
func (c *Catalog) Navigate(ctx context.Context, r *Registry, location string) error {
	c.mu.Lock()
	c.visited = append(c.visited, location)
	hook := c.OnNavigate
	c.mu.Unlock()
	if hook != nil {
		return hook(ctx, r, location)
	}
	return nil
}

// Read implements Driver.
func (c *Catalog) Read(ctx context.Context, key string) (string, error) {
	v, err := c.store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("catalog read %s: %w", key, wrapLibError(err))
	}
	return v, nil
}

// Write implements Driver.
func (c *Catalog) Write(ctx context.Context, key, value string) error {
	return c.store.Put(ctx, key, value)
}

// Loaded returns the locations passed to LoadComponent, in order.
func (c *Catalog) Loaded() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.loaded...)
}

// Visited returns the locations passed to Navigate, in order.
func (c *Catalog) Visited() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.visited...)
}

// FSDriver is a Driver reading declarative component files (see package
// yupfile) and pages from a file system.
type FSDriver struct {
	FS    fs.FS
	Store store.Store
}

// NewFSDriver returns a driver over fsys keeping snapshots in st.
func NewFSDriver(fsys fs.FS, st store.Store) *FSDriver {
	if st == nil {
		st = store.NewMemory()
	}
	return &FSDriver{FS: fsys, Store: st}
}

// LoadComponent parses and runs the component file at location.
func (d *FSDriver) LoadComponent(ctx context.Context, r *Registry, location string) error {
	src, err := fs.ReadFile(d.FS, location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, location)
		}
		return err
	}
	def, err := yupfile.Parse(location, src, yupfile.Vars{
		ID:     r.CurrentID(),
		Params: r.CurrentParams().Attrs,
	})
	if err != nil {
		return err
	}
	return RunDefinition(ctx, r, def)
}

// Navigate parses the page at location, installs it as the registry
// document and boots it.
func (d *FSDriver) Navigate(ctx context.Context, r *Registry, location string) error {
	f, err := d.FS.Open(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, location)
		}
		return err
	}
	defer f.Close()

	doc, err := dom.Parse(f)
	if err != nil {
		return fmt.Errorf("yupee: parse page %s: %w", location, err)
	}
	r.Reset(doc, location)
	return r.Boot(ctx)
}

// Read implements Driver.
func (d *FSDriver) Read(ctx context.Context, key string) (string, error) {
	v, err := d.Store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, wrapLibError(err))
	}
	return v, nil
}

// Write implements Driver.
func (d *FSDriver) Write(ctx context.Context, key, value string) error {
	return d.Store.Put(ctx, key, value)
}
