package yupee

import (
	"bytes"
	"context"

	"github.com/a-h/templ"
	"github.com/pthm/yupee/lib/dom"
)

// RenderRequest is what a Renderer receives on each model-driven repaint.
//
// The container has already been cleaned when Render is called; the
// renderer appends whatever the component should now show. Template is the
// raw template markup configured for the component (unresolved), so
// renderers can substitute it once per item.
type RenderRequest struct {
	Component *Component
	Model     *Model
	Container *dom.Container
	Template  string
	// Flags is the opaque hint passed to Model.Update, often the key
	// that changed.
	Flags any
}

// Renderer is implemented by anything that paints a component from its model.
//
// Example:
//
//	yupee.RendererFunc(func(ctx context.Context, req yupee.RenderRequest) error {
//	    n, _ := req.Model.Get("count")
//	    return req.Container.AppendHTML(fmt.Sprintf("<b>%v</b>", n))
//	})
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) error
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, req RenderRequest) error

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, req RenderRequest) error {
	return f(ctx, req)
}

// TemplRenderer returns a Renderer that renders the templ component built
// by fn and appends its markup to the request container.
func TemplRenderer(fn func(ctx context.Context, req RenderRequest) templ.Component) Renderer {
	return RendererFunc(func(ctx context.Context, req RenderRequest) error {
		var buf bytes.Buffer
		if err := fn(ctx, req).Render(ctx, &buf); err != nil {
			return err
		}
		return req.Container.AppendHTML(buf.String())
	})
}

// Driver is the environment a registry runs in: where component
// definitions come from, how whole-page navigation happens and where page
// snapshots are kept.
//
// LoadComponent must run the definition at location synchronously, which
// normally ends in a call to Registry.Start. Read returns an error wrapping
// ErrNotFound when key has never been written.
type Driver interface {
	LoadComponent(ctx context.Context, r *Registry, location string) error
	Navigate(ctx context.Context, r *Registry, location string) error
	Read(ctx context.Context, key string) (string, error)
	Write(ctx context.Context, key, value string) error
}

// Dialogs shows blocking user-facing messages.
type Dialogs interface {
	Alert(ctx context.Context, message string) error
	Confirm(ctx context.Context, message string) (bool, error)
	Prompt(ctx context.Context, message, def string) (string, error)
}

// Factory creates the components and models a registry hands out. Replace
// it with WithFactory to decorate every component an application creates.
type Factory interface {
	NewComponent(r *Registry, cfg ComponentConfig) *Component
	NewModel(content map[string]any) *Model
}

// DefaultFactory builds plain components and models.
type DefaultFactory struct{}

// NewComponent implements Factory.
func (DefaultFactory) NewComponent(r *Registry, cfg ComponentConfig) *Component {
	return newComponent(r, cfg)
}

// NewModel implements Factory.
func (DefaultFactory) NewModel(content map[string]any) *Model {
	return NewModel(content)
}
