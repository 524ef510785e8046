package yupee

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"slices"
	"sort"

	"github.com/pthm/yupee/lib/dom"
	"github.com/valyala/fasttemplate"
	"golang.org/x/net/html"
)

// EventHandler handles a native event on a component's container.
type EventHandler func(ev *dom.Event, c *Component) error

// AutoClick publishes the clicked component's id on EventYupID.
var AutoClick EventHandler = func(ev *dom.Event, c *Component) error {
	return c.Produce(EventYupID, c.ID())
}

// LoadParams are the parameters a component was loaded with.
type LoadParams struct {
	// Into is an existing element to use as the component container.
	Into *html.Node
	// Attrs are copied onto the container as attributes.
	Attrs map[string]string
}

// ComponentConfig configures a new component. Only ID is required.
type ComponentConfig struct {
	ID       string
	Params   LoadParams
	Model    *Model
	Renderer Renderer
	Template string
	// Container, when set, is used as the backing node instead of
	// Params.Into or a new detached div.
	Container *html.Node
}

// Component is one node of the component tree. It owns a container, may
// observe a model and owns its children: removing or cleaning a component
// tears its children down with it.
type Component struct {
	id        string
	reg       *Registry
	container *dom.Container
	model     *Model
	renderer  Renderer
	template  string

	parent    *Component
	children  map[string]*Component
	order     []*Component
	nextChild int
	removed   bool
}

func newComponent(r *Registry, cfg ComponentConfig) *Component {
	c := &Component{
		id:        cfg.ID,
		reg:       r,
		children:  make(map[string]*Component),
		nextChild: 1,
		template:  cfg.Template,
	}

	doc := r.Document()
	switch {
	case cfg.Container != nil:
		c.container = doc.Wrap(cfg.Container)
	case cfg.Params.Into != nil:
		c.container = doc.Wrap(cfg.Params.Into)
	default:
		c.container = doc.Wrap(doc.CreateElement("div"))
		if cfg.ID != "" {
			c.container.SetID(cfg.ID)
		}
	}
	for _, k := range sortedKeys(cfg.Params.Attrs) {
		c.container.SetAttr(k, cfg.Params.Attrs[k])
	}

	c.SetRenderer(cfg.Renderer)
	switch {
	case cfg.Model != nil:
		c.SetModel(cfg.Model)
	case r.HasModel():
		c.SetModel(r.Model())
	}
	c.Trace("created")
	return c
}

// ID returns the component identifier.
func (c *Component) ID() string {
	return c.id
}

// Registry returns the owning registry.
func (c *Component) Registry() *Registry {
	return c.reg
}

// Container returns the backing container.
func (c *Component) Container() *dom.Container {
	return c.container
}

// Parent returns the parent component, or nil for roots and removed components.
func (c *Component) Parent() *Component {
	return c.parent
}

// Child returns the child registered under id.
func (c *Component) Child(id string) (*Component, bool) {
	ch, ok := c.children[id]
	return ch, ok
}

// Children returns the children in insertion order.
func (c *Component) Children() []*Component {
	return slices.Clone(c.order)
}

// ChildAt returns the i-th child in insertion order, or nil when i is out
// of range.
func (c *Component) ChildAt(i int) *Component {
	if i < 0 || i >= len(c.order) {
		return nil
	}
	return c.order[i]
}

// ChildCount returns the number of children.
func (c *Component) ChildCount() int {
	return len(c.order)
}

// Removed reports whether Remove has been called.
func (c *Component) Removed() bool {
	return c.removed
}

// AddChild attaches a child component and returns it. It returns nil, after
// a trace, when the child's container cannot be resolved.
//
// The child id is, in order: the explicit WithID value, the container's
// id, its data-yupid/yupid attribute, and finally "child<n>" from a
// per-parent counter that starts at 1 and never reuses a value.
func (c *Component) AddChild(ch Child) *Component {
	if ch.kind == childComponent {
		if ch.component == nil {
			c.Trace("invalid child", "child", ch.String())
			return nil
		}
		c.setChild(ch.component)
		return ch.component
	}

	var n *html.Node
	switch ch.kind {
	case childMarkup:
		last := c.container.LastChild()
		if err := c.container.AppendHTML(ch.markup); err != nil {
			c.Trace("invalid child markup", "error", err)
			return nil
		}
		n = lastAppended(c.container.LastChild(), last)
	case childNode:
		n = ch.node
	case childSelector:
		if ch.selector != "" {
			n = c.container.Query(ch.selector)
		}
	}
	if n == nil {
		c.Trace("invalid child, no container", "child", ch.String())
		return nil
	}

	id := ch.id
	if id == "" {
		w := c.reg.Document().Wrap(n)
		if id = w.ID(); id == "" {
			id = w.Attr("yupid")
		}
	}
	if id == "" {
		id = fmt.Sprintf("child%d", c.nextChild)
		c.nextChild++
	}

	child := c.reg.Factory().NewComponent(c.reg, ComponentConfig{ID: id, Container: n})
	if ch.clickSet {
		child.Click(ch.click)
	}
	c.setChild(child)
	return child
}

// lastAppended walks back from tail to stop and returns the last element
// seen, or the tail itself when only text was appended.
func lastAppended(tail, stop *html.Node) *html.Node {
	for n := tail; n != nil && n != stop; n = n.PrevSibling {
		if n.Type == html.ElementNode {
			return n
		}
	}
	if tail == stop {
		return nil
	}
	return tail
}

// AddChildren adds a child for every element below the container matching
// selector. A non-nil click handler is wired on each of them.
func (c *Component) AddChildren(selector string, click EventHandler) []*Component {
	var out []*Component
	for _, n := range c.container.QueryAll(selector) {
		ch := ChildNode(n)
		if click != nil {
			ch = ch.OnClick(click)
		}
		if child := c.AddChild(ch); child != nil {
			out = append(out, child)
		}
	}
	return out
}

func (c *Component) setChild(child *Component) {
	if old, ok := c.children[child.id]; ok && old != child {
		c.forget(old)
	}
	if child.parent != nil && child.parent != c {
		child.parent.forget(child)
	}
	child.parent = c
	c.children[child.id] = child
	if !slices.Contains(c.order, child) {
		c.order = append(c.order, child)
	}
	if child.container.Parent() == nil {
		c.container.Append(child.container)
	}
}

func (c *Component) forget(child *Component) {
	if c.children[child.id] == child {
		delete(c.children, child.id)
	}
	if i := slices.Index(c.order, child); i >= 0 {
		c.order = slices.Delete(c.order, i, i+1)
	}
}

// Remove detaches the component from its model and its parent and takes
// its container out of the parent's container. When the container is a
// fragment, the nodes it handed to the parent are removed instead.
// Descendants stop observing their models too. Calling Remove again does
// nothing.
func (c *Component) Remove() {
	if c.removed {
		return
	}
	c.release()
	c.Trace("removed")

	p := c.parent
	c.parent = nil
	if p == nil {
		return
	}
	p.forget(c)
	if c.container.IsFragment() {
		p.container.RemoveAdopted(c.container)
	} else if c.container.IsChildOf(p.container) {
		p.container.Remove(c.container)
	}
}

func (c *Component) release() {
	c.removed = true
	if c.model != nil {
		c.model.detach(c)
	}
	for _, ch := range c.order {
		if !ch.removed {
			ch.release()
		}
	}
}

// Clean removes every child component and then every remaining node of
// the container.
func (c *Component) Clean() *Component {
	for len(c.order) > 0 {
		c.order[0].Remove()
	}
	c.container.Clear()
	return c
}

// Paint redraws the container.
//
// Repaint content (and the zero Content) runs the renderer when the
// component has both a model and a renderer, and does nothing otherwise.
// The other kinds clean the container and append the new content.
func (c *Component) Paint(ctx context.Context, content Content) error {
	if c.removed {
		return ErrRemoved
	}
	switch content.kind {
	case contentModel:
		return c.repaint(ctx, content.flags)
	case contentMarkup:
		return c.paintMarkup(content.markup)
	case contentNode:
		if content.node == nil {
			return ErrUnsupportedContent
		}
		c.Clean()
		c.container.AppendNode(content.node)
		return nil
	case contentValues:
		return c.paintMarkup(c.Template(content.values))
	case contentTempl:
		if content.templ == nil {
			return ErrUnsupportedContent
		}
		var buf bytes.Buffer
		if err := content.templ.Render(ctx, &buf); err != nil {
			return err
		}
		return c.paintMarkup(buf.String())
	}
	return ErrUnsupportedContent
}

func (c *Component) repaint(ctx context.Context, flags any) error {
	if c.model == nil {
		return nil
	}
	r := c.renderer
	if r == nil {
		r = c.reg.Config().Renderer
	}
	if r == nil {
		return nil
	}
	c.Clean()
	c.Trace("render", "flags", flags)
	return r.Render(ctx, RenderRequest{
		Component: c,
		Model:     c.model,
		Container: c.container,
		Template:  c.templateSource(),
		Flags:     flags,
	})
}

func (c *Component) paintMarkup(markup string) error {
	c.Clean()
	return c.container.AppendHTML(markup)
}

// Model returns the component's model, creating an empty one on first use.
func (c *Component) Model() *Model {
	if c.model == nil {
		c.SetModel(c.reg.Factory().NewModel(nil))
	}
	return c.model
}

// HasModel reports whether a model is attached.
func (c *Component) HasModel() bool {
	return c.model != nil
}

// SetModel attaches the component to m, detaching it from its previous model.
func (c *Component) SetModel(m *Model) *Component {
	if m == nil || m == c.model {
		return c
	}
	if c.model != nil {
		c.model.detach(c)
	}
	c.model = m
	if !c.removed {
		m.attach(c)
	}
	return c
}

// Renderer returns the component renderer, or nil.
func (c *Component) Renderer() Renderer {
	return c.renderer
}

// SetRenderer sets the renderer once. Later calls are ignored.
func (c *Component) SetRenderer(r Renderer) *Component {
	if c.renderer == nil && r != nil {
		c.renderer = r
	}
	return c
}

// PushData appends item to the model's "items" list, repainting when asked.
func (c *Component) PushData(ctx context.Context, item any, repaint bool) error {
	if repaint {
		return c.Model().PushAndUpdate(ctx, "items", item)
	}
	c.Model().Push("items", item)
	return nil
}

// Param returns the container attribute key (data-key first), or def.
func (c *Component) Param(key, def string) string {
	if v := c.container.Attr(key); v != "" {
		return v
	}
	return def
}

// SetParam sets an attribute unless it is already present. Empty names
// and values are ignored.
func (c *Component) SetParam(name, value string) *Component {
	if name == "" || value == "" || c.container.HasAttr(name) {
		return c
	}
	c.container.SetAttr(name, value)
	return c
}

// NewContainer rebinds the component to the first element in the document
// matching selector. With keepParams the old container's attributes are
// carried over where the new one does not set them. Nothing changes when
// no element matches.
func (c *Component) NewContainer(selector string, keepParams bool) *Component {
	n := c.reg.Document().Query(selector)
	if n == nil {
		c.Trace("no container", "selector", selector)
		return c
	}
	old := c.container.Attrs()
	c.container.SetNode(n)
	if keepParams {
		for _, a := range old {
			c.SetParam(a.Key, a.Val)
		}
	}
	return c
}

// Style merges CSS properties into the container style.
func (c *Component) Style(values map[string]string) *Component {
	c.container.Style(values)
	return c
}

// Show sets the CSS display property; an empty mode means "block".
func (c *Component) Show(mode string) *Component {
	if mode == "" {
		mode = "block"
	}
	return c.Style(map[string]string{"display": mode})
}

// Hide sets display to none.
func (c *Component) Hide() *Component {
	return c.Style(map[string]string{"display": "none"})
}

// Event registers h for native events of type name on the container.
func (c *Component) Event(name string, h EventHandler) *Component {
	c.container.On(name, func(ev *dom.Event) error {
		return h(ev, c)
	})
	return c
}

// Click registers a click handler. A nil handler installs AutoClick.
func (c *Component) Click(h EventHandler) *Component {
	if h == nil {
		h = AutoClick
	}
	return c.Event("click", h)
}

// Value returns the container's form value.
func (c *Component) Value() string {
	return c.container.Value()
}

// SetValue sets the container's form value.
func (c *Component) SetValue(v string) *Component {
	c.container.SetValue(v)
	return c
}

// Produce publishes value on the data channel name.
func (c *Component) Produce(name string, value any) error {
	c.Trace("produce", "channel", name)
	return c.reg.Fire(dataPrefix+name, value)
}

// Consume subscribes h to the data channel name.
func (c *Component) Consume(name string, h Handler) *Component {
	c.reg.Listen(dataPrefix+name, h)
	return c
}

// Select returns the first element below the container matching selector.
func (c *Component) Select(selector string) *html.Node {
	return c.container.Query(selector)
}

// SelectAll returns every element below the container matching selector.
func (c *Component) SelectAll(selector string) []*html.Node {
	return c.container.QueryAll(selector)
}

// Template resolves the component template with values. The template name
// comes from the data-template/template attribute, falling back to the
// component's configured template. Each {key} token is replaced by the
// value under key; missing and nil values become "". An unknown template
// resolves to "".
func (c *Component) Template(values map[string]any) string {
	src := c.templateSource()
	if src == "" {
		return ""
	}
	return resolveTemplate(src, values)
}

func (c *Component) templateSource() string {
	name := c.container.Attr("template")
	if name == "" {
		name = c.template
	}
	if name == "" {
		return ""
	}
	src, ok := c.reg.Template(name)
	if !ok {
		c.Trace("unknown template", "template", name)
		return ""
	}
	return src
}

var tokenRe = regexp.MustCompile(`^\w+$`)

func resolveTemplate(src string, values map[string]any) string {
	out, err := fasttemplate.ExecuteFuncStringWithErr(src, "{", "}", func(w io.Writer, tag string) (int, error) {
		if !tokenRe.MatchString(tag) {
			return io.WriteString(w, "{"+tag+"}")
		}
		v, ok := values[tag]
		if !ok || v == nil {
			return 0, nil
		}
		return fmt.Fprint(w, v)
	})
	if err != nil {
		// Unbalanced braces: nothing to substitute.
		return src
	}
	return out
}

// Bind wires the container's bound form fields to target. See Bind.
func (c *Component) Bind(target map[string]any, onChange func(map[string]any) error) {
	Bind(c.container, target, onChange)
}

// Trace logs msg at debug level tagged with the component id.
func (c *Component) Trace(msg string, args ...any) {
	c.reg.Logger().Debug(msg, append([]any{"component", c.id}, args...)...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
