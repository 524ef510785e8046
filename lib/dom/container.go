package dom

import (
	"bytes"
	"errors"
	"slices"
	"sort"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNoParent is returned when an insertion position needs a parent the
// container does not have.
var ErrNoParent = errors.New("dom: container has no parent")

// Container is a proxy for one node of a Document. Components render into
// containers; this type is the only one touching the node tree directly.
type Container struct {
	doc  *Document
	node *html.Node

	// adopted holds the children a fragment container handed to its parent
	// when it was appended, so they can be spliced out again later.
	adopted []*html.Node
}

// Document returns the document the container belongs to.
func (c *Container) Document() *Document {
	return c.doc
}

// Node returns the wrapped node.
func (c *Container) Node() *html.Node {
	return c.node
}

// SetNode rebinds the container to another node.
func (c *Container) SetNode(n *html.Node) {
	if n != nil {
		c.node = n
		c.adopted = nil
	}
}

// IsFragment reports whether the container wraps a detached fragment.
func (c *Container) IsFragment() bool {
	return c.node.Type == html.DocumentNode && c.node != c.doc.root
}

// Adopted returns the nodes a fragment container moved into its parent.
func (c *Container) Adopted() []*html.Node {
	return c.adopted
}

// ID returns the id attribute.
func (c *Container) ID() string {
	v, _ := getAttr(c.node, "id")
	return v
}

// SetID sets the id attribute. An empty id is ignored.
func (c *Container) SetID(id string) {
	if id != "" {
		setAttr(c.node, "id", id)
	}
}

// Attr reads an attribute. For a plain key the data- namespaced attribute
// is consulted first, so Attr("yupid") finds data-yupid and yupid alike.
func (c *Container) Attr(key string) string {
	if !strings.HasPrefix(key, "data-") {
		if v, ok := getAttr(c.node, "data-"+key); ok && v != "" {
			return v
		}
	}
	v, _ := getAttr(c.node, key)
	return v
}

// SetAttr sets an attribute verbatim.
func (c *Container) SetAttr(key, value string) {
	setAttr(c.node, key, value)
}

// HasAttr reports whether key or data-key is present.
func (c *Container) HasAttr(key string) bool {
	if _, ok := getAttr(c.node, key); ok {
		return true
	}
	if strings.HasPrefix(key, "data-") {
		return false
	}
	_, ok := getAttr(c.node, "data-"+key)
	return ok
}

// RemoveAttr deletes an attribute.
func (c *Container) RemoveAttr(key string) {
	removeAttr(c.node, key)
}

// Attrs returns a copy of the node's attributes.
func (c *Container) Attrs() []html.Attribute {
	return slices.Clone(c.node.Attr)
}

// Parent returns the parent node, or nil.
func (c *Container) Parent() *html.Node {
	return c.node.Parent
}

// IsChildOf reports whether other's node is this container's parent.
func (c *Container) IsChildOf(other *Container) bool {
	return other != nil && c.node.Parent != nil && c.node.Parent == other.node
}

// LastChild returns the last child node, or nil.
func (c *Container) LastChild() *html.Node {
	return c.node.LastChild
}

// AppendNode appends n, moving it out of its current parent. A fragment's
// children are moved instead of the fragment itself.
func (c *Container) AppendNode(n *html.Node) {
	if n.Type == html.DocumentNode {
		moveChildren(n, c.node)
		return
	}
	detach(n)
	c.node.AppendChild(n)
}

// Append appends other's node. When other is a fragment, its children are
// moved and remembered on other so RemoveAdopted can take them back out.
func (c *Container) Append(other *Container) {
	if other.IsFragment() {
		other.adopted = append(other.adopted, moveChildren(other.node, c.node)...)
		return
	}
	c.AppendNode(other.node)
}

// AppendHTML parses markup in the context of this container and appends
// the resulting nodes at the end.
func (c *Container) AppendHTML(markup string) error {
	nodes, err := c.parse(markup, c.node)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		c.node.AppendChild(n)
	}
	return nil
}

// AppendText appends a text node.
func (c *Container) AppendText(text string) {
	c.node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// RemoveNode removes n when it is a direct child. It reports whether
// anything was removed.
func (c *Container) RemoveNode(n *html.Node) bool {
	if n == nil || n.Parent != c.node {
		return false
	}
	c.node.RemoveChild(n)
	return true
}

// Remove removes other's node when it is a direct child.
func (c *Container) Remove(other *Container) bool {
	return c.RemoveNode(other.node)
}

// RemoveAdopted splices out of c the nodes that the fragment container
// frag moved in. The fragment itself is untouched.
func (c *Container) RemoveAdopted(frag *Container) {
	for _, n := range frag.adopted {
		c.RemoveNode(n)
	}
	frag.adopted = nil
}

// Replace swaps oldChild for newChild. It reports false when oldChild is
// not a child of this container.
func (c *Container) Replace(newChild, oldChild *html.Node) bool {
	if oldChild == nil || oldChild.Parent != c.node {
		return false
	}
	detach(newChild)
	c.node.InsertBefore(newChild, oldChild)
	c.node.RemoveChild(oldChild)
	return true
}

// Clear removes every child node.
func (c *Container) Clear() {
	for c.node.FirstChild != nil {
		c.node.RemoveChild(c.node.FirstChild)
	}
}

// Query returns the first element below the container matching selector.
// A leading "/" searches the whole document. An invalid selector is logged
// and the document body is returned instead.
func (c *Container) Query(selector string) *html.Node {
	scope, sel, ok := c.compile(selector)
	if !ok {
		return c.doc.bodyNode()
	}
	for _, n := range sel.MatchAll(scope) {
		if n != scope {
			return n
		}
	}
	return nil
}

// QueryAll returns every element below the container matching selector,
// in document order. A leading "/" searches the whole document. An invalid
// selector is logged and yields no nodes.
func (c *Container) QueryAll(selector string) []*html.Node {
	scope, sel, ok := c.compile(selector)
	if !ok {
		return nil
	}
	var out []*html.Node
	for _, n := range sel.MatchAll(scope) {
		if n != scope {
			out = append(out, n)
		}
	}
	return out
}

func (c *Container) compile(selector string) (*html.Node, cascadia.Selector, bool) {
	scope := c.node
	if strings.HasPrefix(selector, "/") {
		scope = c.doc.root
		selector = selector[1:]
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		c.doc.logger.Warn("invalid selector, using document body", "selector", selector, "error", err)
		return nil, nil, false
	}
	return scope, sel, true
}

// Style merges CSS properties into the style attribute. Existing
// properties keep their position; new ones are appended in key order.
func (c *Container) Style(values map[string]string) *Container {
	current, _ := getAttr(c.node, "style")
	props := parseStyle(current)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		props = setStyleProp(props, k, values[k])
	}
	setAttr(c.node, "style", formatStyle(props))
	return c
}

// StyleProp returns one CSS property from the style attribute.
func (c *Container) StyleProp(name string) string {
	current, _ := getAttr(c.node, "style")
	for _, p := range parseStyle(current) {
		if p[0] == name {
			return p[1]
		}
	}
	return ""
}

// On attaches a native event listener.
func (c *Container) On(event string, l Listener) {
	c.doc.Listen(c.node, event, l)
}

// Dispatch fires ev at this container's node.
func (c *Container) Dispatch(ev *Event) error {
	return c.doc.Dispatch(c.node, ev)
}

// Value returns the value of a form-like node: the text of a textarea, the
// value of the selected option of a select, otherwise the value attribute.
// A select with no selected option reports its first option.
func (c *Container) Value() string {
	switch c.node.DataAtom {
	case atom.Textarea:
		return c.Text()
	case atom.Select:
		options := optionSel.MatchAll(c.node)
		for _, o := range options {
			if _, ok := getAttr(o, "selected"); ok {
				return optionValue(o)
			}
		}
		if len(options) > 0 {
			return optionValue(options[0])
		}
		return ""
	}
	v, _ := getAttr(c.node, "value")
	return v
}

// SetValue writes the value of a form-like node. On a select it moves the
// selected attribute to the first option whose value matches v; when none
// matches no option stays selected.
func (c *Container) SetValue(v string) {
	switch c.node.DataAtom {
	case atom.Textarea:
		c.Clear()
		c.AppendText(v)
		return
	case atom.Select:
		found := false
		for _, o := range optionSel.MatchAll(c.node) {
			removeAttr(o, "selected")
			if !found && optionValue(o) == v {
				setAttr(o, "selected", "")
				found = true
			}
		}
		return
	}
	setAttr(c.node, "value", v)
}

var optionSel = cascadia.MustCompile("option")

// optionValue is the value attribute of an option, else its text.
func optionValue(n *html.Node) string {
	if v, ok := getAttr(n, "value"); ok {
		return v
	}
	return strings.TrimSpace(textContent(n))
}

// Checked reports whether the checked attribute is present.
func (c *Container) Checked() bool {
	_, ok := getAttr(c.node, "checked")
	return ok
}

// SetChecked adds or removes the checked attribute.
func (c *Container) SetChecked(on bool) {
	if on {
		setAttr(c.node, "checked", "")
		return
	}
	c.RemoveAttr("checked")
}

// HasClass reports whether the class list contains name.
func (c *Container) HasClass(name string) bool {
	return slices.Contains(c.classes(), name)
}

// AddClass adds name to the class list if missing.
func (c *Container) AddClass(name string) *Container {
	classes := c.classes()
	if !slices.Contains(classes, name) {
		setAttr(c.node, "class", strings.Join(append(classes, name), " "))
	}
	return c
}

// RemoveClass removes name from the class list.
func (c *Container) RemoveClass(name string) *Container {
	classes := slices.DeleteFunc(c.classes(), func(s string) bool { return s == name })
	setAttr(c.node, "class", strings.Join(classes, " "))
	return c
}

func (c *Container) classes() []string {
	v, _ := getAttr(c.node, "class")
	return strings.Fields(v)
}

// Text returns the concatenated text content.
func (c *Container) Text() string {
	return textContent(c.node)
}

func textContent(node *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(node)
	return sb.String()
}

// InnerHTML renders the children of the container.
func (c *Container) InnerHTML() string {
	var buf bytes.Buffer
	for ch := c.node.FirstChild; ch != nil; ch = ch.NextSibling {
		if err := html.Render(&buf, ch); err != nil {
			return buf.String()
		}
	}
	return buf.String()
}

// OuterHTML renders the container node itself.
func (c *Container) OuterHTML() string {
	var buf bytes.Buffer
	if err := html.Render(&buf, c.node); err != nil {
		return ""
	}
	return buf.String()
}

func (c *Container) parse(markup string, context *html.Node) ([]*html.Node, error) {
	if context == nil || context.Type != html.ElementNode {
		context = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	}
	return html.ParseFragment(strings.NewReader(markup), context)
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

func moveChildren(from, to *html.Node) []*html.Node {
	var moved []*html.Node
	for from.FirstChild != nil {
		ch := from.FirstChild
		from.RemoveChild(ch)
		to.AppendChild(ch)
		moved = append(moved, ch)
	}
	return moved
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func removeAttr(n *html.Node, key string) {
	n.Attr = slices.DeleteFunc(n.Attr, func(a html.Attribute) bool {
		return a.Namespace == "" && a.Key == key
	})
}

func setAttr(n *html.Node, key, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

func parseStyle(s string) [][2]string {
	var props [][2]string
	for _, decl := range strings.Split(s, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		props = append(props, [2]string{name, strings.TrimSpace(value)})
	}
	return props
}

func setStyleProp(props [][2]string, name, value string) [][2]string {
	for i, p := range props {
		if p[0] == name {
			if value == "" {
				return append(props[:i], props[i+1:]...)
			}
			props[i][1] = value
			return props
		}
	}
	if value == "" {
		return props
	}
	return append(props, [2]string{name, value})
}

func formatStyle(props [][2]string) string {
	parts := make([]string, len(props))
	for i, p := range props {
		parts[i] = p[0] + ": " + p[1]
	}
	return strings.Join(parts, "; ")
}
