// Package dom wraps golang.org/x/net/html trees with the small set of DOM
// operations yupee components need: attribute access, selector queries,
// markup insertion, styles, classes and a synchronous event dispatcher.
//
// Nothing here is safe for concurrent use. A Document and every Container
// built from it belong to the goroutine driving the component tree.
package dom

import (
	"bytes"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed HTML page together with its native event listeners.
type Document struct {
	root      *html.Node
	listeners map[*html.Node]map[string][]Listener
	logger    *slog.Logger
}

// Parse reads a full HTML page. The parser always produces html, head and
// body elements, even for empty input.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return newDocument(root), nil
}

// ParseString is Parse for in-memory markup.
func ParseString(markup string) (*Document, error) {
	return Parse(strings.NewReader(markup))
}

// NewDocument returns an empty page.
func NewDocument() *Document {
	doc, err := ParseString("<html><head></head><body></body></html>")
	if err != nil {
		// The input is a constant; html.Parse only fails on reader errors.
		panic("dom: " + err.Error())
	}
	return doc
}

func newDocument(root *html.Node) *Document {
	return &Document{
		root:      root,
		listeners: make(map[*html.Node]map[string][]Listener),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetLogger sets the logger used for trace messages such as invalid selectors.
func (d *Document) SetLogger(l *slog.Logger) {
	if l != nil {
		d.logger = l
	}
}

// Logger returns the document's trace logger.
func (d *Document) Logger() *slog.Logger {
	return d.logger
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Body returns the body element wrapped as a Container.
func (d *Document) Body() *Container {
	return d.Wrap(d.bodyNode())
}

func (d *Document) bodyNode() *html.Node {
	if n := findElement(d.root, atom.Body); n != nil {
		return n
	}
	// Documents built by html.Parse always have a body; this only guards
	// hand-built trees.
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	d.root.AppendChild(body)
	return body
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

// Wrap returns a Container for n bound to this document.
func (d *Document) Wrap(n *html.Node) *Container {
	return &Container{doc: d, node: n}
}

// CreateElement returns a detached element.
func (d *Document) CreateElement(tag string) *html.Node {
	tag = strings.ToLower(tag)
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
}

// CreateFragment returns a detached fragment node. Appending a fragment
// moves its children, leaving the fragment empty.
func (d *Document) CreateFragment() *html.Node {
	return &html.Node{Type: html.DocumentNode}
}

// Query returns the first element in the whole document matching selector.
func (d *Document) Query(selector string) *html.Node {
	return d.Wrap(d.root).Query(selector)
}

// QueryAll returns all elements in the whole document matching selector.
func (d *Document) QueryAll(selector string) []*html.Node {
	return d.Wrap(d.root).QueryAll(selector)
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the document, returning "" on failure.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}
