package yupee

import (
	"github.com/a-h/templ"
	"golang.org/x/net/html"
)

// Content is what Component.Paint draws. The zero value repaints from the
// model with nil flags.
type Content struct {
	kind   contentKind
	flags  any
	markup string
	node   *html.Node
	values map[string]any
	templ  templ.Component
}

type contentKind int

const (
	contentModel contentKind = iota
	contentMarkup
	contentNode
	contentValues
	contentTempl
)

// Repaint asks the component's renderer to redraw from the model.
func Repaint(flags any) Content {
	return Content{kind: contentModel, flags: flags}
}

// HTML replaces the container's children with markup.
func HTML(markup string) Content {
	return Content{kind: contentMarkup, markup: markup}
}

// Node replaces the container's children with n.
func Node(n *html.Node) Content {
	return Content{kind: contentNode, node: n}
}

// Values resolves the component template with values and paints the result.
func Values(values map[string]any) Content {
	return Content{kind: contentValues, values: values}
}

// Templ renders a templ component and paints its markup.
func Templ(c templ.Component) Content {
	return Content{kind: contentTempl, templ: c}
}

// Child describes a component to attach with Component.AddChild.
//
//	c.AddChild(yupee.ChildHTML("<button>Save</button>").WithID("save").OnClick(nil))
//	c.AddChild(yupee.Selector("#total"))
//	c.AddChild(yupee.Adopt(other))
type Child struct {
	kind      childKind
	component *Component
	markup    string
	node      *html.Node
	selector  string
	id        string
	click     EventHandler
	clickSet  bool
}

type childKind int

const (
	childNone childKind = iota
	childComponent
	childMarkup
	childNode
	childSelector
)

// Adopt attaches an existing component under its own id.
func Adopt(c *Component) Child {
	return Child{kind: childComponent, component: c}
}

// ChildHTML appends markup to the parent container and wraps the last
// resulting node in a new component.
func ChildHTML(markup string) Child {
	return Child{kind: childMarkup, markup: markup}
}

// ChildNode wraps an existing node in a new component.
func ChildNode(n *html.Node) Child {
	return Child{kind: childNode, node: n}
}

// Selector wraps the first element below the parent matching selector.
func Selector(selector string) Child {
	return Child{kind: childSelector, selector: selector}
}

// WithID sets an explicit child id.
func (ch Child) WithID(id string) Child {
	ch.id = id
	return ch
}

// OnClick wires a click handler on the new child. A nil handler installs
// AutoClick.
func (ch Child) OnClick(h EventHandler) Child {
	ch.click = h
	ch.clickSet = true
	return ch
}

func (ch Child) String() string {
	switch ch.kind {
	case childComponent:
		if ch.component != nil {
			return "component " + ch.component.ID()
		}
		return "component <nil>"
	case childMarkup:
		return "html " + ch.markup
	case childNode:
		return "node"
	case childSelector:
		return "selector " + ch.selector
	}
	return "empty"
}
