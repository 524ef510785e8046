package dom

import "fmt"

// Position selects where InsertHTML places parsed markup relative to the
// container, mirroring insertAdjacentHTML.
type Position string

const (
	// BeforeBegin inserts before the container, as a previous sibling.
	BeforeBegin Position = "beforebegin"

	// AfterBegin prepends to the container's contents.
	AfterBegin Position = "afterbegin"

	// BeforeEnd appends to the container's contents. Used for traces and
	// list rows.
	BeforeEnd Position = "beforeend"

	// AfterEnd inserts after the container, as a next sibling.
	AfterEnd Position = "afterend"
)

// InsertHTML parses markup and inserts the nodes at pos. Sibling positions
// return ErrNoParent for a detached container.
func (c *Container) InsertHTML(pos Position, markup string) error {
	switch pos {
	case BeforeEnd:
		return c.AppendHTML(markup)
	case AfterBegin:
		nodes, err := c.parse(markup, c.node)
		if err != nil {
			return err
		}
		first := c.node.FirstChild
		for _, n := range nodes {
			if first == nil {
				c.node.AppendChild(n)
			} else {
				c.node.InsertBefore(n, first)
			}
		}
		return nil
	case BeforeBegin, AfterEnd:
		parent := c.node.Parent
		if parent == nil {
			return ErrNoParent
		}
		nodes, err := c.parse(markup, parent)
		if err != nil {
			return err
		}
		anchor := c.node
		if pos == AfterEnd {
			anchor = c.node.NextSibling
		}
		for _, n := range nodes {
			if anchor == nil {
				parent.AppendChild(n)
			} else {
				parent.InsertBefore(n, anchor)
			}
		}
		return nil
	default:
		return fmt.Errorf("dom: unknown position %q", pos)
	}
}
