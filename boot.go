package yupee

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// DefaultBase is the path prefix of declarative components when no
// ancestor declares a yupbase.
const DefaultBase = "yups/"

// Boot marks the document ready. Every element carrying a data-yup or yup
// attribute is loaded into itself, in document order, followed by the
// loads requested before Boot. All of them are queued before the drain
// starts, so EventReady fires once for the whole batch.
//
// An element's load path is resolved in order by the configured
// PathResolver, by the value of its yup attribute, and finally by its
// identifier (id, or data-yupid/yupid, or a generated "yup<n>") under the
// nearest yupbase declared on it or its ancestors.
func (r *Registry) Boot(ctx context.Context) error {
	r.mu.Lock()
	if r.booted {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	var entries []loadEntry
	for _, n := range r.Document().QueryAll("[data-yup], [yup]") {
		entries = append(entries, loadEntry{location: r.resolvePath(n), params: LoadParams{Into: n}})
	}

	r.mu.Lock()
	r.booted = true
	entries = append(entries, r.pending...)
	r.pending = nil
	r.mu.Unlock()

	r.logger.Debug("boot", "loads", len(entries))
	if len(entries) == 0 {
		return r.Fire(EventReady)
	}
	return r.enqueue(ctx, entries...)
}

func (r *Registry) resolvePath(n *html.Node) string {
	if fn := r.Config().PathResolver; fn != nil {
		if p := fn(n); p != "" {
			return p
		}
	}
	w := r.Document().Wrap(n)
	if p := w.Attr("yup"); p != "" {
		return p
	}

	id := w.ID()
	if id == "" {
		id = w.Attr("yupid")
	}
	if id == "" {
		r.mu.Lock()
		r.autoID++
		id = fmt.Sprintf("yup%d", r.autoID)
		r.mu.Unlock()
	}
	return yupBase(r, n) + id
}

// yupBase joins the yupbase attributes of n and its ancestors, outermost
// first. Without any, DefaultBase is used.
func yupBase(r *Registry, n *html.Node) string {
	doc := r.Document()
	var parts []string
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		if b := doc.Wrap(cur).Attr("yupbase"); b != "" {
			parts = append(parts, strings.TrimSuffix(b, "/")+"/")
		}
	}
	if len(parts) == 0 {
		return DefaultBase
	}
	var sb strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		sb.WriteString(parts[i])
	}
	return sb.String()
}
