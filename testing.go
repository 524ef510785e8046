package yupee

import (
	"context"
	"strings"

	"github.com/pthm/yupee/lib/dom"
	"github.com/pthm/yupee/lib/store"
)

// TestResult holds the output of painting or booting for assertions.
type TestResult struct {
	// HTML is the painted component's inner HTML, or the body's inner HTML
	// for TestBoot.
	HTML string
	// Document is the whole rendered document.
	Document string
	// Flashes are the toasts present in the document.
	Flashes []Flash
}

// NewTestRegistry parses markup and returns a registry driven by an
// in-memory Catalog. Define components on the catalog, then call Boot or
// TestBoot.
//
//	r, cat, err := yupee.NewTestRegistry(`<body><div id="app"></div></body>`)
//	cat.Define("yups/app", func(ctx context.Context, r *yupee.Registry) error {
//	    r.Start(yupee.ComponentConfig{}).Paint(ctx, yupee.HTML("<p>hi</p>"))
//	    return nil
//	})
func NewTestRegistry(markup string, opts ...Option) (*Registry, *Catalog, error) {
	doc, err := dom.ParseString(markup)
	if err != nil {
		return nil, nil, err
	}
	cat := NewCatalog(store.NewMemory())
	r := New(doc, append([]Option{WithDriver(cat)}, opts...)...)
	return r, cat, nil
}

// TestRender paints c with content and returns testable output.
//
//	result, err := yupee.TestRender(ctx, c, yupee.Values(map[string]any{"text": "milk"}))
//	if !result.HTMLContains("milk") {
//	    t.Fatal("missing item")
//	}
func TestRender(ctx context.Context, c *Component, content Content) (*TestResult, error) {
	if err := c.Paint(ctx, content); err != nil {
		return nil, err
	}
	return newTestResult(c.Registry().Document(), c.Container()), nil
}

// TestBoot boots r and returns the resulting body.
func TestBoot(ctx context.Context, r *Registry) (*TestResult, error) {
	if err := r.Boot(ctx); err != nil {
		return nil, err
	}
	doc := r.Document()
	return newTestResult(doc, doc.Body()), nil
}

func newTestResult(doc *dom.Document, c *dom.Container) *TestResult {
	return &TestResult{
		HTML:     c.InnerHTML(),
		Document: doc.String(),
		Flashes:  flashesIn(doc),
	}
}

// HTMLContains reports whether HTML contains substr.
func (r *TestResult) HTMLContains(substr string) bool {
	return strings.Contains(r.HTML, substr)
}

// HTMLContainsAll reports whether HTML contains every substring.
func (r *TestResult) HTMLContainsAll(substrs ...string) bool {
	for _, s := range substrs {
		if !strings.Contains(r.HTML, s) {
			return false
		}
	}
	return true
}

// HasFlash reports whether a toast with level and message is shown.
func (r *TestResult) HasFlash(level, message string) bool {
	for _, f := range r.Flashes {
		if f.Level == level && f.Message == message {
			return true
		}
	}
	return false
}

// HasFlashLevel reports whether any toast with level is shown.
func (r *TestResult) HasFlashLevel(level string) bool {
	for _, f := range r.Flashes {
		if f.Level == level {
			return true
		}
	}
	return false
}

// flashesIn extracts toasts rendered by RenderFlashes:
// <div class="toast toast-success" ...>message</div>
func flashesIn(doc *dom.Document) []Flash {
	var flashes []Flash
	for _, n := range doc.QueryAll("div.toast") {
		c := doc.Wrap(n)
		for _, class := range strings.Fields(c.Attr("class")) {
			if level, ok := strings.CutPrefix(class, "toast-"); ok {
				flashes = append(flashes, Flash{Level: level, Message: c.Text()})
				break
			}
		}
	}
	return flashes
}
