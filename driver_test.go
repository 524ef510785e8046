package yupee

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/pthm/yupee/lib/dom"
	"github.com/pthm/yupee/lib/store"
)

var webFS = fstest.MapFS{
	"yups/notes.yup": {Data: []byte(`
model    = "sub:notes"
template = "note"
style    = { display = "block" }
data     = { title = "untitled", count = 0 }
paint    = "<h2>${params.heading}</h2><div class='btn'>a</div><div class='btn' id='b'>b</div>"

child "save" {
  html  = "<button>Save</button>"
  click = "auto"
}

child "heading" {
  selector = "h2"
  style    = { color = "red" }
}

children {
  selector = "div.btn"
  click    = "note:pick"
}

produce "opened" {
  value = id
}

load "yups/footer" {
  params = { heading = "Footer" }
}
`)},
	"yups/footer.yup": {Data: []byte(`
container   = "#footer"
keep_params = true
paint       = "<p>${params.heading}</p>"
`)},
	"yups/broken.yup": {Data: []byte(`paint = `)},
	"yups/hello.yup":  {Data: []byte(`paint = "<p>hi ${id}</p>"`)},
	"next/main.html":  {Data: []byte(`<html><body data-page="next"><div data-yup id="hello"></div></body></html>`)},
}

func newFSRegistry(t *testing.T, markup string) (*Registry, *FSDriver) {
	t.Helper()
	doc, err := dom.ParseString(markup)
	if err != nil {
		t.Fatal(err)
	}
	d := NewFSDriver(webFS, store.NewMemory())
	return New(doc, WithDriver(d)), d
}

func TestFSDriverRunsDefinition(t *testing.T) {
	ctx := context.Background()
	r, _ := newFSRegistry(t, `<body><div id="app"></div><footer id="footer"></footer></body>`)
	r.InitModel(map[string]any{"notes": map[string]any{"title": "groceries"}})

	var opened, picked, clicked []any
	r.Listen("data:opened", func(args ...any) error {
		opened = append(opened, args...)
		return nil
	})
	r.Listen("note:pick", func(args ...any) error {
		picked = append(picked, args...)
		return nil
	})
	r.Listen("data:"+EventYupID, func(args ...any) error {
		clicked = append(clicked, args...)
		return nil
	})
	if err := r.Boot(ctx); err != nil {
		t.Fatal(err)
	}

	if err := r.Load(ctx, "yups/notes", LoadParams{
		Into:  r.Document().Query("#app"),
		Attrs: map[string]string{"heading": "Shopping"},
	}); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	notes := r.Model().Sub("notes").Observers()[0]

	if notes.ID() != "notes" {
		t.Errorf("ID() = %q, want notes", notes.ID())
	}
	if got := notes.Container().StyleProp("display"); got != "block" {
		t.Errorf("display = %q, want block", got)
	}
	sub := r.Model().Sub("notes")
	if v, _ := sub.Get("title"); v != "groceries" {
		t.Errorf("data overwrote existing title: %v", v)
	}
	if v, ok := sub.Get("count"); !ok || v != 0.0 {
		t.Errorf("data did not seed count: %v, %v", v, ok)
	}

	var ids []string
	for _, c := range notes.Children() {
		ids = append(ids, c.ID())
	}
	if diff := cmp.Diff([]string{"save", "heading", "child1", "b"}, ids); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
	heading, _ := notes.Child("heading")
	if got := heading.Container().Text(); got != "Shopping" {
		t.Errorf("heading text = %q, want Shopping", got)
	}
	if got := heading.Container().StyleProp("color"); got != "red" {
		t.Errorf("heading color = %q, want red", got)
	}

	save, _ := notes.Child("save")
	if err := save.Container().Dispatch(&dom.Event{Type: "click"}); err != nil {
		t.Fatal(err)
	}
	b, _ := notes.Child("b")
	if err := b.Container().Dispatch(&dom.Event{Type: "click"}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]any{"save"}, clicked); diff != "" {
		t.Errorf("auto click mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"b"}, picked); diff != "" {
		t.Errorf("group click mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"notes"}, opened); diff != "" {
		t.Errorf("produce mismatch (-want +got):\n%s", diff)
	}

	footer := r.Document().Wrap(r.Document().Query("#footer"))
	if got := footer.InnerHTML(); got != "<p>Footer</p>" {
		t.Errorf("footer HTML = %q, want <p>Footer</p>", got)
	}
	if got := footer.Attr("heading"); got != "Footer" {
		t.Errorf("footer kept param heading = %q, want Footer", got)
	}
}

func TestFSDriverErrors(t *testing.T) {
	ctx := context.Background()
	r, _ := newFSRegistry(t, "<body></body>")
	if err := r.Boot(ctx); err != nil {
		t.Fatal(err)
	}

	if err := r.Load(ctx, "yups/missing", LoadParams{}); !IsNotFound(err) || !IsLoadError(err) {
		t.Errorf("Load(missing) error = %v, want not-found load error", err)
	}
	if err := r.Load(ctx, "yups/broken", LoadParams{}); err == nil || IsNotFound(err) {
		t.Errorf("Load(broken) error = %v, want parse error", err)
	}
}

func TestFSDriverNavigate(t *testing.T) {
	ctx := context.Background()
	r, d := newFSRegistry(t, `<body data-page="home"></body>`)
	r.InitModel(map[string]any{"notes": map[string]any{"title": "kept"}})
	if err := r.Boot(ctx); err != nil {
		t.Fatal(err)
	}

	if err := r.Pages().LoadPage(ctx, "next", true); err != nil {
		t.Fatalf("LoadPage() error = %v", err)
	}
	if r.Location() != "next/main.html" {
		t.Errorf("Location() = %q, want next/main.html", r.Location())
	}
	if r.Pages().Current() != "next" {
		t.Errorf("Current() = %q, want next", r.Pages().Current())
	}
	// The new page booted and loaded its declarative component.
	if got := r.Document().Wrap(r.Document().Query("#hello")).Text(); got != "hi hello" {
		t.Errorf("hello text = %q, want hi hello", got)
	}
	if _, err := d.Read(ctx, "home"); err != nil {
		t.Errorf("Read(home) error = %v, want saved snapshot", err)
	}

	if err := d.Navigate(ctx, r, "missing/main.html"); !IsNotFound(err) {
		t.Errorf("Navigate(missing) error = %v, want not found", err)
	}
}

func TestCatalogDefine(t *testing.T) {
	ctx := context.Background()
	cat := NewCatalog(nil)
	called := 0
	cat.Define("yups/a.yup", func(context.Context, *Registry) error {
		called++
		return nil
	})
	if err := cat.LoadComponent(ctx, nil, "yups/a.yup"); err != nil {
		t.Fatal(err)
	}
	if err := cat.LoadComponent(ctx, nil, "yups/a.hcl"); err != nil {
		t.Fatal(err)
	}
	if called != 2 {
		t.Errorf("definition called %d times, want 2", called)
	}
	if err := cat.LoadComponent(ctx, nil, "yups/b.yup"); !IsNotFound(err) {
		t.Errorf("LoadComponent(undefined) error = %v, want not found", err)
	}
}
