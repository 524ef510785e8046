package yupee

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pthm/yupee/lib/dom"
)

var sealKey = []byte("0123456789abcdef0123456789abcdef")

func TestPagesCurrent(t *testing.T) {
	tests := []struct {
		name     string
		markup   string
		page     string
		location string
		want     string
	}{
		{"data attribute", `<body data-page="cart"></body>`, "", "", "cart"},
		{"plain attribute", `<body page="list"></body>`, "home", "", "list"},
		{"configured", `<body></body>`, "home", "", "home"},
		{"main page location", `<body></body>`, "", "checkout/main.html", "checkout"},
		{"file location", `<body></body>`, "", "pages/about.html", "about"},
		{"fallback", `<body></body>`, "", "", "index"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.page != "" {
				opts = append(opts, WithPage(tt.page))
			}
			r, _ := newTestRegistry(t, tt.markup, opts...)
			if tt.location != "" {
				r.Reset(r.Document(), tt.location)
			}
			if got := r.Pages().Current(); got != tt.want {
				t.Errorf("Current() = %q, want %q", got, tt.want)
			}
		})
	}
}

func testPageRoundTrip(t *testing.T, opts ...Option) string {
	t.Helper()
	ctx := context.Background()
	r, cat := newTestRegistry(t, `<body data-page="list"></body>`, opts...)
	cat.OnNavigate = func(ctx context.Context, r *Registry, location string) error {
		doc, err := dom.ParseString(`<body data-page="cart"></body>`)
		if err != nil {
			return err
		}
		r.Reset(doc, location)
		return r.Boot(ctx)
	}

	r.InitModel(map[string]any{"items": []any{"milk"}, "user": map[string]any{"name": "ana"}})
	if err := r.Pages().LoadPage(ctx, "cart", true); err != nil {
		t.Fatalf("LoadPage() error = %v", err)
	}
	if diff := cmp.Diff([]string{"cart/main.html"}, cat.Visited()); diff != "" {
		t.Errorf("navigation mismatch (-want +got):\n%s", diff)
	}
	if r.HasModel() {
		t.Fatal("app model survived navigation")
	}

	blob, err := cat.Read(ctx, "list")
	if err != nil {
		t.Fatalf("Read(list) error = %v", err)
	}

	// The next page saved nothing under its own name.
	if err := r.Pages().Init(ctx); err != nil {
		t.Fatalf("Init() on empty page error = %v", err)
	}
	if r.HasModel() {
		t.Error("Init() created a model with nothing saved")
	}

	if err := cat.Write(ctx, "cart", blob); err != nil {
		t.Fatal(err)
	}
	var log []string
	r.NewComponent(ComponentConfig{ID: "cart", Model: r.Model(), Renderer: paintLog(&log)})
	if err := r.Pages().Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	want := map[string]any{"items": []any{"milk"}, "user": map[string]any{"name": "ana"}}
	if diff := cmp.Diff(want, r.Model().Content()); diff != "" {
		t.Errorf("restored model mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"cart:<nil>"}, log); diff != "" {
		t.Errorf("repaints after Init mismatch (-want +got):\n%s", diff)
	}
	return blob
}

func TestPagesJSON(t *testing.T) {
	blob := testPageRoundTrip(t)
	if !strings.Contains(blob, `"milk"`) {
		t.Errorf("JSON snapshot = %q, want readable JSON", blob)
	}
}

func TestPagesSealed(t *testing.T) {
	for _, sensitive := range []bool{false, true} {
		blob := testPageRoundTrip(t, WithSealKey(sealKey, sensitive))
		if strings.HasPrefix(blob, "{") {
			t.Errorf("sealed snapshot (sensitive=%v) is plain JSON: %q", sensitive, blob)
		}
	}
}

func TestPagesTampered(t *testing.T) {
	ctx := context.Background()
	r, cat := newTestRegistry(t, `<body data-page="list"></body>`, WithSealKey(sealKey, false))
	if err := cat.Write(ctx, "list", "garbage.sig"); err != nil {
		t.Fatal(err)
	}
	err := r.Pages().Init(ctx)
	if !IsDecryptionError(err) && !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("Init(tampered) error = %v, want a snapshot error", err)
	}
}

func TestPagesSaveWithoutModel(t *testing.T) {
	ctx := context.Background()
	r, cat := newTestRegistry(t, `<body data-page="list"></body>`)
	if err := r.Pages().Save(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := cat.Read(ctx, "list"); !IsNotFound(err) {
		t.Errorf("Read() after Save without model error = %v, want not found", err)
	}
}
