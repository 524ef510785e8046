package yupee

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/pthm/yupee/lib/dom"
)

// newLogger builds the trace logger described by cfg. doc returns the
// document body traces are written to in TraceBody mode.
func newLogger(cfg *Config, doc func() *dom.Document) *slog.Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	if !cfg.Debug {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Trace == TraceBody {
		return slog.New(&bodyHandler{doc: doc, mu: new(sync.Mutex)})
	}

	w := cfg.TraceOutput
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// bodyHandler appends every record to the document body as
//
//	<div class="yuptrace">** [msg] ** key=value,...</div>
type bodyHandler struct {
	doc    func() *dom.Document
	mu     *sync.Mutex
	parts  []string
	prefix string
}

func (h *bodyHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *bodyHandler) Handle(_ context.Context, rec slog.Record) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "** [%s] **", rec.Message)

	parts := append([]string(nil), h.parts...)
	rec.Attrs(func(a slog.Attr) bool {
		parts = appendAttr(parts, h.prefix, a)
		return true
	})
	if len(parts) > 0 {
		sb.WriteString(" ")
		sb.WriteString(strings.Join(parts, ","))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	body := h.doc().Body()
	return body.InsertHTML(dom.BeforeEnd, `<div class="yuptrace">`+html.EscapeString(sb.String())+`</div>`)
}

// WithAttrs qualifies attrs with the groups opened so far. Groups opened
// later do not apply to them.
func (h *bodyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.parts = append([]string(nil), h.parts...)
	for _, a := range attrs {
		nh.parts = appendAttr(nh.parts, h.prefix, a)
	}
	return &nh
}

func (h *bodyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	nh.prefix = h.prefix + name + "."
	return &nh
}

// appendAttr renders a as key=value, flattening group values into dotted
// keys and dropping empty attributes.
func appendAttr(parts []string, prefix string, a slog.Attr) []string {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return parts
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			parts = appendAttr(parts, prefix, ga)
		}
		return parts
	}
	return append(parts, prefix+a.Key+"="+a.Value.String())
}
