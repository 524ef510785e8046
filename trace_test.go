package yupee

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/pthm/yupee/lib/dom"
)

func TestTraceBody(t *testing.T) {
	r := New(dom.NewDocument(), WithDebug(TraceBody), WithDriver(NewCatalog(nil)))

	r.Logger().Debug("hello", "k", "v")
	r.Logger().With("component", "menu").WithGroup("req").Info("paint", "n", 1)

	body := r.Document().Body().InnerHTML()
	for _, want := range []string{
		`<div class="yuptrace">** [hello] ** k=v</div>`,
		`<div class="yuptrace">** [paint] ** component=menu,req.n=1</div>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestTraceBodyGroups(t *testing.T) {
	tests := []struct {
		name string
		log  func(*slog.Logger)
		want string
	}{
		{
			name: "attrs before group stay unqualified",
			log: func(l *slog.Logger) {
				l.With("a", 1).WithGroup("g").With("b", 2).Info("m", "c", 3)
			},
			want: "** [m] ** a=1,g.b=2,g.c=3",
		},
		{
			name: "nested groups",
			log: func(l *slog.Logger) {
				l.WithGroup("g").WithGroup("h").Info("m", "x", "y")
			},
			want: "** [m] ** g.h.x=y",
		},
		{
			name: "group value",
			log: func(l *slog.Logger) {
				l.Info("m", slog.Group("load", "id", "menu", "n", 2))
			},
			want: "** [m] ** load.id=menu,load.n=2",
		},
		{
			name: "empty group name",
			log: func(l *slog.Logger) {
				l.WithGroup("").Info("m", "k", "v")
			},
			want: "** [m] ** k=v",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(dom.NewDocument(), WithDebug(TraceBody), WithDriver(NewCatalog(nil)))
			tt.log(r.Logger())
			if got := r.Document().Body().Text(); got != tt.want {
				t.Errorf("trace = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTraceBodyFollowsReset(t *testing.T) {
	r := New(dom.NewDocument(), WithDebug(TraceBody), WithDriver(NewCatalog(nil)))
	next := dom.NewDocument()
	r.Reset(next, "next/main.html")

	r.Logger().Debug("after")
	if !strings.Contains(next.Body().InnerHTML(), "** [after] **") {
		t.Error("trace not written to the new document")
	}
}

func TestTraceConsole(t *testing.T) {
	var buf bytes.Buffer
	r := New(dom.NewDocument(), WithDebug(TraceConsole), WithTraceOutput(&buf), WithDriver(NewCatalog(nil)))

	r.Logger().Debug("hello", "k", "v")
	// Not a terminal: JSON lines.
	if !strings.Contains(buf.String(), `"msg":"hello"`) || !strings.Contains(buf.String(), `"k":"v"`) {
		t.Errorf("console trace = %q, want JSON record", buf.String())
	}
}

func TestTraceDisabled(t *testing.T) {
	var buf bytes.Buffer
	r := New(dom.NewDocument(), WithTraceOutput(&buf), WithDriver(NewCatalog(nil)))
	r.Logger().Error("hidden")
	if buf.Len() != 0 {
		t.Errorf("trace written with debug off: %q", buf.String())
	}
	if strings.Contains(r.Document().String(), "yuptrace") {
		t.Error("trace written to the body with debug off")
	}
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := New(dom.NewDocument(), WithLogger(logger), WithDebug(TraceBody), WithDriver(NewCatalog(nil)))

	if r.Logger() != logger {
		t.Fatal("Logger() is not the configured logger")
	}
	c := r.NewComponent(ComponentConfig{ID: "menu"})
	c.Trace("ping")
	if !strings.Contains(buf.String(), "component=menu") {
		t.Errorf("component trace = %q, want component=menu", buf.String())
	}
}
