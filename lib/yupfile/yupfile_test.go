package yupfile

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const notesFile = `
model    = "sub:notes"
template = "note"
style    = { display = "block" }
data     = { items = [], count = 0, open = true }
paint    = "<h2>${params.title}</h2>"

child "save" {
  html  = "<button>Save</button>"
  click = "auto"
}

children {
  selector = "div.btn"
}

load "notes/list" {
  params = { mode = "compact" }
}

produce "opened" {
  value = id
}
`

func TestParse(t *testing.T) {
	def, err := Parse("notes.yup", []byte(notesFile), Vars{
		ID:     "notes",
		Params: map[string]string{"title": "My notes"},
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := &Definition{
		Model:    "sub:notes",
		Template: "note",
		Style:    map[string]string{"display": "block"},
		Data:     map[string]any{"items": []any{}, "count": 0.0, "open": true},
		Paint:    "<h2>My notes</h2>",
		Children: []Child{{ID: "save", HTML: "<button>Save</button>", Click: "auto"}},
		Groups:   []Group{{Selector: "div.btn"}},
		Loads:    []Load{{Location: "notes/list", Params: map[string]string{"mode": "compact"}}},
		Produces: []Produce{{Name: "opened", Value: "notes"}},
	}
	if diff := cmp.Diff(want, def); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEmpty(t *testing.T) {
	def, err := Parse("empty.yup", nil, Vars{})
	if err != nil {
		t.Fatalf("Parse(empty) error = %v", err)
	}
	if def.Data != nil || def.Paint != "" || len(def.Children) != 0 {
		t.Errorf("Parse(empty) = %+v, want zero definition", def)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"syntax", `paint = `, "parse"},
		{"unknown attribute", `colour = "red"`, "decode"},
		{"data not object", `data = "x"`, "data"},
		{"unknown variable", `paint = nope`, "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad.yup", []byte(tt.src), Vars{})
			if err == nil {
				t.Fatal("Parse() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse() error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}
