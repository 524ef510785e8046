package dom

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustParse(t *testing.T, markup string) *Document {
	t.Helper()
	doc, err := ParseString(markup)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	return doc
}

func TestAttrNamespaces(t *testing.T) {
	doc := mustParse(t, `<body><div id="a" data-yupid="x" template="row" data-template="card"></div></body>`)
	c := doc.Wrap(doc.Query("#a"))

	tests := []struct {
		key    string
		expect string
		has    bool
	}{
		{"yupid", "x", true},
		{"data-yupid", "x", true},
		{"template", "card", true},
		{"id", "a", true},
		{"missing", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := c.Attr(tt.key); got != tt.expect {
				t.Errorf("Attr(%q) = %q, want %q", tt.key, got, tt.expect)
			}
			if got := c.HasAttr(tt.key); got != tt.has {
				t.Errorf("HasAttr(%q) = %v, want %v", tt.key, got, tt.has)
			}
		})
	}
}

func TestQueryScope(t *testing.T) {
	doc := mustParse(t, `<body><div id="outer"><p class="x">in</p></div><p class="x">out</p></body>`)
	outer := doc.Wrap(doc.Query("#outer"))

	if got := len(outer.QueryAll("p.x")); got != 1 {
		t.Errorf("QueryAll(p.x) scoped = %d nodes, want 1", got)
	}
	if got := len(outer.QueryAll("/p.x")); got != 2 {
		t.Errorf("QueryAll(/p.x) = %d nodes, want 2", got)
	}
	if got := outer.QueryAll("div"); len(got) != 0 {
		t.Errorf("QueryAll should not match the container itself, got %d", len(got))
	}
}

func TestQueryInvalidSelectorFallsBackToBody(t *testing.T) {
	doc := mustParse(t, `<body><div id="a"></div></body>`)
	c := doc.Wrap(doc.Query("#a"))

	if got := c.Query("[[["); got != doc.Body().Node() {
		t.Errorf("Query(invalid) = %v, want body", got)
	}
	if got := c.QueryAll("[[["); got != nil {
		t.Errorf("QueryAll(invalid) = %v, want nil", got)
	}
}

func TestAppendHTMLAndClear(t *testing.T) {
	doc := mustParse(t, `<body><ul id="l"></ul></body>`)
	l := doc.Wrap(doc.Query("#l"))

	if err := l.AppendHTML("<li>a</li><li>b</li>"); err != nil {
		t.Fatalf("AppendHTML() error = %v", err)
	}
	if got := l.InnerHTML(); got != "<li>a</li><li>b</li>" {
		t.Errorf("InnerHTML() = %q", got)
	}
	l.Clear()
	if l.Node().FirstChild != nil {
		t.Error("Clear() left children behind")
	}
}

func TestFragmentAdoption(t *testing.T) {
	doc := mustParse(t, `<body><div id="p"><span>keep</span></div></body>`)
	parent := doc.Wrap(doc.Query("#p"))
	frag := doc.Wrap(doc.CreateFragment())
	if err := frag.AppendHTML("<i>1</i><i>2</i>"); err != nil {
		t.Fatal(err)
	}

	parent.Append(frag)
	if got := parent.InnerHTML(); got != "<span>keep</span><i>1</i><i>2</i>" {
		t.Fatalf("after Append InnerHTML() = %q", got)
	}
	if got := len(frag.Adopted()); got != 2 {
		t.Errorf("Adopted() = %d nodes, want 2", got)
	}

	parent.RemoveAdopted(frag)
	if got := parent.InnerHTML(); got != "<span>keep</span>" {
		t.Errorf("after RemoveAdopted InnerHTML() = %q", got)
	}
}

func TestStyleMerge(t *testing.T) {
	doc := mustParse(t, `<body><div id="a" style="color: red"></div></body>`)
	c := doc.Wrap(doc.Query("#a"))
	c.Style(map[string]string{"display": "none", "color": "blue"})

	if got := c.Attr("style"); got != "color: blue; display: none" {
		t.Errorf("style = %q", got)
	}
	c.Style(map[string]string{"color": ""})
	if got := c.StyleProp("color"); got != "" {
		t.Errorf("StyleProp(color) = %q, want empty after unset", got)
	}
}

func TestClassList(t *testing.T) {
	doc := mustParse(t, `<body><div id="a" class="one"></div></body>`)
	c := doc.Wrap(doc.Query("#a"))
	c.AddClass("two").AddClass("one")
	if got := c.Attr("class"); got != "one two" {
		t.Errorf("class = %q, want %q", got, "one two")
	}
	c.RemoveClass("one")
	if c.HasClass("one") || !c.HasClass("two") {
		t.Errorf("class after RemoveClass = %q", c.Attr("class"))
	}
}

func TestValue(t *testing.T) {
	doc := mustParse(t, `<body><input id="i" value="1"><textarea id="t">x</textarea></body>`)
	in := doc.Wrap(doc.Query("#i"))
	ta := doc.Wrap(doc.Query("#t"))

	in.SetValue("42")
	ta.SetValue("hello")
	if in.Value() != "42" || ta.Value() != "hello" {
		t.Errorf("Value() = %q, %q", in.Value(), ta.Value())
	}
}

func TestSelectValue(t *testing.T) {
	tests := []struct {
		name     string
		options  string
		set      string
		want     string
		selected int
	}{
		{name: "value attribute", options: `<option value="s">S</option><option value="m">M</option>`, set: "m", want: "m", selected: 1},
		{name: "option text", options: `<option>small</option><option> large </option>`, set: "large", want: "large", selected: 1},
		{name: "moves selection", options: `<option value="s" selected>S</option><option value="m">M</option>`, set: "m", want: "m", selected: 1},
		{name: "optgroup", options: `<optgroup label="g"><option value="a">A</option><option value="b">B</option></optgroup>`, set: "b", want: "b", selected: 1},
		{name: "no match falls back to first", options: `<option value="s" selected>S</option><option value="m">M</option>`, set: "x", want: "s", selected: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, `<body><select id="s">`+tt.options+`</select></body>`)
			sel := doc.Wrap(doc.Query("#s"))
			sel.SetValue(tt.set)

			if got := sel.Value(); got != tt.want {
				t.Errorf("Value() = %q, want %q", got, tt.want)
			}
			if sel.HasAttr("value") {
				t.Error("SetValue() wrote a value attribute on the select")
			}
			selected := -1
			for i, o := range sel.QueryAll("option") {
				if !doc.Wrap(o).HasAttr("selected") {
					continue
				}
				if selected >= 0 {
					t.Errorf("options %d and %d both selected", selected, i)
				}
				selected = i
			}
			if selected != tt.selected {
				t.Errorf("selected option = %d, want %d", selected, tt.selected)
			}
		})
	}
}

func TestDispatchBubblesAndStops(t *testing.T) {
	doc := mustParse(t, `<body><div id="outer"><button id="b">go</button></div></body>`)
	outer := doc.Wrap(doc.Query("#outer"))
	btn := doc.Wrap(doc.Query("#b"))

	var order []string
	btn.On("click", func(*Event) error { order = append(order, "button"); return nil })
	outer.On("click", func(*Event) error { order = append(order, "outer"); return nil })

	if err := btn.Dispatch(&Event{Type: "click"}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"button", "outer"}, order); diff != "" {
		t.Errorf("dispatch order (-want +got):\n%s", diff)
	}

	boom := errors.New("boom")
	btn.On("click", func(*Event) error { return boom })
	if err := btn.Dispatch(&Event{Type: "click"}); !errors.Is(err, boom) {
		t.Errorf("Dispatch() error = %v, want %v", err, boom)
	}
}

func TestInsertHTMLPositions(t *testing.T) {
	doc := mustParse(t, `<body><div id="p"><b id="m">m</b></div></body>`)
	m := doc.Wrap(doc.Query("#m"))

	for _, step := range []struct {
		pos    Position
		markup string
	}{
		{BeforeBegin, "<i>1</i>"},
		{AfterEnd, "<i>4</i>"},
		{AfterBegin, "<u>2</u>"},
		{BeforeEnd, "<u>3</u>"},
	} {
		if err := m.InsertHTML(step.pos, step.markup); err != nil {
			t.Fatalf("InsertHTML(%s) error = %v", step.pos, err)
		}
	}

	p := doc.Wrap(doc.Query("#p"))
	want := `<i>1</i><b id="m"><u>2</u>m<u>3</u></b><i>4</i>`
	if got := p.InnerHTML(); got != want {
		t.Errorf("InnerHTML() = %q, want %q", got, want)
	}

	detached := doc.Wrap(doc.CreateElement("div"))
	if err := detached.InsertHTML(AfterEnd, "<i></i>"); !errors.Is(err, ErrNoParent) {
		t.Errorf("InsertHTML on detached = %v, want ErrNoParent", err)
	}
}

func TestDocumentString(t *testing.T) {
	doc := NewDocument()
	if err := doc.Body().AppendHTML("<p>hi</p>"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(doc.String(), "<body><p>hi</p></body>") {
		t.Errorf("String() = %q", doc.String())
	}
}
