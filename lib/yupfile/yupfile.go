// Package yupfile parses declarative component definition files.
//
// A .yup file is HCL. Each file describes one component: where it renders,
// which model it uses, what it paints and which children, loads and data
// productions it declares.
//
//	model    = "sub:notes"
//	template = "note"
//	style    = { display = "block" }
//	data     = { items = [] }
//	paint    = "<h2>${params.title}</h2><ul class='items'></ul>"
//
//	child "save" {
//	  html  = "<button>Save</button>"
//	  click = "auto"
//	}
//
//	children {
//	  selector = "div.btn"
//	  click    = "auto"
//	}
//
//	load "notes/list" {
//	  params = { mode = "compact" }
//	}
//
//	produce "opened" {
//	  value = id
//	}
//
// Expressions can reference the variables id (the component identifier)
// and params (the load parameters, a map of strings).
package yupfile

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Definition is a decoded component file.
type Definition struct {
	Model      string
	Template   string
	Container  string
	KeepParams bool
	Params     map[string]string
	Style      map[string]string
	Data       map[string]any
	Paint      string
	Values     map[string]any
	Click      string
	Children   []Child
	Groups     []Group
	Loads      []Load
	Produces   []Produce
}

// Child declares one child component.
type Child struct {
	ID       string
	Selector string
	HTML     string
	Click    string
	Paint    string
	Style    map[string]string
}

// Group declares children for every element matching a selector.
type Group struct {
	Selector string
	Click    string
}

// Load enqueues another component file.
type Load struct {
	Location string
	Params   map[string]string
}

// Produce publishes a value under a data channel once the component is set up.
type Produce struct {
	Name  string
	Value any
}

// Vars are the variables visible to expressions in a component file.
type Vars struct {
	ID     string
	Params map[string]string
}

type hclFile struct {
	Model      *string           `hcl:"model,optional"`
	Template   *string           `hcl:"template,optional"`
	Container  *string           `hcl:"container,optional"`
	KeepParams *bool             `hcl:"keep_params,optional"`
	Params     map[string]string `hcl:"params,optional"`
	Style      map[string]string `hcl:"style,optional"`
	Data       cty.Value         `hcl:"data,optional"`
	Paint      *string           `hcl:"paint,optional"`
	Values     cty.Value         `hcl:"values,optional"`
	Click      *string           `hcl:"click,optional"`
	Children   []*hclChild       `hcl:"child,block"`
	Groups     []*hclGroup       `hcl:"children,block"`
	Loads      []*hclLoad        `hcl:"load,block"`
	Produces   []*hclProduce     `hcl:"produce,block"`
}

type hclChild struct {
	ID       string            `hcl:"id,label"`
	Selector *string           `hcl:"selector,optional"`
	HTML     *string           `hcl:"html,optional"`
	Click    *string           `hcl:"click,optional"`
	Paint    *string           `hcl:"paint,optional"`
	Style    map[string]string `hcl:"style,optional"`
}

type hclGroup struct {
	Selector string  `hcl:"selector"`
	Click    *string `hcl:"click,optional"`
}

type hclLoad struct {
	Location string            `hcl:"location,label"`
	Params   map[string]string `hcl:"params,optional"`
}

type hclProduce struct {
	Name  string    `hcl:"name,label"`
	Value cty.Value `hcl:"value"`
}

// Parse decodes a component file. filename is only used in diagnostics.
func Parse(filename string, src []byte, vars Vars) (*Definition, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("yupfile: parse %s: %w", filename, diags)
	}

	var raw hclFile
	diags = gohcl.DecodeBody(file.Body, evalContext(vars), &raw)
	if diags.HasErrors() {
		return nil, fmt.Errorf("yupfile: decode %s: %w", filename, diags)
	}

	def := &Definition{
		Model:      deref(raw.Model),
		Template:   deref(raw.Template),
		Container:  deref(raw.Container),
		KeepParams: raw.KeepParams != nil && *raw.KeepParams,
		Params:     raw.Params,
		Style:      raw.Style,
		Paint:      deref(raw.Paint),
		Click:      deref(raw.Click),
	}

	var err error
	if def.Data, err = objectToMap(raw.Data); err != nil {
		return nil, fmt.Errorf("yupfile: %s: data: %w", filename, err)
	}
	if def.Values, err = objectToMap(raw.Values); err != nil {
		return nil, fmt.Errorf("yupfile: %s: values: %w", filename, err)
	}

	for _, c := range raw.Children {
		def.Children = append(def.Children, Child{
			ID:       c.ID,
			Selector: deref(c.Selector),
			HTML:     deref(c.HTML),
			Click:    deref(c.Click),
			Paint:    deref(c.Paint),
			Style:    c.Style,
		})
	}
	for _, g := range raw.Groups {
		def.Groups = append(def.Groups, Group{Selector: g.Selector, Click: deref(g.Click)})
	}
	for _, l := range raw.Loads {
		def.Loads = append(def.Loads, Load{Location: l.Location, Params: l.Params})
	}
	for _, p := range raw.Produces {
		v, err := ctyToNative(p.Value)
		if err != nil {
			return nil, fmt.Errorf("yupfile: %s: produce %q: %w", filename, p.Name, err)
		}
		def.Produces = append(def.Produces, Produce{Name: p.Name, Value: v})
	}

	return def, nil
}

func evalContext(vars Vars) *hcl.EvalContext {
	params := cty.MapValEmpty(cty.String)
	if len(vars.Params) > 0 {
		m := make(map[string]cty.Value, len(vars.Params))
		for k, v := range vars.Params {
			m[k] = cty.StringVal(v)
		}
		params = cty.MapVal(m)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"id":     cty.StringVal(vars.ID),
			"params": params,
		},
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func objectToMap(v cty.Value) (map[string]any, error) {
	if v.IsNull() {
		return nil, nil
	}
	native, err := ctyToNative(v)
	if err != nil {
		return nil, err
	}
	m, ok := native.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected an object, got %s", v.Type().FriendlyName())
	}
	return m, nil
}

// ctyToNative converts a cty value into plain Go values: string, float64,
// bool, []any and map[string]any.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, err
		}
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, el := it.Element()
			n, err := ctyToNative(el)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil

	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any)
		for it := v.ElementIterator(); it.Next(); {
			k, el := it.Element()
			n, err := ctyToNative(el)
			if err != nil {
				return nil, fmt.Errorf("in attribute %q: %w", k.AsString(), err)
			}
			out[k.AsString()] = n
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
}
