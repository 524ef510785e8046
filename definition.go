package yupee

import (
	"context"
	"fmt"
	"strings"

	"github.com/pthm/yupee/lib/dom"
	"github.com/pthm/yupee/lib/yupfile"
)

// RunDefinition builds the component described by a parsed component file.
//
// The model field selects the model: "own" for a private model, "app" for
// the application model and "sub:<key>" for a sub-model of it. Data only
// seeds keys the model does not hold yet. A click value of "auto" installs
// AutoClick; any other value fires that bus event with the component id.
func RunDefinition(ctx context.Context, r *Registry, def *yupfile.Definition) error {
	cfg := ComponentConfig{Template: def.Template}
	switch {
	case def.Model == "":
	case def.Model == "own":
		cfg.Model = r.Factory().NewModel(nil)
	case def.Model == "app":
		cfg.Model = r.Model()
	case strings.HasPrefix(def.Model, "sub:"):
		cfg.Model = r.Model().Sub(strings.TrimPrefix(def.Model, "sub:"))
	default:
		return fmt.Errorf("yupee: unknown model %q", def.Model)
	}

	c := r.Start(cfg)
	if def.Container != "" {
		c.NewContainer(def.Container, def.KeepParams)
	}
	for _, k := range sortedKeys(def.Params) {
		c.SetParam(k, def.Params[k])
	}
	if len(def.Style) > 0 {
		c.Style(def.Style)
	}
	if len(def.Data) > 0 {
		m := c.Model()
		for _, k := range sortedKeys(def.Data) {
			if _, ok := m.Get(k); !ok {
				m.Set(k, def.Data[k])
			}
		}
	}

	switch {
	case def.Paint != "":
		if err := c.Paint(ctx, HTML(def.Paint)); err != nil {
			return err
		}
	case def.Values != nil:
		if err := c.Paint(ctx, Values(def.Values)); err != nil {
			return err
		}
	}
	if def.Click != "" {
		c.Click(clickHandler(r, def.Click))
	}

	for _, ch := range def.Children {
		var entry Child
		switch {
		case ch.HTML != "":
			entry = ChildHTML(ch.HTML)
		case ch.Selector != "":
			entry = Selector(ch.Selector)
		default:
			c.Trace("child without html or selector", "child", ch.ID)
			continue
		}
		entry = entry.WithID(ch.ID)
		if ch.Click != "" {
			entry = entry.OnClick(clickHandler(r, ch.Click))
		}
		child := c.AddChild(entry)
		if child == nil {
			continue
		}
		if len(ch.Style) > 0 {
			child.Style(ch.Style)
		}
		if ch.Paint != "" {
			if err := child.Paint(ctx, HTML(ch.Paint)); err != nil {
				return err
			}
		}
	}
	for _, g := range def.Groups {
		var click EventHandler
		if g.Click != "" {
			click = clickHandler(r, g.Click)
		}
		c.AddChildren(g.Selector, click)
	}

	for _, p := range def.Produces {
		if err := c.Produce(p.Name, p.Value); err != nil {
			return err
		}
	}
	for _, l := range def.Loads {
		if err := r.Load(ctx, l.Location, LoadParams{Attrs: l.Params}); err != nil {
			return err
		}
	}
	return nil
}

func clickHandler(r *Registry, click string) EventHandler {
	if click == "auto" {
		return AutoClick
	}
	return func(_ *dom.Event, c *Component) error {
		return r.Fire(click, c.ID())
	}
}
