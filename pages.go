package yupee

import (
	"context"
	"path"
	"strings"
)

// Pages carries the application model across whole-page navigations by
// storing it through the driver under the page name.
type Pages struct {
	r *Registry
}

// Current returns the current page name: the body's data-page/page
// attribute, else the configured page, else the base name of the document
// location without extension, else "index".
func (p *Pages) Current() string {
	if page := p.r.Document().Body().Attr("page"); page != "" {
		return page
	}
	if page := p.r.Config().Page; page != "" {
		return page
	}
	if loc := p.r.Location(); loc != "" {
		base := path.Base(loc)
		if base == "main.html" {
			// pages live at <page>/main.html
			base = path.Base(path.Dir(loc))
		}
		base = strings.TrimSuffix(base, path.Ext(base))
		if base != "" && base != "." && base != "/" {
			return base
		}
	}
	return "index"
}

// Save writes the application model under the current page name. Without
// an application model nothing is written.
func (p *Pages) Save(ctx context.Context) error {
	if !p.r.HasModel() {
		return nil
	}
	blob, err := p.encode(p.r.Model())
	if err != nil {
		return err
	}
	return p.r.Driver().Write(ctx, p.Current(), blob)
}

// LoadPage navigates to page/main.html. With keepContext the application
// model is saved first, so the next page can pick it up with Init.
func (p *Pages) LoadPage(ctx context.Context, page string, keepContext bool) error {
	if keepContext {
		if err := p.Save(ctx); err != nil {
			return err
		}
	}
	return p.r.Driver().Navigate(ctx, p.r, page+"/main.html")
}

// Init restores the application model saved under the current page name
// and repaints it. A page with nothing saved is left alone.
func (p *Pages) Init(ctx context.Context) error {
	blob, err := p.r.Driver().Read(ctx, p.Current())
	if IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	content, err := p.decode(blob)
	if err != nil {
		return err
	}
	p.r.InitModel(content)
	return p.r.Update(ctx, nil)
}

func (p *Pages) encode(m *Model) (string, error) {
	cfg := p.r.Config()
	if len(cfg.SealKey) == 0 {
		return m.Serialize()
	}
	enc, err := NewEncoder(cfg.SealKey)
	if err != nil {
		return "", err
	}
	blob, err := enc.Encode(m, cfg.SealSensitive)
	if err != nil {
		return "", wrapLibError(err)
	}
	return blob, nil
}

func (p *Pages) decode(blob string) (map[string]any, error) {
	cfg := p.r.Config()
	if len(cfg.SealKey) == 0 {
		m := NewModel(nil)
		if err := m.Deserialize(blob); err != nil {
			return nil, err
		}
		return m.Content(), nil
	}
	enc, err := NewEncoder(cfg.SealKey)
	if err != nil {
		return nil, err
	}
	m := NewModel(nil)
	if err := enc.Decode(blob, cfg.SealSensitive, m); err != nil {
		return nil, wrapLibError(err)
	}
	return m.Content(), nil
}
