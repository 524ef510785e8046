package yupee

import (
	"fmt"

	"github.com/pthm/yupee/lib/dom"
	"golang.org/x/net/html/atom"
)

// Bind connects the form fields below c to entries of target.
//
// Fields are elements with a data-bind attribute; the entry key is their
// data-yupid. Present entries are written into the fields first: label
// text, input and textarea values, checkbox state and select value. Then
// field changes are copied back into target ("input" events for text
// fields, "change" for checkboxes and selects) and onChange, when set,
// is called with target.
func Bind(c *dom.Container, target map[string]any, onChange func(map[string]any) error) {
	doc := c.Document()
	for _, n := range c.QueryAll("[data-bind]") {
		field := doc.Wrap(n)
		key := field.Attr("yupid")
		if key == "" {
			continue
		}
		v, present := target[key]
		present = present && v != nil

		notify := func(value any) error {
			target[key] = value
			if onChange != nil {
				return onChange(target)
			}
			return nil
		}

		switch n.DataAtom {
		case atom.Label:
			if present {
				field.Clear()
				field.AppendText(fmt.Sprint(v))
			}

		case atom.Input:
			if field.Attr("type") == "checkbox" {
				if present {
					on, _ := v.(bool)
					field.SetChecked(on)
				}
				field.On("change", func(*dom.Event) error {
					return notify(field.Checked())
				})
				continue
			}
			if present {
				field.SetValue(fmt.Sprint(v))
			}
			field.On("input", func(*dom.Event) error {
				return notify(field.Value())
			})

		case atom.Textarea:
			if present {
				field.SetValue(fmt.Sprint(v))
			}
			field.On("input", func(*dom.Event) error {
				return notify(field.Value())
			})

		case atom.Select:
			if present {
				field.SetValue(fmt.Sprint(v))
			}
			field.On("change", func(*dom.Event) error {
				return notify(field.Value())
			})
		}
	}
}
