package yupee

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"slices"

	"github.com/vmihailenco/msgpack/v5"
)

// Model is a keyed data store observed by components. Changing it does not
// repaint anything until Update is called (or one of the AndUpdate
// variants is used).
//
// A Model may own sub-models. A sub-model's content is the live nested map
// stored under its major key in the parent, so writes through either side
// are visible to both.
type Model struct {
	content   map[string]any
	observers []*Component
	subs      map[string]*Model
	subKeys   []string
}

// NewModel returns a model over content. A nil map starts empty. The map is
// used as is, not copied.
func NewModel(content map[string]any) *Model {
	if content == nil {
		content = make(map[string]any)
	}
	return &Model{content: content, subs: make(map[string]*Model)}
}

// Get returns the value stored under key.
func (m *Model) Get(key string) (any, bool) {
	v, ok := m.content[key]
	return v, ok
}

// Set stores value under key without notifying observers. A nil value is a
// no-op; zero values such as 0, "" and false are stored. Storing a map
// under the key of an existing sub-model rebinds the sub-model to it.
func (m *Model) Set(key string, value any) {
	if value == nil {
		return
	}
	m.content[key] = value
	if sub, ok := m.subs[key]; ok {
		if nested, ok := value.(map[string]any); ok {
			sub.rebind(nested)
		}
	}
}

// SetAndUpdate stores value and repaints observers, passing key as flags.
// A nil value changes nothing and repaints nothing.
func (m *Model) SetAndUpdate(ctx context.Context, key string, value any) error {
	if value == nil {
		return nil
	}
	m.Set(key, value)
	return m.Update(ctx, key, false)
}

// Delete removes key.
func (m *Model) Delete(key string) {
	delete(m.content, key)
}

// Push appends item to the list stored under key, creating the list when
// the key is absent. A typed slice such as []string is widened to []any
// with its elements kept. A single non-list value becomes the first
// element of the new list.
func (m *Model) Push(key string, item any) {
	m.content[key] = append(asList(m.content[key]), item)
}

func asList(v any) []any {
	switch v := v.(type) {
	case nil:
		return nil
	case []any:
		return v
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	list := make([]any, rv.Len(), rv.Len()+1)
	for i := range list {
		list[i] = rv.Index(i).Interface()
	}
	return list
}

// PushAndUpdate appends item and repaints observers with key as flags.
func (m *Model) PushAndUpdate(ctx context.Context, key string, item any) error {
	m.Push(key, item)
	return m.Update(ctx, key, false)
}

// Sub returns the sub-model for majorKey, creating it on first use. Its
// content is the map stored under majorKey; when that entry is missing or
// not a map, an empty map is stored first. A detached sub-model whose key
// has since been removed is stored back under it.
func (m *Model) Sub(majorKey string) *Model {
	if sub, ok := m.subs[majorKey]; ok {
		if _, present := m.content[majorKey]; !present {
			m.content[majorKey] = sub.content
		}
		return sub
	}
	nested, ok := m.content[majorKey].(map[string]any)
	if !ok {
		nested = make(map[string]any)
		m.content[majorKey] = nested
	}
	sub := NewModel(nested)
	m.subs[majorKey] = sub
	m.subKeys = append(m.subKeys, majorKey)
	return sub
}

// HasSub reports whether a sub-model exists for majorKey.
func (m *Model) HasSub(majorKey string) bool {
	_, ok := m.subs[majorKey]
	return ok
}

// Update repaints every attached component in attachment order, then,
// when includeSub is set, every sub-model in creation order. The observer
// list is snapshotted first; components detached by an earlier repaint
// are skipped. The first repaint error stops the update.
func (m *Model) Update(ctx context.Context, flags any, includeSub bool) error {
	for _, c := range slices.Clone(m.observers) {
		if !m.observes(c) {
			continue
		}
		if err := c.Paint(ctx, Repaint(flags)); err != nil {
			return err
		}
	}
	if !includeSub {
		return nil
	}
	for _, key := range m.subKeys {
		if err := m.subs[key].Update(ctx, flags, true); err != nil {
			return err
		}
	}
	return nil
}

// Observers returns the attached components in attachment order.
func (m *Model) Observers() []*Component {
	return slices.Clone(m.observers)
}

func (m *Model) observes(c *Component) bool {
	return slices.Contains(m.observers, c)
}

func (m *Model) attach(c *Component) {
	if !m.observes(c) {
		m.observers = append(m.observers, c)
	}
}

func (m *Model) detach(c *Component) {
	if i := slices.Index(m.observers, c); i >= 0 {
		m.observers = slices.Delete(m.observers, i, i+1)
	}
}

// Content returns the live content map.
func (m *Model) Content() map[string]any {
	return m.content
}

// Replace swaps the whole content and rebinds sub-models to the maps now
// found under their keys. Observers are kept.
func (m *Model) Replace(content map[string]any) {
	if content == nil {
		content = make(map[string]any)
	}
	m.content = content
	m.rebindSubs()
}

// Serialize returns the content as a JSON document.
func (m *Model) Serialize() (string, error) {
	b, err := json.Marshal(m.content)
	if err != nil {
		return "", fmt.Errorf("yupee: serialize model: %w", err)
	}
	return string(b), nil
}

// Deserialize replaces the content with the JSON object in blob.
func (m *Model) Deserialize(blob string) error {
	var content map[string]any
	if err := json.Unmarshal([]byte(blob), &content); err != nil {
		return fmt.Errorf("yupee: deserialize model: %w", err)
	}
	m.Replace(content)
	return nil
}

// MarshalMsgpack implements msgpack.Marshaler.
func (m *Model) MarshalMsgpack() ([]byte, error) {
	return msgpack.Marshal(m.content)
}

// UnmarshalMsgpack implements msgpack.Unmarshaler.
func (m *Model) UnmarshalMsgpack(b []byte) error {
	var content map[string]any
	if err := msgpack.Unmarshal(b, &content); err != nil {
		return err
	}
	if m.subs == nil {
		m.subs = make(map[string]*Model)
	}
	m.Replace(content)
	return nil
}

// EncodeSnapshot implements encoding.Encodable.
func (m *Model) EncodeSnapshot() map[string]any {
	return m.content
}

// DecodeSnapshot implements encoding.Decodable.
func (m *Model) DecodeSnapshot(content map[string]any) error {
	m.Replace(content)
	return nil
}

// Dump logs the content and the observer ids at debug level.
func (m *Model) Dump(logger *slog.Logger) {
	ids := make([]string, 0, len(m.observers))
	for _, c := range m.observers {
		ids = append(ids, c.ID())
	}
	logger.Debug("model", "content", m.content, "observers", ids, "subs", m.subKeys)
}

func (m *Model) rebind(content map[string]any) {
	m.content = content
	m.rebindSubs()
}

// rebindSubs points every sub-model at the map now stored under its key.
// A key holding something else is left untouched and its sub-model is
// detached onto a fresh map until a map is stored there again.
func (m *Model) rebindSubs() {
	for _, key := range m.subKeys {
		nested, ok := m.content[key].(map[string]any)
		if !ok {
			nested = make(map[string]any)
		}
		m.subs[key].rebind(nested)
	}
}
