package yupee

import (
	"io"
	"log/slog"
	"slices"
	"sync"
)

// Well-known bus events.
const (
	// EventReady fires once each time the load queue drains.
	EventReady = "event/ready"
	// EventYupID carries the id of a component clicked through the auto
	// click handler.
	EventYupID = "event/yupid"
)

// dataPrefix namespaces Produce/Consume channels on the bus.
const dataPrefix = "data:"

// Handler receives the arguments passed to Bus.Fire.
type Handler func(args ...any) error

// Bus is a named publish/subscribe channel. Handlers run synchronously in
// registration order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *slog.Logger
}

// NewBus returns an empty bus. A nil logger discards trace output.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bus{handlers: make(map[string][]Handler), logger: logger}
}

// Listen registers h for event.
func (b *Bus) Listen(event string, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.handlers[event] = append(b.handlers[event], h)
	b.mu.Unlock()
	b.logger.Debug("listen", "event", event)
}

// Fire calls every handler of event with args. Handlers registered while
// firing are not called for this event. The first handler error stops
// delivery and is returned.
func (b *Bus) Fire(event string, args ...any) error {
	b.mu.RLock()
	hs := slices.Clone(b.handlers[event])
	b.mu.RUnlock()

	b.logger.Debug("fire", "event", event, "handlers", len(hs))
	for _, h := range hs {
		if err := h(args...); err != nil {
			return err
		}
	}
	return nil
}

// Handlers reports how many handlers are registered for event.
func (b *Bus) Handlers(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[event])
}
