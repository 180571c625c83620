// Package events routes UI events through one delegated dispatcher.
//
// Handlers are registered once per element role. An event's target is
// resolved to the nearest ancestor-or-self element carrying a data-role
// attribute, so controls inserted later need no binding of their own.
package events

import (
	"log/slog"
	"sync"

	"SchedChat/internal/dom"

	"golang.org/x/net/html"
)

// RoleAttr names the attribute that keys dispatch.
const RoleAttr = "data-role"

// Type is the kind of UI event.
type Type string

const (
	Change Type = "change"
	Click  Type = "click"
)

// Event is a UI event on a DOM node.
type Event struct {
	Type   Type
	Target *html.Node
}

// Handler receives the event and the element that matched its role.
type Handler func(ev Event, el *html.Node)

type route struct {
	role string
	typ  Type
}

// Dispatcher maps (role, event type) to a handler.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[route]Handler
	logger   *slog.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		handlers: make(map[route]Handler),
		logger:   logger,
	}
}

// Handle registers h for events of type typ on elements with role.
// A later registration replaces an earlier one.
func (d *Dispatcher) Handle(role string, typ Type, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[route{role: role, typ: typ}] = h
}

// Dispatch delivers ev to the handler of the closest element with a role.
// It reports whether a handler ran.
func (d *Dispatcher) Dispatch(ev Event) bool {
	el := dom.Closest(ev.Target, func(n *html.Node) bool {
		return dom.HasAttr(n, RoleAttr)
	})
	if el == nil {
		d.logger.Debug("event without role target", "type", ev.Type)
		return false
	}

	role := dom.Attribute(el, RoleAttr)
	d.mu.RLock()
	h, ok := d.handlers[route{role: role, typ: ev.Type}]
	d.mu.RUnlock()
	if !ok {
		d.logger.Debug("no handler for event", "role", role, "type", ev.Type)
		return false
	}

	h(ev, el)
	return true
}
