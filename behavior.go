package behavioral

import (
	"strings"

	"github.com/pthm/behavioral/lib/dom"
)

// Factory creates the behavior instance for one element. It is called each
// time a host element connects; instances are never reused across
// reconnects.
type Factory func(el *dom.Element) (Behavior, error)

// Behavior is one behavior instance bound to one element. It declares the DOM
// events it handles as an explicit table; the host wires each entry as a
// listener on the element and removes it on disconnect.
//
// Lifecycle hooks and command handling are optional capabilities, detected
// with the Connector, Disconnector, AttributeObserver and CommandHandler
// interfaces.
type Behavior interface {
	Listeners() []Listener
}

// Connector is implemented by behaviors that run code once their listeners
// are wired.
type Connector interface {
	Connected()
}

// Disconnector is implemented by behaviors that release resources when the
// element leaves the document. No handler runs after Disconnected returns.
type Disconnector interface {
	Disconnected()
}

// AttributeObserver is implemented by behaviors that react to changes of the
// host's observed attributes. Every active behavior on the element is told
// about every observed attribute; filtering is up to the behavior.
type AttributeObserver interface {
	AttributeChanged(name, oldValue, newValue string)
}

// CommandHandler is implemented by behaviors that accept commands. The host
// calls OnCommand for every command event on the element, in activation
// order; behaviors ignore tokens they do not define.
type CommandHandler interface {
	OnCommand(cmd *CommandEvent)
}

// Listener pairs a DOM event name with its handler.
type Listener struct {
	Event  string
	Handle func(*dom.Event)
}

// On builds a Listener. Event names are matched lowercased, so On("Click", fn)
// listens for "click".
func On(event string, handle func(*dom.Event)) Listener {
	return Listener{Event: strings.ToLower(event), Handle: handle}
}

// Hooks adapts plain functions to a Behavior with every optional capability.
// Nil fields are skipped.
//
//	return &behavioral.Hooks{
//	    Connect: func() { el.SetAttribute("data-ready", "") },
//	    Command: func(cmd *behavioral.CommandEvent) { ... },
//	}, nil
type Hooks struct {
	Events          []Listener
	Connect         func()
	Disconnect      func()
	AttributeChange func(name, oldValue, newValue string)
	Command         func(cmd *CommandEvent)
}

// Listeners returns h.Events.
func (h *Hooks) Listeners() []Listener { return h.Events }

// Connected calls h.Connect.
func (h *Hooks) Connected() {
	if h.Connect != nil {
		h.Connect()
	}
}

// Disconnected calls h.Disconnect.
func (h *Hooks) Disconnected() {
	if h.Disconnect != nil {
		h.Disconnect()
	}
}

// AttributeChanged calls h.AttributeChange.
func (h *Hooks) AttributeChanged(name, oldValue, newValue string) {
	if h.AttributeChange != nil {
		h.AttributeChange(name, oldValue, newValue)
	}
}

// OnCommand calls h.Command.
func (h *Hooks) OnCommand(cmd *CommandEvent) {
	if h.Command != nil {
		h.Command(cmd)
	}
}
