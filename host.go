package behavioral

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pthm/behavioral/lib/dom"
)

// Attributes read by the host.
const (
	BehaviorAttr = "behavior"
	IsAttr       = "is"
)

// DefineHost installs a customized built-in named hostName that extends tag
// in doc's custom element registry. observed lists the attributes whose
// changes are forwarded to behaviors.
//
// One host name serves every tag that declares the same behavior set. When
// hostName already exists for other tags, tag is added to it and matching
// elements upgrade; defining it again for a tag it covers is a no-op that
// reports false. An error is returned only for a name the platform rejects.
func (rt *Runtime) DefineHost(doc *dom.Document, tag, hostName string, observed []string) (bool, error) {
	registry := doc.CustomElements()
	tag = strings.ToLower(tag)

	if existing, ok := registry.Get(hostName); ok {
		if existing.ExtendsTag(tag) {
			return false, nil
		}
		added, err := registry.Extend(hostName, tag)
		if err != nil {
			return false, fmt.Errorf("behavioral: extend host %q to %s: %w", hostName, tag, err)
		}
		if added {
			rt.logger.Debug("behavioral: host extended", "host", hostName, "tag", tag)
		}
		return added, nil
	}

	err := registry.Define(dom.ElementDefinition{
		Name:               hostName,
		Extends:            tag,
		ObservedAttributes: observed,
		Constructor: func(el *dom.Element) dom.CustomElement {
			return &Host{rt: rt, el: el}
		},
	})
	if errors.Is(err, dom.ErrAlreadyDefined) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("behavioral: define host %q: %w", hostName, err)
	}

	rt.logger.Debug("behavioral: host defined", "host", hostName, "tag", tag, "observed", observed)
	return true, nil
}

// DefineHostFor defines the composite host for a behavior set on tag,
// observing the union of the registered behaviors' attributes. It returns
// the host name.
func (rt *Runtime) DefineHostFor(doc *dom.Document, tag string, names []string) (string, error) {
	hostName := CompositeHostName(names)
	_, err := rt.DefineHost(doc, tag, hostName, rt.registry.ObservedAttributes(names))
	return hostName, err
}

// Host is the custom element behind every behavioral host element. On connect
// it instantiates the behaviors named in the behavior attribute, wires their
// listeners and runs their Connected hooks; on disconnect it tears all of
// that down. Each connect starts from fresh instances.
type Host struct {
	rt         *Runtime
	el         *dom.Element
	active     []*binding
	command    *dom.Listener
	attached   bool
	generation int
}

// binding is one behavior instance active on a host.
type binding struct {
	name      string
	def       *Definition
	behavior  Behavior
	listeners []*dom.Listener
}

// HostOf returns the host backing el, if el has been upgraded to one.
func HostOf(el *dom.Element) (*Host, bool) {
	h, ok := el.Upgraded().(*Host)
	return h, ok
}

// Element returns the host element.
func (h *Host) Element() *dom.Element {
	return h.el
}

// Attached reports whether the host is connected with behaviors wired.
func (h *Host) Attached() bool {
	return h.attached
}

// Active returns the names of the active behaviors in activation order.
func (h *Host) Active() []string {
	names := make([]string, len(h.active))
	for i, b := range h.active {
		names[i] = b.name
	}
	return names
}

// Behavior returns the active instance of the named behavior.
func (h *Host) Behavior(name string) (Behavior, bool) {
	for _, b := range h.active {
		if b.name == name {
			return b.behavior, true
		}
	}
	return nil, false
}

// ConnectedCallback attaches the behaviors named in the behavior attribute.
// Unknown names are logged and skipped; a behavior that fails is dropped
// without affecting the others.
func (h *Host) ConnectedCallback() {
	if h.attached {
		h.detach()
	}
	h.attached = true

	names := ParseBehaviors(h.el.Attribute(BehaviorAttr))
	if len(names) == 0 {
		return
	}

	var resolved []*binding
	for _, name := range names {
		entry, ok := h.rt.registry.Lookup(name)
		if !ok {
			h.rt.logger.Warn("behavioral: unknown behavior",
				"behavior", name,
				"element", h.el.String(),
				"error", unknownBehavior(name))
			continue
		}

		var b Behavior
		err := h.guard(name, PhaseFactory, func() error {
			var err error
			b, err = entry.Factory(h.el)
			if err == nil && b == nil {
				err = errors.New("factory returned no behavior")
			}
			return err
		})
		if err != nil {
			continue
		}
		resolved = append(resolved, &binding{name: name, def: entry.Definition, behavior: b})
	}

	for _, b := range resolved {
		if h.wire(b) {
			h.active = append(h.active, b)
		}
	}

	for _, b := range h.active {
		if _, ok := b.behavior.(CommandHandler); ok {
			h.command = h.el.AddEventListener(dom.EventCommand, h.dispatchCommand)
			break
		}
	}

	gen := h.generation
	connected := h.active[:0:0]
	for _, b := range h.active {
		c, ok := b.behavior.(Connector)
		if ok {
			if err := h.guard(b.name, PhaseConnected, func() error { c.Connected(); return nil }); err != nil {
				h.unwire(b)
				continue
			}
		}
		if h.generation != gen {
			// A Connected hook detached the element.
			return
		}
		connected = append(connected, b)
	}
	h.active = connected
}

// DisconnectedCallback runs every Disconnected hook, then removes every
// listener the host added and discards the instances.
func (h *Host) DisconnectedCallback() {
	h.detach()
}

// AttributeChangedCallback forwards an observed attribute change to every
// active behavior that implements AttributeObserver.
func (h *Host) AttributeChangedCallback(name, oldValue, newValue string) {
	if !h.attached {
		return
	}
	gen := h.generation
	for _, b := range append([]*binding(nil), h.active...) {
		if h.generation != gen {
			return
		}
		if o, ok := b.behavior.(AttributeObserver); ok {
			h.guard(b.name, PhaseAttributeChanged, func() error {
				o.AttributeChanged(name, oldValue, newValue)
				return nil
			})
		}
	}
}

// wire registers b's listeners on the element. It reports false if the
// listener table could not be read.
func (h *Host) wire(b *binding) bool {
	var listeners []Listener
	if err := h.guard(b.name, PhaseListeners, func() error {
		listeners = b.behavior.Listeners()
		return nil
	}); err != nil {
		return false
	}

	for _, l := range listeners {
		if l.Event == "" || l.Handle == nil {
			continue
		}
		handle := l.Handle
		b.listeners = append(b.listeners, h.el.AddEventListener(strings.ToLower(l.Event), func(ev *dom.Event) {
			h.guard(b.name, PhaseEvent, func() error {
				handle(ev)
				return nil
			})
		}))
	}
	return true
}

func (h *Host) unwire(b *binding) {
	for _, l := range b.listeners {
		h.el.RemoveEventListener(l)
	}
	b.listeners = nil
}

func (h *Host) detach() {
	active := h.active
	h.active = nil
	h.attached = false
	h.generation++

	for _, b := range active {
		if d, ok := b.behavior.(Disconnector); ok {
			h.guard(b.name, PhaseDisconnected, func() error {
				d.Disconnected()
				return nil
			})
		}
	}
	for _, b := range active {
		h.unwire(b)
	}
	if h.command != nil {
		h.el.RemoveEventListener(h.command)
		h.command = nil
	}
}

// dispatchCommand hands a command event to every CommandHandler in
// activation order.
func (h *Host) dispatchCommand(ev *dom.Event) {
	cmd := h.rt.commandEvent(h.el, ev)
	gen := h.generation
	for _, b := range append([]*binding(nil), h.active...) {
		if h.generation != gen {
			return
		}
		if c, ok := b.behavior.(CommandHandler); ok {
			h.guard(b.name, PhaseCommand, func() error {
				c.OnCommand(cmd)
				return nil
			})
		}
	}
}

// guard runs fn for behavior name, converting a returned error or a panic
// into a logged BehaviorError.
func (h *Host) guard(name string, phase Phase, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
		if err != nil {
			err = &BehaviorError{Behavior: name, Element: h.el.String(), Phase: phase, Err: err}
			h.rt.logger.Error("behavioral: behavior failed",
				"behavior", name,
				"element", h.el.String(),
				"phase", string(phase),
				"error", err)
		}
	}()
	return fn()
}
