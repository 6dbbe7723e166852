package dom

// Event types dispatched by the platform model.
const (
	EventClick   = "click"
	EventCommand = "command"
)

// Invoker attributes.
const (
	AttrCommandFor = "commandfor"
	AttrCommand    = "command"
)

// Event is a DOM event. Command events carry the invoker's token in Command
// and the invoking element in Source.
type Event struct {
	Type       string
	Bubbles    bool
	Cancelable bool
	Command    string
	Source     *Element
	Detail     any

	target           *Element
	currentTarget    *Element
	defaultPrevented bool
	stopped          bool
	stoppedNow       bool
}

// NewEvent returns a non-bubbling, non-cancelable event.
func NewEvent(typ string) *Event {
	return &Event{Type: typ}
}

// NewCommandEvent returns the cancelable command event an invoker dispatches
// at its target.
func NewCommandEvent(command string, source *Element) *Event {
	return &Event{Type: EventCommand, Cancelable: true, Command: command, Source: source}
}

// Target returns the element the event was dispatched at.
func (ev *Event) Target() *Element { return ev.target }

// CurrentTarget returns the element whose listeners are running.
func (ev *Event) CurrentTarget() *Element { return ev.currentTarget }

// PreventDefault cancels the event's default action if it is cancelable.
func (ev *Event) PreventDefault() {
	if ev.Cancelable {
		ev.defaultPrevented = true
	}
}

// DefaultPrevented reports whether PreventDefault took effect.
func (ev *Event) DefaultPrevented() bool { return ev.defaultPrevented }

// StopPropagation stops the event after the current element's listeners.
func (ev *Event) StopPropagation() { ev.stopped = true }

// StopImmediatePropagation stops the event before the next listener.
func (ev *Event) StopImmediatePropagation() {
	ev.stopped = true
	ev.stoppedNow = true
}

// Listener is a registered event listener. It is the handle used to remove
// the listener again.
type Listener struct {
	typ     string
	fn      func(*Event)
	removed bool
}

// Type returns the event type the listener is registered for.
func (l *Listener) Type() string { return l.typ }

// AddEventListener registers fn for events of type typ. Event types are
// case-sensitive.
func (e *Element) AddEventListener(typ string, fn func(*Event)) *Listener {
	if e.listeners == nil {
		e.listeners = make(map[string][]*Listener)
	}
	l := &Listener{typ: typ, fn: fn}
	e.listeners[typ] = append(e.listeners[typ], l)
	return l
}

// RemoveEventListener unregisters l. It reports whether l was registered on
// e. A listener removed while an event is being dispatched does not run.
func (e *Element) RemoveEventListener(l *Listener) bool {
	if l == nil {
		return false
	}
	list := e.listeners[l.typ]
	for i, x := range list {
		if x == l {
			l.removed = true
			e.listeners[l.typ] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// ListenerCount returns the number of listeners registered for typ.
func (e *Element) ListenerCount(typ string) int {
	return len(e.listeners[typ])
}

// DispatchEvent dispatches ev at e: the target first, then each ancestor if
// the event bubbles. A panicking listener is reported and the remaining
// listeners still run. It returns false if the default action was prevented.
func (e *Element) DispatchEvent(ev *Event) bool {
	ev.target = e
	path := []*Element{e}
	if ev.Bubbles {
		for p := e.Parent(); p != nil; p = p.Parent() {
			path = append(path, p)
		}
	}

	for _, el := range path {
		ev.currentTarget = el
		el.invokeListeners(ev)
		if ev.stopped {
			break
		}
	}
	ev.currentTarget = nil
	return !ev.defaultPrevented
}

func (e *Element) invokeListeners(ev *Event) {
	listeners := append([]*Listener(nil), e.listeners[ev.Type]...)
	for _, l := range listeners {
		if l.removed {
			continue
		}
		e.doc.guard(e, ev.Type+" listener", func() { l.fn(ev) })
		if ev.stoppedNow {
			return
		}
	}
}

// Click dispatches a bubbling, cancelable click event. When the default is
// not prevented and e is a button with invoker attributes, the command is
// invoked. It returns false if the default action was prevented.
func (e *Element) Click() bool {
	ev := &Event{Type: EventClick, Bubbles: true, Cancelable: true}
	if !e.DispatchEvent(ev) {
		return false
	}
	if e.TagName() == "button" && e.HasAttribute(AttrCommandFor) {
		e.Invoke()
	}
	return true
}

// Invoke runs invoker activation: it resolves the commandfor id in the
// document and dispatches a command event carrying the command token at that
// element. It reports whether an event was dispatched.
func (e *Element) Invoke() bool {
	targetID := e.Attribute(AttrCommandFor)
	command := e.Attribute(AttrCommand)
	if targetID == "" || command == "" {
		return false
	}
	target := e.doc.GetElementByID(targetID)
	if target == nil {
		return false
	}

	ev := NewCommandEvent(command, e)
	if target.DispatchEvent(ev) {
		target.runBuiltinCommand(command)
	}
	return true
}

// runBuiltinCommand applies the native behavior of built-in command tokens.
func (e *Element) runBuiltinCommand(command string) {
	if e.TagName() != "dialog" {
		return
	}
	switch command {
	case "show-modal":
		if !e.HasAttribute("open") {
			e.SetAttribute("open", "")
		}
	case "close":
		e.RemoveAttribute("open")
	}
}
