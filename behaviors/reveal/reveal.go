// Package reveal shows and hides its host element on command.
//
// A reveal host starts open unless it carries the hidden attribute (or, for
// a dialog, lacks the open attribute). The --show, --hide and --toggle
// commands change the state; Escape on a keydown event hides it. Every
// change dispatches a bubbling reveal-change event whose Detail is the new
// open state.
//
//	<div id="faq" behavior="reveal" reveal-delay="150ms" hidden>...</div>
//	<button commandfor="faq" command="--toggle">FAQ</button>
package reveal

import (
	"time"

	"github.com/pthm/behavioral"
	"github.com/pthm/behavioral/lib/dom"
)

// Commands understood by reveal.
const (
	CommandShow   = "--show"
	CommandHide   = "--hide"
	CommandToggle = "--toggle"
)

// EventChange is dispatched at the host after every state change.
const EventChange = "reveal-change"

// Config is read from the host's attributes.
type Config struct {
	// Delay is mirrored to data-reveal-delay for stylesheets.
	Delay time.Duration `attr:"reveal-delay"`
	// Hidden and Open carry the visible state of a plain element and a
	// dialog. Changes made outside the behavior, such as a dialog's built-in
	// show-modal and close commands, are picked up.
	Hidden bool `attr:"hidden"`
	Open   bool `attr:"open"`
}

// Definition is the reveal behavior definition.
var Definition = behavioral.MustDefinition("reveal", Config{}, behavioral.Commands(
	CommandShow,
	CommandHide,
	CommandToggle,
))

// Entry returns the registry entry for reveal.
func Entry() behavioral.Entry {
	return behavioral.Entry{Definition: Definition, Factory: New}
}

// Reveal is the behavior instance for one host.
type Reveal struct {
	el      *dom.Element
	cfg     Config
	open    bool
	toggles int
}

// New is the reveal factory. It fails if reveal-delay is not a duration.
func New(el *dom.Element) (behavioral.Behavior, error) {
	r := &Reveal{el: el}
	if err := behavioral.ReadAttributes(el, &r.cfg); err != nil {
		return nil, err
	}
	if r.isDialog() {
		r.open = r.cfg.Open
	} else {
		r.open = !r.cfg.Hidden
	}
	return r, nil
}

// Listeners hides the host on Escape.
func (r *Reveal) Listeners() []behavioral.Listener {
	return []behavioral.Listener{
		behavioral.On("keydown", func(ev *dom.Event) {
			if key, _ := ev.Detail.(string); key == "Escape" && r.open {
				r.set(false)
			}
		}),
	}
}

// Connected publishes the configured delay and current state.
func (r *Reveal) Connected() {
	r.applyDelay()
	r.el.SetAttribute("data-reveal", state(r.open))
}

// Disconnected clears the state markers.
func (r *Reveal) Disconnected() {
	r.el.RemoveAttribute("data-reveal")
	r.el.RemoveAttribute("data-reveal-delay")
}

// AttributeChanged re-reads the delay when reveal-delay changes and follows
// the state attribute when something else opens or hides the host.
func (r *Reveal) AttributeChanged(name, oldValue, newValue string) {
	switch name {
	case "reveal-delay":
		if d, err := time.ParseDuration(newValue); err == nil {
			r.cfg.Delay = d
		} else {
			r.cfg.Delay = 0
		}
		r.applyDelay()
	case "open", "hidden":
		r.sync()
	}
}

// OnCommand applies --show, --hide and --toggle. Other tokens are ignored.
func (r *Reveal) OnCommand(cmd *behavioral.CommandEvent) {
	switch cmd.Command {
	case CommandShow:
		r.set(true)
	case CommandHide:
		r.set(false)
	case CommandToggle:
		r.set(!r.open)
	}
}

// Open reports whether the host is shown.
func (r *Reveal) Open() bool {
	return r.open
}

// Toggles returns how many state changes the instance has made. Changes
// picked up from the state attribute are not counted.
func (r *Reveal) Toggles() int {
	return r.toggles
}

// Delay returns the configured delay.
func (r *Reveal) Delay() time.Duration {
	return r.cfg.Delay
}

func (r *Reveal) set(open bool) {
	if open == r.open {
		return
	}
	r.open = open
	r.toggles++

	if r.isDialog() {
		if open {
			r.el.SetAttribute("open", "")
		} else {
			r.el.RemoveAttribute("open")
		}
	} else {
		if open {
			r.el.RemoveAttribute("hidden")
		} else {
			r.el.SetAttribute("hidden", "")
		}
	}
	r.changed()
}

// sync adopts the state the host's attributes describe.
func (r *Reveal) sync() {
	var open bool
	if r.isDialog() {
		open = r.el.HasAttribute("open")
	} else {
		open = !r.el.HasAttribute("hidden")
	}
	if open == r.open {
		return
	}
	r.open = open
	r.changed()
}

func (r *Reveal) changed() {
	r.el.SetAttribute("data-reveal", state(r.open))

	ev := dom.NewEvent(EventChange)
	ev.Bubbles = true
	ev.Detail = r.open
	r.el.DispatchEvent(ev)
}

func (r *Reveal) isDialog() bool {
	return r.el.TagName() == "dialog"
}

func (r *Reveal) applyDelay() {
	if r.cfg.Delay > 0 {
		r.el.SetAttribute("data-reveal-delay", r.cfg.Delay.String())
	} else {
		r.el.RemoveAttribute("data-reveal-delay")
	}
}

func state(open bool) string {
	if open {
		return "open"
	}
	return "closed"
}
