package behavioral

import (
	"fmt"
	"strings"

	"github.com/pthm/behavioral/lib/dom"
)

// PayloadAttr carries an encoded payload on an invoker. The host decodes it
// once per command event.
const PayloadAttr = "data-command-payload"

// ValidCommand reports whether token is a custom command: a "--" prefix
// followed by at least one character and no whitespace.
func ValidCommand(token string) bool {
	return len(token) > 2 &&
		strings.HasPrefix(token, "--") &&
		!strings.ContainsAny(token, " \t\n\r\f")
}

// CommandEvent is what a CommandHandler receives when an invoker targets its
// host.
type CommandEvent struct {
	// Command is the token from the invoker's command attribute.
	Command string
	// Source is the invoker, or nil for a programmatic Invoke.
	Source *dom.Element
	// Target is the host element.
	Target *dom.Element
	// Payload is the decoded payload, nil if none was supplied.
	Payload map[string]any
	// Event is the underlying platform event.
	Event *dom.Event
}

// PreventDefault cancels the command's built-in action, if any.
func (c *CommandEvent) PreventDefault() {
	c.Event.PreventDefault()
}

// String returns a payload field as a string, or "" when absent.
func (c *CommandEvent) String(key string) string {
	v, ok := c.Payload[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Invoke delivers command to the element with id targetID, exactly as if an
// invoker had been activated. The call is fire-and-forget: it reports only
// whether an event was dispatched, never whether anything handled it.
func (rt *Runtime) Invoke(doc *dom.Document, targetID, command string, payload map[string]any) error {
	if !ValidCommand(command) {
		return fmt.Errorf("%w: %q", ErrInvalidCommand, command)
	}
	target := doc.GetElementByID(targetID)
	if target == nil {
		return fmt.Errorf("behavioral: invoke %s: %w: #%s", command, dom.ErrNotFound, targetID)
	}

	ev := dom.NewCommandEvent(command, nil)
	ev.Detail = payload
	target.DispatchEvent(ev)
	return nil
}

// EncodePayload encodes payload for a PayloadAttr on an invoker of command.
// The value only decodes for that command.
func (rt *Runtime) EncodePayload(command string, payload map[string]any) (string, error) {
	return rt.encoder.Seal(command, payload, rt.mode)
}

// DecodePayload verifies and decodes a PayloadAttr value issued for command.
func (rt *Runtime) DecodePayload(command, encoded string) (map[string]any, error) {
	payload, _, err := rt.encoder.Open(command, encoded)
	return payload, wrapPayloadError(err)
}

// commandEvent builds the CommandEvent for ev at host element target. A
// programmatic payload in ev.Detail wins over the invoker's attribute; an
// attribute that fails verification is dropped with a warning.
func (rt *Runtime) commandEvent(target *dom.Element, ev *dom.Event) *CommandEvent {
	cmd := &CommandEvent{
		Command: ev.Command,
		Source:  ev.Source,
		Target:  target,
		Event:   ev,
	}

	if payload, ok := ev.Detail.(map[string]any); ok {
		cmd.Payload = payload
		return cmd
	}
	if ev.Source == nil {
		return cmd
	}

	raw, ok := ev.Source.GetAttribute(PayloadAttr)
	if !ok || raw == "" {
		return cmd
	}
	payload, err := rt.DecodePayload(ev.Command, raw)
	if err != nil {
		rt.logger.Warn("behavioral: command payload rejected",
			"command", ev.Command,
			"source", ev.Source.String(),
			"error", err)
		return cmd
	}
	cmd.Payload = payload
	return cmd
}
