// Package logger logs the events and commands its host receives to the
// document's console. It defines no commands of its own.
//
//	<dialog behavior="reveal logger" logger-events="reveal-change click" logger-level="debug">
package logger

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pthm/behavioral"
	"github.com/pthm/behavioral/lib/dom"
)

// DefaultEvents are logged when logger-events is absent.
var DefaultEvents = []string{"click", "command"}

// Config is read from the host's attributes.
type Config struct {
	// Events is a space-separated list of event types to log.
	Events string `attr:"logger-events"`
	// Level is a slog level name such as "debug" or "warn".
	Level string `attr:"logger-level"`
}

// Definition is the logger behavior definition.
var Definition = behavioral.MustDefinition("logger", Config{}, nil)

// Entry returns the registry entry for logger, logging to each document's
// console.
func Entry() behavioral.Entry {
	return behavioral.Entry{Definition: Definition, Factory: New}
}

// Logger is the behavior instance for one host.
type Logger struct {
	el     *dom.Element
	log    *slog.Logger
	level  slog.Level
	events []string
	seen   []string
}

// New is the logger factory. It fails on an unknown logger-level.
func New(el *dom.Element) (behavioral.Behavior, error) {
	var cfg Config
	if err := behavioral.ReadAttributes(el, &cfg); err != nil {
		return nil, err
	}

	l := &Logger{
		el:     el,
		log:    el.Document().Logger().With("element", el.String()),
		level:  slog.LevelInfo,
		events: DefaultEvents,
	}
	if cfg.Level != "" {
		if err := l.level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, err
		}
	}
	if fields := strings.Fields(cfg.Events); len(fields) > 0 {
		l.events = fields
	}
	return l, nil
}

// Listeners logs every configured event type.
func (l *Logger) Listeners() []behavioral.Listener {
	listeners := make([]behavioral.Listener, 0, len(l.events))
	for _, typ := range l.events {
		if typ == dom.EventCommand {
			// Commands arrive through OnCommand with the decoded payload.
			continue
		}
		listeners = append(listeners, behavioral.On(typ, l.logEvent))
	}
	return listeners
}

// Connected logs the attach.
func (l *Logger) Connected() {
	l.record("connected")
	l.log.Log(context.Background(), l.level, "logger: connected")
}

// Disconnected logs the detach.
func (l *Logger) Disconnected() {
	l.record("disconnected")
	l.log.Log(context.Background(), l.level, "logger: disconnected")
}

// AttributeChanged logs every observed attribute change on the host.
func (l *Logger) AttributeChanged(name, oldValue, newValue string) {
	l.record("attribute " + name)
	l.log.Log(context.Background(), l.level, "logger: attribute changed", "attribute", name, "old", oldValue, "new", newValue)
}

// OnCommand logs the command, its source and payload keys.
func (l *Logger) OnCommand(cmd *behavioral.CommandEvent) {
	if !l.watches(dom.EventCommand) {
		return
	}
	l.record("command " + cmd.Command)

	attrs := []any{"command", cmd.Command}
	if cmd.Source != nil {
		attrs = append(attrs, "source", cmd.Source.String())
	}
	if len(cmd.Payload) > 0 {
		attrs = append(attrs, "payload", cmd.Payload)
	}
	l.log.Log(context.Background(), l.level, "logger: command", attrs...)
}

// Seen returns what the instance has observed, in order.
func (l *Logger) Seen() []string {
	return append([]string(nil), l.seen...)
}

func (l *Logger) logEvent(ev *dom.Event) {
	l.record("event " + ev.Type)
	attrs := []any{"event", ev.Type}
	if t := ev.Target(); t != nil && t != l.el {
		attrs = append(attrs, "target", t.String())
	}
	if ev.Detail != nil {
		attrs = append(attrs, "detail", ev.Detail)
	}
	l.log.Log(context.Background(), l.level, "logger: event", attrs...)
}

func (l *Logger) watches(typ string) bool {
	for _, e := range l.events {
		if e == typ {
			return true
		}
	}
	return false
}

func (l *Logger) record(s string) {
	l.seen = append(l.seen, s)
}
