package main

import (
	"context"
	"html"
	"io"
	"strconv"

	"github.com/a-h/templ"
	"github.com/pthm/behavioral"
)

type faq struct {
	Question string
	Answer   string
}

var faqs = []faq{
	{"What is a behavior?", "A named piece of client logic attached through the behavior attribute."},
	{"Can an element have several?", "Yes. List them separated by spaces; each gets its own instance."},
	{"What happens to unknown names?", "They are logged and skipped. The other behaviors still run."},
}

func lookupFAQ(index string) (faq, bool) {
	i, err := strconv.Atoi(index)
	if err != nil || i < 0 || i >= len(faqs) {
		return faq{}, false
	}
	return faqs[i], true
}

func text(s string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, html.EscapeString(s))
		return err
	})
}

func raw(s string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	})
}

func group(children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, c := range children {
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
}

// entry renders one question with its toggle button and a hidden answer.
// The answer carries only the behavior attribute.
func entry(rt *behavioral.Runtime, e faq) templ.Component {
	id := behavioral.NewHostID("answer")

	trigger, err := rt.PayloadTriggerAttrs(id, "--toggle", map[string]any{"question": e.Question})
	if err != nil {
		trigger = behavioral.TriggerAttrs(id, "--toggle")
	}
	trigger["type"] = "button"

	answer := templ.Attributes{
		"id":            id,
		"behavior":      "reveal logger",
		"hidden":        true,
		"reveal-delay":  "150ms",
		"logger-events": "command reveal-change",
		"logger-level":  "debug",
	}

	return behavioral.HostElement("section", templ.Attributes{"class": "faq"}, group(
		behavioral.HostElement("button", trigger, text(e.Question)),
		behavioral.HostElement("div", answer, text(e.Answer)),
	))
}

// page renders the full FAQ document. The dialog is stamped up front with
// HostAttrs; the answers are left for the middleware.
func page(rt *behavioral.Runtime, entries []faq) templ.Component {
	items := make([]templ.Component, 0, len(entries))
	for _, e := range entries {
		items = append(items, entry(rt, e))
	}

	dialogAttrs := behavioral.HostAttrs("reveal")
	dialogAttrs["id"] = "help"

	return group(
		raw("<!DOCTYPE html><html><head><title>FAQ</title></head><body><h1>FAQ</h1>"),
		group(items...),
		behavioral.HostElement("button", behavioral.TriggerAttrs("help", "--show"), text("Help")),
		behavioral.HostElement("dialog", dialogAttrs, group(
			text("Click a question to reveal its answer."),
			behavioral.HostElement("button", behavioral.TriggerAttrs("help", "--hide"), text("Close")),
		)),
		raw("</body></html>"),
	)
}
