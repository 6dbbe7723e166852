package reveal_test

import (
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/pthm/behavioral"
	"github.com/pthm/behavioral/behaviors/logger"
	"github.com/pthm/behavioral/behaviors/reveal"
	"github.com/pthm/behavioral/lib/dom"
)

func newRegistry() *behavioral.Registry {
	reg := behavioral.NewRegistry()
	reg.Add(reveal.Entry(), logger.Entry())
	return reg
}

func revealOf(t *testing.T, el *dom.Element) *reveal.Reveal {
	t.Helper()
	h, ok := behavioral.HostOf(el)
	if !ok {
		t.Fatalf("%s is not a host", el)
	}
	b, ok := h.Behavior("reveal")
	if !ok {
		t.Fatalf("reveal not active on %s", el)
	}
	return b.(*reveal.Reveal)
}

func TestDefinition(t *testing.T) {
	if got := reveal.Definition.AttributeNames(); !slices.Equal(got, []string{"hidden", "open", "reveal-delay"}) {
		t.Errorf("AttributeNames() = %v", got)
	}
	want := map[string]string{"--show": "--show", "--hide": "--hide", "--toggle": "--toggle"}
	got := reveal.Definition.Commands()
	if len(got) != len(want) {
		t.Fatalf("Commands() = %v", got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Commands()[%q] = %q, want %q", k, got[k], v)
		}
	}
}

// TestDialogToggleWithLogger wires reveal and logger onto a dialog host by
// hand and sends --toggle.
func TestDialogToggleWithLogger(t *testing.T) {
	logs := behavioral.NewLogRecorder()
	console := slog.New(logs)
	rt := behavioral.New(newRegistry(), behavioral.WithLogger(console))
	doc := dom.NewDocument(dom.WithLogger(console))

	hostName, err := rt.DefineHostFor(doc, "dialog", []string{"reveal", "logger"})
	if err != nil {
		t.Fatalf("DefineHostFor: %v", err)
	}
	if hostName != "behavioral-logger-reveal" {
		t.Fatalf("host name = %q", hostName)
	}

	dialog := doc.CreateElement("dialog", dom.WithIs(hostName))
	dialog.SetAttribute("id", "d")
	dialog.SetAttribute("behavior", "reveal logger")
	dialog.SetAttribute("is", hostName)
	if err := doc.Body().AppendChild(dialog); err != nil {
		t.Fatalf("AppendChild: %v", err)
	}

	r := revealOf(t, dialog)
	if r.Open() {
		t.Fatal("dialog without open should start closed")
	}

	if err := rt.Invoke(doc, "d", reveal.CommandToggle, nil); err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	if !r.Open() || r.Toggles() != 1 {
		t.Errorf("Open() = %v, Toggles() = %d, want open after one toggle", r.Open(), r.Toggles())
	}
	if !dialog.HasAttribute("open") {
		t.Error("dialog missing open attribute")
	}

	h, _ := behavioral.HostOf(dialog)
	b, _ := h.Behavior("logger")
	if seen := b.(*logger.Logger).Seen(); !slices.Contains(seen, "command --toggle") {
		t.Errorf("logger saw %v, want the command", seen)
	}
	if n := logs.Count(slog.LevelError); n != 0 {
		t.Errorf("errors logged: %v", logs.Messages(slog.LevelError))
	}
}

func TestDialogBuiltinCommandsResync(t *testing.T) {
	td, err := behavioral.TestMount(newRegistry(), `<html><body>
		<dialog id="d" behavior="reveal">Help</dialog>
		<button id="show" commandfor="d" command="show-modal">Show</button>
		<button id="close" commandfor="d" command="close">Close</button>
		<button id="toggle" commandfor="d" command="--toggle">Toggle</button>
	</body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	defer td.Stop()

	changes := 0
	td.Doc.Body().AddEventListener(reveal.EventChange, func(*dom.Event) { changes++ })

	d := td.ByID("d")
	r := revealOf(t, d)

	td.Click("show")
	if !d.HasAttribute("open") || !r.Open() || d.Attribute("data-reveal") != "open" {
		t.Fatalf("after show-modal: open attr = %v, Open() = %v", d.HasAttribute("open"), r.Open())
	}

	td.Click("toggle")
	if d.HasAttribute("open") || r.Open() {
		t.Error("--toggle after show-modal should close the dialog")
	}

	td.Click("show")
	td.Click("close")
	if r.Open() || d.Attribute("data-reveal") != "closed" {
		t.Errorf("after close: Open() = %v, data-reveal = %q", r.Open(), d.Attribute("data-reveal"))
	}

	if r.Toggles() != 1 {
		t.Errorf("Toggles() = %d, want 1 (built-in changes are not counted)", r.Toggles())
	}
	if changes != 4 {
		t.Errorf("reveal-change events = %d, want 4", changes)
	}
}

func TestInvokerToggle(t *testing.T) {
	td, err := behavioral.TestMount(newRegistry(), `<html><body>
		<div id="faq" behavior="reveal" hidden>Answers</div>
		<button id="btn" commandfor="faq" command="--toggle">FAQ</button>
	</body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	defer td.Stop()

	faq := td.ByID("faq")
	r := revealOf(t, faq)
	if r.Open() || faq.Attribute("data-reveal") != "closed" {
		t.Fatal("hidden element should start closed")
	}

	td.Click("btn")
	if !r.Open() || faq.HasAttribute("hidden") {
		t.Error("first click should show")
	}
	td.Click("btn")
	if r.Open() || !faq.HasAttribute("hidden") {
		t.Error("second click should hide")
	}
	if r.Toggles() != 2 {
		t.Errorf("Toggles() = %d, want 2", r.Toggles())
	}
}

func TestShowHideIdempotent(t *testing.T) {
	td, err := behavioral.TestMount(newRegistry(), `<html><body><div id="p" behavior="reveal"></div></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	defer td.Stop()

	changes := 0
	td.Doc.Body().AddEventListener(reveal.EventChange, func(*dom.Event) { changes++ })

	td.Invoke("p", reveal.CommandShow, nil)
	td.Invoke("p", reveal.CommandHide, nil)
	td.Invoke("p", reveal.CommandHide, nil)
	td.Invoke("p", "--unknown", nil)

	if changes != 1 {
		t.Errorf("reveal-change events = %d, want 1", changes)
	}
}

func TestEscapeHides(t *testing.T) {
	td, err := behavioral.TestMount(newRegistry(), `<html><body><div id="p" behavior="reveal"></div></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	defer td.Stop()

	ev := dom.NewEvent("keydown")
	ev.Detail = "Escape"
	td.ByID("p").DispatchEvent(ev)

	if revealOf(t, td.ByID("p")).Open() {
		t.Error("Escape should hide")
	}
}

func TestDelayAttribute(t *testing.T) {
	td, err := behavioral.TestMount(newRegistry(), `<html><body><div id="p" behavior="reveal" reveal-delay="150ms"></div></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	defer td.Stop()

	el := td.ByID("p")
	r := revealOf(t, el)
	if r.Delay() != 150*time.Millisecond || el.Attribute("data-reveal-delay") != "150ms" {
		t.Errorf("Delay() = %v, data-reveal-delay = %q", r.Delay(), el.Attribute("data-reveal-delay"))
	}

	el.SetAttribute("reveal-delay", "1s")
	if r.Delay() != time.Second {
		t.Errorf("Delay() after change = %v, want 1s", r.Delay())
	}
}

func TestInvalidDelayIsolated(t *testing.T) {
	td, err := behavioral.TestMount(newRegistry(), `<html><body><div id="p" behavior="reveal logger" reveal-delay="soon"></div></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	defer td.Stop()

	h, ok := td.Host("p")
	if !ok {
		t.Fatal("not a host")
	}
	if got := h.Active(); !slices.Equal(got, []string{"logger"}) {
		t.Errorf("Active() = %v, want only logger", got)
	}
	if !td.Logs.Has(slog.LevelError, "behavioral: behavior failed", "behavior", "reveal") {
		t.Error("missing factory failure log")
	}
}
