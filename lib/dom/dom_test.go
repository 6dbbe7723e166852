package dom

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

// recorder is a CustomElement that records its reactions.
type recorder struct {
	el    *Element
	calls []string
}

func (r *recorder) ConnectedCallback()    { r.calls = append(r.calls, "connected") }
func (r *recorder) DisconnectedCallback() { r.calls = append(r.calls, "disconnected") }
func (r *recorder) AttributeChangedCallback(name, oldValue, newValue string) {
	r.calls = append(r.calls, "attr:"+name+":"+oldValue+"->"+newValue)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func defineRecorder(t *testing.T, d *Document, name, extends string, observed ...string) map[*Element]*recorder {
	t.Helper()
	instances := make(map[*Element]*recorder)
	err := d.CustomElements().Define(ElementDefinition{
		Name:               name,
		Extends:            extends,
		ObservedAttributes: observed,
		Constructor: func(el *Element) CustomElement {
			r := &recorder{el: el}
			instances[el] = r
			return r
		},
	})
	if err != nil {
		t.Fatalf("Define(%q) error = %v", name, err)
	}
	return instances
}

func mustParse(t *testing.T, markup string) *Document {
	t.Helper()
	d, err := ParseString(markup, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	return d
}

func TestParseAndRender(t *testing.T) {
	d := mustParse(t, `<html><body><dialog id="d" behavior="reveal">hi</dialog></body></html>`)

	el := d.GetElementByID("d")
	if el == nil {
		t.Fatal("GetElementByID() returned nil")
	}
	if el.TagName() != "dialog" {
		t.Errorf("TagName() = %q, want %q", el.TagName(), "dialog")
	}
	if got := el.Attribute("behavior"); got != "reveal" {
		t.Errorf("Attribute(behavior) = %q, want %q", got, "reveal")
	}
	if !strings.Contains(d.String(), `<dialog id="d" behavior="reveal">hi</dialog>`) {
		t.Errorf("String() = %s", d.String())
	}
}

func TestParseFragment(t *testing.T) {
	d, err := ParseFragment(strings.NewReader(`<div id="a"></div><p>text</p>`))
	if err != nil {
		t.Fatalf("ParseFragment() error = %v", err)
	}
	if !d.IsFragment() {
		t.Error("IsFragment() = false, want true")
	}
	if got := d.String(); got != `<div id="a"></div><p>text</p>` {
		t.Errorf("String() = %q", got)
	}
	if d.GetElementByID("a") == nil {
		t.Error("fragment element should be connected")
	}
}

func TestParseFragmentContext(t *testing.T) {
	tests := []struct {
		markup string
		id     string
	}{
		{`<tr id="r"><td>a</td></tr>`, "r"},
		{`<td id="c">a</td><th>b</th>`, "c"},
		{`<tbody id="b"><tr><td>a</td></tr></tbody>`, "b"},
		{`<option id="o" value="1">One</option>`, "o"},
		{`<!-- row --><tr id="r"><td>a</td></tr>`, "r"},
	}
	for _, tt := range tests {
		d, err := ParseFragment(strings.NewReader(tt.markup))
		if err != nil {
			t.Fatalf("ParseFragment(%q) error = %v", tt.markup, err)
		}
		if got := d.String(); got != tt.markup {
			t.Errorf("ParseFragment(%q).String() = %q", tt.markup, got)
		}
		if d.GetElementByID(tt.id) == nil {
			t.Errorf("ParseFragment(%q): #%s not found", tt.markup, tt.id)
		}
	}
}

func TestDefineUpgradesParsedElements(t *testing.T) {
	d := mustParse(t, `<body><dialog id="d" is="x-dialog" data-x="1"></dialog><div is="x-dialog"></div></body>`)
	instances := defineRecorder(t, d, "x-dialog", "dialog", "data-x")

	el := d.GetElementByID("d")
	r, ok := instances[el]
	if !ok {
		t.Fatal("dialog was not upgraded")
	}
	want := []string{"attr:data-x:->1", "connected"}
	if strings.Join(r.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", r.calls, want)
	}
	if len(instances) != 1 {
		t.Errorf("upgraded %d elements, want 1 (div must not match a dialog extension)", len(instances))
	}
}

func TestDefineRejectsDuplicatesAndBadNames(t *testing.T) {
	d := NewDocument(WithLogger(quietLogger()))
	defineRecorder(t, d, "x-one", "div")

	err := d.CustomElements().Define(ElementDefinition{Name: "x-one", Constructor: func(*Element) CustomElement { return &recorder{} }})
	if !errors.Is(err, ErrAlreadyDefined) {
		t.Errorf("Define(duplicate) error = %v, want ErrAlreadyDefined", err)
	}

	err = d.CustomElements().Define(ElementDefinition{Name: "nohyphen", Constructor: func(*Element) CustomElement { return &recorder{} }})
	if !errors.Is(err, ErrInvalidName) {
		t.Errorf("Define(nohyphen) error = %v, want ErrInvalidName", err)
	}
}

func TestExtendAddsTag(t *testing.T) {
	d := mustParse(t, `<body><div id="a" is="x-panel"></div><section id="b" is="x-panel"></section></body>`)
	instances := defineRecorder(t, d, "x-panel", "div")

	if len(instances) != 1 {
		t.Fatalf("upgraded %d elements before Extend, want 1", len(instances))
	}

	added, err := d.CustomElements().Extend("x-panel", "SECTION")
	if err != nil || !added {
		t.Fatalf("Extend() = %v, %v, want true, nil", added, err)
	}
	r, ok := instances[d.GetElementByID("b")]
	if !ok {
		t.Fatal("section was not upgraded by Extend")
	}
	if strings.Join(r.calls, ",") != "connected" {
		t.Errorf("section calls = %v, want [connected]", r.calls)
	}

	def, _ := d.CustomElements().Get("x-panel")
	if got := strings.Join(def.Tags(), ","); got != "div,section" {
		t.Errorf("Tags() = %q, want div,section", got)
	}

	if added, err := d.CustomElements().Extend("x-panel", "div"); added || err != nil {
		t.Errorf("Extend(existing tag) = %v, %v, want false, nil", added, err)
	}
	if _, err := d.CustomElements().Extend("x-missing", "div"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Extend(undefined) error = %v, want ErrNotFound", err)
	}

	// Elements created later under the new tag upgrade on connect.
	p := d.CreateElement("section", WithIs("x-panel"))
	d.Body().AppendChild(p)
	if _, ok := instances[p]; !ok {
		t.Error("section created after Extend was not upgraded")
	}
}

func TestIsValueFixedAtCreation(t *testing.T) {
	d := NewDocument(WithLogger(quietLogger()))
	instances := defineRecorder(t, d, "x-box", "div")

	late := d.CreateElement("div")
	late.SetAttribute("is", "x-box")
	if err := d.Body().AppendChild(late); err != nil {
		t.Fatalf("AppendChild() error = %v", err)
	}
	if late.Upgraded() != nil {
		t.Error("setting is after creation must not upgrade")
	}

	early := d.CreateElement("div", WithIs("x-box"))
	if early.Upgraded() == nil {
		t.Fatal("CreateElement(WithIs) should construct immediately")
	}
	if err := d.Body().AppendChild(early); err != nil {
		t.Fatalf("AppendChild() error = %v", err)
	}
	if got := instances[early].calls; len(got) != 1 || got[0] != "connected" {
		t.Errorf("calls = %v, want [connected]", got)
	}
}

func TestConnectDisconnectReactions(t *testing.T) {
	d := NewDocument(WithLogger(quietLogger()))
	instances := defineRecorder(t, d, "x-box", "div", "title")

	wrapper := d.CreateElement("section")
	el := d.CreateElement("div", WithIs("x-box"))
	_ = wrapper.AppendChild(el)
	if len(instances[el].calls) != 0 {
		t.Fatalf("no reactions expected while detached, got %v", instances[el].calls)
	}

	_ = d.Body().AppendChild(wrapper)
	el.SetAttribute("title", "a")
	el.SetAttribute("other", "ignored")
	wrapper.Remove()
	_ = d.Body().AppendChild(wrapper)

	want := "connected,attr:title:->a,disconnected,connected"
	if got := strings.Join(instances[el].calls, ","); got != want {
		t.Errorf("calls = %s, want %s", got, want)
	}
}

func TestReplaceChild(t *testing.T) {
	d := NewDocument(WithLogger(quietLogger()))
	instances := defineRecorder(t, d, "x-box", "div")

	old := d.CreateElement("div", WithIs("x-box"))
	_ = d.Body().AppendChild(old)
	repl := d.CreateElement("div", WithIs("x-box"))

	if err := old.ReplaceWith(repl); err != nil {
		t.Fatalf("ReplaceWith() error = %v", err)
	}
	if old.IsConnected() || !repl.IsConnected() {
		t.Error("replacement did not swap connectivity")
	}
	if got := strings.Join(instances[old].calls, ","); got != "connected,disconnected" {
		t.Errorf("old calls = %s", got)
	}
	if got := strings.Join(instances[repl].calls, ","); got != "connected" {
		t.Errorf("new calls = %s", got)
	}

	detached := d.CreateElement("div")
	if err := detached.ReplaceWith(d.CreateElement("p")); !errors.Is(err, ErrNoParent) {
		t.Errorf("ReplaceWith(detached) error = %v, want ErrNoParent", err)
	}
}

func TestInsertHierarchyError(t *testing.T) {
	d := NewDocument(WithLogger(quietLogger()))
	outer := d.CreateElement("div")
	inner := d.CreateElement("div")
	_ = outer.AppendChild(inner)

	if err := inner.AppendChild(outer); !errors.Is(err, ErrHierarchy) {
		t.Errorf("AppendChild(ancestor) error = %v, want ErrHierarchy", err)
	}
}

func TestMoveChildrenTo(t *testing.T) {
	d := mustParse(t, `<body><div id="src">a<span id="s"></span>b</div><div id="dst"></div></body>`)
	src, dst := d.GetElementByID("src"), d.GetElementByID("dst")

	if err := src.MoveChildrenTo(dst); err != nil {
		t.Fatalf("MoveChildrenTo() error = %v", err)
	}
	if src.TextContent() != "" || len(src.Children()) != 0 {
		t.Error("source should be empty")
	}
	if dst.TextContent() != "ab" {
		t.Errorf("dst TextContent() = %q, want %q", dst.TextContent(), "ab")
	}
	if d.GetElementByID("s").Parent() != dst {
		t.Error("span should now be a child of dst")
	}
}

func TestEventBubblingAndOrder(t *testing.T) {
	d := mustParse(t, `<body><div id="outer"><button id="b"></button></div></body>`)
	outer, b := d.GetElementByID("outer"), d.GetElementByID("b")

	var order []string
	b.AddEventListener("click", func(ev *Event) { order = append(order, "b1") })
	b.AddEventListener("click", func(ev *Event) { order = append(order, "b2") })
	outer.AddEventListener("click", func(ev *Event) {
		if ev.Target() != b || ev.CurrentTarget() != outer {
			t.Error("unexpected target/currentTarget")
		}
		order = append(order, "outer")
	})

	b.Click()
	if got := strings.Join(order, ","); got != "b1,b2,outer" {
		t.Errorf("order = %s, want b1,b2,outer", got)
	}
}

func TestEventListenerPanicIsolated(t *testing.T) {
	var logs bytes.Buffer
	d, _ := ParseString(`<body><div id="x"></div></body>`, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	x := d.GetElementByID("x")

	ran := false
	x.AddEventListener("ping", func(*Event) { panic("boom") })
	x.AddEventListener("ping", func(*Event) { ran = true })
	x.DispatchEvent(NewEvent("ping"))

	if !ran {
		t.Error("second listener should run after first panics")
	}
	if !strings.Contains(logs.String(), "uncaught exception") {
		t.Errorf("panic should be reported, logs = %s", logs.String())
	}
}

func TestRemoveListenerDuringDispatch(t *testing.T) {
	d := mustParse(t, `<body><div id="x"></div></body>`)
	x := d.GetElementByID("x")

	var second *Listener
	calls := 0
	x.AddEventListener("ping", func(*Event) { x.RemoveEventListener(second) })
	second = x.AddEventListener("ping", func(*Event) { calls++ })

	x.DispatchEvent(NewEvent("ping"))
	if calls != 0 {
		t.Errorf("removed listener ran %d times", calls)
	}
	if x.ListenerCount("ping") != 1 {
		t.Errorf("ListenerCount() = %d, want 1", x.ListenerCount("ping"))
	}
}

func TestInvokerDispatchesCommand(t *testing.T) {
	d := mustParse(t, `<body><button id="t" commandfor="panel" command="--toggle"></button><div id="panel"></div></body>`)
	trigger, panel := d.GetElementByID("t"), d.GetElementByID("panel")

	var got *Event
	panel.AddEventListener(EventCommand, func(ev *Event) { got = ev })

	trigger.Click()
	if got == nil {
		t.Fatal("command event not delivered")
	}
	if got.Command != "--toggle" {
		t.Errorf("Command = %q, want %q", got.Command, "--toggle")
	}
	if got.Source != trigger {
		t.Error("Source should be the invoker")
	}
	if got.Bubbles {
		t.Error("command events do not bubble")
	}
}

func TestInvokerClickPrevented(t *testing.T) {
	d := mustParse(t, `<body><button id="t" commandfor="panel" command="--x"></button><div id="panel"></div></body>`)
	trigger, panel := d.GetElementByID("t"), d.GetElementByID("panel")

	delivered := false
	panel.AddEventListener(EventCommand, func(*Event) { delivered = true })
	trigger.AddEventListener(EventClick, func(ev *Event) { ev.PreventDefault() })

	if trigger.Click() {
		t.Error("Click() = true, want false when prevented")
	}
	if delivered {
		t.Error("command must not be invoked when click is prevented")
	}
}

func TestDialogBuiltinCommands(t *testing.T) {
	d := mustParse(t, `<body><button id="open" commandfor="dlg" command="show-modal"></button><button id="close" commandfor="dlg" command="close"></button><dialog id="dlg"></dialog></body>`)
	dlg := d.GetElementByID("dlg")

	d.GetElementByID("open").Click()
	if !dlg.HasAttribute("open") {
		t.Error("show-modal should open the dialog")
	}
	d.GetElementByID("close").Click()
	if dlg.HasAttribute("open") {
		t.Error("close should close the dialog")
	}

	dlg.AddEventListener(EventCommand, func(ev *Event) { ev.PreventDefault() })
	d.GetElementByID("open").Click()
	if dlg.HasAttribute("open") {
		t.Error("canceled command must not run the built-in action")
	}
}

func TestMutationObserverDelivery(t *testing.T) {
	d := mustParse(t, `<body><div id="root"></div></body>`)
	root := d.GetElementByID("root")

	var batches [][]MutationRecord
	o := d.NewMutationObserver(func(records []MutationRecord, _ *MutationObserver) {
		batches = append(batches, records)
	})
	o.Observe(d.Body(), ObserveOptions{ChildList: true, Subtree: true})

	a := d.CreateElement("p")
	_ = root.AppendChild(a)
	b := d.CreateElement("p")
	_ = root.AppendChild(b)
	a.SetAttribute("title", "ignored without Attributes option")

	if len(batches) != 2 {
		t.Fatalf("got %d batches, want 2", len(batches))
	}
	if batches[0][0].AddedNodes[0] != a || batches[1][0].AddedNodes[0] != b {
		t.Error("records out of order")
	}

	o.Disconnect()
	_ = root.AppendChild(d.CreateElement("p"))
	if len(batches) != 2 {
		t.Error("disconnected observer should not receive records")
	}
}

func TestMutationObserverReentrant(t *testing.T) {
	d := mustParse(t, `<body></body>`)

	var seen []string
	o := d.NewMutationObserver(func(records []MutationRecord, _ *MutationObserver) {
		for _, rec := range records {
			for _, n := range rec.AddedNodes {
				seen = append(seen, n.TagName())
				if n.TagName() == "div" {
					_ = d.Body().AppendChild(d.CreateElement("span"))
				}
			}
		}
	})
	o.Observe(d.Body(), ObserveOptions{ChildList: true})

	_ = d.Body().AppendChild(d.CreateElement("div"))
	if got := strings.Join(seen, ","); got != "div,span" {
		t.Errorf("seen = %s, want div,span", got)
	}
}

func TestValidCustomElementName(t *testing.T) {
	tests := []struct {
		name   string
		expect bool
	}{
		{"behavioral-logger-reveal", true},
		{"x-a", true},
		{"nohyphen", false},
		{"Upper-case", false},
		{"font-face", false},
		{"-leading", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidCustomElementName(tt.name); got != tt.expect {
				t.Errorf("ValidCustomElementName(%q) = %v, want %v", tt.name, got, tt.expect)
			}
		})
	}
}
