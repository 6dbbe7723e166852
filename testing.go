package behavioral

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/pthm/behavioral/lib/dom"
)

// TestDocument is a document mounted with the auto-loader running, for
// exercising behaviors without a browser.
//
// Provides convenience methods for activating invokers, sending commands
// and asserting on the rendered markup.
type TestDocument struct {
	Doc     *dom.Document
	Runtime *Runtime
	Logs    *LogRecorder

	stop func()
}

// TestMount parses markup as a complete document and enables the
// auto-loader on it. Everything the runtime and document log is captured in
// the returned document's Logs.
//
//	reg := behavioral.NewRegistry()
//	reg.Register(reveal.Definition, reveal.New)
//	td, err := behavioral.TestMount(reg, `<div id="p" behavior="reveal"></div>`)
//	td.Invoke("p", "--toggle", nil)
func TestMount(reg *Registry, markup string, opts ...Option) (*TestDocument, error) {
	logs := NewLogRecorder()
	logger := slog.New(logs)

	rt := New(reg, append([]Option{WithLogger(logger)}, opts...)...)
	doc, err := dom.ParseString(markup, dom.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	return &TestDocument{
		Doc:     doc,
		Runtime: rt,
		Logs:    logs,
		stop:    rt.EnableAutoLoader(doc),
	}, nil
}

// Stop disconnects the auto-loader.
func (td *TestDocument) Stop() {
	td.stop()
}

// ByID returns the connected element with the given id, or nil.
func (td *TestDocument) ByID(id string) *dom.Element {
	return td.Doc.GetElementByID(id)
}

// Host returns the behavioral host with the given id.
func (td *TestDocument) Host(id string) (*Host, bool) {
	el := td.ByID(id)
	if el == nil {
		return nil, false
	}
	return HostOf(el)
}

// Click clicks the element with the given id and reports whether it was
// found.
func (td *TestDocument) Click(id string) bool {
	el := td.ByID(id)
	if el == nil {
		return false
	}
	el.Click()
	return true
}

// Invoke sends command to the element with the given id.
func (td *TestDocument) Invoke(id, command string, payload map[string]any) error {
	return td.Runtime.Invoke(td.Doc, id, command, payload)
}

// Append parses markup as a fragment and appends its elements to the
// element with id parentID, as a dynamic insertion would.
func (td *TestDocument) Append(parentID, markup string) error {
	parent := td.ByID(parentID)
	if parent == nil {
		return dom.ErrNotFound
	}
	frag, err := dom.ParseFragment(strings.NewReader(markup))
	if err != nil {
		return err
	}
	for _, n := range fragmentNodes(frag) {
		if err := parent.AppendChild(td.build(n.Node())); err != nil {
			return err
		}
	}
	return nil
}

// build recreates the element tree rooted at n inside the mounted document.
// The subtree is assembled detached and inserted in one operation. Elements
// keep the is value they were parsed with, as the parser would create them.
func (td *TestDocument) build(n *html.Node) *dom.Element {
	var opts []dom.CreateOption
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == IsAttr {
			opts = append(opts, dom.WithIs(attr.Val))
		}
	}
	el := td.Doc.CreateElement(n.Data, opts...)
	for _, attr := range n.Attr {
		el.SetAttribute(attr.Key, attr.Val)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			el.AppendText(c.Data)
		case html.ElementNode:
			_ = el.AppendChild(td.build(c))
		}
	}
	return el
}

// HTML renders the document.
func (td *TestDocument) HTML() string {
	return td.Doc.String()
}

// HTMLContains checks if the rendered document contains the substring.
func (td *TestDocument) HTMLContains(substr string) bool {
	return strings.Contains(td.HTML(), substr)
}

func fragmentNodes(frag *dom.Document) []*dom.Element {
	body := frag.Body()
	if body == nil {
		return nil
	}
	return body.Children()
}

// TestResult holds the result of serving a request through the runtime's
// middleware.
type TestResult struct {
	HTML       string
	StatusCode int
	Headers    http.Header
}

// TestServe runs a GET request for path through rt.Middleware(handler).
// Set partial to send the request as an htmx partial.
func TestServe(rt *Runtime, handler http.Handler, path string, partial bool) *TestResult {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if partial {
		req.Header.Set("HX-Request", "true")
	}
	rec := httptest.NewRecorder()
	rt.Middleware(handler).ServeHTTP(rec, req)

	return &TestResult{
		HTML:       rec.Body.String(),
		StatusCode: rec.Code,
		Headers:    rec.Header(),
	}
}

// HTMLContains checks if the HTML output contains the substring.
func (r *TestResult) HTMLContains(substr string) bool {
	return strings.Contains(r.HTML, substr)
}

// IsOK returns true if status code is 200.
func (r *TestResult) IsOK() bool {
	return r.StatusCode == http.StatusOK
}

// LogRecorder is a slog.Handler that keeps every record it handles.
type LogRecorder struct {
	mu      *sync.Mutex
	records *[]slog.Record
	attrs   []slog.Attr
}

// NewLogRecorder returns an empty recorder.
func NewLogRecorder() *LogRecorder {
	return &LogRecorder{mu: &sync.Mutex{}, records: &[]slog.Record{}}
}

// Enabled reports true for every level.
func (l *LogRecorder) Enabled(context.Context, slog.Level) bool { return true }

// Handle stores r.
func (l *LogRecorder) Handle(_ context.Context, r slog.Record) error {
	r = r.Clone()
	r.AddAttrs(l.attrs...)
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.records = append(*l.records, r)
	return nil
}

// WithAttrs returns a recorder sharing storage that adds attrs to each record.
func (l *LogRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogRecorder{
		mu:      l.mu,
		records: l.records,
		attrs:   append(append([]slog.Attr(nil), l.attrs...), attrs...),
	}
}

// WithGroup is a no-op; groups are flattened.
func (l *LogRecorder) WithGroup(string) slog.Handler { return l }

// Records returns a copy of the recorded records.
func (l *LogRecorder) Records() []slog.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]slog.Record(nil), *l.records...)
}

// Count returns how many records were logged at level.
func (l *LogRecorder) Count(level slog.Level) int {
	n := 0
	for _, r := range l.Records() {
		if r.Level == level {
			n++
		}
	}
	return n
}

// Messages returns the messages logged at level, in order.
func (l *LogRecorder) Messages(level slog.Level) []string {
	var msgs []string
	for _, r := range l.Records() {
		if r.Level == level {
			msgs = append(msgs, r.Message)
		}
	}
	return msgs
}

// Has reports whether a record at level has message msg and, when key is
// non-empty, an attribute key whose value renders as value.
func (l *LogRecorder) Has(level slog.Level, msg, key, value string) bool {
	for _, r := range l.Records() {
		if r.Level != level || r.Message != msg {
			continue
		}
		if key == "" {
			return true
		}
		found := false
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == key && a.Value.String() == value {
				found = true
				return false
			}
			return true
		})
		if found {
			return true
		}
	}
	return false
}

// Reset discards all records.
func (l *LogRecorder) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.records = nil
}
