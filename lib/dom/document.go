// Package dom models the slice of the browser platform the behavioral runtime
// runs against: an element tree, customized built-in elements, event
// dispatch, invoker commands and mutation observers.
//
// The tree is backed by golang.org/x/net/html nodes, so a Document can be
// parsed from markup and rendered back to it. Everything runs synchronously on
// the caller's goroutine; a Document is not safe for concurrent use.
//
// One platform rule is kept on purpose: an element's "is" value is fixed when
// the element is created (by the parser or by CreateElement with WithIs).
// Setting the is attribute afterwards changes the markup but never upgrades
// the element.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Option configures a Document.
type Option func(*Document)

// WithLogger sets the logger used as the document's console.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Document is a tree of elements with its own custom element registry and
// mutation observers.
type Document struct {
	root      *html.Node
	fragment  bool
	elements  map[*html.Node]*Element
	registry  *CustomElementRegistry
	observers []*MutationObserver
	logger    *slog.Logger

	depth    int
	flushing bool
}

// NewDocument creates an empty document with html, head and body elements.
func NewDocument(opts ...Option) *Document {
	root := &html.Node{Type: html.DocumentNode}
	htmlNode := &html.Node{Type: html.ElementNode, Data: "html", DataAtom: atom.Html}
	htmlNode.AppendChild(&html.Node{Type: html.ElementNode, Data: "head", DataAtom: atom.Head})
	htmlNode.AppendChild(&html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body})
	root.AppendChild(htmlNode)
	return newDocument(root, opts)
}

// Parse parses a complete HTML document.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	return newDocument(root, opts), nil
}

// ParseString parses a complete HTML document from a string.
func ParseString(s string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(s), opts...)
}

// ParseFragment parses markup as the contents of a body element. Rendering a
// fragment document writes only the body's children.
//
// Markup that starts with a table part or an option is parsed in the context
// of its required parent (tbody for tr, tr for td, select for option, and so
// on), so the parser keeps those elements instead of dropping their tags.
func ParseFragment(r io.Reader, opts ...Option) (*Document, error) {
	markup, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse fragment: %w", err)
	}
	d := NewDocument(opts...)
	body := d.Body()
	ctx := fragmentContext(markup)
	nodes, err := html.ParseFragment(bytes.NewReader(markup), &html.Node{Type: html.ElementNode, Data: ctx.String(), DataAtom: ctx})
	if err != nil {
		return nil, fmt.Errorf("dom: parse fragment: %w", err)
	}
	for _, n := range nodes {
		body.node.AppendChild(n)
		walkNodes(n, func(c *html.Node) {
			if c.Type == html.ElementNode {
				d.wrap(c)
			}
		})
	}
	d.fragment = true
	return d, nil
}

// fragmentContexts maps elements that only parse inside a specific parent to
// that parent.
var fragmentContexts = map[atom.Atom]atom.Atom{
	atom.Caption:  atom.Table,
	atom.Colgroup: atom.Table,
	atom.Thead:    atom.Table,
	atom.Tbody:    atom.Table,
	atom.Tfoot:    atom.Table,
	atom.Col:      atom.Colgroup,
	atom.Tr:       atom.Tbody,
	atom.Td:       atom.Tr,
	atom.Th:       atom.Tr,
	atom.Option:   atom.Select,
	atom.Optgroup: atom.Select,
}

// fragmentContext returns the context element for markup, chosen from its
// first start tag. It defaults to body.
func fragmentContext(markup []byte) atom.Atom {
	z := html.NewTokenizer(bytes.NewReader(markup))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return atom.Body
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if ctx, ok := fragmentContexts[atom.Lookup(name)]; ok {
				return ctx
			}
			return atom.Body
		}
	}
}

func newDocument(root *html.Node, opts []Option) *Document {
	d := &Document{
		root:     root,
		elements: make(map[*html.Node]*Element),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.registry = &CustomElementRegistry{doc: d, defs: make(map[string]*ElementDefinition)}
	walkNodes(root, func(n *html.Node) {
		if n.Type == html.ElementNode {
			d.wrap(n)
		}
	})
	return d
}

// Logger returns the document's console.
func (d *Document) Logger() *slog.Logger {
	return d.logger
}

// CustomElements returns the document's custom element registry.
func (d *Document) CustomElements() *CustomElementRegistry {
	return d.registry
}

// IsFragment reports whether the document was created by ParseFragment.
func (d *Document) IsFragment() bool {
	return d.fragment
}

// DocumentElement returns the root html element.
func (d *Document) DocumentElement() *Element {
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return d.wrap(c)
		}
	}
	return nil
}

// Head returns the head element, or nil.
func (d *Document) Head() *Element {
	return d.child("head")
}

// Body returns the body element, or nil.
func (d *Document) Body() *Element {
	return d.child("body")
}

func (d *Document) child(tag string) *Element {
	root := d.DocumentElement()
	if root == nil {
		return nil
	}
	for _, c := range root.Children() {
		if c.TagName() == tag {
			return c
		}
	}
	return nil
}

// CreateElement creates a detached element. If a custom element definition
// matches the tag and is value, the element is constructed immediately.
func (d *Document) CreateElement(tag string, opts ...CreateOption) *Element {
	var o createOptions
	for _, opt := range opts {
		opt(&o)
	}

	tag = strings.ToLower(tag)
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	el := &Element{doc: d, node: n, isValue: o.is}
	d.elements[n] = el

	if def := d.registry.lookup(el); def != nil {
		d.upgrade(el, def)
	}
	return el
}

// CreateOption configures CreateElement.
type CreateOption func(*createOptions)

type createOptions struct {
	is string
}

// WithIs sets the customized built-in name the element is created with.
func WithIs(name string) CreateOption {
	return func(o *createOptions) {
		o.is = name
	}
}

// GetElementByID returns the first connected element in tree order whose id
// attribute equals id.
func (d *Document) GetElementByID(id string) *Element {
	if id == "" {
		return nil
	}
	var found *Element
	d.Walk(func(el *Element) bool {
		if v, ok := el.GetAttribute("id"); ok && v == id {
			found = el
			return false
		}
		return true
	})
	return found
}

// Walk visits every connected element in tree order until fn returns false.
func (d *Document) Walk(fn func(*Element) bool) {
	root := d.DocumentElement()
	if root == nil {
		return
	}
	root.Walk(fn)
}

// Render writes the document as HTML. Fragment documents render only the
// body's children.
func (d *Document) Render(w io.Writer) error {
	if !d.fragment {
		return html.Render(w, d.root)
	}
	body := d.Body()
	if body == nil {
		return nil
	}
	for c := body.node.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(w, c); err != nil {
			return err
		}
	}
	return nil
}

// String renders the document to a string.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// wrap returns the Element for an element node, creating it on first use.
func (d *Document) wrap(n *html.Node) *Element {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	if el, ok := d.elements[n]; ok {
		return el
	}
	el := &Element{doc: d, node: n, isValue: nodeAttr(n, "is")}
	d.elements[n] = el
	return el
}

// mutate runs fn as one DOM operation. Mutation records queued by the
// outermost operation are delivered when it returns.
func (d *Document) mutate(fn func()) {
	d.depth++
	func() {
		defer func() { d.depth-- }()
		fn()
	}()
	if d.depth == 0 {
		d.flush()
	}
}

// flush delivers pending mutation records until no observer has any left.
func (d *Document) flush() {
	if d.flushing {
		return
	}
	d.flushing = true
	defer func() { d.flushing = false }()

	for {
		delivered := false
		observers := append([]*MutationObserver(nil), d.observers...)
		for _, o := range observers {
			records := o.TakeRecords()
			if len(records) == 0 {
				continue
			}
			delivered = true
			d.guard(nil, "mutation observer", func() { o.callback(records, o) })
		}
		if !delivered {
			return
		}
	}
}

// guard runs fn, reporting a panic to the console instead of propagating it.
// It reports whether fn returned normally.
func (d *Document) guard(el *Element, what string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			attrs := []any{"callback", what, "panic", r}
			if el != nil {
				attrs = append(attrs, "element", el.String())
			}
			d.logger.Error("dom: uncaught exception", attrs...)
			ok = false
		}
	}()
	fn()
	return true
}

func walkNodes(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkNodes(c, fn)
	}
}

func nodeAttr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val
		}
	}
	return ""
}
