package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Element is an element node in a Document.
type Element struct {
	doc       *Document
	node      *html.Node
	isValue   string
	custom    CustomElement
	def       *ElementDefinition
	listeners map[string][]*Listener
}

// Document returns the document that owns the element.
func (e *Element) Document() *Document {
	return e.doc
}

// Node returns the underlying html node.
func (e *Element) Node() *html.Node {
	return e.node
}

// TagName returns the lowercase tag name.
func (e *Element) TagName() string {
	return e.node.Data
}

// IsValue returns the customized built-in name the element was created with.
func (e *Element) IsValue() string {
	return e.isValue
}

// ID returns the id attribute.
func (e *Element) ID() string {
	return e.Attribute("id")
}

// Upgraded returns the custom element instance backing the element, or nil
// if the element has not been upgraded.
func (e *Element) Upgraded() CustomElement {
	return e.custom
}

// String describes the element for log output, e.g. dialog#panel.
func (e *Element) String() string {
	var sb strings.Builder
	sb.WriteString(e.node.Data)
	if id := e.ID(); id != "" {
		sb.WriteString("#")
		sb.WriteString(id)
	}
	if e.isValue != "" {
		fmt.Fprintf(&sb, "[is=%s]", e.isValue)
	}
	return sb.String()
}

// GetAttribute returns the attribute value and whether it is present.
func (e *Element) GetAttribute(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// Attribute returns the attribute value, or "" if absent.
func (e *Element) Attribute(name string) string {
	v, _ := e.GetAttribute(name)
	return v
}

// HasAttribute reports whether the attribute is present.
func (e *Element) HasAttribute(name string) bool {
	_, ok := e.GetAttribute(name)
	return ok
}

// Attributes returns a copy of the element's attributes in document order.
func (e *Element) Attributes() []html.Attribute {
	return append([]html.Attribute(nil), e.node.Attr...)
}

// SetAttribute adds or replaces an attribute.
func (e *Element) SetAttribute(name, value string) {
	name = strings.ToLower(name)
	old, had := e.GetAttribute(name)

	e.doc.mutate(func() {
		if had {
			for i := range e.node.Attr {
				if e.node.Attr[i].Namespace == "" && e.node.Attr[i].Key == name {
					e.node.Attr[i].Val = value
					break
				}
			}
		} else {
			e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: value})
		}
		e.doc.queueRecord(MutationRecord{Type: MutationAttributes, Target: e, AttributeName: name, OldValue: old})
		e.attributeChanged(name, old, value)
	})
}

// RemoveAttribute removes an attribute if present.
func (e *Element) RemoveAttribute(name string) {
	name = strings.ToLower(name)
	old, had := e.GetAttribute(name)
	if !had {
		return
	}

	e.doc.mutate(func() {
		attrs := e.node.Attr[:0]
		for _, a := range e.node.Attr {
			if a.Namespace == "" && a.Key == name {
				continue
			}
			attrs = append(attrs, a)
		}
		e.node.Attr = attrs
		e.doc.queueRecord(MutationRecord{Type: MutationAttributes, Target: e, AttributeName: name, OldValue: old})
		e.attributeChanged(name, old, "")
	})
}

// ToggleAttribute adds the attribute with an empty value if absent and
// removes it otherwise. It reports whether the attribute is now present.
func (e *Element) ToggleAttribute(name string) bool {
	if e.HasAttribute(name) {
		e.RemoveAttribute(name)
		return false
	}
	e.SetAttribute(name, "")
	return true
}

func (e *Element) attributeChanged(name, oldValue, newValue string) {
	if e.custom == nil || !e.def.observes(name) {
		return
	}
	e.doc.guard(e, "attributeChangedCallback", func() {
		e.custom.AttributeChangedCallback(name, oldValue, newValue)
	})
}

// Parent returns the parent element, or nil when the element is detached or
// is the document element.
func (e *Element) Parent() *Element {
	return e.doc.wrap(e.node.Parent)
}

// HasParent reports whether the element is attached to any parent node.
func (e *Element) HasParent() bool {
	return e.node.Parent != nil
}

// Children returns the element children in document order.
func (e *Element) Children() []*Element {
	var children []*Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			children = append(children, e.doc.wrap(c))
		}
	}
	return children
}

// IsConnected reports whether the element is in the document tree.
func (e *Element) IsConnected() bool {
	for n := e.node; n != nil; n = n.Parent {
		if n == e.doc.root {
			return true
		}
	}
	return false
}

// Contains reports whether other is e or one of its descendants.
func (e *Element) Contains(other *Element) bool {
	if other == nil {
		return false
	}
	for n := other.node; n != nil; n = n.Parent {
		if n == e.node {
			return true
		}
	}
	return false
}

// Walk visits e and its descendants in tree order until fn returns false.
// It reports whether the walk ran to completion.
func (e *Element) Walk(fn func(*Element) bool) bool {
	if !fn(e) {
		return false
	}
	for _, c := range e.Children() {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// AppendChild appends child, moving it from its current parent if any.
func (e *Element) AppendChild(child *Element) error {
	return e.InsertBefore(child, nil)
}

// InsertBefore inserts child before ref. A nil ref appends.
func (e *Element) InsertBefore(child, ref *Element) error {
	if err := e.checkInsert(child); err != nil {
		return err
	}
	if ref != nil && ref.node.Parent != e.node {
		return fmt.Errorf("%w: reference is not a child of %s", ErrNotFound, e)
	}
	if ref == child {
		return nil
	}

	e.doc.mutate(func() {
		if child.node.Parent != nil {
			child.detach()
		}
		var refNode *html.Node
		if ref != nil {
			refNode = ref.node
		}
		e.node.InsertBefore(child.node, refNode)
		e.doc.queueRecord(MutationRecord{Type: MutationChildList, Target: e, AddedNodes: []*Element{child}})
		if e.IsConnected() {
			e.doc.connectSubtree(child)
		}
	})
	return nil
}

// RemoveChild removes child from e.
func (e *Element) RemoveChild(child *Element) error {
	if child == nil || child.node.Parent != e.node {
		return fmt.Errorf("%w: not a child of %s", ErrNotFound, e)
	}
	e.doc.mutate(child.detach)
	return nil
}

// Remove detaches the element from its parent. It is a no-op for a detached
// element.
func (e *Element) Remove() {
	if e.node.Parent == nil {
		return
	}
	e.doc.mutate(e.detach)
}

// ReplaceChild replaces oldChild with newChild.
func (e *Element) ReplaceChild(newChild, oldChild *Element) error {
	if err := e.checkInsert(newChild); err != nil {
		return err
	}
	if oldChild == nil || oldChild.node.Parent != e.node {
		return fmt.Errorf("%w: not a child of %s", ErrNotFound, e)
	}
	if newChild == oldChild {
		return nil
	}

	e.doc.mutate(func() {
		if newChild.node.Parent != nil {
			newChild.detach()
		}
		connected := e.IsConnected()
		e.node.InsertBefore(newChild.node, oldChild.node)
		e.node.RemoveChild(oldChild.node)
		e.doc.queueRecord(MutationRecord{
			Type:         MutationChildList,
			Target:       e,
			AddedNodes:   []*Element{newChild},
			RemovedNodes: []*Element{oldChild},
		})
		if connected {
			e.doc.disconnectSubtree(oldChild)
			e.doc.connectSubtree(newChild)
		}
	})
	return nil
}

// ReplaceWith substitutes replacement for e in e's parent.
func (e *Element) ReplaceWith(replacement *Element) error {
	parent := e.Parent()
	if parent == nil {
		return fmt.Errorf("%w: %s", ErrNoParent, e)
	}
	return parent.ReplaceChild(replacement, e)
}

// MoveChildrenTo moves every child node of e, text included, to the end of
// dst.
func (e *Element) MoveChildrenTo(dst *Element) error {
	if dst.Contains(e) || e.doc != dst.doc {
		return fmt.Errorf("%w: cannot move children of %s into %s", ErrHierarchy, e, dst)
	}

	e.doc.mutate(func() {
		for c := e.node.FirstChild; c != nil; {
			next := c.NextSibling
			if c.Type == html.ElementNode {
				child := e.doc.wrap(c)
				child.detach()
				dst.node.AppendChild(c)
				e.doc.queueRecord(MutationRecord{Type: MutationChildList, Target: dst, AddedNodes: []*Element{child}})
				if dst.IsConnected() {
					e.doc.connectSubtree(child)
				}
			} else {
				e.node.RemoveChild(c)
				dst.node.AppendChild(c)
			}
			c = next
		}
	})
	return nil
}

// AppendText appends a text node.
func (e *Element) AppendText(text string) {
	e.doc.mutate(func() {
		e.node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	})
}

// TextContent returns the concatenated text of all descendant text nodes.
func (e *Element) TextContent() string {
	var sb strings.Builder
	walkNodes(e.node, func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
	})
	return sb.String()
}

func (e *Element) checkInsert(child *Element) error {
	if child == nil {
		return fmt.Errorf("%w: nil child", ErrNotFound)
	}
	if child.doc != e.doc {
		return ErrWrongDocument
	}
	if child.Contains(e) {
		return fmt.Errorf("%w: %s contains %s", ErrHierarchy, child, e)
	}
	return nil
}

// detach removes e from its parent node, queueing a record and running
// disconnect reactions. Callers run it inside mutate.
func (e *Element) detach() {
	parentNode := e.node.Parent
	if parentNode == nil {
		return
	}
	connected := e.IsConnected()
	parent := e.doc.wrap(parentNode)
	parentNode.RemoveChild(e.node)
	if parent != nil {
		e.doc.queueRecord(MutationRecord{Type: MutationChildList, Target: parent, RemovedNodes: []*Element{e}})
	}
	if connected {
		e.doc.disconnectSubtree(e)
	}
}
