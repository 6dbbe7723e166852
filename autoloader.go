package behavioral

import (
	"strings"

	"github.com/pthm/behavioral/lib/dom"
)

// AutoLoader upgrades plain elements that carry a behavior attribute into
// behavioral hosts. The platform fixes an element's is value at creation, so
// each candidate is replaced by a freshly created element that takes over its
// attributes and children.
type AutoLoader struct {
	rt       *Runtime
	doc      *dom.Document
	observer *dom.MutationObserver
}

// NewAutoLoader returns an auto-loader for doc.
func (rt *Runtime) NewAutoLoader(doc *dom.Document) *AutoLoader {
	return &AutoLoader{rt: rt, doc: doc}
}

// EnableAutoLoader scans doc and keeps watching it for inserted candidates.
// Calling the returned function stops the watch.
func (rt *Runtime) EnableAutoLoader(doc *dom.Document) func() {
	return rt.NewAutoLoader(doc).Enable()
}

// Enable runs an initial scan of the document, then upgrades candidates in
// every subtree inserted later. It returns a function that stops watching;
// hosts already upgraded are unaffected.
func (a *AutoLoader) Enable() func() {
	root := a.doc.DocumentElement()
	if root == nil {
		return func() {}
	}
	a.Scan(root)

	a.observer = a.doc.NewMutationObserver(func(records []dom.MutationRecord, _ *dom.MutationObserver) {
		for _, rec := range records {
			for _, added := range rec.AddedNodes {
				if added.IsConnected() {
					a.Scan(added)
				}
			}
		}
	})
	a.observer.Observe(root, dom.ObserveOptions{ChildList: true, Subtree: true})

	observer := a.observer
	return observer.Disconnect
}

// Scan upgrades every candidate in root's subtree, root included, and
// returns how many were upgraded or marked. Hosts for already stamped
// elements in the subtree are defined as well; those do not count. The candidate list is taken
// before any replacement, so replacements made during the scan are never
// visited. Scanning the same subtree twice is harmless.
func (a *AutoLoader) Scan(root *dom.Element) int {
	candidates := collectCandidates(root)
	n := 0
	for _, el := range candidates {
		if isCandidate(el) && a.upgrade(el) {
			n++
		}
	}
	a.defineStamped(root)
	return n
}

// defineStamped defines the hosts of elements that were created with their
// is value already set, such as server-stamped markup. Defining a host
// upgrades those elements in place.
func (a *AutoLoader) defineStamped(root *dom.Element) {
	var stamped []*dom.Element
	root.Walk(func(el *dom.Element) bool {
		if el.Upgraded() == nil && isStamped(el) {
			stamped = append(stamped, el)
		}
		return true
	})
	for _, el := range stamped {
		if el.Upgraded() != nil {
			continue
		}
		names := ParseBehaviors(el.Attribute(BehaviorAttr))
		if hostName, err := a.rt.DefineHostFor(a.doc, el.TagName(), names); err != nil {
			a.rt.logger.Error("behavioral: host definition failed",
				"element", el.String(),
				"host", hostName,
				"error", err)
		}
	}
}

func (a *AutoLoader) upgrade(el *dom.Element) bool {
	names := ParseBehaviors(el.Attribute(BehaviorAttr))
	a.rt.warnUnknown(el, names)

	hostName, err := a.rt.DefineHostFor(a.doc, el.TagName(), names)
	if err != nil {
		a.rt.logger.Error("behavioral: host definition failed",
			"element", el.String(),
			"host", hostName,
			"error", err)
		return false
	}

	// The document element has no element parent to swap under.
	if el.Parent() == nil {
		a.markDetached(el, hostName)
		return true
	}

	replacement := a.doc.CreateElement(el.TagName(), dom.WithIs(hostName))
	for _, attr := range el.Attributes() {
		if attr.Namespace == "" && attr.Key == IsAttr {
			continue
		}
		replacement.SetAttribute(attr.Key, attr.Val)
	}
	replacement.SetAttribute(IsAttr, hostName)

	if err := el.MoveChildrenTo(replacement); err != nil {
		a.rt.logger.Error("behavioral: moving children failed", "element", el.String(), "error", err)
		return false
	}
	if err := el.ReplaceWith(replacement); err != nil {
		a.rt.logger.Error("behavioral: replacing element failed", "element", el.String(), "error", err)
		return false
	}
	return true
}

func (a *AutoLoader) markDetached(el *dom.Element, hostName string) {
	el.SetAttribute(IsAttr, hostName)
	a.rt.logger.Warn("behavioral: element marked without upgrade",
		"element", el.String(),
		"host", hostName,
		"error", ErrDetachedUpgrade)
}

// Stamp sets the is attribute on every candidate in root's subtree without
// defining hosts or running behaviors. Markup stamped this way upgrades as
// soon as a client with the matching hosts parses it. It returns the number
// of elements stamped.
func (rt *Runtime) Stamp(root *dom.Element) int {
	n := 0
	for _, el := range collectCandidates(root) {
		names := ParseBehaviors(el.Attribute(BehaviorAttr))
		rt.warnUnknown(el, names)
		el.SetAttribute(IsAttr, CompositeHostName(names))
		n++
	}
	return n
}

func (rt *Runtime) warnUnknown(el *dom.Element, names []string) {
	for _, name := range names {
		if _, ok := rt.registry.Lookup(name); !ok {
			rt.logger.Warn("behavioral: unknown behavior",
				"behavior", name,
				"element", el.String(),
				"error", unknownBehavior(name))
		}
	}
}

func collectCandidates(root *dom.Element) []*dom.Element {
	var candidates []*dom.Element
	root.Walk(func(el *dom.Element) bool {
		if isCandidate(el) {
			candidates = append(candidates, el)
		}
		return true
	})
	return candidates
}

// isCandidate reports whether el has a non-blank behavior attribute and no
// is attribute.
func isCandidate(el *dom.Element) bool {
	if el.HasAttribute(IsAttr) {
		return false
	}
	v, ok := el.GetAttribute(BehaviorAttr)
	return ok && strings.TrimSpace(v) != ""
}

// isStamped reports whether el was created as the host for its own behavior
// attribute.
func isStamped(el *dom.Element) bool {
	names := ParseBehaviors(el.Attribute(BehaviorAttr))
	return len(names) > 0 && el.IsValue() == CompositeHostName(names)
}
