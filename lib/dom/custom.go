package dom

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Sentinel errors for DOM operations.
var (
	ErrAlreadyDefined = errors.New("dom: custom element already defined")
	ErrInvalidName    = errors.New("dom: invalid custom element name")
	ErrNotFound       = errors.New("dom: node not found")
	ErrHierarchy      = errors.New("dom: hierarchy request error")
	ErrWrongDocument  = errors.New("dom: node belongs to another document")
	ErrNoParent       = errors.New("dom: element has no parent")
)

// CustomElement receives lifecycle reactions for an upgraded element.
type CustomElement interface {
	ConnectedCallback()
	DisconnectedCallback()
	AttributeChangedCallback(name, oldValue, newValue string)
}

// ElementDefinition describes a custom element. A definition with Extends set
// is a customized built-in: it applies to elements with tag Extends whose is
// value equals Name. CustomElementRegistry.Extend adds further tags.
type ElementDefinition struct {
	Name               string
	Extends            string
	ObservedAttributes []string
	Constructor        func(el *Element) CustomElement

	more []string
}

// Tags returns every tag a customized built-in extends, Extends first. It is
// nil for an autonomous element.
func (d ElementDefinition) Tags() []string {
	if d.Extends == "" {
		return nil
	}
	return append([]string{d.Extends}, d.more...)
}

// ExtendsTag reports whether the definition applies to elements with tag.
func (d ElementDefinition) ExtendsTag(tag string) bool {
	for _, t := range d.Tags() {
		if t == tag {
			return true
		}
	}
	return false
}

func (d *ElementDefinition) observes(name string) bool {
	if d == nil {
		return false
	}
	for _, a := range d.ObservedAttributes {
		if a == name {
			return true
		}
	}
	return false
}

func (d *ElementDefinition) matches(el *Element) bool {
	if d.Extends == "" {
		return el.TagName() == d.Name
	}
	return el.isValue == d.Name && d.ExtendsTag(el.TagName())
}

var customElementName = regexp.MustCompile(`^[a-z][a-z0-9._]*-[a-z0-9._-]*$`)

var reservedNames = map[string]bool{
	"annotation-xml":   true,
	"color-profile":    true,
	"font-face":        true,
	"font-face-src":    true,
	"font-face-uri":    true,
	"font-face-format": true,
	"font-face-name":   true,
	"missing-glyph":    true,
}

// ValidCustomElementName reports whether name is a valid custom element name.
func ValidCustomElementName(name string) bool {
	return customElementName.MatchString(name) && !reservedNames[name]
}

// CustomElementRegistry holds a document's custom element definitions.
type CustomElementRegistry struct {
	doc  *Document
	defs map[string]*ElementDefinition
}

// Define registers a custom element and upgrades every connected element it
// matches, in tree order. A name can be defined only once.
func (r *CustomElementRegistry) Define(def ElementDefinition) error {
	if !ValidCustomElementName(def.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, def.Name)
	}
	if def.Constructor == nil {
		return fmt.Errorf("dom: definition %q has no constructor", def.Name)
	}
	if _, exists := r.defs[def.Name]; exists {
		return fmt.Errorf("%w: %q", ErrAlreadyDefined, def.Name)
	}

	def.Extends = strings.ToLower(def.Extends)
	observed := make([]string, 0, len(def.ObservedAttributes))
	for _, a := range def.ObservedAttributes {
		observed = append(observed, strings.ToLower(a))
	}
	def.ObservedAttributes = observed

	def.more = nil
	d := &def
	r.defs[def.Name] = d
	r.upgradeMatching(d)
	return nil
}

// Extend makes the customized built-in name apply to tag as well and
// upgrades the connected elements it now matches. It reports false when the
// definition already covers tag.
func (r *CustomElementRegistry) Extend(name, tag string) (bool, error) {
	d, ok := r.defs[name]
	if !ok {
		return false, fmt.Errorf("%w: custom element %q", ErrNotFound, name)
	}
	if d.Extends == "" {
		return false, fmt.Errorf("dom: %q is an autonomous element", name)
	}
	tag = strings.ToLower(tag)
	if tag == "" {
		return false, fmt.Errorf("dom: extend %q: empty tag", name)
	}
	if d.ExtendsTag(tag) {
		return false, nil
	}
	d.more = append(d.more, tag)
	r.upgradeMatching(d)
	return true, nil
}

func (r *CustomElementRegistry) upgradeMatching(d *ElementDefinition) {
	var pending []*Element
	r.doc.Walk(func(el *Element) bool {
		if el.custom == nil && d.matches(el) {
			pending = append(pending, el)
		}
		return true
	})
	r.doc.mutate(func() {
		for _, el := range pending {
			if el.custom == nil && el.IsConnected() {
				r.doc.upgrade(el, d)
			}
		}
	})
}

// Get returns the definition registered under name.
func (r *CustomElementRegistry) Get(name string) (ElementDefinition, bool) {
	d, ok := r.defs[name]
	if !ok {
		return ElementDefinition{}, false
	}
	return *d, true
}

// lookup finds the definition that applies to el.
func (r *CustomElementRegistry) lookup(el *Element) *ElementDefinition {
	if el.isValue != "" {
		if d, ok := r.defs[el.isValue]; ok && d.matches(el) {
			return d
		}
		return nil
	}
	if d, ok := r.defs[el.TagName()]; ok && d.Extends == "" {
		return d
	}
	return nil
}

// upgrade constructs the custom element for el and replays the reactions a
// freshly created element would have seen.
func (d *Document) upgrade(el *Element, def *ElementDefinition) {
	var ce CustomElement
	if !d.guard(el, "constructor", func() { ce = def.Constructor(el) }) || ce == nil {
		return
	}
	el.custom, el.def = ce, def

	for _, name := range def.ObservedAttributes {
		if v, ok := el.GetAttribute(name); ok {
			d.guard(el, "attributeChangedCallback", func() {
				ce.AttributeChangedCallback(name, "", v)
			})
		}
	}
	if el.IsConnected() {
		d.guard(el, "connectedCallback", ce.ConnectedCallback)
	}
}

// connectSubtree runs connected reactions for root and its descendants,
// upgrading elements whose definition already exists.
func (d *Document) connectSubtree(root *Element) {
	var elements []*Element
	root.Walk(func(el *Element) bool {
		elements = append(elements, el)
		return true
	})
	for _, el := range elements {
		if !el.IsConnected() {
			continue
		}
		if el.custom != nil {
			d.guard(el, "connectedCallback", el.custom.ConnectedCallback)
			continue
		}
		if def := d.registry.lookup(el); def != nil {
			d.upgrade(el, def)
		}
	}
}

// disconnectSubtree runs disconnected reactions for root and its descendants.
func (d *Document) disconnectSubtree(root *Element) {
	var elements []*Element
	root.Walk(func(el *Element) bool {
		elements = append(elements, el)
		return true
	})
	for _, el := range elements {
		if el.custom != nil {
			d.guard(el, "disconnectedCallback", el.custom.DisconnectedCallback)
		}
	}
}
