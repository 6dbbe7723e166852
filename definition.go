package behavioral

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/pthm/behavioral/lib/dom"
)

// Schema exposes the attribute keys a behavior is configured with. Key
// extraction is the only thing the runtime asks of a validation schema.
type Schema interface {
	AttributeKeys() []string
}

// Keys is a Schema that lists its attribute keys directly.
type Keys []string

// AttributeKeys returns a copy of the keys.
func (k Keys) AttributeKeys() []string {
	return append([]string(nil), k...)
}

// SchemaOf returns v as a Schema. v either implements Schema or is a struct
// (or pointer to one) whose fields carry attr tags:
//
//	type RevealSchema struct {
//	    Delay int `attr:"reveal-delay"`
//	}
//
// Fields without an attr tag, or tagged attr:"-", are skipped. Running
// 'behavioral generate' gives schema structs an AttributeKeys method, so the
// reflection path here is only a fallback.
func SchemaOf(v any) (Schema, error) {
	if s, ok := v.(Schema); ok {
		return s, nil
	}

	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: schema %T is neither a Schema nor a struct", ErrInvalidDefinition, v)
	}

	var keys Keys
	for i := 0; i < t.NumField(); i++ {
		tag, ok := t.Field(i).Tag.Lookup("attr")
		if !ok || tag == "-" {
			continue
		}
		key, _, _ := strings.Cut(tag, ",")
		if key != "" {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// AttributeReader is implemented by schema structs that decode themselves
// from attribute values. 'behavioral generate' writes ReadAttributes for
// every struct with attr tags.
type AttributeReader interface {
	ReadAttributes(lookup func(name string) (string, bool)) error
}

// ReadAttributes fills r from el's attributes.
func ReadAttributes(el *dom.Element, r AttributeReader) error {
	return r.ReadAttributes(el.GetAttribute)
}

// bareAttributes are standard attributes a behavior may declare without its
// name prefix.
var bareAttributes = map[string]bool{
	"id":       true,
	"class":    true,
	"style":    true,
	"title":    true,
	"hidden":   true,
	"role":     true,
	"tabindex": true,
	"slot":     true,
	"lang":     true,
	"dir":      true,
	"name":     true,
	"value":    true,
	"disabled": true,
	"open":     true,
	"type":     true,
}

// BareAttributes returns the standard attributes allowed without a behavior
// name prefix, sorted.
func BareAttributes() []string {
	names := make([]string, 0, len(bareAttributes))
	for name := range bareAttributes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var kebabCase = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

// Definition is the immutable metadata of a behavior: its name, the attribute
// keys it is configured through and the command tokens it understands.
// Every attribute and command map entry has key equal to value.
type Definition struct {
	name       string
	attributes map[string]string
	commands   map[string]string
	schema     Schema
}

// NewDefinition validates and builds a definition. Attribute keys come from
// schema and must be prefixed "{name}-" unless they are bare standard
// attributes. Command keys must start with "--" and equal their values. An
// empty commands map means the behavior defines no commands.
func NewDefinition(name string, schema Schema, commands map[string]string) (*Definition, error) {
	if name == "" {
		return nil, &DefinitionError{Behavior: name, Reason: "name is empty"}
	}
	if !kebabCase.MatchString(name) {
		return nil, &DefinitionError{Behavior: name, Reason: "name must be kebab-case"}
	}

	def := &Definition{
		name:       name,
		attributes: make(map[string]string),
		schema:     schema,
	}

	if schema != nil {
		for _, key := range schema.AttributeKeys() {
			if err := checkAttributeKey(name, key); err != nil {
				return nil, err
			}
			def.attributes[key] = key
		}
	}

	if len(commands) > 0 {
		tokens := make([]string, 0, len(commands))
		for k := range commands {
			tokens = append(tokens, k)
		}
		sort.Strings(tokens)

		def.commands = make(map[string]string, len(commands))
		for _, k := range tokens {
			if !ValidCommand(k) {
				return nil, &DefinitionError{Behavior: name, Key: k, Reason: `command must start with "--"`}
			}
			if v := commands[k]; v != k {
				return nil, &DefinitionError{Behavior: name, Key: k, Reason: fmt.Sprintf("value %q must equal key", v)}
			}
			def.commands[k] = k
		}
	}

	return def, nil
}

// MustDefinition is NewDefinition for package-level definitions. It panics on
// a definition error, aborting initialization of the defining package.
func MustDefinition(name string, schema Schema, commands map[string]string) *Definition {
	def, err := NewDefinition(name, schema, commands)
	if err != nil {
		panic(err)
	}
	return def
}

// Commands builds a command map from tokens, each mapped to itself.
func Commands(tokens ...string) map[string]string {
	m := make(map[string]string, len(tokens))
	for _, t := range tokens {
		m[t] = t
	}
	return m
}

func checkAttributeKey(name, key string) error {
	if bareAttributes[key] {
		return nil
	}
	prefix := name + "-"
	if !strings.HasPrefix(key, prefix) || len(key) == len(prefix) || !kebabCase.MatchString(key) {
		return &DefinitionError{
			Behavior: name,
			Key:      key,
			Reason:   fmt.Sprintf("attribute must be prefixed %q or be a bare standard attribute", prefix),
		}
	}
	return nil
}

// Name returns the behavior name.
func (d *Definition) Name() string {
	return d.name
}

// Schema returns the schema the attribute keys were derived from.
func (d *Definition) Schema() Schema {
	return d.schema
}

// Attributes returns a copy of the attribute map.
func (d *Definition) Attributes() map[string]string {
	m := make(map[string]string, len(d.attributes))
	for k, v := range d.attributes {
		m[k] = v
	}
	return m
}

// AttributeNames returns the declared attribute names, sorted.
func (d *Definition) AttributeNames() []string {
	return sortedKeys(d.attributes)
}

// HasAttribute reports whether the behavior declares the attribute.
func (d *Definition) HasAttribute(name string) bool {
	_, ok := d.attributes[name]
	return ok
}

// Commands returns a copy of the command map, or nil when the behavior
// defines no commands.
func (d *Definition) Commands() map[string]string {
	if d.commands == nil {
		return nil
	}
	m := make(map[string]string, len(d.commands))
	for k, v := range d.commands {
		m[k] = v
	}
	return m
}

// CommandNames returns the declared command tokens, sorted.
func (d *Definition) CommandNames() []string {
	return sortedKeys(d.commands)
}

// HasCommand reports whether token is one of the behavior's commands.
func (d *Definition) HasCommand(token string) bool {
	_, ok := d.commands[token]
	return ok
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
