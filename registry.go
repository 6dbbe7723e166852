package behavioral

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// HostPrefix starts every composite host name.
const HostPrefix = "behavioral-"

// Entry is a registered behavior: its definition and the factory that
// instantiates it.
type Entry struct {
	Definition *Definition
	Factory    Factory
}

// Registry maps behavior names to their definition and factory.
//
// A registry is populated during bootstrap, before markup referencing its
// behaviors connects, and is read-only afterwards. Entries are never removed.
// Registries are plain values: tests construct their own instead of sharing
// process-wide state.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	logger  *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the registry's logger.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		entries: make(map[string]Entry),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a behavior, replacing any entry with the same name.
// Panics if def or factory is nil.
func (r *Registry) Register(def *Definition, factory Factory) {
	if def == nil || factory == nil {
		panic("behavioral: Register requires a definition and a factory")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[def.Name()]; exists {
		// Last write wins; a duplicate usually means the same module was loaded twice.
		r.logger.Debug("behavioral: overwriting registered behavior", "behavior", def.Name())
	}
	r.entries[def.Name()] = Entry{Definition: def, Factory: factory}
}

// Add registers several entries in order.
func (r *Registry) Add(entries ...Entry) {
	for _, e := range entries {
		r.Register(e.Definition, e.Factory)
	}
}

// Lookup returns the entry registered under name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// Names returns the registered behavior names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ObservedAttributes returns the union of the attribute names declared by
// the registered behaviors among names, sorted. Unknown names contribute
// nothing.
func (r *Registry) ObservedAttributes(names []string) []string {
	seen := make(map[string]string)
	for _, name := range names {
		if e, ok := r.Lookup(name); ok {
			for k := range e.Definition.attributes {
				seen[k] = k
			}
		}
	}
	return sortedKeys(seen)
}

// CompositeHostName returns the host name shared by every element with the
// given behavior set: the names sorted, joined with "-" and prefixed with
// "behavioral-". Input order does not matter.
func CompositeHostName(names []string) string {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	return HostPrefix + strings.Join(sorted, "-")
}

// ParseBehaviors splits a behavior attribute value on whitespace, keeping
// declaration order.
func ParseBehaviors(value string) []string {
	return strings.Fields(value)
}

// unknownBehavior builds the error logged for an unregistered name.
func unknownBehavior(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownBehavior, name)
}
