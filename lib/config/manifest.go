package config

import (
	"fmt"
	"log/slog"

	"github.com/pthm/behavioral"
	"github.com/pthm/behavioral/lib/dom"
)

// Behavior is one manifest entry: the markup contract of a behavior without
// its code.
//
//	behaviors:
//	  - name: reveal
//	    attributes: [reveal-delay]
//	    commands: [--show, --hide, --toggle]
type Behavior struct {
	Name       string   `yaml:"name"`
	Attributes []string `yaml:"attributes"`
	Commands   []string `yaml:"commands"`
}

// Definition constructs the behavior definition, failing with a
// *behavioral.DefinitionError on an invalid name, attribute or command.
func (b Behavior) Definition() (*behavioral.Definition, error) {
	var commands map[string]string
	if len(b.Commands) > 0 {
		commands = behavioral.Commands(b.Commands...)
	}
	return behavioral.NewDefinition(b.Name, behavioral.Keys(b.Attributes), commands)
}

// Definitions constructs every manifest definition in order and stops at the
// first error.
func (c *Config) Definitions() ([]*behavioral.Definition, error) {
	defs := make([]*behavioral.Definition, 0, len(c.Behaviors))
	for i, b := range c.Behaviors {
		def, err := b.Definition()
		if err != nil {
			return nil, fmt.Errorf("behaviors[%d]: %w", i, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Registry registers every manifest definition. The factories attach no
// behavior; the registry exists so markup tooling knows which names are
// defined.
func (c *Config) Registry(logger *slog.Logger) (*behavioral.Registry, error) {
	defs, err := c.Definitions()
	if err != nil {
		return nil, err
	}
	reg := behavioral.NewRegistry(behavioral.WithRegistryLogger(logger))
	for _, def := range defs {
		reg.Register(def, markupOnly)
	}
	return reg, nil
}

func markupOnly(*dom.Element) (behavioral.Behavior, error) {
	return &behavioral.Hooks{}, nil
}
