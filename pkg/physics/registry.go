package physics

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Registry holds the loaded physics records keyed by particle type name.
// It is read-only after loading and safe to share.
type Registry struct {
	entries map[string]*Params
}

// LoadRegistry parses a YAML document mapping particle type names to
// physics records, applies per-field defaults and validates every entry.
func LoadRegistry(data []byte) (*Registry, error) {
	raw := make(map[string]*Params)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse physics registry: %w", err)
	}

	for name, params := range raw {
		if params == nil {
			raw[name] = &Params{}
			params = raw[name]
		}
		params.applyDefaults()
		if err := params.validate(); err != nil {
			return nil, fmt.Errorf("physics entry %q: %w", name, err)
		}
	}

	return &Registry{entries: raw}, nil
}

// LoadRegistryFile reads and parses a physics registry from disk.
func LoadRegistryFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read physics registry: %w", err)
	}
	return LoadRegistry(data)
}

// Lookup returns the record for a particle type, or false when the type
// has no physics definition.
func (r *Registry) Lookup(typ string) (*Params, bool) {
	p, ok := r.entries[typ]
	return p, ok
}

// Types lists the registered particle type names in sorted order.
func (r *Registry) Types() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
