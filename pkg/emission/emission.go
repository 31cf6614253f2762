// Package emission resolves per-effect particle declarations into engine
// emissions. A declaration names a particle type plus optional expression
// sources (in the decompiled grammar) for position, velocity, probability,
// per-tick count and loop count; the Emitter compiles them once through a
// Cache and drives the engine every whole simulation tick.
package emission

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gonewx/voxelfx/pkg/physics"
)

// Decl is one loadable emission declaration. Expression fields hold raw
// decompiled-grammar sources; empty strings mean "use the static value".
type Decl struct {
	// Type is the particle type to emit.
	Type string `yaml:"type"`

	// PosExpr and VelExpr are per-axis offset expressions added to the
	// static Position/Velocity. The loop index is bound to LoopVar.
	PosExpr [3]string `yaml:"posExpr"`
	VelExpr [3]string `yaml:"velExpr"`

	// Probability gates each loop iteration when present.
	Probability string `yaml:"probability"`
	// CountExpr sets the particles emitted per iteration (default 1).
	CountExpr string `yaml:"countExpr"`
	// LoopExpr sets the iterations per tick (default 1).
	LoopExpr string `yaml:"loopExpr"`
	// LoopVar is the numbered placeholder token (for example "$1") that
	// expressions use for the loop index.
	LoopVar string `yaml:"loopVar"`

	// BlockProps resolves direction-valued block properties referenced by
	// the expressions.
	BlockProps map[string]string `yaml:"blockProps"`

	Position physics.Vec3 `yaml:"position"`
	Velocity physics.Vec3 `yaml:"velocity"`

	Tint  *[3]float64 `yaml:"tint"`
	Scale float64     `yaml:"scale"`

	// Source tags where the emission samples from (surface, volume, ...).
	// Opaque to the driver; kept for the loading application.
	Source string `yaml:"source"`
}

// LoadDecls parses a YAML document mapping effect names to declarations.
func LoadDecls(data []byte) (map[string]Decl, error) {
	decls := make(map[string]Decl)
	if err := yaml.Unmarshal(data, &decls); err != nil {
		return nil, fmt.Errorf("failed to parse emission declarations: %w", err)
	}
	for name, d := range decls {
		if d.Type == "" {
			return nil, fmt.Errorf("emission declaration %q has no particle type", name)
		}
	}
	return decls, nil
}

// LoadDeclsFile reads and parses emission declarations from disk.
func LoadDeclsFile(path string) (map[string]Decl, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read emission declarations: %w", err)
	}
	return LoadDecls(data)
}
