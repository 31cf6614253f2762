// Package main audits particle data documents: the physics registry and
// the emission declarations must load, every referenced particle type must
// resolve, and every expression must compile.
//
// Usage:
//
//	go run ./cmd/check_effects [--physics path] [--effects path]
//
// Without flags the embedded defaults are checked. Exits non-zero when any
// check fails.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/gonewx/voxelfx"
	"github.com/gonewx/voxelfx/internal/formula"
	"github.com/gonewx/voxelfx/pkg/emission"
	"github.com/gonewx/voxelfx/pkg/physics"
)

var (
	physicsFlag = flag.String("physics", "", "Physics registry YAML path (default: embedded)")
	effectsFlag = flag.String("effects", "", "Emission declarations YAML path (default: embedded)")
)

func main() {
	flag.Parse()

	problems := 0
	fail := func(format string, args ...any) {
		problems++
		fmt.Printf("FAIL  "+format+"\n", args...)
	}

	reg, err := loadRegistry()
	if err != nil {
		fmt.Printf("FAIL  physics registry: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("ok    physics registry: %d types\n", len(reg.Types()))

	for _, typ := range reg.Types() {
		p, _ := reg.Lookup(typ)
		for i, rule := range p.Spawn {
			if _, ok := reg.Lookup(rule.Type); !ok {
				fail("%s: spawn rule %d targets unknown type %q", typ, i, rule.Type)
			}
			if rule.Probability != "" && formula.Compile(rule.Probability, nil, "") == nil {
				fail("%s: spawn probability %q does not compile", typ, rule.Probability)
			}
			if rule.Count != "" && formula.Compile(rule.Count, nil, "") == nil {
				fail("%s: spawn count %q does not compile", typ, rule.Count)
			}
		}
	}

	decls, err := loadDecls()
	if err != nil {
		fmt.Printf("FAIL  emission declarations: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("ok    emission declarations: %d entries\n", len(decls))

	names := make([]string, 0, len(decls))
	for name := range decls {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		d := decls[name]
		if _, ok := reg.Lookup(d.Type); !ok {
			fail("%s: particle type %q missing from registry", name, d.Type)
		}
		check := func(field, src string) {
			if src != "" && formula.Compile(src, d.BlockProps, d.LoopVar) == nil {
				fail("%s: %s expression %q does not compile", name, field, src)
			}
		}
		axes := [3]string{"x", "y", "z"}
		for i := 0; i < 3; i++ {
			check("position "+axes[i], d.PosExpr[i])
			check("velocity "+axes[i], d.VelExpr[i])
		}
		check("probability", d.Probability)
		check("count", d.CountExpr)
		check("loop", d.LoopExpr)
	}

	if problems > 0 {
		fmt.Printf("\n%d problem(s) found\n", problems)
		os.Exit(1)
	}
	fmt.Println("\nall checks passed")
}

func loadRegistry() (*physics.Registry, error) {
	if *physicsFlag != "" {
		return physics.LoadRegistryFile(*physicsFlag)
	}
	return physics.LoadRegistry(voxelfx.DefaultPhysics())
}

func loadDecls() (map[string]emission.Decl, error) {
	if *effectsFlag != "" {
		return emission.LoadDeclsFile(*effectsFlag)
	}
	return emission.LoadDecls(voxelfx.DefaultEffects())
}
