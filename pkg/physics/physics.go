// Package physics defines the declarative per-type particle physics records
// and the registry that serves them to the simulation engine.
//
// A record describes everything data-driven about one particle type: its
// behavior tag, gravity and friction, spawn-time velocity shaping, lifetime
// selection, quad size, tint, animation mode and child-spawn rules. Records
// are immutable after loading and shared read-only by every particle of
// that type.
package physics

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Behavior is the closed set of particle behavior tags. Every spawn, tick
// and render special case dispatches on it exhaustively.
type Behavior int

const (
	BehaviorGeneric Behavior = iota
	BehaviorRising
	BehaviorAshSmoke
	BehaviorFlame
	BehaviorPortal
	BehaviorReversePortal
	BehaviorEnchant
)

var behaviorNames = map[Behavior]string{
	BehaviorGeneric:       "generic",
	BehaviorRising:        "rising",
	BehaviorAshSmoke:      "ash_smoke",
	BehaviorFlame:         "flame",
	BehaviorPortal:        "portal",
	BehaviorReversePortal: "reverse_portal",
	BehaviorEnchant:       "enchant",
}

var behaviorValues = map[string]Behavior{
	"generic":        BehaviorGeneric,
	"rising":         BehaviorRising,
	"ash_smoke":      BehaviorAshSmoke,
	"flame":          BehaviorFlame,
	"portal":         BehaviorPortal,
	"reverse_portal": BehaviorReversePortal,
	"enchant":        BehaviorEnchant,
}

func (b Behavior) String() string {
	if name, ok := behaviorNames[b]; ok {
		return name
	}
	return fmt.Sprintf("Behavior(%d)", int(b))
}

// ParseBehavior maps a tag string to its Behavior. The empty string is
// generic; anything else unknown is an error so bad data fails at load
// time instead of silently running as generic.
func ParseBehavior(s string) (Behavior, error) {
	if s == "" {
		return BehaviorGeneric, nil
	}
	if b, ok := behaviorValues[s]; ok {
		return b, nil
	}
	return BehaviorGeneric, fmt.Errorf("unknown behavior %q", s)
}

// UnmarshalYAML decodes a behavior tag string.
func (b *Behavior) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseBehavior(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// MarshalYAML encodes the behavior as its tag string.
func (b Behavior) MarshalYAML() (any, error) {
	return b.String(), nil
}

// Vec3 is a simulation-space vector. X/Z are the horizontal block axes, Y
// points up.
type Vec3 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Mul multiplies component-wise.
func (v Vec3) Mul(o Vec3) Vec3 {
	return Vec3{X: v.X * o.X, Y: v.Y * o.Y, Z: v.Z * o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// SpawnRule declares child particles emitted every tick of the parent's
// life. Probability and Count are expression sources in the decompiled
// grammar (compiled once per parent type by the engine); an empty
// Probability always fires and an empty Count means one child.
type SpawnRule struct {
	Type        string `yaml:"type"`
	Probability string `yaml:"probability"`
	Count       string `yaml:"count"`
}

// Params is one particle type's declarative physics record.
type Params struct {
	Behavior Behavior `yaml:"behavior"`

	// Gravity is subtracted from the vertical velocity each tick, scaled
	// by the fixed per-tick constant. Negative values lift.
	Gravity float64 `yaml:"gravity"`
	// Friction multiplies the velocity each tick after integration.
	// Omitted (zero) selects the 0.98 default.
	Friction   float64 `yaml:"friction"`
	NoFriction bool    `yaml:"noFriction"`

	// Spawn-time velocity shaping, applied to the constructor jitter in
	// the order multiply, add, per-axis jitter. An omitted VelocityMul
	// means no scaling.
	VelocityMul    Vec3 `yaml:"velocityMul"`
	VelocityAdd    Vec3 `yaml:"velocityAdd"`
	VelocityJitter Vec3 `yaml:"velocityJitter"`

	// Declarative per-tick velocity modification. When either is set it
	// replaces the behavior's named special-case motion.
	TickVelocityDelta  *Vec3 `yaml:"tickVelocityDelta"`
	TickVelocityJitter *Vec3 `yaml:"tickVelocityJitter"`

	// LifetimeTicks is an inclusive random range. The zero range selects
	// the behavior's lifetime formula instead.
	LifetimeTicks [2]int `yaml:"lifetime"`
	// LifetimeBase scales the ash_smoke reciprocal lifetime formula.
	LifetimeBase float64 `yaml:"lifetimeBase"`

	// QuadSize is the half extent of the rendered quad. Zero selects the
	// randomized 0.1 to 0.2 default at spawn.
	QuadSize float64 `yaml:"quadSize"`

	// Color is the static tint; nil defaults to white (ash_smoke draws a
	// random gray instead). BaseAlpha omitted (zero) means opaque.
	Color     *[3]float64 `yaml:"color"`
	BaseAlpha float64     `yaml:"alpha"`

	// Animation mode: LifetimeAnim maps age/lifetime onto the frame list,
	// RandomFrame picks one fixed frame at spawn, otherwise frames cycle
	// every FrameDuration ticks (zero selects the engine default).
	LifetimeAnim  bool `yaml:"lifetimeAnim"`
	RandomFrame   bool `yaml:"randomFrame"`
	FrameDuration int  `yaml:"frameDuration"`

	Spawn []SpawnRule `yaml:"spawn"`
}

// applyDefaults fills the conventional values for omitted fields.
func (p *Params) applyDefaults() {
	if p.Friction == 0 {
		p.Friction = 0.98
	}
	if p.BaseAlpha == 0 {
		p.BaseAlpha = 1
	}
	if p.VelocityMul == (Vec3{}) {
		p.VelocityMul = Vec3{X: 1, Y: 1, Z: 1}
	}
}

// validate rejects records that cannot drive a particle sensibly.
func (p *Params) validate() error {
	if p.LifetimeTicks[0] < 0 || p.LifetimeTicks[1] < p.LifetimeTicks[0] {
		return fmt.Errorf("lifetime range [%d,%d] invalid", p.LifetimeTicks[0], p.LifetimeTicks[1])
	}
	if p.Friction < 0 {
		return fmt.Errorf("friction %.3f invalid", p.Friction)
	}
	if p.QuadSize < 0 {
		return fmt.Errorf("quadSize %.3f invalid", p.QuadSize)
	}
	if p.BaseAlpha < 0 || p.BaseAlpha > 1 {
		return fmt.Errorf("alpha %.3f outside [0,1]", p.BaseAlpha)
	}
	for i, rule := range p.Spawn {
		if rule.Type == "" {
			return fmt.Errorf("spawn rule %d has no child type", i)
		}
	}
	return nil
}

// RollLifetime draws a lifetime in ticks. A non-zero LifetimeTicks range
// draws uniformly inclusive; otherwise the behavior's formula applies:
//
//	ash_smoke:     floor(lifetimeBase / (rand*0.8 + 0.2))
//	rising, flame: floor(8 / (rand*0.8 + 0.2)) + 4
//	default:       floor(4 / (rand*0.9 + 0.1))
//
// The formulas are transcribed constants, not derived; the result is never
// below 1.
func (p *Params) RollLifetime(rand func() float64) int {
	var n int
	switch {
	case p.LifetimeTicks[1] > 0:
		lo, hi := p.LifetimeTicks[0], p.LifetimeTicks[1]
		n = lo
		if hi > lo {
			n = lo + int(rand()*float64(hi-lo+1))
			if n > hi {
				n = hi
			}
		}
	case p.Behavior == BehaviorAshSmoke:
		base := p.LifetimeBase
		if base <= 0 {
			base = 30
		}
		n = int(base / (rand()*0.8 + 0.2))
	case p.Behavior == BehaviorRising, p.Behavior == BehaviorFlame:
		n = int(8/(rand()*0.8+0.2)) + 4
	default:
		n = int(4 / (rand()*0.9 + 0.1))
	}
	if n < 1 {
		n = 1
	}
	return n
}
