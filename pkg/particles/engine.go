// Package particles implements the pooled fixed-tick particle simulation.
//
// The engine advances at 20 simulation ticks per second regardless of the
// render frame rate: Update accumulates frame time, consumes whole ticks,
// then refreshes a SpriteLayer using the leftover tick fraction for smooth
// on-screen motion. Simulation space is block-local (origin at the bottom
// center of the emitting block, Y up, one unit per block); the host maps
// sprite positions to the screen through the projection it hands to
// SpriteLayer.Draw.
//
// The pool size is fixed at construction by the quality preset and never
// grows. Emission beyond capacity drops silently apart from a rate-limited
// log line, and a missing physics entry skips emission with a log line;
// neither is an error.
package particles

import (
	"log"
	"math"
	"math/rand"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gonewx/voxelfx/internal/formula"
	"github.com/gonewx/voxelfx/pkg/physics"
)

const (
	// TickRate is the fixed simulation rate in ticks per second.
	TickRate = 20
	// TickDuration is the length of one simulation tick in seconds.
	TickDuration = 1.0 / TickRate

	// gravityScale converts a physics gravity value into a per-tick
	// vertical velocity decrement.
	gravityScale = 0.04

	defaultFrameDuration = 2

	// dropLogInterval is the minimum tick distance between two
	// pool-exhaustion log lines.
	dropLogInterval = 100
)

// Quality selects the particle pool capacity.
type Quality int

const (
	QualityLow Quality = iota
	QualityMedium
	QualityHigh
)

// Slots returns the pool capacity for the preset.
func (q Quality) Slots() int {
	switch q {
	case QualityLow:
		return 50
	case QualityHigh:
		return 300
	default:
		return 150
	}
}

func (q Quality) String() string {
	switch q {
	case QualityLow:
		return "low"
	case QualityHigh:
		return "high"
	default:
		return "medium"
	}
}

// ParseQuality maps a preset name to its Quality; unknown names select
// medium.
func ParseQuality(s string) Quality {
	switch s {
	case "low":
		return QualityLow
	case "high":
		return QualityHigh
	default:
		return QualityMedium
	}
}

// EmitConfig is the per-call emission input. It is fully consumed by Emit
// and not retained.
type EmitConfig struct {
	Type     string
	Position physics.Vec3
	Velocity physics.Vec3
	// Count of particles to emit; zero or negative means one.
	Count int
	// Textures is the frame list. Particles emitted without textures are
	// simulated but never visible.
	Textures []*ebiten.Image
	// Tint overrides the physics color resolution when non-nil.
	Tint *[3]float64
	// FrameDuration overrides the cycling ticks-per-frame when positive.
	FrameDuration int
	// Scale multiplies the spawned quad size when positive.
	Scale float64
}

// particle is one pool slot's simulation state.
type particle struct {
	alive bool
	typ   string
	phys  *physics.Params

	pos     physics.Vec3
	prevPos physics.Vec3
	vel     physics.Vec3

	age      int
	lifetime int
	born     int64

	quadSize float64
	color    [3]float64
	alpha    float64

	frames        []*ebiten.Image
	frame         int
	frameTicks    int
	frameDuration int
	staticFrame   int
	lifetimeAnim  bool
	randomFrame   bool
}

// childRule is a compiled child-spawn rule shared by every particle of the
// parent type.
type childRule struct {
	child       string
	prob        *formula.Compiled
	probBroken  bool
	count       *formula.Compiled
	countBroken bool
}

// childStyle is the pre-resolved render material for a child particle type.
type childStyle struct {
	frames        []*ebiten.Image
	tint          *[3]float64
	frameDuration int
}

// Engine owns the particle pool and its sprite layer.
type Engine struct {
	reg   *physics.Registry
	rng   *rand.Rand
	pool  []particle
	layer *SpriteLayer

	accum      float64
	tickCount  int64
	freeCursor int

	spawnRules  map[string][]childRule
	childStyles map[string]childStyle

	missingWarned map[string]bool
	dropped       int
	lastDropLog   int64
}

// New creates an engine over the given physics registry. seed fixes the
// random stream so identical inputs replay identically.
func New(reg *physics.Registry, quality Quality, seed int64) *Engine {
	slots := quality.Slots()
	return &Engine{
		reg:           reg,
		rng:           rand.New(rand.NewSource(seed)),
		pool:          make([]particle, slots),
		layer:         newSpriteLayer(slots),
		spawnRules:    make(map[string][]childRule),
		childStyles:   make(map[string]childStyle),
		missingWarned: make(map[string]bool),
		lastDropLog:   -dropLogInterval,
	}
}

// Layer returns the render output container. One Sprite per pool slot;
// refreshed by Update, never mutated by Tick.
func (e *Engine) Layer() *SpriteLayer {
	return e.layer
}

// Capacity returns the fixed pool size.
func (e *Engine) Capacity() int {
	return len(e.pool)
}

// ActiveCount returns the number of live particles.
func (e *Engine) ActiveCount() int {
	n := 0
	for i := range e.pool {
		if e.pool[i].alive {
			n++
		}
	}
	return n
}

// Clear retires every live particle and hides its sprite. Compiled spawn
// rules and registered child textures are kept.
func (e *Engine) Clear() {
	for i := range e.pool {
		e.pool[i].alive = false
		e.layer.sprites[i] = Sprite{}
	}
	e.freeCursor = 0
}

// RegisterChildTextures binds the render material used when the named type
// is spawned as a child particle. Child-spawn rules whose target has no
// registered textures are skipped silently.
func (e *Engine) RegisterChildTextures(typ string, frames []*ebiten.Image, tint *[3]float64, frameDuration int) {
	e.childStyles[typ] = childStyle{frames: frames, tint: tint, frameDuration: frameDuration}
}

// Emit spawns cfg.Count particles of cfg.Type. A type without a physics
// entry is logged and skipped; requests beyond pool capacity are dropped.
func (e *Engine) Emit(cfg EmitConfig) {
	count := cfg.Count
	if count <= 0 {
		count = 1
	}
	e.emit(cfg, count)
}

func (e *Engine) emit(cfg EmitConfig, count int) {
	phys, ok := e.reg.Lookup(cfg.Type)
	if !ok {
		if !e.missingWarned[cfg.Type] {
			e.missingWarned[cfg.Type] = true
			log.Printf("[Particles] no physics entry for type %q, emission skipped", cfg.Type)
		}
		return
	}
	e.compileSpawnRules(cfg.Type, phys)
	for i := 0; i < count; i++ {
		slot := e.claimSlot()
		if slot < 0 {
			e.noteDrop(count - i)
			return
		}
		e.initParticle(&e.pool[slot], cfg, phys)
	}
}

// claimSlot finds an inactive pool slot, or -1 when the pool is exhausted.
func (e *Engine) claimSlot() int {
	for n := 0; n < len(e.pool); n++ {
		idx := (e.freeCursor + n) % len(e.pool)
		if !e.pool[idx].alive {
			e.freeCursor = (idx + 1) % len(e.pool)
			return idx
		}
	}
	return -1
}

func (e *Engine) initParticle(p *particle, cfg EmitConfig, phys *physics.Params) {
	*p = particle{
		alive: true,
		typ:   cfg.Type,
		phys:  phys,
		born:  e.tickCount,
	}
	p.pos = e.spawnPosition(phys, cfg.Position)
	p.prevPos = p.pos
	p.vel = e.spawnVelocity(phys, cfg.Velocity)
	p.lifetime = phys.RollLifetime(e.rng.Float64)
	p.quadSize = e.spawnSize(phys, cfg.Scale)
	p.color = e.spawnColor(phys, cfg.Tint)
	p.alpha = phys.BaseAlpha

	p.frames = cfg.Textures
	p.frameDuration = cfg.FrameDuration
	if p.frameDuration <= 0 {
		p.frameDuration = phys.FrameDuration
	}
	if p.frameDuration <= 0 {
		p.frameDuration = defaultFrameDuration
	}
	if len(p.frames) > 1 {
		p.lifetimeAnim = phys.LifetimeAnim
		p.randomFrame = !p.lifetimeAnim && phys.RandomFrame
	}
	if p.randomFrame {
		p.staticFrame = e.rng.Intn(len(p.frames))
	}
}

// Update is the per-render-frame entry point. It accumulates dt into whole
// 1/20 s simulation ticks, runs them, and refreshes the sprite layer with
// the leftover tick fraction.
func (e *Engine) Update(dt float64) {
	if !(dt > 0) {
		dt = 0
	}
	e.accum += dt
	for e.accum >= TickDuration {
		e.accum -= TickDuration
		e.Tick()
	}
	e.interpolate(e.accum / TickDuration)
}

// Tick advances the simulation by one fixed step: age and retire, move,
// spawn children, cycle animation frames. Particles born while the tick is
// running wait for the next one.
func (e *Engine) Tick() {
	e.tickCount++
	for i := range e.pool {
		p := &e.pool[i]
		if !p.alive || p.born == e.tickCount {
			continue
		}
		p.prevPos = p.pos
		p.age++
		if p.age >= p.lifetime {
			p.alive = false
			continue
		}
		e.tickMotion(p)
		p.vel.Y -= gravityScale * p.phys.Gravity
		p.pos = p.pos.Add(p.vel)
		if !p.phys.NoFriction {
			p.vel = p.vel.Scale(p.phys.Friction)
		}
		e.spawnChildren(p)
		e.advanceFrame(p)
	}
}

// compileSpawnRules compiles a type's child-spawn expressions once and
// caches them for every later particle of that type. A rule whose
// expression does not compile is disabled.
func (e *Engine) compileSpawnRules(typ string, phys *physics.Params) {
	if _, ok := e.spawnRules[typ]; ok {
		return
	}
	rules := make([]childRule, 0, len(phys.Spawn))
	for _, decl := range phys.Spawn {
		r := childRule{child: decl.Type}
		if decl.Probability != "" {
			r.prob = formula.Compile(decl.Probability, nil, "")
			if r.prob == nil {
				r.probBroken = true
				log.Printf("[Particles] spawn probability %q for %q did not compile, rule disabled", decl.Probability, typ)
			}
		}
		if decl.Count != "" {
			r.count = formula.Compile(decl.Count, nil, "")
			if r.count == nil {
				r.countBroken = true
				log.Printf("[Particles] spawn count %q for %q did not compile, rule disabled", decl.Count, typ)
			}
		}
		rules = append(rules, r)
	}
	e.spawnRules[typ] = rules
}

// spawnChildren runs the parent's spawn rules for this tick. The eval
// context carries the parent's age and lifetime so rates can vary across
// its life; the loop-index feature is unused here.
func (e *Engine) spawnChildren(p *particle) {
	rules := e.spawnRules[p.typ]
	if len(rules) == 0 {
		return
	}
	ctx := formula.EvalContext{
		Age:      float64(p.age),
		Lifetime: float64(p.lifetime),
		Position: [3]float64{p.pos.X, p.pos.Y, p.pos.Z},
	}
	for i := range rules {
		rule := &rules[i]
		if rule.probBroken || rule.countBroken {
			continue
		}
		style, ok := e.childStyles[rule.child]
		if !ok || len(style.frames) == 0 {
			continue
		}
		if rule.prob != nil && !rule.prob.EvalBool(e.rng.Float64, 0, &ctx) {
			continue
		}
		count := 1
		if rule.count != nil {
			count = clampCount(rule.count.Eval(e.rng.Float64, 0, &ctx))
		}
		if count <= 0 {
			continue
		}
		e.emit(EmitConfig{
			Type:          rule.child,
			Position:      p.pos,
			Velocity:      p.vel,
			Textures:      style.frames,
			Tint:          style.tint,
			FrameDuration: style.frameDuration,
		}, count)
	}
}

// clampCount truncates an expression result to a usable spawn count;
// non-finite or negative results degrade to zero.
func clampCount(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	return int(v)
}

// advanceFrame steps the cycling animation. Lifetime-mapped and static
// random frames derive at render time instead.
func (e *Engine) advanceFrame(p *particle) {
	if p.lifetimeAnim || p.randomFrame || len(p.frames) < 2 {
		return
	}
	p.frameTicks++
	if p.frameTicks >= p.frameDuration {
		p.frameTicks = 0
		p.frame = (p.frame + 1) % len(p.frames)
	}
}

// noteDrop accounts for emissions dropped on pool exhaustion. The drop is
// silent apart from a rate-limited log line.
func (e *Engine) noteDrop(n int) {
	e.dropped += n
	if e.tickCount-e.lastDropLog >= dropLogInterval {
		log.Printf("[Particles] pool exhausted, dropped %d emission(s)", e.dropped)
		e.lastDropLog = e.tickCount
		e.dropped = 0
	}
}
