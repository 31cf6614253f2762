package emission

import (
	"log"
	"math"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gonewx/voxelfx/internal/formula"
	"github.com/gonewx/voxelfx/pkg/particles"
)

// boundDecl is a declaration with its expressions compiled.
type boundDecl struct {
	name     string
	decl     Decl
	textures []*ebiten.Image

	pos  [3]*formula.Compiled
	vel  [3]*formula.Compiled
	prob *formula.Compiled
	cnt  *formula.Compiled
	loop *formula.Compiled

	// disabled marks a declaration whose probability, count or loop
	// expression failed to compile. A wrong rate must not be guessed at,
	// so the whole declaration stops emitting.
	disabled bool
}

// Emitter owns a set of bound declarations and drives the engine with
// them. It keeps its own whole-tick accumulator so emission cadence
// matches the engine's 20 Hz simulation regardless of frame rate.
type Emitter struct {
	engine *particles.Engine
	rng    func() float64
	cache  *Cache
	accum  float64
	decls  []boundDecl
	ctx    *formula.EvalContext
}

// NewEmitter creates a driver for the given engine. rng supplies the
// random draws seen by the declaration expressions.
func NewEmitter(engine *particles.Engine, rng func() float64) *Emitter {
	return &Emitter{
		engine: engine,
		rng:    rng,
		cache:  NewCache(),
		// Emission expressions evaluate against the emitting block: unit
		// extents, block-local origin.
		ctx: &formula.EvalContext{Lifetime: 1, Size: [3]float64{1, 1, 1}},
	}
}

// Cache exposes the expression cache, shared across Reset calls.
func (em *Emitter) Cache() *Cache {
	return em.cache
}

// Add compiles and binds one declaration. An unsupported position or
// velocity expression falls back to the static axis value; an unsupported
// probability, count or loop expression disables the declaration.
func (em *Emitter) Add(name string, d Decl, textures []*ebiten.Image) {
	b := boundDecl{name: name, decl: d, textures: textures}
	for i := 0; i < 3; i++ {
		if src := d.PosExpr[i]; src != "" {
			if b.pos[i] = em.cache.Get(src, d.BlockProps, d.LoopVar); b.pos[i] == nil {
				log.Printf("[Emission] %s: position expression %q unsupported, using static axis", name, src)
			}
		}
		if src := d.VelExpr[i]; src != "" {
			if b.vel[i] = em.cache.Get(src, d.BlockProps, d.LoopVar); b.vel[i] == nil {
				log.Printf("[Emission] %s: velocity expression %q unsupported, using static axis", name, src)
			}
		}
	}
	if d.Probability != "" {
		if b.prob = em.cache.Get(d.Probability, d.BlockProps, d.LoopVar); b.prob == nil {
			b.disabled = true
			log.Printf("[Emission] %s: probability expression %q unsupported, declaration disabled", name, d.Probability)
		}
	}
	if d.CountExpr != "" {
		if b.cnt = em.cache.Get(d.CountExpr, d.BlockProps, d.LoopVar); b.cnt == nil {
			b.disabled = true
			log.Printf("[Emission] %s: count expression %q unsupported, declaration disabled", name, d.CountExpr)
		}
	}
	if d.LoopExpr != "" {
		if b.loop = em.cache.Get(d.LoopExpr, d.BlockProps, d.LoopVar); b.loop == nil {
			b.disabled = true
			log.Printf("[Emission] %s: loop expression %q unsupported, declaration disabled", name, d.LoopExpr)
		}
	}
	em.decls = append(em.decls, b)
}

// Reset drops the bound declarations and pending tick fraction. The
// expression cache survives so re-added declarations reuse their compiled
// forms.
func (em *Emitter) Reset() {
	em.decls = em.decls[:0]
	em.accum = 0
}

// Update accumulates frame time and runs every bound declaration once per
// whole simulation tick.
func (em *Emitter) Update(dt float64) {
	if !(dt > 0) {
		dt = 0
	}
	em.accum += dt
	for em.accum >= particles.TickDuration {
		em.accum -= particles.TickDuration
		for i := range em.decls {
			em.runDecl(&em.decls[i])
		}
	}
}

func (em *Emitter) runDecl(b *boundDecl) {
	if b.disabled {
		return
	}
	loops := 1
	if b.loop != nil {
		loops = clampCount(b.loop.Eval(em.rng, 0, em.ctx))
	}
	for i := 0; i < loops; i++ {
		if b.prob != nil && !b.prob.EvalBool(em.rng, i, em.ctx) {
			continue
		}
		count := 1
		if b.cnt != nil {
			count = clampCount(b.cnt.Eval(em.rng, i, em.ctx))
		}
		if count <= 0 {
			continue
		}
		pos := b.decl.Position
		pos.X += em.axisOffset(b.pos[0], i)
		pos.Y += em.axisOffset(b.pos[1], i)
		pos.Z += em.axisOffset(b.pos[2], i)
		vel := b.decl.Velocity
		vel.X += em.axisOffset(b.vel[0], i)
		vel.Y += em.axisOffset(b.vel[1], i)
		vel.Z += em.axisOffset(b.vel[2], i)

		em.engine.Emit(particles.EmitConfig{
			Type:     b.decl.Type,
			Position: pos,
			Velocity: vel,
			Count:    count,
			Textures: b.textures,
			Tint:     b.decl.Tint,
			Scale:    b.decl.Scale,
		})
	}
}

// axisOffset evaluates one axis expression; absent, unsupported or
// non-finite results contribute nothing.
func (em *Emitter) axisOffset(c *formula.Compiled, loopIdx int) float64 {
	if c == nil {
		return 0
	}
	v := c.Eval(em.rng, loopIdx, em.ctx)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// clampCount truncates an expression result to a usable count; non-finite
// or negative results degrade to zero.
func clampCount(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	return int(v)
}
