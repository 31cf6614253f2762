package particles

import (
	"math"

	"github.com/gonewx/voxelfx/pkg/physics"
)

// portalTarget is the block-local point portal particles pull toward.
var portalTarget = physics.Vec3{Y: 0.5}

// spawnPosition applies the behavior's spawn jitter to the base position.
// Rising and flame particles scatter by (rand−rand)·0.05 on every axis.
func (e *Engine) spawnPosition(phys *physics.Params, base physics.Vec3) physics.Vec3 {
	switch phys.Behavior {
	case physics.BehaviorRising, physics.BehaviorFlame:
		return physics.Vec3{
			X: base.X + (e.rng.Float64()-e.rng.Float64())*0.05,
			Y: base.Y + (e.rng.Float64()-e.rng.Float64())*0.05,
			Z: base.Z + (e.rng.Float64()-e.rng.Float64())*0.05,
		}
	default:
		return base
	}
}

// spawnVelocity builds the initial velocity in blocks per tick. Every
// behavior ends with the declarative multiply/add/jitter shaping; they
// differ in how the incoming velocity and the constructor jitter combine:
//
//	generic:        jitter seeded by the incoming velocity
//	ash_smoke:      jitter seeded by zero, incoming added after shaping
//	rising, flame:  jittered incoming × 0.01, incoming added back
//	portal family:  incoming taken verbatim, no constructor jitter
func (e *Engine) spawnVelocity(phys *physics.Params, incoming physics.Vec3) physics.Vec3 {
	var v physics.Vec3
	switch phys.Behavior {
	case physics.BehaviorAshSmoke:
		v = e.ctorJitter(physics.Vec3{})
		v = v.Mul(phys.VelocityMul)
		v = v.Add(phys.VelocityAdd)
		v = v.Add(incoming)
	case physics.BehaviorRising, physics.BehaviorFlame:
		v = e.ctorJitter(incoming).Scale(0.01).Add(incoming)
		v = v.Mul(phys.VelocityMul)
		v = v.Add(phys.VelocityAdd)
	case physics.BehaviorPortal, physics.BehaviorReversePortal, physics.BehaviorEnchant:
		v = incoming.Mul(phys.VelocityMul)
		v = v.Add(phys.VelocityAdd)
	default:
		v = e.ctorJitter(incoming)
		v = v.Mul(phys.VelocityMul)
		v = v.Add(phys.VelocityAdd)
	}
	return e.axisJitter(v, phys.VelocityJitter)
}

// ctorJitter reproduces the constructor velocity formula: each axis takes
// the base plus a uniform draw in ±0.4, the vector is renormalized to a
// random speed, and a fixed upward bias is added.
func (e *Engine) ctorJitter(base physics.Vec3) physics.Vec3 {
	v := physics.Vec3{
		X: base.X + (e.rng.Float64()*2-1)*0.4,
		Y: base.Y + (e.rng.Float64()*2-1)*0.4,
		Z: base.Z + (e.rng.Float64()*2-1)*0.4,
	}
	speed := (e.rng.Float64() + e.rng.Float64() + 1) * 0.15
	length := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
	if length == 0 {
		return physics.Vec3{Y: 0.1}
	}
	v = v.Scale(speed * 0.4 / length)
	v.Y += 0.1
	return v
}

// axisJitter adds a uniform ±j draw per axis, skipping zero components.
func (e *Engine) axisJitter(v, j physics.Vec3) physics.Vec3 {
	if j.X != 0 {
		v.X += (e.rng.Float64()*2 - 1) * j.X
	}
	if j.Y != 0 {
		v.Y += (e.rng.Float64()*2 - 1) * j.Y
	}
	if j.Z != 0 {
		v.Z += (e.rng.Float64()*2 - 1) * j.Z
	}
	return v
}

// spawnSize draws the quad half extent for a new particle.
func (e *Engine) spawnSize(phys *physics.Params, scale float64) float64 {
	size := phys.QuadSize
	if size == 0 {
		size = 0.1 * (e.rng.Float64()*0.5 + 0.5) * 2
	}
	if phys.Behavior == physics.BehaviorAshSmoke {
		size *= 0.75
	}
	if scale > 0 {
		size *= scale
	}
	return size
}

// spawnColor resolves tint precedence: emission tint, then the ash_smoke
// random gray, then the record's static color, then white.
func (e *Engine) spawnColor(phys *physics.Params, tint *[3]float64) [3]float64 {
	switch {
	case tint != nil:
		return *tint
	case phys.Behavior == physics.BehaviorAshSmoke:
		g := 0.5 + e.rng.Float64()*0.3
		return [3]float64{g, g, g}
	case phys.Color != nil:
		return *phys.Color
	default:
		return [3]float64{1, 1, 1}
	}
}

// tickMotion applies the per-tick velocity modification. A declarative
// tickVelocityDelta/tickVelocityJitter pair replaces the named special
// cases entirely.
func (e *Engine) tickMotion(p *particle) {
	phys := p.phys
	if phys.TickVelocityDelta != nil || phys.TickVelocityJitter != nil {
		if phys.TickVelocityDelta != nil {
			p.vel = p.vel.Add(*phys.TickVelocityDelta)
		}
		if phys.TickVelocityJitter != nil {
			p.vel = e.axisJitter(p.vel, *phys.TickVelocityJitter)
		}
		return
	}
	switch phys.Behavior {
	case physics.BehaviorPortal:
		pull := portalTarget.Add(p.pos.Scale(-1)).Scale(0.02)
		p.vel = p.vel.Add(pull)
		p.vel.Y += 0.004
	case physics.BehaviorReversePortal:
		pull := portalTarget.Add(p.pos.Scale(-1)).Scale(0.02)
		p.vel = p.vel.Add(pull.Scale(-1))
		p.vel.Y += 0.004
	case physics.BehaviorEnchant:
		p.vel.Y += (1.0 - p.pos.Y) * 0.03
		p.vel.X += math.Sin(float64(p.age)/4) * 0.005
		p.vel.Z += math.Cos(float64(p.age)/4) * 0.005
	}
}

// sizeScale is the age-dependent render size multiplier. life is the
// fractional age in [0,1]: ash_smoke grows in over the first 1/32 of its
// life, flame shrinks quadratically to half size.
func sizeScale(b physics.Behavior, life float64) float64 {
	switch b {
	case physics.BehaviorAshSmoke:
		if grow := life * 32; grow < 1 {
			return grow
		}
		return 1
	case physics.BehaviorFlame:
		return 1 - 0.5*life*life
	default:
		return 1
	}
}

// additiveBlend reports whether the behavior's sprites composite
// additively.
func additiveBlend(b physics.Behavior) bool {
	switch b {
	case physics.BehaviorFlame, physics.BehaviorPortal, physics.BehaviorReversePortal, physics.BehaviorEnchant:
		return true
	default:
		return false
	}
}
