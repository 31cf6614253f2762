package particles

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gonewx/voxelfx/pkg/physics"
)

// Sprite is the renderable state of one pool slot. All fields are
// refreshed by the engine's interpolation pass each Update; the host
// renderer only reads them.
type Sprite struct {
	Visible  bool
	Image    *ebiten.Image
	Pos      physics.Vec3
	Size     float64
	Color    [3]float64
	Alpha    float64
	Additive bool
}

// SpriteLayer is the engine's single render output: one Sprite per pool
// slot, attached once to the host scene and reused for the engine's whole
// life.
type SpriteLayer struct {
	sprites []Sprite
}

func newSpriteLayer(n int) *SpriteLayer {
	return &SpriteLayer{sprites: make([]Sprite, n)}
}

// Sprites exposes the per-slot render states. The slice is owned by the
// layer and must not be resized by callers.
func (l *SpriteLayer) Sprites() []Sprite {
	return l.sprites
}

// interpolate refreshes the sprite layer from simulation state. frac is
// the leftover tick fraction in [0,1); positions project the last tick's
// motion forward by it, so a fraction of 0 lands exactly on the current
// tick's position. Pure render derivation, no simulation side effects.
func (e *Engine) interpolate(frac float64) {
	for i := range e.pool {
		p := &e.pool[i]
		s := &e.layer.sprites[i]
		if !p.alive {
			s.Visible = false
			s.Image = nil
			continue
		}
		life := (float64(p.age) + frac) / float64(p.lifetime)
		if life > 1 {
			life = 1
		}
		s.Pos = physics.Vec3{
			X: p.pos.X + (p.pos.X-p.prevPos.X)*frac,
			Y: p.pos.Y + (p.pos.Y-p.prevPos.Y)*frac,
			Z: p.pos.Z + (p.pos.Z-p.prevPos.Z)*frac,
		}
		s.Size = p.quadSize * sizeScale(p.phys.Behavior, life)
		s.Color = p.color
		s.Alpha = p.alpha
		s.Additive = additiveBlend(p.phys.Behavior)
		if len(p.frames) == 0 {
			s.Image = nil
			s.Visible = false
			continue
		}
		s.Image = p.frames[frameIndex(p, life)]
		s.Visible = s.Image != nil
	}
}

// frameIndex selects the texture frame for rendering. Lifetime-mapped
// particles sweep the frame list from first at birth to last at death;
// static-random particles keep their spawn draw; everything else shows the
// tick-advanced cycling frame.
func frameIndex(p *particle, life float64) int {
	n := len(p.frames)
	switch {
	case p.lifetimeAnim:
		idx := int(life * float64(n))
		if idx >= n {
			idx = n - 1
		}
		return idx
	case p.randomFrame:
		return p.staticFrame
	default:
		if p.frame >= n {
			return n - 1
		}
		return p.frame
	}
}

// Draw renders the visible sprites onto screen. project maps a
// simulation-space position to screen coordinates plus a pixels-per-unit
// scale. Alpha-blended sprites draw first, additive ones after.
func (l *SpriteLayer) Draw(screen *ebiten.Image, project func(physics.Vec3) (x, y, scale float64)) {
	l.drawPass(screen, project, false)
	l.drawPass(screen, project, true)
}

func (l *SpriteLayer) drawPass(screen *ebiten.Image, project func(physics.Vec3) (x, y, scale float64), additive bool) {
	for i := range l.sprites {
		s := &l.sprites[i]
		if !s.Visible || s.Image == nil || s.Additive != additive {
			continue
		}
		x, y, scale := project(s.Pos)
		edge := s.Size * 2 * scale
		bounds := s.Image.Bounds()
		if edge <= 0 || bounds.Dx() == 0 || bounds.Dy() == 0 {
			continue
		}
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(edge/float64(bounds.Dx()), edge/float64(bounds.Dy()))
		op.GeoM.Translate(x-edge/2, y-edge/2)
		op.ColorScale.Scale(float32(s.Color[0]), float32(s.Color[1]), float32(s.Color[2]), 1)
		op.ColorScale.ScaleAlpha(float32(s.Alpha))
		if additive {
			op.Blend = ebiten.Blend{
				BlendFactorSourceRGB:        ebiten.BlendFactorOne,
				BlendFactorDestinationRGB:   ebiten.BlendFactorOne,
				BlendOperationRGB:           ebiten.BlendOperationAdd,
				BlendFactorSourceAlpha:      ebiten.BlendFactorOne,
				BlendFactorDestinationAlpha: ebiten.BlendFactorOne,
				BlendOperationAlpha:         ebiten.BlendOperationAdd,
			}
		}
		screen.DrawImage(s.Image, op)
	}
}
