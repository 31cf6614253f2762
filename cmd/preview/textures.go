package main

import (
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gonewx/voxelfx/pkg/physics"
)

const textureSize = 32

// buildTextures synthesizes a white render material for every registry
// type; color comes from the physics tint at draw time. Multi-frame sets
// feed the cycling and lifetime-mapped animation modes.
func buildTextures(reg *physics.Registry) map[string][]*ebiten.Image {
	out := make(map[string][]*ebiten.Image)
	for _, typ := range reg.Types() {
		p, _ := reg.Lookup(typ)
		out[typ] = texturesFor(typ, p)
	}
	return out
}

func texturesFor(typ string, p *physics.Params) []*ebiten.Image {
	switch typ {
	case "flame", "small_flame", "lava", "firefly":
		return []*ebiten.Image{spark()}
	case "smoke", "large_smoke", "cloud", "poof":
		return puffFrames(8)
	case "campfire_cosy_smoke", "campfire_signal_smoke":
		return puffFrames(12)
	case "portal", "reverse_portal":
		return moteFrames(4)
	case "enchant":
		return glyphFrames(8)
	case "end_rod":
		return fadeFrames(8)
	case "white_ash", "ash", "crimson_spore", "dripping_water", "falling_water", "happy_villager":
		return []*ebiten.Image{dot()}
	case "bubble":
		return []*ebiten.Image{ring()}
	case "note":
		return glyphFrames(1)
	}
	switch p.Behavior {
	case physics.BehaviorAshSmoke:
		return puffFrames(8)
	case physics.BehaviorFlame:
		return []*ebiten.Image{spark()}
	default:
		return []*ebiten.Image{softDisc(2)}
	}
}

// render paints a radial intensity function into a white texture. fn takes
// the normalized center distance in [0,1+] and returns alpha in [0,1].
func render(fn func(r float64) float64) *ebiten.Image {
	img := image.NewNRGBA(image.Rect(0, 0, textureSize, textureSize))
	half := float64(textureSize) / 2
	for y := 0; y < textureSize; y++ {
		for x := 0; x < textureSize; x++ {
			dx := (float64(x) + 0.5 - half) / half
			dy := (float64(y) + 0.5 - half) / half
			a := fn(math.Sqrt(dx*dx + dy*dy))
			if a < 0 {
				a = 0
			} else if a > 1 {
				a = 1
			}
			img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: uint8(a * 255)})
		}
	}
	return ebiten.NewImageFromImage(img)
}

// softDisc fades from the center with the given falloff power.
func softDisc(falloff float64) *ebiten.Image {
	return render(func(r float64) float64 {
		return math.Pow(math.Max(0, 1-r), falloff)
	})
}

// spark has a hot core inside a soft halo.
func spark() *ebiten.Image {
	return render(func(r float64) float64 {
		if r < 0.25 {
			return 1
		}
		return math.Pow(math.Max(0, 1-r), 3)
	})
}

// dot is a small hard-edged disc.
func dot() *ebiten.Image {
	return render(func(r float64) float64 {
		if r < 0.45 {
			return 1
		}
		return 0
	})
}

// ring peaks near the rim, leaving a hollow center.
func ring() *ebiten.Image {
	return render(func(r float64) float64 {
		return math.Max(0, 1-math.Abs(r-0.7)/0.18)
	})
}

// puffFrames is a dissolve sequence: each frame is wider and fainter than
// the last, so lifetime-mapped smoke thins out as it ages.
func puffFrames(n int) []*ebiten.Image {
	frames := make([]*ebiten.Image, n)
	for i := range frames {
		t := float64(i) / float64(n-1)
		radius := 0.55 + 0.45*t
		peak := 1 - 0.65*t
		frames[i] = render(func(r float64) float64 {
			return peak * math.Pow(math.Max(0, 1-r/radius), 2)
		})
	}
	return frames
}

// moteFrames are discs of varying tightness for the static-random mode.
func moteFrames(n int) []*ebiten.Image {
	frames := make([]*ebiten.Image, n)
	for i := range frames {
		frames[i] = softDisc(1.5 + float64(i))
	}
	return frames
}

// fadeFrames shrink a glow toward nothing for lifetime-mapped trails.
func fadeFrames(n int) []*ebiten.Image {
	frames := make([]*ebiten.Image, n)
	for i := range frames {
		radius := 1 - 0.8*float64(i)/float64(n-1)
		frames[i] = render(func(r float64) float64 {
			return math.Pow(math.Max(0, 1-r/radius), 2)
		})
	}
	return frames
}

// glyphFrames draw distinct rune-like stroke marks, one per frame, for the
// static-random mode.
func glyphFrames(n int) []*ebiten.Image {
	frames := make([]*ebiten.Image, n)
	for i := range frames {
		img := image.NewNRGBA(image.Rect(0, 0, textureSize, textureSize))
		vx := 8 + (i%3)*7
		hy := 8 + (i*5)%15
		for y := 6; y < textureSize-6; y++ {
			setGlyph(img, vx, y)
			setGlyph(img, vx+1, y)
		}
		for x := 6; x < textureSize-6; x++ {
			setGlyph(img, x, hy)
			setGlyph(img, x, hy+1)
		}
		if i%2 == 1 {
			for d := 6; d < textureSize-6; d++ {
				setGlyph(img, d, textureSize-1-d)
			}
		}
		frames[i] = ebiten.NewImageFromImage(img)
	}
	return frames
}

func setGlyph(img *image.NRGBA, x, y int) {
	if x >= 0 && x < textureSize && y >= 0 && y < textureSize {
		img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	}
}
