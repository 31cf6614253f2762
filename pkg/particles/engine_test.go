package particles

import (
	"math"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gonewx/voxelfx/pkg/physics"
)

func testRegistry(t *testing.T, doc string) *physics.Registry {
	t.Helper()
	reg, err := physics.LoadRegistry([]byte(doc))
	if err != nil {
		t.Fatalf("LoadRegistry() error = %v", err)
	}
	return reg
}

// linearDoc pins a particle to pure linear motion: the portal spawn path
// takes the incoming velocity verbatim and the zero declarative tick delta
// overrides the portal pull.
const linearDoc = `
mover:
  behavior: portal
  lifetime: [100, 100]
  noFriction: true
  tickVelocityDelta: {x: 0, y: 0, z: 0}
`

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestEngineLifecycle tests that a particle with lifetime L stays active
// through L tick states and retires on the tick its age reaches L.
func TestEngineLifecycle(t *testing.T) {
	reg := testRegistry(t, "puff:\n  lifetime: [5, 5]\n")
	e := New(reg, QualityLow, 1)

	e.Emit(EmitConfig{Type: "puff"})
	if got := e.ActiveCount(); got != 1 {
		t.Fatalf("ActiveCount() after emit = %d, want 1", got)
	}
	for i := 1; i <= 4; i++ {
		e.Tick()
		if got := e.ActiveCount(); got != 1 {
			t.Fatalf("ActiveCount() after tick %d = %d, want 1", i, got)
		}
	}
	e.Tick()
	if got := e.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount() after tick 5 = %d, want 0", got)
	}
}

// TestEngineFlameBurst tests a burst of three flame particles with a fixed
// ten-tick lifetime retiring together.
func TestEngineFlameBurst(t *testing.T) {
	reg := testRegistry(t, "flame:\n  behavior: flame\n  lifetime: [10, 10]\n")
	e := New(reg, QualityLow, 7)
	tex := ebiten.NewImage(2, 2)

	e.Emit(EmitConfig{Type: "flame", Count: 3, Textures: []*ebiten.Image{tex}})
	if got := e.ActiveCount(); got != 3 {
		t.Fatalf("ActiveCount() after emit = %d, want 3", got)
	}
	for i := 0; i < 9; i++ {
		e.Tick()
	}
	if got := e.ActiveCount(); got != 3 {
		t.Fatalf("ActiveCount() after 9 ticks = %d, want 3", got)
	}
	e.Tick()
	if got := e.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount() after 10 ticks = %d, want 0", got)
	}
}

// TestEnginePoolCapacity tests that emission beyond the quality preset's
// capacity drops the excess without disturbing existing particles.
func TestEnginePoolCapacity(t *testing.T) {
	reg := testRegistry(t, "spark:\n  lifetime: [50, 50]\n")
	e := New(reg, QualityLow, 1)

	if got := e.Capacity(); got != 50 {
		t.Fatalf("Capacity() = %d, want 50", got)
	}
	e.Emit(EmitConfig{Type: "spark", Count: 60})
	if got := e.ActiveCount(); got != 50 {
		t.Errorf("ActiveCount() after over-emit = %d, want 50", got)
	}
	e.Emit(EmitConfig{Type: "spark", Count: 10})
	if got := e.ActiveCount(); got != 50 {
		t.Errorf("ActiveCount() after second over-emit = %d, want 50", got)
	}
}

// TestEngineQualityPresets tests the pool sizes behind the presets.
func TestEngineQualityPresets(t *testing.T) {
	tests := []struct {
		name    string
		quality Quality
		want    int
	}{
		{"Low", QualityLow, 50},
		{"Medium", QualityMedium, 150},
		{"High", QualityHigh, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.quality.Slots(); got != tt.want {
				t.Errorf("Slots() = %d, want %d", got, tt.want)
			}
			if got := ParseQuality(tt.quality.String()); got != tt.quality {
				t.Errorf("ParseQuality(%q) = %v, want %v", tt.quality.String(), got, tt.quality)
			}
		})
	}
}

// TestEngineMissingPhysics tests that a type without a physics entry is
// skipped without creating particles.
func TestEngineMissingPhysics(t *testing.T) {
	reg := testRegistry(t, "")
	e := New(reg, QualityLow, 1)

	e.Emit(EmitConfig{Type: "ghost", Count: 5})
	if got := e.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount() = %d, want 0", got)
	}
}

// TestEngineInterpolationBoundary tests that an update worth exactly one
// tick period advances one tick and renders the new position unblended,
// and that a half period renders the projected midpoint.
func TestEngineInterpolationBoundary(t *testing.T) {
	reg := testRegistry(t, linearDoc)
	e := New(reg, QualityLow, 1)
	e.Emit(EmitConfig{Type: "mover", Velocity: physics.Vec3{X: 1}})

	e.Update(TickDuration)
	pos := e.Layer().Sprites()[0].Pos
	if !near(pos.X, 1) || !near(pos.Y, 0) || !near(pos.Z, 0) {
		t.Fatalf("sprite position after one period = %v, want {1 0 0}", pos)
	}

	e.Update(TickDuration / 2)
	pos = e.Layer().Sprites()[0].Pos
	if !near(pos.X, 1.5) {
		t.Errorf("sprite position X at half fraction = %v, want 1.5", pos.X)
	}
}

// TestEngineGravityFriction tests the per-tick order: velocity delta,
// gravity, integration, then friction.
func TestEngineGravityFriction(t *testing.T) {
	doc := `
heavy:
  behavior: portal
  lifetime: [100, 100]
  gravity: 1
  friction: 0.5
  tickVelocityDelta: {x: 0, y: 0, z: 0}
`
	reg := testRegistry(t, doc)
	e := New(reg, QualityLow, 1)
	e.Emit(EmitConfig{Type: "heavy", Velocity: physics.Vec3{X: 1}})

	e.Update(TickDuration)
	pos := e.Layer().Sprites()[0].Pos
	if !near(pos.X, 1) || !near(pos.Y, -0.04) {
		t.Fatalf("position after tick 1 = %v, want {1 -0.04 0}", pos)
	}

	// Friction halved the velocity after the first move, gravity keeps
	// pulling before the second one.
	e.Update(TickDuration)
	pos = e.Layer().Sprites()[0].Pos
	if !near(pos.X, 1.5) || !near(pos.Y, -0.1) {
		t.Errorf("position after tick 2 = %v, want {1.5 -0.1 0}", pos)
	}
}

// TestEngineNoFriction tests that noFriction keeps the velocity intact
// across ticks.
func TestEngineNoFriction(t *testing.T) {
	reg := testRegistry(t, linearDoc)
	e := New(reg, QualityLow, 1)
	e.Emit(EmitConfig{Type: "mover", Velocity: physics.Vec3{X: 1}})

	e.Update(TickDuration)
	e.Update(TickDuration)
	pos := e.Layer().Sprites()[0].Pos
	if !near(pos.X, 2) {
		t.Errorf("position X after two ticks = %v, want 2", pos.X)
	}
}

// TestEngineDeclarativeTickDelta tests the declarative per-tick velocity
// add accumulating across ticks.
func TestEngineDeclarativeTickDelta(t *testing.T) {
	doc := `
riser:
  behavior: portal
  lifetime: [100, 100]
  noFriction: true
  tickVelocityDelta: {y: 0.01}
`
	reg := testRegistry(t, doc)
	e := New(reg, QualityLow, 1)
	e.Emit(EmitConfig{Type: "riser"})

	e.Update(TickDuration)
	e.Update(TickDuration)
	pos := e.Layer().Sprites()[0].Pos
	if !near(pos.Y, 0.03) {
		t.Errorf("position Y after two ticks = %v, want 0.03", pos.Y)
	}
}

// TestEnginePortalMotion tests the portal pull toward the block center and
// the reverse variant pushing away.
func TestEnginePortalMotion(t *testing.T) {
	doc := `
portal:
  behavior: portal
  lifetime: [100, 100]
reverse_portal:
  behavior: reverse_portal
  lifetime: [100, 100]
`
	reg := testRegistry(t, doc)

	tests := []struct {
		name  string
		typ   string
		wantX float64
	}{
		{"Portal pulls inward", "portal", 0.98},
		{"Reverse portal pushes outward", "reverse_portal", 1.02},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(reg, QualityLow, 1)
			e.Emit(EmitConfig{Type: tt.typ, Position: physics.Vec3{X: 1, Y: 0.5}})
			e.Update(TickDuration)
			pos := e.Layer().Sprites()[0].Pos
			if !near(pos.X, tt.wantX) || !near(pos.Y, 0.504) {
				t.Errorf("position after tick = %v, want {%v 0.504 0}", pos, tt.wantX)
			}
		})
	}
}

// TestEngineEnchantMotion tests the enchant rise and age-keyed spiral.
func TestEngineEnchantMotion(t *testing.T) {
	doc := `
enchant:
  behavior: enchant
  lifetime: [100, 100]
  noFriction: true
`
	reg := testRegistry(t, doc)
	e := New(reg, QualityLow, 1)
	e.Emit(EmitConfig{Type: "enchant"})

	e.Update(TickDuration)
	pos := e.Layer().Sprites()[0].Pos
	if !near(pos.Y, 0.03) {
		t.Errorf("position Y after tick = %v, want 0.03", pos.Y)
	}
	if !near(pos.X, math.Sin(0.25)*0.005) {
		t.Errorf("position X after tick = %v, want %v", pos.X, math.Sin(0.25)*0.005)
	}
	if !near(pos.Z, math.Cos(0.25)*0.005) {
		t.Errorf("position Z after tick = %v, want %v", pos.Z, math.Cos(0.25)*0.005)
	}
}

// TestEngineRisingSpawn tests the rising spawn scatter staying inside its
// bounds with near-zero initial motion.
func TestEngineRisingSpawn(t *testing.T) {
	reg := testRegistry(t, "wisp:\n  behavior: rising\n  lifetime: [50, 50]\n")
	e := New(reg, QualityMedium, 99)

	e.Emit(EmitConfig{Type: "wisp", Count: 50})
	e.Update(0)
	for i, s := range e.Layer().Sprites() {
		if i >= 50 {
			break
		}
		if math.Abs(s.Pos.X) > 0.05 || math.Abs(s.Pos.Y) > 0.05 || math.Abs(s.Pos.Z) > 0.05 {
			t.Fatalf("sprite %d spawn position %v outside the 0.05 scatter", i, s.Pos)
		}
	}
}

// TestEngineChildSpawning tests the campfire pattern: one child per parent
// tick when textures are registered, none at all when they are not.
func TestEngineChildSpawning(t *testing.T) {
	doc := `
campfire_smoke:
  lifetime: [6, 6]
  spawn:
    - type: large_smoke
      count: "1"
large_smoke:
  lifetime: [3, 3]
`
	reg := testRegistry(t, doc)

	t.Run("With registered textures", func(t *testing.T) {
		e := New(reg, QualityMedium, 5)
		e.RegisterChildTextures("large_smoke", []*ebiten.Image{ebiten.NewImage(2, 2)}, nil, 0)
		e.Emit(EmitConfig{Type: "campfire_smoke"})

		want := []int{2, 3, 4, 4, 4, 2}
		for i, w := range want {
			e.Tick()
			if got := e.ActiveCount(); got != w {
				t.Fatalf("ActiveCount() after tick %d = %d, want %d", i+1, got, w)
			}
		}
	})

	t.Run("Without registered textures", func(t *testing.T) {
		e := New(reg, QualityMedium, 5)
		e.Emit(EmitConfig{Type: "campfire_smoke"})
		e.Tick()
		if got := e.ActiveCount(); got != 1 {
			t.Errorf("ActiveCount() after tick = %d, want 1", got)
		}
	})
}

// TestEngineChildContext tests that spawn-count expressions see the parent
// particle's age.
func TestEngineChildContext(t *testing.T) {
	doc := `
fountain:
  lifetime: [4, 4]
  spawn:
    - type: droplet
      count: "this.age"
droplet:
  lifetime: [50, 50]
`
	reg := testRegistry(t, doc)
	e := New(reg, QualityMedium, 3)
	e.RegisterChildTextures("droplet", []*ebiten.Image{ebiten.NewImage(2, 2)}, nil, 0)
	e.Emit(EmitConfig{Type: "fountain"})

	want := []int{2, 4, 7, 6}
	for i, w := range want {
		e.Tick()
		if got := e.ActiveCount(); got != w {
			t.Fatalf("ActiveCount() after tick %d = %d, want %d", i+1, got, w)
		}
	}
}

// TestEngineSpawnGates tests probability gating and rejection of spawn
// expressions outside the supported grammar.
func TestEngineSpawnGates(t *testing.T) {
	tests := []struct {
		name        string
		probability string
		wantAfter3  int
	}{
		{"Probability zero never fires", "\"0\"", 1},
		{"Probability one always fires", "\"1\"", 4},
		{"Unsupported expression disables rule", "\"target.acquire()\"", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `
parent:
  lifetime: [20, 20]
  spawn:
    - type: child
      probability: ` + tt.probability + `
child:
  lifetime: [50, 50]
`
			reg := testRegistry(t, doc)
			e := New(reg, QualityMedium, 5)
			e.RegisterChildTextures("child", []*ebiten.Image{ebiten.NewImage(2, 2)}, nil, 0)
			e.Emit(EmitConfig{Type: "parent"})
			for i := 0; i < 3; i++ {
				e.Tick()
			}
			if got := e.ActiveCount(); got != tt.wantAfter3 {
				t.Errorf("ActiveCount() after 3 ticks = %d, want %d", got, tt.wantAfter3)
			}
		})
	}
}

// TestEngineTintPrecedence tests the spawn color resolution order.
func TestEngineTintPrecedence(t *testing.T) {
	doc := `
ash:
  behavior: ash_smoke
  lifetime: [50, 50]
colored:
  lifetime: [50, 50]
  color: [0.1, 0.2, 0.3]
plain:
  lifetime: [50, 50]
`
	reg := testRegistry(t, doc)

	t.Run("Emission tint wins", func(t *testing.T) {
		e := New(reg, QualityLow, 1)
		tint := [3]float64{0.2, 0.3, 0.9}
		e.Emit(EmitConfig{Type: "ash", Tint: &tint})
		e.Update(0)
		if got := e.Layer().Sprites()[0].Color; got != tint {
			t.Errorf("sprite color = %v, want %v", got, tint)
		}
	})

	t.Run("Ash smoke draws a gray", func(t *testing.T) {
		e := New(reg, QualityLow, 1)
		e.Emit(EmitConfig{Type: "ash"})
		e.Update(0)
		c := e.Layer().Sprites()[0].Color
		if c[0] != c[1] || c[1] != c[2] {
			t.Fatalf("sprite color = %v, want equal channels", c)
		}
		if c[0] < 0.5 || c[0] > 0.8 {
			t.Errorf("sprite gray = %v, want within [0.5, 0.8]", c[0])
		}
	})

	t.Run("Static physics color", func(t *testing.T) {
		e := New(reg, QualityLow, 1)
		e.Emit(EmitConfig{Type: "colored"})
		e.Update(0)
		if got := e.Layer().Sprites()[0].Color; got != [3]float64{0.1, 0.2, 0.3} {
			t.Errorf("sprite color = %v, want {0.1 0.2 0.3}", got)
		}
	})

	t.Run("Default white", func(t *testing.T) {
		e := New(reg, QualityLow, 1)
		e.Emit(EmitConfig{Type: "plain"})
		e.Update(0)
		if got := e.Layer().Sprites()[0].Color; got != [3]float64{1, 1, 1} {
			t.Errorf("sprite color = %v, want white", got)
		}
	})
}

// TestEngineSizeCurves tests the behavior size envelopes seen through the
// sprite layer.
func TestEngineSizeCurves(t *testing.T) {
	doc := `
ash:
  behavior: ash_smoke
  lifetime: [32, 32]
  quadSize: 0.2
  noFriction: true
flame:
  behavior: flame
  lifetime: [10, 10]
  quadSize: 0.1
plain:
  lifetime: [50, 50]
`
	reg := testRegistry(t, doc)

	t.Run("Ash grows in over the first fraction", func(t *testing.T) {
		e := New(reg, QualityLow, 1)
		e.Emit(EmitConfig{Type: "ash"})
		e.Update(0)
		if got := e.Layer().Sprites()[0].Size; !near(got, 0) {
			t.Fatalf("size at birth = %v, want 0", got)
		}
		e.Update(TickDuration / 2)
		if got := e.Layer().Sprites()[0].Size; !near(got, 0.075) {
			t.Fatalf("size at half fraction = %v, want 0.075", got)
		}
		e.Update(TickDuration / 2)
		if got := e.Layer().Sprites()[0].Size; !near(got, 0.15) {
			t.Errorf("size after one tick = %v, want 0.15", got)
		}
	})

	t.Run("Flame shrinks quadratically", func(t *testing.T) {
		e := New(reg, QualityLow, 1)
		e.Emit(EmitConfig{Type: "flame"})
		for i := 0; i < 5; i++ {
			e.Update(TickDuration)
		}
		if got := e.Layer().Sprites()[0].Size; !near(got, 0.0875) {
			t.Errorf("size at half life = %v, want 0.0875", got)
		}
	})

	t.Run("Scale multiplies the spawn size", func(t *testing.T) {
		e := New(reg, QualityLow, 1)
		e.Emit(EmitConfig{Type: "flame", Scale: 2})
		e.Update(0)
		if got := e.Layer().Sprites()[0].Size; !near(got, 0.2) {
			t.Errorf("size with scale 2 = %v, want 0.2", got)
		}
	})

	t.Run("Omitted quad size randomizes", func(t *testing.T) {
		e := New(reg, QualityLow, 1)
		e.Emit(EmitConfig{Type: "plain"})
		e.Update(0)
		got := e.Layer().Sprites()[0].Size
		if got < 0.1 || got > 0.2 {
			t.Errorf("size = %v, want within [0.1, 0.2]", got)
		}
	})
}

// TestEngineFrameModes tests the three frame-selection modes.
func TestEngineFrameModes(t *testing.T) {
	frames := []*ebiten.Image{
		ebiten.NewImage(2, 2),
		ebiten.NewImage(2, 2),
		ebiten.NewImage(2, 2),
		ebiten.NewImage(2, 2),
	}

	t.Run("Cycling", func(t *testing.T) {
		reg := testRegistry(t, "loop:\n  lifetime: [50, 50]\n")
		e := New(reg, QualityLow, 1)
		e.Emit(EmitConfig{Type: "loop", Textures: frames, FrameDuration: 2})
		e.Update(0)
		if got := e.Layer().Sprites()[0].Image; got != frames[0] {
			t.Fatalf("frame at birth = %p, want frames[0]", got)
		}
		e.Tick()
		e.Tick()
		e.Update(0)
		if got := e.Layer().Sprites()[0].Image; got != frames[1] {
			t.Errorf("frame after 2 ticks = %p, want frames[1]", got)
		}
		for i := 0; i < 6; i++ {
			e.Tick()
		}
		e.Update(0)
		if got := e.Layer().Sprites()[0].Image; got != frames[0] {
			t.Errorf("frame after wrap = %p, want frames[0]", got)
		}
	})

	t.Run("Lifetime mapped", func(t *testing.T) {
		reg := testRegistry(t, "mapped:\n  lifetime: [4, 4]\n  lifetimeAnim: true\n")
		e := New(reg, QualityLow, 1)
		e.Emit(EmitConfig{Type: "mapped", Textures: frames})
		e.Update(0)
		if got := e.Layer().Sprites()[0].Image; got != frames[0] {
			t.Fatalf("frame at birth = %p, want frames[0]", got)
		}
		for i := 1; i <= 3; i++ {
			e.Tick()
			e.Update(0)
			if got := e.Layer().Sprites()[0].Image; got != frames[i] {
				t.Errorf("frame at age %d = %p, want frames[%d]", i, got, i)
			}
		}
	})

	t.Run("Static random", func(t *testing.T) {
		reg := testRegistry(t, "still:\n  lifetime: [50, 50]\n  randomFrame: true\n")
		e := New(reg, QualityLow, 1)
		e.Emit(EmitConfig{Type: "still", Textures: frames})
		e.Update(0)
		first := e.Layer().Sprites()[0].Image
		found := false
		for _, f := range frames {
			if f == first {
				found = true
			}
		}
		if !found {
			t.Fatal("static frame is not one of the supplied frames")
		}
		for i := 0; i < 7; i++ {
			e.Tick()
		}
		e.Update(0)
		if got := e.Layer().Sprites()[0].Image; got != first {
			t.Errorf("static frame changed after ticks: %p, want %p", got, first)
		}
	})
}

// TestEngineAdditiveFlag tests the emissive-family blend flag on sprites.
func TestEngineAdditiveFlag(t *testing.T) {
	doc := `
flame:
  behavior: flame
  lifetime: [50, 50]
smoke:
  lifetime: [50, 50]
`
	reg := testRegistry(t, doc)
	e := New(reg, QualityLow, 1)

	e.Emit(EmitConfig{Type: "flame"})
	e.Emit(EmitConfig{Type: "smoke"})
	e.Update(0)
	sprites := e.Layer().Sprites()
	if !sprites[0].Additive {
		t.Error("flame sprite Additive = false, want true")
	}
	if sprites[1].Additive {
		t.Error("smoke sprite Additive = true, want false")
	}
}

// TestEngineDeterminism tests that identically seeded engines replay an
// identical simulation.
func TestEngineDeterminism(t *testing.T) {
	doc := "burst:\n  lifetime: [20, 30]\n  velocityJitter: {x: 0.1, y: 0.1, z: 0.1}\n"
	run := func() []physics.Vec3 {
		reg := testRegistry(t, doc)
		e := New(reg, QualityLow, 1234)
		e.Emit(EmitConfig{Type: "burst", Count: 10})
		for i := 0; i < 5; i++ {
			e.Update(TickDuration)
		}
		out := make([]physics.Vec3, 10)
		for i := range out {
			out[i] = e.Layer().Sprites()[i].Pos
		}
		return out
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sprite %d diverged: %v vs %v", i, a[i], b[i])
		}
	}
}
