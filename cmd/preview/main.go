// Package main provides a viewer tool for inspecting voxelfx particle
// effects against the shipped (or custom) physics and emission documents.
//
// Usage:
//
//	go run ./cmd/preview [flags]
//
// Flags:
//
//	--physics <path>   Physics registry YAML (default: embedded)
//	--effects <path>   Emission declarations YAML (default: embedded)
//	--effect <name>    Start with a specific effect group
//	--quality <q>      Pool quality: low, medium or high (overrides saved)
//	--seed <n>         Random seed (0 = time-based)
//
// Controls:
//
//	Left/Right Arrow  - Switch to previous/next effect
//	1-9, 0            - Quick jump to effect by index (0 = 10th)
//	Space             - Burst-emit the current effect
//	Tab               - Cycle pool quality
//	P                 - Toggle pause
//	R                 - Clear all active particles
//	Q/Escape          - Quit
package main

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"log"
	"math/rand"
	"sort"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/quasilyte/gdata/v2"

	"github.com/gonewx/voxelfx"
	"github.com/gonewx/voxelfx/pkg/emission"
	"github.com/gonewx/voxelfx/pkg/particles"
	"github.com/gonewx/voxelfx/pkg/physics"
)

const (
	screenWidth  = 1024
	screenHeight = 768
)

var (
	physicsFlag = flag.String("physics", "", "Physics registry YAML path (default: embedded)")
	effectsFlag = flag.String("effects", "", "Emission declarations YAML path (default: embedded)")
	effectFlag  = flag.String("effect", "", "Start with a specific effect group")
	qualityFlag = flag.String("quality", "", "Pool quality: low, medium or high (overrides saved setting)")
	seedFlag    = flag.Int64("seed", 0, "Random seed (0 = time-based)")
)

var errQuit = errors.New("quit requested")

// namedDecl pairs a declaration with its document key.
type namedDecl struct {
	name string
	decl emission.Decl
}

// effectGroup is one selectable effect: every declaration sharing a source
// tag, keyed by the tag (or the declaration name when untagged).
type effectGroup struct {
	name  string
	decls []namedDecl
}

// previewGame implements ebiten.Game for the effect viewer.
type previewGame struct {
	reg      *physics.Registry
	engine   *particles.Engine
	emitter  *emission.Emitter
	textures map[string][]*ebiten.Image
	project  func(physics.Vec3) (float64, float64, float64)

	groups  []effectGroup
	current int

	quality particles.Quality
	seed    int64
	rng     *rand.Rand
	store   *settingsStore

	paused bool
	status string
}

func newPreviewGame() (*previewGame, error) {
	reg, err := loadRegistry()
	if err != nil {
		return nil, err
	}
	decls, err := loadDecls()
	if err != nil {
		return nil, err
	}
	groups := groupEffects(decls)
	if len(groups) == 0 {
		return nil, fmt.Errorf("no emission declarations found")
	}

	manager, err := gdata.Open(gdata.Config{AppName: "voxelfx_preview"})
	if err != nil {
		log.Printf("[Preview] gdata unavailable: %v (settings will not persist)", err)
		manager = nil
	}
	store := newSettingsStore(manager)

	quality := particles.ParseQuality(store.settings.Quality)
	if *qualityFlag != "" {
		quality = particles.ParseQuality(*qualityFlag)
	}
	seed := *seedFlag
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	g := &previewGame{
		reg:      reg,
		textures: buildTextures(reg),
		project:  newProjection(screenWidth, screenHeight),
		groups:   groups,
		quality:  quality,
		seed:     seed,
		rng:      rand.New(rand.NewSource(seed)),
		store:    store,
	}
	g.rebuildEngine()

	start := 0
	wanted := store.settings.Effect
	if *effectFlag != "" {
		wanted = *effectFlag
	}
	for i, grp := range groups {
		if grp.name == wanted {
			start = i
			break
		}
	}
	g.selectEffect(start)

	log.Printf("[Preview] %d particle types, %d effects, quality %s", len(reg.Types()), len(groups), quality)
	return g, nil
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

// groupEffects buckets declarations by source tag and orders everything
// alphabetically so effect indexes are stable between runs.
func groupEffects(decls map[string]emission.Decl) []effectGroup {
	byTag := make(map[string][]namedDecl)
	for name, d := range decls {
		tag := d.Source
		if tag == "" {
			tag = name
		}
		byTag[tag] = append(byTag[tag], namedDecl{name: name, decl: d})
	}
	groups := make([]effectGroup, 0, len(byTag))
	for tag, nds := range byTag {
		sort.Slice(nds, func(i, j int) bool { return nds[i].name < nds[j].name })
		groups = append(groups, effectGroup{name: tag, decls: nds})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].name < groups[j].name })
	return groups
}

// rebuildEngine recreates the engine and emitter at the current quality and
// re-registers every type's child textures.
func (g *previewGame) rebuildEngine() {
	g.engine = particles.New(g.reg, g.quality, g.seed)
	g.emitter = emission.NewEmitter(g.engine, g.rng.Float64)
	for typ, frames := range g.textures {
		g.engine.RegisterChildTextures(typ, frames, nil, 0)
	}
}

// selectEffect binds the chosen group's declarations to the emitter.
func (g *previewGame) selectEffect(idx int) {
	g.current = idx
	grp := g.groups[idx]
	g.emitter.Reset()
	for _, nd := range grp.decls {
		g.emitter.Add(nd.name, nd.decl, g.textures[nd.decl.Type])
	}
	g.store.setEffect(grp.name)
	g.status = fmt.Sprintf("Selected: %s", grp.name)
}

// burst emits a one-shot volley of every declaration in the current group.
func (g *previewGame) burst() {
	grp := g.groups[g.current]
	for _, nd := range grp.decls {
		g.engine.Emit(particles.EmitConfig{
			Type:     nd.decl.Type,
			Position: nd.decl.Position,
			Velocity: nd.decl.Velocity,
			Count:    8,
			Textures: g.textures[nd.decl.Type],
			Tint:     nd.decl.Tint,
			Scale:    nd.decl.Scale,
		})
	}
	g.status = fmt.Sprintf("Burst: %s", grp.name)
}

func (g *previewGame) cycleQuality() {
	switch g.quality {
	case particles.QualityLow:
		g.quality = particles.QualityMedium
	case particles.QualityMedium:
		g.quality = particles.QualityHigh
	default:
		g.quality = particles.QualityLow
	}
	g.store.setQuality(g.quality.String())
	g.rebuildEngine()
	g.selectEffect(g.current)
	g.status = fmt.Sprintf("Quality: %s (%d slots)", g.quality, g.engine.Capacity())
}

func (g *previewGame) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return errQuit
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.paused = !g.paused
		if g.paused {
			g.status = "Paused - press P to resume"
		} else {
			g.status = "Resumed"
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.cycleQuality()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft) {
		g.selectEffect((g.current - 1 + len(g.groups)) % len(g.groups))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowRight) {
		g.selectEffect((g.current + 1) % len(g.groups))
	}
	for i := 0; i <= 9; i++ {
		if inpututil.IsKeyJustPressed(ebiten.Key(int(ebiten.Key0) + i)) {
			target := i
			if i == 0 {
				target = 10
			}
			target--
			if target >= 0 && target < len(g.groups) {
				g.selectEffect(target)
			}
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.burst()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.engine.Clear()
		g.status = "Cleared all particles"
	}

	if !g.paused {
		dt := 1.0 / 60.0
		g.emitter.Update(dt)
		g.engine.Update(dt)
	}
	return nil
}

func (g *previewGame) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 25, G: 25, B: 38, A: 255})
	g.drawGrid(screen)
	g.engine.Layer().Draw(screen, g.project)
	g.drawHUD(screen)
}

// drawGrid draws the ground plane and the unit block outline the emission
// positions are relative to.
func (g *previewGame) drawGrid(screen *ebiten.Image) {
	grid := color.RGBA{R: 52, G: 55, B: 70, A: 255}
	for i := -4; i <= 4; i++ {
		v := float64(i) * 0.25
		g.line(screen, physics.Vec3{X: v, Z: -1}, physics.Vec3{X: v, Z: 1}, grid)
		g.line(screen, physics.Vec3{X: -1, Z: v}, physics.Vec3{X: 1, Z: v}, grid)
	}

	edge := color.RGBA{R: 95, G: 100, B: 125, A: 255}
	const h = 0.5
	for _, y := range []float64{0, 1} {
		g.line(screen, physics.Vec3{X: -h, Y: y, Z: -h}, physics.Vec3{X: h, Y: y, Z: -h}, edge)
		g.line(screen, physics.Vec3{X: h, Y: y, Z: -h}, physics.Vec3{X: h, Y: y, Z: h}, edge)
		g.line(screen, physics.Vec3{X: h, Y: y, Z: h}, physics.Vec3{X: -h, Y: y, Z: h}, edge)
		g.line(screen, physics.Vec3{X: -h, Y: y, Z: h}, physics.Vec3{X: -h, Y: y, Z: -h}, edge)
	}
	for _, x := range []float64{-h, h} {
		for _, z := range []float64{-h, h} {
			g.line(screen, physics.Vec3{X: x, Z: z}, physics.Vec3{X: x, Y: 1, Z: z}, edge)
		}
	}
}

func (g *previewGame) line(screen *ebiten.Image, a, b physics.Vec3, clr color.Color) {
	x1, y1, _ := g.project(a)
	x2, y2, _ := g.project(b)
	vector.StrokeLine(screen, float32(x1), float32(y1), float32(x2), float32(y2), 1, clr, true)
}

func (g *previewGame) drawHUD(screen *ebiten.Image) {
	grp := g.groups[g.current]
	title := fmt.Sprintf("VoxelFX Preview - Effect %d/%d", g.current+1, len(g.groups))
	ebitenutil.DebugPrintAt(screen, title, 10, 10)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Effect: %s (%d declarations)", grp.name, len(grp.decls)), 10, 30)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Particles: %d/%d  Quality: %s  FPS: %.1f",
		g.engine.ActiveCount(), g.engine.Capacity(), g.quality, ebiten.ActualFPS()), 10, 50)
	if g.status != "" {
		ebitenutil.DebugPrintAt(screen, g.status, 10, 70)
	}
	if g.paused {
		ebitenutil.DebugPrintAt(screen, "PAUSED (press P to resume)", screenWidth-220, 10)
	}

	controls := []string{
		"Navigation: <-/-> = Prev/Next  1-9, 0 = Quick Jump",
		"Actions:    Space = Burst  R = Clear  Tab = Quality  P = Pause  Q = Quit",
	}
	y := screenHeight - len(controls)*20 - 10
	for i, line := range controls {
		ebitenutil.DebugPrintAt(screen, line, 10, y+i*20)
	}
}

func (g *previewGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	flag.Parse()

	game, err := newPreviewGame()
	if err != nil {
		log.Fatalf("Failed to initialize preview: %v", err)
	}

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("VoxelFX Effect Preview")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, errQuit) {
		log.Fatal(err)
	}
}
