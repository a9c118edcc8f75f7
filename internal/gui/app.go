package gui

import (
	"fmt"
	"math"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/san-kum/fieldsim/internal/config"
	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/experiment"
	"github.com/san-kum/fieldsim/internal/metrics"
	"go.uber.org/zap"
)

var (
	ColAccent  = rl.NewColor(180, 180, 180, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColWarn    = rl.NewColor(239, 68, 68, 255)
)

const (
	wheelImpulse = 1.5
	scrollDecay  = 0.92
	maxTelemetry = 200
)

// App is the window host. It owns the refresh loop, polls raylib input once
// per refresh and runs exactly one engine frame in between.
type App struct {
	registry *experiment.Registry
	cfg      *config.Config
	logger   *zap.Logger

	Engine  *dynamo.Engine
	Surface *Surface
	Scroll  dynamo.ScrollRef
	Motion  *dynamo.MotionToggle
	energy  *metrics.KineticEnergy

	Modes     []string
	Selected  int
	InMenu    bool
	Running   bool
	ShowHUD   bool
	Telemetry []float64
	Font      rl.Font
	err       error
}

func initWindow(w, h int32) {
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(w, h, "fieldsim")
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

func loadFont() rl.Font {
	font := rl.LoadFontEx("/usr/share/fonts/liberation/LiberationMono-Regular.ttf", 32, nil, 0)
	rl.SetTextureFilter(font.Texture, rl.FilterBilinear)
	return font
}

// NewApp builds the host around cfg. The window must already be open. With
// interactive set the app starts in the mode menu.
func NewApp(cfg *config.Config, registry *experiment.Registry, logger *zap.Logger, interactive bool) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	font := loadFont()
	a := &App{
		registry:  registry,
		cfg:       cfg.Clone(),
		logger:    logger,
		Surface:   NewSurface(font, float64(rl.GetScreenWidth()), float64(rl.GetScreenHeight())),
		Scroll:    dynamo.NewScrollRef(),
		Motion:    &dynamo.MotionToggle{},
		Modes:     registry.ListModes(),
		InMenu:    interactive,
		Running:   !interactive,
		ShowHUD:   true,
		Telemetry: make([]float64, 0, maxTelemetry),
		Font:      font,
	}
	a.Motion.Set(cfg.ReducedMotion)
	for i, m := range a.Modes {
		if m == cfg.Mode {
			a.Selected = i
		}
	}
	if err := a.load(); err != nil {
		return nil, err
	}
	return a, nil
}

// Run opens a window, runs cfg until the window closes and tears down.
func Run(cfg *config.Config, registry *experiment.Registry, logger *zap.Logger, interactive bool) error {
	initWindow(int32(cfg.Width), int32(cfg.Height))
	defer rl.CloseWindow()

	app, err := NewApp(cfg, registry, logger, interactive)
	if err != nil {
		return err
	}
	defer app.Close()
	app.RunLoop()
	return nil
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() {
		if quit := a.Update(); quit {
			return
		}
		a.Draw()
	}
}

func (a *App) Close() {
	if a.Engine != nil {
		a.Engine.Stop()
	}
	a.Surface.Unload()
	rl.UnloadFont(a.Font)
}

func (a *App) load() error {
	if a.Engine != nil {
		a.Engine.Stop()
	}
	cfg := a.cfg.Clone()
	cfg.Width, cfg.Height = a.Surface.Size()

	eng, err := a.registry.NewEngine(cfg, a.Surface, a.Motion)
	if err != nil {
		return err
	}
	a.energy = metrics.NewKineticEnergy()
	eng.SetLogger(a.logger)
	eng.SetScrollSource(a.Scroll)
	eng.AddMetric(a.energy)
	a.Engine = eng
	a.Telemetry = a.Telemetry[:0]
	a.logger.Info("engine built", zap.String("mode", cfg.Mode), zap.Int("count", cfg.Count))
	return nil
}

func (a *App) selectMode(name string) {
	if presets := config.ListPresets(name); len(presets) > 0 {
		next := config.GetPreset(name, presets[0])
		next.Seed = a.cfg.Seed
		a.cfg = next
	} else {
		a.cfg.Mode = name
	}
	a.err = a.load()
}

// Update polls input. It reports true when the user asked to quit.
func (a *App) Update() bool {
	if rl.IsKeyPressed(rl.KeyQ) {
		return true
	}

	if rl.IsWindowResized() {
		a.Engine.Resize(float64(rl.GetScreenWidth()), float64(rl.GetScreenHeight()))
	}

	if a.InMenu {
		if rl.IsKeyPressed(rl.KeyDown) || rl.IsKeyPressed(rl.KeyJ) {
			a.Selected = (a.Selected + 1) % len(a.Modes)
		}
		if rl.IsKeyPressed(rl.KeyUp) || rl.IsKeyPressed(rl.KeyK) {
			a.Selected = (a.Selected + len(a.Modes) - 1) % len(a.Modes)
		}
		if rl.IsKeyPressed(rl.KeyEnter) || rl.IsKeyPressed(rl.KeySpace) {
			a.selectMode(a.Modes[a.Selected])
			a.InMenu = false
			a.Running = true
		}
		return false
	}

	if rl.IsKeyPressed(rl.KeyEscape) {
		a.InMenu = true
		a.Running = false
		return false
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		a.Running = !a.Running
	}
	if rl.IsKeyPressed(rl.KeyR) {
		if rl.IsKeyDown(rl.KeyLeftShift) {
			a.Motion.Toggle()
		} else {
			a.cfg.Seed++
			a.err = a.load()
		}
	}
	if rl.IsKeyPressed(rl.KeyH) {
		a.ShowHUD = !a.ShowHUD
	}

	mouse := rl.GetMousePosition()
	p := dynamo.Vec{X: float64(mouse.X), Y: float64(mouse.Y)}
	a.Engine.PointerMove(p)
	if rl.IsMouseButtonPressed(rl.MouseLeftButton) {
		a.Engine.PointerDown(p)
	}
	if rl.IsMouseButtonReleased(rl.MouseLeftButton) {
		a.Engine.PointerUp()
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		a.Scroll.Add(-float64(wheel) * wheelImpulse)
	}

	if a.Running && a.err == nil {
		a.frame()
		a.Scroll.Decay(scrollDecay)
	}
	return false
}

func (a *App) frame() {
	if !a.Surface.begin() {
		return
	}
	err := a.Engine.Frame()
	rl.EndTextureMode()
	if err != nil {
		a.err = err
		return
	}
	a.Telemetry = append(a.Telemetry, a.energy.Last())
	if len(a.Telemetry) > maxTelemetry {
		a.Telemetry = a.Telemetry[1:]
	}
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rlColor(a.Surface.Background))

	a.Surface.Present()
	if a.InMenu {
		a.drawMenu()
	} else if a.ShowHUD {
		a.DrawHUD()
	}

	rl.EndDrawing()
}

func (a *App) drawMenu() {
	rl.DrawRectangle(0, 0, int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight()), rl.NewColor(0, 0, 0, 180))
	a.drawText("fieldsim", 60, 60, 32, ColSelect)
	a.drawText("select a mode", 60, 100, 16, ColTextDim)
	for i, m := range a.Modes {
		col, prefix := ColText, "  "
		if i == a.Selected {
			col, prefix = ColSelect, "> "
		}
		a.drawText(prefix+m, 60, 150+i*30, 20, col)
	}
	a.drawText("[UP/DOWN] SELECT  [ENTER] RUN  [Q] QUIT", 60, rl.GetScreenHeight()-40, 14, ColTextDim)
}

func (a *App) DrawHUD() {
	w, h := rl.GetScreenWidth(), rl.GetScreenHeight()
	a.drawText("fieldsim", 30, 30, 24, ColSelect)
	a.drawText(fmt.Sprintf(":: %s", a.Engine.Mode().Name()), 150, 34, 16, ColText)

	status, col := "RUNNING", ColSelect
	if !a.Running {
		status, col = "PAUSED", ColTextDim
	}
	a.drawText(status, w-130, 30, 16, col)

	lines := []string{
		fmt.Sprintf("frame   %d", a.Engine.FrameIndex()),
		fmt.Sprintf("scroll  %+.2f", a.Scroll.ScrollVelocity()),
		fmt.Sprintf("reduced %v", a.Motion.IsReducedMotion()),
	}
	a.drawText(strings.Join(lines, "\n"), 30, 70, 14, ColText)
	if a.err != nil {
		a.drawText(a.err.Error(), 30, 140, 14, ColWarn)
	} else if n := len(a.Engine.Errors()); n > 0 {
		a.drawText(fmt.Sprintf("%d invariant violations", n), 30, 140, 14, ColWarn)
	}

	a.DrawTelemetry(int32(w-250), int32(h-120), 220, 60)

	a.drawText("[SPACE] PAUSE  [R] RESEED  [SHIFT+R] REDUCED  [H] HUD  [ESC] MENU  [Q] QUIT", 30, h-40, 14, ColTextDim)
	a.drawText(fmt.Sprintf("%d FPS", int32(rl.GetFPS())), w-130, h-40, 14, ColTextDim)
}

// DrawTelemetry plots kinetic energy history as a line strip.
func (a *App) DrawTelemetry(x, y, w, h int32) {
	if len(a.Telemetry) < 2 {
		return
	}
	peak := 0.0
	for _, v := range a.Telemetry {
		peak = math.Max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}
	points := make([]rl.Vector2, len(a.Telemetry))
	step := float32(w) / float32(maxTelemetry-1)
	for i, v := range a.Telemetry {
		points[i] = rl.NewVector2(float32(x)+float32(i)*step, float32(y+h)-float32(v/peak)*float32(h))
	}
	rl.DrawRectangleLines(x, y, w, h, ColTextDim)
	rl.DrawLineStrip(points, ColAccent)
	a.drawText("kinetic energy", int(x), int(y+h+6), 12, ColTextDim)
}

func (a *App) drawText(text string, x, y int, size int, color rl.Color) {
	rl.DrawTextEx(a.Font, text, rl.NewVector2(float32(x), float32(y)), float32(size), 1, color)
}
