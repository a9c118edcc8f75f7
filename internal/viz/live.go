package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/fieldsim/internal/config"
	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/experiment"
	"github.com/san-kum/fieldsim/internal/metrics"
	"github.com/san-kum/fieldsim/internal/physics"
	"go.uber.org/zap"
)

const (
	statsWidth      = 36
	headerRows      = 1
	defaultCols     = 80
	defaultRows     = 24
	historyCapacity = 300

	// WorldScale is the number of world units per braille sub-pixel.
	WorldScale = 4.0

	wheelImpulse = 1.5
	scrollDecay  = 0.92
)

type TickMsg time.Time

// ConfigMsg carries a reloaded configuration.
type ConfigMsg struct{ Config *config.Config }

// Model is the live terminal host. It owns the refresh loop and drives the
// engine one frame per tick.
type Model struct {
	registry *experiment.Registry
	cfg      *config.Config
	modes    []string
	logger   *zap.Logger

	engine  *dynamo.Engine
	surface *BrailleSurface
	scroll  dynamo.ScrollRef
	motion  *dynamo.MotionToggle
	energy  *metrics.KineticEnergy

	theme         Theme
	styles        Styles
	running       bool
	showHelp      bool
	pointerDown   bool
	held          string
	energyHistory []float64
	scrollHistory []float64
	updates       <-chan *config.Config
	err           error

	recording bool
	frames    []*image.Paletted
}

func NewModel(cfg *config.Config, registry *experiment.Registry, logger *zap.Logger) (Model, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := Model{
		registry: registry,
		cfg:      cfg.Clone(),
		modes:    registry.ListModes(),
		logger:   logger,
		surface:  NewBrailleSurface(defaultCols, defaultRows, defaultCols*2*WorldScale, defaultRows*4*WorldScale),
		scroll:   dynamo.NewScrollRef(),
		motion:   &dynamo.MotionToggle{},
		theme:    ThemeMidnight,
		styles:   NewStyles(ThemeMidnight),
		running:  true,
	}
	m.motion.Set(cfg.ReducedMotion)
	if err := m.rebuild(); err != nil {
		return Model{}, err
	}
	return m, nil
}

// WithUpdates makes the model rebuild its engine for every config received.
func (m Model) WithUpdates(ch <-chan *config.Config) Model {
	m.updates = ch
	return m
}

func (m Model) WithTheme(name string) Model {
	m.theme = GetTheme(name)
	m.styles = NewStyles(m.theme)
	return m
}

// Engine is the engine currently on screen.
func (m Model) Engine() *dynamo.Engine { return m.engine }

// rebuild replaces the engine. Body count is fixed per engine, so every
// config change or mode switch starts a fresh one on the same surface.
func (m *Model) rebuild() error {
	if m.engine != nil {
		m.engine.Stop()
	}
	w, h := m.surface.Size()
	cfg := m.cfg.Clone()
	cfg.Width, cfg.Height = w, h

	eng, err := m.registry.NewEngine(cfg, m.surface, m.motion)
	if err != nil {
		return err
	}
	m.energy = metrics.NewKineticEnergy()
	eng.SetLogger(m.logger)
	eng.SetScrollSource(m.scroll)
	eng.AddMetric(m.energy)

	m.engine = eng
	m.energyHistory = m.energyHistory[:0]
	m.held = ""
	m.pointerDown = false
	m.logger.Info("engine built", zap.String("mode", cfg.Mode), zap.Int("count", cfg.Count))
	return nil
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func waitForConfig(ch <-chan *config.Config) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		cfg, ok := <-ch
		if !ok {
			return nil
		}
		return ConfigMsg{Config: cfg}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), waitForConfig(m.updates))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.engine.Stop()
			if m.recording {
				m.saveGIF()
			}
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "m":
			m.cfg.Mode = m.nextMode()
			if preset := config.ListPresets(m.cfg.Mode); len(preset) > 0 {
				next := config.GetPreset(m.cfg.Mode, preset[0])
				next.Seed = m.cfg.Seed
				m.cfg = next
			}
			m.err = m.rebuild()
		case "R":
			m.cfg.Seed++
			m.err = m.rebuild()
		case "r":
			m.motion.Toggle()
		case "t":
			m.theme = NextTheme(m.theme.Name)
			m.styles = NewStyles(m.theme)
		case "g":
			if m.recording {
				m.saveGIF()
			}
			m.recording = !m.recording
		case "up", "k":
			m.scroll.Add(-wheelImpulse)
		case "down", "j":
			m.scroll.Add(wheelImpulse)
		case "?":
			m.showHelp = !m.showHelp
		}

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tea.WindowSizeMsg:
		cols := max(msg.Width-statsWidth-2, 10)
		rows := max(msg.Height-headerRows-1, 5)
		m.surface.SetGrid(cols, rows)
		m.engine.Resize(float64(cols)*2*WorldScale, float64(rows)*4*WorldScale)

	case ConfigMsg:
		m.cfg = msg.Config.Clone()
		m.motion.Set(m.cfg.ReducedMotion)
		m.err = m.rebuild()
		return m, waitForConfig(m.updates)

	case TickMsg:
		if m.running && m.err == nil {
			if err := m.engine.Frame(); err != nil {
				m.err = err
			}
			m.scroll.Decay(scrollDecay)
			m.energyHistory = appendCapped(m.energyHistory, m.energy.Last())
			m.scrollHistory = appendCapped(m.scrollHistory, m.scroll.ScrollVelocity())
			if m.recording {
				m.captureFrame()
			}
		}
		return m, tick()
	}
	return m, nil
}

func appendCapped(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[len(h)-historyCapacity:]
	}
	return h
}

func (m Model) nextMode() string {
	for i, name := range m.modes {
		if name == m.cfg.Mode {
			return m.modes[(i+1)%len(m.modes)]
		}
	}
	return m.modes[0]
}

// toWorld maps a terminal cell to the centre of that cell in world units.
func toWorld(x, y int) dynamo.Vec {
	return dynamo.Vec{
		X: (float64(x) + 0.5) * 2 * WorldScale,
		Y: (float64(y-headerRows) + 0.5) * 4 * WorldScale,
	}
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	p := toWorld(msg.X, msg.Y)
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.scroll.Add(-wheelImpulse)
	case msg.Button == tea.MouseButtonWheelDown:
		m.scroll.Add(wheelImpulse)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.pointerDown = true
		if idx := m.engine.PointerDown(p); idx >= 0 {
			m.held = m.engine.Bodies()[idx].Label
		}
	case msg.Action == tea.MouseActionRelease:
		if m.pointerDown {
			m.engine.PointerUp()
		}
		m.pointerDown = false
		m.held = ""
	case msg.Action == tea.MouseActionMotion:
		m.engine.PointerMove(p)
	}
}

func (m Model) View() string {
	header := GradientText(strings.ToUpper(m.engine.Mode().Name()), m.theme.Title, m.theme.Accent)
	if m.showHelp {
		return header + "\n" + m.helpView()
	}
	field := m.surface.Render()
	return header + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, field, m.styles.Panel.Render(m.statsView()))
}

func (m Model) statsView() string {
	st := m.styles
	var s strings.Builder

	status := st.Running.Render("RUNNING")
	if !m.running {
		status = st.Paused.Render("PAUSED")
	}
	if m.recording {
		status += " " + st.Warning.Render("● REC")
	}
	s.WriteString(status + "\n\n")

	row := func(label, value string) {
		s.WriteString(st.Label.Render(label) + st.Value.Render(value) + "\n")
	}
	bodies := m.engine.Bodies()
	row("Frame", fmt.Sprintf("%d", m.engine.FrameIndex()))
	row("Bodies", fmt.Sprintf("%d", len(bodies)))
	row("Scroll", fmt.Sprintf("%+.2f", m.scroll.ScrollVelocity()))
	row("Reduced", fmt.Sprintf("%v", m.motion.IsReducedMotion()))
	row("Theme", m.theme.Name)
	if idx := physics.Dragged(bodies); idx >= 0 {
		label := m.held
		if label == "" {
			label = fmt.Sprintf("#%d", idx)
		}
		row("Holding", label)
	}
	if n := len(m.engine.Errors()); n > 0 {
		s.WriteString(st.Warning.Render(fmt.Sprintf("%d invariant violations", n)) + "\n")
	}
	if m.err != nil {
		s.WriteString(st.Warning.Render(m.err.Error()) + "\n")
	}

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(statsWidth-12), asciigraph.Caption("kinetic energy"))
		s.WriteString("\n" + st.Graph.Render(chart) + "\n")
	}
	if len(m.scrollHistory) > 0 {
		s.WriteString("\n" + st.Label.Render("scroll") + st.Graph.Render(Sparkline(m.scrollHistory, statsWidth-16)) + "\n")
	}

	s.WriteString(st.Hint.Render("SP:pause M:mode R:reseed\nr:reduced T:theme G:gif\n↑↓/wheel:scroll ?:help Q:quit"))
	return s.String()
}

func (m Model) helpView() string {
	return `
╔══════════════════════════════════════╗
║          KEYBOARD AND MOUSE          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  M        - Next mode                ║
║  R        - Rebuild with a new seed  ║
║  r        - Toggle reduced motion    ║
║  T        - Cycle themes             ║
║  G        - Toggle GIF recording     ║
║  ↑/↓      - Scroll velocity          ║
║  Wheel    - Scroll velocity          ║
║  Drag     - Grab and throw a ball    ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝
`
}

func (m *Model) captureFrame() {
	canvas := m.surface.Canvas()
	charW, charH := 8, 16
	dotW, dotH := charW/2, charH/4
	img := image.NewPaletted(image.Rect(0, 0, canvas.Width*charW, canvas.Height*charH), color.Palette{color.Black, color.White})

	for y := 0; y < canvas.Height*4; y++ {
		for x := 0; x < canvas.Width*2; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			for py := 0; py < dotH; py++ {
				for px := 0; px < dotW; px++ {
					img.SetColorIndex(x*dotW+px, y*dotH+py, 1)
				}
			}
		}
	}
	m.frames = append(m.frames, img)
}

func (m *Model) saveGIF() {
	if len(m.frames) == 0 {
		return
	}
	anim := gif.GIF{}
	for _, frame := range m.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 2)
	}
	m.frames = nil

	f, err := os.Create("fieldsim.gif")
	if err != nil {
		m.logger.Warn("gif not saved", zap.Error(err))
		return
	}
	defer f.Close()
	if err := gif.EncodeAll(f, &anim); err != nil {
		m.logger.Warn("gif not saved", zap.Error(err))
	}
}

// Run starts the terminal host and blocks until the user quits.
func Run(m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	final, err := p.Run()
	if fm, ok := final.(Model); ok && fm.engine != nil {
		fm.engine.Stop()
	}
	return err
}
