package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/mkucko/chartscope/internal/candle"
	"github.com/mkucko/chartscope/internal/chart"
	"github.com/mkucko/chartscope/internal/feed"
	"github.com/mkucko/chartscope/tui/panels"
	"github.com/mkucko/chartscope/tui/styles"
)

// historyPageSize is how many candles one lazy-load request asks for.
const historyPageSize = 500

// doubleClickWindow is the maximum gap between two presses counted as a
// double click (viewport reset).
const doubleClickWindow = 400 * time.Millisecond

// Model is the main TUI application model.
type Model struct {
	provider feed.Provider

	// Viewport engine
	ctrl      *chart.Controller
	arb       *chart.Arbiter
	wheelPan  *chart.WheelPan
	wheelZoom *chart.WheelZoom
	dragPan   *chart.DragPan
	speedPan  *chart.SpeedPan

	series    *candle.Series
	livePrice float64

	symbol   string
	interval string

	// Live stream plumbing
	updates    <-chan feed.Update
	stopStream context.CancelFunc

	// Panels
	chartPanel  *panels.ChartPanel
	symbolInput *panels.SymbolInputPanel

	loadingOlder  bool
	speedBoundary bool
	speedGen      int
	lastClick     time.Time

	width  int
	height int

	statusMsg string
	ready     bool
}

// Messages
type (
	updateMsg struct{ u feed.Update }

	streamClosedMsg struct{}

	speedTickMsg struct{ gen int }

	olderLoadedMsg struct {
		symbol   string
		interval string
		candles  []candle.Candle
		err      error
	}

	marketLoadedMsg struct {
		symbol   string
		interval string
		candles  []candle.Candle
		updates  <-chan feed.Update
		stop     context.CancelFunc
		err      error
	}
)

// NewModel creates the TUI model. The provider supplies all candle data;
// the engine owns the viewport.
func NewModel(provider feed.Provider, cfg chart.Config, symbol, interval string) *Model {
	ctrl := chart.NewController(cfg)
	arb := &chart.Arbiter{}

	return &Model{
		provider:    provider,
		ctrl:        ctrl,
		arb:         arb,
		wheelPan:    chart.NewWheelPan(ctrl),
		wheelZoom:   chart.NewWheelZoom(ctrl),
		dragPan:     chart.NewDragPan(ctrl, arb),
		speedPan:    chart.NewSpeedPan(ctrl, arb),
		series:      candle.NewSeries(nil),
		symbol:      symbol,
		interval:    interval,
		chartPanel:  panels.NewChartPanel(),
		symbolInput: panels.NewSymbolInputPanel(interval),
	}
}

// Init starts loading the initial market.
func (m *Model) Init() tea.Cmd {
	return m.openMarket(m.symbol, m.interval)
}

// openMarket loads the initial dataset and connects the live stream.
func (m *Model) openMarket(symbol, interval string) tea.Cmd {
	provider := m.provider
	return func() tea.Msg {
		ctx := context.Background()

		cs, err := provider.Initial(ctx, symbol, interval, historyPageSize)
		if err != nil {
			return marketLoadedMsg{symbol: symbol, interval: interval, err: err}
		}

		updates, stop, err := provider.Stream(ctx, symbol, interval)
		if err != nil {
			// History without a live stream is still usable.
			log.Warn().Err(err).Msg("live stream unavailable")
		}
		return marketLoadedMsg{
			symbol:   symbol,
			interval: interval,
			candles:  cs,
			updates:  updates,
			stop:     stop,
		}
	}
}

// listenUpdates waits for the next live update.
func (m *Model) listenUpdates() tea.Cmd {
	updates := m.updates
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return streamClosedMsg{}
		}
		return updateMsg{u: u}
	}
}

// speedTick drives the speed ball while it is held. The generation stamp
// kills the loop of a previous press, so a quick release/re-press does not
// leave two loops ticking at once.
func (m *Model) speedTick() tea.Cmd {
	gen := m.speedGen
	return tea.Tick(m.ctrl.Config().SpeedPanTick, func(time.Time) tea.Msg {
		return speedTickMsg{gen: gen}
	})
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// The symbol modal swallows keys while open.
	if m.symbolInput.Visible() {
		if _, isKey := msg.(tea.KeyMsg); isKey {
			if cmd := m.symbolInput.Update(msg); cmd != nil {
				cmds = append(cmds, cmd)
			}
			return m, tea.Batch(cmds...)
		}
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		cmds = append(cmds, m.handleMouse(msg)...)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.refresh()

	case marketLoadedMsg:
		cmds = append(cmds, m.handleMarketLoaded(msg)...)

	case updateMsg:
		m.livePrice = msg.u.Candle.Close
		m.series = m.series.UpdateLast(msg.u.Candle)
		if m.ctrl.SetSeries(m.series) {
			m.arb.ForceRelease()
		}
		m.refresh()
		cmds = append(cmds, m.listenUpdates())
		cmds = append(cmds, m.maybeLoadOlder()...)

	case streamClosedMsg:
		m.statusMsg = "live stream closed"
		m.updates = nil

	case olderLoadedMsg:
		if msg.symbol != m.symbol || msg.interval != m.interval {
			// Requested before a market switch; the page belongs to the
			// old series.
			break
		}
		m.loadingOlder = false
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("history load failed: %v", msg.err)
		} else if len(msg.candles) > 0 {
			m.series = m.series.Extend(msg.candles, nil)
			m.ctrl.SetSeries(m.series)
			m.statusMsg = ""
		}
		m.refresh()

	case speedTickMsg:
		if msg.gen == m.speedGen && m.speedPan.Held() {
			_, boundary := m.speedPan.Tick()
			m.speedBoundary = boundary
			m.refresh()
			cmds = append(cmds, m.maybeLoadOlder()...)
			cmds = append(cmds, m.speedTick())
		}

	case panels.MarketSelectedMsg:
		cmds = append(cmds, m.switchMarket(msg.Symbol, msg.Interval)...)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg.String() {
	case "ctrl+c", "q":
		if m.stopStream != nil {
			m.stopStream()
		}
		return m, tea.Quit

	case "s":
		return m, m.symbolInput.Show()

	case "r":
		m.ctrl.Reset()
		m.refresh()

	case "left":
		m.wheelPan.Scroll(-1)
		m.refresh()
		cmds = append(cmds, m.maybeLoadOlder()...)

	case "right":
		m.wheelPan.Scroll(1)
		m.refresh()

	case "+", "=":
		m.wheelZoom.Scroll(1, 0.5)
		m.refresh()

	case "-":
		m.wheelZoom.Scroll(-1, 0.5)
		m.refresh()
		cmds = append(cmds, m.maybeLoadOlder()...)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleMouse(msg tea.MouseMsg) []tea.Cmd {
	var cmds []tea.Cmd

	if msg.Action == tea.MouseActionRelease {
		m.endPointerGestures()
		return cmds
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown:
		if m.arb.Active() != chart.GestureNone {
			break
		}
		dir := -1 // wheel up pans into the past
		if msg.Button == tea.MouseButtonWheelDown {
			dir = 1
		}
		if msg.Ctrl || msg.Alt {
			// Zoom anchored at the pointer; wheel up zooms in.
			m.wheelZoom.Scroll(-dir, m.chartPanel.XRatio(msg.X))
		} else {
			m.wheelPan.Scroll(dir)
		}
		m.refresh()
		cmds = append(cmds, m.maybeLoadOlder()...)

	case tea.MouseButtonLeft:
		switch msg.Action {
		case tea.MouseActionPress:
			cmds = append(cmds, m.handlePress(msg)...)
		case tea.MouseActionMotion:
			if m.speedPan.Held() {
				m.speedPan.SetOffset(m.chartPanel.GutterOffset(msg.X))
				m.refresh()
			} else if m.dragPan.Dragging() {
				m.dragPan.Move(m.chartPanel.XRatio(msg.X))
				m.refresh()
				cmds = append(cmds, m.maybeLoadOlder()...)
			}
		}
	}

	return cmds
}

func (m *Model) handlePress(msg tea.MouseMsg) []tea.Cmd {
	var cmds []tea.Cmd

	now := time.Now()
	if now.Sub(m.lastClick) < doubleClickWindow {
		m.lastClick = time.Time{}
		m.endPointerGestures()
		m.ctrl.Reset()
		m.refresh()
		return cmds
	}
	m.lastClick = now

	if msg.Y == m.chartPanel.GutterY() {
		if m.speedPan.Press() {
			m.speedGen++
			m.speedPan.SetOffset(m.chartPanel.GutterOffset(msg.X))
			m.refresh()
			cmds = append(cmds, m.speedTick())
		}
	} else {
		m.dragPan.Press(m.chartPanel.XRatio(msg.X))
	}
	return cmds
}

func (m *Model) endPointerGestures() {
	m.dragPan.Release()
	m.speedPan.Release()
	m.speedBoundary = false
	m.refresh()
}

func (m *Model) handleMarketLoaded(msg marketLoadedMsg) []tea.Cmd {
	var cmds []tea.Cmd

	if msg.err != nil {
		m.statusMsg = fmt.Sprintf("loading %s failed: %v", msg.symbol, msg.err)
		return cmds
	}

	m.symbol = msg.symbol
	m.interval = msg.interval
	m.updates = msg.updates
	m.stopStream = msg.stop
	m.livePrice = 0
	m.statusMsg = ""
	m.loadingOlder = false

	m.series = candle.NewSeries(msg.candles)
	m.arb.ForceRelease()
	m.dragPan.Cancel()
	m.speedPan.Release()
	if !m.ctrl.SetSeries(m.series) {
		// Identity fingerprints can collide across markets sampled in the
		// same hour buckets; a market switch resets regardless.
		m.ctrl.Reset()
	}

	m.chartPanel.SetMarket(m.symbol, m.interval)
	m.refresh()

	if cmd := m.listenUpdates(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return cmds
}

func (m *Model) switchMarket(symbol, interval string) []tea.Cmd {
	if m.stopStream != nil {
		m.stopStream()
		m.stopStream = nil
	}
	m.updates = nil
	m.statusMsg = fmt.Sprintf("loading %s %s…", symbol, interval)
	return []tea.Cmd{m.openMarket(symbol, interval)}
}

// maybeLoadOlder fires one history request when the viewport nears the
// oldest candle.
func (m *Model) maybeLoadOlder() []tea.Cmd {
	if m.loadingOlder {
		return nil
	}
	buffer := m.ctrl.Config().BoundaryBufferFraction
	if !chart.ShouldLoadMore(m.ctrl.Viewport(), m.series, buffer) {
		return nil
	}

	m.loadingOlder = true
	m.refresh()

	provider := m.provider
	symbol, interval := m.symbol, m.interval
	before := m.series.MinTime()
	return []tea.Cmd{func() tea.Msg {
		cs, err := provider.Older(context.Background(), symbol, interval, before, historyPageSize)
		return olderLoadedMsg{symbol: symbol, interval: interval, candles: cs, err: err}
	}}
}

// refresh pushes engine outputs into the chart panel.
func (m *Model) refresh() {
	if !m.ready {
		return
	}

	m.chartPanel.SetSize(m.width, m.chartHeight())
	slice := m.ctrl.VisibleSlice()
	bounds := chart.ComputeBounds(slice, m.livePrice)
	m.chartPanel.SetData(slice, bounds, m.livePrice)
	m.chartPanel.SetEdges(m.ctrl.AtOldestEdge(), m.ctrl.AtNewestEdge())
	m.chartPanel.SetLoading(m.loadingOlder)
	m.chartPanel.SetSpeed(m.speedPan.Held(), m.speedPan.Offset(), m.speedBoundary)
}

func (m *Model) chartHeight() int {
	h := m.height - 1 // status bar
	if m.symbolInput.Visible() {
		h -= 4
	}
	if h < 8 {
		h = 8
	}
	return h
}

// View renders the UI.
func (m *Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	m.refresh()
	sections := []string{m.chartPanel.View()}
	if m.symbolInput.Visible() {
		sections = append(sections, m.symbolInput.View())
	}
	sections = append(sections, m.statusBar())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) statusBar() string {
	help := fmt.Sprintf("%s quit  %s market  %s reset  %s pan  %s zoom  drag chart to pan, drag the speed ball to fly",
		styles.StatusBarKeyStyle.Render("q"),
		styles.StatusBarKeyStyle.Render("s"),
		styles.StatusBarKeyStyle.Render("r/dbl-click"),
		styles.StatusBarKeyStyle.Render("wheel/←→"),
		styles.StatusBarKeyStyle.Render("ctrl+wheel/+-"),
	)
	if m.statusMsg != "" {
		help += "  |  " + m.statusMsg
	}
	return styles.StatusBarStyle.Width(m.width).Render(help)
}
