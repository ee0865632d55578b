package panels

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mkucko/chartscope/internal/candle"
	"github.com/mkucko/chartscope/internal/chart"
	"github.com/mkucko/chartscope/tui/styles"
)

// Panel geometry: candles are drawn one per column with a spacer, next to a
// fixed-width price axis.
const (
	axisWidth   = 10 // "12345.67 │"
	candleWidth = 2  // glyph + spacer
)

// ChartPanel renders the engine's visible slice and price bounds. It owns
// no viewport state; everything it draws arrives through setters.
type ChartPanel struct {
	symbol   string
	interval string

	candles   []candle.Candle
	bounds    chart.Bounds
	livePrice float64

	atOldest bool
	atNewest bool
	loading  bool

	speedHeld     bool
	speedOffset   float64
	speedBoundary bool

	width  int
	height int
}

// NewChartPanel creates an empty chart panel.
func NewChartPanel() *ChartPanel {
	return &ChartPanel{}
}

// SetSize sets the panel dimensions.
func (p *ChartPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetMarket sets the symbol and interval shown in the title.
func (p *ChartPanel) SetMarket(symbol, interval string) {
	p.symbol = symbol
	p.interval = interval
}

// SetData replaces the rendered slice, bounds and live price.
func (p *ChartPanel) SetData(cs []candle.Candle, b chart.Bounds, livePrice float64) {
	p.candles = cs
	p.bounds = b
	p.livePrice = livePrice
}

// SetEdges sets the boundary affordances.
func (p *ChartPanel) SetEdges(atOldest, atNewest bool) {
	p.atOldest = atOldest
	p.atNewest = atNewest
}

// SetLoading toggles the history-loading badge.
func (p *ChartPanel) SetLoading(loading bool) {
	p.loading = loading
}

// SetSpeed updates the speed-ball handle state.
func (p *ChartPanel) SetSpeed(held bool, offset float64, boundary bool) {
	p.speedHeld = held
	p.speedOffset = offset
	p.speedBoundary = boundary
}

// plotColumns returns how many candle columns fit.
func (p *ChartPanel) plotColumns() int {
	cols := (p.width - 4 - axisWidth) / candleWidth
	if cols < 1 {
		cols = 1
	}
	return cols
}

// chartRows returns the number of price rows.
func (p *ChartPanel) chartRows() int {
	rows := p.height - 6
	if rows < 5 {
		rows = 5
	}
	return rows
}

// XRatio maps a terminal column to a [0,1] position across the plot area,
// for zoom anchoring and drag tracking.
func (p *ChartPanel) XRatio(x int) float64 {
	plotX := 2 + axisWidth
	plotW := p.plotColumns() * candleWidth
	if plotW <= 0 {
		return 0.5
	}
	r := float64(x-plotX) / float64(plotW)
	if r < 0 {
		r = 0
	} else if r > 1 {
		r = 1
	}
	return r
}

// GutterY returns the terminal row of the speed-ball track.
func (p *ChartPanel) GutterY() int {
	return p.height - 2
}

// GutterOffset maps a terminal column to a [-1,1] handle offset.
func (p *ChartPanel) GutterOffset(x int) float64 {
	plotX := 2 + axisWidth
	plotW := p.plotColumns() * candleWidth
	if plotW <= 1 {
		return 0
	}
	o := 2*float64(x-plotX)/float64(plotW) - 1
	if o < -1 {
		o = -1
	} else if o > 1 {
		o = 1
	}
	return o
}

// View renders the panel.
func (p *ChartPanel) View() string {
	var content strings.Builder

	content.WriteString(p.renderTitle())
	content.WriteString("\n")

	if len(p.candles) == 0 {
		content.WriteString(lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render("No candle data yet..."))
	} else {
		p.renderChart(&content)
	}

	content.WriteString("\n")
	content.WriteString(p.renderSpeedTrack())

	return styles.PanelStyle.Width(p.width - 2).Height(p.height - 2).Render(content.String())
}

func (p *ChartPanel) renderTitle() string {
	name := "no market"
	if p.symbol != "" {
		name = fmt.Sprintf("%s %s", p.symbol, p.interval)
	}

	left := styles.RenderTitle(fmt.Sprintf("Chart - %s", name))

	oldestStyle := styles.EdgeActiveStyle
	if p.atOldest {
		oldestStyle = styles.EdgeBlockedStyle
	}
	newestStyle := styles.EdgeActiveStyle
	if p.atNewest {
		newestStyle = styles.EdgeBlockedStyle
	}
	edges := oldestStyle.Render("older ‹") + " " + newestStyle.Render("› newer")

	badge := ""
	if p.loading {
		badge = "  " + styles.LoadingStyle.Render("loading history…")
	}

	live := ""
	if p.livePrice > 0 {
		live = "  " + styles.LivePriceStyle.Render(formatPrice(p.livePrice))
	}

	return left + "  " + edges + live + badge
}

func (p *ChartPanel) renderChart(out *strings.Builder) {
	rows := p.chartRows()
	cols := p.plotColumns()

	display := chart.Downsample(p.candles, cols)

	for row := 0; row < rows; row++ {
		price := p.rowToPrice(row, rows)
		out.WriteString(styles.ChartAxisStyle.Render(fmt.Sprintf("%8s │", formatPrice(price))))

		for _, c := range display {
			ch := candleChar(c, price, p.bounds, rows)

			style := styles.CandleDownStyle
			if c.Close >= c.Open {
				style = styles.CandleUpStyle
			}
			out.WriteString(style.Render(string(ch)))
			out.WriteString(" ")
		}
		out.WriteString("\n")
	}

	// Bottom border
	out.WriteString(styles.ChartAxisStyle.Render("─────────┴"))
	for range display {
		out.WriteString(styles.ChartAxisStyle.Render("──"))
	}
	out.WriteString("\n")

	// Time axis: a label every eight candles, each label occupying the
	// columns of the candles it spans.
	out.WriteString(strings.Repeat(" ", axisWidth))
	axis := make([]byte, len(display)*candleWidth)
	for i := range axis {
		axis[i] = ' '
	}
	for i, c := range display {
		if i%8 != 0 {
			continue
		}
		label := time.UnixMilli(c.Time).Format("15:04")
		col := i * candleWidth
		if col+len(label) > len(axis) {
			break
		}
		copy(axis[col:], label)
	}
	out.WriteString(styles.ChartLabelStyle.Render(string(axis)))
}

func (p *ChartPanel) renderSpeedTrack() string {
	cols := p.plotColumns() * candleWidth
	if cols < 5 {
		cols = 5
	}

	pos := (cols - 1) / 2
	if p.speedHeld {
		pos = int((p.speedOffset + 1) / 2 * float64(cols-1))
		if pos < 0 {
			pos = 0
		} else if pos >= cols {
			pos = cols - 1
		}
	}

	ballStyle := styles.SpeedBallStyle
	if p.speedBoundary {
		ballStyle = styles.SpeedBallBoundaryStyle
	}

	var b strings.Builder
	b.WriteString(styles.ChartLabelStyle.Render(" speed "))
	b.WriteString(styles.SpeedTrackStyle.Render("◂"))
	b.WriteString(styles.SpeedTrackStyle.Render(strings.Repeat("─", max(0, pos))))
	b.WriteString(ballStyle.Render("●"))
	b.WriteString(styles.SpeedTrackStyle.Render(strings.Repeat("─", max(0, cols-1-pos))))
	b.WriteString(styles.SpeedTrackStyle.Render("▸"))
	return b.String()
}

// rowToPrice maps a chart row (top = 0) to a price inside the bounds.
func (p *ChartPanel) rowToPrice(row, rows int) float64 {
	if rows <= 1 {
		return p.bounds.Min
	}
	ratio := float64(row) / float64(rows-1)
	return p.bounds.Max - ratio*p.bounds.Range()
}

// candleChar picks the glyph for one candle at one price row.
func candleChar(c candle.Candle, rowPrice float64, b chart.Bounds, rows int) rune {
	tolerance := b.Range() / float64(rows*2)

	bodyTop := c.Open
	bodyBottom := c.Close
	if c.Close > c.Open {
		bodyTop = c.Close
		bodyBottom = c.Open
	}

	// Body overwrites wick.
	if rowPrice <= bodyTop+tolerance && rowPrice >= bodyBottom-tolerance {
		return '┃'
	}
	if rowPrice <= c.High+tolerance && rowPrice > bodyTop {
		return '│'
	}
	if rowPrice >= c.Low-tolerance && rowPrice < bodyBottom {
		return '│'
	}
	return ' '
}

func formatPrice(v float64) string {
	switch {
	case v >= 10_000:
		return fmt.Sprintf("%.0f", v)
	case v >= 100:
		return fmt.Sprintf("%.2f", v)
	case v >= 1:
		return fmt.Sprintf("%.4f", v)
	default:
		return fmt.Sprintf("%.6f", v)
	}
}
