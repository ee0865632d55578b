package panels

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mkucko/chartscope/tui/styles"
)

// MarketSelectedMsg is emitted when the user confirms a new market. The
// model swaps in a fresh dataset, which the viewport engine detects as an
// identity change.
type MarketSelectedMsg struct {
	Symbol   string
	Interval string
}

// SymbolInputPanel is a small modal for switching symbol and interval,
// entered as "SYMBOL [interval]" (e.g. "ETHUSDT 5m").
type SymbolInputPanel struct {
	input    textinput.Model
	visible  bool
	interval string

	keyConfirm key.Binding
	keyCancel  key.Binding
}

// NewSymbolInputPanel creates the modal with a default interval carried
// over when the user omits one.
func NewSymbolInputPanel(defaultInterval string) *SymbolInputPanel {
	ti := textinput.New()
	ti.Placeholder = "BTCUSDT 1m"
	ti.CharLimit = 24
	ti.Width = 26

	return &SymbolInputPanel{
		input:      ti,
		interval:   defaultInterval,
		keyConfirm: key.NewBinding(key.WithKeys("enter")),
		keyCancel:  key.NewBinding(key.WithKeys("esc")),
	}
}

// Visible reports whether the modal is open.
func (p *SymbolInputPanel) Visible() bool {
	return p.visible
}

// Show opens the modal.
func (p *SymbolInputPanel) Show() tea.Cmd {
	p.visible = true
	p.input.SetValue("")
	return p.input.Focus()
}

// Hide closes the modal.
func (p *SymbolInputPanel) Hide() {
	p.visible = false
	p.input.Blur()
}

// Update handles key messages while visible.
func (p *SymbolInputPanel) Update(msg tea.Msg) (cmd tea.Cmd) {
	if !p.visible {
		return nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, p.keyCancel):
			p.Hide()
			return nil
		case key.Matches(keyMsg, p.keyConfirm):
			symbol, interval := p.parse()
			p.Hide()
			if symbol == "" {
				return nil
			}
			return func() tea.Msg {
				return MarketSelectedMsg{Symbol: symbol, Interval: interval}
			}
		}
	}

	p.input, cmd = p.input.Update(msg)
	return cmd
}

func (p *SymbolInputPanel) parse() (symbol, interval string) {
	fields := strings.Fields(strings.ToUpper(strings.TrimSpace(p.input.Value())))
	if len(fields) == 0 {
		return "", ""
	}
	symbol = fields[0]
	interval = p.interval
	if len(fields) > 1 {
		interval = strings.ToLower(fields[1])
	}
	return symbol, interval
}

// View renders the modal box.
func (p *SymbolInputPanel) View() string {
	if !p.visible {
		return ""
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		styles.LabelStyle.Render("Switch market (enter to confirm, esc to cancel)"),
		p.input.View(),
	)
	return styles.InputStyle.Render(body)
}
