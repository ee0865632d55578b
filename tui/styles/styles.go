package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	// Primary colors
	PrimaryColor = lipgloss.Color("#7C3AED") // Purple
	AccentColor  = lipgloss.Color("#F59E0B") // Amber

	// Candle colors
	UpColor   = lipgloss.Color("#10B981") // Green
	DownColor = lipgloss.Color("#EF4444") // Red

	// Background colors
	BackgroundColor  = lipgloss.Color("#1F2937")
	BorderColor      = lipgloss.Color("#374151")
	FocusBorderColor = lipgloss.Color("#7C3AED")

	// Text colors
	TextColor          = lipgloss.Color("#F9FAFB")
	TextSecondaryColor = lipgloss.Color("#9CA3AF")
	TextMutedColor     = lipgloss.Color("#6B7280")
)

// Panel styles
var (
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			Padding(0, 1)
)

// Chart styles
var (
	CandleUpStyle = lipgloss.NewStyle().
			Foreground(UpColor)

	CandleDownStyle = lipgloss.NewStyle().
			Foreground(DownColor)

	ChartAxisStyle = lipgloss.NewStyle().
			Foreground(TextMutedColor)

	ChartLabelStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor)

	LivePriceStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(AccentColor)

	EdgeActiveStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor)

	EdgeBlockedStyle = lipgloss.NewStyle().
				Foreground(TextMutedColor)

	LoadingStyle = lipgloss.NewStyle().
			Foreground(AccentColor)
)

// Speed-ball styles: the handle turns red while pushing against a dataset
// boundary.
var (
	SpeedTrackStyle = lipgloss.NewStyle().
			Foreground(TextMutedColor)

	SpeedBallStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	SpeedBallBoundaryStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(DownColor)
)

// Status bar styles
var (
	StatusBarStyle = lipgloss.NewStyle().
			Background(BackgroundColor).
			Foreground(TextSecondaryColor).
			Padding(0, 1)

	StatusBarKeyStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				Bold(true)
)

// Input styles
var (
	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(FocusBorderColor).
			Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor)
)

// RenderTitle renders a panel title bar.
func RenderTitle(title string) string {
	return TitleStyle.Render(title)
}
