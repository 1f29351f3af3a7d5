package tui

import "github.com/charmbracelet/lipgloss"

var (
	accentColor = lipgloss.AdaptiveColor{Light: "#5A3FC0", Dark: "#B9A6FF"}
	mutedColor  = lipgloss.AdaptiveColor{Light: "#6B6B6B", Dark: "#8A8A8A"}
	errorColor  = lipgloss.AdaptiveColor{Light: "#B3261E", Dark: "#FF8A80"}
	okColor     = lipgloss.AdaptiveColor{Light: "#1E7B34", Dark: "#8BE9A2"}

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	taglineStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(mutedColor)

	sectionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(accentColor)

	helperStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	successStyle = lipgloss.NewStyle().
			Foreground(okColor)

	userLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#005F87", Dark: "#7FDBFF"})

	assistantLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(accentColor)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)

	scoreStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#8A5A00", Dark: "#FFD479"})

	currentLineStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}).
				Background(lipgloss.AdaptiveColor{Light: "#E6E0FF", Dark: "#3B2F6B"})

	statusBarStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1A1A1A"}).
			Background(accentColor).
			Padding(0, 1)

	alertBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(errorColor).
			Padding(1, 3)

	keyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			Width(12)

	keyDescStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(26)

	helpBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)
)
