package terminal

import (
	"cinescope/search"

	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor = lipgloss.Color("#667EEA")
	accentColor  = lipgloss.Color("#564D4D")
	successColor = lipgloss.Color("#2E9E5B")
	warningColor = lipgloss.Color("#D9A400")
	errorColor   = lipgloss.Color("#E5484D")

	headerStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			MarginBottom(1)

	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)

	focusedInputStyle = inputStyle.
				BorderForeground(primaryColor)

	movieTitleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Width(11)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1)

	mutedStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)
)

func noticeStyle(kind search.NoticeKind) lipgloss.Style {
	switch kind {
	case search.NoticeSuccess:
		return lipgloss.NewStyle().Foreground(successColor)
	case search.NoticeWarning:
		return lipgloss.NewStyle().Foreground(warningColor)
	default:
		return lipgloss.NewStyle().Foreground(errorColor)
	}
}
