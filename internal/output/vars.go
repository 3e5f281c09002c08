package output

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/tanq16/coursekeep/internal/downloads"
)

var (
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("37"))            // dark green
	success2Style = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))             // green
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))             // red
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))            // yellow
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))            // blue
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))            // cyan
	debugStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))           // light grey
	detailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))            // purple
	streamStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))           // grey
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69")) // purple
)

var StyleSymbols = map[string]string{
	"pass":     "✓",
	"fail":     "✗",
	"warning":  "!",
	"pending":  "◉",
	"info":     "ℹ",
	"arrow":    "→",
	"bullet":   "•",
	"dot":      "·",
	"hline":    "━",
	"download": "↓",
	"graded":   "★",
}

// StateSymbol renders the download indicator for an aggregate state. None
// renders as blank space so columns stay aligned.
func StateSymbol(state downloads.Aggregate) string {
	switch state {
	case downloads.Done:
		return successStyle.Render(StyleSymbols["pass"])
	case downloads.Downloading:
		return pendingStyle.Render(StyleSymbols["pending"])
	case downloads.Available:
		return infoStyle.Render(StyleSymbols["download"])
	default:
		return " "
	}
}

func PrintSuccess(text string) {
	fmt.Println(successStyle.Render(text))
}
func PrintError(text string) {
	fmt.Println(errorStyle.Render(text))
}
func FDebug(text string) string {
	return debugStyle.Render(text)
}
