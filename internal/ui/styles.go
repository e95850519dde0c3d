// Package ui provides consistent styling and components for the waywall CLI
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette. Surface states reuse the status colors.
var (
	ColorPrimary   = lipgloss.Color("69")
	ColorSecondary = lipgloss.Color("176")
	ColorSuccess   = lipgloss.Color("78")
	ColorWarning   = lipgloss.Color("221")
	ColorError     = lipgloss.Color("203")
	ColorInfo      = lipgloss.Color("80")

	ColorText      = lipgloss.Color("251")
	ColorSubtle    = lipgloss.Color("244")
	ColorMuted     = lipgloss.Color("239")
	ColorHighlight = lipgloss.Color("231")

	ColorReady   = ColorSuccess
	ColorPending = ColorWarning
	ColorActive  = ColorPrimary
)

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

var (
	TextStyle    = fg(ColorText)
	SubtleStyle  = fg(ColorSubtle)
	MutedStyle   = fg(ColorMuted)
	BoldStyle    = lipgloss.NewStyle().Bold(true)
	SuccessStyle = fg(ColorSuccess)
	WarningStyle = fg(ColorWarning)
	ErrorStyle   = fg(ColorError)
	InfoStyle    = fg(ColorInfo)
	SpinnerStyle = fg(ColorSecondary)

	SubheaderStyle = TextStyle.Bold(true)
	TitleStyle     = fg(ColorHighlight).Background(ColorPrimary).Bold(true).Padding(0, 1)
	BoxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(ColorMuted).Padding(0, 1)

	ReadyIndicator   = fg(ColorReady).Render("●")
	PendingIndicator = fg(ColorPending).Render("○")

	ControlKeyStyle  = fg(ColorPrimary).Bold(true)
	ControlDescStyle = SubtleStyle
)

// Table styles
var (
	TableHeaderStyle = fg(ColorPrimary).Bold(true).Padding(0, 1)
	TableCellStyle   = TextStyle.Padding(0, 1)
	TableActiveStyle = TableCellStyle.Foreground(ColorActive).Bold(true)
)

// Spinner preset
var SpinnerDot = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// Icons
var (
	IconSuccess = "✓"
	IconError   = "✗"
	IconWarning = "!"
	IconInfo    = "i"
	IconSetup   = "»"
	IconPhase   = "·"
)

func FormatControl(key, desc string) string {
	return ControlKeyStyle.Render(key) + " - " + ControlDescStyle.Render(desc)
}

// FormatStatus prefixes status with the ready or pending indicator
func FormatStatus(ready bool, status string) string {
	indicator := PendingIndicator
	if ready {
		indicator = ReadyIndicator
	}
	return indicator + " " + status
}

// FormatAppHeader renders a title block followed by a subtle status line
func FormatAppHeader(mode, status string) string {
	title := TitleStyle.Render("WAYWALL " + mode)
	if status == "" {
		return title
	}
	return title + " " + SubtleStyle.Render(status)
}

// FormatSetupHeader renders a section header with a separator underneath
func FormatSetupHeader(title string) string {
	icon := InfoStyle.Render(IconSetup)
	header := HeaderStyle.UnsetMarginBottom().Render(icon + " " + title)
	return header + "\n" + CreateSeparator(50, "─")
}

func FormatSetupPhase(phase string) string {
	icon := InfoStyle.Render(IconPhase)
	return BoldStyle.Foreground(ColorInfo).Render(icon + " " + phase)
}

func FormatSetupResult(success bool, step, message string) string {
	icon := ErrorStyle.Render(IconError)
	style := ErrorStyle
	if success {
		icon = SuccessStyle.Render(IconSuccess)
		style = SuccessStyle
	}

	result := "   " + icon + " " + step
	if message != "" {
		result += " - " + style.Render(message)
	}
	return result
}

// FormatKeyValue renders an aligned "key: value" line
func FormatKeyValue(key string, width int, value string) string {
	return SubtleStyle.Render(fmt.Sprintf("%-*s", width, key+":")) + " " + TextStyle.Render(value)
}

// CreateSeparator creates a horizontal line separator
func CreateSeparator(width int, char string) string {
	if width <= 0 {
		width = 50
	}
	if char == "" {
		char = "─"
	}

	return lipgloss.NewStyle().
		Foreground(ColorSubtle).
		Render(strings.Repeat(char, width))
}
