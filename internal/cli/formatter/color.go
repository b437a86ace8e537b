package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/smeta/internal/domain"
	"github.com/alexanderramin/smeta/internal/i18n"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
	StyleStrike = lipgloss.NewStyle().Foreground(ColorDim).Strikethrough(true)
)

// Localizer resolves display strings in the current interface language.
type Localizer interface {
	T(key string, vars ...i18n.Vars) string
	Lang() domain.Lang
}

// StatusStyle returns the chip color of a version status.
func StatusStyle(s domain.PlanStatus) lipgloss.Style {
	switch s {
	case domain.StatusDraft:
		return StyleYellow
	case domain.StatusPreApproved:
		return StyleBlue
	case domain.StatusApproved:
		return StyleGreen
	case domain.StatusExecuted:
		return StylePurple
	default:
		return StyleDim
	}
}

// StatusPill returns a colored status indicator such as "○ Черновик".
func StatusPill(l Localizer, s domain.PlanStatus) string {
	icon := "●"
	switch s {
	case domain.StatusDraft:
		icon = "○"
	case domain.StatusExecuted:
		icon = "✔"
	}
	return StatusStyle(s).Render(icon + " " + l.T("status_"+string(s)))
}

// NeedTypeBadge returns the purple need type label.
func NeedTypeBadge(l Localizer, n domain.NeedType) string {
	if n == "" {
		return StyleDim.Render("--")
	}
	return StylePurple.Render(l.T(n.TranslationKey()))
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}

// Success prefixes a message with a green check mark.
func Success(text string) string {
	return StyleGreen.Render("✔") + " " + text
}

// Failure prefixes a message with a red cross.
func Failure(text string) string {
	return StyleRed.Render("✖ " + text)
}
