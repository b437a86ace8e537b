package formatter

import (
	"strings"
	"time"

	"github.com/alexanderramin/smeta/internal/domain"
	"github.com/alexanderramin/smeta/internal/i18n"
	"github.com/charmbracelet/lipgloss"
)

// DateLayout is the day.month.year format used across the UI.
const DateLayout = "02.01.2006"

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2)

	if title != "" {
		titleRendered := StyleHeader.Render(strings.ToUpper(title))
		return boxStyle.Render(titleRendered + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// FormatDate renders a server timestamp as a local day, or a dash.
func FormatDate(t domain.Timestamp) string {
	if t.IsZero() {
		return "—"
	}
	return t.In(time.Local).Format(DateLayout)
}

// FormatContractDate renders an ISO contract date in the UI layout,
// passing through anything it cannot parse.
func FormatContractDate(s string) string {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return s
	}
	return d.Format(DateLayout)
}

// Money renders a tenge amount, red when negative.
func Money(v float64) string {
	s := i18n.FormatMoney(v)
	if v < 0 {
		return StyleRed.Render(s)
	}
	return s
}

// Percent renders a percentage with two decimals.
func Percent(v float64) string {
	return i18n.FormatPercent(v)
}

// Quantity renders a quantity, red when negative.
func Quantity(v float64) string {
	s := i18n.FormatQuantity(v)
	if v < 0 {
		return StyleRed.Render(s)
	}
	return s
}

// Truncate shortens s to width visible cells, ending with an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// PadRight truncates or pads s to exactly width visible cells.
func PadRight(s string, width int) string {
	s = Truncate(s, width)
	return s + strings.Repeat(" ", max(width-lipgloss.Width(s), 0))
}

// Cursor returns the row marker for a selected or plain row.
func Cursor(selected bool) string {
	if selected {
		return StyleGreen.Render("▸ ")
	}
	return "  "
}
