package formatter

import (
	"fmt"
	"strings"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// barCells splits width into filled and empty cells for pct in 0..100.
func barCells(pct float64, width int) (int, int) {
	pct = min(max(pct, 0), 100)
	width = max(width, 2)
	filled := min(int(pct/100*float64(width)), width)
	return filled, width - filled
}

// RenderProgress renders a progress bar like [████░░░░]  45%. pct is a
// percentage. The bar is green once complete, yellow while started and
// dim before anything happened.
func RenderProgress(pct float64, width int) string {
	filled, empty := barCells(pct, width)
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, empty)

	style := StyleYellow
	switch {
	case pct >= 100:
		style = StyleGreen
	case pct <= 0:
		style = StyleDim
	}
	return fmt.Sprintf("[%s] %3.0f%%", style.Render(bar), min(max(pct, 0), 100))
}

// RenderCompactBar renders a bar without brackets or a label, for table
// cells. dim renders it muted, used for deleted rows.
func RenderCompactBar(pct float64, width int, dim bool) string {
	filled, empty := barCells(pct, width)
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, empty)
	if dim {
		return StyleDim.Render(bar)
	}
	if pct >= 100 {
		return StyleGreen.Render(bar)
	}
	return StyleBlue.Render(bar)
}
