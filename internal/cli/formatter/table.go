package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const colGap = 2

type tableRow struct {
	cells []string
	group string
}

// Table renders aligned columns under a header separator. Group rows
// print a single label across the table and start a new section.
type Table struct {
	headers []string
	right   map[int]bool
	rows    []tableRow
}

// NewTable starts a table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers, right: map[int]bool{}}
}

// AlignRight right-aligns the given columns, for amounts and quantities.
func (t *Table) AlignRight(cols ...int) *Table {
	for _, c := range cols {
		t.right[c] = true
	}
	return t
}

// Row appends a data row. Missing cells render empty.
func (t *Table) Row(cells ...string) *Table {
	t.rows = append(t.rows, tableRow{cells: cells})
	return t
}

// Group appends a section label row.
func (t *Table) Group(label string) *Table {
	t.rows = append(t.rows, tableRow{group: label})
	return t
}

// Len counts data rows.
func (t *Table) Len() int {
	n := 0
	for _, r := range t.rows {
		if r.group == "" {
			n++
		}
	}
	return n
}

// Render lays the table out. Widths are measured on visible text so styled
// cells align.
func (t *Table) Render() string {
	cols := len(t.headers)
	if cols == 0 {
		return ""
	}

	widths := make([]int, cols)
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i := 0; i < cols && i < len(row.cells); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row.cells[i]))
		}
	}

	var b strings.Builder
	headers := make([]string, cols)
	for i, h := range t.headers {
		headers[i] = StyleHeader.Render(h)
	}
	t.writeLine(&b, headers, widths)

	for i, w := range widths {
		b.WriteString(StyleDim.Render(strings.Repeat("─", w)))
		if i < cols-1 {
			b.WriteString(strings.Repeat(" ", colGap))
		}
	}
	b.WriteString("\n")

	for _, row := range t.rows {
		if row.group != "" {
			b.WriteString(StylePurple.Bold(true).Render("■ " + row.group))
			b.WriteString("\n")
			continue
		}
		t.writeLine(&b, row.cells, widths)
	}
	return b.String()
}

func (t *Table) writeLine(b *strings.Builder, cells []string, widths []int) {
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		pad := max(w-lipgloss.Width(cell), 0)
		last := i == len(widths)-1
		if t.right[i] {
			b.WriteString(strings.Repeat(" ", pad))
			b.WriteString(cell)
		} else {
			b.WriteString(cell)
			if !last {
				b.WriteString(strings.Repeat(" ", pad))
			}
		}
		if !last {
			b.WriteString(strings.Repeat(" ", colGap))
		}
	}
	b.WriteString("\n")
}

// RenderTable renders headers and rows without groups.
func RenderTable(headers []string, rows [][]string) string {
	t := NewTable(headers...)
	for _, r := range rows {
		t.Row(r...)
	}
	return t.Render()
}
