package db

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// maxCellWidth bounds a column so long commands stay readable in a terminal.
const maxCellWidth = 80

// SimpleTable renders rows as an ASCII grid. Cells are flattened to one line
// and cut at maxCellWidth.
type SimpleTable struct {
	writer  io.Writer
	headers []string
	rows    [][]string
}

func NewTable(w io.Writer) *SimpleTable {
	return &SimpleTable{writer: w}
}

func (t *SimpleTable) Header(headers []string) {
	t.headers = flatten(headers)
}

func (t *SimpleTable) Row(row []string) {
	t.rows = append(t.rows, flatten(row))
}

func (t *SimpleTable) Bulk(rows [][]string) {
	for _, row := range rows {
		t.Row(row)
	}
}

func (t *SimpleTable) Render() {
	if len(t.headers) == 0 && len(t.rows) == 0 {
		return
	}

	widths := t.columnWidths()
	separator := separatorLine(widths)

	fmt.Fprintln(t.writer, separator)
	if len(t.headers) > 0 {
		fmt.Fprintln(t.writer, formatRow(t.headers, widths))
		fmt.Fprintln(t.writer, separator)
	}
	for _, row := range t.rows {
		fmt.Fprintln(t.writer, formatRow(row, widths))
	}
	fmt.Fprintln(t.writer, separator)
}

func (t *SimpleTable) columnWidths() []int {
	columns := len(t.headers)
	for _, row := range t.rows {
		columns = max(columns, len(row))
	}

	widths := make([]int, columns)
	measure := func(row []string) {
		for i, cell := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}
	measure(t.headers)
	for _, row := range t.rows {
		measure(row)
	}

	for i := range widths {
		widths[i] = max(widths[i], 1)
	}
	return widths
}

func separatorLine(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("-", w+2)
	}
	return "+" + strings.Join(parts, "+") + "+"
}

func formatRow(row []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		parts[i] = " " + cell + strings.Repeat(" ", w-utf8.RuneCountInString(cell)+1)
	}
	return "|" + strings.Join(parts, "|") + "|"
}

// flatten collapses whitespace runs, newlines included, and truncates.
func flatten(cells []string) []string {
	out := make([]string, len(cells))
	for i, cell := range cells {
		cell = strings.Join(strings.Fields(cell), " ")
		if utf8.RuneCountInString(cell) > maxCellWidth {
			runes := []rune(cell)
			cell = string(runes[:maxCellWidth-3]) + "..."
		}
		out[i] = cell
	}
	return out
}
