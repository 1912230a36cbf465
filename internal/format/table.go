// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package format

import (
	"fmt"
	"strings"

	"github.com/pdiddy/pdf-notes/pkg/types"
)

// writeTable renders one table as a Markdown pipe table preceded by a
// numbered heading. Row 0 is the header row.
func writeTable(b *strings.Builder, number int, t types.Table) {
	fmt.Fprintf(b, "\n### Table %d\n", number)

	grid := tableGrid(t)
	for r, row := range grid {
		b.WriteString("\n|")
		for _, cell := range row {
			fmt.Fprintf(b, " %s |", cell)
		}
		if r == 0 {
			b.WriteString("\n|" + strings.Repeat("---|", len(row)))
		}
	}
	b.WriteString("\n\n")
}

// Upper bounds on a rendered table. Cells outside them are dropped.
const (
	maxTableRows = 4096
	maxTableCols = 256
)

// tableGrid places cells into a rows x columns grid by their indices.
// Dimensions are the larger of the declared counts and the highest index
// seen, so a table whose counts understate its cells still renders them all.
// Both are clamped to maxTableRows and maxTableCols. Cells with negative
// indices are dropped.
func tableGrid(t types.Table) [][]string {
	rows, cols := t.RowCount, t.ColumnCount
	for _, c := range t.Cells {
		if c.RowIndex+1 > rows {
			rows = c.RowIndex + 1
		}
		if c.ColumnIndex+1 > cols {
			cols = c.ColumnIndex + 1
		}
	}
	rows = min(rows, maxTableRows)
	cols = min(cols, maxTableCols)
	if rows <= 0 || cols <= 0 {
		return nil
	}

	grid := make([][]string, rows)
	for i := range grid {
		grid[i] = make([]string, cols)
	}
	for _, c := range t.Cells {
		if c.RowIndex < 0 || c.ColumnIndex < 0 || c.RowIndex >= rows || c.ColumnIndex >= cols {
			continue
		}
		grid[c.RowIndex][c.ColumnIndex] = cellText(c.Content)
	}
	return grid
}

var cellReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "|", `\|`)

// cellText flattens cell content onto one line and escapes pipes.
func cellText(s string) string {
	return cellReplacer.Replace(strings.TrimSpace(s))
}
