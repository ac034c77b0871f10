package table

import (
	"sort"
	"strings"

	"github.com/spherical/table-extractor/internal/ocr"
)

// fillCells places every word into the cell containing its centre and
// renders the cell text. Words outside all tables are ignored.
func fillCells(tables []*tableGrid, words []ocr.Word) {
	perCell := make([][][]ocr.Word, len(tables))
	for i, g := range tables {
		perCell[i] = make([][]ocr.Word, len(g.cells))
	}

	for _, w := range words {
		center := w.Center()
		for i, g := range tables {
			row, col, ok := g.locate(center.X, center.Y)
			if !ok {
				continue
			}
			idx := g.owner[row][col]
			perCell[i][idx] = append(perCell[i][idx], w)
			break
		}
	}

	for i, g := range tables {
		for idx := range g.cells {
			g.cells[idx].Text = joinWords(perCell[i][idx])
		}
	}
}

// joinWords orders words into reading lines (top-to-bottom, then
// left-to-right) and joins lines with a newline.
func joinWords(words []ocr.Word) string {
	if len(words) == 0 {
		return ""
	}
	sorted := make([]ocr.Word, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Bounds.Min.Y < sorted[j].Bounds.Min.Y
	})

	var lines [][]ocr.Word
	lineBottom := -1
	for _, w := range sorted {
		cy := w.Center().Y
		if len(lines) == 0 || cy > lineBottom {
			lines = append(lines, []ocr.Word{w})
			lineBottom = w.Bounds.Max.Y
			continue
		}
		last := len(lines) - 1
		lines[last] = append(lines[last], w)
		lineBottom = max(lineBottom, w.Bounds.Max.Y)
	}

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool {
			return line[i].Bounds.Min.X < line[j].Bounds.Min.X
		})
		parts := make([]string, len(line))
		for i, w := range line {
			parts[i] = w.Text
		}
		out = append(out, strings.Join(parts, " "))
	}
	return strings.Join(out, "\n")
}
