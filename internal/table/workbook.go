package table

import (
	"fmt"

	"github.com/spherical/table-extractor/internal/domain"
	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// SheetName names the sheet holding the n-th (zero-based) table of page 1.
func SheetName(n int) string {
	return fmt.Sprintf("Page 1 - Table %d", n+1)
}

// WriteWorkbook writes one sheet per table to path. Spanning cells become
// merged ranges holding the text in their top-left cell.
func WriteWorkbook(path string, tables []domain.Table) ([]string, error) {
	if len(tables) == 0 {
		return nil, domain.ErrNoTables
	}

	f := excelize.NewFile()
	defer f.Close()

	sheets := make([]string, 0, len(tables))
	for i, t := range tables {
		name := SheetName(i)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}

		if err := writeTable(f, name, t); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
		sheets = append(sheets, name)
	}
	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return nil, fmt.Errorf("save workbook: %w", err)
	}
	return sheets, nil
}

func writeTable(f *excelize.File, sheet string, t domain.Table) error {
	for _, c := range t.Cells {
		topLeft, err := excelize.CoordinatesToCellName(c.Col+1, c.Row+1)
		if err != nil {
			return err
		}
		if c.Text != "" {
			if err := f.SetCellStr(sheet, topLeft, c.Text); err != nil {
				return err
			}
		}
		if c.RowSpan > 1 || c.ColSpan > 1 {
			bottomRight, err := excelize.CoordinatesToCellName(c.Col+c.ColSpan, c.Row+c.RowSpan)
			if err != nil {
				return err
			}
			if err := f.MergeCell(sheet, topLeft, bottomRight); err != nil {
				return err
			}
		}
	}
	return nil
}
