// Package selector projects the course columns out of an extracted workbook.
package selector

import (
	"context"
	"fmt"
	"strings"

	"github.com/spherical/table-extractor/internal/domain"
	"github.com/spherical/table-extractor/internal/observability"
	"github.com/xuri/excelize/v2"
)

// Selector implements domain.FieldSelector over the first sheet of a workbook.
type Selector struct {
	logger *observability.Logger
}

// New creates a field selector.
func New(logger *observability.Logger) *Selector {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Selector{logger: logger.WithOperation("select")}
}

// Select reads the first sheet of workbookPath, treating its first row as the
// header, and returns one record per row with all required values present.
// A workbook lacking any required column yields domain.ErrColumnsNotFound.
func (s *Selector) Select(ctx context.Context, workbookPath string) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(workbookPath)
	if err != nil {
		return nil, domain.IOError("failed to open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.ErrColumnsNotFound
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, domain.IOError(fmt.Sprintf("failed to read sheet %q", sheets[0]), err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrColumnsNotFound
	}

	idx, missing := columnIndex(rows[0])
	if len(missing) > 0 {
		s.logger.Debug().
			Str("sheet", sheets[0]).
			Strs("header", rows[0]).
			Strs("missing", missing).
			Msg("required columns missing")
		return nil, fmt.Errorf("%w: missing %s", domain.ErrColumnsNotFound, strings.Join(missing, ", "))
	}

	records := make([]domain.Record, 0, len(rows)-1)
	dropped := 0
	for _, row := range rows[1:] {
		code := valueAt(row, idx[domain.ColumnCourseCode])
		name := valueAt(row, idx[domain.ColumnCourseName])
		details := valueAt(row, idx[domain.ColumnDetails])
		if isNull(code) || isNull(name) || isNull(details) {
			dropped++
			continue
		}
		records = append(records, domain.Record{
			CourseCode: code,
			CourseName: name,
			Section:    details,
		})
	}

	s.logger.Debug().
		Int("rows", len(rows)-1).
		Int("records", len(records)).
		Int("dropped", dropped).
		Msg("fields selected")

	return records, nil
}

// columnIndex maps each required column to its first position in header.
func columnIndex(header []string) (map[string]int, []string) {
	idx := make(map[string]int, len(domain.RequiredColumns))
	for i, name := range header {
		if _, seen := idx[name]; !seen {
			idx[name] = i
		}
	}

	var missing []string
	for _, col := range domain.RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	return idx, missing
}

// valueAt tolerates the short rows excelize returns when trailing cells are
// empty.
func valueAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func isNull(v string) bool {
	return strings.TrimSpace(v) == ""
}
