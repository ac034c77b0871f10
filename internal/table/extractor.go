// Package table detects bordered tables in page images and writes them to
// spreadsheets. Only ruled (bordered) tables are recognized; rows and
// columns are never inferred from text alignment.
package table

import (
	"context"
	"fmt"

	"github.com/spherical/table-extractor/internal/domain"
	"github.com/spherical/table-extractor/internal/observability"
	"github.com/spherical/table-extractor/internal/ocr"
)

// Options tunes detection. The zero value is not usable; start from
// DefaultOptions.
type Options struct {
	// MinConfidence drops OCR words scoring below it (0-100).
	MinConfidence float64
	// Threshold is the luma below which a pixel counts as ink; 0 derives it
	// from the page's paper tone.
	Threshold uint8
	// MinLineLength is the shortest run treated as a ruling; 0 derives it
	// from the image size.
	MinLineLength int
	// MaxLineThickness rejects thicker runs as shading.
	MaxLineThickness int
	// MaxGap bridges broken rulings.
	MaxGap int
	// Tolerance is the pixel slack used when matching rulings.
	Tolerance int
}

// DefaultOptions returns the detection settings used by the service.
func DefaultOptions() Options {
	return Options{
		MinConfidence:    50,
		MaxLineThickness: 20,
		MaxGap:           2,
		Tolerance:        5,
	}
}

func (o Options) minLineLength(w, h int) int {
	if o.MinLineLength > 0 {
		return o.MinLineLength
	}
	return max(20, min(w, h)/40)
}

// Extractor implements domain.TableExtractor.
type Extractor struct {
	engine ocr.Engine
	opts   Options
	logger *observability.Logger
}

// NewExtractor creates a table extractor backed by the given OCR engine.
func NewExtractor(engine ocr.Engine, opts Options, logger *observability.Logger) *Extractor {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Extractor{
		engine: engine,
		opts:   opts,
		logger: logger.WithOperation("extract"),
	}
}

// Extract detects tables in imagePath and writes them to outPath.
func (e *Extractor) Extract(ctx context.Context, imagePath, outPath string) (*domain.TableSummary, error) {
	img, err := loadImage(imagePath)
	if err != nil {
		return nil, err
	}

	grids := detectTables(binarize(img, e.opts.Threshold), e.opts)
	if len(grids) == 0 {
		return nil, domain.ErrNoTables
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	words, err := e.engine.Recognize(ctx, imagePath)
	if err != nil {
		return nil, fmt.Errorf("%s ocr: %w", e.engine.Name(), err)
	}
	kept := ocr.FilterByConfidence(words, e.opts.MinConfidence)
	fillCells(grids, kept)

	tables := make([]domain.Table, len(grids))
	for i, g := range grids {
		tables[i] = g.table()
	}

	sheets, err := WriteWorkbook(outPath, tables)
	if err != nil {
		return nil, err
	}

	e.logger.Debug().
		Int("tables", len(tables)).
		Int("words", len(words)).
		Int("words_kept", len(kept)).
		Msg("tables extracted")

	return &domain.TableSummary{
		WorkbookPath: outPath,
		Sheets:       sheets,
		Tables:       tables,
	}, nil
}
