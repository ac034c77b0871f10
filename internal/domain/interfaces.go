package domain

import "context"

// Rasterizer renders the first page of a PDF to a PNG image
type Rasterizer interface {
	// Rasterize writes page 1 of pdfPath to outPath
	Rasterize(ctx context.Context, pdfPath, outPath string) (PageImage, error)
}

// TableExtractor detects tables in an image and writes them to a spreadsheet,
// one sheet per table
type TableExtractor interface {
	Extract(ctx context.Context, imagePath, outPath string) (*TableSummary, error)
}

// FieldSelector reads a spreadsheet and projects the required columns
type FieldSelector interface {
	Select(ctx context.Context, workbookPath string) ([]Record, error)
}

// Pipeline runs the full PDF -> records workflow for one document
type Pipeline interface {
	Process(ctx context.Context, pdfPath string) (*Result, error)
}
