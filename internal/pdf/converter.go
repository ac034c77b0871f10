// Package pdf rasterizes the first page of PDF documents.
package pdf

import (
	"context"
	"fmt"
	"image/png"
	"os"

	"github.com/gen2brain/go-fitz"
	"github.com/spherical/table-extractor/internal/domain"
	"github.com/spherical/table-extractor/internal/observability"
)

// DefaultDPI is the rendering resolution used when none is configured.
const DefaultDPI = 200

// Converter implements domain.Rasterizer using go-fitz. It holds no per-call
// state and is safe for concurrent use.
type Converter struct {
	dpi       float64
	validator *Validator
	logger    *observability.Logger
}

// NewConverter creates a new PDF converter instance
func NewConverter(dpi float64, logger *observability.Logger) *Converter {
	if dpi == 0 {
		dpi = DefaultDPI
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Converter{
		dpi:       dpi,
		validator: NewValidator(),
		logger:    logger.WithOperation("rasterize"),
	}
}

// Rasterize renders page 1 of pdfPath as a PNG at outPath.
func (c *Converter) Rasterize(ctx context.Context, pdfPath, outPath string) (domain.PageImage, error) {
	if err := c.validator.ValidateDPI(c.dpi); err != nil {
		return domain.PageImage{}, err
	}

	pages, err := c.validator.ValidatePDFPath(pdfPath)
	if err != nil {
		return domain.PageImage{}, err
	}

	if err := ctx.Err(); err != nil {
		return domain.PageImage{}, err
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return domain.PageImage{}, domain.NewError(domain.ErrorTypeStage, "failed to open PDF", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return domain.PageImage{}, domain.ValidationError("PDF has no pages", domain.ErrNoPages)
	}

	img, err := doc.ImageDPI(0, c.dpi)
	if err != nil {
		return domain.PageImage{}, domain.NewError(domain.ErrorTypeStage, "failed to render page 1", err)
	}

	outputFile, err := os.Create(outPath)
	if err != nil {
		return domain.PageImage{}, domain.IOError("failed to create image file", err)
	}

	err = png.Encode(outputFile, img)
	closeErr := outputFile.Close()
	if err != nil {
		return domain.PageImage{}, domain.IOError("failed to encode page 1 as PNG", err)
	}
	if closeErr != nil {
		return domain.PageImage{}, domain.IOError("failed to write image file", closeErr)
	}

	bounds := img.Bounds()
	c.logger.Debug().
		Str("pdf", pdfPath).
		Int("pages", pages).
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Float64("dpi", c.dpi).
		Msg("rasterized first page")

	return domain.PageImage{
		PageNumber: 1,
		ImagePath:  outPath,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
	}, nil
}

// String describes the converter for logs.
func (c *Converter) String() string {
	return fmt.Sprintf("go-fitz@%vdpi", c.dpi)
}
