package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/spherical/table-extractor/internal/domain"
)

const maxSize = 100 * 1024 * 1024 // 100MB

var pdfMagic = []byte("%PDF-")

// Validator provides input validation for PDF files
type Validator struct {
	conf *model.Configuration
}

// NewValidator creates a new validator instance using relaxed pdfcpu validation.
func NewValidator() *Validator {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Validator{conf: conf}
}

// ValidatePDFPath validates that a path points to a readable PDF with at least
// one page and returns its page count.
func (v *Validator) ValidatePDFPath(path string) (int, error) {
	if strings.TrimSpace(path) == "" {
		return 0, domain.ValidationError("file path cannot be empty", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, domain.ValidationError(fmt.Sprintf("file does not exist: %s", path), err)
		}
		return 0, domain.ValidationError(fmt.Sprintf("cannot access file: %s", path), err)
	}

	if info.IsDir() {
		return 0, domain.ValidationError(fmt.Sprintf("path is a directory, not a file: %s", path), nil)
	}

	if info.Size() > maxSize {
		return 0, domain.ValidationError(fmt.Sprintf("PDF file is too large (%d MB)", info.Size()/(1024*1024)), nil)
	}

	if err := checkHeader(path); err != nil {
		return 0, err
	}

	if err := api.ValidateFile(path, v.conf); err != nil {
		return 0, domain.ValidationError("PDF failed structural validation", err)
	}

	pages, err := api.PageCountFile(path)
	if err != nil {
		return 0, domain.ValidationError("cannot read page count", err)
	}
	if pages == 0 {
		return 0, domain.ValidationError("PDF has no pages", domain.ErrNoPages)
	}

	return pages, nil
}

// ValidateDPI validates the render resolution
func (v *Validator) ValidateDPI(dpi float64) error {
	if dpi < 36 || dpi > 1200 {
		return domain.ValidationError(fmt.Sprintf("dpi must be between 36 and 1200, got %v", dpi), nil)
	}
	return nil
}

// checkHeader looks for the %PDF- marker within the first KiB, as PDF
// readers tolerate leading garbage.
func checkHeader(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return domain.ValidationError(fmt.Sprintf("cannot open file: %s", path), err)
	}
	defer file.Close()

	head := make([]byte, 1024)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return domain.ValidationError(fmt.Sprintf("cannot read file: %s", path), err)
	}
	if !bytes.Contains(head[:n], pdfMagic) {
		return domain.ValidationError("file is not a PDF (missing %PDF- header)", nil)
	}
	return nil
}
