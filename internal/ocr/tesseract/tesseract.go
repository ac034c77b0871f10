// Package tesseract implements ocr.Engine on top of gosseract.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/spherical/table-extractor/internal/ocr"
)

// Engine recognizes words with a fresh gosseract client per call, since a
// client is not safe for concurrent use.
type Engine struct {
	languages      []string
	tessdataPrefix string
	clientFactory  func() *gosseract.Client
}

// Option configures an Engine.
type Option func(*Engine)

// WithTessdataPrefix points tesseract at a trained-data directory.
func WithTessdataPrefix(prefix string) Option {
	return func(e *Engine) { e.tessdataPrefix = prefix }
}

// NewEngine constructs a Tesseract-backed OCR engine. language accepts a
// tesseract code ("eng") or a "+"-joined list ("eng+deu").
func NewEngine(language string, opts ...Option) *Engine {
	e := &Engine{
		languages:     splitLanguages(language),
		clientFactory: gosseract.NewClient,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize returns every word tesseract finds in the image.
func (e *Engine) Recognize(ctx context.Context, imagePath string) ([]ocr.Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := e.clientFactory()
	defer c.Close()

	if e.tessdataPrefix != "" {
		if err := c.SetTessdataPrefix(e.tessdataPrefix); err != nil {
			return nil, fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return nil, fmt.Errorf("set page segmentation mode: %w", err)
	}
	if err := c.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("recognize words: %w", err)
	}

	words := make([]ocr.Word, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		words = append(words, ocr.Word{
			Text:       text,
			Bounds:     b.Box,
			Confidence: b.Confidence,
		})
	}
	return words, nil
}

func splitLanguages(language string) []string {
	var langs []string
	for _, l := range strings.Split(language, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	return langs
}
