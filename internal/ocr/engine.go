// Package ocr defines the word-level OCR contract used by table extraction.
package ocr

import (
	"context"
	"image"
)

// Word is a single recognized token in image pixel coordinates.
type Word struct {
	Text       string
	Bounds     image.Rectangle
	Confidence float64 // 0-100, as reported by the engine
}

// Center returns the midpoint of the word's bounding box.
func (w Word) Center() image.Point {
	return image.Pt((w.Bounds.Min.X+w.Bounds.Max.X)/2, (w.Bounds.Min.Y+w.Bounds.Max.Y)/2)
}

// Engine recognizes words in an image file.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, imagePath string) ([]Word, error)
}

// FilterByConfidence drops words below min. Words with empty text are dropped
// as well.
func FilterByConfidence(words []Word, min float64) []Word {
	out := make([]Word, 0, len(words))
	for _, w := range words {
		if w.Text == "" || w.Confidence < min {
			continue
		}
		out = append(out, w)
	}
	return out
}
