package table

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spherical/table-extractor/internal/ocr"
)

const lineWidth = 2

// canvas is a white grayscale test image with helpers to draw rulings in
// its ink tone.
type canvas struct {
	*image.Gray
	ink uint8
}

func newCanvas(w, h int) canvas {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return canvas{Gray: img}
}

// hline draws a horizontal ruling from x0 to x1 (inclusive of the line
// width) at y.
func (c canvas) hline(x0, x1, y int) {
	for dy := 0; dy < lineWidth; dy++ {
		for x := x0; x < x1+lineWidth; x++ {
			c.SetGray(x, y+dy, color.Gray{Y: c.ink})
		}
	}
}

func (c canvas) vline(x, y0, y1 int) {
	for dx := 0; dx < lineWidth; dx++ {
		for y := y0; y < y1+lineWidth; y++ {
			c.SetGray(x+dx, y, color.Gray{Y: c.ink})
		}
	}
}

// withInk returns c drawing in the given luma.
func (c canvas) withInk(luma uint8) canvas {
	c.ink = luma
	return c
}

// paper floods the whole image with luma.
func (c canvas) paper(luma uint8) {
	for i := range c.Pix {
		c.Pix[i] = luma
	}
}

func (c canvas) fill(r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c.SetGray(x, y, color.Gray{Y: c.ink})
		}
	}
}

// grid draws a fully ruled table with the given boundaries.
func (c canvas) grid(xs, ys []int) {
	for _, y := range ys {
		c.hline(xs[0], xs[len(xs)-1], y)
	}
	for _, x := range xs {
		c.vline(x, ys[0], ys[len(ys)-1])
	}
}

func (c canvas) save(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, c.Gray); err != nil {
		t.Fatalf("encode image: %v", err)
	}
	return path
}

// fakeEngine returns canned words and records whether it was called.
type fakeEngine struct {
	words  []ocr.Word
	err    error
	called bool
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(ctx context.Context, imagePath string) ([]ocr.Word, error) {
	f.called = true
	return f.words, f.err
}

func word(text string, x0, y0, x1, y1 int, conf float64) ocr.Word {
	return ocr.Word{Text: text, Bounds: image.Rect(x0, y0, x1, y1), Confidence: conf}
}
