package table

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// inkMap is a binarized image: true marks a dark pixel.
type inkMap struct {
	w, h int
	ink  []bool
}

func (m *inkMap) at(x, y int) bool {
	return m.ink[y*m.w+x]
}

// loadImage decodes a PNG or JPEG file.
func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// inkContrast is how much darker than the paper a pixel must be to count as
// ink when the threshold is derived from the image.
const inkContrast = 48

// binarize converts img to grayscale and marks pixels darker than threshold.
// A zero threshold is derived from the page with paperThreshold.
func binarize(img image.Image, threshold uint8) *inkMap {
	b := img.Bounds()
	gray, ok := img.(*image.Gray)
	if !ok || b.Min != (image.Point{}) {
		gray = image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	}

	m := &inkMap{w: b.Dx(), h: b.Dy(), ink: make([]bool, b.Dx()*b.Dy())}
	if threshold == 0 {
		threshold = paperThreshold(gray, m.w, m.h)
	}
	for y := 0; y < m.h; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+m.w]
		for x, v := range row {
			m.ink[y*m.w+x] = v < threshold
		}
	}
	return m
}

// paperThreshold places the ink cutoff inkContrast below the most common
// luma, which on a document page is the paper. Light-gray and anti-aliased
// rulings stay ink while the paper and its noise do not.
func paperThreshold(gray *image.Gray, w, h int) uint8 {
	var hist [256]int
	for y := 0; y < h; y++ {
		for _, v := range gray.Pix[y*gray.Stride : y*gray.Stride+w] {
			hist[v]++
		}
	}

	paper := 0
	for v, n := range hist {
		if n > hist[paper] {
			paper = v
		}
	}
	return uint8(max(paper-inkContrast, 1))
}
