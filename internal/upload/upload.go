// Package upload persists uploaded PDFs under a fixed directory.
package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spherical/table-extractor/internal/domain"
)

// ErrInvalidName is returned for client filenames with no usable base name.
var ErrInvalidName = errors.New("invalid file name")

// Sanitize reduces a client-supplied filename to a safe base name. Directory
// components (either separator style) are stripped, and control characters
// are removed. It returns ErrInvalidName when nothing usable remains.
func Sanitize(name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)

	base := filepath.Base(strings.TrimSpace(name))
	base = strings.TrimSpace(base)
	switch base {
	case "", ".", "..", "/":
		return "", ErrInvalidName
	}
	return base, nil
}

// Save writes r to dir as "<jobID>_<sanitized name>" and returns the stored
// document. dir is created if it does not exist.
func Save(dir, jobID, name string, r io.Reader) (*domain.UploadedDocument, error) {
	base, err := Sanitize(name)
	if err != nil {
		return nil, domain.ValidationError("Invalid file name", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, domain.IOError("failed to create uploads directory", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s", jobID, base))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, domain.IOError("failed to create upload file", err)
	}

	n, err := io.Copy(f, r)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return nil, domain.IOError("failed to save upload", err)
	}

	return &domain.UploadedDocument{
		Filename:   base,
		Path:       path,
		Size:       n,
		ReceivedAt: time.Now(),
	}, nil
}
