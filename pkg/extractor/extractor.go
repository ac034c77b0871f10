// Package extractor is the library entry point: it assembles the default
// PDF to course-records pipeline from configuration.
package extractor

import (
	"context"
	"os"

	"github.com/spherical/table-extractor/internal/config"
	"github.com/spherical/table-extractor/internal/domain"
	"github.com/spherical/table-extractor/internal/extract"
	"github.com/spherical/table-extractor/internal/observability"
	"github.com/spherical/table-extractor/internal/ocr/tesseract"
	"github.com/spherical/table-extractor/internal/pdf"
	"github.com/spherical/table-extractor/internal/selector"
	"github.com/spherical/table-extractor/internal/table"
)

// Re-export public types
type (
	Record      = domain.Record
	Result      = domain.Result
	StreamEvent = domain.StreamEvent
	EventType   = domain.EventType
	Stage       = domain.Stage
)

// Event type constants
const (
	EventStart         = domain.EventStart
	EventStageComplete = domain.EventStageComplete
	EventComplete      = domain.EventComplete
	EventError         = domain.EventError
)

// Client is the main entry point for the table extractor library
type Client struct {
	service *extract.Service
}

// NewClient creates a client from configuration loaded the usual way
// (config file, .env, environment).
func NewClient(configPath string, logger *observability.Logger) (*Client, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, domain.ConfigError("failed to load configuration", err)
	}
	return NewClientWithConfig(cfg, logger)
}

// NewClientWithConfig creates a client using the built-in rasterizer, the
// tesseract OCR engine and the bordered-table detector.
func NewClientWithConfig(cfg *config.Config, logger *observability.Logger) (*Client, error) {
	if cfg == nil {
		return nil, domain.ConfigError("configuration is required", nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, domain.ConfigError("invalid configuration", err)
	}
	if logger == nil {
		logger = observability.Nop()
	}

	var ocrOpts []tesseract.Option
	if cfg.OCR.TessdataPrefix != "" {
		ocrOpts = append(ocrOpts, tesseract.WithTessdataPrefix(cfg.OCR.TessdataPrefix))
	}
	engine := tesseract.NewEngine(cfg.OCR.Language, ocrOpts...)

	tableOpts := table.DefaultOptions()
	tableOpts.MinConfidence = cfg.OCR.MinConfidence

	service := extract.NewService(
		pdf.NewConverter(cfg.Raster.DPI, logger),
		table.NewExtractor(engine, tableOpts, logger),
		selector.New(logger),
		extract.Options{ScratchDir: cfg.Storage.ScratchDir},
		logger,
	)
	return &Client{service: service}, nil
}

// Pipeline exposes the underlying pipeline, e.g. for the HTTP server.
func (c *Client) Pipeline() domain.Pipeline {
	return c.service
}

// Process extracts course records from a PDF file.
func (c *Client) Process(ctx context.Context, pdfPath string) (*Result, error) {
	return c.Stream(ctx, pdfPath, nil)
}

// Stream is like Process but reports progress on events, which may be nil.
// events is not closed.
func (c *Client) Stream(ctx context.Context, pdfPath string, events chan<- StreamEvent) (*Result, error) {
	if _, err := os.Stat(pdfPath); os.IsNotExist(err) {
		return nil, domain.ValidationError("PDF file not found", err)
	}
	return c.service.ProcessWithEvents(ctx, pdfPath, events)
}
