// Package extract runs the rasterize, table extraction and field selection
// stages for one document inside a private scratch directory.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spherical/table-extractor/internal/domain"
	"github.com/spherical/table-extractor/internal/observability"
)

// Messages reported to clients for each failing stage.
const (
	MsgRasterizeFailed = "Failed to convert PDF to image"
	MsgExtractFailed   = "Failed to extract table from image"
	MsgColumnsNotFound = "Required columns not found"
)

const (
	pageImageName = "page_001.png"
	workbookName  = "result.xlsx"
)

// Options configures the service.
type Options struct {
	// ScratchDir is the parent of per-job working directories. Empty means
	// os.TempDir().
	ScratchDir string
}

// Service orchestrates the extraction workflow. It implements
// domain.Pipeline and is safe for concurrent use.
type Service struct {
	rasterizer domain.Rasterizer
	tables     domain.TableExtractor
	selector   domain.FieldSelector
	opts       Options
	logger     *observability.Logger
}

// NewService creates a new extraction service
func NewService(
	rasterizer domain.Rasterizer,
	tables domain.TableExtractor,
	selector domain.FieldSelector,
	opts Options,
	logger *observability.Logger,
) *Service {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Service{
		rasterizer: rasterizer,
		tables:     tables,
		selector:   selector,
		opts:       opts,
		logger:     logger.WithOperation("pipeline"),
	}
}

// Process runs the pipeline for pdfPath.
func (s *Service) Process(ctx context.Context, pdfPath string) (*domain.Result, error) {
	return s.ProcessWithEvents(ctx, pdfPath, nil)
}

// ProcessWithEvents runs the pipeline and reports progress on eventCh, which
// may be nil. Sends never block; events are dropped when the channel is full.
func (s *Service) ProcessWithEvents(ctx context.Context, pdfPath string, eventCh chan<- domain.StreamEvent) (*domain.Result, error) {
	startTime := time.Now()
	jobID := uuid.NewString()
	logger := s.logger.WithJob(jobID)

	s.emit(eventCh, domain.StreamEvent{Type: domain.EventStart, JobID: jobID, Payload: pdfPath})

	result, err := s.run(ctx, jobID, pdfPath, logger, eventCh)
	if err != nil {
		if _, ok := domain.AsDomainError(err); !ok {
			err = domain.UnexpectedError(err.Error(), err)
		}
		logger.Error().
			Err(err).
			Str("stage", string(domain.StageOf(err))).
			Str("pdf", pdfPath).
			Msg("pipeline failed")
		s.emit(eventCh, domain.StreamEvent{
			Type:    domain.EventError,
			JobID:   jobID,
			Stage:   domain.StageOf(err),
			Payload: err.Error(),
		})
		return nil, err
	}

	result.Duration = time.Since(startTime)
	logger.Info().
		Int("tables", result.Tables).
		Int("records", len(result.Records)).
		Dur("duration", result.Duration).
		Msg("pipeline complete")
	s.emit(eventCh, domain.StreamEvent{
		Type:    domain.EventComplete,
		JobID:   jobID,
		Payload: fmt.Sprintf("%d records from %d tables", len(result.Records), result.Tables),
	})
	return result, nil
}

func (s *Service) run(
	ctx context.Context,
	jobID, pdfPath string,
	logger *observability.Logger,
	eventCh chan<- domain.StreamEvent,
) (*domain.Result, error) {
	scratch, err := s.makeScratch(jobID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			logger.Warn().Err(err).Str("dir", scratch).Msg("failed to remove scratch directory")
		}
	}()

	imagePath := filepath.Join(scratch, pageImageName)
	workbookPath := filepath.Join(scratch, workbookName)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, err := s.rasterizer.Rasterize(ctx, pdfPath, imagePath)
	if err != nil {
		return nil, domain.StageError(domain.StageRasterize, MsgRasterizeFailed, err)
	}
	logger.Debug().Int("width", page.Width).Int("height", page.Height).Msg("page rasterized")
	s.stageDone(eventCh, jobID, domain.StageRasterize, fmt.Sprintf("page %d rendered", page.PageNumber))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	summary, err := s.tables.Extract(ctx, page.ImagePath, workbookPath)
	if err != nil {
		return nil, domain.StageError(domain.StageExtract, MsgExtractFailed, err)
	}
	s.stageDone(eventCh, jobID, domain.StageExtract, fmt.Sprintf("%d tables detected", len(summary.Tables)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := s.selector.Select(ctx, summary.WorkbookPath)
	if err != nil {
		return nil, selectError(err)
	}
	s.stageDone(eventCh, jobID, domain.StageSelect, fmt.Sprintf("%d records selected", len(records)))

	workbook, err := os.ReadFile(summary.WorkbookPath)
	if err != nil {
		return nil, domain.IOError("failed to read workbook", err)
	}

	return &domain.Result{
		JobID:    jobID,
		Records:  records,
		Workbook: workbook,
		Tables:   len(summary.Tables),
	}, nil
}

// selectError tags selector failures. Missing columns get the client-facing
// message; other failures keep their own.
func selectError(err error) error {
	msg := err.Error()
	if errors.Is(err, domain.ErrColumnsNotFound) {
		msg = MsgColumnsNotFound
	} else if de, ok := domain.AsDomainError(err); ok {
		msg = de.Message
	}
	return domain.StageError(domain.StageSelect, msg, err)
}

func (s *Service) makeScratch(jobID string) (string, error) {
	parent := s.opts.ScratchDir
	if parent == "" {
		parent = os.TempDir()
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", domain.IOError("failed to create scratch root", err)
	}
	dir := filepath.Join(parent, "job-"+jobID)
	if err := os.Mkdir(dir, 0o700); err != nil {
		return "", domain.IOError("failed to create scratch directory", err)
	}
	return dir, nil
}

func (s *Service) stageDone(eventCh chan<- domain.StreamEvent, jobID string, stage domain.Stage, payload string) {
	s.emit(eventCh, domain.StreamEvent{
		Type:    domain.EventStageComplete,
		JobID:   jobID,
		Stage:   stage,
		Payload: payload,
	})
}

// emit safely emits an event to the channel
func (s *Service) emit(eventCh chan<- domain.StreamEvent, event domain.StreamEvent) {
	if eventCh == nil {
		return
	}
	event.Timestamp = time.Now()
	select {
	case eventCh <- event:
	default:
		s.logger.Warn().Str("event", string(event.Type)).Msg("event channel full, dropping event")
	}
}
