package domain

import (
	"errors"
	"fmt"
)

// Error types for domain-specific errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeStage      ErrorType = "stage"
	ErrorTypeUnexpected ErrorType = "unexpected"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeIO         ErrorType = "io"
)

// Stage identifies the pipeline step that produced a stage failure.
type Stage string

const (
	StageNone      Stage = ""
	StageRasterize Stage = "rasterize"
	StageExtract   Stage = "extract"
	StageSelect    Stage = "select"
	StagePublish   Stage = "publish"
)

// Sentinel causes wrapped by stage failures.
var (
	ErrNoPages         = errors.New("document has no pages")
	ErrNoTables        = errors.New("no tables detected")
	ErrColumnsNotFound = errors.New("required columns not found")
)

// DomainError represents a domain-specific error with context
type DomainError struct {
	Type    ErrorType
	Stage   Stage
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	prefix := string(e.Type)
	if e.Stage != StageNone {
		prefix = fmt.Sprintf("%s:%s", e.Type, e.Stage)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", prefix, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func ValidationError(message string, err error) *DomainError {
	return NewError(ErrorTypeValidation, message, err)
}

// StageError tags a failure with the pipeline stage it happened in.
func StageError(stage Stage, message string, err error) *DomainError {
	e := NewError(ErrorTypeStage, message, err)
	e.Stage = stage
	return e
}

func UnexpectedError(message string, err error) *DomainError {
	return NewError(ErrorTypeUnexpected, message, err)
}

func ConfigError(message string, err error) *DomainError {
	return NewError(ErrorTypeConfig, message, err)
}

func IOError(message string, err error) *DomainError {
	return NewError(ErrorTypeIO, message, err)
}

// AsDomainError returns the first DomainError in err's chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// StageOf reports the stage of the outermost stage failure in err's chain.
func StageOf(err error) Stage {
	for err != nil {
		var de *DomainError
		if !errors.As(err, &de) {
			return StageNone
		}
		if de.Type == ErrorTypeStage {
			return de.Stage
		}
		err = de.Err
	}
	return StageNone
}

// IsValidation reports whether err is (or wraps) a validation error that did
// not occur inside a pipeline stage.
func IsValidation(err error) bool {
	de, ok := AsDomainError(err)
	return ok && de.Type == ErrorTypeValidation
}
