package app

import (
	"errors"
	"fmt"
)

var (
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrArtifactNotReady = errors.New("artifact not ready")
	ErrReportNotFound   = errors.New("report request not found")
)

// ValidationError rejects a request before any catalog row is written.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// GenerationError wraps a text adapter failure.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return "text generation failed: " + e.Err.Error() }
func (e *GenerationError) Unwrap() error { return e.Err }

// SynthesisError wraps a speech adapter failure. There is one audio file per
// attempt, so this aborts the whole pipeline run.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string { return "speech synthesis failed: " + e.Err.Error() }
func (e *SynthesisError) Unwrap() error { return e.Err }

// RenderError wraps a document layout failure.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string { return "document render failed: " + e.Err.Error() }
func (e *RenderError) Unwrap() error { return e.Err }

// StorageError wraps a catalog or durable-write failure after generation.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return "storage failed: " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }

// QuotaExceededError reports a rejected artifact together with the ledger
// state that rejected it.
type QuotaExceededError struct {
	QuotaLimitBytes    int64
	UsedBytes          int64
	AttemptedSizeBytes int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("storage quota exceeded: limit=%d used=%d attempted=%d",
		e.QuotaLimitBytes, e.UsedBytes, e.AttemptedSizeBytes)
}
