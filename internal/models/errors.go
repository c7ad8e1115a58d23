package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation.
var (
	ErrMissingName     = errors.New("name is required")
	ErrMissingColumns  = errors.New("columns are required")
	ErrMissingRows     = errors.New("rows are required")
	ErrMissingQuestion = errors.New("question is required")
)

// Sentinel errors for entity lookups.
var (
	ErrDatasetNotFound  = errors.New("dataset not found")
	ErrAnalysisNotFound = errors.New("analysis not found")
)

// ErrMalformedInput indicates the supplied rows cannot be normalized into a
// canonical table (empty input or ragged schema).
var ErrMalformedInput = errors.New("malformed dataset input")

// ErrAnalysisInProgress indicates an analysis run is already in flight for the
// dataset (maps to HTTP 409 Conflict).
var ErrAnalysisInProgress = errors.New("analysis already in progress")

// ErrAnalysisNotReady indicates an operation requires a ready analysis record
// (maps to HTTP 412 Precondition Failed).
var ErrAnalysisNotReady = errors.New("analysis is not ready")

// ErrAnalysisTimeout indicates the analysis pipeline exceeded its wall-clock bound.
var ErrAnalysisTimeout = errors.New("analysis timed out")

// ErrExportUnavailable indicates a report was requested for a non-ready analysis.
var ErrExportUnavailable = errors.New("export unavailable: analysis is not ready")

// ErrDuplicateKey indicates a unique constraint violation (maps to HTTP 409 Conflict).
var ErrDuplicateKey = errors.New("duplicate key")

// ErrUpstreamUnavailable indicates the model backend failed after retries
// (maps to HTTP 502 Bad Gateway on synchronous paths).
var ErrUpstreamUnavailable = errors.New("model backend unavailable")

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return fmt.Errorf("%s exceeds maximum length of %d", field, maxLen)
}
