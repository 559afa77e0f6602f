package docremedy

import (
	"errors"
	"fmt"

	"github.com/brunobiangulo/docremedy/extract"
	"github.com/brunobiangulo/docremedy/history"
)

var (
	// ErrInputFormat is returned for uploads that are neither a tabular
	// report (CSV, XLSX) nor a PDF where one is expected.
	ErrInputFormat = errors.New("docremedy: unsupported input format")

	// ErrUnreadable is returned for corrupt, encrypted or non-PDF documents.
	// No partial text accompanies it.
	ErrUnreadable = extract.ErrUnreadable

	// ErrNoDocument is returned when an analysis has no document bytes.
	ErrNoDocument = errors.New("docremedy: no document to analyze")

	// ErrEmptyInput is returned for a blank question or report.
	ErrEmptyInput = errors.New("docremedy: empty input")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("docremedy: invalid configuration")

	// ErrHistoryDisabled is returned by history operations when no history
	// store is configured.
	ErrHistoryDisabled = errors.New("docremedy: upload history is not configured")

	// ErrNotFound is returned when a history entry does not exist.
	ErrNotFound = history.ErrNotFound
)

// CompletionError wraps any failure of the completion service. The core never
// retries or degrades on it.
type CompletionError struct {
	Provider string
	Err      error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("docremedy: completion via %s failed: %v", e.Provider, e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }
