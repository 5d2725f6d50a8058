package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the ingestion and query paths.
var (
	// ErrMissingIndex means load was requested before an index was built.
	// Fatal to the query path; the caller should instruct the user to run
	// ingestion.
	ErrMissingIndex = errors.New("index not found, run ingestion first")

	// ErrUnsupportedDocument marks a file extension outside the allow-list.
	// Non-fatal: the corpus builder skips the file.
	ErrUnsupportedDocument = errors.New("unsupported document type")

	// ErrEmptyQuery rejects blank questions at the entry point.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrEmptyCorpus means the document walk produced no chunks.
	ErrEmptyCorpus = errors.New("corpus produced no chunks")
)

// ExtractionError wraps a failure to parse a recognized document type
// (corrupt file, missing parser capability). It aborts the corpus build for
// that file rather than silently dropping the document.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// NewExtractionError wraps err as a fatal extraction failure for path.
func NewExtractionError(path string, err error) *ExtractionError {
	return &ExtractionError{Path: path, Err: err}
}
