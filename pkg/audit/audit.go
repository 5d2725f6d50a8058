// Package audit appends one CSV row per answered question. The trail is an
// operational record, not a data store: writes are best-effort and a failed
// append must never block an answer.
package audit

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/LexGuardAI/lexguard-mvp/engine/domain"
)

var header = []string{"timestamp", "question", "citations"}

// CSVSink appends audit records to a single file, creating it with a header
// row on first touch. Safe for concurrent use.
type CSVSink struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// NewCSVSink creates a sink writing to path. Parent directories are created
// lazily on first write.
func NewCSVSink(path string, logger *slog.Logger) *CSVSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVSink{path: path, logger: logger}
}

// flatten makes a value safe for a single CSV cell: double quotes become
// single quotes and newlines become spaces, matching how the trail is
// grepped in practice.
func flatten(s string) string {
	s = strings.ReplaceAll(s, `"`, "'")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

// Append writes one record. The timestamp is stored in UTC RFC 3339.
func (s *CSVSink) Append(rec domain.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("audit: mkdir: %w", err)
	}

	_, statErr := os.Stat(s.path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("audit: open %s: %w", s.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("audit: write header: %w", err)
		}
	}

	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	row := []string{
		ts.UTC().Format(time.RFC3339),
		flatten(rec.Question),
		flatten(strings.Join(rec.Citations, "; ")),
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("audit: write row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("audit: flush: %w", err)
	}
	return nil
}

// TryAppend logs instead of returning the error. Handlers call this so audit
// trouble never turns into a failed answer.
func (s *CSVSink) TryAppend(rec domain.AuditRecord) {
	if err := s.Append(rec); err != nil {
		s.logger.Warn("audit append failed", "error", err)
	}
}

// Path returns the sink's file path.
func (s *CSVSink) Path() string { return s.path }
