package corpus

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/LexGuardAI/lexguard-mvp/engine/domain"
)

// Builder walks a document directory and produces the full ordered list of
// tagged chunks. Files outside the extension allow-list are skipped; a file
// the builder does recognize but cannot parse aborts the build.
type Builder struct {
	Window  int
	Overlap int
	Logger  *slog.Logger
}

// NewBuilder creates a Builder with the default window and overlap.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{Window: DefaultWindow, Overlap: DefaultOverlap, Logger: logger}
}

// Build recursively walks root and chunks every supported document.
func (b *Builder) Build(root string) ([]domain.Chunk, error) {
	var chunks []domain.Chunk

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		fileChunks, err := b.buildFile(path)
		if err != nil {
			if err == domain.ErrUnsupportedDocument {
				b.Logger.Debug("corpus: skipping unsupported file", "path", path)
				return nil
			}
			return err
		}
		chunks = append(chunks, fileChunks...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("corpus: walk %s: %w", root, err)
	}
	return chunks, nil
}

// buildFile dispatches on extension. The allow-list is the place to extend
// when a new format gets an extractor.
func (b *Builder) buildFile(path string) ([]domain.Chunk, error) {
	name := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return b.buildPDF(path, name)
	case ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, domain.NewExtractionError(path, err)
		}
		return MarkdownChunks(name, string(data), b.Window, b.Overlap), nil
	default:
		return nil, domain.ErrUnsupportedDocument
	}
}

// buildPDF chunks each page independently under its "p{n}" anchor. Pages
// that normalize to empty text contribute zero chunks.
func (b *Builder) buildPDF(path, name string) ([]domain.Chunk, error) {
	pages, err := ExtractPDFPages(path)
	if err != nil {
		return nil, err
	}

	var chunks []domain.Chunk
	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		for _, piece := range WordChunks(page.Text, b.Window, b.Overlap) {
			chunks = append(chunks, domain.Chunk{
				Document: name,
				Anchor:   fmt.Sprintf("p%d", page.Number),
				Text:     piece,
			})
		}
	}
	return chunks, nil
}
