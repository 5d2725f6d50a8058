package corpus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestBuilder_MarkdownDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "handbook.md", "# Client Money\n"+wordsText(120))
	writeFile(t, dir, "reporting.md", "# Reporting\n"+wordsText(120))

	b := NewBuilder(nil)
	chunks, err := b.Build(dir)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}

	docs := map[string]bool{}
	for _, c := range chunks {
		docs[c.Document] = true
	}
	if !docs["handbook.md"] || !docs["reporting.md"] {
		t.Errorf("missing documents in %v", docs)
	}
}

func TestBuilder_SkipsUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", wordsText(200))
	writeFile(t, dir, "rules.md", "# Rules\n"+wordsText(120))

	chunks, err := NewBuilder(nil).Build(dir)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	for _, c := range chunks {
		if c.Document != "rules.md" {
			t.Errorf("unexpected document %q", c.Document)
		}
	}
	if len(chunks) == 0 {
		t.Error("expected chunks from rules.md")
	}
}

func TestBuilder_RecursesSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "annex")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, sub, "annex-a.md", "# Annex A\n"+wordsText(120))

	chunks, err := NewBuilder(nil).Build(dir)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Document != "annex-a.md" {
		t.Fatalf("expected one chunk from annex-a.md, got %v", chunks)
	}
}

func TestBuilder_EmptyDirectory(t *testing.T) {
	chunks, err := NewBuilder(nil).Build(t.TempDir())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}
}

func TestBuilder_CorruptPDFFailsBuild(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.pdf", "not a pdf at all")

	_, err := NewBuilder(nil).Build(dir)
	if err == nil {
		t.Fatal("expected error for corrupt pdf")
	}
	if !strings.Contains(err.Error(), "broken.pdf") {
		t.Errorf("error should name the file: %v", err)
	}
}
