package rag

import (
	"strings"

	"github.com/LexGuardAI/lexguard-mvp/engine/domain"
)

// FormatCitations renders results as "document#anchor" labels, deduplicated
// in first-occurrence order. Results without a document name are skipped and
// an empty anchor yields the document name alone.
func FormatCitations(results []domain.RetrievalResult) []string {
	seen := make(map[string]struct{}, len(results))
	var out []string
	for _, r := range results {
		doc := strings.TrimSpace(r.Document)
		if doc == "" {
			continue
		}
		anchor := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(r.Anchor), "#"))
		label := doc
		if anchor != "" {
			label = doc + "#" + anchor
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}
