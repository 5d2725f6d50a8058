// Package domain defines the core types and error taxonomy shared by the
// LexGuard engine pipeline: corpus chunks, retrieval results, composed
// answers, and audit records. It acts as the validation gate at pipeline
// entry points.
package domain

import "time"

// Chunk is the unit of indexing and retrieval: a bounded span of normalized
// text tagged with the document it came from and an anchor locating it
// within that document (a page number like "p12" or a section slug like
// "section-client-money"). Anchors are unique within a document only.
type Chunk struct {
	Document string `json:"document_name"`
	Anchor   string `json:"anchor"`
	Text     string `json:"text"`
}

// RetrievalResult is a chunk returned from similarity search with its
// cosine score attached. Scores are in [-1, 1]; vectors are unit-normalized
// at embedding time so inner product equals cosine similarity.
type RetrievalResult struct {
	Document string  `json:"document_name"`
	Anchor   string  `json:"anchor"`
	Text     string  `json:"text"`
	Score    float32 `json:"score"`
}

// Citation renders the result as "document#anchor".
func (r RetrievalResult) Citation() string {
	if r.Anchor == "" {
		return r.Document
	}
	return r.Document + "#" + r.Anchor
}

// Answer is the structured response produced once per query.
//
// When retrieval confidence is too low, Text holds the fixed sentinel
// InsufficientContext with Quotes, Citations, and UsedContexts all empty;
// the discarded candidates are exposed through NearMisses so callers can
// show "closest sources" without conflating them with used context.
type Answer struct {
	Text         string            `json:"text"`
	Quotes       []string          `json:"quotes"`
	Citations    []string          `json:"citations"`
	UsedContexts []RetrievalResult `json:"used_contexts"`
	NearMisses   []RetrievalResult `json:"near_misses,omitempty"`
}

// InsufficientContext is the exact sentinel answer text emitted when the
// retrieval guardrail refuses to answer.
const InsufficientContext = "Insufficient context."

// Insufficient reports whether the answer is the guardrail sentinel.
func (a *Answer) Insufficient() bool {
	return a.Text == InsufficientContext
}

// AuditRecord is one entry in the append-only audit trail.
type AuditRecord struct {
	Timestamp time.Time
	Question  string
	Citations []string
}
