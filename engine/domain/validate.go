package domain

import (
	"fmt"
	"strings"
)

// MaxQuestionLen caps the accepted question length in bytes.
const MaxQuestionLen = 2000

// ValidateQuestion checks a user question before it enters the query path.
func ValidateQuestion(q string) error {
	trimmed := strings.TrimSpace(q)
	if trimmed == "" {
		return ErrEmptyQuery
	}
	if len(trimmed) > MaxQuestionLen {
		return fmt.Errorf("validate: question exceeds %d bytes", MaxQuestionLen)
	}
	return nil
}

// ValidateChunk checks a chunk before it is indexed.
func ValidateChunk(c Chunk) error {
	if c.Document == "" {
		return fmt.Errorf("validate: chunk has no document name")
	}
	if strings.TrimSpace(c.Text) == "" {
		return fmt.Errorf("validate: chunk %s#%s has empty text", c.Document, c.Anchor)
	}
	return nil
}
