package corpus

import (
	"regexp"
	"strings"

	"github.com/LexGuardAI/lexguard-mvp/engine/domain"
)

const (
	// DefaultWindow is the fixed chunk window in words.
	DefaultWindow = 400
	// DefaultOverlap is the number of words shared between consecutive
	// windows, so no fact sits on a boundary without shared context.
	DefaultOverlap = 40
)

// minChunkWords is the floor below which trailing fragments are discarded:
// 40 words, or a fifth of the window, whichever is larger.
func minChunkWords(window int) int {
	floor := window / 5
	if floor < 40 {
		floor = 40
	}
	return floor
}

// WordChunks splits text into overlapping fixed-size word windows. Each
// window holds up to window words; consecutive windows advance by
// window-overlap. A trailing remainder too short to stand on its own is
// folded into the final window instead of being emitted as a fragment,
// and any text shorter than the floor yields no chunks at all.
// Deterministic: identical input produces identical boundaries.
func WordChunks(text string, window, overlap int) []string {
	if window <= 0 {
		window = DefaultWindow
	}
	if overlap < 0 || overlap >= window {
		overlap = DefaultOverlap
	}

	words := strings.Fields(text)
	floor := minChunkWords(window)

	var chunks []string
	start := 0
	for start < len(words) {
		end := start + window
		if end > len(words) || len(words)-end < floor {
			end = len(words)
		}
		if end-start >= floor {
			chunks = append(chunks, strings.Join(words[start:end], " "))
		}
		if end == len(words) {
			break
		}
		start = end - overlap
	}
	return chunks
}

var (
	headingRe = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	slugRe    = regexp.MustCompile(`[^a-zA-Z0-9]+`)
)

// Slugify lowers a heading title and collapses non-alphanumeric runs to
// single hyphens.
func Slugify(title string) string {
	slug := slugRe.ReplaceAllString(title, "-")
	return strings.ToLower(strings.Trim(slug, "-"))
}

// section is a heading-delimited span of a structured document.
type section struct {
	anchor string
	lines  []string
}

// MarkdownChunks splits a heading-structured document into sections, then
// feeds each section's normalized text through fixed-window chunking. Every
// sub-chunk carries the section's anchor, so a section larger than one
// window yields several chunks sharing one anchor.
//
// Anchors are hierarchical: "# Title One" followed by "## Sub" produces
// section-title-one and section-title-one-sub. Text before the first
// heading is anchored at section-0.
func MarkdownChunks(doc string, text string, window, overlap int) []domain.Chunk {
	var (
		sections []section
		current  = section{anchor: "section-0"}
		// Slug stack of open headings, indexed by depth-1.
		stack []struct {
			level int
			slug  string
		}
	)

	flush := func() {
		if len(current.lines) > 0 {
			sections = append(sections, current)
		}
	}

	for _, line := range strings.Split(text, "\n") {
		m := headingRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			current.lines = append(current.lines, line)
			continue
		}
		flush()

		level := len(m[1])
		slug := Slugify(m[2])
		for len(stack) > 0 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, struct {
			level int
			slug  string
		}{level, slug})

		parts := make([]string, 0, len(stack)+1)
		parts = append(parts, "section")
		for _, s := range stack {
			if s.slug != "" {
				parts = append(parts, s.slug)
			}
		}
		current = section{anchor: strings.Join(parts, "-")}
	}
	flush()

	var chunks []domain.Chunk
	for _, sec := range sections {
		cleaned := CleanText(strings.Join(sec.lines, "\n"))
		if cleaned == "" {
			continue
		}
		for _, piece := range WordChunks(cleaned, window, overlap) {
			chunks = append(chunks, domain.Chunk{
				Document: doc,
				Anchor:   sec.anchor,
				Text:     piece,
			})
		}
	}
	return chunks
}
