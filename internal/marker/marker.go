// Package marker locates in-text citation markers and derives a sentence
// context window around each occurrence.
package marker

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/refmine/refmine/internal/sentence"
)

// Context is one in-text citation occurrence together with the text window
// surrounding it, tagged with the document it came from.
type Context struct {
	Marker      string `json:"marker"`
	ContextText string `json:"context_text"`
	SourceKey   string `json:"source_key"`
}

// Pattern names, in cascade order.
const (
	PatternParenAuthorYear  = "paren_author_year"  // (Smith, 2019)
	PatternInlineAuthorYear = "inline_author_year" // Smith (2019)
	PatternNumeric          = "numeric"            // [12], [3, 7], [3-5]
	PatternAuthorKey        = "author_key"         // [Smith99]
)

// charWindow is the fallback context radius when sentence segmentation
// does not cover the match offset.
const charWindow = 200

// authorChain matches one or more surnames joined by "and"/"&"/commas,
// optionally ending in "et al.".
const authorChain = `[A-Z][A-Za-z'\-]+(?:(?:\s*,\s*|,?\s+and\s+|\s*&\s*)[A-Z][A-Za-z'\-]+)*(?:\s+et\s+al\.?)?`

type pattern struct {
	name string
	re   *regexp.Regexp
}

// The four marker shapes, scanned in this fixed order. A position may be
// matched by more than one pattern; deduplication happens downstream.
var patterns = []pattern{
	{PatternParenAuthorYear, regexp.MustCompile(`\(` + authorChain + `\s*,?\s+(?:19|20)\d{2}[a-z]?\)`)},
	{PatternInlineAuthorYear, regexp.MustCompile(authorChain + `\s+\((?:19|20)\d{2}[a-z]?\)`)},
	{PatternNumeric, regexp.MustCompile(`\[\d{1,3}(?:\s*[-\x{2013},]\s*\d{1,3})*\]`)},
	{PatternAuthorKey, regexp.MustCompile(`\[[A-Z][a-zA-Z]+\d{2,4}[a-z]?\]`)},
}

// Extractor scans document text for citation markers. Before and After set
// how many sentences around the match sentence go into the window.
type Extractor struct {
	Before int
	After  int
	log    *zap.Logger
}

// NewExtractor creates an Extractor with a one-sentence window on each
// side. A nil logger disables diagnostics.
func NewExtractor(log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{Before: 1, After: 1, log: log}
}

// ExtractContexts runs all marker patterns over the text, in order, and
// returns one Context per match. Matches whose window is blank are dropped.
func (e *Extractor) ExtractContexts(text, sourceKey string) ([]Context, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("document text must not be blank")
	}
	if strings.TrimSpace(sourceKey) == "" {
		return nil, fmt.Errorf("source key must not be blank")
	}

	spans := sentence.Segment(text)

	var contexts []Context
	for _, pat := range patterns {
		locs := pat.re.FindAllStringIndex(text, -1)
		for _, loc := range locs {
			window := e.contextWindow(text, spans, loc[0])
			if window == "" {
				continue
			}
			contexts = append(contexts, Context{
				Marker:      strings.TrimSpace(text[loc[0]:loc[1]]),
				ContextText: window,
				SourceKey:   sourceKey,
			})
		}
		if len(locs) > 0 {
			e.log.Debug("marker pattern matched",
				zap.String("pattern", pat.name),
				zap.Int("count", len(locs)))
		}
	}

	return contexts, nil
}

// contextWindow returns the sentences from Before sentences ahead of the
// match to After sentences past it, clamped to the document. When no span
// covers the offset, a fixed character window is used instead.
func (e *Extractor) contextWindow(text string, spans []sentence.Span, offset int) string {
	idx := sentence.Containing(spans, offset)
	if idx < 0 {
		lo := max(0, offset-charWindow)
		hi := min(len(text), offset+charWindow)
		return strings.TrimSpace(text[lo:hi])
	}

	first := max(0, idx-e.Before)
	last := min(len(spans)-1, idx+e.After)
	return strings.TrimSpace(text[spans[first].Start:spans[last].End])
}
