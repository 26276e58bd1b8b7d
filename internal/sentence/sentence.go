// Package sentence splits raw text into sentence spans using a
// punctuation+capitalization heuristic. It is deliberately imprecise: the
// goal is stable context windows for citation markers, not linguistically
// complete segmentation.
package sentence

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Span is a half-open [Start, End) byte range into the source text.
type Span struct {
	Start int
	End   int
}

// quoteChars are characters that may open a sentence in place of an
// uppercase letter ("He left." "Then what?").
const quoteChars = `"'` + "“”‘’"

// Segment splits text into ordered, non-overlapping sentence spans.
//
// A sentence ends at '.', '?' or '!' followed by whitespace and then an
// uppercase letter or quote character, unless the token preceding the
// terminator looks like an abbreviation of single initials ("J.", "U.S.").
// The final unterminated fragment is always emitted. Known failure modes
// (nested abbreviations, quotes before capitals) are accepted as-is.
func Segment(text string) []Span {
	var spans []Span

	start := skipSpace(text, 0)
	i := start
	for i < len(text) {
		c := text[i]
		if c != '.' && c != '?' && c != '!' {
			i++
			continue
		}

		if c == '.' && isAbbreviationToken(text, i) {
			i++
			continue
		}

		// Require whitespace, then an uppercase letter or quote.
		j := i + 1
		if j >= len(text) {
			i++
			continue
		}
		if !isSpaceByte(text[j]) {
			i++
			continue
		}
		next := skipSpace(text, j)
		if next >= len(text) || !startsSentence(text[next:]) {
			i++
			continue
		}

		if i+1 > start {
			spans = append(spans, Span{Start: start, End: i + 1})
		}
		start = next
		i = next
	}

	// Trailing fragment.
	end := len(strings.TrimRight(text, " \t\r\n"))
	if end > start {
		spans = append(spans, Span{Start: start, End: end})
	}

	return spans
}

// Containing returns the index of the span containing the byte offset, or
// -1 when no span covers it.
func Containing(spans []Span, offset int) int {
	for i, s := range spans {
		if offset >= s.Start && offset < s.End {
			return i
		}
	}
	return -1
}

// isAbbreviationToken reports whether the period at index dot terminates a
// token of repeated single-letter initials, e.g. "J." or "U.S.".
func isAbbreviationToken(text string, dot int) bool {
	// Walk back over the token (no whitespace).
	tokenStart := dot
	for tokenStart > 0 && !isSpaceByte(text[tokenStart-1]) {
		tokenStart--
	}
	token := text[tokenStart : dot+1]

	// Token must be one or more "X." groups.
	for len(token) >= 2 {
		r, size := utf8.DecodeRuneInString(token)
		if !unicode.IsUpper(r) {
			return false
		}
		if len(token) < size+1 || token[size] != '.' {
			return false
		}
		token = token[size+1:]
	}
	return len(token) == 0
}

func startsSentence(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r) || strings.ContainsRune(quoteChars, r)
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func skipSpace(text string, i int) int {
	for i < len(text) && isSpaceByte(text[i]) {
		i++
	}
	return i
}
