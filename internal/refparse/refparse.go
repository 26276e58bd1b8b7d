// Package refparse parses the text of a references/bibliography section
// into structured reference records. It detects the dominant marker format,
// splits the section into per-reference fragments, and extracts fields from
// each fragment independently.
package refparse

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/refmine/refmine/internal/refrecord"
)

// Format classifies how references are labelled in a section.
type Format string

const (
	FormatNumericBracketed Format = "numeric_bracketed" // [12] Smith ...
	FormatNumericDotted    Format = "numeric_dotted"    // 12. Smith ...
	FormatAuthorKey        Format = "author_key"        // [Smith99] ...
	FormatAuthorYear       Format = "author_year"       // Smith, J. (1999) ...
)

// minFragmentLen is the shortest raw fragment kept; anything below is
// treated as splitting noise.
const minFragmentLen = 20

// formatThreshold is the number of marker occurrences required to commit
// to a numeric or author-key format.
const formatThreshold = 3

// Parser splits a references section and extracts fields per reference.
// Safe for concurrent use; all state is the compiled pattern set.
type Parser struct {
	log *zap.Logger
}

// New creates a Parser. A nil logger disables diagnostics.
func New(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log}
}

// Parse converts a references-section text into ordered records. Fragments
// that cannot be parsed are skipped with a diagnostic; the rest proceed.
func (p *Parser) Parse(sectionText string) []refrecord.Record {
	if strings.TrimSpace(sectionText) == "" {
		return nil
	}

	fragments := p.splitRawReferences(sectionText)

	records := make([]refrecord.Record, 0, len(fragments))
	for i, fragment := range fragments {
		rec, ok := parseSingleReference(strings.TrimSpace(fragment), i+1)
		if !ok {
			p.log.Debug("skipping unparseable reference fragment",
				zap.Int("index", i+1),
				zap.Int("length", len(fragment)))
			continue
		}
		records = append(records, rec)
	}

	p.log.Debug("parsed references section",
		zap.Int("fragments", len(fragments)),
		zap.Int("records", len(records)))
	return records
}

// DetectFormat classifies the marker format of a references section.
func DetectFormat(text string) Format {
	if len(numericBracketedRe.FindAllStringIndex(text, formatThreshold)) >= formatThreshold {
		return FormatNumericBracketed
	}
	if len(numericDottedRe.FindAllStringIndex(text, formatThreshold)) >= formatThreshold {
		return FormatNumericDotted
	}
	if len(authorKeyRe.FindAllStringIndex(text, formatThreshold)) >= formatThreshold {
		return FormatAuthorKey
	}
	return FormatAuthorYear
}

// splitRawReferences normalizes the section text and cuts it into one raw
// string per reference, marker attached to the reference it introduces.
func (p *Parser) splitRawReferences(text string) []string {
	normalized := normalizeSection(text)
	format := DetectFormat(normalized)

	var parts []string
	switch format {
	case FormatNumericBracketed:
		parts = splitAtMatches(normalized, numericBracketedRe)
	case FormatNumericDotted:
		parts = splitAtMatches(normalized, numericDottedRe)
	case FormatAuthorKey:
		parts = splitAtMatches(normalized, authorKeyRe)
	default:
		parts = splitByParagraphs(normalized)
	}

	kept := parts[:0]
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if len(part) > minFragmentLen {
			kept = append(kept, part)
		}
	}
	return kept
}

func normalizeSection(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = leadingLineSpaceRe.ReplaceAllString(text, "")
	text = manyNewlinesRe.ReplaceAllString(text, "\n\n")
	return text
}

// splitAtMatches cuts text at the start of every marker match. Go's regexp
// has no lookahead, so the Java-style "(?=marker)" split is done by cutting
// at match boundaries, which keeps each marker attached to its reference.
func splitAtMatches(text string, re *regexp.Regexp) []string {
	locs := re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{text}
	}

	var parts []string
	if head := text[:locs[0][0]]; strings.TrimSpace(head) != "" {
		parts = append(parts, head)
	}
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		parts = append(parts, text[loc[0]:end])
	}
	return parts
}

// splitByParagraphs handles author-year sections: blank-line-separated
// paragraphs, with hanging-indent paragraphs containing several references
// split further at each detected reference start line.
func splitByParagraphs(text string) []string {
	var refs []string
	for _, paragraph := range blankLineRe.Split(text, -1) {
		trimmed := strings.TrimSpace(paragraph)
		if trimmed == "" {
			continue
		}
		if looksLikeMultipleReferences(trimmed) {
			refs = append(refs, splitHangingIndent(trimmed)...)
		} else {
			refs = append(refs, trimmed)
		}
	}
	return refs
}

func looksLikeMultipleReferences(text string) bool {
	starts := 0
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if authorsRe.MatchString(trimmed) || numericMarkerRe.MatchString(line) {
			starts++
		}
	}
	return starts > 1
}

func splitHangingIndent(text string) []string {
	var refs []string
	var current strings.Builder

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if isNewReferenceStart(line) && current.Len() > 0 {
			refs = append(refs, strings.TrimSpace(current.String()))
			current.Reset()
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(line)
	}

	if current.Len() > 0 {
		refs = append(refs, strings.TrimSpace(current.String()))
	}
	return refs
}

func isNewReferenceStart(line string) bool {
	if numericMarkerRe.MatchString(line) {
		return true
	}
	if authorKeyMarkerRe.MatchString(line) {
		return true
	}
	if surnameCommaRe.MatchString(line) {
		return true
	}
	return authorsRe.MatchString(line) && yearRe.MatchString(line)
}

// parseSingleReference extracts all fields from one raw fragment. Field
// extraction is independent per field: a fragment with only a marker still
// yields a record.
func parseSingleReference(text string, index int) (refrecord.Record, bool) {
	if strings.TrimSpace(text) == "" {
		return refrecord.Record{}, false
	}

	return refrecord.Record{
		RawText: text,
		Marker:  extractMarker(text, index),
		Authors: extractAuthors(text),
		Title:   extractTitle(text),
		Year:    extractYear(text),
		Venue:   extractVenue(text),
		Volume:  extractVolume(text),
		Pages:   extractPages(text),
		DOI:     extractDOI(text),
		URL:     extractURL(text),
	}, true
}

// extractMarker derives the citable label: leading bracketed numeric,
// leading dotted numeric, leading author-key, a synthesized
// "(Author Year)", or the positional index as a last resort.
func extractMarker(text string, index int) string {
	if m := leadingBracketedNumRe.FindStringSubmatch(text); m != nil {
		return "[" + m[1] + "]"
	}
	if m := leadingDottedNumRe.FindStringSubmatch(text); m != nil {
		return "[" + m[1] + "]"
	}
	if m := authorKeyMarkerRe.FindStringSubmatch(text); m != nil {
		return "[" + m[1] + "]"
	}

	authors := extractAuthors(text)
	year := extractYear(text)
	if a, ok := authors.Get(); ok {
		if y, ok := year.Get(); ok {
			if first := refrecord.FirstAuthorLastName(a); first != "" {
				return "(" + first + " " + y + ")"
			}
		}
	}

	return "[" + strconv.Itoa(index) + "]"
}

func extractAuthors(text string) refrecord.Opt {
	cleaned := stripLeadingMarker(text)

	m := authorsRe.FindStringSubmatch(cleaned)
	if m == nil {
		return refrecord.None()
	}
	authors := strings.TrimSpace(m[1])
	if len(authors) <= 2 || len(authors) >= 500 {
		return refrecord.None()
	}
	return refrecord.Some(normalizeAuthors(authors))
}

func normalizeAuthors(authors string) string {
	authors = spaceRunRe.ReplaceAllString(authors, " ")
	authors = ampersandRe.ReplaceAllString(authors, " and ")
	return strings.TrimSpace(authors)
}

// extractTitle prefers quoted titles; otherwise it takes the text between
// the end of the author list and the first real sentence-ending period.
func extractTitle(text string) refrecord.Opt {
	if m := quotedTitleRe.FindStringSubmatch(text); m != nil {
		title := strings.TrimSpace(m[1])
		if isValidTitle(title) {
			return refrecord.Some(title)
		}
	}

	cleaned := stripLeadingMarker(text)
	if loc := authorsRe.FindStringIndex(cleaned); loc != nil {
		cleaned = strings.TrimSpace(cleaned[loc[1]:])
	}
	cleaned = leadingPunctRe.ReplaceAllString(cleaned, "")
	cleaned = leadingParenYearRe.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	end := findTitleEnd(cleaned)
	if end <= 0 {
		return refrecord.None()
	}
	title := strings.TrimSpace(cleaned[:end])
	if !isValidTitle(title) {
		return refrecord.None()
	}
	return refrecord.Some(title)
}

// findTitleEnd returns the index of the first period that terminates the
// title. A period does not terminate when it follows a single uppercase
// initial, when it follows one of the abbreviation stems vol/fig/etc/al/
// no/pp, or when it sits inside parentheses.
func findTitleEnd(text string) int {
	inParens := false
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '(':
			inParens = true
		case ')':
			inParens = false
		case '.':
			if inParens {
				continue
			}
			if i > 0 && i < len(text)-1 {
				prev := rune(text[i-1])
				next := text[i+1]
				if prev >= 'A' && prev <= 'Z' && isWhitespace(next) {
					continue
				}
				before := strings.ToLower(text[max(0, i-4):i])
				if hasAbbrevStem(before) {
					continue
				}
			}
			return i
		}
	}
	return -1
}

var abbrevStems = []string{"vol", "fig", "etc", "al", "no", "pp"}

func hasAbbrevStem(before string) bool {
	for _, stem := range abbrevStems {
		if strings.HasSuffix(before, stem) {
			return true
		}
	}
	return false
}

func isValidTitle(title string) bool {
	if len(title) < 10 || len(title) > 500 {
		return false
	}
	first := title[0]
	if !(first >= 'A' && first <= 'Z') && !(first >= '0' && first <= '9') {
		return false
	}
	return strings.ContainsFunc(title, func(r rune) bool { return r >= 'a' && r <= 'z' })
}

// extractYear returns the last plausible 4-digit year in the fragment. The
// publication year conventionally trails edition and access years, so the
// last occurrence wins.
func extractYear(text string) refrecord.Opt {
	var last string
	for _, m := range yearRe.FindAllStringSubmatch(text, -1) {
		year, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if year >= 1900 && year <= 2030 {
			last = m[1]
		}
	}
	if last == "" {
		return refrecord.None()
	}
	return refrecord.Some(last)
}

func extractVenue(text string) refrecord.Opt {
	if m := venueKeywordRe.FindStringSubmatch(text); m != nil {
		venue := strings.TrimSpace(m[1])
		venue = leadingInRe.ReplaceAllString(venue, "")
		venue = leadingProceedingsRe.ReplaceAllString(venue, "")
		venue = strings.TrimSpace(venue)
		if len(venue) > 3 {
			return refrecord.Some(venue)
		}
	}

	// Abbreviated proceedings: "In Proc. ICML, 2019".
	if m := venueProcRe.FindStringSubmatch(text); m != nil {
		venue := strings.TrimSpace(m[1])
		if len(venue) > 3 {
			return refrecord.Some(venue)
		}
	}

	// Fallback: emphasis-marked venue names.
	if m := italicsRe.FindStringSubmatch(text); m != nil {
		venue := strings.TrimSpace(m[1])
		if len(venue) > 5 && !strings.Contains(venue, ".") {
			return refrecord.Some(venue)
		}
	}

	return refrecord.None()
}

func extractVolume(text string) refrecord.Opt {
	if m := volumePagesRe.FindStringSubmatch(text); m != nil {
		return refrecord.Some(m[1])
	}
	if m := volumeRe.FindStringSubmatch(text); m != nil {
		return refrecord.Some(m[1])
	}
	return refrecord.None()
}

func extractPages(text string) refrecord.Opt {
	if m := volumePagesRe.FindStringSubmatch(text); m != nil && m[2] != "" {
		return refrecord.Some(normalizePages(m[2]))
	}
	if m := pagesRe.FindStringSubmatch(text); m != nil {
		return refrecord.Some(normalizePages(m[1]))
	}
	return refrecord.None()
}

// normalizePages maps en/em dashes to ASCII hyphen and strips whitespace.
func normalizePages(pages string) string {
	pages = strings.ReplaceAll(pages, "–", "-")
	pages = strings.ReplaceAll(pages, "—", "-")
	return spaceRunRe.ReplaceAllString(pages, "")
}

func extractDOI(text string) refrecord.Opt {
	m := doiRe.FindStringSubmatch(text)
	if m == nil {
		return refrecord.None()
	}
	doi := strings.TrimSpace(m[1])
	doi = trailingPunctRe.ReplaceAllString(doi, "")
	return refrecord.Some(doi)
}

// extractURL yields a URL only when the fragment has no DOI, so a
// DOI-as-URL is never counted twice.
func extractURL(text string) refrecord.Opt {
	if extractDOI(text).Present() {
		return refrecord.None()
	}
	m := urlRe.FindStringSubmatch(text)
	if m == nil {
		return refrecord.None()
	}
	url := strings.TrimSpace(m[1])
	url = trailingPunctRe.ReplaceAllString(url, "")
	return refrecord.Some(url)
}

func stripLeadingMarker(text string) string {
	text = leadingBracketedNumStripRe.ReplaceAllString(text, "")
	text = leadingDottedNumStripRe.ReplaceAllString(text, "")
	text = leadingAuthorKeyStripRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
