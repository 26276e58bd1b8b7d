package refparse

import "regexp"

// Marker shapes used for format detection and splitting.
var (
	numericBracketedRe = regexp.MustCompile(`\[\d{1,3}\]`)
	numericDottedRe    = regexp.MustCompile(`(?m)^\d{1,3}\.\s`)
	authorKeyRe        = regexp.MustCompile(`\[[A-Z][a-zA-Z]+\d{2,4}[a-z]?\]`)
)

// Section normalization.
var (
	leadingLineSpaceRe = regexp.MustCompile(`(?m)^[ \t]+`)
	manyNewlinesRe     = regexp.MustCompile(`\n{3,}`)
	blankLineRe        = regexp.MustCompile(`\n[ \t]*\n`)
)

// Reference-start detection for hanging-indent splitting.
var (
	numericMarkerRe   = regexp.MustCompile(`^\s*\[?(\d{1,3})\]?\.?\s+`)
	authorKeyMarkerRe = regexp.MustCompile(`^\s*\[([A-Z][a-zA-Z]+\d{2,4}[a-z]?)\]`)
	surnameCommaRe    = regexp.MustCompile(`^[A-Z][a-z]+,`)
)

// Leading-marker extraction and stripping.
var (
	leadingBracketedNumRe      = regexp.MustCompile(`^\s*\[(\d{1,3})\]`)
	leadingDottedNumRe         = regexp.MustCompile(`^\s*(\d{1,3})\.\s`)
	leadingBracketedNumStripRe = regexp.MustCompile(`^\s*\[\d{1,3}\]\s*`)
	leadingDottedNumStripRe    = regexp.MustCompile(`^\s*\d{1,3}\.\s*`)
	leadingAuthorKeyStripRe    = regexp.MustCompile(`^\s*\[[A-Z][a-zA-Z]+\d{2,4}[a-z]?\]\s*`)
)

// authorName matches one author: optional leading initials ("J. "),
// a capitalized surname, then optional trailing initials (", J. K.").
const authorName = `(?:[A-Z]\.\s*)*[A-Z][a-zA-Z'\-]+(?:,\s*[A-Z]\.(?:\s*[A-Z]\.)*)?`

// Field extraction patterns.
var (
	authorsRe = regexp.MustCompile(
		`^(` + authorName + `(?:(?:\s*,\s*|\s+and\s+|\s*&\s*)` + authorName + `)*(?:\s+et\s+al\.?)?)`)

	quotedTitleRe      = regexp.MustCompile(`["\x{201C}\x{201D}]([^"\x{201C}\x{201D}]+)["\x{201C}\x{201D}]`)
	leadingPunctRe     = regexp.MustCompile(`^[.,;:]\s*`)
	leadingParenYearRe = regexp.MustCompile(`^\(\d{4}[a-z]?\)\.?\s*`)

	yearRe = regexp.MustCompile(`\b((?:19|20)\d{2})[a-z]?\b`)

	venueKeywordRe = regexp.MustCompile(
		`(?i)(?:In\s+)?(?:Proceedings\s+of\s+(?:the\s+)?)?([A-Z][^,.]+(?:Journal|Conference|Symposium|Workshop|Transactions|Letters|Review|Magazine)[^,.]*)`)
	venueProcRe = regexp.MustCompile(
		`(?:^|\s)In\s+((?:Proc\.?|Proceedings)(?:\s+of)?(?:\s+the)?\s+[A-Z][A-Za-z0-9&\-. ]*?)\s*[,;]`)
	leadingInRe          = regexp.MustCompile(`^In\s+`)
	leadingProceedingsRe = regexp.MustCompile(`(?i)^Proceedings\s+of\s+(the\s+)?`)
	italicsRe            = regexp.MustCompile(`[*_]([^*_]+)[*_]`)

	volumePagesRe = regexp.MustCompile(
		`(?i)vol(?:ume)?\.?\s*(\d+)(?:\s*\(\d+\))?\s*[,:;]?\s*(?:pp?\.?|pages?)\s*(\d+(?:\s*[-\x{2013}\x{2014}]\s*\d+)?)`)
	pagesRe  = regexp.MustCompile(`(?i)(?:pp?\.?|pages?)\s*(\d+(?:\s*[-\x{2013}\x{2014}]\s*\d+)?)`)
	volumeRe = regexp.MustCompile(`(?i)(?:vol\.?|volume)\s*(\d+)`)

	doiRe = regexp.MustCompile(
		`(?i)(?:doi:|https?://doi\.org/|https?://dx\.doi\.org/)?(10\.\d{4,}/[^\s,;"'<>]+)`)
	urlRe           = regexp.MustCompile(`(?i)(https?://[^\s,;"'<>\])]+)`)
	trailingPunctRe = regexp.MustCompile(`[.,;:]+$`)

	spaceRunRe  = regexp.MustCompile(`\s+`)
	ampersandRe = regexp.MustCompile(`\s*&\s*`)
)
