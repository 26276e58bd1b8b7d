// Package match joins in-text citation markers to parsed reference
// records. Matching is a priority cascade: each stage either decides or
// passes to the next, and the first success wins; stages are never
// combined into an ensemble.
package match

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/refmine/refmine/internal/refrecord"
)

// Strategy identifies which cascade stage produced a match.
type Strategy string

const (
	StrategyExact      Strategy = "exact"
	StrategyNumeric    Strategy = "numeric"
	StrategyAuthorYear Strategy = "author_year"
	StrategyAuthorKey  Strategy = "author_key"
	StrategyFuzzy      Strategy = "fuzzy"
)

// Scoring constants. The cascade's behavior is calibrated around these
// values; see DESIGN.md before changing any of them.
const (
	exactConfidence      = 1.0
	numericConfidence    = 0.95
	yearExactScore       = 0.4
	yearSuffixScore      = 0.2
	authorSimWeight      = 0.6
	markerSimWeight      = 0.4
	authorSimGate        = 0.7
	fuzzyThreshold       = 0.6
	fuzzyMarkerSimWeight = 0.8
)

// Result is the outcome of matching one marker against the record list.
// Confidence bands: >=0.8 high, [0.5, 0.8) medium, below low.
type Result struct {
	Record     refrecord.Record
	Confidence float64
	Strategy   Strategy
}

// Matcher matches citation markers to reference records.
type Matcher struct{}

// NewMatcher creates a Matcher.
func NewMatcher() *Matcher {
	return &Matcher{}
}

type stage func(marker string, records []refrecord.Record) (Result, bool)

// Match finds the best record for a single marker. Returns false when no
// stage produces a match, an expected outcome rather than an error.
func (m *Matcher) Match(marker string, records []refrecord.Record) (Result, bool) {
	if strings.TrimSpace(marker) == "" || len(records) == 0 {
		return Result{}, false
	}

	stages := []stage{
		matchExact,
		matchNumeric,
		matchAuthorYear,
		matchAuthorKey,
		matchFuzzy,
	}
	for _, s := range stages {
		if result, ok := s(marker, records); ok {
			return result, true
		}
	}
	return Result{}, false
}

// MatchMultiple expands list markers ("[3, 7]") and range markers ("[3-5]")
// and matches each element independently, concatenating the results in
// element order. Unmatched elements are dropped.
func (m *Matcher) MatchMultiple(marker string, records []refrecord.Record) []Result {
	var results []Result
	for _, element := range ExpandMarker(marker) {
		if result, ok := m.Match(element, records); ok {
			results = append(results, result)
		}
	}
	return results
}

var (
	rangeRe = regexp.MustCompile(`^(\d{1,3})\s*[-\x{2013}]\s*(\d{1,3})$`)
	listRe  = regexp.MustCompile(`^\d{1,3}(?:\s*,\s*\d{1,3})+$`)
)

// ExpandMarker turns a list or range marker into its elements. A plain
// marker expands to itself.
func ExpandMarker(marker string) []string {
	inner := NormalizeMarker(marker)

	if m := rangeRe.FindStringSubmatch(inner); m != nil {
		lo, _ := strconv.Atoi(m[1])
		hi, _ := strconv.Atoi(m[2])
		if lo > hi {
			return []string{marker}
		}
		var elements []string
		for n := lo; n <= hi; n++ {
			elements = append(elements, strconv.Itoa(n))
		}
		return elements
	}

	if listRe.MatchString(inner) {
		parts := strings.Split(inner, ",")
		elements := make([]string, 0, len(parts))
		for _, part := range parts {
			elements = append(elements, strings.TrimSpace(part))
		}
		return elements
	}

	return []string{marker}
}

// NormalizeMarker strips bracket/brace/paren characters, collapses
// whitespace, and lowercases nothing; case folding happens at comparison
// time so author keys keep their shape for parsing.
func NormalizeMarker(marker string) string {
	stripped := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', '(', ')', '{', '}':
			return -1
		}
		return r
	}, marker)
	return strings.Join(strings.Fields(stripped), " ")
}

func normalizedEqual(a, b string) bool {
	return strings.EqualFold(NormalizeMarker(a), NormalizeMarker(b))
}

// matchExact compares normalized markers for case-insensitive equality.
func matchExact(marker string, records []refrecord.Record) (Result, bool) {
	for _, rec := range records {
		if normalizedEqual(marker, rec.Marker) {
			return Result{Record: rec, Confidence: exactConfidence, Strategy: StrategyExact}, true
		}
	}
	return Result{}, false
}

// matchNumeric treats a purely numeric marker as a 1-based index into the
// record sequence, falling back to a linear scan over numeric markers.
func matchNumeric(marker string, records []refrecord.Record) (Result, bool) {
	norm := NormalizeMarker(marker)
	value, err := strconv.Atoi(norm)
	if err != nil {
		return Result{}, false
	}

	if value >= 1 && value <= len(records) {
		candidate := records[value-1]
		if n, ok := numericMarkerValue(candidate.Marker); ok && n == value {
			return Result{Record: candidate, Confidence: numericConfidence, Strategy: StrategyNumeric}, true
		}
	}

	for _, rec := range records {
		if n, ok := numericMarkerValue(rec.Marker); ok && n == value {
			return Result{Record: rec, Confidence: numericConfidence, Strategy: StrategyNumeric}, true
		}
	}
	return Result{}, false
}

func numericMarkerValue(marker string) (int, bool) {
	n, err := strconv.Atoi(NormalizeMarker(marker))
	if err != nil {
		return 0, false
	}
	return n, true
}

// matchAuthorYear parses the marker as "(Author Year)" and scores every
// gated candidate, picking the maximum.
func matchAuthorYear(marker string, records []refrecord.Record) (Result, bool) {
	author, year, ok := ParseAuthorYear(marker)
	if !ok {
		return Result{}, false
	}
	return bestAuthorYear(author, year, records, StrategyAuthorYear)
}

// matchAuthorKey parses markers like "[Smith99]", expands the 2-digit year
// suffix to 4 digits, and reuses the author-year scoring.
func matchAuthorKey(marker string, records []refrecord.Record) (Result, bool) {
	author, year, ok := ParseAuthorKey(marker)
	if !ok {
		return Result{}, false
	}
	return bestAuthorYear(author, year, records, StrategyAuthorKey)
}

func bestAuthorYear(author, year string, records []refrecord.Record, strategy Strategy) (Result, bool) {
	best := Result{Strategy: strategy}
	found := false
	for _, rec := range records {
		if !matchesAuthorAndYear(author, year, rec) {
			continue
		}
		score := authorYearScore(author, year, rec)
		if !found || score > best.Confidence {
			best = Result{Record: rec, Confidence: score, Strategy: strategy}
			found = true
		}
	}
	return best, found
}

// matchesAuthorAndYear is the boolean gate applied before scoring: the
// year must agree (exactly or in its last two digits) and the author must
// be plausibly present on the record.
func matchesAuthorAndYear(author, year string, rec refrecord.Record) bool {
	recYear, ok := rec.Year.Get()
	if !ok || !yearAgrees(year, recYear) {
		return false
	}

	lowerAuthor := strings.ToLower(author)
	if recAuthors, ok := rec.Authors.Get(); ok {
		if Similarity(lowerAuthor, strings.ToLower(refrecord.FirstAuthorLastName(recAuthors))) >= authorSimGate {
			return true
		}
		if strings.Contains(strings.ToLower(recAuthors), lowerAuthor) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(NormalizeMarker(rec.Marker)), lowerAuthor)
}

func yearAgrees(markerYear, recYear string) bool {
	if markerYear == recYear {
		return true
	}
	return len(markerYear) >= 2 && len(recYear) >= 2 &&
		markerYear[len(markerYear)-2:] == recYear[len(recYear)-2:]
}

// authorYearScore is the calibrated author-year formula: year agreement
// plus similarity between the marker author and the record's first author
// (or its marker, at reduced weight, when no authors were parsed).
func authorYearScore(author, year string, rec refrecord.Record) float64 {
	score := 0.0

	if recYear, ok := rec.Year.Get(); ok {
		if recYear == year {
			score += yearExactScore
		} else if yearAgrees(year, recYear) {
			score += yearSuffixScore
		}
	}

	lowerAuthor := strings.ToLower(author)
	if recAuthors, ok := rec.Authors.Get(); ok {
		sim := Similarity(lowerAuthor, strings.ToLower(refrecord.FirstAuthorLastName(recAuthors)))
		score += authorSimWeight * sim
	} else {
		sim := Similarity(lowerAuthor, strings.ToLower(NormalizeMarker(rec.Marker)))
		score += markerSimWeight * sim
	}

	return score
}

// matchFuzzy accepts the best combined score over all records when it
// clears the fuzzy threshold.
func matchFuzzy(marker string, records []refrecord.Record) (Result, bool) {
	best := Result{Strategy: StrategyFuzzy}
	found := false
	for _, rec := range records {
		score := CalculateMatchScore(marker, rec)
		if score > fuzzyThreshold && (!found || score > best.Confidence) {
			best = Result{Record: rec, Confidence: score, Strategy: StrategyFuzzy}
			found = true
		}
	}
	return best, found
}

// CalculateMatchScore is the combined diagnostic score: exact equality
// short-circuits at 1.0; otherwise the maximum of the author-year score,
// the author-key score, and discounted marker-string similarity.
func CalculateMatchScore(marker string, rec refrecord.Record) float64 {
	if normalizedEqual(marker, rec.Marker) {
		return 1.0
	}

	best := fuzzyMarkerSimWeight * Similarity(
		strings.ToLower(NormalizeMarker(marker)),
		strings.ToLower(NormalizeMarker(rec.Marker)))

	if author, year, ok := ParseAuthorYear(marker); ok {
		if score := authorYearScore(author, year, rec); score > best {
			best = score
		}
	}
	if author, year, ok := ParseAuthorKey(marker); ok {
		if score := authorYearScore(author, year, rec); score > best {
			best = score
		}
	}

	return best
}

var (
	authorYearRe = regexp.MustCompile(
		`^([A-Z][A-Za-z'\-]+)(?:(?:\s*,\s*|,?\s+and\s+|\s*&\s*)[A-Z][A-Za-z'\-]+)*(?:\s+et\s+al\.?)?\s*,?\s+((?:19|20)\d{2})[a-z]?$`)
	authorKeyParseRe = regexp.MustCompile(`^([A-Za-z]+?)(\d{2,4})[a-z]?$`)
)

// ParseAuthorYear extracts the leading author token and the year from an
// author-year marker such as "(Smith, 2019)" or "Smith et al. (2020)".
func ParseAuthorYear(marker string) (author, year string, ok bool) {
	m := authorYearRe.FindStringSubmatch(NormalizeMarker(marker))
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// ParseAuthorKey splits an author-key marker such as "Smith99" or
// "Abdul2021a" into its author and a four-digit year ("99" expands to
// "1999", low two-digit suffixes to "20xx").
func ParseAuthorKey(marker string) (author, year string, ok bool) {
	m := authorKeyParseRe.FindStringSubmatch(NormalizeMarker(marker))
	if m == nil {
		return "", "", false
	}

	author = m[1]
	year = m[2]
	if len(year) == 2 {
		if n, _ := strconv.Atoi(year); n > 50 {
			year = "19" + year
		} else {
			year = "20" + year
		}
	} else if len(year) == 3 {
		return "", "", false
	}
	return author, year, true
}
