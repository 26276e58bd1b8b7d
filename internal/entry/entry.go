// Package entry defines the library entry domain type and citation key
// generation.
package entry

import (
	"regexp"
	"strings"

	"github.com/refmine/refmine/internal/refrecord"
)

// Entry represents one bibliographic entry in the library.
type Entry struct {
	// Identity
	CiteKey string `json:"cite_key"` // Stable identifier (lookup key)
	DOI     string `json:"doi,omitempty"`

	// Metadata
	Title   string `json:"title,omitempty"`
	Authors string `json:"authors,omitempty"` // Free-form author list
	Year    string `json:"year,omitempty"`
	Venue   string `json:"venue,omitempty"`
	Volume  string `json:"volume,omitempty"`
	Pages   string `json:"pages,omitempty"`
	URL     string `json:"url,omitempty"`

	// Per-user annotation fields, keyed by owner username.
	Comments map[string]string `json:"comments,omitempty"`
}

// Comment returns the annotation field owned by the given user.
func (e *Entry) Comment(owner string) string {
	return e.Comments[owner]
}

// SetComment replaces the annotation field owned by the given user. An
// empty value removes the field.
func (e *Entry) SetComment(owner, value string) {
	if value == "" {
		if e.Comments != nil {
			delete(e.Comments, owner)
		}
		return
	}
	if e.Comments == nil {
		e.Comments = make(map[string]string)
	}
	e.Comments[owner] = value
}

// FirstAuthorLastName returns the last name of the entry's first author.
func (e *Entry) FirstAuthorLastName() string {
	return refrecord.FirstAuthorLastName(e.Authors)
}

var (
	keyCleanRe = regexp.MustCompile(`[^A-Za-z0-9]`)
	wordRe     = regexp.MustCompile(`[A-Za-z][A-Za-z'\-]*`)
)

// stopwords are skipped when picking the title word for a citation key.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "on": true, "of": true,
	"in": true, "for": true, "to": true, "and": true, "with": true,
	"towards": true, "toward": true,
}

// CiteKey deterministically derives a citation key from author, year, and
// title: first author's last name, the year, and the first significant
// title word, e.g. "Smith2019Deep". Missing parts are simply omitted; an
// entirely empty input yields "".
func CiteKey(authors, year, title string) string {
	var b strings.Builder

	if last := refrecord.FirstAuthorLastName(authors); last != "" {
		b.WriteString(keyCleanRe.ReplaceAllString(last, ""))
	}
	b.WriteString(keyCleanRe.ReplaceAllString(year, ""))
	if word := significantTitleWord(title); word != "" {
		b.WriteString(strings.ToUpper(word[:1]))
		b.WriteString(strings.ToLower(word[1:]))
	}

	return b.String()
}

func significantTitleWord(title string) string {
	for _, word := range wordRe.FindAllString(title, -1) {
		if !stopwords[strings.ToLower(word)] {
			return word
		}
	}
	return ""
}

// FromRecord synthesizes a library entry from a parsed reference record.
// The entry is not persisted anywhere; callers decide whether to insert it.
func FromRecord(rec refrecord.Record) *Entry {
	e := &Entry{
		Title:   rec.Title.OrEmpty(),
		Authors: rec.Authors.OrEmpty(),
		Year:    rec.Year.OrEmpty(),
		Venue:   rec.Venue.OrEmpty(),
		Volume:  rec.Volume.OrEmpty(),
		Pages:   rec.Pages.OrEmpty(),
		DOI:     rec.DOI.OrEmpty(),
		URL:     rec.URL.OrEmpty(),
	}

	e.CiteKey = CiteKey(e.Authors, e.Year, e.Title)
	if e.CiteKey == "" {
		// No usable metadata: fall back to the marker, unless it is a
		// positional numeric label.
		marker := keyCleanRe.ReplaceAllString(rec.Marker, "")
		if marker != "" && !isAllDigits(marker) {
			e.CiteKey = marker
		} else {
			e.CiteKey = "unknown" + marker
		}
	}

	return e
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
