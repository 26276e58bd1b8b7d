// Package refrecord defines the parsed reference record produced from a
// references/bibliography section.
package refrecord

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Opt is an optional string field. The zero value is absent.
type Opt struct {
	value   string
	present bool
}

// Some returns an Opt holding the given value.
func Some(value string) Opt {
	return Opt{value: value, present: true}
}

// None returns an absent Opt.
func None() Opt {
	return Opt{}
}

// Get returns the value and whether it is present.
func (o Opt) Get() (string, bool) {
	return o.value, o.present
}

// Present reports whether a value is set.
func (o Opt) Present() bool {
	return o.present
}

// OrEmpty returns the value, or "" when absent.
func (o Opt) OrEmpty() string {
	return o.value
}

// MarshalJSON renders a present value as a string and an absent one as
// null.
func (o Opt) MarshalJSON() ([]byte, error) {
	if !o.present {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON accepts a string or null.
func (o *Opt) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = Opt{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*o = Some(s)
	return nil
}

// Record is one parsed bibliography entry. RawText and Marker are always
// set; everything else is optional. A record with only RawText and Marker
// is still valid; consumers must tolerate absent fields.
type Record struct {
	RawText string `json:"raw_text"`
	Marker  string `json:"marker"`
	Authors Opt    `json:"authors"`
	Title   Opt    `json:"title"`
	Year    Opt    `json:"year"`
	Venue   Opt    `json:"venue"`
	Volume  Opt    `json:"volume"`
	Pages   Opt    `json:"pages"`
	DOI     Opt    `json:"doi"`
	URL     Opt    `json:"url"`
}

var (
	etAlRe      = regexp.MustCompile(`\s+et\s+al\.?`)
	andTailRe   = regexp.MustCompile(`\s+and\s+.*`)
	ampTailRe   = regexp.MustCompile(`\s*&\s*.*`)
	nonLetterRe = regexp.MustCompile(`[^a-zA-Z]`)
)

// FirstAuthorLastName extracts the last name of the first author from a
// free-form author list such as "Smith, J., and Doe, A." or
// "J. Smith and A. Doe".
func FirstAuthorLastName(authors string) string {
	cleaned := etAlRe.ReplaceAllString(authors, "")
	cleaned = andTailRe.ReplaceAllString(cleaned, "")
	cleaned = ampTailRe.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	if idx := strings.Index(cleaned, ","); idx >= 0 {
		return strings.TrimSpace(cleaned[:idx])
	}

	parts := strings.Fields(cleaned)
	if len(parts) > 0 {
		return nonLetterRe.ReplaceAllString(parts[len(parts)-1], "")
	}

	return cleaned
}
