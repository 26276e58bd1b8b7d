// Package library provides the bibliographic entry collection the resolver
// runs against: an in-memory collection and a SQLite-backed store.
package library

import (
	"strings"

	"github.com/refmine/refmine/internal/entry"
)

// Collection is the contract the resolver depends on. Lookups return
// (nil, nil) when no entry matches; errors are reserved for storage
// failures.
type Collection interface {
	// All enumerates every entry.
	All() ([]*entry.Entry, error)

	// ByCiteKey looks up an entry by its exact citation key.
	ByCiteKey(key string) (*entry.Entry, error)

	// ByDOI looks up an entry by normalized DOI.
	ByDOI(doi string) (*entry.Entry, error)

	// Insert adds a new entry. Duplicate citation keys are rejected.
	Insert(e *entry.Entry) error

	// Update persists changes to an existing entry.
	Update(e *entry.Entry) error

	// FindDuplicate returns an existing entry that looks like the same
	// work as the candidate, if any.
	FindDuplicate(candidate *entry.Entry) (*entry.Entry, error)
}

// NormalizeDOI lowercases a DOI and strips surrounding whitespace and any
// resolver URL prefix.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(strings.ToLower(doi))
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi:"} {
		doi = strings.TrimPrefix(doi, prefix)
	}
	return doi
}

// Fingerprint builds the duplicate-detection key for an entry: normalized
// first-author last name, year, and the first 30 characters of the
// normalized title. Entries with no usable metadata fingerprint to "".
func Fingerprint(e *entry.Entry) string {
	author := strings.ToLower(e.FirstAuthorLastName())
	title := strings.ToLower(strings.Join(strings.Fields(e.Title), " "))
	if len(title) > 30 {
		title = title[:30]
	}
	if author == "" && title == "" {
		return ""
	}
	return author + "|" + e.Year + "|" + title
}
