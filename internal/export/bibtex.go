// Package export renders library entries in export formats.
package export

import (
	"fmt"
	"strings"

	"github.com/refmine/refmine/internal/entry"
)

// ToBibTeX converts an entry to BibTeX format.
func ToBibTeX(e *entry.Entry) string {
	entryType := determineEntryType(e)
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@%s{%s,\n", entryType, e.CiteKey))

	if e.Authors != "" {
		b.WriteString(fmt.Sprintf("  author = {%s},\n", escapeLatex(e.Authors)))
	}

	b.WriteString(fmt.Sprintf("  title = {%s},\n", escapeLatex(e.Title)))

	if e.Venue != "" {
		fieldName := "journal"
		if entryType == "inproceedings" {
			fieldName = "booktitle"
		}
		b.WriteString(fmt.Sprintf("  %s = {%s},\n", fieldName, escapeLatex(e.Venue)))
	}

	if e.Year != "" {
		b.WriteString(fmt.Sprintf("  year = {%s},\n", e.Year))
	}

	if e.Volume != "" {
		b.WriteString(fmt.Sprintf("  volume = {%s},\n", e.Volume))
	}

	if e.Pages != "" {
		b.WriteString(fmt.Sprintf("  pages = {%s},\n", e.Pages))
	}

	if e.DOI != "" {
		b.WriteString(fmt.Sprintf("  doi = {%s},\n", e.DOI))
	}

	if e.URL != "" {
		b.WriteString(fmt.Sprintf("  url = {%s},\n", e.URL))
	}

	b.WriteString("}\n")

	return b.String()
}

// ToBibTeXList converts multiple entries to BibTeX format.
func ToBibTeXList(entries []*entry.Entry) string {
	var rendered []string
	for _, e := range entries {
		rendered = append(rendered, ToBibTeX(e))
	}
	return strings.Join(rendered, "\n")
}

// determineEntryType returns the BibTeX entry type for an entry.
func determineEntryType(e *entry.Entry) string {
	venue := strings.ToLower(e.Venue)

	// Preprints
	if strings.Contains(venue, "arxiv") ||
		strings.Contains(venue, "biorxiv") ||
		strings.Contains(venue, "medrxiv") {
		return "article"
	}

	// Conference proceedings
	if strings.Contains(venue, "proc") ||
		strings.Contains(venue, "conference") ||
		strings.Contains(venue, "workshop") ||
		strings.Contains(venue, "symposium") {
		return "inproceedings"
	}

	return "article"
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	// Order matters: & must be first (before other escapes that might produce &)
	replacer := strings.NewReplacer(
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
