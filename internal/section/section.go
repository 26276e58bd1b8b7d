// Package section splits a document's full text into named sections and
// identifies which of them hold references and citation-bearing prose.
package section

import (
	"regexp"
	"strings"
)

// Section is one named slice of a document.
type Section struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Document is the unit the pipeline consumes: ordered sections plus the
// full text they were cut from.
type Document struct {
	Sections []Section `json:"sections"`
	FullText string    `json:"full_text"`
}

// headingRe matches a standalone section heading line, optionally
// numbered ("7. References", "2 Related Work").
var headingRe = regexp.MustCompile(`(?i)^\s*(?:[0-9]+[.)]?\s+|[IVX]+\.\s+)?` +
	`(abstract|introduction|background|related works?|methods?|methodology|` +
	`materials and methods|experiments?|evaluation|results|discussion|` +
	`conclusions?|acknowledg(?:e)?ments?|references|bibliography|` +
	`literature cited|works cited|appendix(?:\s+[A-Z])?)\s*$`)

// maxHeadingLen guards against prose lines that happen to start with a
// section word.
const maxHeadingLen = 60

// Split cuts full text into sections at recognized heading lines. Text
// before the first heading becomes the "body" section. A text with no
// headings yields a single "body" section.
func Split(fullText string) Document {
	doc := Document{FullText: fullText}

	lines := strings.Split(fullText, "\n")
	name := "body"
	var buf []string

	flush := func() {
		text := strings.TrimSpace(strings.Join(buf, "\n"))
		if text != "" {
			doc.Sections = append(doc.Sections, Section{Name: name, Text: text})
		}
		buf = buf[:0]
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) <= maxHeadingLen {
			if m := headingRe.FindStringSubmatch(trimmed); m != nil {
				flush()
				name = strings.ToLower(m[1])
				continue
			}
		}
		buf = append(buf, line)
	}
	flush()

	return doc
}

var referencesNameRe = regexp.MustCompile(`(?i)references|bibliography|literature cited|works cited`)

// IsReferencesSection reports whether a section name denotes the
// references/bibliography section.
func IsReferencesSection(name string) bool {
	return referencesNameRe.MatchString(name)
}

var nonCitingNameRe = regexp.MustCompile(`(?i)references|bibliography|literature cited|works cited|appendix|acknowledg`)

// ReferencesSection returns the references section, if one was found.
func (d Document) ReferencesSection() (Section, bool) {
	for _, s := range d.Sections {
		if IsReferencesSection(s.Name) {
			return s, true
		}
	}
	return Section{}, false
}

// CitingSections returns the body sections citation markers should be
// scanned in: everything except references, appendices, and
// acknowledgments. When no sections were recognized at all, the full text
// is scanned.
func (d Document) CitingSections() []Section {
	var citing []Section
	for _, s := range d.Sections {
		if !nonCitingNameRe.MatchString(s.Name) {
			citing = append(citing, s)
		}
	}
	if len(citing) == 0 && strings.TrimSpace(d.FullText) != "" {
		return []Section{{Name: "body", Text: d.FullText}}
	}
	return citing
}
