package export

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/refmine/refmine/internal/entry"
	"github.com/refmine/refmine/internal/library"
)

// BibFileIndex records which entries a .bib file already contains, so
// exports into an existing file never duplicate a work.
type BibFileIndex struct {
	keys map[string]bool
	dois map[string]string // normalized DOI -> citation key
}

var (
	bibEntryStartRe = regexp.MustCompile(`@\w+\{([^,]+),`)
	bibDOIFieldRe   = regexp.MustCompile(`(?i)^\s*doi\s*=\s*[\{"]([^\}"]+)[\}"]`)
)

// IndexBibFile scans an existing .bib file for citation keys and DOIs. A
// missing file yields an empty index.
func IndexBibFile(path string) (*BibFileIndex, error) {
	idx := &BibFileIndex{
		keys: make(map[string]bool),
		dois: make(map[string]string),
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var currentKey string
	for scanner.Scan() {
		line := scanner.Text()

		if m := bibEntryStartRe.FindStringSubmatch(line); m != nil {
			currentKey = strings.TrimSpace(m[1])
			idx.keys[currentKey] = true
		}
		if m := bibDOIFieldRe.FindStringSubmatch(line); m != nil {
			if doi := library.NormalizeDOI(m[1]); doi != "" && currentKey != "" {
				idx.dois[doi] = currentKey
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return idx, nil
}

// Has reports whether the file already holds the entry, by DOI when the
// entry carries one, by citation key otherwise.
func (idx *BibFileIndex) Has(e *entry.Entry) bool {
	if e.DOI != "" {
		if _, ok := idx.dois[library.NormalizeDOI(e.DOI)]; ok {
			return true
		}
	}
	return idx.keys[e.CiteKey]
}

// AppendMissing appends the entries the .bib file does not yet hold and
// returns how many were written.
func AppendMissing(path string, entries []*entry.Entry) (int, error) {
	idx, err := IndexBibFile(path)
	if err != nil {
		return 0, err
	}

	var missing []*entry.Entry
	for _, e := range entries {
		if !idx.Has(e) {
			missing = append(missing, e)
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	if _, err := file.WriteString("\n" + ToBibTeXList(missing)); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	return len(missing), nil
}
