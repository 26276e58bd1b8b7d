// Package annotate persists matched citation contexts into a per-user
// comment field on a library entry. Contexts are stored as
// "[sourceKey]: context" blocks separated by blank lines; re-running
// extraction over the same document never duplicates a block.
package annotate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/refmine/refmine/internal/entry"
	"github.com/refmine/refmine/internal/match"
)

// blockSeparator joins stored blocks. Part of the persisted-state
// contract: parse→format→parse must round-trip unchanged for any label
// not containing ']' and any context not containing the separator.
const blockSeparator = "\n\n"

// duplicateSimilarity is the threshold above which a new context for the
// same source is considered a near-duplicate and skipped.
const duplicateSimilarity = 0.8

var blockPrefixRe = regexp.MustCompile(`(?m)^\[.+?\]:`)

// Block is one stored context, labelled with the citing document's key.
type Block struct {
	Label string
	Text  string
}

// Format renders the block in its serialized shape.
func (b Block) Format() string {
	return "[" + b.Label + "]: " + b.Text
}

// ParseBlocks splits a comment field into its blocks. Text that does not
// carry a "[label]:" prefix is kept as a block with an empty label so
// foreign content survives round-trips.
func ParseBlocks(field string) []Block {
	var blocks []Block
	for _, raw := range strings.Split(field, blockSeparator) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		label, text, ok := splitBlock(raw)
		if !ok {
			blocks = append(blocks, Block{Text: raw})
			continue
		}
		blocks = append(blocks, Block{Label: label, Text: text})
	}
	return blocks
}

func splitBlock(raw string) (label, text string, ok bool) {
	if !strings.HasPrefix(raw, "[") {
		return "", "", false
	}
	end := strings.Index(raw, "]:")
	if end < 1 {
		return "", "", false
	}
	return raw[1:end], strings.TrimSpace(raw[end+2:]), true
}

func joinBlocks(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.Label == "" {
			parts = append(parts, b.Text)
			continue
		}
		parts = append(parts, b.Format())
	}
	return strings.Join(parts, blockSeparator)
}

// Annotator reads and writes the comment field owned by one user.
type Annotator struct {
	owner string
}

// New creates an Annotator for the given owner username.
func New(owner string) (*Annotator, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, fmt.Errorf("owner username must not be blank")
	}
	return &Annotator{owner: owner}, nil
}

// Add appends a context block for the given source key to the entry's
// comment field. Insertion is skipped when an existing block for the same
// source holds a near-duplicate of the context; reports whether a block
// was written.
func (a *Annotator) Add(e *entry.Entry, sourceKey, contextText string) (bool, error) {
	if e == nil {
		return false, fmt.Errorf("entry must not be nil")
	}
	if strings.TrimSpace(sourceKey) == "" {
		return false, fmt.Errorf("source key must not be blank")
	}
	contextText = strings.TrimSpace(contextText)
	if contextText == "" {
		return false, fmt.Errorf("context text must not be blank")
	}

	field := e.Comment(a.owner)
	blocks := ParseBlocks(field)

	for _, b := range blocks {
		if b.Label != sourceKey {
			continue
		}
		if match.Similarity(normalizeForDedup(b.Text), normalizeForDedup(contextText)) >= duplicateSimilarity {
			return false, nil
		}
	}

	blocks = append(blocks, Block{Label: sourceKey, Text: contextText})
	e.SetComment(a.owner, joinBlocks(blocks))
	return true, nil
}

// RemoveSource deletes every block belonging to the given source key and
// returns how many were removed.
func (a *Annotator) RemoveSource(e *entry.Entry, sourceKey string) int {
	if e == nil || sourceKey == "" {
		return 0
	}

	blocks := ParseBlocks(e.Comment(a.owner))
	kept := blocks[:0]
	removed := 0
	for _, b := range blocks {
		if b.Label == sourceKey {
			removed++
			continue
		}
		kept = append(kept, b)
	}
	if removed > 0 {
		e.SetComment(a.owner, joinBlocks(kept))
	}
	return removed
}

// Clear empties the whole comment field.
func (a *Annotator) Clear(e *entry.Entry) {
	if e != nil {
		e.SetComment(a.owner, "")
	}
}

// Count returns the number of stored blocks, counted by their
// "[label]:" prefixes.
func (a *Annotator) Count(e *entry.Entry) int {
	if e == nil {
		return 0
	}
	return len(blockPrefixRe.FindAllString(e.Comment(a.owner), -1))
}

// ContextsFor returns the context texts stored for one source key, in
// insertion order.
func (a *Annotator) ContextsFor(e *entry.Entry, sourceKey string) []string {
	if e == nil {
		return nil
	}
	var texts []string
	for _, b := range ParseBlocks(e.Comment(a.owner)) {
		if b.Label == sourceKey {
			texts = append(texts, b.Text)
		}
	}
	return texts
}

// normalizeForDedup lowercases and collapses whitespace so that trivial
// case or spacing differences still count as duplicates.
func normalizeForDedup(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
