package library

import (
	"fmt"
	"strings"

	"github.com/refmine/refmine/internal/entry"
)

// Memory is an in-process Collection. It is not safe for concurrent
// writers; callers serialize access per library, as the pipeline does.
type Memory struct {
	entries []*entry.Entry
	byKey   map[string]*entry.Entry
}

// NewMemory creates an empty in-memory collection.
func NewMemory() *Memory {
	return &Memory{byKey: make(map[string]*entry.Entry)}
}

// NewMemoryWith creates a collection seeded with the given entries.
func NewMemoryWith(entries ...*entry.Entry) (*Memory, error) {
	m := NewMemory()
	for _, e := range entries {
		if err := m.Insert(e); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// All returns the entries in insertion order.
func (m *Memory) All() ([]*entry.Entry, error) {
	return m.entries, nil
}

// ByCiteKey looks up an entry by exact citation key.
func (m *Memory) ByCiteKey(key string) (*entry.Entry, error) {
	return m.byKey[key], nil
}

// ByDOI looks up an entry by normalized DOI.
func (m *Memory) ByDOI(doi string) (*entry.Entry, error) {
	want := NormalizeDOI(doi)
	if want == "" {
		return nil, nil
	}
	for _, e := range m.entries {
		if NormalizeDOI(e.DOI) == want {
			return e, nil
		}
	}
	return nil, nil
}

// Insert adds a new entry, rejecting duplicate citation keys.
func (m *Memory) Insert(e *entry.Entry) error {
	if e == nil || e.CiteKey == "" {
		return fmt.Errorf("entry must have a citation key")
	}
	if _, exists := m.byKey[e.CiteKey]; exists {
		return fmt.Errorf("entry %q already exists", e.CiteKey)
	}
	m.entries = append(m.entries, e)
	m.byKey[e.CiteKey] = e
	return nil
}

// Update is a no-op for the in-memory collection: entries are shared
// pointers, so mutations are already visible.
func (m *Memory) Update(e *entry.Entry) error {
	if e == nil || e.CiteKey == "" {
		return fmt.Errorf("entry must have a citation key")
	}
	if _, exists := m.byKey[e.CiteKey]; !exists {
		return fmt.Errorf("entry %q not found", e.CiteKey)
	}
	return nil
}

// FindDuplicate matches the candidate's fingerprint against the
// collection, with a case-insensitive exact-title fallback.
func (m *Memory) FindDuplicate(candidate *entry.Entry) (*entry.Entry, error) {
	if candidate == nil {
		return nil, nil
	}
	want := Fingerprint(candidate)
	for _, e := range m.entries {
		if want != "" && Fingerprint(e) == want {
			return e, nil
		}
		if candidate.Title != "" && strings.EqualFold(e.Title, candidate.Title) {
			return e, nil
		}
	}
	return nil, nil
}
