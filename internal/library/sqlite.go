package library

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/refmine/refmine/internal/entry"
)

// Store is a SQLite-backed Collection.
type Store struct {
	db *sql.DB
}

const selectEntryFields = `cite_key, doi, title, authors, year, venue,
	volume, pages, url, comments_json`

// Open opens or creates a SQLite library at the given path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening library: %w", err)
	}

	// SQLite doesn't support concurrent writes.
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS entries (
			cite_key TEXT PRIMARY KEY,
			doi TEXT,
			title TEXT,
			authors TEXT,
			year TEXT,
			venue TEXT,
			volume TEXT,
			pages TEXT,
			url TEXT,
			comments_json TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_entries_doi
			ON entries(doi) WHERE doi IS NOT NULL AND doi != '';
	`
	_, err := db.Exec(schema)
	return err
}

// All enumerates every entry in citation-key order.
func (s *Store) All() ([]*entry.Entry, error) {
	rows, err := s.db.Query(
		"SELECT " + selectEntryFields + " FROM entries ORDER BY cite_key")
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	var entries []*entry.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ByCiteKey looks up an entry by exact citation key.
func (s *Store) ByCiteKey(key string) (*entry.Entry, error) {
	row := s.db.QueryRow(
		"SELECT "+selectEntryFields+" FROM entries WHERE cite_key = ?", key)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up entry %q: %w", key, err)
	}
	return e, nil
}

// ByDOI looks up an entry by normalized DOI.
func (s *Store) ByDOI(doi string) (*entry.Entry, error) {
	want := NormalizeDOI(doi)
	if want == "" {
		return nil, nil
	}

	// DOIs are stored as written; normalize on the way out.
	entries, err := s.All()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if NormalizeDOI(e.DOI) == want {
			return e, nil
		}
	}
	return nil, nil
}

// Insert adds a new entry, rejecting duplicate citation keys.
func (s *Store) Insert(e *entry.Entry) error {
	if e == nil || e.CiteKey == "" {
		return fmt.Errorf("entry must have a citation key")
	}

	existing, err := s.ByCiteKey(e.CiteKey)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("entry %q already exists", e.CiteKey)
	}

	comments, err := marshalComments(e.Comments)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO entries (`+selectEntryFields+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.CiteKey, e.DOI, e.Title, e.Authors, e.Year, e.Venue,
		e.Volume, e.Pages, e.URL, comments)
	if err != nil {
		return fmt.Errorf("inserting entry %q: %w", e.CiteKey, err)
	}
	return nil
}

// Update rewrites an existing entry's fields.
func (s *Store) Update(e *entry.Entry) error {
	if e == nil || e.CiteKey == "" {
		return fmt.Errorf("entry must have a citation key")
	}

	comments, err := marshalComments(e.Comments)
	if err != nil {
		return err
	}

	res, err := s.db.Exec(`
		UPDATE entries SET doi = ?, title = ?, authors = ?, year = ?,
			venue = ?, volume = ?, pages = ?, url = ?, comments_json = ?
		WHERE cite_key = ?`,
		e.DOI, e.Title, e.Authors, e.Year, e.Venue,
		e.Volume, e.Pages, e.URL, comments, e.CiteKey)
	if err != nil {
		return fmt.Errorf("updating entry %q: %w", e.CiteKey, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("entry %q not found", e.CiteKey)
	}
	return nil
}

// FindDuplicate matches the candidate's fingerprint against the store.
func (s *Store) FindDuplicate(candidate *entry.Entry) (*entry.Entry, error) {
	if candidate == nil {
		return nil, nil
	}
	want := Fingerprint(candidate)
	if want == "" {
		return nil, nil
	}

	entries, err := s.All()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if Fingerprint(e) == want {
			return e, nil
		}
	}
	return nil, nil
}

// scanner abstracts sql.Row and sql.Rows for scanEntry.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*entry.Entry, error) {
	var e entry.Entry
	var doi, title, authors, year, venue, volume, pages, url, comments sql.NullString

	err := row.Scan(&e.CiteKey, &doi, &title, &authors, &year,
		&venue, &volume, &pages, &url, &comments)
	if err != nil {
		return nil, err
	}

	e.DOI = doi.String
	e.Title = title.String
	e.Authors = authors.String
	e.Year = year.String
	e.Venue = venue.String
	e.Volume = volume.String
	e.Pages = pages.String
	e.URL = url.String

	if comments.String != "" {
		if err := json.Unmarshal([]byte(comments.String), &e.Comments); err != nil {
			return nil, fmt.Errorf("parsing comments for %q: %w", e.CiteKey, err)
		}
	}
	return &e, nil
}

func marshalComments(comments map[string]string) (string, error) {
	if len(comments) == 0 {
		return "", nil
	}
	data, err := json.Marshal(comments)
	if err != nil {
		return "", fmt.Errorf("encoding comments: %w", err)
	}
	return string(data), nil
}
