package library

import (
	"path/filepath"
	"testing"

	"github.com/refmine/refmine/internal/entry"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreInsertAndLookup(t *testing.T) {
	store := openTestStore(t)

	e := &entry.Entry{
		CiteKey: "Smith2019Deep",
		Title:   "Deep Learning Systems",
		Authors: "Smith, J.",
		Year:    "2019",
		Venue:   "Proc. ICML",
		Volume:  "12",
		Pages:   "100-110",
		DOI:     "10.1000/xyz123",
		URL:     "https://example.org/paper",
		Comments: map[string]string{
			"alice": "[paper1]: cited for the training setup",
		},
	}
	if err := store.Insert(e); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.ByCiteKey("Smith2019Deep")
	if err != nil {
		t.Fatalf("ByCiteKey failed: %v", err)
	}
	if got == nil {
		t.Fatal("ByCiteKey returned nil for an inserted entry")
	}
	if got.Title != e.Title || got.Authors != e.Authors || got.Year != e.Year ||
		got.Venue != e.Venue || got.Volume != e.Volume || got.Pages != e.Pages ||
		got.DOI != e.DOI || got.URL != e.URL {
		t.Errorf("fields did not survive the round trip: %+v", got)
	}
	if got.Comment("alice") != "[paper1]: cited for the training setup" {
		t.Errorf("comments did not survive the round trip: %v", got.Comments)
	}

	missing, err := store.ByCiteKey("nope")
	if err != nil || missing != nil {
		t.Errorf("missing key should be (nil, nil), got (%v, %v)", missing, err)
	}
}

func TestStoreInsertRejectsDuplicateKey(t *testing.T) {
	store := openTestStore(t)

	if err := store.Insert(&entry.Entry{CiteKey: "smith2019"}); err != nil {
		t.Fatalf("first Insert failed: %v", err)
	}
	if err := store.Insert(&entry.Entry{CiteKey: "smith2019"}); err == nil {
		t.Error("duplicate citation key should be rejected")
	}
	if err := store.Insert(&entry.Entry{}); err == nil {
		t.Error("empty citation key should be rejected")
	}
}

func TestStoreUpdate(t *testing.T) {
	store := openTestStore(t)

	e := &entry.Entry{CiteKey: "smith2019", Title: "Old Title"}
	if err := store.Insert(e); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	e.Title = "New Title"
	e.SetComment("alice", "[paper1]: first note")
	if err := store.Update(e); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := store.ByCiteKey("smith2019")
	if err != nil {
		t.Fatalf("ByCiteKey failed: %v", err)
	}
	if got.Title != "New Title" {
		t.Errorf("Title = %q, want %q", got.Title, "New Title")
	}
	if got.Comment("alice") != "[paper1]: first note" {
		t.Errorf("comments not persisted: %v", got.Comments)
	}

	if err := store.Update(&entry.Entry{CiteKey: "nope"}); err == nil {
		t.Error("Update of unknown entry should fail")
	}
}

func TestStoreAllOrdersByCiteKey(t *testing.T) {
	store := openTestStore(t)

	for _, key := range []string{"zebra", "alpha", "mike"} {
		if err := store.Insert(&entry.Entry{CiteKey: key}); err != nil {
			t.Fatalf("Insert(%q) failed: %v", key, err)
		}
	}

	all, err := store.All()
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	want := []string{"alpha", "mike", "zebra"}
	if len(all) != len(want) {
		t.Fatalf("All returned %d entries, want %d", len(all), len(want))
	}
	for i, key := range want {
		if all[i].CiteKey != key {
			t.Errorf("All[%d].CiteKey = %q, want %q", i, all[i].CiteKey, key)
		}
	}
}

func TestStoreByDOI(t *testing.T) {
	store := openTestStore(t)

	if err := store.Insert(&entry.Entry{
		CiteKey: "smith2019",
		DOI:     "10.1000/XYZ123",
	}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.ByDOI("https://doi.org/10.1000/xyz123")
	if err != nil {
		t.Fatalf("ByDOI failed: %v", err)
	}
	if got == nil || got.CiteKey != "smith2019" {
		t.Errorf("ByDOI = %v, want smith2019", got)
	}

	missing, err := store.ByDOI("10.9999/other")
	if err != nil || missing != nil {
		t.Errorf("unknown DOI should be (nil, nil), got (%v, %v)", missing, err)
	}
}

func TestStoreFindDuplicate(t *testing.T) {
	store := openTestStore(t)

	if err := store.Insert(&entry.Entry{
		CiteKey: "smith2019deep",
		Title:   "Deep Learning Systems",
		Authors: "Smith, J.",
		Year:    "2019",
	}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	dup, err := store.FindDuplicate(&entry.Entry{
		Title:   "Deep Learning Systems",
		Authors: "J. Smith",
		Year:    "2019",
	})
	if err != nil {
		t.Fatalf("FindDuplicate failed: %v", err)
	}
	if dup == nil || dup.CiteKey != "smith2019deep" {
		t.Errorf("FindDuplicate = %v, want smith2019deep", dup)
	}

	dup, err = store.FindDuplicate(&entry.Entry{Year: "2019"})
	if err != nil {
		t.Fatalf("FindDuplicate failed: %v", err)
	}
	if dup != nil {
		t.Errorf("empty fingerprint should not match, got %v", dup)
	}
}
