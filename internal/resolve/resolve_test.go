package resolve

import (
	"math"
	"testing"

	"github.com/refmine/refmine/internal/entry"
	"github.com/refmine/refmine/internal/library"
	"github.com/refmine/refmine/internal/refrecord"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func seededLibrary(t *testing.T) *library.Memory {
	t.Helper()
	lib, err := library.NewMemoryWith(
		&entry.Entry{
			CiteKey: "Smith2019Deep",
			Title:   "Deep Learning Systems",
			Authors: "Smith, J.",
			Year:    "2019",
			DOI:     "10.1000/xyz123",
		},
		&entry.Entry{
			CiteKey: "Doe99",
			Title:   "Early Neural Networks",
			Authors: "Doe, A.",
			Year:    "1999",
		},
	)
	if err != nil {
		t.Fatalf("seeding library: %v", err)
	}
	return lib
}

func TestResolveByDOI(t *testing.T) {
	lib := seededLibrary(t)
	r := New(lib, nil)

	rec := refrecord.Record{
		RawText: "some unrelated text",
		Marker:  "[7]",
		DOI:     refrecord.Some("https://doi.org/10.1000/XYZ123"),
	}

	resolved, err := r.Resolve(rec)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if resolved.Entry.CiteKey != "Smith2019Deep" {
		t.Errorf("Entry = %q, want Smith2019Deep", resolved.Entry.CiteKey)
	}
	if resolved.Strategy != StrategyDOI || !approx(resolved.Confidence, 1.0) {
		t.Errorf("got strategy %q confidence %v, want doi 1.0",
			resolved.Strategy, resolved.Confidence)
	}
	if resolved.IsNew {
		t.Error("DOI match should not be flagged new")
	}

	// Resolve never mutates the library.
	all, _ := lib.All()
	if len(all) != 2 {
		t.Errorf("library grew to %d entries during Resolve", len(all))
	}
}

func TestResolveByGeneratedCiteKey(t *testing.T) {
	r := New(seededLibrary(t), nil)

	rec := refrecord.Record{
		RawText: "[3] Smith, J. Deep Learning Systems. 2019.",
		Marker:  "[3]",
		Authors: refrecord.Some("Smith, J."),
		Title:   refrecord.Some("Deep Learning Systems"),
		Year:    refrecord.Some("2019"),
	}

	resolved, err := r.Resolve(rec)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if resolved.Entry.CiteKey != "Smith2019Deep" {
		t.Errorf("Entry = %q, want Smith2019Deep", resolved.Entry.CiteKey)
	}
	if resolved.Strategy != StrategyCiteKey || !approx(resolved.Confidence, 0.95) {
		t.Errorf("got strategy %q confidence %v, want cite_key 0.95",
			resolved.Strategy, resolved.Confidence)
	}
}

func TestResolveByMarkerAsCiteKey(t *testing.T) {
	r := New(seededLibrary(t), nil)

	rec := refrecord.Record{
		RawText: "[Doe99] A. Doe. An untitled memo.",
		Marker:  "[Doe99]",
	}

	resolved, err := r.Resolve(rec)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if resolved.Entry.CiteKey != "Doe99" {
		t.Errorf("Entry = %q, want Doe99", resolved.Entry.CiteKey)
	}
	if resolved.Strategy != StrategyCiteKey {
		t.Errorf("Strategy = %q, want cite_key", resolved.Strategy)
	}
}

func TestResolveCiteKeyCaseInsensitive(t *testing.T) {
	lib, err := library.NewMemoryWith(
		&entry.Entry{CiteKey: "smith2019deep", Title: "unrelated"},
	)
	if err != nil {
		t.Fatalf("seeding library: %v", err)
	}
	r := New(lib, nil)

	rec := refrecord.Record{
		RawText: "x",
		Marker:  "[1]",
		Authors: refrecord.Some("Smith, J."),
		Year:    refrecord.Some("2019"),
		Title:   refrecord.Some("Deep Learning Systems"),
	}

	resolved, err := r.Resolve(rec)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if resolved.Strategy != StrategyCiteKey || !approx(resolved.Confidence, 0.9025) {
		t.Errorf("got strategy %q confidence %v, want cite_key 0.9025",
			resolved.Strategy, resolved.Confidence)
	}
}

func TestResolveByTitleSimilarity(t *testing.T) {
	lib, err := library.NewMemoryWith(
		&entry.Entry{CiteKey: "internalkey", Title: "Deep Learning Systems"},
	)
	if err != nil {
		t.Fatalf("seeding library: %v", err)
	}
	r := New(lib, nil)

	tests := []struct {
		name  string
		title string
		conf  float64
	}{
		{"exact title", "Deep Learning Systems", 0.85},
		{"near title", "Deep Lerning Sistems", 0.70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := refrecord.Record{
				RawText: "x",
				Marker:  "[1]",
				Title:   refrecord.Some(tt.title),
			}
			resolved, err := r.Resolve(rec)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if resolved.Strategy != StrategyTitle {
				t.Fatalf("Strategy = %q, want title", resolved.Strategy)
			}
			if resolved.Entry.CiteKey != "internalkey" {
				t.Errorf("Entry = %q, want internalkey", resolved.Entry.CiteKey)
			}
			if !approx(resolved.Confidence, tt.conf) {
				t.Errorf("Confidence = %v, want %v", resolved.Confidence, tt.conf)
			}
		})
	}
}

func TestResolveByAuthorYear(t *testing.T) {
	r := New(seededLibrary(t), nil)

	rec := refrecord.Record{
		RawText: "Smith, J. A. Some otherwise unparsed reference, 2019.",
		Marker:  "[5]",
		Authors: refrecord.Some("Smith, J. A."),
		Year:    refrecord.Some("2019"),
	}

	resolved, err := r.Resolve(rec)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if resolved.Entry.CiteKey != "Smith2019Deep" {
		t.Errorf("Entry = %q, want Smith2019Deep", resolved.Entry.CiteKey)
	}
	if resolved.Strategy != StrategyAuthorYear {
		t.Errorf("Strategy = %q, want author_year", resolved.Strategy)
	}
	// Year fired (0.3) and author similarity fired (0.4 * 1.0), then the
	// cascade discount.
	if !approx(resolved.Confidence, 0.7*0.75) {
		t.Errorf("Confidence = %v, want %v", resolved.Confidence, 0.7*0.75)
	}
}

func TestResolveByDuplicateFingerprint(t *testing.T) {
	lib, err := library.NewMemoryWith(
		&entry.Entry{CiteKey: "smithmemo", Authors: "Smith, J."},
	)
	if err != nil {
		t.Fatalf("seeding library: %v", err)
	}
	r := New(lib, nil)

	// Authors only: nothing for the DOI, key, title, or author+year stages.
	rec := refrecord.Record{
		RawText: "Smith, J. Untitled technical memo.",
		Marker:  "[2]",
		Authors: refrecord.Some("Smith, J."),
	}

	resolved, err := r.Resolve(rec)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if resolved.Entry.CiteKey != "smithmemo" {
		t.Errorf("Entry = %q, want smithmemo", resolved.Entry.CiteKey)
	}
	if resolved.Strategy != StrategyDuplicate || !approx(resolved.Confidence, 0.80) {
		t.Errorf("got strategy %q confidence %v, want duplicate 0.80",
			resolved.Strategy, resolved.Confidence)
	}
}

func TestResolveSynthesizesNewEntry(t *testing.T) {
	lib := library.NewMemory()
	r := New(lib, nil)

	rec := refrecord.Record{
		RawText: "[1] Jones, M. Graph Partitioning. 2020.",
		Marker:  "[1]",
		Authors: refrecord.Some("Jones, M."),
		Title:   refrecord.Some("Graph Partitioning"),
		Year:    refrecord.Some("2020"),
	}

	resolved, err := r.Resolve(rec)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !resolved.IsNew {
		t.Error("unmatched record should synthesize a new entry")
	}
	if resolved.Strategy != StrategyNew || !approx(resolved.Confidence, 1.0) {
		t.Errorf("got strategy %q confidence %v, want new 1.0",
			resolved.Strategy, resolved.Confidence)
	}
	if resolved.Entry.CiteKey != "Jones2020Graph" {
		t.Errorf("CiteKey = %q, want Jones2020Graph", resolved.Entry.CiteKey)
	}

	all, _ := lib.All()
	if len(all) != 0 {
		t.Error("Resolve must not persist the synthesized entry")
	}
}

func TestResolveAndAddThenReresolve(t *testing.T) {
	lib := library.NewMemory()
	r := New(lib, nil)

	rec := refrecord.Record{
		RawText: "[1] Jones, M. Graph Partitioning. 2020.",
		Marker:  "[1]",
		Authors: refrecord.Some("Jones, M."),
		Title:   refrecord.Some("Graph Partitioning"),
		Year:    refrecord.Some("2020"),
	}

	first, err := r.ResolveAndAdd(rec)
	if err != nil {
		t.Fatalf("ResolveAndAdd failed: %v", err)
	}
	if !first.IsNew {
		t.Error("first resolution should be new")
	}
	if got, _ := lib.ByCiteKey("Jones2020Graph"); got == nil {
		t.Fatal("new entry was not persisted")
	}

	second, err := r.ResolveAndAdd(rec)
	if err != nil {
		t.Fatalf("second ResolveAndAdd failed: %v", err)
	}
	if second.IsNew {
		t.Error("second resolution should find the stored entry")
	}
	if second.Strategy != StrategyCiteKey || !approx(second.Confidence, 0.95) {
		t.Errorf("got strategy %q confidence %v, want cite_key 0.95",
			second.Strategy, second.Confidence)
	}

	all, _ := lib.All()
	if len(all) != 1 {
		t.Errorf("library has %d entries, want 1", len(all))
	}
}

func TestAddEntryIfNotExists(t *testing.T) {
	lib := seededLibrary(t)
	r := New(lib, nil)

	tests := []struct {
		name string
		e    *entry.Entry
		want bool
	}{
		{
			name: "existing key",
			e:    &entry.Entry{CiteKey: "Smith2019Deep", Title: "whatever"},
			want: false,
		},
		{
			name: "existing doi under new key",
			e:    &entry.Entry{CiteKey: "other2019", DOI: "10.1000/xyz123"},
			want: false,
		},
		{
			name: "duplicate fingerprint under new key",
			e: &entry.Entry{
				CiteKey: "smith19",
				Title:   "Deep Learning Systems",
				Authors: "J. Smith",
				Year:    "2019",
			},
			want: false,
		},
		{
			name: "genuinely new",
			e: &entry.Entry{
				CiteKey: "Walker2021Study",
				Title:   "A Study of Distributed Tracing",
				Authors: "Walker, P.",
				Year:    "2021",
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			added, err := r.AddEntryIfNotExists(tt.e)
			if err != nil {
				t.Fatalf("AddEntryIfNotExists failed: %v", err)
			}
			if added != tt.want {
				t.Errorf("added = %v, want %v", added, tt.want)
			}
		})
	}

	if _, err := r.AddEntryIfNotExists(&entry.Entry{}); err == nil {
		t.Error("entry without a citation key should be rejected")
	}
}
