package entry

import (
	"testing"

	"github.com/refmine/refmine/internal/refrecord"
)

func TestCiteKey(t *testing.T) {
	tests := []struct {
		name    string
		authors string
		year    string
		title   string
		want    string
	}{
		{
			name:    "full metadata",
			authors: "Smith, J. and Doe, A.",
			year:    "2019",
			title:   "Deep Learning Systems",
			want:    "Smith2019Deep",
		},
		{
			name:    "initials first author list",
			authors: "J. Smith and A. Doe",
			year:    "2019",
			title:   "Deep Learning Systems",
			want:    "Smith2019Deep",
		},
		{
			name:    "stopwords skipped",
			authors: "Walker, P.",
			year:    "2018",
			title:   "A Study of the Methods",
			want:    "Walker2018Study",
		},
		{
			name:    "et al stripped",
			authors: "Jones et al.",
			year:    "2020",
			title:   "Graph Methods",
			want:    "Jones2020Graph",
		},
		{
			name:  "missing parts omitted",
			year:  "2019",
			title: "Deep Learning",
			want:  "2019Deep",
		},
		{
			name: "empty input",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CiteKey(tt.authors, tt.year, tt.title); got != tt.want {
				t.Errorf("CiteKey(%q, %q, %q) = %q, want %q",
					tt.authors, tt.year, tt.title, got, tt.want)
			}
		})
	}
}

func TestFromRecord(t *testing.T) {
	rec := refrecord.Record{
		RawText: "[1] J. Smith. Deep Learning Systems. 2019.",
		Marker:  "[1]",
		Authors: refrecord.Some("J. Smith"),
		Title:   refrecord.Some("Deep Learning Systems"),
		Year:    refrecord.Some("2019"),
		DOI:     refrecord.Some("10.1000/xyz"),
	}

	e := FromRecord(rec)
	if e.CiteKey != "Smith2019Deep" {
		t.Errorf("CiteKey = %q, want %q", e.CiteKey, "Smith2019Deep")
	}
	if e.Title != "Deep Learning Systems" || e.Authors != "J. Smith" ||
		e.Year != "2019" || e.DOI != "10.1000/xyz" {
		t.Errorf("fields not carried over: %+v", e)
	}
}

func TestFromRecordFallbackKeys(t *testing.T) {
	tests := []struct {
		name   string
		marker string
		want   string
	}{
		{"author key marker", "[Doe99]", "Doe99"},
		{"numeric marker", "[3]", "unknown3"},
		{"empty marker", "", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := FromRecord(refrecord.Record{RawText: "x", Marker: tt.marker})
			if e.CiteKey != tt.want {
				t.Errorf("CiteKey = %q, want %q", e.CiteKey, tt.want)
			}
		})
	}
}

func TestComments(t *testing.T) {
	e := &Entry{CiteKey: "smith2019"}

	if got := e.Comment("alice"); got != "" {
		t.Errorf("Comment on empty map = %q, want empty", got)
	}

	e.SetComment("alice", "first note")
	e.SetComment("bob", "other note")
	if got := e.Comment("alice"); got != "first note" {
		t.Errorf("Comment = %q, want %q", got, "first note")
	}
	if got := e.Comment("bob"); got != "other note" {
		t.Errorf("Comment = %q, want %q", got, "other note")
	}

	e.SetComment("alice", "")
	if _, ok := e.Comments["alice"]; ok {
		t.Error("empty value should remove the comment field")
	}
	if got := e.Comment("bob"); got != "other note" {
		t.Error("removing one owner's field must not touch another's")
	}
}

func TestFirstAuthorLastName(t *testing.T) {
	tests := []struct {
		authors string
		want    string
	}{
		{"Smith, J.", "Smith"},
		{"Smith, J. and Doe, A.", "Smith"},
		{"J. Smith and A. Doe", "Smith"},
		{"Smith et al.", "Smith"},
		{"Smith & Jones", "Smith"},
		{"", ""},
	}

	for _, tt := range tests {
		e := &Entry{Authors: tt.authors}
		if got := e.FirstAuthorLastName(); got != tt.want {
			t.Errorf("FirstAuthorLastName(%q) = %q, want %q", tt.authors, got, tt.want)
		}
	}
}
