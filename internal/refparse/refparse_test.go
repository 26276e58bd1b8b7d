package refparse

import (
	"testing"

	"github.com/refmine/refmine/internal/refrecord"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Format
	}{
		{
			name: "numeric bracketed",
			text: "[1] Smith. A Title.\n[2] Doe. Another Title.\n[3] Jones. Third Title.",
			want: FormatNumericBracketed,
		},
		{
			name: "numeric dotted",
			text: "1. Smith. A Title.\n2. Doe. Another Title.\n3. Jones. Third Title.",
			want: FormatNumericDotted,
		},
		{
			name: "author key",
			text: "[Smi19] Smith. A Title.\n[Doe20] Doe. Another.\n[Jon21] Jones. Third.",
			want: FormatAuthorKey,
		},
		{
			name: "author year fallback",
			text: "Smith, J. (2019). A Title. Journal.\n\nDoe, A. (2020). Another.",
			want: FormatAuthorYear,
		},
		{
			name: "two bracketed markers are not enough",
			text: "[1] Smith. A Title.\n[2] Doe. Another Title.",
			want: FormatAuthorYear,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.text); got != tt.want {
				t.Errorf("DetectFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

// optEq fails the test when the Opt does not hold want ("" means absent).
func optEq(t *testing.T, field string, got refrecord.Opt, want string) {
	t.Helper()
	value, present := got.Get()
	if want == "" {
		if present {
			t.Errorf("%s = %q, want absent", field, value)
		}
		return
	}
	if !present {
		t.Errorf("%s absent, want %q", field, want)
		return
	}
	if value != want {
		t.Errorf("%s = %q, want %q", field, value, want)
	}
}

func TestParseNumericBracketed(t *testing.T) {
	section := `[1] J. Smith and A. Doe. Deep Learning Systems. In Proc. ICML, 2019, pp. 100-110.
[2] R. Jones. Graph Neural Methods for Chemistry. Machine Learning Journal, 2020, pp. 5-15.
[3] P. Walker. A Study of Something Important. 2018. doi:10.1000/xyz123.`

	records := New(nil).Parse(section)
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	first := records[0]
	if first.Marker != "[1]" {
		t.Errorf("Marker = %q, want %q", first.Marker, "[1]")
	}
	optEq(t, "Authors", first.Authors, "J. Smith and A. Doe")
	optEq(t, "Title", first.Title, "Deep Learning Systems")
	optEq(t, "Year", first.Year, "2019")
	optEq(t, "Venue", first.Venue, "Proc. ICML")
	optEq(t, "Pages", first.Pages, "100-110")
	optEq(t, "DOI", first.DOI, "")

	second := records[1]
	if second.Marker != "[2]" {
		t.Errorf("Marker = %q, want %q", second.Marker, "[2]")
	}
	optEq(t, "Venue", second.Venue, "Machine Learning Journal")
	optEq(t, "Year", second.Year, "2020")
	optEq(t, "Pages", second.Pages, "5-15")

	third := records[2]
	optEq(t, "DOI", third.DOI, "10.1000/xyz123")
	optEq(t, "URL", third.URL, "")
	optEq(t, "Title", third.Title, "A Study of Something Important")
}

func TestParseAuthorYearParagraphs(t *testing.T) {
	section := `Smith, J. (2019). Understanding Deep Networks. IEEE Transactions on Networks, vol. 12, pp. 1-20.

Doe, A. and Smith, J. (2020). Graph Methods in Biology. https://example.org/graph-methods.`

	records := New(nil).Parse(section)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	first := records[0]
	if first.Marker != "(Smith 2019)" {
		t.Errorf("Marker = %q, want %q", first.Marker, "(Smith 2019)")
	}
	optEq(t, "Authors", first.Authors, "Smith, J.")
	optEq(t, "Title", first.Title, "Understanding Deep Networks")
	optEq(t, "Venue", first.Venue, "IEEE Transactions on Networks")
	optEq(t, "Volume", first.Volume, "12")
	optEq(t, "Pages", first.Pages, "1-20")

	second := records[1]
	if second.Marker != "(Doe 2020)" {
		t.Errorf("Marker = %q, want %q", second.Marker, "(Doe 2020)")
	}
	optEq(t, "Authors", second.Authors, "Doe, A. and Smith, J.")
	optEq(t, "URL", second.URL, "https://example.org/graph-methods")
}

func TestParseSparseRecord(t *testing.T) {
	section := `[1] J. Smith. Deep Learning Systems Overview. 2019.
[2] an untitled technical memo, number 42.
[3] R. Jones. Graph Neural Methods for Chemistry. 2020.`

	records := New(nil).Parse(section)
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	sparse := records[1]
	if sparse.Marker != "[2]" {
		t.Errorf("Marker = %q, want %q", sparse.Marker, "[2]")
	}
	optEq(t, "Authors", sparse.Authors, "")
	optEq(t, "Title", sparse.Title, "")
	optEq(t, "Year", sparse.Year, "")
	if sparse.RawText == "" {
		t.Error("RawText must always be set")
	}
}

func TestParseEmptySection(t *testing.T) {
	if got := New(nil).Parse("   \n  "); got != nil {
		t.Errorf("Parse(blank) = %v, want nil", got)
	}
}

func TestParsePagesNormalization(t *testing.T) {
	section := `[1] J. Smith. Deep Learning Systems Overview. 2019, pp. 100` + "–" + `110.
[2] R. Jones. Graph Neural Methods for Chemistry. 2020, pp. 5-15.
[3] P. Walker. A Study of Something Important. 2018, pp. 7-9.`

	records := New(nil).Parse(section)
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	optEq(t, "Pages", records[0].Pages, "100-110")
}

func TestParseQuotedTitle(t *testing.T) {
	section := `[1] J. Smith. "Deep Learning: Systems and Methods." In Proc. ICML, 2019.
[2] R. Jones. Graph Neural Methods for Chemistry. 2020.
[3] P. Walker. A Study of Something Important. 2018.`

	records := New(nil).Parse(section)
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	optEq(t, "Title", records[0].Title, "Deep Learning: Systems and Methods.")
}

func TestYearPicksLastPlausible(t *testing.T) {
	section := `[1] J. Smith. Revisiting the 1995 Benchmark Suite. In Proc. ICML, 2019.
[2] R. Jones. Graph Neural Methods for Chemistry. 2020.
[3] P. Walker. A Study of Something Important. 2018.`

	records := New(nil).Parse(section)
	optEq(t, "Year", records[0].Year, "2019")
}
