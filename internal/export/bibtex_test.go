package export

import (
	"strings"
	"testing"

	"github.com/refmine/refmine/internal/entry"
)

func TestToBibTeXArticle(t *testing.T) {
	e := &entry.Entry{
		CiteKey: "Smith2019Deep",
		Title:   "Deep Learning Systems",
		Authors: "Smith, J. and Doe, A.",
		Year:    "2019",
		Venue:   "Machine Learning Journal",
		Volume:  "12",
		Pages:   "100-110",
		DOI:     "10.1000/xyz123",
	}

	got := ToBibTeX(e)
	for _, want := range []string{
		"@article{Smith2019Deep,",
		"  author = {Smith, J. and Doe, A.},",
		"  title = {Deep Learning Systems},",
		"  journal = {Machine Learning Journal},",
		"  year = {2019},",
		"  volume = {12},",
		"  pages = {100-110},",
		"  doi = {10.1000/xyz123},",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if !strings.HasSuffix(got, "}\n") {
		t.Errorf("output not terminated: %q", got)
	}
}

func TestToBibTeXProceedings(t *testing.T) {
	e := &entry.Entry{
		CiteKey: "Jones2020Graph",
		Title:   "Graph Partitioning",
		Venue:   "Proc. ICML",
	}

	got := ToBibTeX(e)
	if !strings.Contains(got, "@inproceedings{Jones2020Graph,") {
		t.Errorf("proceedings venue should yield inproceedings:\n%s", got)
	}
	if !strings.Contains(got, "  booktitle = {Proc. ICML},") {
		t.Errorf("proceedings venue should use booktitle:\n%s", got)
	}
	if strings.Contains(got, "journal") {
		t.Errorf("proceedings entry should not carry a journal field:\n%s", got)
	}
}

func TestToBibTeXOptionalFields(t *testing.T) {
	e := &entry.Entry{CiteKey: "Minimal2019", Title: "Minimal Paper"}

	got := ToBibTeX(e)
	for _, field := range []string{"author = ", "year = ", "volume = ", "pages = ", "doi = ", "url = "} {
		if strings.Contains(got, field) {
			t.Errorf("empty field %q should be omitted:\n%s", field, got)
		}
	}
	if !strings.Contains(got, "title = {Minimal Paper},") {
		t.Errorf("title should always be present:\n%s", got)
	}
}

func TestDetermineEntryType(t *testing.T) {
	tests := []struct {
		venue string
		want  string
	}{
		{"arXiv preprint arXiv:1901.00001", "article"},
		{"bioRxiv", "article"},
		{"Proceedings of NeurIPS", "inproceedings"},
		{"International Conference on Machine Learning", "inproceedings"},
		{"Workshop on Graph Methods", "inproceedings"},
		{"Symposium on Theory of Computing", "inproceedings"},
		{"Nature", "article"},
		{"", "article"},
	}

	for _, tt := range tests {
		e := &entry.Entry{Venue: tt.venue}
		if got := determineEntryType(e); got != tt.want {
			t.Errorf("determineEntryType(%q) = %q, want %q", tt.venue, got, tt.want)
		}
	}
}

func TestEscapeLatex(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain text", "plain text"},
		{"100% effective", `100\% effective`},
		{"A & B", `A \& B`},
		{"$100 price", `\$100 price`},
		{"section #1", `section \#1`},
		{"under_score", `under\_score`},
		{"{braces}", `\{braces\}`},
		{"test~tilde", `test\textasciitilde{}tilde`},
		{"x^2", `x\textasciicircum{}2`},
	}

	for _, tt := range tests {
		if got := escapeLatex(tt.input); got != tt.want {
			t.Errorf("escapeLatex(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestToBibTeXList(t *testing.T) {
	entries := []*entry.Entry{
		{CiteKey: "a2019", Title: "First Paper"},
		{CiteKey: "b2020", Title: "Second Paper"},
	}

	got := ToBibTeXList(entries)
	if strings.Count(got, "@article{") != 2 {
		t.Errorf("expected two rendered entries:\n%s", got)
	}
	if !strings.Contains(got, "}\n\n@article{b2020,") {
		t.Errorf("entries should be blank-line separated:\n%s", got)
	}
	if ToBibTeXList(nil) != "" {
		t.Error("empty list should render empty")
	}
}
