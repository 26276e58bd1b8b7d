package main

import (
	"fmt"

	"github.com/refmine/refmine/internal/marker"
	"github.com/refmine/refmine/internal/match"
	"github.com/refmine/refmine/internal/refparse"
	"github.com/refmine/refmine/internal/refrecord"
	"github.com/spf13/cobra"
)

var matchSource string

func init() {
	matchCmd.Flags().StringVar(&matchSource, "source", "", "Source key for the citing document (default: file name)")
	rootCmd.AddCommand(matchCmd)
}

var matchCmd = &cobra.Command{
	Use:   "match <document>",
	Short: "Match citation markers to parsed references",
	Long: `Parse a document's references and match every in-text citation marker
against them.

Each marker is tried against the reference list with a cascade of
strategies: exact marker equality, numeric index, author-year, author-key,
and fuzzy similarity. List and range markers are expanded and matched
per element. Markers that match nothing are reported unmatched.

Examples:
  refmine match paper.pdf
  refmine match paper.txt --human`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

// MarkerMatch is the JSON shape for one matched (or unmatched) marker.
type MarkerMatch struct {
	Context    marker.Context    `json:"context"`
	Record     *refrecord.Record `json:"record,omitempty"`
	Confidence float64           `json:"confidence"`
	Strategy   match.Strategy    `json:"strategy,omitempty"`
}

func runMatch(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(args[0])
	if err != nil {
		exitWithError(ExitError, "loading document: %v", err)
	}
	sourceKey := sourceKeyFor(args[0], matchSource)

	refs, ok := doc.ReferencesSection()
	if !ok {
		exitWithError(ExitDataError, "document has no references section")
	}
	records := refparse.New(newLogger()).Parse(refs.Text)
	if len(records) == 0 {
		exitWithError(ExitDataError, "references section yielded no parseable records")
	}

	extractor := newExtractor()
	matcher := match.NewMatcher()

	var matches []MarkerMatch
	for _, sec := range doc.CitingSections() {
		contexts, err := extractor.ExtractContexts(sec.Text, sourceKey)
		if err != nil {
			exitWithError(ExitError, "extracting from %s section: %v", sec.Name, err)
		}
		for _, ctx := range contexts {
			results := matcher.MatchMultiple(ctx.Marker, records)
			if len(results) == 0 {
				matches = append(matches, MarkerMatch{Context: ctx})
				continue
			}
			for _, result := range results {
				rec := result.Record
				matches = append(matches, MarkerMatch{
					Context:    ctx,
					Record:     &rec,
					Confidence: result.Confidence,
					Strategy:   result.Strategy,
				})
			}
		}
	}

	if humanOutput {
		for _, m := range matches {
			if m.Record == nil {
				fmt.Printf("  %-16s (no match)\n", m.Context.Marker)
				continue
			}
			fmt.Printf("  %-16s [%.2f %s] %s\n", m.Context.Marker,
				m.Confidence, m.Strategy,
				truncateString(m.Record.Title.OrEmpty(), ListTitleMaxLen))
		}
	} else {
		if matches == nil {
			matches = []MarkerMatch{}
		}
		outputJSON(matches)
	}

	return nil
}
