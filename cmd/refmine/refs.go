package main

import (
	"fmt"

	"github.com/refmine/refmine/internal/refparse"
	"github.com/refmine/refmine/internal/refrecord"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(refsCmd)
}

// RefsResponse is the JSON response for the refs command.
type RefsResponse struct {
	Format  refparse.Format    `json:"format"`
	Count   int                `json:"count"`
	Records []refrecord.Record `json:"records"`
}

var refsCmd = &cobra.Command{
	Use:   "refs <document>",
	Short: "Parse a document's references section",
	Long: `Parse the references section of a document into structured records.

The document may be a PDF or a plain-text file. The references section is
located by heading, its list format is detected, and each reference is
split into marker, authors, title, year, venue, volume, pages, DOI, and
URL fields where present.

Examples:
  refmine refs paper.pdf
  refmine refs paper.txt --human`,
	Args: cobra.ExactArgs(1),
	RunE: runRefs,
}

func runRefs(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(args[0])
	if err != nil {
		exitWithError(ExitError, "loading document: %v", err)
	}

	refs, ok := doc.ReferencesSection()
	if !ok {
		exitWithError(ExitDataError, "document has no references section")
	}

	parser := refparse.New(newLogger())
	records := parser.Parse(refs.Text)
	if len(records) == 0 {
		exitWithError(ExitDataError, "references section yielded no parseable records")
	}

	if humanOutput {
		fmt.Printf("%d references (%s format):\n\n", len(records), refparse.DetectFormat(refs.Text))
		for _, rec := range records {
			fmt.Printf("  %-12s %s\n", rec.Marker, truncateString(rec.Title.OrEmpty(), ListTitleMaxLen))
		}
	} else {
		outputJSON(RefsResponse{
			Format:  refparse.DetectFormat(refs.Text),
			Count:   len(records),
			Records: records,
		})
	}

	return nil
}
