package main

import (
	"fmt"

	"github.com/refmine/refmine/internal/pipeline"
	"github.com/spf13/cobra"
)

var previewSource string

func init() {
	previewCmd.Flags().StringVar(&previewSource, "source", "", "Source key for the citing document (default: file name)")
	rootCmd.AddCommand(previewCmd)
}

var previewCmd = &cobra.Command{
	Use:   "preview <document>",
	Short: "Preview citation contexts resolved against the library",
	Long: `Run the full extraction pipeline without writing anything: parse the
references, extract citation contexts, match markers to references, and
resolve each reference against the library.

References not in the library appear with "is_new": true and the entry
that apply would create for them.

Examples:
  refmine preview paper.pdf
  refmine preview paper.txt --source smith2020 --human`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func runPreview(cmd *cobra.Command, args []string) error {
	root := mustFindRepository()
	svc, store := mustNewService(root)
	defer store.Close()

	doc, err := loadDocument(args[0])
	if err != nil {
		exitWithError(ExitError, "loading document: %v", err)
	}
	sourceKey := sourceKeyFor(args[0], previewSource)

	matched, err := svc.Preview(doc, sourceKey)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	if humanOutput {
		printMatchedHuman(matched)
	} else {
		if matched == nil {
			matched = []pipeline.MatchedContext{}
		}
		outputJSON(matched)
	}

	return nil
}

// printMatchedHuman renders matched contexts for terminal reading. Shared
// by preview and apply.
func printMatchedHuman(matched []pipeline.MatchedContext) {
	for _, mc := range matched {
		if !mc.Matched() {
			fmt.Printf("  %-16s (no match)\n", mc.Context.Marker)
			continue
		}
		flag := ""
		if mc.IsNew {
			flag = " NEW"
		}
		fmt.Printf("  %-16s [%.2f]%s %s\n", mc.Context.Marker, mc.Confidence, flag, mc.Entry.CiteKey)
		fmt.Printf("      %s\n", truncateString(mc.Context.ContextText, ContextPreviewLen))
	}
}
