package main

import (
	"fmt"

	"github.com/refmine/refmine/internal/marker"
	"github.com/spf13/cobra"
)

var extractSource string

func init() {
	extractCmd.Flags().StringVar(&extractSource, "source", "", "Source key for the citing document (default: file name)")
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract <document>",
	Short: "Extract citation markers with sentence context",
	Long: `Scan a document's body for citation markers and report each with its
surrounding sentence context.

Numeric markers ([12], [3-5], [3, 7]), parenthetical and inline
author-year markers (Smith (2019), (Smith, 2019)), and author-key markers
([Smi19]) are recognized. The references section, appendices, and
acknowledgments are not scanned.

Examples:
  refmine extract paper.pdf
  refmine extract paper.txt --source smith2020`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(args[0])
	if err != nil {
		exitWithError(ExitError, "loading document: %v", err)
	}
	sourceKey := sourceKeyFor(args[0], extractSource)

	extractor := newExtractor()

	var contexts []marker.Context
	for _, sec := range doc.CitingSections() {
		found, err := extractor.ExtractContexts(sec.Text, sourceKey)
		if err != nil {
			exitWithError(ExitError, "extracting from %s section: %v", sec.Name, err)
		}
		contexts = append(contexts, found...)
	}

	if humanOutput {
		fmt.Printf("%d citation contexts in %s:\n\n", len(contexts), args[0])
		for _, ctx := range contexts {
			fmt.Printf("  %-16s %s\n", ctx.Marker, truncateString(ctx.ContextText, ContextPreviewLen))
		}
	} else {
		if contexts == nil {
			contexts = []marker.Context{}
		}
		outputJSON(contexts)
	}

	return nil
}
