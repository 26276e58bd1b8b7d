package main

import (
	"fmt"

	"github.com/refmine/refmine/internal/entry"
	"github.com/refmine/refmine/internal/export"
	"github.com/spf13/cobra"
)

var (
	listBibtex bool
	listBibOut string
)

func init() {
	listCmd.Flags().BoolVar(&listBibtex, "bibtex", false, "Output entries as BibTeX")
	listCmd.Flags().StringVar(&listBibOut, "bib-out", "", "Append entries missing from the given .bib file")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all library entries",
	Long: `List all entries in the repository library.

With --bib-out, entries not yet present in the target .bib file (by DOI,
then citation key) are appended to it instead of printed.

Examples:
  refmine list
  refmine list --bibtex
  refmine list --bib-out refs.bib
  refmine list --human`,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	root := mustFindRepository()
	store := mustOpenLibrary(root)
	defer store.Close()

	entries, err := store.All()
	if err != nil {
		exitWithError(ExitError, "listing entries: %v", err)
	}

	switch {
	case listBibOut != "":
		written, err := export.AppendMissing(listBibOut, entries)
		if err != nil {
			exitWithError(ExitError, "exporting to %s: %v", listBibOut, err)
		}
		if humanOutput {
			fmt.Printf("Appended %d entries to %s\n", written, listBibOut)
		} else {
			outputJSON(struct {
				File     string `json:"file"`
				Appended int    `json:"appended"`
			}{listBibOut, written})
		}
	case listBibtex:
		fmt.Print(export.ToBibTeXList(entries))
	case humanOutput:
		if len(entries) == 0 {
			fmt.Println("No entries in library")
			break
		}
		fmt.Printf("%d entries in library:\n\n", len(entries))
		for _, e := range entries {
			fmt.Printf("  %-24s %s\n", e.CiteKey, truncateString(e.Title, ListTitleMaxLen))
		}
	default:
		if entries == nil {
			entries = []*entry.Entry{}
		}
		outputJSON(entries)
	}

	return nil
}
