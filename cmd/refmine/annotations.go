package main

import (
	"fmt"

	"github.com/refmine/refmine/internal/annotate"
	"github.com/spf13/cobra"
)

func init() {
	annotationsCmd.AddCommand(annotationsShowCmd)
	annotationsCmd.AddCommand(annotationsRemoveCmd)
	rootCmd.AddCommand(annotationsCmd)
}

var annotationsCmd = &cobra.Command{
	Use:   "annotations",
	Short: "Inspect and manage citation context annotations",
}

var annotationsShowCmd = &cobra.Command{
	Use:   "show <citekey>",
	Short: "Show the annotation blocks stored on an entry",
	Long: `Show the citation context blocks stored on an entry's comment field,
one block per citing source.

Examples:
  refmine annotations show smith2019deep
  refmine annotations show smith2019deep --human`,
	Args: cobra.ExactArgs(1),
	RunE: runAnnotationsShow,
}

var annotationsRemoveCmd = &cobra.Command{
	Use:   "remove <sourcekey>",
	Short: "Remove a source's annotation blocks from every entry",
	Long: `Remove every annotation block labeled with the given source key across
the whole library. Use this when a citing document was re-processed or
withdrawn.

Examples:
  refmine annotations remove smith2020`,
	Args: cobra.ExactArgs(1),
	RunE: runAnnotationsRemove,
}

// AnnotationBlock is the JSON shape for one stored context block.
type AnnotationBlock struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

func runAnnotationsShow(cmd *cobra.Command, args []string) error {
	root := mustFindRepository()
	cfg := mustLoadConfig(root)
	store := mustOpenLibrary(root)
	defer store.Close()

	e, err := store.ByCiteKey(args[0])
	if err != nil {
		exitWithError(ExitError, "looking up %s: %v", args[0], err)
	}
	if e == nil {
		exitWithError(ExitNotFound, "no entry with cite key %s", args[0])
	}

	blocks := annotate.ParseBlocks(e.Comment(cfg.Owner))
	out := make([]AnnotationBlock, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, AnnotationBlock{Source: b.Label, Text: b.Text})
	}

	if humanOutput {
		if len(out) == 0 {
			fmt.Printf("No annotations on %s\n", args[0])
			return nil
		}
		for _, b := range out {
			fmt.Printf("[%s]\n  %s\n\n", b.Source, b.Text)
		}
	} else {
		outputJSON(out)
	}

	return nil
}

func runAnnotationsRemove(cmd *cobra.Command, args []string) error {
	root := mustFindRepository()
	svc, store := mustNewService(root)
	defer store.Close()

	removed, err := svc.RemoveSource(args[0])
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		fmt.Printf("Removed %d annotation blocks for %s\n", removed, args[0])
	} else {
		outputJSON(struct {
			Removed int    `json:"removed"`
			Source  string `json:"source"`
		}{Removed: removed, Source: args[0]})
	}

	return nil
}
