package main

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/refmine/refmine/internal/crossref"
	"github.com/refmine/refmine/internal/entry"
)

var enrichAll bool

func init() {
	enrichCmd.Flags().BoolVar(&enrichAll, "all", false, "Enrich every entry that has a DOI")
	rootCmd.AddCommand(enrichCmd)
}

var enrichCmd = &cobra.Command{
	Use:   "enrich [citekey]",
	Short: "Fill in entry metadata from Crossref",
	Long: `Fetch the Crossref work registered for an entry's DOI and fill in any
blank metadata fields (title, authors, year, venue, volume, pages, URL).
Existing field values are never overwritten.

Set CROSSREF_MAILTO (environment or .env file) to use Crossref's polite
pool.

Examples:
  refmine enrich smith2019deep
  refmine enrich --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEnrich,
}

// EnrichResponse is the JSON response for the enrich command.
type EnrichResponse struct {
	Enriched  int      `json:"enriched"`
	Unchanged int      `json:"unchanged"`
	Skipped   int      `json:"skipped"` // Entries without a DOI
	Keys      []string `json:"keys,omitempty"`
}

func runEnrich(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	if !enrichAll && len(args) == 0 {
		exitWithError(ExitError, "a cite key or --all is required")
	}

	root := mustFindRepository()
	cfg := mustLoadConfig(root)
	store := mustOpenLibrary(root)
	defer store.Close()

	var opts []crossref.ClientOption
	if cfg.CrossrefMailto != "" {
		opts = append(opts, crossref.WithMailto(cfg.CrossrefMailto))
	}
	client := crossref.NewClient(opts...)

	var targets []*entry.Entry
	if enrichAll {
		entries, err := store.All()
		if err != nil {
			exitWithError(ExitError, "listing entries: %v", err)
		}
		targets = entries
	} else {
		e, err := store.ByCiteKey(args[0])
		if err != nil {
			exitWithError(ExitError, "looking up %s: %v", args[0], err)
		}
		if e == nil {
			exitWithError(ExitNotFound, "no entry with cite key %s", args[0])
		}
		targets = []*entry.Entry{e}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var resp EnrichResponse
	for _, e := range targets {
		if e.DOI == "" {
			resp.Skipped++
			continue
		}
		work, err := client.WorkByDOI(ctx, e.DOI)
		if err != nil {
			if crossref.IsNotFound(err) {
				resp.Skipped++
				continue
			}
			exitWithError(ExitError, "fetching %s: %v", e.DOI, err)
		}
		if !work.ApplyTo(e) {
			resp.Unchanged++
			continue
		}
		if err := store.Update(e); err != nil {
			exitWithError(ExitError, "saving %s: %v", e.CiteKey, err)
		}
		resp.Enriched++
		resp.Keys = append(resp.Keys, e.CiteKey)
	}

	if humanOutput {
		fmt.Printf("%d enriched, %d unchanged, %d skipped\n", resp.Enriched, resp.Unchanged, resp.Skipped)
	} else {
		outputJSON(resp)
	}

	return nil
}
