// Package main provides the refmine CLI entry point.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "refmine",
	Short: "Citation context extraction for scholarly documents",
	Long: `refmine extracts citation contexts from scholarly documents.

It parses a document's references section into structured records, locates
in-text citation markers with their surrounding sentences, matches markers
to references, and resolves references against a local library stored in
SQLite. All commands output JSON by default for easy integration with
other tools.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}

// getRepoRoot returns the working root, or exits with an error.
func getRepoRoot() (string, int) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", outputError(ExitError, "getting current directory: %v", err)
	}

	// Check REFMINE_ROOT environment variable first
	if root := os.Getenv("REFMINE_ROOT"); root != "" {
		cwd = root
	}

	return cwd, 0
}
