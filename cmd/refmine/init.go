package main

import (
	"fmt"
	"os"

	"github.com/refmine/refmine/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new refmine repository",
	Long: `Initialize a new refmine repository in the current directory.

Creates:
  .refmine/
  ├── config.yml      # Default config
  └── library.db      # Created on first use`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root, exitCode := getRepoRoot()
	if exitCode != 0 {
		os.Exit(exitCode)
	}

	cfg, err := config.Init(root)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		fmt.Printf("Initialized refmine repository in %s (owner: %s)\n", root, cfg.Owner)
	} else {
		outputJSON(StatusResponse{
			Status: "initialized",
			Path:   root,
		})
	}

	return nil
}
