package main

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/refmine/refmine/internal/config"
	"github.com/refmine/refmine/internal/library"
	"github.com/refmine/refmine/internal/marker"
	"github.com/refmine/refmine/internal/pipeline"
	"github.com/refmine/refmine/internal/section"
)

// mustFindRepository locates the repository root or exits.
func mustFindRepository() string {
	cwd, exitCode := getRepoRoot()
	if exitCode != 0 {
		os.Exit(exitCode)
	}

	root, err := config.FindRepository(cwd)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return root
}

// mustLoadConfig loads the repository config or exits.
func mustLoadConfig(root string) *config.Config {
	cfg, err := config.Load(root)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return cfg
}

// mustOpenLibrary opens the repository's SQLite library or exits.
func mustOpenLibrary(root string) *library.Store {
	store, err := library.Open(config.LibraryPath(root))
	if err != nil {
		exitWithError(ExitError, "opening library: %v", err)
	}
	return store
}

// mustNewService builds the pipeline service for the repository or exits.
// The caller owns the returned store and must close it.
func mustNewService(root string) (*pipeline.Service, *library.Store) {
	cfg := mustLoadConfig(root)
	store := mustOpenLibrary(root)

	svc, err := pipeline.NewService(store, cfg.Owner, newLogger(),
		pipeline.WithContextWindow(cfg.ContextBefore, cfg.ContextAfter))
	if err != nil {
		store.Close()
		exitWithError(ExitError, "%v", err)
	}
	return svc, store
}

// newExtractor builds a marker extractor with the repository's context
// window when a repository config is reachable from the working
// directory. Outside a repository the default one-sentence window applies.
func newExtractor() *marker.Extractor {
	extractor := marker.NewExtractor(newLogger())
	if root, err := config.FindRepository("."); err == nil {
		if cfg, err := config.Load(root); err == nil {
			extractor.Before = cfg.ContextBefore
			extractor.After = cfg.ContextAfter
		}
	}
	return extractor
}

// newLogger builds the CLI logger. REFMINE_DEBUG enables diagnostics on
// stderr; otherwise logging is silent.
func newLogger() *zap.Logger {
	if os.Getenv("REFMINE_DEBUG") == "" {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// loadDocument reads a document file and splits it into sections. PDFs go
// through text extraction; anything else is treated as plain text.
func loadDocument(path string) (section.Document, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return section.FromPDF(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return section.Document{}, err
	}
	return section.FromText(string(data)), nil
}

// sourceKeyFor derives a source key from a document path when none was
// given: the file name without extension.
func sourceKeyFor(path, flag string) string {
	if flag != "" {
		return flag
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
