package main

// Exit codes used by all commands.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (not in a repository, bad config)
	ExitDataError   = 3 // Data error (no references section, unparseable input)
	ExitNotFound    = 4 // Entry or DOI not found
)
