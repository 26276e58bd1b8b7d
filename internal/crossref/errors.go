package crossref

import "errors"

// Common errors returned by the Crossref client.
var (
	// ErrNotFound indicates the DOI is not registered with Crossref.
	ErrNotFound = errors.New("not found in Crossref")

	// ErrRateLimited indicates the rate limit has been exceeded.
	ErrRateLimited = errors.New("Crossref rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with Crossref")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from Crossref")
)

// IsNotFound returns true if the error indicates the DOI was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
