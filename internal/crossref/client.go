// Package crossref is a minimal client for the Crossref REST API, used to
// enrich library entries with registered metadata for their DOIs.
package crossref

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/refmine/refmine/internal/entry"
	"github.com/refmine/refmine/internal/library"
)

const (
	// BaseURL is the Crossref REST API base URL.
	BaseURL = "https://api.crossref.org"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit keeps us inside Crossref's polite-pool expectations.
	RateLimit = 5.0
)

// Client is a rate-limited HTTP client for the Crossref REST API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	mailto     string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithMailto sets the contact address sent with each request, which moves
// requests into Crossref's polite pool.
func WithMailto(addr string) ClientOption {
	return func(c *Client) {
		c.mailto = addr
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// NewClient creates a new Crossref API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
	}

	if addr := os.Getenv("CROSSREF_MAILTO"); addr != "" {
		c.mailto = addr
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Work is the subset of a Crossref work record the enricher uses.
type Work struct {
	DOI            string    `json:"DOI"`
	Title          []string  `json:"title"`
	Author         []Person  `json:"author"`
	ContainerTitle []string  `json:"container-title"`
	Volume         string    `json:"volume"`
	Page           string    `json:"page"`
	URL            string    `json:"URL"`
	Issued         DateParts `json:"issued"`
}

// Person is one contributor on a Crossref work.
type Person struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

// DateParts holds Crossref's nested date representation.
type DateParts struct {
	Parts [][]int `json:"date-parts"`
}

// Year returns the year component, or zero when absent.
func (d DateParts) Year() int {
	if len(d.Parts) == 0 || len(d.Parts[0]) == 0 {
		return 0
	}
	return d.Parts[0][0]
}

// WorkByDOI fetches the Crossref work registered for a DOI.
func (c *Client) WorkByDOI(ctx context.Context, doi string) (*Work, error) {
	doi = library.NormalizeDOI(doi)
	if doi == "" {
		return nil, fmt.Errorf("DOI is required")
	}

	endpoint := c.baseURL + "/works/" + url.PathEscape(doi)
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var wrapper struct {
		Message Work `json:"message"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("%w: parsing work: %v", ErrInvalidResponse, err)
	}
	if wrapper.Message.DOI == "" {
		return nil, ErrNotFound
	}
	return &wrapper.Message, nil
}

// QueryTitle searches Crossref for works matching a title and returns the
// best hits, most relevant first.
func (c *Client) QueryTitle(ctx context.Context, title string, rows int) ([]Work, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("title is required")
	}
	if rows <= 0 {
		rows = 5
	}

	endpoint := fmt.Sprintf("%s/works?query.title=%s&rows=%d",
		c.baseURL, url.QueryEscape(title), rows)
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var wrapper struct {
		Message struct {
			Items []Work `json:"items"`
		} `json:"message"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("%w: parsing query results: %v", ErrInvalidResponse, err)
	}
	return wrapper.Message.Items, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	if c.mailto != "" {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		endpoint += sep + "mailto=" + url.QueryEscape(c.mailto)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: HTTP %d", ErrInvalidResponse, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrNetworkError, err)
	}
	return body, nil
}

// ApplyTo copies the work's metadata onto an entry, filling blank fields
// only. Reports whether any field changed.
func (w *Work) ApplyTo(e *entry.Entry) bool {
	changed := false
	set := func(dst *string, val string) {
		if *dst == "" && val != "" {
			*dst = val
			changed = true
		}
	}

	set(&e.DOI, library.NormalizeDOI(w.DOI))
	if len(w.Title) > 0 {
		set(&e.Title, w.Title[0])
	}
	set(&e.Authors, w.AuthorString())
	if y := w.Issued.Year(); y > 0 {
		set(&e.Year, fmt.Sprintf("%d", y))
	}
	if len(w.ContainerTitle) > 0 {
		set(&e.Venue, w.ContainerTitle[0])
	}
	set(&e.Volume, w.Volume)
	set(&e.Pages, w.Page)
	set(&e.URL, w.URL)
	return changed
}

// AuthorString renders contributors as "Family, G. and Family, G.".
func (w *Work) AuthorString() string {
	var parts []string
	for _, p := range w.Author {
		switch {
		case p.Family != "" && p.Given != "":
			parts = append(parts, p.Family+", "+p.Given)
		case p.Family != "":
			parts = append(parts, p.Family)
		case p.Given != "":
			parts = append(parts, p.Given)
		}
	}
	return strings.Join(parts, " and ")
}
