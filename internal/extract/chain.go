package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// ErrExhausted means every acquisition strategy failed or returned content
// that did not pass the tabular-data gate. Callers recover by substituting
// sample data; it is never surfaced to the end user.
var ErrExhausted = errors.New("all acquisition strategies exhausted")

// SourceKind tags the raw content an acquisition run produced.
type SourceKind string

const (
	SourceCSV  SourceKind = "csv"
	SourceHTML SourceKind = "html"
	SourceNone SourceKind = "none"
)

// Result is the raw content handed to the parsing stages.
type Result struct {
	Content string
	Kind    SourceKind
	URL     string
}

const (
	browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	csvAccept        = "text/csv, application/csv, text/plain, */*"
	htmlAccept       = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"

	defaultBaseURL      = "https://airtable.com"
	defaultFetchTimeout = 15 * time.Second

	// Direct-download responses shorter than this are headers-only noise.
	minDirectCSVLength = 50

	maxBodyBytes = 4 << 20
)

// Chain runs the ordered acquisition strategies against a shared-view
// link. Strategies are strictly sequential: the next one runs only when
// the current one yields nothing plausible.
type Chain struct {
	client  *http.Client
	baseURL string
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) ChainOption {
	return func(c *Chain) {
		if client != nil {
			c.client = client
		}
	}
}

// WithBaseURL points the chain at a different spreadsheet host. Tests use
// this to stand in an httptest server.
func WithBaseURL(baseURL string) ChainOption {
	return func(c *Chain) {
		if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewChain builds a Chain with a timeout-bounded default client.
func NewChain(options ...ChainOption) *Chain {
	chain := &Chain{
		client:  &http.Client{Timeout: defaultFetchTimeout},
		baseURL: defaultBaseURL,
	}
	for _, option := range options {
		option(chain)
	}
	return chain
}

// DirectCSVURLs returns the fixed CSV export templates for a share ID, in
// priority order.
func (c *Chain) DirectCSVURLs(shareID string) []string {
	return []string{
		fmt.Sprintf("%s/%s.csv", c.baseURL, shareID),
		fmt.Sprintf("%s/v0/%s.csv", c.baseURL, shareID),
		fmt.Sprintf("%s/embed/%s.csv", c.baseURL, shareID),
	}
}

// AlternativeURLs returns the mechanical suffix and path-substitution
// guesses derived from the original link.
func (c *Chain) AlternativeURLs(link string) []string {
	return []string{
		link + "/csv",
		link + ".csv",
		strings.Replace(link, "/shr", "/csv/shr", 1),
		link + "?csv=1",
		link + "/export?format=csv",
	}
}

// DirectDownloadURLs returns the internal download path shapes tried with
// share headers. These are fragile against upstream changes and allowed
// to fail.
func (c *Chain) DirectDownloadURLs(shareID string) []string {
	return []string{
		fmt.Sprintf("%s/v0/%s/downloadCsv", c.baseURL, shareID),
		fmt.Sprintf("%s/%s.csv", c.baseURL, shareID),
	}
}

// Acquire resolves the share ID and walks the strategy chain. It returns
// ErrInvalidLink without any network call when no share ID exists, a CSV
// or HTML Result on success, and ErrExhausted otherwise. Context
// cancellation aborts the in-flight fetch and returns promptly.
func (c *Chain) Acquire(ctx context.Context, link string) (Result, error) {
	shareID, err := ExtractShareID(link)
	if err != nil {
		return Result{Kind: SourceNone}, err
	}

	// Strategy 1: direct CSV export endpoints.
	for _, url := range c.DirectCSVURLs(shareID) {
		body, ok := c.fetch(ctx, url, nil)
		if err := ctx.Err(); err != nil {
			return Result{Kind: SourceNone}, err
		}
		if ok && LooksLikeCSV(body) {
			return Result{Content: body, Kind: SourceCSV, URL: url}, nil
		}
	}

	// Strategy 2: alternative URL guesses with browser-like headers.
	log.Printf("extract: direct CSV endpoints failed, trying alternatives for %s", shareID)
	for _, url := range c.AlternativeURLs(link) {
		body, ok := c.fetch(ctx, url, map[string]string{
			"User-Agent": browserUserAgent,
			"Accept":     csvAccept,
		})
		if err := ctx.Err(); err != nil {
			return Result{Kind: SourceNone}, err
		}
		if ok && LooksLikeCSV(body) {
			return Result{Content: body, Kind: SourceCSV, URL: url}, nil
		}
	}

	// Strategy 3: direct-download paths asserting referer identity.
	for _, url := range c.DirectDownloadURLs(shareID) {
		body, ok := c.fetch(ctx, url, map[string]string{
			"User-Agent": browserUserAgent,
			"Accept":     csvAccept,
			"Referer":    link,
		})
		if err := ctx.Err(); err != nil {
			return Result{Kind: SourceNone}, err
		}
		if ok && LooksLikeCSV(body) && len(body) > minDirectCSVLength {
			return Result{Content: body, Kind: SourceCSV, URL: url}, nil
		}
	}

	// Strategy 4: fetch the shared-view page itself for HTML extraction.
	log.Printf("extract: CSV strategies failed, fetching page for %s", shareID)
	page, ok := c.fetch(ctx, link, map[string]string{
		"User-Agent": browserUserAgent,
		"Accept":     htmlAccept,
	})
	if err := ctx.Err(); err != nil {
		return Result{Kind: SourceNone}, err
	}
	if ok && page != "" {
		return Result{Content: page, Kind: SourceHTML, URL: link}, nil
	}

	return Result{Kind: SourceNone}, ErrExhausted
}

// fetch performs one GET. Any transport error, timeout, or non-2xx status
// counts as a failed attempt for the strategy in progress; there are no
// per-call retries.
func (c *Chain) fetch(ctx context.Context, url string, headers map[string]string) (string, bool) {
	return fetchURL(ctx, c.client, url, headers)
}

func fetchURL(ctx context.Context, client *http.Client, url string, headers map[string]string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Printf("extract: build request %s: %v", url, err)
		return "", false
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Printf("extract: fetch %s: %v", url, err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("extract: %s returned %d", url, resp.StatusCode)
		return "", false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		log.Printf("extract: read body %s: %v", url, err)
		return "", false
	}
	if len(body) == 0 {
		return "", false
	}
	return string(body), true
}
