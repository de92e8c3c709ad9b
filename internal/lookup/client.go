// Package lookup retrieves BibTeX entries for DOIs and ISBNs from public
// metadata services.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matsen/papyrus/internal/bibtex"
	"golang.org/x/time/rate"
)

const (
	// DOIBaseURL resolves DOIs with content negotiation.
	DOIBaseURL = "https://doi.org"

	// ISBNBaseURL is the OpenLibrary API base URL.
	ISBNBaseURL = "https://openlibrary.org"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit keeps us well inside the services' fair-use limits.
	RateLimit = 5.0

	// maxResponseBytes bounds a single response body.
	maxResponseBytes = 4 << 20
)

// Client is a rate-limited HTTP client for DOI and ISBN lookups.
type Client struct {
	httpClient   *http.Client
	limiter      *rate.Limiter
	doiBaseURL   string
	isbnBaseURL  string
	contactEmail string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURLs sets custom service URLs (for testing).
func WithBaseURLs(doiURL, isbnURL string) ClientOption {
	return func(c *Client) {
		c.doiBaseURL = strings.TrimRight(doiURL, "/")
		c.isbnBaseURL = strings.TrimRight(isbnURL, "/")
	}
}

// WithContactEmail adds a mailto to the User-Agent, as the services request
// of polite clients.
func WithContactEmail(email string) ClientOption {
	return func(c *Client) {
		c.contactEmail = email
	}
}

// NewClient creates a new lookup client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		limiter:     rate.NewLimiter(rate.Limit(RateLimit), 1),
		doiBaseURL:  DOIBaseURL,
		isbnBaseURL: ISBNBaseURL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) userAgent() string {
	ua := "papyrus (https://github.com/matsen/papyrus)"
	if c.contactEmail != "" {
		ua += " mailto:" + c.contactEmail
	}
	return ua
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response, service, id string) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s %s", ErrNotFound, service, id)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode >= 400:
		return &APIError{StatusCode: resp.StatusCode, Service: service, ID: id}
	}
	return nil
}

// get performs a rate-limited GET and returns the response body.
func (c *Client) get(ctx context.Context, rawURL, accept, service, id string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors(resp, service, id); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

// DOIToBibTeX returns the BibTeX text registered for doi.
func (c *Client) DOIToBibTeX(ctx context.Context, doi string) (string, error) {
	d, err := StandardizeDOI(doi)
	if err != nil {
		return "", err
	}

	body, err := c.get(ctx, c.doiBaseURL+"/"+escapeDOI(d), "application/x-bibtex; charset=utf-8", "doi", d)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(string(body))
	if !strings.HasPrefix(text, "@") {
		return "", fmt.Errorf("%w: doi %s returned no BibTeX", ErrNotFound, d)
	}
	return text, nil
}

// escapeDOI escapes each path segment of a DOI suffix.
func escapeDOI(doi string) string {
	parts := strings.Split(doi, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// openLibraryBook is the subset of the OpenLibrary books API we use.
type openLibraryBook struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	PublishDate string `json:"publish_date"`
	URL         string `json:"url"`
	Authors     []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Publishers []struct {
		Name string `json:"name"`
	} `json:"publishers"`
}

// ISBNToBibTeX returns a @book entry built from OpenLibrary data for isbn.
func (c *Client) ISBNToBibTeX(ctx context.Context, isbn string) (string, error) {
	n, err := NormalizeISBN(isbn)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("bibkeys", "ISBN:"+n)
	q.Set("format", "json")
	q.Set("jscmd", "data")
	body, err := c.get(ctx, c.isbnBaseURL+"/api/books?"+q.Encode(), "application/json", "isbn", n)
	if err != nil {
		return "", err
	}

	var books map[string]openLibraryBook
	if err := json.Unmarshal(body, &books); err != nil {
		return "", fmt.Errorf("%w: parsing OpenLibrary response: %v", ErrAPIError, err)
	}
	book, ok := books["ISBN:"+n]
	if !ok {
		return "", fmt.Errorf("%w: isbn %s", ErrNotFound, n)
	}

	return bookToBibTeX(n, book), nil
}

// bookToBibTeX renders an OpenLibrary record as a single @book entry.
func bookToBibTeX(isbn string, book openLibraryBook) string {
	e := bibtex.NewEntry("book")
	title := book.Title
	if book.Subtitle != "" {
		title += ": " + book.Subtitle
	}
	e.Title = title
	e.Year = yearOf(book.PublishDate)
	e.SetField("isbn", isbn)

	var names []string
	for _, a := range book.Authors {
		names = append(names, a.Name)
	}
	if len(names) > 0 {
		e.SetField(bibtex.FieldAuthor, strings.Join(names, " and "))
	}
	if len(book.Publishers) > 0 {
		e.SetField("publisher", book.Publishers[0].Name)
	}
	if book.URL != "" {
		e.SetField("url", book.URL)
	}

	return bibtex.Encode("isbn"+isbn, e)
}

// yearOf returns the first four-digit run in an OpenLibrary publish date
// such as "March 2004" or "2004-03-01".
func yearOf(date string) string {
	year := ""
	run := 0
	for i, r := range date {
		if r >= '0' && r <= '9' {
			run++
			if year == "" && run == 4 && (i+1 == len(date) || date[i+1] < '0' || date[i+1] > '9') {
				year = date[i-3 : i+1]
			}
			continue
		}
		run = 0
	}
	return year
}
