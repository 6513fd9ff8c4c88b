// Package wikimedia looks up reference images and summaries for botanical
// names on Wikipedia.
package wikimedia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const userAgent = "planty/1.0 (+https://github.com/leafcare/planty)"

type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client against the given language edition ("en", ...).
func NewClient(language string) *Client {
	if language == "" {
		language = "en"
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    fmt.Sprintf("https://%s.wikipedia.org", language),
	}
}

// SetBaseURL overrides the API endpoint (tests).
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// SearchResult is one page hit for a search query.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

type searchResponse struct {
	Query struct {
		Search []SearchResult `json:"search"`
	} `json:"query"`
}

// Search returns up to limit page titles matching the query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}
	q := url.Values{}
	q.Set("action", "query")
	q.Set("list", "search")
	q.Set("srsearch", query)
	q.Set("srlimit", fmt.Sprint(limit))
	q.Set("format", "json")

	var out searchResponse
	if err := c.getJSON(ctx, "/w/api.php?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out.Query.Search, nil
}

type pageImageResponse struct {
	Query struct {
		Pages map[string]struct {
			Title     string `json:"title"`
			Thumbnail *struct {
				Source string `json:"source"`
			} `json:"thumbnail"`
		} `json:"pages"`
	} `json:"query"`
}

// PageImage returns the lead image URL for a page title, or "" if the page
// has none.
func (c *Client) PageImage(ctx context.Context, title string) (string, error) {
	q := url.Values{}
	q.Set("action", "query")
	q.Set("titles", title)
	q.Set("prop", "pageimages")
	q.Set("format", "json")
	q.Set("pithumbsize", "800")
	q.Set("redirects", "true")

	var out pageImageResponse
	if err := c.getJSON(ctx, "/w/api.php?"+q.Encode(), &out); err != nil {
		return "", err
	}
	for _, page := range out.Query.Pages {
		if page.Thumbnail != nil {
			return page.Thumbnail.Source, nil
		}
	}
	return "", nil
}

// PageSummary is the REST summary for a page.
type PageSummary struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
}

// Summary fetches the REST page summary for a title.
func (c *Client) Summary(ctx context.Context, title string) (*PageSummary, error) {
	var out PageSummary
	if err := c.getJSON(ctx, "/api/rest_v1/page/summary/"+url.PathEscape(title), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	// Wikimedia asks API consumers to identify themselves
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("wikimedia request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("wikimedia request failed: %d %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode wikimedia response: %w", err)
	}
	return nil
}
