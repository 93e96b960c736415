package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"EduConnect/pkg/logger"
)

const (
	defaultWikipediaBaseURL = "https://en.wikipedia.org"
	// maxArticleLength bounds answers built from a full article body.
	maxArticleLength = 1000
)

// WikipediaClient answers questions from Wikipedia as the last fallback
// before giving up. It prefers the page summary, follows one
// disambiguation suggestion, and falls back to a truncated full article.
type WikipediaClient struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// NewWikipediaClient creates a WikipediaClient. baseURL is optional and
// defaults to the English Wikipedia.
func NewWikipediaClient(baseURL string, log *logger.Logger) *WikipediaClient {
	if baseURL == "" {
		baseURL = defaultWikipediaBaseURL
	}
	return &WikipediaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

// pageSummary is the subset of the REST summary payload we use.
type pageSummary struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Extract string `json:"extract"`
}

// Lookup fetches an encyclopedic answer for the query. Disambiguation
// pages are retried once with the first suggested alternative; a missing
// summary falls back to the full article, truncated at a sentence or
// paragraph boundary. All failures are logged and reported as a miss.
func (c *WikipediaClient) Lookup(ctx context.Context, query string) (string, bool) {
	c.log.Info(fmt.Sprintf("Searching Wikipedia for: %s", query))

	summary, status, err := c.fetchSummary(ctx, query)
	if err != nil {
		c.log.Error(fmt.Sprintf("Wikipedia search error: %v", err))
		return "", false
	}

	switch {
	case status == http.StatusOK && summary.Type == "disambiguation":
		// Retry once with the first suggested alternative title.
		alt, ok := c.firstAlternative(ctx, query)
		if !ok {
			return "", false
		}
		c.log.Info(fmt.Sprintf("Wikipedia disambiguation for '%s', trying '%s'", query, alt))
		altSummary, altStatus, err := c.fetchSummary(ctx, alt)
		if err != nil || altStatus != http.StatusOK || altSummary.Extract == "" {
			return "", false
		}
		return fmt.Sprintf("Information about '%s': %s", alt, altSummary.Extract), true

	case status == http.StatusOK && summary.Extract != "":
		return summary.Extract, true

	case status == http.StatusNotFound:
		// No summary page; try the full article body.
		c.log.Info(fmt.Sprintf("No summary found, trying full page for: %s", query))
		content, ok := c.fetchFullPage(ctx, query)
		if !ok {
			return "", false
		}
		return truncateAtBoundary(content, maxArticleLength), true
	}

	return "", false
}

// fetchSummary calls the REST page-summary endpoint.
func (c *WikipediaClient) fetchSummary(ctx context.Context, title string) (*pageSummary, int, error) {
	endpoint := c.baseURL + "/api/rest_v1/page/summary/" + url.PathEscape(title)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, http.StatusNotFound, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("summary endpoint returned status %d", resp.StatusCode)
	}

	var summary pageSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, resp.StatusCode, err
	}
	return &summary, http.StatusOK, nil
}

// firstAlternative returns the first opensearch suggestion that differs
// from the original query.
func (c *WikipediaClient) firstAlternative(ctx context.Context, query string) (string, bool) {
	params := url.Values{}
	params.Set("action", "opensearch")
	params.Set("search", query)
	params.Set("limit", "5")
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/w/api.php?"+params.Encode(), nil)
	if err != nil {
		return "", false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error(fmt.Sprintf("Wikipedia opensearch error: %v", err))
		return "", false
	}
	defer resp.Body.Close()

	// Opensearch responds with a positional array:
	// [query, [titles], [descriptions], [urls]].
	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil || len(raw) < 2 {
		return "", false
	}
	var titles []string
	if err := json.Unmarshal(raw[1], &titles); err != nil {
		return "", false
	}

	for _, title := range titles {
		if !strings.EqualFold(title, query) {
			return title, true
		}
	}
	return "", false
}

// fetchFullPage retrieves the plain-text article body via the action API.
func (c *WikipediaClient) fetchFullPage(ctx context.Context, title string) (string, bool) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "extracts")
	params.Set("explaintext", "1")
	params.Set("redirects", "1")
	params.Set("format", "json")
	params.Set("titles", title)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/w/api.php?"+params.Encode(), nil)
	if err != nil {
		return "", false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error(fmt.Sprintf("Wikipedia full page error: %v", err))
		return "", false
	}
	defer resp.Body.Close()

	var body struct {
		Query struct {
			Pages map[string]struct {
				Extract string `json:"extract"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", false
	}

	for _, page := range body.Query.Pages {
		if page.Extract != "" {
			return page.Extract, true
		}
	}
	return "", false
}

// truncateAtBoundary cuts content to at most maxLen characters, preferring
// the last sentence or paragraph boundary in the cut region. A boundary in
// the first half of the region is considered too short and ignored; in
// that case the text is hard-truncated at maxLen.
func truncateAtBoundary(content string, maxLen int) string {
	if len(content) <= maxLen {
		return content
	}

	truncated := content[:maxLen]
	lastPeriod := strings.LastIndex(truncated, ".")
	lastNewline := strings.LastIndex(truncated, "\n")
	breakPoint := lastPeriod
	if lastNewline > breakPoint {
		breakPoint = lastNewline
	}
	if breakPoint > maxLen/2 {
		truncated = truncated[:breakPoint+1]
	}
	return truncated + "... (content truncated)"
}
