package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"EduConnect/pkg/logger"
)

const defaultSerpAPIBaseURL = "https://serpapi.com"

// SerpAPIClient performs Google searches through the SerpAPI service.
type SerpAPIClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// NewSerpAPIClient creates a SerpAPIClient. An empty apiKey is allowed; in
// that case every search is a logged miss instead of a startup failure.
func NewSerpAPIClient(apiKey string, log *logger.Logger) *SerpAPIClient {
	return &SerpAPIClient{
		apiKey:  apiKey,
		baseURL: defaultSerpAPIBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

// serpResponse is the subset of the SerpAPI payload the fallback uses.
type serpResponse struct {
	AnswerBox struct {
		Answer  string `json:"answer"`
		Snippet string `json:"snippet"`
	} `json:"answer_box"`
	OrganicResults []struct {
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
}

// Search runs a Google search and returns the best short answer it can
// extract: the answer box if present, otherwise the first organic result
// snippet. It returns ok=false on any failure or when nothing usable came
// back; errors are logged, not propagated, because the caller has further
// fallbacks.
func (c *SerpAPIClient) Search(ctx context.Context, query string) (string, bool) {
	if c.apiKey == "" {
		c.log.Error("Cannot search the web: SERPAPI_API_KEY not set")
		return "", false
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search.json?"+params.Encode(), nil)
	if err != nil {
		c.log.Error(fmt.Sprintf("Failed to build web search request: %v", err))
		return "", false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error(fmt.Sprintf("Web search error: %v", err))
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Error(fmt.Sprintf("Web search returned status %d", resp.StatusCode))
		return "", false
	}

	var body serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.log.Error(fmt.Sprintf("Failed to decode web search response: %v", err))
		return "", false
	}

	switch {
	case body.AnswerBox.Answer != "":
		return body.AnswerBox.Answer, true
	case body.AnswerBox.Snippet != "":
		return body.AnswerBox.Snippet, true
	case len(body.OrganicResults) > 0 && body.OrganicResults[0].Snippet != "":
		return body.OrganicResults[0].Snippet, true
	}

	c.log.Info("Web search completed with no usable result")
	return "", false
}
