package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/havenline/haven/internal/httpkit"
)

const duckduckgoBaseURL = "https://api.duckduckgo.com"

// DuckDuckGo implements the Provider interface for the DuckDuckGo
// Instant Answer API. The API returns an encyclopedic abstract plus
// related-topic snippets rather than classic ranked links, so results
// are flattened: abstract first, then related topics.
type DuckDuckGo struct {
	baseURL    string
	httpClient *http.Client
}

// NewDuckDuckGo creates a DuckDuckGo provider.
func NewDuckDuckGo(timeout time.Duration) *DuckDuckGo {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DuckDuckGo{
		baseURL: duckduckgoBaseURL,
		httpClient: httpkit.NewClient(
			httpkit.WithTimeout(timeout),
		),
	}
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

// SearchPage returns the DuckDuckGo web search URL for the query.
func (d *DuckDuckGo) SearchPage(query string) string {
	return "https://duckduckgo.com/?q=" + url.QueryEscape(query)
}

// ddgResponse is the JSON response from the Instant Answer API.
type ddgResponse struct {
	Heading       string     `json:"Heading"`
	Abstract      string     `json:"Abstract"`
	AbstractURL   string     `json:"AbstractURL"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

// ddgTopic is either a topic with Text/FirstURL or a named group with
// nested Topics.
type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Topics   []ddgTopic `json:"Topics"`
}

func (d *DuckDuckGo) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	count := opts.Count
	if count <= 0 {
		count = 5
	}

	params := url.Values{
		"q":             {query},
		"format":        {"json"},
		"no_html":       {"1"},
		"skip_disambig": {"1"},
	}

	reqURL := fmt.Sprintf("%s/?%s", d.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 512)
		return nil, fmt.Errorf("duckduckgo: HTTP %d: %s", resp.StatusCode, body)
	}

	var dr ddgResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("duckduckgo: decode response: %w", err)
	}

	return flattenDDG(&dr, count), nil
}

// flattenDDG ranks the structured answer into a uniform list: the
// abstract first when present, then related-topic snippets, truncated
// to count.
func flattenDDG(dr *ddgResponse, count int) []Result {
	var results []Result

	if dr.Abstract != "" {
		title := dr.Heading
		if title == "" {
			title = "Result"
		}
		results = append(results, Result{
			Title:   title,
			Snippet: dr.Abstract,
			URL:     dr.AbstractURL,
		})
	}

	for _, topic := range flattenTopics(dr.RelatedTopics) {
		if len(results) >= count {
			break
		}
		if topic.Text == "" {
			continue
		}
		results = append(results, Result{
			Title:   topicTitle(topic.Text),
			Snippet: topic.Text,
			URL:     topic.FirstURL,
		})
	}

	if len(results) > count {
		results = results[:count]
	}
	return results
}

// flattenTopics expands named topic groups into a flat list.
func flattenTopics(topics []ddgTopic) []ddgTopic {
	var flat []ddgTopic
	for _, t := range topics {
		if len(t.Topics) > 0 {
			flat = append(flat, flattenTopics(t.Topics)...)
			continue
		}
		flat = append(flat, t)
	}
	return flat
}

// topicTitle derives a short title from a related-topic text, which
// usually reads "Name - description".
func topicTitle(text string) string {
	if name, _, found := strings.Cut(text, " - "); found {
		return name
	}
	return "Related"
}
