package search

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tickerbench/tickerbench/internal/logger"
)

const defaultBaseURL = "https://api.perplexity.ai"

// PerplexityClient talks to the Perplexity Search API with date-window
// filters. Responses are cached per window so a frozen scenario replays
// identically.
type PerplexityClient struct {
	client *resty.Client
	cache  *CacheManager
	retry  *RetryConfig
}

// PerplexityOption tweaks client construction.
type PerplexityOption func(*PerplexityClient)

// WithBaseURL points the client at a different endpoint (tests use an
// httptest server).
func WithBaseURL(url string) PerplexityOption {
	return func(pc *PerplexityClient) {
		pc.client.SetBaseURL(url)
	}
}

// WithCache attaches a response cache.
func WithCache(cache *CacheManager) PerplexityOption {
	return func(pc *PerplexityClient) {
		pc.cache = cache
	}
}

// WithRetryConfig overrides the backoff schedule.
func WithRetryConfig(cfg *RetryConfig) PerplexityOption {
	return func(pc *PerplexityClient) {
		pc.retry = cfg
	}
}

// NewPerplexityClient creates a search client. The API key is required;
// it is sent as a bearer token and never logged.
func NewPerplexityClient(apiKey string, opts ...PerplexityOption) (*PerplexityClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("PERPLEXITY_API_KEY is not set")
	}

	client := resty.New()
	client.SetBaseURL(defaultBaseURL)
	client.SetTimeout(60 * time.Second)
	client.SetAuthToken(apiKey)

	pc := &PerplexityClient{
		client: client,
		retry:  DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(pc)
	}
	return pc, nil
}

type perplexityRequest struct {
	Query            string `json:"query"`
	MaxResults       int    `json:"max_results,omitempty"`
	MaxTokens        int    `json:"max_tokens,omitempty"`
	MaxTokensPerPage int    `json:"max_tokens_per_page,omitempty"`
	AfterDate        string `json:"search_after_date_filter,omitempty"`
	BeforeDate       string `json:"search_before_date_filter,omitempty"`
	Country          string `json:"country,omitempty"`
}

type perplexityResponse struct {
	Results []Result `json:"results"`
}

// Search runs one windowed query. Transport and API failures degrade to
// an empty response with Err set: the per-ticker loop records the miss
// and continues, it never aborts the batch.
func (pc *PerplexityClient) Search(ctx context.Context, q Query) (*Response, error) {
	body := perplexityRequest{
		Query:            q.Text,
		MaxResults:       q.MaxResults,
		MaxTokens:        q.MaxTokens,
		MaxTokensPerPage: q.MaxTokensPerPage,
		AfterDate:        q.Window.Start,
		BeforeDate:       q.Window.End,
		Country:          q.Country,
	}

	if pc.cache != nil {
		var cached Response
		if pc.cache.Get("perplexity", "search", body, &cached) {
			return &cached, nil
		}
	}

	var parsed perplexityResponse
	err := WithRetry(ctx, pc.retry, func() error {
		resp, err := pc.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(body).
			Post("/search")
		if err != nil {
			return fmt.Errorf("search %q: %w", q.Text, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("search %q: API error %d: %s", q.Text, resp.StatusCode(), resp.String())
		}
		if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
			return fmt.Errorf("search %q: parse response: %w", q.Text, err)
		}
		return nil
	})
	if err != nil {
		logger.Log.WithField("query", q.Text).Warnf("search degraded: %v", err)
		return &Response{Query: q.Text, Err: err.Error()}, nil
	}

	out := &Response{Query: q.Text, Results: parsed.Results}
	if pc.cache != nil {
		if err := pc.cache.Set("perplexity", "search", body, out); err != nil {
			logger.Log.Debugf("cache write failed: %v", err)
		}
	}
	return out, nil
}
