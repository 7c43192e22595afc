package search

import (
	"context"
	"time"

	"github.com/tickerbench/tickerbench/models"
)

// Result is one web search hit. Date and LastUpdated are whatever the
// backing service reports; the datecheck policies decide how far to trust
// them.
type Result struct {
	Title       string `json:"title,omitempty"`
	URL         string `json:"url,omitempty"`
	Date        string `json:"date,omitempty"`
	LastUpdated string `json:"last_updated,omitempty"`
	Snippet     string `json:"snippet,omitempty"`
}

// ReportedDate parses the result's publication date if the service
// supplied one.
func (r Result) ReportedDate() (time.Time, bool) {
	if r.Date == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{models.DateLayout, "2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, r.Date); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Query is a windowed search request. The window is inclusive on both
// edges; zero limits use the provider's defaults.
type Query struct {
	Text             string
	Window           models.DateWindow
	MaxResults       int
	MaxTokens        int
	MaxTokensPerPage int
	Country          string
}

// Response carries the hits for one query. Err records a degraded fetch:
// callers treat it as "no evidence", never as a batch failure.
type Response struct {
	Query   string   `json:"query"`
	Results []Result `json:"results"`
	Err     string   `json:"error,omitempty"`
}

// Provider is the single capability both agents depend on. All research
// intelligence lives behind it, so handlers can run against a fixed
// source in tests.
type Provider interface {
	Search(ctx context.Context, q Query) (*Response, error)
}

// Fixed is a canned provider keyed by query text. Queries with no entry
// return an empty response, mirroring a search miss.
type Fixed map[string][]Result

func (f Fixed) Search(_ context.Context, q Query) (*Response, error) {
	return &Response{Query: q.Text, Results: f[q.Text]}, nil
}
