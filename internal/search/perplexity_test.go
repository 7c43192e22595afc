package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tickerbench/tickerbench/models"
)

func fastRetry() *RetryConfig {
	return &RetryConfig{MaxRetries: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
}

func TestPerplexityClientSearch(t *testing.T) {
	var gotReq perplexityRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header: %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(perplexityResponse{Results: []Result{
			{Title: "RR surges", URL: "https://example.com/rr", Date: "07/01/2025", Snippet: "strong growth"},
		}})
	}))
	defer srv.Close()

	client, err := NewPerplexityClient("test-key", WithBaseURL(srv.URL), WithRetryConfig(fastRetry()))
	if err != nil {
		t.Fatalf("NewPerplexityClient: %v", err)
	}

	resp, err := client.Search(context.Background(), Query{
		Text:       "RR fundamentals",
		Window:     models.DateWindow{Start: "06/01/2025", End: "09/30/2025"},
		MaxResults: 5,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotReq.AfterDate != "06/01/2025" || gotReq.BeforeDate != "09/30/2025" {
		t.Fatalf("window filters not forwarded: %+v", gotReq)
	}
	if gotReq.MaxResults != 5 {
		t.Fatalf("max_results not forwarded: %d", gotReq.MaxResults)
	}
	if len(resp.Results) != 1 || resp.Results[0].Title != "RR surges" {
		t.Fatalf("unexpected results: %+v", resp.Results)
	}
	if resp.Err != "" {
		t.Fatalf("unexpected degraded response: %s", resp.Err)
	}
}

func TestPerplexityClientDegradesOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewPerplexityClient("test-key", WithBaseURL(srv.URL), WithRetryConfig(fastRetry()))
	if err != nil {
		t.Fatalf("NewPerplexityClient: %v", err)
	}

	resp, err := client.Search(context.Background(), Query{Text: "RR"})
	// Search failures degrade: callers get an empty response, not an error.
	if err != nil {
		t.Fatalf("degraded search should not error: %v", err)
	}
	if resp.Err == "" || len(resp.Results) != 0 {
		t.Fatalf("expected degraded empty response, got %+v", resp)
	}
}

func TestPerplexityClientRequiresKey(t *testing.T) {
	if _, err := NewPerplexityClient(""); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestPerplexityClientUsesCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(perplexityResponse{Results: []Result{{Title: "cached"}}})
	}))
	defer srv.Close()

	cache := NewCacheManager(t.TempDir(), 0, true)
	client, err := NewPerplexityClient("test-key",
		WithBaseURL(srv.URL), WithCache(cache), WithRetryConfig(fastRetry()))
	if err != nil {
		t.Fatalf("NewPerplexityClient: %v", err)
	}

	q := Query{Text: "RR", Window: models.DateWindow{Start: "06/01/2025", End: "09/30/2025"}}
	for i := 0; i < 3; i++ {
		resp, err := client.Search(context.Background(), q)
		if err != nil {
			t.Fatalf("Search #%d: %v", i, err)
		}
		if len(resp.Results) != 1 || resp.Results[0].Title != "cached" {
			t.Fatalf("Search #%d unexpected results: %+v", i, resp.Results)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 upstream call, got %d", got)
	}
}

func TestResultReportedDate(t *testing.T) {
	r := Result{Date: "07/15/2025"}
	d, ok := r.ReportedDate()
	if !ok || d.Month() != time.July {
		t.Fatalf("unexpected parse: %v %v", d, ok)
	}

	r = Result{Date: "2025-07-15"}
	if _, ok := r.ReportedDate(); !ok {
		t.Fatal("ISO dates should parse")
	}

	r = Result{}
	if _, ok := r.ReportedDate(); ok {
		t.Fatal("empty date should not parse")
	}
}

func TestFixedProvider(t *testing.T) {
	f := Fixed{"hit": {{Title: "x"}}}
	resp, err := f.Search(context.Background(), Query{Text: "hit"})
	if err != nil || len(resp.Results) != 1 {
		t.Fatalf("unexpected: %v %+v", err, resp)
	}
	resp, err = f.Search(context.Background(), Query{Text: "miss"})
	if err != nil || len(resp.Results) != 0 {
		t.Fatalf("miss should return empty response: %v %+v", err, resp)
	}
}
