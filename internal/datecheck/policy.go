package datecheck

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/tickerbench/tickerbench/internal/logger"
	"github.com/tickerbench/tickerbench/internal/search"
	"github.com/tickerbench/tickerbench/models"
)

// Policy decides which search results count as "dated within window".
// The search service already applies a window filter server-side; how far
// to trust its reported publication dates is deliberately pluggable.
type Policy interface {
	Filter(ctx context.Context, window models.DateWindow, results []search.Result) []search.Result
}

// ForName maps a scenario's date_policy value to an implementation.
func ForName(name string) (Policy, error) {
	switch name {
	case "", "trust":
		return TrustReported{}, nil
	case "strict":
		return StrictReported{}, nil
	case "metatag":
		return NewMetaTag(), nil
	default:
		return nil, fmt.Errorf("unknown date policy %q", name)
	}
}

// TrustReported drops results whose reported date parses and falls
// outside the window, and keeps undated ones on the assumption the
// service applied its own filter.
type TrustReported struct{}

func (TrustReported) Filter(_ context.Context, window models.DateWindow, results []search.Result) []search.Result {
	kept := results[:0:0]
	for _, r := range results {
		if t, ok := r.ReportedDate(); ok && !window.Contains(t) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// StrictReported keeps only results carrying a parseable date inside the
// window.
type StrictReported struct{}

func (StrictReported) Filter(_ context.Context, window models.DateWindow, results []search.Result) []search.Result {
	kept := results[:0:0]
	for _, r := range results {
		if t, ok := r.ReportedDate(); ok && window.Contains(t) {
			kept = append(kept, r)
		}
	}
	return kept
}

// MetaTag fetches each result page and reads the published date from its
// HTML meta tags, falling back to the reported date when the page gives
// nothing usable.
type MetaTag struct {
	client *resty.Client
}

// NewMetaTag builds the policy with its own short-timeout HTTP client.
func NewMetaTag() *MetaTag {
	client := resty.New()
	client.SetTimeout(10 * time.Second)
	return &MetaTag{client: client}
}

var metaDateSelectors = []string{
	`meta[property="article:published_time"]`,
	`meta[name="article:published_time"]`,
	`meta[name="date"]`,
	`meta[name="publish-date"]`,
	`meta[itemprop="datePublished"]`,
}

func (m *MetaTag) Filter(ctx context.Context, window models.DateWindow, results []search.Result) []search.Result {
	kept := results[:0:0]
	for _, r := range results {
		date, ok := m.pageDate(ctx, r.URL)
		if !ok {
			date, ok = r.ReportedDate()
		}
		if ok && !window.Contains(date) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

func (m *MetaTag) pageDate(ctx context.Context, url string) (time.Time, bool) {
	if url == "" {
		return time.Time{}, false
	}

	resp, err := m.client.R().SetContext(ctx).Get(url)
	if err != nil || resp.StatusCode() != 200 {
		logger.Log.WithField("url", url).Debugf("metatag fetch failed: %v", err)
		return time.Time{}, false
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return time.Time{}, false
	}

	for _, selector := range metaDateSelectors {
		content, exists := doc.Find(selector).First().Attr("content")
		if !exists {
			continue
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02", models.DateLayout} {
			if t, err := time.Parse(layout, strings.TrimSpace(content)); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
