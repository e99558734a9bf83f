package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// Impure tool names. Unlike the emitters these hit the network and return
// a text blob for the transcript; their failures are absorbed by the
// tool-call loop.
const (
	ToolGoogleNewsSearch = "google_news_search"
	ToolFetchStockNews   = "fetch_stock_news"
)

const googleNewsRSS = "https://news.google.com/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en"

const defaultNewsLimit = 10

// NewsFetcher wraps the Google News RSS feed for the news analyst's
// lookup tools.
type NewsFetcher struct {
	parser *gofeed.Parser
}

// NewNewsFetcher builds a fetcher with a default feed parser.
func NewNewsFetcher() *NewsFetcher {
	return &NewsFetcher{parser: gofeed.NewParser()}
}

// RegisterNewsTools adds the news search tools to a registry.
func RegisterNewsTools(r *Registry, fetcher *NewsFetcher) {
	r.Register(ToolGoogleNewsSearch,
		"Search Google News for recent articles matching a query. Returns headlines with dates and summaries.",
		[]Param{
			{Name: "query", Type: TypeString, Description: "Search query"},
			{Name: "limit", Type: TypeInteger, Description: "Maximum articles to return", Default: defaultNewsLimit},
		},
		func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return fetcher.Search(ctx, String(args, "query"), Int(args, "limit"))
		})

	r.Register(ToolFetchStockNews,
		"Fetch recent news headlines for a stock symbol.",
		[]Param{
			{Name: "symbol", Type: TypeString, Description: "Stock symbol"},
			{Name: "limit", Type: TypeInteger, Description: "Maximum articles to return", Default: defaultNewsLimit},
		},
		func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			symbol := String(args, "symbol")
			return fetcher.Search(ctx, symbol+" stock", Int(args, "limit"))
		})
}

// Search queries the Google News RSS feed and formats the top items.
func (f *NewsFetcher) Search(ctx context.Context, query string, limit int) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("empty news query")
	}
	if limit <= 0 {
		limit = defaultNewsLimit
	}

	feedURL := fmt.Sprintf(googleNewsRSS, url.QueryEscape(query))
	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return "", fmt.Errorf("fetch news feed: %w", err)
	}

	if len(feed.Items) == 0 {
		return fmt.Sprintf("No recent news found for %q.", query), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recent news for %q:\n", query)
	for i, item := range feed.Items {
		if i >= limit {
			break
		}
		published := ""
		if item.PublishedParsed != nil {
			published = item.PublishedParsed.Format("2006-01-02")
		}
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, published, item.Title)
		if summary := stripHTML(item.Description); summary != "" {
			fmt.Fprintf(&b, "   %s\n", truncate(summary, 240))
		}
	}
	return b.String(), nil
}

// stripHTML extracts visible text from a feed item's HTML description.
func stripHTML(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return strings.TrimSpace(doc.Text())
}

func truncate(s string, maxLen int) string {
	// Rune-wise so a multi-byte character is never split.
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
