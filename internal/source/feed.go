package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"muralis/internal/library"
)

// FeedClient treats an RSS/Atom feed as a wallpaper source. Entries must
// carry an image enclosure or link directly to an image file.
type FeedClient struct {
	name    string
	url     string
	parser  *gofeed.Parser
	client  *http.Client
	limiter *rate.Limiter
}

// NewFeed returns a feed source client for a single feed URL.
func NewFeed(name, feedURL string) *FeedClient {
	client := newHTTPClient()
	parser := gofeed.NewParser()
	parser.Client = client
	if name == "" {
		name = "feed"
	}
	return &FeedClient{
		name:    name,
		url:     feedURL,
		parser:  parser,
		client:  client,
		limiter: newLimiter(5 * time.Second),
	}
}

func (c *FeedClient) Name() string { return c.name }

func (c *FeedClient) Type() library.SourceType { return library.SourceFeed }

// Search fetches the feed and returns its image entries. The query filters
// entries by title substring; paging is ignored since feeds are small.
func (c *FeedClient) Search(ctx context.Context, opts SearchOptions) ([]Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feed, err := c.parser.ParseURLWithContext(c.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", c.url, err)
	}

	query := strings.ToLower(strings.TrimSpace(opts.Query))
	var results []Result
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(item.Title), query) {
			continue
		}
		imageURL := feedItemImage(item)
		if imageURL == "" {
			continue
		}
		result := Result{
			ID:     item.GUID,
			URL:    imageURL,
			Source: library.SourceFeed,
			Tags:   item.Categories,
		}
		if item.Image != nil {
			result.ThumbURL = item.Image.URL
		}
		results = append(results, result)
	}
	return results, nil
}

// Download fetches a feed entry's image.
func (c *FeedClient) Download(ctx context.Context, result Result) ([]byte, error) {
	return fetchImage(ctx, c.client, c.limiter, result.URL, nil)
}

func feedItemImage(item *gofeed.Item) string {
	for _, enclosure := range item.Enclosures {
		if enclosure == nil {
			continue
		}
		if strings.HasPrefix(enclosure.Type, "image/") && enclosure.URL != "" {
			return enclosure.URL
		}
	}
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	if linksToImage(item.Link) {
		return item.Link
	}
	return ""
}

func linksToImage(link string) bool {
	lowered := strings.ToLower(link)
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp"} {
		if strings.HasSuffix(lowered, ext) {
			return true
		}
	}
	return false
}
