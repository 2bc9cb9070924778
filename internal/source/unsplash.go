package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"muralis/internal/library"
)

const unsplashBaseURL = "https://api.unsplash.com"

// UnsplashClient queries the Unsplash photo search API.
type UnsplashClient struct {
	baseURL   string
	accessKey string
	client    *http.Client
	limiter   *rate.Limiter
}

// NewUnsplash returns an Unsplash source client.
func NewUnsplash(accessKey string) *UnsplashClient {
	return &UnsplashClient{
		baseURL:   unsplashBaseURL,
		accessKey: accessKey,
		client:    newHTTPClient(),
		// demo applications get 50 requests per hour.
		limiter: newLimiter(2 * time.Second),
	}
}

func (c *UnsplashClient) Name() string { return "unsplash" }

func (c *UnsplashClient) Type() library.SourceType { return library.SourceUnsplash }

type unsplashSearchResponse struct {
	Results []struct {
		ID     string `json:"id"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
		URLs   struct {
			Full  string `json:"full"`
			Thumb string `json:"thumb"`
		} `json:"urls"`
		Tags []struct {
			Title string `json:"title"`
		} `json:"tags"`
	} `json:"results"`
}

// Search queries the Unsplash search endpoint.
func (c *UnsplashClient) Search(ctx context.Context, opts SearchOptions) ([]Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("query", opts.Query)
	query.Set("page", strconv.Itoa(opts.page()))
	query.Set("per_page", strconv.Itoa(opts.perPage()))
	if orientation := unsplashOrientation(opts.Aspect); orientation != "" {
		query.Set("orientation", orientation)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/photos?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build unsplash request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unsplash search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unsplash search: unexpected status %s", resp.Status)
	}

	var payload unsplashSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode unsplash response: %w", err)
	}

	results := make([]Result, 0, len(payload.Results))
	for _, item := range payload.Results {
		if item.URLs.Full == "" {
			continue
		}
		result := Result{
			ID:       item.ID,
			URL:      item.URLs.Full,
			ThumbURL: item.URLs.Thumb,
			Source:   library.SourceUnsplash,
			Width:    item.Width,
			Height:   item.Height,
		}
		for _, tag := range item.Tags {
			if tag.Title != "" {
				result.Tags = append(result.Tags, tag.Title)
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// unsplashOrientation maps an aspect filter onto the API's orientation
// parameter. Wallpapers default to landscape when no aspect is requested.
func unsplashOrientation(aspect string) string {
	switch aspect {
	case "portrait":
		return "portrait"
	case "square":
		return "squarish"
	case "any":
		return ""
	default:
		return "landscape"
	}
}

// Download fetches a result's full-resolution image with the access key
// attached, which Unsplash requires for download tracking.
func (c *UnsplashClient) Download(ctx context.Context, result Result) ([]byte, error) {
	header := http.Header{}
	header.Set("Authorization", "Client-ID "+c.accessKey)
	return fetchImage(ctx, c.client, c.limiter, result.URL, header)
}
