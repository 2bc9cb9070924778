package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"muralis/internal/library"
)

const wallhavenBaseURL = "https://wallhaven.cc/api/v1"

// WallhavenClient queries the wallhaven.cc search API.
type WallhavenClient struct {
	baseURL    string
	apiKey     string
	categories string
	purity     string
	client     *http.Client
	limiter    *rate.Limiter
}

// NewWallhaven returns a wallhaven source client.
func NewWallhaven(apiKey, categories, purity string) *WallhavenClient {
	return &WallhavenClient{
		baseURL:    wallhavenBaseURL,
		apiKey:     apiKey,
		categories: categories,
		purity:     purity,
		client:     newHTTPClient(),
		// wallhaven allows 45 requests per minute.
		limiter: newLimiter(1500 * time.Millisecond),
	}
}

func (c *WallhavenClient) Name() string { return "wallhaven" }

func (c *WallhavenClient) Type() library.SourceType { return library.SourceWallhaven }

type wallhavenSearchResponse struct {
	Data []struct {
		ID         string `json:"id"`
		Path       string `json:"path"`
		DimensionX int    `json:"dimension_x"`
		DimensionY int    `json:"dimension_y"`
		Category   string `json:"category"`
		Thumbs     struct {
			Small string `json:"small"`
		} `json:"thumbs"`
	} `json:"data"`
}

// Search queries the wallhaven search endpoint.
func (c *WallhavenClient) Search(ctx context.Context, opts SearchOptions) ([]Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("q", opts.Query)
	query.Set("page", strconv.Itoa(opts.page()))
	query.Set("categories", wallhavenCategoryMask(c.categories))
	query.Set("purity", wallhavenPurityMask(c.purity))
	if c.apiKey != "" {
		query.Set("apikey", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build wallhaven request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wallhaven search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wallhaven search: unexpected status %s", resp.Status)
	}

	var payload wallhavenSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode wallhaven response: %w", err)
	}

	results := make([]Result, 0, len(payload.Data))
	for _, item := range payload.Data {
		if item.Path == "" {
			continue
		}
		result := Result{
			ID:       item.ID,
			URL:      item.Path,
			ThumbURL: item.Thumbs.Small,
			Source:   library.SourceWallhaven,
			Width:    item.DimensionX,
			Height:   item.DimensionY,
		}
		if item.Category != "" {
			result.Tags = []string{item.Category}
		}
		results = append(results, result)
	}
	return results, nil
}

// Download fetches a result's full-resolution image. Wallhaven serves image
// files without authentication.
func (c *WallhavenClient) Download(ctx context.Context, result Result) ([]byte, error) {
	return fetchImage(ctx, c.client, c.limiter, result.URL, nil)
}

// wallhavenCategoryMask converts a comma list such as "general,anime" into
// the API's three-digit bitmask (general/anime/people).
func wallhavenCategoryMask(categories string) string {
	mask := []byte("000")
	for _, category := range splitComma(categories) {
		switch category {
		case "general":
			mask[0] = '1'
		case "anime":
			mask[1] = '1'
		case "people":
			mask[2] = '1'
		}
	}
	if string(mask) == "000" {
		return "100"
	}
	return string(mask)
}

func wallhavenPurityMask(purity string) string {
	switch purity {
	case "sketchy":
		return "110"
	default:
		return "100"
	}
}

func splitComma(value string) []string {
	var parts []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
