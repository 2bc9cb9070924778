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

const pexelsBaseURL = "https://api.pexels.com/v1"

// PexelsClient queries the Pexels photo search API.
type PexelsClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

// NewPexels returns a Pexels source client.
func NewPexels(apiKey string) *PexelsClient {
	return &PexelsClient{
		baseURL: pexelsBaseURL,
		apiKey:  apiKey,
		client:  newHTTPClient(),
		limiter: newLimiter(time.Second),
	}
}

func (c *PexelsClient) Name() string { return "pexels" }

func (c *PexelsClient) Type() library.SourceType { return library.SourcePexels }

type pexelsSearchResponse struct {
	Photos []struct {
		ID     int64 `json:"id"`
		Width  int   `json:"width"`
		Height int   `json:"height"`
		Src    struct {
			Original string `json:"original"`
			Medium   string `json:"medium"`
		} `json:"src"`
	} `json:"photos"`
}

// Search queries the Pexels search endpoint.
func (c *PexelsClient) Search(ctx context.Context, opts SearchOptions) ([]Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("query", opts.Query)
	query.Set("page", strconv.Itoa(opts.page()))
	query.Set("per_page", strconv.Itoa(opts.perPage()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build pexels request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pexels search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pexels search: unexpected status %s", resp.Status)
	}

	var payload pexelsSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode pexels response: %w", err)
	}

	results := make([]Result, 0, len(payload.Photos))
	for _, item := range payload.Photos {
		if item.Src.Original == "" {
			continue
		}
		results = append(results, Result{
			ID:       strconv.FormatInt(item.ID, 10),
			URL:      item.Src.Original,
			ThumbURL: item.Src.Medium,
			Source:   library.SourcePexels,
			Width:    item.Width,
			Height:   item.Height,
		})
	}
	return results, nil
}

// Download fetches a result's full-resolution image from the Pexels CDN.
func (c *PexelsClient) Download(ctx context.Context, result Result) ([]byte, error) {
	return fetchImage(ctx, c.client, c.limiter, result.URL, nil)
}
