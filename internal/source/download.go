package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// maxDownloadBytes caps a single wallpaper download at 100 MiB.
const maxDownloadBytes = 100 << 20

// Downloader fetches image bytes with a shared rate limit.
type Downloader struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewDownloader returns a Downloader with repository default limits.
func NewDownloader() *Downloader {
	return &Downloader{
		client:  newHTTPClient(),
		limiter: newLimiter(500 * time.Millisecond),
	}
}

// Fetch downloads the image at url and returns its bytes.
func (d *Downloader) Fetch(ctx context.Context, url string) ([]byte, error) {
	return fetchImage(ctx, d.client, d.limiter, url, nil)
}

// fetchImage is the shared image download path. Source clients call it with
// their own client, limiter, and auth headers.
func fetchImage(ctx context.Context, client *http.Client, limiter *rate.Limiter, url string, header http.Header) ([]byte, error) {
	if err := limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read download %s: %w", url, err)
	}
	if len(data) > maxDownloadBytes {
		return nil, fmt.Errorf("download %s exceeds %d byte limit", url, maxDownloadBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("download %s returned an empty body", url)
	}
	return data, nil
}

// GuessExtension inspects image magic bytes and returns a file extension
// including the leading dot. Unknown formats fall back to ".jpg".
func GuessExtension(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return ".png"
	case bytes.HasPrefix(data, []byte("\xff\xd8\xff")):
		return ".jpg"
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return ".gif"
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return ".webp"
	case bytes.HasPrefix(data, []byte("BM")):
		return ".bmp"
	default:
		return ".jpg"
	}
}
