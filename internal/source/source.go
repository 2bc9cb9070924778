package source

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"muralis/internal/library"
)

// Result is a single remote wallpaper candidate returned by a search. ID is
// the provider's own identifier; ThumbURL is a reduced preview of the
// full-resolution URL.
type Result struct {
	ID       string
	URL      string
	ThumbURL string
	Source   library.SourceType
	Width    int
	Height   int
	Tags     []string
}

// SearchOptions control a remote search request. Aspect constrains results
// to landscape, portrait, or square; empty or "any" keeps everything.
type SearchOptions struct {
	Query   string
	Page    int
	PerPage int
	Aspect  string
}

func (o SearchOptions) page() int {
	if o.Page < 1 {
		return 1
	}
	return o.Page
}

func (o SearchOptions) perPage() int {
	if o.PerPage < 1 || o.PerPage > 100 {
		return 24
	}
	return o.PerPage
}

// Source is a remote wallpaper provider. Download fetches a result's
// full-resolution bytes through the provider so credentials travel with the
// request.
type Source interface {
	Name() string
	Type() library.SourceType
	Search(ctx context.Context, opts SearchOptions) ([]Result, error)
	Download(ctx context.Context, result Result) ([]byte, error)
}

// MatchesAspect reports whether the dimensions satisfy the aspect
// constraint. Unknown dimensions always pass rather than hiding entries.
func MatchesAspect(width, height int, aspect string) bool {
	if width <= 0 || height <= 0 {
		return true
	}
	switch aspect {
	case "landscape":
		return width > height
	case "portrait":
		return height > width
	case "square":
		return width == height
	default:
		return true
	}
}

// FilterAspect keeps the results matching the aspect constraint.
func FilterAspect(results []Result, aspect string) []Result {
	aspect = strings.ToLower(strings.TrimSpace(aspect))
	if aspect == "" || aspect == "any" {
		return results
	}
	out := make([]Result, 0, len(results))
	for _, result := range results {
		if MatchesAspect(result.Width, result.Height, aspect) {
			out = append(out, result)
		}
	}
	return out
}

// Registry holds the configured sources keyed by name.
type Registry struct {
	sources map[string]Source
}

// NewRegistry builds a registry from the provided sources. Later entries with
// a duplicate name replace earlier ones.
func NewRegistry(sources ...Source) *Registry {
	registry := &Registry{sources: make(map[string]Source, len(sources))}
	for _, src := range sources {
		if src == nil {
			continue
		}
		registry.sources[strings.ToLower(src.Name())] = src
	}
	return registry
}

// Get returns a source by name.
func (r *Registry) Get(name string) (Source, error) {
	src, ok := r.sources[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("no source named %q is enabled", name)
	}
	return src, nil
}

// Names returns the enabled source names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports how many sources are enabled.
func (r *Registry) Len() int { return len(r.sources) }

const requestTimeout = 30 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

// newLimiter allows one request per interval with a small burst, enough to
// stay well inside the public API quotas of every supported provider.
func newLimiter(interval time.Duration) *rate.Limiter {
	return rate.NewLimiter(rate.Every(interval), 2)
}
