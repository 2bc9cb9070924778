package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mmcdole/gofeed"

	"muralis/internal/config"
	"muralis/internal/library"
)

func TestWallhavenSearchParsesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("categories"); got != "110" {
			t.Errorf("categories = %q, want 110", got)
		}
		if got := r.URL.Query().Get("purity"); got != "100" {
			t.Errorf("purity = %q, want 100", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"id":"abc123","path":"https://w.example/full/a.png","dimension_x":2560,"dimension_y":1440,"category":"general","thumbs":{"small":"https://w.example/small/a.png"}},
			{"id":"gone","path":"","dimension_x":1,"dimension_y":1,"category":"anime"}
		]}`))
	}))
	defer server.Close()

	client := NewWallhaven("", "general,anime", "sfw")
	client.baseURL = server.URL

	results, err := client.Search(context.Background(), SearchOptions{Query: "mountains"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1 (empty path skipped)", len(results))
	}
	if results[0].Source != library.SourceWallhaven || results[0].Width != 2560 {
		t.Fatalf("result = %+v", results[0])
	}
	if results[0].ID != "abc123" || results[0].ThumbURL != "https://w.example/small/a.png" {
		t.Fatalf("result id/thumb = %q/%q", results[0].ID, results[0].ThumbURL)
	}
}

func TestUnsplashSearchSendsAuthHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Client-ID test-key" {
			t.Errorf("authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"id":"ph-1","width":3840,"height":2160,"urls":{"full":"https://u.example/full.jpg","thumb":"https://u.example/thumb.jpg"},"tags":[{"title":"ocean"}]}
		]}`))
	}))
	defer server.Close()

	client := NewUnsplash("test-key")
	client.baseURL = server.URL

	results, err := client.Search(context.Background(), SearchOptions{Query: "ocean"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Tags[0] != "ocean" {
		t.Fatalf("results = %+v", results)
	}
	if results[0].ID != "ph-1" || results[0].ThumbURL != "https://u.example/thumb.jpg" {
		t.Fatalf("result id/thumb = %q/%q", results[0].ID, results[0].ThumbURL)
	}
}

func TestUnsplashDownloadSendsAuthHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Client-ID test-key" {
			t.Errorf("authorization = %q", got)
		}
		_, _ = w.Write([]byte("\x89PNG\r\n\x1a\nimage-bytes"))
	}))
	defer server.Close()

	client := NewUnsplash("test-key")
	data, err := client.Download(context.Background(), Result{URL: server.URL + "/photo.png"})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("download returned no bytes")
	}
}

func TestUnsplashOrientation(t *testing.T) {
	cases := map[string]string{
		"":          "landscape",
		"landscape": "landscape",
		"portrait":  "portrait",
		"square":    "squarish",
		"any":       "",
	}
	for in, want := range cases {
		if got := unsplashOrientation(in); got != want {
			t.Errorf("unsplashOrientation(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPexelsSearchRejectsBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewPexels("key")
	client.baseURL = server.URL

	if _, err := client.Search(context.Background(), SearchOptions{Query: "x"}); err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestWallhavenCategoryMask(t *testing.T) {
	cases := map[string]string{
		"general":              "100",
		"anime":                "010",
		"general,anime,people": "111",
		"":                     "100",
		"bogus":                "100",
	}
	for in, want := range cases {
		if got := wallhavenCategoryMask(in); got != want {
			t.Errorf("wallhavenCategoryMask(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitComma(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{in: "general,anime", want: []string{"general", "anime"}},
		{in: " general , anime ", want: []string{"general", "anime"}},
		{in: "general,,anime,", want: []string{"general", "anime"}},
		{in: "", want: nil},
		{in: " , ", want: nil},
	}
	for _, tc := range cases {
		got := splitComma(tc.in)
		if len(got) != len(tc.want) {
			t.Errorf("splitComma(%q) = %v, want %v", tc.in, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("splitComma(%q) = %v, want %v", tc.in, got, tc.want)
				break
			}
		}
	}
}

func TestFilterAspect(t *testing.T) {
	results := []Result{
		{ID: "wide", Width: 2560, Height: 1440},
		{ID: "tall", Width: 1080, Height: 1920},
		{ID: "box", Width: 1000, Height: 1000},
		{ID: "unknown"},
	}

	if got := FilterAspect(results, ""); len(got) != 4 {
		t.Fatalf("no filter kept %d results, want 4", len(got))
	}
	if got := FilterAspect(results, "any"); len(got) != 4 {
		t.Fatalf("any kept %d results, want 4", len(got))
	}

	landscape := FilterAspect(results, "landscape")
	if len(landscape) != 2 || landscape[0].ID != "wide" || landscape[1].ID != "unknown" {
		t.Fatalf("landscape = %+v", landscape)
	}

	portrait := FilterAspect(results, " Portrait ")
	if len(portrait) != 2 || portrait[0].ID != "tall" {
		t.Fatalf("portrait = %+v", portrait)
	}

	square := FilterAspect(results, "square")
	if len(square) != 2 || square[0].ID != "box" {
		t.Fatalf("square = %+v", square)
	}
}

func TestGuessExtension(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{name: "png", data: []byte("\x89PNG\r\n\x1a\nrest"), want: ".png"},
		{name: "jpeg", data: []byte("\xff\xd8\xff\xe0rest"), want: ".jpg"},
		{name: "gif", data: []byte("GIF89arest"), want: ".gif"},
		{name: "webp", data: []byte("RIFF\x00\x00\x00\x00WEBPrest"), want: ".webp"},
		{name: "bmp", data: []byte("BMrest"), want: ".bmp"},
		{name: "unknown", data: []byte("plain text"), want: ".jpg"},
	}
	for _, tc := range cases {
		if got := GuessExtension(tc.data); got != tc.want {
			t.Errorf("%s: GuessExtension = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestFeedItemImagePrefersEnclosure(t *testing.T) {
	item := &gofeed.Item{
		Link: "https://example.com/post.html",
		Enclosures: []*gofeed.Enclosure{
			{URL: "https://example.com/audio.mp3", Type: "audio/mpeg"},
			{URL: "https://example.com/pic.jpg", Type: "image/jpeg"},
		},
	}
	if got := feedItemImage(item); got != "https://example.com/pic.jpg" {
		t.Fatalf("feedItemImage = %q", got)
	}

	plain := &gofeed.Item{Link: "https://example.com/direct.png"}
	if got := feedItemImage(plain); got != "https://example.com/direct.png" {
		t.Fatalf("feedItemImage(direct) = %q", got)
	}

	none := &gofeed.Item{Link: "https://example.com/post.html"}
	if got := feedItemImage(none); got != "" {
		t.Fatalf("feedItemImage(none) = %q", got)
	}
}

func TestRegistryFromConfig(t *testing.T) {
	registry := FromConfig(config.Sources{
		Wallhaven: config.Wallhaven{Enabled: true, Categories: "general", Purity: "sfw"},
		Feeds:     []config.Feed{{Name: "bing", URL: "https://example.com/feed.rss"}},
	})
	if registry.Len() != 2 {
		t.Fatalf("len = %d, want 2", registry.Len())
	}
	if _, err := registry.Get("wallhaven"); err != nil {
		t.Fatalf("Get(wallhaven): %v", err)
	}
	if _, err := registry.Get("unsplash"); err == nil {
		t.Fatal("expected error for disabled source")
	}
	names := registry.Names()
	if len(names) != 2 || names[0] != "bing" {
		t.Fatalf("names = %v", names)
	}
}
