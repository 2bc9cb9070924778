package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"muralis/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if cfg.General.Backend != "hyprpaper" {
		t.Fatalf("default backend = %q, want hyprpaper", cfg.General.Backend)
	}
	if cfg.Display.Mode != "static" {
		t.Fatalf("default mode = %q, want static", cfg.Display.Mode)
	}
	if cfg.General.CacheMaxMB != 512 {
		t.Fatalf("default cache_max_mb = %d, want 512", cfg.General.CacheMaxMB)
	}
}

func TestLoadParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[general]
backend = "swww"
cache_max_mb = 64

[display]
mode = "sequential"
interval = "90s"

[filter]
aspect = "Landscape"
exclude_tags = ["Anime", "", "anime"]

[[schedules]]
at = "08:00"
tags = ["Morning", "morning"]

[[schedules]]
at = "22:00"
tags = ["dark"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("exists=%v resolved=%q", exists, resolved)
	}
	if cfg.General.Backend != "swww" {
		t.Fatalf("backend = %q", cfg.General.Backend)
	}
	interval, err := cfg.RotationInterval()
	if err != nil {
		t.Fatalf("RotationInterval: %v", err)
	}
	if interval != 90*time.Second {
		t.Fatalf("interval = %s, want 90s", interval)
	}
	if cfg.Filter.Aspect != "landscape" {
		t.Fatalf("aspect = %q, want landscape", cfg.Filter.Aspect)
	}
	if len(cfg.Filter.ExcludeTags) != 1 || cfg.Filter.ExcludeTags[0] != "anime" {
		t.Fatalf("exclude_tags = %v, want [anime]", cfg.Filter.ExcludeTags)
	}
	if len(cfg.Schedules) != 2 {
		t.Fatalf("schedules = %d, want 2", len(cfg.Schedules))
	}
	if len(cfg.Schedules[0].Tags) != 1 || cfg.Schedules[0].Tags[0] != "morning" {
		t.Fatalf("schedule tags = %v, want deduplicated [morning]", cfg.Schedules[0].Tags)
	}
}

func TestLoadRejectsAmbiguousWorkspaceRule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[[workspaces]]\nworkspace = 1\nwallpaper_id = 2\ntag = \"nature\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "exactly one") {
		t.Fatalf("expected selector error, got %v", err)
	}
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[display]\nmode = \"spiral\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "display.mode") {
		t.Fatalf("expected display.mode error, got %v", err)
	}
}

func TestLoadRejectsScheduleModeWithoutEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[display]\nmode = \"schedule\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "schedules") {
		t.Fatalf("expected schedules error, got %v", err)
	}
}

func TestUnsplashKeyFromEnvironment(t *testing.T) {
	t.Setenv("UNSPLASH_ACCESS_KEY", "env-key")
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[sources.unsplash]\nenabled = true\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sources.Unsplash.AccessKey != "env-key" {
		t.Fatalf("access key = %q, want env-key", cfg.Sources.Unsplash.AccessKey)
	}
}

func TestParseInterval(t *testing.T) {
	cases := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "30m", want: 30 * time.Minute},
		{in: "1h", want: time.Hour},
		{in: "90s", want: 90 * time.Second},
		{in: " 45m ", want: 45 * time.Minute},
		{in: "", wantErr: true},
		{in: "fast", wantErr: true},
		{in: "500ms", wantErr: true},
		{in: "-5m", wantErr: true},
	}
	for _, tc := range cases {
		got, err := config.ParseInterval(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseInterval(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseInterval(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseInterval(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "08:30", want: 510},
		{in: "23:59", want: 1439},
		{in: "24:00", wantErr: true},
		{in: "8", wantErr: true},
		{in: "08:60", wantErr: true},
	}
	for _, tc := range cases {
		got, err := config.ParseClock(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("Load(sample): exists=%v err=%v", exists, err)
	}
}
