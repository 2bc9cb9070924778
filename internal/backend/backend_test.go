package backend

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"muralis/internal/config"
)

type call struct {
	name string
	args []string
}

func recorder(calls *[]call, fail map[string]error) commandRunner {
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, call{name: name, args: args})
		key := name + " " + strings.Join(args, " ")
		for prefix, err := range fail {
			if strings.HasPrefix(key, prefix) {
				return nil, err
			}
		}
		return nil, nil
	}
}

func TestHyprpaperApplySequence(t *testing.T) {
	var calls []call
	h := NewHyprpaper()
	h.run = recorder(&calls, nil)

	if err := h.Apply(context.Background(), "/w/a.png"); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("calls = %d, want 2 (no unload on first apply)", len(calls))
	}
	if calls[0].args[1] != "preload" || calls[0].args[2] != "/w/a.png" {
		t.Fatalf("first call = %+v", calls[0])
	}
	if calls[1].args[1] != "wallpaper" || calls[1].args[2] != ",/w/a.png" {
		t.Fatalf("second call = %+v", calls[1])
	}

	calls = calls[:0]
	if err := h.Apply(context.Background(), "/w/b.png"); err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if len(calls) != 3 {
		t.Fatalf("calls = %d, want 3 (preload, wallpaper, unload)", len(calls))
	}
	if calls[2].args[1] != "unload" || calls[2].args[2] != "/w/a.png" {
		t.Fatalf("unload call = %+v", calls[2])
	}
}

func TestHyprpaperApplyFailsOnPreloadError(t *testing.T) {
	var calls []call
	h := NewHyprpaper()
	h.run = recorder(&calls, map[string]error{"hyprctl hyprpaper preload": errors.New("boom")})

	if err := h.Apply(context.Background(), "/w/a.png"); err == nil {
		t.Fatal("expected preload error")
	}
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1 (stop after failed preload)", len(calls))
	}
}

func TestSwwwApplyForwardsTransition(t *testing.T) {
	var calls []call
	s := NewSwww(config.Transition{Type: "wipe", Duration: 0.5, FPS: 144, Step: 30})
	s.run = recorder(&calls, nil)

	if err := s.Apply(context.Background(), "/w/a.png"); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(calls) != 1 || calls[0].name != "swww" {
		t.Fatalf("calls = %+v", calls)
	}
	joined := strings.Join(calls[0].args, " ")
	for _, want := range []string{"img /w/a.png", "--transition-type wipe", "--transition-duration 0.5", "--transition-fps 144", "--transition-step 30"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}
}

func TestRunCommandTimesOut(t *testing.T) {
	old := applyTimeout
	applyTimeout = 50 * time.Millisecond
	t.Cleanup(func() { applyTimeout = old })

	start := time.Now()
	if _, err := runCommand(context.Background(), "sleep", "5"); err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("command was not killed promptly, took %v", elapsed)
	}
}

func TestNewSelectsConfiguredBackend(t *testing.T) {
	cfg := config.Default()
	b, err := New(&cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if b.Name() != "hyprpaper" {
		t.Fatalf("backend = %q", b.Name())
	}

	cfg.General.Backend = "swww"
	b, err = New(&cfg)
	if err != nil {
		t.Fatalf("New(swww): %v", err)
	}
	if b.Name() != "swww" {
		t.Fatalf("backend = %q", b.Name())
	}

	cfg.General.Backend = "feh"
	if _, err := New(&cfg); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
