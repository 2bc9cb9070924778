package engine

import (
	"testing"

	"muralis/internal/config"
	"muralis/internal/library"
)

func TestEligibleAppliesFilter(t *testing.T) {
	wallpapers := []*library.Wallpaper{
		{ID: 1, Width: 3840, Height: 2160, Tags: []string{"nature"}},
		{ID: 2, Width: 1280, Height: 720},
		{ID: 3, Width: 1080, Height: 1920},
		{ID: 4, Width: 2560, Height: 1440, Tags: []string{"anime"}},
		{ID: 5}, // unknown dimensions always pass size and aspect checks
	}

	filter := config.Filter{
		MinWidth:    1920,
		MinHeight:   1080,
		Aspect:      "landscape",
		ExcludeTags: []string{"anime"},
	}

	got := eligible(wallpapers, filter)
	ids := make([]int64, 0, len(got))
	for _, wallpaper := range got {
		ids = append(ids, wallpaper.ID)
	}
	want := []int64{1, 5}
	if len(ids) != len(want) {
		t.Fatalf("eligible ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("eligible ids = %v, want %v", ids, want)
		}
	}
}

func TestMatchingAnyTag(t *testing.T) {
	wallpapers := []*library.Wallpaper{
		{ID: 1, Tags: []string{"nature", "forest"}},
		{ID: 2, Tags: []string{"city"}},
		{ID: 3, Tags: []string{"Forest"}},
		{ID: 4},
	}

	got := matchingAnyTag(wallpapers, []string{"forest", "mountain"})
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Fatalf("matchingAnyTag = %+v, want ids 1 and 3", got)
	}

	if got := matchingAnyTag(wallpapers, []string{"ocean"}); len(got) != 0 {
		t.Fatalf("expected no matches, got %+v", got)
	}
}

func TestPickSequentialWrapsAndRecovers(t *testing.T) {
	candidates := []*library.Wallpaper{{ID: 1}, {ID: 2}, {ID: 3}}

	next, err := pickSequential(candidates, 3)
	if err != nil || next.ID != 1 {
		t.Fatalf("wrap: id=%v err=%v", next, err)
	}

	// A deleted current entry restarts at the front.
	next, err = pickSequential(candidates, 99)
	if err != nil || next.ID != 1 {
		t.Fatalf("recover: id=%v err=%v", next, err)
	}

	if _, err := pickSequential(nil, 1); err == nil {
		t.Fatal("expected error for empty candidates")
	}
}
