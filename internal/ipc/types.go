package ipc

import (
	"encoding/json"
	"time"
)

// Command names accepted over the control socket.
const (
	CommandStatus          = "status"
	CommandNext            = "next"
	CommandPrev            = "prev"
	CommandSet             = "set"
	CommandMode            = "mode"
	CommandPause           = "pause"
	CommandResume          = "resume"
	CommandReload          = "reload"
	CommandFavoritesList   = "favorites_list"
	CommandFavoritesStats  = "favorites_stats"
	CommandFavoritesAdd    = "favorites_add"
	CommandFavoritesRemove = "favorites_remove"
	CommandImport          = "import"
	CommandCacheStats      = "cache_stats"
	CommandCachePrune      = "cache_prune"
	CommandSearch          = "search"
	CommandQuit            = "quit"
)

// Request is one newline-delimited JSON control message. Exactly one request
// is served per connection.
type Request struct {
	Command string `json:"command"`
	ID      int64  `json:"id,omitempty"`
	Mode    string `json:"mode,omitempty"`
	URL     string `json:"url,omitempty"`
	Source  string `json:"source,omitempty"`
	Path    string `json:"path,omitempty"`
	Query   string `json:"query,omitempty"`
	Page    int    `json:"page,omitempty"`
	PerPage int    `json:"per_page,omitempty"`
	Aspect  string `json:"aspect,omitempty"`
}

// Response statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Response is the single reply to a request.
type Response struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// OK wraps a payload in a successful response.
func OK(data any) Response {
	if data == nil {
		return Response{Status: StatusOK}
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return Error("encode response: " + err.Error())
	}
	return Response{Status: StatusOK, Data: encoded}
}

// Error builds a failure response.
func Error(message string) Response {
	return Response{Status: StatusError, Message: message}
}

// StatusData mirrors the engine state for clients.
type StatusData struct {
	PID         int       `json:"pid"`
	Mode        string    `json:"mode"`
	Paused      bool      `json:"paused"`
	CurrentID   int64     `json:"current_id,omitempty"`
	CurrentPath string    `json:"current_path,omitempty"`
	Workspace   int       `json:"workspace,omitempty"`
	ChangedAt   time.Time `json:"changed_at,omitempty"`
	NextChange  time.Time `json:"next_change,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}

// WallpaperData describes a library entry for clients.
type WallpaperData struct {
	ID          int64      `json:"id"`
	ContentHash string     `json:"content_hash"`
	Path        string     `json:"path"`
	Source      string     `json:"source"`
	SourceURL   string     `json:"source_url,omitempty"`
	Width       int        `json:"width,omitempty"`
	Height      int        `json:"height,omitempty"`
	SizeBytes   int64      `json:"size_bytes"`
	Tags        []string   `json:"tags,omitempty"`
	FavoritedAt time.Time  `json:"favorited_at"`
	LastUsed    *time.Time `json:"last_used,omitempty"`
	UseCount    int64      `json:"use_count"`
}

// FavoritesListData is the favorites_list payload.
type FavoritesListData struct {
	Wallpapers []WallpaperData `json:"wallpapers"`
}

// StatsData is the favorites_stats and cache_stats payload.
type StatsData struct {
	Favorites     int            `json:"favorites"`
	FavoriteBytes int64          `json:"favorite_bytes"`
	BySource      map[string]int `json:"by_source,omitempty"`
	Previews      int            `json:"previews"`
	PreviewBytes  int64          `json:"preview_bytes"`
	BudgetBytes   int64          `json:"budget_bytes"`
}

// PruneData is the cache_prune payload.
type PruneData struct {
	Removed        int   `json:"removed"`
	FreedBytes     int64 `json:"freed_bytes"`
	RemainingBytes int64 `json:"remaining_bytes"`
}

// SearchResultData is one remote search hit.
type SearchResultData struct {
	ID       string   `json:"id,omitempty"`
	URL      string   `json:"url"`
	ThumbURL string   `json:"thumb_url,omitempty"`
	Source   string   `json:"source"`
	Width    int      `json:"width,omitempty"`
	Height   int      `json:"height,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// SearchData is the search payload.
type SearchData struct {
	Results []SearchResultData `json:"results"`
}
