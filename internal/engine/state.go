package engine

import (
	"time"

	"muralis/internal/library"
)

// State is a snapshot of what the engine is displaying.
type State struct {
	Mode        library.DisplayMode `json:"mode"`
	Paused      bool                `json:"paused"`
	CurrentID   int64               `json:"current_id,omitempty"`
	CurrentPath string              `json:"current_path,omitempty"`
	Workspace   int                 `json:"workspace,omitempty"`
	ChangedAt   time.Time           `json:"changed_at,omitempty"`
	NextChange  time.Time           `json:"next_change,omitempty"`
	LastError   string              `json:"last_error,omitempty"`
}

// EventType classifies engine events published to observers.
type EventType string

const (
	EventChanged EventType = "wallpaper_changed"
	EventError   EventType = "error"
	EventPaused  EventType = "paused"
	EventResumed EventType = "resumed"
)

// Event is a passive notification about engine activity. Observers that fall
// behind miss events rather than block the engine.
type Event struct {
	Type  EventType
	State State
}
