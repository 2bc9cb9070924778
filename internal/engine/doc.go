// Package engine implements the display engine: a single goroutine that owns
// the active wallpaper and consumes one ordered command queue fed by the
// rotation timer, the workspace listener, and the IPC server.
package engine
