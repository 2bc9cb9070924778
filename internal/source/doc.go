// Package source implements remote wallpaper providers: wallhaven, Unsplash,
// Pexels, and RSS/Atom feeds. Every client rate limits its own requests.
package source
