// Package cache manages wallpaper files on disk. Favorites are written once
// under a content-hash filename; previews are disposable and pruned LRU
// against a configurable budget that favorites never count toward.
package cache
