// Package library persists the favorites library and the preview cache
// index in SQLite. Favorites are deduplicated by SHA-256 content hash;
// previews are tracked with access times so the cache can be pruned LRU.
package library
