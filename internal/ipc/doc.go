// Package ipc implements the daemon control protocol: newline-delimited JSON
// over a per-user Unix socket, one request per connection.
package ipc
