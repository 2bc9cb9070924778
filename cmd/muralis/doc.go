// Package main hosts the muralis CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into control
// requests against the daemon: display changes, library management, remote
// search, cache maintenance, and configuration scaffolding. Heavy lifting
// lives in the internal packages; commands stay focused on flags and output.
package main
