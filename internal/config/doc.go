// Package config loads, normalizes, and validates the muralis TOML
// configuration. Defaults apply when the file is missing so the daemon can
// start on a fresh system.
package config
