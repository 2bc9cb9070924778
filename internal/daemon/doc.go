// Package daemon wires the long-running muralis process: the single-instance
// lock, the display engine, the compositor listener, notifications, and the
// control socket dispatcher.
package daemon
