// Package daemonctl orchestrates the daemon process from the CLI: launching
// it detached, waiting for the control socket, and stopping it.
package daemonctl
