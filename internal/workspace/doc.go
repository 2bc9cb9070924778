// Package workspace listens to the Hyprland event socket and forwards
// workspace switches to the display engine.
package workspace
