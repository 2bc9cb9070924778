// Package notify mirrors engine events to desktop notifications through the
// org.freedesktop.Notifications D-Bus interface.
package notify
