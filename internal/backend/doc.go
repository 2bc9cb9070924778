// Package backend abstracts the external wallpaper setters (hyprpaper and
// swww) behind a single Apply interface.
package backend
