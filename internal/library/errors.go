package library

import "errors"

// ErrNotFound indicates the requested wallpaper does not exist.
var ErrNotFound = errors.New("wallpaper not found")

// ErrDuplicate indicates a wallpaper with the same content hash already exists.
var ErrDuplicate = errors.New("wallpaper already in library")
