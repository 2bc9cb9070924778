package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths resolves the per-user directories muralis reads and writes.
type Paths struct {
	ConfigDir string
	DataDir   string
	CacheDir  string
}

// Resolve builds Paths from the XDG base directories, falling back to
// the conventional dot-directories under the user's home.
func Resolve() (Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, fmt.Errorf("resolve home directory: %w", err)
	}

	configBase := os.Getenv("XDG_CONFIG_HOME")
	if configBase == "" {
		configBase = filepath.Join(home, ".config")
	}
	dataBase := os.Getenv("XDG_DATA_HOME")
	if dataBase == "" {
		dataBase = filepath.Join(home, ".local", "share")
	}
	cacheBase := os.Getenv("XDG_CACHE_HOME")
	if cacheBase == "" {
		cacheBase = filepath.Join(home, ".cache")
	}

	return Paths{
		ConfigDir: filepath.Join(configBase, "muralis"),
		DataDir:   filepath.Join(dataBase, "muralis"),
		CacheDir:  filepath.Join(cacheBase, "muralis"),
	}, nil
}

// ConfigFile returns the default configuration file path.
func (p Paths) ConfigFile() string {
	return filepath.Join(p.ConfigDir, "config.toml")
}

// DatabasePath returns the favorites database location.
func (p Paths) DatabasePath() string {
	return filepath.Join(p.DataDir, "muralis.db")
}

// WallpapersDir returns the directory holding favorited wallpaper files.
func (p Paths) WallpapersDir() string {
	return filepath.Join(p.DataDir, "wallpapers")
}

// PreviewsDir returns the transient preview cache directory.
func (p Paths) PreviewsDir() string {
	return filepath.Join(p.CacheDir, "previews")
}

// LogDir returns the daemon log directory.
func (p Paths) LogDir() string {
	return filepath.Join(p.DataDir, "logs")
}

// SocketPath returns the per-user IPC socket location. The daemon binds
// it exclusively; a second instance fails at the lock before reaching it.
func SocketPath() string {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return filepath.Join(runtimeDir, "muralis.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("muralis-%d.sock", os.Getuid()))
}

// EnsureDirectories creates every directory muralis needs at runtime.
func (p Paths) EnsureDirectories() error {
	for _, dir := range []string{
		p.ConfigDir,
		p.DataDir,
		p.CacheDir,
		p.WallpapersDir(),
		p.PreviewsDir(),
		p.LogDir(),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}
