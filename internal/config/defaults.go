package config

const (
	defaultBackend             = "hyprpaper"
	defaultCacheMaxMB          = 512
	defaultDisplayMode         = "static"
	defaultDisplayInterval     = "30m"
	defaultTransitionType      = "fade"
	defaultTransitionDuration  = 1.0
	defaultTransitionFPS       = 60
	defaultTransitionStep      = 90
	defaultWallhavenCategories = "general"
	defaultWallhavenPurity     = "sfw"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		General: General{
			Backend:       defaultBackend,
			CacheMaxMB:    defaultCacheMaxMB,
			Notifications: true,
		},
		Display: Display{
			Mode:     defaultDisplayMode,
			Interval: defaultDisplayInterval,
		},
		Transition: Transition{
			Type:     defaultTransitionType,
			Duration: defaultTransitionDuration,
			FPS:      defaultTransitionFPS,
			Step:     defaultTransitionStep,
		},
		Sources: Sources{
			Wallhaven: Wallhaven{
				Categories: defaultWallhavenCategories,
				Purity:     defaultWallhavenPurity,
			},
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
