package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagCar        = flag.String("car", "", "Model file to show")
	flagSkin       = flag.String("skin", "", "Skin id to select")
	flagShowroom   = flag.String("showroom", "", "Environment model file")
	flagListen     = flag.String("listen", "", "Remote control address, e.g. 127.0.0.1:8765")
	flagCache      = flag.Int("cache", -1, "Number of evicted cars kept on the GPU")
	flagWatch      = flag.Bool("watch", false, "Reload the car when its files change")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagCar != "" {
		cfg.Data.Car = *flagCar
	}
	if *flagSkin != "" {
		cfg.Data.Skin = *flagSkin
	}
	if *flagShowroom != "" {
		cfg.Data.Showroom = *flagShowroom
	}
	if *flagListen != "" {
		cfg.Remote.Listen = *flagListen
	}
	if *flagCache >= 0 {
		cfg.Renderer.CacheSize = *flagCache
	}
	if *flagWatch {
		cfg.Watch.Enabled = true
	}
	if *flagWindowed {
		cfg.Graphics.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
}
