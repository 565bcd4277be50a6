// Package config handles viewer configuration loading and management.
package config

import "time"

// Config holds all viewer settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Renderer RendererConfig `yaml:"renderer"`
	Camera   CameraConfig   `yaml:"camera"`
	Data     DataConfig     `yaml:"data"`
	Remote   RemoteConfig   `yaml:"remote"`
	Watch    WatchConfig    `yaml:"watch"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	FPSLimit   int  `yaml:"fps_limit"`
}

// RendererConfig holds model cache and effect pass settings.
type RendererConfig struct {
	CacheSize           int        `yaml:"cache_size"` // Evicted cars kept on the GPU
	Shadows             bool       `yaml:"shadows"`
	ShadowResolution    int32      `yaml:"shadow_resolution"`
	Reflections         bool       `yaml:"reflections"`
	CubemapResolution   int32      `yaml:"cubemap_resolution"`
	ReflectionThreshold float32    `yaml:"reflection_threshold"` // Distance the car moves before the cubemap is redrawn
	DelayedBBoxUpdate   bool       `yaml:"delayed_bbox_update"`
	AnimationMultiplier float32    `yaml:"animation_multiplier"`
	Light               [3]float32 `yaml:"light"` // Direction towards the light
	MaxTextureSize      int        `yaml:"max_texture_size"`
}

// CameraConfig holds camera controller settings.
type CameraConfig struct {
	MinFovDegrees    float32 `yaml:"min_fov_degrees"`
	MaxFovDegrees    float32 `yaml:"max_fov_degrees"`
	AutoRotate       bool    `yaml:"auto_rotate"`
	AutoAdjustTarget bool    `yaml:"auto_adjust_target"`
}

// DataConfig holds content paths. A leading ~ is expanded.
type DataConfig struct {
	Car        string `yaml:"car"`         // Model file shown at start
	Skin       string `yaml:"skin"`        // Skin id, empty for the default
	Showroom   string `yaml:"showroom"`    // Optional environment model
	CatalogDir string `yaml:"catalog_dir"` // Directory with one subdirectory per car
}

// RemoteConfig holds the remote control server settings.
type RemoteConfig struct {
	Listen string `yaml:"listen"` // Empty disables the server
}

// WatchConfig holds hot reload settings.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,
		},
		Renderer: RendererConfig{
			CacheSize:           2,
			Shadows:             true,
			ShadowResolution:    2048,
			Reflections:         true,
			CubemapResolution:   512,
			ReflectionThreshold: 0.5,
			AnimationMultiplier: 1,
			Light:               [3]float32{-0.2, 1.0, 0.8},
			MaxTextureSize:      2048,
		},
		Camera: CameraConfig{
			MinFovDegrees:    1.8,
			MaxFovDegrees:    144,
			AutoRotate:       true,
			AutoAdjustTarget: true,
		},
		Data: DataConfig{
			CatalogDir: "~/showroom/cars",
		},
		Watch: WatchConfig{
			Enabled:  false,
			Debounce: 300 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
