// Package config loads dermascan settings from a YAML file, then applies
// DERMASCAN_* environment overrides. Command-line flags are applied last by
// the caller.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment overrides.
const (
	EnvConfig     = "DERMASCAN_CONFIG"
	EnvEndpoint   = "DERMASCAN_ENDPOINT"
	EnvTimeout    = "DERMASCAN_TIMEOUT"
	EnvCameraFile = "DERMASCAN_CAMERA_FILE"
	EnvLogFile    = "DERMASCAN_LOG_FILE"
	EnvMaxDim     = "DERMASCAN_UPLOAD_MAX_DIMENSION"
)

// DefaultEndpoint is where the classification service listens in local development.
const DefaultEndpoint = "http://127.0.0.1:8000"

// Config holds all settings.
type Config struct {
	Endpoint       string        `yaml:"endpoint"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	StartDir       string        `yaml:"start_dir"`
	Camera         CameraConfig  `yaml:"camera"`
	Upload         UploadConfig  `yaml:"upload"`
	Log            LogConfig     `yaml:"log"`
}

// CameraConfig selects the capture device.
type CameraConfig struct {
	// Facing is "environment" (rear, preferred), "user" or "" for any.
	Facing     string `yaml:"facing"`
	RearDevice int    `yaml:"rear_device"` // -1 when unknown
	Device     int    `yaml:"device"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	// File serves a still image instead of a device when set.
	File string `yaml:"file"`
	// FrameInterval is how often the live view grabs a frame.
	FrameInterval time.Duration `yaml:"frame_interval"`
}

// UploadConfig controls client-side downscaling before upload.
type UploadConfig struct {
	MaxDimension int `yaml:"max_dimension"` // 0 sends originals
	JPEGQuality  int `yaml:"jpeg_quality"`
}

// LogConfig configures the diagnostics log.
type LogConfig struct {
	File    string `yaml:"file"`
	Verbose bool   `yaml:"verbose"`
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		Endpoint:       DefaultEndpoint,
		RequestTimeout: 30 * time.Second,
		StartDir:       homeOr("."),
		Camera: CameraConfig{
			Facing:        "environment",
			RearDevice:    -1,
			Device:        0,
			FrameInterval: 250 * time.Millisecond,
		},
		Upload: UploadConfig{
			MaxDimension: 1024,
			JPEGQuality:  90,
		},
		Log: LogConfig{
			File: filepath.Join(homeOr("."), ".dermascan", "dermascan.log"),
		},
	}
}

// DefaultPath returns the config file location used when none is given.
func DefaultPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "dermascan.yaml"
	}
	return filepath.Join(dir, "dermascan", "config.yaml")
}

// Load reads path over the defaults and applies environment overrides.
// An empty path means DefaultPath, which may be absent; an explicit path
// must exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays DERMASCAN_* variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvEndpoint); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		c.RequestTimeout = d
	}
	if v := os.Getenv(EnvCameraFile); v != "" {
		c.Camera.File = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv(EnvMaxDim); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxDim, err)
		}
		c.Upload.MaxDimension = n
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("endpoint must be an http(s) URL, got %q", c.Endpoint)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	switch c.Camera.Facing {
	case "", "environment", "user":
	default:
		return fmt.Errorf("camera.facing must be environment, user or empty, got %q", c.Camera.Facing)
	}
	if c.Camera.Device < 0 {
		return fmt.Errorf("camera.device must not be negative")
	}
	if c.Camera.FrameInterval <= 0 {
		return fmt.Errorf("camera.frame_interval must be positive")
	}
	if c.Upload.MaxDimension < 0 {
		return fmt.Errorf("upload.max_dimension must not be negative")
	}
	if c.Upload.JPEGQuality < 1 || c.Upload.JPEGQuality > 100 {
		return fmt.Errorf("upload.jpeg_quality must be between 1 and 100")
	}
	return nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func homeOr(fallback string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return fallback
	}
	return home
}
