// Package config loads the sandbox's startup configuration from an optional
// TOML file. Every field has a sensible default so the application runs with
// no file at all.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
)

// Present mode preferences. Mailbox falls back to FIFO when the surface does
// not support it; FIFO is always available.
const (
	PresentModeFIFO    = "fifo"
	PresentModeMailbox = "mailbox"
)

// Config is the full startup configuration.
type Config struct {
	Window WindowConfig `toml:"window"`
	Render RenderConfig `toml:"render"`
	Assets AssetsConfig `toml:"assets"`
}

type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

type RenderConfig struct {
	// FramesInFlight is the number of frame slots rendered with GPU-level
	// overlap. Two gives double buffering.
	FramesInFlight int `toml:"frames_in_flight"`
	// PresentMode is the preferred presentation mode: "fifo" or "mailbox".
	PresentMode string `toml:"present_mode"`
	// FenceTimeout bounds the per-frame fence wait. Zero waits forever.
	FenceTimeout time.Duration `toml:"fence_timeout"`
	// Validation enables the Khronos validation layer and debug messenger.
	Validation bool `toml:"validation"`
	// PipelineCachePath persists the driver pipeline cache between runs.
	// Empty disables persistence.
	PipelineCachePath string `toml:"pipeline_cache_path"`
}

type AssetsConfig struct {
	// TexturePath overrides the embedded quad texture.
	TexturePath string `toml:"texture_path"`
	// MeshPath renders an OBJ mesh instead of the built-in quad.
	MeshPath string `toml:"mesh_path"`
	// ShaderDir is where compiled SPIR-V shaders live. Empty uses the
	// shaders embedded in the binary.
	ShaderDir string `toml:"shader_dir"`
	// WatchShaders rebuilds the pipeline when files in ShaderDir change.
	WatchShaders bool `toml:"watch_shaders"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:  "Vulkan Sandbox",
			Width:  800,
			Height: 600,
		},
		Render: RenderConfig{
			FramesInFlight:    2,
			PresentMode:       PresentModeMailbox,
			PipelineCachePath: "pipeline_cache.bin",
		},
	}
}

// Load reads a TOML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config file %s", path)
	}

	err = toml.Unmarshal(data, &cfg)
	if err != nil {
		return cfg, errors.Wrapf(err, "parsing config file %s", path)
	}

	return cfg, cfg.Validate()
}

// Validate rejects configurations the renderer cannot honor.
func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Render.FramesInFlight < 1 {
		return errors.Errorf("frames_in_flight must be at least 1, got %d", c.Render.FramesInFlight)
	}
	if c.Render.PresentMode != PresentModeFIFO && c.Render.PresentMode != PresentModeMailbox {
		return errors.Errorf("present_mode must be %q or %q, got %q", PresentModeFIFO, PresentModeMailbox, c.Render.PresentMode)
	}
	if c.Render.FenceTimeout < 0 {
		return errors.Errorf("fence_timeout must not be negative, got %s", c.Render.FenceTimeout)
	}
	if c.Assets.WatchShaders && c.Assets.ShaderDir == "" {
		return errors.New("watch_shaders requires shader_dir to be set")
	}
	return nil
}
