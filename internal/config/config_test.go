package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sandbox.toml")
	content := `
[window]
width = 1280
height = 720

[render]
frames_in_flight = 3
present_mode = "fifo"
fence_timeout = 5000000000

[assets]
mesh_path = "meshes/viking_room.obj"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height)
	assert.Equal(t, "Vulkan Sandbox", cfg.Window.Title)
	assert.Equal(t, 3, cfg.Render.FramesInFlight)
	assert.Equal(t, PresentModeFIFO, cfg.Render.PresentMode)
	assert.Equal(t, 5*time.Second, cfg.Render.FenceTimeout)
	assert.Equal(t, "meshes/viking_room.obj", cfg.Assets.MeshPath)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }},
		{"negative height", func(c *Config) { c.Window.Height = -1 }},
		{"zero frames in flight", func(c *Config) { c.Render.FramesInFlight = 0 }},
		{"unknown present mode", func(c *Config) { c.Render.PresentMode = "immediate" }},
		{"negative timeout", func(c *Config) { c.Render.FenceTimeout = -time.Second }},
		{"watch without dir", func(c *Config) { c.Assets.WatchShaders = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
