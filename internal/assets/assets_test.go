package assets

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MauricioRTG/VulkanSandbox/internal/config"
)

func TestQuadGeometry(t *testing.T) {
	vertices, indices := Quad()

	require.Len(t, vertices, 4)
	require.Len(t, indices, 6)

	for _, idx := range indices {
		assert.Less(t, int(idx), len(vertices))
	}

	// Full texture coverage across the corners.
	assert.Equal(t, float32(0), vertices[0].TexCoord.X())
	assert.Equal(t, float32(1), vertices[2].TexCoord.Y())
}

func TestSPIRVWords(t *testing.T) {
	words, err := SPIRVWords([]byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00})
	require.NoError(t, err)
	// SPIR-V magic number, little endian.
	assert.Equal(t, []uint32{0x07230203, 0x00010000}, words)

	_, err = SPIRVWords([]byte{1, 2, 3})
	assert.Error(t, err)

	_, err = SPIRVWords(nil)
	assert.Error(t, err)
}

func TestLoadDefaultTextureAndQuad(t *testing.T) {
	dir := t.TempDir()
	spirv := []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vert.spv"), spirv, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "frag.spv"), spirv, 0o644))

	bundle, err := Load(context.Background(), config.AssetsConfig{ShaderDir: dir})
	require.NoError(t, err)

	assert.Equal(t, 64, bundle.Texture.Width)
	assert.Equal(t, 64, bundle.Texture.Height)
	assert.Len(t, bundle.Texture.Pixels, 64*64*4)

	assert.Len(t, bundle.Vertices, 4)
	assert.Len(t, bundle.Indices, 6)

	require.NotEmpty(t, bundle.VertexSPIRV)
	assert.Equal(t, uint32(0x07230203), bundle.VertexSPIRV[0])
}

func TestLoadMissingShader(t *testing.T) {
	_, err := Load(context.Background(), config.AssetsConfig{ShaderDir: t.TempDir()})
	require.Error(t, err)
}

func TestWatcherFlagsShaderChanges(t *testing.T) {
	dir := t.TempDir()
	watcher, err := NewWatcher(dir, nil)
	require.NoError(t, err)
	defer watcher.Close()

	assert.False(t, watcher.Dirty())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "vert.spv"), []byte{1, 2, 3, 4}, 0o644))
	require.Eventually(t, watcher.Dirty, time.Second, 10*time.Millisecond)

	// Non-shader files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	time.Sleep(50 * time.Millisecond)
	assert.False(t, watcher.Dirty())
}
