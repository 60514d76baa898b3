package render

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"

	"github.com/MauricioRTG/VulkanSandbox/internal/config"
)

func TestChooseSwapSurfaceFormatPrefersBGRASRGB(t *testing.T) {
	preferred := khr_surface.SurfaceFormat{
		Format:     core1_0.FormatB8G8R8A8SRGB,
		ColorSpace: khr_surface.ColorSpaceSRGBNonlinear,
	}
	other := khr_surface.SurfaceFormat{
		Format:     core1_0.FormatR8G8B8A8SRGB,
		ColorSpace: khr_surface.ColorSpaceSRGBNonlinear,
	}

	require.Equal(t, preferred, chooseSwapSurfaceFormat([]khr_surface.SurfaceFormat{other, preferred}))

	// Falls back to the first advertised format when the preferred one is
	// unavailable.
	require.Equal(t, other, chooseSwapSurfaceFormat([]khr_surface.SurfaceFormat{other}))
}

func TestChooseSwapPresentMode(t *testing.T) {
	tests := []struct {
		name       string
		available  []khr_surface.PresentMode
		preference string
		want       khr_surface.PresentMode
	}{
		{
			name:       "mailbox preferred and available",
			available:  []khr_surface.PresentMode{khr_surface.PresentModeFIFO, khr_surface.PresentModeMailbox},
			preference: config.PresentModeMailbox,
			want:       khr_surface.PresentModeMailbox,
		},
		{
			name:       "mailbox preferred but unavailable",
			available:  []khr_surface.PresentMode{khr_surface.PresentModeFIFO},
			preference: config.PresentModeMailbox,
			want:       khr_surface.PresentModeFIFO,
		},
		{
			name:       "fifo preferred even when mailbox available",
			available:  []khr_surface.PresentMode{khr_surface.PresentModeMailbox, khr_surface.PresentModeFIFO},
			preference: config.PresentModeFIFO,
			want:       khr_surface.PresentModeFIFO,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.want, chooseSwapPresentMode(test.available, test.preference))
		})
	}
}

func TestChooseSwapExtent(t *testing.T) {
	capabilities := &khr_surface.SurfaceCapabilities{
		CurrentExtent:  core1_0.Extent2D{Width: -1, Height: -1},
		MinImageExtent: core1_0.Extent2D{Width: 64, Height: 64},
		MaxImageExtent: core1_0.Extent2D{Width: 4096, Height: 4096},
	}

	extent := chooseSwapExtent(capabilities, 800, 600)
	require.Equal(t, core1_0.Extent2D{Width: 800, Height: 600}, extent)

	// Drawable sizes get clamped into the surface's supported range.
	extent = chooseSwapExtent(capabilities, 16, 10000)
	require.Equal(t, core1_0.Extent2D{Width: 64, Height: 4096}, extent)

	// A fixed current extent wins regardless of the drawable size.
	capabilities.CurrentExtent = core1_0.Extent2D{Width: 1024, Height: 768}
	extent = chooseSwapExtent(capabilities, 800, 600)
	require.Equal(t, core1_0.Extent2D{Width: 1024, Height: 768}, extent)
}

func TestVertexDescriptionsMatchLayout(t *testing.T) {
	bindings := vertexBindingDescriptions()
	require.Len(t, bindings, 1)
	require.Equal(t, 8*int(unsafe.Sizeof(float32(0))), bindings[0].Stride)

	attributes := vertexAttributeDescriptions()
	require.Len(t, attributes, 3)
	require.Equal(t, 0, attributes[0].Offset)
	require.Equal(t, core1_0.FormatR32G32B32SignedFloat, attributes[0].Format)
	require.Equal(t, 12, attributes[1].Offset)
	require.Equal(t, 24, attributes[2].Offset)
	require.Equal(t, core1_0.FormatR32G32SignedFloat, attributes[2].Format)
}
