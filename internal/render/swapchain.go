package render

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/MauricioRTG/VulkanSandbox/internal/config"
)

func (r *Renderer) createSwapchain() error {
	if r.swapchainExtension == nil {
		r.swapchainExtension = khr_swapchain.CreateExtensionDriverFromCoreDriver(r.deviceDriver)
	}

	width, height := r.window.DrawableSize()
	_, err := r.buildSwapchain(width, height)
	return err
}

// buildSwapchain creates a swapchain against the given drawable size and
// reports whether the chosen surface format differs from the previous one.
func (r *Renderer) buildSwapchain(width, height int) (formatChanged bool, err error) {
	swapchainSupport, err := r.querySwapChainSupport(r.physicalDevice)
	if err != nil {
		return false, err
	}

	surfaceFormat := chooseSwapSurfaceFormat(swapchainSupport.Formats)
	presentMode := chooseSwapPresentMode(swapchainSupport.PresentModes, r.cfg.Render.PresentMode)
	extent := chooseSwapExtent(swapchainSupport.Capabilities, width, height)

	imageCount := swapchainSupport.Capabilities.MinImageCount + 1
	if swapchainSupport.Capabilities.MaxImageCount > 0 && swapchainSupport.Capabilities.MaxImageCount < imageCount {
		imageCount = swapchainSupport.Capabilities.MaxImageCount
	}

	sharingMode := core1_0.SharingModeExclusive
	var queueFamilyIndices []int

	indices, err := r.findQueueFamilies(r.physicalDevice)
	if err != nil {
		return false, err
	}

	if *indices.GraphicsFamily != *indices.PresentFamily {
		sharingMode = core1_0.SharingModeConcurrent
		queueFamilyIndices = append(queueFamilyIndices, *indices.GraphicsFamily, *indices.PresentFamily)
	}

	swapchain, _, err := r.swapchainExtension.CreateSwapchain(nil, khr_swapchain.SwapchainCreateInfo{
		Surface: r.surface,

		MinImageCount:    imageCount,
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform:   swapchainSupport.Capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    presentMode,
		Clipped:        true,
	})
	if err != nil {
		return false, errors.Wrap(err, "creating swapchain")
	}

	formatChanged = r.swapchainImageFormat != 0 && r.swapchainImageFormat != surfaceFormat.Format
	r.swapchain = swapchain
	r.swapchainExtent = extent
	r.swapchainImageFormat = surfaceFormat.Format

	return formatChanged, nil
}

func (r *Renderer) createImageViews() error {
	images, _, err := r.swapchainExtension.GetSwapchainImages(r.swapchain)
	if err != nil {
		return errors.Wrap(err, "fetching swapchain images")
	}
	r.swapchainImages = images

	var imageViews []core1_0.ImageView
	for _, image := range images {
		view, err := r.createImageView(image, r.swapchainImageFormat)
		if err != nil {
			return err
		}

		imageViews = append(imageViews, view)
	}
	r.swapchainImageViews = imageViews

	return nil
}

func (r *Renderer) createFramebuffers() error {
	for _, imageView := range r.swapchainImageViews {
		framebuffer, _, err := r.deviceDriver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
			RenderPass: r.renderPass,
			Layers:     1,
			Attachments: []core1_0.ImageView{
				imageView,
			},
			Width:  r.swapchainExtent.Width,
			Height: r.swapchainExtent.Height,
		})
		if err != nil {
			return errors.Wrap(err, "creating framebuffer")
		}

		r.swapchainFramebuffers = append(r.swapchainFramebuffers, framebuffer)
	}

	return nil
}

// The following methods implement frame.Rebuilder. The frame orchestrator
// owns the ordering; each performs exactly one step.

func (r *Renderer) DestroyFramebuffers() {
	if r.deviceDriver == nil {
		return
	}
	for _, framebuffer := range r.swapchainFramebuffers {
		r.deviceDriver.DestroyFramebuffer(framebuffer, nil)
	}
	r.swapchainFramebuffers = nil
}

func (r *Renderer) DestroyImageViews() {
	if r.deviceDriver == nil {
		return
	}
	for _, imageView := range r.swapchainImageViews {
		r.deviceDriver.DestroyImageView(imageView, nil)
	}
	r.swapchainImageViews = nil
}

func (r *Renderer) DestroySwapchain() {
	if r.swapchain.Initialized() {
		r.swapchainExtension.DestroySwapchain(r.swapchain, nil)
		r.swapchain = khr_swapchain.Swapchain{}
	}
	r.swapchainImages = nil
}

func (r *Renderer) CreateSwapchain(width, height int) (bool, error) {
	return r.buildSwapchain(width, height)
}

func (r *Renderer) CreateImageViews() error {
	return r.createImageViews()
}

func (r *Renderer) CreateFramebuffers() error {
	return r.createFramebuffers()
}

func chooseSwapSurfaceFormat(availableFormats []khr_surface.SurfaceFormat) khr_surface.SurfaceFormat {
	for _, format := range availableFormats {
		if format.Format == core1_0.FormatB8G8R8A8SRGB && format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
			return format
		}
	}

	return availableFormats[0]
}

// chooseSwapPresentMode honors the configured preference when the surface
// supports it. FIFO is always available per the Vulkan contract.
func chooseSwapPresentMode(availablePresentModes []khr_surface.PresentMode, preference string) khr_surface.PresentMode {
	if preference == config.PresentModeMailbox {
		for _, presentMode := range availablePresentModes {
			if presentMode == khr_surface.PresentModeMailbox {
				return presentMode
			}
		}
	}

	return khr_surface.PresentModeFIFO
}

func chooseSwapExtent(capabilities *khr_surface.SurfaceCapabilities, width, height int) core1_0.Extent2D {
	if capabilities.CurrentExtent.Width != -1 {
		return capabilities.CurrentExtent
	}

	if width < capabilities.MinImageExtent.Width {
		width = capabilities.MinImageExtent.Width
	}
	if width > capabilities.MaxImageExtent.Width {
		width = capabilities.MaxImageExtent.Width
	}
	if height < capabilities.MinImageExtent.Height {
		height = capabilities.MinImageExtent.Height
	}
	if height > capabilities.MaxImageExtent.Height {
		height = capabilities.MaxImageExtent.Height
	}

	return core1_0.Extent2D{Width: width, Height: height}
}
