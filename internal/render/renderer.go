// Package render owns every Vulkan object behind the sandbox: instance,
// device, swapchain, pipeline, buffers, texture and per-frame sync objects.
// It implements the frame package's collaborator interfaces so the frame
// orchestrator can drive it without knowing about Vulkan.
package render

import (
	"github.com/charmbracelet/log"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/MauricioRTG/VulkanSandbox/internal/assets"
	"github.com/MauricioRTG/VulkanSandbox/internal/config"
	"github.com/MauricioRTG/VulkanSandbox/internal/window"
)

var validationLayers = []string{"VK_LAYER_KHRONOS_validation"}
var deviceExtensions = []string{khr_swapchain.ExtensionName}

// Renderer holds the GPU state of the sandbox. Construction runs the whole
// initialization sequence; Close tears everything down in reverse order.
type Renderer struct {
	cfg    config.Config
	logger *log.Logger
	window *window.Window
	bundle *assets.Bundle

	globalDriver   core1_0.GlobalDriver
	instanceDriver core1_0.CoreInstanceDriver
	deviceDriver   core1_0.CoreDeviceDriver

	debugDriver      ext_debug_utils.ExtensionDriver
	debugMessenger   ext_debug_utils.DebugUtilsMessenger
	surfaceExtension khr_surface.ExtensionDriver
	surface          khr_surface.Surface

	physicalDevice core1_0.PhysicalDevice

	graphicsQueue core1_0.Queue
	presentQueue  core1_0.Queue

	swapchainExtension    khr_swapchain.ExtensionDriver
	swapchain             khr_swapchain.Swapchain
	swapchainImages       []core1_0.Image
	swapchainImageFormat  core1_0.Format
	swapchainExtent       core1_0.Extent2D
	swapchainImageViews   []core1_0.ImageView
	swapchainFramebuffers []core1_0.Framebuffer

	renderPass          core1_0.RenderPass
	descriptorSetLayout core1_0.DescriptorSetLayout
	pipelineLayout      core1_0.PipelineLayout
	pipelineCache       core1_0.PipelineCache
	graphicsPipeline    core1_0.Pipeline

	commandPool core1_0.CommandPool
	// One command buffer per frame slot, reset and re-recorded each frame.
	commandBuffers []core1_0.CommandBuffer

	imageAvailable []core1_0.Semaphore
	renderFinished []core1_0.Semaphore
	inFlight       []core1_0.Fence

	vertexBuffer       core1_0.Buffer
	vertexBufferMemory core1_0.DeviceMemory
	indexBuffer        core1_0.Buffer
	indexBufferMemory  core1_0.DeviceMemory
	indexCount         int

	// Per frame slot, host visible so uniforms can be written every frame.
	uniformBuffers       []core1_0.Buffer
	uniformBuffersMemory []core1_0.DeviceMemory

	descriptorPool core1_0.DescriptorPool
	descriptorSets []core1_0.DescriptorSet

	textureImage       core1_0.Image
	textureImageMemory core1_0.DeviceMemory
	textureImageView   core1_0.ImageView
	textureSampler     core1_0.Sampler
}

// New runs the full Vulkan initialization sequence against an existing
// window and loaded asset bundle.
func New(cfg config.Config, logger *log.Logger, win *window.Window, bundle *assets.Bundle) (*Renderer, error) {
	r := &Renderer{
		cfg:    cfg,
		logger: logger,
		window: win,
		bundle: bundle,
	}

	setup := []struct {
		name string
		fn   func() error
	}{
		{"instance", r.createInstance},
		{"debug messenger", r.setupDebugMessenger},
		{"surface", r.createSurface},
		{"physical device", r.pickPhysicalDevice},
		{"logical device", r.createLogicalDevice},
		{"swapchain", r.createSwapchain},
		{"image views", r.createImageViews},
		{"render pass", r.createRenderPass},
		{"descriptor set layout", r.createDescriptorSetLayout},
		{"pipeline cache", r.createPipelineCache},
		{"graphics pipeline", r.createGraphicsPipeline},
		{"framebuffers", r.createFramebuffers},
		{"command pool", r.createCommandPool},
		{"texture image", r.createTextureImage},
		{"texture image view", r.createTextureImageView},
		{"texture sampler", r.createSampler},
		{"vertex buffer", r.createVertexBuffer},
		{"index buffer", r.createIndexBuffer},
		{"uniform buffers", r.createUniformBuffers},
		{"descriptor pool", r.createDescriptorPool},
		{"descriptor sets", r.createDescriptorSets},
		{"command buffers", r.createCommandBuffers},
		{"sync objects", r.createSyncObjects},
	}

	for _, step := range setup {
		err := step.fn()
		if err != nil {
			r.Close()
			return nil, err
		}
		logger.Debug("initialized", "step", step.name)
	}

	return r, nil
}

// destroySwapchainResources tears down everything recreated on resize:
// framebuffers first, then image views, then the swapchain itself.
func (r *Renderer) destroySwapchainResources() {
	r.DestroyFramebuffers()
	r.DestroyImageViews()
	r.DestroySwapchain()
}

// Close destroys all GPU objects. Safe to call on a partially constructed
// renderer; zero-valued handles are skipped.
func (r *Renderer) Close() {
	if r.deviceDriver != nil {
		_, _ = r.deviceDriver.DeviceWaitIdle()
	}

	r.savePipelineCache()
	r.destroySwapchainResources()

	if r.deviceDriver != nil {
		for i := 0; i < len(r.uniformBuffers); i++ {
			r.deviceDriver.DestroyBuffer(r.uniformBuffers[i], nil)
		}
		r.uniformBuffers = nil
		for i := 0; i < len(r.uniformBuffersMemory); i++ {
			r.deviceDriver.FreeMemory(r.uniformBuffersMemory[i], nil)
		}
		r.uniformBuffersMemory = nil

		if r.descriptorPool.Initialized() {
			r.deviceDriver.DestroyDescriptorPool(r.descriptorPool, nil)
			r.descriptorPool = core1_0.DescriptorPool{}
		}

		if r.textureSampler.Initialized() {
			r.deviceDriver.DestroySampler(r.textureSampler, nil)
		}
		if r.textureImageView.Initialized() {
			r.deviceDriver.DestroyImageView(r.textureImageView, nil)
		}
		if r.textureImage.Initialized() {
			r.deviceDriver.DestroyImage(r.textureImage, nil)
		}
		if r.textureImageMemory.Initialized() {
			r.deviceDriver.FreeMemory(r.textureImageMemory, nil)
		}

		if r.indexBuffer.Initialized() {
			r.deviceDriver.DestroyBuffer(r.indexBuffer, nil)
		}
		if r.indexBufferMemory.Initialized() {
			r.deviceDriver.FreeMemory(r.indexBufferMemory, nil)
		}
		if r.vertexBuffer.Initialized() {
			r.deviceDriver.DestroyBuffer(r.vertexBuffer, nil)
		}
		if r.vertexBufferMemory.Initialized() {
			r.deviceDriver.FreeMemory(r.vertexBufferMemory, nil)
		}

		if r.graphicsPipeline.Initialized() {
			r.deviceDriver.DestroyPipeline(r.graphicsPipeline, nil)
			r.graphicsPipeline = core1_0.Pipeline{}
		}
		if r.pipelineCache.Initialized() {
			r.deviceDriver.DestroyPipelineCache(r.pipelineCache, nil)
			r.pipelineCache = core1_0.PipelineCache{}
		}
		if r.pipelineLayout.Initialized() {
			r.deviceDriver.DestroyPipelineLayout(r.pipelineLayout, nil)
			r.pipelineLayout = core1_0.PipelineLayout{}
		}
		if r.renderPass.Initialized() {
			r.deviceDriver.DestroyRenderPass(r.renderPass, nil)
			r.renderPass = core1_0.RenderPass{}
		}
		if r.descriptorSetLayout.Initialized() {
			r.deviceDriver.DestroyDescriptorSetLayout(r.descriptorSetLayout, nil)
		}

		for _, fence := range r.inFlight {
			r.deviceDriver.DestroyFence(fence, nil)
		}
		r.inFlight = nil
		for _, semaphore := range r.renderFinished {
			r.deviceDriver.DestroySemaphore(semaphore, nil)
		}
		r.renderFinished = nil
		for _, semaphore := range r.imageAvailable {
			r.deviceDriver.DestroySemaphore(semaphore, nil)
		}
		r.imageAvailable = nil

		if r.commandPool.Initialized() {
			r.deviceDriver.DestroyCommandPool(r.commandPool, nil)
		}

		r.deviceDriver.DestroyDevice(nil)
		r.deviceDriver = nil
	}

	if r.debugMessenger.Initialized() {
		r.debugDriver.DestroyDebugUtilsMessenger(r.debugMessenger, nil)
	}
	if r.surface.Initialized() {
		r.surfaceExtension.DestroySurface(r.surface, nil)
	}
	if r.instanceDriver != nil {
		r.instanceDriver.DestroyInstance(nil)
		r.instanceDriver = nil
	}
}
