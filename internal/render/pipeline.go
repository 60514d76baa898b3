package render

import (
	"bytes"
	"encoding/binary"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

func (r *Renderer) createRenderPass() error {
	renderPass, _, err := r.deviceDriver.CreateRenderPass(nil, core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         r.swapchainImageFormat,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
			},
		},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				DstAccessMask: core1_0.AccessColorAttachmentWrite,
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "creating render pass")
	}

	r.renderPass = renderPass
	return nil
}

func (r *Renderer) createDescriptorSetLayout() error {
	var err error
	r.descriptorSetLayout, _, err = r.deviceDriver.CreateDescriptorSetLayout(nil, core1_0.DescriptorSetLayoutCreateInfo{
		Bindings: []core1_0.DescriptorSetLayoutBinding{
			{
				Binding:         0,
				DescriptorType:  core1_0.DescriptorTypeUniformBuffer,
				DescriptorCount: 1,

				StageFlags: core1_0.StageVertex,
			},
			{
				Binding:         1,
				DescriptorType:  core1_0.DescriptorTypeCombinedImageSampler,
				DescriptorCount: 1,

				StageFlags: core1_0.StageFragment,
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "creating descriptor set layout")
	}

	return nil
}

// createPipelineCache seeds the driver pipeline cache from disk when the
// persisted header matches this device. A mismatched or corrupt file is
// discarded and repopulated on shutdown.
func (r *Renderer) createPipelineCache() error {
	var initialData []byte

	path := r.cfg.Render.PipelineCachePath
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil && r.validateCacheHeader(data) {
			initialData = data
			r.logger.Debug("reusing persisted pipeline cache", "path", path, "bytes", len(data))
		} else if err == nil {
			r.logger.Info("discarding stale pipeline cache", "path", path)
			_ = os.Remove(path)
		}
	}

	var err error
	r.pipelineCache, _, err = r.deviceDriver.CreatePipelineCache(nil, core1_0.PipelineCacheCreateInfo{
		InitialData: initialData,
	})
	if err != nil {
		return errors.Wrap(err, "creating pipeline cache")
	}

	return nil
}

// validateCacheHeader checks the Vulkan pipeline-cache header (length,
// version, vendor/device IDs and cache UUID) against the selected device.
func (r *Renderer) validateCacheHeader(data []byte) bool {
	properties, err := r.instanceDriver.GetPhysicalDeviceProperties(r.physicalDevice)
	if err != nil {
		return false
	}

	reader := bytes.NewReader(data)

	var headerLength uint32
	var cacheHeaderVersion common.PipelineCacheHeaderVersion
	var vendorID, deviceID uint32
	var cacheUUID uuid.UUID

	for _, field := range []any{&headerLength, &cacheHeaderVersion, &vendorID, &deviceID, &cacheUUID} {
		err = binary.Read(reader, common.ByteOrder, field)
		if err != nil {
			return false
		}
	}

	return headerLength > 0 &&
		cacheHeaderVersion == common.PipelineCacheHeaderVersion1 &&
		vendorID == properties.VendorID &&
		deviceID == properties.DeviceID &&
		cacheUUID == properties.PipelineCacheUUID
}

// savePipelineCache persists the cache so later runs skip pipeline
// compilation. Failures are logged, never fatal.
func (r *Renderer) savePipelineCache() {
	path := r.cfg.Render.PipelineCachePath
	if path == "" || r.deviceDriver == nil || !r.pipelineCache.Initialized() {
		return
	}

	data, _, err := r.deviceDriver.GetPipelineCacheData(r.pipelineCache)
	if err != nil {
		r.logger.Warn("fetching pipeline cache data", "err", err)
		return
	}

	err = os.WriteFile(path, data, 0o644)
	if err != nil {
		r.logger.Warn("persisting pipeline cache", "err", err)
	}
}

func (r *Renderer) createGraphicsPipeline() error {
	vertShader, _, err := r.deviceDriver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: r.bundle.VertexSPIRV,
	})
	if err != nil {
		return errors.Wrap(err, "creating vertex shader module")
	}
	defer r.deviceDriver.DestroyShaderModule(vertShader, nil)

	fragShader, _, err := r.deviceDriver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: r.bundle.FragmentSPIRV,
	})
	if err != nil {
		return errors.Wrap(err, "creating fragment shader module")
	}
	defer r.deviceDriver.DestroyShaderModule(fragShader, nil)

	vertexInput := &core1_0.PipelineVertexInputStateCreateInfo{
		VertexBindingDescriptions:   vertexBindingDescriptions(),
		VertexAttributeDescriptions: vertexAttributeDescriptions(),
	}

	inputAssembly := &core1_0.PipelineInputAssemblyStateCreateInfo{
		Topology:               core1_0.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: false,
	}

	vertStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:  core1_0.StageVertex,
		Module: vertShader,
		Name:   "main",
	}

	fragStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:  core1_0.StageFragment,
		Module: fragShader,
		Name:   "main",
	}

	// Viewport and scissor are dynamic so the pipeline survives swapchain
	// recreation; only their counts are baked in.
	viewport := &core1_0.PipelineViewportStateCreateInfo{
		Viewports: make([]core1_0.Viewport, 1),
		Scissors:  make([]core1_0.Rect2D, 1),
	}

	dynamicState := &core1_0.PipelineDynamicStateCreateInfo{
		DynamicStates: []core1_0.DynamicState{
			core1_0.DynamicStateViewport,
			core1_0.DynamicStateScissor,
		},
	}

	rasterization := &core1_0.PipelineRasterizationStateCreateInfo{
		DepthClampEnable:        false,
		RasterizerDiscardEnable: false,

		PolygonMode: core1_0.PolygonModeFill,
		CullMode:    core1_0.CullModeBack,
		FrontFace:   core1_0.FrontFaceCounterClockwise,

		DepthBiasEnable: false,

		LineWidth: 1.0,
	}

	multisample := &core1_0.PipelineMultisampleStateCreateInfo{
		SampleShadingEnable:  false,
		RasterizationSamples: core1_0.Samples1,
		MinSampleShading:     1.0,
	}

	colorBlend := &core1_0.PipelineColorBlendStateCreateInfo{
		LogicOpEnabled: false,
		LogicOp:        core1_0.LogicOpCopy,

		BlendConstants: [4]float32{0, 0, 0, 0},
		Attachments: []core1_0.PipelineColorBlendAttachmentState{
			{
				BlendEnabled:   false,
				ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
			},
		},
	}

	if !r.pipelineLayout.Initialized() {
		r.pipelineLayout, _, err = r.deviceDriver.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{
			SetLayouts: []core1_0.DescriptorSetLayout{
				r.descriptorSetLayout,
			},
		})
		if err != nil {
			return errors.Wrap(err, "creating pipeline layout")
		}
	}

	pipelines, _, err := r.deviceDriver.CreateGraphicsPipelines(nil, r.pipelineCache,
		core1_0.GraphicsPipelineCreateInfo{
			Stages: []core1_0.PipelineShaderStageCreateInfo{
				vertStage,
				fragStage,
			},
			VertexInputState:   vertexInput,
			InputAssemblyState: inputAssembly,
			ViewportState:      viewport,
			DynamicState:       dynamicState,
			RasterizationState: rasterization,
			MultisampleState:   multisample,
			ColorBlendState:    colorBlend,
			Layout:             r.pipelineLayout,
			RenderPass:         r.renderPass,
			Subpass:            0,
			BasePipelineIndex:  -1,
		},
	)
	if err != nil {
		return errors.Wrap(err, "creating graphics pipeline")
	}
	r.graphicsPipeline = pipelines[0]

	return nil
}

// reloadPipeline rebuilds the graphics pipeline from freshly compiled
// shaders. Called between frames after a shader-watcher hit.
func (r *Renderer) reloadPipeline(vertexSPIRV, fragmentSPIRV []uint32) error {
	_, err := r.deviceDriver.DeviceWaitIdle()
	if err != nil {
		return errors.Wrap(err, "waiting for device idle before pipeline reload")
	}

	r.deviceDriver.DestroyPipeline(r.graphicsPipeline, nil)
	r.graphicsPipeline = core1_0.Pipeline{}

	r.bundle.VertexSPIRV = vertexSPIRV
	r.bundle.FragmentSPIRV = fragmentSPIRV

	return r.createGraphicsPipeline()
}
