package render

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

func (r *Renderer) createTextureImage() error {
	texture := r.bundle.Texture
	imageSize := len(texture.Pixels)

	stagingBuffer, stagingMemory, err := r.createBuffer(imageSize, core1_0.BufferUsageTransferSrc, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if err != nil {
		return err
	}

	defer r.deviceDriver.DestroyBuffer(stagingBuffer, nil)
	defer r.deviceDriver.FreeMemory(stagingMemory, nil)

	err = writeData(r.deviceDriver, stagingMemory, 0, texture.Pixels)
	if err != nil {
		return err
	}

	r.textureImage, r.textureImageMemory, err = r.createImage(texture.Width,
		texture.Height,
		core1_0.FormatR8G8B8A8SRGB,
		core1_0.ImageTilingOptimal,
		core1_0.ImageUsageTransferDst|core1_0.ImageUsageSampled,
		core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return err
	}

	err = r.transitionImageLayout(r.textureImage, core1_0.ImageLayoutUndefined, core1_0.ImageLayoutTransferDstOptimal)
	if err != nil {
		return err
	}
	err = r.copyBufferToImage(stagingBuffer, r.textureImage, texture.Width, texture.Height)
	if err != nil {
		return err
	}

	return r.transitionImageLayout(r.textureImage, core1_0.ImageLayoutTransferDstOptimal, core1_0.ImageLayoutShaderReadOnlyOptimal)
}

func (r *Renderer) createImage(width, height int, format core1_0.Format, tiling core1_0.ImageTiling, usage core1_0.ImageUsageFlags, memoryProperties core1_0.MemoryPropertyFlags) (core1_0.Image, core1_0.DeviceMemory, error) {
	image, _, err := r.deviceDriver.CreateImage(nil, core1_0.ImageCreateInfo{
		ImageType: core1_0.ImageType2D,
		Extent: core1_0.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        tiling,
		InitialLayout: core1_0.ImageLayoutUndefined,
		Usage:         usage,
		SharingMode:   core1_0.SharingModeExclusive,
		Samples:       core1_0.Samples1,
	})
	if err != nil {
		return core1_0.Image{}, core1_0.DeviceMemory{}, errors.Wrap(err, "creating image")
	}

	memReqs := r.deviceDriver.GetImageMemoryRequirements(image)
	memoryIndex, err := r.findMemoryType(memReqs.MemoryTypeBits, memoryProperties)
	if err != nil {
		return core1_0.Image{}, core1_0.DeviceMemory{}, err
	}

	imageMemory, _, err := r.deviceDriver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memoryIndex,
	})
	if err != nil {
		return core1_0.Image{}, core1_0.DeviceMemory{}, errors.Wrap(err, "allocating image memory")
	}

	_, err = r.deviceDriver.BindImageMemory(image, imageMemory, 0)
	if err != nil {
		return core1_0.Image{}, core1_0.DeviceMemory{}, errors.Wrap(err, "binding image memory")
	}

	return image, imageMemory, nil
}

func (r *Renderer) transitionImageLayout(image core1_0.Image, oldLayout core1_0.ImageLayout, newLayout core1_0.ImageLayout) error {
	buffer, err := r.beginSingleTimeCommands()
	if err != nil {
		return err
	}

	var sourceStage, destStage core1_0.PipelineStageFlags
	var sourceAccess, destAccess core1_0.AccessFlags

	if oldLayout == core1_0.ImageLayoutUndefined && newLayout == core1_0.ImageLayoutTransferDstOptimal {
		sourceAccess = 0
		destAccess = core1_0.AccessTransferWrite
		sourceStage = core1_0.PipelineStageTopOfPipe
		destStage = core1_0.PipelineStageTransfer
	} else if oldLayout == core1_0.ImageLayoutTransferDstOptimal && newLayout == core1_0.ImageLayoutShaderReadOnlyOptimal {
		sourceAccess = core1_0.AccessTransferWrite
		destAccess = core1_0.AccessShaderRead
		sourceStage = core1_0.PipelineStageTransfer
		destStage = core1_0.PipelineStageFragmentShader
	} else {
		return errors.Errorf("unexpected layout transition: %s -> %s", oldLayout, newLayout)
	}

	err = r.deviceDriver.CmdPipelineBarrier(buffer, sourceStage, destStage, 0, nil, nil, []core1_0.ImageMemoryBarrier{
		{
			OldLayout:           oldLayout,
			NewLayout:           newLayout,
			SrcQueueFamilyIndex: -1,
			DstQueueFamilyIndex: -1,
			Image:               image,
			SubresourceRange: core1_0.ImageSubresourceRange{
				AspectMask:     core1_0.ImageAspectColor,
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
			SrcAccessMask: sourceAccess,
			DstAccessMask: destAccess,
		},
	})
	if err != nil {
		return errors.Wrap(err, "recording layout transition")
	}

	return r.endSingleTimeCommands(buffer)
}

func (r *Renderer) copyBufferToImage(buffer core1_0.Buffer, image core1_0.Image, width, height int) error {
	cmdBuffer, err := r.beginSingleTimeCommands()
	if err != nil {
		return err
	}

	err = r.deviceDriver.CmdCopyBufferToImage(cmdBuffer, buffer, image, core1_0.ImageLayoutTransferDstOptimal,
		core1_0.BufferImageCopy{
			BufferOffset:      0,
			BufferRowLength:   0,
			BufferImageHeight: 0,

			ImageSubresource: core1_0.ImageSubresourceLayers{
				AspectMask:     core1_0.ImageAspectColor,
				MipLevel:       0,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
			ImageOffset: core1_0.Offset3D{X: 0, Y: 0, Z: 0},
			ImageExtent: core1_0.Extent3D{Width: width, Height: height, Depth: 1},
		},
	)
	if err != nil {
		return errors.Wrap(err, "recording buffer to image copy")
	}

	return r.endSingleTimeCommands(cmdBuffer)
}

func (r *Renderer) createImageView(image core1_0.Image, format core1_0.Format) (core1_0.ImageView, error) {
	imageView, _, err := r.deviceDriver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    image,
		ViewType: core1_0.ImageViewType2D,
		Format:   format,
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     core1_0.ImageAspectColor,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	if err != nil {
		return core1_0.ImageView{}, errors.Wrap(err, "creating image view")
	}
	return imageView, nil
}

func (r *Renderer) createTextureImageView() error {
	var err error
	r.textureImageView, err = r.createImageView(r.textureImage, core1_0.FormatR8G8B8A8SRGB)
	return err
}

func (r *Renderer) createSampler() error {
	properties, err := r.instanceDriver.GetPhysicalDeviceProperties(r.physicalDevice)
	if err != nil {
		return errors.Wrap(err, "querying device properties for sampler")
	}

	r.textureSampler, _, err = r.deviceDriver.CreateSampler(nil, core1_0.SamplerCreateInfo{
		MagFilter:    core1_0.FilterLinear,
		MinFilter:    core1_0.FilterLinear,
		AddressModeU: core1_0.SamplerAddressModeRepeat,
		AddressModeV: core1_0.SamplerAddressModeRepeat,
		AddressModeW: core1_0.SamplerAddressModeRepeat,

		AnisotropyEnable: true,
		MaxAnisotropy:    properties.Limits.MaxSamplerAnisotropy,

		BorderColor: core1_0.BorderColorIntOpaqueBlack,

		MipmapMode: core1_0.SamplerMipmapModeLinear,
	})
	if err != nil {
		return errors.Wrap(err, "creating texture sampler")
	}
	return nil
}
