package render

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

func (r *Renderer) createCommandPool() error {
	indices, err := r.findQueueFamilies(r.physicalDevice)
	if err != nil {
		return err
	}

	pool, _, err := r.deviceDriver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		// Frame command buffers are reset individually every frame.
		Flags:            core1_0.CommandPoolCreateResetBuffer,
		QueueFamilyIndex: *indices.GraphicsFamily,
	})
	if err != nil {
		return errors.Wrap(err, "creating command pool")
	}
	r.commandPool = pool

	return nil
}

func (r *Renderer) createBuffer(size int, usage core1_0.BufferUsageFlags, properties core1_0.MemoryPropertyFlags) (core1_0.Buffer, core1_0.DeviceMemory, error) {
	buffer, _, err := r.deviceDriver.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return core1_0.Buffer{}, core1_0.DeviceMemory{}, errors.Wrap(err, "creating buffer")
	}

	memRequirements := r.deviceDriver.GetBufferMemoryRequirements(buffer)
	memoryTypeIndex, err := r.findMemoryType(memRequirements.MemoryTypeBits, properties)
	if err != nil {
		return buffer, core1_0.DeviceMemory{}, err
	}

	memory, _, err := r.deviceDriver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		return buffer, core1_0.DeviceMemory{}, errors.Wrap(err, "allocating buffer memory")
	}

	_, err = r.deviceDriver.BindBufferMemory(buffer, memory, 0)
	if err != nil {
		return buffer, memory, errors.Wrap(err, "binding buffer memory")
	}
	return buffer, memory, nil
}

func (r *Renderer) findMemoryType(typeFilter uint32, properties core1_0.MemoryPropertyFlags) (int, error) {
	memProperties := r.instanceDriver.GetPhysicalDeviceMemoryProperties(r.physicalDevice)
	for i, memoryType := range memProperties.MemoryTypes {
		typeBit := uint32(1 << i)

		if (typeFilter&typeBit) != 0 && (memoryType.PropertyFlags&properties) == properties {
			return i, nil
		}
	}

	return 0, errors.New("no suitable memory type available")
}

// writeData serializes data into mapped device memory at offset.
func writeData(driver core1_0.DeviceDriver, memory core1_0.DeviceMemory, offset int, data any) error {
	bufferSize := binary.Size(data)

	memoryPtr, _, err := driver.MapMemory(memory, offset, bufferSize, 0)
	if err != nil {
		return errors.Wrap(err, "mapping device memory")
	}
	defer driver.UnmapMemory(memory)

	dataBuffer := unsafe.Slice((*byte)(memoryPtr), bufferSize)

	buf := &bytes.Buffer{}
	err = binary.Write(buf, common.ByteOrder, data)
	if err != nil {
		return errors.Wrap(err, "serializing buffer data")
	}

	copy(dataBuffer, buf.Bytes())
	return nil
}

func (r *Renderer) beginSingleTimeCommands() (core1_0.CommandBuffer, error) {
	buffers, _, err := r.deviceDriver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        r.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return core1_0.CommandBuffer{}, errors.Wrap(err, "allocating transfer command buffer")
	}

	buffer := buffers[0]
	_, err = r.deviceDriver.BeginCommandBuffer(buffer, core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	if err != nil {
		return buffer, errors.Wrap(err, "beginning transfer command buffer")
	}
	return buffer, nil
}

func (r *Renderer) endSingleTimeCommands(buffer core1_0.CommandBuffer) error {
	_, err := r.deviceDriver.EndCommandBuffer(buffer)
	if err != nil {
		return errors.Wrap(err, "ending transfer command buffer")
	}

	_, err = r.deviceDriver.QueueSubmit(r.graphicsQueue, nil,
		core1_0.SubmitInfo{
			CommandBuffers: []core1_0.CommandBuffer{buffer},
		},
	)
	if err != nil {
		return errors.Wrap(err, "submitting transfer command buffer")
	}

	_, err = r.deviceDriver.QueueWaitIdle(r.graphicsQueue)
	if err != nil {
		return errors.Wrap(err, "draining transfer queue")
	}

	r.deviceDriver.FreeCommandBuffers(buffer)
	return nil
}

func (r *Renderer) copyBuffer(srcBuffer core1_0.Buffer, dstBuffer core1_0.Buffer, size int) error {
	buffer, err := r.beginSingleTimeCommands()
	if err != nil {
		return err
	}

	err = r.deviceDriver.CmdCopyBuffer(buffer, srcBuffer, dstBuffer,
		core1_0.BufferCopy{
			SrcOffset: 0,
			DstOffset: 0,
			Size:      size,
		},
	)
	if err != nil {
		return errors.Wrap(err, "recording buffer copy")
	}

	return r.endSingleTimeCommands(buffer)
}

func (r *Renderer) createVertexBuffer() error {
	bufferSize := binary.Size(r.bundle.Vertices)

	stagingBuffer, stagingBufferMemory, err := r.createBuffer(bufferSize, core1_0.BufferUsageTransferSrc, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if stagingBuffer.Initialized() {
		defer r.deviceDriver.DestroyBuffer(stagingBuffer, nil)
	}
	if stagingBufferMemory.Initialized() {
		defer r.deviceDriver.FreeMemory(stagingBufferMemory, nil)
	}
	if err != nil {
		return err
	}

	err = writeData(r.deviceDriver, stagingBufferMemory, 0, r.bundle.Vertices)
	if err != nil {
		return err
	}

	r.vertexBuffer, r.vertexBufferMemory, err = r.createBuffer(bufferSize, core1_0.BufferUsageTransferDst|core1_0.BufferUsageVertexBuffer, core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return err
	}

	return r.copyBuffer(stagingBuffer, r.vertexBuffer, bufferSize)
}

func (r *Renderer) createIndexBuffer() error {
	bufferSize := binary.Size(r.bundle.Indices)
	r.indexCount = len(r.bundle.Indices)

	stagingBuffer, stagingBufferMemory, err := r.createBuffer(bufferSize, core1_0.BufferUsageTransferSrc, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if stagingBuffer.Initialized() {
		defer r.deviceDriver.DestroyBuffer(stagingBuffer, nil)
	}
	if stagingBufferMemory.Initialized() {
		defer r.deviceDriver.FreeMemory(stagingBufferMemory, nil)
	}
	if err != nil {
		return err
	}

	err = writeData(r.deviceDriver, stagingBufferMemory, 0, r.bundle.Indices)
	if err != nil {
		return err
	}

	r.indexBuffer, r.indexBufferMemory, err = r.createBuffer(bufferSize, core1_0.BufferUsageTransferDst|core1_0.BufferUsageIndexBuffer, core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return err
	}

	return r.copyBuffer(stagingBuffer, r.indexBuffer, bufferSize)
}

func (r *Renderer) createUniformBuffers() error {
	bufferSize := int(unsafe.Sizeof(UniformBufferObject{}))

	for i := 0; i < r.cfg.Render.FramesInFlight; i++ {
		buffer, memory, err := r.createBuffer(bufferSize, core1_0.BufferUsageUniformBuffer, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
		if err != nil {
			return err
		}

		r.uniformBuffers = append(r.uniformBuffers, buffer)
		r.uniformBuffersMemory = append(r.uniformBuffersMemory, memory)
	}

	return nil
}
