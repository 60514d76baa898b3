package render

import (
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
	vkngmath "github.com/vkngwrapper/math"

	"github.com/MauricioRTG/VulkanSandbox/internal/frame"
)

// This file implements the frame package's Device, Surface and Recorder
// interfaces on top of the renderer's per-slot resources.

func (r *Renderer) createCommandBuffers() error {
	buffers, _, err := r.deviceDriver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        r.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: r.cfg.Render.FramesInFlight,
	})
	if err != nil {
		return errors.Wrap(err, "allocating frame command buffers")
	}
	r.commandBuffers = buffers

	return nil
}

func (r *Renderer) createSyncObjects() error {
	for i := 0; i < r.cfg.Render.FramesInFlight; i++ {
		imageAvailable, _, err := r.deviceDriver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return errors.Wrap(err, "creating image-available semaphore")
		}
		r.imageAvailable = append(r.imageAvailable, imageAvailable)

		renderFinished, _, err := r.deviceDriver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return errors.Wrap(err, "creating render-finished semaphore")
		}
		r.renderFinished = append(r.renderFinished, renderFinished)

		// Signaled so the first wait on each slot passes immediately.
		fence, _, err := r.deviceDriver.CreateFence(nil, core1_0.FenceCreateInfo{
			Flags: core1_0.FenceCreateSignaled,
		})
		if err != nil {
			return errors.Wrap(err, "creating in-flight fence")
		}
		r.inFlight = append(r.inFlight, fence)
	}

	return nil
}

// WaitForFence blocks until the slot's in-flight fence signals. A zero
// timeout waits forever.
func (r *Renderer) WaitForFence(slot int, timeout time.Duration) error {
	waitFor := common.NoTimeout
	if timeout > 0 {
		waitFor = timeout
	}

	res, err := r.deviceDriver.WaitForFences(true, waitFor, r.inFlight[slot])
	if res == core1_0.VKTimeout {
		return errors.Wrapf(frame.ErrFenceTimeout, "slot %d fence still unsignaled after %s", slot, timeout)
	}
	if err != nil {
		return errors.Wrapf(err, "waiting on slot %d fence", slot)
	}
	return nil
}

func (r *Renderer) ResetFence(slot int) error {
	_, err := r.deviceDriver.ResetFences(r.inFlight[slot])
	if err != nil {
		return errors.Wrapf(err, "resetting slot %d fence", slot)
	}
	return nil
}

func (r *Renderer) WaitIdle() error {
	_, err := r.deviceDriver.DeviceWaitIdle()
	if err != nil {
		return errors.Wrap(err, "waiting for device idle")
	}
	return nil
}

// Acquire requests the next swapchain image, signaling the slot's
// image-available semaphore. Out-of-date and suboptimal results are reported
// through the Result value rather than the error.
func (r *Renderer) Acquire(slot int) (int, frame.Result, error) {
	imageIndex, res, err := r.swapchainExtension.AcquireNextImage(r.swapchain, common.NoTimeout, &r.imageAvailable[slot], nil)
	if res == khr_swapchain.VKErrorOutOfDate {
		return 0, frame.Stale, nil
	}
	if err != nil {
		return 0, frame.Success, errors.Wrap(err, "acquiring swapchain image")
	}
	if res == khr_swapchain.VKSuboptimal {
		return imageIndex, frame.Suboptimal, nil
	}
	return imageIndex, frame.Success, nil
}

func (r *Renderer) Present(slot int, imageIndex int) (frame.Result, error) {
	res, err := r.swapchainExtension.QueuePresent(r.presentQueue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{r.renderFinished[slot]},
		Swapchains:     []khr_swapchain.Swapchain{r.swapchain},
		ImageIndices:   []int{imageIndex},
	})
	if res == khr_swapchain.VKErrorOutOfDate {
		return frame.Stale, nil
	}
	if err != nil {
		return frame.Success, errors.Wrap(err, "presenting swapchain image")
	}
	if res == khr_swapchain.VKSuboptimal {
		return frame.Suboptimal, nil
	}
	return frame.Success, nil
}

// UpdateUniforms writes the time-based transform for this slot. The quad
// spins a quarter turn per second around Z, viewed from (2,2,2).
func (r *Renderer) UpdateUniforms(slot int, elapsedSeconds float64) error {
	timePeriod := math.Mod(elapsedSeconds, 4.0)

	ubo := UniformBufferObject{}
	ubo.Model.SetRotationZ(timePeriod * math.Pi / 2.0)
	ubo.View.SetLookAt(
		&vkngmath.Vec3[float32]{X: 2, Y: 2, Z: 2},
		&vkngmath.Vec3[float32]{X: 0, Y: 0, Z: 0},
		&vkngmath.Vec3[float32]{X: 0, Y: 0, Z: 1},
	)

	aspectRatio := float32(r.swapchainExtent.Width) / float32(r.swapchainExtent.Height)

	near := float32(0.1)
	far := float32(10.0)
	fovy := math.Pi / 4.0

	ubo.Proj.SetPerspective(fovy, aspectRatio, near, far)

	err := writeData(r.deviceDriver, r.uniformBuffersMemory[slot], 0, &ubo)
	if err != nil {
		return errors.Wrapf(err, "writing slot %d uniforms", slot)
	}
	return nil
}

// Record resets and re-records the slot's command buffer against the
// framebuffer for the acquired image. Viewport and scissor are dynamic so
// recorded buffers stay valid across swapchain rebuilds.
func (r *Renderer) Record(slot int, imageIndex int) error {
	buffer := r.commandBuffers[slot]

	_, err := r.deviceDriver.ResetCommandBuffer(buffer, 0)
	if err != nil {
		return errors.Wrapf(err, "resetting slot %d command buffer", slot)
	}

	_, err = r.deviceDriver.BeginCommandBuffer(buffer, core1_0.CommandBufferBeginInfo{})
	if err != nil {
		return errors.Wrapf(err, "beginning slot %d command buffer", slot)
	}

	err = r.deviceDriver.CmdBeginRenderPass(buffer, core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  r.renderPass,
			Framebuffer: r.swapchainFramebuffers[imageIndex],
			RenderArea: core1_0.Rect2D{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: r.swapchainExtent,
			},
			ClearValues: []core1_0.ClearValue{
				core1_0.ClearValueFloat{0, 0, 0, 1},
			},
		})
	if err != nil {
		return errors.Wrap(err, "beginning render pass")
	}

	r.deviceDriver.CmdBindPipeline(buffer, core1_0.PipelineBindPointGraphics, r.graphicsPipeline)
	r.deviceDriver.CmdSetViewport(buffer, []core1_0.Viewport{
		{
			X:        0,
			Y:        0,
			Width:    float32(r.swapchainExtent.Width),
			Height:   float32(r.swapchainExtent.Height),
			MinDepth: 0,
			MaxDepth: 1,
		},
	})
	r.deviceDriver.CmdSetScissor(buffer, []core1_0.Rect2D{
		{
			Offset: core1_0.Offset2D{X: 0, Y: 0},
			Extent: r.swapchainExtent,
		},
	})
	r.deviceDriver.CmdBindVertexBuffers(buffer, 0, []core1_0.Buffer{r.vertexBuffer}, []int{0})
	r.deviceDriver.CmdBindIndexBuffer(buffer, r.indexBuffer, 0, core1_0.IndexTypeUInt32)
	r.deviceDriver.CmdBindDescriptorSets(buffer, core1_0.PipelineBindPointGraphics, r.pipelineLayout, 0, []core1_0.DescriptorSet{
		r.descriptorSets[slot],
	}, nil)
	r.deviceDriver.CmdDrawIndexed(buffer, r.indexCount, 1, 0, 0, 0)
	r.deviceDriver.CmdEndRenderPass(buffer)

	_, err = r.deviceDriver.EndCommandBuffer(buffer)
	if err != nil {
		return errors.Wrapf(err, "ending slot %d command buffer", slot)
	}
	return nil
}

// Submit enqueues the slot's command buffer, waiting on image-available at
// the color-attachment stage and signaling render-finished plus the slot's
// fence.
func (r *Renderer) Submit(slot int, imageIndex int) error {
	_, err := r.deviceDriver.QueueSubmit(r.graphicsQueue, &r.inFlight[slot],
		core1_0.SubmitInfo{
			WaitSemaphores:   []core1_0.Semaphore{r.imageAvailable[slot]},
			WaitDstStageMask: []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput},
			CommandBuffers:   []core1_0.CommandBuffer{r.commandBuffers[slot]},
			SignalSemaphores: []core1_0.Semaphore{r.renderFinished[slot]},
		},
	)
	if err != nil {
		return errors.Wrapf(err, "submitting slot %d command buffer", slot)
	}
	return nil
}
