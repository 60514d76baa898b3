package frame

import "time"

// The orchestrator drives the GPU through these interfaces so that the frame
// protocol can be exercised against a scripted fake as well as a live Vulkan
// device. Slots index per-frame-in-flight resources: one command buffer, one
// image-available semaphore, one render-finished semaphore and one fence each.

// Device exposes the host-observable synchronization surface of the GPU.
type Device interface {
	// WaitForFence blocks until the slot's fence signals. A zero timeout
	// waits forever; an expired bounded wait returns ErrFenceTimeout.
	WaitForFence(slot int, timeout time.Duration) error
	// ResetFence unsignals the slot's fence before new work is submitted.
	ResetFence(slot int) error
	// WaitIdle drains all device queues.
	WaitIdle() error
}

// Surface hands out presentable images and queues them back for display.
type Surface interface {
	// Acquire requests the next presentable image, signaling the slot's
	// image-available semaphore once the display relinquishes it.
	Acquire(slot int) (imageIndex int, res Result, err error)
	// Present queues the image for display, waiting on the slot's
	// render-finished semaphore.
	Present(slot int, imageIndex int) (Result, error)
}

// Recorder produces and submits one frame's worth of GPU commands.
type Recorder interface {
	// UpdateUniforms writes per-frame uniform data (time-based transforms)
	// into the slot's host-visible uniform region.
	UpdateUniforms(slot int, elapsedSeconds float64) error
	// Record resets and re-records the slot's command buffer against the
	// framebuffer for the acquired image.
	Record(slot int, imageIndex int) error
	// Submit enqueues the slot's command buffer on the graphics queue,
	// waiting on image-available at the color-attachment-output stage and
	// signaling render-finished plus the slot's fence on completion.
	Submit(slot int, imageIndex int) error
}

// Rebuilder tears down and recreates the surface-dependent resources. The
// orchestrator owns the ordering; implementations perform single steps only.
type Rebuilder interface {
	DestroyFramebuffers()
	DestroyImageViews()
	DestroySwapchain()
	// CreateSwapchain builds a new swapchain against the given drawable
	// size and reports whether the surface format differs from the one the
	// render pass and pipeline were built for.
	CreateSwapchain(width, height int) (formatChanged bool, err error)
	CreateImageViews() error
	CreateFramebuffers() error
}

// Window supplies drawable dimensions and a blocking event wait used while
// the window is minimized.
type Window interface {
	DrawableSize() (width, height int)
	// WaitEvents blocks until the platform delivers an event. It must not
	// busy-spin; the orchestrator calls it in a loop while the drawable
	// area is zero.
	WaitEvents()
}
