// Package frame sequences per-frame GPU work: acquire an image, record and
// submit commands, present, advance. It owns the frame counter and the
// swapchain-recreation protocol; the actual GPU objects live behind the
// interfaces in interfaces.go.
package frame

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
)

// Config carries the orchestrator's startup configuration.
type Config struct {
	// FramesInFlight is the number of frame slots that may execute with
	// GPU-level overlap. Two gives classic double buffering.
	FramesInFlight int
	// FenceTimeout bounds the per-slot fence wait at the top of each
	// frame. Zero waits forever, matching the reference behavior.
	FenceTimeout time.Duration
}

// Deps are the collaborators the orchestrator drives. All are required
// except Clock, which defaults to a monotonic clock started at New.
type Deps struct {
	Device    Device
	Surface   Surface
	Recorder  Recorder
	Rebuilder Rebuilder
	Window    Window

	// Clock returns elapsed seconds for time-based uniform updates.
	Clock func() float64
}

// Orchestrator runs the render loop's frame protocol. It is not safe for
// concurrent use; a single host thread drives it.
type Orchestrator struct {
	cfg       Config
	device    Device
	surface   Surface
	recorder  Recorder
	rebuilder Rebuilder
	window    Window
	clock     func() float64
	logger    *log.Logger

	current        int
	rebuildPending bool
}

// New validates the configuration and dependencies and returns an
// orchestrator with its frame counter at slot zero.
func New(cfg Config, deps Deps, logger *log.Logger) (*Orchestrator, error) {
	if cfg.FramesInFlight < 1 {
		return nil, errors.Errorf("frames in flight must be at least 1, got %d", cfg.FramesInFlight)
	}
	if deps.Device == nil || deps.Surface == nil || deps.Recorder == nil || deps.Rebuilder == nil || deps.Window == nil {
		return nil, errors.New("all orchestrator dependencies must be provided")
	}
	clock := deps.Clock
	if clock == nil {
		start := hrtime.Now()
		clock = func() float64 {
			return (hrtime.Now() - start).Seconds()
		}
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Orchestrator{
		cfg:       cfg,
		device:    deps.Device,
		surface:   deps.Surface,
		recorder:  deps.Recorder,
		rebuilder: deps.Rebuilder,
		window:    deps.Window,
		clock:     clock,
		logger:    logger,
	}, nil
}

// CurrentSlot returns the index of the active frame slot.
func (o *Orchestrator) CurrentSlot() int {
	return o.current
}

// NotifyResize flags the swapchain for recreation. Safe to call from the
// event pump; the rebuild happens after the next successful present so no
// signaled semaphore is left unconsumed.
func (o *Orchestrator) NotifyResize() {
	o.rebuildPending = true
}

// DrawFrame executes one iteration of the frame protocol. A stale surface
// reported by acquire abandons the frame, rebuilds the swapchain and returns
// with the frame counter unchanged; any other non-success GPU status is a
// fatal error.
func (o *Orchestrator) DrawFrame() error {
	slot := o.current

	err := o.device.WaitForFence(slot, o.cfg.FenceTimeout)
	if err != nil {
		return errors.Wrapf(err, "waiting for frame slot %d fence", slot)
	}

	imageIndex, res, err := o.surface.Acquire(slot)
	if err != nil {
		return errors.Wrapf(err, "acquiring swapchain image on slot %d", slot)
	}
	if res == Stale {
		// The slot's fence is still signaled; the next wait on this
		// slot must not block on work that was never submitted.
		return o.RecreateSwapchain()
	}
	if res == Suboptimal {
		o.rebuildPending = true
	}

	err = o.recorder.UpdateUniforms(slot, o.clock())
	if err != nil {
		return errors.Wrapf(err, "updating uniforms on slot %d", slot)
	}

	// Unsignal the fence only once this frame is committed to submitting.
	err = o.device.ResetFence(slot)
	if err != nil {
		return errors.Wrapf(err, "resetting frame slot %d fence", slot)
	}

	err = o.recorder.Record(slot, imageIndex)
	if err != nil {
		return errors.Wrapf(err, "recording commands for image %d on slot %d", imageIndex, slot)
	}

	err = o.recorder.Submit(slot, imageIndex)
	if err != nil {
		return errors.Wrapf(err, "submitting commands for image %d on slot %d", imageIndex, slot)
	}

	res, err = o.surface.Present(slot, imageIndex)
	if err != nil {
		return errors.Wrapf(err, "presenting image %d on slot %d", imageIndex, slot)
	}
	if res == Stale || res == Suboptimal || o.rebuildPending {
		err = o.RecreateSwapchain()
		if err != nil {
			return err
		}
	}

	o.current = (o.current + 1) % o.cfg.FramesInFlight
	return nil
}

// RecreateSwapchain rebuilds the presentable surface against the current
// drawable size. While the window is minimized it blocks on the platform
// event queue until the drawable area is nonzero again.
func (o *Orchestrator) RecreateSwapchain() error {
	width, height := o.window.DrawableSize()
	for width == 0 || height == 0 {
		o.window.WaitEvents()
		width, height = o.window.DrawableSize()
	}

	err := o.device.WaitIdle()
	if err != nil {
		return errors.Wrap(err, "waiting for device idle before swapchain teardown")
	}

	// Teardown in dependency order: framebuffers reference image views,
	// image views reference swapchain images.
	o.rebuilder.DestroyFramebuffers()
	o.rebuilder.DestroyImageViews()
	o.rebuilder.DestroySwapchain()

	formatChanged, err := o.rebuilder.CreateSwapchain(width, height)
	if err != nil {
		return errors.Wrap(err, "recreating swapchain")
	}
	if formatChanged {
		// The render pass and pipeline are reused across recreation. A
		// differing surface format can make them incompatible; rare,
		// platform dependent, and not guarded beyond this warning.
		o.logger.Warn("surface format changed across swapchain recreation; existing pipeline may be incompatible")
	}

	err = o.rebuilder.CreateImageViews()
	if err != nil {
		return errors.Wrap(err, "recreating swapchain image views")
	}

	err = o.rebuilder.CreateFramebuffers()
	if err != nil {
		return errors.Wrap(err, "recreating framebuffers")
	}

	o.logger.Debug("swapchain recreated", "width", width, "height", height)
	o.rebuildPending = false
	return nil
}
