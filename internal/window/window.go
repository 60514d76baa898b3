// Package window wraps the SDL2 window used as the render target. It exposes
// drawable dimensions, a per-frame event pump, and the blocking event wait
// the frame orchestrator uses while the window is minimized.
package window

import (
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
)

// Events summarizes one pump of the SDL event queue.
type Events struct {
	Quit      bool
	Resized   bool
	Minimized bool
	Restored  bool
}

type Window struct {
	handle *sdl.Window
}

// New initializes SDL video and creates a resizable Vulkan-capable window.
// Must be called from the main OS thread.
func New(title string, width, height int) (*Window, error) {
	err := sdl.Init(sdl.INIT_VIDEO)
	if err != nil {
		return nil, errors.Wrap(err, "initializing SDL video")
	}

	handle, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(width), int32(height),
		sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "creating SDL window")
	}

	return &Window{handle: handle}, nil
}

// Handle returns the underlying SDL window for surface creation.
func (w *Window) Handle() *sdl.Window {
	return w.handle
}

// DrawableSize reports the window's framebuffer size in pixels. Zero in
// either dimension means the window is minimized.
func (w *Window) DrawableSize() (int, int) {
	if (w.handle.GetFlags() & sdl.WINDOW_MINIMIZED) != 0 {
		return 0, 0
	}
	width, height := w.handle.VulkanGetDrawableSize()
	return int(width), int(height)
}

// WaitEvents blocks until SDL delivers an event. Used only while minimized so
// the host does not spin waiting for the window to come back.
func (w *Window) WaitEvents() {
	sdl.WaitEvent()
}

// Pump drains the SDL event queue and reports what happened this iteration.
func (w *Window) Pump() Events {
	var ev Events
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			ev.Quit = true
		case *sdl.WindowEvent:
			switch e.Event {
			case sdl.WINDOWEVENT_MINIMIZED:
				ev.Minimized = true
			case sdl.WINDOWEVENT_RESTORED:
				ev.Restored = true
			case sdl.WINDOWEVENT_SIZE_CHANGED, sdl.WINDOWEVENT_RESIZED:
				ev.Resized = true
			}
		}
	}
	return ev
}

// Destroy tears down the window and SDL.
func (w *Window) Destroy() {
	if w.handle != nil {
		_ = w.handle.Destroy()
		w.handle = nil
	}
	sdl.Quit()
}
