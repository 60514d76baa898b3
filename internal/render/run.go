package render

import (
	"github.com/cockroachdb/errors"

	"github.com/MauricioRTG/VulkanSandbox/internal/assets"
	"github.com/MauricioRTG/VulkanSandbox/internal/frame"
)

// Run drives the render loop until the window is closed. Must be called from
// the main OS thread since it pumps SDL events.
func (r *Renderer) Run() error {
	orchestrator, err := frame.New(frame.Config{
		FramesInFlight: r.cfg.Render.FramesInFlight,
		FenceTimeout:   r.cfg.Render.FenceTimeout,
	}, frame.Deps{
		Device:    r,
		Surface:   r,
		Recorder:  r,
		Rebuilder: r,
		Window:    r.window,
	}, r.logger)
	if err != nil {
		return err
	}

	var watcher *assets.Watcher
	if r.cfg.Assets.WatchShaders {
		watcher, err = assets.NewWatcher(r.cfg.Assets.ShaderDir, r.logger)
		if err != nil {
			return errors.Wrap(err, "starting shader watcher")
		}
		defer watcher.Close()
	}

	rendering := true
	for {
		events := r.window.Pump()
		if events.Quit {
			break
		}
		if events.Minimized {
			rendering = false
		}
		if events.Restored {
			rendering = true
		}
		if events.Resized {
			orchestrator.NotifyResize()
		}

		if watcher != nil && watcher.Dirty() {
			vert, frag, err := assets.LoadShaders(r.cfg.Assets.ShaderDir)
			if err != nil {
				// Keep rendering with the old pipeline; a half-written
				// .spv shows up here as a read or size error.
				r.logger.Warn("shader reload skipped", "err", err)
			} else {
				err = r.reloadPipeline(vert, frag)
				if err != nil {
					return errors.Wrap(err, "reloading pipeline")
				}
				r.logger.Info("pipeline reloaded from changed shaders")
			}
		}

		if !rendering {
			r.window.WaitEvents()
			continue
		}

		err = orchestrator.DrawFrame()
		if err != nil {
			return err
		}
	}

	_, err = r.deviceDriver.DeviceWaitIdle()
	if err != nil {
		return errors.Wrap(err, "draining device on shutdown")
	}
	return nil
}
