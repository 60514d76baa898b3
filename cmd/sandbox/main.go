package main

import (
	"context"
	"flag"
	"os"
	"runtime"

	"github.com/charmbracelet/log"

	"github.com/MauricioRTG/VulkanSandbox/internal/assets"
	"github.com/MauricioRTG/VulkanSandbox/internal/config"
	"github.com/MauricioRTG/VulkanSandbox/internal/render"
	"github.com/MauricioRTG/VulkanSandbox/internal/window"
)

func main() {
	// SDL event handling and Vulkan surface creation are bound to the
	// thread that initialized SDL.
	runtime.LockOSThread()

	configPath := flag.String("config", "", "path to a TOML config file")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "sandbox",
	})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	err := run(*configPath, logger)
	if err != nil {
		logger.Fatalf("%+v", err)
	}
}

func run(configPath string, logger *log.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	win, err := window.New(cfg.Window.Title, cfg.Window.Width, cfg.Window.Height)
	if err != nil {
		return err
	}
	defer win.Destroy()

	bundle, err := assets.Load(context.Background(), cfg.Assets)
	if err != nil {
		return err
	}

	renderer, err := render.New(cfg, logger, win, bundle)
	if err != nil {
		return err
	}
	defer renderer.Close()

	return renderer.Run()
}
