package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

// options holds the parsed command line
type options struct {
	sceneType string
	sceneFile string
	viewport  renderer.ViewportOverride // Only flags given on the command line
	frames    int
	format    string
	out       string
}

func main() {
	var opts options
	var values renderer.ViewportConfig

	// Parse command line flags
	flag.StringVar(&opts.sceneType, "scene", "default", "Scene: 'default', 'single', 'sphere-grid' or 'json:<name>' from ./scenes")
	flag.StringVar(&opts.sceneFile, "scene-file", "", "Path to a JSON scene file (overrides -scene)")
	flag.IntVar(&values.Width, "width", 0, "Image width in pixels (default: scene value)")
	flag.IntVar(&values.Height, "height", 0, "Image height in pixels (default: scene value)")
	flag.Float64Var(&values.VFov, "vfov", 0, "Vertical field of view in degrees (default: scene value)")
	flag.IntVar(&values.SamplesPerPixel, "samples", 0, "Samples per pixel (default: scene value)")
	flag.IntVar(&values.MaxDepth, "depth", 0, "Maximum ray bounce depth, 0 renders black (default: scene value)")
	flag.BoolVar(&values.Stratified, "stratified", false, "Use a regular sub-pixel grid instead of jittered samples (default: scene value)")
	flag.Int64Var(&values.Seed, "seed", 0, "Random seed (default: scene value)")
	flag.IntVar(&values.NumWorkers, "workers", 0, "Number of parallel workers, 0 = one per CPU")
	flag.IntVar(&opts.frames, "frames", 1, "Number of frames to render; frame time and FPS are logged every second")
	flag.StringVar(&opts.format, "format", "png", "Output format: 'png' or 'rgb' (raw bytes, bottom row first)")
	flag.StringVar(&opts.out, "out", "", "Output file (default output/<scene>/render_<timestamp>.<format>)")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	given := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { given[f.Name] = true })
	opts.viewport = viewportOverride(values, given)

	// Show help if requested
	if *help {
		fmt.Println("Sphere Raytracer")
		fmt.Println("Usage: raytracer [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Available scenes:")
		for _, info := range scene.ListBuiltinScenes() {
			fmt.Printf("  %-12s - %s\n", info.ID, info.Description)
		}
		if jsonScenes, err := scene.ListJSONScenes(); err == nil {
			for _, info := range jsonScenes {
				fmt.Printf("  %-12s - %s\n", info.ID, info.DisplayName)
			}
		}
		fmt.Println()
		fmt.Println("Output will be saved to output/<scene>/render_<timestamp>.<format>")
		return
	}

	filename, err := run(opts, renderer.NewDefaultLogger())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Render saved as %s\n", filename)
}

// run renders opts.frames frames and writes the last one, returning the file name
func run(opts options, logger core.Logger) (string, error) {
	if opts.format != "png" && opts.format != "rgb" {
		return "", fmt.Errorf("unknown output format %q", opts.format)
	}
	if opts.frames < 1 {
		return "", fmt.Errorf("frame count must be at least 1, got %d", opts.frames)
	}

	selectedScene, sceneName, err := createScene(opts.sceneType, opts.sceneFile, opts.viewport)
	if err != nil {
		return "", err
	}

	viewport := selectedScene.Viewport
	logger.Printf("Rendering %s at %dx%d, %d samples per pixel, depth %d...\n",
		sceneName, viewport.Width, viewport.Height, viewport.Samples(), viewport.MaxDepth)

	frameRenderer, err := renderer.NewFrameRenderer(selectedScene, viewport)
	if err != nil {
		return "", err
	}
	loop := renderer.NewFrameLoop(frameRenderer, renderer.FrameLoopConfig{
		MaxFrames:     opts.frames,
		StatsInterval: time.Second,
	}, logger)

	startTime := time.Now()
	frames, errs := loop.Run(context.Background())

	var last *renderer.Frame
	for frame := range frames {
		last = frame
	}
	if err := <-errs; err != nil {
		return "", err
	}

	logger.Printf("Render completed in %v (%d frames, %d tiles on %d workers)\n",
		time.Since(startTime), last.Number, last.Stats.Tiles, last.Stats.Workers)

	filename := opts.out
	if filename == "" {
		filename = outputPath(sceneName, opts.format, time.Now())
	}
	if err := writeFrame(filename, opts.format, last); err != nil {
		return "", err
	}
	return filename, nil
}

// createScene loads sceneFile when given, otherwise the named scene. The returned name
// is used for the output directory.
func createScene(sceneType, sceneFile string, overrides renderer.ViewportOverride) (*scene.Scene, string, error) {
	if sceneFile != "" {
		s, err := scene.LoadFile(sceneFile, overrides)
		if err != nil {
			return nil, "", err
		}
		name := strings.TrimSuffix(filepath.Base(sceneFile), filepath.Ext(sceneFile))
		return s, name, nil
	}

	s, err := scene.Create(sceneType, overrides)
	if err != nil {
		return nil, "", err
	}
	return s, strings.TrimPrefix(sceneType, "json:"), nil
}

// viewportOverride keeps the flag values whose names are in given, so an explicit
// -depth 0 or -stratified=false still replaces the scene's setting
func viewportOverride(values renderer.ViewportConfig, given map[string]bool) renderer.ViewportOverride {
	var o renderer.ViewportOverride
	if given["width"] {
		o.Width = &values.Width
	}
	if given["height"] {
		o.Height = &values.Height
	}
	if given["vfov"] {
		o.VFov = &values.VFov
	}
	if given["samples"] {
		o.SamplesPerPixel = &values.SamplesPerPixel
	}
	if given["depth"] {
		o.MaxDepth = &values.MaxDepth
	}
	if given["stratified"] {
		o.Stratified = &values.Stratified
	}
	if given["seed"] {
		o.Seed = &values.Seed
	}
	if given["workers"] {
		o.NumWorkers = &values.NumWorkers
	}
	return o
}

// outputPath returns output/<scene>/render_<timestamp>.<format>
func outputPath(sceneName, format string, now time.Time) string {
	timestamp := now.Format("20060102_150405")
	return filepath.Join("output", sceneName, fmt.Sprintf("render_%s.%s", timestamp, format))
}

// writeFrame saves frame as a PNG or as its raw RGB bytes
func writeFrame(filename, format string, frame *renderer.Frame) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	if format == "rgb" {
		if err := os.WriteFile(filename, frame.Pixels, 0644); err != nil {
			return fmt.Errorf("error saving RGB: %w", err)
		}
		return nil
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, frame.ToImage()); err != nil {
		return fmt.Errorf("error saving PNG: %w", err)
	}
	return nil
}
