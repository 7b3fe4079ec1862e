package renderer

import (
	"context"
	"sync"
	"time"

	"github.com/df07/go-sphere-raytracer/pkg/core"
)

// FrameLoopConfig contains configuration for continuous frame rendering
type FrameLoopConfig struct {
	MaxFrames     int           // Stop after this many frames (0 = run until cancelled)
	StatsInterval time.Duration // How often frame time and FPS are logged (0 = never)
}

// DefaultFrameLoopConfig returns sensible default values
func DefaultFrameLoopConfig() FrameLoopConfig {
	return FrameLoopConfig{
		MaxFrames:     0,
		StatsInterval: time.Second,
	}
}

// CameraUpdate mutates the camera between frames
type CameraUpdate func(camera *Camera) error

// FrameLoop renders frames back to back and applies queued camera
// changes only between frames, so every frame sees one consistent camera.
type FrameLoop struct {
	renderer *FrameRenderer
	config   FrameLoopConfig
	logger   core.Logger

	mu      sync.Mutex
	pending []CameraUpdate
}

// NewFrameLoop creates a frame loop around renderer. The loop owns the
// renderer and closes it when Run finishes.
func NewFrameLoop(renderer *FrameRenderer, config FrameLoopConfig, logger core.Logger) *FrameLoop {
	if logger == nil {
		logger = discardLogger{}
	}
	return &FrameLoop{
		renderer: renderer,
		config:   config,
		logger:   logger,
	}
}

// UpdateCamera queues a camera change for the start of the next frame.
// Safe to call from any goroutine.
func (fl *FrameLoop) UpdateCamera(update CameraUpdate) {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	fl.pending = append(fl.pending, update)
}

// applyCameraUpdates runs every queued change in order. A failing update
// leaves the camera as it was and is reported to the logger.
func (fl *FrameLoop) applyCameraUpdates() {
	fl.mu.Lock()
	updates := fl.pending
	fl.pending = nil
	fl.mu.Unlock()

	camera := fl.renderer.scene.GetCamera()
	for _, update := range updates {
		if err := update(camera); err != nil {
			fl.logger.Printf("Ignoring camera update: %v\n", err)
		}
	}
}

// Run renders frames until ctx is cancelled, MaxFrames is reached or a frame fails.
// The caller should read from both channels; they are closed when rendering stops.
func (fl *FrameLoop) Run(ctx context.Context) (<-chan *Frame, <-chan error) {
	frameChan := make(chan *Frame, 1)
	errChan := make(chan error, 1)

	go func() {
		defer close(frameChan)
		defer close(errChan)
		defer fl.renderer.Close()

		var elapsed time.Duration
		framesSinceLog := 0

		for frameNumber := 1; fl.config.MaxFrames == 0 || frameNumber <= fl.config.MaxFrames; frameNumber++ {
			// Check if the client went away before starting this frame
			select {
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			default:
			}

			fl.applyCameraUpdates()

			frame, err := fl.renderer.RenderFrame()
			if err != nil {
				errChan <- err
				return
			}

			elapsed += frame.Stats.Duration
			framesSinceLog++
			if fl.config.StatsInterval > 0 && elapsed >= fl.config.StatsInterval {
				ms := float64(elapsed.Microseconds()) / 1000.0 / float64(framesSinceLog)
				fl.logger.Printf("T = %.2f ms\tFPS = %.2f\n", ms, 1000.0/ms)
				elapsed = 0
				framesSinceLog = 0
			}

			select {
			case frameChan <- frame:
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}
		}
	}()

	return frameChan, errChan
}
