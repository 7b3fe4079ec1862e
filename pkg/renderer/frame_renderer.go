package renderer

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/df07/go-sphere-raytracer/pkg/core"
)

// FrameRenderer samples every pixel of a frame through the scene camera and
// quantizes the result into an RGB byte buffer. It is not safe for concurrent
// use; frames are rendered one at a time by a pool of tile workers.
type FrameRenderer struct {
	scene      Scene
	config     ViewportConfig
	raytracer  *Raytracer
	tiles      []*Tile
	workerPool *WorkerPool
	strata     []core.Vec2 // Sub-pixel offsets when stratified
	frameCount int
	started    bool
	closed     bool
	closeOnce  sync.Once
}

// ErrRendererClosed is returned by RenderFrame after Close
var ErrRendererClosed = errors.New("frame renderer is closed")

// NewFrameRenderer validates config and prepares tiles and workers for scene
func NewFrameRenderer(scene Scene, config ViewportConfig) (*FrameRenderer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if scene.GetCamera() == nil {
		return nil, fmt.Errorf("%w: scene has no camera", ErrInvalidConfig)
	}
	if scene.GetWorld() == nil {
		return nil, fmt.Errorf("%w: scene has no world", ErrInvalidConfig)
	}

	tileSize := config.TileSize
	if tileSize == 0 {
		tileSize = DefaultViewportConfig().TileSize
	}

	fr := &FrameRenderer{
		scene:     scene,
		config:    config,
		raytracer: NewRaytracer(scene),
		tiles:     NewTileGrid(config.Width, config.Height, tileSize, config.Seed),
	}
	if config.Stratified {
		fr.strata = stratifiedOffsets(config.Samples())
	}
	fr.workerPool = NewWorkerPool(fr.renderTile, len(fr.tiles), config.NumWorkers)

	return fr, nil
}

// Config returns the viewport configuration
func (fr *FrameRenderer) Config() ViewportConfig {
	return fr.config
}

// Raytracer returns the tracer used for every sample
func (fr *FrameRenderer) Raytracer() *Raytracer {
	return fr.raytracer
}

// RenderFrame renders the next frame into a fresh buffer
func (fr *FrameRenderer) RenderFrame() (*Frame, error) {
	if fr.closed {
		return nil, ErrRendererClosed
	}
	if !fr.started {
		fr.workerPool.Start()
		fr.started = true
	}

	fr.frameCount++
	frame := NewFrame(fr.frameCount, fr.config.Width, fr.config.Height)
	startTime := time.Now()

	for taskID, tile := range fr.tiles {
		fr.workerPool.SubmitTask(TileTask{
			Tile:   tile,
			Frame:  frame,
			TaskID: taskID,
		})
	}

	stats := RenderStats{
		FrameNumber: frame.Number,
		Workers:     fr.workerPool.GetNumWorkers(),
	}
	// Collect every result even after a failure so none leak into the next frame
	var firstErr error
	for range fr.tiles {
		result, ok := fr.workerPool.GetResult()
		if !ok {
			return nil, fmt.Errorf("worker pool closed unexpectedly")
		}
		if result.Error != nil {
			if firstErr == nil {
				firstErr = result.Error
			}
			continue
		}
		fr.tiles[result.TaskID].FramesCompleted++
		stats.merge(result.Stats)
	}
	if firstErr != nil {
		return nil, firstErr
	}

	stats.finalize()
	stats.Duration = time.Since(startTime)
	frame.Stats = stats

	return frame, nil
}

// Close stops the worker pool. The renderer cannot be used afterwards.
func (fr *FrameRenderer) Close() {
	fr.closeOnce.Do(func() {
		fr.closed = true
		if !fr.started {
			fr.workerPool.Start()
		}
		fr.workerPool.Stop()
	})
}

// renderTile samples every pixel inside tile and writes the bytes into frame
func (fr *FrameRenderer) renderTile(tile *Tile, frame *Frame) RenderStats {
	camera := fr.scene.GetCamera()
	sampler := core.NewRandomSampler(tile.Random)
	bounds := tile.Bounds

	stats := RenderStats{TotalPixels: bounds.Dx() * bounds.Dy()}

	for row := bounds.Min.Y; row < bounds.Max.Y; row++ {
		for column := bounds.Min.X; column < bounds.Max.X; column++ {
			var ps PixelStats
			fr.SamplePixel(camera, row, column, sampler, &ps)
			frame.Set(row, column, PixelBytes(ps.GetColor()))
			stats.TotalSamples += ps.SampleCount
		}
	}

	return stats
}

// SamplePixel traces every sub-pixel sample of (row, column) into ps
func (fr *FrameRenderer) SamplePixel(camera *Camera, row, column int, sampler core.Sampler, ps *PixelStats) {
	width := float64(fr.config.Width)
	height := float64(fr.config.Height)

	trace := func(dx, dy float64) {
		u := (float64(column) + dx) / width
		v := (float64(row) + dy) / height
		ps.AddSample(fr.raytracer.RayColor(camera.GetRay(u, v), fr.config.MaxDepth, sampler))
	}

	if fr.strata != nil {
		for _, offset := range fr.strata {
			trace(offset.X, offset.Y)
		}
		return
	}

	for sample := 0; sample < fr.config.Samples(); sample++ {
		trace(sampler.Get1D(), sampler.Get1D())
	}
}

// stratifiedOffsets places round(sqrt(samples))² offsets at the centers of a regular grid over the pixel
func stratifiedOffsets(samples int) []core.Vec2 {
	n := max(1, int(math.Round(math.Sqrt(float64(samples)))))
	offsets := make([]core.Vec2, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			offsets = append(offsets, core.NewVec2((float64(i)+0.5)/float64(n), (float64(j)+0.5)/float64(n)))
		}
	}
	return offsets
}
