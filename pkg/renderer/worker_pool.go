package renderer

import (
	"fmt"
	"runtime"
	"sync"
)

// TileTask asks a worker to render one tile of a frame
type TileTask struct {
	Tile   *Tile
	Frame  *Frame // Shared frame buffer; tiles never overlap
	TaskID int    // Index into the tile list
}

// TileResult reports a finished tile
type TileResult struct {
	TaskID int
	Stats  RenderStats
	Error  error // Set when rendering the tile panicked
}

// TileRenderFunc renders every pixel of tile into frame
type TileRenderFunc func(tile *Tile, frame *Frame) RenderStats

// WorkerPool renders tiles on a fixed set of goroutines. Tasks and results are
// buffered for a whole frame, so a caller can submit every tile before collecting.
type WorkerPool struct {
	render     TileRenderFunc
	tasks      chan TileTask
	results    chan TileResult
	numWorkers int
	wg         sync.WaitGroup
}

// NewWorkerPool creates a pool for frames of up to maxTiles tiles.
// numWorkers <= 0 uses one worker per CPU.
func NewWorkerPool(render TileRenderFunc, maxTiles, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	return &WorkerPool{
		render:     render,
		tasks:      make(chan TileTask, maxTiles),
		results:    make(chan TileResult, maxTiles),
		numWorkers: numWorkers,
	}
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	wp.wg.Add(wp.numWorkers)
	for i := 0; i < wp.numWorkers; i++ {
		go wp.work()
	}
}

// Stop lets queued tasks finish, then closes the result queue
func (wp *WorkerPool) Stop() {
	close(wp.tasks)
	wp.wg.Wait()
	close(wp.results)
}

// SubmitTask queues a tile
func (wp *WorkerPool) SubmitTask(task TileTask) {
	wp.tasks <- task
}

// GetResult waits for the next finished tile; ok is false once the pool is stopped and drained
func (wp *WorkerPool) GetResult() (result TileResult, ok bool) {
	result, ok = <-wp.results
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

func (wp *WorkerPool) work() {
	defer wp.wg.Done()
	for task := range wp.tasks {
		wp.results <- wp.runTask(task)
	}
}

// runTask turns a panic inside one tile into an error so the frame can fail cleanly
func (wp *WorkerPool) runTask(task TileTask) (result TileResult) {
	result.TaskID = task.TaskID
	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Errorf("tile %d panicked: %v", task.Tile.ID, r)
		}
	}()

	result.Stats = wp.render(task.Tile, task.Frame)
	return result
}
