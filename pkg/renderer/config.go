package renderer

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is wrapped by every camera or viewport configuration error
var ErrInvalidConfig = errors.New("invalid render configuration")

// ViewportConfig contains the per-frame rendering configuration
type ViewportConfig struct {
	Width           int     // Image width in pixels
	Height          int     // Image height in pixels
	VFov            float64 // Vertical field of view in degrees
	SamplesPerPixel int     // Rays per pixel; values below 1 mean 1
	MaxDepth        int     // Maximum ray bounce depth
	Stratified      bool    // Place sub-pixel samples on a regular grid instead of jittering
	Seed            int64   // Base seed for the per-tile random generators
	TileSize        int     // Size of each square tile in pixels
	NumWorkers      int     // Number of parallel workers (0 = use CPU count)
}

// DefaultViewportConfig returns sensible default values
func DefaultViewportConfig() ViewportConfig {
	return ViewportConfig{
		Width:           400,
		Height:          225,
		VFov:            90.0,
		SamplesPerPixel: 16,
		MaxDepth:        10,
		Stratified:      false,
		Seed:            42,
		TileSize:        32,
		NumWorkers:      0,
	}
}

// Samples returns the effective number of samples per pixel
func (c ViewportConfig) Samples() int {
	return max(1, c.SamplesPerPixel)
}

// AspectRatio returns width / height
func (c ViewportConfig) AspectRatio() float64 {
	return float64(c.Width) / float64(c.Height)
}

// Validate checks the configuration for values that would produce NaNs or empty frames
func (c ViewportConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: image size must be positive, got %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if err := validateVFov(c.VFov); err != nil {
		return err
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("%w: max depth must not be negative, got %d", ErrInvalidConfig, c.MaxDepth)
	}
	if c.TileSize < 0 {
		return fmt.Errorf("%w: tile size must not be negative, got %d", ErrInvalidConfig, c.TileSize)
	}
	if c.NumWorkers < 0 {
		return fmt.Errorf("%w: worker count must not be negative, got %d", ErrInvalidConfig, c.NumWorkers)
	}
	return nil
}

// ViewportOverride selects viewport fields to replace. Nil fields keep the base
// value, so zero depth or disabled stratification can be requested explicitly.
type ViewportOverride struct {
	Width           *int
	Height          *int
	VFov            *float64
	SamplesPerPixel *int
	MaxDepth        *int
	Stratified      *bool
	Seed            *int64
	TileSize        *int
	NumWorkers      *int
}

// OverrideNonZero returns an override for every non-zero field of config
func OverrideNonZero(config ViewportConfig) ViewportOverride {
	var o ViewportOverride
	if config.Width != 0 {
		o.Width = &config.Width
	}
	if config.Height != 0 {
		o.Height = &config.Height
	}
	if config.VFov != 0 {
		o.VFov = &config.VFov
	}
	if config.SamplesPerPixel != 0 {
		o.SamplesPerPixel = &config.SamplesPerPixel
	}
	if config.MaxDepth != 0 {
		o.MaxDepth = &config.MaxDepth
	}
	if config.Stratified {
		o.Stratified = &config.Stratified
	}
	if config.Seed != 0 {
		o.Seed = &config.Seed
	}
	if config.TileSize != 0 {
		o.TileSize = &config.TileSize
	}
	if config.NumWorkers != 0 {
		o.NumWorkers = &config.NumWorkers
	}
	return o
}

// MergeViewportConfig returns base with every field set in override applied
func MergeViewportConfig(base ViewportConfig, override ViewportOverride) ViewportConfig {
	result := base
	if override.Width != nil {
		result.Width = *override.Width
	}
	if override.Height != nil {
		result.Height = *override.Height
	}
	if override.VFov != nil {
		result.VFov = *override.VFov
	}
	if override.SamplesPerPixel != nil {
		result.SamplesPerPixel = *override.SamplesPerPixel
	}
	if override.MaxDepth != nil {
		result.MaxDepth = *override.MaxDepth
	}
	if override.Stratified != nil {
		result.Stratified = *override.Stratified
	}
	if override.Seed != nil {
		result.Seed = *override.Seed
	}
	if override.TileSize != nil {
		result.TileSize = *override.TileSize
	}
	if override.NumWorkers != nil {
		result.NumWorkers = *override.NumWorkers
	}
	return result
}

func validateVFov(vfov float64) error {
	if math.IsNaN(vfov) || vfov <= 0 || vfov >= 180 {
		return fmt.Errorf("%w: vertical field of view must be in (0, 180) degrees, got %v", ErrInvalidConfig, vfov)
	}
	return nil
}
