package scene

import (
	"errors"
	"fmt"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
)

var (
	// ErrInvalidScene is wrapped by every scene description error
	ErrInvalidScene = errors.New("invalid scene")
	// ErrUnknownScene is returned when no scene has the requested ID
	ErrUnknownScene = errors.New("unknown scene")
)

// Scene contains all the elements needed for rendering
type Scene struct {
	Camera      *renderer.Camera
	World       *geometry.Group         // Spheres in the scene
	Viewport    renderer.ViewportConfig // Image size and sampling the scene is meant to be rendered with
	TopColor    core.Vec3               // Background color straight up
	BottomColor core.Vec3               // Background color straight down
}

// New creates an empty scene with the default sky
func New(camera *renderer.Camera, viewport renderer.ViewportConfig) *Scene {
	return &Scene{
		Camera:      camera,
		World:       geometry.NewGroup(),
		Viewport:    viewport,
		TopColor:    renderer.DefaultTopColor,
		BottomColor: renderer.DefaultBottomColor,
	}
}

// GetCamera implements renderer.Scene
func (s *Scene) GetCamera() *renderer.Camera {
	return s.Camera
}

// GetWorld implements renderer.Scene
func (s *Scene) GetWorld() geometry.Shape {
	return s.World
}

// GetBackgroundColors implements renderer.Scene
func (s *Scene) GetBackgroundColors() (topColor, bottomColor core.Vec3) {
	return s.TopColor, s.BottomColor
}

// Add appends shapes to the world
func (s *Scene) Add(shapes ...geometry.Shape) {
	s.World.Add(shapes...)
}

// GetPrimitiveCount returns the number of shapes in the world
func (s *Scene) GetPrimitiveCount() int {
	return s.World.Len()
}

// ApplyViewport switches the scene to viewport, updating the camera's aspect ratio
// and field of view. On error neither the scene nor its camera change.
func (s *Scene) ApplyViewport(viewport renderer.ViewportConfig) error {
	if err := viewport.Validate(); err != nil {
		return err
	}

	config := s.Camera.Config()
	config.VFov = viewport.VFov
	config.AspectRatio = viewport.AspectRatio()
	if err := config.Validate(); err != nil {
		return err
	}

	if err := s.Camera.SetAspectRatio(config.AspectRatio); err != nil {
		return fmt.Errorf("failed to apply aspect ratio: %w", err)
	}
	if err := s.Camera.SetVFov(config.VFov); err != nil {
		return fmt.Errorf("failed to apply field of view: %w", err)
	}
	s.Viewport = viewport
	return nil
}

// newSceneCamera builds the camera for a static scene from its viewport
func newSceneCamera(position, lookAt core.Vec3, viewport renderer.ViewportConfig) *renderer.Camera {
	return renderer.MustCamera(renderer.CameraConfig{
		Position:    position,
		LookAt:      lookAt,
		VFov:        viewport.VFov,
		AspectRatio: viewport.AspectRatio(),
	})
}

// mergeOverrides applies the first override, if any, to base
func mergeOverrides(base renderer.ViewportConfig, overrides []renderer.ViewportOverride) renderer.ViewportConfig {
	if len(overrides) > 0 {
		return renderer.MergeViewportConfig(base, overrides[0])
	}
	return base
}
