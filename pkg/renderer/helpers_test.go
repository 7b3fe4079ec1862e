package renderer

import (
	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/material"
)

// testScene is a minimal Scene implementation
type testScene struct {
	camera *Camera
	world  *geometry.Group
}

func newTestScene(camera *Camera, shapes ...geometry.Shape) *testScene {
	return &testScene{camera: camera, world: geometry.NewGroup(shapes...)}
}

func (s *testScene) GetCamera() *Camera { return s.camera }
func (s *testScene) GetWorld() geometry.Shape { return s.world }
func (s *testScene) GetBackgroundColors() (core.Vec3, core.Vec3) {
	return DefaultTopColor, DefaultBottomColor
}

// forwardCamera looks down -z from the origin
func forwardCamera(aspectRatio float64) *Camera {
	return MustCamera(CameraConfig{
		Position:    core.NewVec3(0, 0, 0),
		LookAt:      core.NewVec3(0, 0, -1),
		VFov:        90,
		AspectRatio: aspectRatio,
	})
}

// fixedSampler returns the same value for every draw
type fixedSampler struct {
	value float64
}

func (f fixedSampler) Get1D() float64 { return f.value }
func (f fixedSampler) Get2D() core.Vec2 {
	return core.NewVec2(f.value, f.value)
}

// mockMaterial scatters every ray in a fixed direction, or absorbs when absorb is set
type mockMaterial struct {
	direction   core.Vec3
	attenuation core.Vec3
	absorb      bool
}

func (m *mockMaterial) Scatter(rayIn core.Ray, hit material.HitRecord, sampler core.Sampler) (material.ScatterResult, bool) {
	if m.absorb {
		return material.ScatterResult{}, false
	}
	return material.ScatterResult{
		Scattered:   core.NewRay(hit.Point, m.direction),
		Attenuation: m.attenuation,
	}, true
}
