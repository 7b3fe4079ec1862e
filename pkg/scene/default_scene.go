package scene

import (
	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/material"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
)

// NewDefaultScene creates a diffuse, a glass and a metal sphere resting on a huge ground sphere
func NewDefaultScene(viewportOverrides ...renderer.ViewportOverride) *Scene {
	viewport := mergeOverrides(renderer.ViewportConfig{
		Width:           400,
		Height:          225, // 16:9 aspect ratio
		VFov:            90.0,
		SamplesPerPixel: 32,
		MaxDepth:        10,
		Seed:            42,
		TileSize:        32,
	}, viewportOverrides)

	camera := newSceneCamera(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1), viewport)
	s := New(camera, viewport)

	// Create materials
	lambertianGround := material.NewLambertian(core.NewVec3(0.8, 0.8, 0.0))
	lambertianBlue := material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5))
	metalGold := material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 0.0)
	materialGlass := material.MustDielectric(1.5)

	s.Add(
		geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, lambertianGround),
		geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, lambertianBlue),
		geometry.NewSphere(core.NewVec3(1, 0, -1), 0.5, metalGold),

		// Hollow glass shell: the negative radius flips the inner wall's normals
		geometry.NewSphere(core.NewVec3(-1, 0, -1), 0.5, materialGlass),
		geometry.NewSphere(core.NewVec3(-1, 0, -1), -0.45, materialGlass),
	)

	return s
}

// NewSingleSphereScene creates one gray diffuse sphere in front of the camera
func NewSingleSphereScene(viewportOverrides ...renderer.ViewportOverride) *Scene {
	viewport := mergeOverrides(renderer.ViewportConfig{
		Width:           400,
		Height:          225,
		VFov:            90.0,
		SamplesPerPixel: 16,
		MaxDepth:        10,
		Seed:            42,
		TileSize:        32,
	}, viewportOverrides)

	camera := newSceneCamera(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1), viewport)
	s := New(camera, viewport)
	s.Add(geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))))

	return s
}
