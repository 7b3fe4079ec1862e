package scene

import (
	"math"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/material"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
)

// oklchToRGB converts OKLCH color values to RGB
// L: lightness (0-1), C: chroma (0-0.4+), H: hue (0-360 degrees)
func oklchToRGB(l, c, h float64) core.Vec3 {
	hRad := h * math.Pi / 180.0

	// OKLCH to OKLAB
	a := c * math.Cos(hRad)
	b := c * math.Sin(hRad)

	// OKLAB to LMS
	l_ := l + 0.3963377774*a + 0.2158037573*b
	m_ := l - 0.1055613458*a - 0.0638541728*b
	s_ := l - 0.0894841775*a - 1.2914855480*b

	l_ = l_ * l_ * l_
	m_ = m_ * m_ * m_
	s_ = s_ * s_ * s_

	// LMS to linear RGB
	r := +4.0767416621*l_ - 3.3077115913*m_ + 0.2309699292*s_
	g := -1.2684380046*l_ + 2.6097574011*m_ - 0.3413193965*s_
	blue := -0.0041960863*l_ - 0.7034186147*m_ + 1.7076147010*s_

	return core.NewVec3(r, g, blue).Clamp(0, 1)
}

// NewSphereGridScene creates a grid of colored spheres on a ground sphere.
// Materials cycle diffuse, metal and glass across the grid.
func NewSphereGridScene(viewportOverrides ...renderer.ViewportOverride) *Scene {
	viewport := mergeOverrides(renderer.ViewportConfig{
		Width:           400,
		Height:          225,
		VFov:            40.0, // Narrower field of view for better framing
		SamplesPerPixel: 16,
		MaxDepth:        12,
		Seed:            42,
		TileSize:        32,
	}, viewportOverrides)

	// Look at the center of the grid from above and behind
	camera := newSceneCamera(core.NewVec3(0, 6, 12), core.NewVec3(0, 0.3, 0), viewport)
	s := New(camera, viewport)

	s.Add(geometry.NewSphere(core.NewVec3(0, -1000, 0), 1000, material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))))

	gridSize := 8
	targetArea := 8.0
	spacing := targetArea / float64(gridSize-1)
	sphereRadius := math.Min(0.35, spacing*0.35)

	glass := material.MustDielectric(1.5)

	// OKLCH parameters for color variation
	baseLightness := 0.65
	minChroma := 0.05
	maxChroma := 0.25

	for i := 0; i < gridSize; i++ {
		for j := 0; j < gridSize; j++ {
			x := float64(i)*spacing - targetArea/2.0
			z := float64(j)*spacing - targetArea/2.0
			position := core.NewVec3(x, sphereRadius, z) // Sphere sits on the ground

			// Hue varies across X, chroma across Z
			hue := (float64(i) / float64(gridSize-1)) * 360.0
			chroma := minChroma + (float64(j)/float64(gridSize-1))*(maxChroma-minChroma)
			lightness := baseLightness + 0.1*math.Sin(float64(i+j)*0.5)
			color := oklchToRGB(lightness, chroma, hue)

			var mat material.Material
			switch (i + j) % 3 {
			case 0:
				mat = material.NewLambertian(color)
			case 1:
				roughness := 0.05 + 0.1*float64(i%3)/2.0
				mat = material.NewMetal(color, roughness)
			default:
				mat = glass
			}

			s.Add(geometry.NewSphere(position, sphereRadius, mat))
		}
	}

	return s
}
