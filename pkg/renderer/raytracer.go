package renderer

import (
	"math"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
)

// ShadowAcneEpsilon is the minimum hit distance; it keeps a scattered ray from
// re-hitting the surface it leaves because of floating-point error.
const ShadowAcneEpsilon = 0.0001

// Default background gradient colors
var (
	DefaultTopColor    = core.NewVec3(0.5, 0.7, 1.0) // sky blue
	DefaultBottomColor = core.NewVec3(1.0, 1.0, 1.0) // white
)

// Scene interface to avoid circular imports
type Scene interface {
	GetCamera() *Camera
	GetWorld() geometry.Shape
	GetBackgroundColors() (topColor, bottomColor core.Vec3)
}

// Raytracer maps rays to colors by recursive scattering through a scene
type Raytracer struct {
	scene Scene
}

// NewRaytracer creates a new raytracer
func NewRaytracer(scene Scene) *Raytracer {
	return &Raytracer{scene: scene}
}

// RayColor returns the color carried back along r with at most depth scatter events
func (rt *Raytracer) RayColor(r core.Ray, depth int, sampler core.Sampler) core.Vec3 {
	// If we've exceeded the ray bounce limit, no more light is gathered
	if depth <= 0 {
		return core.Vec3{}
	}

	hit, isHit := rt.scene.GetWorld().Hit(r, ShadowAcneEpsilon, math.Inf(1))
	if !isHit {
		return rt.BackgroundColor(r)
	}

	if hit.Material == nil {
		return core.Vec3{}
	}

	scatter, didScatter := hit.Material.Scatter(r, *hit, sampler)
	if !didScatter {
		return core.Vec3{} // Material absorbed the ray
	}

	// A bounce direction that cancelled to zero cannot be normalized; count it as absorbed
	if scatter.Scattered.Direction.NearZero() {
		return core.Vec3{}
	}

	return scatter.Attenuation.MultiplyVec(rt.RayColor(scatter.Scattered, depth-1, sampler))
}

// BackgroundColor returns the scene's sky gradient for a ray that escaped
func (rt *Raytracer) BackgroundColor(r core.Ray) core.Vec3 {
	topColor, bottomColor := rt.scene.GetBackgroundColors()
	return BackgroundGradient(r.Direction, topColor, bottomColor)
}

// BackgroundGradient blends bottomColor (straight down) to topColor (straight up)
// on the normalized y component of direction
func BackgroundGradient(direction, topColor, bottomColor core.Vec3) core.Vec3 {
	unitDirection := direction.Normalize()

	// Map y from [-1,1] to [0,1]
	t := 0.5 * (unitDirection.Y + 1.0)

	return bottomColor.Lerp(topColor, t)
}
