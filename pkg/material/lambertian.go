package material

import (
	"github.com/df07/go-sphere-raytracer/pkg/core"
)

// DiffuseMode selects how a Lambertian material picks its bounce direction
type DiffuseMode int

const (
	// DiffuseLambertian bounces toward normal + a uniform point on the unit sphere
	DiffuseLambertian DiffuseMode = iota
	// DiffuseHemisphere bounces in a uniform direction within the normal's hemisphere
	DiffuseHemisphere
)

// Lambertian represents a diffuse material
type Lambertian struct {
	Albedo core.Vec3 // Base color/reflectance
	Mode   DiffuseMode
}

// NewLambertian creates a new lambertian material
func NewLambertian(albedo core.Vec3) *Lambertian {
	return &Lambertian{Albedo: albedo, Mode: DiffuseLambertian}
}

// NewHemisphereLambertian creates a diffuse material using uniform hemisphere bounces
func NewHemisphereLambertian(albedo core.Vec3) *Lambertian {
	return &Lambertian{Albedo: albedo, Mode: DiffuseHemisphere}
}

// Scatter implements the Material interface for lambertian scattering.
// It always scatters. A bounce direction that cancels to (almost) zero is returned as-is;
// the tracer treats it as absorption.
func (l *Lambertian) Scatter(rayIn core.Ray, hit HitRecord, sampler core.Sampler) (ScatterResult, bool) {
	var direction core.Vec3
	switch l.Mode {
	case DiffuseHemisphere:
		direction = core.SampleHemisphere(hit.Normal, sampler.Get2D())
	default:
		direction = hit.Normal.Add(core.SampleOnUnitSphere(sampler.Get2D()))
	}

	return ScatterResult{
		Scattered:   core.NewRay(hit.Point, direction),
		Attenuation: l.Albedo,
	}, true
}
