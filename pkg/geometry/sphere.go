package geometry

import (
	"math"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/material"
)

// Sphere represents a sphere shape. A negative radius turns the outward normal inward,
// which models the inner wall of a hollow dielectric shell.
type Sphere struct {
	Center   core.Vec3
	Radius   float64
	Material material.Material
}

// NewSphere creates a new sphere
func NewSphere(center core.Vec3, radius float64, material material.Material) *Sphere {
	return &Sphere{
		Center:   center,
		Radius:   radius,
		Material: material,
	}
}

// Hit tests if a ray intersects with the sphere
func (s *Sphere) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	oc := ray.Origin.Subtract(s.Center)

	// a·t² - 2b·t + c = 0 with b = dot(oc, d)
	a := ray.Direction.LengthSquared()
	b := oc.Dot(ray.Direction)
	c := oc.LengthSquared() - s.Radius*s.Radius

	// A zero-length direction has no parametrization to solve
	if a == 0 {
		return nil, false
	}

	discriminant := b*b - a*c
	if discriminant < 0 {
		return nil, false
	}

	sqrtD := math.Sqrt(discriminant)

	// (b + sqrtD)/-a is the nearer root since a > 0; it is tried first
	for _, sign := range [2]float64{1, -1} {
		root := (b + sign*sqrtD) / -a
		if root > tMin && root < tMax {
			hit := &material.HitRecord{
				T:        root,
				Point:    ray.At(root),
				Material: s.Material,
			}
			outwardNormal := hit.Point.Subtract(s.Center).Divide(s.Radius)
			hit.SetFaceNormal(ray, outwardNormal)
			return hit, true
		}
	}

	return nil, false
}
