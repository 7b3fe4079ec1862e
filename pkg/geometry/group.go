package geometry

import (
	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/material"
)

// Group is an ordered collection of shapes that reports the nearest hit among them.
// Member order does not affect the result.
type Group struct {
	shapes []Shape
}

// NewGroup creates a group holding the given shapes
func NewGroup(shapes ...Shape) *Group {
	g := &Group{}
	g.Add(shapes...)
	return g
}

// Add appends shapes to the group
func (g *Group) Add(shapes ...Shape) {
	g.shapes = append(g.shapes, shapes...)
}

// Clear removes all shapes
func (g *Group) Clear() {
	g.shapes = nil
}

// Len returns the number of shapes in the group
func (g *Group) Len() int {
	return len(g.shapes)
}

// Shapes returns the group members
func (g *Group) Shapes() []Shape {
	return g.shapes
}

// Hit returns the closest hit across all members
func (g *Group) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	var closestHit *material.HitRecord
	closestSoFar := tMax

	for _, shape := range g.shapes {
		if hit, isHit := shape.Hit(ray, tMin, closestSoFar); isHit {
			closestSoFar = hit.T
			closestHit = hit
		}
	}

	return closestHit, closestHit != nil
}
