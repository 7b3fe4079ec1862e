package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/material"
)

// mockShape implements Shape for testing
type mockShape struct {
	hitFn func(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool)
}

func (m mockShape) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	return m.hitFn(ray, tMin, tMax)
}

func TestGroup_EmptyNeverHits(t *testing.T) {
	group := NewGroup()
	hit, isHit := group.Hit(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)), 0.0001, math.Inf(1))
	if isHit || hit != nil {
		t.Errorf("Expected empty group to miss, got %+v", hit)
	}
}

func TestGroup_NearestHitIndependentOfOrder(t *testing.T) {
	near := NewSphere(core.NewVec3(0, 0, -2), 0.5, material.NewLambertian(core.NewVec3(1, 0, 0)))
	far := NewSphere(core.NewVec3(0, 0, -5), 0.5, material.NewLambertian(core.NewVec3(0, 0, 1)))
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))

	orders := map[string]*Group{
		"near first": NewGroup(near, far),
		"far first":  NewGroup(far, near),
	}

	for name, group := range orders {
		t.Run(name, func(t *testing.T) {
			hit, isHit := group.Hit(ray, 0.0001, math.Inf(1))
			if !isHit {
				t.Fatal("Expected hit")
			}
			if math.Abs(hit.T-1.5) > 1e-9 {
				t.Errorf("Expected nearest t=1.5, got %f", hit.T)
			}
			if hit.Material != near.Material {
				t.Error("Expected nearest sphere's material")
			}
		})
	}
}

func TestGroup_NarrowsTMax(t *testing.T) {
	var seenTMax []float64
	recorder := func(t float64) mockShape {
		return mockShape{hitFn: func(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
			seenTMax = append(seenTMax, tMax)
			if t > tMin && t < tMax {
				return &material.HitRecord{T: t}, true
			}
			return nil, false
		}}
	}

	group := NewGroup(recorder(4), recorder(2), recorder(3))
	hit, isHit := group.Hit(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1)), 0.0001, 100)
	if !isHit || hit.T != 2 {
		t.Fatalf("Expected nearest hit at t=2, got %+v (hit=%t)", hit, isHit)
	}

	expected := []float64{100, 4, 2}
	for i, want := range expected {
		if seenTMax[i] != want {
			t.Errorf("Member %d: expected tMax %f, got %f", i, want, seenTMax[i])
		}
	}
}

func TestGroup_AddClearLen(t *testing.T) {
	group := NewGroup()
	group.Add(NewSphere(core.NewVec3(0, 0, 0), 1, nil), NewSphere(core.NewVec3(1, 0, 0), 1, nil))
	if group.Len() != 2 || len(group.Shapes()) != 2 {
		t.Errorf("Expected 2 shapes, got %d", group.Len())
	}

	group.Clear()
	if group.Len() != 0 {
		t.Errorf("Expected empty group after Clear, got %d", group.Len())
	}
}

func TestGroup_NestedGroups(t *testing.T) {
	inner := NewGroup(NewSphere(core.NewVec3(0, 0, -3), 1, nil))
	outer := NewGroup(inner, NewSphere(core.NewVec3(0, 0, -10), 1, nil))

	hit, isHit := outer.Hit(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1)), 0.0001, math.Inf(1))
	if !isHit {
		t.Fatal("Expected hit through nested group")
	}
	if math.Abs(hit.T-2) > 1e-9 {
		t.Errorf("Expected t=2, got %f", hit.T)
	}
}
