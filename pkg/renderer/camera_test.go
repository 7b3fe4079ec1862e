package renderer

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/df07/go-sphere-raytracer/pkg/core"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestNewCamera_ForwardBasis(t *testing.T) {
	camera := forwardCamera(2.0)

	if diff := cmp.Diff(core.NewVec3(0, 0, 1), camera.Look(), approx); diff != "" {
		t.Errorf("Look mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(core.NewVec3(1, 0, 0), camera.Right(), approx); diff != "" {
		t.Errorf("Right mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(core.NewVec3(0, 1, 0), camera.Above(), approx); diff != "" {
		t.Errorf("Above mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(core.NewVec3(0, 0, -1), camera.Forward(), approx); diff != "" {
		t.Errorf("Forward mismatch (-want +got):\n%s", diff)
	}
}

func TestCamera_GetRay(t *testing.T) {
	// vfov 90 gives a viewport 2 high and 4 wide at aspect 2, one unit in front of the eye
	camera := forwardCamera(2.0)

	tests := []struct {
		name      string
		u, v      float64
		direction core.Vec3
	}{
		{"Center", 0.5, 0.5, core.NewVec3(0, 0, -1)},
		{"LowerLeft", 0, 0, core.NewVec3(-2, -1, -1)},
		{"UpperRight", 1, 1, core.NewVec3(2, 1, -1)},
		{"LowerRight", 1, 0, core.NewVec3(2, -1, -1)},
		{"Extrapolated", 1.5, 0.5, core.NewVec3(4, 0, -1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := camera.GetRay(tt.u, tt.v)
			if diff := cmp.Diff(core.NewVec3(0, 0, 0), ray.Origin, approx); diff != "" {
				t.Errorf("Origin mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.direction, ray.Direction, approx); diff != "" {
				t.Errorf("Direction mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCamera_BasisIsOrthonormalAndRightHanded(t *testing.T) {
	configs := []CameraConfig{
		{Position: core.NewVec3(3, 2, 1), LookAt: core.NewVec3(0, 0, -1), VFov: 40, AspectRatio: 16.0 / 9.0},
		{Position: core.NewVec3(-1, 5, 2), LookAt: core.NewVec3(0.5, 0, 0), VFov: 120, AspectRatio: 1},
		{Position: core.NewVec3(0, 0, 0), LookAt: core.NewVec3(0, 0, 1), VFov: 10, AspectRatio: 0.5},
	}

	for _, config := range configs {
		camera, err := NewCamera(config)
		if err != nil {
			t.Fatalf("NewCamera(%+v) failed: %v", config, err)
		}

		look, right, above := camera.Look(), camera.Right(), camera.Above()
		for name, v := range map[string]core.Vec3{"look": look, "right": right, "above": above} {
			if math.Abs(v.Length()-1) > 1e-9 {
				t.Errorf("%s should be unit length, got %v", name, v.Length())
			}
		}
		if math.Abs(look.Dot(right)) > 1e-9 || math.Abs(look.Dot(above)) > 1e-9 || math.Abs(right.Dot(above)) > 1e-9 {
			t.Errorf("Basis not orthogonal: look=%v right=%v above=%v", look, right, above)
		}
		if diff := cmp.Diff(look, right.Cross(above), approx); diff != "" {
			t.Errorf("right × above should equal look (-want +got):\n%s", diff)
		}

		// The image center looks at the target
		center := camera.GetRay(0.5, 0.5).Direction.Normalize()
		want := config.LookAt.Subtract(config.Position).Normalize()
		if diff := cmp.Diff(want, center, approx); diff != "" {
			t.Errorf("Center ray mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestNewCamera_InvalidConfig(t *testing.T) {
	valid := CameraConfig{
		Position:    core.NewVec3(0, 0, 0),
		LookAt:      core.NewVec3(0, 0, -1),
		VFov:        90,
		AspectRatio: 1,
	}

	tests := []struct {
		name   string
		modify func(c *CameraConfig)
	}{
		{"ZeroVFov", func(c *CameraConfig) { c.VFov = 0 }},
		{"NegativeVFov", func(c *CameraConfig) { c.VFov = -5 }},
		{"StraightAngleVFov", func(c *CameraConfig) { c.VFov = 180 }},
		{"NaNVFov", func(c *CameraConfig) { c.VFov = math.NaN() }},
		{"ZeroAspect", func(c *CameraConfig) { c.AspectRatio = 0 }},
		{"NegativeAspect", func(c *CameraConfig) { c.AspectRatio = -1 }},
		{"PositionEqualsLookAt", func(c *CameraConfig) { c.LookAt = c.Position }},
		{"LookingStraightDown", func(c *CameraConfig) { c.LookAt = core.NewVec3(0, -1, 0) }},
		{"LookingStraightUp", func(c *CameraConfig) { c.LookAt = core.NewVec3(0, 3, 0) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid
			tt.modify(&config)

			camera, err := NewCamera(config)
			if err == nil {
				t.Fatalf("Expected error, got camera %+v", camera)
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestCamera_SettersRecomputeBasis(t *testing.T) {
	camera := forwardCamera(1.0)

	if err := camera.SetPosition(core.NewVec3(0, 0, 1)); err != nil {
		t.Fatalf("SetPosition failed: %v", err)
	}
	if diff := cmp.Diff(core.NewVec3(0, 0, 1), camera.GetRay(0.5, 0.5).Origin, approx); diff != "" {
		t.Errorf("Origin after SetPosition (-want +got):\n%s", diff)
	}

	if err := camera.LookAt(core.NewVec3(1, 0, 1)); err != nil {
		t.Fatalf("LookAt failed: %v", err)
	}
	if diff := cmp.Diff(core.NewVec3(1, 0, 0), camera.Forward(), approx); diff != "" {
		t.Errorf("Forward after LookAt (-want +got):\n%s", diff)
	}

	// Narrowing the field of view pulls the image corners toward the center
	before := camera.GetRay(0, 0).Direction.Normalize().Dot(camera.Forward())
	if err := camera.SetVFov(30); err != nil {
		t.Fatalf("SetVFov failed: %v", err)
	}
	after := camera.GetRay(0, 0).Direction.Normalize().Dot(camera.Forward())
	if after <= before {
		t.Errorf("Expected corner ray closer to forward after zoom: before=%v after=%v", before, after)
	}

	if err := camera.SetAspectRatio(2); err != nil {
		t.Fatalf("SetAspectRatio failed: %v", err)
	}
	if camera.Config().AspectRatio != 2 {
		t.Errorf("Expected aspect ratio 2, got %v", camera.Config().AspectRatio)
	}
}

func TestCamera_FailedSetterLeavesCameraUnchanged(t *testing.T) {
	camera := forwardCamera(1.0)
	before := camera.Config()
	beforeRay := camera.GetRay(0.25, 0.75)

	if err := camera.SetVFov(200); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig from SetVFov(200), got %v", err)
	}
	if err := camera.LookAt(camera.Position()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig from LookAt(position), got %v", err)
	}
	if err := camera.SetAspectRatio(0); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig from SetAspectRatio(0), got %v", err)
	}

	if diff := cmp.Diff(before, camera.Config(), approx); diff != "" {
		t.Errorf("Config changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(beforeRay, camera.GetRay(0.25, 0.75), approx); diff != "" {
		t.Errorf("Ray changed (-want +got):\n%s", diff)
	}
}

func TestClampVFov(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1, MinVFov},
		{45, 45},
		{179, MaxVFov},
	}
	for _, tt := range tests {
		if got := ClampVFov(tt.in); got != tt.want {
			t.Errorf("ClampVFov(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCamera_UpdateIsAllOrNothing(t *testing.T) {
	camera := forwardCamera(1.0)

	config := camera.Config()
	config.Position = core.NewVec3(0, 0, 3)
	config.LookAt = core.NewVec3(0, 0, 3) // coincides with the new position
	if err := camera.Update(config); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig, got %v", err)
	}
	if camera.Position() != core.NewVec3(0, 0, 0) {
		t.Errorf("Position changed after rejected update: %v", camera.Position())
	}

	config.LookAt = core.NewVec3(0, 0, 0)
	config.VFov = 60
	if err := camera.Update(config); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if camera.VFov() != 60 || camera.Position() != core.NewVec3(0, 0, 3) {
		t.Errorf("Update not applied: %+v", camera.Config())
	}
}
