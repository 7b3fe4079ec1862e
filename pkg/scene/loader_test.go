package scene

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/material"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
)

const fullScene = `{
  "name": "Full",
  "camera": {"position": [0, 1, 3], "lookAt": [0, 0, -1], "vfov": 60},
  "background": {"top": [0, 0, 1], "bottom": [1, 0, 0]},
  "materials": {
    "red":   {"type": "diffuse", "albedo": [0.7, 0.3, 0.3]},
    "soft":  {"type": "hemisphere", "albedo": [0.2, 0.2, 0.2]},
    "gold":  {"type": "metal", "albedo": [0.8, 0.6, 0.2], "fuzz": 3},
    "glass": {"type": "dielectric", "index": 1.5}
  },
  "spheres": [
    {"center": [0, -100.5, -1], "radius": 100, "material": "red"},
    {"center": [0, 0, -1], "radius": 0.5, "material": "soft"},
    {"center": [1, 0, -1], "radius": 0.5, "material": "gold"},
    {"center": [-1, 0, -1], "radius": -0.45, "material": "glass"}
  ],
  "viewport": {"width": 64, "height": 32, "samples": 9, "depth": 4, "stratified": true, "seed": 5, "workers": 2}
}`

func TestLoadJSON_FullScene(t *testing.T) {
	s, err := LoadJSON([]byte(fullScene))
	if err != nil {
		t.Fatalf("LoadJSON error: %v", err)
	}

	wantViewport := renderer.DefaultViewportConfig()
	wantViewport.Width = 64
	wantViewport.Height = 32
	wantViewport.VFov = 60
	wantViewport.SamplesPerPixel = 9
	wantViewport.MaxDepth = 4
	wantViewport.Stratified = true
	wantViewport.Seed = 5
	wantViewport.NumWorkers = 2
	if diff := cmp.Diff(wantViewport, s.Viewport); diff != "" {
		t.Errorf("Viewport mismatch (-want +got):\n%s", diff)
	}

	wantCamera := renderer.CameraConfig{
		Position:    core.NewVec3(0, 1, 3),
		LookAt:      core.NewVec3(0, 0, -1),
		VFov:        60,
		AspectRatio: 2,
	}
	if diff := cmp.Diff(wantCamera, s.Camera.Config()); diff != "" {
		t.Errorf("Camera mismatch (-want +got):\n%s", diff)
	}

	if top, bottom := s.GetBackgroundColors(); top != core.NewVec3(0, 0, 1) || bottom != core.NewVec3(1, 0, 0) {
		t.Errorf("Background mismatch: top %v bottom %v", top, bottom)
	}

	shapes := s.World.Shapes()
	if len(shapes) != 4 {
		t.Fatalf("Expected 4 spheres, got %d", len(shapes))
	}

	ground := shapes[0].(*geometry.Sphere)
	if ground.Radius != 100 || ground.Center != core.NewVec3(0, -100.5, -1) {
		t.Errorf("Ground sphere mismatch: %+v", ground)
	}
	if lambertian, ok := ground.Material.(*material.Lambertian); !ok || lambertian.Mode != material.DiffuseLambertian {
		t.Errorf("Expected lambertian ground, got %#v", ground.Material)
	}
	if soft, ok := shapes[1].(*geometry.Sphere).Material.(*material.Lambertian); !ok || soft.Mode != material.DiffuseHemisphere {
		t.Errorf("Expected hemisphere diffuse, got %#v", shapes[1].(*geometry.Sphere).Material)
	}
	if gold, ok := shapes[2].(*geometry.Sphere).Material.(*material.Metal); !ok || gold.Fuzzness != 1 {
		t.Errorf("Expected metal with fuzz clamped to 1, got %#v", shapes[2].(*geometry.Sphere).Material)
	}
	glass := shapes[3].(*geometry.Sphere)
	if d, ok := glass.Material.(*material.Dielectric); !ok || d.RefractiveIndex != 1.5 || glass.Radius != -0.45 {
		t.Errorf("Expected hollow glass shell, got %+v", glass)
	}

	// Spheres sharing a material name share the instance
	if shapes[0].(*geometry.Sphere).Material == shapes[1].(*geometry.Sphere).Material {
		t.Error("Different material names should not share an instance")
	}
}

func TestLoadJSON_Defaults(t *testing.T) {
	s, err := LoadJSON([]byte(`{"spheres": []}`))
	if err != nil {
		t.Fatalf("LoadJSON error: %v", err)
	}

	if diff := cmp.Diff(renderer.DefaultViewportConfig(), s.Viewport); diff != "" {
		t.Errorf("Viewport mismatch (-want +got):\n%s", diff)
	}
	if config := s.Camera.Config(); config.Position != core.NewVec3(0, 0, 0) || config.LookAt != core.NewVec3(0, 0, -1) {
		t.Errorf("Expected default camera, got %+v", config)
	}
	if top, bottom := s.GetBackgroundColors(); top != renderer.DefaultTopColor || bottom != renderer.DefaultBottomColor {
		t.Errorf("Expected default sky, got %v %v", top, bottom)
	}
	if s.GetPrimitiveCount() != 0 {
		t.Errorf("Expected empty world, got %d", s.GetPrimitiveCount())
	}
}

func TestLoadJSON_SharedMaterial(t *testing.T) {
	s, err := LoadJSON([]byte(`{
		"materials": {"m": {"type": "diffuse", "albedo": [0.5, 0.5, 0.5]}},
		"spheres": [
			{"center": [0, 0, -1], "radius": 0.5, "material": "m"},
			{"center": [1, 0, -1], "radius": 0.5, "material": "m"}
		]}`))
	if err != nil {
		t.Fatalf("LoadJSON error: %v", err)
	}
	shapes := s.World.Shapes()
	if shapes[0].(*geometry.Sphere).Material != shapes[1].(*geometry.Sphere).Material {
		t.Error("Spheres naming the same material should share it")
	}
}

func TestLoadJSON_Overrides(t *testing.T) {
	s, err := LoadJSON([]byte(fullScene), renderer.OverrideNonZero(renderer.ViewportConfig{Width: 10, Height: 10}))
	if err != nil {
		t.Fatalf("LoadJSON error: %v", err)
	}
	if s.Viewport.Width != 10 || s.Viewport.SamplesPerPixel != 9 {
		t.Errorf("Expected override merged over file viewport, got %+v", s.Viewport)
	}
	if s.Camera.Config().AspectRatio != 1 {
		t.Errorf("Expected square aspect, got %v", s.Camera.Config().AspectRatio)
	}
}

func TestLoadJSON_Errors(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		message string
	}{
		{"Malformed", `{"spheres": [`, "malformed"},
		{"MissingSpheres", `{}`, "spheres must be an array"},
		{"UnknownMaterialReference", `{"spheres": [{"center": [0,0,0], "radius": 1, "material": "nope"}]}`, `unknown material "nope"`},
		{"UnknownMaterialType", `{"materials": {"m": {"type": "plastic"}}, "spheres": []}`, `unknown material type "plastic"`},
		{"ZeroIndex", `{"materials": {"m": {"type": "dielectric", "index": 0}}, "spheres": []}`, "refractive index"},
		{"NegativeIndex", `{"materials": {"m": {"type": "dielectric", "index": -1.5}}, "spheres": []}`, "refractive index"},
		{"MissingIndex", `{"materials": {"m": {"type": "dielectric"}}, "spheres": []}`, "index must be a number"},
		{"MissingAlbedo", `{"materials": {"m": {"type": "metal"}}, "spheres": []}`, "albedo is required"},
		{"ShortVector", `{"materials": {"m": {"type": "diffuse", "albedo": [1, 1]}}, "spheres": []}`, "3 elements"},
		{"StringInVector", `{"spheres": [{"center": [0,"x",0], "radius": 1, "material": "m"}]}`, "center[1]"},
		{"ZeroRadius", `{"materials": {"m": {"type": "diffuse", "albedo": [1,1,1]}}, "spheres": [{"center": [0,0,0], "radius": 0, "material": "m"}]}`, "radius must not be zero"},
		{"FractionalWidth", `{"viewport": {"width": 10.5}, "spheres": []}`, "viewport.width must be an integer"},
		{"ZeroWidth", `{"viewport": {"width": 0}, "spheres": []}`, "image size"},
		{"BadVFov", `{"camera": {"vfov": 180}, "spheres": []}`, "field of view"},
		{"StratifiedNotBool", `{"viewport": {"stratified": "yes"}, "spheres": []}`, "boolean"},
		{"CameraAtTarget", `{"camera": {"position": [0,0,-1]}, "spheres": []}`, "coincide"},
		{"BadBackground", `{"background": {"top": "blue"}, "spheres": []}`, "background.top"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadJSON([]byte(tt.json))
			if !errors.Is(err, ErrInvalidScene) {
				t.Fatalf("Expected ErrInvalidScene, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("Expected error containing %q, got %q", tt.message, err.Error())
			}
		})
	}
}

func TestLoadJSON_WrapsUnderlyingErrors(t *testing.T) {
	_, err := LoadJSON([]byte(`{"materials": {"m": {"type": "dielectric", "index": -1}}, "spheres": []}`))
	if !errors.Is(err, material.ErrInvalidIndex) {
		t.Errorf("Expected ErrInvalidIndex in chain, got %v", err)
	}

	_, err = LoadJSON([]byte(`{"camera": {"vfov": 0}, "spheres": []}`))
	if !errors.Is(err, renderer.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig in chain, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.json")
	if err := os.WriteFile(path, []byte(fullScene), 0644); err != nil {
		t.Fatalf("Failed to write scene: %v", err)
	}

	s, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if s.GetPrimitiveCount() != 4 {
		t.Errorf("Expected 4 spheres, got %d", s.GetPrimitiveCount())
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected os.ErrNotExist, got %v", err)
	}
}

func TestLoadFile_BundledScenes(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "..", "scenes", "*.json"))
	if err != nil {
		t.Fatalf("Glob error: %v", err)
	}
	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			if _, err := LoadFile(file); err != nil {
				t.Errorf("LoadFile(%s) error: %v", file, err)
			}
		})
	}
}

func TestLoadFile_OverrideDisablesStratified(t *testing.T) {
	path := filepath.Join("..", "..", "scenes", "glass-row.json")

	s, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if !s.Viewport.Stratified {
		t.Fatal("Expected glass-row to request stratified sampling")
	}

	stratified := false
	depth := 0
	s, err = LoadFile(path, renderer.ViewportOverride{Stratified: &stratified, MaxDepth: &depth})
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if s.Viewport.Stratified {
		t.Error("Expected the override to turn stratified sampling off")
	}
	if s.Viewport.MaxDepth != 0 {
		t.Errorf("Expected depth 0, got %d", s.Viewport.MaxDepth)
	}
}
