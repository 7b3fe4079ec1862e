package scene

import (
	"fmt"
	"math"
	"os"

	"github.com/tidwall/gjson"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/material"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
)

// LoadFile reads a JSON scene description from path
func LoadFile(path string, viewportOverrides ...renderer.ViewportOverride) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file %s: %w", path, err)
	}

	s, err := LoadJSON(data, viewportOverrides...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// LoadJSON builds a scene from a JSON description:
//
//	{
//	  "camera":     {"position": [0,0,0], "lookAt": [0,0,-1], "vfov": 90},
//	  "background": {"top": [0.5,0.7,1], "bottom": [1,1,1]},
//	  "materials":  {"glass": {"type": "dielectric", "index": 1.5}},
//	  "spheres":    [{"center": [0,0,-1], "radius": 0.5, "material": "glass"}],
//	  "viewport":   {"width": 400, "height": 225, "samples": 16, "depth": 10}
//	}
//
// Every section except spheres is optional.
func LoadJSON(data []byte, viewportOverrides ...renderer.ViewportOverride) (*Scene, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidScene)
	}
	root := gjson.ParseBytes(data)

	viewport, err := parseViewport(root)
	if err != nil {
		return nil, err
	}
	viewport = mergeOverrides(viewport, viewportOverrides)
	if err := viewport.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScene, err)
	}

	position, err := optionalVec3(root.Get("camera.position"), "camera.position", core.NewVec3(0, 0, 0))
	if err != nil {
		return nil, err
	}
	lookAt, err := optionalVec3(root.Get("camera.lookAt"), "camera.lookAt", core.NewVec3(0, 0, -1))
	if err != nil {
		return nil, err
	}
	camera, err := renderer.NewCamera(renderer.CameraConfig{
		Position:    position,
		LookAt:      lookAt,
		VFov:        viewport.VFov,
		AspectRatio: viewport.AspectRatio(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: camera: %w", ErrInvalidScene, err)
	}

	s := New(camera, viewport)
	if s.TopColor, err = optionalVec3(root.Get("background.top"), "background.top", s.TopColor); err != nil {
		return nil, err
	}
	if s.BottomColor, err = optionalVec3(root.Get("background.bottom"), "background.bottom", s.BottomColor); err != nil {
		return nil, err
	}

	materials, err := parseMaterials(root.Get("materials"))
	if err != nil {
		return nil, err
	}

	spheres := root.Get("spheres")
	if !spheres.IsArray() {
		return nil, fmt.Errorf("%w: spheres must be an array", ErrInvalidScene)
	}
	for i, entry := range spheres.Array() {
		sphere, err := parseSphere(entry, materials)
		if err != nil {
			return nil, fmt.Errorf("%w: spheres[%d]: %w", ErrInvalidScene, i, err)
		}
		s.Add(sphere)
	}

	return s, nil
}

// parseViewport starts from the default viewport and applies the fields present in the document
func parseViewport(root gjson.Result) (renderer.ViewportConfig, error) {
	viewport := renderer.DefaultViewportConfig()

	ints := []struct {
		path   string
		target *int
	}{
		{"viewport.width", &viewport.Width},
		{"viewport.height", &viewport.Height},
		{"viewport.samples", &viewport.SamplesPerPixel},
		{"viewport.depth", &viewport.MaxDepth},
		{"viewport.tileSize", &viewport.TileSize},
		{"viewport.workers", &viewport.NumWorkers},
	}
	for _, field := range ints {
		value := root.Get(field.path)
		if !value.Exists() {
			continue
		}
		if value.Type != gjson.Number || value.Float() != math.Trunc(value.Float()) {
			return viewport, fmt.Errorf("%w: %s must be an integer", ErrInvalidScene, field.path)
		}
		*field.target = int(value.Int())
	}

	if seed := root.Get("viewport.seed"); seed.Exists() {
		if seed.Type != gjson.Number {
			return viewport, fmt.Errorf("%w: viewport.seed must be a number", ErrInvalidScene)
		}
		viewport.Seed = seed.Int()
	}
	if stratified := root.Get("viewport.stratified"); stratified.Exists() {
		if stratified.Type != gjson.True && stratified.Type != gjson.False {
			return viewport, fmt.Errorf("%w: viewport.stratified must be a boolean", ErrInvalidScene)
		}
		viewport.Stratified = stratified.Bool()
	}
	if vfov := root.Get("camera.vfov"); vfov.Exists() {
		if vfov.Type != gjson.Number {
			return viewport, fmt.Errorf("%w: camera.vfov must be a number", ErrInvalidScene)
		}
		viewport.VFov = vfov.Float()
	}

	return viewport, nil
}

// parseMaterials builds the named material table
func parseMaterials(section gjson.Result) (map[string]material.Material, error) {
	materials := make(map[string]material.Material)
	if !section.Exists() {
		return materials, nil
	}
	if !section.IsObject() {
		return nil, fmt.Errorf("%w: materials must be an object", ErrInvalidScene)
	}

	var parseErr error
	section.ForEach(func(key, value gjson.Result) bool {
		mat, err := parseMaterial(value)
		if err != nil {
			parseErr = fmt.Errorf("%w: material %q: %w", ErrInvalidScene, key.String(), err)
			return false
		}
		materials[key.String()] = mat
		return true
	})

	return materials, parseErr
}

func parseMaterial(value gjson.Result) (material.Material, error) {
	kind := value.Get("type").String()
	switch kind {
	case "diffuse", "lambertian":
		albedo, err := ParseVec3(value.Get("albedo"), "albedo")
		if err != nil {
			return nil, err
		}
		return material.NewLambertian(albedo), nil

	case "hemisphere":
		albedo, err := ParseVec3(value.Get("albedo"), "albedo")
		if err != nil {
			return nil, err
		}
		return material.NewHemisphereLambertian(albedo), nil

	case "metal":
		albedo, err := ParseVec3(value.Get("albedo"), "albedo")
		if err != nil {
			return nil, err
		}
		fuzz := value.Get("fuzz")
		if fuzz.Exists() && fuzz.Type != gjson.Number {
			return nil, fmt.Errorf("fuzz must be a number")
		}
		return material.NewMetal(albedo, fuzz.Float()), nil

	case "dielectric":
		index := value.Get("index")
		if index.Type != gjson.Number {
			return nil, fmt.Errorf("index must be a number")
		}
		return material.NewDielectric(index.Float())

	default:
		return nil, fmt.Errorf("unknown material type %q", kind)
	}
}

func parseSphere(entry gjson.Result, materials map[string]material.Material) (*geometry.Sphere, error) {
	center, err := ParseVec3(entry.Get("center"), "center")
	if err != nil {
		return nil, err
	}

	radius := entry.Get("radius")
	if radius.Type != gjson.Number {
		return nil, fmt.Errorf("radius must be a number")
	}
	if radius.Float() == 0 {
		return nil, fmt.Errorf("radius must not be zero")
	}

	name := entry.Get("material").String()
	mat, ok := materials[name]
	if !ok {
		return nil, fmt.Errorf("unknown material %q", name)
	}

	return geometry.NewSphere(center, radius.Float(), mat), nil
}

// ParseVec3 parses a three-element numeric array such as [0, 1, -2]
func ParseVec3(value gjson.Result, name string) (core.Vec3, error) {
	if !value.Exists() {
		return core.Vec3{}, fmt.Errorf("%s is required", name)
	}
	if !value.IsArray() {
		return core.Vec3{}, fmt.Errorf("%s must be an array of 3 numbers", name)
	}

	elements := value.Array()
	if len(elements) != 3 {
		return core.Vec3{}, fmt.Errorf("%s must have 3 elements, got %d", name, len(elements))
	}

	var xyz [3]float64
	for i, element := range elements {
		if element.Type != gjson.Number {
			return core.Vec3{}, fmt.Errorf("%s[%d] must be a number", name, i)
		}
		xyz[i] = element.Float()
	}
	return core.NewVec3(xyz[0], xyz[1], xyz[2]), nil
}

// optionalVec3 parses value when present and returns fallback otherwise
func optionalVec3(value gjson.Result, name string, fallback core.Vec3) (core.Vec3, error) {
	if !value.Exists() {
		return fallback, nil
	}
	v, err := ParseVec3(value, name)
	if err != nil {
		return core.Vec3{}, fmt.Errorf("%w: %w", ErrInvalidScene, err)
	}
	return v, nil
}
