package renderer

import (
	"fmt"
	"math"

	"github.com/df07/go-sphere-raytracer/pkg/core"
)

// Field of view limits for callers that zoom the camera
const (
	MinVFov = 10.0
	MaxVFov = 170.0
)

// WorldUp is the up direction used to build the camera basis
var WorldUp = core.NewVec3(0, 1, 0)

// CameraConfig contains the parameters a camera is built from
type CameraConfig struct {
	Position    core.Vec3 // Eye position
	LookAt      core.Vec3 // Point the camera looks at
	VFov        float64   // Vertical field of view in degrees
	AspectRatio float64   // Image width / height
}

// Validate checks that the configuration yields a well-defined camera basis
func (c CameraConfig) Validate() error {
	if err := validateVFov(c.VFov); err != nil {
		return err
	}
	if math.IsNaN(c.AspectRatio) || c.AspectRatio <= 0 || math.IsInf(c.AspectRatio, 0) {
		return fmt.Errorf("%w: aspect ratio must be positive, got %v", ErrInvalidConfig, c.AspectRatio)
	}
	view := c.Position.Subtract(c.LookAt)
	if view.NearZero() {
		return fmt.Errorf("%w: camera position and look-at point coincide at %v", ErrInvalidConfig, c.Position)
	}
	if WorldUp.Cross(view.Normalize()).NearZero() {
		return fmt.Errorf("%w: view direction %v is parallel to world up", ErrInvalidConfig, view.Negate())
	}
	return nil
}

// Camera generates rays for rendering
type Camera struct {
	config CameraConfig

	// Orthonormal basis; look points from the target back toward the eye
	look  core.Vec3
	right core.Vec3
	above core.Vec3

	lowerLeftCorner core.Vec3
	horizontal      core.Vec3
	vertical        core.Vec3
}

// NewCamera creates a camera from the given configuration
func NewCamera(config CameraConfig) (*Camera, error) {
	c := &Camera{}
	if err := c.apply(config); err != nil {
		return nil, err
	}
	return c, nil
}

// MustCamera is like NewCamera but panics on an invalid configuration.
// Intended for static scene construction.
func MustCamera(config CameraConfig) *Camera {
	c, err := NewCamera(config)
	if err != nil {
		panic(err)
	}
	return c
}

// apply validates config and recomputes every derived vector.
// On error the camera is left unchanged.
func (c *Camera) apply(config CameraConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}

	theta := config.VFov * math.Pi / 180
	viewportHeight := 2.0 * math.Tan(theta/2)
	viewportWidth := viewportHeight * config.AspectRatio

	look := config.Position.Subtract(config.LookAt).Normalize()
	right := WorldUp.Cross(look).Normalize()
	above := look.Cross(right)

	horizontal := right.Multiply(viewportWidth)
	vertical := above.Multiply(viewportHeight)
	lowerLeftCorner := config.Position.
		Subtract(horizontal.Add(vertical).Multiply(0.5)).
		Subtract(look)

	c.config = config
	c.look = look
	c.right = right
	c.above = above
	c.horizontal = horizontal
	c.vertical = vertical
	c.lowerLeftCorner = lowerLeftCorner
	return nil
}

// GetRay generates a ray for image-plane coordinates (u, v), nominally in [0, 1].
// Values slightly outside extrapolate the image plane.
func (c *Camera) GetRay(u, v float64) core.Ray {
	direction := c.lowerLeftCorner.
		Add(c.horizontal.Multiply(u)).
		Add(c.vertical.Multiply(v)).
		Subtract(c.config.Position)

	return core.NewRay(c.config.Position, direction)
}

// Update replaces the whole configuration at once
func (c *Camera) Update(config CameraConfig) error {
	return c.apply(config)
}

// SetPosition moves the camera, keeping its look-at target
func (c *Camera) SetPosition(position core.Vec3) error {
	config := c.config
	config.Position = position
	return c.apply(config)
}

// LookAt points the camera at target
func (c *Camera) LookAt(target core.Vec3) error {
	config := c.config
	config.LookAt = target
	return c.apply(config)
}

// SetVFov changes the vertical field of view in degrees
func (c *Camera) SetVFov(vfov float64) error {
	config := c.config
	config.VFov = vfov
	return c.apply(config)
}

// SetAspectRatio changes the image aspect ratio
func (c *Camera) SetAspectRatio(aspectRatio float64) error {
	config := c.config
	config.AspectRatio = aspectRatio
	return c.apply(config)
}

// Config returns the configuration the camera was last built from
func (c *Camera) Config() CameraConfig { return c.config }

// Position returns the eye position
func (c *Camera) Position() core.Vec3 { return c.config.Position }

// VFov returns the vertical field of view in degrees
func (c *Camera) VFov() float64 { return c.config.VFov }

// Look returns the unit vector from the look-at target back toward the eye
func (c *Camera) Look() core.Vec3 { return c.look }

// Right returns the unit right vector of the camera basis
func (c *Camera) Right() core.Vec3 { return c.right }

// Above returns the unit up vector of the camera basis
func (c *Camera) Above() core.Vec3 { return c.above }

// Forward returns the viewing direction
func (c *Camera) Forward() core.Vec3 { return c.look.Negate() }

// ClampVFov limits a field of view to [MinVFov, MaxVFov]
func ClampVFov(vfov float64) float64 {
	return max(MinVFov, min(MaxVFov, vfov))
}
