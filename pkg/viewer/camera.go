package viewer

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/splatroam/pkg/geometry"
)

// Camera is a perspective camera. The view direction comes from Rotation
// (local -Z forward, +Y up); Target is the orbit and look-at anchor used by
// the orbit controls and the roaming controller.
type Camera struct {
	position geometry.Vector3
	rotation mgl64.Quat
	target   geometry.Vector3
	FOV      float64 // vertical field of view in radians
	Near     float64
}

// NewCamera creates a camera positioned to view a bounding box
func NewCamera(bbox geometry.BoundingBox) *Camera {
	c := &Camera{
		rotation: mgl64.QuatIdent(),
		FOV:      math.Pi / 4,
		Near:     0.01,
	}
	c.Frame(bbox)
	return c
}

// Frame moves the camera in front of the bounding box, looking at its center
func (c *Camera) Frame(bbox geometry.BoundingBox) {
	center := geometry.NewVector3(0, 0, 0)
	distance := 5.0
	if !bbox.Empty() {
		center = bbox.Center()
		size := bbox.Size()
		distance = math.Max(math.Max(size.X, math.Max(size.Y, size.Z))*1.5, 1)
	}
	c.target = center
	c.position = center.Add(geometry.NewVector3(0, 0, distance))
	c.rotation = geometry.LookRotation(c.position, c.target)
}

func (c *Camera) Position() geometry.Vector3     { return c.position }
func (c *Camera) SetPosition(p geometry.Vector3) { c.position = p }
func (c *Camera) Rotation() mgl64.Quat           { return c.rotation }
func (c *Camera) SetRotation(q mgl64.Quat)       { c.rotation = q.Normalize() }
func (c *Camera) Target() geometry.Vector3       { return c.target }
func (c *Camera) SetTarget(t geometry.Vector3)   { c.target = t }

// basis returns the camera's right, up and forward axes in world space
func (c *Camera) basis() (right, up, forward geometry.Vector3) {
	right = geometry.Rotate(c.rotation, geometry.NewVector3(1, 0, 0))
	up = geometry.Rotate(c.rotation, geometry.NewVector3(0, 1, 0))
	forward = geometry.Rotate(c.rotation, geometry.NewVector3(0, 0, -1))
	return right, up, forward
}

// Project projects a world point to screen coordinates. The third value is
// the depth along the view direction; points with depth below Near are
// behind the camera and must not be drawn.
func (c *Camera) Project(point geometry.Vector3, width, height float64) (float64, float64, float64) {
	right, up, forward := c.basis()

	relative := point.Sub(c.position)
	x := relative.Dot(right)
	y := relative.Dot(up)
	z := relative.Dot(forward)
	if z < c.Near {
		return 0, 0, z
	}

	aspect := width / height
	fovScale := math.Tan(c.FOV / 2)

	screenX := (x/(z*fovScale*aspect))*(width/2) + width/2
	screenY := (-y/(z*fovScale))*(height/2) + height/2
	return screenX, screenY, z
}

// Ray converts screen coordinates into a world-space picking ray
func (c *Camera) Ray(screenX, screenY, width, height float64) geometry.Ray {
	ndcX := (2.0 * screenX / width) - 1.0
	ndcY := 1.0 - (2.0 * screenY / height)

	aspect := width / height
	fovScale := math.Tan(c.FOV / 2)

	right, up, forward := c.basis()
	dir := forward.Add(right.Mul(ndcX * fovScale * aspect)).Add(up.Mul(ndcY * fovScale))
	return geometry.NewRay(c.position, dir)
}

// OrbitControls rotates and zooms the camera around its target from pointer
// drags and scrolls. Disabled controls ignore input.
type OrbitControls struct {
	camera  *Camera
	enabled bool

	RotateSpeed float64 // radians per pointer unit
	ZoomSpeed   float64
	MinDistance float64
}

// NewOrbitControls creates enabled controls for the camera
func NewOrbitControls(camera *Camera) *OrbitControls {
	return &OrbitControls{
		camera:      camera,
		enabled:     true,
		RotateSpeed: 0.01,
		ZoomSpeed:   0.001,
		MinDistance: 0.1,
	}
}

func (o *OrbitControls) SetEnabled(enabled bool) { o.enabled = enabled }
func (o *OrbitControls) Enabled() bool           { return o.enabled }

// Rotate orbits the camera around the target. Elevation is clamped short of
// the poles.
func (o *OrbitControls) Rotate(deltaX, deltaY float64) {
	if !o.enabled {
		return
	}
	offset := o.camera.position.Sub(o.camera.target)
	distance := offset.Length()
	if distance < 1e-9 {
		return
	}

	elevation := math.Asin(clamp(offset.Y/distance, -1, 1))
	azimuth := math.Atan2(offset.X, offset.Z)

	elevation += deltaY * o.RotateSpeed
	azimuth -= deltaX * o.RotateSpeed

	maxAngle := math.Pi/2 - 0.1
	elevation = clamp(elevation, -maxAngle, maxAngle)

	o.place(azimuth, elevation, distance)
}

// Zoom scales the distance to the target
func (o *OrbitControls) Zoom(delta float64) {
	if !o.enabled {
		return
	}
	offset := o.camera.position.Sub(o.camera.target)
	distance := offset.Length()
	if distance < 1e-9 {
		return
	}
	distance = math.Max(distance*(1.0+delta*o.ZoomSpeed), o.MinDistance)
	o.camera.position = o.camera.target.Add(offset.Normalize().Mul(distance))
	o.camera.rotation = geometry.LookRotation(o.camera.position, o.camera.target)
}

func (o *OrbitControls) place(azimuth, elevation, distance float64) {
	x := distance * math.Cos(elevation) * math.Sin(azimuth)
	y := distance * math.Sin(elevation)
	z := distance * math.Cos(elevation) * math.Cos(azimuth)
	o.camera.position = o.camera.target.Add(geometry.NewVector3(x, y, z))
	o.camera.rotation = geometry.LookRotation(o.camera.position, o.camera.target)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
