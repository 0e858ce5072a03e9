// Package scene defines the renderer capabilities the authoring and playback
// core relies on. Renderers (see pkg/viewer) implement these interfaces; the
// core makes no other assumptions about the renderer's internals.
package scene

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/splatroam/pkg/geometry"
)

// Object is anything that can be inserted into the scene graph
type Object interface {
	// Dispose releases the object's geometry and material.
	// It must be called once the object has been removed from the graph.
	Dispose()
}

// Marker is a selectable proxy for a single path point
type Marker interface {
	Object
	Position() geometry.Vector3
	SetColor(c color.Color)
}

// Graph is the mutable scene graph
type Graph interface {
	Add(obj Object)
	Remove(obj Object)
}

// Factory creates renderable objects. Created objects are not yet in the graph.
type Factory interface {
	NewMarker(position geometry.Vector3, radius float64, c color.Color) Marker
	NewTube(tube *geometry.Tube, c color.Color) Object
}

// Camera exposes the active camera pose and its look-at target
type Camera interface {
	Position() geometry.Vector3
	SetPosition(p geometry.Vector3)
	Rotation() mgl64.Quat
	SetRotation(q mgl64.Quat)
	Target() geometry.Vector3
	SetTarget(t geometry.Vector3)
}

// Controls is the user-driven camera navigation (orbit controls)
type Controls interface {
	SetEnabled(enabled bool)
	Enabled() bool
}

// Pointer is a pointer position on the render surface, in the same units as
// Width and Height.
type Pointer struct {
	X, Y          float64
	Width, Height float64
}

// Hit is a ray intersection with an object
type Hit struct {
	Object   Object
	Point    geometry.Vector3
	Distance float64
}

// SurfaceHit is a ray intersection with the point-cloud surface
type SurfaceHit struct {
	Origin   geometry.Vector3
	Distance float64
}

// Picker casts a ray from the pointer through the camera against objects.
// Hits are reported in the renderer's order.
type Picker interface {
	PickObjects(p Pointer, objects []Object) []Hit
}

// SurfacePicker casts a ray against the point-cloud geometry itself
type SurfacePicker interface {
	PickSurface(p Pointer) []SurfaceHit
}
