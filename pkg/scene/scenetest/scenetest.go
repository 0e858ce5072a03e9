// Package scenetest provides in-memory implementations of the scene
// interfaces for tests.
package scenetest

import (
	"image/color"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/splatroam/pkg/geometry"
	"github.com/philipparndt/splatroam/pkg/scene"
)

// Object is a recorded marker or tube
type Object struct {
	Kind     string
	Pos      geometry.Vector3
	Color    color.Color
	Tube     *geometry.Tube
	Recolors int
	Disposed int
}

func (o *Object) Dispose() { o.Disposed++ }
func (o *Object) Position() geometry.Vector3 { return o.Pos }
func (o *Object) SetColor(c color.Color) {
	o.Color = c
	o.Recolors++
}

// Graph records the objects currently in the scene
type Graph struct {
	Objects []scene.Object
}

func (g *Graph) Add(obj scene.Object) {
	g.Objects = append(g.Objects, obj)
}

func (g *Graph) Remove(obj scene.Object) {
	for i, o := range g.Objects {
		if o == obj {
			g.Objects = append(g.Objects[:i], g.Objects[i+1:]...)
			return
		}
	}
}

// Contains reports whether obj is in the graph
func (g *Graph) Contains(obj scene.Object) bool {
	for _, o := range g.Objects {
		if o == obj {
			return true
		}
	}
	return false
}

// Count returns the number of objects of a kind in the graph
func (g *Graph) Count(kind string) int {
	n := 0
	for _, o := range g.Objects {
		if obj, ok := o.(*Object); ok && obj.Kind == kind {
			n++
		}
	}
	return n
}

// Factory creates Objects and remembers them
type Factory struct {
	Created []*Object
}

func (f *Factory) NewMarker(position geometry.Vector3, _ float64, c color.Color) scene.Marker {
	o := &Object{Kind: "marker", Pos: position, Color: c}
	f.Created = append(f.Created, o)
	return o
}

func (f *Factory) NewTube(tube *geometry.Tube, c color.Color) scene.Object {
	o := &Object{Kind: "tube", Tube: tube, Color: c}
	f.Created = append(f.Created, o)
	return o
}

// Undisposed returns created objects that were never disposed
func (f *Factory) Undisposed() []*Object {
	var out []*Object
	for _, o := range f.Created {
		if o.Disposed == 0 {
			out = append(out, o)
		}
	}
	return out
}

// Camera is a plain camera pose
type Camera struct {
	Pos geometry.Vector3
	Rot mgl64.Quat
	Tgt geometry.Vector3
}

// NewCamera returns a camera at pos looking at target
func NewCamera(pos, target geometry.Vector3) *Camera {
	return &Camera{Pos: pos, Rot: geometry.LookRotation(pos, target), Tgt: target}
}

func (c *Camera) Position() geometry.Vector3 { return c.Pos }
func (c *Camera) SetPosition(p geometry.Vector3) { c.Pos = p }
func (c *Camera) Rotation() mgl64.Quat { return c.Rot }
func (c *Camera) SetRotation(q mgl64.Quat) { c.Rot = q }
func (c *Camera) Target() geometry.Vector3 { return c.Tgt }
func (c *Camera) SetTarget(t geometry.Vector3) { c.Tgt = t }

// Controls records the enabled flag
type Controls struct {
	On bool
}

func (c *Controls) SetEnabled(enabled bool) { c.On = enabled }
func (c *Controls) Enabled() bool { return c.On }

// eye is the height of the top-down picking rays
const eye = 1000.0

// Picker casts vertical rays downwards: pointer X maps to world X and
// pointer Y to world Z. Hits are ordered nearest-first.
type Picker struct {
	// Radius is the horizontal pick radius of markers
	Radius float64
	// Ground returns the surface height below (x, z); nil means a flat
	// surface at y=0 everywhere.
	Ground func(x, z float64) (float64, bool)
}

func (p *Picker) PickObjects(ptr scene.Pointer, objects []scene.Object) []scene.Hit {
	var hits []scene.Hit
	for _, o := range objects {
		m, ok := o.(scene.Marker)
		if !ok {
			continue
		}
		pos := m.Position()
		if math.Hypot(pos.X-ptr.X, pos.Z-ptr.Y) <= p.Radius {
			hits = append(hits, scene.Hit{Object: o, Point: pos, Distance: eye - pos.Y})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits
}

func (p *Picker) PickSurface(ptr scene.Pointer) []scene.SurfaceHit {
	y, ok := 0.0, true
	if p.Ground != nil {
		y, ok = p.Ground(ptr.X, ptr.Y)
	}
	if !ok {
		return nil
	}
	return []scene.SurfaceHit{{Origin: geometry.NewVector3(ptr.X, y, ptr.Y), Distance: eye - y}}
}
