package viewer

import (
	"image"
	"image/color"
	"math"
	"sort"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/philipparndt/splatroam/pkg/cloud"
	"github.com/philipparndt/splatroam/pkg/geometry"
	"github.com/philipparndt/splatroam/pkg/scene"
)

var (
	_ scene.Graph         = (*SceneView)(nil)
	_ scene.Factory       = (*SceneView)(nil)
	_ scene.Picker        = (*SceneView)(nil)
	_ scene.SurfacePicker = (*SceneView)(nil)
	_ scene.Camera        = (*Camera)(nil)
	_ scene.Controls      = (*OrbitControls)(nil)
)

// SceneView renders a point cloud plus the objects added to its graph into a
// raster and turns pointer input into orbit navigation and taps.
type SceneView struct {
	widget.BaseWidget

	mu       sync.Mutex
	cloud    *cloud.Cloud
	camera   *Camera
	controls *OrbitControls
	objects  []scene.Object

	raster     *canvas.Raster
	background color.RGBA
	pointSize  float64

	// PickTolerance is the screen distance, in pointer units, within which a
	// cloud point counts as hit by a surface pick.
	PickTolerance float64

	dragStart  *fyne.Position
	isDragging bool
	onTap      func(scene.Pointer)
}

// NewSceneView creates an empty view. Call SetCloud once the asset is loaded.
func NewSceneView() *SceneView {
	camera := NewCamera(geometry.NewBoundingBox())
	v := &SceneView{
		camera:        camera,
		controls:      NewOrbitControls(camera),
		background:    color.RGBA{24, 24, 28, 255},
		pointSize:     1.5,
		PickTolerance: 6,
	}
	v.raster = canvas.NewRaster(v.draw)
	v.ExtendBaseWidget(v)
	return v
}

// Camera returns the view camera
func (v *SceneView) Camera() *Camera {
	return v.camera
}

// Controls returns the orbit controls
func (v *SceneView) Controls() *OrbitControls {
	return v.controls
}

// SetCloud replaces the displayed point cloud and frames the camera on it
func (v *SceneView) SetCloud(c *cloud.Cloud) {
	v.mu.Lock()
	v.cloud = c
	if c != nil {
		v.camera.Frame(c.BoundingBox())
	}
	v.mu.Unlock()
	v.Refresh()
}

// SetOnTap sets the callback for taps that are not the end of a drag
func (v *SceneView) SetOnTap(callback func(p scene.Pointer)) {
	v.onTap = callback
}

// Add inserts an object into the scene graph
func (v *SceneView) Add(obj scene.Object) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, o := range v.objects {
		if o == obj {
			return
		}
	}
	v.objects = append(v.objects, obj)
}

// Remove takes an object out of the scene graph
func (v *SceneView) Remove(obj scene.Object) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, o := range v.objects {
		if o == obj {
			v.objects = append(v.objects[:i:i], v.objects[i+1:]...)
			return
		}
	}
}

// Objects returns the objects currently in the graph
func (v *SceneView) Objects() []scene.Object {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]scene.Object(nil), v.objects...)
}

// NewMarker creates a sphere marker
func (v *SceneView) NewMarker(position geometry.Vector3, radius float64, c color.Color) scene.Marker {
	return &marker{position: position, radius: radius, color: toRGBA(c)}
}

// NewTube creates a tube mesh object
func (v *SceneView) NewTube(tube *geometry.Tube, c color.Color) scene.Object {
	return &tubeMesh{tube: tube, color: toRGBA(c)}
}

// PickObjects returns the markers among objects hit by the pointer ray,
// nearest first. Other object kinds are not pickable.
func (v *SceneView) PickObjects(p scene.Pointer, objects []scene.Object) []scene.Hit {
	v.mu.Lock()
	ray := v.camera.Ray(p.X, p.Y, p.Width, p.Height)
	v.mu.Unlock()

	var hits []scene.Hit
	for _, obj := range objects {
		m, ok := obj.(*marker)
		if !ok || m.disposed {
			continue
		}
		if t, ok := ray.IntersectSphere(m.position, m.radius); ok {
			hits = append(hits, scene.Hit{Object: obj, Point: ray.At(t), Distance: t})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits
}

// PickSurface returns the cloud points that project within PickTolerance of
// the pointer, nearest to the camera first.
func (v *SceneView) PickSurface(p scene.Pointer) []scene.SurfaceHit {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cloud == nil || p.Width <= 0 || p.Height <= 0 {
		return nil
	}

	var hits []scene.SurfaceHit
	for _, pt := range v.cloud.Points {
		x, y, z := v.camera.Project(pt.Position, p.Width, p.Height)
		if z < v.camera.Near {
			continue
		}
		if math.Hypot(x-p.X, y-p.Y) <= v.PickTolerance {
			hits = append(hits, scene.SurfaceHit{
				Origin:   pt.Position,
				Distance: pt.Position.Distance(v.camera.position),
			})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits
}

// Tapped forwards taps to the tap callback
func (v *SceneView) Tapped(event *fyne.PointEvent) {
	if v.isDragging || v.onTap == nil {
		return
	}
	size := v.Size()
	v.onTap(scene.Pointer{
		X:      float64(event.Position.X),
		Y:      float64(event.Position.Y),
		Width:  float64(size.Width),
		Height: float64(size.Height),
	})
}

// Dragged orbits the camera
func (v *SceneView) Dragged(event *fyne.DragEvent) {
	if v.dragStart != nil {
		deltaX := event.Position.X - v.dragStart.X
		deltaY := event.Position.Y - v.dragStart.Y

		v.mu.Lock()
		v.controls.Rotate(float64(deltaX), float64(deltaY))
		v.mu.Unlock()
		v.Refresh()
	}
	pos := event.Position
	v.dragStart = &pos
	v.isDragging = true
}

// DragEnd handles the end of a drag event
func (v *SceneView) DragEnd() {
	v.dragStart = nil
	v.isDragging = false
}

// Scrolled zooms the camera
func (v *SceneView) Scrolled(event *fyne.ScrollEvent) {
	v.mu.Lock()
	v.controls.Zoom(-float64(event.Scrolled.DY))
	v.mu.Unlock()
	v.Refresh()
}

// CreateRenderer creates the renderer for the widget
func (v *SceneView) CreateRenderer() fyne.WidgetRenderer {
	return &sceneViewRenderer{view: v}
}

// draw renders one frame at the given pixel size
func (v *SceneView) draw(width, height int) image.Image {
	if width <= 0 || height <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	f := newFrame(width, height, v.background)
	w, h := float64(width), float64(height)
	cam := v.camera

	if v.cloud != nil {
		for _, pt := range v.cloud.Points {
			x, y, z := cam.Project(pt.Position, w, h)
			if z < cam.Near {
				continue
			}
			f.fillDisc(x, y, v.pointSize/2, z, color.RGBA{pt.Color.R, pt.Color.G, pt.Color.B, 255})
		}
	}

	for _, obj := range v.objects {
		switch o := obj.(type) {
		case *tubeMesh:
			if !o.disposed {
				drawTube(f, cam, o, w, h)
			}
		case *marker:
			if !o.disposed {
				drawMarker(f, cam, o, w, h)
			}
		}
	}
	return f.img
}

func drawTube(f *frame, cam *Camera, o *tubeMesh, w, h float64) {
	type projected struct {
		x, y, z float64
		ok      bool
	}
	project := func(p geometry.Vector3) projected {
		x, y, z := cam.Project(p, w, h)
		return projected{x, y, z, z >= cam.Near}
	}

	verts := make([]projected, len(o.tube.Vertices))
	for i, p := range o.tube.Vertices {
		verts[i] = project(p)
	}
	idx := o.tube.Indices
	for i := 0; i+2 < len(idx); i += 3 {
		a, b, c := verts[idx[i]], verts[idx[i+1]], verts[idx[i+2]]
		if !a.ok || !b.ok || !c.ok {
			continue
		}
		f.fillTriangle(a.x, a.y, a.z, b.x, b.y, b.z, c.x, c.y, c.z, o.color)
	}

	// thin tubes shrink below a pixel at distance; keep the centerline visible
	for i := 1; i < len(o.tube.Rings); i++ {
		a, b := project(o.tube.Rings[i-1]), project(o.tube.Rings[i])
		if !a.ok || !b.ok {
			continue
		}
		f.drawLine(int(a.x), int(a.y), a.z, int(b.x), int(b.y), b.z, o.color)
	}
}

func drawMarker(f *frame, cam *Camera, o *marker, w, h float64) {
	x, y, z := cam.Project(o.position, w, h)
	if z < cam.Near {
		return
	}
	radius := o.radius / (z * math.Tan(cam.FOV/2)) * (h / 2)
	f.fillDisc(x, y, math.Max(radius, 3), z-o.radius, o.color)
}

// marker is a sphere proxy for a path point
type marker struct {
	position geometry.Vector3
	radius   float64
	color    color.RGBA
	disposed bool
}

func (m *marker) Position() geometry.Vector3 { return m.position }
func (m *marker) SetColor(c color.Color)     { m.color = toRGBA(c) }
func (m *marker) Dispose()                   { m.disposed = true }

// tubeMesh is a triangulated tube along the active curve
type tubeMesh struct {
	tube     *geometry.Tube
	color    color.RGBA
	disposed bool
}

func (t *tubeMesh) Dispose() {
	t.disposed = true
	t.tube = nil
}

// sceneViewRenderer implements fyne.WidgetRenderer
type sceneViewRenderer struct {
	view *SceneView
}

func (r *sceneViewRenderer) Layout(size fyne.Size) {
	r.view.raster.Resize(size)
}

func (r *sceneViewRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 400)
}

func (r *sceneViewRenderer) Refresh() {
	canvas.Refresh(r.view.raster)
}

func (r *sceneViewRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.view.raster}
}

func (r *sceneViewRenderer) Destroy() {}
