// Package visual materializes the active path in the scene graph: one marker
// per point and a tube along the curve through them.
package visual

import (
	"image/color"

	"github.com/philipparndt/splatroam/internal/metrics"
	"github.com/philipparndt/splatroam/pkg/geometry"
	"github.com/philipparndt/splatroam/pkg/pathstore"
	"github.com/philipparndt/splatroam/pkg/scene"
	"github.com/rs/zerolog"
)

// Descriptor is the desired visual state of the scene
type Descriptor struct {
	Markers []geometry.Vector3
	// Curve holds the control points of the tube, nil when there is none
	Curve []geometry.Vector3
}

// Derive computes the descriptor for a path list and active index.
// Markers are shown for any number of points; the curve needs at least 2.
func Derive(snap pathstore.Snapshot) Descriptor {
	p, ok := snap.ActivePath()
	if !ok || len(p.Points) == 0 {
		return Descriptor{}
	}
	d := Descriptor{Markers: p.Points}
	if len(p.Points) >= 2 {
		d.Curve = p.Points
	}
	return d
}

// Style controls marker and tube appearance
type Style struct {
	MarkerRadius   float64
	TubeRadius     float64
	TubeSegments   int
	RadialSegments int
	CurveAlpha     float64
	MarkerColor    color.Color
	SelectedColor  color.Color
	TubeColor      color.Color
}

// DefaultStyle returns the default appearance
func DefaultStyle() Style {
	return Style{
		MarkerRadius:   0.08,
		TubeRadius:     0.02,
		TubeSegments:   128,
		RadialSegments: 8,
		CurveAlpha:     geometry.Centripetal,
		MarkerColor:    color.NRGBA{R: 0x33, G: 0x99, B: 0xff, A: 0xff},
		SelectedColor:  color.NRGBA{R: 0xff, G: 0x66, B: 0x00, A: 0xff},
		TubeColor:      color.NRGBA{R: 0xff, G: 0xd7, B: 0x00, A: 0xff},
	}
}

// Sync keeps the scene graph in line with the path store. Only the
// difference to the previously applied descriptor is changed, and every
// object leaving the graph is disposed.
type Sync struct {
	graph   scene.Graph
	factory scene.Factory
	style   Style
	log     zerolog.Logger
	metrics *metrics.Instruments

	current  Descriptor
	markers  []scene.Marker
	tube     scene.Object
	selected int
}

// New creates a sync with nothing materialized
func New(graph scene.Graph, factory scene.Factory, style Style, log zerolog.Logger, m *metrics.Instruments) *Sync {
	return &Sync{
		graph:    graph,
		factory:  factory,
		style:    style,
		log:      log.With().Str("component", "visual").Logger(),
		metrics:  m,
		selected: pathstore.None,
	}
}

// Attach applies the store's current state and follows its changes
func (s *Sync) Attach(store *pathstore.Store) (cancel func()) {
	sel, _ := store.Selection()
	s.selected = sel
	s.Apply(store.Snapshot())
	cancelPaths := store.Subscribe(s.Apply)
	cancelSel := store.SubscribeSelection(s.Select)
	return func() {
		cancelPaths()
		cancelSel()
	}
}

// Apply brings the scene in line with a snapshot
func (s *Sync) Apply(snap pathstore.Snapshot) {
	next := Derive(snap)
	created, disposed := 0, 0

	// markers whose position changed are replaced
	for i := 0; i < len(s.markers) && i < len(next.Markers); i++ {
		if s.current.Markers[i] == next.Markers[i] {
			continue
		}
		s.drop(s.markers[i])
		s.markers[i] = s.newMarker(i, next.Markers[i])
		created++
		disposed++
	}
	for len(s.markers) > len(next.Markers) {
		last := len(s.markers) - 1
		s.drop(s.markers[last])
		s.markers = s.markers[:last]
		disposed++
	}
	for i := len(s.markers); i < len(next.Markers); i++ {
		s.markers = append(s.markers, s.newMarker(i, next.Markers[i]))
		created++
	}
	s.metrics.Created("marker", created)
	s.metrics.Disposed("marker", disposed)

	if !samePoints(s.current.Curve, next.Curve) {
		s.rebuildTube(next.Curve)
	}

	s.current = Descriptor{
		Markers: append([]geometry.Vector3(nil), next.Markers...),
		Curve:   append([]geometry.Vector3(nil), next.Curve...),
	}
	if s.selected >= len(s.markers) {
		s.selected = pathstore.None
	}
	s.log.Debug().
		Int("markers", len(s.markers)).
		Bool("tube", s.tube != nil).
		Int("created", created).
		Int("disposed", disposed).
		Msg("Scene updated")
}

// Select recolors the previously and newly selected markers. Geometry is
// left untouched.
func (s *Sync) Select(prev, next int) {
	s.selected = next
	if prev >= 0 && prev < len(s.markers) {
		s.markers[prev].SetColor(s.style.MarkerColor)
	}
	if next >= 0 && next < len(s.markers) {
		s.markers[next].SetColor(s.style.SelectedColor)
	}
}

// Markers returns the marker objects in point order
func (s *Sync) Markers() []scene.Object {
	out := make([]scene.Object, len(s.markers))
	for i, m := range s.markers {
		out[i] = m
	}
	return out
}

// MarkerIndex returns the point index of a marker, or None
func (s *Sync) MarkerIndex(obj scene.Object) int {
	for i, m := range s.markers {
		if scene.Object(m) == obj {
			return i
		}
	}
	return pathstore.None
}

// HasCurve reports whether a tube is in the scene
func (s *Sync) HasCurve() bool {
	return s.tube != nil
}

// Close removes and disposes everything
func (s *Sync) Close() {
	for _, m := range s.markers {
		s.drop(m)
	}
	s.metrics.Disposed("marker", len(s.markers))
	s.markers = nil
	s.rebuildTube(nil)
	s.current = Descriptor{}
}

func (s *Sync) newMarker(index int, pos geometry.Vector3) scene.Marker {
	c := s.style.MarkerColor
	if index == s.selected {
		c = s.style.SelectedColor
	}
	m := s.factory.NewMarker(pos, s.style.MarkerRadius, c)
	s.graph.Add(m)
	return m
}

func (s *Sync) rebuildTube(points []geometry.Vector3) {
	if s.tube != nil {
		s.drop(s.tube)
		s.tube = nil
		s.metrics.Disposed("tube", 1)
	}
	curve, ok := geometry.NewCatmullRom(points, s.style.CurveAlpha)
	if !ok {
		return
	}
	mesh := geometry.NewTube(curve, s.style.TubeSegments, s.style.RadialSegments, s.style.TubeRadius)
	s.tube = s.factory.NewTube(mesh, s.style.TubeColor)
	s.graph.Add(s.tube)
	s.metrics.Created("tube", 1)
}

func (s *Sync) drop(obj scene.Object) {
	s.graph.Remove(obj)
	obj.Dispose()
}

func samePoints(a, b []geometry.Vector3) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
