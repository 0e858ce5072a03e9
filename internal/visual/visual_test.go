package visual

import (
	"testing"

	"github.com/philipparndt/splatroam/internal/metrics"
	"github.com/philipparndt/splatroam/pkg/geometry"
	"github.com/philipparndt/splatroam/pkg/pathstore"
	"github.com/philipparndt/splatroam/pkg/scene/scenetest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func v(x, y, z float64) geometry.Vector3 {
	return geometry.NewVector3(x, y, z)
}

func setup(t *testing.T) (*pathstore.Store, *Sync, *scenetest.Graph, *scenetest.Factory) {
	t.Helper()
	store := pathstore.New()
	graph := &scenetest.Graph{}
	factory := &scenetest.Factory{}
	style := DefaultStyle()
	style.TubeSegments = 16
	s := New(graph, factory, style, zerolog.Nop(), metrics.Nop())
	t.Cleanup(s.Attach(store))
	return store, s, graph, factory
}

func TestDerive(t *testing.T) {
	pts := []geometry.Vector3{v(0, 0, 0), v(1, 0, 0)}
	tests := []struct {
		name    string
		snap    pathstore.Snapshot
		markers int
		curve   bool
	}{
		{"no active path", pathstore.Snapshot{Paths: []pathstore.Path{{Points: pts}}, Active: pathstore.None}, 0, false},
		{"empty path", pathstore.Snapshot{Paths: []pathstore.Path{{}}, Active: 0}, 0, false},
		{"single point", pathstore.Snapshot{Paths: []pathstore.Path{{Points: pts[:1]}}, Active: 0}, 1, false},
		{"two points", pathstore.Snapshot{Paths: []pathstore.Path{{Points: pts}}, Active: 0}, 2, true},
		{"other path active", pathstore.Snapshot{Paths: []pathstore.Path{{Points: pts}, {}}, Active: 1}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Derive(tt.snap)
			assert.Len(t, d.Markers, tt.markers)
			assert.Equal(t, tt.curve, d.Curve != nil)
		})
	}
}

func TestSync_MarkersAndTube(t *testing.T) {
	store, s, graph, _ := setup(t)
	store.CreatePath()
	assert.Equal(t, 0, len(graph.Objects))

	_, _ = store.AppendPoint(0, v(0, 0, 0))
	assert.Equal(t, 1, graph.Count("marker"), "lone point keeps its marker")
	assert.Equal(t, 0, graph.Count("tube"))
	assert.False(t, s.HasCurve())

	_, _ = store.AppendPoint(0, v(1, 0, 0))
	assert.Equal(t, 2, graph.Count("marker"))
	assert.Equal(t, 1, graph.Count("tube"))
	assert.True(t, s.HasCurve())

	require.NoError(t, store.DeletePoint(0, 0))
	assert.Equal(t, 1, graph.Count("marker"))
	assert.Equal(t, 0, graph.Count("tube"))
}

func TestSync_OnlyChangedMarkersAreReplaced(t *testing.T) {
	store, s, graph, factory := setup(t)
	store.CreatePath()
	for i := 0; i < 3; i++ {
		_, _ = store.AppendPoint(0, v(float64(i), 0, 0))
	}
	before := s.Markers()
	created := len(factory.Created)

	require.NoError(t, store.SetPoint(0, 1, v(1, 5, 0)))
	after := s.Markers()
	assert.Same(t, before[0], after[0])
	assert.NotSame(t, before[1], after[1])
	assert.Same(t, before[2], after[2])
	assert.Equal(t, 1, before[1].(*scenetest.Object).Disposed)
	assert.False(t, graph.Contains(before[1]))

	// one marker and one tube
	assert.Equal(t, created+2, len(factory.Created))
	assert.Equal(t, 3, graph.Count("marker"))
	assert.Equal(t, 1, graph.Count("tube"))
}

func TestSync_RenameKeepsGeometry(t *testing.T) {
	store, _, _, factory := setup(t)
	store.CreatePath()
	_, _ = store.AppendPoint(0, v(0, 0, 0))
	_, _ = store.AppendPoint(0, v(1, 0, 0))
	created := len(factory.Created)

	require.NoError(t, store.RenamePath(0, "Entrance"))
	assert.Equal(t, created, len(factory.Created))
}

func TestSync_DisposesEveryReplacement(t *testing.T) {
	store, s, graph, factory := setup(t)
	store.CreatePath()
	for i := 0; i < 4; i++ {
		_, _ = store.AppendPoint(0, v(float64(i), float64(i%2), 0))
	}
	require.NoError(t, store.Flatten(0, 0))
	require.NoError(t, store.DeletePoint(0, 2))
	store.CreatePath()

	// everything no longer in the graph has been disposed exactly once
	for _, o := range factory.Created {
		if graph.Contains(o) {
			assert.Equal(t, 0, o.Disposed)
		} else {
			assert.Equal(t, 1, o.Disposed, "%s at %v", o.Kind, o.Pos)
		}
	}
	assert.Empty(t, graph.Objects)

	s.Close()
	assert.Empty(t, factory.Undisposed())
}

func TestSync_SelectionRecolorsWithoutRebuild(t *testing.T) {
	store, s, _, factory := setup(t)
	store.CreatePath()
	for i := 0; i < 3; i++ {
		_, _ = store.AppendPoint(0, v(float64(i), 0, 0))
	}
	created := len(factory.Created)
	style := DefaultStyle()
	markers := s.Markers()

	require.NoError(t, store.Select(0))
	require.NoError(t, store.Select(2))

	assert.Equal(t, created, len(factory.Created), "no geometry rebuilt")
	m0 := markers[0].(*scenetest.Object)
	m1 := markers[1].(*scenetest.Object)
	m2 := markers[2].(*scenetest.Object)
	assert.Equal(t, style.MarkerColor, m0.Color)
	assert.Equal(t, 2, m0.Recolors)
	assert.Equal(t, 0, m1.Recolors)
	assert.Equal(t, style.SelectedColor, m2.Color)
}

func TestSync_NewMarkerTakesSelectionColor(t *testing.T) {
	store, s, _, _ := setup(t)
	store.CreatePath()
	_, _ = store.AppendPoint(0, v(0, 0, 0))
	_, _ = store.AppendPoint(0, v(1, 0, 0))
	require.NoError(t, store.Select(1))

	require.NoError(t, store.SetPoint(0, 1, v(2, 0, 0)))
	m := s.Markers()[1].(*scenetest.Object)
	assert.Equal(t, DefaultStyle().SelectedColor, m.Color)
}

func TestSync_MarkerIndex(t *testing.T) {
	store, s, _, factory := setup(t)
	store.CreatePath()
	_, _ = store.AppendPoint(0, v(0, 0, 0))
	_, _ = store.AppendPoint(0, v(1, 0, 0))

	markers := s.Markers()
	assert.Equal(t, 0, s.MarkerIndex(markers[0]))
	assert.Equal(t, 1, s.MarkerIndex(markers[1]))
	tube := factory.Created[len(factory.Created)-1]
	assert.Equal(t, pathstore.None, s.MarkerIndex(tube))
}

func TestSync_SwitchingActivePath(t *testing.T) {
	store, s, graph, _ := setup(t)
	store.CreatePath()
	_, _ = store.AppendPoint(0, v(0, 0, 0))
	_, _ = store.AppendPoint(0, v(1, 0, 0))
	store.CreatePath()
	_, _ = store.AppendPoint(1, v(5, 5, 5))

	assert.Equal(t, 1, graph.Count("marker"))
	assert.False(t, s.HasCurve())

	require.NoError(t, store.SetActive(0))
	assert.Equal(t, 2, graph.Count("marker"))
	assert.True(t, s.HasCurve())
}
