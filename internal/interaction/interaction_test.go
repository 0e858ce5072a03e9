package interaction

import (
	"math"
	"testing"

	"github.com/philipparndt/splatroam/internal/motion"
	"github.com/philipparndt/splatroam/internal/roaming"
	"github.com/philipparndt/splatroam/internal/visual"
	"github.com/philipparndt/splatroam/pkg/geometry"
	"github.com/philipparndt/splatroam/pkg/pathstore"
	"github.com/philipparndt/splatroam/pkg/scene"
	"github.com/philipparndt/splatroam/pkg/scene/scenetest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store   *pathstore.Store
	visual  *visual.Sync
	graph   *scenetest.Graph
	picker  *scenetest.Picker
	machine *roaming.Machine
	handler *Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  pathstore.New(),
		graph:  &scenetest.Graph{},
		picker: &scenetest.Picker{Radius: 0.5},
	}
	f.visual = visual.New(f.graph, &scenetest.Factory{}, visual.DefaultStyle(), zerolog.Nop(), nil)
	t.Cleanup(f.visual.Attach(f.store))

	cam := scenetest.NewCamera(geometry.NewVector3(0, 10, 10), geometry.NewVector3(0, 0, 0))
	ctrl := motion.New(cam, motion.DefaultConfig(), zerolog.Nop())
	f.machine = roaming.New(ctrl, &scenetest.Controls{On: true}, geometry.Centripetal, zerolog.Nop(), nil)
	f.handler = New(f.store, f.visual, f.picker, f.picker, f.machine, zerolog.Nop())
	return f
}

func at(x, z float64) scene.Pointer {
	return scene.Pointer{X: x, Y: z, Width: 100, Height: 100}
}

func TestTwoClickAuthoring(t *testing.T) {
	f := newFixture(t)
	f.store.CreatePath()
	require.NoError(t, f.store.RenamePath(0, "A"))
	f.machine.SetEditing(true)

	assert.True(t, f.handler.Click(at(1, 1)))
	assert.True(t, f.handler.Click(at(4, 2)))

	p, ok := f.store.ActivePath()
	require.True(t, ok)
	assert.Equal(t, "A", p.Name)
	assert.Equal(t, []geometry.Vector3{{X: 1, Y: 0, Z: 1}, {X: 4, Y: 0, Z: 2}}, p.Points)
	sel, ok := f.store.Selection()
	assert.True(t, ok)
	assert.Equal(t, 1, sel)
	assert.True(t, f.visual.HasCurve())
	assert.Equal(t, 1, f.graph.Count("tube"))
}

func TestClickWithoutEditingPassesThrough(t *testing.T) {
	f := newFixture(t)
	f.store.CreatePath()

	assert.False(t, f.handler.Click(at(1, 1)))
	p, _ := f.store.ActivePath()
	assert.Empty(t, p.Points)
}

func TestClickWithoutActivePath(t *testing.T) {
	f := newFixture(t)
	f.machine.SetEditing(true)
	assert.False(t, f.handler.Click(at(1, 1)))
	assert.Empty(t, f.store.Paths())
}

func TestMarkerHitSelectsAndEnablesEditing(t *testing.T) {
	f := newFixture(t)
	f.store.CreatePath()
	_, _ = f.store.AppendPoint(0, geometry.NewVector3(0, 0, 0))
	_, _ = f.store.AppendPoint(0, geometry.NewVector3(3, 0, 0))
	require.False(t, f.machine.Editing())

	assert.True(t, f.handler.Click(at(3.2, 0)))
	sel, ok := f.store.Selection()
	assert.True(t, ok)
	assert.Equal(t, 1, sel)
	assert.True(t, f.machine.Editing())

	p, _ := f.store.ActivePath()
	assert.Len(t, p.Points, 2, "marker hits never add points")
}

func TestNearestMarkerWins(t *testing.T) {
	f := newFixture(t)
	f.store.CreatePath()
	_, _ = f.store.AppendPoint(0, geometry.NewVector3(0, 0, 0))
	_, _ = f.store.AppendPoint(0, geometry.NewVector3(0, 2, 0.1))

	assert.True(t, f.handler.Click(at(0, 0)))
	sel, _ := f.store.Selection()
	assert.Equal(t, 1, sel, "higher marker is nearer to the downward ray")
}

func TestMissClearsSelection(t *testing.T) {
	f := newFixture(t)
	f.store.CreatePath()
	_, _ = f.store.AppendPoint(0, geometry.NewVector3(0, 0, 0))
	require.NoError(t, f.store.Select(0))
	f.picker.Ground = func(x, z float64) (float64, bool) { return 0, false }

	f.machine.SetEditing(true)
	assert.False(t, f.handler.Click(at(5, 5)), "surface miss passes through")
	_, ok := f.store.Selection()
	assert.False(t, ok)
}

func TestSurfaceHitUsesFirstOrigin(t *testing.T) {
	f := newFixture(t)
	f.store.CreatePath()
	f.machine.SetEditing(true)
	f.picker.Ground = func(x, z float64) (float64, bool) { return x + z, true }

	assert.True(t, f.handler.Click(at(1, 2)))
	p, _ := f.store.ActivePath()
	assert.Equal(t, []geometry.Vector3{{X: 1, Y: 3, Z: 2}}, p.Points)
}

func TestNonFiniteSurfaceHitIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.store.CreatePath()
	f.machine.SetEditing(true)
	f.picker.Ground = func(x, z float64) (float64, bool) { return math.NaN(), true }

	assert.False(t, f.handler.Click(at(1, 2)))
	p, _ := f.store.ActivePath()
	assert.Empty(t, p.Points)
}

func TestClicksIgnoredWhileRoaming(t *testing.T) {
	f := newFixture(t)
	f.store.CreatePath()
	_, _ = f.store.AppendPoint(0, geometry.NewVector3(0, 0, 0))
	_, _ = f.store.AppendPoint(0, geometry.NewVector3(3, 0, 0))
	f.machine.SetEditing(true)
	p, _ := f.store.ActivePath()
	require.NoError(t, f.machine.Start(p.Points))

	assert.False(t, f.handler.Click(at(0, 0)), "marker click ignored")
	assert.False(t, f.handler.Click(at(8, 8)), "surface click ignored")
	_, ok := f.store.Selection()
	assert.False(t, ok)

	require.NoError(t, f.machine.Pause())
	assert.False(t, f.handler.Click(at(8, 8)))
	p, _ = f.store.ActivePath()
	assert.Len(t, p.Points, 2)
}
