package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/philipparndt/splatroam/internal/kvstore"
	"github.com/philipparndt/splatroam/internal/motion"
	"github.com/philipparndt/splatroam/internal/persistence"
	"github.com/philipparndt/splatroam/internal/roaming"
	"github.com/philipparndt/splatroam/internal/visual"
	"github.com/philipparndt/splatroam/pkg/cloud"
	"github.com/philipparndt/splatroam/pkg/geometry"
	"github.com/philipparndt/splatroam/pkg/pathstore"
	"github.com/philipparndt/splatroam/pkg/scene"
	"github.com/philipparndt/splatroam/pkg/scene/scenetest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	*scenetest.Graph
	*scenetest.Factory
	*scenetest.Picker
}

type fixture struct {
	viewer   *Viewer
	kv       *kvstore.Memory
	renderer fakeRenderer
	camera   *scenetest.Camera
	controls *scenetest.Controls
}

func v3(x, y, z float64) geometry.Vector3 {
	return geometry.NewVector3(x, y, z)
}

func newFixture(t *testing.T, kv *kvstore.Memory, schedule func(func())) *fixture {
	t.Helper()
	if kv == nil {
		kv = kvstore.NewMemory()
	}
	f := &fixture{
		kv: kv,
		renderer: fakeRenderer{
			Graph:   &scenetest.Graph{},
			Factory: &scenetest.Factory{},
			Picker:  &scenetest.Picker{Radius: 0.2},
		},
		camera:   scenetest.NewCamera(v3(0, 10, 10), v3(0, 0, 0)),
		controls: &scenetest.Controls{On: true},
	}
	f.viewer = New(Options{
		Renderer: f.renderer,
		Camera:   f.camera,
		Controls: f.controls,
		KV:       kv,
		Motion:   motion.DefaultConfig(),
		Style:    visual.DefaultStyle(),
		Schedule: schedule,
		Log:      zerolog.Nop(),
	})
	t.Cleanup(f.viewer.Close)
	return f
}

// load initializes the viewer with loader and waits for the load to resolve
func (f *fixture) load(t *testing.T, loader Loader) {
	t.Helper()
	f.viewer.Init(context.Background(), loader, nil)
	require.Eventually(t, func() bool { return f.viewer.Status().Phase != Loading }, 5*time.Second, 5*time.Millisecond)
}

func (f *fixture) ready(t *testing.T) {
	t.Helper()
	f.load(t, func(context.Context, cloud.Progress) (*cloud.Cloud, error) { return testCloud(), nil })
	require.True(t, f.viewer.Ready())
}

func testCloud() *cloud.Cloud {
	c := cloud.NewCloud("scene")
	c.Add(cloud.Point{Position: v3(0, 0, 0)})
	c.Add(cloud.Point{Position: v3(1, 1, 1)})
	return c
}

func TestNewRestoresPersistedPaths(t *testing.T) {
	kv := kvstore.NewMemory()
	data, err := persistence.Encode([]pathstore.Path{
		{Name: "Walk", Points: []geometry.Vector3{v3(0, 0, 0), v3(1, 0, 0)}},
		{Name: "Empty"},
	})
	require.NoError(t, err)
	require.NoError(t, kv.Set(persistence.DefaultPathsKey, string(data)))
	require.NoError(t, kv.Set(persistence.DefaultActiveKey, "0"))

	f := newFixture(t, kv, nil)

	paths := f.viewer.Store().Paths()
	require.Len(t, paths, 2)
	assert.Equal(t, "Walk", paths[0].Name)
	active, ok := f.viewer.Store().Active()
	assert.True(t, ok)
	assert.Equal(t, 0, active)
	assert.Equal(t, 2, f.renderer.Count("marker"))
	assert.Equal(t, 1, f.renderer.Count("tube"))
}

func TestMutationsArePersisted(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.viewer.Store().CreatePath()

	raw, ok, err := f.kv.Get(persistence.DefaultPathsKey)
	require.NoError(t, err)
	require.True(t, ok)
	paths, err := persistence.Decode([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "Path 1", paths[0].Name)

	active, ok, err := f.kv.Get(persistence.DefaultActiveKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "0", active)
}

func TestInitReady(t *testing.T) {
	f := newFixture(t, nil, nil)

	loaded := make(chan *cloud.Cloud, 1)
	f.viewer.Init(context.Background(), func(ctx context.Context, progress cloud.Progress) (*cloud.Cloud, error) {
		progress(0.5)
		return testCloud(), nil
	}, func(c *cloud.Cloud) { loaded <- c })

	select {
	case c := <-loaded:
		assert.Equal(t, 2, c.Count())
	case <-time.After(5 * time.Second):
		t.Fatal("scene not loaded")
	}
	s := f.viewer.Status()
	assert.Equal(t, Ready, s.Phase)
	assert.Equal(t, "Loaded 2 points", s.Message)
}

func TestInitFailureIsTerminal(t *testing.T) {
	f := newFixture(t, nil, nil)

	f.viewer.Init(context.Background(), func(context.Context, cloud.Progress) (*cloud.Cloud, error) {
		return nil, errors.New("boom")
	}, func(*cloud.Cloud) { t.Error("onLoaded called after failure") })

	require.Eventually(t, func() bool { return f.viewer.Status().Phase == Failed }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "Failed to load scene: boom", f.viewer.Status().Message)

	f.viewer.Notify("something else")
	assert.Equal(t, "Failed to load scene: boom", f.viewer.Status().String())

	f.viewer.Reload(context.Background())
	assert.Equal(t, Failed, f.viewer.Status().Phase)
}

func TestCloseDropsPendingCompletions(t *testing.T) {
	jobs := make(chan func(), 8)
	f := newFixture(t, nil, func(job func()) { jobs <- job })

	release := make(chan struct{})
	returned := make(chan struct{})
	f.viewer.Init(context.Background(), func(ctx context.Context, progress cloud.Progress) (*cloud.Cloud, error) {
		defer close(returned)
		progress(0.25)
		<-release
		return testCloud(), nil
	}, func(*cloud.Cloud) { t.Error("onLoaded called after close") })

	var progressJob func()
	select {
	case progressJob = <-jobs:
	case <-time.After(5 * time.Second):
		t.Fatal("no progress scheduled")
	}

	f.viewer.Close()
	close(release)
	<-returned

	progressJob()
	assert.Equal(t, Status{Phase: Loading}, f.viewer.Status())

	select {
	case job := <-jobs:
		job()
		t.Error("completion scheduled after close")
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, Loading, f.viewer.Status().Phase)
}

func TestStartRoamingTooFewPoints(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.ready(t)

	assert.ErrorIs(t, f.viewer.StartRoaming(), roaming.ErrTooFewPoints)
	assert.Equal(t, roaming.ErrTooFewPoints.Error(), f.viewer.Status().Message)

	store := f.viewer.Store()
	store.CreatePath()
	_, err := store.AppendPoint(0, v3(1, 0, 1))
	require.NoError(t, err)
	assert.ErrorIs(t, f.viewer.StartRoaming(), roaming.ErrTooFewPoints)
	assert.Equal(t, roaming.Idle, f.viewer.Roaming().State())
	assert.True(t, f.controls.On)
}

func TestAuthorAndRoam(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.ready(t)
	store := f.viewer.Store()
	store.CreatePath()
	f.viewer.Roaming().SetEditing(true)

	assert.True(t, f.viewer.Click(scene.Pointer{X: 1, Y: 2}))
	assert.True(t, f.viewer.Click(scene.Pointer{X: 4, Y: 2}))
	p, ok := store.ActivePath()
	require.True(t, ok)
	assert.Equal(t, []geometry.Vector3{v3(1, 0, 2), v3(4, 0, 2)}, p.Points)
	assert.Equal(t, 1, f.renderer.Count("tube"))

	start := f.camera.Pos
	require.NoError(t, f.viewer.StartRoaming())
	assert.False(t, f.controls.On)
	assert.False(t, f.viewer.Click(scene.Pointer{X: 8, Y: 8}), "clicks are ignored while roaming")

	for i := 0; i < 120; i++ {
		f.viewer.Tick(20 * time.Millisecond)
	}
	assert.Greater(t, f.viewer.Roaming().Progress(), 0.0)

	require.NoError(t, f.viewer.PauseRoaming())
	assert.Error(t, f.viewer.PauseRoaming())
	require.NoError(t, f.viewer.ResumeRoaming())
	require.NoError(t, f.viewer.ExitRoaming())
	assert.True(t, f.controls.On)
	for i := 0; i < 120; i++ {
		f.viewer.Tick(20 * time.Millisecond)
	}
	assert.Equal(t, start, f.camera.Pos)
}

func TestCloseDisposesScene(t *testing.T) {
	f := newFixture(t, nil, nil)
	store := f.viewer.Store()
	store.CreatePath()
	_, _ = store.AppendPoint(0, v3(0, 0, 0))
	_, _ = store.AppendPoint(0, v3(1, 0, 0))

	f.viewer.Close()
	f.viewer.Close()
	assert.Empty(t, f.renderer.Factory.Undisposed())
	assert.Empty(t, f.renderer.Graph.Objects)

	created := len(f.renderer.Factory.Created)
	_, _ = store.AppendPoint(0, v3(2, 0, 0))
	assert.Len(t, f.renderer.Factory.Created, created, "no objects after close")
	assert.False(t, f.viewer.Click(scene.Pointer{}))
}

func twoPointPathKV(t *testing.T) *kvstore.Memory {
	t.Helper()
	kv := kvstore.NewMemory()
	data, err := persistence.Encode([]pathstore.Path{
		{Name: "Walk", Points: []geometry.Vector3{v3(0, 0, 0), v3(4, 0, 0)}},
	})
	require.NoError(t, err)
	require.NoError(t, kv.Set(persistence.DefaultPathsKey, string(data)))
	require.NoError(t, kv.Set(persistence.DefaultActiveKey, "0"))
	return kv
}

func TestCommandsIgnoredWhileLoading(t *testing.T) {
	f := newFixture(t, twoPointPathKV(t), nil)
	f.viewer.Roaming().SetEditing(true)

	release := make(chan struct{})
	f.viewer.Init(context.Background(), func(context.Context, cloud.Progress) (*cloud.Cloud, error) {
		<-release
		return testCloud(), nil
	}, nil)
	defer close(release)

	assert.False(t, f.viewer.Ready())
	assert.ErrorIs(t, f.viewer.StartRoaming(), ErrNotReady)
	assert.ErrorIs(t, f.viewer.PauseRoaming(), ErrNotReady)
	assert.ErrorIs(t, f.viewer.ResumeRoaming(), ErrNotReady)
	assert.ErrorIs(t, f.viewer.ExitRoaming(), ErrNotReady)
	assert.False(t, f.viewer.Click(scene.Pointer{X: 2, Y: 2}))
	f.viewer.Tick(20 * time.Millisecond)

	assert.Equal(t, roaming.Idle, f.viewer.Roaming().State())
	assert.True(t, f.controls.On)
	p, _ := f.viewer.Store().ActivePath()
	assert.Len(t, p.Points, 2)
	assert.Equal(t, Loading, f.viewer.Status().Phase)
}

func TestCommandsIgnoredAfterFailure(t *testing.T) {
	f := newFixture(t, twoPointPathKV(t), nil)
	f.viewer.Roaming().SetEditing(true)
	f.load(t, func(context.Context, cloud.Progress) (*cloud.Cloud, error) {
		return nil, errors.New("asset gone")
	})
	require.Equal(t, Failed, f.viewer.Status().Phase)

	assert.ErrorIs(t, f.viewer.StartRoaming(), ErrNotReady)
	assert.False(t, f.viewer.Click(scene.Pointer{X: 2, Y: 2}))
	assert.Equal(t, roaming.Idle, f.viewer.Roaming().State())
	p, _ := f.viewer.Store().ActivePath()
	assert.Len(t, p.Points, 2)
}

func TestRoamingOnceReady(t *testing.T) {
	f := newFixture(t, twoPointPathKV(t), nil)
	f.ready(t)

	require.NoError(t, f.viewer.StartRoaming())
	assert.Equal(t, roaming.Active, f.viewer.Roaming().State())
	assert.False(t, f.controls.On)
}
