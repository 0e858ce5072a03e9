// Package app composes the path store, persistence, scene visualization,
// pointer interaction, camera motion, roaming and telemetry into a viewer.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/philipparndt/splatroam/internal/interaction"
	"github.com/philipparndt/splatroam/internal/kvstore"
	"github.com/philipparndt/splatroam/internal/metrics"
	"github.com/philipparndt/splatroam/internal/motion"
	"github.com/philipparndt/splatroam/internal/persistence"
	"github.com/philipparndt/splatroam/internal/roaming"
	"github.com/philipparndt/splatroam/internal/telemetry"
	"github.com/philipparndt/splatroam/internal/visual"
	"github.com/philipparndt/splatroam/pkg/cloud"
	"github.com/philipparndt/splatroam/pkg/geometry"
	"github.com/philipparndt/splatroam/pkg/pathstore"
	"github.com/philipparndt/splatroam/pkg/scene"
	"github.com/rs/zerolog"
)

// ErrNotReady is returned for author commands issued before the scene has
// loaded or after loading failed
var ErrNotReady = errors.New("scene is not ready")

// Renderer is what the viewer needs from the rendering side
type Renderer interface {
	scene.Graph
	scene.Factory
	scene.Picker
	scene.SurfacePicker
}

// Options wires a viewer to its collaborators
type Options struct {
	Renderer Renderer
	Camera   scene.Camera
	Controls scene.Controls
	KV       kvstore.Store
	Storage  persistence.Options
	Motion   motion.Config
	Style    visual.Style
	// Schedule runs jobs on the UI goroutine; nil runs them immediately
	Schedule telemetry.Scheduler
	Log      zerolog.Logger
	Metrics  *metrics.Instruments
}

// Viewer is the composition root of one open scene
type Viewer struct {
	store       *pathstore.Store
	persistence *persistence.Adapter
	visual      *visual.Sync
	interaction *interaction.Handler
	motion      *motion.Controller
	roaming     *roaming.Machine
	telemetry   *telemetry.Sync
	controls    scene.Controls
	schedule    telemetry.Scheduler
	log         zerolog.Logger

	disposed atomic.Bool
	cancels  []func()

	mu         sync.Mutex
	status     Status
	statusSubs []func(Status)
	loader     Loader
	onLoaded   func(*cloud.Cloud)
}

// New creates a viewer and seeds the path store from persistence
func New(opts Options) *Viewer {
	log := opts.Log.With().Str("component", "viewer").Logger()
	schedule := opts.Schedule
	if schedule == nil {
		schedule = telemetry.Immediate
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop()
	}

	v := &Viewer{
		store:    pathstore.New(),
		controls: opts.Controls,
		schedule: schedule,
		log:      log,
		status:   Status{Phase: Loading},
	}

	v.persistence = persistence.New(opts.KV, opts.Storage, opts.Log, opts.Metrics)
	state := v.persistence.Load()
	v.store.Load(state.Paths, state.Active)
	log.Info().Int("paths", len(state.Paths)).Int("active", state.Active).Msg("Paths restored")

	v.visual = visual.New(opts.Renderer, opts.Renderer, opts.Style, opts.Log, opts.Metrics)
	v.motion = motion.New(opts.Camera, opts.Motion, opts.Log)
	v.roaming = roaming.New(v.motion, opts.Controls, opts.Style.CurveAlpha, opts.Log, opts.Metrics)
	v.interaction = interaction.New(v.store, v.visual, opts.Renderer, opts.Renderer, v.roaming, opts.Log)
	v.telemetry = telemetry.New(opts.Camera, v.roaming, schedule)

	v.cancels = append(v.cancels,
		v.persistence.Attach(v.store),
		v.visual.Attach(v.store),
	)
	return v
}

// Store returns the path store
func (v *Viewer) Store() *pathstore.Store {
	return v.store
}

// Roaming returns the roaming state machine
func (v *Viewer) Roaming() *roaming.Machine {
	return v.roaming
}

// Telemetry returns the telemetry sync
func (v *Viewer) Telemetry() *telemetry.Sync {
	return v.telemetry
}

// Status returns the current status
func (v *Viewer) Status() Status {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// OnStatus registers a status observer
func (v *Viewer) OnStatus(fn func(Status)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.statusSubs = append(v.statusSubs, fn)
}

// Init loads the scene asset asynchronously. Progress and completion are
// delivered through the scheduler and dropped once the viewer is closed.
// onLoaded receives the loaded cloud on success; a failure is terminal.
func (v *Viewer) Init(ctx context.Context, loader Loader, onLoaded func(*cloud.Cloud)) {
	v.mu.Lock()
	v.loader = loader
	v.onLoaded = onLoaded
	v.mu.Unlock()
	v.setStatus(Status{Phase: Loading})

	go func() {
		c, err := loader(ctx, func(p float64) {
			v.later(func() {
				if v.Status().Phase == Loading {
					v.setStatus(Status{Phase: Loading, Progress: p})
				}
			})
		})
		v.later(func() {
			if err != nil {
				v.log.Error().Err(err).Msg("Scene load failed")
				v.setStatus(Status{Phase: Failed, Message: fmt.Sprintf("Failed to load scene: %v", err)})
				return
			}
			v.log.Info().Str("scene", c.Name).Int("points", c.Count()).Msg("Scene loaded")
			v.setStatus(Status{Phase: Ready, Progress: 1, Message: fmt.Sprintf("Loaded %d points", c.Count())})
			if onLoaded != nil {
				onLoaded(c)
			}
		})
	}()
}

// Reload loads the asset again after it changed. It only runs once the
// viewer is ready; a failed reload keeps the current scene.
func (v *Viewer) Reload(ctx context.Context) {
	v.mu.Lock()
	loader, onLoaded := v.loader, v.onLoaded
	phase := v.status.Phase
	v.mu.Unlock()
	if loader == nil || phase != Ready || v.disposed.Load() {
		return
	}

	go func() {
		c, err := loader(ctx, nil)
		v.later(func() {
			if err != nil {
				v.log.Warn().Err(err).Msg("Scene reload failed")
				v.Notify(fmt.Sprintf("Reload failed: %v", err))
				return
			}
			v.log.Info().Int("points", c.Count()).Msg("Scene reloaded")
			v.Notify(fmt.Sprintf("Reloaded %d points", c.Count()))
			if onLoaded != nil {
				onLoaded(c)
			}
		})
	}()
}

// Notify shows an author-facing message without changing the phase.
// A failure message is never replaced.
func (v *Viewer) Notify(message string) {
	s := v.Status()
	if s.Phase == Failed {
		return
	}
	s.Message = message
	v.setStatus(s)
}

// Ready reports whether the scene has loaded and the viewer is still open.
// Until then the path store and roaming are left untouched.
func (v *Viewer) Ready() bool {
	return !v.disposed.Load() && v.Status().Phase == Ready
}

// Click routes a pointer click on the render surface
func (v *Viewer) Click(p scene.Pointer) bool {
	if !v.Ready() {
		return false
	}
	return v.interaction.Click(p)
}

// StartRoaming plays the active path. Too short paths are reported through
// the status line.
func (v *Viewer) StartRoaming() error {
	if !v.Ready() {
		return ErrNotReady
	}
	var points []geometry.Vector3
	if p, ok := v.store.ActivePath(); ok {
		points = p.Points
	}
	err := v.roaming.Start(points)
	v.report(err)
	return err
}

// PauseRoaming pauses playback
func (v *Viewer) PauseRoaming() error {
	if !v.Ready() {
		return ErrNotReady
	}
	err := v.roaming.Pause()
	v.report(err)
	return err
}

// ResumeRoaming continues playback
func (v *Viewer) ResumeRoaming() error {
	if !v.Ready() {
		return ErrNotReady
	}
	err := v.roaming.Resume()
	v.report(err)
	return err
}

// ExitRoaming stops playback and returns the camera to where it was
func (v *Viewer) ExitRoaming() error {
	if !v.Ready() {
		return ErrNotReady
	}
	err := v.roaming.Exit()
	v.report(err)
	return err
}

// Tick advances one frame. Roaming only advances once the scene is ready.
func (v *Viewer) Tick(dt time.Duration) {
	if v.disposed.Load() {
		return
	}
	if v.Ready() {
		v.roaming.Tick(dt)
	}
	v.telemetry.Tick()
}

// Close tears the viewer down. Pending async completions become no-ops and
// every scene object is disposed.
func (v *Viewer) Close() {
	if !v.disposed.CompareAndSwap(false, true) {
		return
	}
	v.motion.Cancel()
	if v.roaming.Roaming() {
		v.controls.SetEnabled(true)
	}
	for _, cancel := range v.cancels {
		cancel()
	}
	v.visual.Close()
	v.log.Debug().Msg("Viewer closed")
}

func (v *Viewer) report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, roaming.ErrTooFewPoints):
		v.Notify(err.Error())
	default:
		v.log.Debug().Err(err).Msg("Roaming command ignored")
	}
}

// later schedules a job unless the viewer is closed by the time it runs
func (v *Viewer) later(job func()) {
	if v.disposed.Load() {
		return
	}
	v.schedule(func() {
		if v.disposed.Load() {
			return
		}
		job()
	})
}

func (v *Viewer) setStatus(s Status) {
	v.mu.Lock()
	if v.status.Phase == Failed {
		v.mu.Unlock()
		return
	}
	v.status = s
	subs := append([]func(Status){}, v.statusSubs...)
	v.mu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}
